package domain

import (
	"strings"
	"time"
)

// Column is one lane of an owner's board. Order defines the left-to-right
// sequence among the owner's live columns.
type Column struct {
	ID        string `db:"id" json:"id"`
	OwnerID   string `db:"owner_id" json:"ownerId"`
	Name      string `db:"name" json:"name"`
	Order     int    `db:"sort_order" json:"order"`
	IsDefault bool   `db:"is_default" json:"isDefault"`
	Audit
}

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority accepts any casing of low, normal or urgent.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityNormal:
		return PriorityNormal, true
	case PriorityUrgent:
		return PriorityUrgent, true
	}
	return "", false
}

// Rank orders priorities from low to urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityUrgent:
		return 2
	default:
		return 1
	}
}

// DefaultCategory is assigned to tasks created without a category.
const DefaultCategory = "General"

// Task is a card living in exactly one column. Its display status is not a
// field: it is derived from the column every time the task is presented.
type Task struct {
	ID               string     `db:"id" json:"id"`
	OwnerID          string     `db:"owner_id" json:"ownerId"`
	ColumnID         string     `db:"column_id" json:"columnId"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description,omitempty"`
	Priority         Priority   `db:"priority" json:"priority"`
	DueDate          *time.Time `db:"due_date" json:"dueDate,omitempty"`
	Category         *string    `db:"category" json:"category,omitempty"`
	CategoryEmoji    *string    `db:"category_emoji" json:"categoryEmoji,omitempty"`
	AssigneeIDs      []string   `db:"assignee_ids" json:"assigneeIds"`
	CommentCount     int        `db:"comment_count" json:"commentCount"`
	SubtaskCount     int        `db:"subtask_count" json:"subtaskCount"`
	SubtaskCompleted int        `db:"subtask_completed" json:"subtaskCompleted"`
	ExternalID       string     `db:"external_id" json:"externalId"`
	Audit
}

// NewTask is the input of a task creation.
type NewTask struct {
	ColumnID      string
	Title         string
	Description   *string
	Priority      Priority
	DueDate       *time.Time
	Category      *string
	CategoryEmoji *string
	AssigneeIDs   []string
}

// ColumnPatch carries the fields of a column update. Nil means "keep".
type ColumnPatch struct {
	Name  *string
	Order *int
}

// Empty reports whether the patch changes nothing.
func (p ColumnPatch) Empty() bool {
	return p.Name == nil && p.Order == nil
}

// TaskPatch carries the fields of a task update. Nil means "keep", never
// "clear".
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *Priority
	DueDate       *time.Time
	Category      *string
	CategoryEmoji *string
	AssigneeIDs   *[]string
	ColumnID      *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && p.Category == nil && p.CategoryEmoji == nil &&
		p.AssigneeIDs == nil && p.ColumnID == nil
}

// Apply overwrites the present fields of t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Category != nil {
		t.Category = p.Category
	}
	if p.CategoryEmoji != nil {
		t.CategoryEmoji = p.CategoryEmoji
	}
	if p.AssigneeIDs != nil {
		t.AssigneeIDs = append([]string{}, (*p.AssigneeIDs)...)
	}
	if p.ColumnID != nil {
		t.ColumnID = *p.ColumnID
	}
}

// StatusFromColumnName turns a column name into the status slug shown on
// cards: "In Progress" becomes "in-progress".
func StatusFromColumnName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return "backlog"
	}
	return strings.ReplaceAll(s, " ", "-")
}
