package domain

import "time"

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// ColumnView is a column as presented to clients.
type ColumnView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	IsDefault bool   `json:"isDefault"`
	TaskCount int    `json:"taskCount"`
}

// NewColumnView presents c with the given number of live tasks.
func NewColumnView(c Column, taskCount int) ColumnView {
	return ColumnView{
		ID:        c.ID,
		Name:      c.Name,
		Order:     c.Order,
		IsDefault: c.IsDefault,
		TaskCount: taskCount,
	}
}

// TaskView is a task as presented to clients, with its derived status.
type TaskView struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Priority         Priority  `json:"priority"`
	Status           string    `json:"status"`
	ColumnID         string    `json:"columnId"`
	AssigneeIDs      []string  `json:"assigneeIds"`
	Category         string    `json:"category"`
	CategoryEmoji    string    `json:"categoryEmoji"`
	DueDate          string    `json:"dueDate"`
	CommentCount     int       `json:"commentCount"`
	SubtaskCount     int       `json:"subtaskCount"`
	SubtaskCompleted int       `json:"subtaskCompleted"`
	ExternalID       string    `json:"externalId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewTaskView presents t as it sits in column. The status always comes from
// the column passed in, so a view can never disagree with its ColumnID.
func NewTaskView(t Task, column Column) TaskView {
	v := TaskView{
		ID:               t.ID,
		Code:             t.ExternalID,
		Title:            t.Title,
		Priority:         t.Priority,
		Status:           StatusFromColumnName(column.Name),
		ColumnID:         t.ColumnID,
		AssigneeIDs:      t.AssigneeIDs,
		CommentCount:     t.CommentCount,
		SubtaskCount:     t.SubtaskCount,
		SubtaskCompleted: t.SubtaskCompleted,
		ExternalID:       t.ExternalID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
	if v.AssigneeIDs == nil {
		v.AssigneeIDs = []string{}
	}
	if t.Description != nil {
		v.Description = *t.Description
	}
	if t.Category != nil {
		v.Category = *t.Category
	}
	if t.CategoryEmoji != nil {
		v.CategoryEmoji = *t.CategoryEmoji
	}
	if t.DueDate != nil {
		v.DueDate = t.DueDate.Format(DateLayout)
	}
	return v
}
