package client

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"
)

// TaskDraft is the payload of a task creation.
type TaskDraft struct {
	Title         string   `json:"title"`
	Description   *string  `json:"description,omitempty"`
	Priority      string   `json:"priority,omitempty"`
	DueDate       string   `json:"dueDate,omitempty"`
	ColumnID      string   `json:"columnId"`
	AssigneeIDs   []string `json:"assigneeIds,omitempty"`
	Category      *string  `json:"category,omitempty"`
	CategoryEmoji *string  `json:"categoryEmoji,omitempty"`
}

// TaskUpdate is a partial task update. Nil fields are left alone.
type TaskUpdate struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Priority      *string   `json:"priority,omitempty"`
	DueDate       *string   `json:"dueDate,omitempty"`
	ColumnID      *string   `json:"columnId,omitempty"`
	AssigneeIDs   *[]string `json:"assigneeIds,omitempty"`
	Category      *string   `json:"category,omitempty"`
	CategoryEmoji *string   `json:"categoryEmoji,omitempty"`
}

// ColumnUpdate is a partial column update.
type ColumnUpdate struct {
	Name  *string `json:"name,omitempty"`
	Order *int    `json:"order,omitempty"`
}

// API is the board server as seen by the client.
type API interface {
	ListColumns(ctx context.Context) ([]domain.ColumnView, error)
	CreateColumn(ctx context.Context, name string) (domain.ColumnView, error)
	UpdateColumn(ctx context.Context, id string, u ColumnUpdate) (domain.ColumnView, error)
	DeleteColumn(ctx context.Context, id string) error
	ReorderColumns(ctx context.Context, entries []ordering.Entry) ([]domain.ColumnView, error)

	ListTasks(ctx context.Context) ([]domain.TaskView, error)
	CreateTask(ctx context.Context, d TaskDraft) (domain.TaskView, error)
	UpdateTask(ctx context.Context, id string, u TaskUpdate) (domain.TaskView, error)
	MoveTask(ctx context.Context, id, columnID string) (domain.TaskView, error)
	DeleteTask(ctx context.Context, id string) error
}
