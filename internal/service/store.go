package service

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"
)

// Store is the board persistence the service drives. Every method is scoped
// to owner; tombstoned rows are invisible to all of them.
type Store interface {
	ListColumns(ctx context.Context, owner string) ([]domain.Column, error)
	GetColumn(ctx context.Context, owner, id string) (domain.Column, error)
	HasColumns(ctx context.Context, owner string) (bool, error)
	CreateColumn(ctx context.Context, owner, name string, isDefault bool) (domain.Column, error)
	SeedColumns(ctx context.Context, owner string, specs []ordering.Spec) ([]domain.Column, bool, error)
	UpdateColumn(ctx context.Context, owner, id string, patch domain.ColumnPatch) (domain.Column, error)
	SetColumnOrder(ctx context.Context, owner, id string, order int) (domain.Column, error)
	DeleteColumn(ctx context.Context, owner, id string) error
	CountTasks(ctx context.Context, owner, columnID string) (int, error)

	ListTasks(ctx context.Context, owner string, q domain.TaskQuery) ([]domain.Task, int, error)
	GetTask(ctx context.Context, owner, id string) (domain.Task, error)
	CreateTask(ctx context.Context, owner string, in domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (domain.Task, error)
	MoveTask(ctx context.Context, owner, id, columnID string) (domain.Task, error)
	DeleteTask(ctx context.Context, owner, id string) error
}

// Publisher fans board events out to the owner's live sessions.
type Publisher interface {
	Publish(ev domain.BoardEvent)
}

// Auditor records board mutations.
type Auditor interface {
	Log(ctx context.Context, owner, action, entityID string, details map[string]any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.BoardEvent) {}
