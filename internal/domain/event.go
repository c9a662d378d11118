package domain

import "time"

// Board event types
const (
	EventColumnCreated    = "column.created"
	EventColumnUpdated    = "column.updated"
	EventColumnDeleted    = "column.deleted"
	EventColumnsReordered = "columns.reordered"
	EventTaskCreated      = "task.created"
	EventTaskUpdated      = "task.updated"
	EventTaskMoved        = "task.moved"
	EventTaskDeleted      = "task.deleted"
	EventBoardSeeded      = "board.seeded"
)

// BoardEvent tells an owner's other sessions that the board changed. It is a
// hint to resync, not a replication log.
type BoardEvent struct {
	Type     string      `json:"type"`
	OwnerID  string      `json:"-"`
	EntityID string      `json:"entityId,omitempty"`
	Column   *ColumnView `json:"column,omitempty"`
	Task     *TaskView   `json:"task,omitempty"`
	At       time.Time   `json:"at"`
}
