package domain

import "time"

// Audit holds the lifecycle stamps shared by every board entity. The stamps
// are owned by the store's write path; callers never set them directly.
type Audit struct {
	IsDeleted bool       `db:"is_deleted" json:"-"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Stamps exposes the embedded audit block to the write path.
func (a *Audit) Stamps() *Audit { return a }

// Audited is implemented by every entity embedding Audit.
type Audited interface {
	Stamps() *Audit
}

// Board audit actions
const (
	AuditActionColumnCreated  = "column_created"
	AuditActionColumnUpdated  = "column_updated"
	AuditActionColumnDeleted  = "column_deleted"
	AuditActionColumnsReorder = "columns_reordered"
	AuditActionTaskCreated    = "task_created"
	AuditActionTaskUpdated    = "task_updated"
	AuditActionTaskMoved      = "task_moved"
	AuditActionTaskDeleted    = "task_deleted"
	AuditActionBoardBootstrap = "board_bootstrapped"
)

// AuditEntry is one row of the board mutation trail.
type AuditEntry struct {
	ID        int64          `db:"id" json:"id"`
	OwnerID   string         `db:"owner_id" json:"ownerId"`
	Action    string         `db:"action" json:"action"`
	EntityID  string         `db:"entity_id" json:"entityId"`
	Details   map[string]any `db:"details" json:"details"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}
