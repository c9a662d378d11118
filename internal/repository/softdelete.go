package repository

import (
	"time"

	"taskboard/internal/domain"
)

type writeOp int

const (
	opCreate writeOp = iota
	opUpdate
	opDelete
)

func (op writeOp) String() string {
	switch op {
	case opCreate:
		return "create"
	case opDelete:
		return "delete"
	default:
		return "update"
	}
}

// intercept stamps an entity on its way to storage. Every write of both
// stores passes through here. A delete leaves here as an update of the
// tombstone fields; nothing is ever physically removed.
func intercept(op writeOp, a *domain.Audit, now time.Time) {
	now = now.UTC()
	switch op {
	case opCreate:
		a.CreatedAt = now
		a.UpdatedAt = now
		a.IsDeleted = false
		a.DeletedAt = nil
	case opDelete:
		a.IsDeleted = true
		a.DeletedAt = &now
		a.UpdatedAt = now
	default:
		a.UpdatedAt = now
	}
}
