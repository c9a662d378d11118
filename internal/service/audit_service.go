package service

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// AuditStore persists audit entries.
type AuditStore interface {
	Create(ctx context.Context, e *domain.AuditEntry) error
	ListByOwner(ctx context.Context, owner string, limit int) ([]*domain.AuditEntry, error)
}

// AuditService handles audit logging. Without a store, entries only go to
// the log.
type AuditService struct {
	repo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Log records a board mutation. Failures are logged and swallowed.
func (s *AuditService) Log(ctx context.Context, owner, action, entityID string, details map[string]any) {
	if s.repo == nil {
		logger.WithContext(ctx).Info("audit", "action", action, "owner_id", owner, "entity_id", entityID, "details", details)
		return
	}

	entry := &domain.AuditEntry{
		OwnerID:  owner,
		Action:   action,
		EntityID: entityID,
		Details:  details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit entry", "error", err, "action", action, "owner_id", owner)
	}
}

// Recent returns the newest entries of an owner
func (s *AuditService) Recent(ctx context.Context, owner string, limit int) ([]*domain.AuditEntry, error) {
	if s.repo == nil {
		return []*domain.AuditEntry{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByOwner(ctx, owner, limit)
}
