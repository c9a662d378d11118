package repository

import (
	"context"
	"encoding/json"

	"taskboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository handles board audit database operations
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit entry
func (r *AuditRepository) Create(ctx context.Context, e *domain.AuditEntry) error {
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO board_audit (owner_id, action, entity_id, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, e.OwnerID, e.Action, e.EntityID, detailsJSON).Scan(&e.ID, &e.CreatedAt)
}

// ListByOwner returns the newest audit entries of an owner
func (r *AuditRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, action, entity_id, details, created_at
		FROM board_audit
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

func scanAuditEntries(rows pgx.Rows) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var detailsJSON []byte
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Action, &e.EntityID, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
			e.Details = make(map[string]any)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
