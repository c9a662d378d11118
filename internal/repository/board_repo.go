package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columnFields = `id, owner_id, name, sort_order, is_default, is_deleted, deleted_at, created_at, updated_at`

// BoardStore keeps columns and tasks in PostgreSQL.
type BoardStore struct {
	db    *pgxpool.Pool
	codes *CodeGenerator
	now   func() time.Time
}

func NewBoardStore(db *pgxpool.Pool, codes *CodeGenerator) *BoardStore {
	if codes == nil {
		codes = NewCodeGenerator("")
	}
	return &BoardStore{db: db, codes: codes, now: time.Now}
}

// Ping reports whether the database answers.
func (r *BoardStore) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanColumn(row pgx.Row) (domain.Column, error) {
	var c domain.Column
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Order,
		&c.IsDefault,
		&c.IsDeleted,
		&c.DeletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *BoardStore) ListColumns(ctx context.Context, owner string) ([]domain.Column, error) {
	w := scope(owner)
	rows, err := r.db.Query(ctx,
		`SELECT `+columnFields+` FROM board_columns`+w.String()+` ORDER BY sort_order, created_at, id`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Column, error) {
		return scanColumn(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	return cols, nil
}

func (r *BoardStore) HasColumns(ctx context.Context, owner string) (bool, error) {
	w := scope(owner)
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM board_columns`+w.String()+`)`, w.args...,
	).Scan(&exists)
	return exists, err
}

func (r *BoardStore) getColumn(ctx context.Context, q querier, owner, id, lock string) (domain.Column, error) {
	w := scope(owner)
	w.and("id = " + w.arg(id))
	c, err := scanColumn(q.QueryRow(ctx,
		`SELECT `+columnFields+` FROM board_columns`+w.String()+lock, w.args...,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Column{}, classify(ctx, q, "board_columns", owner, id)
	}
	return c, err
}

func (r *BoardStore) GetColumn(ctx context.Context, owner, id string) (domain.Column, error) {
	return r.getColumn(ctx, r.db, owner, id, "")
}

// CreateColumn appends a column after the owner's current last one. The
// max-order read and the insert share one transaction, and creations of the
// same owner are serialized by an advisory lock on the owner id.
func (r *BoardStore) CreateColumn(ctx context.Context, owner, name string, isDefault bool) (domain.Column, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Column{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockOwner(ctx, tx, owner); err != nil {
		return domain.Column{}, err
	}
	c, err := r.insertColumn(ctx, tx, owner, name, isDefault)
	if err != nil {
		return domain.Column{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Column{}, err
	}
	return c, nil
}

// SeedColumns creates specs for an owner that has no live columns yet. It
// reports false, without writing, when the owner already has a board.
func (r *BoardStore) SeedColumns(ctx context.Context, owner string, specs []ordering.Spec) ([]domain.Column, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockOwner(ctx, tx, owner); err != nil {
		return nil, false, err
	}
	w := scope(owner)
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM board_columns`+w.String()+`)`, w.args...,
	).Scan(&exists); err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	cols := make([]domain.Column, 0, len(specs))
	for _, s := range specs {
		c := domain.Column{
			ID:        uuid.NewString(),
			OwnerID:   owner,
			Name:      s.Name,
			Order:     s.Order,
			IsDefault: true,
		}
		if err := r.saveColumn(ctx, tx, opCreate, &c); err != nil {
			return nil, false, err
		}
		cols = append(cols, c)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return cols, true, nil
}

func lockOwner(ctx context.Context, tx pgx.Tx, owner string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, owner); err != nil {
		return fmt.Errorf("lock owner: %w", err)
	}
	return nil
}

func (r *BoardStore) insertColumn(ctx context.Context, tx pgx.Tx, owner, name string, isDefault bool) (domain.Column, error) {
	w := scope(owner)
	rows, err := tx.Query(ctx, `SELECT sort_order FROM board_columns`+w.String(), w.args...)
	if err != nil {
		return domain.Column{}, err
	}
	orders, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return domain.Column{}, err
	}

	c := domain.Column{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Name:      name,
		Order:     ordering.Next(orders),
		IsDefault: isDefault,
	}
	if err := r.saveColumn(ctx, tx, opCreate, &c); err != nil {
		return domain.Column{}, err
	}
	return c, nil
}

func (r *BoardStore) UpdateColumn(ctx context.Context, owner, id string, patch domain.ColumnPatch) (domain.Column, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Column{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := r.getColumn(ctx, tx, owner, id, " FOR UPDATE")
	if err != nil {
		return domain.Column{}, err
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Order != nil {
		c.Order = *patch.Order
	}
	if err := r.saveColumn(ctx, tx, opUpdate, &c); err != nil {
		return domain.Column{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Column{}, err
	}
	return c, nil
}

func (r *BoardStore) SetColumnOrder(ctx context.Context, owner, id string, order int) (domain.Column, error) {
	return r.UpdateColumn(ctx, owner, id, domain.ColumnPatch{Order: &order})
}

// DeleteColumn tombstones an empty column. The column row stays locked until
// commit so no task can be created into it meanwhile.
func (r *BoardStore) DeleteColumn(ctx context.Context, owner, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := r.getColumn(ctx, tx, owner, id, " FOR UPDATE")
	if err != nil {
		return err
	}
	n, err := r.countTasks(ctx, tx, owner, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return nonEmptyColumn(c.Name, n)
	}
	if err := r.saveColumn(ctx, tx, opDelete, &c); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func nonEmptyColumn(name string, n int) error {
	return domain.Errorf(domain.ErrConflict,
		"cannot delete column %q because it contains %d task(s)", name, n)
}

// saveColumn is the only place column rows are written.
func (r *BoardStore) saveColumn(ctx context.Context, q querier, op writeOp, c *domain.Column) error {
	intercept(op, c.Stamps(), r.now())

	if op == opCreate {
		_, err := q.Exec(ctx, `
			INSERT INTO board_columns (id, owner_id, name, sort_order, is_default, is_deleted, deleted_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, c.ID, c.OwnerID, c.Name, c.Order, c.IsDefault, c.IsDeleted, c.DeletedAt, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("%s column: %w", op, err)
		}
		return nil
	}

	tag, err := q.Exec(ctx, `
		UPDATE board_columns
		SET name = $3, sort_order = $4, is_default = $5, is_deleted = $6, deleted_at = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $2
	`, c.ID, c.OwnerID, c.Name, c.Order, c.IsDefault, c.IsDeleted, c.DeletedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s column: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
