package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"taskboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// where collects the predicates and positional args of one read.
type where struct {
	conds []string
	args  []any
}

// scope starts every read: rows of owner that are not tombstoned. There is
// no other constructor for where.
func scope(owner string) *where {
	return &where{
		conds: []string{"owner_id = $1", "is_deleted = FALSE"},
		args:  []any{owner},
	}
}

// arg binds v and returns its placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) and(cond string) *where {
	w.conds = append(w.conds, cond)
	return w
}

func (w *where) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// classify explains an empty scoped read by id: ErrForbidden when a live row
// with that id belongs to another owner, ErrNotFound otherwise. Only the
// owner column is read and nothing is returned to the caller.
func classify(ctx context.Context, q querier, table, owner, id string) error {
	var rowOwner string
	err := q.QueryRow(ctx,
		`SELECT owner_id FROM `+table+` WHERE id = $1 AND is_deleted = FALSE`, id,
	).Scan(&rowOwner)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case err != nil:
		return err
	case rowOwner != owner:
		return domain.ErrForbidden
	default:
		return domain.ErrNotFound
	}
}

// escapeLike quotes the LIKE wildcards of a search term.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
