package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskFields = `id, owner_id, column_id, title, description, priority, due_date, category,
	category_emoji, assignee_ids, comment_count, subtask_count, subtask_completed, external_id,
	is_deleted, deleted_at, created_at, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.ColumnID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.DueDate,
		&t.Category,
		&t.CategoryEmoji,
		&t.AssigneeIDs,
		&t.CommentCount,
		&t.SubtaskCount,
		&t.SubtaskCompleted,
		&t.ExternalID,
		&t.IsDeleted,
		&t.DeletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []string{}
	}
	return t, err
}

func (r *BoardStore) CountTasks(ctx context.Context, owner, columnID string) (int, error) {
	return r.countTasks(ctx, r.db, owner, columnID)
}

func (r *BoardStore) countTasks(ctx context.Context, q querier, owner, columnID string) (int, error) {
	w := scope(owner)
	w.and("column_id = " + w.arg(columnID))
	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM board_tasks`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (r *BoardStore) ListTasks(ctx context.Context, owner string, q domain.TaskQuery) ([]domain.Task, int, error) {
	q = q.Normalize()

	w := scope(owner)
	if q.ColumnID != "" {
		w.and("column_id = " + w.arg(q.ColumnID))
	}
	if q.Priority != "" {
		w.and("priority = " + w.arg(string(q.Priority)))
	}
	if q.Search != "" {
		p := w.arg("%" + escapeLike(q.Search) + "%")
		w.and("(title ILIKE " + p + " OR COALESCE(description, '') ILIKE " + p + ")")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM board_tasks`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	limit := w.arg(q.PageSize)
	offset := w.arg(q.Offset())
	rows, err := r.db.Query(ctx,
		`SELECT `+taskFields+` FROM board_tasks`+w.String()+
			` ORDER BY `+orderBy(q)+` LIMIT `+limit+` OFFSET `+offset,
		w.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// orderBy renders the ORDER BY clause of a normalized query. Ties fall back
// to newest first, then id, so pages are stable.
func orderBy(q domain.TaskQuery) string {
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	var b strings.Builder
	switch q.SortBy {
	case domain.SortByTitle:
		b.WriteString("lower(title) " + dir + ", created_at DESC")
	case domain.SortByPriority:
		b.WriteString("CASE priority WHEN 'low' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END " + dir + ", created_at DESC")
	case domain.SortByDueDate:
		b.WriteString("due_date " + dir + " NULLS LAST, created_at DESC")
	default:
		b.WriteString("created_at " + dir)
	}
	b.WriteString(", id")
	return b.String()
}

func (r *BoardStore) getTask(ctx context.Context, q querier, owner, id, lock string) (domain.Task, error) {
	w := scope(owner)
	w.and("id = " + w.arg(id))
	t, err := scanTask(q.QueryRow(ctx,
		`SELECT `+taskFields+` FROM board_tasks`+w.String()+lock, w.args...,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, classify(ctx, q, "board_tasks", owner, id)
	}
	return t, err
}

func (r *BoardStore) GetTask(ctx context.Context, owner, id string) (domain.Task, error) {
	return r.getTask(ctx, r.db, owner, id, "")
}

// requireColumn checks that a task may reference columnID. Missing and
// foreign columns are both reported as ErrForbidden. The row is share-locked
// so a concurrent DeleteColumn waits for this transaction.
func (r *BoardStore) requireColumn(ctx context.Context, tx pgx.Tx, owner, columnID string) error {
	w := scope(owner)
	w.and("id = " + w.arg(columnID))
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM board_columns`+w.String()+` FOR SHARE`, w.args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return columnNotAccessible(columnID)
	}
	return err
}

func columnNotAccessible(id string) error {
	return domain.Errorf(domain.ErrForbidden, "column %s is not accessible", id)
}

func (r *BoardStore) CreateTask(ctx context.Context, owner string, in domain.NewTask) (domain.Task, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.requireColumn(ctx, tx, owner, in.ColumnID); err != nil {
		return domain.Task{}, err
	}
	t := newTask(owner, in, r.codes)
	if err := r.saveTask(ctx, tx, opCreate, &t); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// newTask fills the creation defaults shared by both stores.
func newTask(owner string, in domain.NewTask, codes *CodeGenerator) domain.Task {
	t := domain.Task{
		ID:            uuid.NewString(),
		OwnerID:       owner,
		ColumnID:      in.ColumnID,
		Title:         in.Title,
		Description:   in.Description,
		Priority:      in.Priority,
		DueDate:       in.DueDate,
		Category:      in.Category,
		CategoryEmoji: in.CategoryEmoji,
		AssigneeIDs:   append([]string{}, in.AssigneeIDs...),
		ExternalID:    codes.Next(),
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityNormal
	}
	if t.Category == nil || strings.TrimSpace(*t.Category) == "" {
		category := domain.DefaultCategory
		t.Category = &category
	}
	return t
}

func (r *BoardStore) UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (domain.Task, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := r.getTask(ctx, tx, owner, id, " FOR UPDATE")
	if err != nil {
		return domain.Task{}, err
	}
	if patch.ColumnID != nil {
		if err := r.requireColumn(ctx, tx, owner, *patch.ColumnID); err != nil {
			return domain.Task{}, err
		}
	}
	patch.Apply(&t)
	if err := r.saveTask(ctx, tx, opUpdate, &t); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// MoveTask changes only the column of a task.
func (r *BoardStore) MoveTask(ctx context.Context, owner, id, columnID string) (domain.Task, error) {
	return r.UpdateTask(ctx, owner, id, domain.TaskPatch{ColumnID: &columnID})
}

func (r *BoardStore) DeleteTask(ctx context.Context, owner, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := r.getTask(ctx, tx, owner, id, " FOR UPDATE")
	if err != nil {
		return err
	}
	if err := r.saveTask(ctx, tx, opDelete, &t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// saveTask is the only place task rows are written.
func (r *BoardStore) saveTask(ctx context.Context, q querier, op writeOp, t *domain.Task) error {
	intercept(op, t.Stamps(), r.now())
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []string{}
	}

	if op == opCreate {
		_, err := q.Exec(ctx, `
			INSERT INTO board_tasks (
				id, owner_id, column_id, title, description, priority, due_date, category,
				category_emoji, assignee_ids, comment_count, subtask_count, subtask_completed,
				external_id, is_deleted, deleted_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, t.ID, t.OwnerID, t.ColumnID, t.Title, t.Description, string(t.Priority), t.DueDate, t.Category,
			t.CategoryEmoji, t.AssigneeIDs, t.CommentCount, t.SubtaskCount, t.SubtaskCompleted,
			t.ExternalID, t.IsDeleted, t.DeletedAt, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("%s task: %w", op, err)
		}
		return nil
	}

	tag, err := q.Exec(ctx, `
		UPDATE board_tasks
		SET column_id = $3, title = $4, description = $5, priority = $6, due_date = $7,
		    category = $8, category_emoji = $9, assignee_ids = $10,
		    is_deleted = $11, deleted_at = $12, updated_at = $13
		WHERE id = $1 AND owner_id = $2
	`, t.ID, t.OwnerID, t.ColumnID, t.Title, t.Description, string(t.Priority), t.DueDate,
		t.Category, t.CategoryEmoji, t.AssigneeIDs,
		t.IsDeleted, t.DeletedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s task: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
