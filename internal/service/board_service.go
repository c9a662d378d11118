package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
	"taskboard/internal/ordering"
)

// Field limits
const (
	MaxColumnName     = 100
	MaxTaskTitle      = 200
	MaxTaskDesc       = 2000
	maxCategoryLength = 50
)

// ReorderError reports a reorder batch that stopped part way. Entries before
// Failed were written and stay written.
type ReorderError struct {
	Applied int
	Failed  string
	Err     error
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("reorder stopped at column %s after %d applied: %v", e.Failed, e.Applied, e.Err)
}

func (e *ReorderError) Unwrap() error { return e.Err }

// TaskPage is one page of a task listing.
type TaskPage struct {
	Items    []domain.TaskView
	Total    int
	Page     int
	PageSize int
}

// BoardService runs the board use cases for an authenticated owner.
type BoardService struct {
	store     Store
	publisher Publisher
	audit     Auditor
	now       func() time.Time
}

func NewBoardService(store Store, publisher Publisher, audit Auditor) *BoardService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if audit == nil {
		audit = NewAuditService(nil)
	}
	return &BoardService{store: store, publisher: publisher, audit: audit, now: time.Now}
}

// afterWrite publishes and audits a successful mutation. Neither can change
// the outcome of the operation.
func (s *BoardService) afterWrite(ctx context.Context, ev domain.BoardEvent, action string, details map[string]any) {
	ev.At = s.now().UTC()
	s.publisher.Publish(ev)
	s.audit.Log(ctx, ev.OwnerID, action, ev.EntityID, details)
}

// columnRef turns a failed lookup of a referenced column into ErrForbidden,
// so missing and foreign ids look the same to the caller.
func columnRef(id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		return domain.Errorf(domain.ErrForbidden, "column %s is not accessible", id)
	}
	return err
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Errorf(domain.ErrValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > MaxColumnName {
		return "", domain.Errorf(domain.ErrValidation, "name must be at most %d characters", MaxColumnName)
	}
	return name, nil
}

func (s *BoardService) columnView(ctx context.Context, owner string, c domain.Column) (domain.ColumnView, error) {
	n, err := s.store.CountTasks(ctx, owner, c.ID)
	if err != nil {
		return domain.ColumnView{}, err
	}
	return domain.NewColumnView(c, n), nil
}

// ListColumns returns the owner's columns in board order with task counts.
func (s *BoardService) ListColumns(ctx context.Context, owner string) ([]domain.ColumnView, error) {
	cols, err := s.store.ListColumns(ctx, owner)
	if err != nil {
		return nil, err
	}
	ordering.Sort(cols)

	out := make([]domain.ColumnView, 0, len(cols))
	for _, c := range cols {
		v, err := s.columnView(ctx, owner, c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *BoardService) CreateColumn(ctx context.Context, owner, name string) (v domain.ColumnView, err error) {
	defer func() { observe("create_column", err) }()

	name, err = validateName(name)
	if err != nil {
		return domain.ColumnView{}, err
	}
	c, err := s.store.CreateColumn(ctx, owner, name, false)
	if err != nil {
		return domain.ColumnView{}, err
	}
	v = domain.NewColumnView(c, 0)

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventColumnCreated, OwnerID: owner, EntityID: c.ID, Column: &v},
		domain.AuditActionColumnCreated, map[string]any{"name": c.Name, "order": c.Order})
	return v, nil
}

func (s *BoardService) UpdateColumn(ctx context.Context, owner, id string, patch domain.ColumnPatch) (v domain.ColumnView, err error) {
	defer func() { observe("update_column", err) }()

	if patch.Name != nil {
		name, err := validateName(*patch.Name)
		if err != nil {
			return domain.ColumnView{}, err
		}
		patch.Name = &name
	}
	c, err := s.store.UpdateColumn(ctx, owner, id, patch)
	if err != nil {
		return domain.ColumnView{}, err
	}
	if v, err = s.columnView(ctx, owner, c); err != nil {
		return domain.ColumnView{}, err
	}

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventColumnUpdated, OwnerID: owner, EntityID: c.ID, Column: &v},
		domain.AuditActionColumnUpdated, map[string]any{"name": c.Name, "order": c.Order})
	return v, nil
}

// DeleteColumn soft-deletes an empty column.
func (s *BoardService) DeleteColumn(ctx context.Context, owner, id string) (err error) {
	defer func() { observe("delete_column", err) }()

	c, err := s.store.GetColumn(ctx, owner, id)
	if err != nil {
		return err
	}
	n, err := s.store.CountTasks(ctx, owner, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Errorf(domain.ErrConflict,
			"cannot delete column %q because it contains %d task(s)", c.Name, n)
	}
	if err := s.store.DeleteColumn(ctx, owner, id); err != nil {
		return err
	}

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventColumnDeleted, OwnerID: owner, EntityID: id},
		domain.AuditActionColumnDeleted, map[string]any{"name": c.Name})
	return nil
}

// ReorderColumns writes each entry's order after checking the column belongs
// to owner. The batch is not atomic: when entry k fails, entries before it
// are already written and a *ReorderError says how many.
func (s *BoardService) ReorderColumns(ctx context.Context, owner string, entries []ordering.Entry) (cols []domain.ColumnView, err error) {
	defer func() { observe("reorder_columns", err) }()

	entries, err = ordering.Normalize(entries)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return s.ListColumns(ctx, owner)
	}

	applied := 0
	var failure error
	for _, e := range entries {
		if _, err := s.store.GetColumn(ctx, owner, e.ColumnID); err != nil {
			failure = &ReorderError{Applied: applied, Failed: e.ColumnID, Err: columnRef(e.ColumnID, err)}
			break
		}
		if _, err := s.store.SetColumnOrder(ctx, owner, e.ColumnID, e.Order); err != nil {
			failure = &ReorderError{Applied: applied, Failed: e.ColumnID, Err: columnRef(e.ColumnID, err)}
			break
		}
		applied++
	}

	if applied > 0 {
		details := map[string]any{"applied": applied, "requested": len(entries)}
		s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventColumnsReordered, OwnerID: owner},
			domain.AuditActionColumnsReorder, details)
	}
	if failure != nil {
		logger.WithContext(ctx).Warn("partial column reorder", "owner_id", owner, "applied", applied, "error", failure)
		return nil, failure
	}
	return s.ListColumns(ctx, owner)
}

// Bootstrap seeds the default columns for an owner without a board. It
// reports whether anything was created.
func (s *BoardService) Bootstrap(ctx context.Context, owner string) (cols []domain.ColumnView, seeded bool, err error) {
	defer func() { observe("bootstrap", err) }()

	has, err := s.store.HasColumns(ctx, owner)
	if err != nil {
		return nil, false, err
	}
	if !has {
		created, ok, err := s.store.SeedColumns(ctx, owner, ordering.Default())
		if err != nil {
			return nil, false, err
		}
		if ok {
			seeded = true
			s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventBoardSeeded, OwnerID: owner},
				domain.AuditActionBoardBootstrap, map[string]any{"columns": len(created)})
		}
	}

	cols, err = s.ListColumns(ctx, owner)
	return cols, seeded, err
}

// taskView presents t with the status of the column it sits in.
func (s *BoardService) taskView(ctx context.Context, owner string, t domain.Task) (domain.TaskView, error) {
	c, err := s.store.GetColumn(ctx, owner, t.ColumnID)
	if err != nil {
		return domain.TaskView{}, fmt.Errorf("load column of task %s: %w", t.ID, err)
	}
	return domain.NewTaskView(t, c), nil
}

func (s *BoardService) ListTasks(ctx context.Context, owner string, q domain.TaskQuery) (TaskPage, error) {
	q = q.Normalize()
	tasks, total, err := s.store.ListTasks(ctx, owner, q)
	if err != nil {
		return TaskPage{}, err
	}
	cols, err := s.store.ListColumns(ctx, owner)
	if err != nil {
		return TaskPage{}, err
	}
	byID := make(map[string]domain.Column, len(cols))
	for _, c := range cols {
		byID[c.ID] = c
	}

	items := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, domain.NewTaskView(t, byID[t.ColumnID]))
	}
	return TaskPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *BoardService) GetTask(ctx context.Context, owner, id string) (domain.TaskView, error) {
	t, err := s.store.GetTask(ctx, owner, id)
	if err != nil {
		return domain.TaskView{}, err
	}
	return s.taskView(ctx, owner, t)
}

func validateTaskText(title, description *string) error {
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return domain.Errorf(domain.ErrValidation, "title is required")
		}
		if utf8.RuneCountInString(t) > MaxTaskTitle {
			return domain.Errorf(domain.ErrValidation, "title must be at most %d characters", MaxTaskTitle)
		}
		*title = t
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxTaskDesc {
		return domain.Errorf(domain.ErrValidation, "description must be at most %d characters", MaxTaskDesc)
	}
	return nil
}

func validateCategory(category *string) error {
	if category != nil && utf8.RuneCountInString(*category) > maxCategoryLength {
		return domain.Errorf(domain.ErrValidation, "category must be at most %d characters", maxCategoryLength)
	}
	return nil
}

func (s *BoardService) CreateTask(ctx context.Context, owner string, in domain.NewTask) (v domain.TaskView, err error) {
	defer func() { observe("create_task", err) }()

	if err := validateTaskText(&in.Title, in.Description); err != nil {
		return domain.TaskView{}, err
	}
	if err := validateCategory(in.Category); err != nil {
		return domain.TaskView{}, err
	}
	if in.Priority != "" {
		p, ok := domain.ParsePriority(string(in.Priority))
		if !ok {
			return domain.TaskView{}, domain.Errorf(domain.ErrValidation, "priority must be one of low, normal, urgent")
		}
		in.Priority = p
	}

	t, err := s.store.CreateTask(ctx, owner, in)
	if err != nil {
		return domain.TaskView{}, err
	}
	if v, err = s.taskView(ctx, owner, t); err != nil {
		return domain.TaskView{}, err
	}

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventTaskCreated, OwnerID: owner, EntityID: t.ID, Task: &v},
		domain.AuditActionTaskCreated, map[string]any{"column_id": t.ColumnID, "code": t.ExternalID})
	return v, nil
}

func (s *BoardService) UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (v domain.TaskView, err error) {
	defer func() { observe("update_task", err) }()

	if err := validateTaskText(patch.Title, patch.Description); err != nil {
		return domain.TaskView{}, err
	}
	if err := validateCategory(patch.Category); err != nil {
		return domain.TaskView{}, err
	}
	if patch.Priority != nil {
		p, ok := domain.ParsePriority(string(*patch.Priority))
		if !ok {
			return domain.TaskView{}, domain.Errorf(domain.ErrValidation, "priority must be one of low, normal, urgent")
		}
		patch.Priority = &p
	}

	t, err := s.store.UpdateTask(ctx, owner, id, patch)
	if err != nil {
		return domain.TaskView{}, err
	}
	if v, err = s.taskView(ctx, owner, t); err != nil {
		return domain.TaskView{}, err
	}

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventTaskUpdated, OwnerID: owner, EntityID: t.ID, Task: &v},
		domain.AuditActionTaskUpdated, nil)
	return v, nil
}

// MoveTask puts a task into another column. The task is checked first, then
// the target column.
func (s *BoardService) MoveTask(ctx context.Context, owner, id, columnID string) (v domain.TaskView, err error) {
	defer func() { observe("move_task", err) }()

	before, err := s.store.GetTask(ctx, owner, id)
	if err != nil {
		return domain.TaskView{}, err
	}
	if _, err := s.store.GetColumn(ctx, owner, columnID); err != nil {
		return domain.TaskView{}, columnRef(columnID, err)
	}

	t, err := s.store.MoveTask(ctx, owner, id, columnID)
	if err != nil {
		return domain.TaskView{}, err
	}
	if v, err = s.taskView(ctx, owner, t); err != nil {
		return domain.TaskView{}, err
	}

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventTaskMoved, OwnerID: owner, EntityID: t.ID, Task: &v},
		domain.AuditActionTaskMoved, map[string]any{"from": before.ColumnID, "to": t.ColumnID})
	return v, nil
}

func (s *BoardService) DeleteTask(ctx context.Context, owner, id string) (err error) {
	defer func() { observe("delete_task", err) }()

	if err := s.store.DeleteTask(ctx, owner, id); err != nil {
		return err
	}

	s.afterWrite(ctx, domain.BoardEvent{Type: domain.EventTaskDeleted, OwnerID: owner, EntityID: id},
		domain.AuditActionTaskDeleted, nil)
	return nil
}
