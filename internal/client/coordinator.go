package client

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
	"taskboard/internal/ordering"

	"github.com/google/uuid"
)

// DispatchTimeout bounds every request the coordinator sends.
const DispatchTimeout = 10 * time.Second

const tempPrefix = "tmp-"

// Failure messages shown after a rollback
const (
	msgCreateColumn   = "Failed to create column"
	msgRenameColumn   = "Failed to rename column"
	msgDeleteColumn   = "Failed to delete column"
	msgReorderColumns = "Failed to reorder columns"
	msgCreateTask     = "Failed to create task"
	msgUpdateTask     = "Failed to update task"
	msgMoveTask       = "Failed to move task. Please try again."
	msgDeleteTask     = "Failed to delete task"
)

// Pending is an optimistic mutation whose request is in flight.
type Pending struct {
	// ID is the id of the affected entity. For creates it is the temporary id
	// of the placeholder.
	ID string

	done chan struct{}
	err  error
}

func newPending(id string) *Pending {
	return &Pending{ID: id, done: make(chan struct{})}
}

func resolved(id string, err error) *Pending {
	p := newPending(id)
	p.finish(err)
	return p
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the mutation is confirmed or rolled back.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the mutation settles and returns its error.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Coordinator applies board mutations to a Cache before the server confirms
// them and reconciles once it answers: merging canonical fields on success,
// restoring the pre-mutation snapshot on failure. Mutations are not
// coalesced, each rollback restores only its own snapshot.
type Coordinator struct {
	cache   *Cache
	api     API
	timeout time.Duration
}

func NewCoordinator(cache *Cache, api API) *Coordinator {
	return &Coordinator{cache: cache, api: api, timeout: DispatchTimeout}
}

// WithTimeout overrides the dispatch timeout.
func (co *Coordinator) WithTimeout(d time.Duration) *Coordinator {
	if d > 0 {
		co.timeout = d
	}
	return co
}

// dispatch runs call in the background. On error rollback runs and the
// cache error is set to msg.
func (co *Coordinator) dispatch(p *Pending, op, msg string, call func(ctx context.Context) error, rollback func()) *Pending {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), co.timeout)
		defer cancel()

		err := call(ctx)
		if err != nil {
			logger.Warn("optimistic mutation rolled back", "op", op, "id", p.ID, "error", err)
			co.cache.update(func() {
				rollback()
				co.cache.err = msg
			})
		}
		p.finish(err)
	}()
	return p
}

// snapshots

func (co *Coordinator) snapshotColumns() []domain.ColumnView {
	return slices.Clone(co.cache.columns)
}

func (co *Coordinator) snapshotTasks() []domain.TaskView {
	return slices.Clone(co.cache.tasks)
}

func (co *Coordinator) restoreColumns(s []domain.ColumnView) func() {
	return func() { co.cache.columns = s }
}

func (co *Coordinator) restoreTasks(s []domain.TaskView) func() {
	return func() { co.cache.tasks = s }
}

// merges

func (co *Coordinator) mergeColumn(id string, v domain.ColumnView) {
	co.cache.update(func() {
		if i := slices.IndexFunc(co.cache.columns, func(c domain.ColumnView) bool { return c.ID == id }); i >= 0 {
			co.cache.columns[i] = v
		}
	})
}

func (co *Coordinator) mergeTask(id string, v domain.TaskView) {
	co.cache.update(func() {
		if i := slices.IndexFunc(co.cache.tasks, func(t domain.TaskView) bool { return t.ID == id }); i >= 0 {
			co.cache.tasks[i] = v
		}
	})
}

// CreateColumn appends a placeholder column at the end of the board.
func (co *Coordinator) CreateColumn(name string) *Pending {
	tmp := tempPrefix + uuid.NewString()
	var snap []domain.ColumnView
	co.cache.update(func() {
		snap = co.snapshotColumns()
		orders := make([]int, 0, len(snap))
		for _, c := range snap {
			orders = append(orders, c.Order)
		}
		placeholder := domain.ColumnView{ID: tmp, Name: strings.TrimSpace(name), Order: ordering.Next(orders)}
		co.cache.columns = append(slices.Clone(snap), placeholder)
	})

	return co.dispatch(newPending(tmp), "create_column", msgCreateColumn, func(ctx context.Context) error {
		v, err := co.api.CreateColumn(ctx, name)
		if err != nil {
			return err
		}
		co.mergeColumn(tmp, v)
		return nil
	}, co.restoreColumns(snap))
}

// RenameColumn renames a column. Tasks in the column take the status of the
// new name together with it, and both roll back together.
func (co *Coordinator) RenameColumn(id, name string) *Pending {
	var (
		snap     []domain.ColumnView
		taskSnap []domain.TaskView
		found    bool
	)
	co.cache.update(func() {
		snap, taskSnap = co.snapshotColumns(), co.snapshotTasks()
		cols := slices.Clone(snap)
		for i := range cols {
			if cols[i].ID == id {
				cols[i].Name = name
				found = true
			}
		}
		if !found {
			return
		}
		tasks := slices.Clone(taskSnap)
		for i := range tasks {
			if tasks[i].ColumnID == id {
				tasks[i].Status = domain.StatusFromColumnName(name)
			}
		}
		co.cache.columns, co.cache.tasks = cols, tasks
	})
	if !found {
		return resolved(id, fmt.Errorf("column %s: %w", id, domain.ErrNotFound))
	}

	return co.dispatch(newPending(id), "rename_column", msgRenameColumn, func(ctx context.Context) error {
		v, err := co.api.UpdateColumn(ctx, id, ColumnUpdate{Name: &name})
		if err != nil {
			return err
		}
		co.mergeColumn(id, v)
		return nil
	}, func() {
		co.cache.columns, co.cache.tasks = snap, taskSnap
	})
}

func (co *Coordinator) DeleteColumn(id string) *Pending {
	var snap []domain.ColumnView
	co.cache.update(func() {
		snap = co.snapshotColumns()
		co.cache.columns = slices.DeleteFunc(slices.Clone(snap), func(c domain.ColumnView) bool { return c.ID == id })
	})

	return co.dispatch(newPending(id), "delete_column", msgDeleteColumn, func(ctx context.Context) error {
		return co.api.DeleteColumn(ctx, id)
	}, co.restoreColumns(snap))
}

// ReorderColumns writes the new orders locally and sends the batch. On
// success the orders the server reports are merged in place.
func (co *Coordinator) ReorderColumns(entries []ordering.Entry) *Pending {
	entries, err := ordering.Normalize(entries)
	if err != nil {
		return resolved("", err)
	}
	if len(entries) == 0 {
		return resolved("", nil)
	}

	var snap []domain.ColumnView
	co.cache.update(func() {
		snap = co.snapshotColumns()
		cols := slices.Clone(snap)
		for _, e := range entries {
			for i := range cols {
				if cols[i].ID == e.ColumnID {
					cols[i].Order = e.Order
				}
			}
		}
		co.cache.columns = cols
	})

	return co.dispatch(newPending(""), "reorder_columns", msgReorderColumns, func(ctx context.Context) error {
		canonical, err := co.api.ReorderColumns(ctx, entries)
		if err != nil {
			return err
		}
		byID := make(map[string]domain.ColumnView, len(canonical))
		for _, c := range canonical {
			byID[c.ID] = c
		}
		co.cache.update(func() {
			for i, c := range co.cache.columns {
				if v, ok := byID[c.ID]; ok {
					co.cache.columns[i].Order = v.Order
				}
			}
		})
		return nil
	}, co.restoreColumns(snap))
}

// CreateTask appends a placeholder task carrying the defaults the server
// would apply.
func (co *Coordinator) CreateTask(d TaskDraft) *Pending {
	tmp := tempPrefix + uuid.NewString()
	var snap []domain.TaskView
	co.cache.update(func() {
		snap = co.snapshotTasks()
		now := time.Now().UTC()
		t := domain.TaskView{
			ID:          tmp,
			Title:       d.Title,
			Priority:    domain.PriorityNormal,
			Status:      co.cache.statusFor(d.ColumnID),
			ColumnID:    d.ColumnID,
			AssigneeIDs: slices.Clone(d.AssigneeIDs),
			Category:    domain.DefaultCategory,
			DueDate:     d.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if p, ok := domain.ParsePriority(d.Priority); ok {
			t.Priority = p
		}
		if t.AssigneeIDs == nil {
			t.AssigneeIDs = []string{}
		}
		if d.Description != nil {
			t.Description = *d.Description
		}
		if d.Category != nil && strings.TrimSpace(*d.Category) != "" {
			t.Category = *d.Category
		}
		if d.CategoryEmoji != nil {
			t.CategoryEmoji = *d.CategoryEmoji
		}
		co.cache.tasks = append(slices.Clone(snap), t)
	})

	return co.dispatch(newPending(tmp), "create_task", msgCreateTask, func(ctx context.Context) error {
		v, err := co.api.CreateTask(ctx, d)
		if err != nil {
			return err
		}
		co.mergeTask(tmp, v)
		return nil
	}, co.restoreTasks(snap))
}

// UpdateTask applies a partial update. A changed column also changes the
// status.
func (co *Coordinator) UpdateTask(id string, u TaskUpdate) *Pending {
	var (
		snap  []domain.TaskView
		found bool
	)
	co.cache.update(func() {
		snap = co.snapshotTasks()
		tasks := slices.Clone(snap)
		for i := range tasks {
			if tasks[i].ID != id {
				continue
			}
			found = true
			co.applyUpdate(&tasks[i], u)
		}
		if found {
			co.cache.tasks = tasks
		}
	})
	if !found {
		return resolved(id, fmt.Errorf("task %s: %w", id, domain.ErrNotFound))
	}

	return co.dispatch(newPending(id), "update_task", msgUpdateTask, func(ctx context.Context) error {
		v, err := co.api.UpdateTask(ctx, id, u)
		if err != nil {
			return err
		}
		co.mergeTask(id, v)
		return nil
	}, co.restoreTasks(snap))
}

// applyUpdate runs under the cache lock.
func (co *Coordinator) applyUpdate(t *domain.TaskView, u TaskUpdate) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		if p, ok := domain.ParsePriority(*u.Priority); ok {
			t.Priority = p
		}
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.CategoryEmoji != nil {
		t.CategoryEmoji = *u.CategoryEmoji
	}
	if u.AssigneeIDs != nil {
		t.AssigneeIDs = slices.Clone(*u.AssigneeIDs)
	}
	if u.ColumnID != nil {
		t.ColumnID = *u.ColumnID
		t.Status = co.cache.statusFor(*u.ColumnID)
	}
	t.UpdatedAt = time.Now().UTC()
}

// MoveTask changes the column and the status of a task in one step. A failed
// move restores both.
func (co *Coordinator) MoveTask(id, columnID string) *Pending {
	var (
		snap  []domain.TaskView
		found bool
	)
	co.cache.update(func() {
		snap = co.snapshotTasks()
		tasks := slices.Clone(snap)
		status := co.cache.statusFor(columnID)
		for i := range tasks {
			if tasks[i].ID == id {
				tasks[i].ColumnID, tasks[i].Status = columnID, status
				found = true
			}
		}
		if found {
			co.cache.tasks = tasks
		}
	})
	if !found {
		return resolved(id, fmt.Errorf("task %s: %w", id, domain.ErrNotFound))
	}

	return co.dispatch(newPending(id), "move_task", msgMoveTask, func(ctx context.Context) error {
		v, err := co.api.MoveTask(ctx, id, columnID)
		if err != nil {
			return err
		}
		co.mergeTask(id, v)
		return nil
	}, co.restoreTasks(snap))
}

func (co *Coordinator) DeleteTask(id string) *Pending {
	var snap []domain.TaskView
	co.cache.update(func() {
		snap = co.snapshotTasks()
		co.cache.tasks = slices.DeleteFunc(slices.Clone(snap), func(t domain.TaskView) bool { return t.ID == id })
	})

	return co.dispatch(newPending(id), "delete_task", msgDeleteTask, func(ctx context.Context) error {
		return co.api.DeleteTask(ctx, id)
	}, co.restoreTasks(snap))
}
