package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"
)

var errOffline = errors.New("offline")

// fakeAPI is an in-memory board server. fail makes the named call fail;
// gate, when set, holds every mutation until it is closed or the context
// ends.
type fakeAPI struct {
	mu      sync.Mutex
	columns []domain.ColumnView
	tasks   []domain.TaskView
	fail    map[string]error
	gate    chan struct{}
	calls   []string
	seq     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{fail: map[string]error{}}
}

func (f *fakeAPI) seed(cols []domain.ColumnView, tasks []domain.TaskView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns, f.tasks = slices.Clone(cols), slices.Clone(tasks)
}

func (f *fakeAPI) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
}

func (f *fakeAPI) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[method]
}

func (f *fakeAPI) ListColumns(ctx context.Context) ([]domain.ColumnView, error) {
	if err := f.enter(ctx, "ListColumns"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.columns), nil
}

func (f *fakeAPI) CreateColumn(ctx context.Context, name string) (domain.ColumnView, error) {
	if err := f.enter(ctx, "CreateColumn"); err != nil {
		return domain.ColumnView{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	orders := make([]int, 0, len(f.columns))
	for _, c := range f.columns {
		orders = append(orders, c.Order)
	}
	f.seq++
	c := domain.ColumnView{ID: fmt.Sprintf("col-%d", f.seq), Name: name, Order: ordering.Next(orders)}
	f.columns = append(f.columns, c)
	return c, nil
}

func (f *fakeAPI) UpdateColumn(ctx context.Context, id string, u ColumnUpdate) (domain.ColumnView, error) {
	if err := f.enter(ctx, "UpdateColumn"); err != nil {
		return domain.ColumnView{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.columns {
		if f.columns[i].ID == id {
			if u.Name != nil {
				f.columns[i].Name = *u.Name
			}
			if u.Order != nil {
				f.columns[i].Order = *u.Order
			}
			return f.columns[i], nil
		}
	}
	return domain.ColumnView{}, domain.ErrNotFound
}

func (f *fakeAPI) DeleteColumn(ctx context.Context, id string) error {
	if err := f.enter(ctx, "DeleteColumn"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns = slices.DeleteFunc(f.columns, func(c domain.ColumnView) bool { return c.ID == id })
	return nil
}

func (f *fakeAPI) ReorderColumns(ctx context.Context, entries []ordering.Entry) ([]domain.ColumnView, error) {
	if err := f.enter(ctx, "ReorderColumns"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		for i := range f.columns {
			if f.columns[i].ID == e.ColumnID {
				f.columns[i].Order = e.Order
			}
		}
	}
	return slices.Clone(f.columns), nil
}

func (f *fakeAPI) ListTasks(ctx context.Context) ([]domain.TaskView, error) {
	if err := f.enter(ctx, "ListTasks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tasks), nil
}

func (f *fakeAPI) statusFor(columnID string) string {
	for _, c := range f.columns {
		if c.ID == columnID {
			return domain.StatusFromColumnName(c.Name)
		}
	}
	return "backlog"
}

func (f *fakeAPI) CreateTask(ctx context.Context, d TaskDraft) (domain.TaskView, error) {
	if err := f.enter(ctx, "CreateTask"); err != nil {
		return domain.TaskView{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	now := time.Now().UTC()
	t := domain.TaskView{
		ID:          fmt.Sprintf("task-%d", f.seq),
		Code:        fmt.Sprintf("TB-%02d", f.seq),
		ExternalID:  fmt.Sprintf("TB-%02d", f.seq),
		Title:       d.Title,
		Priority:    domain.PriorityNormal,
		Status:      f.statusFor(d.ColumnID),
		ColumnID:    d.ColumnID,
		AssigneeIDs: []string{},
		Category:    domain.DefaultCategory,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, id string, u TaskUpdate) (domain.TaskView, error) {
	if err := f.enter(ctx, "UpdateTask"); err != nil {
		return domain.TaskView{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if u.Title != nil {
				f.tasks[i].Title = *u.Title
			}
			if u.ColumnID != nil {
				f.tasks[i].ColumnID = *u.ColumnID
				f.tasks[i].Status = f.statusFor(*u.ColumnID)
			}
			return f.tasks[i], nil
		}
	}
	return domain.TaskView{}, domain.ErrNotFound
}

func (f *fakeAPI) MoveTask(ctx context.Context, id, columnID string) (domain.TaskView, error) {
	if err := f.enter(ctx, "MoveTask"); err != nil {
		return domain.TaskView{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].ColumnID = columnID
			f.tasks[i].Status = f.statusFor(columnID)
			f.tasks[i].UpdatedAt = time.Now().UTC()
			return f.tasks[i], nil
		}
	}
	return domain.TaskView{}, domain.ErrNotFound
}

func (f *fakeAPI) DeleteTask(ctx context.Context, id string) error {
	if err := f.enter(ctx, "DeleteTask"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = slices.DeleteFunc(f.tasks, func(t domain.TaskView) bool { return t.ID == id })
	return nil
}
