package client

import (
	"context"
	"slices"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
	"taskboard/internal/ordering"
)

// Load failure messages
const (
	msgLoadColumns = "Failed to load columns"
	msgLoadTasks   = "Failed to load tasks"
)

// Counts buckets tasks by status for dashboard widgets. They are derived
// from the cached tasks and carry no authority of their own.
type Counts struct {
	Backlog    int `json:"backlog"`
	InProgress int `json:"inProgress"`
	Validation int `json:"validation"`
	Done       int `json:"done"`
	Total      int `json:"total"`
}

// Cache is the client-side projection of one owner's board. Every derived
// view is recomputed on read, so none can go stale.
type Cache struct {
	api API

	mu      sync.RWMutex
	columns []domain.ColumnView
	tasks   []domain.TaskView
	err     string
	loading bool

	subMu sync.Mutex
	subs  map[int]func()
	next  int
}

func NewCache(api API) *Cache {
	return &Cache{
		api:     api,
		columns: []domain.ColumnView{},
		tasks:   []domain.TaskView{},
		subs:    make(map[int]func()),
	}
}

// Subscribe registers fn to run after every state change. The returned
// function removes it.
func (c *Cache) Subscribe(fn func()) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.next
	c.next++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Cache) notify() {
	c.subMu.Lock()
	fns := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// update runs fn under the write lock and then notifies subscribers.
func (c *Cache) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	c.notify()
}

// Load fetches both lists and replaces the cache contents. On failure the
// previous contents stay and Err reports what failed.
func (c *Cache) Load(ctx context.Context) error {
	c.update(func() { c.loading, c.err = true, "" })

	cols, err := c.api.ListColumns(ctx)
	if err != nil {
		logger.Warn("load columns failed", "error", err)
		c.update(func() { c.loading, c.err = false, msgLoadColumns })
		return err
	}
	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		logger.Warn("load tasks failed", "error", err)
		c.update(func() { c.loading, c.err = false, msgLoadTasks })
		return err
	}

	c.update(func() {
		c.columns = slices.Clone(cols)
		c.tasks = slices.Clone(tasks)
		if c.columns == nil {
			c.columns = []domain.ColumnView{}
		}
		if c.tasks == nil {
			c.tasks = []domain.TaskView{}
		}
		c.loading = false
	})
	return nil
}

// Columns returns the columns in fetch order.
func (c *Cache) Columns() []domain.ColumnView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.columns)
}

// SortedColumns returns the columns by ascending order.
func (c *Cache) SortedColumns() []domain.ColumnView {
	cols := c.Columns()
	ordering.SortViews(cols)
	return cols
}

func (c *Cache) Tasks() []domain.TaskView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tasks)
}

// Task returns the cached task with the given id.
func (c *Cache) Task(id string) (domain.TaskView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.IndexFunc(c.tasks, func(t domain.TaskView) bool { return t.ID == id })
	if i < 0 {
		return domain.TaskView{}, false
	}
	return c.tasks[i], true
}

// TasksByColumn groups the tasks by column id, preserving cache order.
func (c *Cache) TasksByColumn() map[string][]domain.TaskView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]domain.TaskView)
	for _, t := range c.tasks {
		key := t.ColumnID
		if key == "" {
			key = t.Status
		}
		out[key] = append(out[key], t)
	}
	return out
}

// Counts buckets tasks by status. Statuses other than backlog, in-progress
// and validation count as done.
func (c *Cache) Counts() Counts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := Counts{Total: len(c.tasks)}
	for _, t := range c.tasks {
		switch t.Status {
		case "backlog":
			n.Backlog++
		case "in-progress":
			n.InProgress++
		case "validation":
			n.Validation++
		default:
			n.Done++
		}
	}
	return n
}

// StatusFor derives a status from the cached column; unknown columns are
// backlog.
func (c *Cache) StatusFor(columnID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusFor(columnID)
}

func (c *Cache) statusFor(columnID string) string {
	for _, col := range c.columns {
		if col.ID == columnID {
			return domain.StatusFromColumnName(col.Name)
		}
	}
	return "backlog"
}

// Err is the last user-visible failure message, empty when none.
func (c *Cache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Cache) ClearError() {
	c.update(func() { c.err = "" })
}

func (c *Cache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}
