package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"

	"github.com/google/uuid"
)

// MemoryBoardStore keeps boards in process memory. It follows the same rules
// as BoardStore and backs STORE_DRIVER=memory and the tests.
type MemoryBoardStore struct {
	mu      sync.Mutex
	columns map[string]*columnRecord
	tasks   map[string]*taskRecord
	seq     int64
	codes   *CodeGenerator
	now     func() time.Time
}

type columnRecord struct {
	seq int64
	domain.Column
}

type taskRecord struct {
	seq int64
	domain.Task
}

func NewMemoryBoardStore(codes *CodeGenerator) *MemoryBoardStore {
	if codes == nil {
		codes = NewCodeGenerator("")
	}
	return &MemoryBoardStore{
		columns: make(map[string]*columnRecord),
		tasks:   make(map[string]*taskRecord),
		codes:   codes,
		now:     time.Now,
	}
}

// Ping always succeeds.
func (m *MemoryBoardStore) Ping(context.Context) error { return nil }

// apply is the memory counterpart of saveColumn/saveTask.
func (m *MemoryBoardStore) apply(op writeOp, e domain.Audited) {
	intercept(op, e.Stamps(), m.now())
}

// visible is the memory form of scope.
func visible(owner, rowOwner string, a domain.Audit) bool {
	return rowOwner == owner && !a.IsDeleted
}

func (m *MemoryBoardStore) column(owner, id string) (*columnRecord, error) {
	c, ok := m.columns[id]
	if !ok || c.IsDeleted {
		return nil, domain.ErrNotFound
	}
	if !visible(owner, c.OwnerID, c.Audit) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

func (m *MemoryBoardStore) task(owner, id string) (*taskRecord, error) {
	t, ok := m.tasks[id]
	if !ok || t.IsDeleted {
		return nil, domain.ErrNotFound
	}
	if !visible(owner, t.OwnerID, t.Audit) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (m *MemoryBoardStore) requireColumn(owner, id string) error {
	if _, err := m.column(owner, id); err != nil {
		return columnNotAccessible(id)
	}
	return nil
}

func (m *MemoryBoardStore) liveColumns(owner string) []*columnRecord {
	var out []*columnRecord
	for _, c := range m.columns {
		if visible(owner, c.OwnerID, c.Audit) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func (m *MemoryBoardStore) nextSeq() int64 {
	m.seq++
	return m.seq
}

func copyTask(t domain.Task) domain.Task {
	t.AssigneeIDs = append([]string{}, t.AssigneeIDs...)
	return t
}

func (m *MemoryBoardStore) ListColumns(_ context.Context, owner string) ([]domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.liveColumns(owner)
	cols := make([]domain.Column, 0, len(recs))
	for _, c := range recs {
		cols = append(cols, c.Column)
	}
	return cols, nil
}

func (m *MemoryBoardStore) HasColumns(_ context.Context, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.liveColumns(owner)) > 0, nil
}

func (m *MemoryBoardStore) GetColumn(_ context.Context, owner, id string) (domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(owner, id)
	if err != nil {
		return domain.Column{}, err
	}
	return c.Column, nil
}

func (m *MemoryBoardStore) CreateColumn(_ context.Context, owner, name string, isDefault bool) (domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.liveColumns(owner)
	orders := make([]int, 0, len(recs))
	for _, c := range recs {
		orders = append(orders, c.Order)
	}
	return m.insertColumn(owner, name, ordering.Next(orders), isDefault), nil
}

func (m *MemoryBoardStore) insertColumn(owner, name string, order int, isDefault bool) domain.Column {
	rec := &columnRecord{
		seq: m.nextSeq(),
		Column: domain.Column{
			ID:        uuid.NewString(),
			OwnerID:   owner,
			Name:      name,
			Order:     order,
			IsDefault: isDefault,
		},
	}
	m.apply(opCreate, &rec.Column)
	m.columns[rec.ID] = rec
	return rec.Column
}

func (m *MemoryBoardStore) SeedColumns(_ context.Context, owner string, specs []ordering.Spec) ([]domain.Column, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.liveColumns(owner)) > 0 {
		return nil, false, nil
	}
	cols := make([]domain.Column, 0, len(specs))
	for _, s := range specs {
		cols = append(cols, m.insertColumn(owner, s.Name, s.Order, true))
	}
	return cols, true, nil
}

func (m *MemoryBoardStore) UpdateColumn(_ context.Context, owner, id string, patch domain.ColumnPatch) (domain.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(owner, id)
	if err != nil {
		return domain.Column{}, err
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Order != nil {
		c.Order = *patch.Order
	}
	m.apply(opUpdate, &c.Column)
	return c.Column, nil
}

func (m *MemoryBoardStore) SetColumnOrder(ctx context.Context, owner, id string, order int) (domain.Column, error) {
	return m.UpdateColumn(ctx, owner, id, domain.ColumnPatch{Order: &order})
}

func (m *MemoryBoardStore) DeleteColumn(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.column(owner, id)
	if err != nil {
		return err
	}
	if n := m.countTasks(owner, id); n > 0 {
		return nonEmptyColumn(c.Name, n)
	}
	m.apply(opDelete, &c.Column)
	return nil
}

func (m *MemoryBoardStore) CountTasks(_ context.Context, owner, columnID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countTasks(owner, columnID), nil
}

func (m *MemoryBoardStore) countTasks(owner, columnID string) int {
	n := 0
	for _, t := range m.tasks {
		if visible(owner, t.OwnerID, t.Audit) && t.ColumnID == columnID {
			n++
		}
	}
	return n
}

func (m *MemoryBoardStore) ListTasks(_ context.Context, owner string, q domain.TaskQuery) ([]domain.Task, int, error) {
	q = q.Normalize()
	needle := strings.ToLower(q.Search)

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*taskRecord
	for _, t := range m.tasks {
		if !visible(owner, t.OwnerID, t.Audit) {
			continue
		}
		if q.ColumnID != "" && t.ColumnID != q.ColumnID {
			continue
		}
		if q.Priority != "" && t.Priority != q.Priority {
			continue
		}
		if needle != "" && !matchesSearch(t.Task, needle) {
			continue
		}
		matched = append(matched, t)
	}
	sortTasks(matched, q)

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.PageSize, total)

	out := make([]domain.Task, 0, end-start)
	for _, t := range matched[start:end] {
		out = append(out, copyTask(t.Task))
	}
	return out, total, nil
}

func matchesSearch(t domain.Task, needle string) bool {
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
}

// sortTasks mirrors orderBy.
func sortTasks(tasks []*taskRecord, q domain.TaskQuery) {
	newerFirst := func(a, b *taskRecord) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.seq > b.seq
	}
	directed := func(cmp int, a, b *taskRecord) bool {
		if cmp == 0 {
			return newerFirst(a, b)
		}
		if q.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch q.SortBy {
		case domain.SortByTitle:
			return directed(strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)), a, b)
		case domain.SortByPriority:
			return directed(a.Priority.Rank()-b.Priority.Rank(), a, b)
		case domain.SortByDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return newerFirst(a, b)
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			}
			return directed(a.DueDate.Compare(*b.DueDate), a, b)
		default:
			if q.SortDesc {
				return newerFirst(a, b)
			}
			return newerFirst(b, a)
		}
	})
}

func (m *MemoryBoardStore) GetTask(_ context.Context, owner, id string) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.task(owner, id)
	if err != nil {
		return domain.Task{}, err
	}
	return copyTask(t.Task), nil
}

func (m *MemoryBoardStore) CreateTask(_ context.Context, owner string, in domain.NewTask) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireColumn(owner, in.ColumnID); err != nil {
		return domain.Task{}, err
	}
	rec := &taskRecord{seq: m.nextSeq(), Task: newTask(owner, in, m.codes)}
	m.apply(opCreate, &rec.Task)
	m.tasks[rec.ID] = rec
	return copyTask(rec.Task), nil
}

func (m *MemoryBoardStore) UpdateTask(_ context.Context, owner, id string, patch domain.TaskPatch) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.task(owner, id)
	if err != nil {
		return domain.Task{}, err
	}
	if patch.ColumnID != nil {
		if err := m.requireColumn(owner, *patch.ColumnID); err != nil {
			return domain.Task{}, err
		}
	}
	patch.Apply(&t.Task)
	m.apply(opUpdate, &t.Task)
	return copyTask(t.Task), nil
}

func (m *MemoryBoardStore) MoveTask(ctx context.Context, owner, id, columnID string) (domain.Task, error) {
	return m.UpdateTask(ctx, owner, id, domain.TaskPatch{ColumnID: &columnID})
}

func (m *MemoryBoardStore) DeleteTask(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.task(owner, id)
	if err != nil {
		return err
	}
	m.apply(opDelete, &t.Task)
	return nil
}
