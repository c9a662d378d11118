package client

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"
)

func defaultColumns() []domain.ColumnView {
	return []domain.ColumnView{
		{ID: "c-backlog", Name: "Backlog", Order: 0, IsDefault: true},
		{ID: "c-progress", Name: "In Progress", Order: 1, IsDefault: true},
		{ID: "c-validation", Name: "Validation", Order: 2, IsDefault: true},
		{ID: "c-done", Name: "Done", Order: 3, IsDefault: true},
	}
}

func loaded(t *testing.T, tasks ...domain.TaskView) (*fakeAPI, *Cache, *Coordinator) {
	t.Helper()
	api := newFakeAPI()
	api.seed(defaultColumns(), tasks)
	cache := NewCache(api)
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return api, cache, NewCoordinator(cache, api).WithTimeout(time.Second)
}

func wait(t *testing.T, p *Pending) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := p.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		t.Fatal("mutation never settled")
	}
	return err
}

func backlogTask() domain.TaskView {
	return domain.TaskView{ID: "t1", Title: "Write docs", ColumnID: "c-backlog", Status: "backlog", Priority: domain.PriorityNormal}
}

func TestCache_LoadFailureKeepsContents(t *testing.T) {
	api, cache, _ := loaded(t, backlogTask())

	api.failOn("ListTasks", errOffline)
	if err := cache.Load(context.Background()); !errors.Is(err, errOffline) {
		t.Fatalf("err = %v", err)
	}
	if cache.Err() != msgLoadTasks {
		t.Errorf("Err() = %q", cache.Err())
	}
	if len(cache.Columns()) != 4 || len(cache.Tasks()) != 1 {
		t.Errorf("contents replaced on failure: %d columns, %d tasks", len(cache.Columns()), len(cache.Tasks()))
	}

	api.failOn("ListColumns", errOffline)
	_ = cache.Load(context.Background())
	if cache.Err() != msgLoadColumns {
		t.Errorf("Err() = %q", cache.Err())
	}
}

func TestCache_DerivedViews(t *testing.T) {
	_, cache, _ := loaded(t,
		domain.TaskView{ID: "a", ColumnID: "c-backlog", Status: "backlog"},
		domain.TaskView{ID: "b", ColumnID: "c-progress", Status: "in-progress"},
		domain.TaskView{ID: "c", ColumnID: "c-progress", Status: "in-progress"},
		domain.TaskView{ID: "d", ColumnID: "c-x", Status: "review"},
	)

	got := cache.Counts()
	want := Counts{Backlog: 1, InProgress: 2, Validation: 0, Done: 1, Total: 4}
	if got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}

	groups := cache.TasksByColumn()
	if len(groups["c-progress"]) != 2 || groups["c-progress"][0].ID != "b" {
		t.Errorf("grouping = %+v", groups)
	}

	if s := cache.StatusFor("c-validation"); s != "validation" {
		t.Errorf("StatusFor(validation) = %q", s)
	}
	if s := cache.StatusFor("unknown"); s != "backlog" {
		t.Errorf("StatusFor(unknown) = %q", s)
	}
}

func TestSortedColumns_RecomputedAfterReorder(t *testing.T) {
	_, cache, co := loaded(t)

	p := co.ReorderColumns([]ordering.Entry{{ColumnID: "c-done", Order: -1}})
	if first := cache.SortedColumns()[0]; first.ID != "c-done" {
		t.Errorf("optimistic first column = %s", first.Name)
	}
	if err := wait(t, p); err != nil {
		t.Fatal(err)
	}
	if first := cache.SortedColumns()[0]; first.ID != "c-done" {
		t.Errorf("first column after confirm = %s", first.Name)
	}
	if cols := cache.Columns(); cols[0].ID != "c-backlog" {
		t.Errorf("Columns() lost fetch order: %s first", cols[0].ID)
	}
}

func TestMoveTask_OptimisticThenConfirmed(t *testing.T) {
	api, cache, co := loaded(t, backlogTask())
	api.gate = make(chan struct{})

	p := co.MoveTask("t1", "c-done")
	got, _ := cache.Task("t1")
	if got.ColumnID != "c-done" || got.Status != "done" {
		t.Fatalf("optimistic task = %s/%s", got.ColumnID, got.Status)
	}
	select {
	case <-p.Done():
		t.Fatal("settled before the server answered")
	default:
	}

	close(api.gate)
	if err := wait(t, p); err != nil {
		t.Fatal(err)
	}
	got, _ = cache.Task("t1")
	if got.ColumnID != "c-done" || got.Status != "done" || cache.Err() != "" {
		t.Errorf("confirmed task = %s/%s err=%q", got.ColumnID, got.Status, cache.Err())
	}
}

func TestMoveTask_RollbackRestoresColumnAndStatus(t *testing.T) {
	api, cache, co := loaded(t, backlogTask())
	api.failOn("MoveTask", errOffline)

	err := wait(t, co.MoveTask("t1", "c-done"))
	if !errors.Is(err, errOffline) {
		t.Fatalf("err = %v", err)
	}
	got, _ := cache.Task("t1")
	if got.ColumnID != "c-backlog" || got.Status != "backlog" {
		t.Errorf("after rollback task = %s/%s, want c-backlog/backlog", got.ColumnID, got.Status)
	}
	if cache.Err() != "Failed to move task. Please try again." {
		t.Errorf("Err() = %q", cache.Err())
	}
}

func TestDispatchTimeout_ForcesRollback(t *testing.T) {
	api, cache, co := loaded(t, backlogTask())
	co.WithTimeout(50 * time.Millisecond)
	api.gate = make(chan struct{})
	defer close(api.gate)

	err := wait(t, co.DeleteTask("t1"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if _, ok := cache.Task("t1"); !ok {
		t.Error("task not restored after timeout")
	}
	if cache.Err() != msgDeleteTask {
		t.Errorf("Err() = %q", cache.Err())
	}
}

func TestCreateTask_PlaceholderMergedInPlace(t *testing.T) {
	api, cache, co := loaded(t, backlogTask())
	api.gate = make(chan struct{})

	p := co.CreateTask(TaskDraft{Title: "New card", ColumnID: "c-progress"})
	if !strings.HasPrefix(p.ID, tempPrefix) {
		t.Fatalf("placeholder id = %q", p.ID)
	}
	tasks := cache.Tasks()
	if len(tasks) != 2 || tasks[1].ID != p.ID || tasks[1].Status != "in-progress" || tasks[1].Category != "General" {
		t.Fatalf("placeholder = %+v", tasks)
	}

	close(api.gate)
	if err := wait(t, p); err != nil {
		t.Fatal(err)
	}
	tasks = cache.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != "t1" || strings.HasPrefix(tasks[1].ID, tempPrefix) || tasks[1].Code == "" {
		t.Errorf("merged tasks = %+v", tasks)
	}
}

func TestCreateColumn_FailureDropsPlaceholder(t *testing.T) {
	api, cache, co := loaded(t)
	api.gate = make(chan struct{})
	api.failOn("CreateColumn", errOffline)

	p := co.CreateColumn("Review")
	sorted := cache.SortedColumns()
	if last := sorted[len(sorted)-1]; last.Name != "Review" || last.Order != 4 {
		t.Errorf("placeholder = %+v", last)
	}

	close(api.gate)
	_ = wait(t, p)
	if len(cache.Columns()) != 4 {
		t.Errorf("placeholder survived rollback: %+v", cache.Columns())
	}
	if cache.Err() != msgCreateColumn {
		t.Errorf("Err() = %q", cache.Err())
	}
}

func TestRenameColumn_StatusFollowsAndRollsBack(t *testing.T) {
	api, cache, co := loaded(t, domain.TaskView{ID: "t1", ColumnID: "c-validation", Status: "validation"})
	api.gate = make(chan struct{})
	api.failOn("UpdateColumn", errOffline)

	p := co.RenameColumn("c-validation", "QA Review")
	if got, _ := cache.Task("t1"); got.Status != "qa-review" {
		t.Errorf("optimistic status = %q", got.Status)
	}
	close(api.gate)
	_ = wait(t, p)

	got, _ := cache.Task("t1")
	if got.Status != "validation" {
		t.Errorf("status after rollback = %q", got.Status)
	}
	for _, c := range cache.Columns() {
		if c.ID == "c-validation" && c.Name != "Validation" {
			t.Errorf("name after rollback = %q", c.Name)
		}
	}
	if cache.Err() != msgRenameColumn {
		t.Errorf("Err() = %q", cache.Err())
	}
}

func TestUnknownEntityResolvesImmediately(t *testing.T) {
	_, cache, co := loaded(t)
	for _, p := range []*Pending{co.MoveTask("ghost", "c-done"), co.RenameColumn("ghost", "x"), co.UpdateTask("ghost", TaskUpdate{})} {
		select {
		case <-p.Done():
		default:
			t.Fatal("pending for unknown entity not resolved")
		}
		if err := wait(t, p); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	}
	if cache.Err() != "" {
		t.Errorf("Err() = %q", cache.Err())
	}
}

// A rollback restores the state just before its own mutation, not the
// original state.
func TestStackedMutations_RollbackToOwnSnapshot(t *testing.T) {
	api, cache, co := loaded(t, backlogTask())
	api.gate = make(chan struct{})

	first := co.MoveTask("t1", "c-progress")
	title := "Renamed"
	second := co.UpdateTask("t1", TaskUpdate{Title: &title})

	api.failOn("UpdateTask", errOffline)
	close(api.gate)
	if err := wait(t, first); err != nil {
		t.Fatal(err)
	}
	_ = wait(t, second)

	got, _ := cache.Task("t1")
	if got.Title != "Write docs" {
		t.Errorf("title = %q, want original", got.Title)
	}
	if got.ColumnID != "c-progress" || got.Status != "in-progress" {
		t.Errorf("move undone by unrelated rollback: %s/%s", got.ColumnID, got.Status)
	}
}

func TestSubscribe(t *testing.T) {
	_, cache, co := loaded(t, backlogTask())
	var n atomic.Int32
	unsubscribe := cache.Subscribe(func() { n.Add(1) })

	if err := wait(t, co.MoveTask("t1", "c-done")); err != nil {
		t.Fatal(err)
	}
	if n.Load() < 2 {
		t.Errorf("notified %d times, want apply and merge", n.Load())
	}

	unsubscribe()
	before := n.Load()
	cache.ClearError()
	if n.Load() != before {
		t.Error("notified after unsubscribe")
	}
}
