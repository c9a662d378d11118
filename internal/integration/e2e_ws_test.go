package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskboard/internal/client"
	"taskboard/internal/db"
	"taskboard/internal/domain"
	httpserver "taskboard/internal/http"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/ws"
)

func TestE2E_BoardOverPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	if err := db.Migrate(ctx, dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	store := repository.NewBoardStore(pool, repository.NewCodeGenerator("E2E"))
	audit := service.NewAuditService(repository.NewAuditRepository(pool))
	hub := ws.NewHub()
	defer hub.Close()

	gin.SetMode(gin.TestMode)
	service.InitJWT("e2e-secret", time.Hour)
	ts := httptest.NewServer(httpserver.NewEngine(httpserver.Deps{
		Board:       service.NewBoardService(store, hub, audit),
		Audit:       audit,
		Hub:         hub,
		Health:      store,
		StoreDriver: "postgres",
		RateLimit:   1000,
		RateWindow:  time.Minute,
	}))
	defer ts.Close()

	// fresh owners so reruns start from an empty board
	owner := "e2e-" + uuid.NewString()
	tok, err := service.GenerateJWT(owner)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	api := client.NewHTTPAPI(ts.URL, tok)

	// change feed
	feed, _ := client.FeedURL(ts.URL, tok)
	conn, _, err := websocket.DefaultDialer.Dial(feed, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()
	frames := make(chan map[string]any, 32)
	go func() {
		defer close(frames)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m map[string]any
			_ = json.Unmarshal(raw, &m)
			frames <- m
		}
	}()
	waitFor := func(kind string) map[string]any {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case m, ok := <-frames:
				if !ok {
					t.Fatalf("feed closed waiting for %s", kind)
				}
				if m["type"] == kind {
					return m
				}
				if ev, ok := m["event"].(map[string]any); ok && ev["type"] == kind {
					return m
				}
			case <-deadline:
				t.Fatalf("no %s frame", kind)
			}
		}
	}
	waitFor("ready")

	cols, seeded, err := api.Bootstrap(ctx)
	if err != nil || !seeded {
		t.Fatalf("bootstrap: %v seeded=%v", err, seeded)
	}
	waitFor(domain.EventBoardSeeded)

	review, err := api.CreateColumn(ctx, "Review")
	if err != nil || review.Order != 4 {
		t.Fatalf("create column: %+v %v", review, err)
	}

	// optimistic move through the client coordinator
	cache := client.NewCache(api)
	task, err := api.CreateTask(ctx, client.TaskDraft{Title: "Ship it", ColumnID: cols[0].ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if !strings.HasPrefix(task.Code, "E2E-") {
		t.Errorf("code = %q", task.Code)
	}
	if err := cache.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	co := client.NewCoordinator(cache, api)
	if err := co.MoveTask(task.ID, cols[3].ID).Wait(ctx); err != nil {
		t.Fatalf("move: %v", err)
	}
	moved := waitFor(domain.EventTaskMoved)
	if ev := moved["event"].(map[string]any); ev["entityId"] != task.ID {
		t.Errorf("moved event = %v", ev)
	}
	if got, _ := cache.Task(task.ID); got.Status != "done" {
		t.Errorf("cached status = %q", got.Status)
	}

	// another owner cannot see or touch it
	otherTok, _ := service.GenerateJWT("e2e-" + uuid.NewString())
	other := client.NewHTTPAPI(ts.URL, otherTok)
	if _, err := other.MoveTask(ctx, task.ID, cols[0].ID); err == nil {
		t.Error("foreign owner moved the task")
	}
	otherTasks, err := other.ListTasks(ctx)
	if err != nil || len(otherTasks) != 0 {
		t.Errorf("foreign owner sees %d tasks (%v)", len(otherTasks), err)
	}

	// soft delete leaves the rows in place
	if err := api.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	var deleted bool
	if err := pool.QueryRow(ctx, `SELECT is_deleted FROM board_tasks WHERE id = $1`, task.ID).Scan(&deleted); err != nil || !deleted {
		t.Errorf("tombstone missing: deleted=%v err=%v", deleted, err)
	}

	entries, err := audit.Recent(ctx, owner, 50)
	if err != nil || len(entries) == 0 {
		t.Errorf("audit trail: %d entries, %v", len(entries), err)
	}
}
