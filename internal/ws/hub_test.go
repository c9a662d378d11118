package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test-secret", time.Hour)
}

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	r := gin.New()
	r.GET("/ws", HandleWS(hub, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url, owner string) *websocket.Conn {
	t.Helper()
	tok, err := service.GenerateJWT(owner)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+tok, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func waitSessions(t *testing.T, hub *Hub, owner string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Sessions(owner) != n {
		if time.Now().After(deadline) {
			t.Fatalf("sessions(%s) = %d, want %d", owner, hub.Sessions(owner), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesOnlyOwner(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub)

	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	if m := read(t, alice); m.Type != MsgReady {
		t.Fatalf("alice first frame = %q, want ready", m.Type)
	}
	if m := read(t, bob); m.Type != MsgReady {
		t.Fatalf("bob first frame = %q, want ready", m.Type)
	}
	waitSessions(t, hub, "alice", 1)
	waitSessions(t, hub, "bob", 1)

	hub.Publish(domain.BoardEvent{Type: domain.EventTaskMoved, OwnerID: "alice", EntityID: "t1"})

	m := read(t, alice)
	if m.Type != MsgEvent || m.Event == nil || m.Event.Type != domain.EventTaskMoved || m.Event.EntityID != "t1" {
		t.Fatalf("alice got %+v", m)
	}

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, raw, err := bob.ReadMessage(); err == nil {
		t.Fatalf("bob received %s", raw)
	}
}

func TestHub_PingPong(t *testing.T) {
	hub := NewHub()
	conn := dial(t, startServer(t, hub), "alice")
	read(t, conn)

	if err := conn.WriteJSON(Message{Type: MsgPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if m := read(t, conn); m.Type != MsgPong {
		t.Fatalf("got %q, want pong", m.Type)
	}
}

func TestHub_DisconnectForgetsSession(t *testing.T) {
	hub := NewHub()
	conn := dial(t, startServer(t, hub), "alice")
	read(t, conn)
	waitSessions(t, hub, "alice", 1)

	conn.Close()
	waitSessions(t, hub, "alice", 0)

	// publishing to an owner without sessions is a no-op
	hub.Publish(domain.BoardEvent{Type: domain.EventColumnCreated, OwnerID: "alice"})
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub)
	for _, q := range []string{"", "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+q, nil)
		if err == nil {
			t.Fatalf("dial %q succeeded", q)
		}
		if resp == nil || resp.StatusCode != 401 {
			t.Errorf("dial %q: response %v, want 401", q, resp)
		}
	}
}
