package ws

import (
	"encoding/json"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// Hub fans board events out to every live session of the event's owner.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.OwnerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.OwnerID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "owner_id", c.OwnerID, "sessions", len(set))
}

// OnDisconnect forgets c. It is safe to call more than once.
func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.OwnerID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.Send)
	}
	if len(set) == 0 {
		delete(h.clients, c.OwnerID)
	}
}

// Sessions returns the number of live sessions of owner.
func (h *Hub) Sessions(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

// Publish implements service.Publisher. Slow sessions whose buffer is full
// miss the event; they resync on their next load.
func (h *Hub) Publish(ev domain.BoardEvent) {
	msg, err := json.Marshal(Message{Type: MsgEvent, Event: &ev})
	if err != nil {
		logger.Error("ws marshal event", "error", err, "type", ev.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.OwnerID] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws send buffer full, dropping event", "owner_id", ev.OwnerID, "type", ev.Type)
		}
	}
}

// Close drops every connection. Sessions unregister themselves as their read
// pumps fail.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			_ = c.Conn.Close()
		}
	}
}
