package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/logger"

	"github.com/gorilla/websocket"
)

// FeedURL turns the API base URL into the change feed URL for token.
func FeedURL(baseURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Watch follows the owner's change feed and reloads the cache after every
// server event, so the server wins whenever a client and the store disagree.
// It returns when ctx is done or the connection drops.
func Watch(ctx context.Context, feedURL string, cache *Cache) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, feedURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var msg struct {
			Type  string `json:"type"`
			Event *struct {
				Type string `json:"type"`
			} `json:"event"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type != "event" && msg.Type != "ready" {
			continue
		}

		loadCtx, cancel := context.WithTimeout(ctx, DispatchTimeout)
		if err := cache.Load(loadCtx); err != nil {
			logger.Warn("feed resync failed", "error", err)
		}
		cancel()
	}
}
