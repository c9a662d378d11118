package ws

import (
	"encoding/json"
	"errors"
	"time"

	"taskboard/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingPeriod   = (pongWait * 5) / 6
	maxFrameSize = 4096
	sendBuffer   = 64
)

// Client is one change-feed session of an owner. The feed is
// server-to-client; the only inbound frame that gets an answer is ping.
type Client struct {
	OwnerID string
	Conn    *websocket.Conn
	Send    chan []byte

	Hub *Hub
}

func NewClient(ownerID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{OwnerID: ownerID, Conn: conn, Send: make(chan []byte, sendBuffer), Hub: hub}
}

// Run registers the session, greets it with a ready frame and blocks until
// the peer goes away.
func (c *Client) Run() {
	c.Hub.register(c)
	c.enqueue(Message{Type: MsgReady})

	go c.writeLoop()
	c.readLoop()
}

// enqueue drops the frame when the session is not draining its buffer.
func (c *Client) enqueue(m Message) bool {
	raw, err := json.Marshal(m)
	if err != nil {
		return false
	}
	select {
	case c.Send <- raw:
		return true
	default:
		return false
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.Hub.OnDisconnect(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	extend := func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if !closedNormally(err) {
				logger.Debug("ws read failed", "owner_id", c.OwnerID, "error", err)
			}
			return
		}
		_ = extend("")

		var in Message
		if json.Unmarshal(raw, &in) != nil {
			continue
		}
		if in.Type == MsgPing && !c.enqueue(Message{Type: MsgPong}) {
			logger.Debug("ws pong dropped", "owner_id", c.OwnerID)
		}
	}
}

func (c *Client) writeLoop() {
	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()
	defer c.Conn.Close()

	for {
		var (
			kind    = websocket.TextMessage
			payload []byte
		)
		select {
		case frame, open := <-c.Send:
			if !open {
				kind = websocket.CloseMessage
			}
			payload = frame
		case <-keepalive.C:
			kind = websocket.PingMessage
		}

		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(kind, payload); err != nil {
			logger.Debug("ws write failed", "owner_id", c.OwnerID, "error", err)
			return
		}
		if kind == websocket.CloseMessage {
			return
		}
	}
}

func closedNormally(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	return errors.Is(err, websocket.ErrCloseSent)
}
