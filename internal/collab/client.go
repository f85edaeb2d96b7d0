package collab

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024

	// Outbound queue bound per connection. A persistently slow consumer
	// loses messages instead of growing memory or stalling peers.
	sendBufferSize = 256
)

// Client is one open duplex connection on one canvas.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// mu guards send against closeSend: broadcasters may hold a stale
	// snapshot of the client list after the hub has already removed this
	// client, so enqueue and close must never race.
	mu     sync.Mutex
	send   chan []byte
	closed bool

	UserID   string
	CanvasID string
	ClientID string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, canvasID, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		UserID:   userID,
		CanvasID: canvasID,
		ClientID: clientID,
	}
}

// ReadPump consumes inbound messages until the connection closes and hands
// each raw frame to the hub. Messages are processed in receipt order.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "user", c.UserID)
			return
		}

		c.hub.HandleInbound(c, data)
	}
}

// WritePump drains the outbound queue onto the wire and keeps the
// connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send enqueues a raw frame for delivery. Delivery is best-effort: when the
// queue is full the frame is dropped for this peer only, and a frame sent
// to an already-removed client is discarded. A failure here never reaches
// the sender.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID, "canvas", c.CanvasID)
	}
}

// closeSend shuts the outbound queue so WritePump drains and exits. Safe to
// call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
