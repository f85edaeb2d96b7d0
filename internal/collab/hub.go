package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/buildwise/buildwise/backend-go/internal/presence"
)

// Hub is the connection registry and broadcast router. It maps each canvas
// id to its set of open connections and fans inbound messages out to every
// other connection on the same canvas. The canvases map is the only state
// touched by every connection handler concurrently and is guarded by the
// RWMutex; registration itself is serialized through the Run goroutine.
type Hub struct {
	mu       sync.RWMutex
	canvases map[string]map[string]*Client // canvasID -> clientID -> client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	presence *presence.Service
}

func NewHub(presence *presence.Service) *Hub {
	return &Hub{
		canvases:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		presence:   presence,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Register and Unregister hand the client to the Run goroutine. Both bail
// out once the hub is stopped: after Stop there is no receiver, and a
// connection tearing down during shutdown must not hang on the handoff.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.canvases[client.CanvasID]
	if !ok {
		clients = make(map[string]*Client)
		h.canvases[client.CanvasID] = clients
	}
	clients[client.ClientID] = client
	h.mu.Unlock()

	slog.Info("client connected", "user", client.UserID, "canvas", client.CanvasID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.canvases[client.CanvasID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(clients, client.ClientID)
	client.closeSend()

	if len(clients) == 0 {
		delete(h.canvases, client.CanvasID)
	}
	h.mu.Unlock()

	// Peers are not told about the departure here. They learn of it from a
	// user_leave message the client sent before disconnecting, or when the
	// presence window lapses.
	slog.Info("client disconnected", "user", client.UserID, "canvas", client.CanvasID)
}

// HandleInbound relays one inbound frame verbatim to every other connection
// on the sender's canvas. If the frame parses as a cursor_move message the
// presence tracker is updated first; a failure there is swallowed, never
// surfaced to the sender. No other validation, deduplication, or ordering
// is applied: the server is a verbatim relay, not a state machine, so peers
// may receive malformed or semantically inconsistent payloads.
func (h *Hub) HandleInbound(sender *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err == nil && msg.Type == TypeCursorMove {
		var cursor CursorData
		if err := json.Unmarshal(msg.Data, &cursor); err == nil {
			if err := h.presence.UpdateCursor(context.Background(), cursor.SessionID, cursor.X, cursor.Y); err != nil {
				slog.Debug("cursor update skipped", "error", err, "session", cursor.SessionID)
			}
		}
	}

	h.broadcast(sender.CanvasID, raw, sender.ClientID)
}

// broadcast fans a raw frame out to every client on the canvas except the
// excluded one. Sends are fire-and-forget per peer; a full queue on one
// peer never blocks delivery to the rest.
func (h *Hub) broadcast(canvasID string, raw []byte, excludeClientID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.canvases[canvasID]))
	for _, c := range h.canvases[canvasID] {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(raw)
	}
}
