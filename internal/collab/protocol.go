package collab

import (
	"encoding/json"
	"time"
)

// Message is the envelope shared by both directions of the duplex channel.
// The data payload is tag-specific and deliberately opaque to the server:
// the router relays it verbatim without validation.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	TypeObjectAdd    = "object_add"
	TypeObjectUpdate = "object_update"
	TypeObjectDelete = "object_delete"
	TypeAreaAdd      = "area_add"
	TypeAreaUpdate   = "area_update"
	TypeAreaDelete   = "area_delete"
	TypeCursorMove   = "cursor_move"
	TypeUserJoin     = "user_join"
	TypeUserLeave    = "user_leave"
)

// CursorData is the payload of a cursor_move message. It is the only
// payload the server interprets, and only for the presence side-effect.
type CursorData struct {
	SessionID string  `json:"session_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}
