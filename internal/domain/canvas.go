package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ObjectType is the variant tag of a canvas object.
type ObjectType string

const (
	ObjectSticky    ObjectType = "sticky"
	ObjectRectangle ObjectType = "rectangle"
	ObjectCircle    ObjectType = "circle"
	ObjectLine      ObjectType = "line"
	ObjectText      ObjectType = "text"
	ObjectImage     ObjectType = "image"
)

// ValidObjectType reports whether t is one of the known variants.
func ValidObjectType(t ObjectType) bool {
	switch t {
	case ObjectSticky, ObjectRectangle, ObjectCircle, ObjectLine, ObjectText, ObjectImage:
		return true
	}
	return false
}

// Point is one vertex of a line or path object.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Canvas is the shared whiteboard document for a project. There is at most
// one canvas per project; it is created lazily on first access.
type Canvas struct {
	ID            string  `gorm:"primaryKey" json:"id"`
	ProjectID     string  `gorm:"uniqueIndex;not null" json:"projectId"`
	Name          string  `gorm:"not null" json:"name"`
	Description   string  `json:"description,omitempty"`
	ViewportX     float64 `json:"viewportX"`
	ViewportY     float64 `json:"viewportY"`
	ViewportScale float64 `json:"viewportScale"`
	CreatedBy     string  `gorm:"not null" json:"createdBy"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// CanvasObject is one visual element on a canvas. ObjectID is the
// externally-addressable identifier and is unique across the whole system.
type CanvasObject struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	CanvasID   string     `gorm:"index;not null" json:"canvasId"`
	ObjectID   string     `gorm:"uniqueIndex;not null" json:"objectId"`
	Type       ObjectType `gorm:"not null" json:"type"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Rotation   float64    `json:"rotation"`
	Content    string     `json:"content,omitempty"`
	Color      string     `json:"color"`
	FontSize   int        `json:"fontSize"`
	FontFamily string     `json:"fontFamily"`
	ImageURL   string     `json:"imageUrl,omitempty"`

	// Vertex list for line and path variants, stored as a JSON column.
	Points datatypes.JSONSlice[Point] `json:"points,omitempty"`

	CreatedBy string    `gorm:"not null" json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// CollaborationArea is a named rectangular zone used to partition work among
// users. AreaID is the externally-addressable identifier.
type CollaborationArea struct {
	ID       uint    `gorm:"primaryKey" json:"-"`
	CanvasID string  `gorm:"index;not null" json:"canvasId"`
	AreaID   string  `gorm:"uniqueIndex;not null" json:"areaId"`
	Name     string  `gorm:"not null" json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Color    string  `json:"color"`

	// User IDs assigned to this zone, stored as a JSON column.
	AssignedUsers datatypes.JSONSlice[string] `json:"assignedUsers"`

	CreatedBy string    `gorm:"not null" json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// CanvasSession records one user's live presence on one canvas. At most one
// session per (canvas, user) pair has IsActive set; a newly created session
// supersedes earlier ones, which remain as inactive history.
type CanvasSession struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	CanvasID     string    `gorm:"index;not null" json:"canvasId"`
	UserID       string    `gorm:"index;not null" json:"userId"`
	SessionID    string    `gorm:"uniqueIndex;not null" json:"sessionId"`
	CursorX      float64   `json:"cursorX"`
	CursorY      float64   `json:"cursorY"`
	IsActive     bool      `gorm:"index" json:"isActive"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joinedAt"`
	LastActivity time.Time `gorm:"index" json:"lastActivity"`
}

const (
	DefaultCanvasName  = "Canvas"
	DefaultObjectColor = "#ffbd59"
	DefaultAreaColor   = "#3b82f6"
	DefaultFontSize    = 16
	DefaultFontFamily  = "Arial"
)
