package canvas

import (
	"time"

	"github.com/buildwise/buildwise/backend-go/internal/domain"
)

// Viewport is the pan/zoom state of a canvas. Scale is strictly positive.
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// State is the full persisted snapshot of a canvas, as saved and loaded by
// the bulk endpoints. Live broadcast traffic is deliberately not reflected
// here; convergence is the client's responsibility.
type State struct {
	Objects  []domain.CanvasObject      `json:"objects"`
	Areas    []domain.CollaborationArea `json:"areas"`
	Viewport Viewport                   `json:"viewport"`
}

// CanvasUpdate carries a partial update of canvas metadata. Nil fields are
// left unchanged.
type CanvasUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	ViewportX     *float64 `json:"viewportX,omitempty"`
	ViewportY     *float64 `json:"viewportY,omitempty"`
	ViewportScale *float64 `json:"viewportScale,omitempty"`
}

// ObjectInput is the payload for creating a canvas object.
type ObjectInput struct {
	Type       domain.ObjectType `json:"type"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Rotation   float64           `json:"rotation"`
	Content    string            `json:"content"`
	Color      string            `json:"color"`
	FontSize   int               `json:"fontSize"`
	FontFamily string            `json:"fontFamily"`
	ImageURL   string            `json:"imageUrl"`
	Points     []domain.Point    `json:"points"`
}

// ObjectUpdate carries a partial update of an object. Nil fields are left
// unchanged.
type ObjectUpdate struct {
	Type       *domain.ObjectType `json:"type,omitempty"`
	X          *float64           `json:"x,omitempty"`
	Y          *float64           `json:"y,omitempty"`
	Width      *float64           `json:"width,omitempty"`
	Height     *float64           `json:"height,omitempty"`
	Rotation   *float64           `json:"rotation,omitempty"`
	Content    *string            `json:"content,omitempty"`
	Color      *string            `json:"color,omitempty"`
	FontSize   *int               `json:"fontSize,omitempty"`
	FontFamily *string            `json:"fontFamily,omitempty"`
	ImageURL   *string            `json:"imageUrl,omitempty"`
	Points     []domain.Point     `json:"points,omitempty"`
}

// AreaInput is the payload for creating a collaboration area.
type AreaInput struct {
	Name          string   `json:"name"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	Color         string   `json:"color"`
	AssignedUsers []string `json:"assignedUsers"`
}

// AreaUpdate carries a partial update of an area.
type AreaUpdate struct {
	Name          *string  `json:"name,omitempty"`
	X             *float64 `json:"x,omitempty"`
	Y             *float64 `json:"y,omitempty"`
	Width         *float64 `json:"width,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	Color         *string  `json:"color,omitempty"`
	AssignedUsers []string `json:"assignedUsers,omitempty"`
}

// Bounds is the axis-aligned bounding box over objects and areas.
type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// Statistics summarizes a canvas for dashboards.
type Statistics struct {
	TotalObjects int       `json:"totalObjects"`
	TotalAreas   int       `json:"totalAreas"`
	ActiveUsers  int       `json:"activeUsers"`
	LastActivity time.Time `json:"lastActivity"`
	CanvasSize   Bounds    `json:"canvasSize"`
}

// StateBounds computes the bounding box over objects and areas. ok is false
// when both sets are empty.
func StateBounds(objects []domain.CanvasObject, areas []domain.CollaborationArea) (Bounds, bool) {
	if len(objects) == 0 && len(areas) == 0 {
		return Bounds{}, false
	}

	first := true
	var b Bounds
	extend := func(x, y, w, h float64) {
		if first {
			b = Bounds{MinX: x, MaxX: x + w, MinY: y, MaxY: y + h}
			first = false
			return
		}
		if x < b.MinX {
			b.MinX = x
		}
		if x+w > b.MaxX {
			b.MaxX = x + w
		}
		if y < b.MinY {
			b.MinY = y
		}
		if y+h > b.MaxY {
			b.MaxY = y + h
		}
	}

	for _, obj := range objects {
		extend(obj.X, obj.Y, obj.Width, obj.Height)
	}
	for _, area := range areas {
		extend(area.X, area.Y, area.Width, area.Height)
	}
	return b, true
}
