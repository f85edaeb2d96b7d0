package export_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise/buildwise/backend-go/internal/canvas"
	"github.com/buildwise/buildwise/backend-go/internal/domain"
	"github.com/buildwise/buildwise/backend-go/internal/export"
)

func newRenderer(t *testing.T) *export.Renderer {
	t.Helper()
	r, err := export.NewRenderer()
	require.NoError(t, err)
	return r
}

func decodePNG(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRenderEmptyCanvas(t *testing.T) {
	r := newRenderer(t)

	data, err := r.Render(&canvas.State{}, export.Options{Format: "png", Scope: "full"})
	require.NoError(t, err)

	w, h := decodePNG(t, data)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestRenderSizesToContentBounds(t *testing.T) {
	r := newRenderer(t)

	state := &canvas.State{
		Objects: []domain.CanvasObject{
			{ObjectID: "o1", Type: domain.ObjectRectangle, X: 0, Y: 0, Width: 100, Height: 50, Color: "#ff0000"},
		},
	}
	data, err := r.Render(state, export.Options{Format: "png", Scope: "full"})
	require.NoError(t, err)

	// Content plus 100px padding on each side of the bounding box.
	w, h := decodePNG(t, data)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestRenderAllObjectTypes(t *testing.T) {
	r := newRenderer(t)

	state := &canvas.State{
		Objects: []domain.CanvasObject{
			{ObjectID: "o1", Type: domain.ObjectSticky, X: 0, Y: 0, Width: 160, Height: 120, Content: "line one\nline two", Color: "#ffbd59"},
			{ObjectID: "o2", Type: domain.ObjectRectangle, X: 200, Y: 0, Width: 80, Height: 60},
			{ObjectID: "o3", Type: domain.ObjectCircle, X: 300, Y: 0, Width: 60, Height: 60, Color: "#00ff00"},
			{ObjectID: "o4", Type: domain.ObjectText, X: 0, Y: 200, Content: "hello", FontSize: 24},
			{ObjectID: "o5", Type: domain.ObjectLine, Points: []domain.Point{{X: 0, Y: 300}, {X: 120, Y: 340}}},
			{ObjectID: "o6", Type: domain.ObjectImage, X: 400, Y: 200, Width: 90, Height: 90},
			// A bad color must fall back, not fail the export.
			{ObjectID: "o7", Type: domain.ObjectRectangle, X: 10, Y: 10, Width: 20, Height: 20, Color: "chartreuse"},
		},
		Areas: []domain.CollaborationArea{
			{AreaID: "a1", Name: "Review", X: -50, Y: -50, Width: 600, Height: 500, Color: "#3b82f6"},
		},
	}
	data, err := r.Render(state, export.Options{Format: "png", Scope: "full"})
	require.NoError(t, err)

	w, h := decodePNG(t, data)
	assert.Greater(t, w, 0)
	assert.Greater(t, h, 0)
}

func TestRenderPDF(t *testing.T) {
	r := newRenderer(t)

	state := &canvas.State{
		Objects: []domain.CanvasObject{
			{ObjectID: "o1", Type: domain.ObjectSticky, X: 0, Y: 0, Width: 100, Height: 80, Content: "note"},
		},
	}
	data, err := r.Render(state, export.Options{Format: "pdf", Scope: "full"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "pdf output must start with the pdf magic")
}

func TestRenderSelectedArea(t *testing.T) {
	r := newRenderer(t)

	state := &canvas.State{
		Objects: []domain.CanvasObject{
			{ObjectID: "inside", Type: domain.ObjectRectangle, X: 10, Y: 10, Width: 30, Height: 30},
			{ObjectID: "outside", Type: domain.ObjectRectangle, X: 5000, Y: 5000, Width: 30, Height: 30},
		},
		Areas: []domain.CollaborationArea{
			{AreaID: "a1", Name: "Zone", X: 0, Y: 0, Width: 100, Height: 100},
		},
	}

	data, err := r.Render(state, export.Options{Format: "png", Scope: "selected", AreaID: "a1"})
	require.NoError(t, err)
	w, h := decodePNG(t, data)
	assert.Greater(t, w, 0)
	assert.Greater(t, h, 0)

	_, err = r.Render(state, export.Options{Format: "png", Scope: "selected", AreaID: "a_missing"})
	assert.ErrorIs(t, err, export.ErrAreaNotFound)
}

func TestRenderUnknownFormat(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Render(&canvas.State{}, export.Options{Format: "svg", Scope: "full"})
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}
