package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/buildwise/buildwise/backend-go/internal/canvas"
	"github.com/buildwise/buildwise/backend-go/internal/domain"
)

const (
	// Image dimensions for an empty canvas.
	defaultWidth  = 1920
	defaultHeight = 1080

	// Padding added around the content bounding box.
	boundsPadding = 100

	// Sticky note text caps.
	stickyMaxLines = 5
	stickyMaxChars = 30

	labelFontSize = 14.0
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrAreaNotFound  = errors.New("area not found in canvas state")
)

// Options selects the export format and scope.
type Options struct {
	Format string // png or pdf
	Scope  string // full or selected
	AreaID string // required when Scope is selected
}

// Renderer rasterizes a persisted canvas snapshot. It reads only the
// loaded state, never the live broadcast stream, and mutates nothing.
type Renderer struct {
	font *truetype.Font
}

func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

// Render draws the snapshot and encodes it in the requested format.
func (r *Renderer) Render(state *canvas.State, opts Options) ([]byte, error) {
	objects := state.Objects
	areas := state.Areas

	if opts.Scope == "selected" {
		var err error
		objects, areas, err = selectArea(objects, areas, opts.AreaID)
		if err != nil {
			return nil, err
		}
	}

	width, height := defaultWidth, defaultHeight
	offsetX, offsetY := 0.0, 0.0
	if bounds, ok := canvas.StateBounds(objects, areas); ok {
		width = int(bounds.MaxX-bounds.MinX) + boundsPadding
		height = int(bounds.MaxY-bounds.MinY) + boundsPadding
		offsetX = -bounds.MinX + boundsPadding/2
		offsetY = -bounds.MinY + boundsPadding/2
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Translate(offsetX, offsetY)
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: labelFontSize}))

	for _, area := range areas {
		r.drawArea(dc, area)
	}
	for _, obj := range objects {
		r.drawObject(dc, obj)
	}

	var png bytes.Buffer
	if err := dc.EncodePNG(&png); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	switch opts.Format {
	case "png":
		return png.Bytes(), nil
	case "pdf":
		return wrapPDF(png.Bytes(), width, height)
	default:
		return nil, ErrUnknownFormat
	}
}

func (r *Renderer) drawArea(dc *gg.Context, area domain.CollaborationArea) {
	setHex(dc, area.Color, domain.DefaultAreaColor)
	dc.SetLineWidth(2)
	dc.DrawRectangle(area.X, area.Y, area.Width, area.Height)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.DrawString(area.Name, area.X, area.Y-6)
}

func (r *Renderer) drawObject(dc *gg.Context, obj domain.CanvasObject) {
	switch obj.Type {
	case domain.ObjectRectangle, domain.ObjectImage:
		setHex(dc, obj.Color, domain.DefaultObjectColor)
		dc.SetLineWidth(2)
		dc.DrawRectangle(obj.X, obj.Y, obj.Width, obj.Height)
		dc.Stroke()

	case domain.ObjectCircle:
		setHex(dc, obj.Color, domain.DefaultObjectColor)
		dc.SetLineWidth(2)
		dc.DrawEllipse(obj.X+obj.Width/2, obj.Y+obj.Height/2, obj.Width/2, obj.Height/2)
		dc.Stroke()

	case domain.ObjectSticky:
		setHex(dc, obj.Color, domain.DefaultObjectColor)
		dc.DrawRectangle(obj.X, obj.Y, obj.Width, obj.Height)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.DrawRectangle(obj.X, obj.Y, obj.Width, obj.Height)
		dc.Stroke()
		r.drawStickyText(dc, obj)

	case domain.ObjectText:
		if obj.Content != "" {
			size := float64(obj.FontSize)
			if size <= 0 {
				size = labelFontSize
			}
			dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: size}))
			dc.SetRGB(0, 0, 0)
			dc.DrawString(obj.Content, obj.X, obj.Y+size)
			dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: labelFontSize}))
		}

	case domain.ObjectLine:
		if len(obj.Points) >= 2 {
			setHex(dc, obj.Color, domain.DefaultObjectColor)
			dc.SetLineWidth(2)
			dc.MoveTo(obj.Points[0].X, obj.Points[0].Y)
			for _, p := range obj.Points[1:] {
				dc.LineTo(p.X, p.Y)
			}
			dc.Stroke()
		}
	}
}

// drawStickyText line-wraps the sticky content with conservative caps so a
// runaway note cannot dominate the render.
func (r *Renderer) drawStickyText(dc *gg.Context, obj domain.CanvasObject) {
	if obj.Content == "" {
		return
	}

	size := float64(obj.FontSize)
	if size <= 0 {
		size = 12
	}
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: size}))
	dc.SetRGB(0, 0, 0)

	lines := splitLines(obj.Content)
	y := obj.Y + size + 5
	for i, line := range lines {
		if i >= stickyMaxLines {
			break
		}
		dc.DrawString(truncateRunes(line, stickyMaxChars), obj.X+5, y)
		y += size + 2
	}

	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: labelFontSize}))
}

// selectArea narrows the state to a single named area and the objects that
// intersect its rectangle.
func selectArea(objects []domain.CanvasObject, areas []domain.CollaborationArea, areaID string) ([]domain.CanvasObject, []domain.CollaborationArea, error) {
	for _, area := range areas {
		if area.AreaID != areaID {
			continue
		}
		// Inclusive on the edges: zero-size objects such as bare text have
		// no extent and would never pass a strict overlap test.
		var inside []domain.CanvasObject
		for _, obj := range objects {
			if obj.X <= area.X+area.Width && obj.X+obj.Width >= area.X &&
				obj.Y <= area.Y+area.Height && obj.Y+obj.Height >= area.Y {
				inside = append(inside, obj)
			}
		}
		return inside, []domain.CollaborationArea{area}, nil
	}
	return nil, nil, ErrAreaNotFound
}

// wrapPDF embeds a rendered PNG as a single full-size PDF page.
func wrapPDF(png []byte, width, height int) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("canvas", opts, bytes.NewReader(png))
	pdf.ImageOptions("canvas", 0, 0, float64(width), float64(height), false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func setHex(dc *gg.Context, hex, fallback string) {
	if len(hex) != 7 || hex[0] != '#' {
		hex = fallback
	}
	dc.SetHexColor(hex)
}

// truncateRunes caps s at n characters without splitting a multibyte rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
