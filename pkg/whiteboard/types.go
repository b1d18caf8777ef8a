package whiteboard

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Construction defaults for each tool.
const (
	DefaultTextWidth    = 150.0
	DefaultTextHeight   = 150.0
	DefaultStickyWidth  = 200.0
	DefaultStickyHeight = 200.0
	DefaultFontSize     = 16.0
	DefaultPressure     = 0.5

	DefaultRectangleFill = "#3b82f6"
	DefaultPathFill      = "#1f2937"
	DefaultStickyFill    = "#fef08a"

	PlaceholderText = "Type something..."
	PlaceholderNote = "New note"
)

// Kind identifies which variant of the Shape sum type a value is.
type Kind string

const (
	// KindRectangle is a filled axis-aligned box
	KindRectangle Kind = "rectangle"

	// KindPath is a freehand polyline drawn with the pen tool
	KindPath Kind = "path"

	// KindText is a free-standing text box
	KindText Kind = "text"

	// KindStickyNote is a filled box carrying text
	KindStickyNote Kind = "sticky_note"
)

// Validate checks if the Kind is a known variant.
func (k Kind) Validate() error {
	switch k {
	case KindRectangle, KindPath, KindText, KindStickyNote:
		return nil
	default:
		return fmt.Errorf("unknown shape kind: %q", k)
	}
}

// Shape is a drawable primitive. The interface is sealed: Rectangle, Path, Text
// and StickyNote are the only implementations.
type Shape interface {
	// ShapeID returns the globally unique id assigned at creation.
	ShapeID() string

	// Kind reports the active variant.
	Kind() Kind

	// Origin returns the shape's anchor position.
	Origin() (x, y float64)

	// Bounds returns the axis-aligned bounding box.
	Bounds() (x, y, width, height float64)

	// Translate returns a copy moved by (dx, dy).
	Translate(dx, dy float64) Shape

	// Editing reports whether the shape is in text edit mode.
	Editing() bool

	// WithEditing returns a copy with the edit flag set. Shapes without text
	// return themselves unchanged.
	WithEditing(editing bool) Shape

	// Validate checks the shape's invariants.
	Validate() error

	isShape()
}

// Point is a single freehand sample. Coordinates are relative to the owning
// path's origin, so moving a path never rewrites its points.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

// Rectangle is a filled axis-aligned box.
type Rectangle struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FillColor string  `json:"fill_color"`
}

// Path is a freehand polyline.
type Path struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Points    []Point `json:"points"`
	FillColor string  `json:"fill_color"`
}

// Text is a free-standing text box.
type Text struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FontSize  float64 `json:"font_size"`
	Text      string  `json:"text"`
	IsEditing bool    `json:"is_editing,omitempty"`
}

// StickyNote is a filled box carrying text.
type StickyNote struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	FillColor string  `json:"fill_color"`
	Text      string  `json:"text"`
	IsEditing bool    `json:"is_editing,omitempty"`
}

// Cursor is a remote participant's pointer position. Presence is advisory and
// never part of the shape set.
type Cursor struct {
	UserID string  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color,omitempty"`
	Name   string  `json:"name,omitempty"`
}

// NewID returns a fresh shape id.
func NewID() string {
	return uuid.New().String()
}

// NewRectangle starts a zero-size rectangle anchored at (x, y).
func NewRectangle(id string, x, y float64) Rectangle {
	return Rectangle{ID: id, X: x, Y: y, FillColor: DefaultRectangleFill}
}

// NewPath starts a path with a single sample at its origin.
func NewPath(id string, x, y, pressure float64) Path {
	return Path{
		ID:        id,
		X:         x,
		Y:         y,
		Points:    []Point{{X: 0, Y: 0, Pressure: pressure}},
		FillColor: DefaultPathFill,
	}
}

// NewText creates a default-sized text box with placeholder text.
func NewText(id string, x, y float64) Text {
	return Text{
		ID:       id,
		X:        x,
		Y:        y,
		Width:    DefaultTextWidth,
		Height:   DefaultTextHeight,
		FontSize: DefaultFontSize,
		Text:     PlaceholderText,
	}
}

// NewStickyNote creates a default-sized sticky note with placeholder text.
func NewStickyNote(id string, x, y float64) StickyNote {
	return StickyNote{
		ID:        id,
		X:         x,
		Y:         y,
		Width:     DefaultStickyWidth,
		Height:    DefaultStickyHeight,
		FillColor: DefaultStickyFill,
		Text:      PlaceholderNote,
	}
}

// NormalizedRectangle builds the box spanned by an anchor and a current point.
// Negative deltas flip the anchor so width and height stay non-negative.
func NormalizedRectangle(r Rectangle, anchorX, anchorY, x, y float64) Rectangle {
	r.X = math.Min(anchorX, x)
	r.Y = math.Min(anchorY, y)
	r.Width = math.Abs(x - anchorX)
	r.Height = math.Abs(y - anchorY)
	return r
}

// Rectangle

func (r Rectangle) ShapeID() string        { return r.ID }
func (r Rectangle) Kind() Kind             { return KindRectangle }
func (r Rectangle) Origin() (x, y float64) { return r.X, r.Y }
func (r Rectangle) Editing() bool          { return false }
func (r Rectangle) WithEditing(bool) Shape { return r }
func (r Rectangle) isShape()               {}

func (r Rectangle) Bounds() (x, y, width, height float64) {
	return r.X, r.Y, r.Width, r.Height
}

func (r Rectangle) Translate(dx, dy float64) Shape {
	r.X += dx
	r.Y += dy
	return r
}

func (r Rectangle) Validate() error {
	if !isValidUUID(r.ID) {
		return fmt.Errorf("invalid rectangle ID: not a valid UUID")
	}
	return validateSize(r.Width, r.Height)
}

// Path

func (p Path) ShapeID() string        { return p.ID }
func (p Path) Kind() Kind             { return KindPath }
func (p Path) Origin() (x, y float64) { return p.X, p.Y }
func (p Path) Editing() bool          { return false }
func (p Path) WithEditing(bool) Shape { return p }
func (p Path) isShape()               {}

func (p Path) Bounds() (x, y, width, height float64) {
	if len(p.Points) == 0 {
		return p.X, p.Y, 0, 0
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return p.X + minX, p.Y + minY, maxX - minX, maxY - minY
}

func (p Path) Translate(dx, dy float64) Shape {
	p.X += dx
	p.Y += dy
	return p
}

// AppendPoint returns a copy with an absolute canvas point appended. The
// receiver's point slice is never written to.
func (p Path) AppendPoint(x, y, pressure float64) Path {
	points := make([]Point, len(p.Points), len(p.Points)+1)
	copy(points, p.Points)
	p.Points = append(points, Point{X: x - p.X, Y: y - p.Y, Pressure: pressure})
	return p
}

func (p Path) Validate() error {
	if !isValidUUID(p.ID) {
		return fmt.Errorf("invalid path ID: not a valid UUID")
	}
	if len(p.Points) == 0 {
		return fmt.Errorf("path %s has no points", p.ID)
	}
	return nil
}

// Text

func (t Text) ShapeID() string        { return t.ID }
func (t Text) Kind() Kind             { return KindText }
func (t Text) Origin() (x, y float64) { return t.X, t.Y }
func (t Text) Editing() bool          { return t.IsEditing }
func (t Text) isShape()               {}

func (t Text) Bounds() (x, y, width, height float64) {
	return t.X, t.Y, t.Width, t.Height
}

func (t Text) Translate(dx, dy float64) Shape {
	t.X += dx
	t.Y += dy
	return t
}

func (t Text) WithEditing(editing bool) Shape {
	t.IsEditing = editing
	return t
}

func (t Text) Validate() error {
	if !isValidUUID(t.ID) {
		return fmt.Errorf("invalid text ID: not a valid UUID")
	}
	if t.FontSize < 0 {
		return fmt.Errorf("invalid font size: must be >= 0, got %v", t.FontSize)
	}
	return validateSize(t.Width, t.Height)
}

// StickyNote

func (s StickyNote) ShapeID() string        { return s.ID }
func (s StickyNote) Kind() Kind             { return KindStickyNote }
func (s StickyNote) Origin() (x, y float64) { return s.X, s.Y }
func (s StickyNote) Editing() bool          { return s.IsEditing }
func (s StickyNote) isShape()               {}

func (s StickyNote) Bounds() (x, y, width, height float64) {
	return s.X, s.Y, s.Width, s.Height
}

func (s StickyNote) Translate(dx, dy float64) Shape {
	s.X += dx
	s.Y += dy
	return s
}

func (s StickyNote) WithEditing(editing bool) Shape {
	s.IsEditing = editing
	return s
}

func (s StickyNote) Validate() error {
	if !isValidUUID(s.ID) {
		return fmt.Errorf("invalid sticky note ID: not a valid UUID")
	}
	return validateSize(s.Width, s.Height)
}

// WithText returns a copy of a text-bearing shape with new content.
// Reports false for shapes that carry no text.
func WithText(sh Shape, text string) (Shape, bool) {
	switch v := sh.(type) {
	case Text:
		v.Text = text
		return v, true
	case StickyNote:
		v.Text = text
		return v, true
	case Rectangle, Path:
		return sh, false
	default:
		panic(fmt.Sprintf("whiteboard: unknown shape variant %T", sh))
	}
}

// TextOf returns the text carried by a shape, or "" for shapes without text.
func TextOf(sh Shape) string {
	switch v := sh.(type) {
	case Text:
		return v.Text
	case StickyNote:
		return v.Text
	case Rectangle, Path:
		return ""
	default:
		panic(fmt.Sprintf("whiteboard: unknown shape variant %T", sh))
	}
}

func validateSize(width, height float64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("invalid size: width and height must be >= 0, got %vx%v", width, height)
	}
	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
