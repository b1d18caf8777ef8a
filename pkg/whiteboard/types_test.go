package whiteboard

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindValidate(t *testing.T) {
	validKinds := []Kind{KindRectangle, KindPath, KindText, KindStickyNote}
	for _, k := range validKinds {
		t.Run(string(k), func(t *testing.T) {
			assert.NoError(t, k.Validate())
		})
	}

	t.Run("rejects unknown kind", func(t *testing.T) {
		err := Kind("circle").Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown shape kind")
	})
}

func TestConstructors(t *testing.T) {
	id := uuid.New().String()

	t.Run("rectangle starts empty with default fill", func(t *testing.T) {
		r := NewRectangle(id, 10, 20)
		assert.Equal(t, 10.0, r.X)
		assert.Equal(t, 20.0, r.Y)
		assert.Zero(t, r.Width)
		assert.Zero(t, r.Height)
		assert.Equal(t, DefaultRectangleFill, r.FillColor)
		assert.NoError(t, r.Validate())
	})

	t.Run("path starts with one relative sample", func(t *testing.T) {
		p := NewPath(id, 5, 6, 0.8)
		require.Len(t, p.Points, 1)
		assert.Equal(t, Point{X: 0, Y: 0, Pressure: 0.8}, p.Points[0])
		assert.NoError(t, p.Validate())
	})

	t.Run("text gets placeholder and default size", func(t *testing.T) {
		tx := NewText(id, 1, 2)
		assert.Equal(t, PlaceholderText, tx.Text)
		assert.Equal(t, DefaultTextWidth, tx.Width)
		assert.Equal(t, DefaultFontSize, tx.FontSize)
		assert.False(t, tx.IsEditing)
	})

	t.Run("sticky note gets placeholder and default fill", func(t *testing.T) {
		s := NewStickyNote(id, 1, 2)
		assert.Equal(t, PlaceholderNote, s.Text)
		assert.Equal(t, DefaultStickyFill, s.FillColor)
		assert.Equal(t, DefaultStickyWidth, s.Width)
	})
}

func TestNormalizedRectangle(t *testing.T) {
	base := NewRectangle(uuid.New().String(), 100, 100)

	t.Run("forward drag", func(t *testing.T) {
		r := NormalizedRectangle(base, 100, 100, 150, 140)
		assert.Equal(t, 100.0, r.X)
		assert.Equal(t, 100.0, r.Y)
		assert.Equal(t, 50.0, r.Width)
		assert.Equal(t, 40.0, r.Height)
	})

	t.Run("backward drag flips the anchor", func(t *testing.T) {
		r := NormalizedRectangle(base, 100, 100, 60, 70)
		assert.Equal(t, 60.0, r.X)
		assert.Equal(t, 70.0, r.Y)
		assert.Equal(t, 40.0, r.Width)
		assert.Equal(t, 30.0, r.Height)
	})
}

func TestPathAppendPoint(t *testing.T) {
	p := NewPath(uuid.New().String(), 10, 10, DefaultPressure)

	next := p.AppendPoint(15, 18, 0.7)
	require.Len(t, next.Points, 2)
	assert.Equal(t, Point{X: 5, Y: 8, Pressure: 0.7}, next.Points[1])

	// The original is untouched
	assert.Len(t, p.Points, 1)
}

func TestPathBounds(t *testing.T) {
	p := NewPath(uuid.New().String(), 10, 10, DefaultPressure)
	p = p.AppendPoint(20, 5, DefaultPressure)
	p = p.AppendPoint(4, 30, DefaultPressure)

	x, y, w, h := p.Bounds()
	assert.Equal(t, 4.0, x)
	assert.Equal(t, 5.0, y)
	assert.Equal(t, 16.0, w)
	assert.Equal(t, 25.0, h)
}

func TestTranslate(t *testing.T) {
	id := uuid.New().String()
	shapes := []Shape{
		NewRectangle(id, 1, 2),
		NewPath(id, 1, 2, DefaultPressure),
		NewText(id, 1, 2),
		NewStickyNote(id, 1, 2),
	}

	for _, sh := range shapes {
		t.Run(string(sh.Kind()), func(t *testing.T) {
			moved := sh.Translate(10, -1)
			x, y := moved.Origin()
			assert.Equal(t, 11.0, x)
			assert.Equal(t, 1.0, y)
			assert.Equal(t, sh.Kind(), moved.Kind())

			ox, oy := sh.Origin()
			assert.Equal(t, 1.0, ox)
			assert.Equal(t, 2.0, oy)
		})
	}
}

func TestTranslatePathKeepsPoints(t *testing.T) {
	p := NewPath(uuid.New().String(), 0, 0, DefaultPressure).AppendPoint(5, 5, DefaultPressure)
	moved := p.Translate(100, 100).(Path)
	assert.Equal(t, p.Points, moved.Points)
}

func TestWithEditing(t *testing.T) {
	id := uuid.New().String()

	t.Run("text carries the flag", func(t *testing.T) {
		sh := NewText(id, 0, 0).WithEditing(true)
		assert.True(t, sh.Editing())
		assert.False(t, sh.WithEditing(false).Editing())
	})

	t.Run("rectangle ignores the flag", func(t *testing.T) {
		sh := NewRectangle(id, 0, 0).WithEditing(true)
		assert.False(t, sh.Editing())
	})
}

func TestWithTextAndTextOf(t *testing.T) {
	id := uuid.New().String()

	sh, ok := WithText(NewStickyNote(id, 0, 0), "hello")
	require.True(t, ok)
	assert.Equal(t, "hello", TextOf(sh))

	sh, ok = WithText(NewRectangle(id, 0, 0), "hello")
	assert.False(t, ok)
	assert.Equal(t, "", TextOf(sh))
}

func TestShapeValidate(t *testing.T) {
	t.Run("rejects invalid id", func(t *testing.T) {
		err := NewRectangle("not-a-uuid", 0, 0).Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not a valid UUID")
	})

	t.Run("rejects negative size", func(t *testing.T) {
		r := NewRectangle(uuid.New().String(), 0, 0)
		r.Width = -1
		assert.Error(t, r.Validate())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		p := Path{ID: uuid.New().String()}
		assert.Error(t, p.Validate())
	})
}
