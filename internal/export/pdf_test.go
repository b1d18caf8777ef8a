package export

import (
	"bytes"
	"testing"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard() whiteboard.Set {
	r := whiteboard.NewRectangle(uuid.New().String(), 0, 0)
	r.Width, r.Height = 400, 300
	p := whiteboard.NewPath(uuid.New().String(), 50, 50, 0.5).
		AppendPoint(80, 90, 0.7).
		AppendPoint(120, 60, 0.2)
	dot := whiteboard.NewPath(uuid.New().String(), 10, 10, 0.5)
	tx := whiteboard.NewText(uuid.New().String(), 500, 100)
	tx.Text = "Ünïcode héading"
	note := whiteboard.NewStickyNote(uuid.New().String(), 900, 500)
	return whiteboard.Set{r, p, dot, tx, note}
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, sampleBoard()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestRenderPDF_EmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, whiteboard.Set{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFit(t *testing.T) {
	t.Run("large board is scaled into the printable area", func(t *testing.T) {
		set := sampleBoard()
		tr := Fit(set)

		bx, by, bw, bh, ok := set.Bounds()
		require.True(t, ok)
		x1, y1 := tr.Apply(bx, by)
		x2, y2 := tr.Apply(bx+bw, by+bh)

		assert.Less(t, tr.Scale, MaxScale)
		assert.GreaterOrEqual(t, x1, Margin-1e-9)
		assert.GreaterOrEqual(t, y1, Margin-1e-9)
		assert.LessOrEqual(t, x2, PageWidth-Margin+1e-9)
		assert.LessOrEqual(t, y2, PageHeight-Margin+1e-9)
	})

	t.Run("small board is capped and centred", func(t *testing.T) {
		r := whiteboard.NewRectangle(uuid.New().String(), 100, 100)
		r.Width, r.Height = 20, 20
		tr := Fit(whiteboard.Set{r})

		assert.Equal(t, MaxScale, tr.Scale)
		cx, cy := tr.Apply(110, 110)
		assert.InDelta(t, PageWidth/2, cx, 1e-9)
		assert.InDelta(t, PageHeight/2, cy, 1e-9)
	})

	t.Run("empty board", func(t *testing.T) {
		assert.Equal(t, Transform{Scale: MaxScale, OffsetX: Margin, OffsetY: Margin}, Fit(nil))
	})
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"#3b82f6", 0x3b, 0x82, 0xf6},
		{"#fff", 255, 255, 255},
		{"red", 0, 0, 0},
		{"", 0, 0, 0},
		{"#zzzzzz", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, g, b := parseColor(tt.in)
			assert.Equal(t, []int{tt.r, tt.g, tt.b}, []int{r, g, b})
		})
	}
}
