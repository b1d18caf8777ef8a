// Package export renders boards to static documents.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/jung-kurt/gofpdf"
)

// Page geometry in millimetres (A4 landscape).
const (
	PageWidth  = 297.0
	PageHeight = 210.0
	Margin     = 10.0

	// MaxScale caps how far a small board is blown up (mm per canvas unit).
	MaxScale = 0.5

	ptPerMM = 72 / 25.4
)

// Transform maps canvas coordinates onto the page.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Apply converts a canvas point to page millimetres.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.OffsetX + x*t.Scale, t.OffsetY + y*t.Scale
}

// Fit returns the transform that centres the set's bounding box inside the
// printable area of the page.
func Fit(set whiteboard.Set) Transform {
	bx, by, bw, bh, ok := set.Bounds()
	if !ok {
		return Transform{Scale: MaxScale, OffsetX: Margin, OffsetY: Margin}
	}
	availW := PageWidth - 2*Margin
	availH := PageHeight - 2*Margin

	scale := MaxScale
	if bw > 0 {
		scale = math.Min(scale, availW/bw)
	}
	if bh > 0 {
		scale = math.Min(scale, availH/bh)
	}

	return Transform{
		Scale:   scale,
		OffsetX: Margin + (availW-bw*scale)/2 - bx*scale,
		OffsetY: Margin + (availH-bh*scale)/2 - by*scale,
	}
}

// RenderPDF writes the set as a single-page PDF. Shapes are drawn in z-order.
func RenderPDF(w io.Writer, set whiteboard.Set) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Slate board", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	t := Fit(set)
	for _, sh := range set {
		drawShape(pdf, tr, t, sh)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func drawShape(pdf *gofpdf.Fpdf, tr func(string) string, t Transform, sh whiteboard.Shape) {
	switch v := sh.(type) {
	case whiteboard.Rectangle:
		x, y := t.Apply(v.X, v.Y)
		setFill(pdf, v.FillColor)
		pdf.Rect(x, y, v.Width*t.Scale, v.Height*t.Scale, "F")

	case whiteboard.Path:
		setDraw(pdf, v.FillColor)
		pdf.SetLineCapStyle("round")
		if len(v.Points) == 1 {
			x, y := t.Apply(v.X+v.Points[0].X, v.Y+v.Points[0].Y)
			setFill(pdf, v.FillColor)
			pdf.Circle(x, y, strokeWidth(v.Points[0].Pressure, t.Scale)/2, "F")
			return
		}
		for i := 1; i < len(v.Points); i++ {
			prev, cur := v.Points[i-1], v.Points[i]
			x1, y1 := t.Apply(v.X+prev.X, v.Y+prev.Y)
			x2, y2 := t.Apply(v.X+cur.X, v.Y+cur.Y)
			pdf.SetLineWidth(strokeWidth(cur.Pressure, t.Scale))
			pdf.Line(x1, y1, x2, y2)
		}

	case whiteboard.Text:
		x, y := t.Apply(v.X, v.Y)
		drawText(pdf, tr, x, y, v.Width*t.Scale, v.FontSize*t.Scale, v.Text)

	case whiteboard.StickyNote:
		x, y := t.Apply(v.X, v.Y)
		w, h := v.Width*t.Scale, v.Height*t.Scale
		setFill(pdf, v.FillColor)
		pdf.Rect(x, y, w, h, "F")
		pad := 8 * t.Scale
		drawText(pdf, tr, x+pad, y+pad, math.Max(w-2*pad, 1), whiteboard.DefaultFontSize*t.Scale, v.Text)

	default:
		panic(fmt.Sprintf("export: unknown shape variant %T", sh))
	}
}

func drawText(pdf *gofpdf.Fpdf, tr func(string) string, x, y, width, sizeMM float64, text string) {
	if sizeMM <= 0 {
		sizeMM = whiteboard.DefaultFontSize * MaxScale
	}
	pdf.SetFont("Helvetica", "", sizeMM*ptPerMM)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetXY(x, y)
	pdf.MultiCell(math.Max(width, 1), sizeMM*1.2, tr(text), "", "L", false)
}

func strokeWidth(pressure, scale float64) float64 {
	if pressure <= 0 {
		pressure = whiteboard.DefaultPressure
	}
	return math.Max(pressure*4*scale, 0.2)
}

func setFill(pdf *gofpdf.Fpdf, hex string) {
	r, g, b := parseColor(hex)
	pdf.SetFillColor(r, g, b)
}

func setDraw(pdf *gofpdf.Fpdf, hex string) {
	r, g, b := parseColor(hex)
	pdf.SetDrawColor(r, g, b)
}

// parseColor decodes "#rrggbb" or "#rgb". Anything else renders black.
func parseColor(hex string) (r, g, b int) {
	switch len(hex) {
	case 7:
		if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return r, g, b
		}
	case 4:
		if _, err := fmt.Sscanf(hex, "#%1x%1x%1x", &r, &g, &b); err == nil {
			return r * 17, g * 17, b * 17
		}
	}
	return 0, 0, 0
}
