package inspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/slate/pkg/whiteboard"
)

// FormatTable writes shapes as a table in z-order. Columns: ID, Z, KIND,
// POSITION, SIZE and TEXT (truncated). Returns the number of shapes written.
func FormatTable(w io.Writer, shapes whiteboard.Set, boardID string) int {
	if len(shapes) == 0 {
		fmt.Fprintf(w, "No shapes found on board '%s'\n", boardID)
		return 0
	}

	fmt.Fprintf(w, "Shapes on board '%s':\n\n", boardID)

	fmt.Fprintf(w, "%-10s %-4s %-12s %-16s %-12s %s\n",
		"ID", "Z", "KIND", "POSITION", "SIZE", "TEXT")
	fmt.Fprintf(w, "%-10s %-4s %-12s %-16s %-12s %s\n",
		"----------", "----", "------------", "----------------", "------------", "----------------------------------------")

	for z, sh := range shapes {
		x, y, width, height := sh.Bounds()
		fmt.Fprintf(w, "%-10s %-4d %-12s %-16s %-12s %s\n",
			formatID(sh.ShapeID()),
			z,
			formatKind(sh),
			fmt.Sprintf("%s,%s", formatCoord(x), formatCoord(y)),
			fmt.Sprintf("%sx%s", formatCoord(width), formatCoord(height)),
			formatText(whiteboard.TextOf(sh)),
		)
	}

	countMsg := "shape"
	if len(shapes) != 1 {
		countMsg = "shapes"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(shapes), countMsg)

	return len(shapes)
}

// FormatJSONL writes each shape as one compact, type-tagged JSON object per
// line, for piping into jq.
func FormatJSONL(w io.Writer, shapes whiteboard.Set) error {
	for _, sh := range shapes {
		data, err := whiteboard.MarshalShape(sh)
		if err != nil {
			return fmt.Errorf("failed to marshal shape to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one shape as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, sh whiteboard.Shape) error {
	data, err := whiteboard.MarshalShape(sh)
	if err != nil {
		return fmt.Errorf("failed to marshal shape to JSON: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("failed to indent shape JSON: %w", err)
	}
	pretty.WriteByte('\n')

	if _, err := pretty.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// formatID truncates shape IDs to 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatKind adds the point count to paths.
func formatKind(sh whiteboard.Shape) string {
	if p, ok := sh.(whiteboard.Path); ok {
		return fmt.Sprintf("path(%d)", len(p.Points))
	}
	return string(sh.Kind())
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// formatText shows the first non-empty line, max 40 characters. Shapes
// without text show "-".
func formatText(text string) string {
	var firstLine string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}
	if firstLine == "" {
		return "-"
	}

	if r := []rune(firstLine); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return firstLine
}
