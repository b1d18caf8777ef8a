package session

import "fmt"

// Tool is the active drawing tool of a session.
type Tool string

const (
	// ToolSelect selects and drags existing shapes
	ToolSelect Tool = "select"

	// ToolRectangle draws a rectangle by dragging
	ToolRectangle Tool = "rectangle"

	// ToolPen draws a freehand path
	ToolPen Tool = "pen"

	// ToolText places a text box and enters edit mode
	ToolText Tool = "text"

	// ToolStickyNote places a sticky note and enters edit mode
	ToolStickyNote Tool = "sticky_note"

	// ToolEraser deletes the shape under the pointer
	ToolEraser Tool = "eraser"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolRectangle, ToolPen, ToolText, ToolStickyNote, ToolEraser}

// Validate checks if the Tool is one of the defined values.
func (t Tool) Validate() error {
	switch t {
	case ToolSelect, ToolRectangle, ToolPen, ToolText, ToolStickyNote, ToolEraser:
		return nil
	default:
		return fmt.Errorf("invalid tool: %q", t)
	}
}
