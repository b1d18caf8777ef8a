package session

import "github.com/dyluth/slate/pkg/whiteboard"

// DefaultMinShapeSize is the rectangle discard threshold. A rectangle whose
// width and height are both below it is treated as an accidental click.
const DefaultMinShapeSize = 5.0

// PointerEvent is a single pointer sample in canvas coordinates. Coordinates
// are never clamped.
type PointerEvent struct {
	X        float64
	Y        float64
	Pressure float64 // 0 means DefaultPressure
	Target   string  // id of the shape under the pointer, "" for empty canvas
	Shift    bool    // extend the selection instead of replacing it
}

func (ev PointerEvent) pressure() float64 {
	if ev.Pressure <= 0 {
		return whiteboard.DefaultPressure
	}
	return ev.Pressure
}

// Transition is the outcome of feeding one input to the Engine.
//
// Changed means Shapes differs from the previous set and must be broadcast
// and persisted. Commit means Shapes is a history checkpoint.
type Transition struct {
	Shapes  whiteboard.Set
	Changed bool
	Commit  bool
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// MinShapeSize overrides DefaultMinShapeSize when positive.
	MinShapeSize float64

	// NewID generates shape ids. Defaults to whiteboard.NewID.
	NewID func() string
}

// interaction is the state between pointer-down and pointer-up.
type interaction struct {
	tool     Tool
	startX   float64
	startY   float64
	snapshot whiteboard.Set
	shape    whiteboard.Shape // shape created by this interaction, if any
	moved    bool
	last     whiteboard.Set // last set a select drag emitted
	stale    bool           // Reset replaced the set since the last emit
}

// Engine turns pointer input and the active tool into shape-set transitions.
// It performs no I/O and is not safe for concurrent use; Session serialises
// access to it.
type Engine struct {
	tool      Tool
	shapes    whiteboard.Set
	selection []string
	active    *interaction

	minSize float64
	newID   func() string
}

// NewEngine creates an idle engine with the select tool and an empty set.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		tool:    ToolSelect,
		shapes:  whiteboard.Set{},
		minSize: cfg.MinShapeSize,
		newID:   cfg.NewID,
	}
	if e.minSize <= 0 {
		e.minSize = DefaultMinShapeSize
	}
	if e.newID == nil {
		e.newID = whiteboard.NewID
	}
	return e
}

// Shapes returns the current shape set. Sets are never mutated in place, so the
// result may be retained.
func (e *Engine) Shapes() whiteboard.Set {
	return e.shapes
}

// Selection returns a copy of the selected shape ids in selection order.
func (e *Engine) Selection() []string {
	return append([]string(nil), e.selection...)
}

// Tool returns the active tool.
func (e *Engine) Tool() Tool {
	return e.tool
}

// Interacting reports whether a pointer interaction is open.
func (e *Engine) Interacting() bool {
	return e.active != nil
}

// SetTool switches the active tool and cancels an open interaction. A shape
// being created is removed; a drag reverts to its pointer-down snapshot unless
// a remote set replaced it since the last move.
func (e *Engine) SetTool(tool Tool) Transition {
	if tool == e.tool && e.active == nil {
		return e.unchanged()
	}
	e.tool = tool

	if e.active == nil {
		return e.unchanged()
	}
	in := e.active
	e.active = nil

	var changed bool
	switch {
	case in.shape != nil:
		changed = e.shapes.Contains(in.shape.ShapeID())
		e.shapes = e.shapes.Remove(in.shape.ShapeID())
	case in.moved && !in.stale:
		changed = true
		e.shapes = in.snapshot
	}
	e.pruneSelection()
	return Transition{Shapes: e.shapes, Changed: changed}
}

// Reset replaces the shape set wholesale, as for undo, redo and remote updates.
// A local edit mode survives when its shape is still present; the selection
// is pruned to shapes that still exist.
//
// An open interaction stays open. A shape being created is put back by its
// next move or by pointer-up, and a drag keeps recomputing from its
// pointer-down snapshot, so the interaction re-emits its state over the new
// set when it next changes or ends.
func (e *Engine) Reset(set whiteboard.Set) {
	if e.active != nil {
		e.active.stale = true
	}
	editingID, _ := e.shapes.EditingID()
	if set == nil {
		set = whiteboard.Set{}
	}
	if editingID != "" && set.Contains(editingID) {
		e.shapes = set.WithEditing(editingID)
	} else {
		e.shapes = set.WithEditing("")
	}
	e.pruneSelection()
}

// PointerDown opens an interaction for the active tool.
func (e *Engine) PointerDown(ev PointerEvent) Transition {
	if e.active != nil {
		return e.unchanged()
	}

	in := &interaction{
		tool:     e.tool,
		startX:   ev.X,
		startY:   ev.Y,
		snapshot: e.shapes,
	}

	switch e.tool {
	case ToolSelect:
		e.active = in
		if ev.Target == "" || !e.shapes.Contains(ev.Target) {
			e.selection = nil
			if _, editing := e.shapes.EditingID(); editing {
				e.shapes = e.shapes.WithEditing("")
				in.snapshot = e.shapes
				return Transition{Shapes: e.shapes, Changed: true, Commit: true}
			}
			return e.unchanged()
		}
		if ev.Shift {
			if !e.isSelected(ev.Target) {
				e.selection = append(e.Selection(), ev.Target)
			}
		} else {
			e.selection = []string{ev.Target}
		}
		return e.unchanged()

	case ToolRectangle:
		in.shape = whiteboard.NewRectangle(e.newID(), ev.X, ev.Y)
	case ToolPen:
		in.shape = whiteboard.NewPath(e.newID(), ev.X, ev.Y, ev.pressure())
	case ToolText:
		in.shape = whiteboard.NewText(e.newID(), ev.X, ev.Y)
	case ToolStickyNote:
		in.shape = whiteboard.NewStickyNote(e.newID(), ev.X, ev.Y)

	case ToolEraser:
		if ev.Target == "" || !e.shapes.Contains(ev.Target) {
			return e.unchanged()
		}
		e.shapes = e.shapes.Remove(ev.Target)
		e.pruneSelection()
		return Transition{Shapes: e.shapes, Changed: true, Commit: true}

	default:
		return e.unchanged()
	}

	e.active = in
	e.shapes = e.shapes.Append(in.shape)
	if in.tool != ToolPen {
		e.selection = []string{in.shape.ShapeID()}
	}
	return Transition{Shapes: e.shapes, Changed: true}
}

// PointerMove advances an open interaction. Moves without one are ignored.
func (e *Engine) PointerMove(ev PointerEvent) Transition {
	in := e.active
	if in == nil {
		return e.unchanged()
	}

	switch in.tool {
	case ToolSelect:
		if len(e.selection) == 0 {
			return e.unchanged()
		}
		dx, dy := ev.X-in.startX, ev.Y-in.startY
		// Recompute from the pointer-down snapshot so repeated moves never drift.
		next := in.snapshot.Clone()
		for i, sh := range next {
			if e.isSelected(sh.ShapeID()) {
				next[i] = sh.Translate(dx, dy)
			}
		}
		e.shapes = next
		in.last = next
		in.moved = dx != 0 || dy != 0
		in.stale = false
		return Transition{Shapes: e.shapes, Changed: true}

	case ToolRectangle:
		r := in.shape.(whiteboard.Rectangle)
		in.shape = whiteboard.NormalizedRectangle(r, in.startX, in.startY, ev.X, ev.Y)
		e.shapes = e.shapes.Upsert(in.shape)
		in.stale = false
		return Transition{Shapes: e.shapes, Changed: true}

	case ToolPen:
		p := in.shape.(whiteboard.Path)
		in.shape = p.AppendPoint(ev.X, ev.Y, ev.pressure())
		e.shapes = e.shapes.Upsert(in.shape)
		in.stale = false
		return Transition{Shapes: e.shapes, Changed: true}

	default:
		return e.unchanged()
	}
}

// PointerUp closes the open interaction. It is a no-op when none is open, so it
// can be fed from a window-level listener.
//
// The committed set is always one that has been emitted as Changed: when a
// Reset replaced the set after the last move, pointer-up emits again.
func (e *Engine) PointerUp(ev PointerEvent) Transition {
	in := e.active
	if in == nil {
		return e.unchanged()
	}
	e.active = nil

	switch in.tool {
	case ToolSelect:
		if !in.moved {
			return e.unchanged()
		}
		if in.stale {
			e.shapes = in.last
			e.pruneSelection()
		}
		return Transition{Shapes: e.shapes, Changed: in.stale, Commit: true}

	case ToolRectangle:
		r := in.shape.(whiteboard.Rectangle)
		if r.Width < e.minSize && r.Height < e.minSize {
			present := e.shapes.Contains(r.ID)
			e.shapes = e.shapes.Remove(r.ID)
			e.pruneSelection()
			return Transition{Shapes: e.shapes, Changed: present}
		}
		e.shapes = e.shapes.Upsert(r)
		e.selection = []string{r.ID}
		return Transition{Shapes: e.shapes, Changed: in.stale, Commit: true}

	case ToolPen:
		e.shapes = e.shapes.Upsert(in.shape)
		return Transition{Shapes: e.shapes, Changed: in.stale, Commit: true}

	case ToolText, ToolStickyNote:
		id := in.shape.ShapeID()
		e.shapes = e.shapes.Upsert(in.shape).WithEditing(id)
		e.selection = []string{id}
		return Transition{Shapes: e.shapes, Changed: true, Commit: true}

	default:
		return e.unchanged()
	}
}

// DeleteSelected removes every selected shape as one undoable step.
func (e *Engine) DeleteSelected() Transition {
	if e.active != nil || len(e.selection) == 0 {
		return e.unchanged()
	}

	next := e.shapes
	for _, id := range e.selection {
		next = next.Remove(id)
	}
	e.selection = nil
	if len(next) == len(e.shapes) {
		return e.unchanged()
	}
	e.shapes = next
	return Transition{Shapes: e.shapes, Changed: true, Commit: true}
}

// StartEditing puts a text-bearing shape into edit mode, taking every other
// shape out of it.
func (e *Engine) StartEditing(id string) Transition {
	sh, ok := e.shapes.Get(id)
	if !ok || !carriesText(sh) || sh.Editing() {
		return e.unchanged()
	}
	e.shapes = e.shapes.WithEditing(id)
	e.selection = []string{id}
	return Transition{Shapes: e.shapes, Changed: true}
}

// UpdateText replaces the text of a shape. Keystrokes are broadcast and
// persisted but only StopEditing records a history checkpoint.
func (e *Engine) UpdateText(id, text string) Transition {
	sh, ok := e.shapes.Get(id)
	if !ok || whiteboard.TextOf(sh) == text {
		return e.unchanged()
	}
	next, ok := whiteboard.WithText(sh, text)
	if !ok {
		return e.unchanged()
	}
	e.shapes = e.shapes.Replace(next)
	return Transition{Shapes: e.shapes, Changed: true}
}

// StopEditing leaves edit mode and commits the edited text.
func (e *Engine) StopEditing() Transition {
	if _, editing := e.shapes.EditingID(); !editing {
		return e.unchanged()
	}
	e.shapes = e.shapes.WithEditing("")
	return Transition{Shapes: e.shapes, Changed: true, Commit: true}
}

// SelectAll selects every shape in z-order.
func (e *Engine) SelectAll() {
	e.selection = e.shapes.IDs()
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selection = nil
}

func (e *Engine) unchanged() Transition {
	return Transition{Shapes: e.shapes}
}

func (e *Engine) isSelected(id string) bool {
	for _, sel := range e.selection {
		if sel == id {
			return true
		}
	}
	return false
}

func (e *Engine) pruneSelection() {
	if len(e.selection) == 0 {
		return
	}
	kept := make([]string, 0, len(e.selection))
	for _, id := range e.selection {
		if e.shapes.Contains(id) {
			kept = append(kept, id)
		}
	}
	e.selection = kept
}

func carriesText(sh whiteboard.Shape) bool {
	switch sh.(type) {
	case whiteboard.Text, whiteboard.StickyNote:
		return true
	case whiteboard.Rectangle, whiteboard.Path:
		return false
	default:
		panic("session: unknown shape variant")
	}
}
