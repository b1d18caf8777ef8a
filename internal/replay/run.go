package replay

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dyluth/slate/internal/resolver"
	"github.com/dyluth/slate/internal/session"
	"github.com/dyluth/slate/pkg/whiteboard"
)

// Driver is the part of a session a script can drive.
type Driver interface {
	SetTool(tool session.Tool) error
	PointerDown(ev session.PointerEvent)
	PointerMove(ev session.PointerEvent)
	PointerUp(ev session.PointerEvent)
	StartEditing(id string)
	UpdateText(id, text string)
	StopEditing()
	DeleteSelected()
	SelectAll()
	ClearSelection()
	Undo() bool
	Redo() bool
	MoveCursor(x, y float64)
	Shapes() whiteboard.Set
}

var _ Driver = (*session.Session)(nil)

// Run applies every step in order and reports progress to w, which may be nil.
// It stops at the first step whose target cannot be resolved.
func Run(ctx context.Context, d Driver, script *Script, w io.Writer) error {
	if w == nil {
		w = io.Discard
	}

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := apply(d, step, w); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func apply(d Driver, st Step, w io.Writer) error {
	switch st.Action {
	case ActionTool:
		fmt.Fprintf(w, "tool %s\n", st.Tool)
		return d.SetTool(session.Tool(st.Tool))

	case ActionDown, ActionMove, ActionUp:
		ev, err := pointer(d, st, st.X, st.Y)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%g, %g)%s\n", st.Action, st.X, st.Y, describeTarget(ev.Target))
		switch st.Action {
		case ActionDown:
			d.PointerDown(ev)
		case ActionMove:
			d.PointerMove(ev)
		default:
			d.PointerUp(ev)
		}

	case ActionDrag:
		ev, err := pointer(d, st, st.X, st.Y)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "drag (%g, %g) -> (%g, %g)%s\n", st.X, st.Y, st.ToX, st.ToY, describeTarget(ev.Target))
		d.PointerDown(ev)
		ev.X, ev.Y = st.ToX, st.ToY
		d.PointerMove(ev)
		d.PointerUp(ev)

	case ActionText:
		id, err := resolveTarget(d.Shapes(), st.Target, st.X, st.Y)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("no shape at target %q", st.Target)
		}
		fmt.Fprintf(w, "text %s %q\n", shortID(id), st.Text)
		d.StartEditing(id)
		d.UpdateText(id, st.Text)
		d.StopEditing()

	case ActionDelete:
		fmt.Fprintln(w, "delete selection")
		d.DeleteSelected()

	case ActionSelectAll:
		fmt.Fprintln(w, "select all")
		d.SelectAll()

	case ActionClearSelection:
		fmt.Fprintln(w, "clear selection")
		d.ClearSelection()

	case ActionUndo:
		if d.Undo() {
			fmt.Fprintln(w, "undo")
		} else {
			fmt.Fprintln(w, "undo (nothing to undo)")
		}

	case ActionRedo:
		if d.Redo() {
			fmt.Fprintln(w, "redo")
		} else {
			fmt.Fprintln(w, "redo (nothing to redo)")
		}

	case ActionCursor:
		fmt.Fprintf(w, "cursor (%g, %g)\n", st.X, st.Y)
		d.MoveCursor(st.X, st.Y)

	default:
		return fmt.Errorf("unknown action: %q", st.Action)
	}
	return nil
}

func pointer(d Driver, st Step, x, y float64) (session.PointerEvent, error) {
	target, err := resolveTarget(d.Shapes(), st.Target, x, y)
	if err != nil {
		return session.PointerEvent{}, err
	}
	return session.PointerEvent{
		X:        x,
		Y:        y,
		Pressure: st.Pressure,
		Target:   target,
		Shift:    st.Shift,
	}, nil
}

// resolveTarget turns a step target into a shape id, "" meaning bare canvas.
func resolveTarget(set whiteboard.Set, target string, x, y float64) (string, error) {
	switch {
	case target == "":
		return "", nil
	case target == TargetHit:
		return HitTest(set, x, y), nil
	case target[0] == '@':
		n, err := strconv.Atoi(target[1:])
		if err != nil {
			return "", fmt.Errorf("invalid target %q", target)
		}
		if n < 0 {
			n += len(set)
		}
		if n < 0 || n >= len(set) {
			return "", fmt.Errorf("target %s out of range: board has %d shapes", target, len(set))
		}
		return set[n].ShapeID(), nil
	default:
		return resolver.ResolveInSet(set, target)
	}
}

// HitTest returns the id of the topmost shape whose bounds contain (x, y),
// or "" if the point is on bare canvas.
func HitTest(set whiteboard.Set, x, y float64) string {
	for i := len(set) - 1; i >= 0; i-- {
		bx, by, bw, bh := set[i].Bounds()
		if x >= bx && x <= bx+bw && y >= by && y <= by+bh {
			return set[i].ShapeID()
		}
	}
	return ""
}

func describeTarget(id string) string {
	if id == "" {
		return ""
	}
	return " on " + shortID(id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
