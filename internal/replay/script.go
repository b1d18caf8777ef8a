// Package replay drives a whiteboard session from a scripted list of input
// steps. It is used to seed boards and reproduce editing bugs without a UI.
package replay

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dyluth/slate/internal/session"
	"gopkg.in/yaml.v3"
)

// Action names one scripted input.
type Action string

const (
	ActionTool           Action = "tool"
	ActionDown           Action = "down"
	ActionMove           Action = "move"
	ActionUp             Action = "up"
	ActionDrag           Action = "drag" // down at (x, y), move and up at (to_x, to_y)
	ActionText           Action = "text" // edit target's text in one go
	ActionDelete         Action = "delete"
	ActionSelectAll      Action = "select_all"
	ActionClearSelection Action = "clear_selection"
	ActionUndo           Action = "undo"
	ActionRedo           Action = "redo"
	ActionCursor         Action = "cursor"
)

// Target forms besides a shape id prefix.
const (
	TargetHit = "@hit" // topmost shape under (x, y)
)

// Script is a replay file.
type Script struct {
	Version string `yaml:"version"`
	Steps   []Step `yaml:"steps"`
}

// Step is one scripted input. Which fields matter depends on Action.
type Step struct {
	Action   Action  `yaml:"action"`
	Tool     string  `yaml:"tool,omitempty"`
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
	ToX      float64 `yaml:"to_x,omitempty"`
	ToY      float64 `yaml:"to_y,omitempty"`
	Pressure float64 `yaml:"pressure,omitempty"`
	Shift    bool    `yaml:"shift,omitempty"`
	Text     string  `yaml:"text,omitempty"`

	// Target is the shape under the pointer: empty for bare canvas, "@N" for
	// the shape at z-index N (negative counts from the top), "@hit" for
	// whatever is under (x, y), or an id prefix of at least six characters.
	Target string `yaml:"target,omitempty"`
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &script, nil
}

// Validate checks every step up front so a bad script fails before it
// touches a board.
func (s *Script) Validate() error {
	if s.Version != "" && s.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", s.Version)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("script has no steps")
	}

	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// Validate checks a single step.
func (st Step) Validate() error {
	switch st.Action {
	case ActionTool:
		return session.Tool(st.Tool).Validate()
	case ActionText:
		if st.Target == "" {
			return fmt.Errorf("text requires a target")
		}
	case ActionDown, ActionMove, ActionUp, ActionDrag,
		ActionDelete, ActionSelectAll, ActionClearSelection,
		ActionUndo, ActionRedo, ActionCursor:
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action: %q", st.Action)
	}

	if st.Pressure < 0 || st.Pressure > 1 {
		return fmt.Errorf("pressure must be within [0, 1], got %v", st.Pressure)
	}
	if strings.HasPrefix(st.Target, "@") && st.Target != TargetHit {
		if _, err := strconv.Atoi(st.Target[1:]); err != nil {
			return fmt.Errorf("invalid target %q: use @N, @hit or an id prefix", st.Target)
		}
	}
	return nil
}
