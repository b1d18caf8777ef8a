package whiteboard

import (
	"encoding/json"
	"fmt"
)

// JSON encoding of the Shape sum type.
//
// Each shape is encoded as a flat object tagged with its kind:
//
//	{"type":"rectangle","id":"...","x":10,"y":20,"width":50,"height":40,"fill_color":"#3b82f6"}
//
// Decoding reads the tag first and then the variant's fields. Unknown tags are
// an error.

type shapeTag struct {
	Type Kind `json:"type"`
}

// MarshalShape encodes a single shape with its type tag.
func MarshalShape(sh Shape) ([]byte, error) {
	switch v := sh.(type) {
	case Rectangle:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Rectangle
		}{KindRectangle, v})
	case Path:
		if v.Points == nil {
			v.Points = []Point{}
		}
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Path
		}{KindPath, v})
	case Text:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Text
		}{KindText, v})
	case StickyNote:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			StickyNote
		}{KindStickyNote, v})
	case nil:
		return nil, fmt.Errorf("cannot marshal nil shape")
	default:
		panic(fmt.Sprintf("whiteboard: unknown shape variant %T", sh))
	}
}

// UnmarshalShape decodes a single tagged shape.
func UnmarshalShape(data []byte) (Shape, error) {
	var tag shapeTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("failed to read shape type: %w", err)
	}

	switch tag.Type {
	case KindRectangle:
		var r Rectangle
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rectangle: %w", err)
		}
		return r, nil
	case KindPath:
		var p Path
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal path: %w", err)
		}
		if p.Points == nil {
			p.Points = []Point{}
		}
		return p, nil
	case KindText:
		var t Text
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal text: %w", err)
		}
		return t, nil
	case KindStickyNote:
		var s StickyNote
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sticky note: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown shape type: %q", tag.Type)
	}
}

// MarshalJSON encodes the set as a JSON array of tagged shapes. A nil set
// encodes as [].
func (s Set) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(s))
	for i, sh := range s {
		data, err := MarshalShape(sh)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal shape at index %d: %w", i, err)
		}
		raws = append(raws, data)
	}
	return json.Marshal(raws)
}

// UnmarshalJSON decodes a JSON array of tagged shapes. null decodes to an
// empty set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("failed to unmarshal shape set: %w", err)
	}

	set := make(Set, 0, len(raws))
	for i, raw := range raws {
		sh, err := UnmarshalShape(raw)
		if err != nil {
			return fmt.Errorf("shape at index %d: %w", i, err)
		}
		set = append(set, sh)
	}
	*s = set
	return nil
}
