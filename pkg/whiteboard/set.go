package whiteboard

import "fmt"

// Set is an ordered shape collection; index order is z-order. Every method
// returns a new Set and never writes to the receiver's backing array.
type Set []Shape

// Index returns the position of the shape with the given id, or -1.
func (s Set) Index(id string) int {
	for i, sh := range s {
		if sh.ShapeID() == id {
			return i
		}
	}
	return -1
}

// Get returns the shape with the given id.
func (s Set) Get(id string) (Shape, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return nil, false
}

// Contains reports whether a shape with the given id exists.
func (s Set) Contains(id string) bool {
	return s.Index(id) >= 0
}

// Append returns a copy with sh drawn on top.
func (s Set) Append(sh Shape) Set {
	next := make(Set, len(s), len(s)+1)
	copy(next, s)
	return append(next, sh)
}

// Replace returns a copy with the shape of the same id swapped for sh, keeping
// its z-position. The copy is unchanged in content if no such shape exists.
func (s Set) Replace(sh Shape) Set {
	next := s.Clone()
	if i := next.Index(sh.ShapeID()); i >= 0 {
		next[i] = sh
	}
	return next
}

// Upsert replaces the shape with sh's id, or appends sh when it is missing.
func (s Set) Upsert(sh Shape) Set {
	if s.Contains(sh.ShapeID()) {
		return s.Replace(sh)
	}
	return s.Append(sh)
}

// Remove returns a copy without the shape with the given id.
func (s Set) Remove(id string) Set {
	next := make(Set, 0, len(s))
	for _, sh := range s {
		if sh.ShapeID() != id {
			next = append(next, sh)
		}
	}
	return next
}

// IDs returns the shape ids in z-order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, sh := range s {
		ids[i] = sh.ShapeID()
	}
	return ids
}

// Clone returns a shallow copy. Shapes are values, so this is a full copy for
// everything except path point slices, which are never mutated in place.
func (s Set) Clone() Set {
	next := make(Set, len(s))
	copy(next, s)
	return next
}

// EditingID returns the id of the shape in edit mode, if any.
func (s Set) EditingID() (string, bool) {
	for _, sh := range s {
		if sh.Editing() {
			return sh.ShapeID(), true
		}
	}
	return "", false
}

// WithEditing returns a copy where only the shape with the given id is in edit
// mode. Pass "" to take every shape out of edit mode.
func (s Set) WithEditing(id string) Set {
	next := s.Clone()
	for i, sh := range next {
		want := sh.ShapeID() == id
		if sh.Editing() != want {
			next[i] = sh.WithEditing(want)
		}
	}
	return next
}

// Bounds returns the bounding box enclosing every shape. ok is false for an
// empty set.
func (s Set) Bounds() (x, y, width, height float64, ok bool) {
	if len(s) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY, w, h := s[0].Bounds()
	maxX, maxY := minX+w, minY+h
	for _, sh := range s[1:] {
		bx, by, bw, bh := sh.Bounds()
		if bx < minX {
			minX = bx
		}
		if by < minY {
			minY = by
		}
		if bx+bw > maxX {
			maxX = bx + bw
		}
		if by+bh > maxY {
			maxY = by + bh
		}
	}
	return minX, minY, maxX - minX, maxY - minY, true
}

// Validate checks every shape and the set-level invariants: unique ids and at
// most one shape in edit mode.
func (s Set) Validate() error {
	seen := make(map[string]struct{}, len(s))
	editing := 0
	for i, sh := range s {
		if sh == nil {
			return fmt.Errorf("shape at index %d is nil", i)
		}
		if err := sh.Validate(); err != nil {
			return fmt.Errorf("invalid shape at index %d: %w", i, err)
		}
		if _, dup := seen[sh.ShapeID()]; dup {
			return fmt.Errorf("duplicate shape ID: %s", sh.ShapeID())
		}
		seen[sh.ShapeID()] = struct{}{}
		if sh.Editing() {
			editing++
		}
	}
	if editing > 1 {
		return fmt.Errorf("%d shapes in edit mode, at most one allowed", editing)
	}
	return nil
}

// StripTransient returns a copy with session-local fields cleared. Persisted and
// broadcast sets never carry IsEditing.
func StripTransient(s Set) Set {
	if s == nil {
		return Set{}
	}
	return s.WithEditing("")
}
