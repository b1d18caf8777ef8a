package session

import "github.com/dyluth/slate/pkg/whiteboard"

// History is a linear undo/redo log of full shape-set snapshots.
//
// The cursor is the index of the current entry, or -1 when empty. Committing
// after an undo discards every entry after the cursor.
type History struct {
	entries []whiteboard.Set
	cursor  int
	limit   int
}

// NewHistory creates an empty history. A positive limit caps the number of
// entries by dropping the oldest; 0 means unlimited.
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{cursor: -1, limit: limit}
}

// Commit records a snapshot and makes it current. Transient fields are not
// recorded.
func (h *History) Commit(set whiteboard.Set) {
	if h.cursor < len(h.entries)-1 {
		h.entries = h.entries[:h.cursor+1]
	}
	h.entries = append(h.entries, whiteboard.StripTransient(set))
	h.cursor++

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]whiteboard.Set(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
}

// Undo moves the cursor back one entry and returns that entry's shapes.
// Returns false when there is nothing to undo.
func (h *History) Undo() (whiteboard.Set, bool) {
	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.entries[h.cursor].Clone(), true
}

// Redo moves the cursor forward one entry and returns that entry's shapes.
// Returns false when there is nothing to redo.
func (h *History) Redo() (whiteboard.Set, bool) {
	if h.cursor >= len(h.entries)-1 {
		return nil, false
	}
	h.cursor++
	return h.entries[h.cursor].Clone(), true
}

// CanUndo reports whether Undo would move the cursor.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the index of the current entry, or -1 when empty.
func (h *History) Cursor() int {
	return h.cursor
}
