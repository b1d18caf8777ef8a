// Package inspect prints the contents of stored boards for the CLI.
package inspect

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dyluth/slate/pkg/whiteboard"
)

// OutputFormat specifies how to format the shape list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with truncated text
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete shapes as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// FilterCriteria narrows the shapes listed. All filters are ANDed together.
type FilterCriteria struct {
	KindGlob string // Glob pattern for the shape kind, empty = no filter
	Contains string // Substring of the shape's text, empty = no filter
}

func (fc *FilterCriteria) matches(sh whiteboard.Shape) bool {
	if fc.KindGlob != "" {
		matched, err := filepath.Match(fc.KindGlob, string(sh.Kind()))
		if err != nil || !matched {
			return false
		}
	}
	if fc.Contains != "" && !containsFold(whiteboard.TextOf(sh), fc.Contains) {
		return false
	}
	return true
}

// Validate rejects malformed glob patterns up front.
func (fc *FilterCriteria) Validate() error {
	if fc.KindGlob == "" {
		return nil
	}
	if _, err := filepath.Match(fc.KindGlob, ""); err != nil {
		return fmt.Errorf("invalid kind pattern %q: %w", fc.KindGlob, err)
	}
	return nil
}

// Filter returns the shapes matching fc, keeping z-order.
func Filter(shapes whiteboard.Set, fc *FilterCriteria) whiteboard.Set {
	if fc == nil {
		return shapes
	}
	out := make(whiteboard.Set, 0, len(shapes))
	for _, sh := range shapes {
		if fc.matches(sh) {
			out = append(out, sh)
		}
	}
	return out
}

// ListShapes reads a board and writes its shapes in the requested format.
func ListShapes(ctx context.Context, store whiteboard.DocumentStore, boardID string, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	if filters != nil {
		if err := filters.Validate(); err != nil {
			return err
		}
	}

	doc, err := readBoard(ctx, store, boardID)
	if err != nil {
		return err
	}
	shapes := Filter(doc.Content, filters)

	switch format {
	case OutputFormatDefault:
		FormatTable(w, shapes, boardID)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, shapes); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}

func readBoard(ctx context.Context, store whiteboard.DocumentStore, boardID string) (*whiteboard.Document, error) {
	doc, err := store.ReadDocument(ctx, boardID)
	if err != nil {
		if whiteboard.IsNotFound(err) {
			return nil, &BoardNotFoundError{BoardID: boardID}
		}
		return nil, fmt.Errorf("failed to read board: %w", err)
	}
	return doc, nil
}

// BoardNotFoundError is returned when the board has never been saved.
type BoardNotFoundError struct {
	BoardID string
}

func (e *BoardNotFoundError) Error() string {
	return fmt.Sprintf("board '%s' not found", e.BoardID)
}
