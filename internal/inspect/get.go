package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/google/uuid"
)

// GetShape writes one shape of a board as pretty-printed JSON. shapeID must
// be a full UUID; resolve short ids first.
func GetShape(ctx context.Context, store whiteboard.DocumentStore, boardID, shapeID string, w io.Writer) error {
	if _, err := uuid.Parse(shapeID); err != nil {
		return fmt.Errorf("invalid shape ID format: must be a valid UUID")
	}

	doc, err := readBoard(ctx, store, boardID)
	if err != nil {
		return err
	}

	sh, ok := doc.Content.Get(shapeID)
	if !ok {
		return &ShapeNotFoundError{BoardID: boardID, ShapeID: shapeID}
	}

	if err := FormatSingleJSON(w, sh); err != nil {
		return fmt.Errorf("failed to format shape: %w", err)
	}
	return nil
}

// ShapeNotFoundError is returned when the board exists but the shape does not.
type ShapeNotFoundError struct {
	BoardID string
	ShapeID string
}

func (e *ShapeNotFoundError) Error() string {
	return fmt.Sprintf("shape '%s' not found on board '%s'", e.ShapeID, e.BoardID)
}

// IsNotFound reports whether err is a missing board or shape.
func IsNotFound(err error) bool {
	var board *BoardNotFoundError
	var shape *ShapeNotFoundError
	return errors.As(err, &board) || errors.As(err, &shape)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
