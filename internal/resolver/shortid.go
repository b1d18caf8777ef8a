package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/google/uuid"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// ResolveShapeID resolves a short shape id prefix on a board to the full id.
//
// A full UUID is only checked for existence. Anything shorter than
// MinShortIDLength is rejected. Otherwise the board's shapes are scanned and
// exactly one must match.
func ResolveShapeID(ctx context.Context, store whiteboard.DocumentStore, boardID, shortID string) (string, error) {
	doc, err := store.ReadDocument(ctx, boardID)
	if err != nil {
		if whiteboard.IsNotFound(err) {
			return "", fmt.Errorf("board not found: %s", boardID)
		}
		return "", fmt.Errorf("failed to read board: %w", err)
	}
	return ResolveInSet(doc.Content, shortID)
}

// ResolveInSet is ResolveShapeID against a set already in hand.
func ResolveInSet(set whiteboard.Set, shortID string) (string, error) {
	shortID = strings.ToLower(strings.TrimSpace(shortID))

	if _, err := uuid.Parse(shortID); err == nil && len(shortID) == 36 {
		if !set.Contains(shortID) {
			return "", &NotFoundError{ShortID: shortID}
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	var matches []string
	for _, id := range set.IDs() {
		if strings.HasPrefix(strings.ToLower(id), shortID) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no shapes matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no shapes found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple shapes matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d shapes", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching ids (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d shapes:\n", err.ShortID, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for _, id := range err.Matches[:displayCount] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the shape.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
