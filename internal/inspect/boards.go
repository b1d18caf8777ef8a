package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/internal/timespec"
	"github.com/dyluth/slate/pkg/whiteboard"
)

// Lister is a store that can enumerate its boards.
type Lister interface {
	whiteboard.DocumentStore
	ListDocuments(ctx context.Context) ([]string, error)
}

// BoardSummary is one row of the board listing.
type BoardSummary struct {
	ID          string `json:"id"`
	Shapes      int    `json:"shapes"`
	UpdatedAtMs int64  `json:"updated_at_ms"`
}

// ListBoards writes every stored board updated within [sinceMs, untilMs]
// (zero = open), most recently updated first. Unreadable boards are skipped
// with a warning on stderr.
func ListBoards(ctx context.Context, store Lister, sinceMs, untilMs int64, format OutputFormat, w io.Writer, now time.Time) error {
	ids, err := store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}

	boards := make([]BoardSummary, 0, len(ids))
	for _, id := range ids {
		doc, err := store.ReadDocument(ctx, id)
		if err != nil {
			printer.Warning("Skipping unreadable board: id=%s (error: %v)\n", id, err)
			continue
		}
		if !timespec.InRange(doc.UpdatedAtMs, sinceMs, untilMs) {
			continue
		}
		boards = append(boards, BoardSummary{ID: doc.ID, Shapes: len(doc.Content), UpdatedAtMs: doc.UpdatedAtMs})
	}

	sort.SliceStable(boards, func(i, j int) bool {
		return boards[i].UpdatedAtMs > boards[j].UpdatedAtMs
	})

	switch format {
	case OutputFormatDefault:
		formatBoardTable(w, boards, now)
	case OutputFormatJSONL:
		for _, b := range boards {
			data, err := json.Marshal(b)
			if err != nil {
				return fmt.Errorf("failed to marshal board summary: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return fmt.Errorf("failed to write JSONL output: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

func formatBoardTable(w io.Writer, boards []BoardSummary, now time.Time) {
	if len(boards) == 0 {
		fmt.Fprintln(w, "No boards found")
		return
	}

	fmt.Fprintf(w, "%-32s %-7s %s\n", "BOARD", "SHAPES", "UPDATED")
	fmt.Fprintf(w, "%-32s %-7s %s\n", "--------------------------------", "-------", "--------")
	for _, b := range boards {
		fmt.Fprintf(w, "%-32s %-7d %s\n", b.ID, b.Shapes, formatTimestamp(b.UpdatedAtMs, now))
	}

	countMsg := "board"
	if len(boards) != 1 {
		countMsg = "boards"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(boards), countMsg)
}

// formatTimestamp renders a millisecond timestamp relative to now, like
// "2m ago".
func formatTimestamp(timestampMs int64, now time.Time) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := now.Sub(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
