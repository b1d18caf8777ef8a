// Package watch follows board activity for the CLI: it streams realtime
// messages and polls the store for saved boards.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/jonboulle/clockwork"
)

// OutputFormat specifies how streamed messages are written.
type OutputFormat string

const (
	// OutputFormatDefault is human-readable with timestamps and emojis
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is one JSON record per line
	OutputFormatJSON OutputFormat = "json"
)

// Record is the JSON line written per message in OutputFormatJSON.
type Record struct {
	Timestamp string          `json:"timestamp"`
	Board     string          `json:"board"`
	Event     string          `json:"event"`
	Sender    string          `json:"sender,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// StreamActivity writes every message on ch until ctx is cancelled. It
// returns nil on cancellation and an error if the channel goes away first.
func StreamActivity(ctx context.Context, ch whiteboard.Channel, boardID string, format OutputFormat, w io.Writer, clock clockwork.Clock) error {
	switch format {
	case OutputFormatDefault:
		fmt.Fprintf(w, "Watching board '%s' (Ctrl+C to stop)\n\n", boardID)
	case OutputFormatJSON:
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	messages := ch.Messages()
	errs := ch.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to board %s closed", boardID)
			}
			if err := writeMessage(w, format, boardID, msg, clock.Now()); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err := writeError(w, format, boardID, err, clock.Now()); err != nil {
				return err
			}
		}
	}
}

func writeMessage(w io.Writer, format OutputFormat, boardID string, msg whiteboard.Message, at time.Time) error {
	if format == OutputFormatJSON {
		return writeRecord(w, Record{
			Timestamp: at.UTC().Format(time.RFC3339Nano),
			Board:     boardID,
			Event:     string(msg.Event),
			Sender:    msg.Sender,
			Payload:   msg.Payload,
		})
	}
	_, err := fmt.Fprintln(w, FormatMessage(msg, at))
	return err
}

func writeError(w io.Writer, format OutputFormat, boardID string, cause error, at time.Time) error {
	if format == OutputFormatJSON {
		return writeRecord(w, Record{
			Timestamp: at.UTC().Format(time.RFC3339Nano),
			Board:     boardID,
			Event:     "error",
			Error:     cause.Error(),
		})
	}
	_, err := fmt.Fprintf(w, "⚠️  [%s] channel error: %v\n", at.Format("15:04:05"), cause)
	return err
}

func writeRecord(w io.Writer, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// FormatMessage renders one message as a human-readable line.
func FormatMessage(msg whiteboard.Message, at time.Time) string {
	ts := at.Format("15:04:05")

	switch msg.Event {
	case whiteboard.EventShapes:
		set, err := msg.Shapes()
		if err != nil {
			return fmt.Sprintf("⚠️  [%s] %s sent unreadable shapes: %v", ts, msg.Sender, err)
		}
		noun := "shapes"
		if len(set) == 1 {
			noun = "shape"
		}
		return fmt.Sprintf("🖊️  [%s] %s published %d %s", ts, msg.Sender, len(set), noun)

	case whiteboard.EventCursor:
		c, err := msg.Cursor()
		if err != nil {
			return fmt.Sprintf("⚠️  [%s] %s sent an unreadable cursor: %v", ts, msg.Sender, err)
		}
		return fmt.Sprintf("👆 [%s] %s cursor at (%.0f, %.0f)", ts, msg.Sender, c.X, c.Y)

	case whiteboard.EventLeave:
		return fmt.Sprintf("👋 [%s] %s left", ts, msg.Sender)

	default:
		return fmt.Sprintf("❓ [%s] %s sent %q", ts, msg.Sender, msg.Event)
	}
}

// PollForDocument polls the store until the board exists or timeout passes.
// Polls every 200ms.
func PollForDocument(ctx context.Context, store whiteboard.DocumentStore, boardID string, timeout time.Duration, clock clockwork.Clock) (*whiteboard.Document, error) {
	ticker := clock.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := clock.After(timeout)

	for {
		doc, err := store.ReadDocument(ctx, boardID)
		if err == nil {
			return doc, nil
		}
		if !whiteboard.IsNotFound(err) {
			return nil, fmt.Errorf("failed to query for board: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for board %s after %v", boardID, timeout)
		case <-ticker.Chan():
		}
	}
}
