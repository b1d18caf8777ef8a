package whiteboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned by DocumentStore.ReadDocument for unknown boards.
	ErrNotFound = errors.New("document not found")

	// ErrNotConnected is returned by Channel.Publish once the channel is closed
	// or its connection has dropped.
	ErrNotConnected = errors.New("channel not connected")
)

// Event names a realtime message type on a board channel.
type Event string

const (
	// EventShapes carries a complete shape set
	EventShapes Event = "shapes"

	// EventCursor carries a participant's pointer position
	EventCursor Event = "cursor"

	// EventLeave announces that a participant closed their session
	EventLeave Event = "leave"
)

// Validate checks if the Event is a known message type.
func (e Event) Validate() error {
	switch e {
	case EventShapes, EventCursor, EventLeave:
		return nil
	default:
		return fmt.Errorf("unknown event: %q", e)
	}
}

// Message is the envelope published on a board channel. Sender is the
// publisher's user id and is what receivers use for echo suppression.
type Message struct {
	Event   Event           `json:"event"`
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the envelope fields.
func (m Message) Validate() error {
	if err := m.Event.Validate(); err != nil {
		return err
	}
	if m.Sender == "" {
		return fmt.Errorf("message sender cannot be empty")
	}
	return nil
}

// NewShapesMessage wraps a complete shape set. Transient fields are stripped.
func NewShapesMessage(sender string, set Set) (Message, error) {
	payload, err := json.Marshal(StripTransient(set))
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal shapes: %w", err)
	}
	return Message{Event: EventShapes, Sender: sender, Payload: payload}, nil
}

// NewCursorMessage wraps a presence update.
func NewCursorMessage(sender string, cursor Cursor) (Message, error) {
	cursor.UserID = sender
	payload, err := json.Marshal(cursor)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return Message{Event: EventCursor, Sender: sender, Payload: payload}, nil
}

// NewLeaveMessage announces the sender is gone.
func NewLeaveMessage(sender string) Message {
	return Message{Event: EventLeave, Sender: sender}
}

// Shapes decodes the payload of an EventShapes message.
func (m Message) Shapes() (Set, error) {
	if m.Event != EventShapes {
		return nil, fmt.Errorf("message is %q, not %q", m.Event, EventShapes)
	}
	var set Set
	if err := json.Unmarshal(m.Payload, &set); err != nil {
		return nil, err
	}
	if set == nil {
		set = Set{}
	}
	return set, nil
}

// Cursor decodes the payload of an EventCursor message.
func (m Message) Cursor() (Cursor, error) {
	if m.Event != EventCursor {
		return Cursor{}, fmt.Errorf("message is %q, not %q", m.Event, EventCursor)
	}
	var c Cursor
	if err := json.Unmarshal(m.Payload, &c); err != nil {
		return Cursor{}, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}
	c.UserID = m.Sender
	return c, nil
}

// Document is the durable form of a board.
type Document struct {
	ID          string `json:"id"`
	Content     Set    `json:"content"`
	UpdatedAtMs int64  `json:"updated_at_ms"`
}

// Transport opens realtime channels, one per board.
type Transport interface {
	Subscribe(ctx context.Context, documentID string) (Channel, error)
}

// Publisher sends a message to a board without subscribing to it.
type Publisher interface {
	Publish(ctx context.Context, documentID string, msg Message) error
}

// Channel is a live subscription to one board. Delivery is FIFO per publisher.
// Messages published through a channel are also delivered back to it; callers
// tell their own messages apart by Message.Sender.
type Channel interface {
	Publish(ctx context.Context, msg Message) error
	Messages() <-chan Message
	Errors() <-chan error
	Connected() bool
	Close() error
}

// DocumentStore persists boards with last-write-wins semantics.
type DocumentStore interface {
	ReadDocument(ctx context.Context, documentID string) (*Document, error)
	WriteDocument(ctx context.Context, doc *Document) error
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, redis.Nil)
}
