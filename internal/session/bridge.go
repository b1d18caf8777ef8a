package session

import (
	"context"
	"log"

	"github.com/dyluth/slate/pkg/whiteboard"
)

// Bridge publishes local changes to a board channel and decides which incoming
// messages apply locally.
//
// Replication is last-writer-wins on the whole shape set. Echo suppression is a
// plain sender-tag comparison; shape sets are not versioned, so concurrent
// edits from two participants are not detected.
type Bridge struct {
	identity   string
	documentID string
	channel    whiteboard.Channel
}

// NewBridge creates a bridge. A nil channel yields an offline bridge that drops
// every publish.
func NewBridge(identity, documentID string, channel whiteboard.Channel) *Bridge {
	return &Bridge{
		identity:   identity,
		documentID: documentID,
		channel:    channel,
	}
}

// Connected reports whether publishes currently reach the channel.
func (b *Bridge) Connected() bool {
	return b.channel != nil && b.channel.Connected()
}

// Accept reports whether a received message should change local state. Messages
// tagged with the local identity are the session's own echoes.
func (b *Bridge) Accept(msg whiteboard.Message) bool {
	return msg.Sender != b.identity
}

// PublishShapes broadcasts the complete shape set.
func (b *Bridge) PublishShapes(ctx context.Context, set whiteboard.Set) {
	msg, err := whiteboard.NewShapesMessage(b.identity, set)
	if err != nil {
		log.Printf("[Session] Failed to encode shapes for %s: %v", b.documentID, err)
		return
	}
	b.publish(ctx, msg)
}

// PublishCursor broadcasts the local pointer position.
func (b *Bridge) PublishCursor(ctx context.Context, cursor whiteboard.Cursor) {
	msg, err := whiteboard.NewCursorMessage(b.identity, cursor)
	if err != nil {
		log.Printf("[Session] Failed to encode cursor for %s: %v", b.documentID, err)
		return
	}
	b.publish(ctx, msg)
}

// PublishLeave announces that this participant is gone.
func (b *Bridge) PublishLeave(ctx context.Context) {
	b.publish(ctx, whiteboard.NewLeaveMessage(b.identity))
}

// publish drops the message when disconnected. There is no queue and no retry;
// failures are logged and swallowed.
func (b *Bridge) publish(ctx context.Context, msg whiteboard.Message) {
	if !b.Connected() {
		return
	}
	if err := b.channel.Publish(ctx, msg); err != nil {
		log.Printf("[Session] Dropped %s message for %s: %v", msg.Event, b.documentID, err)
	}
}
