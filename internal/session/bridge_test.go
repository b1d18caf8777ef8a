package session

import (
	"context"
	"testing"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeAccept(t *testing.T) {
	b := NewBridge("u1", "board", nil)

	assert.False(t, b.Accept(whiteboard.NewLeaveMessage("u1")), "own echo is suppressed")
	assert.True(t, b.Accept(whiteboard.NewLeaveMessage("u2")))
}

func TestBridgeOfflineDropsSilently(t *testing.T) {
	b := NewBridge("u1", "board", nil)
	assert.False(t, b.Connected())

	// Must not panic or block
	b.PublishShapes(context.Background(), whiteboard.Set{})
	b.PublishCursor(context.Background(), whiteboard.Cursor{})
	b.PublishLeave(context.Background())
}

func TestBridgePublishesFullSetTaggedWithIdentity(t *testing.T) {
	hub := whiteboard.NewMemoryHub()
	ctx := context.Background()

	ch, err := hub.Subscribe(ctx, "board")
	require.NoError(t, err)
	defer ch.Close()

	b := NewBridge("u1", "board", ch)
	assert.True(t, b.Connected())

	tx := whiteboard.NewText(uuid.New().String(), 0, 0)
	set := whiteboard.Set{whiteboard.NewRectangle(uuid.New().String(), 0, 0), tx}.WithEditing(tx.ID)
	b.PublishShapes(ctx, set)

	select {
	case msg := <-ch.Messages():
		assert.Equal(t, "u1", msg.Sender)
		got, err := msg.Shapes()
		require.NoError(t, err)
		assert.Equal(t, whiteboard.StripTransient(set), got)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for published shapes")
	}
}

func TestBridgeDropsAfterDisconnect(t *testing.T) {
	hub := whiteboard.NewMemoryHub()
	ctx := context.Background()

	ch, err := hub.Subscribe(ctx, "board")
	require.NoError(t, err)
	b := NewBridge("u1", "board", ch)

	require.NoError(t, ch.Close())
	assert.False(t, b.Connected())

	b.PublishShapes(ctx, whiteboard.Set{})
}
