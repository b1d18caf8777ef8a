package whiteboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHubDelivery(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	alice, err := hub.Subscribe(ctx, "board-1")
	require.NoError(t, err)
	defer alice.Close()

	bob, err := hub.Subscribe(ctx, "board-1")
	require.NoError(t, err)
	defer bob.Close()

	other, err := hub.Subscribe(ctx, "board-2")
	require.NoError(t, err)
	defer other.Close()

	assert.Equal(t, 2, hub.Subscribers("board-1"))

	msg, err := NewCursorMessage("alice", Cursor{X: 3, Y: 4})
	require.NoError(t, err)
	require.NoError(t, alice.Publish(ctx, msg))

	for _, ch := range []Channel{alice, bob} {
		select {
		case got := <-ch.Messages():
			c, err := got.Cursor()
			require.NoError(t, err)
			assert.Equal(t, "alice", c.UserID)
			assert.Equal(t, 3.0, c.X)
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case <-other.Messages():
		t.Fatal("message leaked across boards")
	default:
	}
}

func TestMemoryHubFIFO(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "board")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		msg, err := NewCursorMessage("alice", Cursor{X: float64(i)})
		require.NoError(t, err)
		require.NoError(t, sub.Publish(ctx, msg))
	}

	for i := 0; i < 5; i++ {
		c, err := (<-sub.Messages()).Cursor()
		require.NoError(t, err)
		assert.Equal(t, float64(i), c.X)
	}
}

func TestMemoryHubClose(t *testing.T) {
	hub := NewMemoryHub()

	t.Run("close unsubscribes", func(t *testing.T) {
		sub, err := hub.Subscribe(context.Background(), "board")
		require.NoError(t, err)

		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())

		assert.False(t, sub.Connected())
		assert.Equal(t, 0, hub.Subscribers("board"))
		assert.ErrorIs(t, sub.Publish(context.Background(), NewLeaveMessage("a")), ErrNotConnected)

		_, open := <-sub.Messages()
		assert.False(t, open)
	})

	t.Run("context cancellation closes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		sub, err := hub.Subscribe(ctx, "board")
		require.NoError(t, err)

		cancel()
		assert.Eventually(t, func() bool { return !sub.Connected() }, time.Second, 10*time.Millisecond)
	})

	t.Run("cancelled context refuses subscribe", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := hub.Subscribe(ctx, "board")
		assert.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.ReadDocument(ctx, "missing")
	assert.True(t, IsNotFound(err))

	tx := NewText(uuid.New().String(), 0, 0)
	doc := &Document{ID: "board", Content: Set{tx}.WithEditing(tx.ID), UpdatedAtMs: 42}
	require.NoError(t, store.WriteDocument(ctx, doc))

	got, err := store.ReadDocument(ctx, "board")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UpdatedAtMs)
	_, editing := got.Content.EditingID()
	assert.False(t, editing)

	// Mutating the returned copy does not reach the store
	got.Content[0] = NewRectangle(uuid.New().String(), 0, 0)
	again, err := store.ReadDocument(ctx, "board")
	require.NoError(t, err)
	assert.Equal(t, KindText, again.Content[0].Kind())

	ids, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"board"}, ids)

	require.NoError(t, store.DeleteDocument(ctx, "board"))
	_, err = store.ReadDocument(ctx, "board")
	assert.True(t, IsNotFound(err))
}

func TestMemoryHubPublishWithoutSubscribing(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	listener, err := hub.Subscribe(ctx, "board-1")
	require.NoError(t, err)
	defer listener.Close()

	require.NoError(t, hub.Publish(ctx, "board-1", NewLeaveMessage("api")))
	assert.Equal(t, 1, hub.Subscribers("board-1"))

	select {
	case got := <-listener.Messages():
		assert.Equal(t, "api", got.Sender)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	// Nobody listening is not an error
	require.NoError(t, hub.Publish(ctx, "board-2", NewLeaveMessage("api")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, hub.Publish(cancelled, "board-1", NewLeaveMessage("api")), context.Canceled)
}
