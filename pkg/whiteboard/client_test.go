package whiteboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-instance", client.InstanceName())
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestWriteAndReadDocument(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	t.Run("round trips content", func(t *testing.T) {
		r := NewRectangle(uuid.New().String(), 100, 100)
		r.Width, r.Height = 50, 40
		doc := &Document{ID: "board-1", Content: Set{r}, UpdatedAtMs: 1700000000000}

		require.NoError(t, client.WriteDocument(ctx, doc))

		got, err := client.ReadDocument(ctx, "board-1")
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, doc.Content, got.Content)
		assert.Equal(t, doc.UpdatedAtMs, got.UpdatedAtMs)

		assert.True(t, mr.Exists("slate:test-instance:board:board-1"))
	})

	t.Run("strips edit mode", func(t *testing.T) {
		tx := NewText(uuid.New().String(), 0, 0)
		doc := &Document{ID: "board-2", Content: Set{tx}.WithEditing(tx.ID)}

		require.NoError(t, client.WriteDocument(ctx, doc))

		got, err := client.ReadDocument(ctx, "board-2")
		require.NoError(t, err)
		_, editing := got.Content.EditingID()
		assert.False(t, editing)
	})

	t.Run("last write wins", func(t *testing.T) {
		first := &Document{ID: "board-3", Content: Set{NewText(uuid.New().String(), 0, 0)}}
		second := &Document{ID: "board-3", Content: Set{}}

		require.NoError(t, client.WriteDocument(ctx, first))
		require.NoError(t, client.WriteDocument(ctx, second))

		got, err := client.ReadDocument(ctx, "board-3")
		require.NoError(t, err)
		assert.Empty(t, got.Content)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := client.ReadDocument(ctx, "nope")
		assert.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejects empty id", func(t *testing.T) {
		err := client.WriteDocument(ctx, &Document{})
		assert.Error(t, err)
	})
}

func TestListAndDeleteDocuments(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, client.WriteDocument(ctx, &Document{ID: id, Content: Set{}}))
	}
	// Keys from another instance and the event channel namespace are ignored
	mr.HSet("slate:other:board:z", "id", "z")

	ids, err := client.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, client.DeleteDocument(ctx, "b"))
	ids, err = client.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)

	assert.NoError(t, client.DeleteDocument(ctx, "b"), "deleting twice is not an error")
}

func TestSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("delivers to every subscriber including the publisher", func(t *testing.T) {
		alice, err := client.Subscribe(ctx, "board-1")
		require.NoError(t, err)
		defer alice.Close()

		bob, err := client.Subscribe(ctx, "board-1")
		require.NoError(t, err)
		defer bob.Close()

		assert.True(t, alice.Connected())

		tx := NewText(uuid.New().String(), 5, 5)
		msg, err := NewShapesMessage("alice", Set{tx})
		require.NoError(t, err)
		require.NoError(t, alice.Publish(ctx, msg))

		for _, ch := range []Channel{alice, bob} {
			select {
			case got := <-ch.Messages():
				assert.Equal(t, EventShapes, got.Event)
				assert.Equal(t, "alice", got.Sender)
				shapes, err := got.Shapes()
				require.NoError(t, err)
				assert.Equal(t, Set{tx}, shapes)
			case <-time.After(1 * time.Second):
				t.Fatal("timeout waiting for board message")
			}
		}
	})

	t.Run("boards are isolated", func(t *testing.T) {
		one, err := client.Subscribe(ctx, "board-a")
		require.NoError(t, err)
		defer one.Close()

		two, err := client.Subscribe(ctx, "board-b")
		require.NoError(t, err)
		defer two.Close()

		require.NoError(t, one.Publish(ctx, NewLeaveMessage("alice")))

		select {
		case <-two.Messages():
			t.Fatal("message leaked across boards")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("malformed payloads surface as errors", func(t *testing.T) {
		sub, err := client.Subscribe(ctx, "board-x")
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, client.rdb.Publish(ctx, BoardEventsChannel("test-instance", "board-x"), "not json").Err())

		select {
		case err := <-sub.Errors():
			assert.Contains(t, err.Error(), "failed to decode board message")
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for subscription error")
		}
	})

	t.Run("publish after close fails", func(t *testing.T) {
		sub, err := client.Subscribe(ctx, "board-closed")
		require.NoError(t, err)

		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		assert.False(t, sub.Connected())

		err = sub.Publish(ctx, NewLeaveMessage("alice"))
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("rejects invalid message", func(t *testing.T) {
		sub, err := client.Subscribe(ctx, "board-invalid")
		require.NoError(t, err)
		defer sub.Close()

		err = sub.Publish(ctx, Message{Event: "wave", Sender: "alice"})
		assert.Error(t, err)
	})
}

func TestClientPublishWithoutSubscribing(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	listener, err := client.Subscribe(ctx, "board-1")
	require.NoError(t, err)
	defer listener.Close()

	require.NoError(t, client.Publish(ctx, "board-1", NewLeaveMessage("api")))

	select {
	case got := <-listener.Messages():
		assert.Equal(t, EventLeave, got.Event)
		assert.Equal(t, "api", got.Sender)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for board message")
	}

	err = client.Publish(ctx, "board-1", Message{Event: "bogus", Sender: "api"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid message")
}
