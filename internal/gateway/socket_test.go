package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialBoard(t *testing.T, ts *httptest.Server, board, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/boards/" + board + "?user=" + user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) whiteboard.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg whiteboard.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestBoardSocket_RelaysWithSenderStamp(t *testing.T) {
	srv, _, hub := setupTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	alice := dialBoard(t, ts, "board-1", "alice")
	bob := dialBoard(t, ts, "board-1", "bob")
	require.Eventually(t, func() bool { return hub.Subscribers("board-1") == 2 }, time.Second, 10*time.Millisecond)

	msg, err := whiteboard.NewShapesMessage("mallory", sampleSet())
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(msg))

	for _, conn := range []*websocket.Conn{bob, alice} {
		got := readMessage(t, conn)
		assert.Equal(t, whiteboard.EventShapes, got.Event)
		assert.Equal(t, "alice", got.Sender, "sender is stamped by the server")
	}
}

func TestBoardSocket_BoardIsolation(t *testing.T) {
	srv, _, hub := setupTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	alice := dialBoard(t, ts, "board-1", "alice")
	other := dialBoard(t, ts, "board-2", "bob")
	require.Eventually(t, func() bool { return hub.Subscribers("board-2") == 1 }, time.Second, 10*time.Millisecond)

	cursor, err := whiteboard.NewCursorMessage("alice", whiteboard.Cursor{X: 1, Y: 2})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(cursor))
	assert.Equal(t, whiteboard.EventCursor, readMessage(t, alice).Event)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var msg whiteboard.Message
	assert.Error(t, other.ReadJSON(&msg), "board-2 must not see board-1 traffic")
}

func TestBoardSocket_InvalidFrameIsDropped(t *testing.T) {
	srv, _, hub := setupTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	alice := dialBoard(t, ts, "board-1", "alice")
	require.Eventually(t, func() bool { return hub.Subscribers("board-1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, alice.WriteJSON(whiteboard.Message{Event: "explode"}))
	require.NoError(t, alice.WriteJSON(whiteboard.NewLeaveMessage("x")))

	got := readMessage(t, alice)
	assert.Equal(t, whiteboard.EventLeave, got.Event, "the invalid frame is skipped and the socket stays open")
}

func TestBoardSocket_AnnouncesLeaveOnDisconnect(t *testing.T) {
	srv, _, hub := setupTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener, err := hub.Subscribe(ctx, "board-1")
	require.NoError(t, err)

	alice := dialBoard(t, ts, "board-1", "alice")
	require.Eventually(t, func() bool { return hub.Subscribers("board-1") == 2 }, time.Second, 10*time.Millisecond)
	require.NoError(t, alice.Close())

	select {
	case msg := <-listener.Messages():
		assert.Equal(t, whiteboard.EventLeave, msg.Event)
		assert.Equal(t, "alice", msg.Sender)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a leave message")
	}
	assert.Eventually(t, func() bool { return hub.Subscribers("board-1") == 1 }, time.Second, 10*time.Millisecond)
}

// scriptedChannel lets a test end the message stream from the server side.
type scriptedChannel struct {
	mu        sync.Mutex
	messages  chan whiteboard.Message
	errs      chan error
	published []whiteboard.Message
	closed    bool
}

func (c *scriptedChannel) Publish(ctx context.Context, msg whiteboard.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return whiteboard.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *scriptedChannel) Messages() <-chan whiteboard.Message { return c.messages }
func (c *scriptedChannel) Errors() <-chan error                { return c.errs }

func (c *scriptedChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *scriptedChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedChannel) snapshot() ([]whiteboard.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]whiteboard.Message(nil), c.published...), c.closed
}

type scriptedTransport struct {
	ch     *scriptedChannel
	joined chan struct{}
}

func (t *scriptedTransport) Subscribe(ctx context.Context, id string) (whiteboard.Channel, error) {
	close(t.joined)
	return t.ch, nil
}

func TestBoardSocket_AnnouncesLeaveWhenStreamEndsFirst(t *testing.T) {
	ch := &scriptedChannel{messages: make(chan whiteboard.Message), errs: make(chan error)}
	transport := &scriptedTransport{ch: ch, joined: make(chan struct{})}
	srv := New(whiteboard.NewMemoryStore(), transport, Config{Backend: "memory"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	alice := dialBoard(t, ts, "board-1", "alice")
	<-transport.joined

	// Ending the stream stops the write side while the reader is still blocked.
	close(ch.messages)

	require.Eventually(t, func() bool {
		_, closed := ch.snapshot()
		return closed
	}, 2*time.Second, 10*time.Millisecond)

	published, _ := ch.snapshot()
	require.Len(t, published, 1)
	assert.Equal(t, whiteboard.EventLeave, published[0].Event)
	assert.Equal(t, "alice", published[0].Sender)

	// The server hangs up on the client.
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := alice.ReadMessage()
	assert.Error(t, err)
}

func TestBoardSocket_RequiresUser(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	w, env := do(t, srv, http.MethodGet, "/ws/boards/board-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "user")
}

func TestBoardSocket_NoTransport(t *testing.T) {
	srv := New(whiteboard.NewMemoryStore(), nil, Config{})

	w, _ := do(t, srv, http.MethodGet, "/ws/boards/board-1?user=alice", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
