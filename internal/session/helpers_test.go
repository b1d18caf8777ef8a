package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialIDs returns a generator of predictable, valid UUIDs.
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}
}

// recordingStore is a DocumentStore that keeps every write.
type recordingStore struct {
	mu       sync.Mutex
	docs     map[string]whiteboard.Document
	writes   []whiteboard.Document
	readErr  error
	writeErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{docs: make(map[string]whiteboard.Document)}
}

func (r *recordingStore) ReadDocument(ctx context.Context, id string) (*whiteboard.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, whiteboard.ErrNotFound
	}
	return &doc, nil
}

func (r *recordingStore) WriteDocument(ctx context.Context, doc *whiteboard.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, *doc)
	if r.writeErr != nil {
		return r.writeErr
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *recordingStore) put(doc whiteboard.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
}

func (r *recordingStore) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *recordingStore) lastWrite() whiteboard.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return whiteboard.Document{}
	}
	return r.writes[len(r.writes)-1]
}

// downTransport refuses every subscription.
type downTransport struct{}

func (downTransport) Subscribe(ctx context.Context, id string) (whiteboard.Channel, error) {
	return nil, errors.New("connection refused")
}

type sessionEnv struct {
	hub   *whiteboard.MemoryHub
	store *recordingStore
	clock clockwork.FakeClock
}

func newSessionEnv() *sessionEnv {
	return &sessionEnv{
		hub:   whiteboard.NewMemoryHub(),
		store: newRecordingStore(),
		clock: clockwork.NewFakeClock(),
	}
}

// open starts a session on board "board-1" for the given user.
func (env *sessionEnv) open(t *testing.T, identity string) *Session {
	t.Helper()
	s, err := Open(context.Background(), Options{
		DocumentID: "board-1",
		Identity:   identity,
		Store:      env.store,
		Transport:  env.hub,
		Clock:      env.clock,
		NewID:      whiteboard.NewID,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// drawRectangle drags out a rectangle and returns its id.
func drawRectangle(t *testing.T, s *Session, x, y, w, h float64) string {
	t.Helper()
	require.NoError(t, s.SetTool(ToolRectangle))
	s.PointerDown(PointerEvent{X: x, Y: y})
	s.PointerMove(PointerEvent{X: x + w, Y: y + h})
	s.PointerUp(PointerEvent{X: x + w, Y: y + h})
	shapes := s.Shapes()
	require.NotEmpty(t, shapes)
	return shapes[len(shapes)-1].ShapeID()
}

const eventually = time.Second
const tick = 5 * time.Millisecond

// waitForShapes waits until s shows want, ignoring local edit mode.
func waitForShapes(t *testing.T, s *Session, want whiteboard.Set) {
	t.Helper()
	want = whiteboard.StripTransient(want)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, whiteboard.StripTransient(s.Shapes()))
	}, eventually, tick)
}
