package whiteboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultMemoryBuffer is the per-subscriber queue length of a MemoryHub.
const DefaultMemoryBuffer = 256

// MemoryHub is an in-process Transport. It backs single-node deployments and
// tests. Delivery never blocks the publisher: a subscriber whose queue is full
// misses the message, matching Redis Pub/Sub's at-most-once delivery.
type MemoryHub struct {
	mu     sync.Mutex
	buffer int
	subs   map[string]map[*memoryChannel]struct{}
}

var (
	_ Transport     = (*MemoryHub)(nil)
	_ Publisher     = (*MemoryHub)(nil)
	_ Channel       = (*memoryChannel)(nil)
	_ DocumentStore = (*MemoryStore)(nil)
)

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		buffer: DefaultMemoryBuffer,
		subs:   make(map[string]map[*memoryChannel]struct{}),
	}
}

// Subscribe joins a board's channel. Cancelling ctx closes the channel.
func (h *MemoryHub) Subscribe(ctx context.Context, documentID string) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := &memoryChannel{
		hub:        h,
		documentID: documentID,
		messages:   make(chan Message, h.buffer),
		errors:     make(chan error, 1),
		connected:  true,
	}

	h.mu.Lock()
	if h.subs[documentID] == nil {
		h.subs[documentID] = make(map[*memoryChannel]struct{})
	}
	h.subs[documentID][ch] = struct{}{}
	h.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ch.Close() })
	h.mu.Lock()
	ch.stop = stop
	h.mu.Unlock()

	return ch, nil
}

// Subscribers returns the number of open channels on a board.
func (h *MemoryHub) Subscribers(documentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[documentID])
}

// Publish delivers a message to a board's subscribers without joining it.
func (h *MemoryHub) Publish(ctx context.Context, documentID string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return h.publish(documentID, msg)
}

func (h *MemoryHub) publish(documentID string, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[documentID] {
		select {
		case sub.messages <- msg:
		default:
		}
	}
	return nil
}

func (h *MemoryHub) remove(ch *memoryChannel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch.stop != nil {
		ch.stop()
	}
	if !ch.connected {
		return
	}
	ch.connected = false
	delete(h.subs[ch.documentID], ch)
	if len(h.subs[ch.documentID]) == 0 {
		delete(h.subs, ch.documentID)
	}
	close(ch.messages)
	close(ch.errors)
}

// memoryChannel fields are guarded by hub.mu.
type memoryChannel struct {
	hub        *MemoryHub
	documentID string
	messages   chan Message
	errors     chan error
	connected  bool
	stop       func() bool
}

func (c *memoryChannel) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return c.hub.publish(c.documentID, msg)
}

func (c *memoryChannel) Messages() <-chan Message { return c.messages }
func (c *memoryChannel) Errors() <-chan error     { return c.errors }

func (c *memoryChannel) Connected() bool {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	return c.connected
}

func (c *memoryChannel) Close() error {
	c.hub.remove(c)
	return nil
}

// MemoryStore is an in-process DocumentStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// ReadDocument returns a copy of the stored board or ErrNotFound.
func (s *MemoryStore) ReadDocument(ctx context.Context, documentID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	doc.Content = doc.Content.Clone()
	return &doc, nil
}

// WriteDocument replaces the stored board. Transient shape fields are stripped.
func (s *MemoryStore) WriteDocument(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}

	stored := *doc
	stored.Content = StripTransient(doc.Content)

	s.mu.Lock()
	s.docs[doc.ID] = stored
	s.mu.Unlock()
	return nil
}

// DeleteDocument removes a board. Deleting a missing board is not an error.
func (s *MemoryStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	delete(s.docs, documentID)
	s.mu.Unlock()
	return nil
}

// ListDocuments returns the stored board ids, sorted.
func (s *MemoryStore) ListDocuments(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
