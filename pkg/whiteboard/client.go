package whiteboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for boards.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
//
// Client implements both DocumentStore and Transport.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

var (
	_ DocumentStore = (*Client)(nil)
	_ Transport     = (*Client)(nil)
	_ Publisher     = (*Client)(nil)
	_ Channel       = (*Subscription)(nil)
)

// NewClient creates a new board client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: Slate instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client operates in.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// WriteDocument stores a board as a Redis hash at slate:{instance}:board:{id}.
// The write is a full replacement; the last writer wins. A zero UpdatedAtMs is
// stamped with the current time.
func (c *Client) WriteDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}

	stored := *doc
	if stored.UpdatedAtMs == 0 {
		stored.UpdatedAtMs = time.Now().UnixMilli()
	}

	hash, err := DocumentToHash(&stored)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	key := DocumentKey(c.instanceName, doc.ID)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write document to Redis: %w", err)
	}

	return nil
}

// ReadDocument retrieves a board by ID.
// Returns (nil, ErrNotFound) if the board doesn't exist.
func (c *Client) ReadDocument(ctx context.Context, documentID string) (*Document, error) {
	key := DocumentKey(c.instanceName, documentID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read document from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, ErrNotFound
	}

	doc, err := HashToDocument(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize document: %w", err)
	}
	if doc.ID == "" {
		doc.ID = documentID
	}

	return doc, nil
}

// DeleteDocument removes a board. Deleting a missing board is not an error.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	key := DocumentKey(c.instanceName, documentID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListDocuments returns the ids of every board in this instance, sorted.
func (c *Client) ListDocuments(ctx context.Context) ([]string, error) {
	pattern := DocumentKeyPattern(c.instanceName)

	ids := make([]string, 0)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if id, ok := DocumentIDFromKey(c.instanceName, iter.Val()); ok {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

// Subscription is a live Pub/Sub subscription to one board's event channel.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	rdb       *redis.Client
	channel   string
	messages  <-chan Message
	errors    <-chan error
	connected atomic.Bool
	cancel    func()
	once      sync.Once
}

// Subscribe opens the realtime channel for a board. It returns once Redis has
// confirmed the subscription, so messages published afterwards are not missed.
//
// Messages are delivered on a buffered channel (size 10). Malformed payloads are
// reported on Errors() and skipped.
func (c *Client) Subscribe(ctx context.Context, documentID string) (Channel, error) {
	channel := BoardEventsChannel(c.instanceName, documentID)
	pubsub := c.rdb.Subscribe(ctx, channel)

	// Wait for the subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	messagesChan := make(chan Message, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	sub := &Subscription{
		rdb:      c.rdb,
		channel:  channel,
		messages: messagesChan,
		errors:   errorsChan,
		cancel:   cancelFunc,
	}
	sub.connected.Store(true)

	go func() {
		defer close(messagesChan)
		defer close(errorsChan)
		defer pubsub.Close()
		defer sub.connected.Store(false)

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var m Message
				err := json.Unmarshal([]byte(msg.Payload), &m)
				if err == nil {
					err = m.Validate()
				}
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode board message: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case messagesChan <- m:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return sub, nil
}

// Publish sends a message to every subscriber of the board, this one included.
func (s *Subscription) Publish(ctx context.Context, msg Message) error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	return publishMessage(ctx, s.rdb, s.channel, msg)
}

// Publish sends a message to a board's subscribers without joining the board.
// It costs one PUBLISH on the shared connection pool.
func (c *Client) Publish(ctx context.Context, documentID string, msg Message) error {
	return publishMessage(ctx, c.rdb, BoardEventsChannel(c.instanceName, documentID), msg)
}

func publishMessage(ctx context.Context, rdb *redis.Client, channel string, msg Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish board message: %w", err)
	}
	return nil
}

// Messages returns the channel of decoded board messages.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Messages() <-chan Message {
	return s.messages
}

// Errors returns the channel of non-fatal subscription errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Connected reports whether the subscription is still live.
func (s *Subscription) Connected() bool {
	return s.connected.Load()
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.connected.Store(false)
		s.cancel()
	})
	return nil
}
