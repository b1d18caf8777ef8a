package session

import (
	"context"
	"sync"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultSaveDelay is the quiet period before a scheduled write runs.
	DefaultSaveDelay = 500 * time.Millisecond

	// writeTimeout bounds a single document write.
	writeTimeout = 10 * time.Second
)

// Debouncer coalesces shape-set changes into one delayed document write.
//
// It is a two-state machine: Idle, or Pending with a deadline and the latest
// set. Schedule enters or re-enters Pending and restarts the single timer; the
// timer firing writes the latest set and returns to Idle. Earlier sets in the
// window are never written.
type Debouncer struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	delay      time.Duration
	store      whiteboard.DocumentStore
	documentID string

	pending  bool
	deadline time.Time
	latest   whiteboard.Set
	timer    clockwork.Timer
	gen      uint64 // invalidates timers that were stopped too late
}

// NewDebouncer creates an idle debouncer writing to store. A nil clock uses the
// real clock; a non-positive delay uses DefaultSaveDelay.
func NewDebouncer(store whiteboard.DocumentStore, documentID string, clock clockwork.Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Debouncer{
		clock:      clock,
		delay:      delay,
		store:      store,
		documentID: documentID,
	}
}

// Schedule replaces the pending value and restarts the delay.
func (d *Debouncer) Schedule(set whiteboard.Set) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	d.pending = true
	d.latest = whiteboard.StripTransient(set)
	d.deadline = d.clock.Now().Add(d.delay)
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a write is scheduled, and its deadline.
func (d *Debouncer) Pending() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deadline, d.pending
}

// Stop abandons a pending write.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Flush performs a pending write immediately and returns its error. It is a
// no-op when idle.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	set := d.latest
	d.reset()
	d.mu.Unlock()

	return d.write(ctx, set)
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	set := d.latest
	d.reset()
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := d.write(ctx, set); err != nil {
		// Not retried: the next edit schedules the next attempt.
		logEvent(d.documentID, "persist_failed", map[string]interface{}{
			"error":  err.Error(),
			"shapes": len(set),
		})
	}
}

// reset returns to Idle. Callers hold d.mu.
func (d *Debouncer) reset() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.deadline = time.Time{}
	d.latest = nil
}

func (d *Debouncer) write(ctx context.Context, set whiteboard.Set) error {
	if d.store == nil {
		return nil
	}
	doc := &whiteboard.Document{
		ID:          d.documentID,
		Content:     set,
		UpdatedAtMs: d.clock.Now().UnixMilli(),
	}
	return d.store.WriteDocument(ctx, doc)
}
