package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/jonboulle/clockwork"
)

// Options configures a Session.
type Options struct {
	// DocumentID identifies the board. Required.
	DocumentID string

	// Identity is the local user id, used as the broadcast sender tag. Required.
	Identity string

	// Name and Color are attached to presence updates.
	Name  string
	Color string

	// Store hydrates the board and receives debounced writes. Nil disables
	// persistence.
	Store whiteboard.DocumentStore

	// Transport provides the realtime channel. Nil, or a failing Subscribe,
	// yields an offline session.
	Transport whiteboard.Transport

	// Clock drives the persistence debouncer. Defaults to the real clock.
	Clock clockwork.Clock

	SaveDelay    time.Duration
	HistoryLimit int
	MinShapeSize float64

	// NewID generates shape ids. Defaults to whiteboard.NewID.
	NewID func() string
}

// Validate checks required fields.
func (o Options) Validate() error {
	if o.DocumentID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if o.Identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}
	if o.HistoryLimit < 0 {
		return fmt.Errorf("history limit must be >= 0, got %d", o.HistoryLimit)
	}
	return nil
}

// Session is one participant's view of a board: local shape state, undo/redo,
// broadcast to other participants and debounced persistence.
//
// Every local change follows the same order: mutate, broadcast, schedule the
// write, then record a history checkpoint for discrete operations. Failures at
// the store or channel are logged and never returned; editing always continues.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	documentID string
	identity   string
	name       string
	color      string

	engine    *Engine
	history   *History
	bridge    *Bridge
	debouncer *Debouncer
	channel   whiteboard.Channel
	cursors   map[string]whiteboard.Cursor

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// Open hydrates a board from the store and joins its channel. A missing or
// unreadable document starts an empty board; an unavailable transport starts
// an offline session. Only invalid options are returned as errors.
//
// Cancelling ctx disconnects the session from its channel.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session options: %w", err)
	}

	sessCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		documentID: opts.DocumentID,
		identity:   opts.Identity,
		name:       opts.Name,
		color:      opts.Color,
		engine:     NewEngine(EngineConfig{MinShapeSize: opts.MinShapeSize, NewID: opts.NewID}),
		history:    NewHistory(opts.HistoryLimit),
		debouncer:  NewDebouncer(opts.Store, opts.DocumentID, opts.Clock, opts.SaveDelay),
		cursors:    make(map[string]whiteboard.Cursor),
		ctx:        sessCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	initial := s.hydrate(sessCtx, opts.Store)
	s.engine.Reset(initial)
	s.history.Commit(initial)

	if opts.Transport != nil {
		ch, err := opts.Transport.Subscribe(sessCtx, opts.DocumentID)
		if err != nil {
			logEvent(s.documentID, "subscribe_failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			s.channel = ch
		}
	}
	s.bridge = NewBridge(s.identity, s.documentID, s.channel)

	if s.channel != nil {
		go s.pump(s.channel)
	} else {
		log.Printf("[Session] Board %s is offline; changes will only be persisted", s.documentID)
		close(s.done)
	}

	return s, nil
}

func (s *Session) hydrate(ctx context.Context, store whiteboard.DocumentStore) whiteboard.Set {
	if store == nil {
		return whiteboard.Set{}
	}

	doc, err := store.ReadDocument(ctx, s.documentID)
	if err != nil {
		if whiteboard.IsNotFound(err) {
			logEvent(s.documentID, "document_created", nil)
		} else {
			logEvent(s.documentID, "hydrate_failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return whiteboard.Set{}
	}

	logEvent(s.documentID, "document_hydrated", map[string]interface{}{
		"shapes":        len(doc.Content),
		"updated_at_ms": doc.UpdatedAtMs,
	})
	return whiteboard.StripTransient(doc.Content)
}

// pump applies remote messages until the channel closes.
func (s *Session) pump(ch whiteboard.Channel) {
	defer close(s.done)

	messages, errs := ch.Messages(), ch.Errors()
	for messages != nil || errs != nil {
		select {
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			s.receive(msg)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[Session] Channel error on %s: %v", s.documentID, err)
		}
	}
}

// receive applies one remote message. Remote shape sets replace local state
// wholesale and are not re-persisted here; their publisher owns the write.
func (s *Session) receive(msg whiteboard.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.bridge.Accept(msg) {
		return
	}

	switch msg.Event {
	case whiteboard.EventShapes:
		set, err := msg.Shapes()
		if err != nil {
			log.Printf("[Session] Ignoring malformed shapes from %s: %v", msg.Sender, err)
			return
		}
		s.engine.Reset(set)
		logEvent(s.documentID, "remote_applied", map[string]interface{}{
			"sender": msg.Sender,
			"shapes": len(set),
		})

	case whiteboard.EventCursor:
		c, err := msg.Cursor()
		if err != nil {
			log.Printf("[Session] Ignoring malformed cursor from %s: %v", msg.Sender, err)
			return
		}
		s.cursors[msg.Sender] = c

	case whiteboard.EventLeave:
		delete(s.cursors, msg.Sender)
	}
}

// apply carries a transition through broadcast, persistence and history.
// Callers hold s.mu.
func (s *Session) apply(tr Transition) {
	if s.closed {
		return
	}
	if tr.Changed {
		s.bridge.PublishShapes(s.ctx, tr.Shapes)
		s.debouncer.Schedule(tr.Shapes)
	}
	if tr.Commit {
		s.history.Commit(tr.Shapes)
	}
}

// SetTool switches the active tool, cancelling any open interaction.
func (s *Session) SetTool(tool Tool) error {
	if err := tool.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.SetTool(tool))
	return nil
}

// Tool returns the active tool.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Tool()
}

// PointerDown feeds a pointer-down event.
func (s *Session) PointerDown(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.PointerDown(ev))
}

// PointerMove feeds a pointer-move event.
func (s *Session) PointerMove(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.PointerMove(ev))
}

// PointerUp feeds a pointer-up event. Safe to call without a preceding
// pointer-down.
func (s *Session) PointerUp(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.PointerUp(ev))
}

// Undo restores the previous checkpoint. It is broadcast and persisted like a
// local edit but does not add a history entry. It is a no-op while a pointer
// interaction is open.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Interacting() {
		return false
	}
	set, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(set)
	return true
}

// Redo re-applies the next checkpoint. Like Undo, it waits for pointer-up.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Interacting() {
		return false
	}
	set, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(set)
	return true
}

func (s *Session) restore(set whiteboard.Set) {
	s.engine.Reset(set)
	s.apply(Transition{Shapes: s.engine.Shapes(), Changed: true})
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.engine.Interacting() && s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.engine.Interacting() && s.history.CanRedo()
}

// DeleteSelected removes the selected shapes as one undoable step.
func (s *Session) DeleteSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.DeleteSelected())
}

// StartEditing enters text edit mode on a text box or sticky note.
func (s *Session) StartEditing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.StartEditing(id))
}

// UpdateText replaces a shape's text.
func (s *Session) UpdateText(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.UpdateText(id, text))
}

// StopEditing leaves edit mode and records the edit in history.
func (s *Session) StopEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.engine.StopEditing())
}

// SelectAll selects every shape.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SelectAll()
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ClearSelection()
}

// MoveCursor broadcasts the local pointer position to other participants.
// Presence is never persisted and never enters history.
func (s *Session) MoveCursor(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.bridge.PublishCursor(s.ctx, whiteboard.Cursor{X: x, Y: y, Name: s.name, Color: s.color})
}

// Shapes returns the current shape set, including the local edit flag.
func (s *Session) Shapes() whiteboard.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Shapes()
}

// Selection returns the selected shape ids.
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Selection()
}

// Cursors returns the other participants' cursors, sorted by user id.
func (s *Session) Cursors() []whiteboard.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursors := make([]whiteboard.Cursor, 0, len(s.cursors))
	for _, c := range s.cursors {
		cursors = append(cursors, c)
	}
	sort.Slice(cursors, func(i, j int) bool { return cursors[i].UserID < cursors[j].UserID })
	return cursors
}

// Online reports whether local changes currently reach other participants.
func (s *Session) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.bridge.Connected()
}

// Flush writes a pending debounced change immediately. Interactive sessions
// never need it; Close does not call it.
func (s *Session) Flush(ctx context.Context) error {
	return s.debouncer.Flush(ctx)
}

// Close leaves the board: it announces departure and unsubscribes. A write
// already scheduled still runs; nothing is flushed early.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.bridge.PublishLeave(s.ctx)
	s.closed = true

	var err error
	if s.channel != nil {
		err = s.channel.Close()
	}
	s.cancel()
	s.mu.Unlock()

	<-s.done
	return err
}
