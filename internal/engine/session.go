package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/tripleq/internal/ir"
)

// Session is the interactive evaluator over one dataset.
//
// A Session holds at most one dataset handle, at most one live cursor and
// one textual search pattern. Counting a pattern is cooperative: each drain
// slice is bounded by the DrainBudget, and the remainder is queued on the
// session scheduler and resumed by RunPending or Run.
//
// Thread-safety model:
//   - every method is safe to call from any goroutine
//   - listeners run synchronously in the goroutine whose call produced the
//     events, in production order, after the session state is updated
//   - Run must be called from at most one goroutine
//
// INVARIANTS:
//   - at most one live cursor; a new pattern closes the old cursor first
//   - work queued under an earlier generation never mutates state
//   - predicate activation is reset whenever the dataset changes
type Session struct {
	id          string
	logger      *slog.Logger
	budget      DrainBudget
	bufferLimit int
	idGen       SessionIDGenerator
	wall        WallClock

	gen       *Clock
	queue     *taskQueue
	listeners *listenerSet

	mu     sync.Mutex // guards the fields below
	emitMu sync.Mutex // orders event delivery across goroutines
	outbox []Event

	store Store // nil when no dataset is open

	text          ir.TripleString
	pattern       ir.Pattern
	unsatisfiable bool
	count         uint64
	final         bool
	cursor        ir.Cursor
	started       time.Time
	elapsed       time.Duration
	loadElapsed   time.Duration // reported for the all-wildcard pattern

	activation *PredicateActivation
	buffer     []ir.Triple
	selected   *ir.Triple
}

// QueryState is a snapshot of the session query state.
type QueryState struct {
	// Text is the textual pattern last accepted.
	Text ir.TripleString

	// Pattern is the resolved pattern; all wildcards when Unsatisfiable.
	Pattern ir.Pattern

	// Unsatisfiable is set when a term of Text is not in the dictionary.
	Unsatisfiable bool

	Count      uint64
	Final      bool
	HasCursor  bool
	Generation int64
}

// NewSession creates a Session with no dataset.
//
// Options can be passed to configure the session (e.g., WithDrainBudget).
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		logger:      slog.Default(),
		bufferLimit: DefaultBufferLimit,
		idGen:       UUIDv7Generator{},
		wall:        systemClock{},
		gen:         NewClock(),
		queue:       newTaskQueue(),
		listeners:   newListenerSet(),
		activation:  NewPredicateActivation(0),
		final:       true,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.id = s.idGen.Generate()
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session id attached to every event and log line.
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers l for all session events and returns a func that
// unregisters it. The returned func is idempotent.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	return s.listeners.add(l)
}

// Replace installs st as the session dataset.
//
// The previous cursor, selection, activation and buffer are torn down first.
// The session then counts the whole dataset (the pattern resets to all
// wildcards), sizes the predicate activation and materialises the
// nearest-match buffer. DatasetReplaced is emitted even when loading fails,
// in which case the session is left without a dataset.
func (s *Session) Replace(ctx context.Context, st Store) error {
	if st == nil {
		return errors.New("replace: nil store")
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	s.teardown()
	start := s.wall.Now()

	if err := s.load(ctx, st); err != nil {
		s.teardown()
		s.emit(EventDatasetReplaced)
		s.logger.Error("dataset load failed", "error", err)
		return err
	}

	s.loadElapsed = s.wall.Now().Sub(start)
	s.elapsed = s.loadElapsed
	s.emit(EventDatasetReplaced)

	s.logger.Info("dataset replaced",
		"generation", s.gen.Current(),
		"triples", s.count,
		"predicates", s.activation.Len(),
		"buffered", len(s.buffer),
	)
	return nil
}

// load fills a torn down session from st. Called with mu held.
func (s *Session) load(ctx context.Context, st Store) error {
	numPredicates, err := st.NumTerms(ctx, ir.RolePredicate)
	if err != nil {
		return err
	}
	total, err := st.TotalCount(ctx)
	if err != nil {
		return err
	}
	buffer, err := s.loadBuffer(ctx, st)
	if err != nil {
		return err
	}

	s.store = st
	s.activation.RefreshAll(numPredicates)
	s.buffer = buffer
	s.count = total
	s.final = true
	return nil
}

func (s *Session) loadBuffer(ctx context.Context, st Store) ([]ir.Triple, error) {
	if s.bufferLimit == 0 {
		return nil, nil
	}

	c, err := st.Search(ctx, ir.Pattern{})
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var buffer []ir.Triple
	for len(buffer) < s.bufferLimit {
		t, err := c.Next(ctx)
		if errors.Is(err, ir.ErrCursorDone) {
			break
		}
		if err != nil {
			return nil, err
		}
		buffer = append(buffer, t)
	}
	return buffer, nil
}

// Close drops the dataset: selection cleared, count 0, activation emptied.
// DatasetReplaced is emitted. A session without a dataset is left alone.
//
// The store handle itself is not closed; its owner closes it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.store == nil {
		return
	}

	s.teardown()
	s.emit(EventDatasetReplaced)
	s.logger.Info("dataset closed", "generation", s.gen.Current())
}

// teardown invalidates outstanding work and clears every per-dataset field.
// Called with mu held.
func (s *Session) teardown() {
	s.gen.Next()
	s.disposeCursor()

	s.store = nil
	s.text = ir.TripleString{}
	s.pattern = ir.Pattern{}
	s.unsatisfiable = false
	s.count = 0
	s.final = true
	s.started = time.Time{}
	s.elapsed = 0
	s.loadElapsed = 0

	s.activation.RefreshAll(0)
	s.buffer = nil
	s.selected = nil
}

// disposeCursor closes and drops the live cursor, if any. Called with mu held.
func (s *Session) disposeCursor() {
	if s.cursor == nil {
		return
	}
	if err := s.cursor.Close(); err != nil {
		s.logger.Error("cursor close failed", "error", err)
	}
	s.cursor = nil
}

// HasDataset reports whether a dataset is installed.
func (s *Session) HasDataset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store != nil
}

// State returns a snapshot of the query state.
func (s *Session) State() QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return QueryState{
		Text:          s.text,
		Pattern:       s.pattern,
		Unsatisfiable: s.unsatisfiable,
		Count:         s.count,
		Final:         s.final,
		HasCursor:     s.cursor != nil,
		Generation:    s.gen.Current(),
	}
}

// Count returns the current result count.
func (s *Session) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Elapsed returns how long the current count has taken: the running time
// while a drain is in progress, the total once it is final. Wildcard
// patterns report the time spent loading the dataset.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.final && !s.started.IsZero() {
		return s.wall.Now().Sub(s.started)
	}
	return s.elapsed
}

// BufferLen returns the number of triples available to SelectNearest.
func (s *Session) BufferLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// Selected returns the highlighted triple, if any.
func (s *Session) Selected() (ir.Triple, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return ir.Triple{}, false
	}
	return *s.selected, true
}

// SetSelected highlights t. Ignored without a dataset.
func (s *Session) SetSelected(t ir.Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return
	}
	s.selected = &t
}

// ClearSelected removes the highlight.
func (s *Session) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// SelectNearest selects the buffered triple closest to (x, y) among those
// matching the current pattern with an active predicate; see NearestMatch.
// An empty buffer clears the selection and returns false.
func (s *Session) SelectNearest(x, y uint64) (ir.Triple, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activation.IsActive
	if s.unsatisfiable {
		// nothing matches; NearestMatch falls back to buffer[0]
		active = func(ir.ID) bool { return false }
	}

	best, ok := NearestMatch(s.buffer, s.pattern, active, x, y)
	if !ok {
		s.selected = nil
		return ir.Triple{}, false
	}
	s.selected = &best
	s.logger.Debug("nearest selected", "x", x, "y", y, "triple", best.String())
	return best, true
}

// IsPredicateActive reports whether predicate id is active.
func (s *Session) IsPredicateActive(id ir.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activation.IsActive(id)
}

// SetPredicateActive sets the state of predicate id. Out of range ids are ignored.
func (s *Session) SetPredicateActive(id ir.ID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activation.SetActive(id, active)
}

// SetAllPredicates activates or deactivates every predicate at once.
func (s *Session) SetAllPredicates(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activation.SetAll(active)
}

// ActivePredicates returns the active predicate ids in ascending order.
func (s *Session) ActivePredicates() []ir.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activation.ActiveIDs()
}

// CurrentPredicate returns the predicate of the current pattern, or 0.
func (s *Session) CurrentPredicate() ir.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activation.Current()
}

// emit queues an event stamped with the current state. Called with mu held.
func (s *Session) emit(t EventType) {
	s.outbox = append(s.outbox, Event{
		Type:       t,
		SessionID:  s.id,
		Generation: s.gen.Current(),
		Count:      s.count,
		Final:      s.final,
		Pattern:    s.text,
	})
}

// unlockAndFlush releases mu and delivers the queued events.
//
// emitMu is taken before mu is released, so deliveries happen in the order
// the state changes did even when several goroutines call in.
func (s *Session) unlockAndFlush() {
	events := s.outbox
	s.outbox = nil

	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	s.listeners.deliver(events)
}
