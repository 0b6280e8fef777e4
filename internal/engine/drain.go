package engine

import (
	"context"
	"errors"

	"github.com/roach88/tripleq/internal/ir"
)

// advance runs one drain slice for generation gen. Called with mu held.
//
// It pulls from the live cursor until the cursor is exhausted or the budget
// is spent. A spent budget queues a resumption and emits CountUpdated. An
// exhausted cursor is closed and CountUpdated then CountFinalized are
// emitted. A cursor failure ends the count at its current value.
func (s *Session) advance(ctx context.Context, gen int64) {
	if s.cursor == nil || gen != s.gen.Current() {
		s.logger.Debug("stale drain ignored", "generation", gen, "current", s.gen.Current())
		return
	}

	start := s.wall.Now()
	n := 0
	for {
		_, err := s.cursor.Next(ctx)
		if errors.Is(err, ir.ErrCursorDone) {
			s.disposeCursor()
			s.finish()
			s.logger.Debug("drain finished", "generation", gen, "count", s.count)
			s.emit(EventCountUpdated)
			s.emit(EventCountFinalized)
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// the caller stopped waiting; the cursor is intact
			s.suspend(gen)
			return
		}
		if err != nil {
			s.logger.Error("cursor failed", "generation", gen, "count", s.count, "error", err)
			s.disposeCursor()
			s.finish()
			s.emit(EventCountUpdated)
			s.emit(EventCountFinalized)
			return
		}

		s.count++
		n++
		if s.budget.spent(n, start, s.wall.Now()) {
			s.suspend(gen)
			return
		}
	}
}

// suspend queues the rest of the drain and reports progress. Called with mu held.
func (s *Session) suspend(gen int64) {
	if !s.queue.Enqueue(task{generation: gen}) {
		s.logger.Debug("scheduler stopped, drain suspended", "generation", gen, "count", s.count)
	} else {
		s.logger.Debug("drain slice", "generation", gen, "count", s.count)
	}
	s.emit(EventCountUpdated)
}

// resume runs a queued drain slice.
func (s *Session) resume(ctx context.Context, t task) {
	s.mu.Lock()
	defer s.unlockAndFlush()
	s.advance(ctx, t.generation)
}

// Pending returns the number of queued drain slices.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Step runs the oldest queued drain slice and reports whether there was
// one. A stale slice still counts as run; it changes nothing.
func (s *Session) Step(ctx context.Context) bool {
	t, ok := s.queue.TryDequeue()
	if !ok {
		return false
	}
	s.resume(ctx, t)
	return true
}

// RunPending runs queued drain slices until the queue is empty.
// Slices queued while running are run too. Returns the number of slices
// run, and ctx.Err() if ctx ends first.
func (s *Session) RunPending(ctx context.Context) (int, error) {
	ran := 0
	for {
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		if !s.Step(ctx) {
			return ran, nil
		}
		ran++
	}
}

// Run starts the session scheduler loop.
// Blocks until context is cancelled or Stop() is called.
//
// Queued drain slices run in FIFO order on the calling goroutine.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("scheduler starting")

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("scheduler stopping: context cancelled")
			return err
		}
		if t, ok := s.queue.TryDequeue(); ok {
			s.resume(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping: context cancelled")
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which will cause this case to fire immediately
			if s.queue.Closed() && s.queue.Len() == 0 {
				s.logger.Info("scheduler stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop shuts the scheduler down: Run returns once the queue is empty, and
// drains suspended afterwards are not resumed.
func (s *Session) Stop() {
	s.queue.Close()
}
