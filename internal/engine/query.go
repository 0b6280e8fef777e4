package engine

import (
	"context"

	"github.com/roach88/tripleq/internal/ir"
)

// SetSearchPattern makes ts the session pattern and starts counting it.
//
// Without a dataset the call is a no-op, as is repeating the current
// textual pattern (compared before resolution). Otherwise the generation
// moves on, the previous cursor is closed, and:
//   - an unknown term leaves count 0 with no cursor and marks the state
//     unsatisfiable; this is not an error
//   - an all-wildcard pattern takes the count from TotalCount without a cursor
//   - any other pattern opens a cursor and runs the first drain slice now
//
// The current predicate follows the resolved pattern, and PatternChanged is
// emitted on every path. I/O failures leave count 0 with no cursor and are
// returned after PatternChanged has been emitted.
func (s *Session) SetSearchPattern(ctx context.Context, ts ir.TripleString) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.store == nil {
		return nil
	}
	if ts == s.text {
		s.logger.Debug("pattern unchanged", "pattern", ts)
		return nil
	}

	s.text = ts
	gen := s.gen.Next()
	s.disposeCursor()

	s.pattern = ir.Pattern{}
	s.unsatisfiable = false
	s.count = 0
	s.final = false
	s.started = s.wall.Now()
	s.elapsed = 0

	err := s.evaluate(ctx, ts)

	s.activation.SelectCurrent(s.pattern.Predicate)

	if s.cursor != nil {
		s.advance(ctx, gen)
	}
	s.emit(EventPatternChanged)
	return err
}

// evaluate resolves ts and either counts it directly or opens its cursor.
// Called with mu held.
func (s *Session) evaluate(ctx context.Context, ts ir.TripleString) error {
	p, err := Resolve(ctx, ts, s.store)
	switch {
	case ir.IsUnresolvedTerm(err):
		s.unsatisfiable = true
		s.finish()
		s.logger.Debug("pattern unsatisfiable", "pattern", ts, "reason", err)
		return nil
	case err != nil:
		s.finish()
		return err
	}

	s.pattern = p
	s.logger.Debug("pattern resolved", "pattern", ts, "ids", p.String())

	if p.IsEmpty() {
		total, err := s.store.TotalCount(ctx)
		if err != nil {
			s.finish()
			return err
		}
		s.count = total
		s.finish()
		s.elapsed = s.loadElapsed
		return nil
	}

	c, err := s.store.Search(ctx, p)
	if err != nil {
		s.finish()
		return err
	}
	s.cursor = c
	return nil
}

// finish marks the count final and records the elapsed time. Called with mu held.
func (s *Session) finish() {
	s.final = true
	if !s.started.IsZero() {
		s.elapsed = s.wall.Now().Sub(s.started)
	}
}
