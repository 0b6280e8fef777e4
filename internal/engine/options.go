package engine

import (
	"log/slog"
	"time"
)

// DefaultBufferLimit is the default number of triples materialised for
// nearest-match selection.
const DefaultBufferLimit = 100000

// DrainBudget bounds one drain slice. Zero values mean unbounded, and the
// zero DrainBudget drains a cursor to exhaustion in one call.
type DrainBudget struct {
	// MaxIterations is the number of triples pulled per slice.
	MaxIterations int

	// MaxDuration is the wall-clock time spent per slice.
	MaxDuration time.Duration
}

// Unbounded reports whether b never suspends a drain.
func (b DrainBudget) Unbounded() bool {
	return b.MaxIterations <= 0 && b.MaxDuration <= 0
}

// spent reports whether a slice that pulled n triples since start is over budget.
func (b DrainBudget) spent(n int, start, now time.Time) bool {
	if b.MaxIterations > 0 && n >= b.MaxIterations {
		return true
	}
	if b.MaxDuration > 0 && now.Sub(start) >= b.MaxDuration {
		return true
	}
	return false
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDrainBudget bounds each drain slice.
//
// Default: unbounded (full drain in one call).
// Use WithDrainBudget(DrainBudget{MaxIterations: 1}) to observe every step.
func WithDrainBudget(b DrainBudget) SessionOption {
	return func(s *Session) {
		s.budget = b
	}
}

// WithBufferLimit sets how many triples are materialised for SelectNearest.
// Values < 0 are ignored; 0 disables the buffer.
func WithBufferLimit(n int) SessionOption {
	return func(s *Session) {
		if n >= 0 {
			s.bufferLimit = n
		}
	}
}

// WithSessionIDGenerator sets the session id source. Defaults to UUIDv7Generator.
func WithSessionIDGenerator(g SessionIDGenerator) SessionOption {
	return func(s *Session) {
		if g != nil {
			s.idGen = g
		}
	}
}

// WithWallClock sets the time source for duration budgets and Elapsed.
func WithWallClock(c WallClock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.wall = c
		}
	}
}
