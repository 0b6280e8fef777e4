package engine

import (
	"sync/atomic"
	"time"
)

// Clock is the session generation counter.
//
// Every pattern change and dataset replacement takes the next generation.
// Scheduled drain work carries the generation it was created under and is
// discarded once the clock has moved past it. No explicit cancel exists.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next generation and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current generation without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// WallClock supplies the time used for drain duration budgets and elapsed
// time reporting.
type WallClock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
