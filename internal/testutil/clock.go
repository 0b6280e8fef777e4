package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually driven wall clock for duration budgets.
//
// Every call to Now returns the current time and then moves it forward by
// the step, so a drain that reads the clock once per triple sees time pass
// one step per triple. A zero step keeps time frozen until Advance.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// Epoch is the default FakeClock start time.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock creates a frozen clock at Epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

// NewSteppingClock creates a clock at Epoch that advances by step on every Now.
func NewSteppingClock(step time.Duration) *FakeClock {
	return &FakeClock{now: Epoch, step: step}
}

// Now returns the current fake time, then advances it by the step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Peek returns the current fake time without advancing it.
func (c *FakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
