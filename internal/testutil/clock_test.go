package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_Frozen(t *testing.T) {
	c := NewFakeClock()

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, Epoch.Add(time.Second), c.Now())
}

func TestFakeClock_Stepping(t *testing.T) {
	c := NewSteppingClock(10 * time.Millisecond)

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(10*time.Millisecond), c.Now())
	assert.Equal(t, Epoch.Add(20*time.Millisecond), c.Peek())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "s-1", NewFixedIDGenerator("s-1").Generate())
	assert.Equal(t, "s-1", NewFixedIDGenerator("s-1").Generate())
	assert.Equal(t, "test-session-default", NewFixedIDGenerator("").Generate())
}
