package runtime

import (
	"pajal/errors"
	"sync"
	"time"
)

// Clock is the only source of "now" for the core. It moves forward by a fixed
// step on every tick, or jumps to an arbitrary later instant on request.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by step. Non-positive steps are ignored.
func (c *Clock) Advance(step time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if step > 0 {
		c.now = c.now.Add(step)
	}
	return c.now
}

// JumpTo sets the clock to t. Time never moves backwards.
func (c *Clock) JumpTo(t time.Time) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.After(c.now) {
		return c.now, errors.ErrClockRewind
	}
	c.now = t
	return c.now, nil
}
