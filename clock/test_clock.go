package clock

import (
	"sync"
	"time"
)

// TestClock is a manually-advanced Clock for deterministic unit tests of
// timelock phase boundaries.
type TestClock struct {
	mtx sync.RWMutex
	now time.Time
}

// NewTestClock returns a TestClock initialized to the given time.
func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now}
}

// Now returns the clock's current simulated time.
func (c *TestClock) Now() time.Time {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return c.now
}

// SetTime sets the clock to an absolute time.
func (c *TestClock) SetTime(now time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.now = now
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.now = c.now.Add(d)
}

var _ Clock = (*TestClock)(nil)
