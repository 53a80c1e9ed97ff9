package ticker

import "time"

// Mock is a Ticker that only fires when the test explicitly sends on its
// Force channel, for deterministic tests of interval-driven logic.
type Mock struct {
	Force   chan time.Time
	stopped bool
}

// NewMock returns a Mock ticker. The interval argument is accepted for
// interface parity with New but is otherwise unused.
func NewMock(_ time.Duration) *Mock {
	return &Mock{
		Force: make(chan time.Time),
	}
}

// Ticks returns the channel tests send on to simulate a tick.
func (m *Mock) Ticks() <-chan time.Time {
	return m.Force
}

// Resume is a no-op for Mock; ticks are always driven manually.
func (m *Mock) Resume() {}

// Pause is a no-op for Mock.
func (m *Mock) Pause() {}

// Stop marks the mock as stopped.
func (m *Mock) Stop() {
	m.stopped = true
}

var _ Ticker = (*Mock)(nil)
