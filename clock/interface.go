// Package clock provides a testable abstraction over wall-clock time, used
// everywhere the coordinator needs "now" to evaluate a timelock phase.
package clock

import "time"

// Clock is the interface the rest of this module uses instead of calling
// time.Now directly, so that timelock phase boundaries can be tested
// deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// DefaultClock is the real, wall-clock backed implementation.
type DefaultClock struct{}

// NewDefaultClock returns a Clock backed by the system wall clock.
func NewDefaultClock() *DefaultClock {
	return &DefaultClock{}
}

// Now returns time.Now().
func (DefaultClock) Now() time.Time {
	return time.Now()
}

// A compile-time assertion that DefaultClock implements Clock.
var _ Clock = (*DefaultClock)(nil)
