// Package ticker provides a Ticker interface that can be mocked out in
// tests, used by the healthcheck reconciliation loop.
package ticker

import "time"

// Ticker is the interface used by components that need to perform an
// action on a regular interval.
type Ticker interface {
	// Ticks returns a channel that delivers a tick on the configured
	// interval.
	Ticks() <-chan time.Time

	// Resume starts the ticker.
	Resume()

	// Pause stops the ticker from firing, without releasing its
	// resources.
	Pause()

	// Stop releases the ticker's resources.
	Stop()
}
