package ticker

import "time"

// DefaultTicker is a Ticker backed by time.Ticker.
type DefaultTicker struct {
	ticker   *time.Ticker
	interval time.Duration
}

// New returns a DefaultTicker with the given interval. It starts in the
// running state.
func New(interval time.Duration) *DefaultTicker {
	return &DefaultTicker{
		ticker:   time.NewTicker(interval),
		interval: interval,
	}
}

// Ticks returns the underlying time.Ticker's channel.
func (t *DefaultTicker) Ticks() <-chan time.Time {
	return t.ticker.C
}

// Resume restarts the ticker at its original interval.
func (t *DefaultTicker) Resume() {
	t.ticker.Reset(t.interval)
}

// Pause stops the ticker from firing until Resume is called.
func (t *DefaultTicker) Pause() {
	t.ticker.Stop()
}

// Stop releases the ticker's resources permanently.
func (t *DefaultTicker) Stop() {
	t.ticker.Stop()
}

var _ Ticker = (*DefaultTicker)(nil)
