// Package healthcheck runs periodic observations of the coordinator's
// invariants and surfaces their outcome through the daemon's gRPC health
// service. It is an ambient safety net, not part of the swap protocol
// itself: the core coordinator never consults it, and it never mutates
// coordinator state — it only reports.
package healthcheck

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/escrowstore"
	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/ticker"
)

// LedgerAuditor is the subset of the coordinator this package depends on
// for its ledger-invariant observation.
type LedgerAuditor interface {
	AuditLedger() []ledger.Violation
}

// EscrowLister is the subset of the coordinator this package depends on
// for its stalled-settlement observation.
type EscrowLister interface {
	Escrows() []escrowstore.Escrow
}

// Observation is a single named health check: a function that returns an
// error describing what, if anything, is wrong.
type Observation struct {
	Name  string
	Check func() error
}

// Result is the outcome of running one Observation once.
type Result struct {
	Name string
	Err  error
}

// Monitor runs a set of Observations on an interval and retains the most
// recent Result for each, the way lnd's own healthcheck subsystem polls
// its chain backend and wallet unlocker.
type Monitor struct {
	observations []Observation
	ticker       ticker.Ticker

	mu      sync.Mutex
	results map[string]Result

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewMonitor constructs a Monitor that runs observations each time t
// ticks.
func NewMonitor(t ticker.Ticker, observations []Observation) *Monitor {
	return &Monitor{
		observations: observations,
		ticker:       t,
		results:      make(map[string]Result),
		quit:         make(chan struct{}),
	}
}

// Start begins the monitor's polling loop.
func (m *Monitor) Start() {
	m.ticker.Resume()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runLoop()
	}()
}

// Stop halts the polling loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.quit)
	m.ticker.Stop()
	m.wg.Wait()
}

func (m *Monitor) runLoop() {
	for {
		select {
		case <-m.ticker.Ticks():
			m.runOnce()

		case <-m.quit:
			return
		}
	}
}

// runOnce executes every observation and records its result.
func (m *Monitor) runOnce() {
	for _, obs := range m.observations {
		err := obs.Check()

		m.mu.Lock()
		m.results[obs.Name] = Result{Name: obs.Name, Err: err}
		m.mu.Unlock()

		if err != nil {
			log.Warnf("health observation %q failed: %v", obs.Name, err)
		}
	}
}

// Results returns a snapshot of the most recent result for every
// observation.
func (m *Monitor) Results() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Result, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, r)
	}

	return out
}

// Healthy reports whether every observation's most recent run succeeded.
// An observation that has never run is not considered unhealthy.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.results {
		if r.Err != nil {
			return false
		}
	}

	return true
}

// LedgerInvariantObservation builds the Observation that audits the
// deposit ledger's locked<=total invariant (P1) on every tick.
func LedgerInvariantObservation(auditor LedgerAuditor) Observation {
	return Observation{
		Name: "ledger_invariant",
		Check: func() error {
			violations := auditor.AuditLedger()
			if len(violations) == 0 {
				return nil
			}

			return &InvariantViolationError{Violations: violations}
		},
	}
}

// StalledSettlementObservation builds the Observation that flags escrows
// whose Claimed flag has been true for longer than grace with no
// confirmed settlement having cleared it back to a terminal state. This
// never force-settles anything; it only reports, since the coordinator
// itself never re-drives an escrow on a timer (§5).
func StalledSettlementObservation(lister EscrowLister, clockNow func() time.Time, grace time.Duration) Observation {
	return Observation{
		Name: "stalled_settlements",
		Check: func() error {
			var stalled []chainhash.Hash

			now := clockNow()
			for _, e := range lister.Escrows() {
				if e.Claimed && now.Sub(e.Timelocks.CreatedAt) > grace {
					stalled = append(stalled, e.Hashlock)
				}
			}

			if len(stalled) == 0 {
				return nil
			}

			return &StalledSettlementsError{Hashlocks: stalled}
		},
	}
}
