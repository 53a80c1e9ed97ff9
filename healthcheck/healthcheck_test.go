package healthcheck

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/ticker"
	"github.com/stretchr/testify/require"
)

func TestMonitorRunsObservationsOnTick(t *testing.T) {
	mock := ticker.NewMock(time.Second)

	calls := 0
	obs := Observation{
		Name: "dummy",
		Check: func() error {
			calls++
			return nil
		},
	}

	m := NewMonitor(mock, []Observation{obs})
	m.Start()
	defer m.Stop()

	mock.Force <- time.Now()

	require.Eventually(t, func() bool {
		return calls > 0
	}, time.Second, time.Millisecond)

	require.True(t, m.Healthy())
}

func TestMonitorReportsFailure(t *testing.T) {
	mock := ticker.NewMock(time.Second)

	obs := Observation{
		Name: "always_fails",
		Check: func() error {
			return errors.New("boom")
		},
	}

	m := NewMonitor(mock, []Observation{obs})
	m.Start()
	defer m.Stop()

	mock.Force <- time.Now()

	require.Eventually(t, func() bool {
		return !m.Healthy()
	}, time.Second, time.Millisecond)

	results := m.Results()
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
}

func TestLedgerInvariantObservation(t *testing.T) {
	auditor := &fakeAuditor{}

	obs := LedgerInvariantObservation(auditor)
	require.NoError(t, obs.Check())

	auditor.fail = true
	err := obs.Check()
	require.Error(t, err)
}

type fakeAuditor struct {
	fail bool
}

func (f *fakeAuditor) AuditLedger() []ledger.Violation {
	if !f.fail {
		return nil
	}

	return []ledger.Violation{{
		Account: "alice",
		Asset:   "usdc",
		Total:   big.NewInt(10),
		Locked:  big.NewInt(20),
	}}
}
