package timelock

import "errors"

var (
	// ErrInvalidTimelocks is returned by Delays.Validate when the seven
	// delays do not satisfy the required cross-phase ordering.
	ErrInvalidTimelocks = errors.New("timelock: delays violate required ordering")

	// ErrWrongPhase is returned by the Assert* gating methods when the
	// requested action is attempted outside of its permitted phase.
	ErrWrongPhase = errors.New("timelock: action not permitted in current phase")
)
