package escrowstore

import "errors"

var (
	// ErrHashlockCollision is returned by Insert when the hashlock key
	// is already occupied by another escrow.
	ErrHashlockCollision = errors.New("escrowstore: hashlock already in use")

	// ErrNotFound is returned when no escrow exists for the given id.
	ErrNotFound = errors.New("escrowstore: escrow not found")

	// ErrAlreadyClaimed is returned by callers that require an escrow
	// not yet be claimed before acting on it.
	ErrAlreadyClaimed = errors.New("escrowstore: escrow already claimed")

	// ErrMissingSafetyDeposit is returned when an escrow is constructed
	// with a zero or negative safety deposit.
	ErrMissingSafetyDeposit = errors.New("escrowstore: safety deposit required")

	// ErrInvalidAmount is returned when an escrow is constructed with a
	// zero or negative amount.
	ErrInvalidAmount = errors.New("escrowstore: invalid escrow amount")
)
