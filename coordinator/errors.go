package coordinator

import (
	goerrors "github.com/go-errors/errors"
	"github.com/lightninglabs/swapcore/escrowstore"
	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/signedorder"
	"github.com/lightninglabs/swapcore/timelock"
)

// Re-exported sentinel errors from the packages the coordinator composes,
// so callers need only import this package to use errors.Is against any
// failure the coordinator can return. Identity is preserved: errors.Is
// still matches the underlying sentinel even after wrap, since
// go-errors/errors.Wrap retains the original error as its cause.
var (
	ErrNotFound             = escrowstore.ErrNotFound
	ErrHashlockCollision    = escrowstore.ErrHashlockCollision
	ErrAlreadyClaimed       = escrowstore.ErrAlreadyClaimed
	ErrMissingSafetyDeposit = escrowstore.ErrMissingSafetyDeposit
	ErrInvalidAmount        = escrowstore.ErrInvalidAmount

	ErrWrongPhase       = timelock.ErrWrongPhase
	ErrInvalidTimelocks = timelock.ErrInvalidTimelocks

	ErrInsufficientFunds = ledger.ErrInsufficientFunds

	ErrBadSig           = signedorder.ErrBadSig
	ErrBadSigFormat     = signedorder.ErrBadSigFormat
	ErrNonceReused      = signedorder.ErrNonceReused
	ErrKeyNotRegistered = signedorder.ErrKeyNotRegistered
	ErrFieldOutOfRange  = signedorder.ErrFieldOutOfRange
)

// wrap annotates err with a stack trace for operator logs, without
// changing the identity errors.Is sees. A nil err wraps to nil.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, 1)
}
