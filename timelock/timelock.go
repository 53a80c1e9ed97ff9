// Package timelock implements the staged permission system ("timelocks")
// that governs who may claim or refund an escrow's funds in each phase of
// an atomic swap.
//
// Each escrow carries seven delays, all relative to its creation time, that
// divide its lifetime into named phases on both the source side (the chain
// where the maker's funds originate) and the destination side (the chain
// where the maker ultimately receives funds):
//
//	Source:      Finality | Private claim | Public claim | Private cancel | Public cancel
//	Destination: Finality | Private claim | Public claim | Cancel
//
// The public sub-phases exist so that any third party can step in and
// drive a stalled swap to conclusion, collecting the escrow's safety
// deposit as a reward for doing so.
package timelock

import (
	"time"
)

// Delays holds the seven unsigned delays, in seconds, that define an
// escrow's timelock schedule. All delays are relative to the escrow's
// CreatedAt time.
type Delays struct {
	SrcWithdrawal         uint64
	SrcPublicWithdrawal   uint64
	SrcCancellation       uint64
	SrcPublicCancellation uint64
	DstWithdrawal         uint64
	DstPublicWithdrawal   uint64
	DstCancellation       uint64
}

// Validate enforces the cross-phase ordering invariants required of any
// timelock schedule before an escrow using it may be stored:
//
//	src_withdrawal <= src_public_withdrawal < src_cancellation <= src_public_cancellation
//	dst_withdrawal <= dst_public_withdrawal < dst_cancellation
//	dst_cancellation <= src_cancellation
//
// Validate is idempotent and deterministic: calling it repeatedly on the
// same Delays value always produces the same verdict.
func (d Delays) Validate() error {
	switch {
	case !(d.SrcWithdrawal <= d.SrcPublicWithdrawal):
		return ErrInvalidTimelocks
	case !(d.SrcPublicWithdrawal < d.SrcCancellation):
		return ErrInvalidTimelocks
	case !(d.SrcCancellation <= d.SrcPublicCancellation):
		return ErrInvalidTimelocks
	case !(d.DstWithdrawal <= d.DstPublicWithdrawal):
		return ErrInvalidTimelocks
	case !(d.DstPublicWithdrawal < d.DstCancellation):
		return ErrInvalidTimelocks
	case !(d.DstCancellation <= d.SrcCancellation):
		return ErrInvalidTimelocks
	}

	return nil
}

// Timelocks combines a creation timestamp with a Delays schedule, and is
// the object escrows consult to gate claim/cancel operations by phase.
type Timelocks struct {
	CreatedAt time.Time
	Delays    Delays
}

// New constructs a Timelocks rooted at createdAt. It does not validate the
// delays; call Delays.Validate (directly, or via AssertValid) before
// persisting an escrow that uses it.
func New(createdAt time.Time, delays Delays) Timelocks {
	return Timelocks{CreatedAt: createdAt, Delays: delays}
}

// AssertValid is a convenience wrapper around t.Delays.Validate.
func (t Timelocks) AssertValid() error {
	return t.Delays.Validate()
}

func (t Timelocks) at(secs uint64) time.Time {
	return t.CreatedAt.Add(time.Duration(secs) * time.Second)
}

// AssertSrcClaim gates the source-side claim operation. isPublic
// distinguishes a call from the designated taker (false) from a call by
// any other party (true). In both cases the action is only permitted
// strictly before the source cancellation phase begins.
func (t Timelocks) AssertSrcClaim(now time.Time, isPublic bool) error {
	windowStart := t.at(t.Delays.SrcWithdrawal)
	if isPublic {
		windowStart = t.at(t.Delays.SrcPublicWithdrawal)
	}
	windowEnd := t.at(t.Delays.SrcCancellation)

	if now.Before(windowStart) || !now.Before(windowEnd) {
		log.Debugf("src claim rejected: now=%v window=[%v,%v) public=%v",
			now, windowStart, windowEnd, isPublic)
		return ErrWrongPhase
	}

	return nil
}

// AssertDstClaim gates the destination-side claim operation, with the same
// private/public shape as AssertSrcClaim but against the destination
// delays.
func (t Timelocks) AssertDstClaim(now time.Time, isPublic bool) error {
	windowStart := t.at(t.Delays.DstWithdrawal)
	if isPublic {
		windowStart = t.at(t.Delays.DstPublicWithdrawal)
	}
	windowEnd := t.at(t.Delays.DstCancellation)

	if now.Before(windowStart) || !now.Before(windowEnd) {
		log.Debugf("dst claim rejected: now=%v window=[%v,%v) public=%v",
			now, windowStart, windowEnd, isPublic)
		return ErrWrongPhase
	}

	return nil
}

// AssertSrcCancel gates the source-side cancellation operation. Unlike
// claim, cancellation has no upper bound: once the relevant phase opens it
// remains open for the remainder of the escrow's life.
func (t Timelocks) AssertSrcCancel(now time.Time, isPublic bool) error {
	windowStart := t.at(t.Delays.SrcCancellation)
	if isPublic {
		windowStart = t.at(t.Delays.SrcPublicCancellation)
	}

	if now.Before(windowStart) {
		log.Debugf("src cancel rejected: now=%v windowStart=%v public=%v",
			now, windowStart, isPublic)
		return ErrWrongPhase
	}

	return nil
}

// AssertDstCancel gates the destination-side cancellation operation. The
// destination side has a single cancel phase with no private/public split:
// the recipient of a destination cancel is always the taker, regardless of
// who triggers it.
func (t Timelocks) AssertDstCancel(now time.Time) error {
	windowStart := t.at(t.Delays.DstCancellation)

	if now.Before(windowStart) {
		log.Debugf("dst cancel rejected: now=%v windowStart=%v", now, windowStart)
		return ErrWrongPhase
	}

	return nil
}
