package timelock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validDelays() Delays {
	return Delays{
		SrcWithdrawal:         10,
		SrcPublicWithdrawal:   20,
		SrcCancellation:       30,
		SrcPublicCancellation: 40,
		DstWithdrawal:         5,
		DstPublicWithdrawal:   15,
		DstCancellation:       25,
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, validDelays().Validate())
}

func TestValidateIsDeterministic(t *testing.T) {
	d := validDelays()

	err1 := d.Validate()
	err2 := d.Validate()

	require.Equal(t, err1, err2)
	require.NoError(t, err1)
}

func TestValidateRejectsBadOrdering(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Delays)
	}{
		{
			name: "src withdrawal after src public withdrawal",
			mutate: func(d *Delays) {
				d.SrcWithdrawal = d.SrcPublicWithdrawal + 1
			},
		},
		{
			name: "src public withdrawal not before src cancellation",
			mutate: func(d *Delays) {
				d.SrcPublicWithdrawal = d.SrcCancellation
			},
		},
		{
			name: "src cancellation after src public cancellation",
			mutate: func(d *Delays) {
				d.SrcCancellation = d.SrcPublicCancellation + 1
			},
		},
		{
			name: "dst withdrawal after dst public withdrawal",
			mutate: func(d *Delays) {
				d.DstWithdrawal = d.DstPublicWithdrawal + 1
			},
		},
		{
			name: "dst public withdrawal not before dst cancellation",
			mutate: func(d *Delays) {
				d.DstPublicWithdrawal = d.DstCancellation
			},
		},
		{
			name: "dst cancellation after src cancellation",
			mutate: func(d *Delays) {
				d.DstCancellation = d.SrcCancellation + 1
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDelays()
			tc.mutate(&d)

			require.ErrorIs(t, d.Validate(), ErrInvalidTimelocks)
		})
	}
}

func TestAssertSrcClaim(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	tl := New(created, validDelays())

	// Before the private withdrawal window opens, neither the taker nor
	// anyone else may claim.
	require.ErrorIs(t, tl.AssertSrcClaim(created.Add(5*time.Second), false), ErrWrongPhase)
	require.ErrorIs(t, tl.AssertSrcClaim(created.Add(5*time.Second), true), ErrWrongPhase)

	// Within the private window, only the taker (isPublic=false) may act.
	mid := created.Add(15 * time.Second)
	require.NoError(t, tl.AssertSrcClaim(mid, false))
	require.ErrorIs(t, tl.AssertSrcClaim(mid, true), ErrWrongPhase)

	// Within the public window, anyone may act.
	pub := created.Add(25 * time.Second)
	require.NoError(t, tl.AssertSrcClaim(pub, false))
	require.NoError(t, tl.AssertSrcClaim(pub, true))

	// Once cancellation has opened, claim is no longer permitted.
	late := created.Add(30 * time.Second)
	require.ErrorIs(t, tl.AssertSrcClaim(late, true), ErrWrongPhase)
}

func TestAssertDstClaim(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	tl := New(created, validDelays())

	require.ErrorIs(t, tl.AssertDstClaim(created, false), ErrWrongPhase)

	mid := created.Add(10 * time.Second)
	require.NoError(t, tl.AssertDstClaim(mid, false))
	require.ErrorIs(t, tl.AssertDstClaim(mid, true), ErrWrongPhase)

	pub := created.Add(20 * time.Second)
	require.NoError(t, tl.AssertDstClaim(pub, true))

	require.ErrorIs(t, tl.AssertDstClaim(created.Add(25*time.Second), true), ErrWrongPhase)
}

func TestAssertSrcCancel(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	tl := New(created, validDelays())

	require.ErrorIs(t, tl.AssertSrcCancel(created.Add(25*time.Second), false), ErrWrongPhase)

	// Private cancel opens at SrcCancellation (30s) for the taker.
	require.NoError(t, tl.AssertSrcCancel(created.Add(30*time.Second), false))
	require.ErrorIs(t, tl.AssertSrcCancel(created.Add(30*time.Second), true), ErrWrongPhase)

	// Public cancel opens at SrcPublicCancellation (40s) for anyone.
	require.NoError(t, tl.AssertSrcCancel(created.Add(40*time.Second), true))

	// Cancellation has no upper bound once opened.
	require.NoError(t, tl.AssertSrcCancel(created.Add(10_000*time.Second), false))
}

func TestAssertDstCancel(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	tl := New(created, validDelays())

	require.ErrorIs(t, tl.AssertDstCancel(created.Add(10*time.Second)), ErrWrongPhase)
	require.NoError(t, tl.AssertDstCancel(created.Add(25*time.Second)))
	require.NoError(t, tl.AssertDstCancel(created.Add(1_000_000*time.Second)))
}
