package escrowstore

import (
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/timelock"
	"github.com/stretchr/testify/require"
)

func testEscrow(t *testing.T, seed byte) Escrow {
	t.Helper()

	var id EscrowId
	id[0] = seed

	return Escrow{
		Hashlock:      id,
		Maker:         "maker.near",
		Taker:         "taker.near",
		Asset:         FT{TokenID: "usdc.near"},
		Amount:        big.NewInt(1000),
		SafetyDeposit: 1,
		IsSource:      true,
		Timelocks:     timelock.New(time.Unix(1_700_000_000, 0), timelock.Delays{SrcWithdrawal: 1, SrcPublicWithdrawal: 2, SrcCancellation: 3, SrcPublicCancellation: 4}),
	}
}

func TestInsertAndGet(t *testing.T) {
	s := New()
	e := testEscrow(t, 1)

	require.NoError(t, s.Insert(e))

	got, err := s.Get(e.Hashlock)
	require.NoError(t, err)
	require.Equal(t, e.Maker, got.Maker)
	require.False(t, got.Claimed)
}

func TestInsertRejectsCollision(t *testing.T) {
	s := New()
	e := testEscrow(t, 1)

	require.NoError(t, s.Insert(e))

	err := s.Insert(e)
	require.ErrorIs(t, err, ErrHashlockCollision)
}

func TestGetMissing(t *testing.T) {
	s := New()

	_, err := s.Get(chainhash.Hash{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetClaimedRoundTrips(t *testing.T) {
	s := New()
	e := testEscrow(t, 1)
	require.NoError(t, s.Insert(e))

	require.NoError(t, s.SetClaimed(e.Hashlock, true))
	got, err := s.Get(e.Hashlock)
	require.NoError(t, err)
	require.True(t, got.Claimed)

	// A failed settlement callback reverts claimed back to false.
	require.NoError(t, s.SetClaimed(e.Hashlock, false))
	got, err = s.Get(e.Hashlock)
	require.NoError(t, err)
	require.False(t, got.Claimed)
}

func TestValidateRejectsZeroAmount(t *testing.T) {
	e := testEscrow(t, 1)
	e.Amount = big.NewInt(0)

	require.ErrorIs(t, e.Validate(), ErrInvalidAmount)
}

func TestValidateRejectsMissingSafetyDeposit(t *testing.T) {
	e := testEscrow(t, 1)
	e.SafetyDeposit = 0

	require.ErrorIs(t, e.Validate(), ErrMissingSafetyDeposit)
}

func TestForget(t *testing.T) {
	s := New()
	e := testEscrow(t, 1)
	require.NoError(t, s.Insert(e))

	require.NoError(t, s.Forget(e.Hashlock))

	_, err := s.Get(e.Hashlock)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Forget(e.Hashlock), ErrNotFound)
}

func TestAll(t *testing.T) {
	s := New()
	require.NoError(t, s.Insert(testEscrow(t, 1)))
	require.NoError(t, s.Insert(testEscrow(t, 2)))

	require.Len(t, s.All(), 2)
}
