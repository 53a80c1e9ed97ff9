package sqlstore

import (
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/escrowstore"
	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/timelock"
	"github.com/stretchr/testify/require"
)

// openTest returns a Store backed by a fresh, isolated in-memory SQLite
// database. Each test gets its own named database so parallel tests never
// share state.
func openTest(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestCreditAndAvailable(t *testing.T) {
	s := openTest(t)

	s.CreditTotal("alice", "usdc", big.NewInt(100))
	require.Equal(t, big.NewInt(100), s.Total("alice", "usdc"))
	require.Equal(t, big.NewInt(100), s.Available("alice", "usdc"))

	require.NoError(t, s.CreditLocked("alice", "usdc", big.NewInt(40)))
	require.Equal(t, big.NewInt(40), s.Locked("alice", "usdc"))
	require.Equal(t, big.NewInt(60), s.Available("alice", "usdc"))
}

func TestCreditLockedRespectsTotal(t *testing.T) {
	s := openTest(t)

	s.CreditTotal("alice", "usdc", big.NewInt(10))
	err := s.CreditLocked("alice", "usdc", big.NewInt(11))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestDebitTotalSaturates(t *testing.T) {
	s := openTest(t)

	s.CreditTotal("alice", "usdc", big.NewInt(5))
	s.DebitTotal("alice", "usdc", big.NewInt(9))
	require.Equal(t, big.NewInt(0), s.Total("alice", "usdc"))
}

func TestAssertAvailableForWithdrawalRejectsNonPositive(t *testing.T) {
	s := openTest(t)

	s.CreditTotal("alice", "usdc", big.NewInt(10))
	require.ErrorIs(t, s.AssertAvailableForWithdrawal("alice", "usdc", big.NewInt(0)),
		ledger.ErrInsufficientFunds)
	require.NoError(t, s.AssertAvailableForWithdrawal("alice", "usdc", big.NewInt(10)))
}

func TestAuditFindsNoViolationOnCleanLedger(t *testing.T) {
	s := openTest(t)

	s.CreditTotal("alice", "usdc", big.NewInt(10))
	require.NoError(t, s.CreditLocked("alice", "usdc", big.NewInt(10)))

	require.Empty(t, s.Audit())
}

func testEscrow(seed byte) escrowstore.Escrow {
	var h chainhash.Hash
	h[0] = seed

	return escrowstore.Escrow{
		Hashlock:      h,
		Maker:         "maker",
		Taker:         "taker",
		Asset:         escrowstore.FT{TokenID: "usdc"},
		Amount:        big.NewInt(1000),
		SafetyDeposit: btcutil.Amount(5000),
		IsSource:      true,
		Timelocks: timelock.New(time.Unix(1_700_000_000, 0).UTC(), timelock.Delays{
			SrcWithdrawal:         10,
			SrcPublicWithdrawal:   20,
			SrcCancellation:       30,
			SrcPublicCancellation: 40,
			DstWithdrawal:         5,
			DstPublicWithdrawal:   15,
			DstCancellation:       25,
		}),
	}
}

func TestInsertAndGetRoundTrips(t *testing.T) {
	s := openTest(t)

	e := testEscrow(1)
	require.NoError(t, s.Insert(e))

	got, err := s.Get(e.Hashlock)
	require.NoError(t, err)
	require.Equal(t, e.Maker, got.Maker)
	require.Equal(t, e.Taker, got.Taker)
	require.Equal(t, e.Amount, got.Amount)
	require.Equal(t, e.SafetyDeposit, got.SafetyDeposit)
	require.Equal(t, e.IsSource, got.IsSource)
	require.False(t, got.Claimed)
	require.Equal(t, e.Timelocks.Delays, got.Timelocks.Delays)
	require.True(t, e.Timelocks.CreatedAt.Equal(got.Timelocks.CreatedAt))
	require.Equal(t, escrowstore.FT{TokenID: "usdc"}, got.Asset)
}

func TestInsertRejectsCollision(t *testing.T) {
	s := openTest(t)

	e := testEscrow(2)
	require.NoError(t, s.Insert(e))
	require.ErrorIs(t, s.Insert(e), escrowstore.ErrHashlockCollision)
}

func TestGetMissing(t *testing.T) {
	s := openTest(t)

	_, err := s.Get(testEscrow(3).Hashlock)
	require.ErrorIs(t, err, escrowstore.ErrNotFound)
}

func TestSetClaimedRoundTrips(t *testing.T) {
	s := openTest(t)

	e := testEscrow(4)
	require.NoError(t, s.Insert(e))

	require.NoError(t, s.SetClaimed(e.Hashlock, true))
	got, err := s.Get(e.Hashlock)
	require.NoError(t, err)
	require.True(t, got.Claimed)

	require.NoError(t, s.SetClaimed(e.Hashlock, false))
	got, err = s.Get(e.Hashlock)
	require.NoError(t, err)
	require.False(t, got.Claimed)
}

func TestForget(t *testing.T) {
	s := openTest(t)

	e := testEscrow(5)
	require.NoError(t, s.Insert(e))
	require.NoError(t, s.Forget(e.Hashlock))

	_, err := s.Get(e.Hashlock)
	require.ErrorIs(t, err, escrowstore.ErrNotFound)
	require.ErrorIs(t, s.Forget(e.Hashlock), escrowstore.ErrNotFound)
}

func TestAll(t *testing.T) {
	s := openTest(t)

	e1, e2 := testEscrow(6), testEscrow(7)
	require.NoError(t, s.Insert(e1))
	require.NoError(t, s.Insert(e2))

	all := s.All()
	require.Len(t, all, 2)
}
