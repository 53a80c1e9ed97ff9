package coordinator

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/clock"
	"github.com/lightninglabs/swapcore/signedorder"
	"github.com/lightninglabs/swapcore/timelock"
	"github.com/stretchr/testify/require"
)

type ftTransfer struct {
	tokenID   string
	recipient string
	amount    *big.Int
}

type fakeFTCustodian struct {
	mu        sync.Mutex
	transfers []ftTransfer
	fail      bool
}

func (f *fakeFTCustodian) Transfer(_ context.Context, tokenID, recipient string, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transfers = append(f.transfers, ftTransfer{tokenID, recipient, new(big.Int).Set(amount)})

	if f.fail {
		return errors.New("custodian rejected transfer")
	}

	return nil
}

func (f *fakeFTCustodian) snapshot() []ftTransfer {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]ftTransfer(nil), f.transfers...)
}

type nativeTransfer struct {
	recipient string
	amount    btcutil.Amount
}

type fakeNativeTransferer struct {
	mu        sync.Mutex
	transfers []nativeTransfer
}

func (f *fakeNativeTransferer) TransferNative(_ context.Context, recipient string, amount btcutil.Amount) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transfers = append(f.transfers, nativeTransfer{recipient, amount})

	return nil
}

func (f *fakeNativeTransferer) snapshot() []nativeTransfer {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]nativeTransfer(nil), f.transfers...)
}

func scenario1Delays() timelock.Delays {
	return timelock.Delays{
		SrcWithdrawal:         0,
		SrcPublicWithdrawal:   300,
		SrcCancellation:       600,
		SrcPublicCancellation: 900,
		DstWithdrawal:         0,
		DstPublicWithdrawal:   120,
		DstCancellation:       240,
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeFTCustodian, *fakeNativeTransferer, *clock.TestClock) {
	t.Helper()

	ft := &fakeFTCustodian{}
	native := &fakeNativeTransferer{}
	testClock := clock.NewTestClock(time.Unix(1_700_000_000, 0))

	c := New(Config{
		FTCustodian:      ft,
		NativeTransferer: native,
		Clock:            testClock,
	})
	require.NoError(t, c.Start())
	t.Cleanup(func() { require.NoError(t, c.Stop()) })

	return c, ft, native, testClock
}

func signedOrder(t *testing.T, priv ed25519.PrivateKey, order signedorder.Order) []byte {
	t.Helper()

	msg, err := order.Serialize()
	require.NoError(t, err)

	digest := sha256.Sum256(msg)

	return ed25519.Sign(priv, digest[:])
}

func hashlockOf(secret string) chainhash.Hash {
	return chainhash.Hash(sha256.Sum256([]byte(secret)))
}

// Scenario 1: source claim happy path.
func TestSourceClaimHappyPath(t *testing.T) {
	c, ft, native, clk := newTestCoordinator(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	require.NoError(t, c.DepositFT(maker, token, big.NewInt(1000)))
	require.NoError(t, c.RegisterKeys(maker, [][]byte{pub}))

	order := signedorder.Order{
		Nonce:     big.NewInt(1),
		MakerID:   maker,
		AssetID:   token,
		Amount:    big.NewInt(100),
		Hashlock:  hashlockOf("secret1"),
		Timelocks: scenario1Delays(),
	}
	sig := signedOrder(t, priv, order)

	require.NoError(t, c.InitiateSourceEscrow(order, sig, pub, resolver, 10_000_000))

	require.Equal(t, big.NewInt(100), c.ledger.Locked(maker, token))
	require.Equal(t, big.NewInt(900), c.GetAvailableBalance(maker, token))

	clk.Advance(1 * time.Second)

	require.NoError(t, c.Claim([]byte("secret1"), resolver))
	c.wg.Wait()

	require.Equal(t, big.NewInt(900), c.ledger.Total(maker, token))
	require.Equal(t, big.NewInt(0), c.ledger.Locked(maker, token))

	transfers := ft.snapshot()
	require.Len(t, transfers, 1)
	require.Equal(t, resolver, transfers[0].recipient)
	require.Equal(t, big.NewInt(100), transfers[0].amount)

	nativeTransfers := native.snapshot()
	require.Len(t, nativeTransfers, 1)
	require.Equal(t, resolver, nativeTransfers[0].recipient)
}

// Scenario 2: destination claim happy path.
func TestDestinationClaimHappyPath(t *testing.T) {
	c, ft, native, clk := newTestCoordinator(t)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	delays := timelock.Delays{
		SrcWithdrawal:         0,
		SrcPublicWithdrawal:   300,
		SrcCancellation:       600,
		SrcPublicCancellation: 900,
		DstWithdrawal:         0,
		DstPublicWithdrawal:   300,
		DstCancellation:       600,
	}

	require.NoError(t, c.CreateDestinationEscrow(
		resolver, token, big.NewInt(50), hashlockOf("s2"), maker, delays, 10_000_000,
	))

	clk.Advance(1 * time.Second)

	require.NoError(t, c.Claim([]byte("s2"), maker))
	c.wg.Wait()

	transfers := ft.snapshot()
	require.Len(t, transfers, 1)
	require.Equal(t, maker, transfers[0].recipient)
	require.Equal(t, big.NewInt(50), transfers[0].amount)

	nativeTransfers := native.snapshot()
	require.Len(t, nativeTransfers, 1)
	require.Equal(t, maker, nativeTransfers[0].recipient)
}

// Scenario 3: source cancel path.
func TestSourceCancelPath(t *testing.T) {
	c, ft, _, clk := newTestCoordinator(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	require.NoError(t, c.DepositFT(maker, token, big.NewInt(1000)))
	require.NoError(t, c.RegisterKeys(maker, [][]byte{pub}))

	order := signedorder.Order{
		Nonce:     big.NewInt(1),
		MakerID:   maker,
		AssetID:   token,
		Amount:    big.NewInt(100),
		Hashlock:  hashlockOf("secret1"),
		Timelocks: scenario1Delays(),
	}
	sig := signedOrder(t, priv, order)

	require.NoError(t, c.InitiateSourceEscrow(order, sig, pub, resolver, 10_000_000))

	clk.Advance(700 * time.Second)

	require.NoError(t, c.Cancel(order.Hashlock, resolver))
	c.wg.Wait()

	// No outbound token transfer for a source-side cancel.
	require.Empty(t, ft.snapshot())

	require.Equal(t, big.NewInt(0), c.ledger.Locked(maker, token))
	require.Equal(t, big.NewInt(1000), c.ledger.Total(maker, token))

	require.NoError(t, c.WithdrawDeposit(maker, token, big.NewInt(1000)))
}

// Scenario 4: public-phase claim by a third party.
func TestPublicPhaseClaimByThirdParty(t *testing.T) {
	c, ft, native, clk := newTestCoordinator(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const thirdParty = "x.near"
	const token = "T"

	require.NoError(t, c.DepositFT(maker, token, big.NewInt(1000)))
	require.NoError(t, c.RegisterKeys(maker, [][]byte{pub}))

	order := signedorder.Order{
		Nonce:     big.NewInt(1),
		MakerID:   maker,
		AssetID:   token,
		Amount:    big.NewInt(100),
		Hashlock:  hashlockOf("secret1"),
		Timelocks: scenario1Delays(),
	}
	sig := signedOrder(t, priv, order)

	require.NoError(t, c.InitiateSourceEscrow(order, sig, pub, resolver, 10_000_000))

	clk.Advance(350 * time.Second)

	require.NoError(t, c.Claim([]byte("secret1"), thirdParty))
	c.wg.Wait()

	transfers := ft.snapshot()
	require.Len(t, transfers, 1)
	require.Equal(t, resolver, transfers[0].recipient)

	nativeTransfers := native.snapshot()
	require.Len(t, nativeTransfers, 1)
	require.Equal(t, thirdParty, nativeTransfers[0].recipient)
}

// Scenario 5: replay rejection.
func TestReplayRejection(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	require.NoError(t, c.DepositFT(maker, token, big.NewInt(1000)))
	require.NoError(t, c.RegisterKeys(maker, [][]byte{pub}))

	order := signedorder.Order{
		Nonce:     big.NewInt(1),
		MakerID:   maker,
		AssetID:   token,
		Amount:    big.NewInt(100),
		Hashlock:  hashlockOf("secret1"),
		Timelocks: scenario1Delays(),
	}
	sig := signedOrder(t, priv, order)

	require.NoError(t, c.InitiateSourceEscrow(order, sig, pub, resolver, 10_000_000))

	lockedBefore := c.ledger.Locked(maker, token)

	order2 := order
	order2.Hashlock = hashlockOf("secret-other")
	sig2 := signedOrder(t, priv, order2)

	err = c.InitiateSourceEscrow(order2, sig2, pub, resolver, 10_000_000)
	require.ErrorIs(t, err, ErrNonceReused)

	require.Equal(t, lockedBefore, c.ledger.Locked(maker, token))
}

// Scenario 6: hashlock collision.
func TestHashlockCollision(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	delays := timelock.Delays{
		SrcWithdrawal: 0, SrcPublicWithdrawal: 300, SrcCancellation: 600, SrcPublicCancellation: 900,
		DstWithdrawal: 0, DstPublicWithdrawal: 120, DstCancellation: 240,
	}
	hashlock := hashlockOf("dup")

	require.NoError(t, c.CreateDestinationEscrow(resolver, token, big.NewInt(10), hashlock, maker, delays, 1))

	err := c.CreateDestinationEscrow(resolver, token, big.NewInt(10), hashlock, maker, delays, 1)
	require.ErrorIs(t, err, ErrHashlockCollision)
}

// Scenario 7: invalid timelocks.
func TestInvalidTimelocksRejected(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	badDelays := timelock.Delays{
		SrcWithdrawal: 0, SrcPublicWithdrawal: 100, SrcCancellation: 500, SrcPublicCancellation: 900,
		DstWithdrawal: 0, DstPublicWithdrawal: 50, DstCancellation: 600,
	}

	err := c.CreateDestinationEscrow(resolver, token, big.NewInt(10), hashlockOf("x"), maker, badDelays, 1)
	require.ErrorIs(t, err, ErrInvalidTimelocks)
}

// Scenario 8: settlement failure and retry.
func TestSettlementFailureAndRetry(t *testing.T) {
	c, ft, _, clk := newTestCoordinator(t)
	ft.fail = true

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const maker = "maker.near"
	const resolver = "resolver.near"
	const token = "T"

	require.NoError(t, c.DepositFT(maker, token, big.NewInt(1000)))
	require.NoError(t, c.RegisterKeys(maker, [][]byte{pub}))

	order := signedorder.Order{
		Nonce:     big.NewInt(1),
		MakerID:   maker,
		AssetID:   token,
		Amount:    big.NewInt(100),
		Hashlock:  hashlockOf("secret1"),
		Timelocks: scenario1Delays(),
	}
	sig := signedOrder(t, priv, order)

	require.NoError(t, c.InitiateSourceEscrow(order, sig, pub, resolver, 10_000_000))

	clk.Advance(1 * time.Second)

	require.NoError(t, c.Claim([]byte("secret1"), resolver))
	c.wg.Wait()

	// The custodian rejected the transfer: claimed must have reverted,
	// and the ledger must be untouched.
	escrow, err := c.escrows.Get(order.Hashlock)
	require.NoError(t, err)
	require.False(t, escrow.Claimed)
	require.Equal(t, big.NewInt(100), c.ledger.Locked(maker, token))

	// A retried claim in the same phase now succeeds.
	ft.fail = false
	require.NoError(t, c.Claim([]byte("secret1"), resolver))
	c.wg.Wait()

	require.Equal(t, big.NewInt(0), c.ledger.Locked(maker, token))
}
