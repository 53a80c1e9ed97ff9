// Package coordinator implements the escrow coordinator (C5): the
// orchestrator that composes the timelock model, signed-order verifier,
// deposit ledger, and escrow store into the full atomic-swap lifecycle,
// and drives the asynchronous fungible-token transfers and settlement
// callbacks that finalize a claim, a cancel, or a deposit withdrawal.
//
// Public operations:
//
//   - DepositFT(sender, token, amount) credits sender's ledger balance.
//     Invoked on behalf of an external FT custodian when a user has sent
//     tokens tagged with a Deposit message.
//
//   - CreateDestinationEscrow(sender, token, amount, hashlock, makerID,
//     delays, safetyDeposit) opens the destination half of a swap: the
//     resolver (sender) has already delivered amount of token to the
//     custodian and attached a native safety deposit to the same call.
//
//   - InitiateSourceEscrow(order, sig, pubKey, resolver, safetyDeposit)
//     opens the source half of a swap against a maker's already-deposited
//     ledger balance, authorized by the maker's signed order. No token
//     movement happens here — the funds are already on deposit.
//
//   - Claim(secret, caller) reveals the swap's secret and pays out: on a
//     source escrow, the taker receives the token amount; on a
//     destination escrow, the maker does. Either way, whoever actually
//     calls Claim is sent the safety deposit, in a transfer dispatched
//     alongside the main one.
//
//   - Cancel(hashlock, caller) refunds a stalled escrow: a destination
//     escrow returns its token amount to the taker; a source escrow
//     performs no outbound transfer at all (the refund is purely internal
//     — the maker's locked ledger balance becomes available again once
//     the settlement callback confirms).
//
//   - WithdrawDeposit(caller, token, amount) lets a maker pull previously
//     deposited, unlocked funds back out through the custodian.
//
//   - RegisterKeys(account, pubKeys) lets an account self-attest Ed25519
//     public keys authorized to sign its SignedOrders.
//
// Every Claim, Cancel, and WithdrawDeposit optimistically commits state
// (the escrow's Claimed flag, or a ledger debit) before dispatching an
// asynchronous transfer, then reconciles on the transfer's outcome via
// onSettled/onDepositWithdrawn. This ordering — flag first, dispatch
// second, reconcile in callback — must never be reversed: it is the only
// reason a crashed or delayed custodian callback can be safely retried.
package coordinator

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/clock"
	"github.com/lightninglabs/swapcore/escrowstore"
	"github.com/lightninglabs/swapcore/hostiface"
	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/signedorder"
	"github.com/lightninglabs/swapcore/timelock"
	"golang.org/x/sync/errgroup"
)

// Config bundles the coordinator's dependencies: the two async host
// capabilities it drives, the clock it reads phase boundaries against,
// and optionally the ledger and escrow repository backing it. The nonce
// set is always created internally.
type Config struct {
	// FTCustodian moves fungible-token balances on the coordinator's
	// instruction.
	FTCustodian hostiface.FTCustodian

	// NativeTransferer pays out safety deposits.
	NativeTransferer hostiface.NativeTransferer

	// Clock supplies the current time for every timelock phase check
	// and every new escrow's CreatedAt. Tests inject a clock.TestClock;
	// production wires clock.DefaultClock.
	Clock clock.Clock

	// Ledger backs the deposit ledger. If nil, New creates an in-memory
	// ledger.Ledger. A daemon that wants durable persistence injects a
	// store/sqlstore.Store here instead.
	Ledger ledger.Store

	// Escrows backs the escrow repository. If nil, New creates an
	// in-memory escrowstore.Store. A daemon that wants durable
	// persistence injects a store/sqlstore.Store here instead.
	Escrows escrowstore.Repository
}

// Coordinator is the escrow coordinator (C5).
type Coordinator struct {
	started int32
	stopped int32

	cfg Config

	mu sync.Mutex

	ledger  ledger.Store
	escrows escrowstore.Repository
	nonces  *signedorder.NonceSet

	registeredKeys map[string]map[string][]byte

	wg   sync.WaitGroup
	quit chan struct{}
}

// New constructs a Coordinator from cfg. If cfg.Ledger or cfg.Escrows is
// nil, an in-memory implementation is created.
func New(cfg Config) *Coordinator {
	ledgerStore := cfg.Ledger
	if ledgerStore == nil {
		ledgerStore = ledger.New()
	}

	escrowRepo := cfg.Escrows
	if escrowRepo == nil {
		escrowRepo = escrowstore.New()
	}

	return &Coordinator{
		cfg:            cfg,
		ledger:         ledgerStore,
		escrows:        escrowRepo,
		nonces:         signedorder.NewNonceSet(),
		registeredKeys: make(map[string]map[string][]byte),
		quit:           make(chan struct{}),
	}
}

// Start readies the coordinator for use. It is idempotent.
func (c *Coordinator) Start() error {
	if !atomic.CompareAndSwapInt32(&c.started, 0, 1) {
		return nil
	}

	log.Infof("coordinator starting")

	return nil
}

// Stop signals all in-flight settlement goroutines to wind down and waits
// for them to exit. It is idempotent.
func (c *Coordinator) Stop() error {
	if !atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		return nil
	}

	log.Infof("coordinator stopping")

	close(c.quit)
	c.wg.Wait()

	return nil
}

// tokenIDOf returns the FT token identifier carried by an escrow's Asset.
// Every escrow in this core carries an FT asset; the type is an interface
// so a future Native case can be added without breaking this switch's
// callers, but today there is exactly one case to handle.
func tokenIDOf(a escrowstore.Asset) string {
	ft, ok := a.(escrowstore.FT)
	if !ok {
		return ""
	}

	return ft.TokenID
}

// DepositFT credits sender's ledger balance for token by amount, on
// behalf of an external FT custodian that has already received the
// tokens.
func (c *Coordinator) DepositFT(sender, token string, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.CreditTotal(sender, token, amount)

	log.Infof("DEPOSIT: account=%s token=%s amount=%s", sender, token, amount)

	return nil
}

// CreateDestinationEscrow opens the destination half of a swap. sender is
// the resolver who has already delivered amount of token to the custodian
// and attached safetyDeposit of the native asset to this same call.
func (c *Coordinator) CreateDestinationEscrow(
	sender, token string,
	amount *big.Int,
	hashlock chainhash.Hash,
	makerID string,
	delays timelock.Delays,
	safetyDeposit btcutil.Amount,
) error {

	if safetyDeposit <= 0 {
		return ErrMissingSafetyDeposit
	}

	if err := delays.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	escrow := escrowstore.Escrow{
		Hashlock:      hashlock,
		Maker:         makerID,
		Taker:         sender,
		Asset:         escrowstore.FT{TokenID: token},
		Amount:        amount,
		SafetyDeposit: safetyDeposit,
		IsSource:      false,
		Timelocks:     timelock.New(c.cfg.Clock.Now(), delays),
		Claimed:       false,
	}

	if err := escrow.Validate(); err != nil {
		return err
	}

	if err := c.escrows.Insert(escrow); err != nil {
		return err
	}

	log.Infof("ESCROW_INITIATED_DESTINATION: hashlock=%v actor=%s amount=%s",
		hashlock, sender, amount)

	return nil
}

// InitiateSourceEscrow opens the source half of a swap, authorized by the
// maker's signed order, against the maker's already-deposited ledger
// balance. resolver is the caller; safetyDeposit is the native asset
// attached to this call.
//
// Note on ordering: per this system's binding ordering, the order's nonce
// is committed (by Verify) and the maker's funds are locked (by
// CreditLocked) before the hashlock-collision check runs. If the hashlock
// is already in use, this call still fails ErrHashlockCollision and the
// lock is released again, but the nonce stays burned. A caller that hits
// this must use a fresh order (new nonce) to retry.
func (c *Coordinator) InitiateSourceEscrow(
	order signedorder.Order,
	sig, pubKey []byte,
	resolver string,
	safetyDeposit btcutil.Amount,
) error {

	if safetyDeposit <= 0 {
		return ErrMissingSafetyDeposit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasRegisteredKeyLocked(order.MakerID, pubKey) {
		return ErrKeyNotRegistered
	}

	if err := signedorder.Verify(order, sig, pubKey, c.nonces); err != nil {
		return err
	}

	if err := order.Timelocks.Validate(); err != nil {
		return err
	}

	if err := c.ledger.AssertAvailableForEscrow(order.MakerID, order.AssetID, order.Amount); err != nil {
		return err
	}

	if err := c.ledger.CreditLocked(order.MakerID, order.AssetID, order.Amount); err != nil {
		return err
	}

	escrow := escrowstore.Escrow{
		Hashlock:      order.Hashlock,
		Maker:         order.MakerID,
		Taker:         resolver,
		Asset:         escrowstore.FT{TokenID: order.AssetID},
		Amount:        order.Amount,
		SafetyDeposit: safetyDeposit,
		IsSource:      true,
		Timelocks:     timelock.New(c.cfg.Clock.Now(), order.Timelocks),
		Claimed:       false,
	}

	if err := escrow.Validate(); err != nil {
		c.ledger.DebitLocked(order.MakerID, order.AssetID, order.Amount)
		return err
	}

	if err := c.escrows.Insert(escrow); err != nil {
		c.ledger.DebitLocked(order.MakerID, order.AssetID, order.Amount)
		return err
	}

	log.Infof("ESCROW_INITIATED_SOURCE: hashlock=%v actor=%s amount=%s",
		order.Hashlock, resolver, order.Amount)

	return nil
}

func (c *Coordinator) hasRegisteredKeyLocked(account string, pubKey []byte) bool {
	keys, ok := c.registeredKeys[account]
	if !ok {
		return false
	}

	_, ok = keys[string(pubKey)]

	return ok
}

// Claim reveals secret and pays out the escrow it unlocks. Anyone may
// call Claim; whether the call is in the escrow's private or public claim
// phase is determined by whether caller is the party the main transfer
// pays out to (the taker on a source escrow, the maker on a destination
// one).
func (c *Coordinator) Claim(secret []byte, caller string) error {
	hashlock := chainhash.Hash(sha256.Sum256(secret))

	c.mu.Lock()

	escrow, err := c.escrows.Get(hashlock)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if escrow.Claimed {
		c.mu.Unlock()
		return ErrAlreadyClaimed
	}

	// The entitled private claimant is whoever the main transfer pays
	// out to: the taker on a source escrow, the maker on a destination
	// one. Anyone else acting is a public-phase claim.
	recipient := escrow.Taker
	if !escrow.IsSource {
		recipient = escrow.Maker
	}
	isPublic := caller != recipient

	now := c.cfg.Clock.Now()

	if escrow.IsSource {
		err = escrow.Timelocks.AssertSrcClaim(now, isPublic)
	} else {
		err = escrow.Timelocks.AssertDstClaim(now, isPublic)
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if err := c.escrows.SetClaimed(hashlock, true); err != nil {
		c.mu.Unlock()
		return err
	}

	c.mu.Unlock()

	log.Infof("ESCROW_CLAIMED: hashlock=%v actor=%s recipient=%s", hashlock, caller, recipient)

	c.dispatchSettlement(hashlock, escrow, caller, recipient, false)

	return nil
}

// Cancel refunds a stalled escrow back to whoever posted its funds.
// Anyone may call Cancel; as with Claim, caller's identity determines
// whether the call falls in a private or public phase.
func (c *Coordinator) Cancel(hashlock chainhash.Hash, caller string) error {
	c.mu.Lock()

	escrow, err := c.escrows.Get(hashlock)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if escrow.Claimed {
		c.mu.Unlock()
		return ErrAlreadyClaimed
	}

	isPublic := caller != escrow.Taker
	now := c.cfg.Clock.Now()

	if escrow.IsSource {
		err = escrow.Timelocks.AssertSrcCancel(now, isPublic)
	} else {
		err = escrow.Timelocks.AssertDstCancel(now)
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if err := c.escrows.SetClaimed(hashlock, true); err != nil {
		c.mu.Unlock()
		return err
	}

	c.mu.Unlock()

	log.Infof("ESCROW_CANCELED: hashlock=%v actor=%s", hashlock, caller)

	c.dispatchSettlement(hashlock, escrow, caller, escrow.Taker, true)

	return nil
}

// dispatchSettlement races the main token transfer (skipped entirely for
// a source-side cancel, whose refund is purely internal to the ledger)
// against the safety-deposit payout to caller, then feeds the combined
// result to onSettled.
func (c *Coordinator) dispatchSettlement(
	hashlock chainhash.Hash,
	escrow escrowstore.Escrow,
	caller, mainRecipient string,
	isCancel bool,
) {
	skipMainTransfer := escrow.IsSource && isCancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx := context.Background()

		var eg errgroup.Group

		if !skipMainTransfer {
			eg.Go(func() error {
				return c.cfg.FTCustodian.Transfer(
					ctx, tokenIDOf(escrow.Asset), mainRecipient, escrow.Amount,
				)
			})
		}

		eg.Go(func() error {
			return c.cfg.NativeTransferer.TransferNative(ctx, caller, escrow.SafetyDeposit)
		})

		err := eg.Wait()

		c.onSettled(hashlock, escrow, isCancel, err)
	}()
}

// onSettled reconciles the outcome of a dispatched Claim/Cancel
// settlement.
func (c *Coordinator) onSettled(hashlock chainhash.Hash, escrow escrowstore.Escrow, isCancel bool, settleErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := tokenIDOf(escrow.Asset)

	if settleErr == nil {
		switch {
		case escrow.IsSource && isCancel:
			c.ledger.DebitLocked(escrow.Maker, token, escrow.Amount)
		case escrow.IsSource && !isCancel:
			c.ledger.DebitLocked(escrow.Maker, token, escrow.Amount)
			c.ledger.DebitTotal(escrow.Maker, token, escrow.Amount)
		}

		log.Infof("ESCROW_SETTLED: hashlock=%v", hashlock)

		return
	}

	log.Errorf("settlement failed for hashlock=%v: %v", hashlock, wrap(settleErr))

	if err := c.escrows.SetClaimed(hashlock, false); err != nil {
		log.Errorf("failed to revert claimed flag for hashlock=%v: %v", hashlock, wrap(err))
	}

	log.Infof("ESCROW_SETTLEMENT_FAILED: hashlock=%v", hashlock)
}

// WithdrawDeposit lets caller pull amount of token out of their available
// (unlocked) ledger balance, through the FT custodian.
func (c *Coordinator) WithdrawDeposit(caller, token string, amount *big.Int) error {
	c.mu.Lock()

	if err := c.ledger.AssertAvailableForWithdrawal(caller, token, amount); err != nil {
		c.mu.Unlock()
		return err
	}

	c.ledger.DebitTotal(caller, token, amount)

	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := c.cfg.FTCustodian.Transfer(context.Background(), token, caller, amount)

		c.onDepositWithdrawn(caller, token, amount, err)
	}()

	return nil
}

// onDepositWithdrawn reconciles the outcome of a dispatched
// WithdrawDeposit transfer: on failure, the debited amount is re-credited
// to caller's total balance; on success, no further action is needed.
func (c *Coordinator) onDepositWithdrawn(caller, token string, amount *big.Int, err error) {
	if err == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.CreditTotal(caller, token, amount)

	log.Errorf("WITHDRAWAL_FAILED: account=%s token=%s amount=%s err=%v",
		caller, token, amount, wrap(err))
}

// RegisterKeys appends pubKeys (deduplicated) to account's set of
// registered Ed25519 public keys. There is no removal operation in this
// core.
func (c *Coordinator) RegisterKeys(account string, pubKeys [][]byte) error {
	for _, k := range pubKeys {
		if len(k) != ed25519.PublicKeySize {
			return ErrBadSigFormat
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys, ok := c.registeredKeys[account]
	if !ok {
		keys = make(map[string][]byte)
		c.registeredKeys[account] = keys
	}

	for _, k := range pubKeys {
		keys[string(k)] = k
	}

	return nil
}

// GetRegisteredKeys returns the public keys currently registered to
// account.
func (c *Coordinator) GetRegisteredKeys(account string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.registeredKeys[account]

	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		out = append(out, k)
	}

	return out
}

// GetAvailableBalance returns account's available (unlocked) balance of
// token.
func (c *Coordinator) GetAvailableBalance(account, token string) *big.Int {
	return c.ledger.Available(account, token)
}

// AuditLedger exposes the ledger's invariant audit, used by the
// healthcheck package's periodic observation.
func (c *Coordinator) AuditLedger() []ledger.Violation {
	return c.ledger.Audit()
}

// Escrows exposes a snapshot of every escrow, used by the healthcheck
// package's reconciliation-loop observation.
func (c *Coordinator) Escrows() []escrowstore.Escrow {
	return c.escrows.All()
}
