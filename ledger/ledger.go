// Package ledger implements the two-tier deposit accounting used to track
// each account's funds across every fungible-token asset it has deposited:
// a Total balance (funds actually held) and a Locked balance (the portion
// of Total currently committed to open escrows). Available is always
// derived as Total minus Locked.
//
// All arithmetic saturates at zero on underflow rather than panicking or
// wrapping, mirroring the saturating-subtraction convention the original
// NEAR contract uses for balance reads: a read never fails, only a write
// that would violate Locked <= Total is rejected.
package ledger

import (
	"math/big"
	"sync"
)

// account is the per-asset balance pair for one (account, asset) key.
type account struct {
	total  *big.Int
	locked *big.Int
}

// key identifies a single (account, asset) balance.
type key struct {
	account string
	asset   string
}

// Ledger is the deposit ledger: a mapping from (account, asset) to a
// (total, locked) pair, guarded by a single mutex the way channeldb guards
// its in-memory channel state.
type Ledger struct {
	mu       sync.Mutex
	balances map[key]*account
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[key]*account),
	}
}

func (l *Ledger) entry(acct, asset string) *account {
	k := key{account: acct, asset: asset}

	a, ok := l.balances[k]
	if !ok {
		a = &account{total: new(big.Int), locked: new(big.Int)}
		l.balances[k] = a
	}

	return a
}

// saturatingSub returns max(a-b, 0).
func saturatingSub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	if r.Sign() < 0 {
		return new(big.Int)
	}

	return r
}

// Total returns the account's total deposited balance of asset.
func (l *Ledger) Total(acct, asset string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return new(big.Int).Set(l.entry(acct, asset).total)
}

// Locked returns the account's locked balance of asset.
func (l *Ledger) Locked(acct, asset string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return new(big.Int).Set(l.entry(acct, asset).locked)
}

// Available returns Total - Locked, saturating at zero. In steady state
// this never underflows (I6: locked <= total), but a read must never fail
// regardless.
func (l *Ledger) Available(acct, asset string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.entry(acct, asset)

	return saturatingSub(a.total, a.locked)
}

// CreditTotal increases the account's total balance by delta.
func (l *Ledger) CreditTotal(acct, asset string, delta *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.entry(acct, asset)
	a.total.Add(a.total, delta)

	log.Debugf("credit total: account=%s asset=%s delta=%s total=%s",
		acct, asset, delta, a.total)
}

// DebitTotal decreases the account's total balance by delta, saturating at
// zero.
func (l *Ledger) DebitTotal(acct, asset string, delta *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.entry(acct, asset)
	a.total = saturatingSub(a.total, delta)

	log.Debugf("debit total: account=%s asset=%s delta=%s total=%s",
		acct, asset, delta, a.total)
}

// CreditLocked increases the account's locked balance by delta. The
// caller must have already established delta <= Available via
// AssertAvailableForEscrow; CreditLocked itself enforces the invariant
// locked+delta <= total and returns ErrInsufficientFunds otherwise.
func (l *Ledger) CreditLocked(acct, asset string, delta *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.entry(acct, asset)

	newLocked := new(big.Int).Add(a.locked, delta)
	if newLocked.Cmp(a.total) > 0 {
		return ErrInsufficientFunds
	}

	a.locked = newLocked

	log.Debugf("credit locked: account=%s asset=%s delta=%s locked=%s",
		acct, asset, delta, a.locked)

	return nil
}

// DebitLocked decreases the account's locked balance by delta, saturating
// at zero.
func (l *Ledger) DebitLocked(acct, asset string, delta *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.entry(acct, asset)
	a.locked = saturatingSub(a.locked, delta)

	log.Debugf("debit locked: account=%s asset=%s delta=%s locked=%s",
		acct, asset, delta, a.locked)
}

// AssertAvailableForEscrow requires that delta is available to be locked
// into a new escrow, failing ErrInsufficientFunds otherwise.
func (l *Ledger) AssertAvailableForEscrow(acct, asset string, delta *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.entry(acct, asset)
	available := saturatingSub(a.total, a.locked)

	if delta.Cmp(available) > 0 {
		return ErrInsufficientFunds
	}

	return nil
}

// AssertAvailableForWithdrawal requires that delta is both strictly
// positive and available for withdrawal, failing ErrInsufficientFunds
// otherwise.
func (l *Ledger) AssertAvailableForWithdrawal(acct, asset string, delta *big.Int) error {
	if delta.Sign() <= 0 {
		return ErrInsufficientFunds
	}

	return l.AssertAvailableForEscrow(acct, asset, delta)
}

// Audit walks every (account, asset) balance and reports any that violate
// locked <= total (I6). A production deployment's healthcheck observation
// calls this on an interval; a clean result is an empty slice.
func (l *Ledger) Audit() []Violation {
	l.mu.Lock()
	defer l.mu.Unlock()

	var violations []Violation

	for k, a := range l.balances {
		if a.locked.Cmp(a.total) > 0 {
			violations = append(violations, Violation{
				Account: k.account,
				Asset:   k.asset,
				Total:   new(big.Int).Set(a.total),
				Locked:  new(big.Int).Set(a.locked),
			})
		}
	}

	return violations
}

// Violation describes a single (account, asset) balance that has violated
// locked <= total.
type Violation struct {
	Account string
	Asset   string
	Total   *big.Int
	Locked  *big.Int
}
