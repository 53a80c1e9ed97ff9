package ledger

import "math/big"

// Store is the set of operations the coordinator needs from a deposit
// ledger. *Ledger is the in-memory implementation; store/sqlstore
// provides a durable one — both satisfy this interface so the
// coordinator can be wired against either.
type Store interface {
	Total(acct, asset string) *big.Int
	Locked(acct, asset string) *big.Int
	Available(acct, asset string) *big.Int

	CreditTotal(acct, asset string, delta *big.Int)
	DebitTotal(acct, asset string, delta *big.Int)
	CreditLocked(acct, asset string, delta *big.Int) error
	DebitLocked(acct, asset string, delta *big.Int)

	AssertAvailableForEscrow(acct, asset string, delta *big.Int) error
	AssertAvailableForWithdrawal(acct, asset string, delta *big.Int) error

	Audit() []Violation
}

var _ Store = (*Ledger)(nil)
