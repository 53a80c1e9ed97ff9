package ledger

import "errors"

// ErrInsufficientFunds is returned when an operation would lock, debit, or
// withdraw more than an account has available.
var ErrInsufficientFunds = errors.New("ledger: insufficient available funds")
