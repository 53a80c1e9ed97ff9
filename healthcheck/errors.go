package healthcheck

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/ledger"
)

// InvariantViolationError reports one or more (account, asset) balances
// that violate locked <= total (P1).
type InvariantViolationError struct {
	Violations []ledger.Violation
}

func (e *InvariantViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s/%s: locked=%s > total=%s",
			v.Account, v.Asset, v.Locked, v.Total)
	}

	return fmt.Sprintf("ledger invariant violated: %s", strings.Join(parts, ", "))
}

// StalledSettlementsError reports escrows whose settlement appears stuck.
type StalledSettlementsError struct {
	Hashlocks []chainhash.Hash
}

func (e *StalledSettlementsError) Error() string {
	return fmt.Sprintf("%d escrow(s) claimed with no settlement observed past grace period",
		len(e.Hashlocks))
}
