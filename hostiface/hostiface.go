// Package hostiface declares the abstract host capabilities the
// coordinator depends on but does not implement itself: the external
// fungible-token custodian that actually moves tokens, and the chain's
// native-asset transferer that pays out safety deposits. Both are
// asynchronous from the coordinator's point of view — a dispatch may
// succeed, fail, or be lost by the host without ever completing, the same
// way an on-chain broadcast can vanish from lnd's point of view once
// handed to the backend wallet.
package hostiface

import (
	"context"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
)

// FTCustodian is the external fungible-token custodian that the
// coordinator instructs to move a token balance to a recipient. A real
// deployment backs this with a chain-specific RPC client; tests back it
// with a scriptable stub.
type FTCustodian interface {
	// Transfer moves amount of the token identified by tokenID to
	// recipient. It blocks until the custodian has confirmed or
	// rejected the transfer, or ctx is done.
	Transfer(ctx context.Context, tokenID, recipient string, amount *big.Int) error
}

// NativeTransferer pays out the chain's native asset — used exclusively
// for safety-deposit payouts, which reward whoever finalizes a claim or
// cancel.
type NativeTransferer interface {
	// TransferNative pays amount of the native asset to recipient.
	TransferNative(ctx context.Context, recipient string, amount btcutil.Amount) error
}
