package rpc

import "github.com/btcsuite/btcd/btcutil"

func btcutilAmount(sats int64) btcutil.Amount {
	return btcutil.Amount(sats)
}
