package timelock

import (
	"github.com/btcsuite/btclog"
	"github.com/lightninglabs/swapcore/build"
)

const subsystem = "TMLK"

var log = build.NewSubLogger(nil, subsystem)

// UseLogger sets the subsystem logger used by this package. The daemon
// calls this during startup to bind every package's logger to a shared
// rotating backend; tests may leave it unset.
func UseLogger(logger btclog.Logger) {
	log = logger
}
