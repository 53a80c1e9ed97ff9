package coordinator

import (
	"github.com/btcsuite/btclog"
	"github.com/lightninglabs/swapcore/build"
)

const subsystem = "COOR"

var log = build.NewSubLogger(nil, subsystem)

// UseLogger sets the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
