package main

import (
	"github.com/btcsuite/btclog"

	"github.com/lightninglabs/swapcore/build"
	"github.com/lightninglabs/swapcore/coordinator"
	"github.com/lightninglabs/swapcore/escrowstore"
	"github.com/lightninglabs/swapcore/healthcheck"
	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/rpc"
	"github.com/lightninglabs/swapcore/signedorder"
	"github.com/lightninglabs/swapcore/store/sqlstore"
	"github.com/lightninglabs/swapcore/timelock"
)

// swapdLog is this package's own subsystem logger.
var swapdLog = build.NewSubLogger(nil, "SWPD")

// subsystemLoggers maps every subsystem tag to the UseLogger function its
// package exposes, the same registry lnd's log.go builds so debuglevel
// can target any of them by name.
var subsystemLoggers = map[string]func(btclog.Logger){
	"SWPD": func(l btclog.Logger) { swapdLog = l },
	"TMLK": timelock.UseLogger,
	"SORD": signedorder.UseLogger,
	"LDGR": ledger.UseLogger,
	"ESCR": escrowstore.UseLogger,
	"COOR": coordinator.UseLogger,
	"HLCK": healthcheck.UseLogger,
	"SQLS": sqlstore.UseLogger,
	"RPCS": rpc.UseLogger,
}

// initLogging creates a rotating file+stdout backend at logPath and wires
// every subsystem's logger to it at the given level.
func initLogging(logPath, level string) (*build.LoggingRotator, error) {
	rotator, err := build.NewRotatingLogWriter(logPath, 10, 3)
	if err != nil {
		return nil, err
	}

	backend := btclog.NewBackend(rotator)

	for subsystem, setLogger := range subsystemLoggers {
		logger := backend.Logger(subsystem)
		logger.SetLevel(parseLevel(level))
		setLogger(logger)
	}

	return rotator, nil
}

func parseLevel(level string) btclog.Level {
	l, ok := btclog.LevelFromString(level)
	if !ok {
		return btclog.LevelInfo
	}
	return l
}
