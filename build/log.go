// Package build provides small, dependency-light helpers shared by every
// package's logging setup, mirroring lnd's own build package.
package build

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// LoggingRotator wraps a rotator.Rotator so it can be used as an
// io.WriteCloser backend for btclog, rotating the daemon's log file on
// size, the way lnd rotates lnd.log.
type LoggingRotator struct {
	*rotator.Rotator
}

// NewRotatingLogWriter creates a rotator.Rotator writing to logFile, with a
// maximum size of maxSizeMB megabytes and keeping maxFiles old copies.
func NewRotatingLogWriter(logFile string, maxSizeMB, maxFiles int) (*LoggingRotator, error) {
	r, err := rotator.New(logFile, int64(maxSizeMB*1024), false, maxFiles)
	if err != nil {
		return nil, err
	}

	return &LoggingRotator{Rotator: r}, nil
}

// NewSubLogger creates a btclog.Logger for the named subsystem, backed by
// the given backend (or, if nil, stdout only). Every package in this
// module declares its own subsystem name the way lnd's packages do
// ("TMLK", "SORD", "LDGR", "ESCR", "COOR", ...).
func NewSubLogger(backend *btclog.Backend, subsystem string) btclog.Logger {
	if backend == nil {
		backend = btclog.NewBackend(os.Stdout)
	}

	logger := backend.Logger(subsystem)
	logger.SetLevel(btclog.LevelInfo)

	return logger
}
