package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultDataDir     = "data"
	defaultLogDir      = "logs"
	defaultLogFilename = "swapd.log"
	defaultLogLevel    = "info"
	defaultDBFilename  = "swapcore.db"

	defaultHTTPAddr    = "localhost:8420"
	defaultGRPCAddr    = "localhost:8421"
	defaultMetricsAddr = "localhost:8422"
)

// config holds every daemon-level setting. Grounded on lnd's own config
// struct shape (a flat struct of flags.Default-tagged fields, loaded once
// at startup), but scoped to what this daemon actually needs: no chain
// backend selection, since the chain runtime is an out-of-scope host
// capability here.
type config struct {
	DataDir  string `long:"datadir" description:"directory to store the swap ledger and escrow database in"`
	LogDir   string `long:"logdir" description:"directory to store daemon logs in"`
	LogLevel string `long:"loglevel" description:"logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	HTTPAddr    string `long:"httpaddr" description:"host:port the JSON business API listens on"`
	GRPCAddr    string `long:"grpcaddr" description:"host:port the gRPC health service listens on"`
	MetricsAddr string `long:"metricsaddr" description:"host:port the Prometheus metrics endpoint listens on"`

	HealthCheckInterval string `long:"healthcheckinterval" description:"how often to run the ledger/escrow invariant sweep (Go duration syntax)"`
}

func defaultConfig() config {
	return config{
		DataDir:             defaultDataDir,
		LogDir:              defaultLogDir,
		LogLevel:            defaultLogLevel,
		HTTPAddr:            defaultHTTPAddr,
		GRPCAddr:            defaultGRPCAddr,
		MetricsAddr:         defaultMetricsAddr,
		HealthCheckInterval: "30s",
	}
}

// loadConfig parses command-line flags over the defaults, creating the
// data and log directories if they don't yet exist.
func loadConfig() (*config, error) {
	cfg := defaultConfig()

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	return &cfg, nil
}

func (c *config) dbPath() string {
	return filepath.Join(c.DataDir, defaultDBFilename)
}

func (c *config) logPath() string {
	return filepath.Join(c.LogDir, defaultLogFilename)
}
