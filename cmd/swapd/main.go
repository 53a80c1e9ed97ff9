// Command swapd runs the escrow coordinator daemon: the JSON business
// API, the gRPC health/metrics side channel, and the background
// invariant-health monitor, all wired against a durable SQLite-backed
// store.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/lightninglabs/swapcore/clock"
	"github.com/lightninglabs/swapcore/coordinator"
	"github.com/lightninglabs/swapcore/healthcheck"
	"github.com/lightninglabs/swapcore/hostiface"
	"github.com/lightninglabs/swapcore/rpc"
	"github.com/lightninglabs/swapcore/store/sqlstore"
	"github.com/lightninglabs/swapcore/ticker"
)

var shutdownChannel = make(chan struct{})

// swapdMain is the true entry point, split out from main the way lndMain
// is split from lnd's main so deferred cleanups still run on a graceful
// shutdown triggered by a signal rather than os.Exit.
func swapdMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rotator, err := initLogging(cfg.logPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer rotator.Close()

	swapdLog.Infof("swapd starting, data dir %s", cfg.DataDir)

	store, err := sqlstore.Open(cfg.dbPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	healthInterval, err := time.ParseDuration(cfg.HealthCheckInterval)
	if err != nil {
		return fmt.Errorf("parse healthcheckinterval: %w", err)
	}

	coord := coordinator.New(coordinator.Config{
		FTCustodian:      unconfiguredCustodian{},
		NativeTransferer: unconfiguredTransferer{},
		Clock:            clock.NewDefaultClock(),
		Ledger:           store,
		Escrows:          store,
	})
	if err := coord.Start(); err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}
	defer coord.Stop()

	macaroonSvc := rpc.NewMacaroonService()

	httpServer, err := rpc.NewServer(rpc.Config{
		Coordinator: coord,
		Macaroons:   macaroonSvc,
		Address:     cfg.HTTPAddr,
	})
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			swapdLog.Errorf("http server stopped: %v", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Stop(ctx)
	}()

	sideChannel, err := rpc.NewSideChannel(cfg.GRPCAddr, cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("start side channel: %w", err)
	}
	sideChannel.Start()
	defer sideChannel.Stop()

	monitor := healthcheck.NewMonitor(ticker.New(healthInterval), []healthcheck.Observation{
		healthcheck.LedgerInvariantObservation(coord),
		healthcheck.StalledSettlementObservation(coord, time.Now, 24*time.Hour),
	})
	monitor.Start()
	defer monitor.Stop()

	go watchMonitorLoop(monitor, sideChannel, healthInterval)

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		swapdLog.Debugf("systemd notify failed (likely not running under systemd): %v", err)
	}

	swapdLog.Infof("swapd ready: http=%s grpc=%s metrics=%s",
		cfg.HTTPAddr, cfg.GRPCAddr, cfg.MetricsAddr)

	addInterruptHandler(func() {
		swapdLog.Info("received shutdown signal")
	})

	<-shutdownChannel
	swapdLog.Info("swapd shutting down")

	return nil
}

// watchMonitorLoop mirrors the healthcheck.Monitor's verdict into the
// gRPC health service on the same cadence the monitor itself runs on.
func watchMonitorLoop(mon *healthcheck.Monitor, sc *rpc.SideChannel, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			rpc.WatchMonitor(sc, mon)
		case <-shutdownChannel:
			return
		}
	}
}

// addInterruptHandler spawns a goroutine that invokes callback once on
// the first SIGINT/SIGTERM, then closes shutdownChannel so swapdMain's
// wait returns. Subsequent signals are ignored, mirroring lnd's
// single-shot interrupt handler.
func addInterruptHandler(callback func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		callback()
		close(shutdownChannel)
	}()
}

// unconfiguredCustodian is the FTCustodian placeholder wired by default.
// A real deployment replaces this with a client for its chosen chain's
// token custodian before going live — the custodian is explicitly an
// out-of-scope host capability this core never implements itself.
type unconfiguredCustodian struct{}

func (unconfiguredCustodian) Transfer(ctx context.Context, tokenID, recipient string, amount *big.Int) error {
	return fmt.Errorf("swapd: no FT custodian configured")
}

// unconfiguredTransferer is the NativeTransferer placeholder wired by
// default, for the same reason as unconfiguredCustodian.
type unconfiguredTransferer struct{}

func (unconfiguredTransferer) TransferNative(ctx context.Context, recipient string, amount btcutil.Amount) error {
	return fmt.Errorf("swapd: no native transferer configured")
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := swapdMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var _ hostiface.FTCustodian = unconfiguredCustodian{}
var _ hostiface.NativeTransferer = unconfiguredTransferer{}
