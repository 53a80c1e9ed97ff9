package rpc

import (
	"context"
	"net"
	"net/http"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lightninglabs/swapcore/healthcheck"
)

// loggingUnaryInterceptor logs every gRPC call on the health side channel
// at debug level with its latency, the way rpcserver's own interceptor
// chain logs each request.
func loggingUnaryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {

	start := time.Now()
	resp, err := handler(ctx, req)
	log.Debugf("grpc call %s took %s", info.FullMethod, time.Since(start))
	return resp, err
}

// SideChannel is the operator-facing gRPC health check plus Prometheus
// metrics endpoint, kept deliberately separate from the business API in
// Server so that a load balancer or orchestrator can probe liveness
// without ever presenting a macaroon.
type SideChannel struct {
	grpcServer  *grpc.Server
	healthSrv   *health.Server
	httpServer  *http.Server
	grpcLis     net.Listener
	httpLis     net.Listener
}

// NewSideChannel binds a gRPC listener at grpcAddr (serving the standard
// grpc.health.v1.Health service, instrumented by go-grpc-prometheus) and
// an HTTP listener at metricsAddr (serving /metrics via promhttp).
func NewSideChannel(grpcAddr, metricsAddr string) (*SideChannel, error) {
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_prometheus.UnaryServerInterceptor,
			loggingUnaryInterceptor,
		)),
		grpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	grpc_prometheus.Register(grpcServer)

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	httpLis, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		grpcLis.Close()
		return nil, err
	}

	return &SideChannel{
		grpcServer: grpcServer,
		healthSrv:  healthSrv,
		httpServer: &http.Server{Handler: mux},
		grpcLis:    grpcLis,
		httpLis:    httpLis,
	}, nil
}

// Start serves both listeners until Stop is called. It does not block;
// errors from either server are logged, not returned, since the caller
// typically runs this for the daemon's lifetime alongside the business
// API.
func (sc *SideChannel) Start() {
	go func() {
		if err := sc.grpcServer.Serve(sc.grpcLis); err != nil {
			log.Errorf("grpc health server stopped: %v", wrap(err))
		}
	}()

	go func() {
		if err := sc.httpServer.Serve(sc.httpLis); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server stopped: %v", wrap(err))
		}
	}()
}

// Stop tears both servers down.
func (sc *SideChannel) Stop() {
	sc.grpcServer.GracefulStop()
	sc.httpServer.Close()
}

// SetServing updates the health service's overall status, called whenever
// the daemon's healthcheck.Monitor reports a change.
func (sc *SideChannel) SetServing(healthy bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}
	sc.healthSrv.SetServingStatus("", status)
}

// WatchMonitor polls mon on every call to healthcheck.Monitor.Healthy and
// mirrors it into the gRPC health service's status. It is meant to be
// driven by the same ticker cadence the monitor itself runs on, from the
// daemon's main loop.
func WatchMonitor(sc *SideChannel, mon *healthcheck.Monitor) {
	sc.SetServing(mon.Healthy())
}
