// Package rpc provides the JSON-over-HTTP business API and the gRPC
// health/metrics side channel for a swapcore daemon.
//
// Every mutating endpoint (register_keys, withdraw_deposit,
// ft_on_transfer, initiate_source_escrow, claim, cancel) requires a
// bearer macaroon carrying the "write" permission, presented in the
// request's Macaroon header as a hex-encoded string. The three read-only
// endpoints (get_registered_keys, get_available_balance, audit_ledger)
// accept either a "read" or a "write" macaroon.
package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"net"
	"net/http"
	"time"

	"gopkg.in/macaroon-bakery.v2/bakery"

	"github.com/lightninglabs/swapcore/coordinator"
)

// Config bundles the dependencies needed to run the JSON business API.
type Config struct {
	Coordinator *coordinator.Coordinator
	Macaroons   *MacaroonService
	Address     string // "IP:port"
}

// Server is the JSON-over-HTTP business API server.
type Server struct {
	cfg        Config
	httpServer *http.Server
	listener   net.Listener
}

// NewServer constructs a Server and binds its listener, but does not yet
// accept connections — call Start for that.
func NewServer(cfg Config) (*Server, error) {
	mux := http.NewServeMux()
	s := &Server{cfg: cfg}

	mux.HandleFunc("/v1/register_keys", s.withAuth(opWrite, s.handleRegisterKeys))
	mux.HandleFunc("/v1/get_registered_keys", s.withAuth(opRead, s.handleGetRegisteredKeys))
	mux.HandleFunc("/v1/withdraw_deposit", s.withAuth(opWrite, s.handleWithdrawDeposit))
	mux.HandleFunc("/v1/get_available_balance", s.withAuth(opRead, s.handleGetAvailableBalance))
	mux.HandleFunc("/v1/ft_on_transfer", s.withAuth(opWrite, s.handleFTOnTransfer))
	mux.HandleFunc("/v1/initiate_source_escrow", s.withAuth(opWrite, s.handleInitiateSourceEscrow))
	mux.HandleFunc("/v1/claim", s.withAuth(opWrite, s.handleClaim))
	mux.HandleFunc("/v1/cancel", s.withAuth(opWrite, s.handleCancel))
	mux.HandleFunc("/v1/audit_ledger", s.withAuth(opRead, s.handleAuditLedger))

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start serves the API. It blocks until the server is shut down, and
// returns http.ErrServerClosed on a graceful Stop.
func (s *Server) Start() error {
	log.Infof("starting JSON RPC server on %s", s.Addr())
	return s.httpServer.Serve(s.listener)
}

// Stop gracefully shuts the server down, letting in-flight requests
// finish within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withAuth wraps handler with macaroon verification against op.
func (s *Server) withAuth(op bakery.Op, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mac, err := macaroonFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if err := s.cfg.Macaroons.Authorize(r.Context(), mac, op); err != nil {
			writeError(w, http.StatusForbidden, err)
			return
		}

		handler(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encode response: %v", wrap(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch err {
	case coordinator.ErrNotFound:
		return http.StatusNotFound
	case coordinator.ErrHashlockCollision, coordinator.ErrAlreadyClaimed,
		coordinator.ErrNonceReused:
		return http.StatusConflict
	case coordinator.ErrWrongPhase, coordinator.ErrInvalidTimelocks,
		coordinator.ErrBadSig, coordinator.ErrBadSigFormat,
		coordinator.ErrKeyNotRegistered, coordinator.ErrInvalidAmount,
		coordinator.ErrFieldOutOfRange, coordinator.ErrMissingSafetyDeposit,
		ErrBadHexOrDecimal, ErrBadPayload:
		return http.StatusBadRequest
	case coordinator.ErrInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleRegisterKeys(w http.ResponseWriter, r *http.Request) {
	var req registerKeysRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pubKeys := make([][]byte, len(req.PubKeys))
	for i, hexKey := range req.PubKeys {
		raw, err := hexDecode(hexKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrBadHexOrDecimal)
			return
		}
		pubKeys[i] = raw
	}

	if err := s.cfg.Coordinator.RegisterKeys(req.Account, pubKeys); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleGetRegisteredKeys(w http.ResponseWriter, r *http.Request) {
	var req getRegisteredKeysRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	keys := s.cfg.Coordinator.GetRegisteredKeys(req.Account)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = hexEncode(k)
	}

	writeJSON(w, http.StatusOK, getRegisteredKeysResponse{PubKeys: out})
}

func (s *Server) handleWithdrawDeposit(w http.ResponseWriter, r *http.Request) {
	var req withdrawDepositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrBadHexOrDecimal)
		return
	}

	if err := s.cfg.Coordinator.WithdrawDeposit(req.Account, req.Token, amount); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleGetAvailableBalance(w http.ResponseWriter, r *http.Request) {
	var req getAvailableBalanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	avail := s.cfg.Coordinator.GetAvailableBalance(req.Account, req.Token)
	writeJSON(w, http.StatusOK, getAvailableBalanceResponse{Available: avail.String()})
}

// handleFTOnTransfer is the sole entry point for the FT custodian's
// transfer-notification callback. msg is a dynamically typed JSON tagged
// union (§9's "most delicate" boundary): it is normalized to a typed
// variant immediately, by its "type" discriminator, and any parse failure
// — an unrecognized type, or a variant missing required fields — is
// rejected as ErrBadPayload rather than partially acted on.
func (s *Server) handleFTOnTransfer(w http.ResponseWriter, r *http.Request) {
	var req ftOnTransferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrBadHexOrDecimal)
		return
	}

	var env msgEnvelope
	if err := json.Unmarshal(req.Msg, &env); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadPayload)
		return
	}

	switch env.Type {
	case msgTypeDeposit:
		if err := s.cfg.Coordinator.DepositFT(req.Sender, req.Token, amount); err != nil {
			writeError(w, statusFor(err), err)
			return
		}

	case msgTypeCreateDestinationEscrow:
		var variant createDestinationEscrowMsg
		if err := json.Unmarshal(req.Msg, &variant); err != nil {
			writeError(w, http.StatusBadRequest, ErrBadPayload)
			return
		}

		hashlock, err := decodeHashlock(variant.Hashlock)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		err = s.cfg.Coordinator.CreateDestinationEscrow(
			req.Sender, req.Token, amount, hashlock, variant.MakerID,
			variant.Timelocks.toDelays(), btcutilAmount(req.SafetyDeposit),
		)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

	default:
		writeError(w, http.StatusBadRequest, ErrBadPayload)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleInitiateSourceEscrow(w http.ResponseWriter, r *http.Request) {
	var req initiateSourceEscrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := req.Order.toOrder()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sig, err := hexDecode(req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrBadHexOrDecimal)
		return
	}

	pubKey, err := hexDecode(req.PubKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrBadHexOrDecimal)
		return
	}

	err = s.cfg.Coordinator.InitiateSourceEscrow(
		order, sig, pubKey, req.Resolver, btcutilAmount(req.SafetyDeposit),
	)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	secret, err := hexDecode(req.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrBadHexOrDecimal)
		return
	}

	if err := s.cfg.Coordinator.Claim(secret, req.Caller); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	hashlock, err := decodeHashlock(req.Hashlock)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.cfg.Coordinator.Cancel(hashlock, req.Caller); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleAuditLedger(w http.ResponseWriter, r *http.Request) {
	violations := s.cfg.Coordinator.AuditLedger()

	out := make([]violationWire, len(violations))
	for i, v := range violations {
		out[i] = violationWire{
			Account: v.Account,
			Asset:   v.Asset,
			Total:   v.Total.String(),
			Locked:  v.Locked.String(),
		}
	}

	writeJSON(w, http.StatusOK, auditLedgerResponse{Violations: out})
}
