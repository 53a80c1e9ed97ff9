package rpc

import (
	"encoding/json"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/signedorder"
	"github.com/lightninglabs/swapcore/timelock"
)

// errorResponse is the body written for any handler that returns a
// non-nil error.
type errorResponse struct {
	Error string `json:"error"`
}

type registerKeysRequest struct {
	Account string   `json:"account"`
	PubKeys []string `json:"pub_keys"` // hex-encoded ed25519 public keys
}

type getRegisteredKeysRequest struct {
	Account string `json:"account"`
}

type getRegisteredKeysResponse struct {
	PubKeys []string `json:"pub_keys"`
}

type withdrawDepositRequest struct {
	Account string `json:"account"`
	Token   string `json:"token"`
	Amount  string `json:"amount"` // decimal big.Int
}

type getAvailableBalanceRequest struct {
	Account string `json:"account"`
	Token   string `json:"token"`
}

type getAvailableBalanceResponse struct {
	Available string `json:"available"`
}

// ftOnTransferRequest is the single inbound shape for the FT custodian's
// transfer-notification callback. Msg is a dynamically typed tagged union
// (see msgEnvelope and its variants below) and is decoded only after the
// envelope's "type" discriminator has been read; SafetyDeposit carries a
// native deposit attached to the same call, required only by the
// CreateDestinationEscrow variant.
type ftOnTransferRequest struct {
	Sender        string          `json:"sender"`
	Token         string          `json:"token"`
	Amount        string          `json:"amount"`
	Msg           json.RawMessage `json:"msg"`
	SafetyDeposit int64           `json:"safety_deposit"`
}

// msgEnvelope is decoded first, to read the tagged union's discriminator
// before committing to a variant.
type msgEnvelope struct {
	Type string `json:"type"`
}

const (
	msgTypeDeposit                 = "Deposit"
	msgTypeCreateDestinationEscrow = "CreateDestinationEscrow"
)

// createDestinationEscrowMsg is the CreateDestinationEscrow msg variant.
type createDestinationEscrowMsg struct {
	Hashlock  string     `json:"hashlock"` // hex, 32 bytes
	MakerID   string     `json:"maker_id"`
	Timelocks delaysWire `json:"timelocks"`
}

type delaysWire struct {
	SrcWithdrawal         uint64 `json:"src_withdrawal"`
	SrcPublicWithdrawal   uint64 `json:"src_public_withdrawal"`
	SrcCancellation       uint64 `json:"src_cancellation"`
	SrcPublicCancellation uint64 `json:"src_public_cancellation"`
	DstWithdrawal         uint64 `json:"dst_withdrawal"`
	DstPublicWithdrawal   uint64 `json:"dst_public_withdrawal"`
	DstCancellation       uint64 `json:"dst_cancellation"`
}

func (d delaysWire) toDelays() timelock.Delays {
	return timelock.Delays{
		SrcWithdrawal:         d.SrcWithdrawal,
		SrcPublicWithdrawal:   d.SrcPublicWithdrawal,
		SrcCancellation:       d.SrcCancellation,
		SrcPublicCancellation: d.SrcPublicCancellation,
		DstWithdrawal:         d.DstWithdrawal,
		DstPublicWithdrawal:   d.DstPublicWithdrawal,
		DstCancellation:       d.DstCancellation,
	}
}

type initiateSourceEscrowRequest struct {
	Order         orderWire `json:"order"`
	Signature     string    `json:"signature"` // hex
	PubKey        string    `json:"pub_key"`    // hex
	Resolver      string    `json:"resolver"`
	SafetyDeposit int64     `json:"safety_deposit"`
}

type orderWire struct {
	Nonce     string     `json:"nonce"` // decimal
	MakerID   string     `json:"maker_id"`
	AssetID   string     `json:"asset_id"`
	Amount    string     `json:"amount"` // decimal
	Hashlock  string     `json:"hashlock"`
	Delays    delaysWire `json:"delays"`
}

func (o orderWire) toOrder() (signedorder.Order, error) {
	nonce, ok := new(big.Int).SetString(o.Nonce, 10)
	if !ok {
		return signedorder.Order{}, ErrBadHexOrDecimal
	}

	amount, ok := new(big.Int).SetString(o.Amount, 10)
	if !ok {
		return signedorder.Order{}, ErrBadHexOrDecimal
	}

	hashlock, err := decodeHashlock(o.Hashlock)
	if err != nil {
		return signedorder.Order{}, err
	}

	return signedorder.Order{
		Nonce:     nonce,
		MakerID:   o.MakerID,
		AssetID:   o.AssetID,
		Amount:    amount,
		Hashlock:  hashlock,
		Timelocks: o.Delays.toDelays(),
	}, nil
}

func decodeHashlock(s string) (chainhash.Hash, error) {
	raw, err := hexDecode(s)
	if err != nil {
		return chainhash.Hash{}, ErrBadHexOrDecimal
	}
	if len(raw) != chainhash.HashSize {
		return chainhash.Hash{}, ErrBadHexOrDecimal
	}

	var h chainhash.Hash
	copy(h[:], raw)
	return h, nil
}

type claimRequest struct {
	Secret string `json:"secret"` // hex
	Caller string `json:"caller"`
}

type cancelRequest struct {
	Hashlock string `json:"hashlock"` // hex
	Caller   string `json:"caller"`
}

type auditLedgerResponse struct {
	Violations []violationWire `json:"violations"`
}

type violationWire struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Total   string `json:"total"`
	Locked  string `json:"locked"`
}
