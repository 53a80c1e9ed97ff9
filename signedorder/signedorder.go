// Package signedorder implements canonical serialization and Ed25519
// signature verification of maker-signed swap orders, plus nonce replay
// protection.
//
// A SignedOrder is the off-chain message a maker signs to authorize a
// taker to open a source-side escrow on the maker's behalf. The wire
// encoding is a fixed, declaration-order binary layout (mirroring the
// Borsh encoding used by the original NEAR contract this design is
// distilled from) so that both sides of a swap compute byte-identical
// signing material.
package signedorder

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/timelock"
)

// u128Bytes is the fixed width, in bytes, of a little-endian encoded
// 128-bit unsigned integer (Nonce, Amount).
const u128Bytes = 16

// Order is the set of fields a maker signs to authorize an escrow. Fields
// are serialized in this declaration order.
type Order struct {
	Nonce     *big.Int
	MakerID   string
	AssetID   string
	Amount    *big.Int
	Hashlock  chainhash.Hash
	Timelocks timelock.Delays
}

// encodeU128LE encodes v as a fixed-width 16-byte little-endian integer.
// It returns ErrFieldOutOfRange if v is negative or does not fit in 128
// bits.
func encodeU128LE(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 {
		return nil, ErrFieldOutOfRange
	}

	be := v.Bytes()
	if len(be) > u128Bytes {
		return nil, ErrFieldOutOfRange
	}

	out := make([]byte, u128Bytes)
	for i, b := range be {
		out[u128Bytes-len(be)+i] = b
	}

	// be is big-endian; reverse into little-endian.
	for i, j := 0, u128Bytes-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

func appendLengthPrefixed(buf []byte, s string) []byte {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))

	buf = append(buf, lenBytes[:]...)
	buf = append(buf, s...)

	return buf
}

// Serialize produces the canonical byte encoding of the order that the
// maker signs and the verifier recomputes: nonce (u128 LE), maker_id
// (length-prefixed utf8), asset_id (length-prefixed utf8), amount (u128
// LE), hashlock (32 raw bytes), and the seven timelock delays (u64 LE,
// declaration order).
func (o Order) Serialize() ([]byte, error) {
	nonceBytes, err := encodeU128LE(o.Nonce)
	if err != nil {
		return nil, err
	}

	amountBytes, err := encodeU128LE(o.Amount)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, u128Bytes+4+len(o.MakerID)+4+len(o.AssetID)+u128Bytes+chainhash.HashSize+7*8)

	buf = append(buf, nonceBytes...)
	buf = appendLengthPrefixed(buf, o.MakerID)
	buf = appendLengthPrefixed(buf, o.AssetID)
	buf = append(buf, amountBytes...)
	buf = append(buf, o.Hashlock[:]...)

	delays := []uint64{
		o.Timelocks.SrcWithdrawal,
		o.Timelocks.SrcPublicWithdrawal,
		o.Timelocks.SrcCancellation,
		o.Timelocks.SrcPublicCancellation,
		o.Timelocks.DstWithdrawal,
		o.Timelocks.DstPublicWithdrawal,
		o.Timelocks.DstCancellation,
	}

	var u64Bytes [8]byte
	for _, d := range delays {
		binary.LittleEndian.PutUint64(u64Bytes[:], d)
		buf = append(buf, u64Bytes[:]...)
	}

	return buf, nil
}

// NonceSet tracks nonces already consumed by a verified order, per
// coordinator instance. It is not safe for concurrent use without an
// external lock; the coordinator package serializes all access to it the
// same way it serializes everything else.
type NonceSet struct {
	seen map[string]struct{}
}

// NewNonceSet returns an empty NonceSet.
func NewNonceSet() *NonceSet {
	return &NonceSet{seen: make(map[string]struct{})}
}

// Contains reports whether nonce has already been consumed.
func (s *NonceSet) Contains(nonce *big.Int) bool {
	_, ok := s.seen[nonce.String()]
	return ok
}

// insert marks nonce as consumed.
func (s *NonceSet) insert(nonce *big.Int) {
	s.seen[nonce.String()] = struct{}{}
}

// Verify checks that sig is a valid Ed25519 signature by pubKey over the
// canonical encoding of order, and that order.Nonce has not already been
// consumed in nonceSet.
//
// Nonce consumption is irreversible once this call returns nil: step 6
// inserts the nonce into nonceSet as soon as the signature check passes,
// before the caller has had a chance to perform any further validation
// (e.g. InitiateSourceEscrow's hashlock-collision or timelock checks). A
// caller that wants "verify without committing" semantics must snapshot
// and restore nonceSet itself; this package does not offer a dry-run mode.
//
// Callers are responsible for ensuring pubKey is a key actually registered
// to order.MakerID before calling Verify; this function performs no such
// lookup.
func Verify(order Order, sig, pubKey []byte, nonceSet *NonceSet) error {
	if nonceSet.Contains(order.Nonce) {
		return ErrNonceReused
	}

	msg, err := order.Serialize()
	if err != nil {
		return err
	}

	digest := sha256.Sum256(msg)

	if len(sig) != ed25519.SignatureSize {
		return ErrBadSigFormat
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return ErrBadSigFormat
	}

	if !ed25519.Verify(pubKey, digest[:], sig) {
		return ErrBadSig
	}

	nonceSet.insert(order.Nonce)

	log.Debugf("order verified: maker=%s nonce=%s asset=%s",
		order.MakerID, order.Nonce, order.AssetID)

	return nil
}
