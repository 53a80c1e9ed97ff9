// Package escrowstore implements the keyed repository of active escrows:
// a mapping from a 32-byte EscrowId (the SHA256 hashlock of the swap's
// secret) to its Escrow record, and the record's claimed-flag lifecycle.
package escrowstore

import (
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightninglabs/swapcore/timelock"
)

// EscrowId is the escrow's hashlock, SHA256(secret), and the store's
// primary key (I1).
type EscrowId = chainhash.Hash

// Asset identifies what is held by an escrow. The only case implemented
// today is a fungible token on an external custodian; it is expressed as
// an interface with a single implementation so a future on-chain-native
// case can be added without changing any caller's type.
type Asset interface {
	isAsset()
}

// FT is the fungible-token Asset case, carrying the identifier of the
// external custodian contract/account that holds the token.
type FT struct {
	TokenID string
}

func (FT) isAsset() {}

// Escrow is the escrow store's record type. It is immutable after
// creation except for Claimed, which is set true before a settlement is
// dispatched (I4) and set back to false only if that settlement fails.
type Escrow struct {
	Hashlock      EscrowId
	Maker         string
	Taker         string
	Asset         Asset
	Amount        *big.Int
	SafetyDeposit btcutil.Amount
	IsSource      bool
	Timelocks     timelock.Timelocks
	Claimed       bool
}

// Validate enforces the escrow's creation-time invariants: amount > 0
// (I2) and safety deposit > 0 (I3).
func (e Escrow) Validate() error {
	if e.Amount == nil || e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.SafetyDeposit <= 0 {
		return ErrMissingSafetyDeposit
	}

	return nil
}

// Store is the in-memory escrow repository, guarded by a single mutex.
type Store struct {
	mu      sync.Mutex
	escrows map[EscrowId]*Escrow
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		escrows: make(map[EscrowId]*Escrow),
	}
}

// Insert adds a new escrow keyed by its hashlock. It fails
// ErrHashlockCollision if the key is already occupied (I1: hashlock is the
// primary key, so it can never be silently overwritten).
func (s *Store) Insert(e Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.escrows[e.Hashlock]; ok {
		return ErrHashlockCollision
	}

	cp := e
	s.escrows[e.Hashlock] = &cp

	log.Debugf("escrow inserted: hashlock=%v is_source=%v maker=%s taker=%s",
		e.Hashlock, e.IsSource, e.Maker, e.Taker)

	return nil
}

// Get returns the current record for id, or ErrNotFound.
func (s *Store) Get(id EscrowId) (Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.escrows[id]
	if !ok {
		return Escrow{}, ErrNotFound
	}

	return *e, nil
}

// SetClaimed sets the escrow's Claimed flag. The normal lifecycle only
// ever sets it true before dispatching a settlement (I4) and, on a failed
// settlement callback, back to false so the escrow becomes eligible for a
// later claim/cancel attempt (L4).
func (s *Store) SetClaimed(id EscrowId, claimed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.escrows[id]
	if !ok {
		return ErrNotFound
	}

	e.Claimed = claimed

	return nil
}

// Forget removes an escrow's record entirely. The normal lifecycle never
// calls this — settled escrows are retained by default for forensic
// retention — but it is exposed for operators that want to manage storage
// growth after a settlement callback has completed successfully.
func (s *Store) Forget(id EscrowId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.escrows[id]; !ok {
		return ErrNotFound
	}

	delete(s.escrows, id)

	return nil
}

// All returns a snapshot of every escrow currently in the store, used by
// the healthcheck reconciliation loop (A2) to scan for stalled
// settlements.
func (s *Store) All() []Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Escrow, 0, len(s.escrows))
	for _, e := range s.escrows {
		out = append(out, *e)
	}

	return out
}
