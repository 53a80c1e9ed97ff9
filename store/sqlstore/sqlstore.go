// Package sqlstore provides a durable, SQL-backed implementation of the
// ledger.Store and escrowstore.Repository interfaces, for a daemon that
// needs its deposit ledger and escrow book to survive a restart.
//
// It is a single schema behind a single *sql.DB, opened against
// modernc.org/sqlite (a pure-Go, cgo-free driver) so the package's own
// tests can exercise real persistence without a C toolchain or a live
// database service.
package sqlstore

import (
	"database/sql"
	"fmt"
	"math/big"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightninglabs/swapcore/escrowstore"
	"github.com/lightninglabs/swapcore/ledger"
	"github.com/lightninglabs/swapcore/timelock"
)

// Store is a durable ledger.Store and escrowstore.Repository backed by a
// single SQLite database. Writes are serialized by mu the way channeldb
// serializes writes behind bbolt's single read-write transaction; SQLite
// itself only allows one writer at a time, but the mutex keeps a
// read-modify-write sequence (e.g. CreditLocked's balance check) atomic
// across the whole operation rather than just the individual statements.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at dsn and runs the
// schema migration. dsn is passed to the driver as-is, so a caller may use
// "file::memory:?cache=shared" for an ephemeral, in-process database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}

	// SQLite allows only one writer; a single connection avoids
	// "database is locked" errors under concurrent access without
	// needing a busy-timeout retry loop.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var (
	_ ledger.Store             = (*Store)(nil)
	_ escrowstore.Repository   = (*Store)(nil)
)

func bigToText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func textToBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func saturatingSub(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	if d.Sign() < 0 {
		return new(big.Int)
	}
	return d
}

// Total returns the account's total balance for asset, or zero if no row
// exists yet.
func (s *Store) Total(acct, asset string) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, _, err := s.readBalance(acct, asset)
	if err != nil {
		log.Errorf("read balance %s/%s: %v", acct, asset, wrap(err))
		return new(big.Int)
	}
	return total
}

// Locked returns the account's locked balance for asset, or zero if no row
// exists yet.
func (s *Store) Locked(acct, asset string) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, locked, err := s.readBalance(acct, asset)
	if err != nil {
		log.Errorf("read balance %s/%s: %v", acct, asset, wrap(err))
		return new(big.Int)
	}
	return locked
}

// Available returns Total minus Locked, saturated at zero.
func (s *Store) Available(acct, asset string) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, locked, err := s.readBalance(acct, asset)
	if err != nil {
		log.Errorf("read balance %s/%s: %v", acct, asset, wrap(err))
		return new(big.Int)
	}
	return saturatingSub(total, locked)
}

func (s *Store) readBalance(acct, asset string) (total, locked *big.Int, err error) {
	row := s.db.QueryRow(
		`SELECT total, locked FROM ledger_balances WHERE account = ? AND asset = ?`,
		acct, asset,
	)

	var totalText, lockedText string
	switch err := row.Scan(&totalText, &lockedText); err {
	case nil:
		return textToBig(totalText), textToBig(lockedText), nil
	case sql.ErrNoRows:
		return new(big.Int), new(big.Int), nil
	default:
		return nil, nil, err
	}
}

func (s *Store) upsertBalance(acct, asset string, total, locked *big.Int) error {
	_, err := s.db.Exec(`
		INSERT INTO ledger_balances (account, asset, total, locked)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (account, asset) DO UPDATE SET total = ?, locked = ?`,
		acct, asset, bigToText(total), bigToText(locked),
		bigToText(total), bigToText(locked),
	)
	return err
}

// CreditTotal adds delta to the account's total balance.
func (s *Store) CreditTotal(acct, asset string, delta *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, locked, err := s.readBalance(acct, asset)
	if err != nil {
		log.Errorf("credit total %s/%s: %v", acct, asset, wrap(err))
		return
	}

	total = new(big.Int).Add(total, delta)
	if err := s.upsertBalance(acct, asset, total, locked); err != nil {
		log.Errorf("credit total %s/%s: %v", acct, asset, wrap(err))
	}
}

// DebitTotal subtracts delta from the account's total balance, saturating
// at zero.
func (s *Store) DebitTotal(acct, asset string, delta *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, locked, err := s.readBalance(acct, asset)
	if err != nil {
		log.Errorf("debit total %s/%s: %v", acct, asset, wrap(err))
		return
	}

	total = saturatingSub(total, delta)
	if err := s.upsertBalance(acct, asset, total, locked); err != nil {
		log.Errorf("debit total %s/%s: %v", acct, asset, wrap(err))
	}
}

// CreditLocked adds delta to the account's locked balance, rejecting the
// operation with ErrInsufficientFunds if doing so would push locked above
// total.
func (s *Store) CreditLocked(acct, asset string, delta *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, locked, err := s.readBalance(acct, asset)
	if err != nil {
		return err
	}

	newLocked := new(big.Int).Add(locked, delta)
	if newLocked.Cmp(total) > 0 {
		return ledger.ErrInsufficientFunds
	}

	return s.upsertBalance(acct, asset, total, newLocked)
}

// DebitLocked subtracts delta from the account's locked balance,
// saturating at zero.
func (s *Store) DebitLocked(acct, asset string, delta *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, locked, err := s.readBalance(acct, asset)
	if err != nil {
		log.Errorf("debit locked %s/%s: %v", acct, asset, wrap(err))
		return
	}

	locked = saturatingSub(locked, delta)
	if err := s.upsertBalance(acct, asset, total, locked); err != nil {
		log.Errorf("debit locked %s/%s: %v", acct, asset, wrap(err))
	}
}

// AssertAvailableForEscrow returns ErrInsufficientFunds unless delta is
// fully covered by the account's available balance.
func (s *Store) AssertAvailableForEscrow(acct, asset string, delta *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, locked, err := s.readBalance(acct, asset)
	if err != nil {
		return err
	}

	if delta.Cmp(saturatingSub(total, locked)) > 0 {
		return ledger.ErrInsufficientFunds
	}
	return nil
}

// AssertAvailableForWithdrawal additionally requires delta be strictly
// positive.
func (s *Store) AssertAvailableForWithdrawal(acct, asset string, delta *big.Int) error {
	if delta == nil || delta.Sign() <= 0 {
		return ledger.ErrInsufficientFunds
	}
	return s.AssertAvailableForEscrow(acct, asset, delta)
}

// Audit scans every balance row for a locked > total violation.
func (s *Store) Audit() []ledger.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT account, asset, total, locked FROM ledger_balances`)
	if err != nil {
		log.Errorf("audit: %v", wrap(err))
		return nil
	}
	defer rows.Close()

	var violations []ledger.Violation
	for rows.Next() {
		var acct, asset, totalText, lockedText string
		if err := rows.Scan(&acct, &asset, &totalText, &lockedText); err != nil {
			log.Errorf("audit: %v", wrap(err))
			continue
		}

		total, locked := textToBig(totalText), textToBig(lockedText)
		if locked.Cmp(total) > 0 {
			violations = append(violations, ledger.Violation{
				Account: acct,
				Asset:   asset,
				Total:   total,
				Locked:  locked,
			})
		}
	}

	return violations
}

// Insert adds a new escrow row keyed by its hashlock, failing
// ErrHashlockCollision if the key is already occupied.
func (s *Store) Insert(e escrowstore.Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenID, err := tokenIDOf(e.Asset)
	if err != nil {
		return err
	}

	d := e.Timelocks.Delays
	_, err = s.db.Exec(`
		INSERT INTO escrows (
			hashlock, maker, taker, token_id, amount, safety_deposit,
			is_source, created_at, src_withdrawal, src_public_withdrawal,
			src_cancellation, src_public_cancellation, dst_withdrawal,
			dst_public_withdrawal, dst_cancellation, claimed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Hashlock[:], e.Maker, e.Taker, tokenID, bigToText(e.Amount),
		int64(e.SafetyDeposit), e.IsSource, e.Timelocks.CreatedAt.Unix(),
		d.SrcWithdrawal, d.SrcPublicWithdrawal, d.SrcCancellation,
		d.SrcPublicCancellation, d.DstWithdrawal, d.DstPublicWithdrawal,
		d.DstCancellation, false,
	)
	if isUniqueViolation(err) {
		return escrowstore.ErrHashlockCollision
	}
	return err
}

// Get returns the current record for id, or ErrNotFound.
func (s *Store) Get(id escrowstore.EscrowId) (escrowstore.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scanEscrow(id)
}

func (s *Store) scanEscrow(id escrowstore.EscrowId) (escrowstore.Escrow, error) {
	row := s.db.QueryRow(`
		SELECT maker, taker, token_id, amount, safety_deposit, is_source,
		       created_at, src_withdrawal, src_public_withdrawal,
		       src_cancellation, src_public_cancellation, dst_withdrawal,
		       dst_public_withdrawal, dst_cancellation, claimed
		FROM escrows WHERE hashlock = ?`, id[:],
	)

	var (
		e                                                escrowstore.Escrow
		tokenID, amountText                               string
		safetyDeposit, createdAt                          int64
		srcW, srcPW, srcC, srcPC, dstW, dstPW, dstC        uint64
	)

	err := row.Scan(
		&e.Maker, &e.Taker, &tokenID, &amountText, &safetyDeposit,
		&e.IsSource, &createdAt, &srcW, &srcPW, &srcC, &srcPC, &dstW,
		&dstPW, &dstC, &e.Claimed,
	)
	switch err {
	case nil:
	case sql.ErrNoRows:
		return escrowstore.Escrow{}, escrowstore.ErrNotFound
	default:
		return escrowstore.Escrow{}, err
	}

	e.Hashlock = id
	e.Asset = escrowstore.FT{TokenID: tokenID}
	e.Amount = textToBig(amountText)
	e.SafetyDeposit = btcutil.Amount(safetyDeposit)
	e.Timelocks = timelock.New(unixTime(createdAt), timelock.Delays{
		SrcWithdrawal:         srcW,
		SrcPublicWithdrawal:   srcPW,
		SrcCancellation:       srcC,
		SrcPublicCancellation: srcPC,
		DstWithdrawal:         dstW,
		DstPublicWithdrawal:   dstPW,
		DstCancellation:       dstC,
	})

	return e, nil
}

// SetClaimed sets the escrow's Claimed flag, or ErrNotFound if id is
// unknown.
func (s *Store) SetClaimed(id escrowstore.EscrowId, claimed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE escrows SET claimed = ? WHERE hashlock = ?`, claimed, id[:],
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return escrowstore.ErrNotFound
	}
	return nil
}

// Forget removes an escrow's record entirely, or ErrNotFound if id is
// unknown.
func (s *Store) Forget(id escrowstore.EscrowId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM escrows WHERE hashlock = ?`, id[:])
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return escrowstore.ErrNotFound
	}
	return nil
}

// All returns a snapshot of every escrow currently in the store.
func (s *Store) All() []escrowstore.Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT hashlock FROM escrows`)
	if err != nil {
		log.Errorf("all: %v", wrap(err))
		return nil
	}
	defer rows.Close()

	var ids []escrowstore.EscrowId
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			log.Errorf("all: %v", wrap(err))
			continue
		}
		var id escrowstore.EscrowId
		copy(id[:], raw)
		ids = append(ids, id)
	}
	rows.Close()

	out := make([]escrowstore.Escrow, 0, len(ids))
	for _, id := range ids {
		e, err := s.scanEscrow(id)
		if err != nil {
			log.Errorf("all: %v", wrap(err))
			continue
		}
		out = append(out, e)
	}

	return out
}

func tokenIDOf(a escrowstore.Asset) (string, error) {
	ft, ok := a.(escrowstore.FT)
	if !ok {
		return "", fmt.Errorf("sqlstore: unsupported asset type %T", a)
	}
	return ft.TokenID, nil
}
