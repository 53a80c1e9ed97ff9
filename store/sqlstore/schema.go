package sqlstore

import "strings"

// schema is applied on every Open call. CREATE TABLE IF NOT EXISTS makes it
// safe to run against an already-migrated database, the same one-shot,
// no-versioning approach channeldb used before it grew a migration
// framework — sufficient here since the schema has had no revisions yet.
const schema = `
CREATE TABLE IF NOT EXISTS ledger_balances (
	account TEXT NOT NULL,
	asset   TEXT NOT NULL,
	total   TEXT NOT NULL,
	locked  TEXT NOT NULL,
	PRIMARY KEY (account, asset)
);

CREATE TABLE IF NOT EXISTS escrows (
	hashlock                 BLOB PRIMARY KEY,
	maker                    TEXT NOT NULL,
	taker                    TEXT NOT NULL,
	token_id                 TEXT NOT NULL,
	amount                   TEXT NOT NULL,
	safety_deposit           INTEGER NOT NULL,
	is_source                INTEGER NOT NULL,
	created_at               INTEGER NOT NULL,
	src_withdrawal           INTEGER NOT NULL,
	src_public_withdrawal    INTEGER NOT NULL,
	src_cancellation         INTEGER NOT NULL,
	src_public_cancellation  INTEGER NOT NULL,
	dst_withdrawal           INTEGER NOT NULL,
	dst_public_withdrawal    INTEGER NOT NULL,
	dst_cancellation         INTEGER NOT NULL,
	claimed                  INTEGER NOT NULL
);
`

// isUniqueViolation reports whether err is a SQLite primary-key or unique
// constraint failure. modernc.org/sqlite surfaces this as a plain error
// whose message contains "UNIQUE constraint failed" rather than a typed
// sentinel, so a substring check is the only portable option.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
