/*
Package sqlite provides a SQLite-backed implementation of the history store.

PURPOSE:
  Implements engine.HistoryStore on SQLite. The in-memory store is the
  default; this one exists for feeds whose deposit/withdrawal history does
  not fit in RAM. The database lives for a single run - there is no
  cross-run persistence in this system.

INSERT-ONCE ENFORCEMENT:
  tx_id is the primary key. A duplicate deposit/withdrawal TxID violates the
  constraint and is mapped to engine.ErrDuplicateTx, which the ledger treats
  as fatal.

SCHEMA:
  history:
    tx_id         INTEGER PRIMARY KEY   - the feed-minted transaction id
    client_id     INTEGER NOT NULL      - owning account
    amount_raw    INTEGER NOT NULL      - fixedpoint raw value (2^-14 units)
    dispute_state TEXT NOT NULL         - none | disputed | charged_back

  Amounts are stored as the raw backing integer, so storage round-trips are
  exact by construction.

USAGE:
  store, err := sqlite.New(":memory:")
  if err != nil { ... }
  defer store.Close()
  ledger := engine.New(store)

SEE ALSO:
  - engine/history.go: Interface definition
  - engine/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tindleaj/payments/engine"
	"github.com/tindleaj/payments/fixedpoint"
)

// Store implements engine.HistoryStore using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		tx_id         INTEGER PRIMARY KEY,
		client_id     INTEGER NOT NULL,
		amount_raw    INTEGER NOT NULL,
		dispute_state TEXT NOT NULL
	);

	-- For per-client audits via dump tooling; the engine itself only ever
	-- looks entries up by tx_id.
	CREATE INDEX IF NOT EXISTS idx_history_client ON history(client_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HISTORY STORE (engine.HistoryStore interface)
// =============================================================================

// Record inserts a new history entry. Returns engine.ErrDuplicateTx when the
// TxID already exists.
func (s *Store) Record(ctx context.Context, entry engine.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (tx_id, client_id, amount_raw, dispute_state) VALUES (?, ?, ?, ?)`,
		int64(entry.Tx),
		int64(entry.Client),
		entry.Amount.Raw(),
		string(entry.State),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return engine.ErrDuplicateTx
		}
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, tx engine.TxID) (engine.HistoryEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT client_id, amount_raw, dispute_state FROM history WHERE tx_id = ?`,
		int64(tx),
	)

	var (
		client int64
		raw    int64
		state  string
	)
	if err := row.Scan(&client, &raw, &state); err != nil {
		if err == sql.ErrNoRows {
			return engine.HistoryEntry{}, false, nil
		}
		return engine.HistoryEntry{}, false, fmt.Errorf("failed to load history entry: %w", err)
	}

	return engine.HistoryEntry{
		Tx:     tx,
		Client: engine.ClientID(client),
		Amount: fixedpoint.FromRaw(raw),
		State:  engine.DisputeState(state),
	}, true, nil
}

func (s *Store) SetState(ctx context.Context, tx engine.TxID, state engine.DisputeState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE history SET dispute_state = ? WHERE tx_id = ?`,
		string(state),
		int64(tx),
	)
	if err != nil {
		return fmt.Errorf("failed to update dispute state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update dispute state: %w", err)
	}
	if n == 0 {
		return engine.ErrTxNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
