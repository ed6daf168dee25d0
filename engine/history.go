/*
history.go - Transaction history and the dispute state machine

PURPOSE:
  Maps each successfully applied deposit/withdrawal TxID to its owning
  client, original amount, and dispute status. Dispute, resolve, and
  chargeback records carry no amount of their own; they resolve their target
  through this mapping.

DISPUTE STATE MACHINE (per entry):

    none -> disputed -> none         (resolve)
                     -> charged_back (chargeback, terminal)

  charged_back has no outgoing transitions: any further dispute lifecycle
  record referencing that TxID is skipped by the ledger.

OWNERSHIP OF RULES:
  This file enforces representation only (what an entry is, that TxIDs are
  unique). The ledger enforces policy: which transitions are legal, client
  matching, and balance effects. See ledger.go.

LIFECYCLE:
  Entries are created only when a deposit or withdrawal is successfully
  applied - never for skipped rows - and are never deleted, so a TxID can go
  through repeated dispute/resolve cycles within a run.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory map (default)
  - store/sqlite/sqlite.go: SQLite-backed, for feeds too large for RAM

SEE ALSO:
  - ledger.go: The only writer and reader of history
*/
package engine

import (
	"context"

	"github.com/tindleaj/payments/fixedpoint"
)

// =============================================================================
// DISPUTE STATE
// =============================================================================

// DisputeState is the dispute status of a history entry.
type DisputeState string

const (
	DisputeNone        DisputeState = "none"
	DisputeOpen        DisputeState = "disputed"
	DisputeChargedBack DisputeState = "charged_back" // terminal
)

// =============================================================================
// HISTORY ENTRY
// =============================================================================

// HistoryEntry is the record of one successfully applied deposit or
// withdrawal. Client and Amount never change after creation; only State
// moves, and only through the dispute state machine.
type HistoryEntry struct {
	Tx     TxID
	Client ClientID
	Amount fixedpoint.Amount
	State  DisputeState
}

// =============================================================================
// HISTORY STORE - Interface for history persistence
// =============================================================================

// HistoryStore persists transaction history entries for the duration of a
// run. Entries are insert-once: there is no delete, and the only mutation is
// the dispute state.
type HistoryStore interface {
	// Record inserts a new entry with State = DisputeNone.
	// Returns ErrDuplicateTx if the TxID already exists.
	Record(ctx context.Context, entry HistoryEntry) error

	// Get returns the entry for tx. The bool reports whether it exists.
	Get(ctx context.Context, tx TxID) (HistoryEntry, bool, error)

	// SetState updates the dispute state of an existing entry.
	// Returns ErrTxNotFound if the TxID has no entry.
	SetState(ctx context.Context, tx TxID, state DisputeState) error
}
