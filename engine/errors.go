/*
errors.go - Centralized error types for the engine

PURPOSE:
  All fatal error types in one place. The engine distinguishes two
  severities:

  FATAL (returned as errors, halt the run):
    - Duplicate deposit/withdrawal TxID (corrupt feed)
    - Fixed-point overflow (fixedpoint.ErrOverflow, wrapped)
    - Ledger invariant violation (chargeback underflow)

  RECOVERABLE (never returned as errors):
    Skip conditions - insufficient funds, unknown TxID, locked account and
    friends - are reported through the Diagnostics sink and processing
    continues. See diagnostics.go.

USAGE:
  Callers use errors.Is to classify:

    if errors.Is(err, engine.ErrDuplicateTx) { ... }

SEE ALSO:
  - ledger.go: Produces these errors
  - diagnostics.go: The recoverable path
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/tindleaj/payments/fixedpoint"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateTx is returned when a deposit or withdrawal reuses a TxID
	// already present in the transaction history. TxIDs are minted uniquely
	// by the source feed, so a collision means the feed is corrupt.
	ErrDuplicateTx = errors.New("duplicate transaction id")

	// ErrTxNotFound is returned by history stores when a TxID has no entry.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrInvariantViolated is returned when ledger state contradicts its own
	// invariants, e.g. a chargeback that would drive held funds negative.
	// This should be impossible; it is surfaced as a typed fatal error
	// instead of a panic so embedding contexts can observe it.
	ErrInvariantViolated = errors.New("ledger invariant violated")

	// ErrUnknownKind is returned for a record whose kind is not one of the
	// five transaction types. The external parser rejects these before the
	// engine sees them; direct API callers can still construct one.
	ErrUnknownKind = errors.New("unknown record kind")
)

// =============================================================================
// STRUCTURED ERRORS - Carry record context
// =============================================================================

// FatalError wraps a fatal condition with the record being processed when it
// occurred. The run must halt; no report is produced.
type FatalError struct {
	Record Record
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v (kind=%s client=%d tx=%d)",
		e.Err, e.Record.Kind, e.Record.Client, e.Record.Tx)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatalArithmetic reports whether err is a fixed-point overflow.
func IsFatalArithmetic(err error) bool {
	return errors.Is(err, fixedpoint.ErrOverflow)
}
