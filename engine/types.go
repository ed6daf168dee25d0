/*
Package engine contains the account ledger state machine.

PURPOSE:
  This package is the core of the payments processor. It takes an ordered
  stream of typed transaction records (deposit, withdrawal, dispute, resolve,
  chargeback) and derives per-client account balances. The dispute lifecycle
  links dispute/resolve/chargeback records back to the original deposit or
  withdrawal through the transaction history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: One typed, validated unit of work from the input stream
  - Account: Per-client balance state (available, held, locked)
  - AccountBalance: Read-only snapshot row handed to report builders

DESIGN PRINCIPLES:
  1. Immutability: Records are constructed once and consumed exactly once
  2. Precision: All money is fixedpoint.Amount - exact, never floating point
  3. Order dependence: A dispute only takes effect after its target
     deposit/withdrawal has been processed; the engine never reorders
  4. Ownership: The ledger is an explicit state object, never a process-wide
     singleton, so runs are independently testable and reentrant

SEE ALSO:
  - ledger.go: The state machine applying Records
  - history.go: TxID -> original transaction mapping
  - diagnostics.go: Verbosity-gated skip reporting
*/
package engine

import (
	"github.com/tindleaj/payments/fixedpoint"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ClientID identifies an account. Accounts are created lazily on the first
// record that successfully touches a client.
type ClientID uint16

// TxID identifies a deposit or withdrawal. Globally unique across a run,
// minted by the source feed. Dispute/resolve/chargeback records reference a
// previously seen TxID instead of minting their own.
type TxID uint32

// =============================================================================
// RECORD - One unit of work from the input stream
// =============================================================================

// Kind is the transaction record type.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// Valid reports whether k is one of the five record kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return true
	}
	return false
}

// Record is a typed, validated transaction record.
//
// Amount is present for deposits and withdrawals. For the three dispute
// lifecycle kinds the field is ignored even if the source row supplied one;
// the disputed amount always comes from the history entry.
type Record struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount *fixedpoint.Amount
}

// =============================================================================
// ACCOUNT - Per-client balance state
// =============================================================================

// Account holds the mutable balance state for one client.
//
// INVARIANTS:
//   - Total is always Available + Held; it is derived, never stored.
//   - Available and Held never go negative under normal processing.
//   - Once Locked, no further record changes the account.
type Account struct {
	Client    ClientID
	Available fixedpoint.Amount
	Held      fixedpoint.Amount
	Locked    bool
}

// Total returns Available + Held. Both fields stay within the fixed-point
// range by construction, so their sum cannot overflow.
func (a *Account) Total() fixedpoint.Amount {
	total, err := a.Available.Add(a.Held)
	if err != nil {
		// Available and Held are each bounded by deposits that were
		// themselves overflow-checked; reaching here means ledger state
		// was corrupted outside this package.
		panic(err)
	}
	return total
}

// AccountBalance is one immutable row of the final report: the read-only
// view of an Account handed to report builders.
type AccountBalance struct {
	Client    ClientID
	Available fixedpoint.Amount
	Held      fixedpoint.Amount
	Total     fixedpoint.Amount
	Locked    bool
}
