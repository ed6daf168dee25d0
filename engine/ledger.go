/*
ledger.go - The account ledger state machine

PURPOSE:
  Holds the ClientID -> Account mapping and owns the transaction history.
  Processes one Record at a time, in input order, mutating balances per the
  record kind and the dispute lifecycle.

PER-KIND RULES (skip = no-op + diagnostic, never aborts the run):

  deposit     amount present           -> available += amount, history entry
  withdrawal  amount present,          -> available -= amount, history entry
              account exists,
              available >= amount
  dispute     tx known, state none,    -> available -= amount, held += amount
              client matches
  resolve     tx known, disputed,      -> held -= amount, available += amount
              client matches
  chargeback  tx known, disputed,      -> held -= amount, account locked
              client matches              (terminal for the tx AND the account)

  A locked account skips every record, of any kind. Locking happens only via
  chargeback and is never undone.

FATAL CONDITIONS (error return, run halts, no report):
  - Duplicate deposit/withdrawal TxID
  - Fixed-point overflow
  - Chargeback/resolve that would drive held funds negative (invariant
    violation: held is the sum of open disputes, so this cannot legally occur)

ORDERING:
  Strictly sequential, no batching or reordering. A dispute must appear
  after its target transaction in the stream to take effect - that is input
  semantics, not an implementation shortcut.

DISPUTED WITHDRAWALS:
  A disputed withdrawal moves funds available -> held exactly like a
  disputed deposit: at the moment of dispute the contested sum is being
  held, regardless of the original direction. This can overdraw available
  when the funds already left the account; see DESIGN.md.

SEE ALSO:
  - history.go: HistoryStore interface and the dispute state machine
  - diagnostics.go: Where skips go
*/
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/tindleaj/payments/fixedpoint"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the account ledger state machine. It is exclusively owned by a
// single processing loop: no internal locking, no concurrent use.
type Ledger struct {
	accounts map[ClientID]*Account
	history  HistoryStore
	diag     Diagnostics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDiagnostics routes skip events to d instead of discarding them.
func WithDiagnostics(d Diagnostics) Option {
	return func(l *Ledger) { l.diag = d }
}

// New creates an empty ledger backed by the given history store.
func New(history HistoryStore, opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[ClientID]*Account),
		history:  history,
		diag:     NopDiagnostics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// APPLY - One record at a time, in input order
// =============================================================================

// Apply processes a single record. A nil return means the record was either
// applied or skipped (skips go to the Diagnostics sink). A non-nil return is
// fatal: the run must halt and no report may be produced.
func (l *Ledger) Apply(ctx context.Context, rec Record) error {
	// A locked account accepts no further transactions, of any kind.
	if acct, ok := l.accounts[rec.Client]; ok && acct.Locked {
		l.skip(SkipAccountLocked, rec)
		return nil
	}

	switch rec.Kind {
	case KindDeposit:
		return l.deposit(ctx, rec)
	case KindWithdrawal:
		return l.withdraw(ctx, rec)
	case KindDispute:
		return l.dispute(ctx, rec)
	case KindResolve:
		return l.resolve(ctx, rec)
	case KindChargeback:
		return l.chargeback(ctx, rec)
	default:
		return &FatalError{Record: rec, Err: fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)}
	}
}

// deposit credits the client's available funds and creates the account if
// it does not exist yet.
func (l *Ledger) deposit(ctx context.Context, rec Record) error {
	if rec.Amount == nil {
		l.skip(SkipMissingAmount, rec)
		return nil
	}
	acct := l.accounts[rec.Client]
	var available, held fixedpoint.Amount
	if acct != nil {
		available, held = acct.Available, acct.Held
	}

	newAvailable, err := available.Add(*rec.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	// Keep the derived total representable too, so Total() can never fail.
	if _, err := newAvailable.Add(held); err != nil {
		return &FatalError{Record: rec, Err: err}
	}

	if err := l.recordInitial(ctx, rec); err != nil {
		return err
	}

	if acct == nil {
		acct = &Account{Client: rec.Client}
		l.accounts[rec.Client] = acct
	}
	acct.Available = newAvailable
	return nil
}

// withdraw debits the client's available funds. It never creates an account:
// a withdrawal against an unknown client is an invalid reference, skipped.
func (l *Ledger) withdraw(ctx context.Context, rec Record) error {
	if rec.Amount == nil {
		l.skip(SkipMissingAmount, rec)
		return nil
	}
	acct, ok := l.accounts[rec.Client]
	if !ok {
		l.skip(SkipUnknownAccount, rec)
		return nil
	}
	if acct.Available.LessThan(*rec.Amount) {
		l.skip(SkipInsufficientFunds, rec)
		return nil
	}

	if err := l.recordInitial(ctx, rec); err != nil {
		return err
	}

	// available >= amount >= 0, so the subtraction cannot underflow.
	newAvailable, err := acct.Available.Sub(*rec.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	acct.Available = newAvailable
	return nil
}

// dispute moves the contested amount from available to held.
func (l *Ledger) dispute(ctx context.Context, rec Record) error {
	entry, acct, ok, err := l.target(ctx, rec)
	if err != nil || !ok {
		return err
	}
	if entry.State != DisputeNone {
		l.skipDisputeState(rec, entry.State)
		return nil
	}

	newAvailable, err := acct.Available.Sub(entry.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	newHeld, err := acct.Held.Add(entry.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	if err := l.history.SetState(ctx, rec.Tx, DisputeOpen); err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	acct.Available = newAvailable
	acct.Held = newHeld
	return nil
}

// resolve releases held funds back to available and closes the dispute. The
// entry returns to state none, so the same tx can be disputed again later.
func (l *Ledger) resolve(ctx context.Context, rec Record) error {
	entry, acct, ok, err := l.target(ctx, rec)
	if err != nil || !ok {
		return err
	}
	if entry.State != DisputeOpen {
		l.skipDisputeState(rec, entry.State)
		return nil
	}

	newHeld, err := acct.Held.Sub(entry.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	if newHeld.IsNegative() {
		// Held is the sum of currently open disputes, which includes this
		// entry's amount. Going negative means state corruption.
		return &FatalError{Record: rec, Err: ErrInvariantViolated}
	}
	newAvailable, err := acct.Available.Add(entry.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	if err := l.history.SetState(ctx, rec.Tx, DisputeNone); err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	acct.Held = newHeld
	acct.Available = newAvailable
	return nil
}

// chargeback withdraws the held funds and freezes the account. Terminal for
// both the disputed tx and the client.
func (l *Ledger) chargeback(ctx context.Context, rec Record) error {
	entry, acct, ok, err := l.target(ctx, rec)
	if err != nil || !ok {
		return err
	}
	if entry.State != DisputeOpen {
		l.skipDisputeState(rec, entry.State)
		return nil
	}

	newHeld, err := acct.Held.Sub(entry.Amount)
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	if newHeld.IsNegative() {
		return &FatalError{Record: rec, Err: ErrInvariantViolated}
	}
	if err := l.history.SetState(ctx, rec.Tx, DisputeChargedBack); err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	acct.Held = newHeld
	acct.Locked = true
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// recordInitial inserts the history entry for a deposit/withdrawal. A TxID
// collision is fatal: the feed mints globally unique ids.
func (l *Ledger) recordInitial(ctx context.Context, rec Record) error {
	err := l.history.Record(ctx, HistoryEntry{
		Tx:     rec.Tx,
		Client: rec.Client,
		Amount: *rec.Amount,
		State:  DisputeNone,
	})
	if err != nil {
		return &FatalError{Record: rec, Err: err}
	}
	return nil
}

// target resolves a dispute/resolve/chargeback record to its history entry
// and account. ok is false when the record must be skipped; the diagnostic
// has already been emitted.
func (l *Ledger) target(ctx context.Context, rec Record) (HistoryEntry, *Account, bool, error) {
	entry, found, err := l.history.Get(ctx, rec.Tx)
	if err != nil {
		return HistoryEntry{}, nil, false, &FatalError{Record: rec, Err: err}
	}
	if !found {
		l.skip(SkipUnknownTx, rec)
		return HistoryEntry{}, nil, false, nil
	}
	// A client mismatch is treated exactly like "not found": it guards
	// against cross-account dispute forgery.
	if entry.Client != rec.Client {
		l.skip(SkipClientMismatch, rec)
		return HistoryEntry{}, nil, false, nil
	}
	acct, ok := l.accounts[rec.Client]
	if !ok {
		// A history entry implies the account was created; missing means
		// the reference is not valid for this ledger.
		l.skip(SkipUnknownAccount, rec)
		return HistoryEntry{}, nil, false, nil
	}
	return entry, acct, true, nil
}

func (l *Ledger) skip(reason SkipReason, rec Record) {
	l.diag.Skip(SkipEvent{Reason: reason, Record: rec})
}

func (l *Ledger) skipDisputeState(rec Record, state DisputeState) {
	switch state {
	case DisputeChargedBack:
		l.skip(SkipChargedBack, rec)
	case DisputeOpen:
		l.skip(SkipAlreadyDisputed, rec)
	default:
		l.skip(SkipNotDisputed, rec)
	}
}

// =============================================================================
// READ-ONLY VIEWS
// =============================================================================

// Snapshot returns the final per-client balances, sorted by ClientID for a
// stable iteration. Row order carries no meaning; each row is independent.
func (l *Ledger) Snapshot() []AccountBalance {
	out := make([]AccountBalance, 0, len(l.accounts))
	for _, acct := range l.accounts {
		out = append(out, AccountBalance{
			Client:    acct.Client,
			Available: acct.Available,
			Held:      acct.Held,
			Total:     acct.Total(),
			Locked:    acct.Locked,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// Account returns the balance row for one client.
func (l *Ledger) Account(client ClientID) (AccountBalance, bool) {
	acct, ok := l.accounts[client]
	if !ok {
		return AccountBalance{}, false
	}
	return AccountBalance{
		Client:    acct.Client,
		Available: acct.Available,
		Held:      acct.Held,
		Total:     acct.Total(),
		Locked:    acct.Locked,
	}, true
}

// Transaction returns the history entry for a deposit/withdrawal TxID.
func (l *Ledger) Transaction(ctx context.Context, tx TxID) (HistoryEntry, bool, error) {
	return l.history.Get(ctx, tx)
}
