/*
diagnostics.go - Verbosity-gated reporting of skipped records

PURPOSE:
  Every recoverable skip condition (insufficient funds, unknown TxID, locked
  account, ...) is reported rather than silently dropped. The engine emits
  the events; the caller owns the policy. By default nothing is reported
  (NopDiagnostics); a verbose CLI run wires a zap-backed sink.

DESIGN:
  Skips are NOT errors. Apply returns nil for a skipped record so a single
  bad row never aborts a run. A fatal condition (duplicate TxID, overflow)
  is a real error return.

SEE ALSO:
  - ledger.go: Emits SkipEvents
  - cmd/payments/main.go: Wires the zap sink under -verbose
*/
package engine

import "go.uber.org/zap"

// =============================================================================
// SKIP REASONS
// =============================================================================

// SkipReason classifies why a record was skipped.
type SkipReason string

const (
	SkipAccountLocked     SkipReason = "account_locked"
	SkipMissingAmount     SkipReason = "missing_amount"
	SkipInsufficientFunds SkipReason = "insufficient_funds"
	SkipUnknownAccount    SkipReason = "unknown_account"
	SkipUnknownTx         SkipReason = "unknown_tx"
	SkipClientMismatch    SkipReason = "client_mismatch"
	SkipNotDisputed       SkipReason = "not_disputed"
	SkipAlreadyDisputed   SkipReason = "already_disputed"
	SkipChargedBack       SkipReason = "charged_back" // terminal state, no transitions out
)

// SkipEvent carries the skip classification plus the offending record.
type SkipEvent struct {
	Reason SkipReason
	Record Record
}

// Diagnostics receives skip events. Implementations must not block; the
// processing loop is strictly sequential and every event is emitted inline.
type Diagnostics interface {
	Skip(ev SkipEvent)
}

// =============================================================================
// SINKS
// =============================================================================

// NopDiagnostics discards all events. This is the default: diagnostics are
// suppressed unless the caller asks for them.
type NopDiagnostics struct{}

func (NopDiagnostics) Skip(SkipEvent) {}

// ZapDiagnostics logs each skip as a structured warning.
type ZapDiagnostics struct {
	Logger *zap.Logger
}

func (d ZapDiagnostics) Skip(ev SkipEvent) {
	fields := []zap.Field{
		zap.String("reason", string(ev.Reason)),
		zap.String("kind", string(ev.Record.Kind)),
		zap.Uint16("client", uint16(ev.Record.Client)),
		zap.Uint32("tx", uint32(ev.Record.Tx)),
	}
	if ev.Record.Amount != nil {
		fields = append(fields, zap.Stringer("amount", ev.Record.Amount))
	}
	d.Logger.Warn("transaction skipped", fields...)
}
