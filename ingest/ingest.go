/*
Package ingest reads a CSV transaction feed into the ledger.

PURPOSE:
  The thin boundary between raw rows and the engine. It tokenizes each CSV
  row into a typed engine.Record and feeds records one at a time, in input
  order, into the ledger. All policy lives in the engine; this package only
  converts and propagates.

INPUT FORMAT:
  A header row naming the columns, then one row per transaction:

    type,       client, tx, amount
    deposit,    1,      1,  1.9999
    withdrawal, 1,      2,  0.5
    dispute,    1,      1,

  Rows are tolerant of whitespace and of a missing trailing amount field on
  dispute/resolve/chargeback rows. An amount supplied on those rows is
  parsed and ignored downstream, matching the record contract.

FATAL CONDITIONS:
  A row whose required numeric field does not parse, or whose type is not
  one of the five kinds, is an error carrying the row number. The run halts;
  these indicate a corrupt feed, not a recoverable skip.

SEE ALSO:
  - engine/ledger.go: Where each record goes
  - report/report.go: The other end of the pipeline
*/
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tindleaj/payments/engine"
	"github.com/tindleaj/payments/fixedpoint"
)

// RowError reports a fatal problem with a specific input row.
type RowError struct {
	Row int // 1-based, counting the header as row 1
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// column indexes resolved from the header row.
type columns struct {
	kind, client, tx, amount int
}

// Process streams the CSV feed in r through the ledger, strictly in input
// order. The first error - a malformed row or a fatal ledger condition -
// halts processing; the caller must not produce a report in that case.
func Process(ctx context.Context, r io.Reader, ledger *engine.Ledger) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // dispute rows often omit the amount field
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return err
	}

	row := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read feed: %w", err)
		}
		row++

		rec, err := parseRecord(fields, cols)
		if err != nil {
			return &RowError{Row: row, Err: err}
		}
		if err := ledger.Apply(ctx, rec); err != nil {
			return &RowError{Row: row, Err: err}
		}
	}
}

func mapColumns(header []string) (columns, error) {
	cols := columns{kind: -1, client: -1, tx: -1, amount: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "type":
			cols.kind = i
		case "client":
			cols.client = i
		case "tx":
			cols.tx = i
		case "amount":
			cols.amount = i
		}
	}
	if cols.kind < 0 || cols.client < 0 || cols.tx < 0 {
		return cols, fmt.Errorf("header must name type, client and tx columns, got %v", header)
	}
	return cols, nil
}

func parseRecord(fields []string, cols columns) (engine.Record, error) {
	field := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	kind := engine.Kind(strings.ToLower(field(cols.kind)))
	if !kind.Valid() {
		return engine.Record{}, fmt.Errorf("%w: %q", engine.ErrUnknownKind, field(cols.kind))
	}

	client, err := strconv.ParseUint(field(cols.client), 10, 16)
	if err != nil {
		return engine.Record{}, fmt.Errorf("invalid client id %q: %w", field(cols.client), err)
	}
	tx, err := strconv.ParseUint(field(cols.tx), 10, 32)
	if err != nil {
		return engine.Record{}, fmt.Errorf("invalid tx id %q: %w", field(cols.tx), err)
	}

	rec := engine.Record{
		Kind:   kind,
		Client: engine.ClientID(client),
		Tx:     engine.TxID(tx),
	}

	// An amount that is present but unparseable is fatal, for every kind:
	// required-field syntax errors indicate a corrupt feed even on rows
	// where the value would be ignored.
	if raw := field(cols.amount); raw != "" {
		amount, err := fixedpoint.Parse(raw)
		if err != nil {
			return engine.Record{}, err
		}
		rec.Amount = &amount
	}
	return rec, nil
}
