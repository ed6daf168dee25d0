/*
Package report renders the final account table as CSV.

PURPOSE:
  The output half of the I/O boundary. Consumes a finalized read-only ledger
  snapshot and writes one row per client. Amounts use the fixed-point
  round-trip rendering, so nothing below the 2^-14 resolution is lost.

  Only written after the whole feed processed without a fatal error; a run
  that halts mid-stream produces no report at all.
*/
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tindleaj/payments/engine"
)

// Write renders the snapshot to w as CSV with a header row.
func Write(w io.Writer, snapshot []engine.AccountBalance) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}
	for _, row := range snapshot {
		record := []string{
			strconv.FormatUint(uint64(row.Client), 10),
			row.Available.String(),
			row.Held.String(),
			row.Total.String(),
			strconv.FormatBool(row.Locked),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
