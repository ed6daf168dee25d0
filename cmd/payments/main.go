/*
main.go - Batch CLI entry point

PURPOSE:
  Processes a CSV transaction feed and writes the final account table to
  stdout as CSV.

USAGE:
  payments [flags] <transactions.csv>

FLAGS:
  -verbose       Surface skip diagnostics on stderr (suppressed by default)
  -history-db    SQLite path for the transaction history. Defaults to
                 ":memory:"; point it at a file for feeds too large for RAM.

EXIT BEHAVIOR:
  A fatal condition (unparseable numeric field, duplicate TxID, fixed-point
  overflow) terminates with a non-zero status and NO report: partial output
  would be misleading. Recoverable skips never affect the exit status.

EXAMPLES:
  payments transactions.csv > accounts.csv
  payments -verbose transactions.csv
  payments -history-db=/tmp/run.db huge-feed.csv

SEE ALSO:
  - ingest/ingest.go: Feed parsing
  - report/report.go: Output rendering
  - cmd/server/main.go: HTTP service mode
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tindleaj/payments/engine"
	enginestore "github.com/tindleaj/payments/engine/store"
	"github.com/tindleaj/payments/ingest"
	"github.com/tindleaj/payments/logging"
	"github.com/tindleaj/payments/report"
	"github.com/tindleaj/payments/store/sqlite"
)

func main() {
	verbose := flag.Bool("verbose", false, "report skipped transactions on stderr")
	historyDB := flag.String("history-db", ":memory:", "SQLite path for the transaction history")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: payments [flags] <transactions.csv>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *historyDB, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "payments: %v\n", err)
		os.Exit(1)
	}
}

func run(inputPath, historyDB string, verbose bool) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	var opts []engine.Option
	if verbose {
		logger, err := logging.New("warn")
		if err != nil {
			return err
		}
		defer logger.Sync()
		opts = append(opts, engine.WithDiagnostics(engine.ZapDiagnostics{Logger: logger}))
	}

	var history engine.HistoryStore
	if historyDB == ":memory:" {
		history = enginestore.NewMemory()
	} else {
		store, err := sqlite.New(historyDB)
		if err != nil {
			return err
		}
		defer store.Close()
		history = store
	}

	ledger := engine.New(history, opts...)
	if err := ingest.Process(context.Background(), input, ledger); err != nil {
		return err
	}
	return report.Write(os.Stdout, ledger.Snapshot())
}
