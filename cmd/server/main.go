/*
main.go - HTTP service entry point

PURPOSE:
  Runs the payments engine as a long-lived HTTP service: submit transactions
  one at a time or upload whole CSV feeds, then read back account balances.

STARTUP SEQUENCE:
  1. Load environment config (.env supported)
  2. Apply command-line flag overrides
  3. Initialize the history store and ledger
  4. Configure the chi router
  5. Start the server with graceful shutdown

CONFIGURATION:
  PORT        HTTP port (default 8080)
  HISTORY_DB  SQLite path for the transaction history (default ":memory:")
  LOG_LEVEL   zap level: debug, info, warn, error (default "info")

  Flags -port and -db override the environment.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for active
  requests, close the history store, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - cmd/payments/main.go: Batch CLI mode
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tindleaj/payments/api"
	"github.com/tindleaj/payments/config"
	"github.com/tindleaj/payments/engine"
	enginestore "github.com/tindleaj/payments/engine/store"
	"github.com/tindleaj/payments/logging"
	"github.com/tindleaj/payments/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.HistoryDB, "SQLite path for the transaction history")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// History store
	var history engine.HistoryStore
	if *dbPath == ":memory:" {
		history = enginestore.NewMemory()
	} else {
		store, err := sqlite.New(*dbPath)
		if err != nil {
			logger.Fatal("failed to initialize history store", zap.Error(err))
		}
		defer store.Close()
		history = store
	}

	// Skips are always surfaced in service mode; the operator owns the level.
	ledger := engine.New(history,
		engine.WithDiagnostics(engine.ZapDiagnostics{Logger: logger}))

	handler := api.NewHandler(ledger, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
