/*
handlers.go - HTTP API handlers for the payments engine

PURPOSE:
  Exposes the account ledger via REST. Handles HTTP request/response and
  JSON serialization, and delegates everything else to the engine.

ENDPOINTS:
  POST   /api/transactions        Submit one transaction record
  POST   /api/ingest              Upload a CSV feed (text/csv body)
  GET    /api/accounts            Full account table
  GET    /api/accounts/{client}   One account
  GET    /api/transactions/{tx}   One history entry

CONCURRENCY:
  The engine is single-threaded by contract: records are applied one at a
  time, in arrival order. The Handler owns that policy for HTTP callers with
  a single mutex around the ledger. Arrival order at the server IS the input
  order; dispute linkage follows from it exactly as in batch mode.

ERROR HANDLING:
  - 400: Malformed body, bad numeric fields, unknown kind
  - 404: Unknown account or transaction
  - 409: Fatal feed conditions (duplicate TxID)
  - 422: Fatal arithmetic (fixed-point overflow)

  Recoverable skips are NOT errors: the record is accepted (202) and the
  skip, if any, goes to the diagnostics sink the ledger was built with.

SEE ALSO:
  - dto.go: Request/response structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tindleaj/payments/engine"
	"github.com/tindleaj/payments/fixedpoint"
	"github.com/tindleaj/payments/ingest"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds the ledger and serializes all access to it.
type Handler struct {
	mu     sync.Mutex
	ledger *engine.Ledger
	log    *zap.Logger
}

// NewHandler wraps a ledger for HTTP access.
func NewHandler(ledger *engine.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: ledger, log: log}
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

// SubmitTransaction applies a single record.
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req SubmitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec := engine.Record{
		Kind:   engine.Kind(req.Type),
		Client: engine.ClientID(req.Client),
		Tx:     engine.TxID(req.Tx),
	}
	if !rec.Kind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown transaction type: "+req.Type)
		return
	}
	if req.Amount != "" {
		amount, err := fixedpoint.Parse(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec.Amount = &amount
	}

	h.mu.Lock()
	err := h.ledger.Apply(r.Context(), rec)
	h.mu.Unlock()

	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, engine.ErrDuplicateTx):
			status = http.StatusConflict
		case engine.IsFatalArithmetic(err):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, engine.ErrUnknownKind):
			status = http.StatusBadRequest
		}
		h.log.Error("transaction rejected", zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

// Ingest processes a whole CSV feed from the request body.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	err := ingest.Process(r.Context(), r.Body, h.ledger)
	accounts := len(h.ledger.Snapshot())
	h.mu.Unlock()

	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrDuplicateTx) {
			status = http.StatusConflict
		} else if engine.IsFatalArithmetic(err) {
			status = http.StatusUnprocessableEntity
		}
		h.log.Error("ingest failed", zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, IngestResultDTO{Accounts: accounts})
}

// GetTransaction returns one history entry.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := strconv.ParseUint(chi.URLParam(r, "tx"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tx id")
		return
	}

	h.mu.Lock()
	entry, found, lookupErr := h.ledger.Transaction(r.Context(), engine.TxID(tx))
	h.mu.Unlock()

	if lookupErr != nil {
		writeError(w, http.StatusInternalServerError, lookupErr.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, transactionDTO(entry))
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListAccounts returns the full account table, sorted by client id.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	snapshot := h.ledger.Snapshot()
	h.mu.Unlock()

	dtos := make([]AccountDTO, 0, len(snapshot))
	for _, row := range snapshot {
		dtos = append(dtos, accountDTO(row))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns one account row.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	client, err := strconv.ParseUint(chi.URLParam(r, "client"), 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	h.mu.Lock()
	row, found := h.ledger.Account(engine.ClientID(client))
	h.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, accountDTO(row))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorDTO{Error: message})
}
