/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the engine types from
  the external contract. Amounts cross the boundary as decimal strings, not
  JSON numbers: float64 cannot represent fixed-point values exactly.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/tindleaj/payments/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubmitTransactionRequest is one transaction record. Amount is required for
// deposit/withdrawal and ignored for the dispute lifecycle kinds.
type SubmitTransactionRequest struct {
	Type   string `json:"type"`
	Client uint16 `json:"client"`
	Tx     uint32 `json:"tx"`
	Amount string `json:"amount,omitempty"`
}

// AccountDTO is one row of the account table.
type AccountDTO struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// TransactionDTO is a transaction history entry.
type TransactionDTO struct {
	Tx           uint32 `json:"tx"`
	Client       uint16 `json:"client"`
	Amount       string `json:"amount"`
	DisputeState string `json:"dispute_state"`
}

// IngestResultDTO summarizes a CSV ingest call.
type IngestResultDTO struct {
	Accounts int `json:"accounts"`
}

// ErrorDTO is the error envelope for non-2xx responses.
type ErrorDTO struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func accountDTO(b engine.AccountBalance) AccountDTO {
	return AccountDTO{
		Client:    uint16(b.Client),
		Available: b.Available.String(),
		Held:      b.Held.String(),
		Total:     b.Total.String(),
		Locked:    b.Locked,
	}
}

func transactionDTO(e engine.HistoryEntry) TransactionDTO {
	return TransactionDTO{
		Tx:           uint32(e.Tx),
		Client:       uint16(e.Client),
		Amount:       e.Amount.String(),
		DisputeState: string(e.State),
	}
}
