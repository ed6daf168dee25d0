// Package store provides HistoryStore implementations.
package store

import (
	"context"

	"github.com/tindleaj/payments/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (the default)
// =============================================================================

// Memory keeps the transaction history in a map. The engine is single
// threaded by design, so no locking is needed here; concurrent callers must
// serialize outside the engine (the API layer does).
type Memory struct {
	entries map[engine.TxID]engine.HistoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[engine.TxID]engine.HistoryEntry)}
}

// Record inserts a new entry. Insert-once: a TxID collision is rejected.
func (m *Memory) Record(_ context.Context, entry engine.HistoryEntry) error {
	if _, exists := m.entries[entry.Tx]; exists {
		return engine.ErrDuplicateTx
	}
	m.entries[entry.Tx] = entry
	return nil
}

func (m *Memory) Get(_ context.Context, tx engine.TxID) (engine.HistoryEntry, bool, error) {
	entry, ok := m.entries[tx]
	return entry, ok, nil
}

func (m *Memory) SetState(_ context.Context, tx engine.TxID, state engine.DisputeState) error {
	entry, ok := m.entries[tx]
	if !ok {
		return engine.ErrTxNotFound
	}
	entry.State = state
	m.entries[tx] = entry
	return nil
}

// Len reports how many deposit/withdrawal entries were recorded.
func (m *Memory) Len() int { return len(m.entries) }
