package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindleaj/payments/engine"
	"github.com/tindleaj/payments/fixedpoint"
	"github.com/tindleaj/payments/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndGet_RoundTripsExactly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := engine.HistoryEntry{
		Tx:     42,
		Client: 7,
		Amount: fixedpoint.MustParse("1.9999"),
		State:  engine.DisputeNone,
	}
	require.NoError(t, store.Record(ctx, entry))

	got, found, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry.Client, got.Client)
	assert.Equal(t, entry.Amount.Raw(), got.Amount.Raw(), "raw storage must be exact")
	assert.Equal(t, engine.DisputeNone, got.State)
}

func TestStore_Get_Missing(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Record_DuplicateTxID(t *testing.T) {
	// The primary key is the last line of defense for TxID uniqueness.
	store := newTestStore(t)
	ctx := context.Background()

	entry := engine.HistoryEntry{Tx: 1, Client: 1, Amount: fixedpoint.MustParse("5"), State: engine.DisputeNone}
	require.NoError(t, store.Record(ctx, entry))

	err := store.Record(ctx, engine.HistoryEntry{Tx: 1, Client: 2, Amount: fixedpoint.MustParse("3"), State: engine.DisputeNone})
	assert.ErrorIs(t, err, engine.ErrDuplicateTx)

	// Original entry untouched.
	got, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, engine.ClientID(1), got.Client)
}

func TestStore_SetState_Transitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := engine.HistoryEntry{Tx: 1, Client: 1, Amount: fixedpoint.MustParse("5"), State: engine.DisputeNone}
	require.NoError(t, store.Record(ctx, entry))

	require.NoError(t, store.SetState(ctx, 1, engine.DisputeOpen))
	got, _, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, engine.DisputeOpen, got.State)

	require.NoError(t, store.SetState(ctx, 1, engine.DisputeChargedBack))
	got, _, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, engine.DisputeChargedBack, got.State)
}

func TestStore_SetState_UnknownTx(t *testing.T) {
	store := newTestStore(t)

	err := store.SetState(context.Background(), 99, engine.DisputeOpen)
	assert.ErrorIs(t, err, engine.ErrTxNotFound)
}

func TestStore_NegativeRawAmount_Preserved(t *testing.T) {
	// Amounts are stored as the signed raw integer; sign must survive.
	store := newTestStore(t)
	ctx := context.Background()

	entry := engine.HistoryEntry{Tx: 1, Client: 1, Amount: fixedpoint.MustParse("-2.5"), State: engine.DisputeNone}
	require.NoError(t, store.Record(ctx, entry))

	got, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "-2.5", got.Amount.String())
}
