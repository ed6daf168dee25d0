package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindleaj/payments/engine"
	enginestore "github.com/tindleaj/payments/engine/store"
	"github.com/tindleaj/payments/fixedpoint"
	"github.com/tindleaj/payments/ingest"
)

func process(t *testing.T, feed string) (*engine.Ledger, error) {
	t.Helper()
	ledger := engine.New(enginestore.NewMemory())
	err := ingest.Process(context.Background(), strings.NewReader(feed), ledger)
	return ledger, err
}

func TestProcess_FullFeed(t *testing.T) {
	// GIVEN: a feed exercising every record kind
	// WHEN: processed in order
	// THEN: final balances match the per-kind rules

	feed := `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
dispute, 1, 1,
resolve, 1, 1,
`
	ledger, err := process(t, feed)
	require.NoError(t, err)

	snapshot := ledger.Snapshot()
	require.Len(t, snapshot, 2)

	// client 1: 1 + 2 - 1.5, dispute resolved back to available
	assert.Equal(t, "1.5", snapshot[0].Available.String())
	assert.Equal(t, "0", snapshot[0].Held.String())

	// client 2: withdrawal of 3 against 2 was skipped
	assert.Equal(t, "2", snapshot[1].Available.String())
}

func TestProcess_DisputeRowsMayOmitAmountField(t *testing.T) {
	// Dispute rows in real feeds often have only three fields. The reader
	// must not reject short rows.
	feed := "type,client,tx,amount\n" +
		"deposit,1,1,5\n" +
		"dispute,1,1\n"

	ledger, err := process(t, feed)
	require.NoError(t, err)

	row, ok := ledger.Account(1)
	require.True(t, ok)
	assert.Equal(t, "0", row.Available.String())
	assert.Equal(t, "5", row.Held.String())
}

func TestProcess_AmountOnDisputeRow_Ignored(t *testing.T) {
	// An amount supplied on a dispute row is parsed (it must be a number)
	// but the disputed amount comes from the history entry.
	feed := "type,client,tx,amount\n" +
		"deposit,1,1,5\n" +
		"dispute,1,1,999\n"

	ledger, err := process(t, feed)
	require.NoError(t, err)

	row, _ := ledger.Account(1)
	assert.Equal(t, "5", row.Held.String())
}

func TestProcess_WhitespaceTolerant(t *testing.T) {
	feed := "type, client, tx, amount\n" +
		"  deposit ,  1 ,  1 ,  2.5  \n"

	ledger, err := process(t, feed)
	require.NoError(t, err)

	row, ok := ledger.Account(1)
	require.True(t, ok)
	assert.Equal(t, "2.5", row.Available.String())
}

func TestProcess_HeaderColumnOrderFree(t *testing.T) {
	feed := "client,amount,type,tx\n" +
		"1,3.5,deposit,1\n"

	ledger, err := process(t, feed)
	require.NoError(t, err)

	row, ok := ledger.Account(1)
	require.True(t, ok)
	assert.Equal(t, "3.5", row.Available.String())
}

// =============================================================================
// FATAL CONDITIONS
// =============================================================================

func TestProcess_BadClientID_FatalWithRow(t *testing.T) {
	feed := "type,client,tx,amount\n" +
		"deposit,1,1,5\n" +
		"deposit,abc,2,5\n"

	_, err := process(t, feed)
	require.Error(t, err)

	var rowErr *ingest.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
}

func TestProcess_BadAmount_Fatal(t *testing.T) {
	feed := "type,client,tx,amount\n" +
		"deposit,1,1,five\n"

	_, err := process(t, feed)
	require.Error(t, err)

	var perr *fixedpoint.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestProcess_UnknownType_Fatal(t *testing.T) {
	feed := "type,client,tx,amount\n" +
		"transfer,1,1,5\n"

	_, err := process(t, feed)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUnknownKind)
}

func TestProcess_DuplicateTxID_Fatal(t *testing.T) {
	feed := "type,client,tx,amount\n" +
		"deposit,1,1,5\n" +
		"deposit,2,1,5\n"

	_, err := process(t, feed)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrDuplicateTx)
}

func TestProcess_MissingHeaderColumns_Fatal(t *testing.T) {
	feed := "kind,account,id\n" +
		"deposit,1,1\n"

	_, err := process(t, feed)
	assert.Error(t, err)
}

func TestProcess_EmptyFeed_HeaderOnly(t *testing.T) {
	ledger, err := process(t, "type,client,tx,amount\n")
	require.NoError(t, err)
	assert.Empty(t, ledger.Snapshot())
}
