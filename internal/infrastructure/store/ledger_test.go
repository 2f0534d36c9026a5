package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liveshop-shipping/internal/infrastructure/store"
	"github.com/example/liveshop-shipping/internal/infrastructure/store/mocks"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, store.LabelApplied, store.StatusFor([]string{"a"}, nil))
	assert.Equal(t, store.LabelPartial, store.StatusFor([]string{"a"}, []string{"b"}))
	assert.Equal(t, store.LabelUnapplied, store.StatusFor(nil, []string{"a", "b"}))
}

func TestLabelRecord_Pending(t *testing.T) {
	rec := store.LabelRecord{OrderIDs: []string{"a", "b", "c"}, AppliedOrderIDs: []string{"b"}}
	assert.Equal(t, []string{"a", "c"}, rec.Pending())

	rec.FailedOrderIDs = []string{"c"}
	assert.Equal(t, []string{"c"}, rec.Pending())
}

func TestMockLabelLedger_ResolvedIsNeverReopened(t *testing.T) {
	ctx := context.Background()
	ledger := mocks.NewMockLabelLedger()

	require.NoError(t, ledger.Record(ctx, store.LabelRecord{TrackingNumber: "1Z", OrderIDs: []string{"a"}, FailedOrderIDs: []string{"a"}}))
	pending, err := ledger.ListPending(ctx, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, store.LabelUnapplied, pending[0].Status)

	require.NoError(t, ledger.MarkResolved(ctx, "1Z", []string{"a"}))
	require.NoError(t, ledger.Record(ctx, store.LabelRecord{TrackingNumber: "1Z", FailedOrderIDs: []string{"a"}}))

	rec, err := ledger.Get(ctx, "1Z")
	require.NoError(t, err)
	assert.Equal(t, store.LabelResolved, rec.Status)
	pending, _ = ledger.ListPending(ctx, "")
	assert.Empty(t, pending)

	_, err = ledger.Get(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrLabelNotFound))
}

func TestMigrations_AreEmbedded(t *testing.T) {
	entries, err := store.MigrationFiles()
	require.NoError(t, err)
	assert.Contains(t, entries, "000001_label_ledger.up.sql")
	assert.Contains(t, entries, "000001_label_ledger.down.sql")
	assert.Contains(t, entries, "000002_label_seller.up.sql")
	assert.Contains(t, entries, "000002_label_seller.down.sql")
}

func TestMockLabelLedger_ListPendingBySeller(t *testing.T) {
	ctx := context.Background()
	ledger := mocks.NewMockLabelLedger()

	require.NoError(t, ledger.Record(ctx, store.LabelRecord{TrackingNumber: "1Z-A", SellerID: "seller-a", OrderIDs: []string{"a"}, FailedOrderIDs: []string{"a"}}))
	require.NoError(t, ledger.Record(ctx, store.LabelRecord{TrackingNumber: "1Z-B", SellerID: "seller-b", OrderIDs: []string{"b"}, FailedOrderIDs: []string{"b"}}))

	mine, err := ledger.ListPending(ctx, "seller-a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "1Z-A", mine[0].TrackingNumber)

	all, err := ledger.ListPending(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
