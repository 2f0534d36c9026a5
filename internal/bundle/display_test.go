package bundle

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

func rowIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestDisplayRows_FilterDoesNotHideBundleMembers(t *testing.T) {
	orders := []order.Order{
		{ID: "o1", BundleID: ptr("b1"), Status: order.StatusShipped, Total: 10},
		{ID: "o2", BundleID: ptr("b1"), Status: order.StatusProcessing, Total: 5},
		{ID: "o3", Status: order.StatusProcessing},
	}

	rows := DisplayRows(orders, order.StatusShipped)

	require.Len(t, rows.Bundles, 1)
	assert.Len(t, rows.Bundles[0].Orders, 2, "filter applies after aggregation")
	assert.Equal(t, "15", rows.Bundles[0].TotalValue.String())
	assert.Empty(t, rows.Standalone)
}

func TestDisplayRows_MultiItemOrderIsBundleLike(t *testing.T) {
	orders := []order.Order{
		{ID: "multi", Items: make([]order.Item, 2), Status: order.StatusProcessing},
		{ID: "single", Items: make([]order.Item, 1), Status: order.StatusProcessing},
		{ID: "gift", Giveaway: &order.Giveaway{}, Status: order.StatusProcessing},
	}

	rows := DisplayRows(orders, "")

	if diff := cmp.Diff([]string{"multi"}, rowIDs(rows.Bundles)); diff != "" {
		t.Errorf("bundle rows mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, rows.Bundles[0].BundleLike)
	assert.Empty(t, rows.Bundles[0].BundleID)
	if diff := cmp.Diff([]string{"single", "gift"}, rowIDs(rows.Standalone)); diff != "" {
		t.Errorf("standalone rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, Sort{Column: SortDate, Desc: true}, s)

	s, err = ParseSort(SortTotal, "DESC")
	require.NoError(t, err)
	assert.Equal(t, Sort{Column: SortTotal, Desc: true}, s)

	_, err = ParseSort("weight", "")
	assert.True(t, order.IsValidation(err))

	_, err = ParseSort(SortItems, "sideways")
	assert.True(t, order.IsValidation(err))
}

func TestSortRows(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := func() []Row {
		return []Row{
			{ID: "a", Customer: "bob", ItemCount: 2, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "b", Customer: "Alice", ItemCount: 1, CreatedAt: base},
			{ID: "c", Customer: "alice", ItemCount: 2, CreatedAt: base.Add(time.Hour)},
		}
	}

	tests := []struct {
		name string
		sort Sort
		want []string
	}{
		{"default newest first", Sort{Column: SortDate, Desc: true}, []string{"a", "c", "b"}},
		{"customer ignores case and is stable", Sort{Column: SortCustomer}, []string{"b", "c", "a"}},
		{"items descending keeps ties in place", Sort{Column: SortItems, Desc: true}, []string{"a", "c", "b"}},
		{"items ascending", Sort{Column: SortItems}, []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rows()
			SortRows(r, tt.sort)
			assert.Equal(t, tt.want, rowIDs(r))
		})
	}
}
