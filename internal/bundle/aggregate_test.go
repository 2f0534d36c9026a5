package bundle

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

func ptr(s string) *string { return &s }

func withStatus(id string, status order.Status) order.Order {
	return order.Order{ID: id, Status: status}
}

// ============================================
// Status reduction
// ============================================

func TestStatus_AllEqual(t *testing.T) {
	orders := []order.Order{withStatus("a", order.StatusReadyToShip), withStatus("b", order.StatusReadyToShip)}
	assert.Equal(t, order.StatusReadyToShip, Status(orders))
}

func TestStatus_Priority(t *testing.T) {
	tests := []struct {
		name     string
		statuses []order.Status
		want     order.Status
	}{
		{"cancelled dominates", []order.Status{order.StatusShipped, order.StatusCancelled, order.StatusProcessing}, order.StatusCancelled},
		{"shipped beats ready", []order.Status{order.StatusReadyToShip, order.StatusShipped}, order.StatusShipped},
		{"ready beats processing", []order.Status{order.StatusProcessing, order.StatusReadyToShip}, order.StatusReadyToShip},
		{"delivered counts as shipped", []order.Status{order.StatusDelivered, order.StatusProcessing}, order.StatusShipped},
		{"pending counts as processing", []order.Status{order.StatusPending, order.StatusPending}, order.StatusProcessing},
		{"ended alone is shipped", []order.Status{order.StatusEnded}, order.StatusShipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var orders []order.Order
			for i, s := range tt.statuses {
				orders = append(orders, withStatus(string(rune('a'+i)), s))
			}
			assert.Equal(t, tt.want, Status(orders))
		})
	}
}

func TestStatus_AlwaysOneOfFour(t *testing.T) {
	all := []order.Status{
		order.StatusPending, order.StatusUnfulfilled, order.StatusProcessing, order.StatusReadyToShip,
		order.StatusShipping, order.StatusShipped, order.StatusDelivered, order.StatusEnded, order.StatusCancelled,
	}
	allowed := map[order.Status]bool{
		order.StatusProcessing: true, order.StatusReadyToShip: true,
		order.StatusShipped: true, order.StatusCancelled: true,
	}
	rng := rand.New(rand.NewSource(7))

	for n := 0; n < 500; n++ {
		size := 1 + rng.Intn(5)
		orders := make([]order.Order, size)
		hasCancelled := false
		for i := range orders {
			orders[i] = withStatus("o", all[rng.Intn(len(all))])
			hasCancelled = hasCancelled || orders[i].Status == order.StatusCancelled
		}
		got := Status(orders)
		require.True(t, allowed[got], "unexpected status %s", got)
		if hasCancelled {
			require.Equal(t, order.StatusCancelled, got)
		}
	}
}

// ============================================
// Aggregates
// ============================================

func TestAggregate_PartitionsByBundleID(t *testing.T) {
	orders := []order.Order{
		{ID: "o1", BundleID: ptr("b1"), Status: order.StatusProcessing},
		{ID: "o2"},
		{ID: "o3", BundleID: ptr("b2"), Status: order.StatusProcessing},
		{ID: "o4", BundleID: ptr("b1"), Status: order.StatusShipped},
		{ID: "o5", BundleID: ptr("")},
	}

	standalone, bundles := Aggregate(orders)

	assert.Equal(t, []string{"o2", "o5"}, idsOf(standalone))
	require.Len(t, bundles, 2)
	assert.Equal(t, "b1", bundles[0].ID)
	assert.Equal(t, []string{"o1", "o4"}, bundles[0].OrderIDs())
	assert.Equal(t, order.StatusShipped, bundles[0].Status)
	assert.Equal(t, "b2", bundles[1].ID)
}

func TestAggregate_WeightInOunces(t *testing.T) {
	orders := []order.Order{
		{ID: "a", BundleID: ptr("b"), Items: []order.Item{{Weight: 4, Scale: "oz"}}},
		{ID: "b", BundleID: ptr("b"), Items: []order.Item{{Weight: 0.75, Scale: "lb"}}},
	}

	_, bundles := Aggregate(orders)

	require.Len(t, bundles, 1)
	assert.Equal(t, "16", bundles[0].TotalWeight.String())
}

func TestAggregate_ItemCountAndValue(t *testing.T) {
	orders := []order.Order{
		{ID: "a", BundleID: ptr("b"), Items: make([]order.Item, 3), Total: 30, Tax: 2.4, ShippingFee: 5},
		{ID: "b", BundleID: ptr("b"), Giveaway: &order.Giveaway{GiveawayID: "g1"}},
		{ID: "c", BundleID: ptr("b"), Total: 10.1},
	}

	_, bundles := Aggregate(orders)

	assert.Equal(t, 4, bundles[0].ItemCount)
	assert.True(t, decimal.RequireFromString("47.5").Equal(bundles[0].TotalValue), bundles[0].TotalValue.String())
}

func TestAggregate_OrderIndependent(t *testing.T) {
	orders := []order.Order{
		{ID: "a", BundleID: ptr("b"), Items: []order.Item{{Weight: 1.1, Scale: "lb"}}, Total: 0.1, Tax: 0.2},
		{ID: "b", BundleID: ptr("b"), Items: []order.Item{{Weight: 3.3}}, Total: 19.99},
		{ID: "c", BundleID: ptr("b"), Giveaway: &order.Giveaway{ShippingProfile: &order.ShippingProfile{Weight: 2}}, ShippingFee: 4.05},
		{ID: "d", BundleID: ptr("b"), Items: []order.Item{{Weight: 0.7}, {Weight: 5}}, Tax: 1.7},
	}
	want := TotalValue(orders)
	wantWeight := TotalWeight(orders)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		shuffled := append([]order.Order(nil), orders...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		assert.True(t, want.Equal(TotalValue(shuffled)))
		assert.True(t, wantWeight.Equal(TotalWeight(shuffled)), TotalWeight(shuffled).String())
	}
}

func TestAggregate_WeightIsExactUnderPermutation(t *testing.T) {
	a := order.Order{ID: "a", BundleID: ptr("b"), Items: []order.Item{{Weight: 0.1}}}
	b := order.Order{ID: "b", BundleID: ptr("b"), Items: []order.Item{{Weight: 0.2}}}
	c := order.Order{ID: "c", BundleID: ptr("b"), Items: []order.Item{{Weight: 0.3}}}
	want := decimal.RequireFromString("0.6")

	for _, orders := range [][]order.Order{{a, b, c}, {c, b, a}, {b, a, c}, {c, a, b}} {
		assert.True(t, want.Equal(TotalWeight(orders)), TotalWeight(orders).String())

		_, bundles := Aggregate(orders)
		require.Len(t, bundles, 1)
		assert.True(t, want.Equal(bundles[0].TotalWeight), bundles[0].TotalWeight.String())
	}
}

func TestAggregate_BundleCreatedAtIsNewestMember(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	_, bundles := Aggregate([]order.Order{
		{ID: "a", BundleID: ptr("b"), CreatedAt: t2},
		{ID: "b", BundleID: ptr("b"), CreatedAt: t1},
	})
	assert.Equal(t, t2, bundles[0].CreatedAt)
}

func TestMembers(t *testing.T) {
	orders := []order.Order{{ID: "a", BundleID: ptr("b")}, {ID: "c"}}
	assert.Len(t, Members(orders, "b"), 1)
	assert.Empty(t, Members(orders, ""))
}
