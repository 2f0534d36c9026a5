// Package bundle derives bundles from the bundleId carried by orders and runs
// the bundle lifecycle against the order store.
package bundle

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

// Bundle is computed on every read from orders sharing a bundleId. It is never
// stored.
type Bundle struct {
	ID          string          `json:"bundleId"`
	Orders      []order.Order   `json:"orders"`
	Status      order.Status    `json:"status"`
	ItemCount   int             `json:"itemCount"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalWeight decimal.Decimal `json:"totalWeight"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (b Bundle) OrderIDs() []string {
	ids := make([]string, len(b.Orders))
	for i, o := range b.Orders {
		ids[i] = o.ID
	}
	return ids
}

// Aggregate partitions orders into standalone orders and bundles. Bundles
// appear in the order their first member was seen. Callers must pass the
// unfiltered order set so that no member is missing from the aggregates.
func Aggregate(orders []order.Order) (standalone []order.Order, bundles []Bundle) {
	index := make(map[string]int)
	for _, o := range orders {
		id := o.Bundle()
		if id == "" {
			standalone = append(standalone, o)
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(bundles)
			index[id] = i
			bundles = append(bundles, Bundle{ID: id})
		}
		bundles[i].Orders = append(bundles[i].Orders, o)
	}

	for i := range bundles {
		bundles[i] = summarize(bundles[i].ID, bundles[i].Orders)
	}
	return standalone, bundles
}

// Members returns the orders carrying bundleID.
func Members(orders []order.Order, bundleID string) []order.Order {
	var members []order.Order
	for _, o := range orders {
		if bundleID != "" && o.Bundle() == bundleID {
			members = append(members, o)
		}
	}
	return members
}

func summarize(id string, members []order.Order) Bundle {
	b := Bundle{
		ID:          id,
		Orders:      members,
		Status:      Status(members),
		ItemCount:   ItemCount(members),
		TotalValue:  TotalValue(members),
		TotalWeight: TotalWeight(members),
	}
	for _, o := range members {
		if o.CreatedAt.After(b.CreatedAt) {
			b.CreatedAt = o.CreatedAt
		}
	}
	return b
}

// ItemCount counts a giveaway order as one item.
func ItemCount(orders []order.Order) int {
	var n int
	for i := range orders {
		n += orders[i].ItemCount()
	}
	return n
}

// TotalValue sums total, tax and shipping fee across orders.
func TotalValue(orders []order.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.Total.Decimal()).Add(o.Tax.Decimal()).Add(o.ShippingFee.Decimal())
	}
	return sum
}

// TotalWeight is the combined weight in ounces.
func TotalWeight(orders []order.Order) decimal.Decimal {
	oz := decimal.Zero
	for i := range orders {
		oz = oz.Add(orders[i].WeightOz())
	}
	return oz
}

// statusPriority decides a mixed bundle's status: the first one present wins.
var statusPriority = []order.Status{
	order.StatusCancelled,
	order.StatusShipped,
	order.StatusReadyToShip,
	order.StatusProcessing,
}

// Status reduces member statuses to one of cancelled, shipped, ready_to_ship
// or processing. Statuses past shipping count as shipped and statuses before
// processing count as processing.
func Status(orders []order.Order) order.Status {
	if len(orders) == 0 {
		return order.StatusProcessing
	}

	present := make(map[order.Status]bool)
	for _, o := range orders {
		present[displayStatus(o.Status)] = true
	}
	if len(present) == 1 {
		for s := range present {
			return s
		}
	}
	for _, s := range statusPriority {
		if present[s] {
			return s
		}
	}
	return order.StatusProcessing
}

func displayStatus(s order.Status) order.Status {
	switch s {
	case order.StatusShipping, order.StatusShipped, order.StatusDelivered, order.StatusEnded:
		return order.StatusShipped
	case order.StatusCancelled, order.StatusReadyToShip:
		return s
	default:
		return order.StatusProcessing
	}
}
