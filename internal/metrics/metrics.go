// Package metrics derives the seller dashboard figures from an order set.
package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

type Summary struct {
	TotalSold          decimal.Decimal `json:"totalSold"`
	TotalEarned        decimal.Decimal `json:"totalEarned"`
	TotalShippingSpend decimal.Decimal `json:"totalShippingSpend"`
	ItemsSold          int64           `json:"itemsSold"`
	TotalDelivered     int             `json:"totalDelivered"`
	PendingDelivery    int             `json:"pendingDelivery"`
	Degraded           bool            `json:"degraded,omitempty"`
}

// Empty is served when the order set could not be loaded.
func Empty() Summary {
	return Summary{
		TotalSold:          decimal.Zero,
		TotalEarned:        decimal.Zero,
		TotalShippingSpend: decimal.Zero,
		Degraded:           true,
	}
}

// Compute scans orders once. Missing numbers count as zero.
func Compute(orders []order.Order) Summary {
	sold := decimal.Zero
	spend := decimal.Zero
	fees := decimal.Zero
	var s Summary

	for _, o := range orders {
		subtotal := decimal.Zero
		for _, item := range o.Items {
			subtotal = subtotal.Add(item.UnitPrice.Decimal().Mul(item.Quantity.Decimal()))
		}
		sold = sold.Add(subtotal).Add(o.Tax.Decimal())
		fees = fees.Add(o.ServiceFee.Decimal())

		if o.Status == order.StatusProcessing {
			spend = spend.Add(o.SellerShippingFeePay.Decimal())
		}

		if o.IsGiveaway() {
			s.ItemsSold++
		} else {
			for _, item := range o.Items {
				s.ItemsSold += item.Quantity.Decimal().IntPart()
			}
		}

		switch o.Status {
		case order.StatusDelivered, order.StatusEnded:
			s.TotalDelivered++
		case order.StatusShipping, order.StatusShipped:
			s.PendingDelivery++
		}
	}

	s.TotalSold = sold
	s.TotalShippingSpend = spend
	s.TotalEarned = sold.Sub(spend).Sub(fees)
	return s
}
