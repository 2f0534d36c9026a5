package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
)

// Used for any dimension no member order provides.
const (
	defaultLength   = 12
	defaultWidth    = 12
	defaultHeight   = 4
	defaultWeightOz = 8
)

// ParcelFor packs orders into one parcel: the longest and widest member set
// the footprint, heights stack and weights add up.
func ParcelFor(orders []order.Order) icona.Parcel {
	var p icona.Parcel
	height, weight := decimal.Zero, decimal.Zero
	for i := range orders {
		l, w, h := orders[i].Dimensions()
		p.Length = max(p.Length, l)
		p.Width = max(p.Width, w)
		height = height.Add(decimal.NewFromFloat(h))
		weight = weight.Add(orders[i].WeightOz())
	}
	p.Height = height.InexactFloat64()
	p.Weight = weight.InexactFloat64()

	if p.Length <= 0 {
		p.Length = defaultLength
	}
	if p.Width <= 0 {
		p.Width = defaultWidth
	}
	if p.Height <= 0 {
		p.Height = defaultHeight
	}
	if p.Weight <= 0 {
		p.Weight = defaultWeightOz
	}
	return p
}
