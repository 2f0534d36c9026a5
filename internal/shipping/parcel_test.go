package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
)

func TestParcelFor_Defaults(t *testing.T) {
	p := ParcelFor([]order.Order{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, icona.Parcel{Length: 12, Width: 12, Height: 4, Weight: 8}, p)
}

func TestParcelFor_StacksHeightsAndSumsWeights(t *testing.T) {
	orders := []order.Order{
		{ID: "a", Items: []order.Item{{Length: 10, Width: 6, Height: 2, Weight: 4, Scale: "oz"}}},
		{ID: "b", Items: []order.Item{{Length: 8, Width: 9, Height: 3, Weight: 0.75, Scale: "lb"}}},
		{ID: "c", Giveaway: &order.Giveaway{ShippingProfile: &order.ShippingProfile{Length: 4, Width: 4, Height: 1, Weight: 2}}},
	}

	p := ParcelFor(orders)

	assert.Equal(t, 10.0, p.Length)
	assert.Equal(t, 9.0, p.Width)
	assert.Equal(t, 6.0, p.Height)
	assert.Equal(t, 18.0, p.Weight)
}

func TestParcelFor_SumsDoNotDependOnOrder(t *testing.T) {
	a := order.Order{ID: "a", Items: []order.Item{{Weight: 0.1, Height: 0.1}}}
	b := order.Order{ID: "b", Items: []order.Item{{Weight: 0.2, Height: 0.2}}}
	c := order.Order{ID: "c", Items: []order.Item{{Weight: 0.3, Height: 0.3}}}

	forward := ParcelFor([]order.Order{a, b, c})
	reverse := ParcelFor([]order.Order{c, b, a})

	assert.Equal(t, forward, reverse)
	assert.Equal(t, 0.6, forward.Weight)
	assert.Equal(t, 0.6, forward.Height)
}

func TestParcelFor_DefaultsOnlyMissingFields(t *testing.T) {
	p := ParcelFor([]order.Order{{ID: "a", Items: []order.Item{{Weight: 20}}}})
	assert.Equal(t, icona.Parcel{Length: 12, Width: 12, Height: 4, Weight: 20}, p)
}
