package order

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Address is the shipping address snapshot stored on an order.
type Address struct {
	Name    string `json:"name,omitempty"`
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

// SameDestination compares the fields a carrier uses to route a parcel.
func (a Address) SameDestination(b Address) bool {
	return normalize(a.Street) == normalize(b.Street) &&
		normalize(a.City) == normalize(b.City) &&
		normalize(a.State) == normalize(b.State) &&
		normalize(a.Zip) == normalize(b.Zip)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Party is a customer or seller snapshot taken when the order was placed.
type Party struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Address Address `json:"address"`
}

type Item struct {
	ItemID      string `json:"itemId"`
	ProductID   string `json:"productId"`
	Name        string `json:"name,omitempty"`
	Quantity    Number `json:"quantity"`
	UnitPrice   Number `json:"unitPrice"`
	ShippingFee Number `json:"shippingFee"`
	Weight      Number `json:"weight"`
	Scale       string `json:"scale,omitempty"`
	Length      Number `json:"length"`
	Width       Number `json:"width"`
	Height      Number `json:"height"`
}

// WeightOz returns the item weight in ounces.
func (i Item) WeightOz() decimal.Decimal {
	return toOunces(i.Weight.Decimal(), i.Scale)
}

type ShippingProfile struct {
	Weight Number `json:"weight"`
	Scale  string `json:"scale,omitempty"`
	Length Number `json:"length"`
	Width  Number `json:"width"`
	Height Number `json:"height"`
}

// Giveaway replaces the line items on orders won in a live giveaway.
type Giveaway struct {
	GiveawayID      string           `json:"giveawayId"`
	Name            string           `json:"name,omitempty"`
	ShippingProfile *ShippingProfile `json:"shippingProfile,omitempty"`
}

type Order struct {
	ID                   string    `json:"orderId"`
	CustomerID           string    `json:"customerId"`
	Customer             *Party    `json:"customer,omitempty"`
	SellerID             string    `json:"sellerId"`
	Seller               *Party    `json:"seller,omitempty"`
	Items                []Item    `json:"items,omitempty"`
	Giveaway             *Giveaway `json:"giveaway,omitempty"`
	Total                Number    `json:"total"`
	Tax                  Number    `json:"tax"`
	ShippingFee          Number    `json:"shippingFee"`
	ServiceFee           Number    `json:"serviceFee"`
	SellerShippingFeePay Number    `json:"seller_shipping_fee_pay"`
	Status               Status    `json:"status"`
	TrackingNumber       string    `json:"trackingNumber,omitempty"`
	TrackingURL          string    `json:"trackingUrl,omitempty"`
	LabelURL             string    `json:"labelUrl,omitempty"`
	RateID               string    `json:"rateId,omitempty"`
	BundleID             *string   `json:"bundleId"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Bundle returns the shared bundle id, or "" for a standalone order.
func (o *Order) Bundle() string {
	if o.BundleID == nil {
		return ""
	}
	return *o.BundleID
}

func (o *Order) InBundle() bool {
	return o.Bundle() != ""
}

func (o *Order) IsGiveaway() bool {
	return o.Giveaway != nil
}

// OwnedBy reports whether sellerID may act on the order. An empty sellerID
// is an unscoped caller.
func (o *Order) OwnedBy(sellerID string) bool {
	return sellerID == "" || o.SellerID == sellerID
}

// HasLabel reports whether a carrier label was already bought for the order.
func (o *Order) HasLabel() bool {
	return o.TrackingNumber != "" || o.TrackingURL != ""
}

// ItemCount counts a giveaway as a single item.
func (o *Order) ItemCount() int {
	if o.IsGiveaway() {
		return 1
	}
	return len(o.Items)
}

// WeightOz prefers the giveaway shipping profile and otherwise sums item
// weights. Decimal sums do not depend on the order items are added in.
func (o *Order) WeightOz() decimal.Decimal {
	if o.Giveaway != nil && o.Giveaway.ShippingProfile != nil {
		p := o.Giveaway.ShippingProfile
		return toOunces(p.Weight.Decimal(), p.Scale)
	}
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.WeightOz())
	}
	return total
}

// Dimensions returns length, width and height in inches taken from the giveaway
// profile or, failing that, the first line item.
func (o *Order) Dimensions() (length, width, height float64) {
	if o.Giveaway != nil && o.Giveaway.ShippingProfile != nil {
		p := o.Giveaway.ShippingProfile
		return p.Length.Float64(), p.Width.Float64(), p.Height.Float64()
	}
	if len(o.Items) > 0 {
		i := o.Items[0]
		return i.Length.Float64(), i.Width.Float64(), i.Height.Float64()
	}
	return 0, 0, 0
}

// ShippingAddress is the customer's destination; empty when no snapshot exists.
func (o *Order) ShippingAddress() Address {
	if o.Customer == nil {
		return Address{}
	}
	return o.Customer.Address
}

func (o *Order) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Name
}

// HasItem reports whether itemID names one of the order's line items.
func (o *Order) HasItem(itemID string) bool {
	for _, item := range o.Items {
		if item.ItemID == itemID {
			return true
		}
	}
	return false
}

var ouncesPerPound = decimal.NewFromInt(16)

func toOunces(weight decimal.Decimal, scale string) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(scale)) {
	case "lb", "lbs", "pound", "pounds":
		return weight.Mul(ouncesPerPound)
	}
	return weight
}

// Patch is a partial update sent to the order store. Zero values are omitted;
// ClearBundle sends an explicit null for bundleId.
type Patch struct {
	Status         Status
	TrackingNumber string
	LabelURL       string
	BundleID       string
	ClearBundle    bool
	Relist         *bool
}

func (p Patch) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	if p.Status != "" {
		body["status"] = p.Status
	}
	if p.TrackingNumber != "" {
		body["trackingNumber"] = p.TrackingNumber
	}
	if p.LabelURL != "" {
		body["labelUrl"] = p.LabelURL
	}
	switch {
	case p.ClearBundle:
		body["bundleId"] = nil
	case p.BundleID != "":
		body["bundleId"] = p.BundleID
	}
	if p.Relist != nil {
		body["relist"] = *p.Relist
	}
	return json.Marshal(body)
}

// LabelPatch is the update written to every order covered by a purchased label.
func LabelPatch(trackingNumber, labelURL string) Patch {
	return Patch{
		Status:         StatusReadyToShip,
		TrackingNumber: trackingNumber,
		LabelURL:       labelURL,
	}
}
