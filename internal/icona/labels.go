package icona

import (
	"context"
	"net/http"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

// RateRequest buys one label. OrderID is an order id or a bundle id.
type RateRequest struct {
	RateID        string `json:"rateId"`
	LabelFileType string `json:"labelFileType,omitempty"`
	OrderID       string `json:"orderId"`
}

// Parcel dimensions are inches, weight is ounces.
type Parcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

type LabelRequest struct {
	Rates   []RateRequest `json:"rates"`
	Parcel  *Parcel       `json:"parcel,omitempty"`
	Service string        `json:"service,omitempty"`
}

// Label is the carrier's answer for one RateRequest; Error is set instead of
// TrackingNumber when that rate could not be bought.
type Label struct {
	OrderID        string       `json:"orderId"`
	TrackingNumber string       `json:"trackingNumber"`
	LabelURL       string       `json:"labelUrl"`
	Cost           order.Number `json:"cost"`
	Carrier        string       `json:"carrier,omitempty"`
	Service        string       `json:"service,omitempty"`
	Error          string       `json:"error,omitempty"`
}

func (l Label) Purchased() bool {
	return l.Error == "" && l.TrackingNumber != ""
}

type LabelResponse struct {
	Labels []Label `json:"labels"`
}

func (c *Client) PurchaseLabels(ctx context.Context, req LabelRequest) (*LabelResponse, error) {
	var res LabelResponse
	if err := c.do(ctx, http.MethodPost, "/shipping/labels", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
