package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var ErrLabelNotFound = errors.New("label not found in ledger")

type LabelStatus string

const (
	LabelApplied   LabelStatus = "applied"
	LabelPartial   LabelStatus = "partial"
	LabelUnapplied LabelStatus = "unapplied"
	LabelResolved  LabelStatus = "resolved"
)

// LabelRecord tracks a purchased label and the orders it was written to.
type LabelRecord struct {
	TrackingNumber  string          `json:"trackingNumber"`
	LabelID         string          `json:"labelId"`
	SellerID        string          `json:"sellerId,omitempty"`
	LabelURL        string          `json:"labelUrl"`
	Carrier         string          `json:"carrier,omitempty"`
	Service         string          `json:"service,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	OrderIDs        []string        `json:"orderIds"`
	AppliedOrderIDs []string        `json:"appliedOrderIds"`
	FailedOrderIDs  []string        `json:"failedOrderIds"`
	Status          LabelStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// StatusFor derives the ledger status from how many orders took the label.
func StatusFor(applied, failed []string) LabelStatus {
	switch {
	case len(failed) == 0:
		return LabelApplied
	case len(applied) == 0:
		return LabelUnapplied
	default:
		return LabelPartial
	}
}

// Pending lists the orders still missing the label.
func (r LabelRecord) Pending() []string {
	if len(r.FailedOrderIDs) > 0 {
		return slices.Clone(r.FailedOrderIDs)
	}
	var pending []string
	for _, id := range r.OrderIDs {
		if !slices.Contains(r.AppliedOrderIDs, id) {
			pending = append(pending, id)
		}
	}
	return pending
}

// LabelLedger stores labels that need, or needed, operator reconciliation.
type LabelLedger interface {
	// Record inserts or updates the entry for rec.TrackingNumber. A resolved
	// entry is never reopened.
	Record(ctx context.Context, rec LabelRecord) error
	Get(ctx context.Context, trackingNumber string) (*LabelRecord, error)
	// ListPending returns unresolved labels of sellerID, or of every seller
	// when sellerID is empty.
	ListPending(ctx context.Context, sellerID string) ([]LabelRecord, error)
	MarkResolved(ctx context.Context, trackingNumber string, applied []string) error
}
