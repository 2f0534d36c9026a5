package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/events"
	"github.com/example/liveshop-shipping/internal/fanout"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
)

// ListUnapplied returns labels of userID that still miss at least one order.
// An empty userID lists every seller's labels.
func (c *Coordinator) ListUnapplied(ctx context.Context, userID string) ([]store.LabelRecord, error) {
	if c.ledger == nil {
		return nil, ErrLedgerUnavailable
	}
	return c.ledger.ListPending(ctx, userID)
}

type ReapplyResult struct {
	TrackingNumber string          `json:"trackingNumber"`
	LabelID        string          `json:"labelId"`
	UpdateResults  []fanout.Result `json:"updateResults"`
	Resolved       bool            `json:"resolved"`
}

// Reapply writes an already purchased label to the orders that did not take
// it. No new label is bought. The ledger entry is resolved once every order
// carries the tracking number. Labels of another seller are reported as not
// found.
func (c *Coordinator) Reapply(ctx context.Context, userID, trackingNumber string) (*ReapplyResult, error) {
	if c.ledger == nil {
		return nil, ErrLedgerUnavailable
	}
	rec, err := c.ledger.Get(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if userID != "" && rec.SellerID != userID {
		return nil, fmt.Errorf("%w: %s", store.ErrLabelNotFound, trackingNumber)
	}
	if rec.Status == store.LabelResolved {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyResolved, trackingNumber)
	}
	pending := rec.Pending()
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingToReapply, trackingNumber)
	}

	touched, results := fanout.Collect(ctx, pending, func(ctx context.Context, id string) (order.Order, error) {
		o, err := c.store.GetOrder(ctx, id)
		if err != nil {
			return order.Order{}, err
		}
		if o.TrackingNumber == rec.TrackingNumber {
			return *o, nil
		}
		if o.HasLabel() {
			return order.Order{}, fmt.Errorf("%w: order %s carries %s", order.ErrLabelPurchased, id, o.TrackingNumber)
		}
		_, err = c.store.UpdateOrder(ctx, id, order.LabelPatch(rec.TrackingNumber, rec.LabelURL))
		return *o, err
	})

	res := &ReapplyResult{TrackingNumber: rec.TrackingNumber, LabelID: rec.LabelID, UpdateResults: results}
	succeeded := fanout.Succeeded(results)
	if len(succeeded) == 0 {
		return res, ErrReapplyFailed
	}

	applied := append(append([]string{}, rec.AppliedOrderIDs...), succeeded...)
	failed := fanout.Failed(results)
	if len(failed) == 0 {
		err = c.ledger.MarkResolved(ctx, rec.TrackingNumber, applied)
		res.Resolved = err == nil
	} else {
		rec.AppliedOrderIDs, rec.FailedOrderIDs, rec.Status = applied, failed, ""
		err = c.ledger.Record(ctx, *rec)
	}
	if err != nil {
		return res, fmt.Errorf("failed to update ledger for %s: %w", rec.TrackingNumber, err)
	}

	events.Emit(ctx, c.publisher, events.LabelPurchased, rec.LabelID, events.LabelData{
		LabelID:        rec.LabelID,
		SellerID:       rec.SellerID,
		TrackingNumber: rec.TrackingNumber,
		LabelURL:       rec.LabelURL,
		Carrier:        rec.Carrier,
		Service:        rec.Service,
		Cost:           rec.Cost.StringFixed(2),
		OrderIDs:       rec.OrderIDs,
		Applied:        applied,
		Failed:         failed,
		Recipients:     recipients(touched, succeeded),
	})
	return res, nil
}

// IsLedgerMiss reports whether err means the tracking number is unknown.
func IsLedgerMiss(err error) bool {
	return errors.Is(err, store.ErrLabelNotFound)
}
