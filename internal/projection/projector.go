// Package projection keeps the label ledger in step with the shipping events.
package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/example/liveshop-shipping/internal/events"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
)

type Projector struct {
	ledger store.LabelLedger
}

func NewProjector(ledger store.LabelLedger) *Projector {
	return &Projector{ledger: ledger}
}

// HandleEvent records every purchased label. Replaying an event is harmless:
// records are upserts keyed by tracking number, and a resolved label stays
// resolved.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := events.Decode(value)
	if err != nil {
		return err
	}

	switch event.Type {
	case events.LabelPurchased, events.LabelUnapplied:
	default:
		return nil
	}

	log.Debug().
		Str("component", "projector").
		Str("event_type", string(event.Type)).
		Str("aggregate_id", event.AggregateID).
		Msg("received event")

	var data events.LabelData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	if data.TrackingNumber == "" {
		return fmt.Errorf("%s event %s has no tracking number", event.Type, event.ID)
	}

	rec, err := recordFrom(data)
	if err != nil {
		return err
	}

	if err := p.ledger.Record(ctx, rec); err != nil {
		return fmt.Errorf("failed to record label %s: %w", data.TrackingNumber, err)
	}
	return nil
}

func recordFrom(data events.LabelData) (store.LabelRecord, error) {
	cost := decimal.Zero
	if data.Cost != "" {
		var err error
		if cost, err = decimal.NewFromString(data.Cost); err != nil {
			return store.LabelRecord{}, fmt.Errorf("invalid cost %q on label %s: %w", data.Cost, data.TrackingNumber, err)
		}
	}

	return store.LabelRecord{
		TrackingNumber:  data.TrackingNumber,
		LabelID:         data.LabelID,
		SellerID:        data.SellerID,
		LabelURL:        data.LabelURL,
		Carrier:         data.Carrier,
		Service:         data.Service,
		Cost:            cost,
		OrderIDs:        data.OrderIDs,
		AppliedOrderIDs: data.Applied,
		FailedOrderIDs:  data.Failed,
		Status:          store.StatusFor(data.Applied, data.Failed),
	}, nil
}
