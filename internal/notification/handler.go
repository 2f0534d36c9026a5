package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/email"
	"github.com/example/liveshop-shipping/internal/events"
)

// Mailer is implemented by email.Service.
type Mailer interface {
	SendShipmentNotice(to string, n email.ShipmentNotice) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer) *Handler {
	return &Handler{mailer: mailer}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := events.Decode(value)
	if err != nil {
		log.Error().Err(err).Str("component", "notifier").Msg("failed to decode event")
		return err
	}

	// Only label.purchased reaches customers
	if event.Type != events.LabelPurchased {
		return nil
	}

	var data events.LabelData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		log.Error().Err(err).Str("component", "notifier").Str("event_id", event.ID).Msg("failed to decode label payload")
		return err
	}
	return h.notify(data)
}

// notify sends one message per customer. Orders of one customer that share
// the label are listed together.
func (h *Handler) notify(data events.LabelData) error {
	logger := log.With().
		Str("component", "notifier").
		Str("tracking_number", data.TrackingNumber).
		Logger()

	var order []string
	notices := make(map[string]*email.ShipmentNotice)
	for _, r := range data.Recipients {
		if r.Email == "" {
			logger.Warn().Str("order_id", r.OrderID).Msg("recipient has no email, skipping")
			continue
		}
		n, ok := notices[r.Email]
		if !ok {
			n = &email.ShipmentNotice{
				Name:           r.Name,
				TrackingNumber: data.TrackingNumber,
				Carrier:        data.Carrier,
				Service:        data.Service,
			}
			notices[r.Email] = n
			order = append(order, r.Email)
		}
		n.OrderIDs = append(n.OrderIDs, r.OrderID)
	}

	var errs []error
	for _, to := range order {
		if err := h.mailer.SendShipmentNotice(to, *notices[to]); err != nil {
			logger.Error().Err(err).Str("to", to).Msg("failed to send shipment notice")
			errs = append(errs, err)
			continue
		}
		logger.Info().Str("to", to).Strs("order_ids", notices[to].OrderIDs).Msg("shipment notice sent")
	}
	if len(errs) > 0 {
		return fmt.Errorf("shipment notice for %s: %w", data.TrackingNumber, errors.Join(errs...))
	}
	return nil
}
