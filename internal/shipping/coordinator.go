// Package shipping buys carrier labels and writes the tracking number back to
// every order the label covers.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/events"
	"github.com/example/liveshop-shipping/internal/fanout"
	"github.com/example/liveshop-shipping/internal/icona"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
)

var (
	ErrLabelRejected     = errors.New("label purchase was rejected")
	ErrLedgerUnavailable = errors.New("label ledger is not configured")
	ErrAlreadyResolved   = errors.New("label was already reconciled")
	ErrNothingToReapply  = errors.New("label has no pending orders")
	ErrReapplyFailed     = errors.New("no order accepted the label")
)

type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	UpdateOrder(ctx context.Context, id string, patch order.Patch) (*order.Order, error)
	PurchaseLabels(ctx context.Context, req icona.LabelRequest) (*icona.LabelResponse, error)
}

type Coordinator struct {
	store     OrderStore
	ledger    store.LabelLedger
	publisher events.Publisher
	newID     func() string
}

// NewCoordinator wires the coordinator. ledger may be nil, in which case
// unapplied labels are only published and reconciliation is unavailable.
func NewCoordinator(orders OrderStore, ledger store.LabelLedger, publisher events.Publisher) *Coordinator {
	return &Coordinator{
		store:     orders,
		ledger:    ledger,
		publisher: publisher,
		newID:     func() string { return uuid.New().String() },
	}
}

type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeFailed   Outcome = "failed"
)

func outcomeOf(results []fanout.Result) Outcome {
	ok, failed := fanout.Count(results)
	switch {
	case failed == 0:
		return OutcomeComplete
	case ok == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// LabelResult describes one purchased label. Inconsistency is set when the
// label was paid for but no order took the tracking number.
type LabelResult struct {
	LabelID        string          `json:"labelId"`
	TrackingNumber string          `json:"trackingNumber"`
	LabelURL       string          `json:"labelUrl"`
	Cost           order.Number    `json:"cost"`
	Carrier        string          `json:"carrier,omitempty"`
	Service        string          `json:"service,omitempty"`
	AffectedOrders []string        `json:"affectedOrders"`
	UpdateResults  []fanout.Result `json:"updateResults"`
	Outcome        Outcome         `json:"outcome"`
	Inconsistency  bool            `json:"inconsistency,omitempty"`
	Order          *order.Order    `json:"order,omitempty"`
}

// OrderLabelRequest buys a label for one order. UserID scopes the request to
// one seller; empty means unscoped.
type OrderLabelRequest struct {
	OrderID       string
	RateID        string
	LabelFileType string
	UserID        string
}

// PurchaseForOrder buys a label for one order. An order that belongs to a
// bundle is labelled under its bundle id.
func (c *Coordinator) PurchaseForOrder(ctx context.Context, req OrderLabelRequest) (*LabelResult, error) {
	if req.OrderID == "" {
		return nil, order.NewValidationError("orderId", "is required")
	}
	if req.RateID == "" {
		return nil, order.NewValidationError("rateId", "is required")
	}

	o, err := c.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", req.OrderID, err)
	}
	if !o.OwnedBy(req.UserID) {
		return nil, fmt.Errorf("%w: %s", order.ErrOrderNotFound, req.OrderID)
	}
	if o.HasLabel() {
		return nil, fmt.Errorf("%w: order %s", order.ErrLabelPurchased, o.ID)
	}
	if !o.CanBuyLabel() {
		return nil, &order.PreconditionError{Reason: fmt.Sprintf("order status %s does not allow a label", o.Status), OrderIDs: []string{o.ID}}
	}

	labelID := o.Bundle()
	if labelID == "" {
		labelID = o.ID
	}
	label, err := c.buyOne(ctx, icona.LabelRequest{
		Rates: []icona.RateRequest{{RateID: req.RateID, LabelFileType: req.LabelFileType, OrderID: labelID}},
	})
	if err != nil {
		return nil, err
	}

	var updated *order.Order
	results := fanout.Run(ctx, []string{o.ID}, func(ctx context.Context, id string) error {
		var err error
		updated, err = c.store.UpdateOrder(ctx, id, order.LabelPatch(label.TrackingNumber, label.LabelURL))
		return err
	})

	res := c.settle(ctx, labelID, label, []order.Order{*o}, results)
	res.Order = updated
	return res, nil
}

type BundleLabelRequest struct {
	OrderIDs      []string
	Service       string
	RateID        string
	LabelFileType string
	UserID        string
}

// PurchaseForBundle buys one label for orders shipped together in one parcel.
// The orders must go to the same customer and address; any violation aborts
// before the carrier is called.
func (c *Coordinator) PurchaseForBundle(ctx context.Context, req BundleLabelRequest) (*LabelResult, error) {
	ids := dedupe(req.OrderIDs)
	if len(ids) == 0 {
		return nil, order.NewValidationError("orderIds", "at least one order is required")
	}
	if req.RateID == "" {
		return nil, order.NewValidationError("rateId", "is required")
	}

	orders, err := c.fetch(ctx, req.UserID, ids)
	if err != nil {
		return nil, err
	}
	if err := validateParcel(orders); err != nil {
		return nil, err
	}

	labelID := sharedBundle(orders)
	if labelID == "" {
		labelID = c.newID()
	}
	parcel := ParcelFor(orders)
	label, err := c.buyOne(ctx, icona.LabelRequest{
		Rates:   []icona.RateRequest{{RateID: req.RateID, LabelFileType: req.LabelFileType, OrderID: labelID}},
		Parcel:  &parcel,
		Service: req.Service,
	})
	if err != nil {
		return nil, err
	}

	results := fanout.Run(ctx, ids, func(ctx context.Context, id string) error {
		_, err := c.store.UpdateOrder(ctx, id, order.LabelPatch(label.TrackingNumber, label.LabelURL))
		return err
	})
	return c.settle(ctx, labelID, label, orders, results), nil
}

func validateParcel(orders []order.Order) error {
	first := orders[0]
	for _, o := range orders[1:] {
		if o.SellerID != first.SellerID {
			return &order.PreconditionError{Reason: "orders belong to different sellers", OrderIDs: []string{o.ID}}
		}
		if o.CustomerID != first.CustomerID {
			return &order.PreconditionError{Reason: "orders belong to different customers", OrderIDs: []string{o.ID}}
		}
		if !o.ShippingAddress().SameDestination(first.ShippingAddress()) {
			return &order.PreconditionError{Reason: "orders ship to different addresses", OrderIDs: []string{o.ID}}
		}
	}
	for i := range orders {
		o := &orders[i]
		if !o.CanBuyLabel() {
			return &order.PreconditionError{Reason: fmt.Sprintf("order status %s does not allow a label", o.Status), OrderIDs: []string{o.ID}}
		}
		if o.HasLabel() {
			return &order.PreconditionError{Reason: "order already has a label", OrderIDs: []string{o.ID}}
		}
	}
	return nil
}

// sharedBundle returns the bundle id every order carries, or "".
func sharedBundle(orders []order.Order) string {
	id := orders[0].Bundle()
	for i := range orders {
		if orders[i].Bundle() != id {
			return ""
		}
	}
	return id
}

type BulkLabelRequest struct {
	OrderIDs      []string
	LabelFileType string
	UserID        string
}

// FetchError explains why an order was left out of a bulk purchase.
type FetchError struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type BulkResult struct {
	SuccessCount  int             `json:"successCount"`
	FailureCount  int             `json:"failureCount"`
	FetchErrors   []FetchError    `json:"fetchErrors"`
	Labels        []LabelResult   `json:"labels"`
	UpdateResults []fanout.Result `json:"updateResults"`
}

// PurchaseBulk buys labels for a selection of orders using the rate already
// stored on each order. Orders of the same bundle share one label. All rates
// go to the carrier in a single call.
func (c *Coordinator) PurchaseBulk(ctx context.Context, req BulkLabelRequest) (*BulkResult, error) {
	ids := dedupe(req.OrderIDs)
	if len(ids) == 0 {
		return nil, order.NewValidationError("orderIds", "at least one order is required")
	}

	fetched, results := fanout.Collect(ctx, ids, c.store.GetOrder)
	res := &BulkResult{FetchErrors: []FetchError{}, Labels: []LabelResult{}, UpdateResults: []fanout.Result{}}

	groups := make(map[string][]order.Order)
	var labelIDs []string
	var rates []icona.RateRequest
	for i, r := range results {
		if !r.Success {
			res.FetchErrors = append(res.FetchErrors, FetchError{OrderID: r.OrderID, Reason: r.Error})
			continue
		}
		o := fetched[i]
		if reason := skipReason(o, req.UserID); reason != "" {
			res.FetchErrors = append(res.FetchErrors, FetchError{OrderID: o.ID, Reason: reason})
			continue
		}
		labelID := o.Bundle()
		if labelID == "" {
			labelID = o.ID
		}
		if _, ok := groups[labelID]; !ok {
			labelIDs = append(labelIDs, labelID)
			rates = append(rates, icona.RateRequest{RateID: o.RateID, LabelFileType: req.LabelFileType, OrderID: labelID})
		}
		groups[labelID] = append(groups[labelID], *o)
	}
	res.FailureCount = len(res.FetchErrors)
	if len(rates) == 0 {
		return res, nil
	}

	purchased, err := c.store.PurchaseLabels(ctx, icona.LabelRequest{Rates: rates})
	if err != nil {
		return nil, fmt.Errorf("failed to purchase labels: %w", err)
	}
	byLabel := make(map[string]icona.Label, len(purchased.Labels))
	for _, l := range purchased.Labels {
		byLabel[l.OrderID] = l
	}

	for _, labelID := range labelIDs {
		members := groups[labelID]
		label, ok := byLabel[labelID]
		if !ok || !label.Purchased() {
			reason := "carrier returned no label"
			if ok {
				reason = label.Error
			}
			for _, o := range members {
				res.UpdateResults = append(res.UpdateResults, fanout.Result{OrderID: o.ID, Error: reason})
			}
			continue
		}

		updates := fanout.Run(ctx, idsOf(members), func(ctx context.Context, id string) error {
			_, err := c.store.UpdateOrder(ctx, id, order.LabelPatch(label.TrackingNumber, label.LabelURL))
			return err
		})
		res.UpdateResults = append(res.UpdateResults, updates...)
		res.Labels = append(res.Labels, *c.settle(ctx, labelID, &label, members, updates))
	}

	ok, failed := fanout.Count(res.UpdateResults)
	res.SuccessCount = ok
	res.FailureCount += failed
	return res, nil
}

func skipReason(o *order.Order, userID string) string {
	switch {
	case userID != "" && o.SellerID != userID:
		return "order does not belong to this seller"
	case o.HasLabel():
		return "order already has a label"
	case o.RateID == "":
		return "order has no shipping rate"
	case !o.CanBuyLabel():
		return fmt.Sprintf("order status %s does not allow a label", o.Status)
	}
	return ""
}

func (c *Coordinator) buyOne(ctx context.Context, req icona.LabelRequest) (*icona.Label, error) {
	res, err := c.store.PurchaseLabels(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to purchase label: %w", err)
	}
	if len(res.Labels) == 0 {
		return nil, fmt.Errorf("%w: carrier returned no label", ErrLabelRejected)
	}
	label := res.Labels[0]
	if !label.Purchased() {
		return nil, fmt.Errorf("%w: %s", ErrLabelRejected, label.Error)
	}
	return &label, nil
}

// settle reports a purchased label. Labels that did not reach every order are
// written to the ledger for reconciliation.
func (c *Coordinator) settle(ctx context.Context, labelID string, label *icona.Label, orders []order.Order, results []fanout.Result) *LabelResult {
	res := &LabelResult{
		LabelID:        labelID,
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
		Cost:           label.Cost,
		Carrier:        label.Carrier,
		Service:        label.Service,
		AffectedOrders: idsOf(orders),
		UpdateResults:  results,
		Outcome:        outcomeOf(results),
	}
	res.Inconsistency = res.Outcome == OutcomeFailed

	applied, failed := fanout.Succeeded(results), fanout.Failed(results)
	data := events.LabelData{
		LabelID:        labelID,
		SellerID:       sellerOf(orders),
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
		Carrier:        label.Carrier,
		Service:        label.Service,
		Cost:           label.Cost.Decimal().StringFixed(2),
		OrderIDs:       res.AffectedOrders,
		Applied:        applied,
		Failed:         failed,
		Recipients:     recipients(orders, applied),
	}
	events.Emit(ctx, c.publisher, events.LabelPurchased, labelID, data)

	if res.Outcome == OutcomeComplete {
		return res
	}

	level := zerolog.WarnLevel
	if res.Inconsistency {
		level = zerolog.ErrorLevel
		events.Emit(ctx, c.publisher, events.LabelUnapplied, labelID, data)
	}
	log.WithLevel(level).
		Str("component", "shipping").
		Str("label_id", labelID).
		Str("tracking_number", label.TrackingNumber).
		Strs("failed", failed).
		Msg("label not applied to every order")

	if c.ledger != nil {
		rec := store.LabelRecord{
			TrackingNumber:  label.TrackingNumber,
			LabelID:         labelID,
			SellerID:        data.SellerID,
			LabelURL:        label.LabelURL,
			Carrier:         label.Carrier,
			Service:         label.Service,
			Cost:            label.Cost.Decimal(),
			OrderIDs:        res.AffectedOrders,
			AppliedOrderIDs: applied,
			FailedOrderIDs:  failed,
		}
		if err := c.ledger.Record(context.WithoutCancel(ctx), rec); err != nil {
			log.Error().Err(err).Str("component", "shipping").Str("tracking_number", label.TrackingNumber).Msg("failed to record unapplied label")
		}
	}
	return res
}

func sellerOf(orders []order.Order) string {
	if len(orders) == 0 {
		return ""
	}
	return orders[0].SellerID
}

func recipients(orders []order.Order, applied []string) []events.Recipient {
	var out []events.Recipient
	for _, o := range orders {
		if o.Customer == nil || o.Customer.Email == "" || !slices.Contains(applied, o.ID) {
			continue
		}
		out = append(out, events.Recipient{OrderID: o.ID, Name: o.Customer.Name, Email: o.Customer.Email})
	}
	return out
}

// fetch loads every order or fails with the ids that do not exist or belong
// to another seller. Any other upstream failure is returned as is.
func (c *Coordinator) fetch(ctx context.Context, userID string, ids []string) ([]order.Order, error) {
	var (
		mu       sync.Mutex
		firstErr error
	)
	fetched, results := fanout.Collect(ctx, ids, func(ctx context.Context, id string) (*order.Order, error) {
		o, err := c.store.GetOrder(ctx, id)
		if err != nil && !errors.Is(err, order.ErrOrderNotFound) {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to load order %s: %w", id, err)
			}
			mu.Unlock()
		}
		return o, err
	})
	if firstErr != nil {
		return nil, firstErr
	}

	var missing []string
	orders := make([]order.Order, 0, len(ids))
	for i, r := range results {
		if !r.Success || !fetched[i].OwnedBy(userID) {
			missing = append(missing, r.OrderID)
			continue
		}
		orders = append(orders, *fetched[i])
	}
	if len(missing) > 0 {
		return nil, &order.PreconditionError{Reason: "orders not found", OrderIDs: missing}
	}
	return orders, nil
}

func idsOf(orders []order.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
