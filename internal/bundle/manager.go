package bundle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/events"
	"github.com/example/liveshop-shipping/internal/fanout"
	"github.com/example/liveshop-shipping/internal/icona"
)

// ErrNoneSucceeded is returned with the result of a fan-out in which every
// per-order call failed.
var ErrNoneSucceeded = errors.New("no order update succeeded")

// OrderStore is the part of the commerce API the lifecycle needs.
type OrderStore interface {
	ListAllOrders(ctx context.Context, f icona.Filter) ([]order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	UpdateOrder(ctx context.Context, id string, patch order.Patch) (*order.Order, error)
	UnbundleItems(ctx context.Context, orderID string, itemIDs []string) ([]order.Order, error)
}

type Manager struct {
	store     OrderStore
	publisher events.Publisher
	newID     func() string
}

func NewManager(store OrderStore, publisher events.Publisher) *Manager {
	return &Manager{
		store:     store,
		publisher: publisher,
		newID:     func() string { return uuid.New().String() },
	}
}

type Created struct {
	BundleID string   `json:"bundleId"`
	OrderIDs []string `json:"orderIds"`
}

// AssignmentError reports a bundle whose id could not be written to every
// order. Orders that did receive the id were cleared again.
type AssignmentError struct {
	BundleID   string
	Results    []fanout.Result
	RolledBack bool
	Cause      error
}

func (e *AssignmentError) Error() string {
	_, failed := fanout.Count(e.Results)
	return fmt.Sprintf("failed to assign bundle %s to %d order(s): %v", e.BundleID, failed, e.Cause)
}

func (e *AssignmentError) Unwrap() error {
	return e.Cause
}

// Create groups orders under a new bundle id. Every order must exist, belong
// to userID and be processing, otherwise nothing is written. An empty userID
// is not scoped to a seller.
func (m *Manager) Create(ctx context.Context, userID string, orderIDs []string) (*Created, error) {
	ids := dedupe(orderIDs)
	if len(ids) < 2 {
		return nil, order.NewValidationError("orderIds", "at least two distinct orders are required")
	}

	orders, err := fetchAll(ctx, m.store, ids)
	if err != nil {
		return nil, err
	}
	var invalid []string
	for i, o := range orders {
		if o == nil || !o.OwnedBy(userID) || !o.CanBundle() {
			invalid = append(invalid, ids[i])
		}
	}
	if len(invalid) > 0 {
		return nil, &order.PreconditionError{Reason: "orders must exist and be processing", OrderIDs: invalid}
	}

	bundleID := m.newID()
	var (
		mu    sync.Mutex
		cause error
	)
	results := fanout.Run(ctx, ids, func(ctx context.Context, id string) error {
		_, err := m.store.UpdateOrder(ctx, id, order.Patch{BundleID: bundleID})
		if err != nil {
			mu.Lock()
			if cause == nil {
				cause = err
			}
			mu.Unlock()
		}
		return err
	})

	if failed := fanout.Failed(results); len(failed) > 0 {
		rollback := fanout.Run(ctx, fanout.Succeeded(results), func(ctx context.Context, id string) error {
			_, err := m.store.UpdateOrder(ctx, id, order.Patch{ClearBundle: true})
			return err
		})
		stuck := fanout.Failed(rollback)
		if len(stuck) > 0 {
			log.Error().
				Str("component", "bundle").
				Str("bundle_id", bundleID).
				Strs("order_ids", stuck).
				Msg("failed to clear partially assigned bundle")
		}
		return nil, &AssignmentError{BundleID: bundleID, Results: results, RolledBack: len(stuck) == 0, Cause: cause}
	}

	events.Emit(ctx, m.publisher, events.BundleCreated, bundleID, events.BundleCreatedData{BundleID: bundleID, OrderIDs: ids})
	return &Created{BundleID: bundleID, OrderIDs: ids}, nil
}

type UnbundleResult struct {
	BundleID        string          `json:"bundleId"`
	OrdersUnbundled int             `json:"ordersUnbundled"`
	OrdersFailed    int             `json:"ordersFailed"`
	Results         []fanout.Result `json:"results"`
	NotFound        bool            `json:"notFound,omitempty"`
}

// Unbundle clears the bundle id on every member of bundleID, or only on the
// members listed in orderIDs. A bundle without members is reported as
// NotFound rather than as an error.
func (m *Manager) Unbundle(ctx context.Context, userID, bundleID string, orderIDs []string) (*UnbundleResult, error) {
	members, err := m.members(ctx, userID, bundleID)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) > 0 {
		members = narrow(members, orderIDs)
	}
	if len(members) == 0 {
		return &UnbundleResult{BundleID: bundleID, NotFound: true, Results: []fanout.Result{}}, nil
	}

	results := fanout.Run(ctx, idsOf(members), func(ctx context.Context, id string) error {
		_, err := m.store.UpdateOrder(ctx, id, order.Patch{ClearBundle: true})
		return err
	})
	ok, failed := fanout.Count(results)
	res := &UnbundleResult{BundleID: bundleID, OrdersUnbundled: ok, OrdersFailed: failed, Results: results}
	if ok == 0 {
		return res, ErrNoneSucceeded
	}

	events.Emit(ctx, m.publisher, events.BundleUnbundled, bundleID, events.BundleChangedData{
		BundleID:  bundleID,
		Succeeded: fanout.Succeeded(results),
		Failed:    fanout.Failed(results),
	})
	return res, nil
}

// UnbundleItems moves line items out of an order into new standalone orders.
func (m *Manager) UnbundleItems(ctx context.Context, userID, orderID string, itemIDs []string) ([]order.Order, error) {
	if orderID == "" {
		return nil, order.NewValidationError("orderId", "is required")
	}
	if len(itemIDs) == 0 {
		return nil, order.NewValidationError("itemIds", "at least one item is required")
	}

	o, err := m.load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, id := range itemIDs {
		if !o.HasItem(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, order.NewValidationError("itemIds", "not on order %s: %v", orderID, unknown)
	}

	return m.store.UnbundleItems(ctx, orderID, itemIDs)
}

type ShipResult struct {
	BundleID      string          `json:"bundleId"`
	ShippedOrders int             `json:"shippedOrders"`
	FailedOrders  int             `json:"failedOrders"`
	Results       []fanout.Result `json:"results"`
}

// Ship marks every member of the bundle shipped. Members that cannot ship are
// reported as failed without calling the store; when none can ship the call
// is rejected as a precondition failure.
func (m *Manager) Ship(ctx context.Context, userID, bundleID string) (*ShipResult, error) {
	members, err := m.members(ctx, userID, bundleID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s", order.ErrBundleNotFound, bundleID)
	}

	results := make([]fanout.Result, len(members))
	var shippable []string
	for i := range members {
		o := &members[i]
		if !o.CanShip() {
			results[i] = fanout.Result{OrderID: o.ID, Error: o.TransitionError(order.StatusShipped).Error()}
			continue
		}
		shippable = append(shippable, o.ID)
	}
	if len(shippable) == 0 {
		return nil, &order.PreconditionError{Reason: "no order in the bundle can ship", OrderIDs: idsOf(members)}
	}

	shipped := fanout.Run(ctx, shippable, func(ctx context.Context, id string) error {
		_, err := m.store.UpdateOrder(ctx, id, order.Patch{Status: order.StatusShipped})
		return err
	})
	merge(results, members, shipped)

	ok, failed := fanout.Count(results)
	res := &ShipResult{BundleID: bundleID, ShippedOrders: ok, FailedOrders: failed, Results: results}
	if ok == 0 {
		return res, ErrNoneSucceeded
	}

	events.Emit(ctx, m.publisher, events.BundleShipped, bundleID, events.BundleChangedData{
		BundleID:  bundleID,
		Succeeded: fanout.Succeeded(results),
		Failed:    fanout.Failed(results),
	})
	return res, nil
}

// UpdateStatus moves one order to status. Cancellation goes through CancelOrder.
func (m *Manager) UpdateStatus(ctx context.Context, userID, orderID string, status order.Status, relist bool) (*order.Order, error) {
	if !status.Valid() {
		return nil, order.NewValidationError("status", "unknown status %q", status)
	}
	if status == order.StatusCancelled {
		return m.CancelOrder(ctx, userID, orderID, relist)
	}

	o, err := m.load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(status) {
		return nil, o.TransitionError(status)
	}
	return m.store.UpdateOrder(ctx, orderID, order.Patch{Status: status})
}

func (m *Manager) CancelOrder(ctx context.Context, userID, orderID string, relist bool) (*order.Order, error) {
	o, err := m.load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanCancel() {
		return nil, o.TransitionError(order.StatusCancelled)
	}

	updated, err := m.store.UpdateOrder(ctx, orderID, order.Patch{Status: order.StatusCancelled, Relist: &relist})
	if err != nil {
		return nil, err
	}

	aggregateID := o.Bundle()
	if aggregateID == "" {
		aggregateID = o.ID
	}
	events.Emit(ctx, m.publisher, events.OrderCancelled, aggregateID, events.OrderCancelledData{
		OrderIDs: []string{o.ID},
		BundleID: o.Bundle(),
		Relist:   relist,
	})
	return updated, nil
}

type CancelResult struct {
	BundleID        string          `json:"bundleId"`
	OrdersCancelled int             `json:"ordersCancelled"`
	OrdersFailed    int             `json:"ordersFailed"`
	Results         []fanout.Result `json:"results"`
}

// CancelBundle cancels every member. It is rejected without any write when a
// member can no longer be cancelled.
func (m *Manager) CancelBundle(ctx context.Context, userID, bundleID string, relist bool) (*CancelResult, error) {
	members, err := m.members(ctx, userID, bundleID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s", order.ErrBundleNotFound, bundleID)
	}

	var locked []string
	for i := range members {
		if !members[i].CanCancel() {
			locked = append(locked, members[i].ID)
		}
	}
	if len(locked) > 0 {
		return nil, &order.PreconditionError{Reason: "orders cannot be cancelled", OrderIDs: locked}
	}

	results := fanout.Run(ctx, idsOf(members), func(ctx context.Context, id string) error {
		_, err := m.store.UpdateOrder(ctx, id, order.Patch{Status: order.StatusCancelled, Relist: &relist})
		return err
	})
	ok, failed := fanout.Count(results)
	res := &CancelResult{BundleID: bundleID, OrdersCancelled: ok, OrdersFailed: failed, Results: results}
	if ok == 0 {
		return res, ErrNoneSucceeded
	}

	events.Emit(ctx, m.publisher, events.OrderCancelled, bundleID, events.OrderCancelledData{
		OrderIDs: fanout.Succeeded(results),
		BundleID: bundleID,
		Relist:   relist,
	})
	return res, nil
}

func (m *Manager) members(ctx context.Context, userID, bundleID string) ([]order.Order, error) {
	if bundleID == "" {
		return nil, order.NewValidationError("bundleId", "is required")
	}
	all, err := m.store.ListAllOrders(ctx, icona.Filter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return Members(all, bundleID), nil
}

// load fetches one order. Orders of another seller are reported as not found.
func (m *Manager) load(ctx context.Context, userID, orderID string) (*order.Order, error) {
	o, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if !o.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: %s", order.ErrOrderNotFound, orderID)
	}
	return o, nil
}

// fetchAll loads ids concurrently. A missing order leaves a nil entry; any
// other failure is returned.
func fetchAll(ctx context.Context, store OrderStore, ids []string) ([]*order.Order, error) {
	var (
		mu       sync.Mutex
		firstErr error
	)
	orders, _ := fanout.Collect(ctx, ids, func(ctx context.Context, id string) (*order.Order, error) {
		o, err := store.GetOrder(ctx, id)
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
	return orders, nil
}

// merge writes the outcomes of the orders that were called into the slots
// left empty for them.
func merge(results []fanout.Result, members []order.Order, called []fanout.Result) {
	byID := make(map[string]fanout.Result, len(called))
	for _, r := range called {
		byID[r.OrderID] = r
	}
	for i := range members {
		if r, ok := byID[members[i].ID]; ok {
			results[i] = r
		}
	}
}

func narrow(members []order.Order, orderIDs []string) []order.Order {
	keep := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		keep[id] = true
	}
	var out []order.Order
	for _, o := range members {
		if keep[o.ID] {
			out = append(out, o)
		}
	}
	return out
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
