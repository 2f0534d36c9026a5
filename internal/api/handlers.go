package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/api/middleware"
	"github.com/example/liveshop-shipping/internal/auth"
	"github.com/example/liveshop-shipping/internal/bundle"
	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
	"github.com/example/liveshop-shipping/internal/metrics"
	"github.com/example/liveshop-shipping/internal/shipping"
)

// OrderReader is the read side of the commerce API.
type OrderReader interface {
	ListOrders(ctx context.Context, f icona.Filter) (*icona.OrderPage, error)
	ListAllOrders(ctx context.Context, f icona.Filter) ([]order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
}

type BundleService interface {
	Create(ctx context.Context, userID string, orderIDs []string) (*bundle.Created, error)
	Unbundle(ctx context.Context, userID, bundleID string, orderIDs []string) (*bundle.UnbundleResult, error)
	UnbundleItems(ctx context.Context, userID, orderID string, itemIDs []string) ([]order.Order, error)
	Ship(ctx context.Context, userID, bundleID string) (*bundle.ShipResult, error)
	UpdateStatus(ctx context.Context, userID, orderID string, status order.Status, relist bool) (*order.Order, error)
	CancelBundle(ctx context.Context, userID, bundleID string, relist bool) (*bundle.CancelResult, error)
}

type LabelService interface {
	PurchaseForOrder(ctx context.Context, req shipping.OrderLabelRequest) (*shipping.LabelResult, error)
	PurchaseForBundle(ctx context.Context, req shipping.BundleLabelRequest) (*shipping.LabelResult, error)
	PurchaseBulk(ctx context.Context, req shipping.BulkLabelRequest) (*shipping.BulkResult, error)
	ListUnapplied(ctx context.Context, userID string) ([]store.LabelRecord, error)
	Reapply(ctx context.Context, userID, trackingNumber string) (*shipping.ReapplyResult, error)
}

type Handlers struct {
	orders  OrderReader
	bundles BundleService
	labels  LabelService
}

func NewHandlers(orders OrderReader, bundles BundleService, labels LabelService) *Handlers {
	return &Handlers{
		orders:  orders,
		bundles: bundles,
		labels:  labels,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Order Handlers

// GetOrders lists one page of orders. Sellers only see their own orders and
// customers only their purchases; admins may pass either scope.
func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := icona.Filter{
		UserID:     q.Get("userId"),
		Customer:   q.Get("customer"),
		Status:     order.Status(q.Get("status")),
		CustomerID: q.Get("customerId"),
	}

	var err error
	if f.Page, err = intParam(q.Get("page"), "page"); err != nil {
		respondError(w, err)
		return
	}
	if f.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		respondError(w, err)
		return
	}

	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		switch claims.Role {
		case auth.RoleSeller:
			f.UserID, f.Customer = claims.UserID, ""
		case auth.RoleCustomer:
			f.UserID, f.Customer = "", claims.UserID
		}
	}

	if err := f.Validate(); err != nil {
		respondError(w, err)
		return
	}

	page, err := h.orders.ListOrders(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetOrder answers 404 for orders outside the caller's scope.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !visibleTo(r, o) {
		respondError(w, fmt.Errorf("%w: %s", order.ErrOrderNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, o)
}

type UpdateOrderRequest struct {
	Status order.Status `json:"status" validate:"required"`
	Relist bool         `json:"relist"`
}

// UpdateOrder moves one order to a new status. Cancellation is checked
// against the label and shipping state of the order.
func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if !bind(w, r, &req) {
		return
	}

	o, err := h.bundles.UpdateStatus(r.Context(), scopedUser(r, ""), chi.URLParam(r, "id"), req.Status, req.Relist)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Metrics never fails the dashboard: an upstream error yields zeros.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context(), icona.Filter{UserID: scopedUser(r, "")})
	if err != nil {
		log.Warn().Err(err).Str("component", "api").Msg("metrics degraded to empty summary")
		respondJSON(w, http.StatusOK, metrics.Empty())
		return
	}
	respondJSON(w, http.StatusOK, metrics.Compute(orders))
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, order.NewValidationError(name, "must be a number")
	}
	return n, nil
}

// scopedUser returns the seller whose orders the request may touch. Sellers
// are pinned to themselves; admins act on behalf of requested, or on every
// seller when it is empty.
func scopedUser(r *http.Request, requested string) string {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return requested
	}
	if claims.Role == auth.RoleAdmin {
		return requested
	}
	return claims.UserID
}

// visibleTo reports whether the caller may read o: sellers their own sales,
// customers their own purchases, admins everything.
func visibleTo(r *http.Request, o *order.Order) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return true
	}
	switch claims.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleCustomer:
		return o.CustomerID == claims.UserID
	default:
		return o.OwnedBy(claims.UserID)
	}
}
