package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveshop-shipping/internal/bundle"
	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
)

type CreateBundleRequest struct {
	OrderIDs []string `json:"orderIds" validate:"required,min=2,dive,required"`
}

func (h *Handlers) CreateBundle(w http.ResponseWriter, r *http.Request) {
	var req CreateBundleRequest
	if !bind(w, r, &req) {
		return
	}

	created, err := h.bundles.Create(r.Context(), scopedUser(r, ""), req.OrderIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

type ShipBundleRequest struct {
	UserID string `json:"userId"`
}

func (h *Handlers) ShipBundle(w http.ResponseWriter, r *http.Request) {
	var req ShipBundleRequest
	if r.ContentLength != 0 && !bind(w, r, &req) {
		return
	}

	res, err := h.bundles.Ship(r.Context(), scopedUser(r, req.UserID), chi.URLParam(r, "id"))
	respondFanout(w, res, err)
}

type CancelBundleRequest struct {
	Relist bool `json:"relist"`
}

func (h *Handlers) CancelBundle(w http.ResponseWriter, r *http.Request) {
	var req CancelBundleRequest
	if r.ContentLength != 0 && !bind(w, r, &req) {
		return
	}

	res, err := h.bundles.CancelBundle(r.Context(), scopedUser(r, ""), chi.URLParam(r, "id"), req.Relist)
	respondFanout(w, res, err)
}

type UnbundleRequest struct {
	OrderIDs []string `json:"orderIds" validate:"omitempty,dive,required"`
}

// DeleteBundle unbundles every member, or only the listed orders.
func (h *Handlers) DeleteBundle(w http.ResponseWriter, r *http.Request) {
	var req UnbundleRequest
	if r.ContentLength != 0 && !bind(w, r, &req) {
		return
	}

	res, err := h.bundles.Unbundle(r.Context(), scopedUser(r, ""), chi.URLParam(r, "bundleId"), req.OrderIDs)
	if err == nil && res.NotFound {
		respondJSON(w, http.StatusNotFound, res)
		return
	}
	respondFanout(w, res, err)
}

type UnbundleItemsRequest struct {
	OrderID string   `json:"orderId" validate:"required"`
	ItemIDs []string `json:"itemIds" validate:"required,min=1,dive,required"`
}

func (h *Handlers) UnbundleItems(w http.ResponseWriter, r *http.Request) {
	var req UnbundleItemsRequest
	if !bind(w, r, &req) {
		return
	}

	orders, err := h.bundles.UnbundleItems(r.Context(), scopedUser(r, ""), req.OrderID, req.ItemIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// GetBundles derives display rows from the complete order set of the seller.
// The status filter applies to rows, never to the set bundles are built from.
func (h *Handlers) GetBundles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := order.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, order.NewValidationError("status", "unknown status %q", status))
		return
	}
	sort, err := bundle.ParseSort(q.Get("sort"), q.Get("dir"))
	if err != nil {
		respondError(w, err)
		return
	}

	orders, err := h.orders.ListAllOrders(r.Context(), icona.Filter{UserID: scopedUser(r, q.Get("userId"))})
	if err != nil {
		respondError(w, err)
		return
	}

	rows := bundle.DisplayRows(orders, status)
	bundle.SortRows(rows.Bundles, sort)
	bundle.SortRows(rows.Standalone, sort)
	respondJSON(w, http.StatusOK, rows)
}

// respondFanout writes the per-order results of a bundle fan-out. When no
// call succeeded the results are still returned with the error.
func respondFanout(w http.ResponseWriter, res any, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, res)
	case errors.Is(err, bundle.ErrNoneSucceeded):
		respondJSON(w, statusFor(err), fanoutFailure{Error: err.Error(), Result: res})
	default:
		respondError(w, err)
	}
}
