package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/liveshop-shipping/internal/shipping"
)

type OrderLabelRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	RateID        string `json:"rateId" validate:"required"`
	LabelFileType string `json:"labelFileType"`
}

func (h *Handlers) PurchaseLabel(w http.ResponseWriter, r *http.Request) {
	var req OrderLabelRequest
	if !bind(w, r, &req) {
		return
	}

	res, err := h.labels.PurchaseForOrder(r.Context(), shipping.OrderLabelRequest{
		UserID:        scopedUser(r, ""),
		OrderID:       req.OrderID,
		RateID:        req.RateID,
		LabelFileType: req.LabelFileType,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, labelStatus(res.Outcome), res)
}

type BundleLabelRequest struct {
	OrderIDs      []string `json:"orderIds" validate:"required,min=1,dive,required"`
	Service       string   `json:"service"`
	RateID        string   `json:"rateId" validate:"required"`
	LabelFileType string   `json:"labelFileType"`
}

// PurchaseBundleLabel answers 200 when every order took the label, 207 when
// some did and 500 when none did; the tracking number is returned in all three.
func (h *Handlers) PurchaseBundleLabel(w http.ResponseWriter, r *http.Request) {
	var req BundleLabelRequest
	if !bind(w, r, &req) {
		return
	}

	res, err := h.labels.PurchaseForBundle(r.Context(), shipping.BundleLabelRequest{
		UserID:        scopedUser(r, ""),
		OrderIDs:      req.OrderIDs,
		Service:       req.Service,
		RateID:        req.RateID,
		LabelFileType: req.LabelFileType,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, labelStatus(res.Outcome), res)
}

type BulkLabelRequest struct {
	OrderIDs      []string `json:"orderIds" validate:"required,min=1,dive,required"`
	LabelFileType string   `json:"labelFileType"`
	UserID        string   `json:"userId"`
}

func (h *Handlers) PurchaseBulkLabels(w http.ResponseWriter, r *http.Request) {
	var req BulkLabelRequest
	if !bind(w, r, &req) {
		return
	}

	res, err := h.labels.PurchaseBulk(r.Context(), shipping.BulkLabelRequest{
		OrderIDs:      req.OrderIDs,
		LabelFileType: req.LabelFileType,
		UserID:        scopedUser(r, req.UserID),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) ListUnappliedLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.labels.ListUnapplied(r.Context(), scopedUser(r, ""))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"labels": labels})
}

// ReapplyLabel writes an already purchased label to the orders still missing
// it. No second label is bought.
func (h *Handlers) ReapplyLabel(w http.ResponseWriter, r *http.Request) {
	res, err := h.labels.Reapply(r.Context(), scopedUser(r, ""), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		if res != nil {
			respondJSON(w, statusFor(err), fanoutFailure{Error: err.Error(), Result: res})
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func labelStatus(o shipping.Outcome) int {
	switch o {
	case shipping.OutcomePartial:
		return http.StatusMultiStatus
	case shipping.OutcomeFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
