package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/example/liveshop-shipping/internal/bundle"
	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
	"github.com/example/liveshop-shipping/internal/shipping"
)

type errorResponse struct {
	Error           string   `json:"error"`
	Field           string   `json:"field,omitempty"`
	InvalidOrderIDs []string `json:"invalidOrderIds,omitempty"`
	UpstreamStatus  int      `json:"upstreamStatus,omitempty"`
	Details         any      `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("component", "api").Msg("failed to marshal response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondError maps err to a status and writes it with whatever detail the
// caller needs to retry narrowly.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	var ve *order.ValidationError
	var pe *order.PreconditionError
	var ue *icona.UpstreamError
	switch {
	case errors.As(err, &ve):
		body.Field = ve.Field
	case errors.As(err, &pe):
		body.Error = pe.Reason
		body.InvalidOrderIDs = pe.OrderIDs
	case errors.As(err, &ue):
		body.UpstreamStatus = ue.StatusCode
		body.Details = ue.Body
	}

	evt := log.Warn()
	if status >= http.StatusInternalServerError {
		evt = log.Error()
	}
	evt.Err(err).Str("component", "api").Int("status", status).Msg("request failed")

	respondJSON(w, status, body)
}

func statusFor(err error) int {
	var ve *order.ValidationError
	var pe *order.PreconditionError
	var ae *bundle.AssignmentError
	var ue *icona.UpstreamError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		return http.StatusConflict
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrBundleNotFound),
		errors.Is(err, store.ErrLabelNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, order.ErrNotCancelable),
		errors.Is(err, order.ErrLabelPurchased),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, shipping.ErrAlreadyResolved),
		errors.Is(err, shipping.ErrNothingToReapply):
		return http.StatusConflict
	case errors.Is(err, shipping.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &ae),
		errors.Is(err, bundle.ErrNoneSucceeded),
		errors.Is(err, shipping.ErrReapplyFailed),
		errors.Is(err, shipping.ErrLabelRejected):
		return http.StatusBadGateway
	case errors.As(err, &ue):
		if ue.StatusCode >= http.StatusInternalServerError {
			return http.StatusBadGateway
		}
		return ue.StatusCode
	default:
		return http.StatusInternalServerError
	}
}

// fanoutFailure is written when every per-order call of a fan-out failed.
// The per-order results travel with the error.
type fanoutFailure struct {
	Error  string `json:"error"`
	Result any    `json:"result"`
}

var validate = newValidator()

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler should continue.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request payload: %v", err)})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error().Err(err).Str("component", "api").Msg("unexpected validation error")
			respondMessage(w, http.StatusInternalServerError, "internal validation error")
			return false
		}
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "validation failed",
			Details: formatValidationErrors(verrs),
		})
		return false
	}
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "min":
			details[field] = fmt.Sprintf("needs at least %s entries", fe.Param())
		default:
			details[field] = fmt.Sprintf("failed on %s", fe.Tag())
		}
	}
	return details
}
