package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrBundleNotFound    = errors.New("bundle not found")
	ErrOrderCancelled    = errors.New("order is already cancelled")
	ErrNotCancelable     = errors.New("order cannot be cancelled")
	ErrLabelPurchased    = errors.New("a shipping label was already purchased")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// ValidationError rejects a request before any upstream call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PreconditionError rejects an operation because of the current state of the
// referenced orders. Nothing has been mutated when it is returned.
type PreconditionError struct {
	Reason   string
	OrderIDs []string
}

func (e *PreconditionError) Error() string {
	if len(e.OrderIDs) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.OrderIDs, ", "))
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}
