package icona

import (
	"fmt"
	"net/http"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

// UpstreamError is a non-2xx answer from the commerce API.
type UpstreamError struct {
	StatusCode int
	Body       string
	Method     string
	Path       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("icona %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("icona %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is lets callers test a 404 with errors.Is(err, order.ErrOrderNotFound).
func (e *UpstreamError) Is(target error) bool {
	return target == order.ErrOrderNotFound && e.StatusCode == http.StatusNotFound
}
