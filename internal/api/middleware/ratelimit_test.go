package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(okHandler())

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000"), "other clients keep their own budget")
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	limiter.sweep(time.Now().Add(limiterIdle + time.Minute))

	assert.Empty(t, limiter.clients)
}
