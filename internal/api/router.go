package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/example/liveshop-shipping/internal/api/middleware"
	"github.com/example/liveshop-shipping/internal/auth"
)

type RouterConfig struct {
	Handlers    *Handlers
	JWTService  *auth.JWTService
	RateLimiter *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	h := cfg.Handlers
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTService))

		// Scoped by role inside the handler
		r.Get("/orders", h.GetOrders)
		r.Get("/orders/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleSeller, auth.RoleAdmin))

			r.Put("/orders/{id}", h.UpdateOrder)
			r.Post("/orders/bundle", h.CreateBundle)
			r.Post("/orders/bundle/{id}/ship", h.ShipBundle)
			r.Post("/orders/bundle/{id}/cancel", h.CancelBundle)
			r.Post("/orders/unbundle", h.UnbundleItems)

			r.Get("/bundles", h.GetBundles)
			r.Delete("/bundles/{bundleId}", h.DeleteBundle)

			r.Post("/shipping/labels", h.PurchaseLabel)
			r.Post("/shipping/labels/bundle", h.PurchaseBundleLabel)
			r.Post("/shipping/bulk-labels", h.PurchaseBulkLabels)
			r.Get("/shipping/reconciliation", h.ListUnappliedLabels)
			r.Post("/shipping/reconciliation/{trackingNumber}/apply", h.ReapplyLabel)

			r.Get("/metrics", h.Metrics)
		})
	})

	return r
}
