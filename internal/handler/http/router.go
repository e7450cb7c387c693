package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	"github.com/utafrali/StorefrontGo/internal/shop"
	"github.com/utafrali/StorefrontGo/pkg/health"
	"github.com/utafrali/StorefrontGo/pkg/middleware"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	state *shop.State,
	api commerce.API,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	shopHandler := NewShopHandler(state, logger)
	checkoutHandler := NewCheckoutHandler(state, api, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/shop", shopHandler.GetShop)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", shopHandler.GetCart)
			r.Delete("/", shopHandler.ClearCart)
			r.Put("/items/{variantId}", shopHandler.SetQuantity)
		})

		r.Get("/products", shopHandler.ListProducts)
		r.Get("/products/{id}", shopHandler.GetProduct)

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", shopHandler.ListAddresses)
			r.Post("/", shopHandler.CreateAddress)
			r.Delete("/{id}", shopHandler.DeleteAddress)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", shopHandler.ListCards)
			r.Post("/", shopHandler.CreateCard)
			r.Delete("/{id}", shopHandler.DeleteCard)
		})

		r.Get("/orders", shopHandler.ListOrders)
		r.Post("/orders/refresh", shopHandler.RefreshOrders)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", shopHandler.ListSubscriptions)
			r.Post("/", shopHandler.Subscribe)
			r.Delete("/{id}", shopHandler.CancelSubscription)
		})

		r.Route("/tokens", func(r chi.Router) {
			r.Get("/", shopHandler.ListTokens)
			r.Post("/", shopHandler.CreateToken)
			r.Delete("/{id}", shopHandler.DeleteToken)
		})

		r.Get("/profile", shopHandler.GetProfile)
		r.Put("/profile", shopHandler.UpdateProfile)

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Begin)
			r.Get("/", checkoutHandler.Get)
			r.Delete("/", checkoutHandler.Abandon)
			r.Post("/advance", checkoutHandler.Advance)
			r.Post("/back", checkoutHandler.Back)
			r.Put("/address", checkoutHandler.SelectAddress)
			r.Put("/card", checkoutHandler.SelectCard)
			r.Post("/submit", checkoutHandler.Submit)
		})
	})

	return r
}
