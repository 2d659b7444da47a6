package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Auth     *AuthHandler
	Orders   *OrdersHandler
	Checkout *CheckoutHandler
}

type RouterConfig struct {
	Log            zerolog.Logger
	RequestTimeout time.Duration
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(cfg.Log))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.Products.List)
		r.Get("/products/{slug}", h.Products.Get)
		r.Get("/categories", h.Products.Categories)

		r.Group(func(r chi.Router) {
			r.Use(ClientIDMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Post("/items/{id}/increase", h.Cart.Increase)
				r.Post("/items/{id}/decrease", h.Cart.Decrease)
				r.Delete("/items/{id}", h.Cart.RemoveItem)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", h.Auth.Login)
				r.Post("/register", h.Auth.Register)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/session", h.Auth.Session)
			})

			r.Get("/orders", h.Orders.List)
			r.Post("/checkout", h.Checkout.Checkout)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
