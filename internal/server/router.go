package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pasmino/internal/auth"
	"pasmino/internal/cron"
	"pasmino/internal/httpx"
	ordercontroller "pasmino/internal/order/controller"
	productcontroller "pasmino/internal/product/controller"
	recommendationcontroller "pasmino/internal/recommendation/controller"
	stockcontroller "pasmino/internal/stock/controller"
	usercontroller "pasmino/internal/user/controller"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Products        *productcontroller.Controller
	Stock           *stockcontroller.StockController
	StockAdmin      *stockcontroller.AdminController
	Recommendations *recommendationcontroller.Controller
	Orders          *ordercontroller.OrderController
	Identity        *usercontroller.IdentityController
	Cron            *cron.Handler
	Auth            *auth.Middleware
	DB              Pinger
}

func NewRouter(h Handlers, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(httpx.TraceMiddleware)

	r.Get("/healthz", healthz(h.DB, logger))

	r.Get("/products", h.Products.List)
	r.Get("/products/{productId}", h.Products.Get)
	r.Get("/products/{productId}/related", h.Recommendations.Related)

	r.Route("/stock", func(r chi.Router) {
		r.Get("/available", h.Stock.GetAvailable)
		r.Post("/validate", h.Stock.Validate)
		r.Post("/validate-cart", h.Stock.ValidateCart)
		r.Post("/reserve", h.Stock.Reserve)
		r.Delete("/reservations/{reservationId}", h.Stock.Release)
		r.Get("/{productId}", h.Stock.GetProductStock)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Authenticate)
		r.Post("/checkout", h.Orders.Checkout)
		r.Get("/orders/{orderId}", h.Orders.Get)
	})

	r.Post("/webhooks/payments", h.Orders.PaymentWebhook)
	r.Post("/webhooks/identity", h.Identity.Sync)

	r.Get("/cron/cleanup-reservations", h.Cron.CleanupReservations)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Auth.Authenticate)
		r.Use(h.Auth.RequireAdmin)

		r.Post("/stock/adjust", h.StockAdmin.Adjust)
		r.Get("/stock/history", h.StockAdmin.Stats)
		r.Get("/stock/movements/{productId}", h.StockAdmin.Movements)
		r.Get("/stock/low-stock", h.StockAdmin.LowStock)

		r.Get("/products/relations", h.Recommendations.List)
		r.Post("/products/relations", h.Recommendations.Add)
		r.Delete("/products/relations/{relationId}", h.Recommendations.Delete)
	})

	return r
}

func healthz(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			httpx.WriteJSON(w, logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
