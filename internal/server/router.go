package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"shiptrack/internal/audit"
	"shiptrack/internal/config"
	"shiptrack/internal/diag"
	"shiptrack/internal/metrics"
	"shiptrack/internal/orders"
)

// NewRouter wires the GET-only API surface. CORS is restricted to the
// configured origins.
func NewRouter(
	corsCfg config.CORSConfig,
	ordersCtrl *orders.Controller,
	auditCtrl *audit.Controller,
	diagCtrl *diag.Controller,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/order-by-email", ordersCtrl.OrderByEmail)
		r.Get("/order-status", ordersCtrl.OrderStatus)
		r.Get("/orders-by-email", ordersCtrl.OrdersByEmail)
		r.Get("/find-and-status", ordersCtrl.FindAndStatus)

		r.Get("/audit-shipments", auditCtrl.AuditShipments)
		r.Get("/audit-shipments-stream", auditCtrl.AuditShipmentsStream)

		r.Get("/_diag/orders_raw", diagCtrl.OrdersRaw)
		r.Get("/_diag/orders_shape", diagCtrl.OrdersShape)
	})

	return r
}
