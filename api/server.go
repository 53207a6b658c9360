/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the register frontend

ROUTE GROUPS:
  /api/orders/*    Order lifecycle, stats
  /api/sales/*     Sales ledger, export, stats
  /api/reports/*   Report generation and snapshots

SECURITY NOTE:
  No authentication middleware. Deployments sit behind the store's LAN
  gateway; all endpoints are open on that network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Post("/create", h.CreateOrder)
			r.Get("/list", h.ListOrders)
			r.Put("/update-status/{id}", h.UpdateOrderStatus)
			r.Get("/stats", h.OrderStats)
			r.Get("/stats/today", h.TodayOrderStats)
			r.Get("/{id}/sales", h.OrderSales)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.RecordSale)
			r.Get("/export", h.ExportSales)
			r.Get("/stats", h.SalesStats)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", h.SalesReport)
			r.Post("/custom", h.CustomReport)
			r.Get("/saved", h.SavedReports)
		})
	})

	return r
}
