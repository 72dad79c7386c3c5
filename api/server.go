/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards

ROUTE GROUPS:
  /                      Health
  /webhook/*             Rework and machine-event ingestion
  /import/*              Backfill endpoints
  /api/machines/*        CNC tracker CRUD
  /api/stats             Fleet statistics

SEE ALSO:
  - handlers.go, machines.go: Handler implementations
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
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/", h.Health)

	r.Route("/webhook", func(r chi.Router) {
		r.Get("/rework", h.WebhookInfo)
		r.Post("/rework", h.ReworkWebhook)
		r.Post("/machine-event", h.MachineEvent)
	})

	r.Route("/import", func(r chi.Router) {
		r.Get("/auto-fetch", h.AutoFetchImport)
		r.Post("/approved-requests", h.ImportApproved)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/machines", func(r chi.Router) {
			r.Get("/", h.ListMachines)
			r.Post("/", h.CreateMachine)
			r.Get("/{id}", h.GetMachine)
			r.Put("/{id}", h.UpdateMachine)
		})
		r.Get("/stats", h.MachineStats)
	})

	return r
}
