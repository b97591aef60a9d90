/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/firms, /api/account-types, /api/accounts   Configuration
  /api/holidays                                    Market closures
  /api/settings                                    Projection assumptions
  /api/import                                      Bundle import
  /api/scenarios/*                                 Demo scenarios
  /api/projection/*                                Calendar, yearly, what-if

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. allowedOrigins
// lists the frontend origins permitted by CORS.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		})

		// Configuration routes
		r.Route("/firms", func(r chi.Router) {
			r.Get("/", h.ListFirms)
			r.Post("/", h.CreateFirm)
		})
		r.Route("/account-types", func(r chi.Router) {
			r.Get("/", h.ListAccountTypes)
			r.Post("/", h.CreateAccountType)
		})
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
		})
		r.Post("/import", h.Import)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		r.Post("/defaults", h.AddDefaultHolidays)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Projection routes
		r.Route("/projection", func(r chi.Router) {
			r.Get("/calendar", h.GetCalendar)
			r.Get("/yearly", h.GetYearly)
			r.Post("/what-if", h.WhatIf)
		})
	})

	return r
}
