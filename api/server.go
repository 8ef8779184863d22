/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the organizer dashboard

ROUTE GROUPS:
  /api/plans/*          Payment plan management
  /api/registrations/*  Registrations, schedules, payments
  /api/installments/*   Per-installment operations
  /api/callbacks/*      Payment gateway webhooks
  /api/events/*         Per-event plans, registrations, reports
  /api/groups/*         Per-group reports
  /api/reminders/*      Due and overdue reminder feeds
  /api/admin/*          Late fee and overdue sweeps
  /api/scenarios/*      Demo data loaders (development only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Front with an authenticating proxy in production.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
		})

		// Registration routes
		r.Route("/registrations", func(r chi.Router) {
			r.Post("/", h.CreateRegistration)
			r.Get("/{id}", h.GetRegistration)
			r.Post("/{id}/plan", h.AssignPlan)
			r.Get("/{id}/installments", h.GetRegistrationInstallments)
			r.Get("/{id}/transactions", h.GetRegistrationTransactions)
			r.Post("/{id}/payments", h.RecordRegistrationPayment)
			r.Post("/{id}/reconcile", h.ReconcileRegistration)
		})

		// Installment routes
		r.Route("/installments", func(r chi.Router) {
			r.Get("/{id}", h.GetInstallment)
			r.Post("/{id}/payments", h.RecordInstallmentPayment)
			r.Post("/{id}/discounts", h.ApplyDiscount)
			r.Get("/{id}/discount-quote", h.GetDiscountQuote)
			r.Get("/{id}/transactions", h.GetInstallmentTransactions)
			r.Post("/{id}/rebuild", h.RebuildInstallment)
		})

		// Gateway webhooks
		r.Route("/callbacks", func(r chi.Router) {
			r.Post("/gateway", h.GatewayCallback)
		})

		// Event routes
		r.Route("/events", func(r chi.Router) {
			r.Get("/{id}/plans", h.ListEventPlans)
			r.Get("/{id}/registrations", h.ListEventRegistrations)
			r.Get("/{id}/report", h.EventReport)
		})

		// Group routes
		r.Route("/groups", func(r chi.Router) {
			r.Get("/{id}/report", h.GroupReport)
		})

		// Reminder feeds
		r.Route("/reminders", func(r chi.Router) {
			r.Get("/upcoming", h.UpcomingReminders)
			r.Get("/overdue", h.OverdueReminders)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweeps/late-fees", h.RunLateFeeSweep)
			r.Post("/sweeps/overdue", h.RunOverdueSweep)
		})

		// Demo scenarios (development only)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
