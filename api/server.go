/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers and attaches the
  role guards.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS AND GUARDS:
  /api/auth/*     Public (login)
  /api/meals/*    Any authenticated user
  /api/reports/*  ADMIN, LEAD, LOGISTICS
  /api/admin/*    ADMIN only, except records/* which also admits LEAD
                  (lead proxy/bulk edits are team-scoped in the handlers)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go:     RequireAuth / RequireRole
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/mealplan-engine/plan"
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

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
		})

		// Self-service routes
		r.Route("/meals", func(r chi.Router) {
			r.Use(h.Tokens.RequireAuth)
			r.Get("/week", h.WeekView)
			r.Put("/record", h.UpdateOwnRecord)
			r.Get("/stats", h.OwnMonthlyStats)
		})

		// Reporting routes
		r.Route("/reports", func(r chi.Router) {
			r.Use(h.Tokens.RequireAuth)
			r.Use(RequireRole(plan.RoleAdmin, plan.RoleLead, plan.RoleLogistics))
			r.Get("/headcount", h.Headcount)
			r.Get("/participation", h.Participation)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Tokens.RequireAuth)

			// Proxy and bulk record edits admit leads; team scoping is
			// enforced in the handlers.
			r.Route("/records", func(r chi.Router) {
				r.Use(RequireRole(plan.RoleAdmin, plan.RoleLead))
				r.Put("/{userID}", h.UpdateUserRecord)
				r.Post("/bulk", h.BulkUpdateRecords)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(plan.RoleAdmin))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", h.ListUsers)
					r.Post("/", h.CreateUser)
					r.Get("/{id}", h.GetUser)
					r.Put("/{id}", h.UpdateUser)
					r.Delete("/{id}", h.DeleteUser)
					r.Post("/{id}/deactivate", h.DeactivateUser)
				})

				r.Route("/teams", func(r chi.Router) {
					r.Get("/", h.ListTeams)
					r.Post("/", h.CreateTeam)
					r.Put("/{id}", h.UpdateTeam)
					r.Delete("/{id}", h.DeleteTeam)
					r.Get("/{id}/members", h.ListTeamMembers)
				})

				r.Route("/schedules", func(r chi.Router) {
					r.Get("/", h.ListSchedules)
					r.Post("/", h.UpsertSchedule)
					r.Delete("/{id}", h.DeleteSchedule)
				})

				r.Route("/wfh", func(r chi.Router) {
					r.Get("/", h.ListWFHPeriods)
					r.Post("/", h.CreateWFHPeriod)
					r.Delete("/{id}", h.DeleteWFHPeriod)
				})

				r.Post("/materialize", h.Materialize)
			})
		})
	})

	return r
}
