package handlers

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"staffsync/config"
	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
)

// NewRouter assembles the API surface.
func NewRouter(cfg *config.Config, st store.Store) *chi.Mux {
	authHandler := NewAuthHandler(cfg, st)
	companyHandler := NewCompanyHandler(st)
	requestHandler := NewRequestHandler(st)
	clockHandler := NewClockHandler(st)
	staffHandler := NewStaffHandler(st)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Post("/api/auth/signup", authHandler.Signup)
	router.Post("/api/auth/login", authHandler.Login)

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(st))

		r.Post("/api/companies/create", companyHandler.Create)
		r.Post("/api/requests/join", requestHandler.Join)
		r.Get("/api/requests/status", requestHandler.Status)
		r.Post("/api/clock/in", clockHandler.In)
		r.Post("/api/clock/out", clockHandler.Out)
		r.Get("/api/clock/status", clockHandler.Status)
		r.Get("/api/staff/hours", staffHandler.Hours)

		// Owner only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleOwner))
			r.Put("/api/companies/settings", companyHandler.UpdateSettings)
			r.Get("/api/requests/list", requestHandler.List)
			r.Post("/api/requests/respond", requestHandler.Respond)
			r.Get("/api/staff/list", staffHandler.List)
			r.Get("/api/salary/report", staffHandler.SalaryReport)
		})
	})

	return router
}
