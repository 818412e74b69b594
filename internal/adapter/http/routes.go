package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/crm/internal/config"
	"github.com/Strob0t/crm/internal/domain/activity"
	"github.com/Strob0t/crm/internal/domain/company"
	"github.com/Strob0t/crm/internal/domain/contact"
	"github.com/Strob0t/crm/internal/domain/deal"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. The limiter,
// when non-nil, guards the public auth endpoints.
func MountRoutes(r chi.Router, h *Handlers, cfg config.Server, limiter *middleware.RateLimiter) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, notFoundMsg)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	basePath := cfg.BasePath
	if basePath == "" || basePath == "/" {
		r.Group(func(r chi.Router) { mountAPI(r, h, cfg, limiter) })
		return
	}
	r.Route(basePath, func(r chi.Router) {
		r.Get("/health", h.Health)
		mountAPI(r, h, cfg, limiter)
	})
}

func mountAPI(r chi.Router, h *Handlers, cfg config.Server, limiter *middleware.RateLimiter) {
	r.Post("/ping", h.Ping)
	if cfg.DebugRoutes {
		r.Get("/_debug/db", h.DebugDB)
	}

	// Public auth endpoints
	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
	})

	// Everything else requires a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.Auth))

		r.Get("/auth/me", h.Me)

		mountResource[company.Company](r, "/companies", h.BodyLimit, h.Companies)
		mountResource[contact.Contact](r, "/contacts", h.BodyLimit, h.Contacts)
		mountResource[deal.Deal](r, "/deals", h.BodyLimit, h.Deals)
		mountResource[activity.Activity](r, "/activities", h.BodyLimit, h.Activities)

		r.With(middleware.RequireRole(user.RoleAdmin)).Get("/users", h.ListUsers)
	})
}
