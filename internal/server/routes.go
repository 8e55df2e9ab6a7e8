package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openregistry/registry-go/internal/api"
)

// setupRoutes creates the chi router with all endpoints mounted.
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	// RequestID must come first so GetReqID works in loggingMiddleware.
	// Recoverer writes through the wrapped response writer, so the access
	// log captures the correct status for panics.
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/api/healthz", api.HealthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Health stays outside the quota; everything else counts.
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		r.Route("/me/crate_owner_invitations", func(r chi.Router) {
			r.Get("/", s.handler.ListInvitations)
			r.Put("/{crate_id}", s.handler.HandleInvitation)
		})

		r.Put("/crates/new", s.handler.Publish)

		r.Route("/crates/{crate}", func(r chi.Router) {
			r.Get("/", s.handler.ShowCrate)
			r.Get("/owners", s.handler.ListOwners)
			r.Put("/owners", s.handler.AddOwners)
			r.Delete("/owners", s.handler.RemoveOwners)
			r.Get("/owner_user", s.handler.ListOwnerUsers)
			r.Get("/owner_team", s.handler.ListOwnerTeams)

			r.Get("/categories", s.handler.ListCrateCategories)
			r.Put("/categories", s.handler.UpdateCrateCategories)

			r.Route("/{version}", func(r chi.Router) {
				r.Delete("/yank", s.handler.Yank)
				r.Put("/unyank", s.handler.Unyank)
				r.Get("/build_info", s.handler.GetBuildInfo)
				r.Put("/build_info", s.handler.PutBuildInfo)
			})
		})

		r.Get("/versions", s.handler.ListVersions)
		r.Get("/versions/{id}", s.handler.ShowVersion)

		r.Get("/categories", s.handler.ListCategories)
		r.Get("/categories/{category}", s.handler.ShowCategory)
	})

	return r
}
