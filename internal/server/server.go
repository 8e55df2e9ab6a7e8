// Package server provides HTTP server wiring and lifecycle management.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/openregistry/registry-go/internal/api"
	"github.com/openregistry/registry-go/internal/cache/memory"
	"github.com/openregistry/registry-go/internal/config"
	"github.com/openregistry/registry-go/internal/identity"
	"github.com/openregistry/registry-go/internal/logutil"
	"github.com/openregistry/registry-go/internal/ratelimit"
	"github.com/openregistry/registry-go/internal/registry"
	"github.com/openregistry/registry-go/internal/store"
)

// ErrMissingDep is returned when a required dependency is nil.
var ErrMissingDep = errors.New("missing required dependency")

// Deps holds all server dependencies.
type Deps struct {
	// Required: the datastore backing every endpoint.
	Store store.Datastore

	// Required: the domain core.
	Registry *registry.Service

	// Optional: actor resolution; defaults to the trusted-header
	// resolver over Store.
	Resolver *identity.Resolver
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	logger     *slog.Logger
	handler    *api.Handler
	limiter    *ratelimit.Limiter
	counter    *memory.Counter
}

// New creates a new Server with the given configuration.
// Returns an error if required dependencies are missing.
func New(cfg *config.Config, logger *slog.Logger, deps *Deps) (*Server, error) {
	logger = logutil.NoopIfNil(logger)
	if deps == nil || deps.Store == nil || deps.Registry == nil {
		return nil, ErrMissingDep
	}

	resolver := deps.Resolver
	if resolver == nil {
		resolver = identity.NewResolver(deps.Store)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		handler: api.NewHandler(deps.Registry, resolver.CurrentUser, logger),
	}

	if cfg.RateLimit.Enabled {
		window := time.Duration(cfg.RateLimit.WindowMS) * time.Millisecond
		s.counter = memory.New(window, 5*time.Minute)
		s.limiter = ratelimit.New(s.counter, &ratelimit.Config{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            window,
			KeyPrefix:         "ratelimit:",
		})
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		"addr", s.cfg.ListenAddr,
		"store_driver", s.cfg.Store.Driver,
	)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if s.counter != nil {
		defer s.counter.Close()
	}
	return s.httpServer.Shutdown(ctx)
}
