package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openregistry/registry-go/internal/logutil"
	"github.com/openregistry/registry-go/internal/registry"
	"github.com/openregistry/registry-go/internal/store"
)

// CurrentUser resolves the acting user for a request.
type CurrentUser func(*http.Request) (*store.User, error)

// Handler serves the registry API endpoints.
type Handler struct {
	svc         *registry.Service
	currentUser CurrentUser
	log         *slog.Logger
}

// NewHandler creates a Handler over the registry service.
func NewHandler(svc *registry.Service, currentUser CurrentUser, log *slog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		currentUser: currentUser,
		log:         logutil.NoopIfNil(log),
	}
}

// crateParam extracts the crate name from the URL, decoding the `~`
// form namespaced names use in paths.
func crateParam(r *http.Request) string {
	return registry.DecodeFileSafeName(chi.URLParam(r, "crate"))
}
