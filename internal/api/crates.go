package api

import (
	"net/http"

	"github.com/openregistry/registry-go/internal/registry"
)

// ShowCrate handles GET /api/v1/crates/{crate}.
func (h *Handler) ShowCrate(w http.ResponseWriter, r *http.Request) {
	crate, err := h.svc.ShowCrate(r.Context(), crateParam(r))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]registry.EncodableCrate{"crate": crate})
}
