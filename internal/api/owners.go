package api

import (
	"encoding/json"
	"net/http"

	"github.com/openregistry/registry-go/internal/registry"
	"github.com/openregistry/registry-go/internal/store"
)

// ownerChangeRequest is the body for owner add/remove: a list of user
// logins and/or team logins ("github:org:team").
type ownerChangeRequest struct {
	Users []string `json:"users"`
	// Owners is accepted as an alias for Users for older clients.
	Owners []string `json:"owners"`
}

func (req ownerChangeRequest) logins() []string {
	if len(req.Users) > 0 {
		return req.Users
	}
	return req.Owners
}

// ListOwners handles GET /api/v1/crates/{crate}/owners.
func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	h.listOwners(w, r, "")
}

// ListOwnerUsers handles GET /api/v1/crates/{crate}/owner_user.
func (h *Handler) ListOwnerUsers(w http.ResponseWriter, r *http.Request) {
	h.listOwners(w, r, store.OwnerUser)
}

// ListOwnerTeams handles GET /api/v1/crates/{crate}/owner_team.
func (h *Handler) ListOwnerTeams(w http.ResponseWriter, r *http.Request) {
	h.listOwners(w, r, store.OwnerTeam)
}

func (h *Handler) listOwners(w http.ResponseWriter, r *http.Request, kind store.OwnerKind) {
	owners, err := h.svc.Owners(r.Context(), crateParam(r))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	views := make([]registry.EncodableOwner, 0, len(owners))
	for _, o := range owners {
		if kind != "" && o.Kind() != kind {
			continue
		}
		views = append(views, o.PublicView())
	}

	key := "users"
	if kind == store.OwnerTeam {
		key = "teams"
	}
	WriteJSON(w, http.StatusOK, map[string][]registry.EncodableOwner{key: views})
}

// AddOwners handles PUT /api/v1/crates/{crate}/owners. Named users get a
// pending invitation; named teams become owners immediately. The whole
// batch succeeds or fails together.
func (h *Handler) AddOwners(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req ownerChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	logins := req.logins()
	if len(logins) == 0 {
		WriteBadRequest(w, ReasonBadRequest, "no owners named")
		return
	}

	if err := h.svc.AddOwners(r.Context(), actor, crateParam(r), logins); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteOK(w)
}

// RemoveOwners handles DELETE /api/v1/crates/{crate}/owners.
func (h *Handler) RemoveOwners(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req ownerChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	logins := req.logins()
	if len(logins) == 0 {
		WriteBadRequest(w, ReasonBadRequest, "no owners named")
		return
	}

	if err := h.svc.RemoveOwners(r.Context(), actor, crateParam(r), logins); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteOK(w)
}
