package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openregistry/registry-go/internal/registry"
)

// ListInvitations handles GET /api/v1/me/crate_owner_invitations.
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	invitations, err := h.svc.ListInvitations(r.Context(), actor)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]registry.EncodableInvitation{
		"crate_owner_invitations": invitations,
	})
}

// invitationDecision is the accept/decline body shape.
type invitationDecision struct {
	Invite struct {
		Accepted bool `json:"accepted"`
	} `json:"crate_owner_invite"`
}

// HandleInvitation handles PUT /api/v1/me/crate_owner_invitations/{crate_id}:
// accept or decline the caller's pending invitation for that crate.
func (h *Handler) HandleInvitation(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	crateID, err := strconv.ParseUint(chi.URLParam(r, "crate_id"), 10, 32)
	if err != nil {
		WriteBadRequest(w, ReasonBadRequest, "crate_id must be numeric")
		return
	}

	var decision invitationDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}

	if decision.Invite.Accepted {
		err = h.svc.AcceptInvitation(r.Context(), actor, uint(crateID))
	} else {
		err = h.svc.DeclineInvitation(r.Context(), actor, uint(crateID))
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"crate_owner_invitation": map[string]any{
			"crate_id": uint(crateID),
			"accepted": decision.Invite.Accepted,
		},
	})
}
