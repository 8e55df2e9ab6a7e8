package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openregistry/registry-go/internal/appctx"
	"github.com/openregistry/registry-go/internal/registry"
)

// Publish handles PUT /api/v1/crates/new: upload one crate version,
// creating the crate on first publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req registry.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Version == "" {
		WriteBadRequest(w, ReasonBadRequest, "name and vers are required")
		return
	}

	version, err := h.svc.Publish(r.Context(), actor, req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	appctx.GetLogger(r.Context()).Info("published crate version",
		"crate", req.Name, "version", req.Version, "user", actor.Login)
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": registry.NewEncodableVersion(version, req.Name),
	})
}

// Yank handles DELETE /api/v1/crates/{crate}/{version}/yank.
func (h *Handler) Yank(w http.ResponseWriter, r *http.Request) {
	h.setYanked(w, r, true)
}

// Unyank handles PUT /api/v1/crates/{crate}/{version}/unyank.
func (h *Handler) Unyank(w http.ResponseWriter, r *http.Request) {
	h.setYanked(w, r, false)
}

func (h *Handler) setYanked(w http.ResponseWriter, r *http.Request, yanked bool) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	err = h.svc.SetYanked(r.Context(), actor, crateParam(r), chi.URLParam(r, "version"), yanked)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteOK(w)
}

// GetBuildInfo handles GET /api/v1/crates/{crate}/{version}/build_info.
func (h *Handler) GetBuildInfo(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.BuildInfo(r.Context(), crateParam(r), chi.URLParam(r, "version"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*registry.BuildInfoReport{"build_info": report})
}

// PutBuildInfo handles PUT /api/v1/crates/{crate}/{version}/build_info.
func (h *Handler) PutBuildInfo(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var info registry.BuildInfoSubmission
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if info.RustVersion == "" || info.Target == "" {
		WriteBadRequest(w, ReasonBadRequest, "rust_version and target are required")
		return
	}

	err = h.svc.RecordBuildInfo(r.Context(), actor, crateParam(r), chi.URLParam(r, "version"), info)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteOK(w)
}

// ShowVersion handles GET /api/v1/versions/{id}.
func (h *Handler) ShowVersion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		WriteBadRequest(w, ReasonBadRequest, "version id must be numeric")
		return
	}

	version, err := h.svc.ShowVersionByID(r.Context(), uint(id))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]registry.EncodableVersion{"version": version})
}

// ListVersions handles GET /api/v1/versions?ids[]=1&ids[]=2.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	var ids []uint
	for _, raw := range r.URL.Query()["ids[]"] {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			WriteBadRequest(w, ReasonBadRequest, "version ids must be numeric")
			return
		}
		ids = append(ids, uint(id))
	}

	versions, err := h.svc.ListVersions(r.Context(), ids)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]registry.EncodableVersion{"versions": versions})
}
