package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openregistry/registry-go/internal/registry"
	"github.com/openregistry/registry-go/internal/store"
)

const defaultCategoryPageSize = 100

// ListCategories handles GET /api/v1/categories?page=&per_page=&sort=.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 {
		perPage = defaultCategoryPageSize
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}

	categories, total, err := h.svc.ListCategories(r.Context(), store.ListCategoriesOptions{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
		Sort:   q.Get("sort"),
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"meta":       map[string]int64{"total": total},
	})
}

// ShowCategory handles GET /api/v1/categories/{category}.
func (h *Handler) ShowCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.svc.ShowCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]registry.EncodableCategory{"category": category})
}

// ListCrateCategories handles GET /api/v1/crates/{crate}/categories.
func (h *Handler) ListCrateCategories(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.svc.CrateByName(r.Context(), crateParam(r))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	categories, err := h.svc.CrateCategories(r.Context(), pkg.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]registry.EncodableCategory{"categories": categories})
}

// crateCategoriesRequest is the body for the wholesale category update.
type crateCategoriesRequest struct {
	Categories []string `json:"categories"`
}

// UpdateCrateCategories handles PUT /api/v1/crates/{crate}/categories,
// replacing the crate's category memberships with the named slugs.
func (h *Handler) UpdateCrateCategories(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentUser(r)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req crateCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.UpdateCrateCategories(r.Context(), actor, crateParam(r), req.Categories); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteOK(w)
}
