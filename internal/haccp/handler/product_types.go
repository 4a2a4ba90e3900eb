package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// ProductTypeHandler handles product type management endpoints
type ProductTypeHandler struct {
	productTypes *repository.ProductTypeRepository
	logger       *logger.Logger
}

// NewProductTypeHandler creates a new product type handler
func NewProductTypeHandler(productTypes *repository.ProductTypeRepository, log *logger.Logger) *ProductTypeHandler {
	return &ProductTypeHandler{
		productTypes: productTypes,
		logger:       log,
	}
}

// List returns active product types
func (h *ProductTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.productTypes.ListActive(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, types)
}

// ListInactive returns the recycle bin
func (h *ProductTypeHandler) ListInactive(w http.ResponseWriter, r *http.Request) {
	types, err := h.productTypes.ListInactive(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, types)
}

// ListMaster returns active types linked to at least one facility
func (h *ProductTypeHandler) ListMaster(w http.ResponseWriter, r *http.Request) {
	types, err := h.productTypes.ListMaster(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, types)
}

// Create adds a product type, reviving a previously deleted slug
func (h *ProductTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,min=1,max=255"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	pt, err := h.productTypes.Create(r.Context(), req.Name)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, pt)
}

// Delete soft-deletes a product type
func (h *ProductTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.productTypes.SoftDelete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// Restore revives a soft-deleted product type
func (h *ProductTypeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.productTypes.Restore(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"slug": chi.URLParam(r, "slug")})
}

// ListForCompany returns the active types linked to one facility
func (h *ProductTypeHandler) ListForCompany(w http.ResponseWriter, r *http.Request) {
	types, err := h.productTypes.ListForCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, types)
}

// SetCompanyLink toggles a product type for one facility
func (h *ProductTypeHandler) SetCompanyLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	err := h.productTypes.SetCompanyLink(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "slug"), req.IsActive)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}

// CompletedSummary reports which types have a completed set for a year
func (h *ProductTypeHandler) CompletedSummary(w http.ResponseWriter, r *http.Request) {
	var companyID *string
	if c := r.URL.Query().Get("company_id"); c != "" {
		companyID = &c
	}

	year := time.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			httputil.Error(w, errors.BadRequest("year must be a number"))
			return
		}
		year = y
	}

	summaries, err := h.productTypes.ListCompletedSummary(r.Context(), companyID, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}
