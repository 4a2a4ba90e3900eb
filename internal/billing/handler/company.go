package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// CompanyHandler handles facility management endpoints
type CompanyHandler struct {
	companies *repository.CompanyRepository
	logger    *logger.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companies *repository.CompanyRepository, log *logger.Logger) *CompanyHandler {
	return &CompanyHandler{
		companies: companies,
		logger:    log,
	}
}

// CompanyRequest is the create/update payload
type CompanyRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Address *string `json:"address"`
}

// List returns the tenant's companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, companies)
}

// Get returns a single company
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.companies.GetByID(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, company)
}

// Create registers a new company
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	company, err := h.companies.Create(r.Context(), req.Name, req.Address)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, company)
}

// Update changes a company's details
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	company, err := h.companies.Update(r.Context(), chi.URLParam(r, "companyID"), req.Name, req.Address)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, company)
}

// Delete removes a company and everything scoped to it
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.companies.Delete(r.Context(), chi.URLParam(r, "companyID")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
