package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
	"github.com/fishtech/fishtech-backend/internal/haccp/service"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// DocumentHandler handles plan document endpoints
type DocumentHandler struct {
	service *service.DocumentService
	logger  *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc *service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		logger:  log,
	}
}

// setKeyFromQuery reads the set identity shared by every document endpoint:
// product_type (required), year (defaults to the current year) and an
// optional company_id (absent means the tenant master set).
func setKeyFromQuery(r *http.Request) (repository.SetKey, error) {
	key := repository.SetKey{}

	key.ProductType = r.URL.Query().Get("product_type")
	if key.ProductType == "" {
		return key, errors.BadRequest("product_type is required")
	}

	if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		key.CompanyID = &companyID
	}

	key.Year = time.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return key, errors.BadRequest("year must be a number")
		}
		key.Year = year
	}

	return key, nil
}

// Current returns the working version of a set
func (h *DocumentHandler) Current(w http.ResponseWriter, r *http.Request) {
	key, err := setKeyFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	set, err := h.service.GetCurrent(r.Context(), key)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, set)
}

// GetVersion returns one specific version of a set
func (h *DocumentHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	key, err := setKeyFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("version must be a number"))
		return
	}

	set, err := h.service.GetVersion(r.Context(), key, version)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, set)
}

// Save upserts a plan document
func (h *DocumentHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req service.SaveDocumentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	doc, err := h.service.Save(r.Context(), &req, httputil.GetUsername(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// GenerateVersion opens a new draft version of a set
func (h *DocumentHandler) GenerateVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID   *string `json:"company_id"`
		ProductType string  `json:"product_type" validate:"required"`
		Year        int     `json:"year" validate:"required,min=2000,max=2200"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	key := repository.SetKey{CompanyID: req.CompanyID, ProductType: req.ProductType, Year: req.Year}
	set, err := h.service.GenerateVersion(r.Context(), key, httputil.GetUsername(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, set)
}

// History returns the version summaries of a set
func (h *DocumentHandler) History(w http.ResponseWriter, r *http.Request) {
	key, err := setKeyFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summaries, err := h.service.History(r.Context(), key)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}

// Years lists the years a set has documents for
func (h *DocumentHandler) Years(w http.ResponseWriter, r *http.Request) {
	productType := r.URL.Query().Get("product_type")
	if productType == "" {
		httputil.Error(w, errors.BadRequest("product_type is required"))
		return
	}

	var companyID *string
	if c := r.URL.Query().Get("company_id"); c != "" {
		companyID = &c
	}

	years, err := h.service.Years(r.Context(), companyID, productType)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, years)
}

// Delete removes one document row of one version
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key, err := setKeyFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("version must be a number"))
		return
	}

	if err := h.service.DeleteDocument(r.Context(), key, chi.URLParam(r, "documentType"), version); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// SyncSource returns the upstream document feeding the requested one
func (h *DocumentHandler) SyncSource(w http.ResponseWriter, r *http.Request) {
	key, err := setKeyFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	doc, err := h.service.SyncSource(r.Context(), key, chi.URLParam(r, "documentType"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}
