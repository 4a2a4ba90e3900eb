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

// CertificateHandler handles annual certificate and plan owner endpoints
type CertificateHandler struct {
	certificates *repository.CertificateRepository
	owners       *repository.OwnerRepository
	logger       *logger.Logger
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificates *repository.CertificateRepository, owners *repository.OwnerRepository, log *logger.Logger) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		owners:       owners,
		logger:       log,
	}
}

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, errors.BadRequest("year must be a number")
	}
	return year, nil
}

// Get returns (and lazily creates) one certificate
func (h *CertificateHandler) Get(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	cert, err := h.certificates.GetOrCreate(r.Context(), chi.URLParam(r, "companyID"), year, chi.URLParam(r, "certificateType"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cert)
}

// Save records the signed certificate fields
func (h *CertificateHandler) Save(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req struct {
		IssuedDate  *time.Time `json:"issued_date"`
		SignerName  *string    `json:"signer_name"`
		Signature   *string    `json:"signature"`
		IsCompleted bool       `json:"is_completed"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	companyID := chi.URLParam(r, "companyID")
	certificateType := chi.URLParam(r, "certificateType")

	// Create the row first so saving an untouched certificate works.
	if _, err := h.certificates.GetOrCreate(r.Context(), companyID, year, certificateType); err != nil {
		httputil.Error(w, err)
		return
	}

	cert, err := h.certificates.Save(r.Context(), companyID, year, certificateType,
		req.IssuedDate, req.SignerName, req.Signature, req.IsCompleted)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, cert)
}

// StatusMap reports completion per certificate type for a facility year
func (h *CertificateHandler) StatusMap(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	status, err := h.certificates.StatusMap(r.Context(), chi.URLParam(r, "companyID"), year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}

// GetOwner returns the facility's plan owner
func (h *CertificateHandler) GetOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := h.owners.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, owner)
}

// SetOwner assigns the facility's plan owner
func (h *CertificateHandler) SetOwner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id" validate:"required,uuid"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.owners.Set(r.Context(), chi.URLParam(r, "companyID"), req.UserID); err != nil {
		httputil.Error(w, err)
		return
	}

	owner, err := h.owners.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, owner)
}

// ClearOwner removes the facility's plan owner
func (h *CertificateHandler) ClearOwner(w http.ResponseWriter, r *http.Request) {
	if err := h.owners.Clear(r.Context(), chi.URLParam(r, "companyID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
