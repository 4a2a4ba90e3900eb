package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// VendorHandler handles vendor record endpoints
type VendorHandler struct {
	vendors *repository.VendorRepository
	logger  *logger.Logger
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(vendors *repository.VendorRepository, log *logger.Logger) *VendorHandler {
	return &VendorHandler{vendors: vendors, logger: log}
}

// VendorRequest is the create/update payload for a vendor
type VendorRequest struct {
	VendorID string  `json:"vendor_id" validate:"required,max=100"`
	Name     string  `json:"name" validate:"required,max=255"`
	Contact  *string `json:"contact" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=100"`
}

func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendors.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, vendors)
}

func (h *VendorHandler) Search(w http.ResponseWriter, r *http.Request) {
	term, err := searchTerm(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	vendors, err := h.vendors.Search(r.Context(), term, autocompleteLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, vendors)
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.vendors.GetByID(r.Context(), chi.URLParam(r, "vendorID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, vendor)
}

func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req VendorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	vendor, err := h.vendors.Create(r.Context(), &repository.Vendor{
		VendorID: req.VendorID,
		Name:     req.Name,
		Contact:  req.Contact,
		Email:    req.Email,
		Phone:    req.Phone,
		City:     req.City,
		State:    req.State,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, vendor)
}

func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req VendorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	vendor, err := h.vendors.Update(r.Context(), &repository.Vendor{
		ID:      chi.URLParam(r, "vendorID"),
		Name:    req.Name,
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, vendor)
}

func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.vendors.Delete(r.Context(), chi.URLParam(r, "vendorID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *VendorHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.vendors.ListEmails(r.Context(), chi.URLParam(r, "vendorID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, emails)
}

func (h *VendorHandler) AddEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	email, err := h.vendors.AddEmail(r.Context(), chi.URLParam(r, "vendorID"), req.Email)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, email)
}

func (h *VendorHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.vendors.DeleteEmail(r.Context(), chi.URLParam(r, "emailID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
