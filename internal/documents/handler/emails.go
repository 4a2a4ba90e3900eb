package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// TenantEmailHandler handles the tenant-wide recipient list
type TenantEmailHandler struct {
	emails *repository.TenantEmailRepository
	logger *logger.Logger
}

// NewTenantEmailHandler creates a new tenant email handler
func NewTenantEmailHandler(emails *repository.TenantEmailRepository, log *logger.Logger) *TenantEmailHandler {
	return &TenantEmailHandler{emails: emails, logger: log}
}

func (h *TenantEmailHandler) List(w http.ResponseWriter, r *http.Request) {
	emails, err := h.emails.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, emails)
}

func (h *TenantEmailHandler) Add(w http.ResponseWriter, r *http.Request) {
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

	email, err := h.emails.Add(r.Context(), req.Email)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, email)
}

func (h *TenantEmailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.emails.Delete(r.Context(), chi.URLParam(r, "emailID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
