package handler

import (
	"net/http"

	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// AdminHandler exposes the platform-level tenant listing
type AdminHandler struct {
	tenants *repository.TenantRepository
	logger  *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(tenants *repository.TenantRepository, log *logger.Logger) *AdminHandler {
	return &AdminHandler{tenants: tenants, logger: log}
}

// ListTenants returns every tenant with its subscription state
func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tenants)
}
