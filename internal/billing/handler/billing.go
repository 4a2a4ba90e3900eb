package handler

import (
	"net/http"

	"github.com/fishtech/fishtech-backend/internal/billing/service"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// BillingHandler handles subscription billing endpoints
type BillingHandler struct {
	service *service.BillingService
	logger  *logger.Logger
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(svc *service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: svc,
		logger:  log,
	}
}

// Checkout starts a Stripe subscription checkout
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"omitempty,email"`
	}
	// Body is optional; an empty body means no billing email yet.
	_ = httputil.DecodeJSON(r, &req)

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	session, err := h.service.CreateCheckout(r.Context(), req.Email)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, session)
}

// Portal opens the Stripe customer portal
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreatePortal(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, session)
}

// Status returns the tenant's current subscription state
func (h *BillingHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}
