package handler

import (
	"io"
	"net/http"

	"github.com/fishtech/fishtech-backend/internal/billing/service"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// Stripe webhook payloads are small; cap reads well above any real event.
const maxWebhookPayload = 64 * 1024

// WebhookHandler receives Stripe webhook deliveries
type WebhookHandler struct {
	service *service.WebhookService
	logger  *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(svc *service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		logger:  log,
	}
}

// HandleStripe processes a Stripe webhook delivery. The endpoint is
// unauthenticated; the payload signature is the authentication.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		httputil.Error(w, errors.Unauthorized("missing webhook signature"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookPayload+1))
	if err != nil {
		httputil.Error(w, errors.BadRequest("could not read webhook payload"))
		return
	}
	if len(payload) > maxWebhookPayload {
		httputil.Error(w, errors.BadRequest("webhook payload too large"))
		return
	}

	result, err := h.service.Process(r.Context(), payload, signature)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
