package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/fishtech/fishtech-backend/internal/billing/events"
	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// WebhookService processes signature-verified Stripe webhook events and keeps
// local tenant subscription state in sync.
type WebhookService struct {
	tenants   *repository.TenantRepository
	cfg       config.StripeConfig
	logger    *logger.Logger
	publisher *events.BillingEventPublisher
}

// NewWebhookService creates a new webhook service
func NewWebhookService(tenants *repository.TenantRepository, cfg config.StripeConfig, log *logger.Logger, publisher *events.BillingEventPublisher) *WebhookService {
	return &WebhookService{
		tenants:   tenants,
		cfg:       cfg,
		logger:    log,
		publisher: publisher,
	}
}

// WebhookResult reports what happened to a delivered event
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// Process verifies the payload signature and dispatches by event type.
// Unhandled event types and events for unknown customers are acknowledged so
// Stripe does not retry them.
func (s *WebhookService) Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return nil, errors.Unauthorized("invalid webhook signature")
	}

	result := &WebhookResult{EventID: event.ID, EventType: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event, result)
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.handleSubscriptionChanged(ctx, event, result)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event, result)
	case "invoice.paid":
		err = s.handleInvoicePaid(ctx, event, result)
	case "invoice.payment_failed":
		err = s.handleInvoicePaymentFailed(ctx, event, result)
	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("ignoring unhandled webhook event")
		result.Message = "event type not handled"
		return result, nil
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return errors.BadRequest("malformed checkout session payload")
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	t, err := s.resolveTenant(ctx, sess.Metadata, customerID)
	if err != nil {
		return s.acknowledgeUnknownTenant(event, customerID, result, err)
	}

	upd := repository.SubscriptionUpdate{
		Status:   repository.SubscriptionActive,
		IsActive: true,
	}
	if sess.Subscription != nil {
		upd.StripeSubscriptionID = &sess.Subscription.ID
	}

	return s.applyUpdate(ctx, t, customerID, upd, result)
}

func (s *WebhookService) handleSubscriptionChanged(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return errors.BadRequest("malformed subscription payload")
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	t, err := s.resolveTenant(ctx, sub.Metadata, customerID)
	if err != nil {
		return s.acknowledgeUnknownTenant(event, customerID, result, err)
	}

	return s.applyUpdate(ctx, t, customerID, subscriptionUpdateFrom(&sub), result)
}

func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return errors.BadRequest("malformed subscription payload")
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	t, err := s.resolveTenant(ctx, sub.Metadata, customerID)
	if err != nil {
		return s.acknowledgeUnknownTenant(event, customerID, result, err)
	}

	// Deletion always lands as canceled regardless of the payload status.
	upd := repository.SubscriptionUpdate{
		Status:               repository.SubscriptionCanceled,
		IsActive:             false,
		StripeSubscriptionID: nil,
	}
	if sub.CurrentPeriodEnd > 0 {
		endsAt := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		upd.SubscriptionEndsAt = &endsAt
	}

	return s.applyUpdate(ctx, t, customerID, upd, result)
}

func (s *WebhookService) handleInvoicePaid(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return errors.BadRequest("malformed invoice payload")
	}

	customerID := ""
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}

	t, err := s.resolveTenant(ctx, inv.Metadata, customerID)
	if err != nil {
		return s.acknowledgeUnknownTenant(event, customerID, result, err)
	}

	upd := repository.SubscriptionUpdate{
		Status:               repository.SubscriptionActive,
		IsActive:             true,
		StripeSubscriptionID: t.StripeSubscriptionID,
		SubscriptionEndsAt:   t.SubscriptionEndsAt,
	}

	return s.applyUpdate(ctx, t, customerID, upd, result)
}

func (s *WebhookService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event, result *WebhookResult) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return errors.BadRequest("malformed invoice payload")
	}

	customerID := ""
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}

	t, err := s.resolveTenant(ctx, inv.Metadata, customerID)
	if err != nil {
		return s.acknowledgeUnknownTenant(event, customerID, result, err)
	}

	// Past due keeps the subscription id so the tenant can still fix payment
	// through the portal.
	upd := repository.SubscriptionUpdate{
		Status:               repository.SubscriptionPastDue,
		IsActive:             false,
		StripeSubscriptionID: t.StripeSubscriptionID,
		SubscriptionEndsAt:   t.SubscriptionEndsAt,
	}

	if err := s.applyUpdate(ctx, t, customerID, upd, result); err != nil {
		return err
	}
	s.publisher.PublishPaymentFailed(ctx, t.ID, customerID, inv.ID)
	return nil
}

// resolveTenant finds the tenant an event belongs to: metadata tenant_id
// first, then the Stripe customer id.
func (s *WebhookService) resolveTenant(ctx context.Context, metadata map[string]string, customerID string) (*repository.Tenant, error) {
	if tenantID := metadata["tenant_id"]; tenantID != "" {
		if t, err := s.tenants.GetByID(ctx, tenantID); err == nil {
			return t, nil
		}
	}
	if customerID == "" {
		return nil, errors.NotFound("tenant")
	}
	return s.tenants.GetByStripeCustomerID(ctx, customerID)
}

// acknowledgeUnknownTenant logs and swallows lookup failures. Returning an
// error would make Stripe retry an event we can never process.
func (s *WebhookService) acknowledgeUnknownTenant(event stripe.Event, customerID string, result *WebhookResult, err error) error {
	s.logger.Warn().
		Err(err).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("customer_id", customerID).
		Msg("webhook event for unknown tenant, acknowledging without processing")
	result.Message = "no tenant matches this event"
	return nil
}

func (s *WebhookService) applyUpdate(ctx context.Context, t *repository.Tenant, customerID string, upd repository.SubscriptionUpdate, result *WebhookResult) error {
	// Backfill the customer id if we learned it from this event.
	if t.StripeCustomerID == nil && customerID != "" {
		if err := s.tenants.SetStripeCustomerID(ctx, t.ID, customerID); err != nil {
			return err
		}
		t.StripeCustomerID = &customerID
	}

	if err := s.tenants.UpdateSubscription(ctx, t.ID, upd); err != nil {
		return err
	}

	t.SubscriptionStatus = upd.Status
	t.IsActive = upd.IsActive
	t.StripeSubscriptionID = upd.StripeSubscriptionID
	t.SubscriptionEndsAt = upd.SubscriptionEndsAt

	s.logger.Info().
		Str("tenant_id", t.ID).
		Str("status", upd.Status).
		Bool("is_active", upd.IsActive).
		Msg("tenant subscription updated from webhook")

	result.Processed = true
	s.publisher.PublishSubscriptionUpdated(ctx, t)
	return nil
}
