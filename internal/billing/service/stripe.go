package service

import (
	"context"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/subscription"

	"github.com/fishtech/fishtech-backend/internal/billing/events"
	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// BillingService drives the Stripe subscription lifecycle for tenants
type BillingService struct {
	tenants   *repository.TenantRepository
	cfg       config.StripeConfig
	logger    *logger.Logger
	publisher *events.BillingEventPublisher
}

// NewBillingService creates a new billing service and configures the Stripe
// client key.
func NewBillingService(tenants *repository.TenantRepository, cfg config.StripeConfig, log *logger.Logger, publisher *events.BillingEventPublisher) *BillingService {
	stripe.Key = cfg.SecretKey

	return &BillingService{
		tenants:   tenants,
		cfg:       cfg,
		logger:    log,
		publisher: publisher,
	}
}

// CheckoutSession is the redirect target for a newly created checkout
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PortalSession is the redirect target for the Stripe customer portal
type PortalSession struct {
	URL string `json:"url"`
}

// SubscriptionStatus is the tenant-facing view of the billing state
type SubscriptionStatus struct {
	Status             string     `json:"status"`
	IsActive           bool       `json:"is_active"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	TrialDaysRemaining int        `json:"trial_days_remaining"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	HasPaymentMethod   bool       `json:"has_payment_method"`
}

// CreateCheckout creates (or reuses) the tenant's Stripe customer and opens a
// subscription checkout session for the configured price.
func (s *BillingService) CreateCheckout(ctx context.Context, customerEmail string) (*CheckoutSession, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, t, customerEmail)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"tenant_id": t.ID},
		},
	}
	params.Metadata = map[string]string{"tenant_id": t.ID}

	sess, err := session.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", t.ID).Msg("failed to create checkout session")
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "could not start checkout", http.StatusBadGateway)
	}

	s.logger.Info().
		Str("tenant_id", t.ID).
		Str("session_id", sess.ID).
		Msg("checkout session created")

	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortal opens a Stripe billing portal session for the tenant. The
// tenant must already have a Stripe customer.
func (s *BillingService) CreatePortal(ctx context.Context) (*PortalSession, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.StripeCustomerID == nil {
		return nil, errors.BadRequest("no billing account exists yet, start a checkout first")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*t.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.PortalURL),
	}

	sess, err := portalsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", t.ID).Msg("failed to create portal session")
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "could not open billing portal", http.StatusBadGateway)
	}

	return &PortalSession{URL: sess.URL}, nil
}

// GetStatus returns the tenant's subscription state. When a Stripe
// subscription exists the state is refreshed from Stripe on read, so a missed
// webhook cannot leave a paying tenant locked out.
func (s *BillingService) GetStatus(ctx context.Context) (*SubscriptionStatus, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if t.StripeSubscriptionID != nil {
		if refreshed, err := s.refreshFromStripe(ctx, t); err != nil {
			s.logger.Warn().Err(err).Str("tenant_id", t.ID).Msg("subscription refresh failed, serving local state")
		} else {
			t = refreshed
		}
	}

	return &SubscriptionStatus{
		Status:             t.SubscriptionStatus,
		IsActive:           t.IsActive,
		TrialEndsAt:        t.TrialEndsAt,
		TrialDaysRemaining: t.DaysRemainingInTrial(),
		SubscriptionEndsAt: t.SubscriptionEndsAt,
		HasPaymentMethod:   t.StripeCustomerID != nil,
	}, nil
}

// ensureCustomer returns the tenant's Stripe customer id, creating the
// customer on first use.
func (s *BillingService) ensureCustomer(ctx context.Context, t *repository.Tenant, email string) (string, error) {
	if t.StripeCustomerID != nil {
		return *t.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Name:        stripe.String(t.Name),
		Description: stripe.String("FishTech tenant " + t.Subdomain),
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Metadata = map[string]string{"tenant_id": t.ID}

	cust, err := customer.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", t.ID).Msg("failed to create stripe customer")
		return "", errors.Wrap(err, "INTERNAL_ERROR", "could not create billing account", http.StatusBadGateway)
	}

	if err := s.tenants.SetStripeCustomerID(ctx, t.ID, cust.ID); err != nil {
		return "", err
	}
	t.StripeCustomerID = &cust.ID

	s.logger.Info().
		Str("tenant_id", t.ID).
		Str("customer_id", cust.ID).
		Msg("stripe customer created")

	return cust.ID, nil
}

// refreshFromStripe pulls the live subscription and reconciles local state
// when it drifted.
func (s *BillingService) refreshFromStripe(ctx context.Context, t *repository.Tenant) (*repository.Tenant, error) {
	sub, err := subscription.Get(*t.StripeSubscriptionID, nil)
	if err != nil {
		return nil, err
	}

	upd := subscriptionUpdateFrom(sub)
	if upd.Status == t.SubscriptionStatus && upd.IsActive == t.IsActive {
		return t, nil
	}

	if err := s.tenants.UpdateSubscription(ctx, t.ID, upd); err != nil {
		return nil, err
	}

	t.SubscriptionStatus = upd.Status
	t.IsActive = upd.IsActive
	t.StripeSubscriptionID = upd.StripeSubscriptionID
	t.SubscriptionEndsAt = upd.SubscriptionEndsAt
	s.publisher.PublishSubscriptionUpdated(ctx, t)

	return t, nil
}

// subscriptionUpdateFrom maps a Stripe subscription onto the local tenant
// fields. A canceled subscription clears the stored subscription id so the
// next checkout starts clean.
func subscriptionUpdateFrom(sub *stripe.Subscription) repository.SubscriptionUpdate {
	status := string(sub.Status)
	upd := repository.SubscriptionUpdate{
		Status:   status,
		IsActive: status == repository.SubscriptionActive || status == repository.SubscriptionTrialing,
	}

	if status == repository.SubscriptionCanceled {
		upd.StripeSubscriptionID = nil
	} else {
		upd.StripeSubscriptionID = &sub.ID
	}

	if sub.CurrentPeriodEnd > 0 {
		endsAt := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		upd.SubscriptionEndsAt = &endsAt
	}

	return upd
}
