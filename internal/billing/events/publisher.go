package events

import (
	"context"

	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
)

// BillingEventPublisher publishes tenant subscription events
type BillingEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewBillingEventPublisher creates a new billing event publisher
func NewBillingEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*BillingEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeTenantEvents, "billing-service", log)
	if err != nil {
		return nil, err
	}

	return &BillingEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishSubscriptionUpdated publishes a tenant subscription state change
func (p *BillingEventPublisher) PublishSubscriptionUpdated(ctx context.Context, t *repository.Tenant) {
	if p == nil {
		return
	}
	customerID := ""
	if t.StripeCustomerID != nil {
		customerID = *t.StripeCustomerID
	}

	data := messaging.TenantSubscriptionUpdatedEvent{
		TenantID:           t.ID,
		SubscriptionStatus: t.SubscriptionStatus,
		IsActive:           t.IsActive,
		StripeCustomerID:   customerID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTenantSubscriptionUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("tenant_id", t.ID).Msg("failed to publish subscription updated event")
	}
}

// PublishPaymentFailed publishes a failed invoice payment
func (p *BillingEventPublisher) PublishPaymentFailed(ctx context.Context, tenantID, customerID, invoiceID string) {
	if p == nil {
		return
	}
	data := messaging.TenantPaymentFailedEvent{
		TenantID:         tenantID,
		StripeCustomerID: customerID,
		InvoiceID:        invoiceID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTenantPaymentFailed, data); err != nil {
		p.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("failed to publish payment failed event")
	}
}
