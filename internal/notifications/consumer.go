package notifications

import (
	"context"
	"fmt"
	"strings"

	billingrepo "github.com/fishtech/fishtech-backend/internal/billing/repository"
	docrepo "github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/mailer"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// AlertConsumer consumes compliance and billing events and mails the
// tenant's notification addresses. Alerts are best-effort: a tenant with no
// addresses configured simply receives none.
type AlertConsumer struct {
	consumer     *messaging.Consumer
	companies    *billingrepo.CompanyRepository
	tenantEmails *docrepo.TenantEmailRepository
	mail         mailer.Mailer
	logger       *logger.Logger
}

// NewAlertConsumer creates a new alert consumer
func NewAlertConsumer(
	rmq *messaging.RabbitMQ,
	companies *billingrepo.CompanyRepository,
	tenantEmails *docrepo.TenantEmailRepository,
	mail mailer.Mailer,
	log *logger.Logger,
) (*AlertConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "fishtech-server.alerts", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeInspectionEvents, "inspection.schedule.*"); err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeTenantEvents, "tenant.payment.*"); err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeTenantEvents, "tenant.trial.*"); err != nil {
		return nil, err
	}

	c := &AlertConsumer{
		consumer:     consumer,
		companies:    companies,
		tenantEmails: tenantEmails,
		mail:         mail,
		logger:       log.WithComponent("alert-consumer"),
	}

	consumer.RegisterHandler(messaging.EventScheduleIncomplete, c.handleScheduleIncomplete)
	consumer.RegisterHandler(messaging.EventTenantPaymentFailed, c.handlePaymentFailed)
	consumer.RegisterHandler(messaging.EventTenantTrialExpiring, c.handleTrialExpiring)

	return c, nil
}

// Start starts consuming messages
func (c *AlertConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *AlertConsumer) handleScheduleIncomplete(ctx context.Context, event *messaging.Event) error {
	var data messaging.ScheduleIncompleteEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	companyName := data.CompanyID
	if company, err := c.companies.GetByID(ctx, data.CompanyID); err == nil {
		companyName = company.Name
	}

	subject := fmt.Sprintf("Inspection records incomplete for %s", companyName)

	var body strings.Builder
	fmt.Fprintf(&body, "The daily inspection record for %s has gaps that need attention.\n\n", companyName)
	if len(data.IncompleteDates) > 0 {
		body.WriteString("Days with missing inspections:\n")
		for _, day := range data.IncompleteDates {
			fmt.Fprintf(&body, "  - %s\n", day)
		}
		body.WriteString("\n")
	}
	if data.UnverifiedCount > 0 {
		fmt.Fprintf(&body, "Inspections awaiting verification: %d\n\n", data.UnverifiedCount)
	}
	body.WriteString("Sign in to review and complete the outstanding records.\n")

	return c.notify(ctx, event, subject, body.String())
}

func (c *AlertConsumer) handlePaymentFailed(ctx context.Context, event *messaging.Event) error {
	var data messaging.TenantPaymentFailedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	// Webhook processing runs outside a tenant request, so the envelope may
	// not carry tenant scope. The payload always does.
	if _, err := tenant.TenantID(ctx); err != nil {
		ctx = tenant.WithTenantID(ctx, data.TenantID)
	}

	body := fmt.Sprintf(
		"A subscription payment could not be processed (invoice %s).\n\n"+
			"Please update the payment method in the billing portal to keep the account active.\n",
		data.InvoiceID)

	return c.notify(ctx, event, "Subscription payment failed", body)
}

func (c *AlertConsumer) handleTrialExpiring(ctx context.Context, event *messaging.Event) error {
	var data messaging.TenantTrialExpiringEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	if _, err := tenant.TenantID(ctx); err != nil {
		ctx = tenant.WithTenantID(ctx, data.TenantID)
	}

	body := fmt.Sprintf(
		"The trial period ends on %s (%d days remaining).\n\n"+
			"Set up a subscription in the billing portal to keep access after the trial.\n",
		data.TrialEndDate.Format("January 2, 2006"), data.DaysRemaining)

	return c.notify(ctx, event, "Trial period ending soon", body)
}

// notify mails the tenant's configured addresses. A tenant with none
// configured is skipped without error; delivery failures are returned so the
// message is retried.
func (c *AlertConsumer) notify(ctx context.Context, event *messaging.Event, subject, body string) error {
	emails, err := c.tenantEmails.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve alert recipients: %w", err)
	}
	if len(emails) == 0 {
		c.logger.Debug().
			Str("event_type", event.Type).
			Msg("no notification addresses configured, skipping alert")
		return nil
	}

	recipients := make([]string, 0, len(emails))
	for _, e := range emails {
		recipients = append(recipients, e.Email)
	}

	if err := c.mail.Send(ctx, recipients, subject, body, nil); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}

	c.logger.Info().
		Str("event_type", event.Type).
		Int("recipients", len(recipients)).
		Msg("alert mail sent")
	return nil
}
