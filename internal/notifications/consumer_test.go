package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingrepo "github.com/fishtech/fishtech-backend/internal/billing/repository"
	docrepo "github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/messaging"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const alertTestTenant = "dddddddd-0000-0000-0000-000000000001"

type alertFixture struct {
	consumer *AlertConsumer
	mockDB   *testutil.MockDB
	mail     *testutil.MockMailer
	ctx      context.Context
}

func newAlertFixture(t *testing.T) *alertFixture {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	mail := testutil.NewMockMailer()
	log := logger.New("alert-test", "test")
	db := database.Wrap(mockDB.DB, log)

	return &alertFixture{
		consumer: &AlertConsumer{
			companies:    billingrepo.NewCompanyRepository(db),
			tenantEmails: docrepo.NewTenantEmailRepository(db),
			mail:         mail,
			logger:       log,
		},
		mockDB: mockDB,
		mail:   mail,
		ctx:    testutil.WithTestTenantValues(context.Background(), alertTestTenant, "pacific"),
	}
}

func (f *alertFixture) expectTenantEmails(emails ...string) {
	rows := testutil.MockRows("id", "tenant_id", "email")
	for _, email := range emails {
		rows.AddRow(uuid.New().String(), alertTestTenant, email)
	}
	f.mockDB.ExpectQuery("FROM tenant_emails").
		WithArgs(alertTestTenant).
		WillReturnRows(rows)
}

func scheduleIncompleteEvent(t *testing.T, companyID string) *messaging.Event {
	t.Helper()
	event, err := messaging.NewEvent(
		messaging.EventScheduleIncomplete, "operations-service", "",
		messaging.ScheduleIncompleteEvent{
			CompanyID:       companyID,
			IncompleteDates: []string{"2026-08-24", "2026-08-25"},
			UnverifiedCount: 3,
		})
	require.NoError(t, err)
	return event
}

func TestHandleScheduleIncomplete_MailsTenantAddresses(t *testing.T) {
	f := newAlertFixture(t)
	companyID := "11111111-2222-3333-4444-555555555555"

	f.mockDB.ExpectQuery("FROM companies").
		WithArgs(alertTestTenant, companyID).
		WillReturnRows(testutil.MockRows(
			"id", "tenant_id", "name", "address", "created_at", "updated_at",
		).AddRow(companyID, alertTestTenant, "Harbor Point Seafood", nil, time.Now(), time.Now()))
	f.expectTenantEmails("office@harborpoint.example", "qa@harborpoint.example")

	err := f.consumer.handleScheduleIncomplete(f.ctx, scheduleIncompleteEvent(t, companyID))
	require.NoError(t, err)

	require.Len(t, f.mail.Sent, 1)
	sent := f.mail.Sent[0]
	assert.Equal(t, []string{"office@harborpoint.example", "qa@harborpoint.example"}, sent.To)
	assert.Contains(t, sent.Subject, "Harbor Point Seafood")
	assert.Contains(t, sent.Body, "2026-08-24")
	assert.Contains(t, sent.Body, "2026-08-25")
	assert.Contains(t, sent.Body, "awaiting verification: 3")
	assert.Empty(t, sent.Attachments)
	f.mockDB.ExpectationsWereMet(t)
}

func TestHandleScheduleIncomplete_NoAddressesConfigured(t *testing.T) {
	f := newAlertFixture(t)
	companyID := "11111111-2222-3333-4444-555555555555"

	f.mockDB.ExpectQuery("FROM companies").
		WithArgs(alertTestTenant, companyID).
		WillReturnRows(testutil.MockRows(
			"id", "tenant_id", "name", "address", "created_at", "updated_at",
		).AddRow(companyID, alertTestTenant, "Harbor Point Seafood", nil, time.Now(), time.Now()))
	f.expectTenantEmails()

	err := f.consumer.handleScheduleIncomplete(f.ctx, scheduleIncompleteEvent(t, companyID))
	require.NoError(t, err)
	assert.Empty(t, f.mail.Sent)
	f.mockDB.ExpectationsWereMet(t)
}

func TestHandlePaymentFailed_RestoresTenantFromPayload(t *testing.T) {
	f := newAlertFixture(t)

	event, err := messaging.NewEvent(
		messaging.EventTenantPaymentFailed, "billing-service", "",
		messaging.TenantPaymentFailedEvent{
			TenantID:         alertTestTenant,
			StripeCustomerID: "cus_123",
			InvoiceID:        "in_456",
		})
	require.NoError(t, err)

	f.expectTenantEmails("office@harborpoint.example")

	// Deliberately no tenant on the context: webhook-driven events arrive
	// outside a tenant request.
	err = f.consumer.handlePaymentFailed(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, f.mail.Sent, 1)
	assert.Equal(t, "Subscription payment failed", f.mail.Sent[0].Subject)
	assert.Contains(t, f.mail.Sent[0].Body, "in_456")
	f.mockDB.ExpectationsWereMet(t)
}
