package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	testTenantID      = "bbbbbbbb-0000-0000-0000-000000000001"
	testCustomerID    = "cus_test123"
	testWebhookSecret = "whsec_testsecret"
)

func newWebhookService(t *testing.T) (*WebhookService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("billing-test", "test")
	db := database.Wrap(mockDB.DB, log)

	svc := NewWebhookService(
		repository.NewTenantRepository(db),
		config.StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testWebhookSecret},
		log,
		nil,
	)
	return svc, mockDB
}

// signPayload produces a Stripe-Signature header that verifies against the
// test webhook secret.
func signPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func tenantRow(customerID, subscriptionID *string, status string, active bool) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "name", "subdomain", "is_active", "subscription_status", "trial_ends_at",
		"subscription_ends_at", "stripe_customer_id", "stripe_subscription_id", "created_at", "updated_at",
	).AddRow(
		testTenantID, "Pacific Shore Seafood", "pacificshore", active, status, nil,
		nil, customerID, subscriptionID, time.Now(), time.Now(),
	)
}

func strPtr(s string) *string { return &s }

func TestProcess_InvalidSignature(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)

	_, err := svc.Process(context.Background(), payload, "t=123,v1=deadbeef")

	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestProcess_SubscriptionUpdated_ActivatesTenant(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_sub_updated",
		"api_version": %q,
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_123",
				"object": "subscription",
				"status": "active",
				"customer": %q,
				"current_period_end": 1767225600,
				"metadata": {"tenant_id": %q}
			}
		}
	}`, stripe.APIVersion, testCustomerID, testTenantID))

	mockDB.ExpectQuery("SELECT").
		WithArgs(testTenantID).
		WillReturnRows(tenantRow(strPtr(testCustomerID), nil, "trialing", true))
	mockDB.ExpectExec("UPDATE tenants").
		WithArgs("active", true, "sub_123", sqlmock.AnyArg(), testTenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Process(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, "customer.subscription.updated", result.EventType)
	mockDB.ExpectationsWereMet(t)
}

func TestProcess_SubscriptionDeleted_ClearsSubscription(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_sub_deleted",
		"api_version": %q,
		"type": "customer.subscription.deleted",
		"data": {
			"object": {
				"id": "sub_123",
				"object": "subscription",
				"status": "canceled",
				"customer": %q,
				"current_period_end": 1767225600,
				"metadata": {"tenant_id": %q}
			}
		}
	}`, stripe.APIVersion, testCustomerID, testTenantID))

	mockDB.ExpectQuery("SELECT").
		WithArgs(testTenantID).
		WillReturnRows(tenantRow(strPtr(testCustomerID), strPtr("sub_123"), "active", true))
	mockDB.ExpectExec("UPDATE tenants").
		WithArgs("canceled", false, nil, sqlmock.AnyArg(), testTenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Process(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.True(t, result.Processed)
	mockDB.ExpectationsWereMet(t)
}

func TestProcess_InvoicePaymentFailed_MarksPastDue(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_inv_failed",
		"api_version": %q,
		"type": "invoice.payment_failed",
		"data": {
			"object": {
				"id": "in_123",
				"object": "invoice",
				"customer": %q
			}
		}
	}`, stripe.APIVersion, testCustomerID))

	// No tenant metadata on invoices: lookup falls through to the customer id.
	mockDB.ExpectQuery("SELECT").
		WithArgs(testCustomerID).
		WillReturnRows(tenantRow(strPtr(testCustomerID), strPtr("sub_123"), "active", true))
	mockDB.ExpectExec("UPDATE tenants").
		WithArgs("past_due", false, "sub_123", nil, testTenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Process(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.True(t, result.Processed)
	mockDB.ExpectationsWereMet(t)
}

func TestProcess_InvoicePaid_Reactivates(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_inv_paid",
		"api_version": %q,
		"type": "invoice.paid",
		"data": {
			"object": {
				"id": "in_456",
				"object": "invoice",
				"customer": %q
			}
		}
	}`, stripe.APIVersion, testCustomerID))

	mockDB.ExpectQuery("SELECT").
		WithArgs(testCustomerID).
		WillReturnRows(tenantRow(strPtr(testCustomerID), strPtr("sub_123"), "past_due", false))
	mockDB.ExpectExec("UPDATE tenants").
		WithArgs("active", true, "sub_123", nil, testTenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Process(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.True(t, result.Processed)
	mockDB.ExpectationsWereMet(t)
}

func TestProcess_UnknownCustomer_Acknowledged(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_unknown",
		"api_version": %q,
		"type": "invoice.paid",
		"data": {
			"object": {
				"id": "in_789",
				"object": "invoice",
				"customer": "cus_stranger"
			}
		}
	}`, stripe.APIVersion))

	mockDB.ExpectQuery("SELECT").
		WithArgs("cus_stranger").
		WillReturnRows(testutil.MockRows("id"))

	result, err := svc.Process(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.False(t, result.Processed)
	assert.NotEmpty(t, result.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestProcess_UnhandledEventType_Ignored(t *testing.T) {
	svc, mockDB := newWebhookService(t)
	defer mockDB.Close()

	payload := []byte(fmt.Sprintf(`{"id":"evt_other","api_version":%q,"type":"charge.refunded","data":{"object":{}}}`, stripe.APIVersion))

	result, err := svc.Process(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.False(t, result.Processed)
	mockDB.ExpectationsWereMet(t)
}
