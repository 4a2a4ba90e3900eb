package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
)

// Subscription statuses mirrored from Stripe, plus the local trial default.
const (
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Tenant is a paying (or trialing) organization. One tenant owns every
// scoped row in the system; the tenants table itself is the scope root and
// is queried without a tenant context.
type Tenant struct {
	ID                   string     `db:"id"`
	Name                 string     `db:"name"`
	Subdomain            string     `db:"subdomain"`
	IsActive             bool       `db:"is_active"`
	SubscriptionStatus   string     `db:"subscription_status"`
	TrialEndsAt          *time.Time `db:"trial_ends_at"`
	SubscriptionEndsAt   *time.Time `db:"subscription_ends_at"`
	StripeCustomerID     *string    `db:"stripe_customer_id"`
	StripeSubscriptionID *string    `db:"stripe_subscription_id"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

// DaysRemainingInTrial returns whole days left in the trial, zero when the
// trial has ended or was never set.
func (t *Tenant) DaysRemainingInTrial() int {
	if t.TrialEndsAt == nil {
		return 0
	}
	remaining := time.Until(*t.TrialEndsAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// IsSubscriptionValid reports whether the tenant may use the product:
// an active subscription, or a trial that has not yet expired.
func (t *Tenant) IsSubscriptionValid() bool {
	if !t.IsActive {
		return false
	}
	switch t.SubscriptionStatus {
	case SubscriptionActive:
		return true
	case SubscriptionTrialing:
		return t.TrialEndsAt == nil || time.Now().Before(*t.TrialEndsAt)
	default:
		return false
	}
}

// SubscriptionUpdate carries the fields a Stripe event may change.
type SubscriptionUpdate struct {
	Status               string
	IsActive             bool
	StripeSubscriptionID *string
	SubscriptionEndsAt   *time.Time
}

const tenantColumns = `id, name, subdomain, is_active, subscription_status, trial_ends_at,
	subscription_ends_at, stripe_customer_id, stripe_subscription_id, created_at, updated_at`

// TenantRepository handles tenant persistence
type TenantRepository struct {
	db *database.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *database.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID fetches a tenant by primary key
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("tenant")
		}
		return nil, err
	}
	return &t, nil
}

// GetBySubdomain fetches a tenant by its subdomain
func (r *TenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	var t Tenant
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`

	if err := r.db.GetContext(ctx, &t, query, subdomain); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("tenant")
		}
		return nil, err
	}
	return &t, nil
}

// GetByStripeCustomerID resolves a tenant from a Stripe customer. Webhook
// handlers use this when the event carries no tenant metadata.
func (r *TenantRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*Tenant, error) {
	var t Tenant
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE stripe_customer_id = $1`

	if err := r.db.GetContext(ctx, &t, query, customerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("tenant")
		}
		return nil, err
	}
	return &t, nil
}

// List returns all tenants, newest first. Platform administration only.
func (r *TenantRepository) List(ctx context.Context) ([]Tenant, error) {
	tenants := []Tenant{}
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, err
	}
	return tenants, nil
}

// SetStripeCustomerID records the Stripe customer created for a tenant
func (r *TenantRepository) SetStripeCustomerID(ctx context.Context, tenantID, customerID string) error {
	query := `UPDATE tenants SET stripe_customer_id = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, customerID, tenantID)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("tenant")
	}
	return nil
}

// UpdateSubscription applies a subscription state change from Stripe
func (r *TenantRepository) UpdateSubscription(ctx context.Context, tenantID string, upd SubscriptionUpdate) error {
	query := `
		UPDATE tenants
		SET subscription_status = $1,
		    is_active = $2,
		    stripe_subscription_id = $3,
		    subscription_ends_at = $4,
		    updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		upd.Status, upd.IsActive, upd.StripeSubscriptionID, upd.SubscriptionEndsAt, tenantID)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("tenant")
	}
	return nil
}

// SetActive toggles whether a tenant may log in at all
func (r *TenantRepository) SetActive(ctx context.Context, tenantID string, active bool) error {
	query := `UPDATE tenants SET is_active = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, active, tenantID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("tenant")
	}
	return nil
}
