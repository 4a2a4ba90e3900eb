package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// TenantEmail is a tenant-wide address copied on outbound document mail,
// typically the office or compliance inbox.
type TenantEmail struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"-"`
	Email    string `db:"email" json:"email"`
}

// TenantEmailRepository handles tenant-wide recipient addresses
type TenantEmailRepository struct {
	db *database.DB
}

// NewTenantEmailRepository creates a new tenant email repository
func NewTenantEmailRepository(db *database.DB) *TenantEmailRepository {
	return &TenantEmailRepository{db: db}
}

func (r *TenantEmailRepository) List(ctx context.Context) ([]TenantEmail, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	emails := []TenantEmail{}
	query := `SELECT id, tenant_id, email FROM tenant_emails WHERE tenant_id = $1 ORDER BY email`
	if err := r.db.SelectContext(ctx, &emails, query, tenantID); err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *TenantEmailRepository) Add(ctx context.Context, email string) (*TenantEmail, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	te := &TenantEmail{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Email:    email,
	}

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		_, err := r.db.ExecContext(txCtx,
			`INSERT INTO tenant_emails (id, tenant_id, email) VALUES ($1, $2, $3)`,
			te.ID, tenantID, email)
		return err
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return te, nil
}

func (r *TenantEmailRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM tenant_emails WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("tenant email")
		}
		return nil
	})
}
