package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// Owner names the user accountable for a facility's food safety plan.
type Owner struct {
	ID        string `db:"id" json:"id"`
	TenantID  string `db:"tenant_id" json:"-"`
	CompanyID string `db:"company_id" json:"company_id"`
	UserID    string `db:"user_id" json:"user_id"`
	UserName  string `db:"user_name" json:"user_name"`
}

// OwnerRepository handles plan owner persistence
type OwnerRepository struct {
	db *database.DB
}

// NewOwnerRepository creates a new owner repository
func NewOwnerRepository(db *database.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Get returns the facility's plan owner, or NotFound when none is set.
func (r *OwnerRepository) Get(ctx context.Context, companyID string) (*Owner, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var owner Owner
	query := `
		SELECT o.id, o.tenant_id, o.company_id, o.user_id,
		       TRIM(u.first_name || ' ' || u.last_name) AS user_name
		FROM company_haccp_owners o
		JOIN users u ON u.id = o.user_id
		WHERE o.tenant_id = $1 AND o.company_id = $2
	`

	if err := r.db.GetContext(ctx, &owner, query, tenantID, companyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("plan owner")
		}
		return nil, err
	}
	return &owner, nil
}

// Set assigns the facility's plan owner, replacing any previous one.
func (r *OwnerRepository) Set(ctx context.Context, companyID, userID string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	// The conflict key does not include tenant_id; re-checking it keeps a
	// conflict owned by another tenant from being updated.
	query := `
		INSERT INTO company_haccp_owners (id, tenant_id, company_id, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT company_haccp_owners_company DO UPDATE SET
			user_id = EXCLUDED.user_id
		WHERE company_haccp_owners.tenant_id = EXCLUDED.tenant_id
	`

	result, err := r.db.ExecContext(ctx, query, uuid.New().String(), tenantID, companyID, userID)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("company")
	}
	return nil
}

// Clear removes the facility's plan owner.
func (r *OwnerRepository) Clear(ctx context.Context, companyID string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM company_haccp_owners WHERE tenant_id = $1 AND company_id = $2`,
		tenantID, companyID)
	return err
}
