package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// Company is a processing facility operated by a tenant. Most tenants run
// one; larger processors register one per plant.
type Company struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Name      string    `db:"name"`
	Address   *string   `db:"address"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CompanyRepository handles company persistence
type CompanyRepository struct {
	db *database.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *database.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// List returns the tenant's companies ordered by name
func (r *CompanyRepository) List(ctx context.Context) ([]Company, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	companies := []Company{}
	query := `
		SELECT id, tenant_id, name, address, created_at, updated_at
		FROM companies
		WHERE tenant_id = $1
		ORDER BY name
	`

	if err := r.db.SelectContext(ctx, &companies, query, tenantID); err != nil {
		return nil, err
	}
	return companies, nil
}

// GetByID fetches a single company
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*Company, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var company Company
	query := `
		SELECT id, tenant_id, name, address, created_at, updated_at
		FROM companies
		WHERE tenant_id = $1 AND id = $2
	`

	if err := r.db.GetContext(ctx, &company, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("company")
		}
		return nil, err
	}
	return &company, nil
}

// Create inserts a new company for the current tenant
func (r *CompanyRepository) Create(ctx context.Context, name string, address *string) (*Company, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	company := &Company{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     name,
		Address:  address,
	}

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			INSERT INTO companies (id, tenant_id, name, address)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at
		`
		row := r.db.QueryRowxContext(txCtx, query, company.ID, tenantID, company.Name, company.Address)
		return row.Scan(&company.CreatedAt, &company.UpdatedAt)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return company, nil
}

// Update changes a company's name and address
func (r *CompanyRepository) Update(ctx context.Context, id, name string, address *string) (*Company, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var company Company
	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			UPDATE companies
			SET name = $1, address = $2, updated_at = NOW()
			WHERE tenant_id = $3 AND id = $4
			RETURNING id, tenant_id, name, address, created_at, updated_at
		`
		if err := r.db.GetContext(txCtx, &company, query, name, address, tenantID, id); err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFound("company")
			}
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Delete removes a company; scoped rows cascade with it
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx, `DELETE FROM companies WHERE tenant_id = $1 AND id = $2`, tenantID, id)
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
	})
}
