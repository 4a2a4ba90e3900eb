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

// Vendor is a supplier the tenant buys from. VendorID is the tenant's
// own vendor code.
type Vendor struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"-"`
	VendorID  string    `db:"vendor_id" json:"vendor_id"`
	Name      string    `db:"name" json:"name"`
	Contact   *string   `db:"contact" json:"contact"`
	Email     *string   `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	City      *string   `db:"city" json:"city"`
	State     *string   `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// VendorEmail is an additional recipient address for a vendor
type VendorEmail struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"-"`
	VendorID string `db:"vendor_id" json:"vendor_id"`
	Email    string `db:"email" json:"email"`
}

const vendorColumns = `id, tenant_id, vendor_id, name, contact, email, phone, city, state, created_at`

// VendorRepository handles vendor persistence
type VendorRepository struct {
	db *database.DB
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *database.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) List(ctx context.Context) ([]Vendor, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	vendors := []Vendor{}
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE tenant_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &vendors, query, tenantID); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *VendorRepository) GetByID(ctx context.Context, id string) (*Vendor, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var v Vendor
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE tenant_id = $1 AND id = $2`
	if err := r.db.GetContext(ctx, &v, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("vendor")
		}
		return nil, err
	}
	return &v, nil
}

// Search matches the query term against vendor code and name
func (r *VendorRepository) Search(ctx context.Context, term string, limit int) ([]Vendor, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	vendors := []Vendor{}
	query := `
		SELECT ` + vendorColumns + `
		FROM vendors
		WHERE tenant_id = $1 AND (vendor_id ILIKE $2 OR name ILIKE $2)
		ORDER BY name
		LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &vendors, query, tenantID, "%"+term+"%", limit); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *VendorRepository) Create(ctx context.Context, v *Vendor) (*Vendor, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	v.ID = uuid.New().String()
	v.TenantID = tenantID

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			INSERT INTO vendors (id, tenant_id, vendor_id, name, contact, email, phone, city, state)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`
		row := r.db.QueryRowxContext(txCtx, query,
			v.ID, tenantID, v.VendorID, v.Name, v.Contact, v.Email, v.Phone, v.City, v.State)
		return row.Scan(&v.CreatedAt)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return v, nil
}

func (r *VendorRepository) Update(ctx context.Context, v *Vendor) (*Vendor, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var updated Vendor
	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			UPDATE vendors
			SET name = $1, contact = $2, email = $3, phone = $4, city = $5, state = $6
			WHERE tenant_id = $7 AND id = $8
			RETURNING ` + vendorColumns + `
		`
		if err := r.db.GetContext(txCtx, &updated, query,
			v.Name, v.Contact, v.Email, v.Phone, v.City, v.State, tenantID, v.ID); err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFound("vendor")
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
	return &updated, nil
}

func (r *VendorRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx, `DELETE FROM vendors WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("vendor")
		}
		return nil
	})
}

func (r *VendorRepository) ListEmails(ctx context.Context, vendorID string) ([]VendorEmail, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	emails := []VendorEmail{}
	query := `
		SELECT id, tenant_id, vendor_id, email
		FROM vendor_emails
		WHERE tenant_id = $1 AND vendor_id = $2
		ORDER BY email
	`
	if err := r.db.SelectContext(ctx, &emails, query, tenantID, vendorID); err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *VendorRepository) AddEmail(ctx context.Context, vendorID, email string) (*VendorEmail, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	ve := &VendorEmail{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		VendorID: vendorID,
		Email:    email,
	}

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		_, err := r.db.ExecContext(txCtx,
			`INSERT INTO vendor_emails (id, tenant_id, vendor_id, email) VALUES ($1, $2, $3, $4)`,
			ve.ID, tenantID, vendorID, email)
		return err
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return ve, nil
}

func (r *VendorRepository) DeleteEmail(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM vendor_emails WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("vendor email")
		}
		return nil
	})
}
