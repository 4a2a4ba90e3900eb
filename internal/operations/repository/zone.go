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

// Zone is a named area of a facility that sanitation items group under.
type Zone struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"-"`
	CompanyID string    `db:"company_id" json:"company_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ZoneRepository handles zone persistence
type ZoneRepository struct {
	db *database.DB
}

// NewZoneRepository creates a new zone repository
func NewZoneRepository(db *database.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// List returns a facility's zones by name
func (r *ZoneRepository) List(ctx context.Context, companyID string) ([]Zone, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	zones := []Zone{}
	query := `
		SELECT id, tenant_id, company_id, name, created_at
		FROM zones
		WHERE tenant_id = $1 AND company_id = $2
		ORDER BY name
	`

	if err := r.db.SelectContext(ctx, &zones, query, tenantID, companyID); err != nil {
		return nil, err
	}
	return zones, nil
}

// Create adds a zone
func (r *ZoneRepository) Create(ctx context.Context, companyID, name string) (*Zone, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var zone Zone
	query := `
		INSERT INTO zones (id, tenant_id, company_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tenant_id, company_id, name, created_at
	`

	err = r.db.GetContext(ctx, &zone, query, uuid.New().String(), tenantID, companyID, name)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &zone, nil
}

// Rename changes a zone's name
func (r *ZoneRepository) Rename(ctx context.Context, id, name string) (*Zone, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var zone Zone
	query := `
		UPDATE zones SET name = $1
		WHERE tenant_id = $2 AND id = $3
		RETURNING id, tenant_id, company_id, name, created_at
	`

	if err := r.db.GetContext(ctx, &zone, query, name, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("zone")
		}
		return nil, err
	}
	return &zone, nil
}

// Delete removes a zone. Zones still referenced by sanitation items cannot be
// deleted.
func (r *ZoneRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		var inUse bool
		err := r.db.GetContext(txCtx, &inUse,
			`SELECT EXISTS (SELECT 1 FROM sops WHERE tenant_id = $1 AND zone_id = $2)`, tenantID, id)
		if err != nil {
			return err
		}
		if inUse {
			return errors.Conflict("zone is still used by sanitation items")
		}

		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM zones WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("zone")
		}
		return nil
	})
}
