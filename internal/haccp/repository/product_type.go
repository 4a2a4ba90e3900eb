package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// ProductType is a tenant-level product category a plan set is written for.
// Deactivated types stay around so their documents remain reachable.
type ProductType struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"-"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CompanyProductType links a product type to a facility.
type CompanyProductType struct {
	ID          string `db:"id" json:"id"`
	TenantID    string `db:"tenant_id" json:"-"`
	CompanyID   string `db:"company_id" json:"company_id"`
	ProductType string `db:"product_type" json:"product_type"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// Slugify turns a display name into the stable slug documents key on.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// ProductTypeRepository handles product type persistence
type ProductTypeRepository struct {
	db *database.DB
}

// NewProductTypeRepository creates a new product type repository
func NewProductTypeRepository(db *database.DB) *ProductTypeRepository {
	return &ProductTypeRepository{db: db}
}

// Create adds a product type. Re-adding a soft-deleted slug reactivates it
// under the new display name.
func (r *ProductTypeRepository) Create(ctx context.Context, name string) (*ProductType, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, errors.BadRequest("product type name must contain letters or digits")
	}

	var pt ProductType
	query := `
		INSERT INTO haccp_product_types (id, tenant_id, slug, name, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT ON CONSTRAINT haccp_product_types_tenant_slug DO UPDATE SET
			name = EXCLUDED.name,
			is_active = TRUE
		RETURNING id, tenant_id, slug, name, is_active, created_at
	`

	err = r.db.GetContext(ctx, &pt, query, uuid.New().String(), tenantID, slug, strings.TrimSpace(name))
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &pt, nil
}

// ListActive returns the tenant's active product types by name.
func (r *ProductTypeRepository) ListActive(ctx context.Context) ([]ProductType, error) {
	return r.list(ctx, true)
}

// ListInactive returns soft-deleted product types, the recycle bin.
func (r *ProductTypeRepository) ListInactive(ctx context.Context) ([]ProductType, error) {
	return r.list(ctx, false)
}

func (r *ProductTypeRepository) list(ctx context.Context, active bool) ([]ProductType, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	types := []ProductType{}
	query := `
		SELECT id, tenant_id, slug, name, is_active, created_at
		FROM haccp_product_types
		WHERE tenant_id = $1 AND is_active = $2
		ORDER BY name
	`

	if err := r.db.SelectContext(ctx, &types, query, tenantID, active); err != nil {
		return nil, err
	}
	return types, nil
}

// GetBySlug fetches one product type regardless of active state.
func (r *ProductTypeRepository) GetBySlug(ctx context.Context, slug string) (*ProductType, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var pt ProductType
	query := `
		SELECT id, tenant_id, slug, name, is_active, created_at
		FROM haccp_product_types
		WHERE tenant_id = $1 AND slug = $2
	`

	if err := r.db.GetContext(ctx, &pt, query, tenantID, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product type")
		}
		return nil, err
	}
	return &pt, nil
}

// SoftDelete deactivates a product type and its facility links.
func (r *ProductTypeRepository) SoftDelete(ctx context.Context, slug string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`UPDATE haccp_product_types SET is_active = FALSE WHERE tenant_id = $1 AND slug = $2`,
			tenantID, slug)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("product type")
		}

		_, err = r.db.ExecContext(txCtx,
			`UPDATE company_product_types SET is_active = FALSE WHERE tenant_id = $1 AND product_type = $2`,
			tenantID, slug)
		return err
	})
}

// Restore brings a soft-deleted product type back. Facility links stay off
// until toggled back on per company.
func (r *ProductTypeRepository) Restore(ctx context.Context, slug string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE haccp_product_types SET is_active = TRUE WHERE tenant_id = $1 AND slug = $2`,
		tenantID, slug)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("product type")
	}
	return nil
}

// SetCompanyLink toggles a product type for one facility.
func (r *ProductTypeRepository) SetCompanyLink(ctx context.Context, companyID, slug string, active bool) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	// The conflict key does not include tenant_id; re-checking it keeps a
	// conflict owned by another tenant from being updated.
	query := `
		INSERT INTO company_product_types (id, tenant_id, company_id, product_type, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT company_product_types_key DO UPDATE SET
			is_active = EXCLUDED.is_active
		WHERE company_product_types.tenant_id = EXCLUDED.tenant_id
	`

	result, err := r.db.ExecContext(ctx, query, uuid.New().String(), tenantID, companyID, slug, active)
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

// ListForCompany returns the active product types linked to a facility.
func (r *ProductTypeRepository) ListForCompany(ctx context.Context, companyID string) ([]ProductType, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	types := []ProductType{}
	query := `
		SELECT pt.id, pt.tenant_id, pt.slug, pt.name, pt.is_active, pt.created_at
		FROM haccp_product_types pt
		JOIN company_product_types cpt
		  ON cpt.tenant_id = pt.tenant_id AND cpt.product_type = pt.slug
		WHERE pt.tenant_id = $1
		  AND cpt.company_id = $2
		  AND pt.is_active AND cpt.is_active
		ORDER BY pt.name
	`

	if err := r.db.SelectContext(ctx, &types, query, tenantID, companyID); err != nil {
		return nil, err
	}
	return types, nil
}

// ListMaster returns active product types linked to at least one facility.
func (r *ProductTypeRepository) ListMaster(ctx context.Context) ([]ProductType, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	types := []ProductType{}
	query := `
		SELECT DISTINCT pt.id, pt.tenant_id, pt.slug, pt.name, pt.is_active, pt.created_at
		FROM haccp_product_types pt
		JOIN company_product_types cpt
		  ON cpt.tenant_id = pt.tenant_id AND cpt.product_type = pt.slug
		WHERE pt.tenant_id = $1
		  AND pt.is_active AND cpt.is_active
		ORDER BY pt.name
	`

	if err := r.db.SelectContext(ctx, &types, query, tenantID); err != nil {
		return nil, err
	}
	return types, nil
}

// CompletedTypeSummary reports which product types have a completed set for a
// year.
type CompletedTypeSummary struct {
	Slug      string `db:"slug" json:"slug"`
	Name      string `db:"name" json:"name"`
	Completed bool   `db:"completed" json:"completed"`
}

// ListCompletedSummary returns, for every active product type, whether any
// version of its set is complete for the year. CompanyID nil checks the
// tenant master sets.
func (r *ProductTypeRepository) ListCompletedSummary(ctx context.Context, companyID *string, year int) ([]CompletedTypeSummary, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	summaries := []CompletedTypeSummary{}
	query := `
		SELECT pt.slug, pt.name,
		       EXISTS (
		           SELECT 1
		           FROM haccp_documents d
		           WHERE d.tenant_id = pt.tenant_id
		             AND d.company_id IS NOT DISTINCT FROM $2
		             AND d.product_type = pt.slug
		             AND d.year = $3
		           GROUP BY d.version
		           HAVING COUNT(*) = 4 AND COUNT(*) FILTER (WHERE d.status = 'completed') = 4
		       ) AS completed
		FROM haccp_product_types pt
		WHERE pt.tenant_id = $1 AND pt.is_active
		ORDER BY pt.name
	`

	if err := r.db.SelectContext(ctx, &summaries, query, tenantID, companyID, year); err != nil {
		return nil, err
	}
	return summaries, nil
}
