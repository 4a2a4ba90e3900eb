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

// The three inspection shifts of an operating day.
const (
	ShiftPreOp  = "Pre-Op"
	ShiftMidDay = "Mid-Day"
	ShiftPostOp = "Post-Op"
)

// Shifts lists the shifts in day order.
var Shifts = []string{ShiftPreOp, ShiftMidDay, ShiftPostOp}

// IsShift reports whether s names a known shift.
func IsShift(s string) bool {
	for _, shift := range Shifts {
		if shift == s {
			return true
		}
	}
	return false
}

// Sop is one sanitation checklist item. The integer SopDID is the stable
// business key item results reference; CreatedAt bounds which inspection
// dates the item applies to.
type Sop struct {
	ID            string     `db:"id" json:"id"`
	TenantID      string     `db:"tenant_id" json:"-"`
	SopDID        int        `db:"sop_did" json:"sop_did"`
	CompanyID     string     `db:"company_id" json:"company_id"`
	ZoneID        *string    `db:"zone_id" json:"zone_id,omitempty"`
	Description   string     `db:"description" json:"description"`
	IsPreOp       bool       `db:"is_pre_op" json:"is_pre_op"`
	IsMidDay      bool       `db:"is_mid_day" json:"is_mid_day"`
	IsPostOp      bool       `db:"is_post_op" json:"is_post_op"`
	InputRequired bool       `db:"input_required" json:"input_required"`
	ImageRequired bool       `db:"image_required" json:"image_required"`
	CreatedAt     *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// CoversShift reports whether the item belongs on a shift's checklist.
func (s *Sop) CoversShift(shift string) bool {
	switch shift {
	case ShiftPreOp:
		return s.IsPreOp
	case ShiftMidDay:
		return s.IsMidDay
	case ShiftPostOp:
		return s.IsPostOp
	default:
		return false
	}
}

// AppliesOn reports whether the item existed for an inspection dated on day.
// Items without a creation date apply to every date.
func (s *Sop) AppliesOn(day time.Time) bool {
	if s.CreatedAt == nil {
		return true
	}
	return !s.CreatedAt.After(endOfDay(day))
}

func endOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
}

const sopColumns = `id, tenant_id, sop_did, company_id, zone_id, description,
	is_pre_op, is_mid_day, is_post_op, input_required, image_required, created_at`

// SopRepository handles sanitation item persistence
type SopRepository struct {
	db *database.DB
}

// NewSopRepository creates a new sanitation item repository
func NewSopRepository(db *database.DB) *SopRepository {
	return &SopRepository{db: db}
}

// List returns a facility's items ordered by business key
func (r *SopRepository) List(ctx context.Context, companyID string) ([]Sop, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	sops := []Sop{}
	query := `
		SELECT ` + sopColumns + `
		FROM sops
		WHERE tenant_id = $1 AND company_id = $2
		ORDER BY sop_did
	`

	if err := r.db.SelectContext(ctx, &sops, query, tenantID, companyID); err != nil {
		return nil, err
	}
	return sops, nil
}

// GetByDID fetches one item by its business key
func (r *SopRepository) GetByDID(ctx context.Context, sopDID int) (*Sop, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var sop Sop
	query := `SELECT ` + sopColumns + ` FROM sops WHERE tenant_id = $1 AND sop_did = $2`

	if err := r.db.GetContext(ctx, &sop, query, tenantID, sopDID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("sanitation item")
		}
		return nil, err
	}
	return &sop, nil
}

// Create inserts an item, assigning the next business key inside the same
// transaction so concurrent creates cannot collide.
func (r *SopRepository) Create(ctx context.Context, sop *Sop) (*Sop, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var created Sop
	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		var nextDID int
		if err := r.db.GetContext(txCtx, &nextDID,
			`SELECT COALESCE(MAX(sop_did), 0) + 1 FROM sops WHERE tenant_id = $1`, tenantID); err != nil {
			return err
		}

		query := `
			INSERT INTO sops (id, tenant_id, sop_did, company_id, zone_id, description,
				is_pre_op, is_mid_day, is_post_op, input_required, image_required, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
			RETURNING ` + sopColumns + `
		`
		return r.db.GetContext(txCtx, &created, query,
			uuid.New().String(), tenantID, nextDID, sop.CompanyID, sop.ZoneID, sop.Description,
			sop.IsPreOp, sop.IsMidDay, sop.IsPostOp, sop.InputRequired, sop.ImageRequired)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &created, nil
}

// Update changes an item's description, zone, shift flags and requirements
func (r *SopRepository) Update(ctx context.Context, sop *Sop) (*Sop, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var updated Sop
	query := `
		UPDATE sops
		SET zone_id = $1, description = $2, is_pre_op = $3, is_mid_day = $4, is_post_op = $5,
		    input_required = $6, image_required = $7
		WHERE tenant_id = $8 AND sop_did = $9
		RETURNING ` + sopColumns + `
	`

	err = r.db.GetContext(ctx, &updated, query,
		sop.ZoneID, sop.Description, sop.IsPreOp, sop.IsMidDay, sop.IsPostOp,
		sop.InputRequired, sop.ImageRequired, tenantID, sop.SopDID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("sanitation item")
		}
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes an item
func (r *SopRepository) Delete(ctx context.Context, sopDID int) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sops WHERE tenant_id = $1 AND sop_did = $2`, tenantID, sopDID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("sanitation item")
	}
	return nil
}

// ListForShift returns the checklist for one shift of one date: items flagged
// for the shift that already existed on that date.
func (r *SopRepository) ListForShift(ctx context.Context, companyID, shift string, date time.Time) ([]Sop, error) {
	all, err := r.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	items := []Sop{}
	for _, sop := range all {
		if sop.CoversShift(shift) && sop.AppliesOn(date) {
			items = append(items, sop)
		}
	}
	return items, nil
}
