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

// Inspection is one shift's inspection sheet, the parent of its item results.
type Inspection struct {
	ID                 string     `db:"id" json:"id"`
	TenantID           string     `db:"tenant_id" json:"-"`
	CompanyID          string     `db:"company_id" json:"company_id"`
	Date               time.Time  `db:"date" json:"date"`
	Shift              string     `db:"shift" json:"shift"`
	Time               *string    `db:"time" json:"time,omitempty"`
	InspectorID        *string    `db:"inspector_id" json:"inspector_id,omitempty"`
	Completed          bool       `db:"completed" json:"completed"`
	InspectorName      *string    `db:"inspector_name" json:"inspector_name,omitempty"`
	InspectorSignature *string    `db:"inspector_signature" json:"inspector_signature,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Verified           bool       `db:"verified" json:"verified"`
	VerifierName       *string    `db:"verifier_name" json:"verifier_name,omitempty"`
	VerifierSignature  *string    `db:"verifier_signature" json:"verifier_signature,omitempty"`
	VerifiedAt         *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// ItemResult is the recorded outcome of one checklist item on one sheet.
type ItemResult struct {
	ID               string    `db:"id" json:"id"`
	TenantID         string    `db:"tenant_id" json:"-"`
	ParentID         string    `db:"parent_id" json:"parent_id"`
	SopDID           int       `db:"sop_did" json:"sop_did"`
	Passed           *bool     `db:"passed" json:"passed,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	DeviationReason  *string   `db:"deviation_reason" json:"deviation_reason,omitempty"`
	CorrectiveAction *string   `db:"corrective_action" json:"corrective_action,omitempty"`
	ImagePath        *string   `db:"image_path" json:"image_path,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Deviation is a failed item joined with its sheet for reporting.
type Deviation struct {
	ItemResult
	Date        time.Time `db:"date" json:"date"`
	Shift       string    `db:"shift" json:"shift"`
	Description string    `db:"description" json:"description"`
}

const inspectionColumns = `id, tenant_id, company_id, date, shift, time, inspector_id,
	completed, inspector_name, inspector_signature, completed_at,
	verified, verifier_name, verifier_signature, verified_at, created_at`

// InspectionRepository handles inspection sheet persistence
type InspectionRepository struct {
	db *database.DB
}

// NewInspectionRepository creates a new inspection repository
func NewInspectionRepository(db *database.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// GetOrCreate returns the sheet for (company, date, shift), creating it when
// the shift is first opened. The unique constraint absorbs concurrent opens.
func (r *InspectionRepository) GetOrCreate(ctx context.Context, companyID string, date time.Time, shift string) (*Inspection, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var insp Inspection
	query := `
		INSERT INTO sop_parents (id, tenant_id, company_id, date, shift)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT sop_parents_company_date_shift DO UPDATE SET
			shift = EXCLUDED.shift
		RETURNING ` + inspectionColumns + `
	`

	err = r.db.GetContext(ctx, &insp, query, uuid.New().String(), tenantID, companyID, date, shift)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &insp, nil
}

// Get fetches a sheet without creating it.
func (r *InspectionRepository) Get(ctx context.Context, companyID string, date time.Time, shift string) (*Inspection, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var insp Inspection
	query := `
		SELECT ` + inspectionColumns + `
		FROM sop_parents
		WHERE tenant_id = $1 AND company_id = $2 AND date = $3 AND shift = $4
	`

	if err := r.db.GetContext(ctx, &insp, query, tenantID, companyID, date, shift); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("inspection")
		}
		return nil, err
	}
	return &insp, nil
}

// GetByID fetches a sheet by primary key.
func (r *InspectionRepository) GetByID(ctx context.Context, id string) (*Inspection, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var insp Inspection
	query := `SELECT ` + inspectionColumns + ` FROM sop_parents WHERE tenant_id = $1 AND id = $2`

	if err := r.db.GetContext(ctx, &insp, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("inspection")
		}
		return nil, err
	}
	return &insp, nil
}

// ListRange returns the sheets of a company between two dates inclusive.
func (r *InspectionRepository) ListRange(ctx context.Context, companyID string, from, to time.Time) ([]Inspection, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	sheets := []Inspection{}
	query := `
		SELECT ` + inspectionColumns + `
		FROM sop_parents
		WHERE tenant_id = $1 AND company_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date, array_position(ARRAY['Pre-Op','Mid-Day','Post-Op'], shift)
	`

	if err := r.db.SelectContext(ctx, &sheets, query, tenantID, companyID, from, to); err != nil {
		return nil, err
	}
	return sheets, nil
}

// Complete records the inspector sign-off on a sheet. Sign-off is one-way: a
// sheet already completed keeps its original inspector fields.
func (r *InspectionRepository) Complete(ctx context.Context, id string, inspectorID, inspectorName, signature string, shiftTime *string) (*Inspection, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var insp Inspection
	query := `
		UPDATE sop_parents
		SET completed = TRUE,
		    inspector_id = $1,
		    inspector_name = $2,
		    inspector_signature = $3,
		    time = COALESCE($4, time),
		    completed_at = NOW()
		WHERE tenant_id = $5 AND id = $6 AND NOT completed
		RETURNING ` + inspectionColumns + `
	`

	err = r.db.GetContext(ctx, &insp, query, inspectorID, inspectorName, signature, shiftTime, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Conflict("inspection already completed")
		}
		return nil, err
	}
	return &insp, nil
}

// Verify records the verifier sign-off on a completed sheet.
func (r *InspectionRepository) Verify(ctx context.Context, id string, verifierName, signature string) (*Inspection, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var insp Inspection
	query := `
		UPDATE sop_parents
		SET verified = TRUE,
		    verifier_name = $1,
		    verifier_signature = $2,
		    verified_at = NOW()
		WHERE tenant_id = $3 AND id = $4 AND completed
		RETURNING ` + inspectionColumns + `
	`

	err = r.db.GetContext(ctx, &insp, query, verifierName, signature, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.BadRequest("inspection must be completed before verification")
		}
		return nil, err
	}
	return &insp, nil
}

// UpsertResult records one item's outcome on a sheet.
func (r *InspectionRepository) UpsertResult(ctx context.Context, result *ItemResult) (*ItemResult, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var stored ItemResult
	query := `
		INSERT INTO sop_children (id, tenant_id, parent_id, sop_did, passed, notes,
			deviation_reason, corrective_action, image_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT sop_children_parent_did DO UPDATE SET
			passed = EXCLUDED.passed,
			notes = EXCLUDED.notes,
			deviation_reason = EXCLUDED.deviation_reason,
			corrective_action = EXCLUDED.corrective_action,
			image_path = EXCLUDED.image_path
		RETURNING id, tenant_id, parent_id, sop_did, passed, notes,
			deviation_reason, corrective_action, image_path, created_at
	`

	err = r.db.GetContext(ctx, &stored, query,
		uuid.New().String(), tenantID, result.ParentID, result.SopDID, result.Passed,
		result.Notes, result.DeviationReason, result.CorrectiveAction, result.ImagePath)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &stored, nil
}

// ListResults returns the item results of one sheet.
func (r *InspectionRepository) ListResults(ctx context.Context, parentID string) ([]ItemResult, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	results := []ItemResult{}
	query := `
		SELECT id, tenant_id, parent_id, sop_did, passed, notes,
			deviation_reason, corrective_action, image_path, created_at
		FROM sop_children
		WHERE tenant_id = $1 AND parent_id = $2
		ORDER BY sop_did
	`

	if err := r.db.SelectContext(ctx, &results, query, tenantID, parentID); err != nil {
		return nil, err
	}
	return results, nil
}

// ListDeviations returns failed items of a company between two dates.
func (r *InspectionRepository) ListDeviations(ctx context.Context, companyID string, from, to time.Time) ([]Deviation, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	deviations := []Deviation{}
	query := `
		SELECT c.id, c.tenant_id, c.parent_id, c.sop_did, c.passed, c.notes,
		       c.deviation_reason, c.corrective_action, c.image_path, c.created_at,
		       p.date, p.shift, s.description
		FROM sop_children c
		JOIN sop_parents p ON p.id = c.parent_id
		JOIN sops s ON s.tenant_id = c.tenant_id AND s.sop_did = c.sop_did
		WHERE c.tenant_id = $1
		  AND p.company_id = $2
		  AND p.date BETWEEN $3 AND $4
		  AND c.passed = FALSE
		ORDER BY p.date DESC, p.shift, c.sop_did
	`

	if err := r.db.SelectContext(ctx, &deviations, query, tenantID, companyID, from, to); err != nil {
		return nil, err
	}
	return deviations, nil
}

// SaveCorrectiveAction records the follow-up on a failed item.
func (r *InspectionRepository) SaveCorrectiveAction(ctx context.Context, resultID, action string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE sop_children SET corrective_action = $1 WHERE tenant_id = $2 AND id = $3`,
		action, tenantID, resultID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("item result")
	}
	return nil
}
