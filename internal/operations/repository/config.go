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

// OperationConfig holds a facility's inspection schedule settings: which
// weekdays it runs, when daily inspections began, and who signs sheets.
type OperationConfig struct {
	ID                string     `db:"id" json:"id"`
	TenantID          string     `db:"tenant_id" json:"-"`
	CompanyID         string     `db:"company_id" json:"company_id"`
	Monday            bool       `db:"monday" json:"monday"`
	Tuesday           bool       `db:"tuesday" json:"tuesday"`
	Wednesday         bool       `db:"wednesday" json:"wednesday"`
	Thursday          bool       `db:"thursday" json:"thursday"`
	Friday            bool       `db:"friday" json:"friday"`
	Saturday          bool       `db:"saturday" json:"saturday"`
	Sunday            bool       `db:"sunday" json:"sunday"`
	StartDate         *time.Time `db:"start_date" json:"start_date,omitempty"`
	MonitorID         *string    `db:"monitor_id" json:"monitor_id,omitempty"`
	VerifierID        *string    `db:"verifier_id" json:"verifier_id,omitempty"`
	MonitorSignature  *string    `db:"monitor_signature" json:"monitor_signature,omitempty"`
	VerifierSignature *string    `db:"verifier_signature" json:"verifier_signature,omitempty"`
}

// OperatesOn reports whether the facility runs on a weekday.
func (c *OperationConfig) OperatesOn(weekday time.Weekday) bool {
	switch weekday {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	default:
		return c.Sunday
	}
}

const configColumns = `id, tenant_id, company_id, monday, tuesday, wednesday, thursday,
	friday, saturday, sunday, start_date, monitor_id, verifier_id,
	monitor_signature, verifier_signature`

// ConfigRepository handles operation config and holiday persistence
type ConfigRepository struct {
	db *database.DB
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *database.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetOrCreate returns the facility's config, creating the Mon-Fri default on
// first access.
func (r *ConfigRepository) GetOrCreate(ctx context.Context, companyID string) (*OperationConfig, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	// The conflict target is company_id alone, so the update must re-check
	// the tenant: a conflict owned by another tenant yields no row.
	var cfg OperationConfig
	query := `
		INSERT INTO company_operation_configs (id, tenant_id, company_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT company_operation_configs_company DO UPDATE SET
			company_id = EXCLUDED.company_id
		WHERE company_operation_configs.tenant_id = EXCLUDED.tenant_id
		RETURNING ` + configColumns + `
	`

	err = r.db.GetContext(ctx, &cfg, query, uuid.New().String(), tenantID, companyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("company")
		}
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &cfg, nil
}

// SaveSchedule updates the weekday mask and start date.
func (r *ConfigRepository) SaveSchedule(ctx context.Context, companyID string, days [7]bool, startDate *time.Time) (*OperationConfig, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := r.GetOrCreate(ctx, companyID); err != nil {
		return nil, err
	}

	var cfg OperationConfig
	query := `
		UPDATE company_operation_configs
		SET monday = $1, tuesday = $2, wednesday = $3, thursday = $4,
		    friday = $5, saturday = $6, sunday = $7, start_date = $8
		WHERE tenant_id = $9 AND company_id = $10
		RETURNING ` + configColumns + `
	`

	err = r.db.GetContext(ctx, &cfg, query,
		days[0], days[1], days[2], days[3], days[4], days[5], days[6],
		startDate, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveSigners updates the assigned monitor and verifier and their cached
// signatures.
func (r *ConfigRepository) SaveSigners(ctx context.Context, companyID string, monitorID, verifierID, monitorSignature, verifierSignature *string) (*OperationConfig, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := r.GetOrCreate(ctx, companyID); err != nil {
		return nil, err
	}

	var cfg OperationConfig
	query := `
		UPDATE company_operation_configs
		SET monitor_id = $1, verifier_id = $2, monitor_signature = $3, verifier_signature = $4
		WHERE tenant_id = $5 AND company_id = $6
		RETURNING ` + configColumns + `
	`

	err = r.db.GetContext(ctx, &cfg, query,
		monitorID, verifierID, monitorSignature, verifierSignature, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListHolidays returns a facility's holiday dates within a range.
func (r *ConfigRepository) ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	dates := []time.Time{}
	query := `
		SELECT date FROM company_holidays
		WHERE tenant_id = $1 AND company_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`

	if err := r.db.SelectContext(ctx, &dates, query, tenantID, companyID, from, to); err != nil {
		return nil, err
	}
	return dates, nil
}

// ToggleHoliday flips one date: sets it as a holiday if it was not one, or
// clears it. Returns whether the date is a holiday afterwards.
func (r *ConfigRepository) ToggleHoliday(ctx context.Context, companyID string, date time.Time) (bool, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return false, err
	}

	var isHoliday bool
	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM company_holidays WHERE tenant_id = $1 AND company_id = $2 AND date = $3`,
			tenantID, companyID, date)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			isHoliday = false
			return nil
		}

		_, err = r.db.ExecContext(txCtx,
			`INSERT INTO company_holidays (id, tenant_id, company_id, date) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), tenantID, companyID, date)
		isHoliday = true
		return err
	})
	if err != nil {
		return false, err
	}
	return isHoliday, nil
}
