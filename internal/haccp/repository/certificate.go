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

// Certificate types issued per facility per year.
const (
	CertHaccp             = "haccp_certificate"
	CertLetterOfGuarantee = "letter_of_guarantee"
)

// CertificateTypes lists the annual facility certificates.
var CertificateTypes = []string{CertHaccp, CertLetterOfGuarantee}

// IsCertificateType reports whether s names a known certificate.
func IsCertificateType(s string) bool {
	for _, ct := range CertificateTypes {
		if ct == s {
			return true
		}
	}
	return false
}

// Certificate is a signed annual facility certificate.
type Certificate struct {
	ID              string     `db:"id" json:"id"`
	TenantID        string     `db:"tenant_id" json:"-"`
	CompanyID       string     `db:"company_id" json:"company_id"`
	Year            int        `db:"year" json:"year"`
	CertificateType string     `db:"certificate_type" json:"certificate_type"`
	IssuedDate      *time.Time `db:"issued_date" json:"issued_date,omitempty"`
	SignerName      *string    `db:"signer_name" json:"signer_name,omitempty"`
	Signature       *string    `db:"signature" json:"signature,omitempty"`
	IsCompleted     bool       `db:"is_completed" json:"is_completed"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// CertificateRepository handles certificate persistence
type CertificateRepository struct {
	db *database.DB
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *database.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// GetOrCreate returns the certificate row for (company, year, type), creating
// an empty one on first access.
func (r *CertificateRepository) GetOrCreate(ctx context.Context, companyID string, year int, certificateType string) (*Certificate, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	if !IsCertificateType(certificateType) {
		return nil, errors.BadRequest("unknown certificate type")
	}

	// The conflict key does not include tenant_id, so the update re-checks
	// it: a conflict owned by another tenant yields no row.
	var cert Certificate
	query := `
		INSERT INTO company_certificates (id, tenant_id, company_id, year, certificate_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT company_certificates_key DO UPDATE SET
			updated_at = company_certificates.updated_at
		WHERE company_certificates.tenant_id = EXCLUDED.tenant_id
		RETURNING id, tenant_id, company_id, year, certificate_type, issued_date,
			signer_name, signature, is_completed, created_at, updated_at
	`

	err = r.db.GetContext(ctx, &cert, query, uuid.New().String(), tenantID, companyID, year, certificateType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("company")
		}
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &cert, nil
}

// Save records the signed certificate fields.
func (r *CertificateRepository) Save(ctx context.Context, companyID string, year int, certificateType string,
	issuedDate *time.Time, signerName, signature *string, completed bool) (*Certificate, error) {

	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var cert Certificate
	query := `
		UPDATE company_certificates
		SET issued_date = $1, signer_name = $2, signature = $3, is_completed = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND company_id = $6 AND year = $7 AND certificate_type = $8
		RETURNING id, tenant_id, company_id, year, certificate_type, issued_date,
			signer_name, signature, is_completed, created_at, updated_at
	`

	err = r.db.GetContext(ctx, &cert, query, issuedDate, signerName, signature, completed,
		tenantID, companyID, year, certificateType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("certificate")
		}
		return nil, err
	}
	return &cert, nil
}

// StatusMap reports completion per certificate type for a facility year.
// Types without a row report false.
func (r *CertificateRepository) StatusMap(ctx context.Context, companyID string, year int) (map[string]bool, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows := []struct {
		CertificateType string `db:"certificate_type"`
		IsCompleted     bool   `db:"is_completed"`
	}{}
	query := `
		SELECT certificate_type, is_completed
		FROM company_certificates
		WHERE tenant_id = $1 AND company_id = $2 AND year = $3
	`

	if err := r.db.SelectContext(ctx, &rows, query, tenantID, companyID, year); err != nil {
		return nil, err
	}

	status := make(map[string]bool, len(CertificateTypes))
	for _, ct := range CertificateTypes {
		status[ct] = false
	}
	for _, row := range rows {
		status[row.CertificateType] = row.IsCompleted
	}
	return status, nil
}
