package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// The four documents that make up one plan set.
const (
	DocProductDescription = "product_description"
	DocFlowChart          = "flow_chart"
	DocHazardAnalysis     = "hazard_analysis"
	DocCCPSummary         = "ccp_summary"
)

// Document statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// DocumentTypes lists the set members in presentation order.
var DocumentTypes = []string{DocProductDescription, DocFlowChart, DocHazardAnalysis, DocCCPSummary}

// IsDocumentType reports whether s names one of the four plan documents.
func IsDocumentType(s string) bool {
	for _, dt := range DocumentTypes {
		if dt == s {
			return true
		}
	}
	return false
}

// Document is one plan document row. CompanyID nil means the tenant's master
// set rather than a facility-specific one.
type Document struct {
	ID                string          `db:"id" json:"id"`
	TenantID          string          `db:"tenant_id" json:"-"`
	CompanyID         *string         `db:"company_id" json:"company_id,omitempty"`
	ProductType       string          `db:"product_type" json:"product_type"`
	DocumentType      string          `db:"document_type" json:"document_type"`
	Year              int             `db:"year" json:"year"`
	Version           int             `db:"version" json:"version"`
	Status            string          `db:"status" json:"status"`
	DocumentData      json.RawMessage `db:"document_data" json:"document_data"`
	OriginatedDate    *time.Time      `db:"originated_date" json:"originated_date,omitempty"`
	OriginatedBy      *string         `db:"originated_by" json:"originated_by,omitempty"`
	ApprovedDate      *time.Time      `db:"approved_date" json:"approved_date,omitempty"`
	ApprovedBy        *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovalSignature *string         `db:"approval_signature" json:"approval_signature,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// SetKey identifies one document set across versions.
type SetKey struct {
	CompanyID   *string
	ProductType string
	Year        int
}

// VersionAggregate summarizes one version of a set.
type VersionAggregate struct {
	Version        int        `db:"version" json:"version"`
	Total          int        `db:"total" json:"total"`
	Completed      int        `db:"completed" json:"completed"`
	OriginatedDate *time.Time `db:"originated_date" json:"originated_date,omitempty"`
	ApprovedDate   *time.Time `db:"approved_date" json:"approved_date,omitempty"`
}

const documentColumns = `id, tenant_id, company_id, product_type, document_type, year, version, status,
	document_data, originated_date, originated_by, approved_date, approved_by, approval_signature,
	created_at, updated_at`

// DocumentRepository handles plan document persistence
type DocumentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListVersions returns per-version aggregates for a set, oldest first.
func (r *DocumentRepository) ListVersions(ctx context.Context, key SetKey) ([]VersionAggregate, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	aggregates := []VersionAggregate{}
	query := `
		SELECT version,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed,
		       MIN(originated_date) AS originated_date,
		       MAX(approved_date) AS approved_date
		FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND year = $4
		GROUP BY version
		ORDER BY version
	`

	if err := r.db.SelectContext(ctx, &aggregates, query, tenantID, key.CompanyID, key.ProductType, key.Year); err != nil {
		return nil, err
	}
	return aggregates, nil
}

// ListYears returns the years a set has documents for, newest first.
func (r *DocumentRepository) ListYears(ctx context.Context, companyID *string, productType string) ([]int, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	years := []int{}
	query := `
		SELECT DISTINCT year
		FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		ORDER BY year DESC
	`

	if err := r.db.SelectContext(ctx, &years, query, tenantID, companyID, productType); err != nil {
		return nil, err
	}
	return years, nil
}

// GetVersionDocuments returns all documents of a set at one version.
func (r *DocumentRepository) GetVersionDocuments(ctx context.Context, key SetKey, version int) ([]Document, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	docs := []Document{}
	query := `
		SELECT ` + documentColumns + `
		FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND year = $4
		  AND version = $5
		ORDER BY array_position(ARRAY['product_description','flow_chart','hazard_analysis','ccp_summary'], document_type)
	`

	if err := r.db.SelectContext(ctx, &docs, query, tenantID, key.CompanyID, key.ProductType, key.Year, version); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument fetches one document by its full logical key.
func (r *DocumentRepository) GetDocument(ctx context.Context, key SetKey, documentType string, version int) (*Document, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var doc Document
	query := `
		SELECT ` + documentColumns + `
		FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND document_type = $4
		  AND year = $5
		  AND version = $6
	`

	if err := r.db.GetContext(ctx, &doc, query, tenantID, key.CompanyID, key.ProductType, documentType, key.Year, version); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("document")
		}
		return nil, err
	}
	return &doc, nil
}

// GetLatestByStatus returns the highest-version row of one document with the
// given status. Used by the cross-document sync to find its source.
func (r *DocumentRepository) GetLatestByStatus(ctx context.Context, key SetKey, documentType, status string) (*Document, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var doc Document
	query := `
		SELECT ` + documentColumns + `
		FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND document_type = $4
		  AND year = $5
		  AND status = $6
		ORDER BY version DESC
		LIMIT 1
	`

	if err := r.db.GetContext(ctx, &doc, query, tenantID, key.CompanyID, key.ProductType, documentType, key.Year, status); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("document")
		}
		return nil, err
	}
	return &doc, nil
}

// Upsert inserts or replaces a document at its full key and returns the
// stored row.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *Document) (*Document, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if len(doc.DocumentData) == 0 {
		doc.DocumentData = json.RawMessage(`{}`)
	}

	var stored Document
	query := `
		INSERT INTO haccp_documents (
			id, tenant_id, company_id, product_type, document_type, year, version, status,
			document_data, originated_date, originated_by, approved_date, approved_by, approval_signature
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT ON CONSTRAINT haccp_documents_set_version DO UPDATE SET
			status = EXCLUDED.status,
			document_data = EXCLUDED.document_data,
			originated_date = EXCLUDED.originated_date,
			originated_by = EXCLUDED.originated_by,
			approved_date = EXCLUDED.approved_date,
			approved_by = EXCLUDED.approved_by,
			approval_signature = EXCLUDED.approval_signature,
			updated_at = NOW()
		RETURNING ` + documentColumns + `
	`

	err = r.db.GetContext(ctx, &stored, query,
		doc.ID, tenantID, doc.CompanyID, doc.ProductType, doc.DocumentType, doc.Year, doc.Version,
		doc.Status, doc.DocumentData, doc.OriginatedDate, doc.OriginatedBy,
		doc.ApprovedDate, doc.ApprovedBy, doc.ApprovalSignature)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return &stored, nil
}

// DeleteUnfinishedSiblings removes not-started and in-progress rows of the
// same document outside the given version. Completing a document supersedes
// any stale drafts of it.
func (r *DocumentRepository) DeleteUnfinishedSiblings(ctx context.Context, key SetKey, documentType string, keepVersion int) (int64, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return 0, err
	}

	query := `
		DELETE FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND document_type = $4
		  AND year = $5
		  AND version <> $6
		  AND status IN ('not_started', 'in_progress')
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, key.CompanyID, key.ProductType, documentType, key.Year, keepVersion)
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// DeleteDocument hard-deletes one document row.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, key SetKey, documentType string, version int) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	query := `
		DELETE FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND document_type = $4
		  AND year = $5
		  AND version = $6
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, key.CompanyID, key.ProductType, documentType, key.Year, version)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("document")
	}
	return nil
}

// InsertBlankSet creates the four not-started documents of a new set version.
func (r *DocumentRepository) InsertBlankSet(ctx context.Context, key SetKey, version int) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO haccp_documents (id, tenant_id, company_id, product_type, document_type, year, version, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, docType := range DocumentTypes {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New().String(), tenantID, key.CompanyID, key.ProductType, docType, key.Year, version, StatusNotStarted)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
	}
	return nil
}

// CopyVersionForward clones the documents of fromVersion into toVersion as
// in-progress drafts. Content and origination carry over; approvals do not.
func (r *DocumentRepository) CopyVersionForward(ctx context.Context, key SetKey, fromVersion, toVersion int) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO haccp_documents (id, tenant_id, company_id, product_type, document_type, year, version, status,
			document_data, originated_date, originated_by)
		SELECT gen_random_uuid(), tenant_id, company_id, product_type, document_type, year, $6, $7,
			document_data, originated_date, originated_by
		FROM haccp_documents
		WHERE tenant_id = $1
		  AND company_id IS NOT DISTINCT FROM $2
		  AND product_type = $3
		  AND year = $4
		  AND version = $5
	`

	_, err = r.db.ExecContext(ctx, query, tenantID, key.CompanyID, key.ProductType, key.Year, fromVersion, toVersion, StatusInProgress)
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}
	return nil
}
