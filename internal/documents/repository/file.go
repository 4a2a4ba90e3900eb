package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// Document types files can be archived under
const (
	DocSalesOrder    = "sales_order"
	DocPurchaseOrder = "purchase_order"
)

// File content classes
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

// IsArchiveDocumentType reports whether t is a known archive owner type
func IsArchiveDocumentType(t string) bool {
	return t == DocSalesOrder || t == DocPurchaseOrder
}

// DetectFileType classifies a filename by extension. Only PDFs and
// common image formats are accepted into the archive.
func DetectFileType(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF, nil
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return FileTypeImage, nil
	default:
		return "", errors.BadRequest("only PDF and image files can be archived")
	}
}

// DocumentFile is an archived file attached to a business record,
// identified by (document_type, document_id).
type DocumentFile struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"-"`
	DocumentType string    `db:"document_type" json:"document_type"`
	DocumentID   string    `db:"document_id" json:"document_id"`
	Filename     string    `db:"filename" json:"filename"`
	FilePath     string    `db:"file_path" json:"-"`
	FileType     string    `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}

const fileColumns = `id, tenant_id, document_type, document_id, filename, file_path, file_type, file_size, uploaded_at`

// FileRepository handles archived file metadata
type FileRepository struct {
	db *database.DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *database.DB) *FileRepository {
	return &FileRepository{db: db}
}

// ListFor returns the files archived under one business record
func (r *FileRepository) ListFor(ctx context.Context, documentType, documentID string) ([]DocumentFile, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	files := []DocumentFile{}
	query := `
		SELECT ` + fileColumns + `
		FROM document_files
		WHERE tenant_id = $1 AND document_type = $2 AND document_id = $3
		ORDER BY uploaded_at
	`
	if err := r.db.SelectContext(ctx, &files, query, tenantID, documentType, documentID); err != nil {
		return nil, err
	}
	return files, nil
}

// GetByID fetches one archived file's metadata
func (r *FileRepository) GetByID(ctx context.Context, id string) (*DocumentFile, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var f DocumentFile
	query := `SELECT ` + fileColumns + ` FROM document_files WHERE tenant_id = $1 AND id = $2`
	if err := r.db.GetContext(ctx, &f, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("file")
		}
		return nil, err
	}
	return &f, nil
}

// ListByIDs fetches a batch of files, preserving only rows the tenant owns
func (r *FileRepository) ListByIDs(ctx context.Context, ids []string) ([]DocumentFile, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []DocumentFile{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+fileColumns+` FROM document_files WHERE tenant_id = ? AND id IN (?)`,
		tenantID, ids)
	if err != nil {
		return nil, err
	}

	files := []DocumentFile{}
	if err := r.db.SelectContext(ctx, &files, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, err
	}
	return files, nil
}

// Insert records an archived file
func (r *FileRepository) Insert(ctx context.Context, f *DocumentFile) (*DocumentFile, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	f.ID = uuid.New().String()
	f.TenantID = tenantID

	err = r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		query := `
			INSERT INTO document_files (id, tenant_id, document_type, document_id, filename, file_path, file_type, file_size)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING uploaded_at
		`
		row := r.db.QueryRowxContext(txCtx, query,
			f.ID, tenantID, f.DocumentType, f.DocumentID, f.Filename, f.FilePath, f.FileType, f.FileSize)
		return row.Scan(&f.UploadedAt)
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a file's metadata row
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		result, err := r.db.ExecContext(txCtx,
			`DELETE FROM document_files WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return errors.NotFound("file")
		}
		return nil
	})
}
