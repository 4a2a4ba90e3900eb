package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fishtech/fishtech-backend/internal/haccp/events"
	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/tenant"
)

// syncSources maps a document to the upstream document its sync reads from.
var syncSources = map[string]string{
	repository.DocHazardAnalysis: repository.DocFlowChart,
	repository.DocCCPSummary:     repository.DocHazardAnalysis,
}

// DocumentService drives the plan document versioning lifecycle
type DocumentService struct {
	documents *repository.DocumentRepository
	db        *database.DB
	logger    *logger.Logger
	publisher *events.HaccpEventPublisher
}

// NewDocumentService creates a new document service
func NewDocumentService(documents *repository.DocumentRepository, db *database.DB, log *logger.Logger, publisher *events.HaccpEventPublisher) *DocumentService {
	return &DocumentService{
		documents: documents,
		db:        db,
		logger:    log,
		publisher: publisher,
	}
}

// VersionSet is one version of a set with its documents.
type VersionSet struct {
	Version   int                   `json:"version"`
	SetStatus string                `json:"set_status"`
	Documents []repository.Document `json:"documents"`
}

// VersionSummary is one history row.
type VersionSummary struct {
	Version        int        `json:"version"`
	Total          int        `json:"total"`
	Completed      int        `json:"completed"`
	SetStatus      string     `json:"set_status"`
	OriginatedDate *time.Time `json:"originated_date,omitempty"`
	ApprovedDate   *time.Time `json:"approved_date,omitempty"`
}

// SaveDocumentRequest carries a document save.
type SaveDocumentRequest struct {
	CompanyID         *string         `json:"company_id"`
	ProductType       string          `json:"product_type" validate:"required"`
	DocumentType      string          `json:"document_type" validate:"required"`
	Year              int             `json:"year" validate:"required,min=2000,max=2200"`
	Version           int             `json:"version" validate:"required,min=1"`
	Status            string          `json:"status" validate:"required,oneof=not_started in_progress completed"`
	DocumentData      json.RawMessage `json:"document_data"`
	OriginatedDate    *time.Time      `json:"originated_date"`
	OriginatedBy      *string         `json:"originated_by"`
	ApprovedDate      *time.Time      `json:"approved_date"`
	ApprovedBy        *string         `json:"approved_by"`
	ApprovalSignature *string         `json:"approval_signature"`
}

// GetCurrent returns the version a reader should work on, bootstrapping a
// blank version 1 when the set does not exist yet.
func (s *DocumentService) GetCurrent(ctx context.Context, key repository.SetKey) (*VersionSet, error) {
	aggregates, err := s.documents.ListVersions(ctx, key)
	if err != nil {
		return nil, err
	}

	version, status := CurrentVersion(aggregates)
	if version == 0 {
		tenantID, err := tenant.TenantID(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
			return s.documents.InsertBlankSet(txCtx, key, 1)
		}); err != nil {
			return nil, err
		}
		version, status = 1, SetInProgress

		s.logger.Info().
			Str("product_type", key.ProductType).
			Int("year", key.Year).
			Msg("bootstrapped blank plan set")
	}

	docs, err := s.documents.GetVersionDocuments(ctx, key, version)
	if err != nil {
		return nil, err
	}

	return &VersionSet{Version: version, SetStatus: status, Documents: docs}, nil
}

// GetVersion returns the documents of one specific version.
func (s *DocumentService) GetVersion(ctx context.Context, key repository.SetKey, version int) (*VersionSet, error) {
	docs, err := s.documents.GetVersionDocuments(ctx, key, version)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NotFound("version")
	}

	completed := 0
	for _, d := range docs {
		if d.Status == repository.StatusCompleted {
			completed++
		}
	}

	return &VersionSet{
		Version:   version,
		SetStatus: SetStatus(len(docs), completed),
		Documents: docs,
	}, nil
}

// Save upserts a document. Saving a document as completed supersedes any
// unfinished drafts of the same document in other versions, and closes the
// set when it was the last of the four.
func (s *DocumentService) Save(ctx context.Context, req *SaveDocumentRequest, savedBy string) (*repository.Document, error) {
	if !repository.IsDocumentType(req.DocumentType) {
		return nil, errors.BadRequest("unknown document type")
	}

	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	key := repository.SetKey{CompanyID: req.CompanyID, ProductType: req.ProductType, Year: req.Year}

	doc := &repository.Document{
		CompanyID:         req.CompanyID,
		ProductType:       req.ProductType,
		DocumentType:      req.DocumentType,
		Year:              req.Year,
		Version:           req.Version,
		Status:            req.Status,
		DocumentData:      req.DocumentData,
		OriginatedDate:    req.OriginatedDate,
		OriginatedBy:      req.OriginatedBy,
		ApprovedDate:      req.ApprovedDate,
		ApprovedBy:        req.ApprovedBy,
		ApprovalSignature: req.ApprovalSignature,
	}

	var stored *repository.Document
	err = s.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		stored, err = s.documents.Upsert(txCtx, doc)
		if err != nil {
			return err
		}
		if stored.Status == repository.StatusCompleted {
			_, err = s.documents.DeleteUnfinishedSiblings(txCtx, key, stored.DocumentType, stored.Version)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stored.Status == repository.StatusCompleted {
		s.publisher.PublishDocumentCompleted(ctx, stored, savedBy)
		s.notifyIfSetClosed(ctx, key, stored.Version)
	}

	return stored, nil
}

// GenerateVersion opens a new draft version of a set. Only one draft may be
// open at a time; the check runs in the same transaction as the inserts so
// two concurrent calls cannot both pass it.
func (s *DocumentService) GenerateVersion(ctx context.Context, key repository.SetKey, createdBy string) (*VersionSet, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var newVersion, fromVersion int
	err = s.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		aggregates, err := s.documents.ListVersions(txCtx, key)
		if err != nil {
			return err
		}

		if HasInProgressVersion(aggregates) {
			return errors.Conflict("a draft version is already in progress for this product")
		}

		fromVersion = LastCompletedVersion(aggregates)
		if fromVersion == 0 {
			newVersion = 1
			return s.documents.InsertBlankSet(txCtx, key, newVersion)
		}

		newVersion = HighestVersion(aggregates) + 1
		return s.documents.CopyVersionForward(txCtx, key, fromVersion, newVersion)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_type", key.ProductType).
		Int("year", key.Year).
		Int("version", newVersion).
		Msg("new plan version generated")
	s.publisher.PublishVersionCreated(ctx, key, fromVersion, newVersion, createdBy)

	return s.GetVersion(ctx, key, newVersion)
}

// History returns the version summaries of a set, oldest first.
func (s *DocumentService) History(ctx context.Context, key repository.SetKey) ([]VersionSummary, error) {
	aggregates, err := s.documents.ListVersions(ctx, key)
	if err != nil {
		return nil, err
	}

	summaries := make([]VersionSummary, 0, len(aggregates))
	for _, agg := range aggregates {
		summaries = append(summaries, VersionSummary{
			Version:        agg.Version,
			Total:          agg.Total,
			Completed:      agg.Completed,
			SetStatus:      SetStatus(agg.Total, agg.Completed),
			OriginatedDate: agg.OriginatedDate,
			ApprovedDate:   agg.ApprovedDate,
		})
	}
	return summaries, nil
}

// Years lists the years a set has documents for.
func (s *DocumentService) Years(ctx context.Context, companyID *string, productType string) ([]int, error) {
	return s.documents.ListYears(ctx, companyID, productType)
}

// DeleteDocument hard-deletes one document row.
func (s *DocumentService) DeleteDocument(ctx context.Context, key repository.SetKey, documentType string, version int) error {
	if !repository.IsDocumentType(documentType) {
		return errors.BadRequest("unknown document type")
	}

	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}
	return s.db.WithTenant(ctx, tenantID, func(txCtx context.Context) error {
		return s.documents.DeleteDocument(txCtx, key, documentType, version)
	})
}

// SyncSource returns the upstream document a target document reads shared
// structure from: the flow chart feeds the hazard analysis, which feeds the
// CCP summary. The open draft wins; otherwise the last completed revision.
func (s *DocumentService) SyncSource(ctx context.Context, key repository.SetKey, targetType string) (*repository.Document, error) {
	sourceType, ok := syncSources[targetType]
	if !ok {
		return nil, errors.BadRequest("this document has no sync source")
	}

	doc, err := s.documents.GetLatestByStatus(ctx, key, sourceType, repository.StatusInProgress)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	return s.documents.GetLatestByStatus(ctx, key, sourceType, repository.StatusCompleted)
}

// notifyIfSetClosed publishes a set completed event when the saved document
// finished its version.
func (s *DocumentService) notifyIfSetClosed(ctx context.Context, key repository.SetKey, version int) {
	aggregates, err := s.documents.ListVersions(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not evaluate set completion")
		return
	}

	for _, agg := range aggregates {
		if agg.Version == version && SetStatus(agg.Total, agg.Completed) == SetCompleted {
			s.publisher.PublishSetCompleted(ctx, key, version)
			return
		}
	}
}
