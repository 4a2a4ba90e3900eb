package service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fishtech/fishtech-backend/internal/documents/events"
	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/internal/documents/storage"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/mailer"
)

// ArchiveService stores, streams, bundles, and mails archived document
// files for business records.
type ArchiveService struct {
	files     *repository.FileRepository
	store     storage.FileStore
	mail      mailer.Mailer
	logger    *logger.Logger
	publisher *events.DocumentEventPublisher
}

// NewArchiveService creates a new archive service
func NewArchiveService(
	files *repository.FileRepository,
	store storage.FileStore,
	mail mailer.Mailer,
	log *logger.Logger,
	publisher *events.DocumentEventPublisher,
) *ArchiveService {
	return &ArchiveService{
		files:     files,
		store:     store,
		mail:      mail,
		logger:    log,
		publisher: publisher,
	}
}

// Upload stores a file under a business record and registers it in the
// archive. The stored filename may carry a collision suffix, and that
// is the name the metadata row keeps.
func (s *ArchiveService) Upload(ctx context.Context, documentType, documentID, filename string, r io.Reader, uploadedBy string) (*repository.DocumentFile, error) {
	if !repository.IsArchiveDocumentType(documentType) {
		return nil, errors.BadRequest("unknown document type")
	}
	if strings.TrimSpace(documentID) == "" {
		return nil, errors.BadRequest("document id is required")
	}

	fileType, err := repository.DetectFileType(filename)
	if err != nil {
		return nil, err
	}

	storedName, relPath, size, err := s.store.Save(documentType, documentID, filename, r)
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to store file", http.StatusInternalServerError)
	}

	file, err := s.files.Insert(ctx, &repository.DocumentFile{
		DocumentType: documentType,
		DocumentID:   documentID,
		Filename:     storedName,
		FilePath:     relPath,
		FileType:     fileType,
		FileSize:     size,
	})
	if err != nil {
		// Keep disk and database consistent when the insert loses
		if cleanupErr := s.store.Delete(relPath); cleanupErr != nil {
			s.logger.Error().Err(cleanupErr).Str("path", relPath).Msg("failed to clean up orphaned file")
		}
		return nil, err
	}

	s.logger.Info().
		Str("document_type", documentType).
		Str("document_id", documentID).
		Str("filename", storedName).
		Int64("size", size).
		Msg("file archived")

	s.publisher.PublishFileArchived(ctx, file, uploadedBy)
	return file, nil
}

// List returns the files archived under one record
func (s *ArchiveService) List(ctx context.Context, documentType, documentID string) ([]repository.DocumentFile, error) {
	if !repository.IsArchiveDocumentType(documentType) {
		return nil, errors.BadRequest("unknown document type")
	}
	return s.files.ListFor(ctx, documentType, documentID)
}

// Open returns a file's metadata and a reader over its content. The
// caller closes the reader.
func (s *ArchiveService) Open(ctx context.Context, fileID string) (*repository.DocumentFile, io.ReadCloser, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(file.FilePath)
	if err != nil {
		s.logger.Error().Err(err).Str("file_id", fileID).Str("path", file.FilePath).Msg("archived file missing on disk")
		return nil, nil, errors.NotFound("file content")
	}
	return file, rc, nil
}

// Delete removes a file from the archive and from disk
func (s *ArchiveService) Delete(ctx context.Context, fileID string) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}

	if err := s.store.Delete(file.FilePath); err != nil {
		s.logger.Error().Err(err).Str("path", file.FilePath).Msg("failed to delete file from disk")
	}
	return nil
}

// DeleteRecordFiles removes every archived file of one business record.
// Used when the record itself is deleted.
func (s *ArchiveService) DeleteRecordFiles(ctx context.Context, documentType, documentID string) error {
	files, err := s.files.ListFor(ctx, documentType, documentID)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := s.Delete(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// writeZip streams the given files into a zip archive. Entries are
// grouped by record so bundles spanning orders stay readable.
func (s *ArchiveService) writeZip(files []repository.DocumentFile, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		rc, err := s.store.Open(f.FilePath)
		if err != nil {
			_ = zw.Close()
			return errors.Wrap(err, "INTERNAL_ERROR", "archived file missing on disk", http.StatusInternalServerError)
		}

		entry, err := zw.Create(f.DocumentID + "/" + f.Filename)
		if err == nil {
			_, err = io.Copy(entry, rc)
		}
		_ = rc.Close()
		if err != nil {
			_ = zw.Close()
			return errors.Wrap(err, "INTERNAL_ERROR", "failed to build zip", http.StatusInternalServerError)
		}
	}
	return zw.Close()
}

// ZipRecord writes all of one record's files into a zip archive
func (s *ArchiveService) ZipRecord(ctx context.Context, documentType, documentID string, w io.Writer) error {
	files, err := s.List(ctx, documentType, documentID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.NotFound("archived files")
	}
	return s.writeZip(files, w)
}

// ZipFiles writes a chosen set of files into a zip archive. IDs the
// tenant does not own are silently absent from the bundle.
func (s *ArchiveService) ZipFiles(ctx context.Context, fileIDs []string, w io.Writer) error {
	files, err := s.files.ListByIDs(ctx, fileIDs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.NotFound("archived files")
	}
	return s.writeZip(files, w)
}

// EmailFiles zips the chosen files and mails the bundle to each
// recipient list entry.
func (s *ArchiveService) EmailFiles(ctx context.Context, fileIDs, recipients []string, subject, body, sentBy string) error {
	if len(recipients) == 0 {
		return errors.BadRequest("at least one recipient is required")
	}

	files, err := s.files.ListByIDs(ctx, fileIDs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.NotFound("archived files")
	}

	tmp, err := os.CreateTemp("", "documents-*.zip")
	if err != nil {
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to prepare mail bundle", http.StatusInternalServerError)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zipErr := s.writeZip(files, tmp)
	if cerr := tmp.Close(); zipErr == nil {
		zipErr = cerr
	}
	if zipErr != nil {
		return zipErr
	}

	// Name the attachment after the bundle date, not the temp file
	bundleName := fmt.Sprintf("documents_%s.zip", time.Now().Format("2006-01-02"))
	attachment, cleanup, err := renameTemp(tmpPath, bundleName)
	if err != nil {
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to prepare mail bundle", http.StatusInternalServerError)
	}
	defer cleanup()

	if err := s.mail.Send(ctx, recipients, subject, body, []string{attachment}); err != nil {
		s.logger.Error().Err(err).Int("recipients", len(recipients)).Msg("failed to send document mail")
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to send mail", http.StatusBadGateway)
	}

	sentIDs := make([]string, 0, len(files))
	for _, f := range files {
		sentIDs = append(sentIDs, f.ID)
	}
	for _, recipient := range recipients {
		s.publisher.PublishDocumentsEmailed(ctx, recipient, sentIDs, sentBy)
	}
	return nil
}

// renameTemp moves the bundle into its own directory under the given
// attachment name, so the mailed filename is presentable.
func renameTemp(tmpPath, name string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "mail-")
	if err != nil {
		return "", nil, err
	}
	dest := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	return dest, func() { _ = os.RemoveAll(dir) }, nil
}
