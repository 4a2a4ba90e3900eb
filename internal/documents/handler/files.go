package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/internal/documents/service"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/httputil"
	"github.com/fishtech/fishtech-backend/pkg/logger"
)

// maxUploadBytes caps a single archive upload
const maxUploadBytes = 32 << 20

// FileHandler handles document archive endpoints
type FileHandler struct {
	archive *service.ArchiveService
	orders  *service.OrderService
	logger  *logger.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(archive *service.ArchiveService, orders *service.OrderService, log *logger.Logger) *FileHandler {
	return &FileHandler{archive: archive, orders: orders, logger: log}
}

func recordParams(r *http.Request) (string, string) {
	return chi.URLParam(r, "documentType"), chi.URLParam(r, "documentID")
}

// Upload archives a file under a business record. Expects a multipart
// form with a single "file" part.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	documentType, documentID := recordParams(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.Error(w, errors.BadRequest("invalid or oversized upload"))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("a file part named 'file' is required"))
		return
	}
	defer part.Close()

	file, err := h.archive.Upload(r.Context(), documentType, documentID, header.Filename, part, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, file)
}

// List returns the files archived under one record
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	documentType, documentID := recordParams(r)

	files, err := h.archive.List(r.Context(), documentType, documentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, files)
}

// Download streams one archived file
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	file, rc, err := h.archive.Open(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	if file.FileType == repository.FileTypePDF {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.FileSize))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error().Err(err).Str("file_id", file.ID).Msg("file stream interrupted")
	}
}

// Delete removes one archived file
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.archive.Delete(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// ZipRecord streams all of one record's files as a zip archive
func (h *FileHandler) ZipRecord(w http.ResponseWriter, r *http.Request) {
	documentType, documentID := recordParams(r)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", documentID+".zip"))

	if err := h.archive.ZipRecord(r.Context(), documentType, documentID, w); err != nil {
		// Headers may already be out; log rather than rewrite the response
		h.logger.Error().Err(err).Str("document_id", documentID).Msg("zip download failed")
	}
}

// ZipFiles streams a chosen set of files as a zip archive
func (h *FileHandler) ZipFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs []string `json:"file_ids" validate:"required,min=1,dive,uuid"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.zip"`)

	if err := h.archive.ZipFiles(r.Context(), req.FileIDs, w); err != nil {
		h.logger.Error().Err(err).Int("files", len(req.FileIDs)).Msg("zip download failed")
	}
}

// EmailRequest selects archived files and recipients for outbound mail.
// When Recipients is empty the order's resolved recipient list is used.
type EmailRequest struct {
	DocumentType string   `json:"document_type" validate:"required"`
	DocumentID   string   `json:"document_id" validate:"required"`
	FileIDs      []string `json:"file_ids" validate:"required,min=1,dive,uuid"`
	Recipients   []string `json:"recipients" validate:"omitempty,dive,email"`
	Subject      string   `json:"subject" validate:"omitempty,max=255"`
	Body         string   `json:"body"`
}

// Email zips the chosen files and mails the bundle
func (h *FileHandler) Email(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	recipients := req.Recipients
	if len(recipients) == 0 {
		resolved, err := h.orders.Recipients(r.Context(), req.DocumentType, req.DocumentID)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		recipients = resolved
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Documents for order %s", req.DocumentID)
	}
	body := req.Body
	if body == "" {
		body = fmt.Sprintf("Please find the documents for order %s attached.", req.DocumentID)
	}

	err := h.archive.EmailFiles(r.Context(), req.FileIDs, recipients, subject, body, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"recipients": recipients,
		"file_ids":   req.FileIDs,
	})
}
