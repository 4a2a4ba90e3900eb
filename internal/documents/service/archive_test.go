package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/internal/documents/repository"
	"github.com/fishtech/fishtech-backend/internal/documents/storage"
	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const archiveTestTenant = "cccccccc-0000-0000-0000-000000000001"

type archiveFixture struct {
	svc    *ArchiveService
	mockDB *testutil.MockDB
	store  *storage.DiskStore
	mail   *testutil.MockMailer
	ctx    context.Context
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	mail := testutil.NewMockMailer()
	log := logger.New("archive-test", "test")
	db := database.Wrap(mockDB.DB, log)

	return &archiveFixture{
		svc:    NewArchiveService(repository.NewFileRepository(db), store, mail, log, nil),
		mockDB: mockDB,
		store:  store,
		mail:   mail,
		ctx:    testutil.WithTestTenantValues(context.Background(), archiveTestTenant, "pacific"),
	}
}

func (f *archiveFixture) fileRow(id, documentID, filename, relPath string, size int64) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "tenant_id", "document_type", "document_id",
		"filename", "file_path", "file_type", "file_size", "uploaded_at",
	).AddRow(id, archiveTestTenant, repository.DocSalesOrder, documentID,
		filename, relPath, repository.FileTypePDF, size, time.Now())
}

func TestUpload_RejectsUnknownDocumentType(t *testing.T) {
	f := newArchiveFixture(t)

	_, err := f.svc.Upload(f.ctx, "haccp_plan", "X-1", "a.pdf", strings.NewReader("x"), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document type")
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	f := newArchiveFixture(t)

	_, err := f.svc.Upload(f.ctx, repository.DocSalesOrder, "SO-1001", "macro.xlsm", strings.NewReader("x"), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF and image")
}

func TestUpload_StoresFileAndMetadata(t *testing.T) {
	f := newArchiveFixture(t)

	f.mockDB.ExpectTenantScope(archiveTestTenant)
	f.mockDB.ExpectQuery("INSERT INTO document_files").
		WillReturnRows(testutil.MockRows("uploaded_at").AddRow(time.Now()))
	f.mockDB.ExpectTenantScopeEnd()

	file, err := f.svc.Upload(f.ctx, repository.DocSalesOrder, "SO-1001", "invoice.pdf",
		strings.NewReader("%PDF-1.4"), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "invoice.pdf", file.Filename)
	assert.Equal(t, repository.FileTypePDF, file.FileType)
	assert.Equal(t, int64(8), file.FileSize)
	assert.True(t, f.store.Exists(file.FilePath))

	f.mockDB.ExpectationsWereMet(t)
}

func TestZipFiles_BundlesStoredContent(t *testing.T) {
	f := newArchiveFixture(t)

	name1, rel1, _, err := f.store.Save(repository.DocSalesOrder, "SO-1001", "invoice.pdf", strings.NewReader("inv"))
	require.NoError(t, err)
	name2, rel2, _, err := f.store.Save(repository.DocSalesOrder, "SO-1002", "bol.pdf", strings.NewReader("bol"))
	require.NoError(t, err)

	rows := f.fileRow("11111111-0000-0000-0000-000000000001", "SO-1001", name1, rel1, 3)
	rows.AddRow("11111111-0000-0000-0000-000000000002", archiveTestTenant,
		repository.DocSalesOrder, "SO-1002", name2, rel2, repository.FileTypePDF, int64(3), time.Now())
	f.mockDB.ExpectQuery("FROM document_files WHERE tenant_id").WillReturnRows(rows)

	var buf bytes.Buffer
	err = f.svc.ZipFiles(f.ctx, []string{
		"11111111-0000-0000-0000-000000000001",
		"11111111-0000-0000-0000-000000000002",
	}, &buf)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "SO-1001/invoice.pdf", zr.File[0].Name)
	assert.Equal(t, "SO-1002/bol.pdf", zr.File[1].Name)
}

func TestZipFiles_EmptySelectionIsNotFound(t *testing.T) {
	f := newArchiveFixture(t)

	f.mockDB.ExpectQuery("FROM document_files WHERE tenant_id").
		WillReturnRows(testutil.MockRows(
			"id", "tenant_id", "document_type", "document_id",
			"filename", "file_path", "file_type", "file_size", "uploaded_at"))

	var buf bytes.Buffer
	err := f.svc.ZipFiles(f.ctx, []string{"11111111-0000-0000-0000-000000000009"}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEmailFiles_SendsZipBundle(t *testing.T) {
	f := newArchiveFixture(t)

	name, rel, _, err := f.store.Save(repository.DocSalesOrder, "SO-1001", "invoice.pdf", strings.NewReader("inv"))
	require.NoError(t, err)

	f.mockDB.ExpectQuery("FROM document_files WHERE tenant_id").
		WillReturnRows(f.fileRow("11111111-0000-0000-0000-000000000001", "SO-1001", name, rel, 3))

	err = f.svc.EmailFiles(f.ctx,
		[]string{"11111111-0000-0000-0000-000000000001"},
		[]string{"buyer@example.com", "office@example.com"},
		"Documents for order SO-1001", "Attached.", "user-1")
	require.NoError(t, err)

	require.Len(t, f.mail.Sent, 1)
	sent := f.mail.Sent[0]
	assert.Equal(t, []string{"buyer@example.com", "office@example.com"}, sent.To)
	assert.Equal(t, "Documents for order SO-1001", sent.Subject)
	require.Len(t, sent.Attachments, 1)
	assert.True(t, strings.HasSuffix(sent.Attachments[0], ".zip"))
}

func TestEmailFiles_RequiresRecipients(t *testing.T) {
	f := newArchiveFixture(t)

	err := f.svc.EmailFiles(f.ctx, []string{"11111111-0000-0000-0000-000000000001"}, nil, "s", "b", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}
