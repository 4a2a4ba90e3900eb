package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	certTestTenant  = "bbbbbbbb-0000-0000-0000-000000000001"
	certTestCompany = "bbbbbbbb-0000-0000-0000-0000000000c1"
)

func newCertificateFixture(t *testing.T) (*CertificateRepository, *testutil.MockDB, context.Context) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB.DB, logger.New("certificate-test", "test"))
	ctx := testutil.WithTestTenantValues(context.Background(), certTestTenant, "pacific")
	return NewCertificateRepository(db), mockDB, ctx
}

func TestCertificateGetOrCreate_UpsertsWithinTenant(t *testing.T) {
	repo, mockDB, ctx := newCertificateFixture(t)

	mockDB.ExpectQuery("WHERE company_certificates.tenant_id = EXCLUDED.tenant_id").
		WithArgs(testutil.AnyUUID{}, certTestTenant, certTestCompany, 2026, CertHaccp).
		WillReturnRows(testutil.MockRows(
			"id", "tenant_id", "company_id", "year", "certificate_type", "issued_date",
			"signer_name", "signature", "is_completed", "created_at", "updated_at",
		).AddRow(
			"cert-1", certTestTenant, certTestCompany, 2026, CertHaccp, nil,
			nil, nil, false, time.Now(), time.Now(),
		))

	cert, err := repo.GetOrCreate(ctx, certTestCompany, 2026, CertHaccp)
	require.NoError(t, err)
	assert.Equal(t, certTestCompany, cert.CompanyID)
	assert.Equal(t, 2026, cert.Year)
	assert.False(t, cert.IsCompleted)
	mockDB.ExpectationsWereMet(t)
}

func TestCertificateGetOrCreate_ForeignFacilityReadsNothing(t *testing.T) {
	repo, mockDB, ctx := newCertificateFixture(t)

	// A certificate row keyed to another tenant's facility must not come back.
	mockDB.ExpectQuery("WHERE company_certificates.tenant_id = EXCLUDED.tenant_id").
		WithArgs(testutil.AnyUUID{}, certTestTenant, certTestCompany, 2026, CertLetterOfGuarantee).
		WillReturnError(sql.ErrNoRows)

	cert, err := repo.GetOrCreate(ctx, certTestCompany, 2026, CertLetterOfGuarantee)
	assert.Nil(t, cert)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestCertificateGetOrCreate_RejectsUnknownType(t *testing.T) {
	repo, _, ctx := newCertificateFixture(t)

	_, err := repo.GetOrCreate(ctx, certTestCompany, 2026, "export_permit")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)
}
