package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	linkTestTenant  = "cccccccc-0000-0000-0000-000000000001"
	linkTestCompany = "cccccccc-0000-0000-0000-0000000000c1"
)

func newProductTypeFixture(t *testing.T) (*ProductTypeRepository, *testutil.MockDB, context.Context) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB.DB, logger.New("product-type-test", "test"))
	ctx := testutil.WithTestTenantValues(context.Background(), linkTestTenant, "pacific")
	return NewProductTypeRepository(db), mockDB, ctx
}

func TestSetCompanyLink_UpsertsWithinTenant(t *testing.T) {
	repo, mockDB, ctx := newProductTypeFixture(t)

	mockDB.ExpectExec("WHERE company_product_types.tenant_id = EXCLUDED.tenant_id").
		WithArgs(testutil.AnyUUID{}, linkTestTenant, linkTestCompany, "smoked-salmon", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetCompanyLink(ctx, linkTestCompany, "smoked-salmon", true)
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestSetCompanyLink_ForeignFacilityTouchesNothing(t *testing.T) {
	repo, mockDB, ctx := newProductTypeFixture(t)

	// When the conflicting link belongs to another tenant the guarded update
	// matches zero rows.
	mockDB.ExpectExec("WHERE company_product_types.tenant_id = EXCLUDED.tenant_id").
		WithArgs(testutil.AnyUUID{}, linkTestTenant, linkTestCompany, "smoked-salmon", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetCompanyLink(ctx, linkTestCompany, "smoked-salmon", false)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}
