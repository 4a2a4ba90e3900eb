package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	configTestTenant  = "aaaaaaaa-0000-0000-0000-000000000001"
	configTestCompany = "aaaaaaaa-0000-0000-0000-0000000000c1"
)

func newConfigFixture(t *testing.T) (*ConfigRepository, *testutil.MockDB, context.Context) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB.DB, logger.New("config-test", "test"))
	ctx := testutil.WithTestTenantValues(context.Background(), configTestTenant, "pacific")
	return NewConfigRepository(db), mockDB, ctx
}

func configRow(tenantID, companyID string) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "tenant_id", "company_id", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "start_date", "monitor_id", "verifier_id",
		"monitor_signature", "verifier_signature",
	).AddRow(
		"cfg-1", tenantID, companyID, true, true, true, true,
		true, false, false, time.Now(), nil, nil,
		nil, nil,
	)
}

func TestConfigGetOrCreate_UpsertsWithinTenant(t *testing.T) {
	repo, mockDB, ctx := newConfigFixture(t)

	// The upsert must re-check the tenant on the conflict branch; matching on
	// that clause pins the query shape.
	mockDB.ExpectQuery("WHERE company_operation_configs.tenant_id = EXCLUDED.tenant_id").
		WithArgs(testutil.AnyUUID{}, configTestTenant, configTestCompany).
		WillReturnRows(configRow(configTestTenant, configTestCompany))

	cfg, err := repo.GetOrCreate(ctx, configTestCompany)
	require.NoError(t, err)
	assert.Equal(t, configTestCompany, cfg.CompanyID)
	assert.True(t, cfg.OperatesOn(time.Monday))
	assert.False(t, cfg.OperatesOn(time.Sunday))
	mockDB.ExpectationsWereMet(t)
}

func TestConfigGetOrCreate_ForeignFacilityReadsNothing(t *testing.T) {
	repo, mockDB, ctx := newConfigFixture(t)

	// A conflicting row owned by another tenant yields no row at all.
	mockDB.ExpectQuery("WHERE company_operation_configs.tenant_id = EXCLUDED.tenant_id").
		WithArgs(testutil.AnyUUID{}, configTestTenant, configTestCompany).
		WillReturnError(sql.ErrNoRows)

	cfg, err := repo.GetOrCreate(ctx, configTestCompany)
	assert.Nil(t, cfg)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestConfigGetOrCreate_NoTenantInContext(t *testing.T) {
	repo, _, _ := newConfigFixture(t)

	_, err := repo.GetOrCreate(context.Background(), configTestCompany)
	assert.Error(t, err)
}
