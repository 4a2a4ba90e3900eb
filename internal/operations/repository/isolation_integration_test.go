package repository

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingrepo "github.com/fishtech/fishtech-backend/internal/billing/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	s, err := testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to set up integration suite: %v", err)
	}
	suite = s

	code := m.Run()
	_ = suite.Cleanup(ctx)
	os.Exit(code)
}

func twoTenants(t *testing.T) (ctxA, ctxB context.Context, companyA, companyB *billingrepo.Company) {
	t.Helper()

	tenantA := suite.SetupTenant(t, context.Background(), "north-shore-plant")
	tenantB := suite.SetupTenant(t, context.Background(), "south-bay-plant")
	ctxA = suite.TenantContext(tenantA)
	ctxB = suite.TenantContext(tenantB)

	companies := billingrepo.NewCompanyRepository(suite.DB)
	var err error
	companyA, err = companies.Create(ctxA, "North Shore Processing", nil)
	require.NoError(t, err)
	companyB, err = companies.Create(ctxB, "South Bay Processing", nil)
	require.NoError(t, err)
	return ctxA, ctxB, companyA, companyB
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestOperationConfig_CrossTenantFacilityUnreachable(t *testing.T) {
	testutil.SkipIfShort(t)
	ctxA, ctxB, companyA, _ := twoTenants(t)
	repo := NewConfigRepository(suite.DB)

	// Tenant A customizes its schedule.
	_, err := repo.GetOrCreate(ctxA, companyA.ID)
	require.NoError(t, err)
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	saved, err := repo.SaveSchedule(ctxA, companyA.ID,
		[7]bool{true, true, true, true, true, true, false}, &start)
	require.NoError(t, err)
	require.True(t, saved.Saturday)

	// Tenant B holding A's facility id can neither read nor reset the config.
	cfg, err := repo.GetOrCreate(ctxB, companyA.ID)
	requireNotFound(t, err)
	assert.Nil(t, cfg)

	_, err = repo.SaveSchedule(ctxB, companyA.ID, [7]bool{true}, nil)
	requireNotFound(t, err)

	// A's schedule survives untouched.
	kept, err := repo.GetOrCreate(ctxA, companyA.ID)
	require.NoError(t, err)
	assert.True(t, kept.Saturday)
	require.NotNil(t, kept.StartDate)
}

func TestInspectionSheets_CrossTenantReadsSeeNothing(t *testing.T) {
	testutil.SkipIfShort(t)
	ctxA, ctxB, companyA, _ := twoTenants(t)
	repo := NewInspectionRepository(suite.DB)

	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	sheet, err := repo.GetOrCreate(ctxA, companyA.ID, date, ShiftPreOp)
	require.NoError(t, err)

	// Tenant B cannot reach A's sheet by id, by key, or by range.
	_, err = repo.GetByID(ctxB, sheet.ID)
	requireNotFound(t, err)

	_, err = repo.Get(ctxB, companyA.ID, date, ShiftPreOp)
	requireNotFound(t, err)

	sheets, err := repo.ListRange(ctxB, companyA.ID, date.AddDate(0, 0, -7), date.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, sheets)

	// Nor sign it off.
	_, err = repo.Complete(ctxB, sheet.ID, "user-b", "Sasha Moreau", "sig-b", nil)
	require.Error(t, err)

	kept, err := repo.GetByID(ctxA, sheet.ID)
	require.NoError(t, err)
	assert.False(t, kept.Completed)
}
