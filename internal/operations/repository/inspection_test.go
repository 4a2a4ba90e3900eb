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
	inspTestTenant = "aaaaaaaa-0000-0000-0000-000000000002"
	inspTestSheet  = "aaaaaaaa-0000-0000-0000-0000000000f1"
)

func newInspectionFixture(t *testing.T) (*InspectionRepository, *testutil.MockDB, context.Context) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB.DB, logger.New("inspection-test", "test"))
	ctx := testutil.WithTestTenantValues(context.Background(), inspTestTenant, "pacific")
	return NewInspectionRepository(db), mockDB, ctx
}

func TestComplete_SignsOffOpenSheet(t *testing.T) {
	repo, mockDB, ctx := newInspectionFixture(t)

	completedAt := time.Now()
	mockDB.ExpectQuery("AND NOT completed").
		WithArgs("user-1", "Dana Reyes", "sig-data", nil, inspTestTenant, inspTestSheet).
		WillReturnRows(testutil.MockRows(
			"id", "tenant_id", "company_id", "date", "shift", "time", "inspector_id",
			"completed", "inspector_name", "inspector_signature", "completed_at",
			"verified", "verifier_name", "verifier_signature", "verified_at", "created_at",
		).AddRow(
			inspTestSheet, inspTestTenant, "company-1", time.Now(), ShiftPreOp, nil, "user-1",
			true, "Dana Reyes", "sig-data", completedAt,
			false, nil, nil, nil, time.Now(),
		))

	insp, err := repo.Complete(ctx, inspTestSheet, "user-1", "Dana Reyes", "sig-data", nil)
	require.NoError(t, err)
	assert.True(t, insp.Completed)
	require.NotNil(t, insp.InspectorName)
	assert.Equal(t, "Dana Reyes", *insp.InspectorName)
	mockDB.ExpectationsWereMet(t)
}

func TestComplete_AlreadyCompletedSheetIsSealed(t *testing.T) {
	repo, mockDB, ctx := newInspectionFixture(t)

	// A second sign-off matches no row: the original inspector fields and
	// completion time must survive.
	mockDB.ExpectQuery("AND NOT completed").
		WithArgs("user-2", "Sam Okafor", "other-sig", nil, inspTestTenant, inspTestSheet).
		WillReturnError(sql.ErrNoRows)

	insp, err := repo.Complete(ctx, inspTestSheet, "user-2", "Sam Okafor", "other-sig", nil)
	assert.Nil(t, insp)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}
