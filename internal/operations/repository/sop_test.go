package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/pkg/database"
	"github.com/fishtech/fishtech-backend/pkg/logger"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

const (
	sopTestTenant  = "aaaaaaaa-0000-0000-0000-000000000003"
	sopTestCompany = "aaaaaaaa-0000-0000-0000-0000000000c3"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timeAt(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func TestSopAppliesOn(t *testing.T) {
	tests := []struct {
		name      string
		createdAt *time.Time
		day       time.Time
		want      bool
	}{
		{"no creation date applies always", nil, day(2025, 3, 10), true},
		{"created before the day", timeAt(2025, 3, 9, 14), day(2025, 3, 10), true},
		{"created that morning", timeAt(2025, 3, 10, 8), day(2025, 3, 10), true},
		{"created late that evening", timeAt(2025, 3, 10, 23), day(2025, 3, 10), true},
		{"created the next day", timeAt(2025, 3, 11, 0), day(2025, 3, 10), false},
		{"created weeks later", timeAt(2025, 4, 1, 9), day(2025, 3, 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sop := &Sop{CreatedAt: tt.createdAt}
			assert.Equal(t, tt.want, sop.AppliesOn(tt.day))
		})
	}
}

func TestSopCoversShift(t *testing.T) {
	sop := &Sop{IsPreOp: true, IsPostOp: true}

	assert.True(t, sop.CoversShift(ShiftPreOp))
	assert.False(t, sop.CoversShift(ShiftMidDay))
	assert.True(t, sop.CoversShift(ShiftPostOp))
	assert.False(t, sop.CoversShift("Night"))
}

// A sheet dated before an item existed must not list that item: it neither
// appears on the checklist nor counts against the day's totals.
func TestListForShift_ExcludesItemsCreatedLater(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB.DB, logger.New("sop-test", "test"))
	repo := NewSopRepository(db)
	ctx := testutil.WithTestTenantValues(context.Background(), sopTestTenant, "pacific")

	rows := testutil.MockRows(
		"id", "tenant_id", "sop_did", "company_id", "zone_id", "description",
		"is_pre_op", "is_mid_day", "is_post_op", "input_required", "image_required", "created_at",
	).
		AddRow("s1", sopTestTenant, 1, sopTestCompany, nil, "Rinse filleting tables",
			true, false, true, false, false, timeAt(2025, 3, 1, 9)).
		AddRow("s2", sopTestTenant, 2, sopTestCompany, nil, "Sanitize brine tanks",
			true, true, false, true, false, nil).
		AddRow("s3", sopTestTenant, 3, sopTestCompany, nil, "Inspect ice machine",
			true, false, false, false, true, timeAt(2025, 3, 15, 9)).
		AddRow("s4", sopTestTenant, 4, sopTestCompany, nil, "Hose down loading dock",
			false, false, true, false, false, timeAt(2025, 3, 1, 9))

	mockDB.ExpectQuery("FROM sops").
		WithArgs(sopTestTenant, sopTestCompany).
		WillReturnRows(rows)

	items, err := repo.ListForShift(ctx, sopTestCompany, ShiftPreOp, day(2025, 3, 10))
	require.NoError(t, err)

	// Item 3 postdates the inspection, item 4 is not a Pre-Op item.
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].SopDID)
	assert.Equal(t, 2, items[1].SopDID)
	mockDB.ExpectationsWereMet(t)
}
