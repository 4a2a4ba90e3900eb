package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fishtech/fishtech-backend/internal/operations/repository"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekdayConfig(start time.Time) *repository.OperationConfig {
	return &repository.OperationConfig{
		Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true,
		StartDate: &start,
	}
}

func sheet(d time.Time, shift string, completed, verified bool) repository.Inspection {
	return repository.Inspection{
		Date:      d,
		Shift:     shift,
		Completed: completed,
		Verified:  verified,
	}
}

// fullDay returns three completed sheets for one day.
func fullDay(d time.Time, verified bool) []repository.Inspection {
	sheets := make([]repository.Inspection, 0, 3)
	for _, s := range repository.Shifts {
		sheets = append(sheets, sheet(d, s, true, verified))
	}
	return sheets
}

func TestIsOperatingDay(t *testing.T) {
	cfg := weekdayConfig(date(2025, 1, 1))
	holidays := HolidaySet([]time.Time{date(2025, 1, 20)})

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"regular weekday", date(2025, 1, 15), true},
		{"saturday off", date(2025, 1, 18), false},
		{"sunday off", date(2025, 1, 19), false},
		{"holiday monday", date(2025, 1, 20), false},
		{"before start date", date(2024, 12, 30), false},
		{"start date itself", date(2025, 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOperatingDay(cfg, holidays, tt.day))
		})
	}
}

func TestIsOperatingDay_NoStartDate(t *testing.T) {
	cfg := &repository.OperationConfig{Monday: true}
	assert.False(t, IsOperatingDay(cfg, nil, date(2025, 1, 13)))
}

func TestAudit_WeekWithHoliday(t *testing.T) {
	// Mon-Fri schedule starting 2025-01-01, with Mon 2025-01-20 a holiday.
	// Auditing up to Wed 2025-01-22 the operating days of that week are
	// Tue 21 and earlier weekdays back to Jan 1: 14 in total.
	cfg := weekdayConfig(date(2025, 1, 1))
	holidays := []time.Time{date(2025, 1, 20)}

	sheets := []repository.Inspection{}
	for d := date(2025, 1, 1); d.Before(date(2025, 1, 22)); d = d.AddDate(0, 0, 1) {
		if !IsOperatingDay(cfg, HolidaySet(holidays), d) {
			continue
		}
		if d.Equal(date(2025, 1, 21)) {
			// Tuesday misses its Post-Op shift.
			sheets = append(sheets,
				sheet(d, repository.ShiftPreOp, true, true),
				sheet(d, repository.ShiftMidDay, true, false),
			)
			continue
		}
		sheets = append(sheets, fullDay(d, true)...)
	}

	result := Audit(cfg, holidays, sheets, date(2025, 1, 22))

	assert.Equal(t, 14, result.TotalOperatingDays)
	assert.Equal(t, 13, result.CompleteDays)
	assert.Equal(t, []string{"2025-01-21"}, result.IncompleteDates)
	// Tuesday's Mid-Day is completed but not verified.
	assert.Equal(t, 1, result.UnverifiedCount)
}

func TestAudit_HolidayNotCounted(t *testing.T) {
	cfg := weekdayConfig(date(2025, 1, 20))
	holidays := []time.Time{date(2025, 1, 20)}

	result := Audit(cfg, holidays, nil, date(2025, 1, 21))

	assert.Equal(t, 0, result.TotalOperatingDays)
	assert.Empty(t, result.IncompleteDates)
}

func TestAudit_TodayExcluded(t *testing.T) {
	cfg := weekdayConfig(date(2025, 1, 13))

	// Nothing inspected yet, but today itself is outside the audit window.
	result := Audit(cfg, nil, nil, date(2025, 1, 13))

	assert.Equal(t, 0, result.TotalOperatingDays)
	assert.Empty(t, result.IncompleteDates)
}

func TestAudit_MissingSheetIsIncomplete(t *testing.T) {
	cfg := weekdayConfig(date(2025, 1, 13))

	// Monday has no sheets at all; Tuesday is complete but unverified.
	sheets := fullDay(date(2025, 1, 14), false)

	result := Audit(cfg, nil, sheets, date(2025, 1, 15))

	assert.Equal(t, 2, result.TotalOperatingDays)
	assert.Equal(t, 1, result.CompleteDays)
	assert.Equal(t, []string{"2025-01-13"}, result.IncompleteDates)
	assert.Equal(t, 3, result.UnverifiedCount)
}

func TestAudit_NoStartDate(t *testing.T) {
	result := Audit(&repository.OperationConfig{Monday: true}, nil, nil, date(2025, 1, 15))

	assert.Equal(t, 0, result.TotalOperatingDays)
	assert.Empty(t, result.IncompleteDates)
}

func TestBuildCalendar(t *testing.T) {
	cfg := weekdayConfig(date(2025, 1, 13))
	sheets := []repository.Inspection{
		sheet(date(2025, 1, 13), repository.ShiftPreOp, true, true),
	}

	days := BuildCalendar(cfg, nil, sheets, date(2025, 1, 13), date(2025, 1, 14))

	assert.Len(t, days, 2)

	monday := days[0]
	assert.Equal(t, "2025-01-13", monday.Date)
	assert.True(t, monday.Operating)
	assert.False(t, monday.Complete)
	assert.True(t, monday.Shifts[repository.ShiftPreOp].Completed)
	assert.True(t, monday.Shifts[repository.ShiftPreOp].Verified)
	assert.False(t, monday.Shifts[repository.ShiftMidDay].Exists)

	tuesday := days[1]
	assert.True(t, tuesday.Operating)
	assert.False(t, tuesday.Complete)
}
