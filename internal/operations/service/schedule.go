package service

import (
	"time"

	"github.com/fishtech/fishtech-backend/internal/operations/repository"
)

// DateKey is the canonical day format used across schedule maps.
const DateKey = "2006-01-02"

// ShiftState is the audit view of one shift on one day.
type ShiftState struct {
	Exists    bool `json:"exists"`
	Completed bool `json:"completed"`
	Verified  bool `json:"verified"`
}

// DayState is the audit view of one calendar day.
type DayState struct {
	Date      string                `json:"date"`
	Operating bool                  `json:"operating"`
	Complete  bool                  `json:"complete"`
	Shifts    map[string]ShiftState `json:"shifts"`
}

// AuditResult summarizes inspection completeness over a date range.
type AuditResult struct {
	TotalOperatingDays int      `json:"total_operating_days"`
	CompleteDays       int      `json:"complete_days"`
	IncompleteDates    []string `json:"incomplete_dates"`
	UnverifiedCount    int      `json:"unverified_count"`
}

// truncate drops the time-of-day component.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsOperatingDay applies the schedule predicate: the facility runs on that
// weekday, the date is not a holiday, and daily inspections had started.
func IsOperatingDay(cfg *repository.OperationConfig, holidays map[string]bool, date time.Time) bool {
	if cfg.StartDate == nil || truncate(date).Before(truncate(*cfg.StartDate)) {
		return false
	}
	if holidays[date.Format(DateKey)] {
		return false
	}
	return cfg.OperatesOn(date.Weekday())
}

// HolidaySet indexes holiday dates for the predicate.
func HolidaySet(holidays []time.Time) map[string]bool {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		set[h.Format(DateKey)] = true
	}
	return set
}

// indexSheets groups inspection sheets by day and shift.
func indexSheets(sheets []repository.Inspection) map[string]map[string]repository.Inspection {
	byDay := make(map[string]map[string]repository.Inspection)
	for _, sheet := range sheets {
		day := sheet.Date.Format(DateKey)
		if byDay[day] == nil {
			byDay[day] = make(map[string]repository.Inspection, len(repository.Shifts))
		}
		byDay[day][sheet.Shift] = sheet
	}
	return byDay
}

// BuildCalendar produces the per-day shift state for every date in
// [from, to] inclusive, operating or not. Used by the schedule calendar and
// bulk report listings.
func BuildCalendar(cfg *repository.OperationConfig, holidays []time.Time, sheets []repository.Inspection, from, to time.Time) []DayState {
	holidaySet := HolidaySet(holidays)
	byDay := indexSheets(sheets)

	days := []DayState{}
	for d := truncate(from); !d.After(truncate(to)); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateKey)
		day := DayState{
			Date:      key,
			Operating: IsOperatingDay(cfg, holidaySet, d),
			Shifts:    make(map[string]ShiftState, len(repository.Shifts)),
		}

		complete := true
		for _, shift := range repository.Shifts {
			sheet, ok := byDay[key][shift]
			state := ShiftState{Exists: ok}
			if ok {
				state.Completed = sheet.Completed
				state.Verified = sheet.Verified
			}
			if !state.Completed {
				complete = false
			}
			day.Shifts[shift] = state
		}
		day.Complete = complete

		days = append(days, day)
	}
	return days
}

// Audit walks every operating day in [start, today) and reports which days
// are missing a completed shift and how many completed shifts still lack
// verification. A day is incomplete when any of its three shifts is absent or
// not completed.
func Audit(cfg *repository.OperationConfig, holidays []time.Time, sheets []repository.Inspection, today time.Time) AuditResult {
	result := AuditResult{IncompleteDates: []string{}}
	if cfg.StartDate == nil {
		return result
	}

	holidaySet := HolidaySet(holidays)
	byDay := indexSheets(sheets)

	end := truncate(today)
	for d := truncate(*cfg.StartDate); d.Before(end); d = d.AddDate(0, 0, 1) {
		if !IsOperatingDay(cfg, holidaySet, d) {
			continue
		}
		result.TotalOperatingDays++

		key := d.Format(DateKey)
		complete := true
		for _, shift := range repository.Shifts {
			sheet, ok := byDay[key][shift]
			if !ok || !sheet.Completed {
				complete = false
				continue
			}
			if !sheet.Verified {
				result.UnverifiedCount++
			}
		}

		if complete {
			result.CompleteDays++
		} else {
			result.IncompleteDates = append(result.IncompleteDates, key)
		}
	}
	return result
}
