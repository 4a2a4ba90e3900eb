package service

import (
	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
)

// Set states derived from the per-version document aggregates.
const (
	SetAbsent     = "absent"
	SetInProgress = "in_progress"
	SetCompleted  = "completed"
)

// SetStatus classifies one version of a set. A version is complete only when
// all four documents exist and every one is completed; any other non-empty
// version counts as in progress.
func SetStatus(total, completed int) string {
	if total == 0 {
		return SetAbsent
	}
	if total == len(repository.DocumentTypes) && completed == total {
		return SetCompleted
	}
	return SetInProgress
}

// CurrentVersion picks the version a reader should see: the highest
// in-progress version wins, otherwise the latest completed one. Zero means no
// version exists yet.
func CurrentVersion(aggregates []repository.VersionAggregate) (int, string) {
	bestCompleted := 0
	bestInProgress := 0

	for _, agg := range aggregates {
		switch SetStatus(agg.Total, agg.Completed) {
		case SetCompleted:
			if agg.Version > bestCompleted {
				bestCompleted = agg.Version
			}
		case SetInProgress:
			if agg.Version > bestInProgress {
				bestInProgress = agg.Version
			}
		}
	}

	if bestInProgress > 0 {
		return bestInProgress, SetInProgress
	}
	if bestCompleted > 0 {
		return bestCompleted, SetCompleted
	}
	return 0, SetAbsent
}

// LastCompletedVersion returns the highest fully completed version, zero when
// none exists.
func LastCompletedVersion(aggregates []repository.VersionAggregate) int {
	best := 0
	for _, agg := range aggregates {
		if SetStatus(agg.Total, agg.Completed) == SetCompleted && agg.Version > best {
			best = agg.Version
		}
	}
	return best
}

// HasInProgressVersion reports whether any version of the set is still open.
func HasInProgressVersion(aggregates []repository.VersionAggregate) bool {
	for _, agg := range aggregates {
		if SetStatus(agg.Total, agg.Completed) == SetInProgress {
			return true
		}
	}
	return false
}

// HighestVersion returns the largest version number present.
func HighestVersion(aggregates []repository.VersionAggregate) int {
	best := 0
	for _, agg := range aggregates {
		if agg.Version > best {
			best = agg.Version
		}
	}
	return best
}
