package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
)

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		completed int
		want      string
	}{
		{"no documents", 0, 0, SetAbsent},
		{"all four completed", 4, 4, SetCompleted},
		{"partially completed", 4, 2, SetInProgress},
		{"full set untouched", 4, 0, SetInProgress},
		{"incomplete set all done", 3, 3, SetInProgress},
		{"single document", 1, 1, SetInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SetStatus(tt.total, tt.completed))
		})
	}
}

func agg(version, total, completed int) repository.VersionAggregate {
	return repository.VersionAggregate{Version: version, Total: total, Completed: completed}
}

func TestCurrentVersion(t *testing.T) {
	tests := []struct {
		name        string
		aggregates  []repository.VersionAggregate
		wantVersion int
		wantStatus  string
	}{
		{
			name:        "nothing yet",
			aggregates:  nil,
			wantVersion: 0,
			wantStatus:  SetAbsent,
		},
		{
			name:        "single open version",
			aggregates:  []repository.VersionAggregate{agg(1, 4, 1)},
			wantVersion: 1,
			wantStatus:  SetInProgress,
		},
		{
			name:        "completed only",
			aggregates:  []repository.VersionAggregate{agg(1, 4, 4), agg(2, 4, 4)},
			wantVersion: 2,
			wantStatus:  SetCompleted,
		},
		{
			name:        "open draft wins over older completed",
			aggregates:  []repository.VersionAggregate{agg(1, 4, 4), agg(2, 4, 0)},
			wantVersion: 2,
			wantStatus:  SetInProgress,
		},
		{
			name:        "open draft wins even below a completed version",
			aggregates:  []repository.VersionAggregate{agg(1, 4, 2), agg(2, 4, 4)},
			wantVersion: 1,
			wantStatus:  SetInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, status := CurrentVersion(tt.aggregates)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestLastCompletedVersion(t *testing.T) {
	assert.Equal(t, 0, LastCompletedVersion(nil))
	assert.Equal(t, 0, LastCompletedVersion([]repository.VersionAggregate{agg(1, 4, 3)}))
	assert.Equal(t, 3, LastCompletedVersion([]repository.VersionAggregate{
		agg(1, 4, 4), agg(2, 4, 2), agg(3, 4, 4),
	}))
}

func TestHasInProgressVersion(t *testing.T) {
	assert.False(t, HasInProgressVersion(nil))
	assert.False(t, HasInProgressVersion([]repository.VersionAggregate{agg(1, 4, 4)}))
	assert.True(t, HasInProgressVersion([]repository.VersionAggregate{agg(1, 4, 4), agg(2, 4, 1)}))
}
