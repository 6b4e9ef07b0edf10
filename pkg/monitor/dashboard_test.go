package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"digital.vasic.automation/pkg/challenge"
)

func TestBuildDashboard_Summary(t *testing.T) {
	snaps := []challenge.Snapshot{
		{Level: 1, Status: challenge.StatusCompleted},
		{
			Level:         2,
			Status:        challenge.StatusFailed,
			Prerequisites: []int{1},
		},
		{
			Level:         3,
			Status:        challenge.StatusNotStarted,
			Prerequisites: []int{1, 2},
		},
	}

	d := BuildDashboard(snaps)
	assert.Equal(t, 3, d.Summary.Total)
	assert.Equal(t, 1, d.Summary.Completed)
	assert.Equal(t, 1, d.Summary.Failed)
	assert.Equal(t, 1, d.Summary.NotStarted)
	assert.InDelta(t, 100.0/3, d.Summary.CompletionRate, 0.01)

	// Level 2 is the lowest incomplete level whose
	// prerequisites are satisfied.
	assert.Equal(t, 2, d.Summary.NextLevel)
	assert.False(t, d.GeneratedAt.IsZero())
}

func TestBuildDashboard_NextLevelBlocked(t *testing.T) {
	snaps := []challenge.Snapshot{
		{Level: 1, Status: challenge.StatusCompleted},
		{
			Level:         2,
			Status:        challenge.StatusCompleted,
			Prerequisites: []int{1},
		},
	}
	d := BuildDashboard(snaps)
	assert.Equal(t, 100.0, d.Summary.CompletionRate)
	assert.Zero(t, d.Summary.NextLevel)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard(nil)
	assert.Zero(t, d.Summary.Total)
	assert.Zero(t, d.Summary.CompletionRate)
}
