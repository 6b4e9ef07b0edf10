// Package monitor exposes orchestration state over HTTP: a JSON
// dashboard and a WebSocket feed that mirrors the event log to
// connected clients.
package monitor

import (
	"time"

	"digital.vasic.automation/pkg/challenge"
)

// Summary holds aggregate ladder statistics.
type Summary struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	Running        int     `json:"running"`
	NotStarted     int     `json:"not_started"`
	CompletionRate float64 `json:"completion_rate"`

	// NextLevel is the lowest incomplete level whose
	// prerequisites are all completed, 0 when the ladder is done
	// or blocked.
	NextLevel int `json:"next_level,omitempty"`
}

// Dashboard is the full state snapshot served to clients.
type Dashboard struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Challenges  []challenge.Snapshot `json:"challenges"`
	Summary     Summary              `json:"summary"`
}

// BuildDashboard aggregates challenge snapshots into a dashboard.
func BuildDashboard(snaps []challenge.Snapshot) Dashboard {
	completed := make(map[int]bool, len(snaps))
	s := Summary{Total: len(snaps)}
	for _, snap := range snaps {
		switch snap.Status {
		case challenge.StatusCompleted:
			s.Completed++
			completed[snap.Level] = true
		case challenge.StatusFailed:
			s.Failed++
		case challenge.StatusRunning:
			s.Running++
		default:
			s.NotStarted++
		}
	}
	if s.Total > 0 {
		s.CompletionRate =
			float64(s.Completed) / float64(s.Total) * 100
	}

	for _, snap := range snaps {
		if snap.Status == challenge.StatusCompleted {
			continue
		}
		eligible := true
		for _, p := range snap.Prerequisites {
			if !completed[p] {
				eligible = false
				break
			}
		}
		if eligible {
			s.NextLevel = snap.Level
			break
		}
	}

	return Dashboard{
		GeneratedAt: time.Now(),
		Challenges:  snaps,
		Summary:     s,
	}
}
