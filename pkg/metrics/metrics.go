// Package metrics records orchestration metrics in memory:
// challenge runs, step attempts, and oracle calls. Real
// Prometheus integration is done by the host application.
package metrics

import "time"

// Metrics defines the interface for recording orchestration
// metrics.
type Metrics interface {
	// RecordRun records a finished challenge run.
	RecordRun(level int, status string, duration time.Duration)

	// RecordStepAttempt records one step attempt and whether it
	// succeeded.
	RecordStepAttempt(level int, succeeded bool)

	// RecordOracleCall records one oracle round trip.
	RecordOracleCall(ok bool, latency time.Duration)

	// SetRunning sets the gauge of currently running
	// challenges (0 or 1 under the single execution slot).
	SetRunning(count int)
}

// Noop is a no-op implementation of Metrics, useful when
// collection is disabled and in tests.
type Noop struct{}

func (Noop) RecordRun(_ int, _ string, _ time.Duration) {}
func (Noop) RecordStepAttempt(_ int, _ bool)            {}
func (Noop) RecordOracleCall(_ bool, _ time.Duration)   {}
func (Noop) SetRunning(_ int)                           {}
