package manager

import (
	"time"

	"digital.vasic.automation/pkg/logging"
	"digital.vasic.automation/pkg/metrics"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder for runs and the running
// gauge.
func WithMetrics(rec metrics.Metrics) Option {
	return func(m *Manager) {
		if rec != nil {
			m.metrics = rec
		}
	}
}

// WithErrorScreenshotDir stores the final observation of every
// failed run as a PNG under dir. Empty disables capture.
func WithErrorScreenshotDir(dir string) Option {
	return func(m *Manager) { m.shotDir = dir }
}

// WithRunTimeout bounds the wall-clock time of a single run. A
// run exceeding it stops between steps and finishes as failed
// with a cancelled classification. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.runTimeout = d
		}
	}
}
