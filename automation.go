// Package automation assembles the orchestration stack: vision
// oracle, desktop executor, step runner, challenge ladder,
// manager, and monitor, wired together from configuration.
package automation

import (
	"context"
	"path/filepath"

	"digital.vasic.automation/pkg/challenges"
	"digital.vasic.automation/pkg/config"
	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/eventlog"
	"digital.vasic.automation/pkg/logging"
	"digital.vasic.automation/pkg/manager"
	"digital.vasic.automation/pkg/metrics"
	"digital.vasic.automation/pkg/monitor"
	"digital.vasic.automation/pkg/report"
	"digital.vasic.automation/pkg/step"
	"digital.vasic.automation/pkg/vision"
)

// System is the assembled orchestration stack.
type System struct {
	Config   config.Config
	Events   *eventlog.Log
	Manager  *manager.Manager
	Monitor  *monitor.Server
	Reporter *report.JSONReporter
	Metrics  *metrics.InMemory
}

// New builds a System from configuration. A nil logger disables
// logging.
func New(
	cfg config.Config, logger logging.Logger,
) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	events := eventlog.New(cfg.EventCapacity)
	rec := metrics.NewInMemory()

	oracle := vision.NewHTTPOracle(
		cfg.Oracle.URL,
		vision.WithAPIKey(cfg.Oracle.APIKey),
		vision.WithTimeout(cfg.Oracle.Timeout.Std()),
	)
	exec := desktop.NewXdotoolExecutor(
		desktop.WithDisplay(cfg.Display),
		desktop.WithExecutorLogger(logger),
	)
	runner := step.NewRunner(
		oracle, exec, events,
		step.WithMaxRetries(cfg.Steps.MaxRetries),
		step.WithMinConfidence(cfg.Steps.MinConfidence),
		step.WithSettleDelay(cfg.Steps.SettleDelay.Std()),
		step.WithBackoff(
			cfg.Steps.BackoffBase.Std(),
			cfg.Steps.BackoffCeiling.Std(),
		),
		step.WithLogger(logger),
		step.WithMetrics(rec),
	)

	reg, err := challenges.NewRegistry(
		challenges.Target{
			Name:    cfg.Target.Name,
			Command: cfg.Target.Command,
		},
		cfg.ResultsDir,
	)
	if err != nil {
		return nil, err
	}

	mgr, err := manager.New(
		reg, runner, events,
		manager.WithLogger(logger),
		manager.WithMetrics(rec),
		manager.WithRunTimeout(cfg.RunTimeout.Std()),
		manager.WithErrorScreenshotDir(cfg.ScreenshotDir),
	)
	if err != nil {
		return nil, err
	}

	reporter := report.NewJSONReporter(
		filepath.Join(cfg.ResultsDir, "reports"), true,
	)

	// Persist the run report and a refreshed ladder summary every
	// time a run reaches a terminal status. The handler runs in the
	// finishing run's goroutine, after the manager has released its
	// lock, so calling back into it is safe.
	events.OnEvent(func(ev eventlog.Event) {
		switch ev.Type {
		case eventlog.TypeCompleted, eventlog.TypeFailed,
			eventlog.TypeCancelled:
		default:
			return
		}
		if run, err := mgr.LastRun(ev.Level); err == nil {
			if _, err := reporter.SaveRunReport(run); err != nil {
				logger.Warn("saving run report failed",
					logging.F("level", ev.Level),
					logging.F("error", err.Error()),
				)
			}
		}
		if _, err := reporter.SaveSummary(mgr.List()); err != nil {
			logger.Warn("saving ladder summary failed",
				logging.F("error", err.Error()),
			)
		}
	})

	sys := &System{
		Config:   cfg,
		Events:   events,
		Manager:  mgr,
		Reporter: reporter,
		Metrics:  rec,
	}
	if cfg.Monitor.Enabled {
		sys.Monitor = monitor.NewServer(
			cfg.Monitor.Addr, mgr, events,
			monitor.WithServerLogger(logger),
		)
	}
	return sys, nil
}

// Serve runs the monitor until the context is cancelled. It
// returns immediately when monitoring is disabled.
func (s *System) Serve(ctx context.Context) error {
	if s.Monitor == nil {
		return nil
	}
	return s.Monitor.Start(ctx)
}
