// Package manager coordinates challenge execution. It owns the
// per-challenge state, enforces the single execution slot and the
// prerequisite chain, and runs admitted challenges asynchronously
// through the step runner. All state mutation happens under the
// manager's lock; observers receive snapshot copies.
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/eventlog"
	"digital.vasic.automation/pkg/logging"
	"digital.vasic.automation/pkg/metrics"
	"digital.vasic.automation/pkg/registry"
	"digital.vasic.automation/pkg/step"
)

// Manager serializes challenge execution over a single slot.
type Manager struct {
	mu     sync.Mutex
	reg    *registry.Registry
	states map[int]*challenge.State

	runner  *step.Runner
	events  *eventlog.Log
	logger  logging.Logger
	metrics metrics.Metrics

	// runTimeout bounds a single run; zero means unbounded.
	runTimeout time.Duration

	// shotDir receives error screenshots of failed runs when
	// non-empty.
	shotDir string

	// runningLevel is the level holding the execution slot, or 0
	// when the slot is free.
	runningLevel int
	cancelRun    context.CancelFunc
	done         chan struct{}
}

// New creates a manager for every challenge in the registry. The
// registry's prerequisite graph must be closed: each referenced
// level must itself be registered.
func New(
	reg *registry.Registry,
	runner *step.Runner,
	events *eventlog.Log,
	opts ...Option,
) (*Manager, error) {
	if err := reg.ValidatePrerequisites(); err != nil {
		return nil, err
	}

	m := &Manager{
		reg:     reg,
		states:  make(map[int]*challenge.State),
		runner:  runner,
		events:  events,
		logger:  logging.NewNullLogger(),
		metrics: metrics.Noop{},
	}
	for _, c := range reg.List() {
		m.states[c.Level()] = challenge.NewState(c)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// List returns a snapshot of every challenge, ordered by level.
func (m *Manager) List() []challenge.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]challenge.Snapshot, 0, len(m.states))
	for _, st := range m.states {
		out = append(out, st.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Level < out[j].Level
	})
	return out
}

// Status returns the snapshot of one challenge.
func (m *Manager) Status(level int) (challenge.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[level]
	if !ok {
		return challenge.Snapshot{}, fmt.Errorf(
			"level %d: %w", level, challenge.ErrNotFound,
		)
	}
	return st.Snapshot(), nil
}

// LastRun returns a copy of the most recent run record for a
// challenge.
func (m *Manager) LastRun(level int) (challenge.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[level]
	if !ok {
		return challenge.Run{}, fmt.Errorf(
			"level %d: %w", level, challenge.ErrNotFound,
		)
	}
	if st.LastRun == nil {
		return challenge.Run{}, fmt.Errorf(
			"level %d has no recorded runs: %w",
			level, challenge.ErrNotFound,
		)
	}

	run := *st.LastRun
	run.Steps = make([]challenge.StepOutcome, len(st.LastRun.Steps))
	copy(run.Steps, st.LastRun.Steps)
	if st.LastRun.EndTime != nil {
		end := *st.LastRun.EndTime
		run.EndTime = &end
	}
	return run, nil
}

// Events returns all events recorded strictly after the given
// time, oldest first. A zero time returns the full retained log.
func (m *Manager) Events(since time.Time) []eventlog.Event {
	return m.events.Since(since)
}

// Start admits a challenge to the execution slot and runs it
// asynchronously. Validation and the transition to running happen
// atomically: a successful return means the challenge is running
// and no competing start can be admitted until it finishes.
func (m *Manager) Start(ctx context.Context, level int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	st, ok := m.states[level]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf(
			"level %d: %w", level, challenge.ErrNotFound,
		)
	}
	if m.runningLevel == level {
		m.mu.Unlock()
		return fmt.Errorf(
			"level %d: %w", level, challenge.ErrAlreadyRunning,
		)
	}
	if m.runningLevel != 0 {
		m.mu.Unlock()
		return fmt.Errorf(
			"level %d blocked while level %d runs: %w",
			level, m.runningLevel, challenge.ErrManagerBusy,
		)
	}

	var missing []int
	for _, p := range st.Prerequisites {
		dep, ok := m.states[p]
		if !ok || dep.Status != challenge.StatusCompleted {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		m.mu.Unlock()
		return fmt.Errorf(
			"level %d requires completed levels %v: %w",
			level, missing, challenge.ErrPrerequisitesNotMet,
		)
	}

	c, err := m.reg.Get(level)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	st.Status = challenge.StatusRunning
	st.CurrentStep = 0
	st.TotalSteps = 0
	st.LastError = ""
	st.LastErrKind = ""
	st.Attempts++
	st.LastRunStart = time.Now()
	run := challenge.NewRun(level, st.Attempts)
	st.LastRun = run

	runCtx, cancel := m.newRunContext()
	m.runningLevel = level
	m.cancelRun = cancel
	done := make(chan struct{})
	m.done = done
	name := st.Name
	attempt := st.Attempts
	m.mu.Unlock()

	m.metrics.SetRunning(1)
	m.events.Append(level, eventlog.TypeStarted, fmt.Sprintf(
		"challenge %d (%s) started, attempt %d",
		level, name, attempt,
	))
	m.logger.Info("challenge started",
		logging.F("level", level),
		logging.F("name", name),
		logging.F("attempt", attempt),
		logging.F("run_id", run.ID),
	)

	go func() {
		defer cancel()
		defer close(done)
		m.execute(runCtx, c, st, run)
	}()
	return nil
}

func (m *Manager) newRunContext() (
	context.Context, context.CancelFunc,
) {
	if m.runTimeout > 0 {
		return context.WithTimeout(
			context.Background(), m.runTimeout,
		)
	}
	return context.WithCancel(context.Background())
}

// Cancel asks the in-flight run of a challenge to stop. The run
// stops between steps, never mid-action, and finishes as failed
// with a cancelled classification.
func (m *Manager) Cancel(level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[level]; !ok {
		return fmt.Errorf(
			"level %d: %w", level, challenge.ErrNotFound,
		)
	}
	if m.runningLevel != level || m.cancelRun == nil {
		return fmt.Errorf("level %d is not running", level)
	}
	m.cancelRun()
	return nil
}

// Reset returns a terminal challenge to not_started. Cumulative
// success and failure counters survive the reset.
func (m *Manager) Reset(level int) error {
	m.mu.Lock()
	st, ok := m.states[level]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf(
			"level %d: %w", level, challenge.ErrNotFound,
		)
	}
	if !st.Status.Terminal() {
		status := st.Status
		m.mu.Unlock()
		return fmt.Errorf(
			"level %d is %s: %w",
			level, status, challenge.ErrNotResettable,
		)
	}
	st.Reset()
	m.mu.Unlock()

	m.events.Append(level, eventlog.TypeReset, fmt.Sprintf(
		"challenge %d reset to %s",
		level, challenge.StatusNotStarted,
	))
	m.logger.Info("challenge reset", logging.F("level", level))
	return nil
}

// Wait blocks until the in-flight run, if any, reaches a terminal
// status.
func (m *Manager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// execute drives one run to a terminal status and releases the
// execution slot.
func (m *Manager) execute(
	ctx context.Context,
	c challenge.Challenge,
	st *challenge.State,
	run *challenge.Run,
) {
	kind, err := m.runChallenge(ctx, c, st, run)

	m.mu.Lock()
	var finalStatus challenge.Status
	if err != nil {
		finalStatus = challenge.StatusFailed
		st.Status = finalStatus
		st.FailureCount++
		st.LastError = err.Error()
		st.LastErrKind = kind
		run.Finalize(finalStatus, err.Error(), kind)
	} else {
		finalStatus = challenge.StatusCompleted
		st.Status = finalStatus
		st.SuccessCount++
		run.Finalize(finalStatus, "", "")
	}
	st.LastDuration = run.Duration()
	duration := st.LastDuration
	level := st.Level
	m.mu.Unlock()

	m.metrics.SetRunning(0)
	m.metrics.RecordRun(level, string(finalStatus), duration)

	if err != nil {
		typ := eventlog.TypeFailed
		if kind == challenge.KindCancelled {
			typ = eventlog.TypeCancelled
		}
		m.events.Append(level, typ, fmt.Sprintf(
			"challenge %d failed after %s: %s",
			level, duration.Round(time.Millisecond), err,
		))
		m.logger.Error("challenge failed",
			logging.F("level", level),
			logging.F("kind", string(kind)),
			logging.F("error", err.Error()),
			logging.F("duration", duration.String()),
		)
	} else {
		m.events.Append(level, eventlog.TypeCompleted, fmt.Sprintf(
			"challenge %d completed in %s",
			level, duration.Round(time.Millisecond),
		))
		m.logger.Info("challenge completed",
			logging.F("level", level),
			logging.F("duration", duration.String()),
		)
	}

	// The slot opens only after the terminal event is on the log,
	// so a back-to-back Start cannot place its started event ahead
	// of this run's outcome.
	m.mu.Lock()
	m.runningLevel = 0
	m.cancelRun = nil
	m.mu.Unlock()
}

// runChallenge executes precondition, steps, and postcondition,
// returning the classified terminal error for a failed run.
func (m *Manager) runChallenge(
	ctx context.Context,
	c challenge.Challenge,
	st *challenge.State,
	run *challenge.Run,
) (challenge.ErrorKind, error) {
	if err := c.Precondition(ctx); err != nil {
		err = fmt.Errorf("precondition: %w", err)
		return challenge.KindOf(err), err
	}

	specs, err := c.Steps(ctx)
	if err != nil {
		err = fmt.Errorf("building steps: %w", err)
		return challenge.KindOf(err), err
	}

	level := st.Level
	m.mu.Lock()
	st.TotalSteps = len(specs)
	m.mu.Unlock()

	var lastShot *desktop.Screenshot
	for i, spec := range specs {
		// Cancellation is honored between steps only.
		if ctxErr := ctx.Err(); ctxErr != nil {
			m.markSkipped(run, specs, i)
			err := fmt.Errorf(
				"%w before step %d/%d: %v",
				challenge.ErrCancelled, i+1, len(specs), ctxErr,
			)
			return challenge.KindCancelled, err
		}

		outcome, shot := m.runner.Run(ctx, level, i, spec)
		if shot != nil {
			lastShot = shot
		}

		m.mu.Lock()
		run.Steps = append(run.Steps, outcome)
		if outcome.Outcome == challenge.OutcomeSucceeded {
			st.CurrentStep = i + 1
		}
		m.mu.Unlock()

		if outcome.Outcome != challenge.OutcomeSucceeded {
			m.saveErrorShot(level, lastShot)
			m.markSkipped(run, specs, i+1)
			m.events.Append(level, eventlog.TypeStep,
				fmt.Sprintf(
					"step %d/%d failed: %s",
					i+1, len(specs), outcome.Error,
				))
			kind := outcome.Kind
			if kind == "" {
				kind = challenge.KindUnknown
			}
			return kind, fmt.Errorf(
				"step %d/%d (%s): %s",
				i+1, len(specs), spec.Intent, outcome.Error,
			)
		}

		m.events.Append(level, eventlog.TypeStep, fmt.Sprintf(
			"step %d/%d completed (%s)",
			i+1, len(specs), spec.Intent,
		))
	}

	// The postcondition judges the final observed state. Reuse
	// the last screenshot when one exists, otherwise observe.
	if lastShot == nil {
		shot, obsErr := m.runner.Observe(ctx)
		if obsErr == nil {
			lastShot = shot
		}
	}
	if err := c.Postcondition(ctx, lastShot); err != nil {
		m.saveErrorShot(level, lastShot)
		err = fmt.Errorf("postcondition: %w", err)
		kind := challenge.KindOf(err)
		if kind == challenge.KindUnknown {
			kind = challenge.KindVerificationMismatch
		}
		return kind, err
	}
	return "", nil
}

// saveErrorShot keeps the last observation of a failed run for
// later diagnosis.
func (m *Manager) saveErrorShot(
	level int, shot *desktop.Screenshot,
) {
	if m.shotDir == "" || shot == nil {
		return
	}
	path, err := desktop.SaveScreenshot(
		m.shotDir, fmt.Sprintf("level%d_error", level), shot,
	)
	if err != nil {
		m.logger.Warn("saving error screenshot failed",
			logging.F("level", level),
			logging.F("error", err.Error()),
		)
		return
	}
	m.logger.Info("error screenshot saved",
		logging.F("level", level),
		logging.F("path", path),
	)
}

// markSkipped records the steps a failed or cancelled run never
// reached.
func (m *Manager) markSkipped(
	run *challenge.Run,
	specs []challenge.Spec,
	from int,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := from; i < len(specs); i++ {
		run.Steps = append(run.Steps, challenge.StepOutcome{
			Index:   i,
			Intent:  specs[i].Intent,
			Query:   specs[i].Query,
			Outcome: challenge.OutcomeSkipped,
		})
	}
}
