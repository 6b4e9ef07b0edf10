// Package step executes single perceive-act-verify cycles with
// bounded retries and backoff. The runner queries the vision
// oracle, derives a primitive action, executes it, waits for the
// desktop to settle, re-observes, and verifies. Every attempt is
// recorded in the event log so the full decision trail is
// auditable.
package step

import (
	"context"
	"fmt"
	"time"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/eventlog"
	"digital.vasic.automation/pkg/logging"
	"digital.vasic.automation/pkg/metrics"
	"digital.vasic.automation/pkg/vision"
)

// Defaults for the retry policy.
const (
	DefaultMaxRetries     = 3
	DefaultMinConfidence  = 0.6
	DefaultSettleDelay    = 1 * time.Second
	DefaultBackoffBase    = 500 * time.Millisecond
	DefaultBackoffCeiling = 8 * time.Second
)

// Runner executes step specifications against the oracle and
// the desktop.
type Runner struct {
	oracle  vision.Oracle
	exec    desktop.Executor
	events  *eventlog.Log
	logger  logging.Logger
	metrics metrics.Metrics

	maxRetries     int
	minConfidence  float64
	settleDelay    time.Duration
	backoffBase    time.Duration
	backoffCeiling time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxRetries sets the attempt budget per step.
func WithMaxRetries(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithMinConfidence sets the default confidence threshold below
// which oracle answers are rejected as soft failures.
func WithMinConfidence(c float64) Option {
	return func(r *Runner) { r.minConfidence = c }
}

// WithSettleDelay sets the fixed wait between an action and its
// verification observation.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Runner) { r.settleDelay = d }
}

// WithBackoff sets the retry backoff base and ceiling.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(r *Runner) {
		if base > 0 {
			r.backoffBase = base
		}
		if ceiling > 0 {
			r.backoffCeiling = ceiling
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder for oracle calls and
// step attempts.
func WithMetrics(m metrics.Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRunner creates a step runner using the given oracle,
// executor, and event log.
func NewRunner(
	oracle vision.Oracle,
	exec desktop.Executor,
	events *eventlog.Log,
	opts ...Option,
) *Runner {
	r := &Runner{
		oracle:         oracle,
		exec:           exec,
		events:         events,
		logger:         logging.NewNullLogger(),
		metrics:        metrics.Noop{},
		maxRetries:     DefaultMaxRetries,
		minConfidence:  DefaultMinConfidence,
		settleDelay:    DefaultSettleDelay,
		backoffBase:    DefaultBackoffBase,
		backoffCeiling: DefaultBackoffCeiling,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe captures a fresh screenshot of the desktop.
func (r *Runner) Observe(
	ctx context.Context,
) (*desktop.Screenshot, error) {
	return r.exec.CaptureScreenshot(ctx)
}

// Run executes one step with bounded retries. It returns the
// step's terminal outcome and the last screenshot captured, if
// any. Cancellation is honored at the top of each retry
// iteration, never mid-attempt.
func (r *Runner) Run(
	ctx context.Context,
	level, index int,
	spec challenge.Spec,
) (challenge.StepOutcome, *desktop.Screenshot) {
	outcome := challenge.StepOutcome{
		Index:  index,
		Intent: spec.Intent,
		Query:  spec.Query,
	}

	var lastShot *desktop.Screenshot
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf(
				"%w: %v", challenge.ErrCancelled, err,
			)
			r.emitAttempt(level, index, attempt, spec, lastErr)
			outcome.Attempts = attempt - 1
			return r.fail(outcome, lastErr), lastShot
		}

		if attempt > 1 {
			delay := backoffDelay(
				r.backoffBase, r.backoffCeiling, attempt-1,
			)
			if err := sleep(ctx, delay); err != nil {
				lastErr = fmt.Errorf(
					"%w: %v", challenge.ErrCancelled, err,
				)
				outcome.Attempts = attempt - 1
				return r.fail(outcome, lastErr), lastShot
			}
		}

		outcome.Attempts = attempt
		shot, err := r.attempt(ctx, spec, &outcome)
		if shot != nil {
			lastShot = shot
		}
		r.metrics.RecordStepAttempt(level, err == nil)
		r.emitAttempt(level, index, attempt, spec, err)

		if err == nil {
			outcome.Outcome = challenge.OutcomeSucceeded
			r.logger.Debug(
				"step succeeded",
				logging.F("level", level),
				logging.F("step", index),
				logging.F("attempts", attempt),
			)
			return outcome, lastShot
		}
		lastErr = err
	}

	return r.fail(outcome, lastErr), lastShot
}

// attempt performs a single perceive-act-verify cycle.
func (r *Runner) attempt(
	ctx context.Context,
	spec challenge.Spec,
	outcome *challenge.StepOutcome,
) (*desktop.Screenshot, error) {
	var lastShot *desktop.Screenshot

	if spec.Local() {
		if spec.Do != nil {
			desc, err := spec.Do(ctx)
			if err != nil {
				return nil, err
			}
			outcome.Action = desc
		}
	} else {
		shot, err := r.exec.CaptureScreenshot(ctx)
		if err != nil {
			return nil, err
		}
		lastShot = shot

		callStart := time.Now()
		ans, err := r.oracle.Locate(ctx, shot, spec.Query)
		r.metrics.RecordOracleCall(
			err == nil, time.Since(callStart),
		)
		if err != nil {
			return lastShot, err
		}
		outcome.Answer = ans

		threshold := r.minConfidence
		if spec.MinConfidence > 0 {
			threshold = spec.MinConfidence
		}
		if !ans.Found {
			return lastShot, fmt.Errorf(
				"%w: element not found: %q",
				challenge.ErrLowConfidence, spec.Query,
			)
		}
		if ans.Confidence < threshold {
			return lastShot, fmt.Errorf(
				"%w: confidence %.2f below threshold %.2f for %q",
				challenge.ErrLowConfidence,
				ans.Confidence, threshold, spec.Query,
			)
		}

		act := spec.Act
		if act == nil {
			act = challenge.ClickAnswer
		}
		desc, err := act(ctx, r.exec, ans)
		if err != nil {
			return lastShot, err
		}
		outcome.Action = desc
	}

	// Let the desktop settle before re-observing.
	if spec.Verify != "" || spec.Check != nil {
		if err := sleep(ctx, r.settleDelay); err != nil {
			return lastShot, fmt.Errorf(
				"%w: %v", challenge.ErrCancelled, err,
			)
		}
	}

	if spec.Verify != "" {
		shot, err := r.exec.CaptureScreenshot(ctx)
		if err != nil {
			return lastShot, err
		}
		lastShot = shot

		callStart := time.Now()
		judgment, err := r.oracle.Judge(ctx, shot, spec.Verify)
		r.metrics.RecordOracleCall(
			err == nil, time.Since(callStart),
		)
		if err != nil {
			return lastShot, err
		}

		threshold := r.minConfidence
		if spec.MinConfidence > 0 {
			threshold = spec.MinConfidence
		}
		if !judgment.Matches ||
			judgment.Confidence < threshold {
			return lastShot, fmt.Errorf(
				"%w: wanted %q, observed %q (confidence %.2f)",
				challenge.ErrVerificationMismatch,
				spec.Verify, judgment.Description,
				judgment.Confidence,
			)
		}
	}

	if spec.Check != nil {
		if err := spec.Check(ctx); err != nil {
			return lastShot, fmt.Errorf(
				"%w: %v",
				challenge.ErrVerificationMismatch, err,
			)
		}
	}

	return lastShot, nil
}

// fail finalizes a failed outcome with the last error.
func (r *Runner) fail(
	outcome challenge.StepOutcome, err error,
) challenge.StepOutcome {
	outcome.Outcome = challenge.OutcomeFailed
	if err != nil {
		outcome.Error = err.Error()
		outcome.Kind = challenge.KindOf(err)
	}
	return outcome
}

// emitAttempt appends the audit event for one attempt.
func (r *Runner) emitAttempt(
	level, index, attempt int,
	spec challenge.Spec,
	err error,
) {
	if r.events == nil {
		return
	}
	msg := fmt.Sprintf(
		"step %d attempt %d/%d (%s)",
		index+1, attempt, r.maxRetries, spec.Intent,
	)
	if err != nil {
		r.events.Append(
			level, eventlog.TypeStepAttempt,
			msg+": "+err.Error(),
		)
		return
	}
	r.events.Append(
		level, eventlog.TypeStepAttempt, msg+": ok",
	)
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
