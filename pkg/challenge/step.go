package challenge

import (
	"context"
	"fmt"

	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/vision"
)

// Step outcome values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// ActionFunc translates an accepted oracle answer into primitive
// input events. It returns a short description of the action for
// the audit trail.
type ActionFunc func(
	ctx context.Context,
	exec desktop.Executor,
	ans *vision.Answer,
) (string, error)

// LocalFunc is the action of a step that does not observe the
// screen (environment probes, file checks). It returns a short
// description of what was done.
type LocalFunc func(ctx context.Context) (string, error)

// CheckFunc is a local verification predicate evaluated after
// the action and settle delay. A non-nil error means the
// expected post-state was not observed.
type CheckFunc func(ctx context.Context) error

// Spec describes one perceive-act-verify cycle. Exactly one of
// Query (vision-guided) or Do (local) drives the act phase.
type Spec struct {
	// Intent is the human-readable purpose of the step.
	Intent string

	// Query is the natural-language locate query sent to the
	// oracle with a screenshot. Empty means a local step: Do
	// runs without perception.
	Query string

	// MinConfidence overrides the runner's confidence threshold
	// for this step when > 0.
	MinConfidence float64

	// Act converts the accepted oracle answer into primitive
	// actions. Defaults to ClickAnswer when Query is set.
	Act ActionFunc

	// Do is the action of a local step (Query empty).
	Do LocalFunc

	// Verify is the natural-language judgment query evaluated
	// against a fresh screenshot after the settle delay. Empty
	// skips oracle verification.
	Verify string

	// Check is a local verification predicate, evaluated after
	// oracle verification (if any). Both empty means action
	// success alone completes the step.
	Check CheckFunc
}

// Local reports whether the step runs without oracle perception.
func (s *Spec) Local() bool { return s.Query == "" }

// StepOutcome records one step's terminal result and its full
// decision trail.
type StepOutcome struct {
	// Index is the zero-based position within the run.
	Index int `json:"index"`

	// Intent is the step's human-readable purpose.
	Intent string `json:"intent"`

	// Query is the locate query sent, empty for local steps.
	Query string `json:"query,omitempty"`

	// Answer is the last oracle answer received, if any.
	Answer *vision.Answer `json:"answer,omitempty"`

	// Action describes the primitive action taken.
	Action string `json:"action,omitempty"`

	// Attempts is how many attempts were consumed (bounded by
	// the configured retry limit).
	Attempts int `json:"attempts"`

	// Outcome is succeeded, failed, or skipped.
	Outcome string `json:"outcome"`

	// Error is the last error message for failed steps.
	Error string `json:"error,omitempty"`

	// Kind classifies the failure.
	Kind ErrorKind `json:"kind,omitempty"`
}

// WaitFor returns a verification-only Spec: no action, just the
// oracle judging whether the described state is visible. Combined
// with the runner's retry budget and settle delay this polls for
// the state to appear.
func WaitFor(intent, state string) Spec {
	return Spec{Intent: intent, Verify: state}
}

// ClickAnswer is the default ActionFunc: click the coordinates
// the oracle returned.
func ClickAnswer(
	ctx context.Context,
	exec desktop.Executor,
	ans *vision.Answer,
) (string, error) {
	if err := exec.MoveAndClick(ctx, ans.X, ans.Y); err != nil {
		return "", err
	}
	return fmt.Sprintf("click (%d, %d)", ans.X, ans.Y), nil
}

// TypeText returns an ActionFunc that clicks the located element
// and types the given text into it.
func TypeText(text string) ActionFunc {
	return func(
		ctx context.Context,
		exec desktop.Executor,
		ans *vision.Answer,
	) (string, error) {
		if err := exec.MoveAndClick(ctx, ans.X, ans.Y); err != nil {
			return "", err
		}
		if err := exec.TypeText(ctx, text); err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"click (%d, %d) and type %d chars",
			ans.X, ans.Y, len(text),
		), nil
	}
}

// PressKey returns an ActionFunc that ignores the answer
// coordinates and presses the given key. Use with a locate query
// that confirms the right window has focus.
func PressKey(key string) ActionFunc {
	return func(
		ctx context.Context,
		exec desktop.Executor,
		_ *vision.Answer,
	) (string, error) {
		if err := exec.KeyPress(ctx, key); err != nil {
			return "", err
		}
		return "press " + key, nil
	}
}
