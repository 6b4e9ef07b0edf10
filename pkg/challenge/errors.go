package challenge

import (
	"errors"

	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/vision"
)

// ErrorKind classifies a failure for dashboards and metrics.
type ErrorKind string

const (
	KindOracleTimeout           ErrorKind = "oracle_timeout"
	KindOracleMalformedResponse ErrorKind = "oracle_malformed_response"
	KindOracleLowConfidence     ErrorKind = "oracle_low_confidence"
	KindActionExecutionFailed   ErrorKind = "action_execution_failed"
	KindVerificationMismatch    ErrorKind = "verification_mismatch"
	KindPrerequisitesNotMet     ErrorKind = "prerequisites_not_met"
	KindAlreadyRunning          ErrorKind = "already_running"
	KindManagerBusy             ErrorKind = "manager_busy"
	KindNotFound                ErrorKind = "not_found"
	KindCancelled               ErrorKind = "cancelled"
	KindUnknown                 ErrorKind = "unknown"
)

// Sentinel errors for manager-level rejections and step-level
// terminal failures. Wrap with fmt.Errorf and %w to add context.
var (
	// ErrNotFound marks an unregistered challenge level.
	ErrNotFound = errors.New("challenge not found")

	// ErrAlreadyRunning marks a start call on a challenge that
	// is already running.
	ErrAlreadyRunning = errors.New("challenge already running")

	// ErrManagerBusy marks a start call while another challenge
	// holds the execution slot.
	ErrManagerBusy = errors.New("another challenge is running")

	// ErrPrerequisitesNotMet marks a start call whose
	// prerequisite challenges are not all completed.
	ErrPrerequisitesNotMet = errors.New("prerequisites not met")

	// ErrNotResettable marks a reset call on a challenge that
	// is not in a terminal state.
	ErrNotResettable = errors.New(
		"challenge can only be reset from a terminal state",
	)

	// ErrCancelled marks a run aborted by an operator between
	// steps.
	ErrCancelled = errors.New("run cancelled")

	// ErrLowConfidence marks an oracle answer rejected because
	// its confidence fell below the configured threshold.
	ErrLowConfidence = errors.New(
		"oracle answer below confidence threshold",
	)

	// ErrVerificationMismatch marks an executed action whose
	// expected post-state was not observed.
	ErrVerificationMismatch = errors.New(
		"verification mismatch: expected state not observed",
	)
)

// KindOf maps an error onto the taxonomy. Transport failures
// before any oracle response behave like timeouts: both are
// transient and retried the same way.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrLowConfidence):
		return KindOracleLowConfidence
	case errors.Is(err, ErrVerificationMismatch):
		return KindVerificationMismatch
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyRunning):
		return KindAlreadyRunning
	case errors.Is(err, ErrManagerBusy):
		return KindManagerBusy
	case errors.Is(err, ErrPrerequisitesNotMet):
		return KindPrerequisitesNotMet
	case errors.Is(err, vision.ErrTimeout),
		errors.Is(err, vision.ErrUnavailable):
		return KindOracleTimeout
	case errors.Is(err, vision.ErrMalformedResponse):
		return KindOracleMalformedResponse
	case errors.Is(err, desktop.ErrActionFailed):
		return KindActionExecutionFailed
	default:
		return KindUnknown
	}
}
