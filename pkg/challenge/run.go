package challenge

import (
	"time"

	"github.com/google/uuid"
)

// Run records one execution attempt of a challenge. It is
// created when the manager admits the challenge to the execution
// slot and finalized exactly once when the attempt reaches a
// terminal status.
type Run struct {
	// ID uniquely identifies this run.
	ID string `json:"id"`

	// Level is the challenge this run belongs to.
	Level int `json:"level"`

	// Attempt is the monotonically increasing attempt counter
	// for the challenge.
	Attempt int `json:"attempt"`

	// StartTime and EndTime bound the attempt.
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Status is the final status, completed or failed; running
	// until finalized.
	Status Status `json:"status"`

	// Steps holds the outcome of every step attempted during
	// this run.
	Steps []StepOutcome `json:"steps"`

	// Error is the terminal error message for failed runs.
	Error string `json:"error,omitempty"`

	// Kind classifies the terminal error.
	Kind ErrorKind `json:"kind,omitempty"`
}

// NewRun creates a run in the running state.
func NewRun(level, attempt int) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Level:     level,
		Attempt:   attempt,
		StartTime: time.Now(),
		Status:    StatusRunning,
	}
}

// Finalize stamps the terminal status. Calling it on an already
// finalized run is a no-op; a Run is never mutated after its end
// time is set.
func (r *Run) Finalize(status Status, errMsg string, kind ErrorKind) {
	if r.EndTime != nil {
		return
	}
	now := time.Now()
	r.EndTime = &now
	r.Status = status
	r.Error = errMsg
	r.Kind = kind
}

// Duration returns the wall-clock length of the run, or the
// elapsed time so far if it is still running.
func (r *Run) Duration() time.Duration {
	if r.EndTime == nil {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
