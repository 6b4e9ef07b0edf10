package challenge

// Status is the execution state of a challenge.
type Status string

// Challenge states. The only legal transitions are
// not_started -> running -> {completed, failed}, plus
// {completed, failed} -> not_started via reset.
const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusNotStarted:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return next == StatusNotStarted
	default:
		return false
	}
}
