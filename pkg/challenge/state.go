package challenge

import "time"

// State is the mutable bookkeeping for one registered challenge.
// It is owned by the manager and mutated only inside its single
// execution path; external observers receive Snapshot copies.
type State struct {
	Level         int
	Name          string
	Description   string
	Prerequisites []int

	Status       Status
	CurrentStep  int
	TotalSteps   int
	SuccessCount int
	FailureCount int
	Attempts     int

	LastRunStart time.Time
	LastError    string
	LastErrKind  ErrorKind
	LastDuration time.Duration

	// LastRun is the summary of the most recent run; detailed
	// step history is discarded with it when a new run starts,
	// keeping memory bounded.
	LastRun *Run
}

// NewState creates the initial bookkeeping for a challenge.
func NewState(c Challenge) *State {
	prereqs := c.Prerequisites()
	if prereqs == nil {
		prereqs = []int{}
	}
	return &State{
		Level:         c.Level(),
		Name:          c.Name(),
		Description:   c.Description(),
		Prerequisites: prereqs,
		Status:        StatusNotStarted,
	}
}

// Reset returns the state to not_started, clearing step index
// and error but keeping the cumulative counters: they are
// historical.
func (s *State) Reset() {
	s.Status = StatusNotStarted
	s.CurrentStep = 0
	s.TotalSteps = 0
	s.LastError = ""
	s.LastErrKind = ""
	s.LastRun = nil
}

// Snapshot is a read-only copy of a challenge's current
// attributes, safe to hand to dashboards.
type Snapshot struct {
	Level         int           `json:"level"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Prerequisites []int         `json:"prerequisites"`
	Status        Status        `json:"status"`
	CurrentStep   int           `json:"current_step"`
	TotalSteps    int           `json:"total_steps"`
	SuccessCount  int           `json:"success_count"`
	FailureCount  int           `json:"failure_count"`
	LastRunStart  *time.Time    `json:"last_run_start,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastErrKind   ErrorKind     `json:"last_error_kind,omitempty"`
	LastDuration  time.Duration `json:"last_duration,omitempty"`
}

// Progress returns step completion as a fraction in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.TotalSteps == 0 {
		if s.Status == StatusCompleted {
			return 1
		}
		return 0
	}
	return float64(s.CurrentStep) / float64(s.TotalSteps)
}

// Snapshot copies the state's current attributes.
func (s *State) Snapshot() Snapshot {
	prereqs := make([]int, len(s.Prerequisites))
	copy(prereqs, s.Prerequisites)

	snap := Snapshot{
		Level:         s.Level,
		Name:          s.Name,
		Description:   s.Description,
		Prerequisites: prereqs,
		Status:        s.Status,
		CurrentStep:   s.CurrentStep,
		TotalSteps:    s.TotalSteps,
		SuccessCount:  s.SuccessCount,
		FailureCount:  s.FailureCount,
		LastError:     s.LastError,
		LastErrKind:   s.LastErrKind,
		LastDuration:  s.LastDuration,
	}
	if !s.LastRunStart.IsZero() {
		t := s.LastRunStart
		snap.LastRunStart = &t
	}
	return snap
}
