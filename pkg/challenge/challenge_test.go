package challenge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/vision"
)

// stubChallenge implements Challenge for state tests.
type stubChallenge struct {
	Base
}

func newStubChallenge(level int, prereqs []int) *stubChallenge {
	return &stubChallenge{
		Base: NewBase(
			level,
			fmt.Sprintf("Challenge %d", level),
			"a stub challenge",
			prereqs,
		),
	}
}

func (s *stubChallenge) Steps(
	_ context.Context,
) ([]Spec, error) {
	return []Spec{{Intent: "noop", Do: func(
		_ context.Context,
	) (string, error) {
		return "noop", nil
	}}}, nil
}

func TestStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusNotStarted, StatusRunning, true},
		{StatusNotStarted, StatusCompleted, false},
		{StatusNotStarted, StatusFailed, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusNotStarted, false},
		{StatusCompleted, StatusNotStarted, true},
		{StatusFailed, StatusNotStarted, true},
		{StatusCompleted, StatusRunning, false},
		{StatusFailed, StatusRunning, false},
	}

	for _, tc := range cases {
		t.Run(
			string(tc.from)+"->"+string(tc.to),
			func(t *testing.T) {
				assert.Equal(
					t, tc.ok,
					tc.from.CanTransition(tc.to),
				)
			},
		)
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusNotStarted.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"nil", nil, ""},
		{"cancelled", ErrCancelled, KindCancelled},
		{
			"low confidence wrapped",
			fmt.Errorf("step 2: %w", ErrLowConfidence),
			KindOracleLowConfidence,
		},
		{
			"verification",
			ErrVerificationMismatch,
			KindVerificationMismatch,
		},
		{"not found", ErrNotFound, KindNotFound},
		{"busy", ErrManagerBusy, KindManagerBusy},
		{
			"already running",
			ErrAlreadyRunning,
			KindAlreadyRunning,
		},
		{
			"prereqs",
			ErrPrerequisitesNotMet,
			KindPrerequisitesNotMet,
		},
		{"oracle timeout", vision.ErrTimeout, KindOracleTimeout},
		{
			"oracle unavailable",
			vision.ErrUnavailable,
			KindOracleTimeout,
		},
		{
			"oracle malformed",
			vision.ErrMalformedResponse,
			KindOracleMalformedResponse,
		},
		{
			"action failed",
			desktop.ErrActionFailed,
			KindActionExecutionFailed,
		},
		{"unknown", errors.New("boom"), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, KindOf(tc.err))
		})
	}
}

func TestState_SnapshotCopies(t *testing.T) {
	c := newStubChallenge(3, []int{1, 2})
	st := NewState(c)
	st.Status = StatusRunning
	st.CurrentStep = 2
	st.TotalSteps = 5
	st.LastRunStart = time.Now()

	snap := st.Snapshot()
	assert.Equal(t, 3, snap.Level)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, []int{1, 2}, snap.Prerequisites)
	require.NotNil(t, snap.LastRunStart)

	// Mutating the snapshot's slice must not touch the state.
	snap.Prerequisites[0] = 99
	assert.Equal(t, []int{1, 2}, st.Prerequisites)
}

func TestState_ResetKeepsCounters(t *testing.T) {
	c := newStubChallenge(2, []int{1})
	st := NewState(c)
	st.Status = StatusFailed
	st.CurrentStep = 3
	st.TotalSteps = 4
	st.SuccessCount = 2
	st.FailureCount = 5
	st.LastError = "oracle gave up"
	st.LastErrKind = KindOracleTimeout

	st.Reset()

	assert.Equal(t, StatusNotStarted, st.Status)
	assert.Zero(t, st.CurrentStep)
	assert.Zero(t, st.TotalSteps)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 2, st.SuccessCount)
	assert.Equal(t, 5, st.FailureCount)
}

func TestSnapshot_Progress(t *testing.T) {
	snap := Snapshot{CurrentStep: 2, TotalSteps: 4}
	assert.InDelta(t, 0.5, snap.Progress(), 1e-9)

	empty := Snapshot{Status: StatusCompleted}
	assert.InDelta(t, 1.0, empty.Progress(), 1e-9)

	idle := Snapshot{Status: StatusNotStarted}
	assert.Zero(t, idle.Progress())
}

func TestRun_FinalizeOnce(t *testing.T) {
	r := NewRun(4, 2)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusRunning, r.Status)

	r.Finalize(StatusFailed, "step 1 failed", KindOracleTimeout)
	require.NotNil(t, r.EndTime)
	first := *r.EndTime

	// Second finalize is a no-op.
	r.Finalize(StatusCompleted, "", "")
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "step 1 failed", r.Error)
	assert.Equal(t, first, *r.EndTime)
}

func TestBase_Defaults(t *testing.T) {
	c := newStubChallenge(1, nil)
	assert.Equal(t, 1, c.Level())
	assert.Equal(t, "Challenge 1", c.Name())
	assert.Empty(t, c.Prerequisites())
	assert.NoError(t, c.Precondition(context.Background()))
	assert.NoError(
		t,
		c.Postcondition(context.Background(), nil),
	)
	assert.NotNil(t, c.Logger())
}
