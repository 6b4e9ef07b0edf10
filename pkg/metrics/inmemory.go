package metrics

import (
	"fmt"
	"sync"
	"time"
)

// InMemory implements Metrics using counters and duration
// samples. Safe for concurrent use.
type InMemory struct {
	mu            sync.Mutex
	runs          map[string]int
	runDurations  map[int][]time.Duration
	stepAttempts  map[string]int
	oracleCalls   map[bool]int
	oracleLatency []time.Duration
	running       int
}

// NewInMemory creates an empty in-memory metrics recorder.
func NewInMemory() *InMemory {
	return &InMemory{
		runs:         make(map[string]int),
		runDurations: make(map[int][]time.Duration),
		stepAttempts: make(map[string]int),
		oracleCalls:  make(map[bool]int),
	}
}

func runKey(level int, status string) string {
	return fmt.Sprintf("%d:%s", level, status)
}

func attemptKey(level int, succeeded bool) string {
	return fmt.Sprintf("%d:%t", level, succeeded)
}

// RecordRun records a finished challenge run.
func (m *InMemory) RecordRun(
	level int, status string, duration time.Duration,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runKey(level, status)]++
	m.runDurations[level] = append(
		m.runDurations[level], duration,
	)
}

// RecordStepAttempt records one step attempt.
func (m *InMemory) RecordStepAttempt(
	level int, succeeded bool,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepAttempts[attemptKey(level, succeeded)]++
}

// RecordOracleCall records one oracle round trip.
func (m *InMemory) RecordOracleCall(
	ok bool, latency time.Duration,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oracleCalls[ok]++
	m.oracleLatency = append(m.oracleLatency, latency)
}

// SetRunning sets the running-challenges gauge.
func (m *InMemory) SetRunning(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = count
}

// RunCount returns the count for a level+status combination.
func (m *InMemory) RunCount(level int, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runKey(level, status)]
}

// StepAttempts returns the attempt count for a level and
// success flag.
func (m *InMemory) StepAttempts(
	level int, succeeded bool,
) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepAttempts[attemptKey(level, succeeded)]
}

// OracleCalls returns the oracle call count by outcome.
func (m *InMemory) OracleCalls(ok bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oracleCalls[ok]
}

// Running returns the running-challenges gauge.
func (m *InMemory) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
