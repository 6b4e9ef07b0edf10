// Package eventlog provides the append-only, bounded,
// time-ordered record of orchestration state changes. It is the
// sole channel through which external observers learn of
// progress, either by incremental polling (Since) or by push
// handlers.
package eventlog

import (
	"sync"
	"time"
)

// Type tags an event with its category.
type Type string

const (
	TypeStarted     Type = "started"
	TypeStep        Type = "step"
	TypeStepAttempt Type = "step_attempt"
	TypeCompleted   Type = "completed"
	TypeFailed      Type = "failed"
	TypeReset       Type = "reset"
	TypeCancelled   Type = "cancelled"
	TypeSystem      Type = "system"
)

// SystemLevel marks events not tied to a specific challenge.
const SystemLevel = 0

// DefaultCapacity bounds the log when no capacity is given.
const DefaultCapacity = 1000

// Event is an immutable record of one state transition or
// message. Level is the originating challenge, SystemLevel for
// system-wide events.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Level     int       `json:"level,omitempty"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
}

// Log is a bounded ordered event sequence. Oldest entries are
// evicted once capacity is reached. Timestamps are strictly
// increasing, so Since-based polling never duplicates or skips
// an entry. Safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	lastTS   time.Time
	handlers []func(Event)
}

// New creates a log holding at most capacity events. A
// non-positive capacity selects DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		events:   make([]Event, 0, 64),
		capacity: capacity,
	}
}

// OnEvent registers a handler invoked for every appended event,
// in append order. Handlers run outside the log's lock.
func (l *Log) OnEvent(h func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Append records an event stamped now. Equal clock readings are
// bumped forward by a nanosecond so ordering stays strict.
func (l *Log) Append(level int, typ Type, msg string) Event {
	l.mu.Lock()

	ts := time.Now()
	if !ts.After(l.lastTS) {
		ts = l.lastTS.Add(time.Nanosecond)
	}
	l.lastTS = ts

	e := Event{
		Timestamp: ts,
		Level:     level,
		Type:      typ,
		Message:   msg,
	}
	l.events = append(l.events, e)

	if len(l.events) > l.capacity {
		trimmed := make([]Event, l.capacity)
		copy(trimmed, l.events[len(l.events)-l.capacity:])
		l.events = trimmed
	}

	handlers := make([]func(Event), len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
	return e
}

// Since returns events with timestamp strictly greater than t,
// in ascending order, as a copy.
func (l *Log) Since(t time.Time) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Binary search for the first event after t; the log is
	// ordered by construction.
	lo, hi := 0, len(l.events)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.events[mid].Timestamp.After(t) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	out := make([]Event, len(l.events)-lo)
	copy(out, l.events[lo:])
	return out
}

// Events returns a copy of every retained event in order.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
