package eventlog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendOrdering(t *testing.T) {
	l := New(100)

	for i := 0; i < 50; i++ {
		l.Append(1, TypeStepAttempt, "attempt")
	}

	events := l.Events()
	require.Len(t, events, 50)
	for i := 1; i < len(events); i++ {
		assert.True(
			t,
			events[i].Timestamp.After(events[i-1].Timestamp),
			"timestamps must be strictly increasing",
		)
	}
}

func TestLog_EvictsOldest(t *testing.T) {
	l := New(10)

	var first Event
	for i := 0; i < 25; i++ {
		e := l.Append(1, TypeStep, "step")
		if i == 15 {
			first = e
		}
	}

	events := l.Events()
	require.Len(t, events, 10)
	assert.Equal(t, first.Timestamp, events[0].Timestamp)
}

func TestLog_SinceIsStrict(t *testing.T) {
	l := New(100)

	a := l.Append(1, TypeStarted, "a")
	b := l.Append(1, TypeStep, "b")
	c := l.Append(1, TypeCompleted, "c")

	// Strictly greater: the pivot event itself is excluded.
	got := l.Since(a.Timestamp)
	require.Len(t, got, 2)
	assert.Equal(t, b.Timestamp, got[0].Timestamp)
	assert.Equal(t, c.Timestamp, got[1].Timestamp)

	assert.Empty(t, l.Since(c.Timestamp))
	assert.Len(t, l.Since(time.Time{}), 3)
}

func TestLog_SinceNeverDuplicatesAcrossPolls(t *testing.T) {
	l := New(1000)

	var seen []Event
	cursor := time.Time{}
	for round := 0; round < 5; round++ {
		for i := 0; i < 20; i++ {
			l.Append(2, TypeStepAttempt, "tick")
		}
		batch := l.Since(cursor)
		require.NotEmpty(t, batch)
		cursor = batch[len(batch)-1].Timestamp
		seen = append(seen, batch...)
	}

	require.Len(t, seen, 100)
	for i := 1; i < len(seen); i++ {
		assert.True(
			t,
			seen[i].Timestamp.After(seen[i-1].Timestamp),
		)
	}
}

func TestLog_OnEventHandlers(t *testing.T) {
	l := New(10)

	var mu sync.Mutex
	var got []Event
	l.OnEvent(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	l.Append(SystemLevel, TypeSystem, "manager ready")
	l.Append(1, TypeStarted, "challenge 1 started")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, TypeSystem, got[0].Type)
	assert.Equal(t, 1, got[1].Level)
}

func TestLog_DefaultCapacity(t *testing.T) {
	l := New(0)
	assert.Equal(t, DefaultCapacity, l.capacity)
}

func TestLog_ConcurrentAppends(t *testing.T) {
	l := New(500)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Append(1, TypeStepAttempt, "tick")
			}
		}()
	}
	wg.Wait()

	events := l.Events()
	require.Len(t, events, 400)
	for i := 1; i < len(events); i++ {
		assert.True(
			t,
			events[i].Timestamp.After(events[i-1].Timestamp),
		)
	}
}
