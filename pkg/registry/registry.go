// Package registry provides the explicit challenge registry:
// challenges keyed by level, registered once at process start
// and handed to the manager by reference.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"digital.vasic.automation/pkg/challenge"
)

// Registry holds registered challenges keyed by level. It is
// safe for concurrent use. Prerequisite levels must be strictly
// lower than the challenge's own level, which keeps the graph
// acyclic without cycle detection.
type Registry struct {
	mu         sync.RWMutex
	challenges map[int]challenge.Challenge
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		challenges: make(map[int]challenge.Challenge),
	}
}

// Register adds a challenge. It rejects duplicate levels,
// non-positive levels, and prerequisite references that are not
// strictly lower than the challenge's own level.
func (r *Registry) Register(c challenge.Challenge) error {
	level := c.Level()
	if level < 1 {
		return fmt.Errorf(
			"challenge level must be >= 1, got %d", level,
		)
	}

	for _, dep := range c.Prerequisites() {
		if dep >= level {
			return fmt.Errorf(
				"challenge %d: prerequisite %d is not "+
					"strictly lower than its own level",
				level, dep,
			)
		}
		if dep < 1 {
			return fmt.Errorf(
				"challenge %d: prerequisite %d is not a "+
					"valid level",
				level, dep,
			)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.challenges[level]; exists {
		return fmt.Errorf(
			"challenge level already registered: %d", level,
		)
	}
	r.challenges[level] = c
	return nil
}

// Get retrieves a challenge by level.
func (r *Registry) Get(level int) (challenge.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.challenges[level]
	if !exists {
		return nil, fmt.Errorf(
			"%w: level %d", challenge.ErrNotFound, level,
		)
	}
	return c, nil
}

// List returns all registered challenges ordered by level.
func (r *Registry) List() []challenge.Challenge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(
		[]challenge.Challenge, 0, len(r.challenges),
	)
	for _, c := range r.challenges {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Level() < out[j].Level()
	})
	return out
}

// Levels returns the registered levels in ascending order.
func (r *Registry) Levels() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int, 0, len(r.challenges))
	for level := range r.challenges {
		out = append(out, level)
	}
	sort.Ints(out)
	return out
}

// ValidatePrerequisites checks that every prerequisite
// referenced by a registered challenge is itself registered.
// Returns the first missing reference found.
func (r *Registry) ValidatePrerequisites() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	levels := make([]int, 0, len(r.challenges))
	for level := range r.challenges {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	for _, level := range levels {
		for _, dep := range r.challenges[level].Prerequisites() {
			if _, exists := r.challenges[dep]; !exists {
				return fmt.Errorf(
					"challenge %d has unregistered "+
						"prerequisite: %d",
					level, dep,
				)
			}
		}
	}
	return nil
}

// Count returns the number of registered challenges.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.challenges)
}
