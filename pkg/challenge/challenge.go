// Package challenge defines the contract and data model for
// progressive automation challenges: leveled units of work with
// prerequisites, a precondition, an ordered step sequence, and a
// postcondition. Concrete variants live in pkg/challenges; the
// manager and step runner depend only on this contract.
package challenge

import (
	"context"

	"digital.vasic.automation/pkg/desktop"
)

// Challenge is the capability set every concrete variant
// implements. Identity is the integer level (1..N, unique,
// defines default ordering). Prerequisite levels must all be
// strictly lower than the challenge's own level, which keeps the
// prerequisite graph acyclic by construction.
type Challenge interface {
	// Level returns the unique level of this challenge.
	Level() int

	// Name returns the human-readable name.
	Name() string

	// Description returns what this challenge accomplishes.
	Description() string

	// Prerequisites returns the levels that must be completed
	// before this challenge may start.
	Prerequisites() []int

	// Precondition checks that the challenge can run in the
	// current environment. A non-nil error carries the
	// human-readable refusal reason.
	Precondition(ctx context.Context) error

	// Steps produces the ordered step specifications for one
	// run. It is called at run start so later steps may depend
	// on state established by earlier runs.
	Steps(ctx context.Context) ([]Spec, error)

	// Postcondition checks the final observation after all
	// steps succeeded. A non-nil error fails the run even when
	// every step verified.
	Postcondition(
		ctx context.Context,
		final *desktop.Screenshot,
	) error
}
