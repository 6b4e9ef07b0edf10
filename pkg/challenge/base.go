package challenge

import (
	"context"

	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/logging"
)

// Base provides the identity plumbing shared by concrete
// challenge variants. Embed it and implement Steps; override
// Precondition and Postcondition as needed.
type Base struct {
	level         int
	name          string
	description   string
	prerequisites []int
	logger        logging.Logger
}

// NewBase creates the shared identity for a challenge variant.
func NewBase(
	level int,
	name, description string,
	prerequisites []int,
) Base {
	if prerequisites == nil {
		prerequisites = []int{}
	}
	return Base{
		level:         level,
		name:          name,
		description:   description,
		prerequisites: prerequisites,
		logger:        logging.NewNullLogger(),
	}
}

// Level returns the challenge level.
func (b *Base) Level() int { return b.level }

// Name returns the challenge name.
func (b *Base) Name() string { return b.name }

// Description returns the challenge description.
func (b *Base) Description() string { return b.description }

// Prerequisites returns the prerequisite levels.
func (b *Base) Prerequisites() []int { return b.prerequisites }

// SetLogger sets the logger used by this challenge.
func (b *Base) SetLogger(l logging.Logger) {
	if l != nil {
		b.logger = l
	}
}

// Logger returns the challenge logger, never nil.
func (b *Base) Logger() logging.Logger { return b.logger }

// Precondition passes by default.
func (b *Base) Precondition(_ context.Context) error {
	return nil
}

// Postcondition passes by default; step verification already
// checked each action.
func (b *Base) Postcondition(
	_ context.Context, _ *desktop.Screenshot,
) error {
	return nil
}
