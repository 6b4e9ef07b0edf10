package challenges

import (
	"context"
	"fmt"

	"digital.vasic.automation/pkg/challenge"
)

// ComplexTask is level 5: capture a minimal schematic in the open
// project. It chains dependent vision steps, so a single flaky
// observation early on would cascade; the per-step retry budget
// carries most of the load here.
type ComplexTask struct {
	challenge.Base

	target Target
}

// NewComplexTask creates the level 5 challenge.
func NewComplexTask(target Target) *ComplexTask {
	return &ComplexTask{
		Base: challenge.NewBase(
			5,
			"Schematic Capture",
			"Place and check a component in the schematic editor",
			[]int{1, 2, 3, 4},
		),
		target: target,
	}
}

// Steps returns the schematic capture plan.
func (c *ComplexTask) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	return []challenge.Spec{
		{
			Intent: "open the schematic editor",
			Query: "the Schematic Editor button in the project " +
				"window toolbar",
			Verify: "the schematic editor window is open and " +
				"focused",
		},
		{
			Intent: "activate the add-symbol tool",
			Query: "the Add Symbol tool in the right-hand " +
				"toolbar of the schematic editor",
			Verify: "the symbol chooser dialog is open",
		},
		{
			Intent: "search for a resistor",
			Query: "the search field at the top of the symbol " +
				"chooser",
			Act:    challenge.TypeText("resistor"),
			Verify: "the symbol list shows resistor entries",
		},
		{
			Intent: "pick the first result",
			Query:  "the OK button of the symbol chooser",
			Verify: "a resistor symbol is attached to the " +
				"cursor over the schematic canvas",
		},
		{
			Intent: "place the symbol on the canvas",
			Query: "an empty area near the center of the " +
				"schematic canvas",
			Verify: "a resistor symbol is placed on the " +
				"schematic",
		},
		{
			Intent: "run the electrical rules check",
			Query: fmt.Sprintf(
				"the ERC button in the top toolbar of the %s "+
					"schematic editor", c.target.Name,
			),
			// The ERC icon is small and easily confused with
			// its neighbours.
			MinConfidence: 0.7,
			Verify: "the electrical rules check dialog is " +
				"open showing results",
		},
	}, nil
}
