package challenges

import (
	"context"
	"fmt"

	"digital.vasic.automation/pkg/challenge"
)

// Navigation is level 4: create a new project purely through the
// application's menus and dialogs. Every step is vision-guided;
// nothing about widget positions is hard-coded.
type Navigation struct {
	challenge.Base

	target      Target
	projectName string
}

// NewNavigation creates the level 4 challenge.
func NewNavigation(target Target) *Navigation {
	return &Navigation{
		Base: challenge.NewBase(
			4,
			"Project Creation",
			fmt.Sprintf(
				"Create a new %s project through the menus",
				target.Name,
			),
			[]int{1, 2, 3},
		),
		target:      target,
		projectName: "automation_demo",
	}
}

// Steps returns the menu navigation plan.
func (n *Navigation) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	return []challenge.Spec{
		{
			Intent: "open the File menu",
			Query: fmt.Sprintf(
				"the File menu in the %s menu bar", n.target.Name,
			),
			Verify: "the File menu is open showing its entries",
		},
		{
			Intent: "choose New Project",
			Query:  "the New Project entry in the open File menu",
			Verify: "a new project dialog is visible",
		},
		{
			Intent: "enter the project name",
			Query: "the project name input field in the new " +
				"project dialog",
			Act: challenge.TypeText(n.projectName),
			Verify: fmt.Sprintf(
				"the project name field contains %q",
				n.projectName,
			),
		},
		{
			Intent: "confirm project creation",
			Query: "the Save or OK button in the new project " +
				"dialog",
			Verify: fmt.Sprintf(
				"the dialog is closed and the project tree "+
					"shows a project named %q", n.projectName,
			),
		},
	}, nil
}

// ProjectName returns the name the challenge creates projects
// under.
func (n *Navigation) ProjectName() string {
	return n.projectName
}
