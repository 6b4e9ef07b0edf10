package challenges

import (
	"context"
	"fmt"
	"os/exec"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/desktop"
)

// Launch is level 3: start the target application and confirm its
// main window came up and responds to input. From here on the
// ladder drives a live desktop.
type Launch struct {
	challenge.Base

	target Target
	cmd    *exec.Cmd
}

// NewLaunch creates the level 3 challenge.
func NewLaunch(target Target) *Launch {
	return &Launch{
		Base: challenge.NewBase(
			3,
			"Application Launch",
			fmt.Sprintf(
				"Launch %s and verify the main window is usable",
				target.Name,
			),
			[]int{1, 2},
		),
		target: target,
	}
}

// Steps returns the launch plan: local process management, then
// vision-guided confirmation that the window actually appeared.
func (l *Launch) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	return []challenge.Spec{
		{
			Intent: fmt.Sprintf(
				"verify %s is installed", l.target.Name,
			),
			Do: l.verifyInstalled,
		},
		{
			Intent: "close existing instances",
			Do:     l.closeExisting,
		},
		{
			Intent: "launch " + l.target.Name,
			Do:     l.startProcess,
		},
		challenge.WaitFor(
			"wait for the main window",
			fmt.Sprintf(
				"the %s main window is fully loaded and visible",
				l.target.Name,
			),
		),
		{
			Intent: "confirm the window accepts input",
			Query: fmt.Sprintf(
				"the menu bar of the %s main window",
				l.target.Name,
			),
			Act: challenge.PressKey("Escape"),
			Verify: fmt.Sprintf(
				"the %s main window is in focus with no open "+
					"menus or dialogs",
				l.target.Name,
			),
		},
	}, nil
}

// Postcondition requires a live process for the target.
func (l *Launch) Postcondition(
	ctx context.Context, _ *desktop.Screenshot,
) error {
	if err := exec.CommandContext(
		ctx, "pgrep", "-x", l.target.Command,
	).Run(); err != nil {
		return fmt.Errorf(
			"no running %s process found", l.target.Command,
		)
	}
	return nil
}

func (l *Launch) verifyInstalled(
	_ context.Context,
) (string, error) {
	path, err := exec.LookPath(l.target.Command)
	if err != nil {
		return "", fmt.Errorf(
			"%s is not installed: %w", l.target.Name, err,
		)
	}
	return l.target.Name + " available at " + path, nil
}

func (l *Launch) closeExisting(
	ctx context.Context,
) (string, error) {
	// pkill exits non-zero when nothing matched; that is fine.
	_ = exec.CommandContext(
		ctx, "pkill", "-x", l.target.Command,
	).Run()
	return "terminated any previous instances", nil
}

func (l *Launch) startProcess(
	_ context.Context,
) (string, error) {
	// Deliberately not CommandContext: the application must
	// outlive the run that started it.
	cmd := exec.Command(l.target.Command)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf(
			"starting %s: %w", l.target.Command, err,
		)
	}
	l.cmd = cmd
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf(
		"started %s (pid %d)",
		l.target.Command, cmd.Process.Pid,
	), nil
}
