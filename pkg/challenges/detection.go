package challenges

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"digital.vasic.automation/pkg/challenge"
)

// Detection is level 1: establish what the host looks like before
// anything touches the desktop. It never fails on a missing tool;
// the point is an accurate inventory, not a judgment.
type Detection struct {
	challenge.Base

	target   Target
	required []string

	mu        sync.Mutex
	platform  string
	found     map[string]bool
	installed bool
}

// NewDetection creates the level 1 challenge.
func NewDetection(target Target) *Detection {
	return &Detection{
		Base: challenge.NewBase(
			1,
			"System Detection",
			fmt.Sprintf(
				"Detect whether %s and supporting tools are installed",
				target.Name,
			),
			nil,
		),
		target:   target,
		required: []string{target.Command, "git", "python3"},
		found:    make(map[string]bool),
	}
}

// Steps returns the detection plan. Every step is local: level 1
// runs before a desktop session is guaranteed to exist.
func (d *Detection) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	return []challenge.Spec{
		{
			Intent: "gather platform information",
			Do:     d.gatherPlatform,
		},
		{
			Intent: "check system paths",
			Do:     d.checkPaths,
		},
		{
			Intent: "probe required software",
			Do:     d.probeSoftware,
		},
		{
			Intent: fmt.Sprintf(
				"verify %s availability", d.target.Name,
			),
			Do: d.verifyTarget,
		},
	}, nil
}

func (d *Detection) gatherPlatform(
	_ context.Context,
) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.platform = runtime.GOOS + "/" + runtime.GOARCH
	return "platform " + d.platform, nil
}

func (d *Detection) checkPaths(
	_ context.Context,
) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	for _, dir := range []string{home, os.TempDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", fmt.Errorf(
				"%s is not a directory", dir,
			)
		}
	}
	return "home and temp paths present", nil
}

func (d *Detection) probeSoftware(
	_ context.Context,
) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var present int
	for _, cmd := range d.required {
		_, err := exec.LookPath(cmd)
		d.found[cmd] = err == nil
		if err == nil {
			present++
		}
	}
	return fmt.Sprintf(
		"%d/%d tools on PATH", present, len(d.required),
	), nil
}

func (d *Detection) verifyTarget(
	_ context.Context,
) (string, error) {
	path, err := exec.LookPath(d.target.Command)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.installed = err == nil
	if err != nil {
		return d.target.Name + " is not installed", nil
	}
	return d.target.Name + " found at " + path, nil
}

// Installed reports whether the last run found the target
// application on PATH.
func (d *Detection) Installed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.installed
}

// Found reports whether the last run located the given command.
func (d *Detection) Found(command string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.found[command]
}
