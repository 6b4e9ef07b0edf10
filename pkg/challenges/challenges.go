// Package challenges provides the built-in seven-level ladder,
// from passive system detection up to a full resilience pipeline.
// Each level assumes the desktop state left behind by the levels
// below it, which the manager enforces through prerequisites.
package challenges

import (
	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/registry"
)

// Target identifies the application the ladder automates.
type Target struct {
	// Name is the display name used in queries and messages.
	Name string

	// Command is the executable probed on PATH and launched.
	Command string
}

// DefaultTarget is the electronics design suite the ladder was
// written against.
func DefaultTarget() Target {
	return Target{Name: "KiCad", Command: "kicad"}
}

// NewRegistry builds a registry holding the full ladder. Exported
// files and reports are written under workDir.
func NewRegistry(
	target Target, workDir string,
) (*registry.Registry, error) {
	reg := registry.New()
	ladder := []challenge.Challenge{
		NewDetection(target),
		NewInstallation(target),
		NewLaunch(target),
		NewNavigation(target),
		NewComplexTask(target),
		NewFileExport(target, workDir),
		NewPipeline(target, workDir),
	}
	for _, c := range ladder {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
