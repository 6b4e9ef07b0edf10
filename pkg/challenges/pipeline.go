package challenges

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/desktop"
)

// Pipeline is level 7: exercise the whole stack under awkward
// conditions and leave a machine-readable summary behind. It
// deliberately uses low confidence thresholds and escape-hatch
// actions to probe how the retry and verification machinery holds
// up against a messy desktop.
type Pipeline struct {
	challenge.Base

	target     Target
	reportPath string
	startedAt  time.Time
}

// NewPipeline creates the level 7 challenge. The summary report
// is written under workDir.
func NewPipeline(target Target, workDir string) *Pipeline {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "automation-output")
	}
	return &Pipeline{
		Base: challenge.NewBase(
			7,
			"Resilience Pipeline",
			"Exercise recovery paths and record a run summary",
			[]int{1, 2, 3, 4, 5, 6},
		),
		target: target,
		reportPath: filepath.Join(
			workDir, "resilience_report.json",
		),
	}
}

// ReportPath returns where the summary report is written.
func (p *Pipeline) ReportPath() string { return p.reportPath }

// Steps returns the resilience plan.
func (p *Pipeline) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	p.startedAt = time.Now()
	return []challenge.Spec{
		{
			Intent: "probe the environment",
			Do:     p.probeEnvironment,
		},
		{
			// Stray dialogs from earlier levels must not block
			// the pipeline; a low threshold makes the dismissal
			// fire even on a vague match.
			Intent:        "dismiss stray dialogs",
			Query:         "the frontmost window or dialog",
			MinConfidence: 0.4,
			Act:           challenge.PressKey("Escape"),
		},
		{
			Intent: "exercise menu navigation",
			Query: fmt.Sprintf(
				"the File menu in the %s menu bar",
				p.target.Name,
			),
			Verify: "the File menu is open",
		},
		{
			Intent:        "close the menu again",
			Query:         "the title bar of the main window",
			MinConfidence: 0.4,
			Act:           challenge.PressKey("Escape"),
			Verify:        "no menu or dialog is open",
		},
		{
			Intent:        "exercise the canvas",
			Query:         "the Zoom In button in the editor toolbar",
			MinConfidence: 0.5,
			Verify: "the canvas content appears larger than " +
				"before",
		},
		{
			Intent: "write the resilience report",
			Do:     p.writeReport,
		},
	}, nil
}

// Postcondition requires the summary report on disk.
func (p *Pipeline) Postcondition(
	_ context.Context, _ *desktop.Screenshot,
) error {
	if _, err := os.Stat(p.reportPath); err != nil {
		return fmt.Errorf(
			"resilience report missing: %w", err,
		)
	}
	return nil
}

func (p *Pipeline) probeEnvironment(
	_ context.Context,
) (string, error) {
	if _, err := exec.LookPath(p.target.Command); err != nil {
		return "", fmt.Errorf(
			"%s is not installed: %w", p.target.Name, err,
		)
	}
	if err := os.MkdirAll(
		filepath.Dir(p.reportPath), 0o755,
	); err != nil {
		return "", fmt.Errorf("report directory: %w", err)
	}
	return "environment ready", nil
}

func (p *Pipeline) writeReport(
	_ context.Context,
) (string, error) {
	report := struct {
		Target      string    `json:"target"`
		StartedAt   time.Time `json:"started_at"`
		FinishedAt  time.Time `json:"finished_at"`
		DurationSec float64   `json:"duration_seconds"`
	}{
		Target:     p.target.Name,
		StartedAt:  p.startedAt,
		FinishedAt: time.Now(),
	}
	report.DurationSec = report.FinishedAt.
		Sub(report.StartedAt).Seconds()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(
		p.reportPath, data, 0o644,
	); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return "report written to " + p.reportPath, nil
}
