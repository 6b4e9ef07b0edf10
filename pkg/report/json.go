// Package report turns run records and challenge snapshots into
// persisted JSON artifacts for later inspection.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"digital.vasic.automation/pkg/challenge"
)

// JSONReporter writes run reports and ladder summaries as JSON.
type JSONReporter struct {
	outputDir string
	pretty    bool
}

// NewJSONReporter creates a reporter writing into outputDir. When
// pretty is true, output is indented for readability.
func NewJSONReporter(
	outputDir string, pretty bool,
) *JSONReporter {
	return &JSONReporter{
		outputDir: outputDir,
		pretty:    pretty,
	}
}

// GenerateRunReport renders one run record.
func (r *JSONReporter) GenerateRunReport(
	run challenge.Run,
) ([]byte, error) {
	return r.marshal(run)
}

// WriteRunReport streams one run record to w.
func (r *JSONReporter) WriteRunReport(
	w io.Writer, run challenge.Run,
) error {
	data, err := r.GenerateRunReport(run)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SaveRunReport writes one run record under the output
// directory, named by level and run ID.
func (r *JSONReporter) SaveRunReport(
	run challenge.Run,
) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report directory: %w", err)
	}
	data, err := r.GenerateRunReport(run)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.outputDir, fmt.Sprintf(
		"level%d_run_%s.json", run.Level, run.ID,
	))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run report: %w", err)
	}
	return path, nil
}

// ladderSummary is the JSON structure of the master summary.
type ladderSummary struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Total         int                  `json:"total"`
	Completed     int                  `json:"completed"`
	Failed        int                  `json:"failed"`
	TotalAttempts int                  `json:"total_attempts"`
	TotalDuration time.Duration        `json:"total_duration"`
	Challenges    []challenge.Snapshot `json:"challenges"`
}

// GenerateSummary renders the ladder-wide summary for the given
// snapshots.
func (r *JSONReporter) GenerateSummary(
	snaps []challenge.Snapshot,
) ([]byte, error) {
	summary := ladderSummary{
		GeneratedAt: time.Now(),
		Total:       len(snaps),
		Challenges:  snaps,
	}
	for _, s := range snaps {
		switch s.Status {
		case challenge.StatusCompleted:
			summary.Completed++
		case challenge.StatusFailed:
			summary.Failed++
		}
		summary.TotalAttempts += s.SuccessCount + s.FailureCount
		summary.TotalDuration += s.LastDuration
	}
	return r.marshal(summary)
}

// SaveSummary writes the ladder summary under the output
// directory.
func (r *JSONReporter) SaveSummary(
	snaps []challenge.Snapshot,
) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report directory: %w", err)
	}
	data, err := r.GenerateSummary(snaps)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.outputDir, "summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	return path, nil
}

func (r *JSONReporter) marshal(v any) ([]byte, error) {
	if r.pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
