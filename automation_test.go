package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/config"
)

func TestNew_AssemblesFullLadder(t *testing.T) {
	cfg := config.Default()
	cfg.ResultsDir = t.TempDir()
	cfg.ScreenshotDir = t.TempDir()

	sys, err := New(cfg, nil)
	require.NoError(t, err)

	list := sys.Manager.List()
	require.Len(t, list, 7)
	assert.Equal(t, 1, list[0].Level)
	assert.Equal(t, 7, list[6].Level)
	for _, snap := range list {
		assert.Equal(
			t, challenge.StatusNotStarted, snap.Status,
		)
	}

	assert.NotNil(t, sys.Monitor)
	assert.NotNil(t, sys.Reporter)
	assert.Empty(t, sys.Events.Events())
}

func TestNew_MonitorDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.ResultsDir = t.TempDir()
	cfg.Monitor.Enabled = false

	sys, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, sys.Monitor)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Steps.MinConfidence = 2

	_, err := New(cfg, nil)
	require.Error(t, err)
}

func TestSystem_PersistsRunArtifacts(t *testing.T) {
	cfg := config.Default()
	cfg.ResultsDir = t.TempDir()
	cfg.ScreenshotDir = t.TempDir()
	cfg.Monitor.Enabled = false

	sys, err := New(cfg, nil)
	require.NoError(t, err)

	// Level 1 probes the host environment with local steps only,
	// so it runs to completion without a desktop.
	require.NoError(t, sys.Manager.Start(context.Background(), 1))
	require.Eventually(t, func() bool {
		snap, err := sys.Manager.Status(1)
		return err == nil && snap.Status.Terminal()
	}, 10*time.Second, 10*time.Millisecond)
	sys.Manager.Wait()

	run, err := sys.Manager.LastRun(1)
	require.NoError(t, err)

	reportsDir := filepath.Join(cfg.ResultsDir, "reports")
	data, err := os.ReadFile(filepath.Join(
		reportsDir,
		fmt.Sprintf("level1_run_%s.json", run.ID),
	))
	require.NoError(t, err)

	var persisted challenge.Run
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, run.ID, persisted.ID)
	assert.Equal(t, 1, persisted.Level)
	assert.Len(t, persisted.Steps, len(run.Steps))

	data, err = os.ReadFile(
		filepath.Join(reportsDir, "summary.json"),
	)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.EqualValues(t, 7, summary["total"])
}

func TestNew_PrerequisiteGateAtAssembly(t *testing.T) {
	cfg := config.Default()
	cfg.ResultsDir = t.TempDir()
	cfg.RunTimeout = config.Duration(time.Minute)

	sys, err := New(cfg, nil)
	require.NoError(t, err)

	// Level 7 requires the whole ladder below it.
	snap, err := sys.Manager.Status(7)
	require.NoError(t, err)
	assert.Equal(
		t, []int{1, 2, 3, 4, 5, 6}, snap.Prerequisites,
	)
}
