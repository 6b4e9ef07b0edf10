package challenges

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RegistersFullLadder(t *testing.T) {
	reg, err := NewRegistry(DefaultTarget(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7, reg.Count())
	assert.Equal(
		t, []int{1, 2, 3, 4, 5, 6, 7}, reg.Levels(),
	)
	require.NoError(t, reg.ValidatePrerequisites())

	c, err := reg.Get(4)
	require.NoError(t, err)
	assert.Equal(t, "Project Creation", c.Name())
	assert.Equal(t, []int{1, 2, 3}, c.Prerequisites())
}

func TestDetection_LocalStepsSucceed(t *testing.T) {
	d := NewDetection(DefaultTarget())
	specs, err := d.Steps(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 4)

	for _, spec := range specs {
		require.True(t, spec.Local(), spec.Intent)
		require.NotNil(t, spec.Do, spec.Intent)
		_, err := spec.Do(context.Background())
		assert.NoError(t, err, spec.Intent)
	}
}

func TestDetection_NeverFailsOnMissingTarget(t *testing.T) {
	d := NewDetection(Target{
		Name:    "Nonexistent",
		Command: "definitely-not-a-real-binary",
	})
	specs, err := d.Steps(context.Background())
	require.NoError(t, err)

	for _, spec := range specs {
		_, err := spec.Do(context.Background())
		require.NoError(t, err, spec.Intent)
	}
	assert.False(t, d.Installed())
	assert.False(t, d.Found("definitely-not-a-real-binary"))
}

func TestInstallation_SkipsWhenAlreadyInstalled(t *testing.T) {
	installerCalled := false
	// "sh" is present on any host these tests run on.
	i := NewInstallation(
		Target{Name: "Shell", Command: "sh"},
		WithInstaller(func(_ context.Context) error {
			installerCalled = true
			return nil
		}),
	)

	specs, err := i.Steps(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 4)

	for _, spec := range specs {
		_, err := spec.Do(context.Background())
		require.NoError(t, err, spec.Intent)
	}
	assert.False(t, installerCalled)
	assert.NoError(
		t, i.Postcondition(context.Background(), nil),
	)
}

func TestInstallation_PostconditionRequiresBinary(t *testing.T) {
	i := NewInstallation(Target{
		Name:    "Nonexistent",
		Command: "definitely-not-a-real-binary",
	})
	err := i.Postcondition(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not on PATH")
}

func TestLaunch_StepShape(t *testing.T) {
	l := NewLaunch(DefaultTarget())
	specs, err := l.Steps(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 5)

	// Process management stays local, window checks go through
	// the oracle.
	assert.True(t, specs[0].Local())
	assert.True(t, specs[1].Local())
	assert.True(t, specs[2].Local())
	assert.True(t, specs[3].Local())
	assert.NotEmpty(t, specs[3].Verify)
	assert.False(t, specs[4].Local())
}

func TestFileExport_VerifyRequiresFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFileExport(DefaultTarget(), dir)
	specs, err := f.Steps(context.Background())
	require.NoError(t, err)

	prepare, verify := specs[0], specs[len(specs)-1]
	_, err = prepare.Do(context.Background())
	require.NoError(t, err)

	// Empty export directory fails verification.
	_, err = verify.Do(context.Background())
	require.Error(t, err)
	require.Error(
		t, f.Postcondition(context.Background(), nil),
	)

	require.NoError(t, os.WriteFile(
		filepath.Join(f.OutDir(), "board.pdf"),
		[]byte("%PDF"), 0o644,
	))
	desc, err := verify.Do(context.Background())
	require.NoError(t, err)
	assert.Contains(t, desc, "1 exported file")
	assert.NoError(
		t, f.Postcondition(context.Background(), nil),
	)
}

func TestPipeline_WritesReport(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(
		Target{Name: "Shell", Command: "sh"}, dir,
	)
	specs, err := p.Steps(context.Background())
	require.NoError(t, err)

	require.Error(
		t, p.Postcondition(context.Background(), nil),
	)

	probe, write := specs[0], specs[len(specs)-1]
	_, err = probe.Do(context.Background())
	require.NoError(t, err)
	_, err = write.Do(context.Background())
	require.NoError(t, err)

	require.NoError(
		t, p.Postcondition(context.Background(), nil),
	)
	data, err := os.ReadFile(p.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"target": "Shell"`)
}
