package challenges

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/desktop"
)

// FileExport is level 6: save the project and plot its design
// files to disk, then verify on the filesystem that the export
// actually produced something. Screen verification alone is not
// trusted for file output.
type FileExport struct {
	challenge.Base

	target Target
	outDir string
}

// NewFileExport creates the level 6 challenge. Exports land in a
// subdirectory of workDir.
func NewFileExport(target Target, workDir string) *FileExport {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "automation-output")
	}
	return &FileExport{
		Base: challenge.NewBase(
			6,
			"File Export",
			"Save the project and export its design files",
			[]int{1, 2, 3, 4, 5},
		),
		target: target,
		outDir: filepath.Join(workDir, "export"),
	}
}

// OutDir returns the directory exported files are written to.
func (f *FileExport) OutDir() string { return f.outDir }

// Steps returns the save-and-export plan.
func (f *FileExport) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	return []challenge.Spec{
		{
			Intent: "prepare the output directory",
			Do:     f.prepareOutDir,
		},
		{
			Intent: "save the project",
			Query: "the Save button in the main toolbar of " +
				"the schematic editor",
			Verify: "the title bar shows no unsaved-changes " +
				"marker",
		},
		{
			Intent: "open the plot dialog",
			Query: "the Plot entry in the File menu of the " +
				"schematic editor",
			Verify: "the plot dialog is open",
		},
		{
			Intent: "set the output directory",
			Query: "the output directory field in the plot " +
				"dialog",
			Act: challenge.TypeText(f.outDir),
			Verify: "the output directory field shows the " +
				"entered path",
		},
		{
			Intent: "run the export",
			Query:  "the Plot button inside the plot dialog",
			Verify: "the plot dialog messages report generated " +
				"output files",
		},
		{
			Intent: "verify exported files on disk",
			Do:     f.verifyExported,
		},
	}, nil
}

// Postcondition requires at least one exported file on disk.
func (f *FileExport) Postcondition(
	_ context.Context, _ *desktop.Screenshot,
) error {
	_, err := f.exportedFiles()
	return err
}

func (f *FileExport) prepareOutDir(
	_ context.Context,
) (string, error) {
	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", f.outDir, err)
	}
	return "output directory ready: " + f.outDir, nil
}

func (f *FileExport) verifyExported(
	_ context.Context,
) (string, error) {
	names, err := f.exportedFiles()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"%d exported file(s) in %s", len(names), f.outDir,
	), nil
}

func (f *FileExport) exportedFiles() ([]string, error) {
	entries, err := os.ReadDir(f.outDir)
	if err != nil {
		return nil, fmt.Errorf(
			"reading %s: %w", f.outDir, err,
		)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf(
			"no exported files in %s", f.outDir,
		)
	}
	return names, nil
}
