package challenges

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/desktop"
)

// InstallFunc installs the target application on the host.
type InstallFunc func(ctx context.Context) error

// Installation is level 2: put the target application on the host
// when level 1 found it missing. An already installed target makes
// the install step a no-op.
type Installation struct {
	challenge.Base

	target  Target
	install InstallFunc
	already bool
}

// InstallationOption configures the installation challenge.
type InstallationOption func(*Installation)

// WithInstaller replaces the platform package-manager installer.
func WithInstaller(f InstallFunc) InstallationOption {
	return func(i *Installation) {
		if f != nil {
			i.install = f
		}
	}
}

// NewInstallation creates the level 2 challenge.
func NewInstallation(
	target Target, opts ...InstallationOption,
) *Installation {
	i := &Installation{
		Base: challenge.NewBase(
			2,
			"Software Installation",
			fmt.Sprintf(
				"Install %s if it is not already present",
				target.Name,
			),
			[]int{1},
		),
		target: target,
	}
	i.install = i.packageManagerInstall
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Steps returns the installation plan.
func (i *Installation) Steps(
	_ context.Context,
) ([]challenge.Spec, error) {
	return []challenge.Spec{
		{
			Intent: "check current installation status",
			Do:     i.checkStatus,
		},
		{
			Intent: "prepare installation environment",
			Do:     i.prepareEnvironment,
		},
		{
			Intent: "install " + i.target.Name,
			Do:     i.runInstaller,
		},
		{
			Intent: "verify installation",
			Do:     i.verifyInstalled,
		},
	}, nil
}

// Postcondition requires the target on PATH regardless of which
// path the run took.
func (i *Installation) Postcondition(
	_ context.Context, _ *desktop.Screenshot,
) error {
	if _, err := exec.LookPath(i.target.Command); err != nil {
		return fmt.Errorf(
			"%s is not on PATH after installation",
			i.target.Name,
		)
	}
	return nil
}

func (i *Installation) checkStatus(
	_ context.Context,
) (string, error) {
	_, err := exec.LookPath(i.target.Command)
	i.already = err == nil
	if i.already {
		return i.target.Name + " is already installed", nil
	}
	return i.target.Name + " not found, will install", nil
}

func (i *Installation) prepareEnvironment(
	_ context.Context,
) (string, error) {
	probe := filepath.Join(
		os.TempDir(),
		fmt.Sprintf("install-probe-%d", os.Getpid()),
	)
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return "", fmt.Errorf("temp dir not writable: %w", err)
	}
	_ = os.Remove(probe)
	return "temp directory is writable", nil
}

func (i *Installation) runInstaller(
	ctx context.Context,
) (string, error) {
	if i.already {
		return "skipped, already installed", nil
	}
	if err := i.install(ctx); err != nil {
		return "", fmt.Errorf(
			"installing %s: %w", i.target.Name, err,
		)
	}
	return "installer finished", nil
}

func (i *Installation) verifyInstalled(
	_ context.Context,
) (string, error) {
	path, err := exec.LookPath(i.target.Command)
	if err != nil {
		return "", fmt.Errorf(
			"%s still not on PATH: %w", i.target.Name, err,
		)
	}
	return i.target.Name + " available at " + path, nil
}

// packageManagerInstall shells out to the platform package
// manager. It needs the invoking user to have install rights.
func (i *Installation) packageManagerInstall(
	ctx context.Context,
) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.CommandContext(
			ctx, "apt-get", "install", "-y", i.target.Command,
		)
	case "darwin":
		cmd = exec.CommandContext(
			ctx, "brew", "install", "--cask", i.target.Command,
		)
	default:
		return fmt.Errorf(
			"no installer for platform %s", runtime.GOOS,
		)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf(
			"%s: %s", err, truncate(string(out), 200),
		)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
