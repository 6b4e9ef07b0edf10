package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveScreenshot writes a screenshot's PNG bytes under dir with a
// timestamped name and returns the file path.
func SaveScreenshot(
	dir, prefix string, shot *Screenshot,
) (string, error) {
	if shot == nil || len(shot.PNG) == 0 {
		return "", fmt.Errorf("no screenshot data to save")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("screenshot directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf(
		"%s_%s.png",
		prefix, time.Now().Format("20060102_150405.000"),
	))
	if err := os.WriteFile(path, shot.PNG, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}
