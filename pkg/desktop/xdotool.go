package desktop

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"digital.vasic.automation/pkg/logging"
)

// XdotoolExecutor drives an X11 desktop through the xdotool and
// scrot command-line utilities. It is the production Executor on
// Linux hosts with a virtual display.
type XdotoolExecutor struct {
	display string
	width   int
	height  int
	moveDur time.Duration
	logger  logging.Logger
}

// XdotoolOption configures an XdotoolExecutor.
type XdotoolOption func(*XdotoolExecutor)

// WithDisplay overrides the DISPLAY value used for all
// subprocess invocations.
func WithDisplay(display string) XdotoolOption {
	return func(x *XdotoolExecutor) { x.display = display }
}

// WithScreenSize sets the virtual screen bounds used for
// coordinate validation.
func WithScreenSize(width, height int) XdotoolOption {
	return func(x *XdotoolExecutor) {
		x.width = width
		x.height = height
	}
}

// WithExecutorLogger sets the logger used for action tracing.
func WithExecutorLogger(l logging.Logger) XdotoolOption {
	return func(x *XdotoolExecutor) { x.logger = l }
}

// NewXdotoolExecutor creates an executor for the given display.
// Defaults: DISPLAY from the environment (":0" fallback) and a
// 1920x1080 virtual screen.
func NewXdotoolExecutor(opts ...XdotoolOption) *XdotoolExecutor {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	x := &XdotoolExecutor{
		display: display,
		width:   1920,
		height:  1080,
		moveDur: 500 * time.Millisecond,
		logger:  logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// MoveAndClick moves the pointer to (x, y) and left-clicks.
func (e *XdotoolExecutor) MoveAndClick(
	ctx context.Context, x, y int,
) error {
	if x < 0 || y < 0 || x >= e.width || y >= e.height {
		return &OutOfBoundsError{
			X: x, Y: y,
			Width: e.width, Height: e.height,
		}
	}

	e.logger.Debug(
		"move and click",
		logging.F("x", x), logging.F("y", y),
	)

	if err := e.run(
		ctx, "xdotool", "mousemove", "--sync",
		strconv.Itoa(x), strconv.Itoa(y),
	); err != nil {
		return err
	}
	return e.run(ctx, "xdotool", "click", "1")
}

// TypeText types the given string with a small inter-key delay
// so target applications keep up.
func (e *XdotoolExecutor) TypeText(
	ctx context.Context, text string,
) error {
	e.logger.Debug(
		"type text",
		logging.F("length", len(text)),
	)
	return e.run(
		ctx, "xdotool", "type", "--delay", "100", "--", text,
	)
}

// KeyPress presses a single named key or chord.
func (e *XdotoolExecutor) KeyPress(
	ctx context.Context, key string,
) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key name", ErrActionFailed)
	}
	e.logger.Debug("key press", logging.F("key", key))
	return e.run(ctx, "xdotool", "key", "--", key)
}

// CaptureScreenshot captures the desktop as PNG via scrot.
func (e *XdotoolExecutor) CaptureScreenshot(
	ctx context.Context,
) (*Screenshot, error) {
	cmd := exec.CommandContext(ctx, "scrot", "--overwrite", "-")
	cmd.Env = append(os.Environ(), "DISPLAY="+e.display)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf(
			"%w: scrot: %v: %s",
			ErrActionFailed, err,
			strings.TrimSpace(stderr.String()),
		)
	}

	return &Screenshot{
		PNG:    stdout.Bytes(),
		Width:  e.width,
		Height: e.height,
	}, nil
}

// run executes a subprocess with the configured display,
// translating any failure into an ErrActionFailed wrap.
func (e *XdotoolExecutor) run(
	ctx context.Context, name string, args ...string,
) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "DISPLAY="+e.display)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"%w: %s %s: %v: %s",
			ErrActionFailed, name,
			strings.Join(args, " "), err,
			strings.TrimSpace(stderr.String()),
		)
	}
	return nil
}
