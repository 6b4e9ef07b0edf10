// Package desktop issues primitive input events against the live
// desktop and captures screenshots. It has no knowledge of
// challenges; callers decide what to click and why.
package desktop

import (
	"context"
	"errors"
	"fmt"
)

// ErrActionFailed marks a primitive action that could not be
// executed (bad coordinates, input tool failure). Wrap it with
// context via fmt.Errorf and %w.
var ErrActionFailed = errors.New("desktop action failed")

// Screenshot is a single captured observation of the desktop.
type Screenshot struct {
	// PNG holds the encoded image bytes.
	PNG []byte

	// Width and Height are the virtual screen dimensions in
	// pixels at capture time.
	Width  int
	Height int
}

// Executor defines the primitive operations available against
// the desktop. Implementations must report failures as errors
// wrapping ErrActionFailed, never as silent no-ops.
type Executor interface {
	// MoveAndClick moves the pointer to (x, y) and performs a
	// left click. Coordinates outside the virtual screen are
	// rejected.
	MoveAndClick(ctx context.Context, x, y int) error

	// TypeText types the given string into the focused window.
	TypeText(ctx context.Context, text string) error

	// KeyPress presses a single named key (e.g. "Return",
	// "ctrl+s").
	KeyPress(ctx context.Context, key string) error

	// CaptureScreenshot captures the current desktop state.
	CaptureScreenshot(ctx context.Context) (*Screenshot, error)
}

// OutOfBoundsError reports a click target outside the virtual
// screen.
type OutOfBoundsError struct {
	X, Y          int
	Width, Height int
}

// Error implements the error interface.
func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"coordinates (%d, %d) outside virtual screen %dx%d",
		e.X, e.Y, e.Width, e.Height,
	)
}

// Unwrap makes OutOfBoundsError match ErrActionFailed via
// errors.Is.
func (e *OutOfBoundsError) Unwrap() error {
	return ErrActionFailed
}
