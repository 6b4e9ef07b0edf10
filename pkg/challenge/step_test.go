package challenge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.automation/pkg/desktop"
	"digital.vasic.automation/pkg/vision"
)

// recordingExecutor captures primitive actions for assertions.
type recordingExecutor struct {
	clicks  [][2]int
	typed   []string
	keys    []string
	failAll bool
}

func (r *recordingExecutor) MoveAndClick(
	_ context.Context, x, y int,
) error {
	if r.failAll {
		return desktop.ErrActionFailed
	}
	r.clicks = append(r.clicks, [2]int{x, y})
	return nil
}

func (r *recordingExecutor) TypeText(
	_ context.Context, text string,
) error {
	if r.failAll {
		return desktop.ErrActionFailed
	}
	r.typed = append(r.typed, text)
	return nil
}

func (r *recordingExecutor) KeyPress(
	_ context.Context, key string,
) error {
	if r.failAll {
		return desktop.ErrActionFailed
	}
	r.keys = append(r.keys, key)
	return nil
}

func (r *recordingExecutor) CaptureScreenshot(
	_ context.Context,
) (*desktop.Screenshot, error) {
	return &desktop.Screenshot{PNG: []byte("png")}, nil
}

func TestSpec_Local(t *testing.T) {
	local := &Spec{Intent: "probe", Do: func(
		_ context.Context,
	) (string, error) {
		return "", nil
	}}
	assert.True(t, local.Local())

	guided := &Spec{Intent: "click", Query: "the OK button"}
	assert.False(t, guided.Local())
}

func TestClickAnswer(t *testing.T) {
	exec := &recordingExecutor{}
	ans := &vision.Answer{Found: true, X: 10, Y: 20}

	desc, err := ClickAnswer(context.Background(), exec, ans)
	require.NoError(t, err)
	assert.Equal(t, "click (10, 20)", desc)
	assert.Equal(t, [][2]int{{10, 20}}, exec.clicks)
}

func TestClickAnswer_PropagatesFailure(t *testing.T) {
	exec := &recordingExecutor{failAll: true}
	_, err := ClickAnswer(
		context.Background(), exec,
		&vision.Answer{X: 1, Y: 1},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, desktop.ErrActionFailed))
}

func TestTypeText(t *testing.T) {
	exec := &recordingExecutor{}
	act := TypeText("hello world")

	desc, err := act(
		context.Background(), exec,
		&vision.Answer{X: 5, Y: 6},
	)
	require.NoError(t, err)
	assert.Contains(t, desc, "click (5, 6)")
	assert.Contains(t, desc, "11 chars")
	assert.Equal(t, []string{"hello world"}, exec.typed)
}

func TestPressKey(t *testing.T) {
	exec := &recordingExecutor{}
	act := PressKey("ctrl+s")

	desc, err := act(context.Background(), exec, nil)
	require.NoError(t, err)
	assert.Equal(t, "press ctrl+s", desc)
	assert.Equal(t, []string{"ctrl+s"}, exec.keys)
}
