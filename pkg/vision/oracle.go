// Package vision provides the client for the AI vision oracle:
// given a screenshot and a natural-language query it returns
// coordinates or a textual judgment. The oracle is an untrusted,
// latency- and failure-prone boundary; every answer is validated
// before use.
package vision

import (
	"context"
	"errors"

	"digital.vasic.automation/pkg/desktop"
)

// Sentinel errors for the oracle boundary. Callers classify with
// errors.Is.
var (
	// ErrTimeout marks an oracle call that exceeded its request
	// timeout.
	ErrTimeout = errors.New("vision oracle timeout")

	// ErrUnavailable marks a transport failure before any
	// response was received (connection refused, DNS, reset).
	ErrUnavailable = errors.New("vision oracle unavailable")

	// ErrMalformedResponse marks a response that could not be
	// parsed into the requested schema.
	ErrMalformedResponse = errors.New(
		"vision oracle returned malformed response",
	)
)

// Answer is the oracle's structured reply to a locate query.
type Answer struct {
	// Found reports whether the oracle located the element.
	Found bool `json:"found"`

	// X and Y are the pixel coordinates of the element center.
	X int `json:"x"`
	Y int `json:"y"`

	// Confidence is the oracle's self-reported confidence in
	// [0, 1].
	Confidence float64 `json:"confidence"`

	// Description is the oracle's free-text account of what it
	// matched.
	Description string `json:"description,omitempty"`
}

// Judgment is the oracle's structured reply to a verification
// query about the current screen state.
type Judgment struct {
	// Matches reports whether the screen shows the queried
	// state.
	Matches bool `json:"matches"`

	// Confidence is the oracle's self-reported confidence in
	// [0, 1].
	Confidence float64 `json:"confidence"`

	// Description is what the oracle actually observed.
	Description string `json:"description,omitempty"`
}

// Oracle defines the vision oracle contract.
type Oracle interface {
	// Locate asks the oracle for the coordinates of the element
	// described by query in the screenshot.
	Locate(
		ctx context.Context,
		shot *desktop.Screenshot,
		query string,
	) (*Answer, error)

	// Judge asks the oracle whether the screenshot shows the
	// state described by query.
	Judge(
		ctx context.Context,
		shot *desktop.Screenshot,
		query string,
	) (*Judgment, error)
}
