package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"digital.vasic.automation/pkg/desktop"
)

// Response schemas requested from the oracle service.
const (
	schemaCoordinates = "coordinates"
	schemaJudgment    = "judgment"
)

// ClientOption configures an HTTPOracle via functional options.
type ClientOption func(*HTTPOracle)

// HTTPOracle talks to a vision analysis service over HTTP.
// Defaults match common conventions so callers can use
// NewHTTPOracle(url) with zero options.
type HTTPOracle struct {
	baseURL     string
	apiKey      string
	analyzePath string
	httpClient  *http.Client
}

// NewHTTPOracle creates an oracle client targeting the given
// base URL. Pass ClientOption values to override defaults.
func NewHTTPOracle(baseURL string, opts ...ClientOption) *HTTPOracle {
	o := &HTTPOracle{
		baseURL:     strings.TrimRight(baseURL, "/"),
		analyzePath: "/api/v1/analyze",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(o *HTTPOracle) { o.apiKey = key }
}

// WithAnalyzePath overrides the default analysis endpoint path.
func WithAnalyzePath(path string) ClientOption {
	return func(o *HTTPOracle) { o.analyzePath = path }
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *HTTPOracle) { o.httpClient.Timeout = d }
}

// analyzeRequest is the wire format sent to the oracle.
type analyzeRequest struct {
	Image  string `json:"image"`
	Query  string `json:"query"`
	Schema string `json:"schema"`
}

// Locate asks the oracle for element coordinates.
func (o *HTTPOracle) Locate(
	ctx context.Context,
	shot *desktop.Screenshot,
	query string,
) (*Answer, error) {
	data, err := o.analyze(ctx, shot, query, schemaCoordinates)
	if err != nil {
		return nil, err
	}

	var answer Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, fmt.Errorf(
			"%w: parse coordinates: %v",
			ErrMalformedResponse, err,
		)
	}
	if answer.Confidence < 0 || answer.Confidence > 1 {
		return nil, fmt.Errorf(
			"%w: confidence %v outside [0, 1]",
			ErrMalformedResponse, answer.Confidence,
		)
	}
	return &answer, nil
}

// Judge asks the oracle whether the screen shows the queried
// state.
func (o *HTTPOracle) Judge(
	ctx context.Context,
	shot *desktop.Screenshot,
	query string,
) (*Judgment, error) {
	data, err := o.analyze(ctx, shot, query, schemaJudgment)
	if err != nil {
		return nil, err
	}

	var judgment Judgment
	if err := json.Unmarshal(data, &judgment); err != nil {
		return nil, fmt.Errorf(
			"%w: parse judgment: %v",
			ErrMalformedResponse, err,
		)
	}
	if judgment.Confidence < 0 || judgment.Confidence > 1 {
		return nil, fmt.Errorf(
			"%w: confidence %v outside [0, 1]",
			ErrMalformedResponse, judgment.Confidence,
		)
	}
	return &judgment, nil
}

// analyze posts one screenshot + query and returns the raw JSON
// body after transport-level error classification.
func (o *HTTPOracle) analyze(
	ctx context.Context,
	shot *desktop.Screenshot,
	query, schema string,
) ([]byte, error) {
	if shot == nil || len(shot.PNG) == 0 {
		return nil, fmt.Errorf(
			"%w: empty screenshot", ErrMalformedResponse,
		)
	}

	payload, err := json.Marshal(analyzeRequest{
		Image:  base64.StdEncoding.EncodeToString(shot.PNG),
		Query:  query,
		Schema: schema,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		o.baseURL+o.analyzePath,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: read body: %v", ErrUnavailable, err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"%w: HTTP %d: %s",
			ErrMalformedResponse,
			resp.StatusCode,
			truncate(string(data), 200),
		)
	}

	return data, nil
}

// classifyTransportError maps net/http failures onto the oracle
// sentinels.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// truncate shortens s for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
