package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.automation/pkg/desktop"
)

func testShot() *desktop.Screenshot {
	return &desktop.Screenshot{
		PNG:    []byte("fake-png"),
		Width:  1920,
		Height: 1080,
	}
}

func TestHTTPOracle_Locate(t *testing.T) {
	var gotReq analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/v1/analyze", r.URL.Path)
			require.Equal(
				t, "Bearer secret",
				r.Header.Get("Authorization"),
			)
			require.NoError(
				t,
				json.NewDecoder(r.Body).Decode(&gotReq),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(
				`{"found":true,"x":640,"y":360,` +
					`"confidence":0.92,"description":"File menu"}`,
			))
		},
	))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, WithAPIKey("secret"))
	ans, err := o.Locate(
		context.Background(), testShot(), "the File menu",
	)
	require.NoError(t, err)

	assert.True(t, ans.Found)
	assert.Equal(t, 640, ans.X)
	assert.Equal(t, 360, ans.Y)
	assert.InDelta(t, 0.92, ans.Confidence, 1e-9)
	assert.Equal(t, "the File menu", gotReq.Query)
	assert.Equal(t, schemaCoordinates, gotReq.Schema)
	assert.NotEmpty(t, gotReq.Image)
}

func TestHTTPOracle_Judge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req analyzeRequest
			require.NoError(
				t,
				json.NewDecoder(r.Body).Decode(&req),
			)
			assert.Equal(t, schemaJudgment, req.Schema)
			w.Write([]byte(
				`{"matches":true,"confidence":0.88,` +
					`"description":"editor is open"}`,
			))
		},
	))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL)
	j, err := o.Judge(
		context.Background(), testShot(),
		"text editor window is open",
	)
	require.NoError(t, err)
	assert.True(t, j.Matches)
	assert.InDelta(t, 0.88, j.Confidence, 1e-9)
}

func TestHTTPOracle_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json at all"))
		},
	))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL)
	_, err := o.Locate(
		context.Background(), testShot(), "anything",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestHTTPOracle_ConfidenceOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(
				`{"found":true,"x":1,"y":1,"confidence":1.7}`,
			))
		},
	))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL)
	_, err := o.Locate(
		context.Background(), testShot(), "anything",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestHTTPOracle_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(
				w, "model overloaded",
				http.StatusServiceUnavailable,
			)
		},
	))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL)
	_, err := o.Judge(
		context.Background(), testShot(), "anything",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPOracle_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		},
	))
	defer srv.Close()

	o := NewHTTPOracle(
		srv.URL, WithTimeout(20*time.Millisecond),
	)
	_, err := o.Locate(
		context.Background(), testShot(), "anything",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestHTTPOracle_Unavailable(t *testing.T) {
	// Point at a closed port.
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {},
	))
	url := srv.URL
	srv.Close()

	o := NewHTTPOracle(url)
	_, err := o.Locate(
		context.Background(), testShot(), "anything",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestHTTPOracle_RejectsEmptyScreenshot(t *testing.T) {
	o := NewHTTPOracle("http://localhost:1")
	_, err := o.Locate(context.Background(), nil, "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}
