package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/salami/internal/testutil"
	"github.com/himanishpuri/salami/pkg/salami"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}

type captureLogger struct {
	nopLogger
	errors []string
}

func (l *captureLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

// buildTestServer indexes tracks 1 and 2 (track 2 has annotator 1 only) and
// roots directory estimates at a fresh temp dir.
func buildTestServer(t *testing.T) (*Server, salami.Store) {
	t.Helper()

	audioDir, annDir := t.TempDir(), t.TempDir()
	testutil.Touch(t, audioDir, "1.mp3", "2.mp3")
	points1 := []testutil.Point{{Time: 0, Label: "Silence"}, {Time: 12.5, Label: "A"}, {Time: 30, Label: "end"}}
	points2 := []testutil.Point{{Time: 0, Label: "Silence"}, {Time: 10, Label: "A"}, {Time: 20, Label: "B"}, {Time: 30, Label: "end"}}
	testutil.WriteAnnotation(t, annDir, 1, 1, "uppercase", points1)
	testutil.WriteAnnotation(t, annDir, 1, 2, "uppercase", points2)
	testutil.WriteAnnotation(t, annDir, 2, 1, "uppercase", points1)

	index, err := salami.NewIndex(
		salami.WithAudioDir(audioDir),
		salami.WithAnnotationDir(annDir),
		salami.WithLogger(nopLogger{}),
	)
	require.NoError(t, err)

	store, err := salami.NewSQLiteStore(filepath.Join(t.TempDir(), "runs.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := NewServer(index, store, &ServerConfig{
		Tolerance:      0.5,
		AllowedOrigins: []string{"*"},
		EstimatesRoot:  t.TempDir(),
	})
	s.log = nopLogger{}
	return s, store
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s, _ := buildTestServer(t)
	return s.setupRoutes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealthAndCORS(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodOptions, "/api/evaluate", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListAndGetTracks(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/tracks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListTracksResponse](t, rec)
	assert.Equal(t, []int{1, 2}, list.IDs)

	rec = do(t, h, http.MethodGet, "/api/tracks/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	track := decode[TrackDTO](t, rec)
	assert.Equal(t, []int{1, 2}, track.Annotators["uppercase"])
	assert.Empty(t, track.Annotators["lowercase"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/tracks/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/tracks/abc", nil).Code)
}

func TestGetAnnotation(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/tracks/1/annotations?annotator=most", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AnnotationResponse](t, rec)
	assert.Equal(t, "most", resp.Selection)
	assert.Len(t, resp.Segments, 4)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/tracks/2/annotations?annotator=2", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/tracks/1/annotations?annotator=3", nil).Code)
}

func TestEvaluateAndRuns(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/evaluate", EvaluateRequest{SkipMissing: true, Save: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report := decode[ReportDTO](t, rec)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []int{2}, report.Skipped)
	require.Len(t, report.Tracks, 1)
	assert.InDelta(t, 0.5, report.Aggregate.Precision, 1e-12)

	rec = do(t, h, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[ListRunsResponse](t, rec)
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, report.RunID, runs.Runs[0].RunID)

	rec = do(t, h, http.MethodGet, "/api/runs/"+report.RunID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "annotation:annotator2", decode[ReportDTO](t, rec).Source)

	rec = do(t, h, http.MethodGet, "/api/history/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]TrackResultDTO](t, rec), 1)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/runs/"+report.RunID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/"+report.RunID, nil).Code)
}

func TestEvaluateRejectsBadRequests(t *testing.T) {
	h := newTestServer(t)
	neg := -1.0

	tests := []struct {
		name string
		req  EvaluateRequest
		code int
	}{
		{"unknown source", EvaluateRequest{Source: "magic"}, http.StatusBadRequest},
		{"dir without path", EvaluateRequest{Source: "dir"}, http.StatusBadRequest},
		{"negative tolerance", EvaluateRequest{Tolerance: &neg}, http.StatusBadRequest},
		{"bad id", EvaluateRequest{IDs: []int{0}}, http.StatusBadRequest},
		{"missing annotation", EvaluateRequest{IDs: []int{2}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, do(t, h, http.MethodPost, "/api/evaluate", tt.req).Code)
		})
	}

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/evaluate", nil).Code)
}

func TestEvaluateDirSourceStaysUnderRoot(t *testing.T) {
	s, _ := buildTestServer(t)
	h := s.setupRoutes()

	// A sibling of the root holds a file the client must not reach.
	outside := filepath.Join(filepath.Dir(s.config.EstimatesRoot), "outside")
	testutil.WriteRaw(t, outside, "1.txt", "0\n12.5\n30\n")
	testutil.WriteRaw(t, s.config.EstimatesRoot, "set/1.txt", "0\n12.5\n30\n")

	for _, dir := range []string{"../outside", "set/../../outside", outside, "/etc"} {
		t.Run(dir, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/evaluate", EvaluateRequest{Source: "dir", EstimatesDir: dir, IDs: []int{1}})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodPost, "/api/evaluate", EvaluateRequest{Source: "dir", EstimatesDir: "set", Truth: "1", IDs: []int{1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[ReportDTO](t, rec)
	assert.InDelta(t, 1.0, report.Aggregate.FMeasure*2, 1e-12)

	s.config.EstimatesRoot = ""
	rec = do(t, h, http.MethodPost, "/api/evaluate", EvaluateRequest{Source: "dir", EstimatesDir: "set", IDs: []int{1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateMalformedEstimate(t *testing.T) {
	s, _ := buildTestServer(t)
	h := s.setupRoutes()
	testutil.WriteRaw(t, s.config.EstimatesRoot, "bad/1.txt", "0\nhalfway\n")

	rec := do(t, h, http.MethodPost, "/api/evaluate", EvaluateRequest{Source: "dir", EstimatesDir: "bad", IDs: []int{1}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestServerErrorsLogStackTrace(t *testing.T) {
	s, store := buildTestServer(t)
	log := &captureLogger{}
	s.log = log
	h := s.setupRoutes()

	require.NoError(t, store.Close())
	rec := do(t, h, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	require.Len(t, log.errors, 1)
	assert.Contains(t, log.errors[0], "\tat ")
	assert.True(t, strings.Contains(log.errors[0], ".go:"), log.errors[0])
	// The client only sees the message, never the frames.
	assert.NotContains(t, rec.Body.String(), "\tat ")
}
