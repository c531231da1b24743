package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/himanishpuri/salami/pkg/logger"
	"github.com/himanishpuri/salami/pkg/salami"
	"github.com/himanishpuri/salami/pkg/salami/metrics"
	"github.com/himanishpuri/salami/pkg/salami/segmentation"
	"github.com/himanishpuri/salami/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	index  *salami.Index
	store  salami.Store
	config *ServerConfig
	log    salami.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	Tolerance      float64
	AllowedOrigins []string
	LogRequests    bool
	// EstimatesRoot is the only tree source "dir" may read from.
	EstimatesRoot string
}

// NewServer creates a new server instance
func NewServer(index *salami.Index, store salami.Store, config *ServerConfig) *Server {
	return &Server{
		index:  index,
		store:  store,
		config: config,
		log:    logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps library errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, salami.ErrNotFound), errors.Is(err, salami.ErrMissingAnnotation):
		return http.StatusNotFound
	case errors.Is(err, salami.ErrInvalidAnnotator),
		errors.Is(err, metrics.ErrInvalidTolerance),
		errors.Is(err, salami.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, salami.ErrMalformedAnnotation), errors.Is(err, salami.ErrMalformedEstimate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) respondFailure(w http.ResponseWriter, msg string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Errorf("%s: %s", msg, xerrors.Sprint(xerrors.New(err)))
	} else {
		s.log.Warnf("%s: %v", msg, err)
	}
	s.respondError(w, code, fmt.Sprintf("%s: %v", msg, err))
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SALAMI API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"tracks":      "GET /api/tracks",
			"track":       "GET /api/tracks/{id}",
			"annotations": "GET /api/tracks/{id}/annotations?annotator=1&level=uppercase",
			"evaluate":    "POST /api/evaluate",
			"runs":        "GET /api/runs",
			"run":         "GET /api/runs/{id}",
			"deleteRun":   "DELETE /api/runs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"tracks": s.index.Len(),
	})
}

// handleListTracks handles GET /api/tracks
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ids := s.index.IDs()
	s.respondJSON(w, http.StatusOK, ListTracksResponse{IDs: ids, Count: len(ids)})
}

// handleTrack routes requests to /api/tracks/{id} and /api/tracks/{id}/annotations
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tracks/"), "/")
	idStr, sub, _ := strings.Cut(rest, "/")
	id, ok := salami.ParseID(idStr)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid SALAMI ID")
		return
	}

	switch sub {
	case "":
		s.handleGetTrack(w, r, id)
	case "annotations":
		s.handleGetAnnotation(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleGetTrack handles GET /api/tracks/{id}
func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request, id int) {
	path, err := s.index.AudioPath(id)
	if err != nil {
		s.respondFailure(w, fmt.Sprintf("Track %d", id), err)
		return
	}

	dto := TrackDTO{ID: id, AudioPath: path, Annotators: map[string][]int{}}
	if size, err := utils.FileSize(path); err == nil {
		dto.SizeBytes = size
	}
	ann := s.index.Annotation(id)
	for _, g := range []salami.Granularity{salami.Coarse, salami.Fine} {
		available := ann.Available(g)
		if available == nil {
			available = []int{}
		}
		dto.Annotators[g.String()] = available
	}
	s.respondJSON(w, http.StatusOK, dto)
}

// handleGetAnnotation handles GET /api/tracks/{id}/annotations
func (s *Server) handleGetAnnotation(w http.ResponseWriter, r *http.Request, id int) {
	q := r.URL.Query()
	selStr, levelStr := q.Get("annotator"), q.Get("level")
	if selStr == "" {
		selStr = "1"
	}
	if levelStr == "" {
		levelStr = "uppercase"
	}
	sel, err := salami.ParseSelection(selStr)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := salami.ParseGranularity(levelStr)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	segs, err := s.index.Annotation(id).Select(sel, g)
	if err != nil {
		s.respondFailure(w, fmt.Sprintf("Annotation for track %d", id), err)
		return
	}

	resp := AnnotationResponse{ID: id, Selection: sel.String(), Level: g.String(), Segments: make([]SegmentDTO, len(segs))}
	for i, seg := range segs {
		resp.Segments[i] = SegmentDTO{Time: seg.Time, Label: seg.Label}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) estimateSource(req *EvaluateRequest, g salami.Granularity) (salami.EstimateSource, error) {
	switch req.Source {
	case "dir":
		if s.config.EstimatesRoot == "" {
			return nil, errors.New("directory estimates are disabled on this server")
		}
		return &salami.DirSource{Dir: filepath.Join(s.config.EstimatesRoot, req.EstimatesDir)}, nil
	case "novelty":
		return &salami.NoveltySource{
			Index:        s.index,
			TempDir:      s.config.TempDir,
			SampleRate:   s.config.SampleRate,
			Params:       segmentation.DefaultParams(),
			IncludeEdges: true,
		}, nil
	}
	sel, err := salami.ParseSelection(req.Against)
	if err != nil {
		return nil, err
	}
	return &salami.AnnotatorSource{Index: s.index, Selection: sel, Granularity: g}, nil
}

// handleEvaluate handles POST /api/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := salami.ParseGranularity(req.Level)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	truth, err := salami.ParseSelection(req.Truth)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	src, err := s.estimateSource(&req, g)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tolerance := s.config.Tolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}
	ids := req.IDs
	if len(ids) == 0 {
		ids = s.index.IDs()
	}

	s.log.Infof("Evaluating %d tracks with %s (tolerance %gs)", len(ids), src.Name(), tolerance)
	ev := salami.NewEvaluator(s.index, src, salami.EvalOptions{
		Granularity: g,
		Selection:   truth,
		Tolerance:   tolerance,
		SkipMissing: req.SkipMissing,
		Logger:      s.log,
	})
	report, err := ev.Evaluate(ctx, ids)
	if err != nil {
		s.respondFailure(w, "Evaluation failed", err)
		return
	}

	status := http.StatusOK
	if req.Save {
		if _, err := s.store.SaveRun(report); err != nil {
			s.respondFailure(w, "Failed to save run", err)
			return
		}
		status = http.StatusCreated
		s.log.Infof("Saved run %s", report.RunID)
	}
	s.respondJSON(w, status, toReportDTO(report))
}

// handleListRuns handles GET /api/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runs, err := s.store.ListRuns()
	if err != nil {
		s.respondFailure(w, "Failed to list runs", err)
		return
	}

	dtos := make([]RunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = RunSummaryDTO{
			RunID:       run.RunID,
			CreatedAt:   run.CreatedAt,
			Source:      run.Source,
			Granularity: run.Granularity,
			Tolerance:   run.Tolerance,
			TrackCount:  run.TrackCount,
			Precision:   run.Precision,
			Recall:      run.Recall,
			FMeasure:    run.FMeasure,
		}
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

// handleRun routes requests to /api/runs/{id}
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
	if runID == "" {
		s.respondError(w, http.StatusBadRequest, "Run ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		report, err := s.store.GetRun(runID)
		if err != nil {
			s.respondFailure(w, "Run "+runID, err)
			return
		}
		s.respondJSON(w, http.StatusOK, toReportDTO(report))
	case http.MethodDelete:
		if err := s.store.DeleteRun(runID); err != nil {
			s.respondFailure(w, "Run "+runID, err)
			return
		}
		s.log.Infof("Deleted run %s", runID)
		s.respondJSON(w, http.StatusOK, DeleteRunResponse{Message: "Run deleted successfully", RunID: runID})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTrackHistory handles GET /api/history/{id}
func (s *Server) handleTrackHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history/"), "/"))
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid SALAMI ID")
		return
	}

	rows, err := s.store.TrackHistory(id)
	if err != nil {
		s.respondFailure(w, fmt.Sprintf("History of track %d", id), err)
		return
	}
	out := make([]TrackResultDTO, len(rows))
	for i, t := range rows {
		out[i] = TrackResultDTO{TrackID: t.TrackID, Score: toScoreDTO(t.Score), Degenerate: t.Degenerate}
	}
	s.respondJSON(w, http.StatusOK, out)
}
