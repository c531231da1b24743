package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/himanishpuri/salami/pkg/salami"
	"github.com/himanishpuri/salami/pkg/salami/metrics"
)

// MaxEvaluateIDs bounds the number of tracks one request may evaluate.
const MaxEvaluateIDs = 2000

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ListTracksResponse struct {
	IDs   []int `json:"ids"`
	Count int   `json:"count"`
}

type TrackDTO struct {
	ID        int    `json:"id"`
	AudioPath string `json:"audioPath"`
	SizeBytes int64  `json:"sizeBytes"`
	// Annotators lists, per level, which annotators have a file.
	Annotators map[string][]int `json:"annotators"`
}

type SegmentDTO struct {
	Time  float64 `json:"time"`
	Label string  `json:"label"`
}

type AnnotationResponse struct {
	ID        int          `json:"id"`
	Selection string       `json:"selection"`
	Level     string       `json:"level"`
	Segments  []SegmentDTO `json:"segments"`
}

// EvaluateRequest is the body of POST /api/evaluate.
type EvaluateRequest struct {
	// Source is "annotator" (default), "dir" or "novelty".
	Source string `json:"source"`
	// EstimatesDir is required when Source is "dir". It is resolved under the
	// server's estimates root and may not leave it.
	EstimatesDir string `json:"estimatesDir,omitempty"`
	Truth        string `json:"truth,omitempty"`
	Against      string `json:"against,omitempty"`
	Level        string `json:"level,omitempty"`
	// Tolerance defaults to the server's configured tolerance.
	Tolerance   *float64 `json:"tolerance,omitempty"`
	IDs         []int    `json:"ids,omitempty"`
	SkipMissing bool     `json:"skipMissing"`
	Save        bool     `json:"save"`
}

// Validate fills defaults and checks the request.
func (r *EvaluateRequest) Validate() error {
	if r.Source == "" {
		r.Source = "annotator"
	}
	if r.Truth == "" {
		r.Truth = "1"
	}
	if r.Against == "" {
		r.Against = "2"
	}
	if r.Level == "" {
		r.Level = "uppercase"
	}
	switch r.Source {
	case "annotator", "novelty":
	case "dir":
		if r.EstimatesDir == "" {
			return errors.New("estimatesDir is required for source \"dir\"")
		}
		if !filepath.IsLocal(r.EstimatesDir) {
			return fmt.Errorf("estimatesDir %q must be a relative path inside the estimates root", r.EstimatesDir)
		}
	default:
		return fmt.Errorf("unknown source %q", r.Source)
	}
	if r.Tolerance != nil && *r.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %v", *r.Tolerance)
	}
	if len(r.IDs) > MaxEvaluateIDs {
		return fmt.Errorf("too many ids: %d (maximum: %d)", len(r.IDs), MaxEvaluateIDs)
	}
	for _, id := range r.IDs {
		if id <= 0 {
			return fmt.Errorf("invalid SALAMI ID %d", id)
		}
	}
	return nil
}

type ScoreDTO struct {
	EstimateHits int     `json:"estimateHits"`
	TruthHits    int     `json:"truthHits"`
	Estimates    int     `json:"estimates"`
	Truths       int     `json:"truths"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	FMeasure     float64 `json:"fMeasure"`
}

type TrackResultDTO struct {
	TrackID    int      `json:"trackId"`
	Score      ScoreDTO `json:"score"`
	Degenerate bool     `json:"degenerate,omitempty"`
}

type ReportDTO struct {
	RunID       string           `json:"runId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	Source      string           `json:"source"`
	Granularity string           `json:"granularity"`
	Selection   string           `json:"selection"`
	Tolerance   float64          `json:"tolerance"`
	Tracks      []TrackResultDTO `json:"tracks"`
	Skipped     []int            `json:"skipped"`
	Aggregate   ScoreDTO         `json:"aggregate"`
	MeanF       float64          `json:"meanF"`
	StdDevF     float64          `json:"stdDevF"`
}

type RunSummaryDTO struct {
	RunID       string    `json:"runId"`
	CreatedAt   time.Time `json:"createdAt"`
	Source      string    `json:"source"`
	Granularity string    `json:"granularity"`
	Tolerance   float64   `json:"tolerance"`
	TrackCount  int       `json:"trackCount"`
	Precision   float64   `json:"precision"`
	Recall      float64   `json:"recall"`
	FMeasure    float64   `json:"fMeasure"`
}

type ListRunsResponse struct {
	Runs  []RunSummaryDTO `json:"runs"`
	Count int             `json:"count"`
}

type DeleteRunResponse struct {
	Message string `json:"message"`
	RunID   string `json:"runId"`
}

func toScoreDTO(s metrics.Score) ScoreDTO {
	return ScoreDTO{
		EstimateHits: s.EstimateHits,
		TruthHits:    s.TruthHits,
		Estimates:    s.Estimates,
		Truths:       s.Truths,
		Precision:    s.Precision,
		Recall:       s.Recall,
		FMeasure:     s.FMeasure,
	}
}

func toReportDTO(r *salami.Report) ReportDTO {
	dto := ReportDTO{
		RunID:       r.RunID,
		CreatedAt:   r.CreatedAt,
		Source:      r.Source,
		Granularity: r.Granularity.String(),
		Selection:   r.Selection.String(),
		Tolerance:   r.Tolerance,
		Tracks:      make([]TrackResultDTO, len(r.Tracks)),
		Skipped:     r.Skipped,
		Aggregate:   toScoreDTO(r.Aggregate),
		MeanF:       r.MeanF,
		StdDevF:     r.StdDevF,
	}
	if dto.Skipped == nil {
		dto.Skipped = []int{}
	}
	for i, t := range r.Tracks {
		dto.Tracks[i] = TrackResultDTO{TrackID: t.TrackID, Score: toScoreDTO(t.Score), Degenerate: t.Degenerate}
	}
	return dto
}
