package salami

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/himanishpuri/salami/pkg/salami/metrics"
	"github.com/himanishpuri/salami/pkg/salami/storage"
)

// storageAdapter adapts storage.DBClient to the Store interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStore opens (or creates) a SQLite results database.
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

// SaveRun stores report and sets its RunID.
func (s *storageAdapter) SaveRun(report *Report) (string, error) {
	run := &storage.Run{
		ID:           report.RunID,
		Source:       report.Source,
		Granularity:  report.Granularity.String(),
		Selection:    report.Selection.String(),
		Tolerance:    report.Tolerance,
		EstimateHits: report.Aggregate.EstimateHits,
		TruthHits:    report.Aggregate.TruthHits,
		Estimates:    report.Aggregate.Estimates,
		Truths:       report.Aggregate.Truths,
		Precision:    report.Aggregate.Precision,
		Recall:       report.Aggregate.Recall,
		FMeasure:     report.Aggregate.FMeasure,
		MeanF:        report.MeanF,
		StdDevF:      report.StdDevF,
		TrackCount:   len(report.Tracks),
		Skipped:      report.Skipped,
		CreatedAt:    report.CreatedAt,
	}
	run.Tracks = make([]storage.TrackResult, len(report.Tracks))
	for i, t := range report.Tracks {
		run.Tracks[i] = storage.TrackResult{
			TrackID:      t.TrackID,
			EstimateHits: t.Score.EstimateHits,
			TruthHits:    t.Score.TruthHits,
			Estimates:    t.Score.Estimates,
			Truths:       t.Score.Truths,
			Precision:    t.Score.Precision,
			Recall:       t.Score.Recall,
			FMeasure:     t.Score.FMeasure,
			Degenerate:   t.Degenerate,
		}
	}

	if err := s.db.CreateRun(run); err != nil {
		return "", err
	}
	report.RunID = run.ID
	report.CreatedAt = run.CreatedAt
	return run.ID, nil
}

func (s *storageAdapter) GetRun(runID string) (*Report, error) {
	run, err := s.db.GetRun(runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, err
	}

	// Stored names are always produced by String, so parse errors cannot occur
	// for rows written by SaveRun.
	g, _ := ParseGranularity(run.Granularity)
	sel, _ := ParseSelection(run.Selection)

	report := &Report{
		RunID:       run.ID,
		CreatedAt:   run.CreatedAt,
		Source:      run.Source,
		Granularity: g,
		Selection:   sel,
		Tolerance:   run.Tolerance,
		Skipped:     run.Skipped,
		Aggregate: metrics.Score{
			EstimateHits: run.EstimateHits,
			TruthHits:    run.TruthHits,
			Estimates:    run.Estimates,
			Truths:       run.Truths,
			Precision:    run.Precision,
			Recall:       run.Recall,
			FMeasure:     run.FMeasure,
		},
		MeanF:   run.MeanF,
		StdDevF: run.StdDevF,
	}
	for _, t := range run.Tracks {
		report.Tracks = append(report.Tracks, fromStoredTrack(t))
	}
	return report, nil
}

func fromStoredTrack(t storage.TrackResult) TrackResult {
	return TrackResult{
		TrackID:    t.TrackID,
		Degenerate: t.Degenerate,
		Score: metrics.Score{
			EstimateHits: t.EstimateHits,
			TruthHits:    t.TruthHits,
			Estimates:    t.Estimates,
			Truths:       t.Truths,
			Precision:    t.Precision,
			Recall:       t.Recall,
			FMeasure:     t.FMeasure,
		},
	}
}

func (s *storageAdapter) ListRuns() ([]RunSummary, error) {
	runs, err := s.db.ListRuns()
	if err != nil {
		return nil, err
	}

	out := make([]RunSummary, len(runs))
	for i, r := range runs {
		out[i] = RunSummary{
			RunID:       r.ID,
			CreatedAt:   r.CreatedAt,
			Source:      r.Source,
			Granularity: r.Granularity,
			Tolerance:   r.Tolerance,
			TrackCount:  r.TrackCount,
			Precision:   r.Precision,
			Recall:      r.Recall,
			FMeasure:    r.FMeasure,
		}
	}
	return out, nil
}

func (s *storageAdapter) DeleteRun(runID string) error {
	if err := s.db.DeleteRun(runID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return err
	}
	return nil
}

// TrackHistory returns every stored result for trackID, oldest first.
func (s *storageAdapter) TrackHistory(trackID int) ([]TrackResult, error) {
	rows, err := s.db.TrackHistory(trackID)
	if err != nil {
		return nil, err
	}
	out := make([]TrackResult, len(rows))
	for i, r := range rows {
		out[i] = fromStoredTrack(r)
	}
	return out, nil
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
