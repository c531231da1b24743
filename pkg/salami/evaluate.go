package salami

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/himanishpuri/salami/pkg/logger"
	"github.com/himanishpuri/salami/pkg/salami/metrics"
)

type EvalOptions struct {
	Granularity Granularity
	// Selection picks the ground-truth annotator.
	Selection Selection
	Tolerance float64
	// SkipMissing skips tracks whose annotation, estimate or audio is absent
	// instead of failing the run.
	SkipMissing bool
	Logger      Logger
}

// Evaluator scores an EstimateSource against SALAMI annotations.
type Evaluator struct {
	index  *Index
	source EstimateSource
	opts   EvalOptions
	log    Logger
}

func NewEvaluator(index *Index, source EstimateSource, opts EvalOptions) *Evaluator {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Evaluator{index: index, source: source, opts: opts, log: log}
}

func skippable(err error) bool {
	return errors.Is(err, ErrMissingAnnotation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, fs.ErrNotExist)
}

// Evaluate scores every track in ids. Each track gets a single-track score;
// the aggregate pools hit counts over all evaluated tracks.
func (e *Evaluator) Evaluate(ctx context.Context, ids []int) (*Report, error) {
	report := &Report{
		CreatedAt:   time.Now().UTC(),
		Source:      e.source.Name(),
		Granularity: e.opts.Granularity,
		Selection:   e.opts.Selection,
		Tolerance:   e.opts.Tolerance,
	}

	var truths, estimates [][]float64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		segs, err := e.index.Annotation(id).Select(e.opts.Selection, e.opts.Granularity)
		if err != nil {
			if e.opts.SkipMissing && skippable(err) {
				e.log.Warnf("Skipping track %d: %v", id, err)
				report.Skipped = append(report.Skipped, id)
				continue
			}
			return nil, fmt.Errorf("track %d: %w", id, err)
		}

		est, err := e.source.Estimate(ctx, id)
		if err != nil {
			if e.opts.SkipMissing && skippable(err) {
				e.log.Warnf("Skipping track %d: %v", id, err)
				report.Skipped = append(report.Skipped, id)
				continue
			}
			return nil, fmt.Errorf("track %d: estimating with %s: %w", id, e.source.Name(), err)
		}

		truth := Boundaries(segs)
		result := TrackResult{TrackID: id}
		score, err := metrics.HitRate(truth, est, e.opts.Tolerance)
		switch {
		case errors.Is(err, metrics.ErrDegenerateInput):
			result.Degenerate = true
			result.Score = metrics.Score{Estimates: len(est), Truths: len(truth)}
		case err != nil:
			return nil, fmt.Errorf("track %d: %w", id, err)
		default:
			result.Score = score
		}
		e.log.Debugf("Track %d: P=%.3f R=%.3f F=%.3f", id, result.Score.Precision, result.Score.Recall, result.Score.FMeasure)

		report.Tracks = append(report.Tracks, result)
		truths = append(truths, truth)
		estimates = append(estimates, est)
	}

	agg, err := metrics.HitRateBatch(truths, estimates, e.opts.Tolerance)
	switch {
	case errors.Is(err, metrics.ErrDegenerateInput):
		// Counts are still reported; the ratios stay zero.
		e.log.Warnf("Aggregate score undefined: %v", err)
	case err != nil:
		return nil, err
	}
	report.Aggregate = agg
	report.MeanF, report.StdDevF = fSummary(report.Tracks)

	e.log.Infof("Evaluated %d tracks (%d skipped) with %s: P=%.3f R=%.3f F=%.3f",
		len(report.Tracks), len(report.Skipped), report.Source, agg.Precision, agg.Recall, agg.FMeasure)
	return report, nil
}

func fSummary(tracks []TrackResult) (float64, float64) {
	var values []float64
	for _, t := range tracks {
		if !t.Degenerate {
			values = append(values, t.Score.FMeasure)
		}
	}
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
