// Package metrics scores estimated segment boundaries against ground truth
// with a tolerance window.
//
// Both forms report F-measure as P·R/(P+R), half of the usual harmonic mean.
// This matches the numbers produced by earlier SALAMI evaluation scripts;
// Score.HarmonicF1 gives the conventional value.
package metrics

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDegenerateInput is returned when the estimate or truth total is zero,
	// which leaves precision or recall undefined.
	ErrDegenerateInput = errors.New("degenerate metric input")
	// ErrInvalidTolerance is returned for negative or NaN tolerances.
	ErrInvalidTolerance = errors.New("invalid tolerance")
	// ErrLengthMismatch is returned when batched truth and estimate lists do
	// not pair up.
	ErrLengthMismatch = errors.New("truth and estimate track counts differ")
)

// Score holds the hit counts and derived ratios of one evaluation.
type Score struct {
	// EstimateHits counts estimates within tolerance of some truth.
	EstimateHits int
	// TruthHits is the numerator of Recall. HitRate credits every matching
	// estimate, so for a single track it equals EstimateHits and can exceed
	// Truths. HitRateBatch counts annotation boundaries matched at least
	// once, which never exceeds Truths.
	TruthHits int

	Estimates int
	Truths    int
	Precision float64
	Recall    float64
	FMeasure  float64
}

// HarmonicF1 returns 2·P·R/(P+R).
func (s Score) HarmonicF1() float64 {
	return 2 * s.FMeasure
}

func checkTolerance(tolerance float64) error {
	if math.IsNaN(tolerance) || tolerance < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, tolerance)
	}
	return nil
}

func finish(s Score) (Score, error) {
	if s.Estimates == 0 {
		return s, fmt.Errorf("%w: no estimated boundaries", ErrDegenerateInput)
	}
	if s.Truths == 0 {
		return s, fmt.Errorf("%w: no ground-truth boundaries", ErrDegenerateInput)
	}
	s.Precision = float64(s.EstimateHits) / float64(s.Estimates)
	s.Recall = float64(s.TruthHits) / float64(s.Truths)
	if s.Precision+s.Recall > 0 {
		s.FMeasure = s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s, nil
}

func within(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// HitRate scores one track. An estimate is correct when any truth boundary
// lies within tolerance of it; a single truth boundary may be credited to
// several estimates, so recall uses the correct-estimate count and can
// exceed 1 when estimates crowd around one boundary.
func HitRate(truth, estimate []float64, tolerance float64) (Score, error) {
	if err := checkTolerance(tolerance); err != nil {
		return Score{}, err
	}

	correct := 0
	for _, est := range estimate {
		for _, tb := range truth {
			if within(est, tb, tolerance) {
				correct++
				break
			}
		}
	}

	return finish(Score{
		EstimateHits: correct,
		TruthHits:    correct,
		Estimates:    len(estimate),
		Truths:       len(truth),
	})
}

// HitRateBatch scores many tracks at once. truth[i] pairs with estimate[i].
// Within a track every estimate and every truth boundary is flagged as hit
// at most once, over all pairs within tolerance. Precision and recall are
// computed over the totals of all tracks.
func HitRateBatch(truth, estimate [][]float64, tolerance float64) (Score, error) {
	if err := checkTolerance(tolerance); err != nil {
		return Score{}, err
	}
	if len(truth) != len(estimate) {
		return Score{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(truth), len(estimate))
	}

	var s Score
	for i := range truth {
		estHit, truthHit := trackHits(truth[i], estimate[i], tolerance)
		s.EstimateHits += estHit
		s.TruthHits += truthHit
		s.Estimates += len(estimate[i])
		s.Truths += len(truth[i])
	}
	return finish(s)
}

func trackHits(truth, estimate []float64, tolerance float64) (int, int) {
	estFlags := make([]bool, len(estimate))
	truthFlags := make([]bool, len(truth))
	for i, est := range estimate {
		for j, tb := range truth {
			if within(est, tb, tolerance) {
				estFlags[i] = true
				truthFlags[j] = true
			}
		}
	}
	return countTrue(estFlags), countTrue(truthFlags)
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
