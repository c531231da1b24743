package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-12

func TestHitRateSingleTrack(t *testing.T) {
	s, err := HitRate([]float64{1.0, 5.0}, []float64{1.05, 5.2, 9.0}, 0.3)
	require.NoError(t, err)

	assert.Equal(t, 2, s.EstimateHits)
	assert.InDelta(t, 2.0/3.0, s.Precision, eps)
	assert.InDelta(t, 1.0, s.Recall, eps)
	assert.InDelta(t, 0.4, s.FMeasure, eps)
	assert.InDelta(t, 0.8, s.HarmonicF1(), eps)
}

func TestHitRateOrderIndependent(t *testing.T) {
	a, err := HitRate([]float64{5.0, 1.0}, []float64{9.0, 1.05, 5.2}, 0.3)
	require.NoError(t, err)
	b, err := HitRate([]float64{1.0, 5.0}, []float64{1.05, 5.2, 9.0}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHitRateOneTruthManyEstimates(t *testing.T) {
	s, err := HitRate([]float64{10.0}, []float64{9.9, 10.0, 10.1}, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 3, s.EstimateHits)
	// Every estimate is credited to recall, so hits outnumber truths.
	assert.Equal(t, 3, s.TruthHits)
	assert.Equal(t, 1, s.Truths)
	assert.Greater(t, s.TruthHits, s.Truths)
	assert.InDelta(t, 1.0, s.Precision, eps)
	assert.InDelta(t, 3.0, s.Recall, eps)
}

func TestHitRateToleranceBoundary(t *testing.T) {
	t.Run("zero tolerance needs equality", func(t *testing.T) {
		s, err := HitRate([]float64{1.0, 2.0}, []float64{1.0, 2.0000001}, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, s.EstimateHits)
	})

	t.Run("inclusive", func(t *testing.T) {
		s, err := HitRate([]float64{1.0}, []float64{1.5}, 0.5)
		require.NoError(t, err)
		assert.Equal(t, 1, s.EstimateHits)
	})
}

func TestHitRateNoHits(t *testing.T) {
	s, err := HitRate([]float64{1.0}, []float64{3.0}, 0.5)
	require.NoError(t, err)
	assert.Zero(t, s.Precision)
	assert.Zero(t, s.Recall)
	assert.Zero(t, s.FMeasure)
}

func TestHitRateDegenerate(t *testing.T) {
	_, err := HitRate([]float64{1.0}, nil, 0.5)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = HitRate(nil, []float64{1.0}, 0.5)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestHitRateInvalidTolerance(t *testing.T) {
	_, err := HitRate([]float64{1.0}, []float64{1.0}, -0.1)
	assert.ErrorIs(t, err, ErrInvalidTolerance)

	_, err = HitRateBatch([][]float64{{1.0}}, [][]float64{{1.0}}, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidTolerance)
}

func TestHitRateBatch(t *testing.T) {
	truth := [][]float64{{1.0}, {2.0, 4.0}}
	est := [][]float64{{1.1}, {2.0}}

	s, err := HitRateBatch(truth, est, 0.2)
	require.NoError(t, err)

	assert.Equal(t, 2, s.EstimateHits)
	assert.Equal(t, 2, s.TruthHits)
	assert.Equal(t, 2, s.Estimates)
	assert.Equal(t, 3, s.Truths)
	assert.InDelta(t, 1.0, s.Precision, eps)
	assert.InDelta(t, 2.0/3.0, s.Recall, eps)
	assert.InDelta(t, 0.4, s.FMeasure, eps)
}

func TestHitRateBatchFlagsOncePerBoundary(t *testing.T) {
	// Three estimates around one truth boundary hit it once on the truth side.
	s, err := HitRateBatch([][]float64{{10.0}}, [][]float64{{9.9, 10.0, 10.1}}, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 3, s.EstimateHits)
	assert.Equal(t, 1, s.TruthHits)
	assert.InDelta(t, 1.0, s.Recall, eps)
}

func TestHitRateBatchEmptyTrackAllowed(t *testing.T) {
	s, err := HitRateBatch([][]float64{{1.0}, {}}, [][]float64{{1.0}, {}}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Precision, eps)
}

func TestHitRateBatchErrors(t *testing.T) {
	_, err := HitRateBatch([][]float64{{1.0}}, [][]float64{{1.0}, {2.0}}, 0.1)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = HitRateBatch([][]float64{{1.0}}, [][]float64{{}}, 0.1)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = HitRateBatch(nil, nil, 0.1)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}
