package segmentation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(freq float64, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestHamming(t *testing.T) {
	w := Hamming(5)
	assert.InDelta(t, 0.08, w[0], 1e-12)
	assert.InDelta(t, 1.0, w[2], 1e-12)
	assert.InDelta(t, w[0], w[4], 1e-12)
}

func TestSTFTShape(t *testing.T) {
	spec, err := STFT(make([]float64, 4096), 1024, 512)
	require.NoError(t, err)
	assert.Len(t, spec, 7)
	assert.Len(t, spec[0], 512)

	_, err = STFT(make([]float64, 100), 1024, 512)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestBandEdgesStrictlyIncreasing(t *testing.T) {
	edges := bandEdges(1024, 40, 22050)
	require.NotEmpty(t, edges)
	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1])
	}
	assert.LessOrEqual(t, edges[len(edges)-1], 1024)
}

func TestPool(t *testing.T) {
	frames := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}}
	got := Pool(frames, 2)
	assert.Equal(t, [][]float64{{2, 3}, {6, 7}}, got)
}

func TestNoveltyPeaksAtChange(t *testing.T) {
	var features [][]float64
	for i := 0; i < 20; i++ {
		features = append(features, []float64{1, 0, 0})
	}
	for i := 0; i < 20; i++ {
		features = append(features, []float64{0, 1, 0})
	}

	nov := Novelty(features, 4)
	best := 0
	for i, v := range nov {
		if v > nov[best] {
			best = i
		}
	}
	assert.Equal(t, 20, best)
	assert.InDelta(t, 0, nov[10], 1e-12)
	assert.Zero(t, nov[0])
}

func TestPickPeaks(t *testing.T) {
	curve := []float64{0, 0, 1, 0, 0, 0, 0.9, 0.95, 0, 0, 0, 0, 0, 0, 3, 0}

	assert.Equal(t, []int{2, 7, 14}, PickPeaks(curve, 1, 0, 1))
	// 7 lies within 6 positions of the stronger peak at 2.
	assert.Equal(t, []int{2, 14}, PickPeaks(curve, 1, 0, 6))
	assert.Equal(t, []int{14}, PickPeaks(curve, 1, 2, 1))
	assert.Nil(t, PickPeaks(nil, 1, 0, 1))
}

func TestEstimateFindsToneChange(t *testing.T) {
	const sr = 8000
	samples := append(tone(440, 10, sr), tone(2000, 10, sr)...)

	bounds, err := Estimate(samples, sr, DefaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, bounds)

	found := false
	for _, b := range bounds {
		if math.Abs(b-10) <= 1.0 {
			found = true
		}
	}
	assert.True(t, found, "no boundary near 10s in %v", bounds)
}

func TestEstimateRejectsBadInput(t *testing.T) {
	_, err := Estimate(make([]float64, 10), 8000, DefaultParams())
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = Estimate(make([]float64, 10000), 0, DefaultParams())
	assert.Error(t, err)
}
