package render

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns(t *testing.T) {
	cols := Columns([]float64{0, 5, 10, -1, 11}, 10, 100)
	assert.Equal(t, []int{0, 50, 99}, cols)

	assert.Nil(t, Columns([]float64{1}, 0, 100))
}

func TestSpectrogramWritesPNG(t *testing.T) {
	const sr = 8000
	samples := make([]float64, 2*sr)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}

	out := filepath.Join(t.TempDir(), "track.png")
	err := Spectrogram(samples, sr, out, Options{Width: 256, Height: 128},
		Layer{Times: []float64{0, 1, 2}, Color: TruthColor},
		Layer{Times: []float64{0.9}},
	)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSpectrogramNoAudio(t *testing.T) {
	err := Spectrogram(nil, 8000, filepath.Join(t.TempDir(), "x.png"), DefaultOptions())
	assert.Error(t, err)
}
