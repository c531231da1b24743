package segmentation

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	WindowSize = 2048
	HopSize    = 512
)

// ErrTooShort is returned when the signal is shorter than one analysis window.
var ErrTooShort = errors.New("audio shorter than analysis window")

func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// MagnitudeSpectrum keeps the non-negative frequency half of spectrum.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// STFT returns one magnitude frame per hop.
func STFT(samples []float64, windowSize, hopSize int) ([][]float64, error) {
	if windowSize <= 0 || hopSize <= 0 {
		return nil, errors.New("window and hop sizes must be positive")
	}
	if len(samples) < windowSize {
		return nil, ErrTooShort
	}

	window := Hamming(windowSize)
	frame := make([]float64, windowSize)
	spectrogram := make([][]float64, 0, (len(samples)-windowSize)/hopSize+1)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := 0; i < windowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		spectrogram = append(spectrogram, MagnitudeSpectrum(fft.FFTReal(frame)))
	}
	return spectrogram, nil
}
