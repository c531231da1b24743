// Package segmentation estimates structural boundaries from audio with a
// self-similarity novelty curve. It is a baseline to evaluate against the
// SALAMI annotations, not a state-of-the-art segmenter.
package segmentation

import (
	"errors"
	"math"
)

type Params struct {
	WindowSize   int
	HopSize      int
	Bands        int
	BlockSeconds float64
	// KernelBlocks is the half-width of the checkerboard kernel in blocks.
	KernelBlocks int
	// Delta scales the novelty standard deviation added to the mean to form
	// the peak threshold.
	Delta float64
	// MinSpacing is the minimum distance between two boundaries in seconds.
	MinSpacing float64
}

func DefaultParams() Params {
	return Params{
		WindowSize:   WindowSize,
		HopSize:      HopSize,
		Bands:        40,
		BlockSeconds: 0.5,
		KernelBlocks: 8,
		Delta:        0.5,
		MinSpacing:   4.0,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.WindowSize == 0 {
		p.WindowSize = d.WindowSize
	}
	if p.HopSize == 0 {
		p.HopSize = d.HopSize
	}
	if p.Bands == 0 {
		p.Bands = d.Bands
	}
	if p.BlockSeconds == 0 {
		p.BlockSeconds = d.BlockSeconds
	}
	if p.KernelBlocks == 0 {
		p.KernelBlocks = d.KernelBlocks
	}
	if p.MinSpacing == 0 {
		p.MinSpacing = d.MinSpacing
	}
	return p
}

// Curve is a novelty curve sampled every BlockDuration seconds.
type Curve struct {
	Values        []float64
	BlockDuration float64
}

// NoveltyCurve computes the novelty curve of mono samples.
func NoveltyCurve(samples []float64, sampleRate int, p Params) (*Curve, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	p = p.withDefaults()

	spec, err := STFT(samples, p.WindowSize, p.HopSize)
	if err != nil {
		return nil, err
	}

	frameSeconds := float64(p.HopSize) / float64(sampleRate)
	perBlock := int(math.Max(1, math.Round(p.BlockSeconds/frameSeconds)))

	blocks := Pool(BandFeatures(spec, p.Bands, sampleRate), perBlock)
	return &Curve{
		Values:        Novelty(blocks, p.KernelBlocks),
		BlockDuration: float64(perBlock) * frameSeconds,
	}, nil
}

// Estimate returns boundary times in seconds, ascending. Track start and end
// are not included.
func Estimate(samples []float64, sampleRate int, p Params) ([]float64, error) {
	p = p.withDefaults()
	curve, err := NoveltyCurve(samples, sampleRate, p)
	if err != nil {
		return nil, err
	}

	minGap := int(math.Ceil(p.MinSpacing / curve.BlockDuration))
	radius := p.KernelBlocks / 2
	if radius < 1 {
		radius = 1
	}

	peaks := PickPeaks(curve.Values, radius, p.Delta, minGap)
	times := make([]float64, len(peaks))
	for i, idx := range peaks {
		times[i] = float64(idx) * curve.BlockDuration
	}
	return times, nil
}
