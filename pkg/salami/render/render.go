// Package render draws spectrogram PNGs with segment boundaries overlaid.
package render

import (
	"errors"
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"
)

// Colours are hex strings such as "000000".
const (
	TruthColor    = "30ff30"
	EstimateColor = "ff3030"
)

type Options struct {
	Width      int
	Height     int
	Background string
	// Log10 draws log-magnitude instead of linear magnitude.
	Log10 bool
}

// Layer is one set of boundary times drawn as vertical lines in Color.
type Layer struct {
	Times []float64
	Color string
}

func DefaultOptions() Options {
	return Options{
		Width:      2048,
		Height:     512,
		Background: "000000",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	return o
}

// Columns maps boundary times (seconds) to image columns for a track of the
// given duration. Times outside [0, duration] are dropped.
func Columns(boundaries []float64, duration float64, width int) []int {
	if duration <= 0 || width <= 0 {
		return nil
	}
	var cols []int
	for _, b := range boundaries {
		if b < 0 || b > duration {
			continue
		}
		x := int(b / duration * float64(width))
		if x >= width {
			x = width - 1
		}
		cols = append(cols, x)
	}
	return cols
}

// Spectrogram renders samples to a PNG at outPath. Layers are drawn in order,
// so later layers cover earlier ones where lines coincide.
func Spectrogram(samples []float64, sampleRate int, outPath string, opts Options, layers ...Layer) error {
	if len(samples) == 0 || sampleRate <= 0 {
		return errors.New("render: no audio")
	}
	opts = opts.withDefaults()

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	bg := spectrogram.ParseColor(opts.Background)
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude.
	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(opts.Height),
		false,
		false,
		true,
		opts.Log10,
	)

	duration := float64(len(samples)) / float64(sampleRate)
	for _, layer := range layers {
		c := layer.Color
		if c == "" {
			c = EstimateColor
		}
		line := spectrogram.ParseColor(c)
		for _, x := range Columns(layer.Times, duration, opts.Width) {
			for y := 0; y < opts.Height; y++ {
				img.Set(x, y, line)
			}
		}
	}

	return spectrogram.SavePng(img, outPath)
}
