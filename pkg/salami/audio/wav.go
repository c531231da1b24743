package audio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ErrUnsupportedFormat is returned for files that cannot be decoded to PCM.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const wavFormatPCM = 1

// ReadWavMono decodes an integer PCM WAV file and returns mono samples
// normalized to [-1, 1] together with the sample rate. Multichannel input is
// mixed down by averaging.
func ReadWavMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: %w: not a WAV/RIFF file", path, ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, 0, fmt.Errorf("%s: %w: WAV format %d, only PCM supported", path, ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, 0, fmt.Errorf("%s: %w: %d-bit samples", path, ErrUnsupportedFormat, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM samples: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, 0, fmt.Errorf("%s: %w: %d channels", path, ErrUnsupportedFormat, channels)
	}
	scale := 1.0 / float64(int64(1)<<(uint(dec.BitDepth)-1))

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = sum * scale / float64(channels)
	}
	return out, int(dec.SampleRate), nil
}

// WavDuration returns the playing time of a WAV file from its header.
func WavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%s: %w: not a WAV/RIFF file", path, ErrUnsupportedFormat)
	}
	return dec.Duration()
}
