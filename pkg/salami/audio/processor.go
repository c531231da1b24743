package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/salami/pkg/utils"
)

type ConvertWAVConfig struct {
	SampleRate int
	Timeout    time.Duration
}

// ConvertToMonoWAV runs ffmpeg to produce a mono 16-bit PCM WAV of inputPath
// in outputDir. The output gets a fresh name of the form <stem>-<random>.wav,
// so concurrent conversions never share a file and existing files in
// outputDir are never replaced. The caller owns the returned file.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath, err := reserveFile(outputDir, stem+"-*.wav")
	if err != nil {
		return "", err
	}
	tmpPath, err := reserveFile(outputDir, stem+"-*.tmp.wav")
	if err != nil {
		os.Remove(outputPath)
		return "", err
	}
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		os.Remove(outputPath)
		return "", err
	}

	return outputPath, nil
}

// reserveFile creates an empty, uniquely named file in dir and returns its
// path.
func reserveFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("reserving output file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// LoadMono returns mono samples for any indexed audio file. WAV files are
// decoded directly; other formats go through ffmpeg into tempDir. Pickled
// feature files are rejected.
func LoadMono(ctx context.Context, path, tempDir string, sampleRate int) ([]float64, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pkl":
		return nil, 0, fmt.Errorf("%s: %w: pickled features", path, ErrUnsupportedFormat)
	case ".wav":
		samples, sr, err := ReadWavMono(path)
		if err == nil {
			return samples, sr, nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) {
			return nil, 0, err
		}
		// Non-PCM WAV falls through to ffmpeg.
	}

	wavPath, err := ConvertToMonoWAV(ctx, path, tempDir, ConvertWAVConfig{SampleRate: sampleRate})
	if err != nil {
		return nil, 0, fmt.Errorf("audio conversion failed: %w", err)
	}
	defer os.Remove(wavPath)

	return ReadWavMono(wavPath)
}
