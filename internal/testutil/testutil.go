// Package testutil builds small SALAMI-shaped directory trees and synthetic
// audio for tests.
package testutil

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/salami/internal/tsv"
)

// Point is one annotation line.
type Point struct {
	Time  float64
	Label string
}

// WriteAnnotation writes <root>/<id>/parsed/textfile<annotator>_<level>.txt,
// where level is "uppercase" or "lowercase".
func WriteAnnotation(t testing.TB, root string, id, annotator int, level string, points []Point) string {
	t.Helper()

	dir := filepath.Join(root, strconv.Itoa(id), "parsed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating annotation dir: %v", err)
	}

	rows := make([]tsv.Row, len(points))
	for i, p := range points {
		rows[i] = tsv.Row{Time: p.Time, Label: p.Label}
	}
	var buf bytes.Buffer
	if err := tsv.Write(&buf, rows); err != nil {
		t.Fatalf("encoding annotation: %v", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("textfile%d_%s.txt", annotator, level))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing annotation: %v", err)
	}
	return path
}

// WriteRaw writes content to root/name, creating parents.
func WriteRaw(t testing.TB, root, name, content string) string {
	t.Helper()

	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Touch creates empty files named names inside dir.
func Touch(t testing.TB, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		WriteRaw(t, dir, name, "")
	}
}

// Tone is a sine of Freq Hz lasting Seconds.
type Tone struct {
	Freq    float64
	Seconds float64
}

// WriteToneWav writes a mono 16-bit PCM WAV made of consecutive tones.
func WriteToneWav(t testing.TB, path string, sampleRate int, tones ...Tone) {
	t.Helper()

	var data []int
	for _, tone := range tones {
		n := int(tone.Seconds * float64(sampleRate))
		for i := 0; i < n; i++ {
			v := 0.5 * math.Sin(2*math.Pi*tone.Freq*float64(i)/float64(sampleRate))
			data = append(data, int(v*32767))
		}
	}
	WritePCMWav(t, path, sampleRate, 1, data)
}

// WritePCMWav writes interleaved 16-bit samples.
func WritePCMWav(t testing.TB, path string, sampleRate, channels int, data []int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoding wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing wav encoder: %v", err)
	}
}
