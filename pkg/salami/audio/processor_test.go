package audio

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/salami/internal/testutil"
)

// fakeFFmpeg puts an ffmpeg on PATH that copies src to its last argument.
func fakeFFmpeg(t *testing.T, src string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for ffmpeg")
	}

	bin := t.TempDir()
	script := "#!/bin/sh\nfor last; do :; done\ncp \"$SALAMI_TEST_WAV\" \"$last\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "ffmpeg"), []byte(script), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("SALAMI_TEST_WAV", src)
}

func TestLoadMonoKeepsDatasetFiles(t *testing.T) {
	converted := filepath.Join(t.TempDir(), "converted.wav")
	testutil.WriteToneWav(t, converted, 8000, testutil.Tone{Freq: 440, Seconds: 0.5})
	fakeFFmpeg(t, converted)

	// Temp dir and audio dir are the same, and a WAV for the track exists.
	audioDir := t.TempDir()
	mp3 := testutil.WriteRaw(t, audioDir, "12.mp3", "ID3")
	existing := filepath.Join(audioDir, "12.wav")
	testutil.WriteToneWav(t, existing, 8000, testutil.Tone{Freq: 220, Seconds: 1})
	before, err := os.ReadFile(existing)
	require.NoError(t, err)

	samples, sr, err := LoadMono(context.Background(), mp3, audioDir, 8000)
	require.NoError(t, err)
	assert.Equal(t, 8000, sr)
	assert.Len(t, samples, 4000)

	after, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(audioDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"12.mp3", "12.wav"}, names)
}

func TestLoadMonoConcurrent(t *testing.T) {
	converted := filepath.Join(t.TempDir(), "converted.wav")
	testutil.WriteToneWav(t, converted, 8000, testutil.Tone{Freq: 440, Seconds: 0.5})
	fakeFFmpeg(t, converted)

	audioDir, tempDir := t.TempDir(), t.TempDir()
	mp3 := testutil.WriteRaw(t, audioDir, "7.mp3", "ID3")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	lens := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			samples, _, err := LoadMono(context.Background(), mp3, tempDir, 8000)
			errs[i], lens[i] = err, len(samples)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "call %d", i)
		assert.Equal(t, 4000, lens[i], "call %d", i)
	}

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertToMonoWAVUniqueOutputs(t *testing.T) {
	converted := filepath.Join(t.TempDir(), "converted.wav")
	testutil.WriteToneWav(t, converted, 8000, testutil.Tone{Freq: 440, Seconds: 0.25})
	fakeFFmpeg(t, converted)

	outDir := t.TempDir()
	mp3 := testutil.WriteRaw(t, t.TempDir(), "3.mp3", "ID3")

	a, err := ConvertToMonoWAV(context.Background(), mp3, outDir, ConvertWAVConfig{})
	require.NoError(t, err)
	b, err := ConvertToMonoWAV(context.Background(), mp3, outDir, ConvertWAVConfig{})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, outDir, filepath.Dir(a))
	assert.Regexp(t, `^3-.+\.wav$`, filepath.Base(a))
	assert.NotContains(t, filepath.Base(a), ".tmp")
	assert.FileExists(t, a)
	assert.FileExists(t, b)
}

func TestConvertToMonoWAVFailureCleansUp(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for ffmpeg")
	}
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "ffmpeg"), []byte("#!/bin/sh\nexit 1\n"), 0o755))
	t.Setenv("PATH", bin)

	outDir := t.TempDir()
	_, err := ConvertToMonoWAV(context.Background(), "/nowhere/9.mp3", outDir, ConvertWAVConfig{})
	require.Error(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
