package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/salami/pkg/utils"
)

// Download fetches the audio of url with yt-dlp and stores it as
// <outputDir>/<id>.mp3 so that it is picked up by the next index scan.
// yt-dlp and ffmpeg must be on PATH.
func Download(ctx context.Context, url string, outputDir string, id int) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := strconv.Itoa(id)
	target := filepath.Join(outputDir, stem+".mp3")
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("audio for SALAMI ID %d already exists at %s", id, target)
	}

	dl := ytdlp.New().
		NoPlaylist().
		NoProgress().
		ExtractAudio().
		AudioFormat("mp3").
		Output(filepath.Join(outputDir, stem+".%(ext)s"))

	if _, err := dl.Run(ctx, url); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("yt-dlp download failed: %w", err)
	}

	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("downloaded audio not found at %s: %w", target, err)
	}
	return target, nil
}
