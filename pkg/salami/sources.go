package salami

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/himanishpuri/salami/internal/tsv"
	"github.com/himanishpuri/salami/pkg/salami/audio"
	"github.com/himanishpuri/salami/pkg/salami/segmentation"
)

// AnnotatorSource uses another annotation of the same track as the estimate,
// which measures agreement between annotators.
type AnnotatorSource struct {
	Index       *Index
	Selection   Selection
	Granularity Granularity
}

func (s *AnnotatorSource) Name() string {
	return "annotation:" + s.Selection.String()
}

func (s *AnnotatorSource) Estimate(_ context.Context, id int) ([]float64, error) {
	segs, err := s.Index.Annotation(id).Select(s.Selection, s.Granularity)
	if err != nil {
		return nil, err
	}
	return Boundaries(segs), nil
}

// DirSource reads estimates from <Dir>/<id>.txt. Each line holds a time in
// seconds, optionally followed by a tab and a label.
type DirSource struct {
	Dir string
}

func (s *DirSource) Name() string {
	return "dir:" + s.Dir
}

func (s *DirSource) Estimate(_ context.Context, id int) ([]float64, error) {
	path := filepath.Join(s.Dir, strconv.Itoa(id)+".txt")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("estimates for SALAMI ID %d: %w: %w", id, ErrNotFound, err)
		}
		return nil, err
	}
	defer f.Close()

	rows, err := tsv.Read(f, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEstimate, path, err)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Time
	}
	return out, nil
}

// NoveltySource runs the novelty baseline over each track's audio.
type NoveltySource struct {
	Index      *Index
	TempDir    string
	SampleRate int
	Params     segmentation.Params
	// IncludeEdges adds the track start and end, which SALAMI annotations
	// always carry, to the estimates.
	IncludeEdges bool
}

func (s *NoveltySource) Name() string {
	return "novelty"
}

func (s *NoveltySource) Estimate(ctx context.Context, id int) ([]float64, error) {
	path, err := s.Index.AudioPath(id)
	if err != nil {
		return nil, err
	}

	samples, sr, err := audio.LoadMono(ctx, path, s.TempDir, s.SampleRate)
	if err != nil {
		return nil, err
	}

	bounds, err := segmentation.Estimate(samples, sr, s.Params)
	if err != nil {
		return nil, fmt.Errorf("segmenting %s: %w", path, err)
	}

	if s.IncludeEdges {
		end := float64(len(samples)) / float64(sr)
		bounds = append(append([]float64{0}, bounds...), end)
	}
	return bounds, nil
}
