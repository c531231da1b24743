package salami

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/himanishpuri/salami/pkg/logger"
)

// Index maps SALAMI IDs to the audio files found in the audio directory. It
// is built once by NewIndex and never rescanned.
type Index struct {
	cfg   Config
	audio map[int]string
	ids   []int
	log   Logger
}

// NewIndex scans the configured audio directory (non-recursively). Files are
// kept when their extension is configured and their stem is a positive
// decimal number; everything else is skipped. When one ID appears under
// several files, the extension listed first in the configuration wins, then
// the lexically smallest file name.
func NewIndex(opts ...Option) (*Index, error) {
	cfg := NewConfig(opts...)
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	entries, err := os.ReadDir(cfg.AudioDir)
	if err != nil {
		return nil, fmt.Errorf("scanning audio dir: %w", err)
	}

	rank := make(map[string]int, len(cfg.AudioExtensions))
	for i, ext := range cfg.AudioExtensions {
		if _, ok := rank[ext]; !ok {
			rank[ext] = i
		}
	}

	ix := &Index{
		cfg:   *cfg,
		audio: make(map[int]string),
		log:   cfg.Logger,
	}
	chosen := make(map[int]string)

	// ReadDir returns entries sorted by file name.
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		r, ok := rank[ext]
		if !ok {
			ix.log.Debugf("skipping %s: extension not indexed", name)
			continue
		}
		id, ok := ParseID(strings.TrimSuffix(name, filepath.Ext(name)))
		if !ok {
			ix.log.Debugf("skipping %s: not a SALAMI ID", name)
			continue
		}
		if prev, dup := chosen[id]; dup {
			if rank[strings.ToLower(filepath.Ext(prev))] <= r {
				ix.log.Debugf("skipping %s: ID %d already indexed as %s", name, id, prev)
				continue
			}
			ix.log.Debugf("replacing %s with %s for ID %d", prev, name, id)
		}
		chosen[id] = name
	}

	for id, name := range chosen {
		ix.audio[id] = filepath.Join(cfg.AudioDir, name)
		ix.ids = append(ix.ids, id)
	}
	slices.Sort(ix.ids)

	ix.log.Debugf("indexed %d tracks with audio in %s", len(ix.ids), cfg.AudioDir)
	return ix, nil
}

// ParseID parses a file stem made only of ASCII digits into a positive ID.
func ParseID(stem string) (int, bool) {
	if stem == "" {
		return 0, false
	}
	for _, c := range stem {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(stem)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IDs returns the IDs with audio in ascending order. The slice is a copy.
func (ix *Index) IDs() []int {
	return slices.Clone(ix.ids)
}

// Len returns the number of indexed tracks.
func (ix *Index) Len() int { return len(ix.ids) }

// Has reports whether id has audio.
func (ix *Index) Has(id int) bool {
	_, ok := ix.audio[id]
	return ok
}

// AudioPath returns the audio file recorded for id when the index was built.
func (ix *Index) AudioPath(id int) (string, error) {
	path, ok := ix.audio[id]
	if !ok {
		return "", fmt.Errorf("no audio for SALAMI ID %d: %w", id, ErrNotFound)
	}
	return path, nil
}

// Annotation returns a reader for id. No check is made that the track has
// audio or annotations; errors surface on the first read.
func (ix *Index) Annotation(id int) *Annotation {
	return newAnnotation(id, &ix.cfg)
}

// Annotations returns one reader per requested ID, in the same order.
func (ix *Index) Annotations(ids ...int) []*Annotation {
	out := make([]*Annotation, len(ids))
	for i, id := range ids {
		out[i] = ix.Annotation(id)
	}
	return out
}

// Config returns a copy of the configuration the index was built with.
func (ix *Index) Config() Config {
	return ix.cfg
}
