package salami

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/himanishpuri/salami/internal/tsv"
)

// Selection picks which annotator's segmentation is used for a track.
type Selection int

const (
	Annotator1 Selection = iota
	Annotator2
	MostSegmented
	LeastSegmented
)

func (s Selection) String() string {
	switch s {
	case Annotator1:
		return "annotator1"
	case Annotator2:
		return "annotator2"
	case MostSegmented:
		return "most"
	case LeastSegmented:
		return "least"
	default:
		return fmt.Sprintf("Selection(%d)", int(s))
	}
}

// ParseSelection accepts "1", "2", "most" and "least" (and the String forms).
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "annotator1":
		return Annotator1, nil
	case "2", "annotator2":
		return Annotator2, nil
	case "most", "mostsegmented":
		return MostSegmented, nil
	case "least", "leastsegmented":
		return LeastSegmented, nil
	}
	return Annotator1, fmt.Errorf("unknown annotator selection %q", s)
}

// Annotation gives access to the parsed annotation files of one track. Every
// call reads from disk; nothing is cached.
type Annotation struct {
	id     int
	dir    string
	strict bool
}

// NewAnnotation binds an Annotation to id under the configured annotation
// directory. The track directory is not checked until the first read.
func NewAnnotation(id int, opts ...Option) *Annotation {
	return newAnnotation(id, NewConfig(opts...))
}

func newAnnotation(id int, cfg *Config) *Annotation {
	return &Annotation{
		id:     id,
		dir:    filepath.Join(cfg.AnnotationDir, strconv.Itoa(id), "parsed"),
		strict: cfg.StrictTimes,
	}
}

func (a *Annotation) ID() int { return a.id }

// Path returns the file holding the given annotator's segmentation.
func (a *Annotation) Path(annotator int, g Granularity) string {
	return filepath.Join(a.dir, fmt.Sprintf("textfile%d_%s.txt", annotator, g))
}

func checkAnnotator(annotator int) error {
	if annotator != 1 && annotator != 2 {
		return fmt.Errorf("%w: %d (SALAMI tracks have annotators 1 and 2)", ErrInvalidAnnotator, annotator)
	}
	return nil
}

// Read parses one annotator's segmentation at granularity g.
func (a *Annotation) Read(annotator int, g Granularity) ([]Segment, error) {
	if err := checkAnnotator(annotator); err != nil {
		return nil, err
	}
	if g != Coarse && g != Fine {
		return nil, fmt.Errorf("unknown granularity %d", int(g))
	}

	path := a.Path(annotator, g)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("track %d annotator %d: %w: %w", a.id, annotator, ErrMissingAnnotation, err)
		}
		return nil, fmt.Errorf("opening annotation: %w", err)
	}
	defer f.Close()

	rows, err := tsv.Read(f, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedAnnotation, path, err)
	}

	segs := make([]Segment, len(rows))
	for i, row := range rows {
		if a.strict && i > 0 && row.Time <= rows[i-1].Time {
			return nil, fmt.Errorf("%w: %s: line %d: time %v does not follow %v",
				ErrMalformedAnnotation, path, row.Line, row.Time, rows[i-1].Time)
		}
		segs[i] = Segment{Time: row.Time, Label: row.Label}
	}
	return segs, nil
}

// Uppercase reads the coarse annotation of annotator 1 or 2.
func (a *Annotation) Uppercase(annotator int) ([]Segment, error) {
	return a.Read(annotator, Coarse)
}

// Lowercase reads the fine annotation of annotator 1 or 2.
func (a *Annotation) Lowercase(annotator int) ([]Segment, error) {
	return a.Read(annotator, Fine)
}

func (a *Annotation) readBoth(g Granularity) ([]Segment, []Segment, error) {
	first, err := a.Read(1, g)
	if err != nil {
		return nil, nil, err
	}
	second, err := a.Read(2, g)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// MostSegmented returns whichever annotator produced more segments. Both
// annotators must be present. On a tie annotator 1 is returned.
func (a *Annotation) MostSegmented(g Granularity) ([]Segment, error) {
	first, second, err := a.readBoth(g)
	if err != nil {
		return nil, err
	}
	if len(second) > len(first) {
		return second, nil
	}
	return first, nil
}

// LeastSegmented returns whichever annotator produced fewer segments. Both
// annotators must be present. On a tie annotator 1 is returned.
func (a *Annotation) LeastSegmented(g Granularity) ([]Segment, error) {
	first, second, err := a.readBoth(g)
	if err != nil {
		return nil, err
	}
	if len(second) < len(first) {
		return second, nil
	}
	return first, nil
}

// Select reads the segmentation chosen by sel.
func (a *Annotation) Select(sel Selection, g Granularity) ([]Segment, error) {
	switch sel {
	case Annotator1:
		return a.Read(1, g)
	case Annotator2:
		return a.Read(2, g)
	case MostSegmented:
		return a.MostSegmented(g)
	case LeastSegmented:
		return a.LeastSegmented(g)
	}
	return nil, fmt.Errorf("unknown selection %d", int(sel))
}

// Available reports which annotators have a file at granularity g.
func (a *Annotation) Available(g Granularity) []int {
	var out []int
	for _, annotator := range []int{1, 2} {
		if _, err := os.Stat(a.Path(annotator, g)); err == nil {
			out = append(out, annotator)
		}
	}
	return out
}
