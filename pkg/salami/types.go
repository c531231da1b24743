package salami

import (
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/salami/pkg/salami/metrics"
)

// Segment is one annotation point: the segment labelled Label starts at Time
// (seconds) and runs until the next segment's Time.
type Segment struct {
	Time  float64
	Label string
}

// Granularity selects between the two SALAMI annotation levels.
type Granularity int

const (
	// Coarse is the "uppercase" level: one broad label per segment.
	Coarse Granularity = iota
	// Fine is the "lowercase" level with detailed sub-labels.
	Fine
)

func (g Granularity) String() string {
	switch g {
	case Coarse:
		return "uppercase"
	case Fine:
		return "lowercase"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "uppercase"/"coarse"/"upper" and
// "lowercase"/"fine"/"lower".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uppercase", "upper", "coarse":
		return Coarse, nil
	case "lowercase", "lower", "fine":
		return Fine, nil
	}
	return Coarse, fmt.Errorf("unknown granularity %q", s)
}

// Boundaries returns the start times of segs in order.
func Boundaries(segs []Segment) []float64 {
	out := make([]float64, len(segs))
	for i, s := range segs {
		out[i] = s.Time
	}
	return out
}

// TrackResult is the single-track score of one evaluated track.
// Degenerate tracks had no truth or no estimated boundaries; their ratios
// are zero and they are left out of MeanF and StdDevF.
type TrackResult struct {
	TrackID    int
	Score      metrics.Score
	Degenerate bool
}

// Report is the outcome of one evaluation run.
type Report struct {
	RunID       string
	CreatedAt   time.Time
	Source      string
	Granularity Granularity
	Selection   Selection
	Tolerance   float64
	Tracks      []TrackResult
	Skipped     []int
	// Aggregate is computed over all tracks' hit counts, not averaged.
	Aggregate metrics.Score
	MeanF     float64
	StdDevF   float64
}

// RunSummary is the listing form of a stored report.
type RunSummary struct {
	RunID       string
	CreatedAt   time.Time
	Source      string
	Granularity string
	Tolerance   float64
	TrackCount  int
	Precision   float64
	Recall      float64
	FMeasure    float64
}
