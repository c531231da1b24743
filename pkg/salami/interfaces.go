package salami

import "context"

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// EstimateSource produces estimated boundary times for one track.
type EstimateSource interface {
	Name() string
	Estimate(ctx context.Context, id int) ([]float64, error)
}

// Store persists evaluation reports.
type Store interface {
	SaveRun(report *Report) (string, error)
	GetRun(runID string) (*Report, error)
	ListRuns() ([]RunSummary, error)
	DeleteRun(runID string) error
	TrackHistory(trackID int) ([]TrackResult, error)
	Close() error
}
