package adapters

import (
	"context"
	"time"
)

// Row is a single observation returned by an adapter.
type Row struct {
	TS    time.Time
	Value float64
}

// DataFrame holds the observations collected over one window, sorted by time.
type DataFrame struct {
	Rows []Row
}

// Adapter fetches the raw training data for a forecaster.
//
// Collect is synchronous and should respect context cancellation and deadlines.
type Adapter interface {
	// Collect fetches observations for the last windowSeconds.
	Collect(ctx context.Context, windowSeconds int) (*DataFrame, error)

	// Name returns a short identifier, e.g. "prometheus".
	Name() string
}

// AlignTimestamp truncates ts to a multiple of stepSec.
func AlignTimestamp(ts time.Time, stepSec int) time.Time {
	return ts.Truncate(time.Duration(stepSec) * time.Second)
}
