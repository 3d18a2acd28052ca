// Package features turns adapter output into regular series for the models.
package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/HatiCode/cesforecast/pkg/adapters"
	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

var (
	// ErrNoData is returned when a DataFrame holds no usable observation.
	ErrNoData = errors.New("features: no observations")

	// ErrUnsorted is returned when DataFrame rows are not in time order.
	ErrUnsorted = errors.New("features: rows are not sorted by time")
)

// Builder converts DataFrames into series on a fixed step grid.
type Builder struct {
	step time.Duration
}

// NewBuilder creates a builder for the given step. A non-positive step defaults to one minute.
func NewBuilder(step time.Duration) *Builder {
	if step <= 0 {
		step = time.Minute
	}
	return &Builder{step: step}
}

// BuildSeries aligns every row to the step grid and returns a univariate
// time-indexed series named name.
//
// Rows must be in non-decreasing time order. When two rows fall in the same
// step the later one wins. Steps without an observation, and NaN values, are
// forward filled; leading gaps take the first valid value.
func (b *Builder) BuildSeries(df *adapters.DataFrame, name string) (*timeseries.Series, error) {
	if df == nil || len(df.Rows) == 0 {
		return nil, ErrNoData
	}

	first := df.Rows[0].TS.Truncate(b.step)
	last := first
	buckets := make(map[int]float64, len(df.Rows))
	for i, row := range df.Rows {
		if i > 0 && row.TS.Before(df.Rows[i-1].TS) {
			return nil, fmt.Errorf("%w: row %d at %s precedes %s", ErrUnsorted, i,
				row.TS.Format(time.RFC3339), df.Rows[i-1].TS.Format(time.RFC3339))
		}
		ts := row.TS.Truncate(b.step)
		last = ts
		buckets[int(ts.Sub(first)/b.step)] = row.Value
	}

	n := int(last.Sub(first)/b.step) + 1
	values := make([]float64, n)
	for i := range values {
		v, ok := buckets[i]
		if !ok {
			v = math.NaN()
		}
		values[i] = v
	}

	if !FillForward(values) {
		return nil, ErrNoData
	}

	series, err := timeseries.FromIndex(timeseries.NewTimeIndex(first, timeseries.Freq{Dur: b.step}, n), values)
	if err != nil {
		return nil, err
	}
	return series.WithName(name), nil
}

// FillForward replaces NaNs in place with the last valid value, and leading
// NaNs with the first valid value. It reports false when every value is NaN.
func FillForward(values []float64) bool {
	firstValid := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	if firstValid < 0 {
		return false
	}

	for i := 0; i < firstValid; i++ {
		values[i] = values[firstValid]
	}
	for i := firstValid + 1; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			values[i] = values[i-1]
		}
	}
	return true
}
