// Package statsforecast connects to an external statsforecast estimator.
//
// The estimator owns model selection and fitting (for example AutoCES, which
// picks a Complex Exponential Smoothing variant by information criterion).
// This package only defines the capability, the forecast dictionary format the
// estimator returns, and clients for the HTTP and gRPC transports. Nothing in
// here fits a model.
package statsforecast

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
)

// OneSigmaLevel is the confidence level, in percent, whose interval half-width
// equals one standard deviation of a normal distribution.
const OneSigmaLevel = 68.27

// ErrNoModel is returned by Predict when Fit has not produced a model handle.
var ErrNoModel = errors.New("statsforecast: no fitted model")

// Estimator is an auto-selecting forecaster living outside this process.
//
// Fit replaces any previously fitted state. Predict returns a forecast
// dictionary with a "mean" entry and one "lo-<level>"/"hi-<level>" pair per
// requested level.
type Estimator interface {
	Fit(ctx context.Context, y []float64) error
	Predict(ctx context.Context, h int, levels ...float64) (Forecast, error)
}

// Forecast is the estimator's output keyed by label.
type Forecast map[string][]float64

// LevelKey formats the dictionary key for one side of an interval,
// e.g. LevelKey("lo", 68.27) == "lo-68.27".
func LevelKey(side string, level float64) string {
	return side + "-" + strconv.FormatFloat(level, 'f', -1, 64)
}

// Mean returns the point forecast.
func (f Forecast) Mean() ([]float64, error) {
	mean, ok := f["mean"]
	if !ok {
		return nil, fmt.Errorf("statsforecast: forecast has no %q entry", "mean")
	}
	return mean, nil
}

// Interval returns the lower and upper bounds for level.
func (f Forecast) Interval(level float64) (lo, hi []float64, err error) {
	loKey, hiKey := LevelKey("lo", level), LevelKey("hi", level)
	lo, okLo := f[loKey]
	hi, okHi := f[hiKey]
	if !okLo || !okHi {
		return nil, nil, fmt.Errorf("statsforecast: forecast has no %q/%q entries", loKey, hiKey)
	}
	return lo, hi, nil
}

// AutoCESConfig is handed to the estimator's AutoCES constructor as-is.
// Zero fields are omitted so the estimator applies its own defaults.
type AutoCESConfig struct {
	// SeasonLength is the number of observations per seasonal cycle.
	SeasonLength int
	// Model restricts the CES variants considered: "N", "S", "P", "F" or "Z" (select).
	Model string
	// Alias names the model in the estimator's output.
	Alias string
	// Extra holds any further constructor arguments. They are forwarded
	// without validation and override the typed fields.
	Extra map[string]any
}

// Params returns the constructor arguments.
func (c AutoCESConfig) Params() map[string]any {
	params := make(map[string]any, len(c.Extra)+3)
	if c.SeasonLength != 0 {
		params["season_length"] = c.SeasonLength
	}
	if c.Model != "" {
		params["model"] = c.Model
	}
	if c.Alias != "" {
		params["alias"] = c.Alias
	}
	maps.Copy(params, c.Extra)
	return params
}
