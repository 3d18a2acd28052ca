// Package models defines the local forecasting model contract and its
// implementations.
//
// A local model is fitted on a single training series and forecasts the points
// that follow it. Every model embeds Base, which performs the input checks and
// builds the output series, so implementations only deal with their own
// estimation logic.
package models

import (
	"context"
	"errors"

	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

var (
	// ErrInvalidShape is returned when a model receives a series with the wrong number of components.
	ErrInvalidShape = errors.New("invalid series shape")

	// ErrInsufficientData is returned when the training series is shorter than the model minimum.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNotFitted is returned when Predict is called before a successful Fit.
	ErrNotFitted = errors.New("model not fitted")

	// ErrInvalidHorizon is returned for a forecast horizon below one.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")

	// ErrInvalidSamples is returned for a sample count below one.
	ErrInvalidSamples = errors.New("invalid number of samples")

	// ErrNotProbabilistic is returned when a deterministic model is asked for several samples.
	ErrNotProbabilistic = errors.New("model is not probabilistic")

	// ErrRangeIndexUnsupported is returned when a model that needs timestamps gets a range index.
	ErrRangeIndexUnsupported = errors.New("range index not supported")
)

// Model is a local forecasting model.
//
// Models are not safe for concurrent use: Fit mutates the fitted state that
// Predict reads, and neither takes a lock.
type Model interface {
	// Name returns the model identifier.
	Name() string

	// Fit trains the model on series, replacing any previous fit.
	Fit(ctx context.Context, series *timeseries.Series) error

	// Predict forecasts the n points that follow the training series.
	Predict(ctx context.Context, n int, opts ...PredictOption) (*timeseries.Series, error)

	// MinTrainSeriesLength is the shortest series Fit accepts.
	MinTrainSeriesLength() int

	// SupportsRangeIndex reports whether Fit accepts integer-indexed series.
	SupportsRangeIndex() bool

	// IsProbabilistic reports whether Predict can return more than one sample.
	IsProbabilistic() bool
}

// PredictOption configures a Predict call.
type PredictOption func(*PredictConfig)

// PredictConfig holds the resolved Predict options.
type PredictConfig struct {
	NumSamples int
	Verbose    bool
}

// WithNumSamples sets the number of sample paths. One yields a deterministic forecast.
func WithNumSamples(n int) PredictOption {
	return func(c *PredictConfig) {
		c.NumSamples = n
	}
}

// WithVerbose is accepted for interface parity; models may ignore it.
func WithVerbose(v bool) PredictOption {
	return func(c *PredictConfig) {
		c.Verbose = v
	}
}

// NewPredictConfig applies opts over the defaults.
func NewPredictConfig(opts ...PredictOption) PredictConfig {
	cfg := PredictConfig{NumSamples: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
