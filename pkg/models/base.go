package models

import (
	"fmt"

	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

// Base carries the training series and the checks shared by all models.
type Base struct {
	training *timeseries.Series
}

// AssertUnivariate fails with ErrInvalidShape unless series has one component.
func AssertUnivariate(series *timeseries.Series) error {
	if series == nil {
		return fmt.Errorf("%w: series is nil", ErrInvalidShape)
	}
	if !series.IsUnivariate() {
		return fmt.Errorf("%w: expected a univariate series, got %d components", ErrInvalidShape, series.Width())
	}
	return nil
}

// TrainingSeries returns the series of the last successful fit, or nil.
func (b *Base) TrainingSeries() *timeseries.Series {
	return b.training
}

// Fitted reports whether a fit has succeeded.
func (b *Base) Fitted() bool {
	return b.training != nil
}

func (b *Base) checkFit(m Model, series *timeseries.Series) error {
	if series == nil {
		return fmt.Errorf("%w: series is nil", ErrInvalidShape)
	}
	if minLen := m.MinTrainSeriesLength(); series.Len() < minLen {
		return fmt.Errorf("%w: %s needs at least %d points, got %d", ErrInsufficientData, m.Name(), minLen, series.Len())
	}
	if !series.Index().IsTime() && !m.SupportsRangeIndex() {
		return fmt.Errorf("%w: %s needs a time index", ErrRangeIndexUnsupported, m.Name())
	}
	return nil
}

func (b *Base) setTraining(series *timeseries.Series) {
	b.training = series.Copy()
}

func (b *Base) checkPredict(m Model, n int, cfg PredictConfig) error {
	if !b.Fitted() {
		return fmt.Errorf("%w: call Fit before Predict on %s", ErrNotFitted, m.Name())
	}
	if n < 1 {
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidHorizon, n)
	}
	if cfg.NumSamples < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSamples, cfg.NumSamples)
	}
	if cfg.NumSamples > 1 && !m.IsProbabilistic() {
		return fmt.Errorf("%w: %s cannot draw %d samples", ErrNotProbabilistic, m.Name(), cfg.NumSamples)
	}
	return nil
}

// BuildForecastSeries wraps samples shaped [step][sample] into a series that
// starts right after the training index and reuses the training component name.
func (b *Base) BuildForecastSeries(samples [][]float64) (*timeseries.Series, error) {
	if !b.Fitted() {
		return nil, ErrNotFitted
	}

	component := b.training.Components()[0]
	index := b.training.Index().After(len(samples))
	out, err := timeseries.FromSamples(index, component, samples)
	if err != nil {
		return nil, err
	}
	return out.WithName(b.training.Name()), nil
}
