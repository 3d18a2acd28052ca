package models

import (
	"context"

	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

// BaselineModel forecasts a flat level from exponential moving averages with
// optional hour-of-day seasonality. It needs no external estimator.
//
// Algorithm:
//  1. Compute EMA5 and EMA30 over the end of the training series
//  2. Level = max(0.7*EMA5 + 0.3*EMA30, last value), clamped at 0
//  3. Seasonality: on a time index, hours with at least two observations
//     contribute their mean: yhat = 0.8*Level + 0.2*Mean_h
//
// The model is deterministic.
type BaselineModel struct {
	Base

	// level is the blended EMA level of the last fit.
	level float64

	// seasonality maps hour of day (0-23) to the mean observed in that hour.
	seasonality map[int]float64
}

// NewBaselineModel creates a baseline model.
func NewBaselineModel() *BaselineModel {
	return &BaselineModel{
		seasonality: make(map[int]float64),
	}
}

// Name returns the model identifier.
func (m *BaselineModel) Name() string {
	return "baseline"
}

// MinTrainSeriesLength implements Model.
func (m *BaselineModel) MinTrainSeriesLength() int { return 1 }

// SupportsRangeIndex implements Model.
func (m *BaselineModel) SupportsRangeIndex() bool { return true }

// IsProbabilistic implements Model.
func (m *BaselineModel) IsProbabilistic() bool { return false }

// Fit computes the forecast level and, for time-indexed series, hour-of-day means.
func (m *BaselineModel) Fit(ctx context.Context, series *timeseries.Series) error {
	if err := AssertUnivariate(series); err != nil {
		return err
	}
	if err := m.checkFit(m, series); err != nil {
		return err
	}

	values := series.Column(0)

	level := 0.7*computeEMA(values, 5) + 0.3*computeEMA(values, 30)
	if last := values[len(values)-1]; len(values) >= 2 && last > level {
		level = last
	}
	m.level = max(level, 0)

	clear(m.seasonality)
	if index := series.Index(); index.IsTime() {
		sums := make(map[int]float64)
		counts := make(map[int]int)
		for i, v := range values {
			h := index.Time(i).Hour()
			sums[h] += v
			counts[h]++
		}
		for h, count := range counts {
			if count >= 2 {
				m.seasonality[h] = sums[h] / float64(count)
			}
		}
	}

	m.setTraining(series)
	return nil
}

// Predict returns n points at the fitted level, adjusted by hour-of-day means
// where available. All values are non-negative.
func (m *BaselineModel) Predict(ctx context.Context, n int, opts ...PredictOption) (*timeseries.Series, error) {
	cfg := NewPredictConfig(opts...)
	if err := m.checkPredict(m, n, cfg); err != nil {
		return nil, err
	}

	future := m.training.Index().After(n)
	values := make([]float64, n)
	for i := range values {
		value := m.level
		if future.IsTime() {
			if seasonalMean, ok := m.seasonality[future.Time(i).Hour()]; ok {
				value = 0.8*m.level + 0.2*seasonalMean
			}
		}
		values[i] = max(value, 0)
	}

	return m.BuildForecastSeries(meanPath(values))
}

// computeEMA returns the exponential moving average over the last n values,
// or over all of them if fewer are available. Returns 0 for no values.
//
// EMA_t = α * value_t + (1-α) * EMA_{t-1}, with α = 2 / (len(window) + 1)
func computeEMA(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}

	window := values[max(len(values)-n, 0):]
	alpha := 2.0 / float64(len(window)+1)
	ema := window[0]
	for _, v := range window[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}
