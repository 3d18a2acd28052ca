package models

import (
	"errors"
	"math"

	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

// ErrNonFinite is returned by Summary.CheckFinite when a forecast holds NaN
// or infinite values.
var ErrNonFinite = errors.New("forecast contains non-finite values")

// Summary condenses a univariate forecast into per-step statistics.
// P10, P90 and Samples are nil for deterministic forecasts.
type Summary struct {
	Mean    []float64
	P10     []float64
	P90     []float64
	Samples [][]float64
}

// Summarize computes the sample mean and the 10th and 90th percentiles of the
// first component of pred at every step.
func Summarize(pred *timeseries.Series) Summary {
	if pred.IsDeterministic() {
		return Summary{Mean: pred.Column(0)}
	}
	return Summary{
		Mean:    pred.Mean(0),
		P10:     pred.Quantile(0, 0.1),
		P90:     pred.Quantile(0, 0.9),
		Samples: pred.Samples(0),
	}
}

// CheckFinite returns ErrNonFinite when any statistic or sample is NaN or infinite.
func (s Summary) CheckFinite() error {
	rows := append([][]float64{s.Mean, s.P10, s.P90}, s.Samples...)
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNonFinite
			}
		}
	}
	return nil
}
