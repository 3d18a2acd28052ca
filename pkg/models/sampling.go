package models

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/HatiCode/cesforecast/pkg/statsforecast"
)

// UnpackForecast reads the mean forecast and derives a per-step standard
// deviation from the interval at level, taking half the interval width as
// one sigma. This holds for the one-sigma level under a symmetric normal
// error; asymmetric intervals are not detected.
func UnpackForecast(f statsforecast.Forecast, level float64, n int) (mu, std []float64, err error) {
	mean, err := f.Mean()
	if err != nil {
		return nil, nil, err
	}
	lo, hi, err := f.Interval(level)
	if err != nil {
		return nil, nil, err
	}
	if len(mean) != n || len(lo) != n || len(hi) != n {
		return nil, nil, fmt.Errorf("statsforecast returned %d/%d/%d points for a %d-step forecast", len(mean), len(lo), len(hi), n)
	}

	mu = make([]float64, n)
	std = make([]float64, n)
	for t := range n {
		mu[t] = mean[t]
		std[t] = math.Abs(hi[t]-lo[t]) / 2
	}
	return mu, std, nil
}

// NormalSamples draws numSamples independent values from Normal(mu[t], std[t])
// for every step t. The result is shaped [step][sample]. Steps are drawn
// independently, so serial correlation of forecast errors is not modelled.
func NormalSamples(mu, std []float64, numSamples int, src rand.Source) [][]float64 {
	out := make([][]float64, len(mu))
	for t := range mu {
		dist := distuv.Normal{Mu: mu[t], Sigma: std[t], Src: src}
		row := make([]float64, numSamples)
		for k := range row {
			row[k] = dist.Rand()
		}
		out[t] = row
	}
	return out
}

// meanPath shapes a point forecast as a single-sample path.
func meanPath(mu []float64) [][]float64 {
	out := make([][]float64, len(mu))
	for t, v := range mu {
		out[t] = []float64{v}
	}
	return out
}
