package models

import (
	"context"
	"math/rand/v2"

	"github.com/HatiCode/cesforecast/pkg/statsforecast"
	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

// AutoCES forecasts with an automatically selected Complex Exponential
// Smoothing model. Selection and fitting happen in the external estimator;
// AutoCES checks the input, hands over the raw observations, and turns the
// estimator's one-sigma interval into Gaussian sample paths.
//
// Estimator errors are returned exactly as the estimator produced them.
//
// Example:
//
//	est := statsforecast.NewHTTPEstimator(url, statsforecast.AutoCESConfig{SeasonLength: 12})
//	model := models.NewAutoCES(est)
//	if err := model.Fit(ctx, train); err != nil { ... }
//	pred, err := model.Predict(ctx, 36, models.WithNumSamples(100))
type AutoCES struct {
	Base

	estimator statsforecast.Estimator
	src       rand.Source
}

// AutoCESOption configures an AutoCES model.
type AutoCESOption func(*AutoCES)

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) AutoCESOption {
	return func(m *AutoCES) {
		m.src = rand.NewPCG(seed, seed)
	}
}

// WithRandSource sets the random source used for sample paths.
func WithRandSource(src rand.Source) AutoCESOption {
	return func(m *AutoCES) {
		m.src = src
	}
}

// NewAutoCES wraps est, which must already carry its AutoCES configuration.
func NewAutoCES(est statsforecast.Estimator, opts ...AutoCESOption) *AutoCES {
	m := &AutoCES{
		estimator: est,
		src:       rand.NewPCG(rand.Uint64(), rand.Uint64()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the model identifier.
func (m *AutoCES) Name() string {
	return "Auto-CES-Statsforecasts"
}

func (m *AutoCES) String() string {
	return m.Name()
}

// Estimator returns the wrapped estimator.
func (m *AutoCES) Estimator() statsforecast.Estimator {
	return m.estimator
}

// MinTrainSeriesLength implements Model.
func (m *AutoCES) MinTrainSeriesLength() int { return 10 }

// SupportsRangeIndex implements Model.
func (m *AutoCES) SupportsRangeIndex() bool { return true }

// IsProbabilistic implements Model.
func (m *AutoCES) IsProbabilistic() bool { return true }

// Fit checks that series is univariate and long enough, then fits the
// estimator on its values in time order. A failed fit leaves the model unfitted.
func (m *AutoCES) Fit(ctx context.Context, series *timeseries.Series) error {
	if err := AssertUnivariate(series); err != nil {
		return err
	}
	if err := m.checkFit(m, series); err != nil {
		return err
	}

	m.training = nil
	if err := m.estimator.Fit(ctx, series.Column(0)); err != nil {
		return err
	}

	m.setTraining(series)
	return nil
}

// Predict forecasts n steps. With WithNumSamples(k), k > 1, each step holds k
// independent draws from Normal(mean, sigma); otherwise the mean path is
// returned. WithVerbose has no effect.
func (m *AutoCES) Predict(ctx context.Context, n int, opts ...PredictOption) (*timeseries.Series, error) {
	cfg := NewPredictConfig(opts...)
	if err := m.checkPredict(m, n, cfg); err != nil {
		return nil, err
	}

	forecast, err := m.estimator.Predict(ctx, n, statsforecast.OneSigmaLevel)
	if err != nil {
		return nil, err
	}

	mu, std, err := UnpackForecast(forecast, statsforecast.OneSigmaLevel, n)
	if err != nil {
		return nil, err
	}

	samples := meanPath(mu)
	if cfg.NumSamples > 1 {
		samples = NormalSamples(mu, std, cfg.NumSamples, m.src)
	}
	return m.BuildForecastSeries(samples)
}
