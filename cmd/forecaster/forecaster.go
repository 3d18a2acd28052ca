package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/cesforecast/cmd/forecaster/metrics"
	"github.com/HatiCode/cesforecast/pkg/adapters"
	"github.com/HatiCode/cesforecast/pkg/features"
	"github.com/HatiCode/cesforecast/pkg/models"
	"github.com/HatiCode/cesforecast/pkg/storage"
	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

// Options are the forecast loop parameters.
type Options struct {
	Workload   string
	Metric     string
	Horizon    time.Duration
	Step       time.Duration
	Steps      int
	Window     time.Duration
	NumSamples int
	// ModelTimeout bounds each Fit and Predict call; zero means no bound.
	ModelTimeout time.Duration
}

// Forecaster orchestrates the forecast loop: collect → build series → fit → predict → store.
type Forecaster struct {
	opts    Options
	adapter adapters.Adapter
	model   models.Model
	builder *features.Builder
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger

	lastGenerated time.Time
}

// New creates a new Forecaster.
func New(
	opts Options,
	adapter adapters.Adapter,
	model models.Model,
	store storage.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.NumSamples < 1 {
		opts.NumSamples = 1
	}

	return &Forecaster{
		opts:    opts,
		adapter: adapter,
		model:   model,
		builder: features.NewBuilder(opts.Step),
		store:   store,
		metrics: m,
		logger:  logger.With("workload", opts.Workload),
	}
}

// Run executes the forecast loop at regular intervals.
// Blocks until context is canceled.
func (f *Forecaster) Run(ctx context.Context, interval time.Duration) error {
	f.logger.Info("starting forecast loop", "interval", interval, "model", f.model.Name())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.tickAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("forecast loop stopped")
			return ctx.Err()
		case <-ticker.C:
			f.tickAndLog(ctx)
		}
	}
}

func (f *Forecaster) tickAndLog(ctx context.Context) {
	if err := f.Tick(ctx); err != nil {
		f.logger.Error("forecast tick failed", "error", err)
	}
	if !f.lastGenerated.IsZero() {
		f.metrics.SetForecastAge(time.Since(f.lastGenerated).Seconds())
	}
}

// Tick performs one forecast cycle.
func (f *Forecaster) Tick(ctx context.Context) error {
	start := time.Now()

	collectStart := time.Now()
	df, err := f.adapter.Collect(ctx, int(f.opts.Window.Seconds()))
	if err != nil {
		f.metrics.RecordError("adapter", "collect_failed")
		return fmt.Errorf("collect: %w", err)
	}
	collectDuration := time.Since(collectStart)
	f.metrics.RecordCollect(collectDuration.Seconds())

	series, err := f.builder.BuildSeries(df, f.opts.Metric)
	if err != nil {
		f.metrics.RecordError("features", "build_failed")
		return fmt.Errorf("build series: %w", err)
	}
	f.metrics.SetTrainingPoints(series.Len())
	f.logger.Debug("built training series", "adapter", f.adapter.Name(), "rows", len(df.Rows), "points", series.Len())

	fitDuration, err := f.fit(ctx, series)
	if err != nil {
		f.metrics.RecordError("model", errorReason(err, "fit_failed"))
		return fmt.Errorf("fit: %w", err)
	}

	pred, predictDuration, err := f.predict(ctx)
	if err != nil {
		f.metrics.RecordError("model", errorReason(err, "predict_failed"))
		return fmt.Errorf("predict: %w", err)
	}

	generatedAt := time.Now()
	summary := models.Summarize(pred)
	if err := summary.CheckFinite(); err != nil {
		f.metrics.RecordError("model", "non_finite")
		return fmt.Errorf("predict: %w", err)
	}
	snapshot := storage.Snapshot{
		Workload:       f.opts.Workload,
		Metric:         f.opts.Metric,
		Model:          f.model.Name(),
		GeneratedAt:    generatedAt,
		Start:          pred.Index().Time(0),
		StepSeconds:    int(f.opts.Step.Seconds()),
		HorizonSeconds: int(f.opts.Horizon.Seconds()),
		Mean:           summary.Mean,
		P10:            summary.P10,
		P90:            summary.P90,
		Samples:        summary.Samples,
	}
	if err := f.store.Put(snapshot); err != nil {
		f.metrics.RecordError("store", "put_failed")
		return fmt.Errorf("store: %w", err)
	}
	f.lastGenerated = generatedAt
	f.metrics.SetForecastSamples(pred.NumSamples())

	f.logger.Info("forecast tick complete",
		"training_points", series.Len(),
		"forecast_points", pred.Len(),
		"samples", pred.NumSamples(),
		"collect_ms", collectDuration.Milliseconds(),
		"fit_ms", fitDuration.Milliseconds(),
		"predict_ms", predictDuration.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (f *Forecaster) fit(ctx context.Context, series *timeseries.Series) (time.Duration, error) {
	ctx, cancel := f.modelContext(ctx)
	defer cancel()

	start := time.Now()
	if err := f.model.Fit(ctx, series); err != nil {
		return 0, err
	}
	d := time.Since(start)
	f.metrics.RecordFit(d.Seconds())
	return d, nil
}

func (f *Forecaster) predict(ctx context.Context) (*timeseries.Series, time.Duration, error) {
	ctx, cancel := f.modelContext(ctx)
	defer cancel()

	start := time.Now()
	pred, err := f.model.Predict(ctx, f.opts.Steps, models.WithNumSamples(f.opts.NumSamples))
	if err != nil {
		return nil, 0, err
	}
	d := time.Since(start)
	f.metrics.RecordPredict(d.Seconds())
	return pred, d, nil
}

func (f *Forecaster) modelContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.opts.ModelTimeout > 0 {
		return context.WithTimeout(ctx, f.opts.ModelTimeout)
	}
	return context.WithCancel(ctx)
}

// errorReason maps model errors to a metric reason label.
func errorReason(err error, fallback string) string {
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, models.ErrInvalidShape):
		return "invalid_shape"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return fallback
	}
}
