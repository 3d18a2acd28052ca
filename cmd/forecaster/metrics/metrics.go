// Package metrics provides Prometheus instrumentation for the forecaster.
//
// Metrics exposed (all carry a constant workload label):
//   - cesforecast_adapter_collect_seconds: Histogram of data collection latency
//   - cesforecast_model_fit_seconds: Histogram of model fit latency
//   - cesforecast_model_predict_seconds: Histogram of model predict latency
//   - cesforecast_training_points: Gauge of points in the last training series
//   - cesforecast_forecast_age_seconds: Gauge of the age of the stored forecast
//   - cesforecast_forecast_samples: Gauge of sample paths in the last forecast
//   - cesforecast_errors_total: Counter of errors by component and reason
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AdapterCollectSeconds prometheus.Histogram
	ModelFitSeconds       prometheus.Histogram
	ModelPredictSeconds   prometheus.Histogram
	TrainingPoints        prometheus.Gauge
	ForecastAgeSeconds    prometheus.Gauge
	ForecastSamples       prometheus.Gauge
	ErrorsTotal           *prometheus.CounterVec
}

// New registers the forecaster metrics on the default registry.
func New(workload, model string) *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer, workload, model)
}

// NewWithRegisterer registers the forecaster metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer, workload, model string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"workload": workload}
	modelLabels := prometheus.Labels{"workload": workload, "model": model}

	// Estimator round trips take seconds, not milliseconds.
	modelBuckets := prometheus.ExponentialBuckets(0.01, 2, 12)

	return &Metrics{
		AdapterCollectSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "cesforecast_adapter_collect_seconds",
			Help:        "Time spent collecting training data from the adapter",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"workload": workload, "adapter": "prometheus"},
		}),
		ModelFitSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "cesforecast_model_fit_seconds",
			Help:        "Time spent fitting the model",
			Buckets:     modelBuckets,
			ConstLabels: modelLabels,
		}),
		ModelPredictSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "cesforecast_model_predict_seconds",
			Help:        "Time spent predicting the forecast",
			Buckets:     modelBuckets,
			ConstLabels: modelLabels,
		}),
		TrainingPoints: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "cesforecast_training_points",
			Help:        "Number of points in the last training series",
			ConstLabels: labels,
		}),
		ForecastAgeSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "cesforecast_forecast_age_seconds",
			Help:        "Age of the current forecast in seconds",
			ConstLabels: labels,
		}),
		ForecastSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "cesforecast_forecast_samples",
			Help:        "Number of sample paths in the last forecast",
			ConstLabels: labels,
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "cesforecast_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

func (m *Metrics) RecordCollect(seconds float64) {
	m.AdapterCollectSeconds.Observe(seconds)
}

func (m *Metrics) RecordFit(seconds float64) {
	m.ModelFitSeconds.Observe(seconds)
}

func (m *Metrics) RecordPredict(seconds float64) {
	m.ModelPredictSeconds.Observe(seconds)
}

func (m *Metrics) SetTrainingPoints(n int) {
	m.TrainingPoints.Set(float64(n))
}

func (m *Metrics) SetForecastAge(seconds float64) {
	m.ForecastAgeSeconds.Set(seconds)
}

func (m *Metrics) SetForecastSamples(n int) {
	m.ForecastSamples.Set(float64(n))
}

func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
