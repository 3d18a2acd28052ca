// Package router configures the forecaster's HTTP API.
//
// Routes configured:
//   - GET /forecast/current?workload=<name> - latest stored snapshot
//   - POST /forecast - fit a fresh model on a posted series and forecast it
//   - GET /healthz - health check, failing while the store is unreachable
//   - GET /metrics - Prometheus metrics
//
// Snapshots older than the stale threshold carry an X-Cesforecast-Stale header.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/cesforecast/pkg/client"
	"github.com/HatiCode/cesforecast/pkg/httpx"
	"github.com/HatiCode/cesforecast/pkg/models"
	"github.com/HatiCode/cesforecast/pkg/statsforecast"
	"github.com/HatiCode/cesforecast/pkg/storage"
	"github.com/HatiCode/cesforecast/pkg/timeseries"
)

// ModelBuilder returns a new, unfitted model per call.
type ModelBuilder interface {
	Build(name string, seasonLength int, opts ...models.AutoCESOption) (models.Model, error)
}

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Default limits for POST /forecast when Deps leaves them at zero.
const (
	DefaultMaxHorizon = 2016
	DefaultMaxSamples = 1000
)

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Store        storage.Store
	Models       ModelBuilder
	DefaultModel string
	StaleAfter   time.Duration
	// MaxHorizon and MaxSamples bound the forecast size of POST /forecast.
	MaxHorizon int
	MaxSamples int
	Logger     *slog.Logger
}

// SetupRoutes configures HTTP endpoints for the forecaster, wrapped in
// logging and panic recovery.
func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxHorizon <= 0 {
		d.MaxHorizon = DefaultMaxHorizon
	}
	if d.MaxSamples <= 0 {
		d.MaxSamples = DefaultMaxSamples
	}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandlerWithCheck(storeCheck(d.Store)))
	mux.HandleFunc("GET /forecast/current", handleGetSnapshot(d.Store, d.StaleAfter, d.Logger))
	mux.HandleFunc("POST /forecast", handleForecast(d))
	mux.Handle("GET /metrics", promhttp.Handler())

	return httpx.RecoveryMiddleware(d.Logger)(httpx.LoggingMiddleware(d.Logger)(mux))
}

func storeCheck(store storage.Store) func() error {
	p, ok := store.(Pinger)
	if !ok {
		return nil
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return p.Ping(ctx)
	}
}

// handleGetSnapshot returns a handler for GET /forecast/current?workload=<name>.
func handleGetSnapshot(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workload := r.URL.Query().Get("workload")
		if workload == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "workload parameter required")
			return
		}

		snapshot, found, err := store.GetLatest(workload)
		if err != nil {
			logger.Error("failed to get snapshot", "workload", workload, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("snapshot not found for workload %q", workload))
			return
		}

		if staleAfter > 0 && time.Since(snapshot.GeneratedAt) > staleAfter {
			w.Header().Set(client.StaleHeader, "true")
		}
		_ = httpx.WriteJSON(w, http.StatusOK, snapshot)
	}
}

// handleForecast returns a handler for POST /forecast.
func handleForecast(d Deps) http.HandlerFunc {
	logger := d.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		var req client.ForecastRequest
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}
		if req.Horizon > d.MaxHorizon {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("horizon %d exceeds the limit of %d", req.Horizon, d.MaxHorizon))
			return
		}
		if req.NumSamples > d.MaxSamples {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("numSamples %d exceeds the limit of %d", req.NumSamples, d.MaxSamples))
			return
		}

		series, err := requestSeries(req)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}

		name := req.Model
		if name == "" {
			name = d.DefaultModel
		}
		model, err := d.Models.Build(name, req.SeasonLength)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}

		numSamples := req.NumSamples
		if numSamples == 0 {
			numSamples = 1
		}

		if err := model.Fit(r.Context(), series); err != nil {
			writeModelError(w, logger, "fit", err)
			return
		}
		pred, err := model.Predict(r.Context(), req.Horizon, models.WithNumSamples(numSamples))
		if err != nil {
			writeModelError(w, logger, "predict", err)
			return
		}

		summary := models.Summarize(pred)
		if err := summary.CheckFinite(); err != nil {
			logger.Warn("estimator returned a non-finite forecast", "model", model.Name())
			httpx.WriteError(w, http.StatusBadGateway, err)
			return
		}
		resp := client.ForecastResponse{
			Model:   model.Name(),
			Mean:    summary.Mean,
			P10:     summary.P10,
			P90:     summary.P90,
			Samples: summary.Samples,
		}
		if pred.Index().IsTime() {
			start := pred.Index().Time(0)
			resp.Start = &start
			resp.StepSeconds = req.StepSeconds
		} else {
			startIndex := pred.Index().Int(0)
			resp.StartIndex = &startIndex
		}
		if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
			logger.Error("failed to encode forecast", "error", err)
		}
	}
}

// requestSeries builds the training series: time-indexed when a start time
// is given, range-indexed otherwise.
func requestSeries(req client.ForecastRequest) (*timeseries.Series, error) {
	if req.Start == nil {
		return timeseries.FromIndex(timeseries.NewRangeIndex(req.StartIndex, 1, len(req.Values)), req.Values)
	}
	if req.StepSeconds <= 0 {
		return nil, errors.New("stepSeconds must be positive when start is set")
	}
	freq := timeseries.Freq{Dur: time.Duration(req.StepSeconds) * time.Second}
	return timeseries.FromIndex(timeseries.NewTimeIndex(req.Start.UTC(), freq, len(req.Values)), req.Values)
}

var clientErrors = []error{
	models.ErrInvalidShape,
	models.ErrInsufficientData,
	models.ErrInvalidHorizon,
	models.ErrInvalidSamples,
	models.ErrNotProbabilistic,
	models.ErrRangeIndexUnsupported,
}

// writeModelError answers 400 for input errors and 502 for estimator failures.
func writeModelError(w http.ResponseWriter, logger *slog.Logger, phase string, err error) {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			httpx.WriteError(w, http.StatusBadRequest, err)
			return
		}
	}

	var remote *statsforecast.RemoteError
	if errors.As(err, &remote) {
		logger.Warn("estimator rejected request", "phase", phase, "status", remote.StatusCode, "error", err)
	} else {
		logger.Error("estimator call failed", "phase", phase, "error", err)
	}
	httpx.WriteError(w, http.StatusBadGateway, err)
}
