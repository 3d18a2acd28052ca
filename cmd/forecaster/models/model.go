// Package models builds the forecaster's models from its configuration.
//
// The forecast loop owns one model for its lifetime; the ad-hoc forecast
// endpoint asks the Factory for a fresh model per request because models are
// not safe for concurrent use. AutoCES models reach the statsforecast
// estimator over HTTP or over one shared gRPC connection.
package models

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/HatiCode/cesforecast/cmd/forecaster/config"
	"github.com/HatiCode/cesforecast/pkg/models"
	"github.com/HatiCode/cesforecast/pkg/statsforecast"
)

const (
	AutoCES  = "autoces"
	Baseline = "baseline"
)

// ErrUnknownModel is returned for a model name the factory cannot build.
var ErrUnknownModel = errors.New("unknown model")

// Factory creates models that share the configured estimator transport.
type Factory struct {
	cfg        *config.Config
	httpClient *http.Client
	conn       grpc.ClientConnInterface
	closer     func() error
}

// New creates a factory from cfg, exiting the process when the estimator
// connection cannot be set up.
func New(cfg *config.Config, logger *slog.Logger) *Factory {
	f, err := NewFactory(cfg)
	if err != nil {
		logger.Error("failed to initialize estimator", "error", err)
		os.Exit(1)
	}
	if cfg.Model == AutoCES {
		logger.Info("initializing AutoCES model",
			"estimator", cfg.EstimatorURL,
			"transport", cfg.EstimatorTransport,
			"season_length", cfg.SeasonLength,
			"ces_model", cfg.CESModel,
		)
	} else {
		logger.Info("initializing baseline model")
	}
	return f
}

// NewFactory creates a factory from cfg. For the grpc transport the
// connection is created lazily by grpc on first use.
func NewFactory(cfg *config.Config) (*Factory, error) {
	f := &Factory{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.EstimatorTimeout},
		closer:     func() error { return nil },
	}
	if cfg.Model == AutoCES && cfg.EstimatorTransport == "grpc" {
		conn, err := grpc.NewClient(cfg.EstimatorURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("estimator connection: %w", err)
		}
		f.conn = conn
		f.closer = conn.Close
	}
	return f, nil
}

// NewFactoryWithConn creates a gRPC factory over an existing connection.
// Closing the factory does not close conn.
func NewFactoryWithConn(cfg *config.Config, conn grpc.ClientConnInterface) *Factory {
	return &Factory{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.EstimatorTimeout},
		conn:       conn,
		closer:     func() error { return nil },
	}
}

// Default builds the configured model with the configured seed.
func (f *Factory) Default() (models.Model, error) {
	var opts []models.AutoCESOption
	if f.cfg.Seed != 0 {
		opts = append(opts, models.WithSeed(uint64(f.cfg.Seed)))
	}
	return f.Build(f.cfg.Model, f.cfg.SeasonLength, opts...)
}

// Build returns a new model by name. A zero seasonLength uses the configured one.
func (f *Factory) Build(name string, seasonLength int, opts ...models.AutoCESOption) (models.Model, error) {
	switch name {
	case AutoCES:
		if seasonLength == 0 {
			seasonLength = f.cfg.SeasonLength
		}
		return models.NewAutoCES(f.estimator(seasonLength), opts...), nil
	case Baseline:
		return models.NewBaselineModel(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, name)
	}
}

func (f *Factory) estimator(seasonLength int) statsforecast.Estimator {
	cfg := statsforecast.AutoCESConfig{
		SeasonLength: seasonLength,
		Model:        f.cfg.CESModel,
	}
	if f.conn != nil {
		return statsforecast.NewGRPCEstimator(f.conn, cfg)
	}
	return statsforecast.NewHTTPEstimator(f.cfg.EstimatorURL, cfg, statsforecast.WithHTTPClient(f.httpClient))
}

// Close releases the estimator connection, if any.
func (f *Factory) Close() error {
	return f.closer()
}
