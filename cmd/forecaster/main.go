// Package main implements the cesforecast forecaster service.
// The forecaster collects a metric from Prometheus, fits an AutoCES model
// through the statsforecast estimator, stores probabilistic forecast snapshots
// and serves them, along with ad-hoc forecasts, over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/cesforecast/cmd/forecaster/config"
	"github.com/HatiCode/cesforecast/cmd/forecaster/logger"
	"github.com/HatiCode/cesforecast/cmd/forecaster/metrics"
	"github.com/HatiCode/cesforecast/cmd/forecaster/models"
	"github.com/HatiCode/cesforecast/cmd/forecaster/router"
	"github.com/HatiCode/cesforecast/cmd/forecaster/store"
	"github.com/HatiCode/cesforecast/pkg/adapters"
	"github.com/HatiCode/cesforecast/pkg/httpx"
)

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting cesforecast forecaster",
		"version", "v0.1.0",
		"workload", cfg.Workload,
		"metric", cfg.Metric,
		"model", cfg.Model,
	)

	backend := store.New(cfg, logger)
	defer backend.Close()

	factory := models.New(cfg, logger)
	defer factory.Close()

	model, err := factory.Default()
	if err != nil {
		logger.Error("failed to build model", "error", err)
		os.Exit(1)
	}

	adapter := &adapters.PrometheusAdapter{
		ServerURL:   cfg.PromURL,
		Query:       cfg.PromQuery,
		StepSeconds: int(cfg.Step.Seconds()),
	}

	f := New(
		Options{
			Workload:     cfg.Workload,
			Metric:       cfg.Metric,
			Horizon:      cfg.Horizon,
			Step:         cfg.Step,
			Steps:        cfg.StepsAhead(),
			Window:       cfg.Window,
			NumSamples:   cfg.NumSamples,
			ModelTimeout: cfg.EstimatorTimeout,
		},
		adapter,
		model,
		backend,
		metrics.New(cfg.Workload, model.Name()),
		logger,
	)

	handler := router.SetupRoutes(router.Deps{
		Store:        backend,
		Models:       factory,
		DefaultModel: cfg.Model,
		StaleAfter:   2 * cfg.Interval,
		MaxHorizon:   cfg.MaxHorizon,
		MaxSamples:   cfg.MaxSamples,
		Logger:       logger,
	})
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := f.Run(ctx, cfg.Interval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("forecast loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("shutdown complete")
}
