// Package config implements the cesforecast forecaster config.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all forecaster configuration.
type Config struct {
	Listen   string
	Workload string
	Metric   string

	Horizon  time.Duration
	Step     time.Duration
	Interval time.Duration
	Window   time.Duration

	PromURL   string
	PromQuery string

	Model        string
	NumSamples   int
	Seed         int
	SeasonLength int
	CESModel     string

	MaxHorizon int
	MaxSamples int

	EstimatorURL       string
	EstimatorTransport string
	EstimatorTimeout   time.Duration

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	LogFormat string
	LogLevel  string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Environment variables are used as fallbacks when flags are not provided; when
// ENV_FILE names a dotenv file its entries are loaded first without overriding
// variables already set. Exits with status 1 on invalid configuration.
func ParseFlags() *Config {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	cfg := &Config{}

	// Server
	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8081"), "HTTP listen address")

	// Workload
	flag.StringVar(&cfg.Workload, "workload", getEnv("WORKLOAD", ""), "Workload name (required)")
	flag.StringVar(&cfg.Metric, "metric", getEnv("METRIC", ""), "Metric name (required)")

	// Forecast parameters
	flag.DurationVar(&cfg.Horizon, "horizon", getEnvDuration("HORIZON", 30*time.Minute), "Forecast horizon")
	flag.DurationVar(&cfg.Step, "step", getEnvDuration("STEP", 1*time.Minute), "Forecast step size")

	// Prometheus
	flag.StringVar(&cfg.PromURL, "prom-url", getEnv("PROM_URL", "http://localhost:9090"), "Prometheus URL")
	flag.StringVar(&cfg.PromQuery, "prom-query", getEnv("PROM_QUERY", ""), "Prometheus query (required)")

	// Timing
	flag.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 30*time.Second), "Forecast interval")
	flag.DurationVar(&cfg.Window, "window", getEnvDuration("WINDOW", 3*time.Hour), "Historical window")

	// Model
	flag.StringVar(&cfg.Model, "model", getEnv("MODEL", "autoces"), "Model: autoces or baseline")
	flag.IntVar(&cfg.NumSamples, "num-samples", getEnvInt("NUM_SAMPLES", 100), "Sample paths per forecast (1 = deterministic)")
	flag.IntVar(&cfg.Seed, "seed", getEnvInt("SEED", 0), "Sampling seed (0 = random)")
	flag.IntVar(&cfg.SeasonLength, "season-length", getEnvInt("SEASON_LENGTH", 1), "Observations per seasonal cycle")
	flag.StringVar(&cfg.CESModel, "ces-model", getEnv("CES_MODEL", "Z"), "CES variant: N, S, P, F or Z (select)")

	// Ad-hoc forecast limits
	flag.IntVar(&cfg.MaxHorizon, "max-horizon", getEnvInt("MAX_HORIZON", 2016), "Largest horizon, in points, accepted by POST /forecast")
	flag.IntVar(&cfg.MaxSamples, "max-samples", getEnvInt("MAX_SAMPLES", 1000), "Largest numSamples accepted by POST /forecast")

	// Estimator
	flag.StringVar(&cfg.EstimatorURL, "estimator-url", getEnv("ESTIMATOR_URL", "http://localhost:8000"), "statsforecast estimator address")
	flag.StringVar(&cfg.EstimatorTransport, "estimator-transport", getEnv("ESTIMATOR_TRANSPORT", "http"), "Estimator transport: http or grpc")
	flag.DurationVar(&cfg.EstimatorTimeout, "estimator-timeout", getEnvDuration("ESTIMATOR_TIMEOUT", 30*time.Second), "Timeout per estimator call")

	// Storage
	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Storage backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 30*time.Minute), "Snapshot TTL")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Workload == "" {
		errs = append(errs, errors.New("--workload is required"))
	}
	if c.Metric == "" {
		errs = append(errs, errors.New("--metric is required"))
	}
	if c.PromQuery == "" {
		errs = append(errs, errors.New("--prom-query is required"))
	}
	if c.Step <= 0 {
		errs = append(errs, errors.New("--step must be positive"))
	}
	if c.Horizon < c.Step {
		errs = append(errs, errors.New("--horizon must be at least one step"))
	}
	if c.NumSamples < 1 {
		errs = append(errs, errors.New("--num-samples must be at least 1"))
	}
	if c.MaxHorizon < 1 || c.MaxSamples < 1 {
		errs = append(errs, errors.New("--max-horizon and --max-samples must be at least 1"))
	}
	if c.NumSamples > c.MaxSamples {
		errs = append(errs, fmt.Errorf("--num-samples must not exceed --max-samples (%d)", c.MaxSamples))
	}
	if c.Step > 0 && c.StepsAhead() > c.MaxHorizon {
		errs = append(errs, fmt.Errorf("--horizon covers %d steps, more than --max-horizon (%d)", c.StepsAhead(), c.MaxHorizon))
	}

	switch c.Model {
	case "autoces":
		if c.EstimatorURL == "" {
			errs = append(errs, errors.New("--estimator-url is required for autoces"))
		}
		if c.EstimatorTransport != "http" && c.EstimatorTransport != "grpc" {
			errs = append(errs, fmt.Errorf("invalid --estimator-transport %q", c.EstimatorTransport))
		}
	case "baseline":
		if c.NumSamples > 1 {
			errs = append(errs, errors.New("baseline model is deterministic, --num-samples must be 1"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid --model %q", c.Model))
	}

	if c.Storage != "memory" && c.Storage != "redis" {
		errs = append(errs, fmt.Errorf("invalid --storage %q", c.Storage))
	}
	return errors.Join(errs...)
}

// StepsAhead is the number of forecast points covering the horizon.
func (c *Config) StepsAhead() int {
	return int(c.Horizon / c.Step)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
