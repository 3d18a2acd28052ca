// Package store selects the forecaster's snapshot backend.
//
//   - memory: process-local, lost on restart; fine for a single replica.
//   - redis: shared between forecaster replicas and readable by other
//     services; keys expire after REDIS_TTL.
//
// Initialization is fail-fast: an unknown backend or an unreachable Redis
// exits the process, so the forecaster never loops without somewhere to
// write its snapshots.
package store

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/HatiCode/cesforecast/cmd/forecaster/config"
	"github.com/HatiCode/cesforecast/pkg/storage"
)

// Backend is a store with its lifecycle hooks.
type Backend interface {
	storage.Store
	Ping(ctx context.Context) error
	Close() error
}

type memoryBackend struct {
	*storage.MemoryStore
}

func (memoryBackend) Ping(context.Context) error { return nil }
func (memoryBackend) Close() error               { return nil }

// New creates the configured backend or exits with status 1.
func New(cfg *config.Config, logger *slog.Logger) Backend {
	switch cfg.Storage {
	case "redis":
		logger.Info("initializing redis storage",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"ttl", cfg.RedisTTL,
		)
		redisStore, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			logger.Error("failed to create redis store", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			logger.Error("redis health check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("redis storage initialized")
		return redisStore

	case "memory":
		logger.Info("initializing in-memory storage")
		return NewMemory()

	default:
		logger.Error("invalid storage type", "storage", cfg.Storage)
		os.Exit(1)
	}
	return nil
}

// NewMemory returns an in-memory backend.
func NewMemory() Backend {
	return memoryBackend{storage.NewMemoryStore(0)}
}
