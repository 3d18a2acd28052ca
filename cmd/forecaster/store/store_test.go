package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/HatiCode/cesforecast/cmd/forecaster/config"
	"github.com/HatiCode/cesforecast/pkg/storage"
)

func TestNew_Memory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := New(&config.Config{Storage: "memory"}, logger)

	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := b.Put(storage.Snapshot{Workload: "api", GeneratedAt: time.Now()}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok, _ := b.GetLatest("api"); !ok {
		t.Error("snapshot not found")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b := New(&config.Config{Storage: "redis", RedisAddr: mr.Addr(), RedisTTL: time.Minute}, logger)
	defer b.Close()

	if _, ok := b.(*storage.RedisStore); !ok {
		t.Fatalf("New() = %T, want *storage.RedisStore", b)
	}
	if err := b.Put(storage.Snapshot{Workload: "api", Mean: []float64{1}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !mr.Exists(storage.Key("api")) {
		t.Error("snapshot not written to redis")
	}
}
