// Package storage keeps the latest forecast snapshot per workload.
package storage

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSnapshot is returned by Put for a snapshot without a workload or
// with NaN or infinite values, which cannot be encoded as JSON.
var ErrInvalidSnapshot = errors.New("storage: invalid snapshot")

// Snapshot is one forecast run for a workload.
//
// Mean, P10 and P90 have one entry per forecast step. Samples is optional and
// holds the raw sample paths as Samples[step][sample].
type Snapshot struct {
	Workload       string      `json:"workload"`
	Metric         string      `json:"metric"`
	Model          string      `json:"model"`
	GeneratedAt    time.Time   `json:"generatedAt"`
	Start          time.Time   `json:"start"`
	StepSeconds    int         `json:"stepSeconds"`
	HorizonSeconds int         `json:"horizonSeconds"`
	Mean           []float64   `json:"mean"`
	P10            []float64   `json:"p10,omitempty"`
	P90            []float64   `json:"p90,omitempty"`
	Samples        [][]float64 `json:"samples,omitempty"`
}

// Store persists snapshots. Implementations are safe for concurrent use.
type Store interface {
	Put(Snapshot) error
	// GetLatest returns the latest snapshot for workload and whether one was found.
	GetLatest(workload string) (Snapshot, bool, error)
}

func validate(s Snapshot) error {
	if s.Workload == "" {
		return fmt.Errorf("%w: no workload", ErrInvalidSnapshot)
	}
	for name, values := range map[string][]float64{"mean": s.Mean, "p10": s.P10, "p90": s.P90} {
		if !finite(values) {
			return fmt.Errorf("%w: non-finite %s", ErrInvalidSnapshot, name)
		}
	}
	for _, step := range s.Samples {
		if !finite(step) {
			return fmt.Errorf("%w: non-finite samples", ErrInvalidSnapshot)
		}
	}
	return nil
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
