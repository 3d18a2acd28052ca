// Package client provides an HTTP client for the forecaster service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HatiCode/cesforecast/pkg/storage"
)

// StaleHeader is set to "true" by the forecaster when the served snapshot is older than its staleness bound.
const StaleHeader = "X-Cesforecast-Stale"

// ErrNotFound is returned when the forecaster has no snapshot for a workload.
var ErrNotFound = errors.New("snapshot not found")

// ForecasterClient talks to the forecaster HTTP API.
// It is safe for concurrent use by multiple goroutines.
type ForecasterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewForecasterClient creates a client for baseURL (e.g. "http://localhost:8081")
// with a 5 second request timeout.
func NewForecasterClient(baseURL string) *ForecasterClient {
	return NewForecasterClientWithTimeout(baseURL, 5*time.Second)
}

// NewForecasterClientWithTimeout creates a client with a custom timeout.
// Ad-hoc forecasts go through the remote estimator, so callers of Forecast
// usually want more than the default.
func NewForecasterClientWithTimeout(baseURL string, timeout time.Duration) *ForecasterClient {
	return &ForecasterClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SnapshotResult is a snapshot plus the forecaster's staleness verdict.
type SnapshotResult struct {
	Snapshot storage.Snapshot
	Stale    bool
}

// ForecastRequest is the body of POST /forecast.
//
// Without Start the series gets a range index beginning at StartIndex.
type ForecastRequest struct {
	Values       []float64  `json:"values"`
	Start        *time.Time `json:"start,omitempty"`
	StartIndex   int        `json:"startIndex,omitempty"`
	StepSeconds  int        `json:"stepSeconds,omitempty"`
	Horizon      int        `json:"horizon"`
	NumSamples   int        `json:"numSamples,omitempty"`
	Model        string     `json:"model,omitempty"`
	SeasonLength int        `json:"seasonLength,omitempty"`
}

// ForecastResponse is the reply of POST /forecast.
type ForecastResponse struct {
	Model       string      `json:"model"`
	Start       *time.Time  `json:"start,omitempty"`
	StartIndex  *int        `json:"startIndex,omitempty"`
	StepSeconds int         `json:"stepSeconds,omitempty"`
	Mean        []float64   `json:"mean"`
	P10         []float64   `json:"p10,omitempty"`
	P90         []float64   `json:"p90,omitempty"`
	Samples     [][]float64 `json:"samples,omitempty"`
}

// GetSnapshot fetches the latest snapshot for workload.
// It returns ErrNotFound when the forecaster has none.
func (c *ForecasterClient) GetSnapshot(ctx context.Context, workload string) (*SnapshotResult, error) {
	if workload == "" {
		return nil, errors.New("workload cannot be empty")
	}

	u, err := c.endpoint("/forecast/current")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("workload", workload)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("workload %q: %w", workload, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var snapshot storage.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &SnapshotResult{
		Snapshot: snapshot,
		Stale:    resp.Header.Get(StaleHeader) == "true",
	}, nil
}

// Forecast fits a fresh model on the posted series and returns its forecast.
func (c *ForecasterClient) Forecast(ctx context.Context, fr ForecastRequest) (*ForecastResponse, error) {
	u, err := c.endpoint("/forecast")
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(fr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out ForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func (c *ForecasterClient) endpoint(path string) (*url.URL, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return u.JoinPath(path), nil
}

// statusError reports an unexpected status, including the server's error message when present.
func statusError(resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// IsStale reports whether snapshot is older than staleAfter.
func IsStale(snapshot storage.Snapshot, staleAfter time.Duration) bool {
	return time.Since(snapshot.GeneratedAt) > staleAfter
}
