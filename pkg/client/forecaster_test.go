package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HatiCode/cesforecast/pkg/storage"
)

func snapshotServer(t *testing.T, stale bool, snap storage.Snapshot) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/forecast/current" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if stale {
			w.Header().Set(StaleHeader, "true")
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewForecasterClient(t *testing.T) {
	c := NewForecasterClient("http://localhost:8081")
	if c.baseURL != "http://localhost:8081" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.httpClient.Timeout)
	}
	if c := NewForecasterClientWithTimeout("http://x", time.Minute); c.httpClient.Timeout != time.Minute {
		t.Errorf("timeout = %v, want 1m", c.httpClient.Timeout)
	}
}

func TestForecasterClient_GetSnapshot(t *testing.T) {
	want := storage.Snapshot{
		Workload:       "test-api",
		Metric:         "http_rps",
		Model:          "Auto-CES-Statsforecasts",
		GeneratedAt:    time.Now().UTC().Truncate(time.Second),
		StepSeconds:    60,
		HorizonSeconds: 180,
		Mean:           []float64{100, 110, 120},
		P10:            []float64{90, 100, 110},
		P90:            []float64{110, 120, 130},
	}

	for _, stale := range []bool{false, true} {
		server := snapshotServer(t, stale, want)
		result, err := NewForecasterClient(server.URL).GetSnapshot(context.Background(), "test-api")
		if err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if result.Stale != stale {
			t.Errorf("Stale = %v, want %v", result.Stale, stale)
		}
		got := result.Snapshot
		if got.Workload != want.Workload || got.Model != want.Model || !got.GeneratedAt.Equal(want.GeneratedAt) {
			t.Errorf("snapshot = %+v, want %+v", got, want)
		}
		if len(got.Mean) != 3 || got.P90[2] != 130 {
			t.Errorf("summary = %v / %v", got.Mean, got.P90)
		}
	}
}

func TestForecasterClient_GetSnapshot_URLConstruction(t *testing.T) {
	var captured string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.String()
		_ = json.NewEncoder(w).Encode(storage.Snapshot{Workload: "my-api-prod"})
	}))
	defer server.Close()

	if _, err := NewForecasterClient(server.URL).GetSnapshot(context.Background(), "my-api-prod"); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if captured != "/forecast/current?workload=my-api-prod" {
		t.Errorf("URL = %q", captured)
	}
}

func TestForecasterClient_GetSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name     string
		workload string
		handler  http.HandlerFunc
		timeout  time.Duration
		check    func(t *testing.T, err error)
	}{
		{
			name:     "not found",
			workload: "missing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
			},
		},
		{
			name:     "server error carries message",
			workload: "api",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"store unavailable"}`))
			},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "store unavailable") {
					t.Errorf("error = %v, want server message", err)
				}
			},
		},
		{
			name:     "invalid json",
			workload: "api",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("invalid json"))
			},
		},
		{
			name:     "timeout",
			workload: "api",
			timeout:  10 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			},
		},
		{
			name:     "empty workload",
			workload: "",
			handler:  func(w http.ResponseWriter, r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewForecasterClient(server.URL)
			if tt.timeout > 0 {
				c = NewForecasterClientWithTimeout(server.URL, tt.timeout)
			}
			_, err := c.GetSnapshot(context.Background(), tt.workload)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestForecasterClient_InvalidBaseURL(t *testing.T) {
	c := NewForecasterClient("://invalid-url")
	if _, err := c.GetSnapshot(context.Background(), "api"); err == nil {
		t.Error("GetSnapshot: expected error for invalid URL")
	}
	if _, err := c.Forecast(context.Background(), ForecastRequest{Horizon: 1}); err == nil {
		t.Error("Forecast: expected error for invalid URL")
	}
}

func TestForecasterClient_GetSnapshot_CancelledContext(t *testing.T) {
	server := snapshotServer(t, false, storage.Snapshot{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewForecasterClient(server.URL).GetSnapshot(ctx, "api"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestForecasterClient_Forecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/forecast" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req ForecastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Horizon != 2 || len(req.Values) != 10 || req.NumSamples != 50 {
			t.Errorf("request = %+v", req)
		}
		idx := 10
		_ = json.NewEncoder(w).Encode(ForecastResponse{
			Model:      "Auto-CES-Statsforecasts",
			StartIndex: &idx,
			Mean:       []float64{1, 2},
		})
	}))
	defer server.Close()

	resp, err := NewForecasterClient(server.URL).Forecast(context.Background(), ForecastRequest{
		Values:     make([]float64, 10),
		Horizon:    2,
		NumSamples: 50,
	})
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if resp.StartIndex == nil || *resp.StartIndex != 10 || resp.Start != nil {
		t.Errorf("index = %v / %v", resp.StartIndex, resp.Start)
	}
	if len(resp.Mean) != 2 {
		t.Errorf("Mean = %v", resp.Mean)
	}
}

func TestForecasterClient_Forecast_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"insufficient data"}`))
	}))
	defer server.Close()

	_, err := NewForecasterClient(server.URL).Forecast(context.Background(), ForecastRequest{Horizon: 1})
	if err == nil || !strings.Contains(err.Error(), "insufficient data") {
		t.Fatalf("error = %v, want insufficient data", err)
	}
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 30 * time.Second, false},
		{"just before threshold", time.Minute + 59*time.Second, false},
		{"stale", 5 * time.Minute, true},
		{"very old", time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storage.Snapshot{GeneratedAt: time.Now().Add(-tt.age)}
			if got := IsStale(s, 2*time.Minute); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}
