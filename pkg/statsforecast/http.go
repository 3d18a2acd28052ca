package statsforecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteError is a failure reported by the estimator service.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("statsforecast %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("statsforecast %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// HTTPEstimator runs AutoCES on a statsforecast HTTP service.
//
// The fitted model lives on the service; the estimator keeps its handle.
// It is not safe for concurrent Fit calls.
type HTTPEstimator struct {
	baseURL    string
	config     AutoCESConfig
	httpClient *http.Client

	modelID  string
	selected string
}

// HTTPOption configures an HTTPEstimator.
type HTTPOption func(*HTTPEstimator)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(e *HTTPEstimator) {
		e.httpClient = c
	}
}

// NewHTTPEstimator creates an estimator for the service at baseURL
// (e.g. "http://statsforecast:8000").
func NewHTTPEstimator(baseURL string, cfg AutoCESConfig, opts ...HTTPOption) *HTTPEstimator {
	e := &HTTPEstimator{
		baseURL: baseURL,
		config:  cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type fitRequest struct {
	Params map[string]any `json:"params"`
	Y      []float64      `json:"y"`
}

type fitResponse struct {
	ModelID  string `json:"model_id"`
	Selected string `json:"selected"`
}

type predictRequest struct {
	H     int       `json:"h"`
	Level []float64 `json:"level,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Fit sends y to the service, which selects and fits an AutoCES model.
func (e *HTTPEstimator) Fit(ctx context.Context, y []float64) error {
	var resp fitResponse
	err := e.post(ctx, "fit", "/v1/models/autoces/fit", fitRequest{Params: e.config.Params(), Y: y}, &resp)
	if err != nil {
		return err
	}
	if resp.ModelID == "" {
		return &RemoteError{Op: "fit", StatusCode: http.StatusOK, Message: "response has no model_id"}
	}

	e.modelID = resp.ModelID
	e.selected = resp.Selected
	return nil
}

// Predict requests an h-step forecast with intervals at levels.
func (e *HTTPEstimator) Predict(ctx context.Context, h int, levels ...float64) (Forecast, error) {
	if e.modelID == "" {
		return nil, ErrNoModel
	}

	var resp Forecast
	path := "/v1/models/" + url.PathEscape(e.modelID) + "/predict"
	if err := e.post(ctx, "predict", path, predictRequest{H: h, Level: levels}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Selected returns the CES variant chosen by the last successful Fit.
func (e *HTTPEstimator) Selected() string {
	return e.selected
}

func (e *HTTPEstimator) post(ctx context.Context, op, path string, in, out any) error {
	u, err := url.Parse(e.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(path)

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var er errorResponse
		if json.Unmarshal(raw, &er) != nil || er.Error == "" {
			er.Error = string(bytes.TrimSpace(raw))
		}
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: er.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
