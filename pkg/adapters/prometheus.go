// Package adapters retrieves training data for the forecaster from external
// systems and normalizes it into a DataFrame.
//
// Adapters only pull and shape raw observations; turning them into a regular
// series and forecasting is left to the features and models packages.
package adapters

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// PrometheusAdapter fetches a metric through the Prometheus range query API.
// When the query returns several series, values sharing a timestamp are summed.
type PrometheusAdapter struct {
	// ServerURL is the base URL to Prometheus, e.g. http://prometheus.monitoring.svc:9090
	ServerURL string
	// Query is the PromQL expression to evaluate.
	Query string
	// StepSeconds controls the resolution (defaults to 60s if <= 0).
	StepSeconds int
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

func (p *PrometheusAdapter) Name() string { return "prometheus" }

// Collect queries /api/v1/query_range over the last windowSeconds and returns
// the rows sorted by timestamp.
func (p *PrometheusAdapter) Collect(ctx context.Context, windowSeconds int) (*DataFrame, error) {
	if p.ServerURL == "" || p.Query == "" {
		return nil, errors.New("prometheus adapter: ServerURL and Query are required")
	}
	step := p.StepSeconds
	if step <= 0 {
		step = 60
	}
	end := time.Now().UTC().Truncate(time.Second)
	start := end.Add(-time.Duration(windowSeconds) * time.Second)

	u, err := url.Parse(p.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}
	u = u.JoinPath("/api/v1/query_range")

	q := u.Query()
	q.Set("query", p.Query)
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("step", strconv.Itoa(step))
	u.RawQuery = q.Encode()

	cli := p.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prometheus: status %d", resp.StatusCode)
	}

	var pr rangeResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode prometheus response: %w", err)
	}
	if pr.Status != "success" {
		return nil, fmt.Errorf("prometheus status: %s", pr.Status)
	}

	rows, err := sumByTimestamp(pr.Data.Result)
	if err != nil {
		return nil, err
	}
	return &DataFrame{Rows: rows}, nil
}

type rangeResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string        `json:"resultType"`
		Result     []rangeSeries `json:"result"`
	} `json:"data"`
}

type rangeSeries struct {
	Metric map[string]string `json:"metric"`
	// Values is an array of [ <unix_time>, "<value_string>" ]
	Values [][]any `json:"values"`
}

func sumByTimestamp(series []rangeSeries) ([]Row, error) {
	acc := make(map[int64]float64)
	for _, s := range series {
		for _, pair := range s.Values {
			if len(pair) != 2 {
				return nil, fmt.Errorf("invalid value pair length: %d", len(pair))
			}
			ts, err := parseNumber(pair[0])
			if err != nil {
				return nil, fmt.Errorf("parse timestamp: %w", err)
			}
			val, err := parseNumber(pair[1])
			if err != nil {
				return nil, fmt.Errorf("parse value: %w", err)
			}
			acc[int64(ts)] += val
		}
	}

	rows := make([]Row, 0, len(acc))
	for ts, v := range acc {
		rows = append(rows, Row{TS: time.Unix(ts, 0).UTC(), Value: v})
	}
	slices.SortFunc(rows, func(a, b Row) int {
		return cmp.Compare(a.TS.Unix(), b.TS.Unix())
	})
	return rows, nil
}

// parseNumber accepts the encodings Prometheus uses for sample pairs:
// JSON numbers for timestamps and strings for values.
func parseNumber(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
