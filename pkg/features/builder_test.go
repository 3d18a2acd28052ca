package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/HatiCode/cesforecast/pkg/adapters"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rowsAt(offsets []time.Duration, values []float64) *adapters.DataFrame {
	rows := make([]adapters.Row, len(offsets))
	for i := range offsets {
		rows[i] = adapters.Row{TS: t0.Add(offsets[i]), Value: values[i]}
	}
	return &adapters.DataFrame{Rows: rows}
}

func TestBuilder_BuildSeries_Regular(t *testing.T) {
	df := rowsAt(
		[]time.Duration{0, time.Minute, 2 * time.Minute},
		[]float64{100, 110, 120},
	)

	series, err := NewBuilder(time.Minute).BuildSeries(df, "http_rps")
	if err != nil {
		t.Fatalf("BuildSeries() error = %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", series.Len())
	}
	if series.Name() != "http_rps" {
		t.Errorf("Name() = %q, want %q", series.Name(), "http_rps")
	}
	if !series.Index().IsTime() || !series.Index().Time(0).Equal(t0) {
		t.Errorf("index starts at %v, want %v", series.Index().Time(0), t0)
	}
	if series.Index().Freq().Dur != time.Minute {
		t.Errorf("Freq() = %v, want 1m", series.Index().Freq())
	}
}

func TestBuilder_BuildSeries_FillsGapsAndAligns(t *testing.T) {
	df := rowsAt(
		[]time.Duration{10 * time.Second, 3*time.Minute + 5*time.Second, 3*time.Minute + 30*time.Second},
		[]float64{1, 4, 5},
	)

	series, err := NewBuilder(time.Minute).BuildSeries(df, "m")
	if err != nil {
		t.Fatalf("BuildSeries() error = %v", err)
	}

	got := series.Column(0)
	want := []float64{1, 1, 1, 5}
	if len(got) != len(want) {
		t.Fatalf("values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBuilder_BuildSeries_Errors(t *testing.T) {
	b := NewBuilder(time.Minute)

	if _, err := b.BuildSeries(nil, "m"); !errors.Is(err, ErrNoData) {
		t.Errorf("nil frame error = %v, want ErrNoData", err)
	}
	if _, err := b.BuildSeries(&adapters.DataFrame{}, "m"); !errors.Is(err, ErrNoData) {
		t.Errorf("empty frame error = %v, want ErrNoData", err)
	}

	allNaN := rowsAt([]time.Duration{0, time.Minute}, []float64{math.NaN(), math.NaN()})
	if _, err := b.BuildSeries(allNaN, "m"); !errors.Is(err, ErrNoData) {
		t.Errorf("all-NaN frame error = %v, want ErrNoData", err)
	}

	unsorted := []struct {
		name    string
		offsets []time.Duration
	}{
		{"before first", []time.Duration{time.Minute, 0}},
		{"after first", []time.Duration{0, 3 * time.Minute, time.Minute}},
		{"within a step", []time.Duration{0, 40 * time.Second, 20 * time.Second}},
	}
	for _, tt := range unsorted {
		df := rowsAt(tt.offsets, make([]float64, len(tt.offsets)))
		if _, err := b.BuildSeries(df, "m"); !errors.Is(err, ErrUnsorted) {
			t.Errorf("%s: error = %v, want ErrUnsorted", tt.name, err)
		}
	}
}

func TestBuilder_BuildSeries_SameStepLatestWins(t *testing.T) {
	df := rowsAt(
		[]time.Duration{0, 20 * time.Second, 20 * time.Second, 50 * time.Second},
		[]float64{1, 2, 3, 4},
	)

	series, err := NewBuilder(time.Minute).BuildSeries(df, "m")
	if err != nil {
		t.Fatalf("BuildSeries() error = %v", err)
	}
	if got := series.Column(0); len(got) != 1 || got[0] != 4 {
		t.Errorf("values = %v, want [4]", got)
	}
}

func TestFillForward(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		values []float64
		want   []float64
		ok     bool
	}{
		{"no gaps", []float64{1, 2, 3}, []float64{1, 2, 3}, true},
		{"inner gap", []float64{1, nan, nan, 4}, []float64{1, 1, 1, 4}, true},
		{"leading gap", []float64{nan, 2, nan}, []float64{2, 2, 2}, true},
		{"all missing", []float64{nan, nan}, nil, false},
		{"empty", []float64{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok := FillForward(tt.values)
			if ok != tt.ok {
				t.Fatalf("FillForward() = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			for i := range tt.want {
				if tt.values[i] != tt.want[i] {
					t.Errorf("values = %v, want %v", tt.values, tt.want)
					break
				}
			}
		})
	}
}

func TestNewBuilder_DefaultStep(t *testing.T) {
	if b := NewBuilder(0); b.step != time.Minute {
		t.Errorf("step = %v, want 1m", b.step)
	}
}
