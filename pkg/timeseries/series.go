// Package timeseries provides the series type exchanged between collectors,
// forecasting models and snapshot storage.
//
// A Series is a regular index (integer positions or timestamps) plus a
// three-dimensional block of values laid out as time x component x sample.
// Deterministic series carry one sample per point; probabilistic forecasts
// carry one column per simulated sample path.
package timeseries

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultComponent names the single component of series built from plain values.
const DefaultComponent = "value"

// ErrShape is returned when values do not agree with the index or with each other.
var ErrShape = errors.New("timeseries: inconsistent shape")

// Series is an immutable-by-convention time series. Accessors return copies.
type Series struct {
	name       string
	index      Index
	components []string
	data       [][][]float64
}

// New validates and wraps data shaped [time][component][sample].
func New(index Index, components []string, data [][][]float64) (*Series, error) {
	if len(data) != index.Len() {
		return nil, fmt.Errorf("%w: index has %d points, data has %d", ErrShape, index.Len(), len(data))
	}
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: at least one component is required", ErrShape)
	}

	samples := -1
	for t, row := range data {
		if len(row) != len(components) {
			return nil, fmt.Errorf("%w: point %d has %d components, want %d", ErrShape, t, len(row), len(components))
		}
		for c, col := range row {
			if samples < 0 {
				samples = len(col)
			}
			if len(col) == 0 || len(col) != samples {
				return nil, fmt.Errorf("%w: point %d component %d has %d samples", ErrShape, t, c, len(col))
			}
		}
	}

	return &Series{
		index:      index,
		components: slices.Clone(components),
		data:       data,
	}, nil
}

// FromValues builds a univariate series on the range index 0..len(values)-1.
func FromValues(values []float64) *Series {
	s, _ := FromIndex(NewRangeIndex(0, 1, len(values)), values)
	return s
}

// FromIndex builds a univariate deterministic series on index.
func FromIndex(index Index, values []float64) (*Series, error) {
	data := make([][][]float64, len(values))
	for i, v := range values {
		data[i] = [][]float64{{v}}
	}
	return New(index, []string{DefaultComponent}, data)
}

// FromTimes builds a univariate series from explicit timestamps. The
// frequency is inferred, see InferTimeIndex.
func FromTimes(times []time.Time, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps, %d values", ErrShape, len(times), len(values))
	}
	index, err := InferTimeIndex(times)
	if err != nil {
		return nil, err
	}
	return FromIndex(index, values)
}

// FromMatrix builds a deterministic multivariate series from rows shaped
// [time][component].
func FromMatrix(index Index, components []string, rows [][]float64) (*Series, error) {
	data := make([][][]float64, len(rows))
	for t, row := range rows {
		data[t] = make([][]float64, len(row))
		for c, v := range row {
			data[t][c] = []float64{v}
		}
	}
	return New(index, components, data)
}

// FromSamples builds a univariate series from samples shaped [time][sample].
func FromSamples(index Index, component string, samples [][]float64) (*Series, error) {
	data := make([][][]float64, len(samples))
	for t, row := range samples {
		data[t] = [][]float64{slices.Clone(row)}
	}
	return New(index, []string{component}, data)
}

// WithName returns a shallow copy of s carrying name.
func (s *Series) WithName(name string) *Series {
	out := *s
	out.name = name
	return &out
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Index returns the series index.
func (s *Series) Index() Index { return s.index }

// Len returns the number of points.
func (s *Series) Len() int { return len(s.data) }

// Width returns the number of components.
func (s *Series) Width() int { return len(s.components) }

// Components returns the component names.
func (s *Series) Components() []string { return slices.Clone(s.components) }

// NumSamples returns the number of samples per point.
func (s *Series) NumSamples() int {
	if len(s.data) == 0 {
		return 1
	}
	return len(s.data[0][0])
}

// IsUnivariate reports whether the series has exactly one component.
func (s *Series) IsUnivariate() bool { return len(s.components) == 1 }

// IsDeterministic reports whether the series has a single sample per point.
func (s *Series) IsDeterministic() bool { return s.NumSamples() == 1 }

// At returns the value at point t, component c, sample k.
func (s *Series) At(t, c, k int) float64 {
	return s.data[t][c][k]
}

// Column returns the first-sample values of component c.
func (s *Series) Column(c int) []float64 {
	out := make([]float64, len(s.data))
	for t := range s.data {
		out[t] = s.data[t][c][0]
	}
	return out
}

// Samples returns the values of component c shaped [time][sample].
func (s *Series) Samples(c int) [][]float64 {
	out := make([][]float64, len(s.data))
	for t := range s.data {
		out[t] = slices.Clone(s.data[t][c])
	}
	return out
}

// Flatten returns every value in time, component, sample order. For a
// deterministic univariate series this is the raw observation sequence.
func (s *Series) Flatten() []float64 {
	out := make([]float64, 0, len(s.data)*s.Width()*s.NumSamples())
	for _, row := range s.data {
		for _, col := range row {
			out = append(out, col...)
		}
	}
	return out
}

// Mean returns the per-point sample mean of component c.
func (s *Series) Mean(c int) []float64 {
	out := make([]float64, len(s.data))
	for t := range s.data {
		out[t] = stat.Mean(s.data[t][c], nil)
	}
	return out
}

// Quantile returns the per-point empirical q-quantile of component c.
func (s *Series) Quantile(c int, q float64) []float64 {
	out := make([]float64, len(s.data))
	for t := range s.data {
		sorted := slices.Clone(s.data[t][c])
		slices.Sort(sorted)
		out[t] = stat.Quantile(q, stat.Empirical, sorted, nil)
	}
	return out
}

// Slice returns points [start, end) as a new series.
func (s *Series) Slice(start, end int) *Series {
	index := s.index.Slice(start, end)
	n := index.Len()
	if n > 0 && start < 0 {
		start = 0
	}

	data := make([][][]float64, n)
	for t := range data {
		data[t] = cloneRow(s.data[start+t])
	}
	return &Series{
		name:       s.name,
		index:      index,
		components: slices.Clone(s.components),
		data:       data,
	}
}

// Copy returns a deep copy of s.
func (s *Series) Copy() *Series {
	return s.Slice(0, s.Len())
}

func cloneRow(row [][]float64) [][]float64 {
	out := make([][]float64, len(row))
	for c := range row {
		out[c] = slices.Clone(row[c])
	}
	return out
}
