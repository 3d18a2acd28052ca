package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFromValues(t *testing.T) {
	s := FromValues([]float64{1, 2, 3})

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if !s.IsUnivariate() || !s.IsDeterministic() {
		t.Errorf("expected univariate deterministic series")
	}
	if s.Index().IsTime() {
		t.Errorf("expected range index")
	}
	if got := s.Index().Ints(); got[0] != 0 || got[2] != 2 {
		t.Errorf("Ints() = %v, want [0 1 2]", got)
	}
}

func TestNew_ShapeErrors(t *testing.T) {
	tests := []struct {
		name       string
		index      Index
		components []string
		data       [][][]float64
	}{
		{"length mismatch", NewRangeIndex(0, 1, 2), []string{"a"}, [][][]float64{{{1}}}},
		{"no components", NewRangeIndex(0, 1, 1), nil, [][][]float64{{{1}}}},
		{"component mismatch", NewRangeIndex(0, 1, 1), []string{"a", "b"}, [][][]float64{{{1}}}},
		{"sample mismatch", NewRangeIndex(0, 1, 2), []string{"a"}, [][][]float64{{{1, 2}}, {{1}}}},
		{"empty samples", NewRangeIndex(0, 1, 1), []string{"a"}, [][][]float64{{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.index, tt.components, tt.data)
			if !errors.Is(err, ErrShape) {
				t.Errorf("New() error = %v, want ErrShape", err)
			}
		})
	}
}

func TestFromTimes_InfersFixedFreq(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}

	s, err := FromTimes(times, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("FromTimes() error = %v", err)
	}
	if s.Index().Freq() != Hourly {
		t.Errorf("Freq() = %v, want %v", s.Index().Freq(), Hourly)
	}
	if !s.Index().Time(2).Equal(times[2]) {
		t.Errorf("Time(2) = %v, want %v", s.Index().Time(2), times[2])
	}
}

func TestFromTimes_InfersMonthlyFreq(t *testing.T) {
	base := time.Date(1949, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, 14)
	for i := range times {
		times[i] = base.AddDate(0, i, 0)
	}

	s, err := FromTimes(times, make([]float64, len(times)))
	if err != nil {
		t.Fatalf("FromTimes() error = %v", err)
	}
	if s.Index().Freq() != Monthly {
		t.Fatalf("Freq() = %v, want monthly", s.Index().Freq())
	}

	next := s.Index().After(1).Time(0)
	want := time.Date(1950, 3, 1, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("After(1) = %v, want %v", next, want)
	}
}

func TestFromTimes_Errors(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := FromTimes([]time.Time{base}, []float64{1}); !errors.Is(err, ErrAmbiguousFreq) {
		t.Errorf("single timestamp error = %v, want ErrAmbiguousFreq", err)
	}

	irregular := []time.Time{base, base.Add(time.Hour), base.Add(3 * time.Hour)}
	if _, err := FromTimes(irregular, []float64{1, 2, 3}); !errors.Is(err, ErrIrregularIndex) {
		t.Errorf("irregular error = %v, want ErrIrregularIndex", err)
	}

	decreasing := []time.Time{base, base.Add(-time.Hour)}
	if _, err := FromTimes(decreasing, []float64{1, 2}); !errors.Is(err, ErrIrregularIndex) {
		t.Errorf("decreasing error = %v, want ErrIrregularIndex", err)
	}

	if _, err := FromTimes(irregular, []float64{1}); !errors.Is(err, ErrShape) {
		t.Errorf("length mismatch error = %v, want ErrShape", err)
	}
}

func TestIndex_After(t *testing.T) {
	ix := NewRangeIndex(10, 2, 5)
	next := ix.After(3)

	if next.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", next.Len())
	}
	if got := next.Ints(); got[0] != 20 || got[1] != 22 || got[2] != 24 {
		t.Errorf("Ints() = %v, want [20 22 24]", got)
	}
}

func TestIndex_Slice(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ix := NewTimeIndex(base, Daily, 10)

	sub := ix.Slice(3, 6)
	if sub.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sub.Len())
	}
	if !sub.Time(0).Equal(base.AddDate(0, 0, 3)) {
		t.Errorf("Time(0) = %v, want %v", sub.Time(0), base.AddDate(0, 0, 3))
	}
	if empty := ix.Slice(6, 3); empty.Len() != 0 {
		t.Errorf("inverted slice Len() = %d, want 0", empty.Len())
	}
}

func TestSeries_Flatten(t *testing.T) {
	s, err := FromMatrix(NewRangeIndex(0, 1, 2), []string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("FromMatrix() error = %v", err)
	}
	if s.IsUnivariate() {
		t.Errorf("expected multivariate series")
	}

	got := s.Flatten()
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Flatten() = %v, want %v", got, want)
		}
	}
}

func TestSeries_SampleStatistics(t *testing.T) {
	s, err := FromSamples(NewRangeIndex(0, 1, 2), "y", [][]float64{
		{1, 2, 3, 4},
		{10, 10, 10, 10},
	})
	if err != nil {
		t.Fatalf("FromSamples() error = %v", err)
	}
	if s.NumSamples() != 4 || s.IsDeterministic() {
		t.Errorf("NumSamples() = %d, want 4", s.NumSamples())
	}

	mean := s.Mean(0)
	if math.Abs(mean[0]-2.5) > 1e-12 || mean[1] != 10 {
		t.Errorf("Mean() = %v, want [2.5 10]", mean)
	}

	q := s.Quantile(0, 0.5)
	if q[0] != 2 || q[1] != 10 {
		t.Errorf("Quantile(0.5) = %v, want [2 10]", q)
	}
}

func TestSeries_SliceAndCopyAreIndependent(t *testing.T) {
	s := FromValues([]float64{1, 2, 3, 4, 5})

	sub := s.Slice(1, 3)
	if sub.Len() != 2 || sub.At(0, 0, 0) != 2 {
		t.Fatalf("Slice(1,3) = %v", sub.Flatten())
	}
	if sub.Index().Int(0) != 1 {
		t.Errorf("Slice index starts at %d, want 1", sub.Index().Int(0))
	}

	cp := s.Copy()
	cp.data[0][0][0] = 100
	if s.At(0, 0, 0) != 1 {
		t.Errorf("Copy() shares storage with the original")
	}
}
