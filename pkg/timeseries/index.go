package timeseries

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIrregularIndex is returned when timestamps are not evenly spaced.
	ErrIrregularIndex = errors.New("timeseries: irregular index")

	// ErrAmbiguousFreq is returned when a frequency cannot be inferred from fewer than two timestamps.
	ErrAmbiguousFreq = errors.New("timeseries: cannot infer frequency")
)

// Freq is the spacing of a time index. Calendar months and fixed durations
// are kept separate so that monthly data advances by month, not by 30 days.
type Freq struct {
	Months int
	Dur    time.Duration
}

var (
	Minutely = Freq{Dur: time.Minute}
	Hourly   = Freq{Dur: time.Hour}
	Daily    = Freq{Dur: 24 * time.Hour}
	Monthly  = Freq{Months: 1}
)

// IsZero reports whether f does not advance time.
func (f Freq) IsZero() bool {
	return f.Months == 0 && f.Dur == 0
}

// Advance returns t moved forward by k periods.
func (f Freq) Advance(t time.Time, k int) time.Time {
	if f.Months != 0 {
		t = t.AddDate(0, f.Months*k, 0)
	}
	return t.Add(time.Duration(k) * f.Dur)
}

func (f Freq) String() string {
	switch {
	case f.Months != 0 && f.Dur != 0:
		return fmt.Sprintf("%dmo%s", f.Months, f.Dur)
	case f.Months != 0:
		return fmt.Sprintf("%dmo", f.Months)
	default:
		return f.Dur.String()
	}
}

// Index is a regular series index: either integer positions (range index)
// or timestamps spaced by a Freq (time index). Points are computed from the
// start, so an Index never stores per-point values.
type Index struct {
	isTime bool
	start  time.Time
	freq   Freq
	first  int
	step   int
	n      int
}

// NewRangeIndex returns the integer index start, start+step, ... with n points.
// A step of zero is treated as one.
func NewRangeIndex(start, step, n int) Index {
	if step == 0 {
		step = 1
	}
	if n < 0 {
		n = 0
	}
	return Index{first: start, step: step, n: n}
}

// NewTimeIndex returns n timestamps starting at start and spaced by freq.
func NewTimeIndex(start time.Time, freq Freq, n int) Index {
	if n < 0 {
		n = 0
	}
	return Index{isTime: true, start: start, freq: freq, n: n}
}

// InferTimeIndex builds a time index from explicit timestamps. The spacing is
// taken from the first two points and every later point must agree with it,
// either as a fixed duration or as a whole number of calendar months.
func InferTimeIndex(times []time.Time) (Index, error) {
	if len(times) < 2 {
		return Index{}, ErrAmbiguousFreq
	}

	d := times[1].Sub(times[0])
	if d <= 0 {
		return Index{}, fmt.Errorf("%w: timestamps must be strictly increasing", ErrIrregularIndex)
	}

	freq := Freq{Dur: d}
	if !fitsFreq(times, freq) {
		months := monthsBetween(times[0], times[1])
		freq = Freq{Months: months}
		if months <= 0 || !fitsFreq(times, freq) {
			return Index{}, fmt.Errorf("%w: spacing changes after %s", ErrIrregularIndex, times[0].Format(time.RFC3339))
		}
	}

	return NewTimeIndex(times[0], freq, len(times)), nil
}

func fitsFreq(times []time.Time, freq Freq) bool {
	for i, t := range times {
		if !freq.Advance(times[0], i).Equal(t) {
			return false
		}
	}
	return true
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// Len returns the number of points.
func (ix Index) Len() int { return ix.n }

// IsTime reports whether the index holds timestamps.
func (ix Index) IsTime() bool { return ix.isTime }

// Freq returns the spacing of a time index.
func (ix Index) Freq() Freq { return ix.freq }

// Step returns the spacing of a range index.
func (ix Index) Step() int { return ix.step }

// Time returns the i-th timestamp. It is only meaningful for time indices.
func (ix Index) Time(i int) time.Time {
	return ix.freq.Advance(ix.start, i)
}

// Int returns the i-th integer position. It is only meaningful for range indices.
func (ix Index) Int(i int) int {
	return ix.first + i*ix.step
}

// Times materializes the timestamps of a time index.
func (ix Index) Times() []time.Time {
	if !ix.isTime {
		return nil
	}
	out := make([]time.Time, ix.n)
	for i := range out {
		out[i] = ix.Time(i)
	}
	return out
}

// Ints materializes the positions of a range index.
func (ix Index) Ints() []int {
	if ix.isTime {
		return nil
	}
	out := make([]int, ix.n)
	for i := range out {
		out[i] = ix.Int(i)
	}
	return out
}

// Slice returns the sub-index [start, end).
func (ix Index) Slice(start, end int) Index {
	if start < 0 {
		start = 0
	}
	if end > ix.n {
		end = ix.n
	}
	if start >= end {
		start, end = 0, 0
	}

	out := ix
	out.n = end - start
	if ix.isTime {
		out.start = ix.Time(start)
	} else {
		out.first = ix.Int(start)
	}
	return out
}

// After returns the n points that immediately follow the last point of ix.
func (ix Index) After(n int) Index {
	out := ix
	out.n = max(n, 0)
	if ix.isTime {
		out.start = ix.Time(ix.n)
	} else {
		out.first = ix.Int(ix.n)
	}
	return out
}

// Equal reports whether two indices describe the same points.
func (ix Index) Equal(other Index) bool {
	if ix.isTime != other.isTime || ix.n != other.n {
		return false
	}
	if ix.isTime {
		return ix.freq == other.freq && ix.start.Equal(other.start)
	}
	return ix.first == other.first && ix.step == other.step
}
