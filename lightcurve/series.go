package lightcurve

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// Sample is one cadence of a [TimeSeries].
type Sample struct {
	Time    float64
	Flux    float64
	FluxErr float64
	Quality uint32
}

// Valid reports whether the sample carries a finite flux.
func (s Sample) Valid() bool {
	return robust.IsFinite(s.Flux)
}

// TimeSeries is an ordered sequence of cadences.
//
// All four slices have equal length. Time is strictly increasing for series
// built with [New]. NaN flux marks an invalid cadence; NaN FluxErr marks an
// unknown uncertainty.
type TimeSeries struct {
	Time    []float64
	Flux    []float64
	FluxErr []float64
	Quality []uint32
}

// New builds a TimeSeries from copies of the given slices.
//
// fluxErr and quality may be nil, meaning unknown uncertainties (NaN) and
// zero flags. Time must be finite and strictly increasing.
func New(time, flux, fluxErr []float64, quality []uint32) (TimeSeries, error) {
	ts, err := NewUnsorted(time, flux, fluxErr, quality)
	if err != nil {
		return TimeSeries{}, err
	}
	if !ts.IsSorted() {
		return TimeSeries{}, ErrUnsorted
	}
	return ts, nil
}

// NewUnsorted is like [New] but accepts any finite time ordering.
// Folding works on such a series; plain-time binning does not.
func NewUnsorted(time, flux, fluxErr []float64, quality []uint32) (TimeSeries, error) {
	n := len(time)
	if len(flux) != n {
		return TimeSeries{}, fmt.Errorf("%w: time %d, flux %d", ErrLengthMismatch, n, len(flux))
	}
	if fluxErr != nil && len(fluxErr) != n {
		return TimeSeries{}, fmt.Errorf("%w: time %d, flux_err %d", ErrLengthMismatch, n, len(fluxErr))
	}
	if quality != nil && len(quality) != n {
		return TimeSeries{}, fmt.Errorf("%w: time %d, quality %d", ErrLengthMismatch, n, len(quality))
	}
	for i, t := range time {
		if !robust.IsFinite(t) {
			return TimeSeries{}, fmt.Errorf("lightcurve: non-finite time at index %d: %v", i, t)
		}
	}

	ts := TimeSeries{
		Time:    append([]float64(nil), time...),
		Flux:    append([]float64(nil), flux...),
		FluxErr: make([]float64, n),
		Quality: make([]uint32, n),
	}
	if fluxErr != nil {
		copy(ts.FluxErr, fluxErr)
	} else {
		for i := range ts.FluxErr {
			ts.FluxErr[i] = math.NaN()
		}
	}
	if quality != nil {
		copy(ts.Quality, quality)
	}
	return ts, nil
}

// Len returns the number of cadences.
func (ts TimeSeries) Len() int { return len(ts.Time) }

// At returns cadence i.
func (ts TimeSeries) At(i int) Sample {
	return Sample{
		Time:    ts.Time[i],
		Flux:    ts.Flux[i],
		FluxErr: ts.FluxErr[i],
		Quality: ts.Quality[i],
	}
}

// Validate checks the equal-length invariant.
func (ts TimeSeries) Validate() error {
	n := len(ts.Time)
	if len(ts.Flux) != n || len(ts.FluxErr) != n || len(ts.Quality) != n {
		return fmt.Errorf("%w: time %d, flux %d, flux_err %d, quality %d",
			ErrLengthMismatch, n, len(ts.Flux), len(ts.FluxErr), len(ts.Quality))
	}
	return nil
}

// IsSorted reports whether Time is strictly increasing.
func (ts TimeSeries) IsSorted() bool {
	for i := 1; i < len(ts.Time); i++ {
		if !(ts.Time[i] > ts.Time[i-1]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (ts TimeSeries) Clone() TimeSeries {
	return TimeSeries{
		Time:    append([]float64(nil), ts.Time...),
		Flux:    append([]float64(nil), ts.Flux...),
		FluxErr: append([]float64(nil), ts.FluxErr...),
		Quality: append([]uint32(nil), ts.Quality...),
	}
}

// ValidCount returns the number of cadences with finite flux.
func (ts TimeSeries) ValidCount() int {
	n := 0
	for _, f := range ts.Flux {
		if robust.IsFinite(f) {
			n++
		}
	}
	return n
}

// Span returns the first and last timestamps. ok is false for an empty series.
func (ts TimeSeries) Span() (first, last float64, ok bool) {
	if len(ts.Time) == 0 {
		return 0, 0, false
	}
	return ts.Time[0], ts.Time[len(ts.Time)-1], true
}

// Select returns the cadences where keep is true, preserving order.
func Select(ts TimeSeries, keep []bool) (TimeSeries, error) {
	if err := ts.Validate(); err != nil {
		return TimeSeries{}, err
	}
	if len(keep) != ts.Len() {
		return TimeSeries{}, fmt.Errorf("%w: series %d, mask %d", ErrLengthMismatch, ts.Len(), len(keep))
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := TimeSeries{
		Time:    make([]float64, 0, n),
		Flux:    make([]float64, 0, n),
		FluxErr: make([]float64, 0, n),
		Quality: make([]uint32, 0, n),
	}
	for i, k := range keep {
		if !k {
			continue
		}
		out.Time = append(out.Time, ts.Time[i])
		out.Flux = append(out.Flux, ts.Flux[i])
		out.FluxErr = append(out.FluxErr, ts.FluxErr[i])
		out.Quality = append(out.Quality, ts.Quality[i])
	}
	return out, nil
}
