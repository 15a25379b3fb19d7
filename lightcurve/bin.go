package lightcurve

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// BinnedSeries aggregates cadences into fixed-width bins of the time or
// phase axis.
type BinnedSeries struct {
	// Center is the midpoint of each bin on the binned axis.
	Center  []float64
	Flux    []float64
	FluxErr []float64
	// Count is the number of input cadences that fell into each bin.
	Count []int
	Width float64
}

// Len returns the number of bins.
func (b BinnedSeries) Len() int { return len(b.Center) }

// TotalCount returns the number of cadences aggregated across all bins.
func (b BinnedSeries) TotalCount() int {
	n := 0
	for _, c := range b.Count {
		n += c
	}
	return n
}

// TimeSeries returns the bins as a TimeSeries with bin centers as time.
func (b BinnedSeries) TimeSeries() TimeSeries {
	return TimeSeries{
		Time:    append([]float64(nil), b.Center...),
		Flux:    append([]float64(nil), b.Flux...),
		FluxErr: append([]float64(nil), b.FluxErr...),
		Quality: make([]uint32, len(b.Center)),
	}
}

// BinOption configures [Bin] and [BinFolded].
type BinOption func(*binConfig)

type binConfig struct {
	fillEmpty bool
	workers   int
}

// WithFillEmpty emits empty bins as NaN flux with zero count instead of
// omitting them. Widths needing more than 2^24 bins are then rejected.
func WithFillEmpty() BinOption {
	return func(c *binConfig) { c.fillEmpty = true }
}

// WithWorkers aggregates bins on up to n goroutines. Each goroutine owns a
// disjoint range of output bins.
func WithWorkers(n int) BinOption {
	return func(c *binConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// maxFilledBins bounds the dense layout [WithFillEmpty] allocates.
const maxFilledBins = 1 << 24

// Bin aggregates a time-sorted series into bins of the given width on the
// time axis. Bins start at the first timestamp.
func Bin(ts TimeSeries, width float64, opts ...BinOption) (BinnedSeries, error) {
	if err := ts.Validate(); err != nil {
		return BinnedSeries{}, err
	}
	if !ts.IsSorted() {
		return BinnedSeries{}, ErrUnsorted
	}
	return binAxis(ts.Time, ts.Flux, ts.FluxErr, width, opts)
}

// BinFolded aggregates a folded series into bins of the given phase width.
// Bins start at the smallest phase present.
func BinFolded(f FoldedSeries, width float64, opts ...BinOption) (BinnedSeries, error) {
	n := len(f.Phase)
	if len(f.Flux) != n || len(f.FluxErr) != n {
		return BinnedSeries{}, fmt.Errorf("%w: phase %d, flux %d, flux_err %d", ErrLengthMismatch, n, len(f.Flux), len(f.FluxErr))
	}
	for i := 1; i < n; i++ {
		if f.Phase[i] < f.Phase[i-1] {
			return BinnedSeries{}, fmt.Errorf("%w: phase at index %d", ErrUnsorted, i)
		}
	}
	return binAxis(f.Phase, f.Flux, f.FluxErr, width, opts)
}

// binRun is the contiguous sample range [start, end) falling into bin index.
type binRun struct {
	index, start, end int
}

// binAxis bins over a non-decreasing axis.
//
// Bin k covers [min + k*width, min + (k+1)*width). Only populated bins are
// materialised unless empty bins are requested. Flux is the
// inverse-variance weighted mean when every finite-flux cadence in the bin
// has a finite positive error; otherwise the plain mean with error
// std/sqrt(n) is used.
func binAxis(axis, flux, fluxErr []float64, width float64, opts []BinOption) (BinnedSeries, error) {
	if !(width > 0) || math.IsInf(width, 0) {
		return BinnedSeries{}, fmt.Errorf("%w: %v", ErrInvalidBinWidth, width)
	}
	if len(axis) == 0 {
		return BinnedSeries{}, ErrEmptySeries
	}
	cfg := binConfig{workers: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	lo := axis[0]
	last := math.Floor((axis[len(axis)-1] - lo) / width)
	if !(last < float64(math.MaxInt32)) {
		return BinnedSeries{}, fmt.Errorf("%w: %v spans more than %d bins", ErrInvalidBinWidth, width, math.MaxInt32)
	}
	if cfg.fillEmpty && last >= maxFilledBins {
		return BinnedSeries{}, fmt.Errorf("%w: %v needs %v empty-filled bins", ErrInvalidBinWidth, width, last+1)
	}

	// The axis is sorted, so every bin is one contiguous run.
	var runs []binRun
	for i, x := range axis {
		k := int(math.Floor((x - lo) / width))
		if len(runs) == 0 || runs[len(runs)-1].index != k {
			if len(runs) > 0 {
				runs[len(runs)-1].end = i
			}
			runs = append(runs, binRun{index: k, start: i})
		}
	}
	runs[len(runs)-1].end = len(axis)

	out := BinnedSeries{
		Center:  make([]float64, len(runs)),
		Flux:    make([]float64, len(runs)),
		FluxErr: make([]float64, len(runs)),
		Count:   make([]int, len(runs)),
		Width:   width,
	}
	aggregate := func(from, to int) error {
		for r := from; r < to; r++ {
			run := runs[r]
			mean, stderr, err := aggregateBin(flux[run.start:run.end], fluxErr[run.start:run.end])
			if err != nil {
				return fmt.Errorf("lightcurve: bin %d: %w", run.index, err)
			}
			out.Center[r] = lo + (float64(run.index)+0.5)*width
			out.Count[r] = run.end - run.start
			out.Flux[r], out.FluxErr[r] = mean, stderr
		}
		return nil
	}

	var g errgroup.Group
	workers := max(min(cfg.workers, len(runs)), 1)
	chunk := (len(runs) + workers - 1) / workers
	for from := 0; from < len(runs); from += chunk {
		to := min(from+chunk, len(runs))
		g.Go(func() error { return aggregate(from, to) })
	}
	if err := g.Wait(); err != nil {
		return BinnedSeries{}, err
	}

	if cfg.fillEmpty {
		out = fillEmptyBins(out, runs, lo, int(last)+1)
	}
	return out, nil
}

// fillEmptyBins expands populated bins into the dense layout of nbins bins.
func fillEmptyBins(b BinnedSeries, runs []binRun, lo float64, nbins int) BinnedSeries {
	dense := BinnedSeries{
		Center:  make([]float64, nbins),
		Flux:    make([]float64, nbins),
		FluxErr: make([]float64, nbins),
		Count:   make([]int, nbins),
		Width:   b.Width,
	}
	for k := range nbins {
		dense.Center[k] = lo + (float64(k)+0.5)*b.Width
		dense.Flux[k], dense.FluxErr[k] = math.NaN(), math.NaN()
	}
	for r, run := range runs {
		k := run.index
		dense.Flux[k], dense.FluxErr[k], dense.Count[k] = b.Flux[r], b.FluxErr[r], b.Count[r]
	}
	return dense
}

// aggregateBin fails when finite samples produce a non-finite aggregate,
// which happens only when the flux sum overflows.
func aggregateBin(flux, fluxErr []float64) (mean, stderr float64, err error) {
	vals := make([]float64, 0, len(flux))
	weights := make([]float64, 0, len(flux))
	weighted := true
	for i, f := range flux {
		if !robust.IsFinite(f) {
			continue
		}
		vals = append(vals, f)
		e := fluxErr[i]
		if w := 1 / (e * e); robust.IsFinite(e) && e > 0 && robust.IsFinite(w) {
			weights = append(weights, w)
		} else {
			weighted = false
		}
	}
	switch {
	case len(vals) == 0:
		return math.NaN(), math.NaN(), nil
	case weighted:
		mean, stderr, _ = robust.WeightedMean(vals, weights)
	case len(vals) == 1:
		mean, stderr = vals[0], math.NaN()
	default:
		mean, stderr = robust.Mean(vals), robust.StdDev(vals)/math.Sqrt(float64(len(vals)))
	}
	if !robust.IsFinite(mean) {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: %d finite samples", ErrBinOverflow, len(vals))
	}
	return mean, stderr, nil
}
