package detrend

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// Defaults used by [Flatten].
const (
	DefaultWindow         = 1001
	DefaultPolyOrder      = 2
	DefaultBreakTolerance = 5.0
	DefaultIterations     = 3
	DefaultSigma          = 3.0
)

// Option configures [Flatten].
type Option func(*config)

type config struct {
	window         int
	polyorder      int
	edge           Edge
	breakTolerance float64
	iterations     int
	sigma          float64
	mask           []bool
}

func defaultConfig() config {
	return config{
		window:         DefaultWindow,
		polyorder:      DefaultPolyOrder,
		edge:           EdgeMirror,
		breakTolerance: DefaultBreakTolerance,
		iterations:     DefaultIterations,
		sigma:          DefaultSigma,
	}
}

// WithWindow sets the filter length in cadences. It must be odd.
func WithWindow(n int) Option { return func(c *config) { c.window = n } }

// WithPolyOrder sets the order of the local polynomial.
func WithPolyOrder(n int) Option { return func(c *config) { c.polyorder = n } }

// WithEdge sets the edge policy of the filter.
func WithEdge(e Edge) Option { return func(c *config) { c.edge = e } }

// WithBreakTolerance splits the series where consecutive timestamps are
// further apart than tol times the median cadence. Zero or less disables
// splitting.
func WithBreakTolerance(tol float64) Option { return func(c *config) { c.breakTolerance = tol } }

// WithIterations sets the number of fit passes. Between passes, residual
// outliers are excluded from the next fit.
func WithIterations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// WithSigma sets the residual clipping threshold between passes.
func WithSigma(s float64) Option { return func(c *config) { c.sigma = s } }

// WithMask excludes cadences where mask is true from the trend fit, for
// example known transits. The trend is interpolated across them.
func WithMask(mask []bool) Option { return func(c *config) { c.mask = mask } }

// Flatten divides ts by a Savitzky–Golay trend and returns the flattened
// series and the trend itself.
//
// Non-finite and masked cadences do not enter the fit; the trend is
// linearly interpolated onto them in time. Segments shorter than the
// window use the largest odd window that fits, and segments too short for
// the polynomial use their mean. Flux error is divided by the same trend.
func Flatten(ts lightcurve.TimeSeries, opts ...Option) (flat, trend lightcurve.TimeSeries, err error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := ts.Len()
	if n == 0 {
		return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, lightcurve.ErrEmptySeries
	}
	if err := ts.Validate(); err != nil {
		return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, err
	}
	if !ts.IsSorted() {
		return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, lightcurve.ErrUnsorted
	}
	if err := checkWindow(cfg.window, cfg.polyorder, n); err != nil {
		return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, err
	}
	if !isValidSigma(cfg.sigma) {
		return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, fmt.Errorf("%w: %v", ErrInvalidSigma, cfg.sigma)
	}
	if cfg.mask != nil && len(cfg.mask) != n {
		return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, fmt.Errorf("%w: mask %d, series %d",
			lightcurve.ErrLengthMismatch, len(cfg.mask), n)
	}

	include := make([]bool, n)
	for i, f := range ts.Flux {
		include[i] = robust.IsFinite(f) && (cfg.mask == nil || !cfg.mask[i])
	}

	segments := splitSegments(ts.Time, cfg.breakTolerance)
	tr := make([]float64, n)

	for pass := range cfg.iterations {
		for _, seg := range segments {
			if err := fitSegment(tr, ts.Time, ts.Flux, include, seg, cfg); err != nil {
				return lightcurve.TimeSeries{}, lightcurve.TimeSeries{}, err
			}
		}
		if pass == cfg.iterations-1 || !clipResiduals(include, ts.Flux, tr, cfg.sigma) {
			break
		}
	}

	inv := make([]float64, n)
	for i, v := range tr {
		inv[i] = 1 / v
	}
	flat = ts.Clone()
	vecmath.MulBlock(flat.Flux, ts.Flux, inv)
	vecmath.MulBlock(flat.FluxErr, ts.FluxErr, inv)

	trend = ts.Clone()
	copy(trend.Flux, tr)
	for i := range trend.FluxErr {
		trend.FluxErr[i] = math.NaN()
	}
	return flat, trend, nil
}

type segment struct{ start, end int }

// splitSegments cuts the time axis where a gap exceeds tol median cadences.
func splitSegments(t []float64, tol float64) []segment {
	if len(t) < 2 || !(tol > 0) {
		return []segment{{0, len(t)}}
	}
	dt := make([]float64, len(t)-1)
	for i := range dt {
		dt[i] = t[i+1] - t[i]
	}
	limit := tol * robust.Median(dt)

	var out []segment
	start := 0
	for i, d := range dt {
		if d > limit {
			out = append(out, segment{start, i + 1})
			start = i + 1
		}
	}
	return append(out, segment{start, len(t)})
}

// fitSegment writes the trend of one segment into tr.
func fitSegment(tr, t, flux []float64, include []bool, seg segment, cfg config) error {
	var xs, ys []float64
	for i := seg.start; i < seg.end; i++ {
		if include[i] {
			xs = append(xs, t[i])
			ys = append(ys, flux[i])
		}
	}
	if len(ys) == 0 {
		for i := seg.start; i < seg.end; i++ {
			tr[i] = math.NaN()
		}
		return nil
	}

	var smooth []float64
	w := largestOddWindow(cfg.window, len(ys))
	if w <= cfg.polyorder+1 {
		m := robust.Mean(ys)
		smooth = make([]float64, len(ys))
		for i := range smooth {
			smooth[i] = m
		}
	} else {
		s, err := Smooth(ys, w, cfg.polyorder, cfg.edge)
		if err != nil {
			return err
		}
		smooth = s
	}

	for i := seg.start; i < seg.end; i++ {
		tr[i] = interpolate(xs, smooth, t[i])
	}
	return nil
}

// interpolate evaluates the piecewise linear function through (xs, ys) at
// x, holding the end values outside the sampled range.
func interpolate(xs, ys []float64, x float64) float64 {
	j := sort.SearchFloat64s(xs, x)
	switch {
	case j < len(xs) && xs[j] == x:
		return ys[j]
	case j == 0:
		return ys[0]
	case j == len(xs):
		return ys[len(ys)-1]
	}
	f := (x - xs[j-1]) / (xs[j] - xs[j-1])
	return ys[j-1] + f*(ys[j]-ys[j-1])
}

// clipResiduals excludes included cadences whose residual from the trend is
// beyond sigma robust standard deviations. It reports whether any cadence
// was newly excluded.
func clipResiduals(include []bool, flux, tr []float64, sigma float64) bool {
	resid := make([]float64, len(flux))
	for i := range resid {
		resid[i] = math.NaN()
		if include[i] {
			resid[i] = flux[i] - tr[i]
		}
	}
	if !(robust.MADStd(resid) > 0) {
		return false
	}
	keep := robust.ClipMask(resid, robust.ClipConfig{SigmaLower: sigma, SigmaUpper: sigma, MaxIters: 1})
	changed := false
	for i, k := range keep {
		if include[i] && !k {
			include[i] = false
			changed = true
		}
	}
	return changed
}
