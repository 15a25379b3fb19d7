package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// DefaultCadence is the TESS two-minute cadence in days.
const DefaultCadence = 2.0 / 1440

// Generator creates deterministic series on a uniform cadence grid.
type Generator struct {
	start   float64
	cadence float64
	seed    int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithCadence sets the sample spacing in days.
func WithCadence(days float64) Option {
	return func(g *Generator) { g.cadence = days }
}

// WithStart sets the first timestamp.
func WithStart(t0 float64) Option {
	return func(g *Generator) { g.start = t0 }
}

// NewGenerator returns a generator starting at time 0 on the two-minute
// cadence with seed 1.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{cadence: DefaultCadence, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Times returns n timestamps start, start+cadence, ...
func (g *Generator) Times(n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("synth: samples must be > 0: %d", n)
	}
	if !(g.cadence > 0) {
		return nil, fmt.Errorf("synth: cadence must be > 0: %f", g.cadence)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = g.start + float64(i)*g.cadence
	}
	return out, nil
}

// GaussianNoise returns n deterministic normal deviates with the given
// standard deviation.
func (g *Generator) GaussianNoise(sigma float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("synth: samples must be > 0: %d", n)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("synth: noise sigma must be >= 0: %f", sigma)
	}
	rng := rand.New(rand.NewSource(g.seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out, nil
}

// Flat returns n cadences at the given level with relative Gaussian noise.
// FluxErr is level*noise for every cadence.
func (g *Generator) Flat(n int, level, noise float64) (lightcurve.TimeSeries, error) {
	tm, err := g.Times(n)
	if err != nil {
		return lightcurve.TimeSeries{}, err
	}
	dev, err := g.GaussianNoise(noise, n)
	if err != nil {
		return lightcurve.TimeSeries{}, err
	}
	flux := make([]float64, n)
	fluxErr := make([]float64, n)
	for i := range flux {
		flux[i] = level * (1 + dev[i])
		fluxErr[i] = level * noise
	}
	return lightcurve.New(tm, flux, fluxErr, nil)
}

// Transit describes a periodic box-shaped dip.
type Transit struct {
	Period   float64
	Epoch    float64
	Duration float64
	// Depth is the fractional flux decrement, 0.01 for 1%.
	Depth float64
}

var errInvalidTransit = errors.New("synth: invalid transit")

// Validate checks that the transit shape is physical.
func (tr Transit) Validate() error {
	switch {
	case !(tr.Period > 0) || math.IsInf(tr.Period, 0):
		return fmt.Errorf("%w: period %v", errInvalidTransit, tr.Period)
	case !(tr.Duration > 0) || tr.Duration >= tr.Period:
		return fmt.Errorf("%w: duration %v for period %v", errInvalidTransit, tr.Duration, tr.Period)
	case !(tr.Depth >= 0) || tr.Depth >= 1:
		return fmt.Errorf("%w: depth %v", errInvalidTransit, tr.Depth)
	case math.IsNaN(tr.Epoch) || math.IsInf(tr.Epoch, 0):
		return fmt.Errorf("%w: epoch %v", errInvalidTransit, tr.Epoch)
	}
	return nil
}

// InTransit reports whether t falls within half a duration of a mid-transit
// time.
func (tr Transit) InTransit(t float64) bool {
	phase := lightcurve.Phase(t, tr.Period, tr.Epoch, lightcurve.PhaseCentered)
	return math.Abs(phase*tr.Period) < tr.Duration/2
}

// InjectTransit returns a copy of ts with flux and error scaled by
// 1-Depth during transit.
func InjectTransit(ts lightcurve.TimeSeries, tr Transit) (lightcurve.TimeSeries, error) {
	if err := tr.Validate(); err != nil {
		return lightcurve.TimeSeries{}, err
	}
	out := ts.Clone()
	for i, t := range out.Time {
		if tr.InTransit(t) {
			out.Flux[i] *= 1 - tr.Depth
			out.FluxErr[i] *= 1 - tr.Depth
		}
	}
	return out, nil
}

// TransitMask returns true for every cadence of ts inside a transit.
func TransitMask(ts lightcurve.TimeSeries, tr Transit) []bool {
	out := make([]bool, ts.Len())
	for i, t := range ts.Time {
		out[i] = tr.InTransit(t)
	}
	return out
}

// AddTrend multiplies ts by 1 + amplitude*sin(2*pi*t/period), a stand-in
// for slow instrumental drifts.
func AddTrend(ts lightcurve.TimeSeries, amplitude, period float64) (lightcurve.TimeSeries, error) {
	if !(period > 0) {
		return lightcurve.TimeSeries{}, fmt.Errorf("synth: trend period must be > 0: %f", period)
	}
	out := ts.Clone()
	for i, t := range out.Time {
		s := 1 + amplitude*math.Sin(2*math.Pi*t/period)
		out.Flux[i] *= s
		out.FluxErr[i] *= s
	}
	return out, nil
}

// AddOutliers adds spike to the flux at the given cadence indices.
func AddOutliers(ts lightcurve.TimeSeries, spike float64, idx ...int) lightcurve.TimeSeries {
	out := ts.Clone()
	for _, i := range idx {
		if i >= 0 && i < out.Len() {
			out.Flux[i] += spike
		}
	}
	return out
}
