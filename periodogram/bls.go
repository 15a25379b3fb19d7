// Package periodogram searches light curves for periodic transits with the
// box least squares (BLS) method.
package periodogram

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// Errors returned by [BLS].
var (
	ErrInvalidRange    = errors.New("periodogram: invalid period range")
	ErrInvalidDuration = errors.New("periodogram: invalid duration")
	ErrInvalidBins     = errors.New("periodogram: invalid phase-bin count")
)

// Defaults used by [BLS].
const (
	DefaultMinPeriod  = 0.5
	DefaultNumPeriods = 5000
	DefaultPhaseBins  = 300
)

// DefaultDurations are the trial transit durations in days.
var DefaultDurations = []float64{0.04, 0.08, 0.12, 0.16}

// Option configures [BLS].
type Option func(*config)

type config struct {
	minPeriod, maxPeriod float64
	numPeriods           int
	durations            []float64
	phaseBins            int
	workers              int
}

// WithPeriodRange sets the searched period interval in days. The default
// maximum is half the time span of the series.
func WithPeriodRange(minPeriod, maxPeriod float64) Option {
	return func(c *config) { c.minPeriod, c.maxPeriod = minPeriod, maxPeriod }
}

// WithNumPeriods sets the number of trial periods. Trials are uniform in
// frequency.
func WithNumPeriods(n int) Option { return func(c *config) { c.numPeriods = n } }

// WithDurations sets the trial transit durations in days.
func WithDurations(d ...float64) Option {
	return func(c *config) { c.durations = append([]float64(nil), d...) }
}

// WithPhaseBins sets the phase resolution of the search.
func WithPhaseBins(n int) Option { return func(c *config) { c.phaseBins = n } }

// WithWorkers evaluates period blocks on up to n goroutines.
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

// Result holds one BLS evaluation per trial period.
type Result struct {
	Period   []float64
	Power    []float64
	Depth    []float64
	Duration []float64
	// Epoch is a mid-transit time of the best box at each period.
	Epoch []float64
}

// Peak is the strongest signal found by the search.
type Peak struct {
	Period, Power, Depth, Duration, Epoch float64
}

// Best returns the trial period with the highest power.
func (r Result) Best() (Peak, bool) {
	if len(r.Power) == 0 {
		return Peak{}, false
	}
	i := floats.MaxIdx(r.Power)
	return Peak{
		Period:   r.Period[i],
		Power:    r.Power[i],
		Depth:    r.Depth[i],
		Duration: r.Duration[i],
		Epoch:    r.Epoch[i],
	}, true
}

// BLS evaluates the box least squares statistic of ts over a grid of trial
// periods and durations.
//
// Flux is weighted by inverse variance when every finite cadence carries a
// positive finite error. For every period the light curve is binned in
// phase and every box of every trial duration is tested; the power is the
// signal residue s²/(r(1-r)) of the best dip, with r the weight fraction in
// transit and s the weighted flux deficit.
func BLS(ctx context.Context, ts lightcurve.TimeSeries, opts ...Option) (Result, error) {
	clean, err := lightcurve.RemoveNaNs(ts)
	if err != nil {
		return Result{}, err
	}
	if clean.Len() == 0 {
		return Result{}, lightcurve.ErrEmptySeries
	}
	first, last := spanOf(clean.Time)

	cfg := config{
		minPeriod:  DefaultMinPeriod,
		maxPeriod:  (last - first) / 2,
		numPeriods: DefaultNumPeriods,
		durations:  DefaultDurations,
		phaseBins:  DefaultPhaseBins,
		workers:    1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	y, w := weights(clean)
	result := Result{
		Period:   periodGrid(cfg.minPeriod, cfg.maxPeriod, cfg.numPeriods),
		Power:    make([]float64, cfg.numPeriods),
		Depth:    make([]float64, cfg.numPeriods),
		Duration: make([]float64, cfg.numPeriods),
		Epoch:    make([]float64, cfg.numPeriods),
	}

	g, ctx := errgroup.WithContext(ctx)
	workers := max(1, min(cfg.workers, cfg.numPeriods))
	chunk := (cfg.numPeriods + workers - 1) / workers
	for from := 0; from < cfg.numPeriods; from += chunk {
		to := min(from+chunk, cfg.numPeriods)
		g.Go(func() error {
			s := newSearcher(clean.Time, y, w, first, cfg)
			for i := from; i < to; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				p := s.evaluate(result.Period[i])
				result.Power[i], result.Depth[i] = p.Power, p.Depth
				result.Duration[i], result.Epoch[i] = p.Duration, p.Epoch
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (c config) validate() error {
	if !(c.minPeriod > 0) || !(c.maxPeriod > c.minPeriod) || math.IsInf(c.maxPeriod, 0) {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, c.minPeriod, c.maxPeriod)
	}
	if c.numPeriods < 1 {
		return fmt.Errorf("%w: %d trial periods", ErrInvalidRange, c.numPeriods)
	}
	if c.phaseBins < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidBins, c.phaseBins)
	}
	if len(c.durations) == 0 {
		return fmt.Errorf("%w: no durations", ErrInvalidDuration)
	}
	for _, d := range c.durations {
		if !(d > 0) || d >= c.minPeriod {
			return fmt.Errorf("%w: %v for minimum period %v", ErrInvalidDuration, d, c.minPeriod)
		}
	}
	return nil
}

func spanOf(t []float64) (first, last float64) {
	return floats.Min(t), floats.Max(t)
}

// periodGrid returns n periods uniform in frequency, from longest to
// shortest.
func periodGrid(minPeriod, maxPeriod float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = minPeriod
		return out
	}
	fmin, fmax := 1/maxPeriod, 1/minPeriod
	df := (fmax - fmin) / float64(n-1)
	for i := range out {
		out[i] = 1 / (fmin + float64(i)*df)
	}
	return out
}

// weights returns mean-subtracted flux and normalized weights.
func weights(ts lightcurve.TimeSeries) (y, w []float64) {
	n := ts.Len()
	w = make([]float64, n)
	weighted := true
	for i, e := range ts.FluxErr {
		if !robust.IsFinite(e) || e <= 0 {
			weighted = false
			break
		}
		w[i] = 1 / (e * e)
	}
	if !weighted {
		for i := range w {
			w[i] = 1
		}
	}
	floats.Scale(1/floats.Sum(w), w)

	mean := stat.Mean(ts.Flux, w)
	y = make([]float64, n)
	for i, f := range ts.Flux {
		y[i] = f - mean
	}
	return y, w
}

type searcher struct {
	t, y, w []float64
	t0      float64
	cfg     config
	binW    []float64
	binY    []float64
}

func newSearcher(t, y, w []float64, t0 float64, cfg config) *searcher {
	return &searcher{
		t: t, y: y, w: w, t0: t0, cfg: cfg,
		binW: make([]float64, cfg.phaseBins),
		binY: make([]float64, cfg.phaseBins),
	}
}

func (s *searcher) evaluate(period float64) Peak {
	nb := s.cfg.phaseBins
	for b := range nb {
		s.binW[b], s.binY[b] = 0, 0
	}
	for i, t := range s.t {
		ph := math.Mod((t-s.t0)/period, 1)
		if ph < 0 {
			ph++
		}
		b := min(int(ph*float64(nb)), nb-1)
		s.binW[b] += s.w[i]
		s.binY[b] += s.w[i] * s.y[i]
	}

	best := Peak{Period: period, Epoch: math.NaN(), Depth: math.NaN(), Duration: math.NaN()}
	for _, d := range s.cfg.durations {
		k := max(1, int(math.Round(d/period*float64(nb))))
		if k >= nb {
			continue
		}
		var r, sy float64
		for j := range k {
			r += s.binW[j]
			sy += s.binY[j]
		}
		for start := range nb {
			if start > 0 {
				out, in := start-1, (start+k-1)%nb
				r += s.binW[in] - s.binW[out]
				sy += s.binY[in] - s.binY[out]
			}
			if sy >= 0 || r <= 0 || r >= 1 {
				continue
			}
			power := sy * sy / (r * (1 - r))
			if power > best.Power {
				best.Power = power
				best.Depth = -sy / (r * (1 - r))
				best.Duration = d
				best.Epoch = s.t0 + (float64(start)+float64(k)/2)*period/float64(nb)
			}
		}
	}
	return best
}
