package pixel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// ExtractOption configures [Extract].
type ExtractOption func(*extractConfig)

type extractConfig struct {
	background Mask
}

// WithBackground subtracts the per-cadence median of the pixels selected by
// bg, scaled by the number of aperture pixels summed.
func WithBackground(bg Mask) ExtractOption {
	return func(c *extractConfig) { c.background = bg }
}

// Extract performs simple aperture photometry.
//
// For every frame the flux of the finite aperture pixels is summed. The
// error is sqrt(sum err^2) when the frame carries an error grid and the
// Poisson estimate sqrt(sum max(f, 0) / exposure) otherwise. A frame whose
// aperture pixels are all non-finite yields a NaN cadence; it is kept so the
// output stays aligned with the input time axis. Cadence quality is the
// frame flag OR-ed with the flags of the aperture pixels.
func Extract(s Series, aperture Mask, opts ...ExtractOption) (lightcurve.TimeSeries, error) {
	if err := s.Validate(); err != nil {
		return lightcurve.TimeSeries{}, err
	}
	if err := aperture.checkShape(s.Rows, s.Cols); err != nil {
		return lightcurve.TimeSeries{}, err
	}
	if aperture.Count() == 0 {
		return lightcurve.TimeSeries{}, ErrEmptyMask
	}
	var cfg extractConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var background []float64
	if !cfg.background.IsZero() {
		bg, err := EstimateBackground(s, cfg.background)
		if err != nil {
			return lightcurve.TimeSeries{}, fmt.Errorf("pixel: background: %w", err)
		}
		background = bg
	}

	n := s.Len()
	flux := make([]float64, n)
	fluxErr := make([]float64, n)
	quality := make([]uint32, n)
	exposure := s.exposure()

	for i, f := range s.Frames {
		q := f.Quality
		sum, variance, poisson, npix := 0.0, 0.0, 0.0, 0
		for p, sel := range aperture.Pix {
			if !sel {
				continue
			}
			if f.PixelQuality != nil {
				q |= f.PixelQuality[p]
			}
			v := f.Flux[p]
			if !robust.IsFinite(v) {
				continue
			}
			npix++
			sum += v
			poisson += math.Max(v, 0)
			if f.FluxErr != nil && robust.IsFinite(f.FluxErr[p]) {
				variance += f.FluxErr[p] * f.FluxErr[p]
			}
		}
		quality[i] = q
		if npix == 0 {
			flux[i], fluxErr[i] = math.NaN(), math.NaN()
			continue
		}
		if background != nil {
			sum -= background[i] * float64(npix)
		}
		flux[i] = sum
		if f.FluxErr != nil {
			fluxErr[i] = math.Sqrt(variance)
		} else {
			fluxErr[i] = math.Sqrt(poisson / exposure)
		}
	}

	return lightcurve.New(s.Time, flux, fluxErr, quality)
}

// EstimateBackground returns, for every cadence, the median flux of the
// finite pixels selected by bg. Cadences without a finite background pixel
// are NaN.
func EstimateBackground(s Series, bg Mask) ([]float64, error) {
	if err := bg.checkShape(s.Rows, s.Cols); err != nil {
		return nil, err
	}
	if bg.Count() == 0 {
		return nil, ErrEmptyMask
	}
	out := make([]float64, s.Len())
	work := make([]float64, 0, bg.Count())
	for i, f := range s.Frames {
		work = work[:0]
		for p, sel := range bg.Pix {
			if sel {
				work = append(work, f.Flux[p])
			}
		}
		out[i] = robust.Median(work)
	}
	return out, nil
}

// Centroids returns the flux-weighted mean row and column of the aperture
// pixels for every cadence. Cadences with non-positive total flux are NaN.
func Centroids(s Series, aperture Mask) (rows, cols []float64, err error) {
	if err := aperture.checkShape(s.Rows, s.Cols); err != nil {
		return nil, nil, err
	}
	if aperture.Count() == 0 {
		return nil, nil, ErrEmptyMask
	}

	n := aperture.Count()
	w := make([]float64, 0, n)
	pr := make([]float64, 0, n)
	pc := make([]float64, 0, n)
	rows = make([]float64, s.Len())
	cols = make([]float64, s.Len())

	for i, f := range s.Frames {
		w, pr, pc = w[:0], pr[:0], pc[:0]
		for p, sel := range aperture.Pix {
			if !sel || !robust.IsFinite(f.Flux[p]) {
				continue
			}
			w = append(w, f.Flux[p])
			pr = append(pr, float64(p/s.Cols))
			pc = append(pc, float64(p%s.Cols))
		}
		total := floats.Sum(w)
		if len(w) == 0 || !(total > 0) {
			rows[i], cols[i] = math.NaN(), math.NaN()
			continue
		}
		rows[i] = floats.Dot(w, pr) / total
		cols[i] = floats.Dot(w, pc) / total
	}
	return rows, cols, nil
}
