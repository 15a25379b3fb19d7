// Package pipeline chains the photometry stages into one configurable run:
// aperture, extraction, detrending, quality filtering, outlier rejection,
// folding and binning.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-lightcurve/config"
	"github.com/cwbudde/algo-lightcurve/detrend"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/logging"
	"github.com/cwbudde/algo-lightcurve/pixel"
)

// Result holds every intermediate product of a run.
type Result struct {
	Aperture pixel.Mask
	// Raw is the extracted aperture flux.
	Raw lightcurve.TimeSeries
	// Trend is the fitted Savitzky–Golay trend, or the median flux when
	// flattening is disabled.
	Trend lightcurve.TimeSeries
	Flat  lightcurve.TimeSeries
	// Clean is Flat after quality filtering and outlier rejection.
	Clean lightcurve.TimeSeries
	// Folded and Binned are nil unless a period is configured.
	Folded *lightcurve.FoldedSeries
	Binned *lightcurve.BinnedSeries
	// CDPP is the noise estimate of Clean in ppm, NaN when disabled.
	CDPP float64
}

// Pipeline runs the configured chain on pixel or light-curve input.
type Pipeline struct {
	cfg         config.Config
	log         logging.Logger
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithConcurrency bounds the number of series [Pipeline.RunBatch]
// processes at once. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// New validates cfg and returns a pipeline.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p := &Pipeline{cfg: cfg, log: logging.Noop{}}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// ConsoleLogger returns a human-readable stderr logger at the level named
// by cfg.LogLevel.
func ConsoleLogger(cfg config.Config) (logging.Logger, error) {
	log, err := logging.NewConsole(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return log, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config { return p.cfg }

// Aperture chooses the photometric aperture for s.
func (p *Pipeline) Aperture(s pixel.Series) (pixel.Mask, error) {
	if p.cfg.Aperture.UsePipelineMask {
		m := s.PipelineMask()
		if m.IsZero() || m.Count() == 0 {
			return pixel.Mask{}, pixel.ErrEmptyMask
		}
		return m, nil
	}
	return pixel.ThresholdMask(pixel.MedianFrame(s), p.cfg.Aperture.Threshold, maskOptions(p.cfg.Aperture)...)
}

// Run processes one pixel series end to end.
func (p *Pipeline) Run(s pixel.Series) (Result, error) {
	return p.run(p.log, s)
}

func (p *Pipeline) run(log logging.Logger, s pixel.Series) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, &StageError{Stage: "validate", Err: err}
	}

	start := time.Now()
	aperture, err := p.Aperture(s)
	if err != nil {
		return Result{}, &StageError{Stage: "aperture", Err: err}
	}
	log.Debug("aperture selected",
		logging.Int("pixels", aperture.Count()),
		logging.Bool("pipeline_mask", p.cfg.Aperture.UsePipelineMask),
		logging.Duration("elapsed", time.Since(start)),
	)

	var extractOpts []pixel.ExtractOption
	if p.cfg.Aperture.SubtractBackground {
		extractOpts = append(extractOpts, pixel.WithBackground(aperture.Invert()))
	}
	start = time.Now()
	raw, err := pixel.Extract(s, aperture, extractOpts...)
	if err != nil {
		return Result{}, &StageError{Stage: "extract", Err: err}
	}
	log.Debug("photometry extracted",
		logging.Int("cadences", raw.Len()),
		logging.Int("valid", raw.ValidCount()),
		logging.Duration("elapsed", time.Since(start)),
	)

	res, err := p.runLightCurve(log, raw)
	if err != nil {
		return Result{}, err
	}
	res.Aperture = aperture
	return res, nil
}

// RunLightCurve processes an already extracted light curve, starting at
// the detrender.
func (p *Pipeline) RunLightCurve(raw lightcurve.TimeSeries) (Result, error) {
	return p.runLightCurve(p.log, raw)
}

func (p *Pipeline) runLightCurve(log logging.Logger, raw lightcurve.TimeSeries) (Result, error) {
	res := Result{Raw: raw, CDPP: math.NaN()}

	b := NewBuilder().Observe(func(stage string, out lightcurve.TimeSeries, elapsed time.Duration) {
		log.Debug("stage complete",
			logging.String("stage", stage),
			logging.Int("cadences", out.Len()),
			logging.Duration("elapsed", elapsed),
		)
	})

	if p.cfg.Flatten.Enabled {
		opts, err := flattenOptions(p.cfg.Flatten, fitMask(raw, p.cfg))
		if err != nil {
			return Result{}, &StageError{Stage: "flatten", Err: err}
		}
		b.Then("flatten", func(ts lightcurve.TimeSeries) (lightcurve.TimeSeries, error) {
			flat, trend, err := detrend.Flatten(ts, opts...)
			res.Flat, res.Trend = flat, trend
			return flat, err
		})
	} else {
		b.Then("normalize", func(ts lightcurve.TimeSeries) (lightcurve.TimeSeries, error) {
			flat, err := lightcurve.Normalize(ts)
			if err != nil {
				return lightcurve.TimeSeries{}, err
			}
			res.Flat, res.Trend = flat, medianTrend(ts, flat)
			return flat, nil
		})
	}

	b.Filter(qualityPredicate(p.cfg.Quality))
	if o := p.cfg.Outliers; o.Enabled {
		b.RemoveOutliers(o.Sigma,
			lightcurve.WithDirection(direction(o.Direction)),
			lightcurve.WithMaxIters(o.MaxIters),
		)
	}

	clean, err := b.Run(raw)
	if err != nil {
		log.Warn("pipeline aborted", logging.Err(err))
		return Result{}, err
	}
	res.Clean = clean

	if c := p.cfg.CDPP; c.Enabled {
		cdpp, err := detrend.CDPP(clean, detrend.CDPPConfig{
			TransitDuration: c.TransitDuration,
			Window:          c.Window,
			PolyOrder:       c.PolyOrder,
			Sigma:           c.Sigma,
		})
		if err != nil {
			log.Warn("pipeline aborted", logging.String("stage", "cdpp"), logging.Err(err))
			return Result{}, &StageError{Stage: "cdpp", Err: err}
		}
		res.CDPP = cdpp
	}

	if f := p.cfg.Fold; f.Period > 0 {
		folded, err := lightcurve.Fold(clean, f.Period, f.Epoch)
		if err != nil {
			return Result{}, &StageError{Stage: "fold", Err: err}
		}
		res.Folded = &folded

		if folded.Len() > 0 {
			binOpts := []lightcurve.BinOption{lightcurve.WithWorkers(p.cfg.Bin.Workers)}
			if p.cfg.Bin.FillEmpty {
				binOpts = append(binOpts, lightcurve.WithFillEmpty())
			}
			binned, err := lightcurve.BinFolded(folded, p.cfg.Bin.Width, binOpts...)
			if err != nil {
				return Result{}, &StageError{Stage: "bin", Err: err}
			}
			res.Binned = &binned
		}
	}

	log.Info("light curve processed",
		logging.Int("raw", raw.Len()),
		logging.Int("clean", clean.Len()),
		logging.Float64("cdpp_ppm", res.CDPP),
		logging.Bool("folded", res.Folded != nil),
	)
	return res, nil
}

// medianTrend expresses normalisation as a constant trend.
func medianTrend(raw, flat lightcurve.TimeSeries) lightcurve.TimeSeries {
	trend := raw.Clone()
	for i := range trend.Flux {
		trend.Flux[i] = raw.Flux[i] / flat.Flux[i]
		trend.FluxErr[i] = math.NaN()
	}
	return trend
}

// RunBatch processes independent series concurrently. Results are aligned
// with the input; the first failure cancels the remaining work.
func (p *Pipeline) RunBatch(ctx context.Context, series []pixel.Series) ([]Result, error) {
	results := make([]Result, len(series))
	g, ctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, s := range series {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			log := p.log.With(logging.Int("series", i))
			res, err := p.run(log, s)
			if err != nil {
				return fmt.Errorf("series %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
