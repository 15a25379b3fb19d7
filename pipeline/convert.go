package pipeline

import (
	"math"

	"github.com/cwbudde/algo-lightcurve/config"
	"github.com/cwbudde/algo-lightcurve/detrend"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/pixel"
)

func bitmask(name string) uint32 {
	switch name {
	case config.BitmaskDefault:
		return lightcurve.DefaultBitmask
	case config.BitmaskHard:
		return lightcurve.HardBitmask
	case config.BitmaskHardest:
		return lightcurve.HardestBitmask
	}
	return 0
}

func direction(name string) lightcurve.Direction {
	switch name {
	case "upper":
		return lightcurve.Upper
	case "lower":
		return lightcurve.Lower
	}
	return lightcurve.Both
}

func flattenOptions(c config.FlattenConfig, mask []bool) ([]detrend.Option, error) {
	edge, err := detrend.ParseEdge(c.Edge)
	if err != nil {
		return nil, err
	}
	opts := []detrend.Option{
		detrend.WithWindow(c.Window),
		detrend.WithPolyOrder(c.PolyOrder),
		detrend.WithEdge(edge),
		detrend.WithBreakTolerance(c.BreakTolerance),
		detrend.WithIterations(c.Iterations),
		detrend.WithSigma(c.Sigma),
	}
	if mask != nil {
		opts = append(opts, detrend.WithMask(mask))
	}
	return opts, nil
}

// qualityPredicate keeps finite cadences with clear quality bits outside
// every excluded range.
func qualityPredicate(c config.QualityConfig) lightcurve.Predicate {
	preds := []lightcurve.Predicate{lightcurve.Finite(), lightcurve.QualityClear(bitmask(c.Bitmask))}
	for _, r := range c.Exclude {
		preds = append(preds, lightcurve.TimeOutside(r.Start, r.End))
	}
	return lightcurve.And(preds...)
}

// fitMask marks cadences kept out of the trend fit: flagged cadences and,
// when requested, the configured transits.
func fitMask(ts lightcurve.TimeSeries, cfg config.Config) []bool {
	bits := bitmask(cfg.Quality.Bitmask)
	maskTransits := cfg.Flatten.MaskTransits && cfg.Fold.Period > 0 && cfg.Fold.Duration > 0

	mask := make([]bool, ts.Len())
	masked := false
	for i := range mask {
		mask[i] = ts.Quality[i]&bits != 0
		if maskTransits {
			ph := lightcurve.Phase(ts.Time[i], cfg.Fold.Period, cfg.Fold.Epoch, lightcurve.PhaseCentered)
			if math.Abs(ph*cfg.Fold.Period) < cfg.Fold.Duration/2 {
				mask[i] = true
			}
		}
		masked = masked || mask[i]
	}
	if !masked {
		return nil
	}
	return mask
}

func maskOptions(c config.ApertureConfig) []pixel.MaskOption {
	if c.AllRegions {
		return []pixel.MaskOption{pixel.WithAllRegions()}
	}
	return nil
}
