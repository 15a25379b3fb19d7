package lightcurve

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultOutlierSigma is the rejection threshold used by the pipeline.
const DefaultOutlierSigma = 6.0

// Direction selects which side of the median is clipped.
type Direction int

const (
	// Both clips high and low outliers.
	Both Direction = iota
	// Upper clips only samples above the median.
	Upper
	// Lower clips only samples below the median.
	Lower
)

// OutlierOption configures [RemoveOutliers] and [OutlierMask].
type OutlierOption func(*outlierConfig)

type outlierConfig struct {
	direction Direction
	maxIters  int
}

// WithDirection limits clipping to one side of the median.
func WithDirection(d Direction) OutlierOption {
	return func(c *outlierConfig) { c.direction = d }
}

// WithMaxIters re-estimates median and spread on the surviving samples up
// to n times. The default is a single pass.
func WithMaxIters(n int) OutlierOption {
	return func(c *outlierConfig) {
		if n > 0 {
			c.maxIters = n
		}
	}
}

// OutlierMask returns a mask that is true for cadences whose flux deviates
// from the median by more than sigma times the MAD-based standard deviation.
// NaN cadences are never flagged.
func OutlierMask(ts TimeSeries, sigma float64, opts ...OutlierOption) ([]bool, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSigma, sigma)
	}
	cfg := outlierConfig{direction: Both, maxIters: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	clip := robust.ClipConfig{SigmaLower: sigma, SigmaUpper: sigma, MaxIters: cfg.maxIters}
	switch cfg.direction {
	case Upper:
		clip.SigmaLower = math.Inf(1)
	case Lower:
		clip.SigmaUpper = math.Inf(1)
	}

	keep := robust.ClipMask(ts.Flux, clip)
	out := make([]bool, len(keep))
	for i, k := range keep {
		out[i] = !k
	}
	return out, nil
}

// RemoveOutliers drops the cadences flagged by [OutlierMask]. It never
// lengthens the series; NaN cadences pass through.
func RemoveOutliers(ts TimeSeries, sigma float64, opts ...OutlierOption) (TimeSeries, error) {
	outliers, err := OutlierMask(ts, sigma, opts...)
	if err != nil {
		return TimeSeries{}, err
	}
	keep := make([]bool, len(outliers))
	for i, o := range outliers {
		keep[i] = !o
	}
	return Select(ts, keep)
}
