package robust

import "math"

// ClipConfig controls iterative sigma clipping.
type ClipConfig struct {
	// SigmaLower and SigmaUpper bound the accepted deviation below and above
	// the center, in MADStd units. +Inf disables clipping on that side.
	SigmaLower float64
	SigmaUpper float64
	// MaxIters is the number of estimate-and-clip passes. Values < 1 mean 1.
	MaxIters int
}

// ClipMask returns a keep mask for x. keep[i] is false when x[i] deviates
// from the median by more than the configured sigma multiple of MADStd.
// Non-finite values are excluded from the estimates and always kept.
//
// Each pass re-estimates the center and spread on the values kept so far;
// iteration stops early once a pass rejects nothing.
func ClipMask(x []float64, cfg ClipConfig) []bool {
	keep := make([]bool, len(x))
	for i := range keep {
		keep[i] = true
	}

	iters := max(cfg.MaxIters, 1)
	work := make([]float64, 0, len(x))

	for range iters {
		work = work[:0]
		for i, v := range x {
			if keep[i] && IsFinite(v) {
				work = append(work, v)
			}
		}
		if len(work) == 0 {
			break
		}

		center := Median(work)
		spread := MADStd(work)
		lo := center - cfg.SigmaLower*spread
		hi := center + cfg.SigmaUpper*spread
		if math.IsNaN(lo) {
			lo = math.Inf(-1)
		}
		if math.IsNaN(hi) {
			hi = math.Inf(1)
		}

		rejected := 0
		for i, v := range x {
			if !keep[i] || !IsFinite(v) {
				continue
			}
			if v < lo || v > hi {
				keep[i] = false
				rejected++
			}
		}
		if rejected == 0 {
			break
		}
	}

	return keep
}
