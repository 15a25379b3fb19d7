package lightcurve

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// Normalize divides flux and flux error by the median finite flux, so the
// result is centred on 1.
func Normalize(ts TimeSeries) (TimeSeries, error) {
	if ts.Len() == 0 {
		return TimeSeries{}, ErrEmptySeries
	}
	if err := ts.Validate(); err != nil {
		return TimeSeries{}, err
	}
	med := robust.Median(ts.Flux)
	if !(med > 0) {
		return TimeSeries{}, fmt.Errorf("%w: %v", ErrNotNormalizable, med)
	}
	out := ts.Clone()
	vecmath.ScaleBlock(out.Flux, ts.Flux, 1/med)
	vecmath.ScaleBlock(out.FluxErr, ts.FluxErr, 1/med)
	return out, nil
}
