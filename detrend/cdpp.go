package detrend

import (
	"fmt"

	"github.com/cwbudde/algo-lightcurve/internal/fftconv"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// CDPPConfig parameterises [CDPP].
type CDPPConfig struct {
	// TransitDuration is the running-mean length in cadences.
	TransitDuration int
	// Window and PolyOrder configure the flattening filter.
	Window    int
	PolyOrder int
	// Sigma is the outlier threshold applied after flattening.
	Sigma float64
}

// DefaultCDPPConfig returns the 13-cadence, 101-cadence window setup.
func DefaultCDPPConfig() CDPPConfig {
	return CDPPConfig{TransitDuration: 13, Window: 101, PolyOrder: 2, Sigma: 5}
}

// CDPP estimates the combined differential photometric precision of ts in
// parts per million.
//
// The series is flattened, sigma clipped, smoothed with a running mean over
// TransitDuration cadences, and the standard deviation of that running mean
// is returned.
func CDPP(ts lightcurve.TimeSeries, cfg CDPPConfig) (float64, error) {
	if cfg.TransitDuration <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDuration, cfg.TransitDuration)
	}
	clean, err := lightcurve.RemoveNaNs(ts)
	if err != nil {
		return 0, err
	}
	if clean.Len() == 0 {
		return 0, lightcurve.ErrEmptySeries
	}

	flat, _, err := Flatten(clean, WithWindow(cfg.Window), WithPolyOrder(cfg.PolyOrder))
	if err != nil {
		return 0, err
	}
	flat, err = lightcurve.RemoveOutliers(flat, cfg.Sigma)
	if err != nil {
		return 0, err
	}
	if flat.Len() < cfg.TransitDuration {
		return 0, fmt.Errorf("%w: %d cadences left for duration %d", ErrInvalidDuration, flat.Len(), cfg.TransitDuration)
	}

	box := make([]float64, cfg.TransitDuration)
	for i := range box {
		box[i] = 1 / float64(cfg.TransitDuration)
	}
	mean, err := fftconv.Valid(flat.Flux, box)
	if err != nil {
		return 0, err
	}
	return robust.StdDev(mean) * 1e6, nil
}
