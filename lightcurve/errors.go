package lightcurve

import "errors"

// Errors returned by time-series stages.
var (
	ErrEmptySeries     = errors.New("lightcurve: empty series")
	ErrLengthMismatch  = errors.New("lightcurve: slice length mismatch")
	ErrUnsorted        = errors.New("lightcurve: time axis not strictly increasing")
	ErrInvalidPeriod   = errors.New("lightcurve: invalid period")
	ErrInvalidBinWidth = errors.New("lightcurve: invalid bin width")
	ErrInvalidSigma    = errors.New("lightcurve: invalid sigma")
	ErrBinOverflow     = errors.New("lightcurve: bin aggregate overflowed")
	ErrNotNormalizable = errors.New("lightcurve: median flux is not positive")
)
