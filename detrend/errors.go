package detrend

import "errors"

// Errors returned by the detrender.
var (
	ErrInvalidWindow    = errors.New("detrend: invalid window length")
	ErrInvalidPolyOrder = errors.New("detrend: invalid polynomial order")
	ErrInvalidSigma     = errors.New("detrend: invalid sigma")
	ErrInvalidDuration  = errors.New("detrend: invalid transit duration")
)
