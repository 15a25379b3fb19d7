package pixel

import "errors"

// Errors returned by mask construction and photometry.
var (
	ErrEmptyMask        = errors.New("pixel: aperture mask selects no pixels")
	ErrShapeMismatch    = errors.New("pixel: shape mismatch")
	ErrEmptySeries      = errors.New("pixel: series has no frames")
	ErrInvalidThreshold = errors.New("pixel: invalid threshold")
)
