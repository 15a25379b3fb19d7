package pixel

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// Frame is one cadence of pixel data. Grids are row-major with the shape of
// the owning [Series].
type Frame struct {
	// Flux in electrons per second.
	Flux []float64
	// FluxErr is the per-pixel 1-sigma uncertainty. Optional.
	FluxErr []float64
	// PixelQuality holds per-pixel flags. Optional.
	PixelQuality []uint32
	// Quality is the cadence-level flag word.
	Quality uint32
}

// Series is a time-ordered stack of frames sharing one grid shape.
type Series struct {
	Rows, Cols int
	Time       []float64
	Frames     []Frame
	// Aperture is the default pipeline aperture. May be zero.
	Aperture Mask
	// Exposure is the effective exposure per cadence in seconds, used for
	// the Poisson error estimate when frames carry no error grid. Zero
	// means 1.
	Exposure float64
}

// Len returns the number of cadences.
func (s Series) Len() int { return len(s.Frames) }

// PipelineMask returns a copy of the default aperture.
func (s Series) PipelineMask() Mask { return s.Aperture.Clone() }

func (s Series) exposure() float64 {
	if s.Exposure > 0 {
		return s.Exposure
	}
	return 1
}

// Validate checks the shape and ordering invariants of s.
func (s Series) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrShapeMismatch, s.Rows, s.Cols)
	}
	if len(s.Frames) == 0 {
		return ErrEmptySeries
	}
	if len(s.Time) != len(s.Frames) {
		return fmt.Errorf("%w: %d timestamps, %d frames", ErrShapeMismatch, len(s.Time), len(s.Frames))
	}
	npix := s.Rows * s.Cols
	for i, f := range s.Frames {
		if len(f.Flux) != npix {
			return fmt.Errorf("%w: frame %d has %d pixels, want %d", ErrShapeMismatch, i, len(f.Flux), npix)
		}
		if f.FluxErr != nil && len(f.FluxErr) != npix {
			return fmt.Errorf("%w: frame %d error grid has %d pixels", ErrShapeMismatch, i, len(f.FluxErr))
		}
		if f.PixelQuality != nil && len(f.PixelQuality) != npix {
			return fmt.Errorf("%w: frame %d quality grid has %d pixels", ErrShapeMismatch, i, len(f.PixelQuality))
		}
	}
	if !s.Aperture.IsZero() {
		if err := s.Aperture.checkShape(s.Rows, s.Cols); err != nil {
			return err
		}
	}
	for i, t := range s.Time {
		if !robust.IsFinite(t) || (i > 0 && t <= s.Time[i-1]) {
			return fmt.Errorf("%w: at index %d", lightcurve.ErrUnsorted, i)
		}
	}
	return nil
}

// Image is a single real-valued grid, such as a representative frame.
type Image struct {
	Rows, Cols int
	Data       []float64
}

// At returns the value of pixel (row, col).
func (im Image) At(row, col int) float64 { return im.Data[row*im.Cols+col] }

// MedianFrame returns the per-pixel median across all cadences, ignoring
// non-finite values. Pixels that are never finite are NaN.
func MedianFrame(s Series) Image {
	return reduceFrames(s, robust.Median)
}

// SumFrame returns the per-pixel sum across all cadences, ignoring
// non-finite values. Pixels that are never finite are NaN.
func SumFrame(s Series) Image {
	return reduceFrames(s, func(x []float64) float64 {
		sum, n := 0.0, 0
		for _, v := range x {
			if robust.IsFinite(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return math.NaN()
		}
		return sum
	})
}

func reduceFrames(s Series, reduce func([]float64) float64) Image {
	npix := s.Rows * s.Cols
	out := Image{Rows: s.Rows, Cols: s.Cols, Data: make([]float64, npix)}
	column := make([]float64, len(s.Frames))
	for p := range npix {
		for i, f := range s.Frames {
			column[i] = f.Flux[p]
		}
		out.Data[p] = reduce(column)
	}
	return out
}
