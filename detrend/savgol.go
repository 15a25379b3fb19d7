package detrend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-lightcurve/internal/fftconv"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// Edge selects how [Smooth] handles the first and last window/2 samples.
type Edge int

const (
	// EdgeMirror reflects the signal about its end samples, excluding the
	// end sample itself, and filters the extended signal.
	EdgeMirror Edge = iota
	// EdgeInterp fits one polynomial of the filter order to the first and
	// last full window and evaluates it at the edge positions.
	EdgeInterp
)

func (e Edge) String() string {
	switch e {
	case EdgeMirror:
		return "mirror"
	case EdgeInterp:
		return "interp"
	default:
		return fmt.Sprintf("Edge(%d)", int(e))
	}
}

// ParseEdge maps "mirror" or "interp" to an [Edge].
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "", "mirror":
		return EdgeMirror, nil
	case "interp":
		return EdgeInterp, nil
	default:
		return 0, fmt.Errorf("detrend: unknown edge mode %q", s)
	}
}

func checkWindow(window, polyorder, n int) error {
	if polyorder < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPolyOrder, polyorder)
	}
	switch {
	case window <= 0:
		return fmt.Errorf("%w: %d is not positive", ErrInvalidWindow, window)
	case window%2 == 0:
		return fmt.Errorf("%w: %d is even", ErrInvalidWindow, window)
	case window <= polyorder+1:
		return fmt.Errorf("%w: %d must exceed polyorder+1 = %d", ErrInvalidWindow, window, polyorder+1)
	case window > n:
		return fmt.Errorf("%w: %d exceeds series length %d", ErrInvalidWindow, window, n)
	}
	return nil
}

// Coefficients returns the Savitzky–Golay smoothing coefficients for an odd
// window and polynomial order. Coefficient k applies to the sample at
// offset k - window/2 from the output position.
//
// The coefficients are the first row of the least-squares projection onto
// polynomials of the given order: c = A (AᵀA)⁻¹ e₀ with A the Vandermonde
// matrix of the window positions.
func Coefficients(window, polyorder int) ([]float64, error) {
	if err := checkWindow(window, polyorder, window); err != nil {
		return nil, err
	}
	a := vandermonde(window, polyorder)

	var ata mat.Dense
	ata.Mul(a.T(), a)
	e0 := mat.NewVecDense(polyorder+1, nil)
	e0.SetVec(0, 1)

	var z mat.VecDense
	if err := z.SolveVec(&ata, e0); err != nil {
		return nil, fmt.Errorf("detrend: singular design for window %d, order %d: %w", window, polyorder, err)
	}
	var c mat.VecDense
	c.MulVec(a, &z)
	return mat.Col(nil, 0, &c), nil
}

// vandermonde returns the window x (polyorder+1) design matrix over the
// positions -1..1. Scaling the positions leaves the projection unchanged
// and keeps AᵀA well conditioned for long windows.
func vandermonde(window, polyorder int) *mat.Dense {
	half := window / 2
	a := mat.NewDense(window, polyorder+1, nil)
	for k := range window {
		x := 0.0
		if half > 0 {
			x = float64(k-half) / float64(half)
		}
		v := 1.0
		for j := 0; j <= polyorder; j++ {
			a.Set(k, j, v)
			v *= x
		}
	}
	return a
}

// Smooth applies a Savitzky–Golay filter to uniformly sampled values and
// returns a slice of the same length. Non-finite inputs propagate.
func Smooth(values []float64, window, polyorder int, edge Edge) ([]float64, error) {
	if len(values) == 0 {
		return nil, lightcurve.ErrEmptySeries
	}
	if err := checkWindow(window, polyorder, len(values)); err != nil {
		return nil, err
	}
	coeffs, err := Coefficients(window, polyorder)
	if err != nil {
		return nil, err
	}

	n, half := len(values), window/2
	padded := make([]float64, n+2*half)
	copy(padded[half:], values)
	for i := 1; i <= half; i++ {
		padded[half-i] = values[min(i, n-1)]
		padded[half+n-1+i] = values[max(n-1-i, 0)]
	}

	kernel := make([]float64, window)
	for i, c := range coeffs {
		kernel[window-1-i] = c
	}
	out, err := fftconv.Valid(padded, kernel)
	if err != nil {
		return nil, err
	}

	if edge == EdgeInterp && half > 0 {
		if err := fitEdges(out, values, window, polyorder); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fitEdges overwrites the first and last window/2 outputs with a least
// squares polynomial fitted to the first and last window of values.
func fitEdges(out, values []float64, window, polyorder int) error {
	n, half := len(values), window/2
	a := vandermonde(window, polyorder)

	fit := func(segment []float64) (*mat.VecDense, error) {
		var beta mat.VecDense
		if err := beta.SolveVec(a, mat.NewVecDense(window, append([]float64(nil), segment...))); err != nil {
			return nil, fmt.Errorf("detrend: edge fit: %w", err)
		}
		return &beta, nil
	}
	eval := func(beta *mat.VecDense, k int) float64 {
		x := float64(k-half) / float64(half)
		y, v := 0.0, 1.0
		for j := 0; j <= polyorder; j++ {
			y += beta.AtVec(j) * v
			v *= x
		}
		return y
	}

	head, err := fit(values[:window])
	if err != nil {
		return err
	}
	tail, err := fit(values[n-window:])
	if err != nil {
		return err
	}
	for k := range half {
		out[k] = eval(head, k)
		out[n-half+k] = eval(tail, window-half+k)
	}
	return nil
}

// largestOddWindow returns the largest odd window ≤ min(window, n).
func largestOddWindow(window, n int) int {
	w := min(window, n)
	if w%2 == 0 {
		w--
	}
	return w
}

func isValidSigma(s float64) bool { return s > 0 && !math.IsInf(s, 0) }
