package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-lightcurve/pixel"
)

// Star is a circular Gaussian point spread function on the pixel grid.
type Star struct {
	Row, Col float64
	// Peak is the central pixel flux in e/s at relative brightness 1.
	Peak float64
	// Width is the PSF standard deviation in pixels.
	Width float64
}

func (s Star) at(r, c int) float64 {
	dr, dc := float64(r)-s.Row, float64(c)-s.Col
	return s.Peak * math.Exp(-(dr*dr+dc*dc)/(2*s.Width*s.Width))
}

// Scene describes a target pixel stamp.
type Scene struct {
	Rows, Cols int
	Stars      []Star
	// Background is the flat sky level in e/s per pixel.
	Background float64
	// Noise is the per-pixel 1-sigma noise in e/s.
	Noise float64
	// Exposure in seconds per cadence.
	Exposure float64
}

// Pixels renders the scene once per cadence. The first star is the target;
// its brightness follows relFlux, the others stay constant. The default
// aperture covers the pixels within two PSF widths of the target.
func (g *Generator) Pixels(scene Scene, relFlux []float64) (pixel.Series, error) {
	if scene.Rows <= 0 || scene.Cols <= 0 {
		return pixel.Series{}, fmt.Errorf("synth: grid must be positive: %dx%d", scene.Rows, scene.Cols)
	}
	if len(scene.Stars) == 0 {
		return pixel.Series{}, fmt.Errorf("synth: scene has no stars")
	}
	tm, err := g.Times(len(relFlux))
	if err != nil {
		return pixel.Series{}, err
	}

	npix := scene.Rows * scene.Cols
	rng := rand.New(rand.NewSource(g.seed))
	target := scene.Stars[0]

	series := pixel.Series{
		Rows:     scene.Rows,
		Cols:     scene.Cols,
		Time:     tm,
		Frames:   make([]pixel.Frame, len(relFlux)),
		Aperture: pixel.NewMask(scene.Rows, scene.Cols),
		Exposure: scene.Exposure,
	}
	for p := range npix {
		r, c := p/scene.Cols, p%scene.Cols
		dr, dc := float64(r)-target.Row, float64(c)-target.Col
		series.Aperture.Pix[p] = dr*dr+dc*dc <= 4*target.Width*target.Width
	}

	static := make([]float64, npix)
	for p := range static {
		static[p] = scene.Background
		for _, s := range scene.Stars[1:] {
			static[p] += s.at(p/scene.Cols, p%scene.Cols)
		}
	}

	for i, rel := range relFlux {
		f := pixel.Frame{
			Flux:    make([]float64, npix),
			FluxErr: make([]float64, npix),
		}
		for p := range npix {
			f.Flux[p] = static[p] + rel*target.at(p/scene.Cols, p%scene.Cols) + rng.NormFloat64()*scene.Noise
			f.FluxErr[p] = scene.Noise
		}
		series.Frames[i] = f
	}
	return series, nil
}
