package pixel

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultThreshold is the aperture threshold in robust standard deviations
// above the median.
const DefaultThreshold = 10.0

// MaskOption configures [ThresholdMask].
type MaskOption func(*maskConfig)

type maskConfig struct {
	refRow, refCol float64
	hasRef         bool
	allRegions     bool
}

// WithReferencePixel selects the contiguous region nearest (row, col)
// instead of the one nearest the image center.
func WithReferencePixel(row, col int) MaskOption {
	return func(c *maskConfig) {
		c.refRow, c.refCol = float64(row), float64(col)
		c.hasRef = true
	}
}

// WithAllRegions keeps every pixel above threshold, not only the region
// nearest the reference pixel.
func WithAllRegions() MaskOption {
	return func(c *maskConfig) { c.allRegions = true }
}

// ThresholdMask selects pixels of img brighter than
//
//	median + threshold * 1.4826 * MAD
//
// where median and MAD are taken over the finite pixels. By default only the
// 4-connected region nearest the image center survives, so a neighbouring
// star is not summed into the aperture. The result depends only on img,
// threshold and the options.
//
// A mask with no selected pixels is reported as [ErrEmptyMask].
func ThresholdMask(img Image, threshold float64, opts ...MaskOption) (Mask, error) {
	if img.Rows <= 0 || img.Cols <= 0 || len(img.Data) != img.Rows*img.Cols {
		return Mask{}, fmt.Errorf("%w: image %dx%d with %d values", ErrShapeMismatch, img.Rows, img.Cols, len(img.Data))
	}
	if !robust.IsFinite(threshold) {
		return Mask{}, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	cfg := maskConfig{
		refRow: float64(img.Rows-1) / 2,
		refCol: float64(img.Cols-1) / 2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	finite := robust.Finite(img.Data)
	if len(finite) == 0 {
		return Mask{}, fmt.Errorf("%w: image has no finite pixels", ErrEmptyMask)
	}
	cut := robust.Median(finite) + threshold*robust.MADStd(finite)

	m := NewMask(img.Rows, img.Cols)
	for i, v := range img.Data {
		m.Pix[i] = robust.IsFinite(v) && v > cut
	}
	if m.Count() == 0 {
		return Mask{}, fmt.Errorf("%w: threshold %v (cut %.6g)", ErrEmptyMask, threshold, cut)
	}
	if cfg.allRegions {
		return m, nil
	}
	return nearestRegion(m, cfg.refRow, cfg.refCol), nil
}

// nearestRegion keeps the 4-connected component of m closest to the
// reference position. Ties go to the component found first in row-major
// order.
func nearestRegion(m Mask, refRow, refCol float64) Mask {
	labels := make([]int, len(m.Pix))
	var (
		best     = -1
		bestDist = math.Inf(1)
		next     = 0
		stack    []int
	)
	for start, sel := range m.Pix {
		if !sel || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		stack = append(stack[:0], start)
		dist := math.Inf(1)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			r, c := p/m.Cols, p%m.Cols
			dr, dc := float64(r)-refRow, float64(c)-refCol
			dist = math.Min(dist, dr*dr+dc*dc)

			for _, q := range [4][2]int{{r - 1, c}, {r + 1, c}, {r, c - 1}, {r, c + 1}} {
				if q[0] < 0 || q[0] >= m.Rows || q[1] < 0 || q[1] >= m.Cols {
					continue
				}
				qi := q[0]*m.Cols + q[1]
				if m.Pix[qi] && labels[qi] == 0 {
					labels[qi] = next
					stack = append(stack, qi)
				}
			}
		}
		if dist < bestDist {
			best, bestDist = next, dist
		}
	}

	out := NewMask(m.Rows, m.Cols)
	for i, l := range labels {
		out.Pix[i] = l == best
	}
	return out
}
