package pixel

import "fmt"

// Mask is a boolean grid in row-major order. True pixels are included in
// the aperture.
type Mask struct {
	Rows, Cols int
	Pix        []bool
}

// NewMask returns an all-false mask of the given shape.
func NewMask(rows, cols int) Mask {
	return Mask{Rows: rows, Cols: cols, Pix: make([]bool, rows*cols)}
}

// FullMask returns a mask selecting every pixel.
func FullMask(rows, cols int) Mask {
	m := NewMask(rows, cols)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	return m
}

// At reports whether pixel (row, col) is selected.
func (m Mask) At(row, col int) bool { return m.Pix[row*m.Cols+col] }

// Set selects or clears pixel (row, col).
func (m Mask) Set(row, col int, v bool) { m.Pix[row*m.Cols+col] = v }

// Count returns the number of selected pixels.
func (m Mask) Count() int {
	n := 0
	for _, p := range m.Pix {
		if p {
			n++
		}
	}
	return n
}

// IsZero reports whether the mask was never set up.
func (m Mask) IsZero() bool { return m.Rows == 0 && m.Cols == 0 && m.Pix == nil }

// Clone returns a deep copy.
func (m Mask) Clone() Mask {
	return Mask{Rows: m.Rows, Cols: m.Cols, Pix: append([]bool(nil), m.Pix...)}
}

// Invert returns the complement of m.
func (m Mask) Invert() Mask {
	out := m.Clone()
	for i, p := range out.Pix {
		out.Pix[i] = !p
	}
	return out
}

// Union returns the pixels selected by either mask.
func (m Mask) Union(o Mask) (Mask, error) {
	return m.combine(o, func(a, b bool) bool { return a || b })
}

// Intersect returns the pixels selected by both masks.
func (m Mask) Intersect(o Mask) (Mask, error) {
	return m.combine(o, func(a, b bool) bool { return a && b })
}

func (m Mask) combine(o Mask, op func(a, b bool) bool) (Mask, error) {
	if err := m.checkShape(o.Rows, o.Cols); err != nil {
		return Mask{}, err
	}
	out := NewMask(m.Rows, m.Cols)
	for i := range out.Pix {
		out.Pix[i] = op(m.Pix[i], o.Pix[i])
	}
	return out, nil
}

func (m Mask) checkShape(rows, cols int) error {
	if m.Rows != rows || m.Cols != cols || len(m.Pix) != rows*cols {
		return fmt.Errorf("%w: mask %dx%d (%d pixels), want %dx%d",
			ErrShapeMismatch, m.Rows, m.Cols, len(m.Pix), rows, cols)
	}
	return nil
}
