package robust

import (
	"math"
	"testing"
)

func TestClipMaskSymmetric(t *testing.T) {
	x := []float64{1, 1.1, 0.9, 1.05, 0.95, 10, -8, math.NaN()}
	keep := ClipMask(x, ClipConfig{SigmaLower: 5, SigmaUpper: 5})
	want := []bool{true, true, true, true, true, false, false, true}
	for i := range want {
		if keep[i] != want[i] {
			t.Fatalf("keep[%d] = %v, want %v (mask %v)", i, keep[i], want[i], keep)
		}
	}
}

func TestClipMaskUpperOnly(t *testing.T) {
	x := []float64{1, 1.1, 0.9, 1.05, 0.95, 10, -8}
	keep := ClipMask(x, ClipConfig{SigmaLower: math.Inf(1), SigmaUpper: 5})
	if keep[5] {
		t.Fatal("high outlier should be rejected")
	}
	if !keep[6] {
		t.Fatal("low outlier should be kept with upper-only clipping")
	}
}

func TestClipMaskConstantKeepsAll(t *testing.T) {
	x := []float64{3, 3, 3, 3}
	for i, k := range ClipMask(x, ClipConfig{SigmaLower: 3, SigmaUpper: 3, MaxIters: 5}) {
		if !k {
			t.Fatalf("keep[%d] = false for constant input", i)
		}
	}
}

func TestClipMaskIterates(t *testing.T) {
	// A moderate outlier only becomes visible once the extreme one is gone
	// and the spread shrinks; a single pass must not touch more than the
	// extreme value here.
	x := []float64{0, 0.1, -0.1, 0.05, -0.05, 0.02, -0.02, 1.5, 1000}
	single := ClipMask(x, ClipConfig{SigmaLower: 5, SigmaUpper: 5, MaxIters: 1})
	multi := ClipMask(x, ClipConfig{SigmaLower: 5, SigmaUpper: 5, MaxIters: 5})

	countRejected := func(m []bool) int {
		n := 0
		for _, k := range m {
			if !k {
				n++
			}
		}
		return n
	}
	if countRejected(multi) < countRejected(single) {
		t.Fatalf("iterating rejected fewer samples: single=%d multi=%d", countRejected(single), countRejected(multi))
	}
	if multi[8] {
		t.Fatal("extreme outlier kept")
	}
}

func TestClipMaskEmpty(t *testing.T) {
	if got := ClipMask(nil, ClipConfig{SigmaLower: 3, SigmaUpper: 3}); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}
