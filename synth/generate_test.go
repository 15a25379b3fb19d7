package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/pixel"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

func TestTimes(t *testing.T) {
	g := NewGenerator(WithStart(1320), WithCadence(0.5))
	tm, err := g.Times(4)
	if err != nil {
		t.Fatalf("Times: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, tm, []float64{1320, 1320.5, 1321, 1321.5}, 0)

	if _, err := g.Times(0); err == nil {
		t.Fatal("expected error for zero samples")
	}
	if _, err := NewGenerator(WithCadence(0)).Times(3); err == nil {
		t.Fatal("expected error for zero cadence")
	}
}

func TestGaussianNoiseDeterministic(t *testing.T) {
	a, _ := NewGenerator(WithSeed(9)).GaussianNoise(1, 5000)
	b, _ := NewGenerator(WithSeed(9)).GaussianNoise(1, 5000)
	c, _ := NewGenerator(WithSeed(10)).GaussianNoise(1, 5000)
	testutil.RequireSliceNearlyEqual(t, a, b, 0)
	if a[0] == c[0] && a[1] == c[1] {
		t.Fatal("different seeds produced the same noise")
	}
	if sd := robust.StdDev(a); math.Abs(sd-1) > 0.05 {
		t.Fatalf("std = %v, want ~1", sd)
	}
	if _, err := NewGenerator().GaussianNoise(-1, 3); err == nil {
		t.Fatal("expected error for negative sigma")
	}
}

func TestFlat(t *testing.T) {
	ts, err := NewGenerator().Flat(1000, 200, 1e-3)
	if err != nil {
		t.Fatalf("Flat: %v", err)
	}
	if ts.Len() != 1000 {
		t.Fatalf("len = %d", ts.Len())
	}
	testutil.RequireNearlyEqual(t, robust.Median(ts.Flux), 200, 0.05, "median")
	testutil.RequireNearlyEqual(t, ts.FluxErr[0], 0.2, 1e-12, "flux_err")
}

func TestInjectTransit(t *testing.T) {
	ts, _ := NewGenerator(WithCadence(0.01)).Flat(1000, 1, 0)
	tr := Transit{Period: 2, Epoch: 1, Duration: 0.2, Depth: 0.01}
	out, err := InjectTransit(ts, tr)
	if err != nil {
		t.Fatalf("InjectTransit: %v", err)
	}
	mask := TransitMask(ts, tr)
	in := 0
	for i, m := range mask {
		want := 1.0
		if m {
			want = 0.99
			in++
		}
		testutil.RequireNearlyEqual(t, out.Flux[i], want, 1e-12, "flux")
	}
	// five transits of ~20 cadences in [0, 10)
	if in < 90 || in > 110 {
		t.Fatalf("in-transit cadences = %d", in)
	}
	if ts.Flux[100] != 1 {
		t.Fatal("input modified")
	}
}

func TestTransitValidate(t *testing.T) {
	bad := []Transit{
		{Period: 0, Duration: 0.1, Depth: 0.01},
		{Period: 1, Duration: 0, Depth: 0.01},
		{Period: 1, Duration: 2, Depth: 0.01},
		{Period: 1, Duration: 0.1, Depth: 1},
		{Period: 1, Duration: 0.1, Depth: 0.01, Epoch: math.NaN()},
	}
	for _, tr := range bad {
		if err := tr.Validate(); err == nil {
			t.Fatalf("Validate(%+v) = nil", tr)
		}
	}
}

func TestAddTrendAndOutliers(t *testing.T) {
	ts, _ := NewGenerator(WithCadence(0.25)).Flat(8, 10, 0)
	trended, err := AddTrend(ts, 0.1, 2)
	if err != nil {
		t.Fatalf("AddTrend: %v", err)
	}
	testutil.RequireNearlyEqual(t, trended.Flux[2], 11, 1e-12, "peak")
	testutil.RequireNearlyEqual(t, trended.Flux[6], 9, 1e-12, "trough")

	spiked := AddOutliers(ts, 5, 1, 3, 99)
	if spiked.Flux[1] != 15 || spiked.Flux[3] != 15 || spiked.Flux[0] != 10 {
		t.Fatalf("flux = %v", spiked.Flux)
	}
}

func TestPixels(t *testing.T) {
	rel := testutil.Ones(30)
	rel[10] = 0.5
	scene := Scene{
		Rows: 11, Cols: 11,
		Stars:      []Star{{Row: 5, Col: 5, Peak: 1000, Width: 1}, {Row: 1, Col: 9, Peak: 300, Width: 0.8}},
		Background: 20,
		Noise:      0.5,
		Exposure:   120,
	}
	s, err := NewGenerator().Pixels(scene, rel)
	if err != nil {
		t.Fatalf("Pixels: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !s.Aperture.At(5, 5) || s.Aperture.At(1, 9) {
		t.Fatal("default aperture not centered on the target")
	}

	lc, err := pixel.Extract(s, s.PipelineMask())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	ratio := (lc.Flux[10] - robust.Median(lc.Flux)) / robust.Median(lc.Flux)
	if ratio > -0.3 {
		t.Fatalf("dimmed cadence ratio = %v", ratio)
	}
}
