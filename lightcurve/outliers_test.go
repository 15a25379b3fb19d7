package lightcurve

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

func noisySeries(t *testing.T, n int, seed int64) TimeSeries {
	t.Helper()
	flux := testutil.DeterministicGaussian(seed, 0.001, n)
	for i := range flux {
		flux[i] += 1
	}
	ts, err := New(testutil.Cadence(0, 0.01, n), flux, testutil.Constant(0.001, n), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ts
}

func TestRemoveOutliersDropsSpikes(t *testing.T) {
	ts := noisySeries(t, 2000, 1)
	ts.Flux[100] = 1.5
	ts.Flux[900] = 0.5

	out, err := RemoveOutliers(ts, 6)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	for _, f := range out.Flux {
		if f == 1.5 || f == 0.5 {
			t.Fatalf("spike %v survived", f)
		}
	}
	if out.Len() > ts.Len()-2 {
		t.Fatalf("len = %d, want <= %d", out.Len(), ts.Len()-2)
	}
}

func TestRemoveOutliersNeverRemovesInliers(t *testing.T) {
	ts := noisySeries(t, 3000, 2)
	ts.Flux[10] = 3
	sigma := 4.0

	med := robust.Median(ts.Flux)
	spread := robust.MADStd(ts.Flux)

	mask, err := OutlierMask(ts, sigma)
	if err != nil {
		t.Fatalf("OutlierMask: %v", err)
	}
	for i, f := range ts.Flux {
		if math.Abs(f-med) <= sigma*spread && mask[i] {
			t.Fatalf("sample %d (flux %v) within sigma flagged", i, f)
		}
	}

	out, err := RemoveOutliers(ts, sigma)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if out.Len() > ts.Len() {
		t.Fatalf("series grew: %d > %d", out.Len(), ts.Len())
	}
}

func TestRemoveOutliersKeepsNaN(t *testing.T) {
	ts := noisySeries(t, 500, 3)
	ts.Flux[7] = math.NaN()
	out, err := RemoveOutliers(ts, 6)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if out.ValidCount() != out.Len()-1 {
		t.Fatalf("NaN cadence not passed through: valid %d of %d", out.ValidCount(), out.Len())
	}
}

func TestRemoveOutliersDirection(t *testing.T) {
	ts := noisySeries(t, 1000, 4)
	ts.Flux[1] = 2
	ts.Flux[2] = 0

	upper, err := RemoveOutliers(ts, 6, WithDirection(Upper))
	if err != nil {
		t.Fatalf("upper: %v", err)
	}
	lower, err := RemoveOutliers(ts, 6, WithDirection(Lower))
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if !containsFlux(upper, 0) || containsFlux(upper, 2) {
		t.Fatal("upper clipping removed the wrong side")
	}
	if !containsFlux(lower, 2) || containsFlux(lower, 0) {
		t.Fatal("lower clipping removed the wrong side")
	}
}

func TestRemoveOutliersMaxIters(t *testing.T) {
	ts := noisySeries(t, 1000, 5)
	ts.Flux[3] = 10
	single, _ := RemoveOutliers(ts, 3)
	multi, _ := RemoveOutliers(ts, 3, WithMaxIters(5))
	if multi.Len() > single.Len() {
		t.Fatalf("multi-pass kept more samples: %d > %d", multi.Len(), single.Len())
	}
}

func TestRemoveOutliersInvalidSigma(t *testing.T) {
	ts := noisySeries(t, 10, 6)
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := RemoveOutliers(ts, s); !errors.Is(err, ErrInvalidSigma) {
			t.Fatalf("sigma %v: err = %v, want ErrInvalidSigma", s, err)
		}
	}
}

func TestRemoveOutliersEmpty(t *testing.T) {
	out, err := RemoveOutliers(TimeSeries{}, 6)
	if err != nil {
		t.Fatalf("RemoveOutliers(empty): %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("len = %d, want 0", out.Len())
	}
}

func containsFlux(ts TimeSeries, v float64) bool {
	for _, f := range ts.Flux {
		if f == v {
			return true
		}
	}
	return false
}
