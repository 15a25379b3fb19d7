package pixel

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// starSeries returns a rows x cols series with a Gaussian star of the given
// peak at (r0, c0) on a background of 10 e/s plus small deterministic noise.
func starSeries(t *testing.T, rows, cols, n int, r0, c0, peak float64) Series {
	t.Helper()
	s := Series{Rows: rows, Cols: cols, Time: testutil.Cadence(1000, 2.0/1440, n), Exposure: 120}
	noise := testutil.DeterministicGaussian(7, 0.1, n*rows*cols)
	for i := range n {
		f := Frame{Flux: make([]float64, rows*cols)}
		for p := range f.Flux {
			dr, dc := float64(p/cols)-r0, float64(p%cols)-c0
			f.Flux[p] = 10 + peak*math.Exp(-(dr*dr+dc*dc)/2) + noise[i*rows*cols+p]
		}
		s.Frames = append(s.Frames, f)
	}
	return s
}

func TestThresholdMaskSelectsStar(t *testing.T) {
	s := starSeries(t, 11, 11, 20, 5, 5, 1000)
	img := MedianFrame(s)
	m, err := ThresholdMask(img, DefaultThreshold)
	if err != nil {
		t.Fatalf("ThresholdMask: %v", err)
	}
	if !m.At(5, 5) {
		t.Fatal("star center not in aperture")
	}
	if m.At(0, 0) || m.At(10, 10) {
		t.Fatal("corner pixels selected")
	}
	if m.Count() == 0 || m.Count() > 80 {
		t.Fatalf("aperture has %d pixels", m.Count())
	}
}

func TestThresholdMaskDeterministic(t *testing.T) {
	img := MedianFrame(starSeries(t, 9, 9, 5, 4, 4, 500))
	a, err := ThresholdMask(img, 5)
	if err != nil {
		t.Fatalf("ThresholdMask: %v", err)
	}
	b, _ := ThresholdMask(img, 5)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs between calls", i)
		}
	}
}

func TestThresholdMaskNearestRegion(t *testing.T) {
	img := Image{Rows: 7, Cols: 7, Data: testutil.Ones(49)}
	// two separated bright blobs
	img.Data[1*7+1] = 100
	img.Data[1*7+2] = 100
	img.Data[5*7+5] = 100

	near, err := ThresholdMask(img, 3)
	if err != nil {
		t.Fatalf("ThresholdMask: %v", err)
	}
	// (1,2) is at squared distance 5 from (3,3), (5,5) at 8.
	if !near.At(1, 1) || !near.At(1, 2) || near.At(5, 5) {
		t.Fatalf("wrong region selected: %v", near.Pix)
	}

	moved, _ := ThresholdMask(img, 3, WithReferencePixel(6, 6))
	if moved.Count() != 1 || !moved.At(5, 5) {
		t.Fatalf("reference pixel ignored: %v", moved.Pix)
	}

	all, _ := ThresholdMask(img, 3, WithAllRegions())
	if all.Count() != 3 {
		t.Fatalf("all regions count = %d, want 3", all.Count())
	}
}

func TestThresholdMaskEmpty(t *testing.T) {
	img := Image{Rows: 3, Cols: 3, Data: testutil.Constant(5, 9)}
	if _, err := ThresholdMask(img, DefaultThreshold); !errors.Is(err, ErrEmptyMask) {
		t.Fatalf("err = %v, want ErrEmptyMask", err)
	}
	nan := Image{Rows: 1, Cols: 2, Data: []float64{math.NaN(), math.NaN()}}
	if _, err := ThresholdMask(nan, 1); !errors.Is(err, ErrEmptyMask) {
		t.Fatalf("err = %v, want ErrEmptyMask", err)
	}
}

func TestThresholdMaskInvalidInput(t *testing.T) {
	img := Image{Rows: 2, Cols: 2, Data: []float64{1, 2, 3}}
	if _, err := ThresholdMask(img, 1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
	img.Data = append(img.Data, 4)
	if _, err := ThresholdMask(img, math.NaN()); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("err = %v, want ErrInvalidThreshold", err)
	}
}

func TestExtractAlignment(t *testing.T) {
	s := starSeries(t, 8, 8, 50, 3.5, 3.5, 200)
	m := FullMask(8, 8)
	ts, err := Extract(s, m)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ts.Len() != s.Len() {
		t.Fatalf("len = %d, want %d", ts.Len(), s.Len())
	}
	testutil.RequireSliceNearlyEqual(t, ts.Time, s.Time, 0)
	testutil.RequireFinite(t, ts.Flux)
}

func TestExtractSumAndErrors(t *testing.T) {
	s := Series{
		Rows: 1, Cols: 3,
		Time: []float64{1, 2},
		Frames: []Frame{
			{Flux: []float64{1, 2, 3}, FluxErr: []float64{3, 4, 100}, PixelQuality: []uint32{0, 4, 8}, Quality: 1},
			{Flux: []float64{8, -2, 5}},
		},
		Exposure: 2,
	}
	m := NewMask(1, 3)
	m.Set(0, 0, true)
	m.Set(0, 1, true)

	ts, err := Extract(s, m)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, ts.Flux, []float64{3, 6}, 1e-12)
	// error grid: sqrt(9+16); Poisson: sqrt((8+0)/2)
	testutil.RequireSliceNearlyEqual(t, ts.FluxErr, []float64{5, 2}, 1e-12)
	if ts.Quality[0] != 1|4 || ts.Quality[1] != 0 {
		t.Fatalf("quality = %v", ts.Quality)
	}
}

func TestExtractAllNaNFrameKept(t *testing.T) {
	s := starSeries(t, 4, 4, 6, 1.5, 1.5, 50)
	for p := range s.Frames[2].Flux {
		s.Frames[2].Flux[p] = math.NaN()
	}
	ts, err := Extract(s, FullMask(4, 4))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ts.Len() != 6 {
		t.Fatalf("len = %d, want 6", ts.Len())
	}
	if !math.IsNaN(ts.Flux[2]) {
		t.Fatalf("flux[2] = %v, want NaN", ts.Flux[2])
	}
	if ts.ValidCount() != 5 {
		t.Fatalf("valid = %d, want 5", ts.ValidCount())
	}
}

func TestExtractShapeMismatch(t *testing.T) {
	s := starSeries(t, 4, 4, 3, 1.5, 1.5, 50)
	if _, err := Extract(s, FullMask(3, 4)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
	if _, err := Extract(s, NewMask(4, 4)); !errors.Is(err, ErrEmptyMask) {
		t.Fatalf("err = %v, want ErrEmptyMask", err)
	}
	s.Frames[1].Flux = s.Frames[1].Flux[:3]
	if _, err := Extract(s, FullMask(4, 4)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestSeriesValidateTime(t *testing.T) {
	s := starSeries(t, 2, 2, 3, 0, 0, 1)
	s.Time[2] = s.Time[1]
	if err := s.Validate(); !errors.Is(err, lightcurve.ErrUnsorted) {
		t.Fatalf("err = %v, want ErrUnsorted", err)
	}
	s.Time = s.Time[:2]
	if err := s.Validate(); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestExtractWithBackground(t *testing.T) {
	s := starSeries(t, 9, 9, 10, 4, 4, 300)
	img := MedianFrame(s)
	aperture, err := ThresholdMask(img, DefaultThreshold)
	if err != nil {
		t.Fatalf("ThresholdMask: %v", err)
	}
	raw, _ := Extract(s, aperture)
	sub, err := Extract(s, aperture, WithBackground(aperture.Invert()))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	npix := float64(aperture.Count())
	for i := range raw.Flux {
		diff := raw.Flux[i] - sub.Flux[i]
		// background pixels are close to 10 e/s
		if math.Abs(diff/npix-10) > 0.5 {
			t.Fatalf("cadence %d: background per pixel %v, want ~10", i, diff/npix)
		}
	}
}

func TestEstimateBackground(t *testing.T) {
	s := Series{
		Rows: 1, Cols: 4, Time: []float64{0},
		Frames: []Frame{{Flux: []float64{1, 3, math.NaN(), 100}}},
	}
	bg := FullMask(1, 4)
	bg.Set(0, 3, false)
	got, err := EstimateBackground(s, bg)
	if err != nil {
		t.Fatalf("EstimateBackground: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{2}, 1e-12)
}

func TestCentroids(t *testing.T) {
	s := Series{
		Rows: 2, Cols: 2, Time: []float64{0, 1},
		Frames: []Frame{
			{Flux: []float64{1, 1, 1, 1}},
			{Flux: []float64{0, 0, 0, 4}},
		},
	}
	rows, cols, err := Centroids(s, FullMask(2, 2))
	if err != nil {
		t.Fatalf("Centroids: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, rows, []float64{0.5, 1}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, cols, []float64{0.5, 1}, 1e-12)
}

func TestMedianAndSumFrame(t *testing.T) {
	s := Series{
		Rows: 1, Cols: 2, Time: []float64{0, 1, 2},
		Frames: []Frame{
			{Flux: []float64{1, math.NaN()}},
			{Flux: []float64{5, math.NaN()}},
			{Flux: []float64{2, math.NaN()}},
		},
	}
	med := MedianFrame(s)
	sum := SumFrame(s)
	testutil.RequireSliceNearlyEqual(t, med.Data, []float64{2, math.NaN()}, 0)
	testutil.RequireSliceNearlyEqual(t, sum.Data, []float64{8, math.NaN()}, 0)
}

func TestMaskSetOps(t *testing.T) {
	a := NewMask(1, 3)
	a.Set(0, 0, true)
	b := NewMask(1, 3)
	b.Set(0, 0, true)
	b.Set(0, 2, true)

	u, err := a.Union(b)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	i, _ := a.Intersect(b)
	if u.Count() != 2 || i.Count() != 1 || a.Invert().Count() != 2 {
		t.Fatalf("union %d, intersect %d, invert %d", u.Count(), i.Count(), a.Invert().Count())
	}
	if _, err := a.Union(NewMask(3, 1)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}
