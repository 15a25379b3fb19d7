package robust

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MADScale converts a median absolute deviation into a standard-deviation
// equivalent for normally distributed data.
const MADScale = 1.4826

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns a copy of x with all non-finite values removed.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// Median returns the median of the finite values in x.
// For an even count the two central values are averaged.
func Median(x []float64) float64 {
	vals := Finite(x)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	return sortedMedian(vals)
}

func sortedMedian(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// MAD returns the median absolute deviation of the finite values in x.
func MAD(x []float64) float64 {
	med := Median(x)
	if math.IsNaN(med) {
		return math.NaN()
	}
	dev := make([]float64, 0, len(x))
	for _, v := range x {
		if IsFinite(v) {
			dev = append(dev, math.Abs(v-med))
		}
	}
	sort.Float64s(dev)
	return sortedMedian(dev)
}

// MADStd returns MADScale * MAD(x).
func MADStd(x []float64) float64 {
	return MADScale * MAD(x)
}

// Mean returns the arithmetic mean of the finite values in x.
func Mean(x []float64) float64 {
	vals := Finite(x)
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// StdDev returns the sample standard deviation of the finite values in x.
// Fewer than two finite values yield NaN.
func StdDev(x []float64) float64 {
	vals := Finite(x)
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// WeightedMean returns the weighted mean of x and its standard error,
// treating w as inverse variances. Pairs where either value is non-finite
// or the weight is not positive are skipped. ok is false when no pair
// qualifies.
func WeightedMean(x, w []float64) (mean, stderr float64, ok bool) {
	n := min(len(x), len(w))
	vals := make([]float64, 0, n)
	weights := make([]float64, 0, n)
	var wsum float64
	for i := 0; i < n; i++ {
		if !IsFinite(x[i]) || !IsFinite(w[i]) || w[i] <= 0 {
			continue
		}
		vals = append(vals, x[i])
		weights = append(weights, w[i])
		wsum += w[i]
	}
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), false
	}
	return stat.Mean(vals, weights), math.Sqrt(1 / wsum), true
}
