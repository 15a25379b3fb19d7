// Package robust provides outlier-resistant summary statistics for flux
// series.
//
// All estimators skip non-finite values (NaN, ±Inf), so a series carrying
// invalid cadences can be passed in directly. An input without any finite
// value yields NaN.
//
// The spread estimate used throughout the module is the median absolute
// deviation scaled to a Gaussian standard deviation:
//
//	MADStd(x) = 1.4826 * median(|x - median(x)|)
package robust
