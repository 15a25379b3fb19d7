// Package detrend removes slow trends from light curves with a
// Savitzky–Golay filter.
//
// [Smooth] is the raw filter on a uniformly sampled slice. [Flatten] applies
// it to a [lightcurve.TimeSeries]: the series is split at gaps, each segment
// is smoothed over its finite unmasked cadences, outliers of the residual
// are excluded and the fit repeated, and the flux is divided by the trend.
//
// [CDPP] estimates the photometric noise on a transit timescale from a
// flattened series.
package detrend
