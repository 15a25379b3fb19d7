// Package pixel models target pixel data and turns it into a light curve.
//
// A [Series] is a stack of fixed-shape [Frame] grids on a strictly increasing
// time axis. [ThresholdMask] derives an aperture from a representative
// [Image] (usually [MedianFrame]); [Extract] sums the aperture per cadence
// into a [lightcurve.TimeSeries] aligned 1:1 with the frames.
//
//	img := pixel.MedianFrame(series)
//	aperture, err := pixel.ThresholdMask(img, pixel.DefaultThreshold)
//	raw, err := pixel.Extract(series, aperture)
package pixel
