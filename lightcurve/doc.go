// Package lightcurve provides the time-series model and the sample-level
// stages of the photometry pipeline.
//
// A [TimeSeries] holds parallel time, flux, flux-error and quality slices.
// Invalid cadences are carried as NaN flux rather than dropped, so index
// alignment with the originating pixel series survives until a stage chooses
// to remove them.
//
// # Stages
//
//   - [Filter] and [Select]: boolean selection (time ranges, quality bits)
//   - [RemoveOutliers]: median/MAD sigma clipping
//   - [Normalize]: divide by the median flux
//   - [Fold]: map time to orbital phase in [-0.5, 0.5)
//   - [Bin] and [BinFolded]: fixed-width inverse-variance weighted bins
//
// Every stage returns a new value and leaves its input untouched:
//
//	clean, err := lightcurve.Filter(flat, lightcurve.TimeOutside(1346, 1350))
//	clean, err = lightcurve.RemoveOutliers(clean, 6)
//	folded, err := lightcurve.Fold(clean, period, epoch)
//	binned, err := lightcurve.BinFolded(folded, 1.0/50)
//
// Detrending lives in package detrend; it consumes and returns this model.
package lightcurve
