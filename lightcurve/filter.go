package lightcurve

// Predicate decides whether a cadence is kept.
type Predicate func(Sample) bool

// TimeOutside keeps cadences with t < t1 or t > t2.
func TimeOutside(t1, t2 float64) Predicate {
	return func(s Sample) bool { return s.Time < t1 || s.Time > t2 }
}

// TimeWithin keeps cadences with t1 <= t <= t2.
func TimeWithin(t1, t2 float64) Predicate {
	return func(s Sample) bool { return s.Time >= t1 && s.Time <= t2 }
}

// QualityClear keeps cadences with none of the bitmask flags set.
func QualityClear(bitmask uint32) Predicate {
	return func(s Sample) bool { return s.Quality&bitmask == 0 }
}

// Finite keeps cadences with finite flux.
func Finite() Predicate {
	return func(s Sample) bool { return s.Valid() }
}

// And keeps cadences accepted by every predicate. And() keeps everything.
func And(preds ...Predicate) Predicate {
	return func(s Sample) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Or keeps cadences accepted by at least one predicate. Or() keeps nothing.
func Or(preds ...Predicate) Predicate {
	return func(s Sample) bool {
		for _, p := range preds {
			if p(s) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(s Sample) bool { return !p(s) }
}

// Filter returns the cadences of ts accepted by pred, in their original
// order. A predicate rejecting everything yields an empty series.
func Filter(ts TimeSeries, pred Predicate) (TimeSeries, error) {
	if err := ts.Validate(); err != nil {
		return TimeSeries{}, err
	}
	keep := make([]bool, ts.Len())
	for i := range keep {
		keep[i] = pred(ts.At(i))
	}
	return Select(ts, keep)
}

// RemoveNaNs drops cadences with non-finite flux.
func RemoveNaNs(ts TimeSeries) (TimeSeries, error) {
	return Filter(ts, Finite())
}
