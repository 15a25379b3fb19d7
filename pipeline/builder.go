package pipeline

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-lightcurve/detrend"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// StageFunc transforms one time series into another.
type StageFunc func(lightcurve.TimeSeries) (lightcurve.TimeSeries, error)

// Stage is a named step of a [Builder] chain.
type Stage struct {
	Name string
	Fn   StageFunc
}

// StageError reports which stage of a chain failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("pipeline: stage %q: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Observer is called after every successful stage.
type Observer func(stage string, out lightcurve.TimeSeries, elapsed time.Duration)

// Builder composes time-series stages into an ordered chain.
//
//	out, err := pipeline.NewBuilder().
//		Flatten(detrend.WithWindow(401)).
//		Filter(lightcurve.TimeOutside(1346, 1350)).
//		RemoveOutliers(6).
//		Run(raw)
type Builder struct {
	stages   []Stage
	observer Observer
}

// NewBuilder returns an empty chain.
func NewBuilder() *Builder { return &Builder{} }

// Then appends a custom stage.
func (b *Builder) Then(name string, fn StageFunc) *Builder {
	b.stages = append(b.stages, Stage{Name: name, Fn: fn})
	return b
}

// Observe installs fn as the per-stage observer.
func (b *Builder) Observe(fn Observer) *Builder {
	b.observer = fn
	return b
}

// Flatten appends the Savitzky–Golay detrender, keeping the flattened flux.
func (b *Builder) Flatten(opts ...detrend.Option) *Builder {
	return b.Then("flatten", func(ts lightcurve.TimeSeries) (lightcurve.TimeSeries, error) {
		flat, _, err := detrend.Flatten(ts, opts...)
		return flat, err
	})
}

// Filter appends a quality filter keeping the cadences pred accepts.
func (b *Builder) Filter(pred lightcurve.Predicate) *Builder {
	return b.Then("filter", func(ts lightcurve.TimeSeries) (lightcurve.TimeSeries, error) {
		return lightcurve.Filter(ts, pred)
	})
}

// RemoveOutliers appends sigma clipping.
func (b *Builder) RemoveOutliers(sigma float64, opts ...lightcurve.OutlierOption) *Builder {
	return b.Then("outliers", func(ts lightcurve.TimeSeries) (lightcurve.TimeSeries, error) {
		return lightcurve.RemoveOutliers(ts, sigma, opts...)
	})
}

// Normalize appends division by the median flux.
func (b *Builder) Normalize() *Builder {
	return b.Then("normalize", lightcurve.Normalize)
}

// Stages returns the stage names in order.
func (b *Builder) Stages() []string {
	out := make([]string, len(b.stages))
	for i, s := range b.stages {
		out[i] = s.Name
	}
	return out
}

// Run feeds ts through every stage. The first failing stage aborts the chain
// with a [*StageError].
func (b *Builder) Run(ts lightcurve.TimeSeries) (lightcurve.TimeSeries, error) {
	cur := ts
	for _, s := range b.stages {
		start := time.Now()
		out, err := s.Fn(cur)
		if err != nil {
			return lightcurve.TimeSeries{}, &StageError{Stage: s.Name, Err: err}
		}
		if b.observer != nil {
			b.observer(s.Name, out, time.Since(start))
		}
		cur = out
	}
	return cur, nil
}
