package lightcurve

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// PhaseRange selects the interval folded phases are mapped into.
type PhaseRange int

const (
	// PhaseCentered maps phase into [-0.5, 0.5), putting the epoch at the center.
	PhaseCentered PhaseRange = iota
	// PhaseZeroToOne maps phase into [0, 1).
	PhaseZeroToOne
)

// FoldOption configures [Fold].
type FoldOption func(*foldConfig)

type foldConfig struct {
	phaseRange PhaseRange
}

// WithPhaseRange selects the output phase interval.
func WithPhaseRange(r PhaseRange) FoldOption {
	return func(c *foldConfig) { c.phaseRange = r }
}

// FoldedSeries is a time series whose independent variable is orbital phase.
//
// Cadences are sorted by phase. Time and Index keep the original timestamp
// and position of each cadence.
type FoldedSeries struct {
	Phase   []float64
	Time    []float64
	Flux    []float64
	FluxErr []float64
	Quality []uint32
	Index   []int

	Period float64
	Epoch  float64
	Range  PhaseRange
}

// Len returns the number of cadences.
func (f FoldedSeries) Len() int { return len(f.Phase) }

// TimeSeries returns the folded data as an unsorted-capable TimeSeries with
// phase in place of time.
func (f FoldedSeries) TimeSeries() TimeSeries {
	return TimeSeries{
		Time:    append([]float64(nil), f.Phase...),
		Flux:    append([]float64(nil), f.Flux...),
		FluxErr: append([]float64(nil), f.FluxErr...),
		Quality: append([]uint32(nil), f.Quality...),
	}
}

// Cycles returns the orbit number of each cadence relative to the epoch.
// The cycle boundary sits at the edge of the phase range, so every cadence
// of one transit shares a cycle number.
func (f FoldedSeries) Cycles() []int {
	offset := 0.0
	if f.Range == PhaseCentered {
		offset = 0.5
	}
	out := make([]int, len(f.Time))
	for i, t := range f.Time {
		out[i] = int(math.Floor((t-f.Epoch)/f.Period + offset))
	}
	return out
}

// Even returns the cadences from even-numbered cycles.
func (f FoldedSeries) Even() FoldedSeries { return f.selectCycles(0) }

// Odd returns the cadences from odd-numbered cycles.
func (f FoldedSeries) Odd() FoldedSeries { return f.selectCycles(1) }

func (f FoldedSeries) selectCycles(parity int) FoldedSeries {
	out := FoldedSeries{Period: f.Period, Epoch: f.Epoch, Range: f.Range}
	for i, c := range f.Cycles() {
		if ((c%2)+2)%2 != parity {
			continue
		}
		out.Phase = append(out.Phase, f.Phase[i])
		out.Time = append(out.Time, f.Time[i])
		out.Flux = append(out.Flux, f.Flux[i])
		out.FluxErr = append(out.FluxErr, f.FluxErr[i])
		out.Quality = append(out.Quality, f.Quality[i])
		out.Index = append(out.Index, f.Index[i])
	}
	return out
}

// Phase returns the folded phase of t for the given period and epoch.
func Phase(t, period, epoch float64, r PhaseRange) float64 {
	p := math.Mod((t-epoch)/period, 1)
	if p < 0 {
		p++
	}
	if p >= 1 {
		p--
	}
	if r == PhaseCentered && p >= 0.5 {
		p--
	}
	return p
}

// Fold maps each timestamp to orbital phase
//
//	phase = ((t - epoch) / period) mod 1
//
// shifted into [-0.5, 0.5) unless [WithPhaseRange] says otherwise. Flux,
// error and quality are carried through unchanged. The result is sorted by
// phase; ties keep their time order.
func Fold(ts TimeSeries, period, epoch float64, opts ...FoldOption) (FoldedSeries, error) {
	if !(period > 0) || math.IsInf(period, 0) {
		return FoldedSeries{}, fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}
	if !robust.IsFinite(epoch) {
		return FoldedSeries{}, fmt.Errorf("lightcurve: invalid epoch: %v", epoch)
	}
	if err := ts.Validate(); err != nil {
		return FoldedSeries{}, err
	}
	cfg := foldConfig{phaseRange: PhaseCentered}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := ts.Len()
	phase := make([]float64, n)
	order := make([]int, n)
	for i, t := range ts.Time {
		phase[i] = Phase(t, period, epoch, cfg.phaseRange)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return phase[order[a]] < phase[order[b]] })

	out := FoldedSeries{
		Phase:   make([]float64, n),
		Time:    make([]float64, n),
		Flux:    make([]float64, n),
		FluxErr: make([]float64, n),
		Quality: make([]uint32, n),
		Index:   order,
		Period:  period,
		Epoch:   epoch,
		Range:   cfg.phaseRange,
	}
	for j, i := range order {
		out.Phase[j] = phase[i]
		out.Time[j] = ts.Time[i]
		out.Flux[j] = ts.Flux[i]
		out.FluxErr[j] = ts.FluxErr[i]
		out.Quality[j] = ts.Quality[i]
	}
	return out, nil
}
