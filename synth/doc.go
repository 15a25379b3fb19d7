// Package synth generates deterministic light curves and pixel series for
// tests, examples and benchmarks.
//
// A [Generator] holds the cadence grid and the noise seed. Transits,
// trends and noise are applied as separate steps so fixtures can be built
// up piece by piece:
//
//	g := synth.NewGenerator(synth.WithSeed(3))
//	ts, _ := g.Flat(10000, 1, 500e-6)
//	ts, _ = synth.InjectTransit(ts, synth.Transit{Period: 3.2, Epoch: 1.1, Duration: 0.12, Depth: 0.01})
package synth
