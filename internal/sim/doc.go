// Package sim runs Monte Carlo simulations of an experiment.
//
// A run moves through four stages:
//   - GenerateRealizations: draw nrealize independent realizations
//   - Calculate: evaluate every channel of every realization
//   - Combine: merge realizations and fold channels by band
//   - WriteTables: write sensitivity.txt files and the run directory
//
// Realizations share nothing, so both drawing and calculation go through
// an Executor that may run them in parallel:
//
//	s, err := sim.New(exp, cfg, sim.WithLogger(log))
//	report, err := s.Run(ctx)
package sim
