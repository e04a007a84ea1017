// Package param provides the sampled configuration values of an instrument.
//
// Every scalar input in the experiment tree is a [Parameter]:
//
//   - KindFixed: a bare number
//   - KindSpread: a value with a Gaussian uncertainty, clamped to [Min, Max]
//   - KindDist: a reference to an empirical [Distribution]
//   - KindEmpty: the "NA" sentinel, intentionally unset
//
// Parameters are written in display units (GHz, pW, mm, ...) and every
// accessor returns SI values. A parameter may hold one entry per band ID
// when an optic is shared by several channels.
//
// # Immutability
//
// Parameters and Distributions are never mutated after construction.
// [Parameter.Change] returns a modified copy, which is how parameter sweeps
// build their overlays.
package param
