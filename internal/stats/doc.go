// Package stats holds per-channel sensitivity rows keyed by
// (telescope, camera, channel) and the rules that combine them: within a
// realization, across realizations, and across channels that share a
// band ID.
//
// Spreads combine as
//
//	std_total = sqrt(mean(within_std^2)) + std(realization means)
//
// which is deliberately larger than a quadrature sum.
package stats
