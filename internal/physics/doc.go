// Package physics provides the radiometric formulas used to propagate
// optical loading from the sky to a detector.
//
// All functions are stateless and take SI inputs (Hz, K, m, S/m):
//
//   - [OccupationNumber], [BBSpecRad], [BBPowSpec], [AniPowSpec]:
//     blackbody spectra for a single-moded, single-polarization detector
//   - [DielectricLoss], [OhmicEff], [RuzeEff], [SpillEff]: optical loss
//     models for lenses, mirrors and aperture stops
//   - [NewGrid], [Trapz], [Interp]: frequency grids and integration
//
// # Example
//
//	grid, _ := physics.NewGrid(150e9, 0.3, 0.1e9)
//	p := physics.BBPowSpec(grid.Freqs[0], physics.TCMB, 1)
package physics
