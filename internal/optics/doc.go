// Package optics turns configured optical elements into per-frequency
// emissivity, efficiency and temperature arrays.
//
// An [Optic] is one row of a camera's optics table. A [Chain] evaluates
// its optics in file order, sky side first, and returns a [Stack] that the
// noise calculation walks from the sky to the detector. Order matters:
// the power an element deposits on the detector is scaled by the product
// of the efficiencies of every element after it ([Stack.Downstream]).
package optics
