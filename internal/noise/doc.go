// Package noise evaluates the detector noise model of a realized stack:
// optical power, photon NEP with optional inter-detector correlations,
// thermal-carrier bolometer NEP, readout NEP and the NEP to NET
// conversion.
//
// All inputs and outputs are SI: W, W/rtHz, K and K rt(s).
package noise
