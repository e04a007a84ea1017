// Package sky provides the sky-side elements of every optical stack:
// the CMB, optional synchrotron and dust foregrounds, and the atmosphere.
//
// Atmospheric spectra come from an [Atlas], a read-only table of
// brightness temperature and transmission per site keyed by
// "{elevation_deg},{pwv_mm}". The atlas is loaded once and shared by all
// realizations without locking.
package sky
