// Package vary sweeps configuration parameters across a grid.
//
// Each grid point becomes an experiment.Overlay applied to the loaded
// experiment. The base realization pool of a Simulation is regenerated
// under every overlay, so only the subtree at or below the changed level
// is redrawn and untouched draws are identical across points.
package vary
