// Package display renders sensitivity results.
//
// Output files:
//   - sensitivity.txt: one fixed-width pipe table per camera, telescope
//     and experiment, cells "mean ± spread", closed by a Total row
//   - paramVary/<name>/<quantity>.txt: one row per sweep point
//   - paramVary/<name>/<Column>.svg: a line chart of one swept quantity
//
// Terminal output uses lipgloss for the summary table and asciigraph for
// sweep plots.
package display
