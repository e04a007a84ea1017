package display

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bolocalc/internal/stats"
)

// PlotVary draws column c of the first channel against the grid point
// index, labelled with the first swept target.
func PlotVary(v *VaryTable, c stats.Column) string {
	if len(v.Rows) == 0 || len(v.Channels) == 0 {
		return ""
	}
	u := UnitOf(c)
	data := make([]float64, len(v.Rows))
	for i, rows := range v.Rows {
		data[i] = rows[0].Values[c].Mean * u.Scale
	}
	caption := fmt.Sprintf("%s [%s] of %s vs %s (%g to %g)",
		c, u.Label, v.Channels[0], v.Targets[0].Param, v.Values[0][0], v.Values[len(v.Values)-1][0])
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	)
}
