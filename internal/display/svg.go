package display

import (
	"fmt"
	"strings"

	"github.com/san-kum/bolocalc/internal/stats"
)

// strokes cycle over the channels of a sweep plot.
var strokes = []string{"#00ff00", "#00bfff", "#ff8c00", "#ff1493", "#ffd700"}

// VarySVG draws column c of every channel against the first swept
// value as an SVG line chart of the given pixel size.
func VarySVG(v *VaryTable, c stats.Column, width, height int) string {
	if len(v.Rows) < 2 || len(v.Channels) == 0 {
		return ""
	}
	u := UnitOf(c)

	xs := make([]float64, len(v.Rows))
	ys := make([][]float64, len(v.Channels))
	for n := range ys {
		ys[n] = make([]float64, len(v.Rows))
	}
	minX, maxX := v.Values[0][0], v.Values[0][0]
	minY, maxY := v.Rows[0][0].Values[c].Mean*u.Scale, v.Rows[0][0].Values[c].Mean*u.Scale
	for i, rows := range v.Rows {
		xs[i] = v.Values[i][0]
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		for n, r := range rows {
			y := r.Values[c].Mean * u.Scale
			ys[n][i] = y
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for n, key := range v.Channels {
		stroke := strokes[n%len(strokes)]
		sb.WriteString(`<path fill="none" stroke="` + stroke + `" stroke-width="1.5" d="M`)
		for i, x := range xs {
			px := (x - minX) / rangeX * float64(width)
			py := float64(height) - (ys[n][i]-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", px, py)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
			}
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(n+1), stroke, key)
	}
	fmt.Fprintf(&sb, `<text x="8" y="%d" fill="#cccccc" font-family="monospace" font-size="12">%s [%s] vs %s</text>
`, height-8, c, u.Label, v.Targets[0].Param)

	sb.WriteString("</svg>")
	return sb.String()
}
