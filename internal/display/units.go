package display

import (
	"fmt"

	"github.com/san-kum/bolocalc/internal/stats"
)

// Unit is the display scale and format of one column.
type Unit struct {
	Label  string
	Scale  float64
	Format string
}

var units = [stats.NumColumns]Unit{
	stats.Frequency:    {"GHz", 1e-9, "%.1f"},
	stats.FracBW:       {"", 1, "%.3f"},
	stats.NumDet:       {"", 1, "%.0f"},
	stats.StopEff:      {"", 1, "%.3f"},
	stats.Popt:         {"pW", 1e12, "%.3f"},
	stats.NEPph:        {"aW/rtHz", 1e18, "%.3f"},
	stats.NEPbolo:      {"aW/rtHz", 1e18, "%.3f"},
	stats.NEPrd:        {"aW/rtHz", 1e18, "%.3f"},
	stats.NEP:          {"aW/rtHz", 1e18, "%.3f"},
	stats.NET:          {"uK-rts", 1e6, "%.3f"},
	stats.NETarr:       {"uK-rts", 1e6, "%.4f"},
	stats.MappingSpeed: {"1/(uK^2-s)", 1e-12, "%.5f"},
	stats.MapDepth:     {"uK-arcmin", 1e6, "%.4f"},
}

// UnitOf returns the display unit of c.
func UnitOf(c stats.Column) Unit { return units[c] }

// Header returns "Name [unit]" for c.
func Header(c stats.Column) string {
	u := units[c]
	if u.Label == "" {
		return c.String()
	}
	return fmt.Sprintf("%s [%s]", c.String(), u.Label)
}

// Cell formats e in the display unit of c.
func Cell(c stats.Column, e stats.Estimate) string {
	u := units[c]
	s := e.Scale(u.Scale)
	return fmt.Sprintf(u.Format+" ± "+u.Format, s.Mean, s.Std)
}
