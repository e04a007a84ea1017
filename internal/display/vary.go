package display

import (
	"io"
	"strconv"

	"github.com/san-kum/bolocalc/internal/stats"
)

// Target names one swept parameter for the vary table header.
type Target struct {
	Telescope string
	Camera    string
	Channel   string
	Optic     string
	Param     string
}

// VaryTable is the result of a sweep: the swept value of every target
// and the channel rows at every grid point.
type VaryTable struct {
	Targets  []Target
	Channels []stats.Key
	Values   [][]float64   // [point][target]
	Rows     [][]stats.Row // [point][channel]
}

// WriteVary writes column c of v. Five header rows identify the swept
// targets and the channels, then one row follows per grid point.
func WriteVary(w io.Writer, v *VaryTable, c stats.Column) error {
	labels := []string{"Telescope", "Camera", "Channel", "Optic", "Parameter"}
	pick := func(t Target, i int) string {
		s := [...]string{t.Telescope, t.Camera, t.Channel, t.Optic, t.Param}[i]
		if s == "" {
			return "-"
		}
		return s
	}

	var rows [][]string
	for i, l := range labels {
		row := make([]string, 0, len(v.Targets)+len(v.Channels))
		for _, t := range v.Targets {
			row = append(row, pick(t, i))
		}
		for _, k := range v.Channels {
			switch i {
			case 0:
				row = append(row, k.Telescope)
			case 1:
				row = append(row, k.Camera)
			case 2:
				row = append(row, k.Channel)
			case 3:
				row = append(row, "-")
			default:
				row = append(row, Header(c))
			}
		}
		row[0] = l + ": " + row[0]
		rows = append(rows, row)
	}
	for p, vals := range v.Values {
		row := make([]string, 0, len(vals)+len(v.Channels))
		for _, x := range vals {
			row = append(row, strconv.FormatFloat(x, 'g', 6, 64))
		}
		for _, r := range v.Rows[p] {
			row = append(row, Cell(c, r.Values[c]))
		}
		rows = append(rows, row)
	}
	return writeFixed(w, rows, len(labels))
}
