package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/bolocalc/internal/stats"
)

// ExportRow is the JSON form of one table row.
type ExportRow struct {
	Telescope string                    `json:"telescope,omitempty"`
	Camera    string                    `json:"camera,omitempty"`
	Channel   string                    `json:"channel"`
	Values    map[string]stats.Estimate `json:"values"`
}

// ExportJSON writes t as an indented JSON array of rows.
func ExportJSON(w io.Writer, t *stats.Table) error {
	rows := make([]ExportRow, 0, t.Len())
	for _, r := range t.Rows() {
		er := ExportRow{
			Telescope: r.Key.Telescope,
			Camera:    r.Key.Camera,
			Channel:   r.Key.Channel,
			Values:    make(map[string]stats.Estimate, stats.NumColumns),
		}
		for c, v := range r.Values {
			er.Values[stats.Column(c).String()] = v
		}
		rows = append(rows, er)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}
