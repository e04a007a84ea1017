package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/bolocalc/internal/stats"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	TotalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))
)

// summaryColumns are the columns shown in the terminal summary.
var summaryColumns = []stats.Column{
	stats.Frequency, stats.NumDet, stats.Popt, stats.NET, stats.NETarr, stats.MapDepth,
}

// Summary renders the headline columns of t in a bordered panel.
func Summary(title string, t *stats.Table) string {
	cols := make([][]string, len(summaryColumns)+1)
	cols[0] = []string{HeaderStyle.Render("Channel")}
	for i, c := range summaryColumns {
		cols[i+1] = []string{HeaderStyle.Render(Header(c))}
	}
	for _, r := range t.Rows() {
		style := Value
		name := Label.Render(r.Key.Channel)
		if r.Key.Channel == stats.TotalName {
			style = TotalStyle
			name = TotalStyle.Render(r.Key.Channel)
		}
		cols[0] = append(cols[0], name)
		for i, c := range summaryColumns {
			cols[i+1] = append(cols[i+1], style.Render(Cell(c, r.Values[c])))
		}
	}

	blocks := make([]string, len(cols))
	for i, c := range cols {
		blocks[i] = lipgloss.NewStyle().PaddingRight(2).Render(strings.Join(c, "\n"))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, Title.Render(title), body))
}
