package display

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/san-kum/bolocalc/internal/stats"
)

// FileName is the sensitivity table written at every level.
const FileName = "sensitivity.txt"

// WriteTable writes t as a fixed-width pipe table. The first column is
// the channel name.
func WriteTable(w io.Writer, t *stats.Table) error {
	header := []string{"Channel"}
	for c := stats.Column(0); c < stats.NumColumns; c++ {
		header = append(header, Header(c))
	}
	rows := [][]string{header}
	for _, r := range t.Rows() {
		row := []string{r.Key.Channel}
		for c, v := range r.Values {
			row = append(row, Cell(stats.Column(c), v))
		}
		rows = append(rows, row)
	}
	return writeFixed(w, rows, 1)
}

// writeFixed pads every column to its widest cell and draws a rule after
// the first headerRows rows.
func writeFixed(w io.Writer, rows [][]string, headerRows int) error {
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, c := range r {
			if n := utf8.RuneCountInString(c); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}
	total := 0
	for _, wd := range widths {
		total += wd + 3
	}

	var b strings.Builder
	for n, r := range rows {
		for i, c := range r {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(c)
			if i < len(r)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)))
			}
		}
		b.WriteString("\n")
		if n == headerRows-1 {
			b.WriteString(strings.Repeat("-", total-3))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteReport writes sensitivity.txt at the experiment root, in every
// telescope directory and in every camera directory. It returns the
// paths written.
func WriteReport(expDir string, rep *stats.Report) ([]string, error) {
	var paths []string
	write := func(dir string, t *stats.Table) error {
		p := filepath.Join(dir, FileName)
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		if err := WriteTable(f, t); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", p, err)
		}
		paths = append(paths, p)
		return f.Close()
	}

	for _, t := range rep.Cameras {
		k := t.Keys()[0]
		if err := write(filepath.Join(expDir, k.Telescope, k.Camera), t); err != nil {
			return paths, err
		}
	}
	for _, t := range rep.Telescopes {
		if err := write(filepath.Join(expDir, t.Keys()[0].Telescope), t); err != nil {
			return paths, err
		}
	}
	if err := write(expDir, rep.Experiment); err != nil {
		return paths, err
	}
	return paths, nil
}
