// Package table reads the pipe-delimited text files that describe an
// experiment: sibling tables (one row per channel or optic), key/value
// files (one row per parameter) and numeric column files (band, PDF and
// atmosphere data).
package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed indicates a file whose rows cannot be interpreted.
var ErrMalformed = errors.New("table: malformed file")

// Table is a header row, an optional units row and data rows.
type Table struct {
	Path   string
	Header []string
	Units  []string
	Rows   [][]string
}

// Read loads a sibling table from path.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a table from r. path is used in error messages only.
func Parse(r io.Reader, path string) (*Table, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrMalformed, path)
	}

	t := &Table{Path: path, Header: splitRow(lines[0])}
	for i, name := range t.Header {
		t.Header[i] = stripUnit(name)
	}
	rest := lines[1:]
	if len(rest) > 0 && isUnitsRow(rest[0]) {
		t.Units = splitRow(rest[0])
		rest = rest[1:]
	}
	for n, line := range rest {
		row := splitRow(line)
		if len(row) != len(t.Header) {
			return nil, fmt.Errorf("%w: %s: row %d has %d cells, header has %d",
				ErrMalformed, path, n+1, len(row), len(t.Header))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if strings.EqualFold(h, name) {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the cell of row in the named column, or "NA" if the
// column is absent.
func (t *Table) Cell(row int, name string) string {
	i, ok := t.Column(name)
	if !ok {
		return "NA"
	}
	return t.Rows[row][i]
}

// KeyValue is an ordered set of "Parameter | Value" rows.
type KeyValue struct {
	Path   string
	Keys   []string
	values map[string]string
}

// ReadKeyValue loads a key/value file. A leading "Parameter | Value"
// header row is optional.
func ReadKeyValue(path string) (*KeyValue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseKeyValue(f, path)
}

func ParseKeyValue(r io.Reader, path string) (*KeyValue, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	kv := &KeyValue{Path: path, values: make(map[string]string)}
	for n, line := range lines {
		row := splitRow(line)
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: %s: line %d needs a key and a value", ErrMalformed, path, n+1)
		}
		key := stripUnit(row[0])
		if n == 0 && strings.EqualFold(key, "Parameter") {
			continue
		}
		if _, dup := kv.values[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate key %q", ErrMalformed, path, key)
		}
		kv.Keys = append(kv.Keys, key)
		kv.values[key] = row[1]
	}
	return kv, nil
}

// Get returns the value for key and whether it is present.
func (kv *KeyValue) Get(key string) (string, bool) {
	v, ok := kv.values[key]
	return v, ok
}

// Columns reads a numeric file with at least minCols columns. Cells may be
// separated by pipes, commas or whitespace. Non-numeric leading lines are
// treated as headers and skipped.
func Columns(path string, minCols int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseColumns(f, path, minCols)
}

func ParseColumns(r io.Reader, path string, minCols int) ([][]float64, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var cols [][]float64
	started := false
	for n, line := range lines {
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == '|' || r == ',' || r == ' ' || r == '\t'
		})
		vals := make([]float64, 0, len(fields))
		ok := true
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			if started {
				return nil, fmt.Errorf("%w: %s: line %d is not numeric", ErrMalformed, path, n+1)
			}
			continue
		}
		if len(vals) < minCols {
			return nil, fmt.Errorf("%w: %s: line %d has %d columns, need %d",
				ErrMalformed, path, n+1, len(vals), minCols)
		}
		if cols == nil {
			cols = make([][]float64, len(vals))
		}
		if len(vals) != len(cols) {
			return nil, fmt.Errorf("%w: %s: line %d has %d columns, expected %d",
				ErrMalformed, path, n+1, len(vals), len(cols))
		}
		for i, v := range vals {
			cols[i] = append(cols[i], v)
		}
		started = true
	}
	if !started {
		return nil, fmt.Errorf("%w: %s: no numeric rows", ErrMalformed, path)
	}
	return cols, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isUnitsRow(line string) bool {
	first := splitRow(line)[0]
	return strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]") && !strings.Contains(first, ",")
}

// stripUnit removes a trailing "[unit]" annotation from a header name.
func stripUnit(name string) string {
	if i := strings.Index(name, "["); i > 0 && strings.HasSuffix(name, "]") {
		return strings.TrimSpace(name[:i])
	}
	return strings.TrimSpace(name)
}

// StripUnit is exported for sweep specs, whose parameter cells may carry
// a unit annotation.
func StripUnit(name string) string { return stripUnit(name) }
