package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel cell values.
const (
	NA   = "NA"
	PDF  = "PDF"
	BAND = "BAND"
)

// ParseOptions tells Parse how to resolve references a cell may contain.
type ParseOptions struct {
	// Bands are the band IDs a "[a, b, ...]" vector maps onto, in order.
	Bands []string

	// LoadPDF returns the distribution referenced by a "PDF" cell.
	LoadPDF func() (*Distribution, error)
}

// Parse turns a configuration cell into a Parameter. "BAND" cells are
// resolved by the caller and are rejected here.
func Parse(spec Spec, cell string, opts ParseOptions) (*Parameter, error) {
	cell = strings.TrimSpace(cell)
	if strings.HasPrefix(cell, "[") && strings.HasSuffix(cell, "]") {
		inner := strings.TrimSpace(cell[1 : len(cell)-1])
		parts := strings.Split(inner, ",")
		if len(opts.Bands) == 0 {
			return nil, fmt.Errorf("%w: %s: vector %q outside a multi-band context", ErrMalformed, spec.Name, cell)
		}
		if len(parts) != len(opts.Bands) {
			return nil, fmt.Errorf("%w: %s: vector %q has %d entries for %d bands",
				ErrMalformed, spec.Name, cell, len(parts), len(opts.Bands))
		}
		entries := make([]Entry, len(parts))
		for i, part := range parts {
			e, err := parseEntry(spec.Name, part, opts)
			if err != nil {
				return nil, err
			}
			entries[i] = e
		}
		return NewVector(spec, opts.Bands, entries)
	}

	e, err := parseEntry(spec.Name, cell, opts)
	if err != nil {
		return nil, err
	}
	return New(spec, e)
}

func parseEntry(name, cell string, opts ParseOptions) (Entry, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToUpper(cell) {
	case "", NA:
		return Empty, nil
	case PDF:
		if opts.LoadPDF == nil {
			return Empty, fmt.Errorf("%w: %s: PDF not supported here", ErrMalformed, name)
		}
		d, err := opts.LoadPDF()
		if err != nil {
			return Empty, fmt.Errorf("%s: %w", name, err)
		}
		return DistEntry(d), nil
	case BAND:
		return Empty, fmt.Errorf("%w: %s: BAND must be resolved by the caller", ErrMalformed, name)
	}

	if avgStr, stdStr, ok := strings.Cut(cell, "+/-"); ok {
		avg, err := parseFloat(name, avgStr)
		if err != nil {
			return Empty, err
		}
		std, err := parseFloat(name, stdStr)
		if err != nil {
			return Empty, err
		}
		return SpreadEntry(avg, std), nil
	}

	v, err := parseFloat(name, cell)
	if err != nil {
		return Empty, err
	}
	return FixedEntry(v), nil
}

func parseFloat(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", ErrMalformed, name, s)
	}
	return v, nil
}

// FileName returns the conventional PDF file name for a parameter name:
// lowercased, spaces replaced by underscores, unit annotation dropped.
func FileName(name string) string {
	if i := strings.Index(name, "["); i > 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(strings.TrimRight(name, "*"))
	return strings.ReplaceAll(strings.ToLower(name), " ", "_") + ".txt"
}
