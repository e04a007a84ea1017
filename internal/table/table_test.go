package table

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseTable(t *testing.T) {
	src := `
# channels
Band ID | Band Center [GHz] | Fractional BW
[NA] | [GHz] | [NA]
MF1 | 90 +/- 1 | 0.3
MF2 | 150 | 0.25
`
	tbl, err := Parse(strings.NewReader(src), "channels.txt")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(tbl.Header) != 3 || tbl.Header[1] != "Band Center" {
		t.Errorf("Header = %v", tbl.Header)
	}
	if len(tbl.Units) != 3 {
		t.Errorf("Units = %v, want 3 cells", tbl.Units)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(tbl.Rows))
	}
	if got := tbl.Cell(0, "band center"); got != "90 +/- 1" {
		t.Errorf("Cell = %q", got)
	}
	if got := tbl.Cell(1, "Psat"); got != "NA" {
		t.Errorf("missing column Cell = %q, want NA", got)
	}
}

func TestParseTableVectorCellIsNotUnits(t *testing.T) {
	src := "Element | Absorption\n[0.1, 0.2] | 0.3\n"
	tbl, err := Parse(strings.NewReader(src), "optics.txt")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if tbl.Units != nil || len(tbl.Rows) != 1 {
		t.Errorf("vector cell mistaken for units row: units=%v rows=%v", tbl.Units, tbl.Rows)
	}
}

func TestParseTableRaggedRow(t *testing.T) {
	_, err := Parse(strings.NewReader("A | B\n1\n"), "x.txt")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestParseKeyValue(t *testing.T) {
	src := "Parameter | Value\nSite | Atacama\nElevation [deg] | 50 +/- 5\n"
	kv, err := ParseKeyValue(strings.NewReader(src), "telescope.txt")
	if err != nil {
		t.Fatalf("ParseKeyValue() error: %v", err)
	}
	if len(kv.Keys) != 2 {
		t.Fatalf("Keys = %v", kv.Keys)
	}
	if v, ok := kv.Get("Elevation"); !ok || v != "50 +/- 5" {
		t.Errorf("Get(Elevation) = %q, %v", v, ok)
	}
}

func TestParseKeyValueDuplicate(t *testing.T) {
	_, err := ParseKeyValue(strings.NewReader("Site | A\nSite | B\n"), "t.txt")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestParseColumns(t *testing.T) {
	src := "Freq Eff\n100, 0.5\n101 | 0.6\n102\t0.7\n"
	cols, err := ParseColumns(strings.NewReader(src), "band.txt", 2)
	if err != nil {
		t.Fatalf("ParseColumns() error: %v", err)
	}
	if len(cols) != 2 || len(cols[0]) != 3 {
		t.Fatalf("cols shape = %d x %d", len(cols), len(cols[0]))
	}
	if math.Abs(cols[1][2]-0.7) > 1e-12 {
		t.Errorf("cols[1][2] = %v", cols[1][2])
	}
}

func TestParseColumnsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "# nothing\n"},
		{"too few columns", "1\n2\n"},
		{"text after data", "1 2\nx y\n"},
		{"ragged", "1 2\n1 2 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseColumns(strings.NewReader(tt.src), "f", 2); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestStripUnit(t *testing.T) {
	if got := StripUnit("Psat [pW]"); got != "Psat" {
		t.Errorf("StripUnit = %q", got)
	}
	if got := StripUnit("Pixel Size**"); got != "Pixel Size**" {
		t.Errorf("StripUnit = %q", got)
	}
}
