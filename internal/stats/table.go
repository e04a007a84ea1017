package stats

import (
	"fmt"
	"math"
	"strings"
)

// Key identifies one channel.
type Key struct {
	Telescope string
	Camera    string
	Channel   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Telescope, k.Camera, k.Channel)
}

// Column is one sensitivity quantity.
type Column int

const (
	Frequency Column = iota
	FracBW
	NumDet
	StopEff
	Popt
	NEPph
	NEPbolo
	NEPrd
	NEP
	NET
	NETarr
	MappingSpeed
	MapDepth

	NumColumns
)

var columnNames = [NumColumns]string{
	"Frequency", "Frac Bandwidth", "Num Det", "Stop Efficiency", "Optical Power",
	"Photon NEP", "Bolometer NEP", "Readout NEP", "Detector NEP", "Detector NET",
	"Array NET", "Mapping Speed", "Map Depth",
}

var shortNames = [NumColumns]string{
	"freq", "fbw", "ndet", "stopeff", "popt", "nepph", "nepbolo", "neprd",
	"nep", "net", "netarr", "ms", "depth",
}

// ParseColumn finds a column by its name or short name, ignoring case.
func ParseColumn(name string) (Column, bool) {
	for c := Column(0); c < NumColumns; c++ {
		if strings.EqualFold(name, columnNames[c]) || strings.EqualFold(name, shortNames[c]) {
			return c, true
		}
	}
	return 0, false
}

func (c Column) String() string {
	if c < 0 || c >= NumColumns {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnNames[c]
}

// Row is the sensitivity of one channel, or of a fold of channels.
type Row struct {
	Key    Key
	Values [NumColumns]Estimate
}

// Table is an ordered set of rows keyed by channel.
type Table struct {
	keys []Key
	rows map[Key]*Row
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rows: make(map[Key]*Row)}
}

// Add inserts or replaces a row. New keys keep insertion order.
func (t *Table) Add(r Row) {
	if _, ok := t.rows[r.Key]; !ok {
		t.keys = append(t.keys, r.Key)
	}
	row := r
	t.rows[r.Key] = &row
}

// Get returns the row for k.
func (t *Table) Get(k Key) (Row, bool) {
	r, ok := t.rows[k]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []Key { return append([]Key(nil), t.keys...) }

// Rows returns the rows in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.keys))
	for i, k := range t.keys {
		out[i] = *t.rows[k]
	}
	return out
}

func (t *Table) Len() int { return len(t.keys) }

// Combine merges tables of the same channels from independent
// realizations with Across.
func Combine(tables []*Table) (*Table, error) {
	out := NewTable()
	if len(tables) == 0 {
		return out, nil
	}
	for _, k := range tables[0].keys {
		row := Row{Key: k}
		for c := Column(0); c < NumColumns; c++ {
			es := make([]Estimate, len(tables))
			for i, t := range tables {
				r, ok := t.rows[k]
				if !ok {
					return nil, fmt.Errorf("stats: realization %d has no row %s", i, k)
				}
				es[i] = r.Values[c]
			}
			row.Values[c] = Across(es)
		}
		out.Add(row)
	}
	return out, nil
}

// InverseVariance folds rows into one: array NET and map depth combine
// as 1/sqrt(sum 1/x^2) with first-order error propagation, mapping speed
// and detector counts add, and every other column is averaged.
func InverseVariance(key Key, rows []Row) Row {
	out := Row{Key: key}
	if len(rows) == 0 {
		return out
	}
	for c := Column(0); c < NumColumns; c++ {
		es := make([]Estimate, len(rows))
		for i, r := range rows {
			es[i] = r.Values[c]
		}
		switch c {
		case NETarr, MapDepth:
			out.Values[c] = inverseQuadrature(es)
		case MappingSpeed, NumDet:
			out.Values[c] = sum(es)
		default:
			out.Values[c] = average(es)
		}
	}
	return out
}

func inverseQuadrature(es []Estimate) Estimate {
	w := 0.0
	for _, e := range es {
		if e.Mean == 0 || math.IsInf(e.Mean, 0) {
			continue
		}
		w += 1 / (e.Mean * e.Mean)
	}
	if w == 0 {
		return Estimate{Mean: math.Inf(1)}
	}
	m := 1 / math.Sqrt(w)
	v := 0.0
	for _, e := range es {
		if e.Mean == 0 || math.IsInf(e.Mean, 0) {
			continue
		}
		d := m * m * m / (e.Mean * e.Mean * e.Mean) * e.Std
		v += d * d
	}
	return Estimate{Mean: m, Std: math.Sqrt(v)}
}

func sum(es []Estimate) Estimate {
	var m, v float64
	for _, e := range es {
		m += e.Mean
		v += e.Std * e.Std
	}
	return Estimate{Mean: m, Std: math.Sqrt(v)}
}

func average(es []Estimate) Estimate {
	var m, s float64
	for _, e := range es {
		m += e.Mean
		s += e.Std
	}
	n := float64(len(es))
	return Estimate{Mean: m / n, Std: s / n}
}
