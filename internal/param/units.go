package param

import (
	"fmt"
	"strings"
)

// Unit converts between display units and SI.
type Unit struct {
	Name   string
	Factor float64
}

var unitFactors = map[string]float64{
	"":         1,
	"NA":       1,
	"Hz":       1,
	"MHz":      1e6,
	"GHz":      1e9,
	"W":        1,
	"pW":       1e-12,
	"m":        1,
	"mm":       1e-3,
	"um":       1e-6,
	"K":        1,
	"mK":       1e-3,
	"deg":      1,
	"years":    1,
	"A/rtHz":   1,
	"pA/rtHz":  1e-12,
	"Ohm":      1,
	"mOhm":     1e-3,
	"1e-4":     1e-4,
	"1e6 S/m":  1e6,
	"um RMS":   1e-6,
	"K_RJ":     1,
	"Kcmb-rts": 1,
}

// Dimensionless is the identity unit.
var Dimensionless = Unit{Name: "NA", Factor: 1}

// LookupUnit returns the unit named name.
func LookupUnit(name string) (Unit, error) {
	name = strings.TrimSpace(name)
	f, ok := unitFactors[name]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return Unit{Name: name, Factor: f}, nil
}

// MustUnit is LookupUnit for unit names known at compile time.
func MustUnit(name string) Unit {
	u, err := LookupUnit(name)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Unit) ToSI(v float64) float64 {
	if u.Factor == 0 {
		return v
	}
	return v * u.Factor
}

func (u Unit) FromSI(v float64) float64 {
	if u.Factor == 0 {
		return v
	}
	return v / u.Factor
}
