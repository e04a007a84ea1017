package param

import "strconv"

// Value is a realized scalar: either a number or unset ("NA").
// Tree nodes resolve every Parameter into a Value once per realization.
type Value struct {
	v   float64
	set bool
}

// Unset is the zero Value.
var Unset Value

// Set returns a Value holding v.
func Set(v float64) Value { return Value{v: v, set: true} }

func (v Value) IsSet() bool { return v.set }

// Get returns the number and whether it is set.
func (v Value) Get() (float64, bool) { return v.v, v.set }

// Or returns the number, or def when unset.
func (v Value) Or(def float64) float64 {
	if !v.set {
		return def
	}
	return v.v
}

func (v Value) String() string {
	if !v.set {
		return "NA"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}
