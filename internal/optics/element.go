package optics

import "github.com/san-kum/bolocalc/internal/physics"

// Element is one realized element of a stack.
type Element struct {
	Name        string
	Emissivity  []float64
	Efficiency  []float64
	Temperature []float64
}

// Uniform returns an element with constant arrays over n points.
func Uniform(name string, n int, emiss, eff, temp float64) Element {
	e := Element{
		Name:        name,
		Emissivity:  make([]float64, n),
		Efficiency:  make([]float64, n),
		Temperature: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		e.Emissivity[i] = emiss
		e.Efficiency[i] = eff
		e.Temperature[i] = temp
	}
	return e
}

// PowerSpectrum returns the element's emitted power spectral density
// before any downstream losses.
func (e Element) PowerSpectrum(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = physics.BBPowSpec(f, e.Temperature[i], e.Emissivity[i])
	}
	return out
}

// Stack is an ordered list of elements from the sky to the detector.
// ApertureIndex is the index of the aperture stop, or -1.
type Stack struct {
	Elements      []Element
	ApertureIndex int
}

// NewStack returns an empty stack.
func NewStack() *Stack { return &Stack{ApertureIndex: -1} }

// Append adds elements detector-side of the current last element.
func (s *Stack) Append(elems ...Element) {
	s.Elements = append(s.Elements, elems...)
}

// AppendStack appends another stack, carrying over its aperture index.
func (s *Stack) AppendStack(o *Stack) {
	if o.ApertureIndex >= 0 && s.ApertureIndex < 0 {
		s.ApertureIndex = len(s.Elements) + o.ApertureIndex
	}
	s.Elements = append(s.Elements, o.Elements...)
}

func (s *Stack) Len() int { return len(s.Elements) }

// Names returns the element names in order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		names[i] = e.Name
	}
	return names
}

// Downstream returns, per frequency, the product of the efficiencies of
// every element after index i.
func (s *Stack) Downstream(i int) []float64 {
	if len(s.Elements) == 0 {
		return nil
	}
	n := len(s.Elements[0].Efficiency)
	out := make([]float64, n)
	for k := range out {
		out[k] = 1
	}
	for j := i + 1; j < len(s.Elements); j++ {
		eff := s.Elements[j].Efficiency
		for k := range out {
			out[k] *= eff[k]
		}
	}
	return out
}

// Index returns the index of the first element named name, or -1.
func (s *Stack) Index(name string) int {
	for i, e := range s.Elements {
		if e.Name == name {
			return i
		}
	}
	return -1
}
