package optics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateElement indicates two optics with the same element name.
var ErrDuplicateElement = errors.New("optics: duplicate element")

// Chain is the ordered list of a camera's optics, sky side first.
type Chain struct {
	Optics []*Optic
}

// NewChain validates that element names are unique.
func NewChain(optics []*Optic) (*Chain, error) {
	seen := make(map[string]bool, len(optics))
	for _, o := range optics {
		key := strings.ToLower(o.Element)
		if seen[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateElement, o.Element)
		}
		seen[key] = true
	}
	return &Chain{Optics: append([]*Optic(nil), optics...)}, nil
}

// Find returns the optic named element, or nil.
func (c *Chain) Find(element string) *Optic {
	for _, o := range c.Optics {
		if strings.EqualFold(o.Element, element) {
			return o
		}
	}
	return nil
}

// With returns a copy of the chain with the named optic replaced.
func (c *Chain) With(o *Optic) *Chain {
	n := &Chain{Optics: append([]*Optic(nil), c.Optics...)}
	for i, old := range n.Optics {
		if strings.EqualFold(old.Element, o.Element) {
			n.Optics[i] = o
		}
	}
	return n
}

// Generate evaluates every optic in order and returns the stacked arrays.
func (c *Chain) Generate(ctx Context) (*Stack, error) {
	s := NewStack()
	for _, o := range c.Optics {
		octx := ctx
		if ctx.RngFor != nil {
			octx.Rng = ctx.RngFor(o.Element)
		}
		el, err := o.Generate(octx)
		if err != nil {
			return nil, err
		}
		if o.Shape == ApertureStop && s.ApertureIndex < 0 {
			s.ApertureIndex = s.Len()
		}
		s.Append(el)
	}
	return s, nil
}
