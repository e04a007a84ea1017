package param

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/bolocalc/internal/table"
)

// Distribution is an empirical PDF over display-unit values.
type Distribution struct {
	values []float64
	probs  []float64
	cum    []float64
}

// NewDistribution builds a distribution from (value, probability) pairs.
// Negative probabilities are clamped to zero before normalization.
func NewDistribution(values, probs []float64) (*Distribution, error) {
	if len(values) == 0 || len(values) != len(probs) {
		return nil, fmt.Errorf("%w: distribution needs equal-length, non-empty value and probability columns", ErrMalformed)
	}

	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	d := &Distribution{
		values: make([]float64, len(values)),
		probs:  make([]float64, len(values)),
		cum:    make([]float64, len(values)),
	}
	total := 0.0
	for i, j := range idx {
		p := probs[j]
		if p < 0 || math.IsNaN(p) {
			p = 0
		}
		d.values[i] = values[j]
		d.probs[i] = p
		total += p
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: distribution probabilities sum to zero", ErrMalformed)
	}
	run := 0.0
	for i := range d.probs {
		d.probs[i] /= total
		run += d.probs[i]
		d.cum[i] = run
	}
	d.cum[len(d.cum)-1] = 1
	return d, nil
}

// LoadDistribution reads a two-column "value | probability" file.
func LoadDistribution(path string) (*Distribution, error) {
	cols, err := table.Columns(path, 2)
	if err != nil {
		return nil, err
	}
	d, err := NewDistribution(cols[0], cols[1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *Distribution) Values() []float64 { return append([]float64(nil), d.values...) }
func (d *Distribution) Probs() []float64  { return append([]float64(nil), d.probs...) }

func (d *Distribution) Min() float64 { return d.values[0] }
func (d *Distribution) Max() float64 { return d.values[len(d.values)-1] }

func (d *Distribution) Mean() float64 {
	m := 0.0
	for i, v := range d.values {
		m += v * d.probs[i]
	}
	return m
}

func (d *Distribution) Std() float64 {
	mean := d.Mean()
	v := 0.0
	for i, x := range d.values {
		v += d.probs[i] * (x - mean) * (x - mean)
	}
	return math.Sqrt(v)
}

// Percentile returns the smallest value whose cumulative probability
// reaches p percent.
func (d *Distribution) Percentile(p float64) float64 {
	q := p / 100
	i := sort.SearchFloat64s(d.cum, q)
	if i >= len(d.values) {
		i = len(d.values) - 1
	}
	return d.values[i]
}

func (d *Distribution) Median() float64 { return d.Percentile(50) }

// Sample draws n values by weighted choice. A distribution with zero
// spread returns its single value without consuming random numbers.
func (d *Distribution) Sample(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	if d.Std() == 0 {
		v := d.Mean()
		for i := range out {
			out[i] = v
		}
		return out
	}
	for i := range out {
		u := rng.Float64()
		j := sort.Search(len(d.cum), func(k int) bool { return d.cum[k] > u })
		if j >= len(d.values) {
			j = len(d.values) - 1
		}
		out[i] = d.values[j]
	}
	return out
}
