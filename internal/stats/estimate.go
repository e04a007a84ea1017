package stats

import (
	"fmt"
	"math"
	"sort"
)

// Estimate is a mean and its spread.
type Estimate struct {
	Mean float64
	Std  float64
}

func (e Estimate) String() string {
	return fmt.Sprintf("%g ± %g", e.Mean, e.Std)
}

// Scale returns e multiplied by k.
func (e Estimate) Scale(k float64) Estimate {
	return Estimate{Mean: e.Mean * k, Std: math.Abs(e.Std * k)}
}

// Within returns the mean and population standard deviation of xs.
func Within(xs []float64) Estimate {
	if len(xs) == 0 {
		return Estimate{}
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if len(xs) == 1 {
		return Estimate{Mean: mean}
	}
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return Estimate{Mean: mean, Std: math.Sqrt(ss / float64(len(xs)))}
}

// Across combines per-realization estimates: the mean of the means, and
// sqrt(mean(std^2)) plus the standard deviation of the means.
func Across(es []Estimate) Estimate {
	if len(es) == 0 {
		return Estimate{}
	}
	means := make([]float64, len(es))
	ms := 0.0
	for i, e := range es {
		means[i] = e.Mean
		ms += e.Std * e.Std
	}
	m := Within(means)
	return Estimate{Mean: m.Mean, Std: math.Sqrt(ms/float64(len(es))) + m.Std}
}

// Percentile returns the p-th percentile of xs by linear interpolation
// between order statistics.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		return s[0]
	}
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := pos - float64(lo)
	return s[lo] + frac*(s[lo+1]-s[lo])
}
