package vary

import (
	"fmt"
	"math"
)

// Arange returns min, min+step, ... up to and including max. A point
// within 1e-9 steps of max counts as max.
func Arange(min, max, step float64) ([]float64, error) {
	if !(step > 0) || max < min {
		return nil, fmt.Errorf("%w: min %g, max %g, step %g", ErrBadRange, min, max, step)
	}
	n := int(math.Floor((max-min)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out, nil
}

// Cartesian returns every combination of arrs as [point][target]. The
// first array varies slowest.
func Cartesian(arrs [][]float64) [][]float64 {
	total := 1
	for _, a := range arrs {
		total *= len(a)
	}
	if len(arrs) == 0 || total == 0 {
		return nil
	}
	points := make([][]float64, total)
	for i := range points {
		points[i] = make([]float64, len(arrs))
	}
	inner := total
	for k, a := range arrs {
		inner /= len(a)
		repeat := inner
		tile := total / (repeat * len(a))
		i := 0
		for t := 0; t < tile; t++ {
			for _, v := range a {
				for r := 0; r < repeat; r++ {
					points[i][k] = v
					i++
				}
			}
		}
	}
	return points
}

// Together pairs the i-th value of every array.
func Together(arrs [][]float64) ([][]float64, error) {
	if len(arrs) == 0 {
		return nil, nil
	}
	n := len(arrs[0])
	for k, a := range arrs {
		if len(a) != n {
			return nil, fmt.Errorf("%w: target 1 has %d points, target %d has %d", ErrTogetherLength, n, k+1, len(a))
		}
	}
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, len(arrs))
		for k, a := range arrs {
			points[i][k] = a[i]
		}
	}
	return points, nil
}
