package physics

import (
	"errors"
	"fmt"
	"math"
)

const (
	H    = 6.6261e-34     // Planck constant [J s]
	KB   = 1.3806e-23     // Boltzmann constant [J/K]
	C    = 2.99792458e8   // speed of light [m/s]
	Eps0 = 8.85418782e-12 // vacuum permittivity [F/m]
	TCMB = 2.725          // CMB temperature [K]
)

// ErrBadGrid indicates a band whose frequency grid would be empty.
var ErrBadGrid = errors.New("physics: invalid frequency grid")

// Lambda returns the wavelength of f.
func Lambda(f float64) float64 { return C / f }

// OccupationNumber returns the Bose-Einstein photon occupation number.
func OccupationNumber(f, temp float64) float64 {
	if temp <= 0 {
		return 0
	}
	return 1 / math.Expm1(H*f/(KB*temp))
}

// BBSpecRad returns the blackbody spectral radiance [W/(m^2 sr Hz)].
func BBSpecRad(f, temp, emiss float64) float64 {
	return emiss * 2 * H * f * f * f / (C * C) * OccupationNumber(f, temp)
}

// BBPowSpec returns the power spectral density [W/Hz] received by a
// single-moded, single-polarization detector from a grey body.
func BBPowSpec(f, temp, emiss float64) float64 {
	return emiss * H * f * OccupationNumber(f, temp)
}

// AniPowSpec returns dP/dT [W/(Hz K)] of BBPowSpec at temp.
func AniPowSpec(f, temp, emiss float64) float64 {
	if temp <= 0 {
		return 0
	}
	x := H * f / (KB * temp)
	e := math.Exp(x)
	return emiss * (H * f) * (H * f) / (KB * temp * temp) * e / ((e - 1) * (e - 1))
}

// PlanckTemp returns the physical temperature whose blackbody power
// spectrum equals that of a Rayleigh-Jeans temperature trj at f.
func PlanckTemp(f, trj float64) float64 {
	if trj <= 0 {
		return 0
	}
	return H * f / KB / math.Log1p(H*f/(KB*trj))
}

// DielectricLoss returns the absorption of a slab of thickness thick [m],
// refractive index n and loss tangent tanD.
func DielectricLoss(f, thick, n, tanD float64) float64 {
	return 1 - math.Exp(-2*math.Pi*n*thick*tanD*f/C)
}

// OhmicEff returns the reflection efficiency of a metal of conductivity
// sigma [S/m].
func OhmicEff(f, sigma float64) float64 {
	if sigma <= 0 {
		return 1
	}
	return 1 - 4*math.Sqrt(math.Pi*f*Eps0/sigma)
}

// RuzeEff returns the Ruze efficiency of a surface with RMS roughness
// rough [m].
func RuzeEff(f, rough float64) float64 {
	x := 4 * math.Pi * rough * f / C
	return math.Exp(-x * x)
}

// SpillEff returns the fraction of a Gaussian beam launched by a pixel of
// size pixel [m] that passes an aperture stop at F-number fNum.
func SpillEff(f, pixel, fNum, waistFactor float64) float64 {
	x := pixel / (waistFactor * fNum * Lambda(f))
	return 1 - math.Exp(-math.Pi*math.Pi/2*x*x)
}

// BandEdges returns the lower and upper edges of a band.
func BandEdges(center, fbw float64) (lo, hi float64) {
	return center * (1 - fbw/2), center * (1 + fbw/2)
}

// Grid is the frequency sampling of one channel. Mask flags the in-band
// points used for band averages.
type Grid struct {
	Freqs []float64
	Mask  []bool
	Lo    float64
	Hi    float64
}

// gridSpan is the half-width of the grid in units of the bandwidth.
const gridSpan = 0.65

// NewGrid samples center ± 65% of the bandwidth at resolution res.
func NewGrid(center, fbw, res float64) (Grid, error) {
	lo := center * (1 - gridSpan*fbw)
	hi := center * (1 + gridSpan*fbw)
	if !(lo < hi) || res <= 0 || lo <= 0 {
		return Grid{}, fmt.Errorf("%w: center %g Hz, fractional bandwidth %g, resolution %g Hz",
			ErrBadGrid, center, fbw, res)
	}
	n := int(math.Floor((hi-lo)/res)) + 1
	if n < 2 {
		n = 2
		res = hi - lo
	}
	bLo, bHi := BandEdges(center, fbw)
	g := Grid{Freqs: make([]float64, n), Mask: make([]bool, n), Lo: bLo, Hi: bHi}
	for i := range g.Freqs {
		f := lo + float64(i)*res
		g.Freqs[i] = f
		g.Mask[i] = f >= bLo && f <= bHi
	}
	return g, nil
}

// BandAverage returns the mean of y over the in-band points.
func (g Grid) BandAverage(y []float64) float64 {
	sum, n := 0.0, 0
	for i, in := range g.Mask {
		if in {
			sum += y[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TopHat returns a band of height eff inside the band edges and zero
// outside.
func (g Grid) TopHat(eff float64) []float64 {
	out := make([]float64, len(g.Freqs))
	for i, in := range g.Mask {
		if in {
			out[i] = eff
		}
	}
	return out
}

// Trapz integrates y over x with the trapezoidal rule.
func Trapz(y, x []float64) float64 {
	sum := 0.0
	for i := 1; i < len(x) && i < len(y); i++ {
		sum += 0.5 * (y[i] + y[i-1]) * (x[i] - x[i-1])
	}
	return sum
}

// Interp evaluates the piecewise-linear curve (xp, fp) at x. Points outside
// [xp[0], xp[n-1]] evaluate to outside. xp must be increasing.
func Interp(x, xp, fp []float64, outside float64) []float64 {
	out := make([]float64, len(x))
	if len(xp) == 0 {
		for i := range out {
			out[i] = outside
		}
		return out
	}
	j := 0
	for i, v := range x {
		if v < xp[0] || v > xp[len(xp)-1] {
			out[i] = outside
			continue
		}
		for j < len(xp)-2 && v > xp[j+1] {
			j++
		}
		if j > 0 && v < xp[j] {
			j = 0
			for j < len(xp)-2 && v > xp[j+1] {
				j++
			}
		}
		if len(xp) == 1 || xp[j+1] == xp[j] {
			out[i] = fp[j]
			continue
		}
		t := (v - xp[j]) / (xp[j+1] - xp[j])
		out[i] = fp[j] + t*(fp[j+1]-fp[j])
	}
	return out
}
