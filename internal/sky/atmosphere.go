package sky

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/physics"
	"github.com/san-kum/bolocalc/internal/table"
)

// ErrNoAtmosphere indicates a site without atmosphere data.
var ErrNoAtmosphere = errors.New("sky: no atmosphere data")

// Spectrum is an atmospheric brightness temperature and transmission
// spectrum.
type Spectrum struct {
	Freqs []float64 // Hz
	Temp  []float64 // K
	Trans []float64
}

// LoadSpectrum reads a "freq [GHz] | Tb [K] | transmission" file.
func LoadSpectrum(path string) (*Spectrum, error) {
	cols, err := table.Columns(path, 3)
	if err != nil {
		return nil, err
	}
	s := &Spectrum{Freqs: make([]float64, len(cols[0])), Temp: cols[1], Trans: cols[2]}
	for i, f := range cols[0] {
		s.Freqs[i] = f * 1e9
	}
	return s, nil
}

// OnGrid interpolates the spectrum onto freqs. Frequencies beyond the
// tabulated range take the nearest edge value.
func (s *Spectrum) OnGrid(freqs []float64) (temp, trans []float64) {
	return holdEdges(freqs, s.Freqs, s.Temp), holdEdges(freqs, s.Freqs, s.Trans)
}

func holdEdges(x, xp, fp []float64) []float64 {
	out := physics.Interp(x, xp, fp, math.NaN())
	if len(xp) == 0 {
		return out
	}
	for i, v := range x {
		switch {
		case v < xp[0]:
			out[i] = fp[0]
		case v > xp[len(xp)-1]:
			out[i] = fp[len(fp)-1]
		}
	}
	return out
}

type gridKey struct {
	elev  int
	pwv10 int
}

// Key formats a lookup key the way atmosphere files are named.
func Key(elevDeg int, pwvMM float64) string {
	return fmt.Sprintf("%d,%.1f", elevDeg, pwvMM)
}

// Site holds every spectrum of one observing site.
type Site struct {
	Name    string
	spectra map[gridKey]*Spectrum
	elevs   []int
	pwvs    []int

	warnOnce sync.Once
}

// Atlas is the read-only process-wide atmosphere lookup.
type Atlas struct {
	dir   string
	sites map[string]*Site
}

// NewAtlas returns an empty atlas reading site directories under dir.
func NewAtlas(dir string) *Atlas {
	return &Atlas{dir: dir, sites: make(map[string]*Site)}
}

// Load reads the named sites. It must be called before the atlas is shared.
func (a *Atlas) Load(sites ...string) error {
	for _, name := range sites {
		if _, ok := a.sites[strings.ToLower(name)]; ok {
			continue
		}
		s, err := loadSite(filepath.Join(a.dir, name), name)
		if err != nil {
			return err
		}
		a.sites[strings.ToLower(name)] = s
	}
	return nil
}

// AddSpectrum registers one spectrum directly.
func (a *Atlas) AddSpectrum(site string, elevDeg int, pwvMM float64, s *Spectrum) {
	key := strings.ToLower(site)
	st, ok := a.sites[key]
	if !ok {
		st = &Site{Name: site, spectra: make(map[gridKey]*Spectrum)}
		a.sites[key] = st
	}
	st.add(gridKey{elev: elevDeg, pwv10: int(math.Round(pwvMM * 10))}, s)
}

func loadSite(dir, name string) (*Site, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: site %s: %v", ErrNoAtmosphere, name, err)
		}
		return nil, err
	}
	s := &Site{Name: name, spectra: make(map[gridKey]*Spectrum)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".txt")
		elevStr, pwvStr, ok := strings.Cut(base, ",")
		if !ok {
			continue
		}
		elev, err1 := strconv.Atoi(elevStr)
		pwv, err2 := strconv.ParseFloat(pwvStr, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %s: bad atmosphere key %q", table.ErrMalformed, dir, base)
		}
		spec, err := LoadSpectrum(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		s.add(gridKey{elev: elev, pwv10: int(math.Round(pwv * 10))}, spec)
	}
	if len(s.spectra) == 0 {
		return nil, fmt.Errorf("%w: site %s: no spectra in %s", ErrNoAtmosphere, name, dir)
	}
	return s, nil
}

func (s *Site) add(k gridKey, spec *Spectrum) {
	if _, ok := s.spectra[k]; !ok {
		s.elevs = insertSorted(s.elevs, k.elev)
		s.pwvs = insertSorted(s.pwvs, k.pwv10)
	}
	s.spectra[k] = spec
}

func insertSorted(xs []int, v int) []int {
	i := sort.SearchInts(xs, v)
	if i < len(xs) && xs[i] == v {
		return xs
	}
	xs = append(xs, 0)
	copy(xs[i+1:], xs[i:])
	xs[i] = v
	return xs
}

// Lookup returns the spectrum nearest to (pwv, elevation). Values outside
// the site's grid are clamped to its bounds and the downgrade is logged.
func (a *Atlas) Lookup(site string, pwvMM, elevDeg float64, log logging.Logger) (*Spectrum, error) {
	s, ok := a.sites[strings.ToLower(site)]
	if !ok {
		return nil, fmt.Errorf("%w: site %q not loaded", ErrNoAtmosphere, site)
	}
	elev := int(math.Round(elevDeg))
	pwv10 := int(math.Round(pwvMM * 10))

	cElev := clampInt(elev, s.elevs[0], s.elevs[len(s.elevs)-1])
	cPwv := clampInt(pwv10, s.pwvs[0], s.pwvs[len(s.pwvs)-1])
	if cElev != elev || cPwv != pwv10 {
		msg := fmt.Sprintf("atmosphere %s: requested %s clamped to %s", s.Name,
			Key(elev, float64(pwv10)/10), Key(cElev, float64(cPwv)/10))
		importance := logging.Detail
		s.warnOnce.Do(func() { importance = logging.Notice })
		if log != nil {
			log.Log(msg, importance)
		}
	}

	k := gridKey{elev: nearest(s.elevs, cElev), pwv10: nearest(s.pwvs, cPwv)}
	spec, ok := s.spectra[k]
	if !ok {
		return nil, fmt.Errorf("%w: site %s has no spectrum for %s", ErrNoAtmosphere, s.Name, Key(k.elev, float64(k.pwv10)/10))
	}
	return spec, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nearest(xs []int, v int) int {
	i := sort.SearchInts(xs, v)
	if i >= len(xs) {
		return xs[len(xs)-1]
	}
	if i == 0 || xs[i] == v {
		return xs[i]
	}
	if v-xs[i-1] <= xs[i]-v {
		return xs[i-1]
	}
	return xs[i]
}
