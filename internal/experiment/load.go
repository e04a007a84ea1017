package experiment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/sky"
	"github.com/san-kum/bolocalc/internal/table"
)

// Configuration file locations relative to each level's directory.
const (
	configDir       = "config"
	foregroundsFile = "foregrounds.txt"
	telescopeFile   = "telescope.txt"
	cameraFile      = "camera.txt"
	channelsFile    = "channels.txt"
	opticsFile      = "optics.txt"
)

// Load reads the experiment rooted at dir.
func Load(dir string) (*Experiment, error) {
	l := &loader{reg: Schema()}
	return l.experiment(dir)
}

type loader struct {
	reg *Registry
}

func (l *loader) experiment(dir string) (*Experiment, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, configErr(dir, "experiment", "", fmt.Errorf("%w: experiment directory", ErrMissingFile))
	}
	e := &Experiment{Dir: dir}

	fgPath := filepath.Join(dir, configDir, foregroundsFile)
	fgParams := params{}
	if kv, err := readKeyValue(fgPath, false); err != nil {
		return nil, err
	} else if kv != nil {
		fgParams, err = l.keyValueParams(LevelExperiment, kv, "foregrounds", filepath.Join(dir, configDir, "Dist"), nil)
		if err != nil {
			return nil, err
		}
	}
	e.Foregrounds, err = sky.NewForegrounds(fgParams)
	if err != nil {
		return nil, configErr(fgPath, "foregrounds", "", err)
	}

	dirs, err := subdirsWith(dir, filepath.Join(configDir, telescopeFile))
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, configErr(dir, "experiment", "", fmt.Errorf("%w: no telescope directories with %s", ErrMissingFile, filepath.Join(configDir, telescopeFile)))
	}
	for _, td := range dirs {
		t, err := l.telescope(td)
		if err != nil {
			return nil, err
		}
		e.Telescopes = append(e.Telescopes, t)
	}
	return e, nil
}

func (l *loader) telescope(dir string) (*Telescope, error) {
	name := filepath.Base(dir)
	path := filepath.Join(dir, configDir, telescopeFile)
	kv, err := readKeyValue(path, true)
	if err != nil {
		return nil, err
	}
	strs := map[string]bool{Site: true, AtmosphereFile: true}
	ps, err := l.keyValueParams(LevelTelescope, kv, name, filepath.Join(dir, configDir, "Dist"), strs)
	if err != nil {
		return nil, err
	}

	conf := &telescopeConf{params: ps}
	site, ok := lookup(kv, Site)
	if !ok || isNA(site) {
		return nil, configErr(path, name, Site, ErrMissingParameter)
	}
	conf.site = site

	if atm, ok := lookup(kv, AtmosphereFile); ok && !isNA(atm) {
		if !filepath.IsAbs(atm) {
			atm = filepath.Join(dir, configDir, atm)
		}
		conf.atmosphere, err = sky.LoadSpectrum(atm)
		if err != nil {
			return nil, configErr(path, name, AtmosphereFile, fileErr(err))
		}
	}
	if !strings.EqualFold(site, sky.SiteSpace) && conf.atmosphere == nil {
		for _, req := range []string{Elevation, PWV} {
			if ps.get(req).IsEmpty("") {
				return nil, configErr(path, name, req, ErrMissingParameter)
			}
		}
	}

	t := &Telescope{Name: name, Dir: dir, conf: conf}
	dirs, err := subdirsWith(dir, filepath.Join(configDir, cameraFile))
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, configErr(dir, name, "", fmt.Errorf("%w: no camera directories with %s", ErrMissingFile, filepath.Join(configDir, cameraFile)))
	}
	for _, cd := range dirs {
		c, err := l.camera(cd)
		if err != nil {
			return nil, err
		}
		t.Cameras = append(t.Cameras, c)
	}
	return t, nil
}

func (l *loader) camera(dir string) (*Camera, error) {
	name := filepath.Base(dir)
	cfg := filepath.Join(dir, configDir)
	kv, err := readKeyValue(filepath.Join(cfg, cameraFile), true)
	if err != nil {
		return nil, err
	}
	ps, err := l.keyValueParams(LevelCamera, kv, name, filepath.Join(cfg, "Dist"), nil)
	if err != nil {
		return nil, err
	}
	c := &Camera{Name: name, Dir: dir}
	if c.Channels, err = l.channels(cfg, name); err != nil {
		return nil, err
	}
	chain, err := l.optics(cfg, name, c.BandIDs())
	if err != nil {
		return nil, err
	}
	c.conf = &cameraConf{chain: chain, params: ps}
	return c, nil
}

func (l *loader) channels(cfg, camera string) ([]*Channel, error) {
	path := filepath.Join(cfg, channelsFile)
	t, err := table.Read(path)
	if err != nil {
		return nil, configErr(path, camera, "", fileErr(err))
	}
	if _, ok := t.Column(BandID); !ok {
		return nil, configErr(path, camera, BandID, ErrMissingParameter)
	}
	for _, h := range t.Header {
		if strings.EqualFold(h, BandID) || strings.EqualFold(h, PixelID) {
			continue
		}
		if _, ok := l.reg.Field(LevelChannel, h); !ok {
			return nil, configErr(path, camera, h, ErrUnknownParameter)
		}
	}

	seen := make(map[string]bool)
	var out []*Channel
	for row := range t.Rows {
		id := t.Cell(row, BandID)
		if isNA(id) {
			return nil, configErr(path, camera, BandID, fmt.Errorf("%w: row %d", ErrMissingParameter, row+1))
		}
		if seen[strings.ToLower(id)] {
			return nil, configErr(path, camera, BandID, fmt.Errorf("%w: %q", ErrDuplicateName, id))
		}
		seen[strings.ToLower(id)] = true

		ch := &Channel{BandID: id, PixelID: t.Cell(row, PixelID), params: params{}}
		entity := camera + "/" + id
		distDir := filepath.Join(cfg, "Dist", "Detectors", id)
		for _, f := range l.reg.Fields(LevelChannel) {
			cell := t.Cell(row, f.Spec.Name)
			if strings.EqualFold(strings.TrimSpace(cell), param.BAND) {
				if f.Spec.Name != DetEff {
					return nil, configErr(path, entity, f.Spec.Name, fmt.Errorf("%w: BAND only applies to %s", ErrMalformed, DetEff))
				}
				bandPath := filepath.Join(cfg, "Bands", "Detectors", id+".txt")
				if ch.Band, err = optics.LoadBand(bandPath); err != nil {
					return nil, configErr(bandPath, entity, f.Spec.Name, fileErr(err))
				}
				cell = param.NA
			}
			p, err := l.parse(f, cell, distDir, nil)
			if err != nil {
				return nil, configErr(path, entity, f.Spec.Name, err)
			}
			ch.params[f.Spec.Name] = p
		}
		if err := l.completeChannel(ch); err != nil {
			return nil, configErr(path, entity, "", err)
		}
		out = append(out, ch)
	}
	if len(out) == 0 {
		return nil, configErr(path, camera, "", fmt.Errorf("%w: no channels", ErrMalformed))
	}
	return out, nil
}

// completeChannel fills the derived defaults of a channel and checks the
// either-or requirements.
func (l *loader) completeChannel(ch *Channel) error {
	if ch.params.get(BandCenter).IsEmpty("") {
		if ch.Band == nil {
			return fmt.Errorf("%s: %w", BandCenter, ErrMissingParameter)
		}
		f, _ := l.reg.Field(LevelChannel, BandCenter)
		p, err := param.New(f.Spec, param.FixedEntry(ch.Band.Center()/1e9))
		if err != nil {
			return fmt.Errorf("%s: %w", BandCenter, err)
		}
		ch.params[BandCenter] = p
	}
	if ch.Band == nil && ch.params.get(DetEff).IsEmpty("") {
		return fmt.Errorf("%s: %w", DetEff, ErrMissingParameter)
	}
	if ch.params.get(Psat).IsEmpty("") && ch.params.get(PsatFactor).IsEmpty("") {
		return fmt.Errorf("%s or %s: %w", Psat, PsatFactor, ErrMissingParameter)
	}
	if ch.params.get(Tc).IsEmpty("") && ch.params.get(TcFrac).IsEmpty("") {
		return fmt.Errorf("%s or %s: %w", Tc, TcFrac, ErrMissingParameter)
	}
	return nil
}

func (l *loader) optics(cfg, camera string, bandIDs []string) (*optics.Chain, error) {
	path := filepath.Join(cfg, opticsFile)
	t, err := table.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return optics.NewChain(nil)
	}
	if err != nil {
		return nil, configErr(path, camera, "", fileErr(err))
	}
	if _, ok := t.Column("Element"); !ok {
		return nil, configErr(path, camera, "Element", ErrMissingParameter)
	}
	for _, h := range t.Header {
		if strings.EqualFold(h, "Element") {
			continue
		}
		if _, ok := l.reg.Field(LevelOptic, h); !ok {
			return nil, configErr(path, camera, h, ErrUnknownParameter)
		}
	}

	var list []*optics.Optic
	for row := range t.Rows {
		el := t.Cell(row, "Element")
		entity := camera + "/" + el
		ps := params{}
		needBand := false
		for _, f := range l.reg.Fields(LevelOptic) {
			cell := t.Cell(row, f.Spec.Name)
			if strings.EqualFold(strings.TrimSpace(cell), param.BAND) {
				needBand = true
				cell = param.NA
			}
			p, err := l.parse(f, cell, filepath.Join(cfg, "Dist", "Optics", el), bandIDs)
			if err != nil {
				return nil, configErr(path, entity, f.Spec.Name, err)
			}
			ps[f.Spec.Name] = p
		}
		bands, err := opticBands(filepath.Join(cfg, "Bands", "Optics"), el, bandIDs)
		if err != nil {
			return nil, configErr(path, entity, "", err)
		}
		if needBand && len(bands) == 0 {
			return nil, configErr(path, entity, "", fmt.Errorf("%w: BAND given but no band file for %s", ErrMissingFile, el))
		}
		list = append(list, optics.New(el, ps, bands))
	}
	chain, err := optics.NewChain(list)
	if err != nil {
		if errors.Is(err, optics.ErrDuplicateElement) {
			err = fmt.Errorf("%w: %v", ErrDuplicateName, err)
		}
		return nil, configErr(path, camera, "", err)
	}
	return chain, nil
}

// opticBands loads <Element>_<BandID>.txt per band and <Element>.txt for
// every band.
func opticBands(dir, element string, bandIDs []string) (map[string]*optics.BandFile, error) {
	out := make(map[string]*optics.BandFile)
	load := func(key, name string) error {
		b, err := optics.LoadBand(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		out[key] = b
		return nil
	}
	if err := load("", element+".txt"); err != nil {
		return nil, err
	}
	for _, id := range bandIDs {
		if err := load(id, element+"_"+id+".txt"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *loader) keyValueParams(level Level, kv *table.KeyValue, entity, distDir string, strs map[string]bool) (params, error) {
	for _, k := range kv.Keys {
		if strs[k] {
			continue
		}
		if _, ok := l.reg.Field(level, k); !ok {
			return nil, configErr(kv.Path, entity, k, ErrUnknownParameter)
		}
	}
	ps := params{}
	for _, f := range l.reg.Fields(level) {
		cell, ok := lookup(kv, f.Spec.Name)
		if !ok {
			cell = param.NA
		}
		p, err := l.parse(f, cell, distDir, nil)
		if err != nil {
			return nil, configErr(kv.Path, entity, f.Spec.Name, err)
		}
		ps[f.Spec.Name] = p
	}
	return ps, nil
}

// parse turns a cell into a parameter, applying the field's default and
// required rules.
func (l *loader) parse(f Field, cell, distDir string, bands []string) (*param.Parameter, error) {
	p, err := param.Parse(f.Spec, cell, param.ParseOptions{
		Bands: bands,
		LoadPDF: func() (*param.Distribution, error) {
			return param.LoadDistribution(filepath.Join(distDir, param.FileName(f.Spec.Name)))
		},
	})
	if err != nil {
		return nil, fileErr(err)
	}
	if p.PerBand() || !p.IsEmpty("") {
		return p, nil
	}
	switch {
	case f.HasDefault:
		return param.New(f.Spec, param.FixedEntry(f.Default))
	case f.Required:
		return nil, ErrMissingParameter
	}
	return p, nil
}

func readKeyValue(path string, required bool) (*table.KeyValue, error) {
	kv, err := table.ReadKeyValue(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil, nil
	}
	if err != nil {
		return nil, configErr(path, "", "", fileErr(err))
	}
	return kv, nil
}

func lookup(kv *table.KeyValue, key string) (string, bool) {
	for _, k := range kv.Keys {
		if strings.EqualFold(k, key) {
			return kv.Get(k)
		}
	}
	return "", false
}

// subdirsWith returns the subdirectories of dir, sorted by name, that
// contain marker. Names must be unique ignoring case.
func subdirsWith(dir, marker string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, configErr(dir, "", "", fileErr(err))
	}
	seen := make(map[string]string)
	var out []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == configDir {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(sub, marker)); err != nil {
			continue
		}
		key := strings.ToLower(e.Name())
		if prev, dup := seen[key]; dup {
			return nil, configErr(dir, e.Name(), "", fmt.Errorf("%w: %q and %q", ErrDuplicateName, prev, e.Name()))
		}
		seen[key] = e.Name()
		out = append(out, sub)
	}
	return out, nil
}

func isNA(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, param.NA)
}

// fileErr tags missing files with ErrMissingFile and malformed contents
// with ErrMalformed. The original error stays in the chain.
func fileErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrMissingFile, err)
	case errors.Is(err, table.ErrMalformed), errors.Is(err, param.ErrMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return err
}
