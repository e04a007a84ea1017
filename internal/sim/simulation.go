package sim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/san-kum/bolocalc/internal/config"
	"github.com/san-kum/bolocalc/internal/display"
	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/noise"
	"github.com/san-kum/bolocalc/internal/sensitivity"
	"github.com/san-kum/bolocalc/internal/sky"
	"github.com/san-kum/bolocalc/internal/stats"
	"github.com/san-kum/bolocalc/internal/storage"
)

// ErrStage indicates a stage called before the one it depends on.
var ErrStage = errors.New("sim: stage out of order")

// Stage is the position of a Simulation in its run.
type Stage int

const (
	StageNew Stage = iota
	StageGenerated
	StageCalculated
	StageCombined
	StageWritten
)

func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageGenerated:
		return "generated"
	case StageCalculated:
		return "calculated"
	case StageCombined:
		return "combined"
	case StageWritten:
		return "written"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Simulation is one Monte Carlo run over an experiment.
type Simulation struct {
	exp   *experiment.Experiment
	cfg   *config.Config
	exec  Executor
	log   logging.Logger
	store *storage.Store
	seed  int64

	atlas *sky.Atlas
	corr  *noise.CorrelationTable

	stage        Stage
	realizations []*experiment.Realization
	tables       []*stats.Table
	channels     *stats.Table
	report       *stats.Report
}

// Option configures a Simulation.
type Option func(*Simulation)

func WithLogger(l logging.Logger) Option { return func(s *Simulation) { s.log = l } }

// WithExecutor overrides the executor chosen from the configuration.
func WithExecutor(e Executor) Option { return func(s *Simulation) { s.exec = e } }

// WithStore overrides the run store. Nil disables run directories.
func WithStore(st *storage.Store) Option { return func(s *Simulation) { s.store = st } }

// WithAtlas supplies an already loaded atmosphere atlas.
func WithAtlas(a *sky.Atlas) Option { return func(s *Simulation) { s.atlas = a } }

// New validates cfg and loads the shared read-only inputs: the atmosphere
// atlas for every site that needs it and the correlation table.
func New(exp *experiment.Experiment, cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		exp:   exp,
		cfg:   cfg,
		exec:  NewExecutor(cfg.Parallel, cfg.Workers),
		log:   logging.Discard,
		store: storage.ForExperiment(exp.Dir),
		seed:  cfg.Seed,
	}
	for _, o := range opts {
		o(s)
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}

	if sites := exp.AtlasSites(); len(sites) > 0 && s.atlas == nil {
		if cfg.AtmosphereDir == "" {
			return nil, fmt.Errorf("%w: site %s needs atmosphere_dir or an Atmosphere File", experiment.ErrMissingFile, sites[0])
		}
		s.atlas = sky.NewAtlas(cfg.AtmosphereDir)
		if err := s.atlas.Load(sites...); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %w", experiment.ErrMissingFile, err)
			}
			return nil, err
		}
	}

	if cfg.Correlations {
		s.corr = noise.DefaultCorrelations()
		if cfg.CorrelationFile != "" {
			t, err := noise.LoadCorrelations(cfg.CorrelationFile)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", experiment.ErrMissingFile, err)
			}
			s.corr = t
		}
	}
	return s, nil
}

func (s *Simulation) Stage() Stage                       { return s.stage }
func (s *Simulation) Seed() int64                        { return s.seed }
func (s *Simulation) Experiment() *experiment.Experiment { return s.exp }
func (s *Simulation) Executor() Executor                 { return s.exec }
func (s *Simulation) Logger() logging.Logger             { return s.log }

// Realizations returns the drawn realization pool.
func (s *Simulation) Realizations() []*experiment.Realization { return s.realizations }

// Tables returns one channel table per realization.
func (s *Simulation) Tables() []*stats.Table { return s.tables }

// Channels returns the per-channel table combined across realizations.
func (s *Simulation) Channels() *stats.Table { return s.channels }

func (s *Simulation) Report() *stats.Report { return s.report }

// RealizeOptions are the options every realization is drawn with.
func (s *Simulation) RealizeOptions() experiment.Options {
	return experiment.Options{
		Observations: s.cfg.Observations,
		Detectors:    s.cfg.Detectors,
		Resolution:   s.cfg.ResolutionGHz * 1e9,
		Foregrounds:  s.cfg.Foregrounds,
		Nominal:      s.cfg.Nominal(),
		Atlas:        s.atlas,
		Log:          s.log,
	}
}

// SensitivityOptions are the options every realization is evaluated with.
func (s *Simulation) SensitivityOptions() sensitivity.Options {
	return sensitivity.Options{Correlations: s.corr}
}

func (s *Simulation) require(st Stage) error {
	if s.stage != st {
		return fmt.Errorf("%w: need stage %s, at %s", ErrStage, st, s.stage)
	}
	return nil
}

// GenerateRealizations draws realization i with seed base+i. A single
// realization is the nominal instrument.
func (s *Simulation) GenerateRealizations(ctx context.Context) error {
	if err := s.require(StageNew); err != nil {
		return err
	}
	n := s.cfg.Realizations
	opts := s.RealizeOptions()
	logging.Logf(s.log, logging.Info, "generating %d realization(s) of %d channel(s), seed %d",
		n, s.exp.Channels(), s.seed)

	out := make([]*experiment.Realization, n)
	err := s.exec.Map(ctx, n, func(ctx context.Context, i int) error {
		logging.Logf(s.log, logging.Detail, "realization %d: generating", i)
		r, err := experiment.Realize(s.exp, i, s.seed+int64(i), opts)
		if err != nil {
			return fmt.Errorf("realization %d: %w", i, err)
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return err
	}
	s.realizations = out
	s.stage = StageGenerated
	return nil
}

// Calculate evaluates every realization.
func (s *Simulation) Calculate(ctx context.Context) error {
	if err := s.require(StageGenerated); err != nil {
		return err
	}
	tables, err := CalculateAll(ctx, s.exec, s.realizations, s.SensitivityOptions(), s.log)
	if err != nil {
		return err
	}
	s.tables = tables
	s.stage = StageCalculated
	return nil
}

// CalculateAll evaluates rs through exec and returns their tables in
// realization order.
func CalculateAll(ctx context.Context, exec Executor, rs []*experiment.Realization, opts sensitivity.Options, log logging.Logger) ([]*stats.Table, error) {
	out := make([]*stats.Table, len(rs))
	err := exec.Map(ctx, len(rs), func(ctx context.Context, i int) error {
		t, err := sensitivity.Calculate(rs[i], opts)
		if err != nil {
			return fmt.Errorf("realization %d: %w", rs[i].Index, err)
		}
		logging.Logf(log, logging.Detail, "realization %d: calculated %d channel(s)", rs[i].Index, t.Len())
		out[i] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Combine merges the realization tables and folds channels by band at
// the telescope and experiment levels.
func (s *Simulation) Combine() error {
	if err := s.require(StageCalculated); err != nil {
		return err
	}
	ch, err := stats.Combine(s.tables)
	if err != nil {
		return err
	}
	s.channels = ch
	s.report = stats.NewReport(ch)
	s.stage = StageCombined
	return nil
}

// WriteTables writes sensitivity.txt at every level and, when a store is
// configured, a run directory. It returns the paths written.
func (s *Simulation) WriteTables() ([]string, error) {
	if err := s.require(StageCombined); err != nil {
		return nil, err
	}
	paths, err := display.WriteReport(s.exp.Dir, s.report)
	if err != nil {
		return paths, err
	}
	for _, p := range paths {
		logging.Logf(s.log, logging.Info, "wrote %s", p)
	}

	if s.store != nil {
		if err := s.store.Init(); err != nil {
			return paths, err
		}
		id, err := s.store.Save(s.metadata(), s.tables)
		if err != nil {
			return paths, err
		}
		logging.Logf(s.log, logging.Info, "stored run %s", id)
		paths = append(paths, filepath.Join(s.store.Dir(), id))
	}
	s.stage = StageWritten
	return paths, nil
}

func (s *Simulation) metadata() storage.RunMetadata {
	meta := storage.RunMetadata{
		Experiment:    s.exp.Dir,
		Seed:          s.seed,
		Realizations:  s.cfg.Realizations,
		Observations:  s.cfg.Observations,
		Detectors:     s.cfg.Detectors,
		ResolutionGHz: s.cfg.ResolutionGHz,
		Foregrounds:   s.cfg.Foregrounds,
		Correlations:  s.cfg.Correlations,
		Parallel:      s.cfg.Parallel,
		Percentiles:   s.cfg.Percentiles,
	}
	for _, k := range s.channels.Keys() {
		var xs []float64
		for _, t := range s.tables {
			if r, ok := t.Get(k); ok {
				xs = append(xs, r.Values[stats.NETarr].Mean)
			}
		}
		meta.NETarrSpread = append(meta.NETarrSpread, storage.Spread{
			Channel: k.String(),
			Lo:      stats.Percentile(xs, s.cfg.Percentiles[0]),
			Hi:      stats.Percentile(xs, s.cfg.Percentiles[1]),
		})
	}
	return meta
}

// Run executes every stage and returns the report.
func (s *Simulation) Run(ctx context.Context) (*stats.Report, error) {
	if err := s.GenerateRealizations(ctx); err != nil {
		return nil, err
	}
	if err := s.Calculate(ctx); err != nil {
		return nil, err
	}
	if err := s.Combine(); err != nil {
		return nil, err
	}
	if _, err := s.WriteTables(); err != nil {
		return nil, err
	}
	return s.report, nil
}
