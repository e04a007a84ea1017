package sim_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bolocalc/internal/config"
	"github.com/san-kum/bolocalc/internal/display"
	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/sim"
	"github.com/san-kum/bolocalc/internal/stats"
	"github.com/san-kum/bolocalc/internal/storage"
	"github.com/san-kum/bolocalc/testutil"
)

func load(opts testutil.Experiment) (*experiment.Experiment, testutil.Fixture) {
	fx := testutil.WriteExperiment(GinkgoT(), GinkgoT().TempDir(), opts)
	e, err := experiment.Load(fx.Dir)
	Expect(err).NotTo(HaveOccurred())
	return e, fx
}

func runOnce(e *experiment.Experiment, cfg *config.Config, opts ...sim.Option) *sim.Simulation {
	s, err := sim.New(e, cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	_, err = s.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return s
}

var spread = testutil.Experiment{
	Bands:   []string{"90", "150"},
	Cameras: []string{"A", "B"},
	Channel: map[string]string{"Psat": "10 +/- 1", "Det Eff": "0.5 +/- 0.05"},
}

var _ = Describe("Simulation", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		cfg.Seed = 7
		cfg.ResolutionGHz = 0.5
	})

	Context("with a nominal run", func() {
		It("writes sensitivity tables at every level and a run directory", func() {
			e, fx := load(testutil.Experiment{})
			s := runOnce(e, cfg)

			Expect(s.Stage()).To(Equal(sim.StageWritten))
			for _, p := range []string{
				filepath.Join(fx.Dir, display.FileName),
				filepath.Join(fx.Dir, "Tel", display.FileName),
				filepath.Join(fx.Dir, "Tel", "Cam", display.FileName),
			} {
				Expect(p).To(BeAnExistingFile())
			}

			runs, err := storage.ForExperiment(fx.Dir).List()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].Seed).To(Equal(int64(7)))
			Expect(runs[0].NETarrSpread).To(HaveLen(1))
		})

		It("produces bit-identical tables on repeated runs", func() {
			e, fx := load(testutil.Experiment{Bands: []string{"90", "150"}})
			runOnce(e, cfg, sim.WithStore(nil))
			first, err := os.ReadFile(filepath.Join(fx.Dir, display.FileName))
			Expect(err).NotTo(HaveOccurred())

			cfg.Seed = 99
			runOnce(e, cfg, sim.WithStore(nil))
			second, err := os.ReadFile(filepath.Join(fx.Dir, display.FileName))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("reports zero spread", func() {
			e, _ := load(spread)
			s := runOnce(e, cfg, sim.WithStore(nil))
			for _, r := range s.Channels().Rows() {
				Expect(r.Values[stats.NETarr].Std).To(BeZero())
			}
		})
	})

	Context("with many realizations", func() {
		BeforeEach(func() {
			cfg.Realizations = 6
			cfg.Detectors = 3
		})

		It("draws distinct realizations with a spread", func() {
			e, _ := load(spread)
			s := runOnce(e, cfg, sim.WithStore(nil))
			Expect(s.Realizations()).To(HaveLen(6))
			Expect(s.Tables()).To(HaveLen(6))
			row, ok := s.Channels().Get(stats.Key{Telescope: "Tel", Camera: "A", Channel: "150"})
			Expect(ok).To(BeTrue())
			Expect(row.Values[stats.NETarr].Std).To(BeNumerically(">", 0))
			Expect(row.Values[stats.Popt].Std).To(BeNumerically(">", 0))
		})

		It("gives the same answer in parallel and sequentially", func() {
			e, _ := load(spread)
			seq := runOnce(e, cfg, sim.WithStore(nil), sim.WithExecutor(sim.Sequential{}))
			par := runOnce(e, cfg, sim.WithStore(nil), sim.WithExecutor(sim.Parallel{Workers: 4}))
			Expect(par.Channels().Rows()).To(Equal(seq.Channels().Rows()))
		})

		It("folds cameras sharing a band", func() {
			e, _ := load(spread)
			s := runOnce(e, cfg, sim.WithStore(nil))
			rep := s.Report()
			Expect(rep.Cameras).To(HaveLen(2))
			Expect(rep.Telescopes).To(HaveLen(1))
			Expect(rep.Telescopes[0].Keys()).To(HaveLen(3))

			a, _ := s.Channels().Get(stats.Key{Telescope: "Tel", Camera: "A", Channel: "90"})
			b, _ := s.Channels().Get(stats.Key{Telescope: "Tel", Camera: "B", Channel: "90"})
			folded, ok := rep.Telescopes[0].Get(stats.Key{Telescope: "Tel", Channel: "90"})
			Expect(ok).To(BeTrue())
			Expect(folded.Values[stats.NumDet].Mean).To(Equal(a.Values[stats.NumDet].Mean + b.Values[stats.NumDet].Mean))
		})
	})

	Context("with a ground site", func() {
		It("requires an atmosphere directory", func() {
			e, _ := load(testutil.Experiment{Atmosphere: true})
			_, err := sim.New(e, cfg)
			Expect(err).To(MatchError(experiment.ErrMissingFile))
		})

		It("loads the site atlas and adds the atmosphere", func() {
			e, fx := load(testutil.Experiment{Atmosphere: true})
			cfg.AtmosphereDir = fx.AtmosphereDir
			s := runOnce(e, cfg, sim.WithStore(nil))
			names := s.Realizations()[0].Channels()[0].Stack(0, 0).Names()
			Expect(names).To(ContainElement("ATM"))
		})
	})

	It("rejects stages out of order", func() {
		e, _ := load(testutil.Experiment{})
		s, err := sim.New(e, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Combine()).To(MatchError(sim.ErrStage))
		_, err = s.WriteTables()
		Expect(err).To(MatchError(sim.ErrStage))
	})

	It("rejects an invalid configuration", func() {
		e, _ := load(testutil.Experiment{})
		cfg.Realizations = 0
		_, err := sim.New(e, cfg)
		Expect(err).To(MatchError(config.ErrInvalid))
	})
})
