package vary_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bolocalc/internal/config"
	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/sim"
	"github.com/san-kum/bolocalc/internal/stats"
	"github.com/san-kum/bolocalc/internal/vary"
	"github.com/san-kum/bolocalc/testutil"
)

func generated(opts testutil.Experiment, cfg *config.Config) *sim.Simulation {
	fx := testutil.WriteExperiment(GinkgoT(), GinkgoT().TempDir(), opts)
	e, err := experiment.Load(fx.Dir)
	Expect(err).NotTo(HaveOccurred())
	s, err := sim.New(e, cfg, sim.WithStore(nil))
	Expect(err).NotTo(HaveOccurred())
	Expect(s.GenerateRealizations(context.Background())).To(Succeed())
	return s
}

var _ = Describe("Vary", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		cfg.Seed = 3
		cfg.ResolutionGHz = 0.5
	})

	Describe("a Psat sweep", func() {
		var (
			s   *sim.Simulation
			v   *vary.Vary
			key = stats.Key{Telescope: "Tel", Camera: "Cam", Channel: "150"}
		)

		BeforeEach(func() {
			s = generated(testutil.Experiment{}, cfg)
			var err error
			v, err = vary.New([]vary.Target{{Telescope: "Tel", Camera: "Cam", Channel: "150", Param: "Psat", Min: 0, Max: 10, Step: 2}}, false)
			Expect(err).NotTo(HaveOccurred())
		})

		It("has six grid points", func() {
			Expect(v.Len()).To(Equal(6))
			Expect(v.Channels(s.Experiment())).To(ConsistOf(key))
		})

		It("gives an array NET that never decreases with Psat", func() {
			res, err := v.Run(context.Background(), s)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rows).To(HaveLen(6))
			for i := 1; i < len(res.Rows); i++ {
				Expect(res.Rows[i][0].Values[stats.NETarr].Mean).To(
					BeNumerically(">=", res.Rows[i-1][0].Values[stats.NETarr].Mean))
			}
			Expect(vary.Best(res, 0, stats.NETarr)).To(Equal(0))
		})

		It("reproduces the base result at the configured value", func() {
			Expect(s.Calculate(context.Background())).To(Succeed())
			Expect(s.Combine()).To(Succeed())
			base, ok := s.Channels().Get(key)
			Expect(ok).To(BeTrue())

			res, err := v.Run(context.Background(), s)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Values[5]).To(Equal([]float64{10}))
			Expect(res.Rows[5][0].Values).To(Equal(base.Values))
		})

		It("leaves the realization pool untouched", func() {
			before := s.Realizations()[0].Channels()[0].Detectors[0].Psat
			_, err := v.Run(context.Background(), s)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Realizations()[0].Channels()[0].Detectors[0].Psat).To(Equal(before))
		})

		It("writes one table per output quantity", func() {
			res, err := v.Run(context.Background(), s)
			Expect(err).NotTo(HaveOccurred())
			paths, err := vary.Write(s.Experiment().Dir, "psat", res)
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(HaveLen(len(vary.Outputs)))
			for _, p := range paths {
				Expect(p).To(BeAnExistingFile())
				Expect(filepath.Dir(p)).To(Equal(filepath.Join(s.Experiment().Dir, vary.OutputDir, "psat")))
			}

			svg, err := vary.WritePlot(s.Experiment().Dir, "psat", res, stats.NETarr)
			Expect(err).NotTo(HaveOccurred())
			Expect(svg).To(Equal(filepath.Join(s.Experiment().Dir, vary.OutputDir, "psat", "ArrayNET.svg")))
			Expect(svg).To(BeAnExistingFile())
		})
	})

	Describe("across realizations", func() {
		It("runs the same points in parallel and sequentially", func() {
			cfg.Realizations = 4
			cfg.Detectors = 2
			opts := testutil.Experiment{Channel: map[string]string{"Psat": "10 +/- 1"}}
			v, err := vary.New([]vary.Target{
				{Param: "Bath Temp", Min: 0.1, Max: 0.12, Step: 0.01},
				{Param: "Det Eff", Min: 0.4, Max: 0.6, Step: 0.1},
			}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Len()).To(Equal(9))

			seq := generated(opts, cfg)
			a, err := v.Run(context.Background(), seq)
			Expect(err).NotTo(HaveOccurred())

			cfg.Parallel = true
			par := generated(opts, cfg)
			b, err := v.Run(context.Background(), par)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Rows).To(Equal(a.Rows))
			Expect(a.Rows[0][0].Values[stats.NETarr].Std).To(BeNumerically(">", 0))
		})
	})

	Describe("a Pixel Size** sweep", func() {
		It("scales the detector count with pixel area", func() {
			s := generated(testutil.Experiment{Optics: []map[string]string{
				{"Element": "Lyot", "Temperature": "1", "Absorption": "0.2"},
			}}, cfg)
			v, err := vary.New([]vary.Target{{Param: vary.PixelSizeComposite, Min: 5, Max: 10, Step: 5}}, false)
			Expect(err).NotTo(HaveOccurred())
			res, err := v.Run(context.Background(), s)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rows[0][0].Values[stats.NumDet].Mean).To(Equal(100.0))
			Expect(res.Rows[1][0].Values[stats.NumDet].Mean).To(Equal(25.0))
			Expect(res.Rows[1][0].Values[stats.StopEff].Mean).To(BeNumerically(">", res.Rows[0][0].Values[stats.StopEff].Mean))
		})
	})

	It("fails before computing when an overlay names nothing", func() {
		s := generated(testutil.Experiment{}, cfg)
		v, err := vary.New([]vary.Target{{Telescope: "Nope", Param: "Psat", Min: 1, Max: 2, Step: 1}}, false)
		Expect(err).NotTo(HaveOccurred())
		_, err = v.Run(context.Background(), s)
		Expect(err).To(MatchError(experiment.ErrNoMatch))
	})

	It("needs generated realizations", func() {
		fx := testutil.WriteExperiment(GinkgoT(), GinkgoT().TempDir(), testutil.Experiment{})
		e, err := experiment.Load(fx.Dir)
		Expect(err).NotTo(HaveOccurred())
		s, err := sim.New(e, cfg)
		Expect(err).NotTo(HaveOccurred())
		v, err := vary.New([]vary.Target{{Param: "Psat", Min: 1, Max: 2, Step: 1}}, false)
		Expect(err).NotTo(HaveOccurred())
		_, err = v.Run(context.Background(), s)
		Expect(err).To(MatchError(sim.ErrStage))
	})
})
