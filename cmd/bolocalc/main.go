package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/bolocalc/internal/config"
	"github.com/san-kum/bolocalc/internal/display"
	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/sim"
	"github.com/san-kum/bolocalc/internal/stats"
	"github.com/san-kum/bolocalc/internal/storage"
	"github.com/san-kum/bolocalc/internal/vary"
)

var (
	preset        string
	realizations  int
	observations  int
	detectors     int
	resolution    float64
	foregrounds   bool
	correlations  bool
	parallel      bool
	workers       int
	seed          int64
	atmosphereDir string
	logLevel      string
	logFile       string
	// Sweep flags
	doVary    bool
	varyTog   bool
	varyName  string
	plotQuant string
	// Show flags
	asJSON bool
	level  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bolocalc",
		Short:         "CMB instrument sensitivity calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run [experiment_dir]",
		Short: "compute the sensitivity of an experiment",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "start from a preset configuration")
	runCmd.Flags().IntVarP(&realizations, "realizations", "n", config.DefaultRealizations, "number of experiment realizations")
	runCmd.Flags().IntVar(&observations, "observations", config.DefaultObservations, "sky observations per realization")
	runCmd.Flags().IntVar(&detectors, "detectors", config.DefaultDetectors, "detectors per channel")
	runCmd.Flags().Float64Var(&resolution, "resolution", config.DefaultResolutionGHz, "frequency resolution [GHz]")
	runCmd.Flags().BoolVar(&foregrounds, "foregrounds", false, "include dust and synchrotron")
	runCmd.Flags().BoolVar(&correlations, "correlations", false, "include pixel-pixel photon correlations")
	runCmd.Flags().BoolVar(&parallel, "parallel", false, "run realizations on a worker pool")
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 uses GOMAXPROCS)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	runCmd.Flags().StringVar(&atmosphereDir, "atm", "", "atmosphere atlas directory")
	runCmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "notice, info, debug or trace")
	runCmd.Flags().StringVar(&logFile, "log_name", "", "also append log output to this file")
	runCmd.Flags().BoolVar(&doVary, "vary", false, "sweep the parameters in config/"+vary.SpecFile)
	runCmd.Flags().BoolVar(&varyTog, "vary_tog", false, "vary the swept parameters together instead of on a grid")
	runCmd.Flags().StringVar(&varyName, "vary_name", vary.DefaultName, "sweep output directory name")
	runCmd.Flags().StringVar(&plotQuant, "plot", "netarr", "quantity plotted for a sweep")

	runsCmd := &cobra.Command{
		Use:   "runs [experiment_dir]",
		Short: "list stored runs",
		Args:  cobra.ExactArgs(1),
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [experiment_dir] [run_id]",
		Short: "summarize a stored run",
		Args:  cobra.ExactArgs(2),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print the table as JSON")
	showCmd.Flags().StringVar(&level, "level", "experiment", "experiment, telescope or camera")

	initCmd := &cobra.Command{
		Use:   "init [experiment_dir]",
		Short: "write a default " + config.FileName,
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "nominal", "preset to write")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREALIZATIONS\tOBSERVATIONS\tDETECTORS\tRESOLUTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f GHz\n", name, p.Realizations, p.Observations, p.Detectors, p.ResolutionGHz)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, runsCmd, showCmd, initCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runConfig merges the preset, simulation.yaml and the flags, in that
// order of increasing precedence.
func runConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	cfg, err := config.ForExperiment(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Seed = cfg.Seed
		p.AtmosphereDir = cfg.AtmosphereDir
		p.CorrelationFile = cfg.CorrelationFile
		cfg = p
	}

	f := cmd.Flags()
	if f.Changed("realizations") {
		cfg.Realizations = realizations
	}
	if f.Changed("observations") {
		cfg.Observations = observations
	}
	if f.Changed("detectors") {
		cfg.Detectors = detectors
	}
	if f.Changed("resolution") {
		cfg.ResolutionGHz = resolution
	}
	if f.Changed("foregrounds") {
		cfg.Foregrounds = foregrounds
	}
	if f.Changed("correlations") {
		cfg.Correlations = correlations
	}
	if f.Changed("parallel") {
		cfg.Parallel = parallel
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("atm") {
		cfg.AtmosphereDir = atmosphereDir
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

func runExperiment(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, err := runConfig(cmd, dir)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}
	defer log.Close()

	if err := execute(dir, cfg, log); err != nil {
		log.Log(err.Error(), logging.Notice)
		return err
	}
	return nil
}

func execute(dir string, cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp, err := experiment.Load(dir)
	if err != nil {
		return err
	}

	var targets []vary.Target
	if doVary {
		targets, err = vary.LoadSpec(filepath.Join(dir, "config", vary.SpecFile))
		if err != nil {
			return err
		}
	}

	s, err := sim.New(exp, cfg, sim.WithLogger(log))
	if err != nil {
		return err
	}

	start := time.Now()
	rep, err := s.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed %d realization(s) in %v\n", cfg.Realizations, time.Since(start).Round(time.Millisecond))
	fmt.Printf("seed: %d\n", s.Seed())
	fmt.Println(display.Summary(filepath.Base(filepath.Clean(dir)), rep.Experiment))

	if !doVary {
		return nil
	}
	return sweep(ctx, s, dir, targets)
}

func sweep(ctx context.Context, s *sim.Simulation, dir string, targets []vary.Target) error {
	col, ok := stats.ParseColumn(plotQuant)
	if !ok {
		return fmt.Errorf("unknown quantity: %s", plotQuant)
	}
	v, err := vary.New(targets, varyTog)
	if err != nil {
		return err
	}
	res, err := v.Run(ctx, s)
	if err != nil {
		return err
	}
	paths, err := vary.Write(dir, varyName, res)
	if err != nil {
		return err
	}

	fmt.Printf("\nswept %d point(s):\n", v.Len())
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	if len(res.Channels) == 0 {
		return nil
	}
	if v.Len() > 1 {
		p, err := vary.WritePlot(dir, varyName, res, col)
		if err != nil {
			return err
		}
		fmt.Printf("  %s\n", p)
	}
	fmt.Println()
	fmt.Println(display.PlotVary(res, col))
	best := vary.Best(res, 0, col)
	fmt.Printf("\nlowest %s for %s at %v\n", col, res.Channels[0], res.Values[best])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.ForExperiment(args[0])
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSEED\tREAL\tOBS\tDET\tRES\tFG\tCORR")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.2f\t%t\t%t\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Realizations,
			run.Observations,
			run.Detectors,
			run.ResolutionGHz,
			run.Foregrounds,
			run.Correlations,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	dir, runID := args[0], args[1]
	st := storage.ForExperiment(dir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tables, err := st.LoadRealizations(runID)
	if err != nil {
		return err
	}
	channels, err := stats.Combine(tables)
	if err != nil {
		return err
	}
	rep := stats.NewReport(channels)

	var shown []*stats.Table
	switch level {
	case "experiment":
		shown = []*stats.Table{rep.Experiment}
	case "telescope":
		shown = rep.Telescopes
	case "camera":
		shown = rep.Cameras
	default:
		return fmt.Errorf("unknown level: %s", level)
	}

	if asJSON {
		for _, t := range shown {
			if err := storage.ExportJSON(os.Stdout, t); err != nil {
				return err
			}
		}
		return nil
	}

	fmt.Printf("run %s: %d realization(s), seed %d\n", meta.ID, meta.Realizations, meta.Seed)
	for _, t := range shown {
		fmt.Println(display.Summary(title(filepath.Base(meta.Experiment), t), t))
	}
	for _, sp := range meta.NETarrSpread {
		fmt.Printf("  %s NETarr %.1f-%.1f%%: %.4f to %.4f uK-rts\n",
			sp.Channel, meta.Percentiles[0], meta.Percentiles[1], sp.Lo*1e6, sp.Hi*1e6)
	}
	return nil
}

func title(experiment string, t *stats.Table) string {
	keys := t.Keys()
	if len(keys) == 0 {
		return experiment
	}
	switch k := keys[0]; {
	case k.Camera != "":
		return k.Telescope + "/" + k.Camera
	case k.Telescope != "":
		return k.Telescope
	}
	return experiment
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	path := filepath.Join(args[0], "config", config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
