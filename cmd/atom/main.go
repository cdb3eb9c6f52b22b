package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/LyesMestiri/atom/internal/analysis"
	"github.com/LyesMestiri/atom/internal/automation"
	"github.com/LyesMestiri/atom/internal/compute"
	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/experiment"
	"github.com/LyesMestiri/atom/internal/gui"
	"github.com/LyesMestiri/atom/internal/optim"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
	"github.com/LyesMestiri/atom/internal/storage"
	"github.com/LyesMestiri/atom/internal/viz"
)

var (
	dataDir  string
	logLevel string
	theme    string
	logger   *log.Logger

	// run and live
	configFile  string
	dt          float64
	duration    float64
	seed        int64
	backendName string
	recordEvery int
	track       int
	noValidate  bool

	// push
	pos, mom   [3]float64
	efield     [3]float64
	hfield     [3]float64
	qm, mass   float64
	pushDt     float64
	pushSteps  int
	pushEvery  int
	pushSpecie string

	// inspecting saved runs
	particleIdx int
	component   string
	xAxis       string
	yAxis       string
	crossAxis   string
	outPath     string

	// analyze
	lyapunov     bool
	perturbation float64

	benchSizes []int
	benchSteps int

	// export-svg
	svgParticles []int
	svgX, svgY   string
	svgWidth     int
	svgHeight    int

	// optimize
	optParams    []string
	optObjective string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "atom",
		Short:         "relativistic particle pusher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "atom"})
			logger.SetLevel(level)
			return viz.SetTheme(theme)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".atom", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "terminal colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui [preset]",
		Short: "run a simulation in a 3D window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	addRunFlags(guiCmd)

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "push a single particle through constant fields and print each step",
		Args:  cobra.NoArgs,
		RunE:  runPush,
	}
	pushCmd.Flags().Float64Var(&pos[0], "x", 0, "initial x")
	pushCmd.Flags().Float64Var(&pos[1], "y", 0, "initial y")
	pushCmd.Flags().Float64Var(&pos[2], "z", 0, "initial z")
	pushCmd.Flags().Float64Var(&mom[0], "pu", 1, "initial momentum u (γv_x)")
	pushCmd.Flags().Float64Var(&mom[1], "pv", 0, "initial momentum v (γv_y)")
	pushCmd.Flags().Float64Var(&mom[2], "pw", 0, "initial momentum w (γv_z)")
	pushCmd.Flags().Float64Var(&efield[0], "ex", 0, "electric field x")
	pushCmd.Flags().Float64Var(&efield[1], "ey", 0, "electric field y")
	pushCmd.Flags().Float64Var(&efield[2], "ez", 0, "electric field z")
	pushCmd.Flags().Float64Var(&hfield[0], "hx", 0, "magnetic field x")
	pushCmd.Flags().Float64Var(&hfield[1], "hy", 0, "magnetic field y")
	pushCmd.Flags().Float64Var(&hfield[2], "hz", 1, "magnetic field z")
	pushCmd.Flags().Float64Var(&qm, "qm", -1, "charge to mass ratio")
	pushCmd.Flags().Float64Var(&mass, "mass", 1, "mass")
	pushCmd.Flags().StringVar(&pushSpecie, "species", "electron", "species ("+strings.Join(particle.SpeciesNames(), ", ")+")")
	pushCmd.Flags().Float64Var(&pushDt, "dt", 0.1, "timestep")
	pushCmd.Flags().IntVar(&pushSteps, "steps", 20, "number of steps")
	pushCmd.Flags().IntVar(&pushEvery, "every", 1, "print every n steps")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one particle's coordinates against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&particleIdx, "particle", 0, "particle index")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&particleIdx, "particle", 0, "particle index")
	phaseCmd.Flags().StringVar(&xAxis, "x-axis", "x", "component for the x-axis (x, y, z, pu, pv, pw)")
	phaseCmd.Flags().StringVar(&yAxis, "y-axis", "pu", "component for the y-axis")
	phaseCmd.Flags().StringVar(&crossAxis, "poincare", "", "show a Poincaré section at upward zero crossings of this component")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and orbit analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&particleIdx, "particle", 0, "particle index")
	analyzeCmd.Flags().StringVar(&component, "component", "x", "component to analyse")
	analyzeCmd.Flags().BoolVar(&lyapunov, "lyapunov", false, "re-run the particle from the stored config and estimate its Lyapunov exponent")
	analyzeCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-8, "initial separation for --lyapunov")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export particle paths to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntSliceVar(&svgParticles, "particles", []int{0}, "particle indices to draw")
	exportSVGCmd.Flags().StringVar(&svgX, "x-axis", "x", "horizontal component")
	exportSVGCmd.Flags().StringVar(&svgY, "y-axis", "y", "vertical component")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [preset]",
		Short: "grid search parameters minimising an objective",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOptimize,
	}
	addRunFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&optParams, "param", nil, "name=v1,v2,... (repeatable)")
	optimizeCmd.Flags().StringVar(&optObjective, "objective", optim.EnergyDrift, "metric to minimise")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "compare the Boris pusher against an RK4 reference",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareIntegrators,
	}
	addRunFlags(compareCmd)
	compareCmd.Flags().IntVar(&particleIdx, "particle", 0, "particle index")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark push backends",
		Args:  cobra.NoArgs,
		RunE:  benchBackends,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "particles", []int{1000, 10000, 100000}, "population sizes")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 100, "steps per run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFIELD\tPARTICLES\tDT\tDURATION\tBACKEND")
			for _, name := range config.ListPresets() {
				cfg, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%s\n",
					name, cfg.Field.Kind, cfg.NumParticles(), cfg.Dt, cfg.Duration, cfg.Backend)
			}
			return w.Flush()
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive preset picker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.AddCommand(runCmd, pushCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportJSONCmd, exportCSVCmd,
		exportSVGCmd, compareCmd, benchCmd, optimizeCmd, presetsCmd, liveCmd, guiCmd, scenarioCmd, tuiCmd, newDistributionCmd())

	if err := rootCmd.Execute(); err != nil {
		if logger == nil {
			logger = log.New(os.Stderr)
		}
		logger.Error(err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or ini)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "population seed")
	cmd.Flags().StringVar(&backendName, "backend", config.DefaultBackend, "push backend ("+strings.Join(compute.Names(), ", ")+")")
	cmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "record a frame every n steps")
	cmd.Flags().IntVar(&track, "track", 0, "record only the first n particles (0 = all)")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip the per-step finiteness check")
}

// loadRunConfig picks the base config (preset argument, --config file or the
// default) and applies the flags the user set explicitly.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case len(args) == 1 && configFile != "":
		return nil, fmt.Errorf("give either a preset or --config, not both")
	case len(args) == 1:
		cfg, err = config.GetPreset(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(config.ListPresets(), ", "))
		}
	case configFile != "":
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backendName
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if flags.Changed("track") {
		cfg.Track = track
	}
	if flags.Changed("no-validate") {
		cfg.ValidateState = !noValidate
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.Prepare(cfg)
	if err != nil {
		return err
	}
	exp.GetSimulator().WithLogger(logger)
	backend := exp.GetSimulator().Backend().Name()

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running", "name", cfg.Name, "particles", cfg.NumParticles(), "backend", backend)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, sim.ErrContextCanceled) {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted, saving partial result", "steps", result.StepsTaken)
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, backend, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("frames: %d\n", len(result.Frames))
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	printMetrics(result.Metrics)

	beam := analysis.BeamSummary(exp.Population())
	fmt.Println("\nfinal beam:")
	fmt.Printf("  particles: %d\n", beam.Count)
	fmt.Printf("  total energy: %.6g\n", beam.TotalEnergy)
	fmt.Printf("  invariant mass: %.6g\n", beam.InvariantMass)
	fmt.Printf("  transverse momentum: mean %.4g, max %.4g\n", beam.MeanPt, beam.MaxPt)
	fmt.Printf("  mass shell error: %.2e\n", beam.MassShellError)

	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.Prepare(cfg)
	if err != nil {
		return err
	}

	m := viz.NewModel(exp.GetSimulator(), exp.Population(), cfg.Dt, cfg.Duration, cfg.Name)
	return viz.Run(m)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.Prepare(cfg)
	if err != nil {
		return err
	}
	exp.GetSimulator().WithLogger(logger)

	gui.Run(exp)
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	if pushDt <= 0 || pushSteps <= 0 || pushEvery <= 0 {
		return fmt.Errorf("dt, steps and every must be positive")
	}
	species, err := particle.ParseSpecies(pushSpecie)
	if err != nil {
		return err
	}

	p := particle.New(pos[0], pos[1], pos[2], mom[0], mom[1], mom[2], mass, qm).WithSort(species)
	fd := particle.Field{
		E: particle.Vector3{X: efield[0], Y: efield[1], Z: efield[2]},
		H: particle.Vector3{X: hfield[0], Y: hfield[1], Z: hfield[2]},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "STEP\tT\tX\tY\tZ\tPU\tPV\tPW\tGAMMA\t")
	row := func(step int) {
		fmt.Fprintf(w, "%d\t%.4f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.9f\t\n",
			step, float64(step)*pushDt, p.X, p.Y, p.Z, p.PU, p.PV, p.PW, p.Gamma())
	}

	row(0)
	for i := 1; i <= pushSteps; i++ {
		p.Move(fd, pushDt)
		if !p.IsFinite() {
			w.Flush()
			return fmt.Errorf("step %d: %w", i, sim.ErrInvalidState)
		}
		p.Commit()
		if i%pushEvery == 0 || i == pushSteps {
			row(i)
		}
	}

	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFIELD\tPARTICLES\tSTEPS\tBACKEND\tDRIFT")

	for _, run := range runs {
		field, particles := "-", 0
		if run.Config != nil {
			field, particles = run.Config.Field.Kind, run.Config.NumParticles()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%.2e\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			field,
			particles,
			run.Steps,
			run.Backend,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(traj.Frames) == 0 {
		return nil, nil, fmt.Errorf("run %s has no frames", runID)
	}
	return meta, traj, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particle: %d\n", particleIdx)
	fmt.Printf("samples: %d\n\n", len(traj.Frames))

	for _, comp := range []string{"x", "y", "z", "pu", "pv", "pw"} {
		data, err := traj.Series(particleIdx, comp)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(comp+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	xs, err := traj.Series(particleIdx, xAxis)
	if err != nil {
		return err
	}
	ys, err := traj.Series(particleIdx, yAxis)
	if err != nil {
		return err
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("particle %d, x-axis: %s, y-axis: %s\n\n", particleIdx, xAxis, yAxis)

	if crossAxis != "" {
		cross, err := traj.Series(particleIdx, crossAxis)
		if err != nil {
			return err
		}
		section, err := analysis.PoincareSectionOf(cross, xs, ys, 0)
		if err != nil {
			return err
		}
		fmt.Printf("poincaré section at %s = 0 (%d crossings)\n", crossAxis, len(section.Points))
		fmt.Print(analysis.PoincareSectionToASCII(section, 70, 20))
		return nil
	}

	portrait, err := analysis.PhasePortrait(xs, ys)
	if err != nil {
		return err
	}
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	data, err := traj.Series(particleIdx, component)
	if err != nil {
		return err
	}
	times := traj.Times()
	if len(times) < 4 {
		return fmt.Errorf("need at least 4 frames, got %d", len(times))
	}
	sample := (times[len(times)-1] - times[0]) / float64(len(times)-1)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("particle %d, component %s, sample interval %.4g\n\n", particleIdx, component, sample)

	ps := analysis.PowerSpectrum(data)
	plotData := ps[:max(len(ps)/4, 2)]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+component+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, sample)
	fmt.Printf("dominant frequency: %.4f (ω = %.4f)\n", freq, 2*math.Pi*freq)
	if freq > 0 {
		fmt.Printf("period: %.4f\n", 1.0/freq)
	}

	xs, _ := traj.Series(particleIdx, "x")
	ys, _ := traj.Series(particleIdx, "y")
	if orbit, err := analysis.OrbitStats(xs, ys); err == nil {
		fmt.Printf("\norbit centre: (%.4f, %.4f)\n", orbit.CenterX, orbit.CenterY)
		fmt.Printf("orbit radius: %.4f (min %.4f, max %.4f)\n", orbit.MeanRadius, orbit.MinRadius, orbit.MaxRadius)
	}

	cfg := meta.Config
	if cfg != nil && cfg.Field.Kind == config.FieldUniform && particleIdx < len(traj.Frames[0].Momenta) {
		h := particle.Vector3{X: cfg.Field.H[0], Y: cfg.Field.H[1], Z: cfg.Field.H[2]}
		b := h.Norm()
		sp := speciesConfigOf(cfg, particleIdx)
		if b > 0 && sp != nil && sp.QM != 0 {
			p0 := traj.Frames[0].Momenta[particleIdx]
			gamma := particle.New(0, 0, 0, p0.X, p0.Y, p0.Z, 1, sp.QM).Gamma()
			pPar := p0.Dot(h) / b
			pPerp := p0.Sub(h.Mult(pPar / b)).Norm()
			fmt.Printf("\nuniform-field reference: ω = %.4f, r = %.4f\n",
				analysis.GyroFrequency(sp.QM, b, gamma), analysis.GyroRadius(pPerp, sp.QM, b))
		}
	}

	if lyapunov {
		if cfg == nil {
			return fmt.Errorf("run %s has no stored config, cannot rebuild it for --lyapunov", meta.ID)
		}
		lambda, err := lyapunovOf(cfg, particleIdx, perturbation)
		if err != nil {
			return err
		}
		fmt.Printf("\nlyapunov exponent: %.4e (perturbation %g)\n", lambda, perturbation)
	}

	return nil
}

// lyapunovOf rebuilds the population and field of cfg and estimates the
// Lyapunov exponent of particle index over the configured duration.
func lyapunovOf(cfg *config.Config, index int, perturbation float64) (float64, error) {
	if perturbation <= 0 {
		return 0, fmt.Errorf("perturbation must be positive, got %g", perturbation)
	}
	exp, err := experiment.Prepare(cfg)
	if err != nil {
		return 0, err
	}
	pop := exp.Population()
	if index < 0 || index >= len(pop) {
		return 0, fmt.Errorf("particle %d out of range [0, %d)", index, len(pop))
	}
	src := exp.GetSimulator().Source()
	return analysis.LyapunovExponent(src, pop[index], cfg.Dt, cfg.Duration, perturbation), nil
}

func speciesConfigOf(cfg *config.Config, index int) *config.SpeciesConfig {
	for i := range cfg.Species {
		if index < cfg.Species[i].Count {
			return &cfg.Species[i]
		}
		index -= cfg.Species[i].Count
	}
	return nil
}

// savedResult rebuilds the exportable parts of a result from disk.
func savedResult(meta *storage.RunMetadata, traj *storage.Trajectory) *sim.Result {
	return &sim.Result{
		Frames:      traj.Frames,
		Metrics:     meta.Metrics,
		EnergyDrift: meta.EnergyDrift,
		StepsTaken:  meta.Steps,
	}
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Config == nil {
		return fmt.Errorf("run %s has no stored config", meta.ID)
	}

	result := savedResult(meta, traj)
	if outPath == "" {
		return storage.ExportJSONStdout(meta.Config, meta.Backend, result)
	}
	if err := storage.ExportJSON(outPath, meta.Config, meta.Backend, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Config == nil {
		return fmt.Errorf("run %s has no stored config", meta.ID)
	}

	if outPath == "" {
		return storage.WriteTrajectoryCSV(os.Stdout, meta.Config, traj.Frames)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := storage.WriteTrajectoryCSV(file, meta.Config, traj.Frames); err != nil {
		return err
	}
	fmt.Printf("exported %d frames to %s\n", len(traj.Frames), outPath)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if outPath == "" {
		return storage.WriteTrajectorySVG(os.Stdout, traj, svgX, svgY, svgParticles, svgWidth, svgHeight)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := storage.WriteTrajectorySVG(file, traj, svgX, svgY, svgParticles, svgWidth, svgHeight); err != nil {
		return err
	}
	fmt.Printf("exported %d paths to %s\n", len(svgParticles), outPath)
	return nil
}

// parseGrid turns "name=v1,v2" flags into parallel name and value slices.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value in --param %q: %w", spec, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(optParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	names, ranges, err := parseGrid(optParams)
	if err != nil {
		return err
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	search.WithLogger(logger)

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("grid search", "name", cfg.Name, "points", search.Points(), "objective", optObjective)
	start := time.Now()
	best, value, err := search.Search(ctx, cfg, optObjective)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("best %s: %.6e\n", optObjective, value)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.Prepare(cfg)
	if err != nil {
		return err
	}
	pop := exp.Population()
	if particleIdx < 0 || particleIdx >= len(pop) {
		return fmt.Errorf("particle %d out of range [0, %d)", particleIdx, len(pop))
	}

	src := exp.GetSimulator().Source()
	fmt.Printf("integrator comparison: %s, particle %d (%s)\n\n", cfg.Name, particleIdx, pop[particleIdx].Sort)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tBORIS |P| DRIFT\tRK4 |P| DRIFT\tMAX SEPARATION")
	for _, step := range []float64{cfg.Dt * 4, cfg.Dt * 2, cfg.Dt} {
		c := analysis.CompareIntegrators(src, pop[particleIdx], step, cfg.Duration)
		fmt.Fprintf(w, "%g\t%d\t%.3e\t%.3e\t%.3e\n",
			step, c.Steps, c.BorisMomentumDrift, c.RK4MomentumDrift, c.MaxSeparation)
	}
	return w.Flush()
}

func benchBackends(cmd *cobra.Command, args []string) error {
	if benchSteps <= 0 {
		return fmt.Errorf("steps must be positive")
	}

	base, err := config.GetPreset("beam")
	if err != nil {
		return err
	}
	base.Duration = float64(benchSteps) * base.Dt
	base.RecordEvery = benchSteps
	base.Track = 1

	fmt.Printf("benchmarking %d steps in the beam field\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tPARTICLES\tTIME\tPUSHES/SEC")

	for _, name := range []string{"serial", "cpu"} {
		for _, n := range benchSizes {
			cfg := base.Clone()
			cfg.Backend = name
			cfg.Species = cfg.Species[:1]
			cfg.Species[0].Count = n

			exp, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			rate := float64(result.StepsTaken*n) / elapsed.Seconds()

			fmt.Fprintf(w, "%s\t%d\t%v\t%.3g\n", exp.GetSimulator().Backend().Name(), n, elapsed, rate)
		}
	}

	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("scenario", "name", scenario.Name, "steps", len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, st, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tSTEPS\tDRIFT\tRUN")
	for i, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.2e\t%s\n", i+1, r.Name, r.Result.StepsTaken, r.Result.EnergyDrift, runID)
	}
	return w.Flush()
}
