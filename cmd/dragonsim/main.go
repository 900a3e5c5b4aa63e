package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/dragonsim/internal/compute"
	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/engine"
	"github.com/san-kum/dragonsim/internal/export"
	"github.com/san-kum/dragonsim/internal/fractal"
	"github.com/san-kum/dragonsim/internal/gui"
	"github.com/san-kum/dragonsim/internal/metrics"
	"github.com/san-kum/dragonsim/internal/optim"
	"github.com/san-kum/dragonsim/internal/storage"
	"github.com/san-kum/dragonsim/internal/viz"
)

const defaultRounds = 10

var (
	dataDir string
	verbose bool

	exportOut string

	// snapshot
	snapshotOut string
	zoom        int
	annotate    bool
	svgPath     string
	svgCell     float64
	gifPath     string
	gifDelay    time.Duration
	framesDir   string

	benchRounds  int
	benchSteps   int
	benchWorkers int

	// sweep
	sweepAngles []float64
	sweepSteps  []float64
	sweepMetric string
	minimize    bool
	jobs        int
)

// main runs the dragonsim commands and exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd registers every command. Without a subcommand it opens the live
// terminal view.
func newRootCmd() *cobra.Command {
	rootCmd := foldCommand("dragonsim", "rotational feedback fold automaton", runLive)
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			engine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dragonsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity to stderr")

	runCmd := foldCommand("run", "run rounds headless and save the result", runFold)
	liveCmd := foldCommand("live", "animate the fold in the terminal", runLive)
	guiCmd := foldCommand("gui", "animate the fold in a window", runGUI)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and round history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	snapshotCmd := foldCommand("snapshot", "run rounds and write the final frame as an image", snapshot)
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "dragonsim.png", "png output path")
	snapshotCmd.Flags().IntVar(&zoom, "zoom", 1, "nearest neighbour magnification")
	snapshotCmd.Flags().BoolVar(&annotate, "annotate", true, "draw the pivot and bounding box")
	snapshotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the final buffer as svg")
	snapshotCmd.Flags().Float64Var(&svgCell, "cell", 1, "svg cell size")
	snapshotCmd.Flags().StringVar(&gifPath, "gif", "", "also write the committed rounds as a gif")
	snapshotCmd.Flags().DurationVar(&gifDelay, "gif-delay", 200*time.Millisecond, "gif frame delay")
	snapshotCmd.Flags().StringVar(&framesDir, "frames", "", "also write every rendered frame as png into this directory")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tANGLE\tSTEP\tROUNDS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				iters := "unbounded"
				if p.Iterations >= 0 {
					iters = fmt.Sprintf("%d", p.Iterations)
				}
				fmt.Fprintf(w, "%s\t%dx%d\t%.1f°\t%.1f°\t%s\n",
					name, p.Width, p.Height, degrees(p.Angle), degrees(p.AngleStep), iters)
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark compute backends",
		Args:  cobra.NoArgs,
		RunE:  benchBackends,
	}
	benchCmd.Flags().IntVar(&benchRounds, "rounds", 3, "rounds per case")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 4, "sub-frames per round")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "cpu workers (0 = all cores)")

	sweepCmd := foldCommand("sweep", "grid search fold angles by a metric", sweep)
	sweepCmd.Flags().Float64SliceVar(&sweepAngles, "angles", []float64{45, 60, 90, 120}, "fold angles in degrees")
	sweepCmd.Flags().Float64SliceVar(&sweepSteps, "angle-steps", []float64{0}, "per-round angle increments in degrees")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "coverage", "metric to rank by")
	sweepCmd.Flags().BoolVar(&minimize, "minimize", false, "rank lower scores first")
	sweepCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "concurrent runs (0 = all cores)")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, listCmd, plotCmd, exportCmd, snapshotCmd, presetsCmd, benchCmd, sweepCmd)
	return rootCmd
}

// foldCommand builds a command that takes the fold flags. Each command gets
// its own config.Flags.
func foldCommand(use, short string, run func(cmd *cobra.Command, ff *config.Flags) error) *cobra.Command {
	ff := &config.Flags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ff)
		},
	}
	ff.Register(cmd.Flags(), compute.Names())
	return cmd
}

// headless bounds an unbounded run and drops the animation delays.
func headless(cfg *config.Config) {
	if cfg.Iterations < 0 {
		cfg.Iterations = defaultRounds
	}
	cfg.FrameDelay = 0
	cfg.RoundDelay = 0
}

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	b, err := compute.ByName(cfg.Backend, cfg.Workers)
	if err != nil {
		return nil, err
	}
	return engine.New(b), nil
}

func newRunner(cfg *config.Config) (*fractal.Runner, error) {
	eng, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	r, err := fractal.NewRunner(cfg, eng)
	if err != nil {
		eng.Backend().Cleanup()
		return nil, err
	}
	for _, m := range metrics.Defaults() {
		r.AddMetric(m)
	}
	return r, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runFold(cmd *cobra.Command, ff *config.Flags) error {
	cfg, name, err := ff.Resolve(cmd.Flags())
	if err != nil {
		return err
	}
	headless(cfg)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer r.Engine().Backend().Cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: %dx%d, %d rounds on %s...\n",
		name, cfg.Width, cfg.Height, cfg.Iterations, r.Engine().Backend().Name())
	start := time.Now()

	result, err := r.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	final, err := r.Snapshot()
	if err != nil {
		return err
	}
	runID, err := st.Save(name, cfg, r.Engine().Backend().Name(), result, final)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("rounds: %d\n", len(result.Rounds))
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Defaults() {
		fmt.Println("  " + viz.Metric(m.Name(), fmt.Sprintf("%.6f", result.Metrics[m.Name()])))
	}
	if len(result.Rounds) > 0 {
		fmt.Println()
		fmt.Println(viz.GrowthPlot(result.Rounds, 60, 10))
	}
	return nil
}

func runLive(cmd *cobra.Command, ff *config.Flags) error {
	if ff.Interactive() {
		eng, err := newEngine(&config.Config{Backend: ff.Backend, Workers: ff.Workers})
		if err != nil {
			return err
		}
		defer eng.Backend().Cleanup()
		return viz.RunInteractive(eng, func(cfg *config.Config) { ff.Apply(cmd.Flags(), cfg) })
	}

	cfg, name, err := ff.Resolve(cmd.Flags())
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer r.Engine().Backend().Cleanup()
	return viz.Run(r, name)
}

func runGUI(cmd *cobra.Command, ff *config.Flags) error {
	if ff.Interactive() {
		eng, err := newEngine(&config.Config{Backend: ff.Backend, Workers: ff.Workers})
		if err != nil {
			return err
		}
		defer eng.Backend().Cleanup()
		return gui.RunInteractive(eng)
	}

	cfg, name, err := ff.Resolve(cmd.Flags())
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer r.Engine().Backend().Cleanup()
	return gui.Run(r, name)
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIZE\tANGLE\tROUNDS\tBACKEND")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.1f°\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width,
			run.Height,
			degrees(run.Angle),
			run.Rounds,
			run.Backend,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	history, err := st.LoadRounds(runID)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("rounds: %d\n\n", len(history))

	fmt.Println(viz.GrowthPlot(history, 80, 10))
	fmt.Println()
	fmt.Println(viz.ScalePlot(history, 80, 10))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if exportOut == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(f, args[0]); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], exportOut)
	return nil
}

func snapshot(cmd *cobra.Command, ff *config.Flags) error {
	cfg, name, err := ff.Resolve(cmd.Flags())
	if err != nil {
		return err
	}
	headless(cfg)

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer r.Engine().Backend().Cleanup()

	var committed, rendered []image.Image
	if gifPath != "" || framesDir != "" {
		seed, err := r.Snapshot()
		if err != nil {
			return err
		}
		committed = append(committed, seed)
		rendered = append(rendered, seed)
		r.AddObserver(fractal.ObserverFunc(func(f fractal.Frame) {
			if f.Image == nil {
				return
			}
			if framesDir != "" {
				rendered = append(rendered, f.Image)
			}
			if f.Final {
				committed = append(committed, f.Image)
			}
		}))
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := r.Run(ctx)
	if err != nil {
		return err
	}

	img, err := r.Snapshot()
	if err != nil {
		return err
	}
	var out image.Image = img
	if annotate {
		st := r.State()
		if out, err = export.Annotate(img, st.End, st.Bounds); err != nil {
			return err
		}
	}
	last := result.Last()
	out = export.Caption(out, fmt.Sprintf("%s  round %d  %.1f deg  %d px", name, last.Round, degrees(last.Angle), last.Active))
	if err := export.SavePNG(snapshotOut, out, zoom); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", snapshotOut)

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.BufferToSVG(r.Current(), svgCell)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}

	if gifPath != "" {
		f, err := os.Create(gifPath)
		if err != nil {
			return err
		}
		if err := export.EncodeGIF(f, committed, gifDelay); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d frames)\n", gifPath, len(committed))
	}

	if framesDir != "" {
		paths, err := export.WriteFrames(ctx, framesDir, rendered, cfg.Workers)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d frames to %s\n", len(paths), framesDir)
	}
	return nil
}

func benchBackends(cmd *cobra.Command, args []string) error {
	sizes := []int{128, 256, 512}

	fmt.Printf("benchmarking %d rounds of %d sub-frames\n\n", benchRounds, benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tSIZE\tFRAMES\tTIME\tFRAMES/SEC\tMPIX/SEC")

	for _, name := range compute.Names() {
		for _, size := range sizes {
			cfg := config.DefaultConfig()
			cfg.Width, cfg.Height = size, size
			cfg.Margin = float64(size) / 2
			cfg.Steps = benchSteps
			cfg.Iterations = benchRounds
			cfg.FrameDelay, cfg.RoundDelay = 0, 0
			cfg.Backend = name
			cfg.Workers = benchWorkers

			eng, err := newEngine(cfg)
			if err != nil {
				return err
			}
			r, err := fractal.NewRunner(cfg, eng)
			if err != nil {
				return err
			}

			start := time.Now()
			if _, err := r.Run(context.Background()); err != nil {
				return err
			}
			elapsed := time.Since(start)
			label := eng.Backend().Name()
			eng.Backend().Cleanup()

			frames := benchRounds * benchSteps
			perSec := float64(frames) / elapsed.Seconds()
			mpix := perSec * float64(size*size) / 1e6

			fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.1f\t%.1f\n",
				label, size, frames, elapsed.Round(time.Microsecond), perSec, mpix)
		}
	}

	return w.Flush()
}

func sweep(cmd *cobra.Command, ff *config.Flags) error {
	base, _, err := ff.Resolve(cmd.Flags())
	if err != nil {
		return err
	}
	headless(base)

	toRadians := func(deg []float64) []float64 {
		out := make([]float64, len(deg))
		for i, d := range deg {
			out[i] = radians(d)
		}
		return out
	}
	g := optim.NewGridSearch(
		[]string{"angle", "angle_step"},
		[][]float64{toRadians(sweepAngles), toRadians(sweepSteps)},
	)
	g.Workers = jobs
	g.Maximize = !minimize

	// one serial engine per run; the grid supplies the parallelism
	build := func(params map[string]float64) (*fractal.Runner, error) {
		cfg := base.Clone()
		if err := optim.Apply(cfg, params); err != nil {
			return nil, err
		}
		r, err := fractal.NewRunner(cfg, engine.New(compute.NewSerialBackend()))
		if err != nil {
			return nil, err
		}
		for _, m := range metrics.Defaults() {
			r.AddMetric(m)
		}
		return r, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %d angles x %d steps, %d rounds each at %dx%d\n\n",
		len(sweepAngles), len(sweepSteps), base.Iterations, base.Width, base.Height)
	start := time.Now()
	trials, err := g.Search(ctx, build, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ANGLE\tSTEP\t%s\tACTIVE\tSCALE\n", strings.ToUpper(sweepMetric))
	for _, tr := range trials {
		angle, step := degrees(tr.Params["angle"]), degrees(tr.Params["angle_step"])
		if tr.Err != nil {
			fmt.Fprintf(w, "%.1f°\t%.1f°\terror: %v\t\t\n", angle, step, tr.Err)
			continue
		}
		last := tr.Result.Last()
		fmt.Fprintf(w, "%.1f°\t%.1f°\t%.6f\t%d\t%.0f\n", angle, step, tr.Score, last.Active, last.Scale)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := optim.Best(trials); ok {
		fmt.Printf("\nbest: %.1f° (+%.1f°/round) %s=%.6f in %v\n",
			degrees(best.Params["angle"]), degrees(best.Params["angle_step"]), sweepMetric, best.Score, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }
