// Package main provides the CLI entry point for kernelbench, a
// micro-benchmark suite that runs deterministic kernels under several
// execution strategies and compares their timings and results.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/weiihann/kernelbench/config"
	"github.com/weiihann/kernelbench/harness"
	"github.com/weiihann/kernelbench/kernel"
	"github.com/weiihann/kernelbench/report"
	"github.com/weiihann/kernelbench/workload"
)

var errResultsDisagree = errors.New("results disagree across strategies")

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("kernelbench failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "kernelbench",
		Short: "Deterministic kernel micro-benchmarks across execution strategies",
		Long: `Kernelbench runs a fixed set of deterministic compute kernels under up to
three execution strategies (in-process optimized, native worker, unoptimized
baseline worker), times one warm invocation of each, and checks that every
strategy produced the same result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(
		newRunCmd(logger),
		newListCmd(),
		newBuildCmd(logger),
		newPlanCmd(),
	)

	return root
}

// configFlags are shared by commands that read a run configuration.
type configFlags struct {
	path       string
	profile    string
	strategies []string
	kernels    []string
	binDir     string
	sourceDir  string
}

func (f *configFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.path, "config", "c", "",
		"Path to a YAML config file")
	flags.StringVar(&f.profile, "profile", "",
		"Workload profile: full, quick")
	flags.StringSliceVar(&f.strategies, "strategies", nil,
		"Strategies to run (e.g. optimized,native,baseline)")
	flags.StringSliceVar(&f.kernels, "kernels", nil,
		"Kernels to run (default: all)")
	flags.StringVar(&f.binDir, "bin-dir", "",
		"Directory for worker binaries (default: ./bin)")
	flags.StringVar(&f.sourceDir, "source-dir", "",
		"Module root the workers are built from (default: .)")
}

// load reads the config file, if any, and applies flags that were set.
func (f *configFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if f.path != "" {
		var err error

		cfg, err = config.Load(f.path)
		if err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()

	if flags.Changed("profile") {
		cfg.Profile = f.profile
	}

	if flags.Changed("strategies") {
		cfg.Strategies = make(map[string]bool)
		for _, id := range f.strategies {
			cfg.Strategies[id] = true
		}
	}

	if flags.Changed("kernels") {
		cfg.Kernels = make(map[string]bool)
		for _, id := range kernel.IDs() {
			cfg.Kernels[id] = false
		}

		for _, id := range f.kernels {
			cfg.Kernels[id] = true
		}
	}

	if flags.Changed("bin-dir") {
		cfg.BinDir = f.binDir
	}

	if flags.Changed("source-dir") {
		cfg.SourceDir = f.sourceDir
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	var err error

	cfg.BinDir, err = filepath.Abs(cfg.BinDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve bin dir: %w", err)
	}

	cfg.SourceDir, err = filepath.Abs(cfg.SourceDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve source dir: %w", err)
	}

	return cfg, nil
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		cf          configFlags
		planPath    string
		skipBuild   bool
		format      string
		resultsFile string
		metricsFile string
		maxULP      uint
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark suite",
		Long: `Build the worker binaries, run every enabled kernel under every enabled
strategy, and report elapsed times and result agreement.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()

			if flags.Changed("plan") {
				cfg.PlanFile = planPath
			}

			if flags.Changed("skip-build") {
				cfg.SkipBuild = skipBuild
			}

			if flags.Changed("format") {
				cfg.Format = format
			}

			if flags.Changed("results-file") {
				cfg.ResultsFile = resultsFile
			}

			if flags.Changed("metrics-file") {
				cfg.MetricsFile = metricsFile
			}

			if flags.Changed("max-ulp") {
				cfg.MaxULP = maxULP
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			return runBenchmark(ctx, logger, cfg, cmd.OutOrStdout())
		},
	}

	cf.register(cmd)

	flags := cmd.Flags()
	flags.StringVar(&planPath, "plan", "",
		"Path to a JSONL plan file (replaces the profile)")
	flags.BoolVar(&skipBuild, "skip-build", false,
		"Use existing worker binaries instead of building them")
	flags.StringVar(&format, "format", "",
		"Report format: markdown, table, json (default: table on a terminal)")
	flags.StringVar(&resultsFile, "results-file", "",
		"Append one line per record to this file")
	flags.StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus textfile metrics to this path")
	flags.UintVar(&maxULP, "max-ulp", 0,
		"Allowed float difference in units in the last place (0 = bitwise)")
	flags.DurationVar(&timeout, "timeout", 0,
		"Abort the run after this long (0 = no limit)")

	return cmd
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	out io.Writer,
) error {
	// Step 1: Select kernels and parameters.
	descriptors, err := cfg.Workload()
	if err != nil {
		return fmt.Errorf("build workload: %w", err)
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("profile", cfg.Profile),
		slog.String("plan", cfg.PlanFile),
		slog.Int("kernels", len(descriptors)),
	)

	// Step 2: Build or resolve worker binaries.
	strategies, err := buildStrategies(ctx, logger, cfg)
	if err != nil {
		return err
	}

	// Step 3: Run the suite, persisting records as they arrive.
	suite := harness.NewSuite(descriptors, strategies, logger)

	var results *report.ResultsFile

	if cfg.ResultsFile != "" {
		results, err = report.OpenResultsFile(cfg.ResultsFile)
		if err != nil {
			return err
		}
		defer results.Close()
	}

	records := make([]harness.Record, 0, len(descriptors)*len(strategies))

	sink := func(r harness.Record) error {
		records = append(records, r)
		if results != nil {
			return results.Append(r)
		}

		return nil
	}

	if err := suite.Run(ctx, sink); err != nil {
		return fmt.Errorf("run suite: %w", err)
	}

	if len(records) == 0 {
		logger.WarnContext(ctx, "nothing to run: no kernel or strategy enabled")
		return nil
	}

	// Step 4: Report.
	run := report.NewRun(suite.RunID, harness.DetectHost(), records, cfg.MaxULP)

	if err := writeReport(out, resolveFormat(cfg.Format, out), run); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := report.WriteMetrics(cfg.MetricsFile, run); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.String("run_id", run.RunID),
		slog.Int("records", len(records)),
	)

	if !run.Agree() {
		return errResultsDisagree
	}

	return nil
}

// buildStrategies returns the enabled strategies in run order, building
// worker binaries as needed.
func buildStrategies(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
) ([]harness.Strategy, error) {
	var strategies []harness.Strategy

	for _, id := range harness.KnownStrategies() {
		if !cfg.StrategyEnabled(id) {
			continue
		}

		w, ok := cfg.Worker(id)
		if !ok {
			strategies = append(strategies, harness.NewInProcess())
			continue
		}

		binPath, err := workerBinary(ctx, logger, cfg, id, w)
		if err != nil {
			return nil, err
		}

		cmdCfg := harness.WrapCommand(w.Wrapper, binPath)
		strategies = append(strategies, harness.NewProcess(
			id, workerLabel(id, w),
			cmdCfg.Binary, cmdCfg.ExtraArgs, cmdCfg.Env, logger,
		))
	}

	return strategies, nil
}

func workerBinary(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	id string,
	w config.Worker,
) (string, error) {
	if w.Binary != "" {
		return w.Binary, nil
	}

	if cfg.SkipBuild {
		return harness.ResolveBinary(cfg.BinDir, id), nil
	}

	binPath, err := harness.Build(ctx, logger, harness.BuildConfig{
		Strategy:  id,
		Compiler:  w.Compiler,
		Flags:     w.Flags,
		SourceDir: cfg.SourceDir,
		BinDir:    cfg.BinDir,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", harness.ErrStrategyUnavailable, err)
	}

	return binPath, nil
}

func workerLabel(id string, w config.Worker) string {
	label := w.Compiler + " " + id
	if w.Binary != "" {
		label = filepath.Base(w.Binary) + " " + id
	}

	if w.Flags != "" {
		label += " [" + w.Flags + "]"
	}

	return label
}

func resolveFormat(format string, out io.Writer) string {
	if format != "" {
		return format
	}

	f, ok := out.(*os.File)
	if ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "table"
	}

	return "markdown"
}

func writeReport(w io.Writer, format string, run report.Run) error {
	switch format {
	case "json":
		return report.GenerateJSON(w, run)
	case "table":
		return report.GenerateTable(w, run)
	default:
		return report.Generate(w, run)
	}
}

func newListCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List kernels and their parameters for a profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := workload.Lookup(profile)
			if err != nil {
				return err
			}

			return listKernels(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", workload.Full.Name,
		"Workload profile: full, quick")

	return cmd
}

func listKernels(w io.Writer, p workload.Profile) error {
	descriptors, err := workload.Build(workload.Config{Profile: p})
	if err != nil {
		return err
	}

	rows := make([][]string, len(descriptors))
	for i, d := range descriptors {
		parts := make([]string, len(d.Params))
		for j, v := range d.Params {
			parts[j] = fmt.Sprintf("%s=%d", d.Kernel.Params[j], v)
		}

		rows[i] = []string{d.Kernel.ID, d.Kernel.Name, strings.Join(parts, " "), d.Kernel.Result.String()}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Kernel", "Params ("+p.Name+")", "Result").
		Rows(rows...)

	_, err = fmt.Fprintln(w, t.String())

	return err
}

func newBuildCmd(logger *slog.Logger) *cobra.Command {
	var cf configFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build worker binaries for the enabled worker strategies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}

			cfg.SkipBuild = false

			for _, id := range harness.KnownStrategies() {
				w, ok := cfg.Worker(id)
				if !ok || !cfg.StrategyEnabled(id) || w.Binary != "" {
					continue
				}

				binPath, err := workerBinary(cmd.Context(), logger, cfg, id, w)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), binPath)
			}

			return nil
		},
	}

	cf.register(cmd)

	return cmd
}

func newPlanCmd() *cobra.Command {
	var (
		cf     configFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Write the selected workload as a JSONL plan file",
		Long: `Write one line per selected kernel with its parameters. The plan can be
edited and passed back to "kernelbench run --plan".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}

			descriptors, err := cfg.Workload()
			if err != nil {
				return err
			}

			if output == "" {
				return workload.Write(cmd.OutOrStdout(), descriptors)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create plan %s: %w", output, err)
			}

			if err := workload.Write(f, descriptors); err != nil {
				f.Close()
				return err
			}

			return f.Close()
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"Write the plan here instead of stdout")

	return cmd
}
