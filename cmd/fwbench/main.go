// Package main provides the CLI entry point for fwbench, a web framework
// throughput benchmarking tool.
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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fwbench/fwbench/bench"
	"github.com/fwbench/fwbench/framework"
	"github.com/fwbench/fwbench/graph"
	"github.com/fwbench/fwbench/loadgen"
	"github.com/fwbench/fwbench/probe"
	"github.com/fwbench/fwbench/process"
	"github.com/fwbench/fwbench/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(logger, os.Stdout).ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error("fwbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "fwbench",
		Short: "Web framework throughput benchmarking tool",
		Long: `Fwbench launches every framework target as its own server process,
checks that each one answers, drives bombardier against every endpoint and
reports the best of several runs as a markdown table, a JSON results file and
PNG graphs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(logger, stdout),
		newListCmd(stdout),
		newStopCmd(logger, stdout),
		newGraphsCmd(logger, stdout),
	)

	return root
}

type runConfig struct {
	bench        bench.Config
	output       string
	frameworks   []string
	configPath   string
	binPath      string
	srcDir       string
	dataDir      string
	logDir       string
	pidFile      string
	graphsDir    string
	bombardier   string
	startupDelay time.Duration
	skipSlow     bool
	extended     bool
	skipBuild    bool
	noGraphs     bool
	outputJSON   bool
}

func newRunCmd(logger *slog.Logger, stdout io.Writer) *cobra.Command {
	cfg := runConfig{bench: bench.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark the framework targets",
		Long: `Start every selected framework, probe each one once after the startup
delay, then measure every endpoint with bombardier and write the results.
All started processes are terminated on exit, error or interrupt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), logger, stdout, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.bench.Connections, "connections", "c", cfg.bench.Connections,
		"Concurrent connections per run")
	flags.DurationVarP(&cfg.bench.Duration, "duration", "d", cfg.bench.Duration,
		"Duration of each measured run")
	flags.IntVarP(&cfg.bench.WarmupRequests, "warmup", "w", cfg.bench.WarmupRequests,
		"Warmup requests before measuring an endpoint (0 disables)")
	flags.IntVarP(&cfg.bench.Runs, "runs", "r", cfg.bench.Runs,
		"Runs per endpoint; the best is reported")
	flags.StringVar(&cfg.bench.Host, "host", cfg.bench.Host,
		"Host the targets listen on")
	flags.StringVarP(&cfg.output, "output", "o", "BENCHMARK_RESULTS.md",
		"Markdown results file; JSON results are written alongside")
	flags.StringSliceVar(&cfg.frameworks, "frameworks", nil,
		"Frameworks to benchmark (default: all)")
	flags.StringVar(&cfg.configPath, "config", "",
		"YAML framework registry replacing the built-in targets")
	flags.StringVar(&cfg.binPath, "bin", filepath.Join("bin", "benchserver"),
		"Path of the benchserver binary used by the built-in targets")
	flags.StringVar(&cfg.srcDir, "src-dir", ".",
		"Module root holding ./cmd/benchserver, used to build --bin")
	flags.StringVar(&cfg.dataDir, "data-dir", "data",
		"Directory for the built-in targets' SQLite files")
	flags.StringVar(&cfg.logDir, "log-dir", "logs",
		"Directory for per-framework server logs")
	flags.StringVar(&cfg.pidFile, "pid-file", ".fwbench.pids",
		"File recording started process IDs")
	flags.StringVar(&cfg.graphsDir, "graphs-dir", "graphs",
		"Directory for PNG graphs")
	flags.StringVar(&cfg.bombardier, "bombardier", loadgen.DefaultBinary,
		"bombardier binary name or path")
	flags.DurationVar(&cfg.startupDelay, "startup-delay", 3*time.Second,
		"Delay between starting the targets and probing them")
	flags.BoolVar(&cfg.skipSlow, "skip-slow", false,
		"Skip the /slow endpoint")
	flags.BoolVar(&cfg.extended, "extended", false,
		"Also measure /nplus1 and POST /items")
	flags.BoolVar(&cfg.skipBuild, "skip-build", false,
		"Use an existing --bin instead of building it from --src-dir")
	flags.BoolVar(&cfg.noGraphs, "no-graphs", false,
		"Do not render PNG graphs")
	flags.BoolVar(&cfg.outputJSON, "json", false,
		"Print JSON results to stdout instead of the markdown table")

	return cmd
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	cfg runConfig,
) error {
	if err := cfg.bench.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	frameworks, err := reg.Select(cfg.frameworks)
	if err != nil {
		return err
	}

	endpoints := selectEndpoints(reg, cfg.extended, cfg.skipSlow)
	if len(endpoints) == 0 {
		return errors.New("no endpoints to benchmark")
	}

	gen, err := loadgen.LookPath(cfg.bombardier, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Any("frameworks", frameworkNames(frameworks)),
		slog.Int("endpoints", len(endpoints)),
		slog.Int("connections", cfg.bench.Connections),
		slog.Duration("duration", cfg.bench.Duration),
		slog.Int("warmup", cfg.bench.WarmupRequests),
		slog.Int("runs", cfg.bench.Runs),
	)

	// Step 1: Build the benchserver binary for the built-in targets.
	if cfg.configPath == "" && !cfg.skipBuild {
		if _, err := framework.Build(ctx, logger, cfg.srcDir, cfg.binPath); err != nil {
			return err
		}
	}

	for _, dir := range []string{cfg.logDir, cfg.dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	// Step 2: Launch every target. Terminate runs on every return path.
	group := process.NewGroup(cfg.pidFile, logger)
	defer group.Terminate()

	for _, fw := range frameworks {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := group.Start(ctx, process.Spec{
			Name:    fw.Name,
			Command: fw.Command,
			Args:    fw.ExpandArgs(cfg.bench.Host),
			Dir:     fw.Dir,
			Env:     fw.Env,
			LogPath: filepath.Join(cfg.logDir, fw.Name+".log"),
		})
		if err != nil {
			return fmt.Errorf("launch %s: %w", fw.Name, err)
		}
	}

	// Step 3: One readiness probe per target after the startup delay.
	logger.InfoContext(ctx, "waiting for servers to start",
		slog.Duration("delay", cfg.startupDelay),
	)

	if err := probe.Sleep(ctx, cfg.startupDelay); err != nil {
		return err
	}

	checker := probe.NewChecker(probe.DefaultTimeout, logger)

	targets := make([]probe.Target, len(frameworks))
	for i, fw := range frameworks {
		targets[i] = probe.Target{Name: fw.Name, URL: fw.ProbeURL(cfg.bench.Host)}
	}

	if err := checker.CheckAll(ctx, targets).Err(); err != nil {
		return fmt.Errorf("%w (server logs in %s)", err, cfg.logDir)
	}

	versions := bench.FetchVersions(ctx, checker.Client, cfg.bench.Host, frameworks, logger)

	// Step 4: Measure.
	runner := &bench.Runner{
		Gen:       gen,
		Config:    cfg.bench,
		Endpoints: endpoints,
		Logger:    logger,
	}

	results, err := runner.Run(ctx, frameworks)
	if err != nil {
		return fmt.Errorf("benchmark interrupted: %w", err)
	}

	if len(results) == 0 {
		return errors.New("no endpoint produced a successful run")
	}

	// Step 5: Report.
	meta := report.Meta{
		RunID:     uuid.NewString(),
		Date:      time.Now(),
		Config:    cfg.bench,
		Endpoints: endpoints,
		Host:      report.CollectHostInfo(),
		Versions:  versions,
	}

	if err := writeResults(cfg.output, meta, results); err != nil {
		return err
	}

	logger.InfoContext(ctx, "results saved",
		slog.String("markdown", cfg.output),
		slog.String("json", resultsJSONPath(cfg.output)),
	)

	if cfg.outputJSON {
		if err := report.GenerateJSON(stdout, meta, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(stdout, meta, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if !cfg.noGraphs {
		paths, err := graph.Render(cfg.graphsDir, results, endpoints)
		if err != nil {
			return fmt.Errorf("render graphs: %w", err)
		}

		logger.InfoContext(ctx, "graphs saved",
			slog.String("dir", cfg.graphsDir),
			slog.Int("files", len(paths)),
		)
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.Int("results", len(results)),
	)

	return nil
}

func loadRegistry(cfg runConfig) (*framework.Registry, error) {
	if cfg.configPath != "" {
		return framework.Load(cfg.configPath)
	}

	dataDir, err := filepath.Abs(cfg.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	binPath, err := filepath.Abs(cfg.binPath)
	if err != nil {
		return nil, fmt.Errorf("resolve binary path: %w", err)
	}

	return framework.Defaults(binPath, dataDir), nil
}

func selectEndpoints(reg *framework.Registry, extended, skipSlow bool) []framework.Endpoint {
	endpoints := reg.EndpointList()
	if extended {
		endpoints = append(endpoints, framework.ExtendedEndpoints()...)
	}

	if skipSlow {
		endpoints = framework.WithoutSlow(endpoints)
	}

	return endpoints
}

// writeResults writes the markdown report to output and the JSON document
// next to it.
func writeResults(output string, meta report.Meta, results []bench.Result) error {
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := writeFile(output, func(w io.Writer) error {
		return report.Generate(w, meta, results)
	}); err != nil {
		return fmt.Errorf("write markdown results: %w", err)
	}

	if err := writeFile(resultsJSONPath(output), func(w io.Writer) error {
		return report.GenerateJSON(w, meta, results)
	}); err != nil {
		return fmt.Errorf("write JSON results: %w", err)
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// resultsJSONPath maps BENCHMARK_RESULTS.md to BENCHMARK_RESULTS.json.
func resultsJSONPath(output string) string {
	if strings.EqualFold(filepath.Ext(output), ".json") {
		return output + ".results.json"
	}

	return strings.TrimSuffix(output, filepath.Ext(output)) + ".json"
}

func frameworkNames(frameworks []framework.Framework) []string {
	names := make([]string, len(frameworks))
	for i, fw := range frameworks {
		names[i] = fw.Name
	}

	return names
}
