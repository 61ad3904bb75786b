package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwbench/fwbench/framework"
	"github.com/fwbench/fwbench/graph"
	"github.com/fwbench/fwbench/process"
	"github.com/fwbench/fwbench/report"
)

func newListCmd(stdout io.Writer) *cobra.Command {
	var (
		configPath string
		binPath    string
		dataDir    string
		host       string
		skipSlow   bool
		extended   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the framework targets and endpoints",
		RunE: func(_ *cobra.Command, _ []string) error {
			reg, err := loadRegistry(runConfig{
				configPath: configPath,
				binPath:    binPath,
				dataDir:    dataDir,
			})
			if err != nil {
				return err
			}

			endpoints := selectEndpoints(reg, extended, skipSlow)

			printRegistry(stdout, reg.Frameworks, endpoints, host)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		"YAML framework registry replacing the built-in targets")
	flags.StringVar(&binPath, "bin", filepath.Join("bin", "benchserver"),
		"Path of the benchserver binary used by the built-in targets")
	flags.StringVar(&dataDir, "data-dir", "data",
		"Directory for the built-in targets' SQLite files")
	flags.StringVar(&host, "host", "127.0.0.1",
		"Host the targets listen on")
	flags.BoolVar(&skipSlow, "skip-slow", false,
		"Omit the /slow endpoint")
	flags.BoolVar(&extended, "extended", false,
		"Include /nplus1 and POST /items")

	return cmd
}

func printRegistry(
	w io.Writer,
	frameworks []framework.Framework,
	endpoints []framework.Endpoint,
	host string,
) {
	fmt.Fprintln(w, "Frameworks:")
	fmt.Fprintf(w, "  %-12s %-6s %-32s %s\n", "NAME", "PORT", "PROBE", "COMMAND")

	for _, fw := range frameworks {
		command := strings.TrimSpace(fw.Command + " " + strings.Join(fw.ExpandArgs(host), " "))
		fmt.Fprintf(w, "  %-12s %-6d %-32s %s\n",
			fw.Name, fw.Port, fw.ProbeURL(host), command)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Endpoints:")

	for _, ep := range endpoints {
		method := ep.Method
		if method == "" {
			method = "GET"
		}

		fmt.Fprintf(w, "  %-6s %-20s %s\n", method, ep.ID(), ep.DisplayName())
	}
}

func newStopCmd(logger *slog.Logger, stdout io.Writer) *cobra.Command {
	var (
		pidFile string
		grace   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Terminate processes left behind by an interrupted run",
		RunE: func(_ *cobra.Command, _ []string) error {
			n, err := process.TerminatePIDFile(pidFile, grace, logger)
			if err != nil {
				return err
			}

			if n == 0 {
				fmt.Fprintln(stdout, "no recorded processes")

				return nil
			}

			fmt.Fprintf(stdout, "terminated %d process(es)\n", n)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pidFile, "pid-file", ".fwbench.pids",
		"File recording started process IDs")
	flags.DurationVar(&grace, "grace", process.DefaultGracePeriod,
		"Time to wait after SIGTERM before sending SIGKILL")

	return cmd
}

func newGraphsCmd(logger *slog.Logger, stdout io.Writer) *cobra.Command {
	var (
		from      string
		graphsDir string
	)

	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "Re-render PNG graphs from a saved JSON results file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(from)
			if err != nil {
				return fmt.Errorf("open results: %w", err)
			}
			defer f.Close()

			doc, err := report.LoadJSON(f)
			if err != nil {
				return fmt.Errorf("load %s: %w", from, err)
			}

			paths, err := graph.Render(graphsDir, doc.Results, doc.Meta.Endpoints)
			if err != nil {
				return fmt.Errorf("render graphs: %w", err)
			}

			logger.InfoContext(cmd.Context(), "graphs saved",
				slog.String("from", from),
				slog.String("dir", graphsDir),
			)

			for _, p := range paths {
				fmt.Fprintln(stdout, p)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&from, "from", "BENCHMARK_RESULTS.json",
		"JSON results file written by run")
	flags.StringVar(&graphsDir, "graphs-dir", "graphs",
		"Directory for PNG graphs")

	return cmd
}
