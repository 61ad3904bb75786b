// Package main serves the benchmark endpoint set on one Go web framework.
// fwbench launches one benchserver process per framework target.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwbench/fwbench/payload"
	"github.com/fwbench/fwbench/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("benchserver failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type serveConfig struct {
	framework string
	addr      string
	dbPath    string
	slowDelay time.Duration
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "benchserver",
		Short: "Serve the benchmark endpoints on a Go web framework",
		Long: fmt.Sprintf(`Benchserver exposes /json-1k, /json-10k, /db, /slow, /nplus1,
POST /items, /versions and /health on the selected framework. The graphql
framework serves the same data as queries and a createItem mutation on
POST /graphql. Supported frameworks: %v.`,
			server.Frameworks()),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, logger, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.framework, "framework", "nethttp",
		"Framework to serve with")
	flags.StringVar(&cfg.addr, "addr", "127.0.0.1:8001",
		"Listen address")
	flags.StringVar(&cfg.dbPath, "db", "benchmark.db",
		"SQLite database file for /db")
	flags.DurationVar(&cfg.slowDelay, "slow-delay", server.DefaultSlowDelay,
		"Delay of the /slow endpoint")

	return cmd
}

func serve(ctx context.Context, logger *slog.Logger, cfg serveConfig) error {
	logger = logger.With(slog.String("framework", cfg.framework))

	store, err := payload.OpenStore(ctx, cfg.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.Seed(ctx, payload.DefaultUserCount); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	srv, err := server.New(cfg.framework, &server.Handlers{
		Store:     store,
		SlowDelay: cfg.slowDelay,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.addr, err)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.InfoContext(ctx, "serving", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")

	return nil
}
