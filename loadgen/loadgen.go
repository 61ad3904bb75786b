// Package loadgen drives the external bombardier load generator and parses
// its JSON summary.
package loadgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultBinary is the load generator looked up on PATH.
const DefaultBinary = "bombardier"

// InstallHint tells users how to obtain the load generator.
const InstallHint = "go install github.com/codesenberg/bombardier@latest"

const (
	warmupConnections = 10
	warmupTimeout     = 60 * time.Second
	runTimeoutSlack   = 30 * time.Second
)

// ErrNotFound is returned when the load generator binary is missing.
var ErrNotFound = errors.New("load generator not found")

// Spec describes one measured run.
type Spec struct {
	URL         string
	Connections int
	Duration    time.Duration
	Method      string
	Body        string
	Headers     []string
}

// Args returns the bombardier command line for s.
func (s Spec) Args() []string {
	args := []string{
		"-c", strconv.Itoa(s.Connections),
		"-d", formatDuration(s.Duration),
		"-l",
		"--print", "r",
		"--format", "json",
	}

	if s.Method != "" && s.Method != "GET" {
		args = append(args, "-m", s.Method)
	}

	if s.Body != "" {
		args = append(args, "-b", s.Body)
	}

	for _, h := range s.Headers {
		args = append(args, "-H", h)
	}

	return append(args, s.URL)
}

// Bombardier runs the bombardier binary.
type Bombardier struct {
	Path   string
	Logger *slog.Logger
}

// LookPath resolves name on PATH. A missing binary yields ErrNotFound.
func LookPath(name string, logger *slog.Logger) (*Bombardier, error) {
	if name == "" {
		name = DefaultBinary
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (install with: %s)",
			ErrNotFound, name, InstallHint)
	}

	return &Bombardier{Path: path, Logger: logger}, nil
}

// Warmup sends a fixed number of requests to url and discards the result.
func (b *Bombardier) Warmup(ctx context.Context, url string, requests int) error {
	if requests <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.Path,
		"-c", strconv.Itoa(warmupConnections),
		"-n", strconv.Itoa(requests),
		"--print", "r",
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("warmup %s: %w: %s",
			url, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

// Run executes one measured run and parses its summary.
func (b *Bombardier) Run(ctx context.Context, spec Spec) (Measurement, error) {
	ctx, cancel := context.WithTimeout(ctx, spec.Duration+runTimeoutSlack)
	defer cancel()

	args := spec.Args()
	b.Logger.DebugContext(ctx, "running bombardier",
		slog.String("binary", b.Path),
		slog.String("args", strings.Join(args, " ")),
	)

	cmd := exec.CommandContext(ctx, b.Path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Measurement{}, fmt.Errorf("bombardier timed out after %s", spec.Duration+runTimeoutSlack)
		}

		return Measurement{}, fmt.Errorf("bombardier failed: %w\nstderr: %s",
			err, stderr.String())
	}

	m, err := Parse(&stdout)
	if err != nil {
		return Measurement{}, fmt.Errorf("parse bombardier output: %w\nstdout: %s",
			err, stdout.String())
	}

	return m, nil
}

// formatDuration renders d the way bombardier's -d flag expects it.
func formatDuration(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}

	return d.String()
}
