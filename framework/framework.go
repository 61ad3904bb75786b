// Package framework describes the benchmark targets: which server to start,
// how to start it, and where to reach it.
package framework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownFramework is returned by Select for names not in the registry.
var ErrUnknownFramework = errors.New("unknown framework")

// DefaultProbePath is probed when a framework does not set ProbePath.
const DefaultProbePath = "/json-1k"

// Framework is one server under comparison.
type Framework struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
	// Prefix is prepended to every endpoint path, e.g. "/drf".
	Prefix       string   `yaml:"prefix"`
	ProbePath    string   `yaml:"probe_path"`
	VersionsPath string   `yaml:"versions_path"`
	Command      string   `yaml:"command"`
	Args         []string `yaml:"args"`
	Dir          string   `yaml:"dir"`
	Env          []string `yaml:"env"`
}

// BaseURL returns the URL endpoints are appended to.
func (f Framework) BaseURL(host string) string {
	return "http://" + f.Addr(host) + f.Prefix
}

// Addr returns host:port.
func (f Framework) Addr(host string) string {
	return host + ":" + strconv.Itoa(f.Port)
}

// ProbeURL returns the readiness probe URL.
func (f Framework) ProbeURL(host string) string {
	path := f.ProbePath
	if path == "" {
		path = DefaultProbePath
	}

	return f.BaseURL(host) + path
}

// VersionsURL returns the version report URL, or "" when the target has none.
func (f Framework) VersionsURL(host string) string {
	if f.VersionsPath == "" {
		return ""
	}

	return f.BaseURL(host) + f.VersionsPath
}

// ExpandArgs substitutes {name}, {host}, {port} and {addr} in Args.
func (f Framework) ExpandArgs(host string) []string {
	r := strings.NewReplacer(
		"{name}", f.Name,
		"{host}", host,
		"{port}", strconv.Itoa(f.Port),
		"{addr}", f.Addr(host),
	)

	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = r.Replace(a)
	}

	return args
}

// Registry is an ordered set of frameworks plus the endpoints measured
// against each of them.
type Registry struct {
	Frameworks []Framework `yaml:"frameworks"`
	Endpoints  []Endpoint  `yaml:"endpoints"`
}

// EndpointList returns the registry endpoints, or DefaultEndpoints when the
// registry declares none.
func (r *Registry) EndpointList() []Endpoint {
	if len(r.Endpoints) == 0 {
		return DefaultEndpoints()
	}

	out := make([]Endpoint, len(r.Endpoints))
	copy(out, r.Endpoints)

	return out
}

// KnownFrameworks returns the names of the built-in Go targets.
func KnownFrameworks() []string {
	return []string{"nethttp", "gin", "chi", "echo", "fiber"}
}

// Defaults returns the built-in registry: one benchserver process per Go
// framework, on consecutive ports from 8001. Each target gets its own
// SQLite file under dataDir.
func Defaults(binPath, dataDir string) *Registry {
	names := KnownFrameworks()
	reg := &Registry{Frameworks: make([]Framework, 0, len(names))}

	for i, name := range names {
		reg.Frameworks = append(reg.Frameworks, Framework{
			Name:         name,
			Port:         8001 + i,
			ProbePath:    DefaultProbePath,
			VersionsPath: "/versions",
			Command:      binPath,
			Args: []string{
				"--framework", "{name}",
				"--addr", "{addr}",
				"--db", filepath.Join(dataDir, "{name}.db"),
			},
		})
	}

	return reg
}

// Names returns the framework names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Frameworks))
	for i, f := range r.Frameworks {
		names[i] = f.Name
	}

	return names
}

// Lookup returns the named framework.
func (r *Registry) Lookup(name string) (Framework, bool) {
	for _, f := range r.Frameworks {
		if f.Name == name {
			return f, true
		}
	}

	return Framework{}, false
}

// Select returns the frameworks named in allow, in allow-list order.
// An empty allow-list selects everything. Every unknown name is reported.
func (r *Registry) Select(allow []string) ([]Framework, error) {
	if len(allow) == 0 {
		out := make([]Framework, len(r.Frameworks))
		copy(out, r.Frameworks)

		return out, nil
	}

	var (
		selected []Framework
		unknown  []string
		seen     = make(map[string]bool, len(allow))
	)

	for _, name := range allow {
		if seen[name] {
			continue
		}

		seen[name] = true

		f, ok := r.Lookup(name)
		if !ok {
			unknown = append(unknown, name)

			continue
		}

		selected = append(selected, f)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (known: %s)",
			ErrUnknownFramework,
			strings.Join(unknown, ", "),
			strings.Join(r.Names(), ", "),
		)
	}

	return selected, nil
}

// Build compiles the benchserver binary from the module at srcDir.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	srcDir string,
	binPath string,
) (string, error) {
	binPath, err := filepath.Abs(binPath)
	if err != nil {
		return "", fmt.Errorf("resolve binary path: %w", err)
	}

	logger.InfoContext(ctx, "building benchserver",
		slog.String("source_dir", srcDir),
		slog.String("binary", binPath),
	)

	cmd := exec.CommandContext(
		ctx, "go", "build", "-o", binPath, "./cmd/benchserver",
	)
	cmd.Dir = srcDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build benchserver: %w", err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"build benchserver: binary not found at %s", binPath,
		)
	}

	logger.InfoContext(ctx, "benchserver built",
		slog.String("binary", binPath),
	)

	return binPath, nil
}
