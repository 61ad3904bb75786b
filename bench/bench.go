package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwbench/fwbench/framework"
	"github.com/fwbench/fwbench/loadgen"
	"github.com/fwbench/fwbench/payload"
)

// Config controls the load applied to each endpoint.
type Config struct {
	Host           string        `json:"host"`
	Connections    int           `json:"connections"`
	Duration       time.Duration `json:"duration"`
	WarmupRequests int           `json:"warmup_requests"`
	Runs           int           `json:"runs"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Connections:    100,
		Duration:       10 * time.Second,
		WarmupRequests: 1000,
		Runs:           3,
	}
}

// Validate rejects configurations bombardier cannot run.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("host is required")
	case c.Connections <= 0:
		return fmt.Errorf("connections must be positive, got %d", c.Connections)
	case c.Duration < time.Second:
		return fmt.Errorf("duration must be at least 1s, got %s", c.Duration)
	case c.WarmupRequests < 0:
		return fmt.Errorf("warmup requests must not be negative, got %d", c.WarmupRequests)
	case c.Runs <= 0:
		return fmt.Errorf("runs must be positive, got %d", c.Runs)
	}

	return nil
}

// LoadGenerator is the subset of the load generator the runner needs.
type LoadGenerator interface {
	Warmup(ctx context.Context, url string, requests int) error
	Run(ctx context.Context, spec loadgen.Spec) (loadgen.Measurement, error)
}

// Runner measures frameworks one endpoint at a time.
type Runner struct {
	Gen       LoadGenerator
	Config    Config
	Endpoints []framework.Endpoint
	Logger    *slog.Logger
}

// Run benchmarks every framework sequentially and returns one result per
// framework and endpoint that produced at least one successful run.
func (r *Runner) Run(ctx context.Context, frameworks []framework.Framework) ([]Result, error) {
	results := make([]Result, 0, len(frameworks)*len(r.Endpoints))

	for _, fw := range frameworks {
		fwResults, err := r.runFramework(ctx, fw)
		results = append(results, fwResults...)

		if err != nil {
			return results, err
		}
	}

	return results, nil
}

func (r *Runner) runFramework(ctx context.Context, fw framework.Framework) ([]Result, error) {
	logger := r.Logger.With(slog.String("framework", fw.Name))
	base := fw.BaseURL(r.Config.Host)

	logger.InfoContext(ctx, "benchmarking framework", slog.String("base_url", base))

	var results []Result

	for _, ep := range r.Endpoints {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, ok := r.runEndpoint(ctx, logger, fw, ep)
		if ok {
			results = append(results, res)
		}
	}

	return results, ctx.Err()
}

func (r *Runner) runEndpoint(
	ctx context.Context,
	logger *slog.Logger,
	fw framework.Framework,
	ep framework.Endpoint,
) (Result, bool) {
	url := fw.BaseURL(r.Config.Host) + ep.Path
	logger = logger.With(slog.String("endpoint", ep.ID()))

	if ep.Method == "" || ep.Method == http.MethodGet {
		logger.InfoContext(ctx, "warming up",
			slog.Int("requests", r.Config.WarmupRequests),
		)

		if err := r.Gen.Warmup(ctx, url, r.Config.WarmupRequests); err != nil {
			logger.WarnContext(ctx, "warmup failed", slog.String("error", err.Error()))
		}
	}

	spec := loadgen.Spec{
		URL:         url,
		Connections: r.Config.Connections,
		Duration:    r.Config.Duration,
		Method:      ep.Method,
		Body:        ep.Body,
		Headers:     ep.Headers,
	}

	runs := make([]loadgen.Measurement, 0, r.Config.Runs)

	for i := 0; i < r.Config.Runs; i++ {
		if ctx.Err() != nil {
			break
		}

		m, err := r.Gen.Run(ctx, spec)
		if err != nil {
			logger.ErrorContext(ctx, "run failed",
				slog.Int("run", i+1),
				slog.String("error", err.Error()),
			)

			continue
		}

		logger.InfoContext(ctx, "run complete",
			slog.Int("run", i+1),
			slog.Int("of", r.Config.Runs),
			slog.Float64("rps", m.RPS),
			slog.Float64("latency_avg_ms", m.LatencyAvgMs),
			slog.Float64("latency_p99_ms", m.LatencyP99Ms),
			slog.Int64("errors", m.Errors),
		)

		runs = append(runs, m)
	}

	best, ok := loadgen.Best(runs)
	if !ok {
		logger.ErrorContext(ctx, "no successful runs, endpoint skipped")

		return Result{}, false
	}

	return Result{
		Framework:    fw.Name,
		Endpoint:     ep.ID(),
		RPS:          best.RPS,
		LatencyAvgMs: best.LatencyAvgMs,
		LatencyP99Ms: best.LatencyP99Ms,
		Errors:       best.Errors,
		DurationS:    r.Config.Duration.Seconds(),
		Runs:         len(runs),
	}, true
}

// FetchVersions asks every framework that exposes a versions endpoint for
// its build information. Failures are logged and skipped.
func FetchVersions(
	ctx context.Context,
	client *http.Client,
	host string,
	frameworks []framework.Framework,
	logger *slog.Logger,
) map[string]payload.VersionInfo {
	out := make(map[string]payload.VersionInfo, len(frameworks))

	for _, fw := range frameworks {
		url := fw.VersionsURL(host)
		if url == "" {
			continue
		}

		info, err := fetchVersion(ctx, client, url)
		if err != nil {
			logger.WarnContext(ctx, "failed to fetch versions",
				slog.String("framework", fw.Name),
				slog.String("error", err.Error()),
			)

			continue
		}

		if info.Framework == "" {
			info.Framework = fw.Name
		}

		out[fw.Name] = info
	}

	return out
}

func fetchVersion(ctx context.Context, client *http.Client, url string) (payload.VersionInfo, error) {
	var info payload.VersionInfo

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return info, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode versions: %w", err)
	}

	return info, nil
}
