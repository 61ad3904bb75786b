// Package probe decides whether benchmark targets are accepting requests.
// Each target gets exactly one HTTP request; there is no retry.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single probe request.
const DefaultTimeout = 5 * time.Second

// ErrNotReady is wrapped by every readiness failure.
var ErrNotReady = errors.New("target not ready")

// Target is one endpoint to probe.
type Target struct {
	Name string
	URL  string
}

// Status is the outcome of probing one target.
type Status struct {
	Name string
	URL  string
	Up   bool
	Err  error
}

// Report aggregates the probes of one run.
type Report struct {
	Statuses []Status
}

// Down returns the targets that failed their probe.
func (r Report) Down() []Status {
	var down []Status
	for _, s := range r.Statuses {
		if !s.Up {
			down = append(down, s)
		}
	}

	return down
}

// Err returns nil when every target is up, otherwise an error naming each
// target that is down.
func (r Report) Err() error {
	down := r.Down()
	if len(down) == 0 {
		return nil
	}

	msgs := make([]string, len(down))
	for i, s := range down {
		msgs[i] = fmt.Sprintf("%s (%s): %v", s.Name, s.URL, s.Err)
	}

	return fmt.Errorf("%w: %s", ErrNotReady, strings.Join(msgs, "; "))
}

// Checker probes targets with a shared client.
type Checker struct {
	Client *http.Client
	Logger *slog.Logger
}

// NewChecker returns a Checker whose requests time out after timeout.
func NewChecker(timeout time.Duration, logger *slog.Logger) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Checker{
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

// Check issues one GET to url. It succeeds only on 200 OK.
func (c *Checker) Check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNotReady, err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrNotReady, resp.StatusCode)
	}

	return nil
}

// CheckAll probes every target once and reports each outcome.
func (c *Checker) CheckAll(ctx context.Context, targets []Target) Report {
	report := Report{Statuses: make([]Status, 0, len(targets))}

	for _, t := range targets {
		err := c.Check(ctx, t.URL)
		report.Statuses = append(report.Statuses, Status{
			Name: t.Name,
			URL:  t.URL,
			Up:   err == nil,
			Err:  err,
		})

		if err != nil {
			c.Logger.ErrorContext(ctx, "server not responding",
				slog.String("framework", t.Name),
				slog.String("url", t.URL),
				slog.String("error", err.Error()),
			)

			continue
		}

		c.Logger.InfoContext(ctx, "server ready",
			slog.String("framework", t.Name),
			slog.String("url", t.URL),
		)
	}

	return report
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
