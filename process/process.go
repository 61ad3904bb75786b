// Package process launches benchmark target servers as OS processes and
// tears them down again. Every spawned process is recorded both in memory
// and in a flat PID file so a crashed run can still be cleaned up.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// DefaultGracePeriod is how long Terminate waits after SIGTERM before
// sending SIGKILL.
const DefaultGracePeriod = 3 * time.Second

// Spec describes one process to start.
type Spec struct {
	Name    string
	Command string
	Args    []string
	Dir     string
	// Env is appended to the inherited environment.
	Env     []string
	LogPath string
}

// Handle is a started process.
type Handle struct {
	Name    string
	PID     int
	LogPath string

	cmd     *exec.Cmd
	logFile *os.File
	done    chan struct{}
}

// Exited reports whether the process has already exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Group owns every process started for a run.
type Group struct {
	PIDFile     string
	GracePeriod time.Duration
	Logger      *slog.Logger

	mu         sync.Mutex
	handles    []*Handle
	terminated bool
}

// NewGroup creates a Group recording PIDs to pidFile. An empty pidFile
// disables the file.
func NewGroup(pidFile string, logger *slog.Logger) *Group {
	return &Group{
		PIDFile:     pidFile,
		GracePeriod: DefaultGracePeriod,
		Logger:      logger,
	}
}

// Start launches spec in its own process group with stdout and stderr
// redirected to spec.LogPath. The process outlives ctx; use Terminate to
// stop it.
func (g *Group) Start(ctx context.Context, spec Spec) (*Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return nil, errors.New("process group already terminated")
	}

	logFile, err := openLog(spec.LogPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		closeLog(logFile)

		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	h := &Handle{
		Name:    spec.Name,
		PID:     cmd.Process.Pid,
		LogPath: spec.LogPath,
		cmd:     cmd,
		logFile: logFile,
		done:    make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		closeLog(logFile)
		close(h.done)
	}()

	g.handles = append(g.handles, h)

	if err := appendPID(g.PIDFile, h.Name, h.PID); err != nil {
		g.Logger.WarnContext(ctx, "failed to record pid",
			slog.String("framework", h.Name),
			slog.String("error", err.Error()),
		)
	}

	g.Logger.InfoContext(ctx, "process started",
		slog.String("framework", h.Name),
		slog.Int("pid", h.PID),
		slog.String("log", h.LogPath),
	)

	return h, nil
}

// Handles returns the started processes in start order.
func (g *Group) Handles() []*Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Handle, len(g.handles))
	copy(out, g.handles)

	return out
}

// Terminate sends SIGTERM to every recorded process group, waits up to
// GracePeriod, then SIGKILLs survivors and removes the PID file. Errors
// are logged and otherwise ignored. Calls after the first are no-ops.
func (g *Group) Terminate() {
	g.mu.Lock()
	if g.terminated {
		g.mu.Unlock()

		return
	}

	g.terminated = true
	handles := g.handles
	g.mu.Unlock()

	for _, h := range handles {
		if h.Exited() {
			continue
		}

		if err := signalGroup(h.PID, syscall.SIGTERM); err != nil {
			g.Logger.Warn("failed to signal process",
				slog.String("framework", h.Name),
				slog.Int("pid", h.PID),
				slog.String("error", err.Error()),
			)
		}
	}

	grace := time.NewTimer(g.GracePeriod)
	defer grace.Stop()

	expired := false

	for _, h := range handles {
		if !expired {
			select {
			case <-h.done:
				continue
			case <-grace.C:
				expired = true
			}
		}

		if !h.Exited() {
			_ = signalGroup(h.PID, syscall.SIGKILL)
			<-h.done
		}
	}

	if g.PIDFile != "" {
		if err := os.Remove(g.PIDFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.Logger.Warn("failed to remove pid file",
				slog.String("path", g.PIDFile),
				slog.String("error", err.Error()),
			)
		}
	}

	g.Logger.Info("processes terminated", slog.Int("count", len(handles)))
}

// signalGroup signals the process group led by pid, falling back to the
// process itself.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err == nil {
		return nil
	}

	if err := syscall.Kill(pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}

	return nil
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}

	return f, nil
}

func closeLog(f *os.File) {
	if f != nil {
		f.Close()
	}
}
