package process

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Entry is one line of a PID file.
type Entry struct {
	Name string
	PID  int
}

func appendPID(path, name string, pid int) error {
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open pid file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%s %d\n", name, pid); err != nil {
		f.Close()

		return fmt.Errorf("write pid file: %w", err)
	}

	return f.Close()
}

// ReadPIDFile parses a PID file. Malformed lines are skipped.
func ReadPIDFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil || pid <= 0 {
			continue
		}

		entries = append(entries, Entry{Name: fields[0], PID: pid})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pid file %s: %w", path, err)
	}

	return entries, nil
}

// TerminatePIDFile stops every process listed in path and removes the file.
// It is used when the run that wrote the file never reached its own
// teardown. Processes that are already gone are skipped without being
// signalled or counted. It returns the number of processes signalled.
func TerminatePIDFile(path string, grace time.Duration, logger *slog.Logger) (int, error) {
	entries, err := ReadPIDFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, err
	}

	var alive []Entry

	for _, e := range entries {
		if !running(e.PID) {
			logger.Debug("process already exited",
				slog.String("framework", e.Name),
				slog.Int("pid", e.PID),
			)

			continue
		}

		if err := signalGroup(e.PID, syscall.SIGTERM); err != nil {
			logger.Warn("failed to signal process",
				slog.String("framework", e.Name),
				slog.Int("pid", e.PID),
				slog.String("error", err.Error()),
			)

			continue
		}

		alive = append(alive, e)
	}

	deadline := time.Now().Add(grace)
	for _, e := range alive {
		for running(e.PID) && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
		}

		if running(e.PID) {
			_ = signalGroup(e.PID, syscall.SIGKILL)
		}

		logger.Info("process stopped",
			slog.String("framework", e.Name),
			slog.Int("pid", e.PID),
		)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return len(alive), fmt.Errorf("remove pid file: %w", err)
	}

	return len(alive), nil
}

func running(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
