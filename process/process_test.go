package process

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGroup(t *testing.T) (*Group, string) {
	t.Helper()

	dir := t.TempDir()
	g := NewGroup(filepath.Join(dir, "pids"), discardLogger())
	g.GracePeriod = 2 * time.Second
	t.Cleanup(g.Terminate)

	return g, dir
}

func TestTerminateStopsEveryProcess(t *testing.T) {
	g, dir := newTestGroup(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		if _, err := g.Start(ctx, Spec{
			Name:    name,
			Command: "sleep",
			Args:    []string{"30"},
			LogPath: filepath.Join(dir, "logs", name+".log"),
		}); err != nil {
			t.Fatalf("Start(%s) failed: %v", name, err)
		}
	}

	entries, err := ReadPIDFile(g.PIDFile)
	if err != nil {
		t.Fatalf("ReadPIDFile failed: %v", err)
	}

	handles := g.Handles()
	if len(entries) != len(handles) {
		t.Fatalf("pid file has %d entries, want %d", len(entries), len(handles))
	}

	for i, h := range handles {
		if entries[i].PID != h.PID || entries[i].Name != h.Name {
			t.Errorf("entry %d = %+v, want %s %d", i, entries[i], h.Name, h.PID)
		}
	}

	g.Terminate()

	for _, h := range handles {
		if !h.Exited() {
			t.Errorf("%s (pid %d) still running", h.Name, h.PID)
		}
	}

	if _, err := os.Stat(g.PIDFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pid file not removed: %v", err)
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	g, _ := newTestGroup(t)

	h, err := g.Start(context.Background(), Spec{
		Name: "sleeper", Command: "sleep", Args: []string{"30"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	g.Terminate()
	g.Terminate()

	if !h.Exited() {
		t.Error("process still running after Terminate")
	}

	if _, err := g.Start(context.Background(), Spec{
		Name: "late", Command: "sleep", Args: []string{"30"},
	}); err == nil {
		t.Error("expected Start after Terminate to fail")
	}
}

func TestTerminateKillsProcessIgnoringSIGTERM(t *testing.T) {
	g, _ := newTestGroup(t)
	g.GracePeriod = 200 * time.Millisecond

	h, err := g.Start(context.Background(), Spec{
		Name:    "stubborn",
		Command: "sh",
		Args:    []string{"-c", `trap "" TERM; sleep 30`},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Give the shell time to install its trap.
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		g.Terminate()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Terminate did not return")
	}

	if !h.Exited() {
		t.Error("process survived SIGKILL")
	}
}

func TestTerminateSkipsExitedProcesses(t *testing.T) {
	g, _ := newTestGroup(t)

	h, err := g.Start(context.Background(), Spec{
		Name: "quick", Command: "true",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	g.Terminate()
}

func TestStartWritesLog(t *testing.T) {
	g, dir := newTestGroup(t)
	logPath := filepath.Join(dir, "echo.log")

	h, err := g.Start(context.Background(), Spec{
		Name:    "echo",
		Command: "sh",
		Args:    []string{"-c", "echo out; echo err >&2"},
		Env:     []string{"FWBENCH_TEST=1"},
		LogPath: logPath,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	<-h.done

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	for _, want := range []string{"out", "err"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log %q missing %q", data, want)
		}
	}
}

func TestStartMissingCommand(t *testing.T) {
	g, _ := newTestGroup(t)

	_, err := g.Start(context.Background(), Spec{
		Name: "ghost", Command: "/nonexistent/fwbench-ghost",
	})
	if err == nil {
		t.Fatal("expected error for missing command")
	}

	if len(g.Handles()) != 0 {
		t.Error("failed start must not be recorded")
	}
}

func TestTerminatePIDFile(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "pids")

	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}

	if err := appendPID(pidFile, "orphan", cmd.Process.Pid); err != nil {
		t.Fatalf("appendPID failed: %v", err)
	}

	n, err := TerminatePIDFile(pidFile, time.Second, discardLogger())
	if err != nil {
		t.Fatalf("TerminatePIDFile failed: %v", err)
	}

	if n != 1 {
		t.Errorf("signalled %d processes, want 1", n)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case <-waitErr:
	case <-time.After(5 * time.Second):
		t.Fatal("orphan still running")
	}

	if _, err := os.Stat(pidFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pid file not removed: %v", err)
	}

	// A missing file is not an error.
	if n, err := TerminatePIDFile(pidFile, time.Second, discardLogger()); err != nil || n != 0 {
		t.Errorf("second call = %d, %v", n, err)
	}
}

func TestTerminatePIDFileSkipsExitedProcesses(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pids")

	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run true: %v", err)
	}

	if err := appendPID(pidFile, "finished", cmd.Process.Pid); err != nil {
		t.Fatalf("appendPID failed: %v", err)
	}

	n, err := TerminatePIDFile(pidFile, time.Second, discardLogger())
	if err != nil {
		t.Fatalf("TerminatePIDFile failed: %v", err)
	}

	if n != 0 {
		t.Errorf("signalled %d processes, want 0", n)
	}

	if _, err := os.Stat(pidFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("pid file not removed: %v", err)
	}
}

func TestReadPIDFileSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pids")
	data := "gin 123\ngarbage\nchi notapid\necho -4\nfiber 456\n"

	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("ReadPIDFile failed: %v", err)
	}

	want := []Entry{{Name: "gin", PID: 123}, {Name: "fiber", PID: 456}}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v, want %+v", entries, want)
	}

	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}
