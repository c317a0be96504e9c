package build

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// Runner runs one build. Start blocks until the build has finished,
// sending output lines and finally one Exit event to events. When the
// build cannot be started it returns an error and sends nothing.
type Runner interface {
	Start(ctx context.Context, events chan<- Event) error
}

// Defaults for ExecRunner.
var (
	DefaultCommand    = []string{"totem"}
	DefaultRootMarker = "flake.nix"
)

// ErrNoProjectRoot is returned when no directory up from the start
// directory holds the root marker.
var ErrNoProjectRoot = errors.New("could not find project root")

// ExecRunner runs a build command from the project root.
type ExecRunner struct {
	Command    []string
	RootMarker string
	// Dir is where the root search starts; empty means the working
	// directory.
	Dir string
}

// FindRoot walks up from start to the first directory containing marker.
func FindRoot(start, marker string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s above %s", ErrNoProjectRoot, marker, start)
		}
		dir = parent
	}
}

func (r ExecRunner) Start(ctx context.Context, events chan<- Event) error {
	command := r.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	marker := r.RootMarker
	if marker == "" {
		marker = DefaultRootMarker
	}
	start := r.Dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		start = wd
	}

	root, err := FindRoot(start, marker)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = root

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start build: %w", err)
	}
	slog.Info("build started", "command", command, "dir", root)

	var outputWg sync.WaitGroup
	outputWg.Add(2)
	go func() {
		defer outputWg.Done()
		streamLines(ctx, stdout, Stdout, events)
	}()
	go func() {
		defer outputWg.Done()
		streamLines(ctx, stderr, Stderr, events)
	}()
	outputWg.Wait()

	code := 0
	if err := cmd.Wait(); err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}
	slog.Info("build finished", "code", code)
	send(ctx, events, Exit(code))
	return nil
}

func streamLines(ctx context.Context, r io.Reader, wrap func(string) Event, events chan<- Event) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !send(ctx, events, wrap(scanner.Text())) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Debug("build output read failed", "error", err)
	}
	// Drain so the process never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
