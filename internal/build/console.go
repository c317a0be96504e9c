package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ErrBuildInProgress is returned when a build is started while another
// is running.
var ErrBuildInProgress = errors.New("a build is already running")

// LineKind tags a console line.
type LineKind string

const (
	LineStdout LineKind = "stdout"
	LineStderr LineKind = "stderr"
	LineStatus LineKind = "status"
)

// Line is one line of console output.
type Line struct {
	Kind LineKind
	Text string
}

// Handler holds console callbacks, run without the console lock held.
type Handler struct {
	OnChange func()
	OnFinish func(code int)
}

// StatusLine is the synthetic line appended when a build exits.
func StatusLine(code int) string {
	if code == 0 {
		return "Build succeeded"
	}
	return fmt.Sprintf("Build failed (exit code %d)", code)
}

// Console collects the output of one build at a time. Starting a build
// clears the previous output; events from an earlier run are ignored.
type Console struct {
	mu       sync.Mutex
	handler  Handler
	run      uuid.UUID
	lines    []Line
	building bool
	exitCode *int

	wg sync.WaitGroup
}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Start runs r in the background and returns the run's ID.
func (c *Console) Start(ctx context.Context, r Runner) (uuid.UUID, error) {
	c.mu.Lock()
	if c.building {
		c.mu.Unlock()
		return uuid.Nil, ErrBuildInProgress
	}
	id := uuid.New()
	c.run = id
	c.lines = nil
	c.exitCode = nil
	c.building = true
	h := c.handler
	c.mu.Unlock()

	slog.Info("build requested", "run", id)
	if h.OnChange != nil {
		h.OnChange()
	}

	events := make(chan Event, 64)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range events {
				c.apply(id, ev)
			}
		}()

		err := r.Start(ctx, events)
		close(events)
		<-done

		if err != nil {
			slog.Error("build could not start", "run", id, "error", err)
			c.apply(id, Stderr(err.Error()))
			c.apply(id, Exit(-1))
			return
		}
		if c.runningAs(id) {
			slog.Warn("build ended without an exit status", "run", id)
			c.apply(id, Exit(-1))
		}
	}()
	return id, nil
}

func (c *Console) runningAs(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run == id && c.building
}

// apply appends one event from run id.
func (c *Console) apply(id uuid.UUID, ev Event) {
	c.mu.Lock()
	if c.run != id || !c.building {
		c.mu.Unlock()
		return
	}
	finished := false
	switch ev.Kind {
	case KindStdout:
		c.lines = append(c.lines, Line{Kind: LineStdout, Text: ev.Line})
	case KindStderr:
		c.lines = append(c.lines, Line{Kind: LineStderr, Text: ev.Line})
	case KindExit:
		code := ev.Code
		c.exitCode = &code
		c.building = false
		c.lines = append(c.lines, Line{Kind: LineStatus, Text: StatusLine(code)})
		finished = true
	}
	h := c.handler
	c.mu.Unlock()

	if h.OnChange != nil {
		h.OnChange()
	}
	if finished && h.OnFinish != nil {
		h.OnFinish(ev.Code)
	}
}

// Lines returns the output of the current run.
func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// Building reports whether a build is running.
func (c *Console) Building() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.building
}

// ExitCode returns the exit code of the last finished run.
func (c *Console) ExitCode() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exitCode == nil {
		return 0, false
	}
	return *c.exitCode, true
}

// Wait blocks until every started build has finished.
func (c *Console) Wait() {
	c.wg.Wait()
}
