// Package livesync mirrors committed single-key edits to a connected
// device. The local document is authoritative: a push is attempted after
// the edit is committed and a failed push is reported, never rolled back.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
)

// DefaultTimeout bounds a single live push.
const DefaultTimeout = 5 * time.Second

// Target is the device side of the sync. *device.Session implements it.
type Target interface {
	LiveSyncAllowed() bool
	SetLiveBinding(ctx context.Context, layer, pos int, b keymap.Binding) error
}

// PushError reports a failed live push.
type PushError struct {
	Layer    int
	Position int
	Binding  keymap.Binding
	Err      error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("live sync of layer %d key %d (%s) failed: %v", e.Layer, e.Position, e.Binding, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

type push struct {
	layer, pos int
	binding    keymap.Binding
}

// Syncer queues binding pushes and sends them in edit order on a single
// background worker.
type Syncer struct {
	ctx     context.Context
	target  Target
	timeout time.Duration
	onError func(*PushError)

	mu      sync.Mutex
	queue   []push
	running bool
	wg      sync.WaitGroup
}

// New returns a Syncer. onError is called from the worker goroutine for
// every failed push; it may be nil.
func New(ctx context.Context, target Target, timeout time.Duration, onError func(*PushError)) *Syncer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Syncer{ctx: ctx, target: target, timeout: timeout, onError: onError}
}

// BindingChanged mirrors one committed key edit. It reports whether a
// push was queued; nothing is queued while the target's gate is closed.
func (s *Syncer) BindingChanged(layer, pos int, b keymap.Binding) bool {
	if !s.target.LiveSyncAllowed() {
		return false
	}

	s.mu.Lock()
	s.queue = append(s.queue, push{layer: layer, pos: pos, binding: b.Clone()})
	if !s.running {
		s.running = true
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()
	return true
}

// Pending returns the number of queued pushes not yet sent.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Wait blocks until the queue is drained.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) drain() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		p := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.send(p)
	}
}

func (s *Syncer) send(p push) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	err := s.target.SetLiveBinding(ctx, p.layer, p.pos, p.binding)
	switch {
	case err == nil:
		slog.Debug("live binding pushed", "layer", p.layer, "position", p.pos, "binding", p.binding.String())
	case errors.Is(err, device.ErrLiveSyncBlocked):
		// The gate closed after the edit was queued.
		slog.Debug("live binding skipped", "layer", p.layer, "position", p.pos)
	default:
		slog.Warn("live binding sync failed", "layer", p.layer, "position", p.pos, "error", err)
		if s.onError != nil {
			s.onError(&PushError{Layer: p.layer, Position: p.pos, Binding: p.binding, Err: err})
		}
	}
}
