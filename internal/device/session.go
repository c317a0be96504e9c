package device

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

// Options tunes a Session. Zero values take the defaults noted per field.
type Options struct {
	ScanInterval       time.Duration // 4s
	PollInterval       time.Duration // 10s
	UnlockPollInterval time.Duration // 500ms
	UnlockAttempts     int           // 30
	CommandTimeout     time.Duration // 10s
	AutoConnect        bool
	// Preferred is the device ID to auto-connect to when several are found.
	Preferred string
}

func (o *Options) applyDefaults() {
	if o.ScanInterval <= 0 {
		o.ScanInterval = 4 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Second
	}
	if o.UnlockPollInterval <= 0 {
		o.UnlockPollInterval = 500 * time.Millisecond
	}
	if o.UnlockAttempts <= 0 {
		o.UnlockAttempts = 30
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 10 * time.Second
	}
}

// Handler holds the session's notification callbacks. Nil callbacks are
// skipped. Callbacks run on session goroutines without the session lock
// held.
type Handler struct {
	OnStatus     func(Status)
	OnDevices    func([]Info)
	OnConnected  func(Info)
	OnBattery    func(Battery)
	OnReady      func(bool)
	OnLiveKeymap func(LiveKeymap)
	OnLayout     func([]KeyGeometry)
	OnWarning    func(string)
}

// events collects callbacks under the lock to be fired after unlocking.
type events []func()

func (e *events) add(f func()) { *e = append(*e, f) }

func (e events) fire() {
	for _, f := range e {
		f()
	}
}

// Session drives the connection lifecycle of one device: discovery,
// connect, behavior discovery and live keymap resolution, battery and
// lock polling, lock toggling and disconnect. Each phase owns its
// background work; leaving a phase cancels it, and results that arrive
// for an earlier phase are dropped.
type Session struct {
	client Client
	opts   Options

	mu        sync.Mutex
	handler   Handler
	root      context.Context
	stop      context.CancelFunc
	phaseCtx  context.Context
	phaseStop context.CancelFunc
	gen       uint64
	status    Status
	devices   []Info
	battery   *Battery
	ready     bool
	resolving bool
	live      *LiveKeymap
	layout    []KeyGeometry
	toggling  bool

	wg sync.WaitGroup
}

// NewSession returns a stopped session. Call Start to begin discovery.
func NewSession(client Client, opts Options) *Session {
	opts.applyDefaults()
	return &Session{
		client: client,
		opts:   opts,
		status: Disconnected{},
	}
}

// SetHandler replaces the notification callbacks.
func (s *Session) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SetPreferred sets the device ID auto-connected to among several.
func (s *Session) SetPreferred(id string) {
	s.mu.Lock()
	s.opts.Preferred = id
	s.mu.Unlock()
}

// Start begins discovery. It returns immediately.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.root != nil {
		s.mu.Unlock()
		return
	}
	s.root, s.stop = context.WithCancel(ctx)
	var ev events
	s.enterPhaseLocked(Disconnected{}, &ev)
	s.mu.Unlock()
	ev.fire()
}

// Close stops all background work and disconnects a connected device.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stop
	_, connected := s.status.(Connected)
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.wg.Wait()

	if connected {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.CommandTimeout)
		defer cancel()
		if err := s.client.Disconnect(ctx); err != nil {
			slog.Debug("disconnect on close failed", "error", err)
		}
	}
}

// Status returns the current connection status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Devices returns the devices found by the last discovery.
func (s *Session) Devices() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.devices)
}

// Battery returns the last polled battery levels.
func (s *Session) Battery() (Battery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.battery == nil {
		return Battery{}, false
	}
	return Battery{Levels: slices.Clone(s.battery.Levels)}, true
}

// BehaviorsReady reports whether behavior discovery and keymap resolution
// completed for the current connection.
func (s *Session) BehaviorsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// SetAutoConnect changes whether discovery connects on its own.
func (s *Session) SetAutoConnect(on bool) {
	s.mu.Lock()
	s.opts.AutoConnect = on
	s.mu.Unlock()
}

// LiveKeymap returns the keymap resolved on the device.
func (s *Session) LiveKeymap() (LiveKeymap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return LiveKeymap{}, false
	}
	return *s.live, true
}

// Layout returns the device's physical key geometry.
func (s *Session) Layout() []KeyGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.layout)
}

// Toggling reports whether a lock toggle is waiting for confirmation.
func (s *Session) Toggling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggling
}

// LiveSyncAllowed reports whether live edits may be sent: connected,
// unlocked and with behaviors ready.
func (s *Session) LiveSyncAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveSyncAllowedLocked()
}

func (s *Session) liveSyncAllowedLocked() bool {
	c, ok := s.status.(Connected)
	return ok && !c.Locked && s.ready
}

// setStatusLocked changes the status, switching phase when the new status
// belongs to a different one.
func (s *Session) setStatusLocked(st Status, ev *events) {
	if phaseOf(st) != phaseOf(s.status) {
		s.enterPhaseLocked(st, ev)
		return
	}
	s.status = st
	s.emitStatusLocked(ev)
}

func (s *Session) emitStatusLocked(ev *events) {
	if h := s.handler.OnStatus; h != nil {
		st := s.status
		ev.add(func() { h(st) })
	}
}

// enterPhaseLocked cancels the current phase's work, resets per-connection
// state and starts the work owned by st's phase.
func (s *Session) enterPhaseLocked(st Status, ev *events) {
	if s.phaseStop != nil {
		s.phaseStop()
	}
	s.gen++
	wasReady := s.ready
	s.battery = nil
	s.ready = false
	s.resolving = false
	s.live = nil
	s.layout = nil
	s.toggling = false
	s.status = st

	ctx, cancel := context.WithCancel(s.root)
	s.phaseCtx, s.phaseStop = ctx, cancel
	gen := s.gen

	s.emitStatusLocked(ev)
	if wasReady {
		if h := s.handler.OnReady; h != nil {
			ev.add(func() { h(false) })
		}
	}

	switch st := st.(type) {
	case Connecting:
		s.spawnLocked(func() { s.connect(ctx, gen, st.Device) })
	case Connected:
		s.spawnLocked(func() { s.pollLoop(ctx, gen) })
		s.spawnLocked(func() { s.fetchLayout(ctx, gen) })
	default:
		s.spawnLocked(func() { s.scanLoop(ctx, gen) })
	}
}

func (s *Session) spawnLocked(f func()) {
	if s.root == nil || s.root.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f()
	}()
}

func (s *Session) warnLocked(ev *events, format string, args ...any) {
	if h := s.handler.OnWarning; h != nil {
		msg := fmt.Sprintf(format, args...)
		ev.add(func() { h(msg) })
	}
}

func (s *Session) command(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.CommandTimeout)
}

func (s *Session) scanLoop(ctx context.Context, gen uint64) {
	s.scan(ctx, gen)
	t := time.NewTicker(s.opts.ScanInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.scan(ctx, gen)
		}
	}
}

// scan runs one discovery round and applies the auto-connect policy.
func (s *Session) scan(ctx context.Context, gen uint64) {
	var ev events
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if _, ok := s.status.(Disconnected); ok {
		s.setStatusLocked(Scanning{}, &ev)
	}
	s.mu.Unlock()
	ev.fire()

	cctx, cancel := s.command(ctx)
	found, err := s.client.ListDevices(cctx)
	cancel()

	ev = nil
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if _, ok := s.status.(Scanning); ok {
		s.setStatusLocked(Disconnected{}, &ev)
	}
	if err != nil {
		slog.Warn("device scan failed", "error", err)
	} else {
		s.devices = slices.Clone(found)
		if h := s.handler.OnDevices; h != nil {
			list := slices.Clone(found)
			ev.add(func() { h(list) })
		}
		if dev, ok := s.pickLocked(found); ok {
			s.setStatusLocked(Connecting{Device: dev}, &ev)
		}
	}
	s.mu.Unlock()
	ev.fire()
}

// pickLocked chooses a device to auto-connect to: the only one found, or
// the preferred one among several.
func (s *Session) pickLocked(found []Info) (Info, bool) {
	if !s.opts.AutoConnect || len(found) == 0 {
		return Info{}, false
	}
	if len(found) == 1 {
		return found[0], true
	}
	if s.opts.Preferred != "" {
		for _, d := range found {
			if d.ID == s.opts.Preferred {
				return d, true
			}
		}
	}
	return Info{}, false
}

// Connect starts connecting to dev. It is only valid while disconnected.
func (s *Session) Connect(dev Info) error {
	var ev events
	s.mu.Lock()
	if s.root == nil {
		s.mu.Unlock()
		return fmt.Errorf("session not started")
	}
	if phaseOf(s.status) != phaseDiscovery {
		s.mu.Unlock()
		return fmt.Errorf("cannot connect while %s", s.status)
	}
	s.setStatusLocked(Connecting{Device: dev}, &ev)
	s.mu.Unlock()
	ev.fire()
	return nil
}

// Select connects to a device from the last discovery by ID.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.devices, func(d Info) bool { return d.ID == id })
	var dev Info
	if idx >= 0 {
		dev = s.devices[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		return fmt.Errorf("unknown device %q", id)
	}
	return s.Connect(dev)
}

func (s *Session) connect(ctx context.Context, gen uint64, dev Info) {
	cctx, cancel := s.command(ctx)
	info, err := s.client.Connect(cctx, dev.ID, dev.Transport)
	cancel()

	var ev events
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		if err == nil {
			s.disconnectStale()
		}
		return
	}
	if err != nil {
		slog.Error("failed to connect to device", "device", dev.Name, "error", err)
		s.warnLocked(&ev, "Connection to %s failed: %v", dev.Name, err)
		s.setStatusLocked(Disconnected{}, &ev)
	} else {
		slog.Info("connected to device", "device", info.Name, "transport", info.Transport)
		s.setStatusLocked(Connected{Info: info, Locked: true}, &ev)
		if h := s.handler.OnConnected; h != nil {
			ev.add(func() { h(dev) })
		}
	}
	s.mu.Unlock()
	ev.fire()
}

// disconnectStale drops a connection that completed after the session
// moved on.
func (s *Session) disconnectStale() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.CommandTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		slog.Debug("dropping stale connection failed", "error", err)
	}
}

func (s *Session) pollLoop(ctx context.Context, gen uint64) {
	s.poll(ctx, gen)
	t := time.NewTicker(s.opts.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.poll(ctx, gen)
		}
	}
}

// poll queries battery and lock state concurrently. A single failure is
// logged; when both fail the device is considered gone.
func (s *Session) poll(ctx context.Context, gen uint64) {
	var (
		bat      Battery
		batErr   error
		lockStr  string
		lockErr  error
		pollings errgroup.Group
	)
	pollings.Go(func() error {
		cctx, cancel := s.command(ctx)
		defer cancel()
		bat, batErr = s.client.Battery(cctx)
		return batErr
	})
	pollings.Go(func() error {
		cctx, cancel := s.command(ctx)
		defer cancel()
		lockStr, lockErr = s.client.LockState(cctx)
		return lockErr
	})
	_ = pollings.Wait()

	var ev events
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}

	if batErr != nil {
		slog.Warn("battery poll failed", "error", batErr)
	} else {
		s.battery = &bat
		if h := s.handler.OnBattery; h != nil {
			b := Battery{Levels: slices.Clone(bat.Levels)}
			ev.add(func() { h(b) })
		}
	}

	if lockErr != nil {
		slog.Warn("lock state poll failed", "error", lockErr)
	} else if locked, err := ParseLockState(lockStr); err != nil {
		slog.Warn("lock state poll failed", "error", err)
	} else {
		s.applyLockLocked(locked, &ev)
	}

	if batErr != nil && lockErr != nil {
		s.warnLocked(&ev, "Device stopped responding")
		s.setStatusLocked(Disconnected{}, &ev)
	}
	s.mu.Unlock()
	ev.fire()
}

func (s *Session) applyLockLocked(locked bool, ev *events) {
	c, ok := s.status.(Connected)
	if !ok || c.Locked == locked {
		return
	}
	c.Locked = locked
	s.setStatusLocked(c, ev)
	if !locked {
		s.startResolveLocked()
	}
}

// startResolveLocked begins the readiness sequence unless it already
// succeeded or is running for this connection. A locked device refuses
// behavior discovery, so it is started on unlock; a failed run is retried
// on the next unlock.
func (s *Session) startResolveLocked() {
	if s.ready || s.resolving {
		return
	}
	s.resolving = true
	ctx, gen := s.phaseCtx, s.gen
	s.spawnLocked(func() { s.resolve(ctx, gen) })
}

// resolve runs the readiness sequence: behavior discovery, then live
// keymap resolution.
func (s *Session) resolve(ctx context.Context, gen uint64) {
	cctx, cancel := s.command(ctx)
	err := s.client.DiscoverBehaviors(cctx)
	cancel()
	if err != nil {
		s.readinessFailed(gen, "Behavior discovery failed", err)
		return
	}

	cctx, cancel = s.command(ctx)
	km, err := s.client.ResolvedKeymap(cctx)
	cancel()
	if err != nil {
		s.readinessFailed(gen, "Fetching the live keymap failed", err)
		return
	}

	var ev events
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.live = &km
	s.ready = true
	s.resolving = false
	if h := s.handler.OnLiveKeymap; h != nil {
		ev.add(func() { h(km) })
	}
	if h := s.handler.OnReady; h != nil {
		ev.add(func() { h(true) })
	}
	s.mu.Unlock()
	ev.fire()
}

func (s *Session) readinessFailed(gen uint64, what string, err error) {
	var ev events
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.resolving = false
	slog.Warn("device readiness failed", "step", what, "error", err)
	s.warnLocked(&ev, "%s: %v", what, err)
	s.mu.Unlock()
	ev.fire()
}

func (s *Session) fetchLayout(ctx context.Context, gen uint64) {
	cctx, cancel := s.command(ctx)
	layouts, err := s.client.PhysicalLayouts(cctx)
	cancel()
	if err != nil {
		slog.Warn("failed to fetch physical layout", "error", err)
		return
	}
	geo := layouts.Geometry()

	var ev events
	s.mu.Lock()
	if s.gen != gen || geo == nil {
		s.mu.Unlock()
		return
	}
	s.layout = geo
	if h := s.handler.OnLayout; h != nil {
		g := slices.Clone(geo)
		ev.add(func() { h(g) })
	}
	s.mu.Unlock()
	ev.fire()
}

// SetLocked asks the device to lock or unlock. Locking is confirmed by a
// single poll. Unlocking needs a physical confirmation on the device, so
// the lock state is polled until it flips or the attempts run out, in
// which case the toggle is dropped and the last known state stands.
func (s *Session) SetLocked(lock bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.status.(Connected); !ok {
		return ErrNotConnected
	}
	if s.toggling {
		return ErrToggleInProgress
	}
	s.toggling = true
	ctx, gen := s.phaseCtx, s.gen
	s.spawnLocked(func() { s.toggleLock(ctx, gen, lock) })
	return nil
}

func (s *Session) toggleLock(ctx context.Context, gen uint64, lock bool) {
	defer func() {
		s.mu.Lock()
		if s.gen == gen {
			s.toggling = false
		}
		s.mu.Unlock()
	}()

	cctx, cancel := s.command(ctx)
	err := s.client.SetLockState(cctx, lock)
	cancel()
	if err != nil {
		var ev events
		s.mu.Lock()
		if s.gen == gen {
			slog.Warn("set lock state failed", "lock", lock, "error", err)
			s.warnLocked(&ev, "Lock toggle failed: %v", err)
		}
		s.mu.Unlock()
		ev.fire()
		return
	}

	attempts := 1
	if !lock {
		attempts = s.opts.UnlockAttempts
	}
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.UnlockPollInterval):
		}

		cctx, cancel := s.command(ctx)
		st, err := s.client.LockState(cctx)
		cancel()
		if err != nil {
			slog.Debug("lock confirmation poll failed", "attempt", i+1, "error", err)
			continue
		}
		locked, err := ParseLockState(st)
		if err != nil {
			continue
		}

		var ev events
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.applyLockLocked(locked, &ev)
		s.mu.Unlock()
		ev.fire()

		if locked == lock {
			return
		}
	}
	slog.Info("lock toggle not confirmed", "lock", lock, "attempts", attempts)
}

// Disconnect drops the connection (or a pending connect) and resumes
// discovery.
func (s *Session) Disconnect() {
	s.mu.Lock()
	_, connected := s.status.(Connected)
	s.mu.Unlock()

	if connected {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.CommandTimeout)
		if err := s.client.Disconnect(ctx); err != nil {
			slog.Debug("disconnect failed", "error", err)
		}
		cancel()
	}

	var ev events
	s.mu.Lock()
	if phaseOf(s.status) != phaseDiscovery {
		s.setStatusLocked(Disconnected{}, &ev)
	}
	s.mu.Unlock()
	ev.fire()
}

// Reconnect disconnects and restarts discovery from scratch.
func (s *Session) Reconnect() {
	s.Disconnect()

	var ev events
	s.mu.Lock()
	s.devices = nil
	if s.root != nil {
		s.enterPhaseLocked(Disconnected{}, &ev)
	}
	s.mu.Unlock()
	ev.fire()
}

// LayerID maps a document layer index to the device's layer ID, falling
// back to the index when the live keymap does not cover it.
func (s *Session) LayerID(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layerIDLocked(index)
}

func (s *Session) layerIDLocked(index int) int {
	if s.live != nil && index >= 0 && index < len(s.live.Layers) {
		return s.live.Layers[index].ID
	}
	return index
}

// SetLiveBinding pushes one key binding to the device.
func (s *Session) SetLiveBinding(ctx context.Context, layer, pos int, b keymap.Binding) error {
	s.mu.Lock()
	allowed := s.liveSyncAllowedLocked()
	id := s.layerIDLocked(layer)
	s.mu.Unlock()

	if !allowed {
		return ErrLiveSyncBlocked
	}
	params := slices.Clone(b.Params)
	if params == nil {
		params = []string{}
	}
	return s.client.SetLiveBinding(ctx, LiveBinding{LayerID: id, KeyPosition: pos, Action: b.Action, Params: params})
}

func (s *Session) connected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.status.(Connected); !ok {
		return ErrNotConnected
	}
	return nil
}

// SaveChanges commits live edits to the device's persistent storage.
func (s *Session) SaveChanges(ctx context.Context) error {
	if err := s.connected(); err != nil {
		return err
	}
	return s.client.SaveChanges(ctx)
}

// DiscardChanges reverts live edits not yet saved on the device.
func (s *Session) DiscardChanges(ctx context.Context) error {
	if err := s.connected(); err != nil {
		return err
	}
	return s.client.DiscardChanges(ctx)
}

// HasUnsavedChanges reports whether the device holds unsaved live edits.
func (s *Session) HasUnsavedChanges(ctx context.Context) (bool, error) {
	if err := s.connected(); err != nil {
		return false, err
	}
	return s.client.HasUnsavedChanges(ctx)
}
