package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/m96-chan/Keysmith/internal/build"
	"github.com/m96-chan/Keysmith/internal/clipboard"
	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/editor"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/keyring"
	"github.com/m96-chan/Keysmith/internal/livesync"
	"github.com/m96-chan/Keysmith/internal/notifications"
	"github.com/m96-chan/Keysmith/internal/watch"
)

// ErrUnsavedChanges is returned when an action would drop unsaved edits.
var ErrUnsavedChanges = errors.New("unsaved changes")

// Deps are the collaborators a Controller drives.
type Deps struct {
	Store   editor.Store
	Device  device.Client
	Builder build.Runner

	// SystemClipboard mirrors copied bindings to the OS clipboard.
	SystemClipboard bool
	// WatchPath, when set, reloads the keymap when the file changes on
	// disk.
	WatchPath string
}

// Handler holds controller callbacks. They run on arbitrary goroutines.
type Handler struct {
	// OnChange fires when anything visible changed.
	OnChange func()
	// OnQuit fires when a quit command succeeds.
	OnQuit func()
	// OnOptionChanged fires after a :set command changed an option.
	OnOptionChanged func(name string)
}

// Controller owns one editing session: the document, the device session,
// live sync and the build console.
type Controller struct {
	Config  *config.Config
	Editor  *editor.Editor
	Session *device.Session
	Console *build.Console
	Toasts  *notifications.Toasts

	builder  build.Runner
	syncer   *livesync.Syncer
	notifier *notifications.Notifier
	watcher  *watch.Watcher
	sysClip  bool

	// remember records a successful connection.
	remember func(device.Info) error

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	handler Handler
	cursor  int
}

// NewController wires the components together. Nothing runs until Start.
func NewController(cfg *config.Config, deps Deps) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		Config:   cfg,
		Editor:   editor.New(deps.Store, cfg.History.Limit),
		Console:  build.NewConsole(),
		builder:  deps.Builder,
		notifier: notifications.New(),
		sysClip:  deps.SystemClipboard,
		remember: rememberDevice,
		ctx:      ctx,
		cancel:   cancel,
	}
	c.Toasts = notifications.NewToasts(cfg.UI.ToastDuration.Duration, c.changed)

	c.Session = device.NewSession(deps.Device, device.Options{
		ScanInterval:       cfg.Device.ScanInterval.Duration,
		PollInterval:       cfg.Device.PollInterval.Duration,
		UnlockPollInterval: cfg.Device.UnlockPollInterval.Duration,
		UnlockAttempts:     cfg.Device.UnlockAttempts,
		CommandTimeout:     cfg.Device.CommandTimeout.Duration,
		AutoConnect:        cfg.Device.AutoConnect,
	})
	c.syncer = livesync.New(ctx, c.Session, cfg.Device.LiveSyncTimeout.Duration, c.onPushError)

	c.Editor.SetHandler(editor.Handler{
		OnChange: c.changed,
		OnBindingChanged: func(layer, pos int, b keymap.Binding) {
			c.syncer.BindingChanged(layer, pos, b)
		},
	})
	c.Session.SetHandler(device.Handler{
		OnStatus:     func(device.Status) { c.changed() },
		OnDevices:    func([]device.Info) { c.changed() },
		OnConnected:  c.onConnected,
		OnBattery:    func(device.Battery) { c.changed() },
		OnReady:      c.onReady,
		OnLiveKeymap: func(device.LiveKeymap) { c.changed() },
		OnLayout:     func([]device.KeyGeometry) { c.changed() },
		OnWarning:    c.Toasts.Warning,
	})
	c.Console.SetHandler(build.Handler{
		OnChange: c.changed,
		OnFinish: c.onBuildFinished,
	})

	if deps.WatchPath != "" {
		w, err := watch.New(deps.WatchPath,
			watch.WithOnChange(c.onFileChanged),
			watch.WithOnError(func(err error) { slog.Warn("keymap watch error", "error", err) }),
		)
		if err != nil {
			slog.Warn("keymap watcher unavailable", "error", err)
		} else {
			c.watcher = w
		}
	}
	return c
}

// SetHandler replaces the controller callbacks.
func (c *Controller) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *Controller) callbacks() Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

func (c *Controller) changed() {
	if h := c.callbacks(); h.OnChange != nil {
		h.OnChange()
	}
}

// Start loads the keymap and starts device discovery and the file watcher.
// A load failure is reported but does not stop the session.
func (c *Controller) Start() {
	if err := c.Editor.Load(); err != nil {
		c.Toasts.Error(fmt.Sprintf("Could not load keymap: %v", err))
	}
	if id, err := keyring.GetPreferredDevice(); err == nil {
		c.Session.SetPreferred(id)
	} else if !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("preferred device unavailable", "error", err)
	}
	c.Session.Start(c.ctx)
	if c.watcher != nil {
		if err := c.watcher.Start(); err != nil {
			slog.Warn("failed to watch keymap", "error", err)
		}
	}
}

// Close stops every background task.
func (c *Controller) Close() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	c.cancel()
	c.Session.Close()
	c.syncer.Wait()
	c.Console.Wait()
}

func rememberDevice(d device.Info) error {
	return keyring.RememberDevice(d.ID, d.Name, string(d.Transport))
}

func (c *Controller) onConnected(d device.Info) {
	if err := c.remember(d); err != nil {
		slog.Debug("failed to remember device", "device", d.ID, "error", err)
	}
	c.Toasts.Info("Connected to " + d.Name)
}

func (c *Controller) onReady(ready bool) {
	if ready && c.Config.Device.AdoptLiveKeymap {
		if live, ok := c.Session.LiveKeymap(); ok && len(live.Layers) > 0 {
			c.Editor.AdoptLive(live.DocumentLayers())
			c.Toasts.Info("Loaded keymap from device")
		}
	}
	c.changed()
}

func (c *Controller) onPushError(err *livesync.PushError) {
	c.Toasts.Error(fmt.Sprintf("Live update of key %d failed: %v", err.Position, err.Err))
}

func (c *Controller) onBuildFinished(code int) {
	if code == 0 {
		c.Toasts.Info(build.StatusLine(code))
	} else {
		c.Toasts.Error(build.StatusLine(code))
	}
	if c.Config.Build.Notify {
		c.notifier.Send(notifications.BuildFinished(code))
	}
}

// onFileChanged reloads a clean document after an outside edit. A dirty
// document is kept and the user is warned.
func (c *Controller) onFileChanged() {
	if fs, ok := c.storeChangeChecker(); ok {
		changed, err := fs.ChangedOnDisk()
		if err != nil {
			slog.Debug("keymap change check failed", "error", err)
		}
		if !changed {
			return
		}
	}
	if c.Editor.Dirty() {
		c.Toasts.Warning("Keymap changed on disk; :e! discards your edits and reloads")
		return
	}
	if err := c.Editor.Load(); err != nil {
		c.Toasts.Error(fmt.Sprintf("Could not reload keymap: %v", err))
		return
	}
	c.Toasts.Info("Keymap reloaded from disk")
}

type changeChecker interface {
	ChangedOnDisk() (bool, error)
}

func (c *Controller) storeChangeChecker() (changeChecker, bool) {
	cc, ok := c.Editor.Store().(changeChecker)
	return cc, ok
}

// Save writes the document to its store.
func (c *Controller) Save() error {
	if err := c.Editor.Save(); err != nil {
		return err
	}
	c.Toasts.Info("Saved keymap")
	return nil
}

// Reload rereads the document. Unless force is set it refuses to drop
// unsaved edits.
func (c *Controller) Reload(force bool) error {
	if c.Editor.Dirty() && !force {
		return fmt.Errorf("%w (use :e! to discard them)", ErrUnsavedChanges)
	}
	return c.Editor.Load()
}

// Quit asks the shell to exit. Unless force is set it refuses while the
// document has unsaved edits.
func (c *Controller) Quit(force bool) error {
	if c.Editor.Dirty() && !force {
		return fmt.Errorf("%w (use :q! to quit anyway)", ErrUnsavedChanges)
	}
	if h := c.callbacks(); h.OnQuit != nil {
		h.OnQuit()
	}
	return nil
}

// Build starts the firmware build.
func (c *Controller) Build() error {
	_, err := c.Console.Start(c.ctx, c.builder)
	return err
}

// ToggleLock asks the device to lock or unlock, whichever it is not.
func (c *Controller) ToggleLock() error {
	st, ok := c.Session.Status().(device.Connected)
	if !ok {
		return device.ErrNotConnected
	}
	return c.SetLocked(!st.Locked)
}

// SetLocked locks or unlocks the device. Unlocking needs a key press on
// the device; the session polls until it sees it.
func (c *Controller) SetLocked(lock bool) error {
	if err := c.Session.SetLocked(lock); err != nil {
		return err
	}
	if !lock {
		c.Toasts.Info("Press the unlock key on your keyboard")
	}
	return nil
}

// Disconnect drops the device connection, warning first when the device
// holds live edits that were never saved on it.
func (c *Controller) Disconnect() {
	ctx, cancel := context.WithTimeout(c.ctx, c.Config.Device.CommandTimeout.Duration)
	defer cancel()
	if unsaved, err := c.Session.HasUnsavedChanges(ctx); err == nil && unsaved {
		c.Toasts.Warning("Device had unsaved live changes")
	}
	c.Session.Disconnect()
}

// Reconnect drops the connection and restarts discovery from scratch.
func (c *Controller) Reconnect() {
	c.Session.Reconnect()
}

// Connect connects to a discovered device named by ID or name. Known
// devices that have not been discovered yet cannot be connected.
func (c *Controller) Connect(ref string) error {
	ref = strings.TrimSpace(ref)
	for _, d := range c.Session.Devices() {
		if d.ID == ref || strings.EqualFold(d.Name, ref) {
			return c.Session.Connect(d)
		}
	}
	if known, ok := keyring.FindKnownDevice(ref); ok {
		return fmt.Errorf("device %s was not found; is it plugged in?", known.Name)
	}
	return fmt.Errorf("unknown device %q", ref)
}

// SaveDevice persists live edits on the device.
func (c *Controller) SaveDevice() error {
	ctx, cancel := context.WithTimeout(c.ctx, c.Config.Device.CommandTimeout.Duration)
	defer cancel()
	return c.Session.SaveChanges(ctx)
}

// DiscardDevice drops live edits on the device.
func (c *Controller) DiscardDevice() error {
	ctx, cancel := context.WithTimeout(c.ctx, c.Config.Device.CommandTimeout.Duration)
	defer cancel()
	return c.Session.DiscardChanges(ctx)
}

// Cursor returns the selected key position.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// SetCursor selects a key position, clamped to the board.
func (c *Controller) SetCursor(pos int) {
	n := keymap.DefaultKeyCount
	if k, ok := c.Editor.Keymap(); ok {
		n = k.KeyCount()
	}
	pos = max(0, min(pos, n-1))

	c.mu.Lock()
	moved := c.cursor != pos
	c.cursor = pos
	c.mu.Unlock()
	if moved {
		c.changed()
	}
}

// SetBindingText parses text and assigns it to a key.
func (c *Controller) SetBindingText(layer, pos int, text string) error {
	b, err := keymap.ParseBinding(text)
	if err != nil {
		return err
	}
	if !c.Editor.SetBinding(layer, pos, b) {
		return fmt.Errorf("no key %d on layer %d", pos, layer)
	}
	return nil
}

// Copy copies a key's binding to the editor clipboard and, when enabled,
// the system clipboard.
func (c *Controller) Copy(layer, pos int) (keymap.Binding, bool) {
	b, ok := c.Editor.CopyBinding(layer, pos)
	if !ok {
		return keymap.Binding{}, false
	}
	if c.sysClip {
		if err := clipboard.WriteBinding(b); err != nil {
			slog.Debug("system clipboard write failed", "error", err)
		}
	}
	return b, true
}

// Paste assigns the clipboard binding to a key. A binding on the system
// clipboard takes precedence over the editor clipboard.
func (c *Controller) Paste(layer, pos int) bool {
	if c.sysClip {
		if b, err := clipboard.ReadBinding(); err == nil {
			c.Editor.SetClipboard(b)
		} else {
			slog.Debug("system clipboard read failed", "error", err)
		}
	}
	return c.Editor.PasteBinding(layer, pos)
}

// PendingLiveUpdates reports how many live pushes are queued.
func (c *Controller) PendingLiveUpdates() int {
	return c.syncer.Pending()
}
