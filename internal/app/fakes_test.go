package app

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/m96-chan/Keysmith/internal/build"
	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
)

type memStore struct {
	mu    sync.Mutex
	doc   keymap.Keymap
	saved int
}

func (s *memStore) Load() (keymap.Keymap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (s *memStore) Save(k keymap.Keymap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = k.Clone()
	s.saved++
	return nil
}

func (s *memStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// fakeDevice is an unlocked device with a two-layer live keymap.
type fakeDevice struct {
	mu      sync.Mutex
	devices []device.Info
	locked  bool
	unsaved bool
	live    device.LiveKeymap
	pushed  []device.LiveBinding
	saves   int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		devices: []device.Info{{ID: "usb-1", Name: "Corne", Transport: device.TransportUSB}},
		live: device.LiveKeymap{Layers: []device.LiveLayer{
			{ID: 10, Name: "BASE", Bindings: []keymap.Binding{keymap.Kp("Q"), keymap.Kp("W")}},
			{ID: 11, Name: "NAV", Bindings: []keymap.Binding{keymap.Trans(), keymap.Trans()}},
		}},
	}
}

func (d *fakeDevice) ListDevices(context.Context) ([]device.Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.devices), nil
}

func (d *fakeDevice) Connect(_ context.Context, id string, transport device.Transport) (device.ConnectedInfo, error) {
	return device.ConnectedInfo{Name: "Corne", SerialNumber: id, Transport: transport}, nil
}

func (d *fakeDevice) Disconnect(context.Context) error { return nil }

func (d *fakeDevice) Battery(context.Context) (device.Battery, error) {
	return device.Battery{Levels: []int{90, 85}}, nil
}

func (d *fakeDevice) LockState(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return "ZmkLocked", nil
	}
	return "ZmkUnlocked", nil
}

func (d *fakeDevice) SetLockState(_ context.Context, lock bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = lock
	return nil
}

func (d *fakeDevice) DiscoverBehaviors(context.Context) error { return nil }

func (d *fakeDevice) ResolvedKeymap(context.Context) (device.LiveKeymap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live, nil
}

func (d *fakeDevice) PhysicalLayouts(context.Context) (device.PhysicalLayouts, error) {
	return device.PhysicalLayouts{Layouts: []device.PhysicalLayout{{
		Name: "default",
		Keys: []device.PhysicalKey{{Width: 10, Height: 10}, {X: 10, Width: 10, Height: 10}},
	}}}, nil
}

func (d *fakeDevice) SetLiveBinding(_ context.Context, b device.LiveBinding) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushed = append(d.pushed, b)
	d.unsaved = true
	return nil
}

func (d *fakeDevice) SaveChanges(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.saves++
	d.unsaved = false
	return nil
}

func (d *fakeDevice) DiscardChanges(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unsaved = false
	return nil
}

func (d *fakeDevice) HasUnsavedChanges(context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unsaved, nil
}

// unplug makes the device disappear from discovery.
func (d *fakeDevice) unplug() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.devices = nil
}

func (d *fakeDevice) pushes() []device.LiveBinding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.pushed)
}

// scripted sends a fixed list of build events.
type scripted struct {
	events []build.Event
}

func (s scripted) Start(ctx context.Context, events chan<- build.Event) error {
	for _, ev := range s.events {
		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{Theme: config.BuiltinTheme("default")}
	cfg.Mouse = true
	cfg.History.Limit = 50
	cfg.Device.ScanInterval = config.Duration{Duration: 20 * time.Millisecond}
	cfg.Device.PollInterval = config.Duration{Duration: 50 * time.Millisecond}
	cfg.Device.UnlockPollInterval = config.Duration{Duration: 5 * time.Millisecond}
	cfg.Device.UnlockAttempts = 5
	cfg.Device.CommandTimeout = config.Duration{Duration: time.Second}
	cfg.Device.LiveSyncTimeout = config.Duration{Duration: time.Second}
	cfg.UI.ToastDuration = config.Duration{Duration: time.Minute}
	cfg.UI.SyntaxTheme = "monokai"

	kb := &cfg.Keybinds
	kb.Quit = "Ctrl+C"
	kb.Help = "Rune[?]"
	kb.CommandMode = "Rune[:]"
	kb.Save = "Ctrl+S"
	kb.Reload = "Ctrl+R"
	kb.Undo = "Rune[u]"
	kb.Build = "Ctrl+B"
	kb.ToggleConsole = "Rune[`]"
	kb.ToggleLock = "Ctrl+L"
	kb.FocusNext = "Tab"
	kb.FocusPrev = "Backtab"
	kb.Board = config.BoardKeybinds{
		Left: "Rune[h]", Right: "Rune[l]", Up: "Rune[k]", Down: "Rune[j]",
		NextLayer: "Rune[]]", PrevLayer: "Rune[[]",
		Edit: "Enter", Copy: "Rune[y]", Paste: "Rune[p]", Clear: "Rune[x]",
	}
	kb.Combos = config.CombosKeybinds{
		Up: "Rune[k]", Down: "Rune[j]", Add: "Rune[a]", Delete: "Rune[d]",
		Duplicate: "Rune[c]", Pick: "Enter", Done: "Enter", Cancel: "Esc",
	}
	kb.Layers = config.LayersKeybinds{Add: "Rune[A]", Delete: "Rune[D]", Rename: "Rune[r]", Duplicate: "Rune[C]"}
	kb.Picker = config.PickerKeybinds{Close: "Esc", Up: "Up", Down: "Down", Select: "Enter"}
	return cfg
}

// twoKeyDoc has layers BASE and NAV, two keys wide.
func twoKeyDoc() keymap.Keymap {
	k := keymap.New(2)
	k = k.SetBinding(0, 0, keymap.Kp("A"))
	k = k.SetBinding(0, 1, keymap.Kp("B"))
	k = k.AddLayer()
	return k.RenameLayer(1, "NAV")
}

// newTestController returns a controller over an in-memory store with the
// document loaded. Device discovery is not started.
func newTestController(t *testing.T, deps Deps, opts ...func(*config.Config)) (*Controller, *memStore) {
	t.Helper()
	store := &memStore{doc: twoKeyDoc()}
	if deps.Store == nil {
		deps.Store = store
	}
	if deps.Device == nil {
		deps.Device = newFakeDevice()
	}
	cfg := testConfig()
	for _, o := range opts {
		o(cfg)
	}
	c := NewController(cfg, deps)
	c.remember = func(device.Info) error { return nil }
	if err := c.Editor.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(c.Close)
	return c, store
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
