package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/m96-chan/Keysmith/internal/build"
	"github.com/m96-chan/Keysmith/internal/config"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keymap"
	"github.com/m96-chan/Keysmith/internal/notifications"
)

func binding(t *testing.T, c *Controller, layer, pos int) keymap.Binding {
	t.Helper()
	k, ok := c.Editor.Keymap()
	if !ok {
		t.Fatal("no keymap loaded")
	}
	b, ok := k.Binding(layer, pos)
	if !ok {
		t.Fatalf("no key %d on layer %d", pos, layer)
	}
	return b
}

func TestQuitRefusesWhenDirty(t *testing.T) {
	c, _ := newTestController(t, Deps{})
	var quit atomic.Int32
	c.SetHandler(Handler{OnQuit: func() { quit.Add(1) }})

	c.Editor.SetBinding(0, 0, keymap.Kp("Z"))

	if err := c.Quit(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("Quit = %v, want ErrUnsavedChanges", err)
	}
	if quit.Load() != 0 {
		t.Fatal("quit fired with unsaved changes")
	}
	if err := c.Quit(true); err != nil {
		t.Fatalf("forced Quit = %v", err)
	}
	if quit.Load() != 1 {
		t.Errorf("quit fired %d times, want 1", quit.Load())
	}
}

func TestReloadRefusesWhenDirty(t *testing.T) {
	c, _ := newTestController(t, Deps{})
	c.Editor.SetBinding(0, 0, keymap.Kp("Z"))

	if err := c.Reload(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("Reload = %v, want ErrUnsavedChanges", err)
	}
	if got := binding(t, c, 0, 0); got.String() != "kp Z" {
		t.Errorf("refused reload changed the key to %q", got)
	}

	if err := c.Reload(true); err != nil {
		t.Fatalf("forced Reload = %v", err)
	}
	if got := binding(t, c, 0, 0); got.String() != "kp A" {
		t.Errorf("key after reload = %q, want kp A", got)
	}
	if c.Editor.Dirty() {
		t.Error("document dirty after reload")
	}
}

func TestSaveShowsToast(t *testing.T) {
	c, store := newTestController(t, Deps{})
	c.Editor.SetBinding(0, 1, keymap.Kp("C"))

	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.savedCount() != 1 {
		t.Errorf("saved %d times, want 1", store.savedCount())
	}
	toast, ok := c.Toasts.Current()
	if !ok || toast.Message != "Saved keymap" {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
}

func TestSetCursorClamps(t *testing.T) {
	c, _ := newTestController(t, Deps{})
	var changes atomic.Int32
	c.SetHandler(Handler{OnChange: func() { changes.Add(1) }})

	c.SetCursor(7)
	if c.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", c.Cursor())
	}
	c.SetCursor(-3)
	if c.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", c.Cursor())
	}
	before := changes.Load()
	c.SetCursor(0)
	if changes.Load() != before {
		t.Error("unchanged cursor fired a change")
	}
}

func TestSetBindingText(t *testing.T) {
	c, _ := newTestController(t, Deps{})
	if err := c.SetBindingText(0, 1, "mt LSHIFT SPACE"); err != nil {
		t.Fatalf("SetBindingText: %v", err)
	}
	if got := binding(t, c, 0, 1); got.String() != "mt LSHIFT SPACE" {
		t.Errorf("binding = %q", got)
	}
	if err := c.SetBindingText(0, 9, "kp A"); err == nil {
		t.Error("expected an error for a missing key")
	}
	if err := c.SetBindingText(0, 0, ""); err == nil {
		t.Error("expected an error for empty text")
	}
}

func TestCopyPaste(t *testing.T) {
	c, _ := newTestController(t, Deps{})
	b, ok := c.Copy(0, 0)
	if !ok || b.String() != "kp A" {
		t.Fatalf("Copy = %q, %v", b, ok)
	}
	if !c.Paste(0, 1) {
		t.Fatal("Paste failed")
	}
	if got := binding(t, c, 0, 1); got.String() != "kp A" {
		t.Errorf("pasted binding = %q", got)
	}
}

func TestBuildReportsResult(t *testing.T) {
	runner := scripted{events: []build.Event{build.Stdout("compiling"), build.Exit(2)}}
	c, _ := newTestController(t, Deps{Builder: runner})

	if err := c.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	c.Console.Wait()

	code, ok := c.Console.ExitCode()
	if !ok || code != 2 {
		t.Errorf("exit = %d, %v", code, ok)
	}
	toast, ok := c.Toasts.Current()
	if !ok || toast.Level != notifications.LevelError || toast.Message != build.StatusLine(2) {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
}

func TestLiveSyncThroughController(t *testing.T) {
	gokeyring.MockInit()
	dev := newFakeDevice()
	c, _ := newTestController(t, Deps{Device: dev}, func(cfg *config.Config) {
		cfg.Device.AutoConnect = true
	})
	c.Start()

	waitFor(t, "live sync to open", c.Session.LiveSyncAllowed)
	c.Editor.SetBinding(1, 1, keymap.Kp("DOWN"))

	waitFor(t, "push", func() bool { return len(dev.pushes()) == 1 })
	got := dev.pushes()[0]
	if got.LayerID != 11 || got.KeyPosition != 1 || got.Action != "kp" || strings.Join(got.Params, " ") != "DOWN" {
		t.Errorf("push = %+v", got)
	}
}

func TestAdoptLiveKeymap(t *testing.T) {
	gokeyring.MockInit()
	c, _ := newTestController(t, Deps{}, func(cfg *config.Config) {
		cfg.Device.AutoConnect = true
		cfg.Device.AdoptLiveKeymap = true
	})
	c.Start()

	waitFor(t, "live keymap adoption", func() bool {
		k, ok := c.Editor.Keymap()
		if !ok {
			return false
		}
		b, _ := k.Binding(0, 0)
		return b.String() == "kp Q"
	})
	if c.Editor.UndoDepth() != 0 {
		t.Errorf("adoption recorded %d undo steps", c.Editor.UndoDepth())
	}
}

func TestConnectByName(t *testing.T) {
	gokeyring.MockInit()
	c, _ := newTestController(t, Deps{})
	var remembered atomic.Value
	c.remember = func(d device.Info) error {
		remembered.Store(d.ID)
		return nil
	}
	c.Start()

	waitFor(t, "discovery", func() bool { return len(c.Session.Devices()) == 1 })
	if err := c.Connect("corne"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitFor(t, "connection", func() bool {
		_, ok := c.Session.Status().(device.Connected)
		return ok
	})
	waitFor(t, "device remembered", func() bool { return remembered.Load() == "usb-1" })

	if err := c.Connect("no such board"); err == nil {
		t.Error("expected an error for an unknown device")
	}
}

func TestDisconnectWarnsAboutLiveChanges(t *testing.T) {
	gokeyring.MockInit()
	dev := newFakeDevice()
	c, _ := newTestController(t, Deps{Device: dev}, func(cfg *config.Config) {
		cfg.Device.AutoConnect = true
	})
	c.Start()

	waitFor(t, "live sync to open", c.Session.LiveSyncAllowed)
	c.Editor.SetBinding(0, 0, keymap.Kp("X"))
	waitFor(t, "push", func() bool { return len(dev.pushes()) == 1 })

	dev.unplug()
	c.Disconnect()
	toast, ok := c.Toasts.Current()
	if !ok || toast.Level != notifications.LevelWarning || toast.Message != "Device had unsaved live changes" {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
}

func TestSaveDeviceNeedsConnection(t *testing.T) {
	c, _ := newTestController(t, Deps{})
	if err := c.SaveDevice(); !errors.Is(err, device.ErrNotConnected) {
		t.Errorf("SaveDevice = %v, want ErrNotConnected", err)
	}
	if err := c.ToggleLock(); !errors.Is(err, device.ErrNotConnected) {
		t.Errorf("ToggleLock = %v, want ErrNotConnected", err)
	}
}

func TestFileChangedOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.toml")
	initial, err := keymap.Marshal(twoKeyDoc())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, initial, 0o644); err != nil {
		t.Fatal(err)
	}
	c, _ := newTestController(t, Deps{Store: keymap.NewFileStore(path)})

	// Our own content is not a change.
	c.onFileChanged()
	if _, ok := c.Toasts.Current(); ok {
		t.Error("unchanged file produced a toast")
	}

	edited := twoKeyDoc().SetBinding(0, 0, keymap.Kp("ESC"))
	data, err := keymap.Marshal(edited)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	c.onFileChanged()
	if got := binding(t, c, 0, 0); got.String() != "kp ESC" {
		t.Errorf("key after outside edit = %q, want kp ESC", got)
	}

	// A dirty document is kept.
	c.Editor.SetBinding(0, 1, keymap.Kp("TAB"))
	edited = edited.SetBinding(0, 0, keymap.Kp("F1"))
	data, _ = keymap.Marshal(edited)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	c.onFileChanged()
	if got := binding(t, c, 0, 0); got.String() != "kp ESC" {
		t.Errorf("dirty document was reloaded: %q", got)
	}
	toast, ok := c.Toasts.Current()
	if !ok || toast.Level != notifications.LevelWarning {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
}
