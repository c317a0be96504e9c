package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keymap.toml")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 10)
	w, err := New(path, WithDebounce(50*time.Millisecond), WithOnChange(func() { changed <- struct{}{} }))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte{byte('b' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changed:
		t.Error("burst of writes reported more than once")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keymap.toml")
	changed := make(chan struct{}, 1)
	w, err := New(path, WithDebounce(10*time.Millisecond), WithOnChange(func() { changed <- struct{}{} }))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Error("change to a sibling file reported")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "k.toml"))
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
