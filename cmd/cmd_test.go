package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m96-chan/Keysmith/internal/build"
	"github.com/m96-chan/Keysmith/internal/device"
	"github.com/m96-chan/Keysmith/internal/keyring"
)

// execute runs the root command with args, logging into a temp dir.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-path", filepath.Join(t.TempDir(), "keysmith.log")}, args...))
	err := root.Execute()
	return out.String(), err
}

type scriptedRunner struct {
	events []build.Event
	err    error
}

func (r scriptedRunner) Start(ctx context.Context, events chan<- build.Event) error {
	if r.err != nil {
		return r.err
	}
	for _, ev := range r.events {
		events <- ev
	}
	return nil
}

func TestRunBuild(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := scriptedRunner{events: []build.Event{
		build.Stdout("compiling"),
		build.Stderr("warning: unused"),
		build.Exit(2),
	}}

	code, err := runBuild(context.Background(), r, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runBuild: %v", err)
	}
	if code != 2 {
		t.Errorf("code = %d, want 2", code)
	}
	if want := "compiling\nBuild failed (exit code 2)\n"; stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
	if want := "warning: unused\n"; stderr.String() != want {
		t.Errorf("stderr = %q, want %q", stderr.String(), want)
	}
}

func TestRunBuildStartError(t *testing.T) {
	var out bytes.Buffer
	code, err := runBuild(context.Background(), scriptedRunner{err: build.ErrNoProjectRoot}, &out, &out)
	if !errors.Is(err, build.ErrNoProjectRoot) {
		t.Fatalf("err = %v, want ErrNoProjectRoot", err)
	}
	if code != -1 {
		t.Errorf("code = %d, want -1", code)
	}
}

func TestRunBuildWithoutExit(t *testing.T) {
	var out bytes.Buffer
	code, err := runBuild(context.Background(), scriptedRunner{events: []build.Event{build.Stdout("x")}}, &out, &out)
	if err != nil {
		t.Fatalf("runBuild: %v", err)
	}
	if code != -1 {
		t.Errorf("code = %d, want -1", code)
	}
}

func TestMergeDevices(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	online := []device.Info{{ID: "usb-1", Name: "Corne", Transport: device.TransportUSB}}
	known := []keyring.KnownDevice{
		{ID: "usb-1", Name: "Corne", Transport: "Usb", LastConnected: last},
		{ID: "ble-2", Name: "Totem", Transport: "Ble", LastConnected: last},
	}

	rows := mergeDevices(online, known)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].Online || !rows[0].LastConnected.Equal(last) {
		t.Errorf("rows[0] = %+v, want online with last connected", rows[0])
	}
	if rows[1].ID != "ble-2" || rows[1].Online {
		t.Errorf("rows[1] = %+v, want offline ble-2", rows[1])
	}

	var out bytes.Buffer
	if err := printDevices(&out, rows); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "online") || !strings.Contains(out.String(), "offline") {
		t.Errorf("output missing status:\n%s", out.String())
	}
}

func TestPrintNoDevices(t *testing.T) {
	var out bytes.Buffer
	printDevices(&out, nil)
	if out.String() != "no devices\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestKeycodesCommand(t *testing.T) {
	out, err := execute(t, "keycodes", "--limit", "3", "SPACE")
	if err != nil {
		t.Fatalf("keycodes: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || len(lines) > 3 {
		t.Fatalf("got %d lines, want 1-3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "SPACE") {
		t.Errorf("first match = %q, want SPACE", lines[0])
	}
}

func TestKeycodesJSON(t *testing.T) {
	out, err := execute(t, "keycodes", "--json", "-n", "1", "SPACE")
	if err != nil {
		t.Fatalf("keycodes: %v", err)
	}
	if !strings.Contains(out, `"code": "SPACE"`) {
		t.Errorf("output = %s", out)
	}
}

func TestLabelCommand(t *testing.T) {
	out, err := execute(t, "label", "--default-names", "lt", "1", "A")
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if out != "NAV\nA\n" {
		t.Errorf("output = %q, want %q", out, "NAV\nA\n")
	}

	if _, err := execute(t, "label", "--default-names", "&"); err == nil {
		t.Error("expected error for an empty binding")
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(good, []byte("[[layer]]\nname = \"BASE\"\nbindings = [[\"kp\", \"A\"], [\"trans\"]]\n"), 0o600)
	os.WriteFile(bad, []byte("[[layer]]\nname = \"BASE\"\nbindings = [[\"mystery\", \"A\"], [\"trans\"]]\n"), 0o600)

	out, err := execute(t, "check", good)
	if err != nil {
		t.Fatalf("check good: %v", err)
	}
	if !strings.Contains(out, "no problems") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "check", bad)
	if err == nil {
		t.Fatal("expected error for unknown behavior")
	}
	if !strings.Contains(out, "layer 0 key 0") {
		t.Errorf("output = %q, want issue for layer 0 key 0", out)
	}
}

func TestUnknownLogLevel(t *testing.T) {
	if _, err := execute(t, "--log-level", "loud", "keycodes"); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestLabelsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.toml")
	os.WriteFile(path, []byte(`
[[layer]]
name = "BASE"
bindings = [["kp", "A"], ["lt", "1", "B"]]

[[layer]]
name = "NAV"
bindings = [["kp", "C"], ["trans"]]
`), 0o600)

	out, err := execute(t, "labels", "-f", path)
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if !strings.Contains(out, "# BASE") || !strings.Contains(out, "NAV / B") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "labels", "-f", path, "nav")
	if err != nil {
		t.Fatalf("labels nav: %v", err)
	}
	if !strings.Contains(out, "# NAV") || !strings.Contains(out, "kp C") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "labels", "-f", path, "5"); err == nil {
		t.Error("expected error for layer out of range")
	}
	if _, err := execute(t, "labels", "-f", path, "SYM"); err == nil {
		t.Error("expected error for unknown layer name")
	}
}
