package keyring

import (
	"errors"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"
)

func useTempRegistry(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev := registryDir
	registryDir = func() string { return dir }
	t.Cleanup(func() { registryDir = prev })
}

func TestSetAndGetPreferredDevice(t *testing.T) {
	gokeyring.MockInit()

	if err := SetPreferredDevice("usb-1"); err != nil {
		t.Fatalf("SetPreferredDevice: %v", err)
	}
	got, err := GetPreferredDevice()
	if err != nil {
		t.Fatalf("GetPreferredDevice: %v", err)
	}
	if got != "usb-1" {
		t.Errorf("got %q, want %q", got, "usb-1")
	}
}

func TestEnvVarFallback(t *testing.T) {
	gokeyring.MockInit()

	if err := SetPreferredDevice("keyring-value"); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEYSMITH_DEVICE", "env-value")
	got, err := GetPreferredDevice()
	if err != nil {
		t.Fatal(err)
	}
	if got != "env-value" {
		t.Errorf("got %q, want %q", got, "env-value")
	}

	t.Setenv("KEYSMITH_BRIDGE_TOKEN", "env-token")
	got, err = GetBridgeToken()
	if err != nil || got != "env-token" {
		t.Errorf("GetBridgeToken = %q, %v", got, err)
	}
}

func TestMissingPreferredDevice(t *testing.T) {
	gokeyring.MockInit()

	if _, err := GetPreferredDevice(); !errors.Is(err, ErrNotFound) {
		t.Errorf("got error %v, want ErrNotFound", err)
	}
	if err := DeletePreferredDevice(); err != nil {
		t.Errorf("deleting a missing entry: %v", err)
	}
}

func TestRememberAndForgetDevice(t *testing.T) {
	gokeyring.MockInit()
	useTempRegistry(t)

	if err := RememberDevice("usb-1", "Corne", "Usb"); err != nil {
		t.Fatalf("RememberDevice: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := RememberDevice("ble-2", "Totem", "Ble"); err != nil {
		t.Fatalf("RememberDevice: %v", err)
	}

	ds, err := ListKnownDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 || ds[0].ID != "ble-2" {
		t.Fatalf("known devices = %+v, want most recent first", ds)
	}
	if pref, _ := GetPreferredDevice(); pref != "ble-2" {
		t.Errorf("preferred = %q, want ble-2", pref)
	}

	if d, ok := FindKnownDevice("corne"); !ok || d.ID != "usb-1" {
		t.Errorf("FindKnownDevice(corne) = %+v, %v", d, ok)
	}

	if err := ForgetDevice("ble-2"); err != nil {
		t.Fatalf("ForgetDevice: %v", err)
	}
	if _, err := GetPreferredDevice(); !errors.Is(err, ErrNotFound) {
		t.Errorf("preferred device survived forgetting it: %v", err)
	}
	ds, _ = ListKnownDevices()
	if len(ds) != 1 || ds[0].ID != "usb-1" {
		t.Errorf("known devices = %+v", ds)
	}
}

func TestListKnownDevicesMissingFile(t *testing.T) {
	useTempRegistry(t)
	ds, err := ListKnownDevices()
	if err != nil || ds != nil {
		t.Errorf("ListKnownDevices = %v, %v", ds, err)
	}
}
