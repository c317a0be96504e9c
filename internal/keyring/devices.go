package keyring

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/m96-chan/Keysmith/internal/consts"
)

// KnownDevice is a device that was connected to before.
type KnownDevice struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Transport     string    `json:"transport"`
	LastConnected time.Time `json:"last_connected"`
}

const devicesFile = "devices.json"

// registryDir is where the known-device registry lives.
var registryDir = func() string { return consts.CacheDir }

func devicesPath() string {
	return filepath.Join(registryDir(), devicesFile)
}

// ListKnownDevices returns known devices, most recently connected first.
func ListKnownDevices() ([]KnownDevice, error) {
	data, err := os.ReadFile(devicesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ds []KnownDevice
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	slices.SortStableFunc(ds, func(a, b KnownDevice) int {
		return b.LastConnected.Compare(a.LastConnected)
	})
	return ds, nil
}

func saveKnownDevices(ds []KnownDevice) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(devicesPath(), data, 0o600)
}

// RememberDevice records a successful connection and makes the device the
// preferred one.
func RememberDevice(id, name, transport string) error {
	ds, err := ListKnownDevices()
	if err != nil {
		ds = nil
	}

	now := time.Now()
	if i := slices.IndexFunc(ds, func(d KnownDevice) bool { return d.ID == id }); i >= 0 {
		ds[i].Name = name
		ds[i].Transport = transport
		ds[i].LastConnected = now
	} else {
		ds = append(ds, KnownDevice{ID: id, Name: name, Transport: transport, LastConnected: now})
	}

	if err := saveKnownDevices(ds); err != nil {
		return err
	}
	return SetPreferredDevice(id)
}

// ForgetDevice removes a device from the registry, and from the preferred
// slot if it holds it.
func ForgetDevice(id string) error {
	ds, err := ListKnownDevices()
	if err != nil {
		return err
	}
	ds = slices.DeleteFunc(ds, func(d KnownDevice) bool { return d.ID == id })
	if err := saveKnownDevices(ds); err != nil {
		return err
	}
	if pref, err := GetPreferredDevice(); err == nil && pref == id {
		return DeletePreferredDevice()
	}
	return nil
}

// FindKnownDevice looks a device up by ID or case-insensitive name.
func FindKnownDevice(ref string) (KnownDevice, bool) {
	ds, err := ListKnownDevices()
	if err != nil {
		return KnownDevice{}, false
	}
	for _, d := range ds {
		if d.ID == ref || strings.EqualFold(d.Name, ref) {
			return d, true
		}
	}
	return KnownDevice{}, false
}
