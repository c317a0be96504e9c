package keyring

import (
	"errors"
	"os"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/m96-chan/Keysmith/internal/consts"
)

const (
	preferredDeviceUser = "preferred_device"
	bridgeTokenUser     = "bridge_token"
)

// ErrNotFound is returned when nothing is stored under a key.
var ErrNotFound = gokeyring.ErrNotFound

// GetPreferredDevice returns the device ID auto-connected to when several
// devices are found, from KEYSMITH_DEVICE or the system keyring.
func GetPreferredDevice() (string, error) {
	if v := os.Getenv(consts.EnvPrefix + "DEVICE"); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, preferredDeviceUser)
}

// SetPreferredDevice remembers the last device connected to.
func SetPreferredDevice(id string) error {
	return gokeyring.Set(consts.Name, preferredDeviceUser, id)
}

// DeletePreferredDevice forgets the preferred device.
func DeletePreferredDevice() error {
	err := gokeyring.Delete(consts.Name, preferredDeviceUser)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}

// GetBridgeToken returns the device bridge's access token from
// KEYSMITH_BRIDGE_TOKEN or the system keyring.
func GetBridgeToken() (string, error) {
	if v := os.Getenv(consts.EnvPrefix + "BRIDGE_TOKEN"); v != "" {
		return v, nil
	}
	return gokeyring.Get(consts.Name, bridgeTokenUser)
}

// SetBridgeToken stores the device bridge's access token.
func SetBridgeToken(token string) error {
	return gokeyring.Set(consts.Name, bridgeTokenUser, token)
}
