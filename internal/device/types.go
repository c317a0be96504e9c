package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

var (
	// ErrNotConnected is returned by operations that need a connected device.
	ErrNotConnected = errors.New("no device connected")
	// ErrLiveSyncBlocked is returned when live edits are not permitted,
	// because the device is locked or its behaviors are not yet known.
	ErrLiveSyncBlocked = errors.New("live editing is not available")
	// ErrToggleInProgress is returned when a lock toggle is already running.
	ErrToggleInProgress = errors.New("lock toggle already in progress")
)

// Transport is the link a device is reachable over.
type Transport string

const (
	TransportUSB Transport = "Usb"
	TransportBLE Transport = "Ble"
)

// Info identifies a device found by discovery.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Transport Transport `json:"transport"`
}

// ConnectedInfo describes the device a session is connected to.
type ConnectedInfo struct {
	Name         string    `json:"name"`
	SerialNumber string    `json:"serial_number"`
	Transport    Transport `json:"transport"`
}

// Battery holds one charge percentage per battery (split halves report
// two).
type Battery struct {
	Levels []int `json:"levels"`
}

func (b Battery) String() string {
	if len(b.Levels) == 0 {
		return "?"
	}
	parts := make([]string, len(b.Levels))
	for i, l := range b.Levels {
		parts[i] = fmt.Sprintf("%d%%", l)
	}
	return strings.Join(parts, "/")
}

// ParseLockState maps a device lock-state string to locked. The firmware
// reports "ZmkLocked"/"ZmkUnlocked"; plain "locked"/"unlocked" are
// accepted too.
func ParseLockState(s string) (locked bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zmkunlocked", "unlocked":
		return false, nil
	case "zmklocked", "locked":
		return true, nil
	default:
		return true, fmt.Errorf("unknown lock state %q", s)
	}
}

// LiveLayer is a layer as resolved on the device. ID is the device's own
// layer identifier, used when pushing live bindings.
type LiveLayer struct {
	ID       int
	Name     string
	Bindings []keymap.Binding
}

// LiveKeymap is the keymap currently active on the device.
type LiveKeymap struct {
	Layers []LiveLayer
}

// DocumentLayers converts the live layers into document layers.
func (k LiveKeymap) DocumentLayers() []keymap.Layer {
	out := make([]keymap.Layer, len(k.Layers))
	for i, l := range k.Layers {
		bs := make([]keymap.Binding, len(l.Bindings))
		for j, b := range l.Bindings {
			bs[j] = b.Clone()
		}
		out[i] = keymap.Layer{Name: l.Name, Index: i, Bindings: bs}
	}
	return out
}

// PhysicalKey is one key of a physical layout in device units: positions
// and sizes in tenths of a key unit, rotation in hundredths of a degree.
type PhysicalKey struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	R      int `json:"r"`
	RX     int `json:"rx"`
	RY     int `json:"ry"`
}

// PhysicalLayout is a named key arrangement.
type PhysicalLayout struct {
	Name string        `json:"name"`
	Keys []PhysicalKey `json:"keys"`
}

// PhysicalLayouts lists the layouts a device supports and the active one.
type PhysicalLayouts struct {
	ActiveLayoutIndex int              `json:"active_layout_index"`
	Layouts           []PhysicalLayout `json:"layouts"`
}

// KeyGeometry is a key position in key units, ready for rendering.
type KeyGeometry struct {
	Index  int
	X, Y   float64
	W, H   float64
	Rot    float64
	RX, RY float64
}

// Geometry converts the active layout to key units. It returns nil when
// the active index does not name a layout.
func (p PhysicalLayouts) Geometry() []KeyGeometry {
	if p.ActiveLayoutIndex < 0 || p.ActiveLayoutIndex >= len(p.Layouts) {
		return nil
	}
	keys := p.Layouts[p.ActiveLayoutIndex].Keys
	out := make([]KeyGeometry, len(keys))
	for i, k := range keys {
		out[i] = KeyGeometry{
			Index: i,
			X:     float64(k.X) / 10,
			Y:     float64(k.Y) / 10,
			W:     float64(k.Width) / 10,
			H:     float64(k.Height) / 10,
			Rot:   float64(k.R) / 100,
			RX:    float64(k.RX) / 10,
			RY:    float64(k.RY) / 10,
		}
	}
	return out
}

// LiveBinding is one key assignment pushed to a device.
type LiveBinding struct {
	LayerID     int      `json:"layer_id"`
	KeyPosition int      `json:"key_position"`
	Action      string   `json:"action"`
	Params      []string `json:"params"`
}

// Client is the command boundary to a device transport. Every call may
// block on I/O and honours ctx.
type Client interface {
	ListDevices(ctx context.Context) ([]Info, error)
	Connect(ctx context.Context, id string, transport Transport) (ConnectedInfo, error)
	Disconnect(ctx context.Context) error
	Battery(ctx context.Context) (Battery, error)
	LockState(ctx context.Context) (string, error)
	SetLockState(ctx context.Context, lock bool) error
	DiscoverBehaviors(ctx context.Context) error
	ResolvedKeymap(ctx context.Context) (LiveKeymap, error)
	PhysicalLayouts(ctx context.Context) (PhysicalLayouts, error)
	SetLiveBinding(ctx context.Context, b LiveBinding) error
	SaveChanges(ctx context.Context) error
	DiscardChanges(ctx context.Context) error
	HasUnsavedChanges(ctx context.Context) (bool, error)
}
