package device

// Status is the connection state of a session: Disconnected, Scanning,
// Connecting or Connected.
type Status interface {
	String() string
	status()
}

// Disconnected means no device is connected; discovery is running.
type Disconnected struct{}

// Scanning means a discovery request is in flight.
type Scanning struct{}

// Connecting means a connect request to Device is in flight.
type Connecting struct {
	Device Info
}

// Connected means a device is connected. Locked is true until the device
// reports otherwise.
type Connected struct {
	Info   ConnectedInfo
	Locked bool
}

func (Disconnected) status() {}
func (Scanning) status()     {}
func (Connecting) status()   {}
func (Connected) status()    {}

func (Disconnected) String() string { return "disconnected" }
func (Scanning) String() string     { return "scanning" }

func (s Connecting) String() string {
	return "connecting to " + s.Device.Name
}

func (s Connected) String() string {
	if s.Locked {
		return s.Info.Name + " (locked)"
	}
	return s.Info.Name
}

type phase int

const (
	phaseDiscovery phase = iota
	phaseConnecting
	phaseConnected
)

func phaseOf(s Status) phase {
	switch s.(type) {
	case Connecting:
		return phaseConnecting
	case Connected:
		return phaseConnected
	default:
		return phaseDiscovery
	}
}
