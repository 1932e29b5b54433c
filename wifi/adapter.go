package wifi

import "context"

// SecurityType represents the security protocol of a network.
type SecurityType int

const (
	SecurityUnknown SecurityType = iota
	SecurityOpen
	SecurityWEP
	SecurityWPA2Personal
	SecurityWPA3Personal
	SecurityEnterprise
)

// String returns the human-readable name of the security type.
func (s SecurityType) String() string {
	switch s {
	case SecurityOpen:
		return "Open"
	case SecurityWEP:
		return "WEP"
	case SecurityWPA2Personal:
		return "WPA2-Personal"
	case SecurityWPA3Personal:
		return "WPA3-Personal"
	case SecurityEnterprise:
		return "Enterprise"
	default:
		return "Unknown"
	}
}

// RequiresPassphrase reports whether connecting to a network with this
// security type needs a credential. Unknown is treated as secured, since
// prompting for an unneeded passphrase is recoverable but joining a secured
// network without one is not.
func (s SecurityType) RequiresPassphrase() bool {
	return s != SecurityOpen
}

// ParseSecurity maps a security name to its SecurityType. It accepts the
// values String produces plus a few common aliases.
func ParseSecurity(name string) SecurityType {
	switch name {
	case "open", "Open", "none":
		return SecurityOpen
	case "wep", "WEP":
		return SecurityWEP
	case "wpa2", "WPA2", "wpa2-personal", "WPA2-Personal", "wpa", "WPA":
		return SecurityWPA2Personal
	case "wpa3", "WPA3", "wpa3-personal", "WPA3-Personal":
		return SecurityWPA3Personal
	case "enterprise", "Enterprise", "802.1x":
		return SecurityEnterprise
	default:
		return SecurityUnknown
	}
}

// RawNetwork is a single access point as reported by one scan.
// SSIDs are not unique; the BSSID identifies the radio that beaconed.
type RawNetwork struct {
	SSID      string
	BSSID     string
	Signal    uint8 // 0-100
	Security  SecurityType
	Channel   uint32
	Frequency uint32 // MHz
}

// Profile is a saved network configuration owned by the OS wireless stack.
type Profile struct {
	SSID        string
	AutoConnect bool
}

// ConnectedNetwork identifies the network the interface is currently
// associated with.
type ConnectedNetwork struct {
	SSID  string
	BSSID string
}

// ConnectRequest describes one connect attempt. Passphrase is nil when the
// target is open or already has a saved profile. Security and Hidden are
// only consulted when a new profile has to be created (manual joins).
type ConnectRequest struct {
	SSID       string
	Passphrase *string
	Security   SecurityType
	Hidden     bool
}

// Adapter is the capability surface of the OS wireless stack. All methods
// may block on OS I/O and must respect ctx cancellation on a best-effort
// basis; callers own timeouts.
type Adapter interface {
	// Scan triggers a fresh scan and returns the visible access points.
	Scan(ctx context.Context) ([]RawNetwork, error)
	// SavedProfiles lists the OS-persisted network profiles.
	SavedProfiles(ctx context.Context) ([]Profile, error)
	// CurrentStatus returns the active association, or nil when offline.
	CurrentStatus(ctx context.Context) (*ConnectedNetwork, error)
	// Connect associates with a network, creating a profile if needed.
	Connect(ctx context.Context, req ConnectRequest) error
	// Disconnect drops the current association.
	Disconnect(ctx context.Context) error
	// Forget deletes the saved profile for a network.
	Forget(ctx context.Context, ssid string) error
	// SetAutoConnect flips the auto-connect flag on a saved profile.
	SetAutoConnect(ctx context.Context, ssid string, enabled bool) error
}
