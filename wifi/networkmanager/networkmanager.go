//go:build linux

// Package networkmanager implements wifi.Adapter against NetworkManager's
// D-Bus API.
package networkmanager

import (
	"context"
	"fmt"

	"github.com/Wifx/gonetworkmanager/v3"
	"github.com/google/uuid"
	"github.com/wifictl/wifictl/wifi"
)

type Adapter struct {
	nm       gonetworkmanager.NetworkManager
	settings gonetworkmanager.Settings
}

// New connects to NetworkManager over the system bus.
func New() (wifi.Adapter, error) {
	nm, err := gonetworkmanager.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("networkmanager client: %w", wifi.ErrAdapterUnavailable)
	}
	settings, err := gonetworkmanager.NewSettings()
	if err != nil {
		return nil, fmt.Errorf("networkmanager settings: %w", wifi.ErrAdapterUnavailable)
	}
	return &Adapter{nm: nm, settings: settings}, nil
}

// wirelessDevice returns the first wifi device NetworkManager knows about.
func (a *Adapter) wirelessDevice() (gonetworkmanager.DeviceWireless, error) {
	devices, err := a.nm.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", wifi.ErrAdapterUnavailable)
	}
	for _, device := range devices {
		if dev, ok := device.(gonetworkmanager.DeviceWireless); ok {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no wireless device: %w", wifi.ErrAdapterUnavailable)
}

func securityFromFlags(ap gonetworkmanager.AccessPoint) wifi.SecurityType {
	flags, _ := ap.GetPropertyFlags()
	wpaFlags, _ := ap.GetPropertyWPAFlags()
	rsnFlags, _ := ap.GetPropertyRSNFlags()

	if uint32(rsnFlags)&uint32(gonetworkmanager.Nm80211APSecKeyMgmt8021X) != 0 ||
		uint32(wpaFlags)&uint32(gonetworkmanager.Nm80211APSecKeyMgmt8021X) != 0 {
		return wifi.SecurityEnterprise
	}
	if wpaFlags > 0 || rsnFlags > 0 {
		return wifi.SecurityWPA2Personal
	}
	if uint32(flags)&uint32(gonetworkmanager.Nm80211APFlagsPrivacy) != 0 {
		return wifi.SecurityWEP
	}
	return wifi.SecurityOpen
}

// channelFromFrequency maps a beacon frequency in MHz to its channel number.
func channelFromFrequency(mhz uint32) uint32 {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz < 2484:
		return (mhz - 2407) / 5
	case mhz >= 5150 && mhz <= 5895:
		return (mhz - 5000) / 5
	case mhz >= 5955 && mhz <= 7115: // 6 GHz
		return (mhz - 5950) / 5
	default:
		return 0
	}
}

func (a *Adapter) Scan(ctx context.Context) ([]wifi.RawNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	enabled, err := a.nm.GetPropertyWirelessEnabled()
	if err != nil {
		return nil, fmt.Errorf("wireless enabled: %w", wifi.ErrAdapterUnavailable)
	}
	if !enabled {
		return nil, wifi.ErrWirelessDisabled
	}

	dev, err := a.wirelessDevice()
	if err != nil {
		return nil, err
	}
	if err := dev.RequestScan(); err != nil {
		return nil, fmt.Errorf("request scan: %w", err)
	}

	accessPoints, err := dev.GetAccessPoints()
	if err != nil {
		return nil, fmt.Errorf("list access points: %w", err)
	}

	var networks []wifi.RawNetwork
	for _, ap := range accessPoints {
		ssid, err := ap.GetPropertySSID()
		if err != nil {
			continue
		}
		bssid, _ := ap.GetPropertyHWAddress()
		strength, _ := ap.GetPropertyStrength()
		frequency, _ := ap.GetPropertyFrequency()

		networks = append(networks, wifi.RawNetwork{
			SSID:      ssid,
			BSSID:     bssid,
			Signal:    strength,
			Security:  securityFromFlags(ap),
			Channel:   channelFromFrequency(frequency),
			Frequency: frequency,
		})
	}
	return networks, nil
}

// savedConnection returns the wireless connection whose ssid matches, plus
// its parsed settings. It matches the first one when profiles share an SSID.
func (a *Adapter) savedConnection(ssid string) (gonetworkmanager.Connection, map[string]map[string]interface{}, error) {
	connections, err := a.settings.ListConnections()
	if err != nil {
		return nil, nil, fmt.Errorf("list connections: %w", wifi.ErrAdapterUnavailable)
	}
	for _, conn := range connections {
		s, err := conn.GetSettings()
		if err != nil {
			continue
		}
		if wireless, ok := s["802-11-wireless"]; ok {
			if ssidBytes, ok := wireless["ssid"].([]byte); ok && string(ssidBytes) == ssid {
				return conn, s, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("no profile for %q: %w", ssid, wifi.ErrNotFound)
}

func (a *Adapter) SavedProfiles(ctx context.Context) ([]wifi.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	connections, err := a.settings.ListConnections()
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", wifi.ErrAdapterUnavailable)
	}

	var profiles []wifi.Profile
	seen := make(map[string]bool)
	for _, conn := range connections {
		s, err := conn.GetSettings()
		if err != nil {
			continue
		}
		wireless, ok := s["802-11-wireless"]
		if !ok {
			continue
		}
		ssidBytes, ok := wireless["ssid"].([]byte)
		if !ok || len(ssidBytes) == 0 {
			continue
		}
		ssid := string(ssidBytes)
		if seen[ssid] {
			continue
		}
		seen[ssid] = true

		autoConnect := true
		if c, ok := s["connection"]; ok {
			if ac, ok := c["autoconnect"].(bool); ok {
				autoConnect = ac
			}
		}
		profiles = append(profiles, wifi.Profile{SSID: ssid, AutoConnect: autoConnect})
	}
	return profiles, nil
}

func (a *Adapter) CurrentStatus(ctx context.Context) (*wifi.ConnectedNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	activeConnections, err := a.nm.GetPropertyActiveConnections()
	if err != nil {
		return nil, fmt.Errorf("active connections: %w", wifi.ErrAdapterUnavailable)
	}

	activated := false
	for _, ac := range activeConnections {
		typ, err := ac.GetPropertyType()
		if err != nil || typ != "802-11-wireless" {
			continue
		}
		state, err := ac.GetPropertyState()
		if err == nil && state == gonetworkmanager.NmActiveConnectionStateActivated {
			activated = true
			break
		}
	}
	if !activated {
		return nil, nil
	}

	dev, err := a.wirelessDevice()
	if err != nil {
		return nil, err
	}
	ap, err := dev.GetPropertyActiveAccessPoint()
	if err != nil || ap == nil {
		return nil, nil
	}
	ssid, err := ap.GetPropertySSID()
	if err != nil || ssid == "" {
		return nil, nil
	}
	bssid, _ := ap.GetPropertyHWAddress()
	return &wifi.ConnectedNetwork{SSID: ssid, BSSID: bssid}, nil
}

// strongestAP returns the best visible access point beaconing ssid.
func strongestAP(dev gonetworkmanager.DeviceWireless, ssid string) gonetworkmanager.AccessPoint {
	accessPoints, err := dev.GetAccessPoints()
	if err != nil {
		return nil
	}
	var best gonetworkmanager.AccessPoint
	var bestStrength uint8
	for _, ap := range accessPoints {
		s, err := ap.GetPropertySSID()
		if err != nil || s != ssid {
			continue
		}
		strength, _ := ap.GetPropertyStrength()
		if best == nil || strength > bestStrength {
			best = ap
			bestStrength = strength
		}
	}
	return best
}

func (a *Adapter) Connect(ctx context.Context, req wifi.ConnectRequest) error {
	dev, err := a.wirelessDevice()
	if err != nil {
		return err
	}

	if conn, _, err := a.savedConnection(req.SSID); err == nil {
		ap := strongestAP(dev, req.SSID)
		if ap == nil {
			return fmt.Errorf("network %q not in range: %w", req.SSID, wifi.ErrNotFound)
		}
		active, err := a.nm.ActivateWirelessConnection(conn, dev, ap)
		if err != nil {
			return fmt.Errorf("activate connection: %w", err)
		}
		return waitActivated(ctx, active, false)
	}

	// No saved profile: create one and activate it in a single call.
	deviceInterface, _ := dev.GetPropertyInterface()
	connection := map[string]map[string]interface{}{
		"connection": {
			"id":             req.SSID,
			"uuid":           uuid.New().String(),
			"type":           "802-11-wireless",
			"interface-name": deviceInterface,
			"autoconnect":    true,
		},
		"802-11-wireless": {
			"mode": "infrastructure",
			"ssid": []byte(req.SSID),
		},
		"ipv4": {"method": "auto"},
		"ipv6": {"method": "auto"},
	}
	if req.Hidden {
		connection["802-11-wireless"]["hidden"] = true
	}

	security := req.Security
	if ap := strongestAP(dev, req.SSID); ap != nil && security == wifi.SecurityUnknown {
		security = securityFromFlags(ap)
	}
	passphrase := ""
	if req.Passphrase != nil {
		passphrase = *req.Passphrase
	}
	switch security {
	case wifi.SecurityOpen:
	case wifi.SecurityEnterprise:
		return fmt.Errorf("802.1x networks: %w", wifi.ErrNotSupported)
	case wifi.SecurityWEP:
		connection["802-11-wireless"]["security"] = "802-11-wireless-security"
		connection["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "none",
			"wep-key0": passphrase,
		}
	case wifi.SecurityWPA3Personal:
		connection["802-11-wireless"]["security"] = "802-11-wireless-security"
		connection["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "sae",
			"psk":      passphrase,
		}
	default:
		connection["802-11-wireless"]["security"] = "802-11-wireless-security"
		connection["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "wpa-psk",
			"psk":      passphrase,
		}
	}

	var active gonetworkmanager.ActiveConnection
	if req.Hidden {
		active, err = a.nm.AddAndActivateConnection(connection, dev)
	} else {
		ap := strongestAP(dev, req.SSID)
		if ap == nil {
			return fmt.Errorf("network %q not in range: %w", req.SSID, wifi.ErrNotFound)
		}
		active, err = a.nm.AddAndActivateWirelessConnection(connection, dev, ap)
	}
	if err != nil {
		return fmt.Errorf("add and activate: %w", err)
	}
	return waitActivated(ctx, active, security.RequiresPassphrase())
}

// waitActivated blocks until the active connection reaches the activated
// state. A deactivation on a fresh secured join is reported as an auth
// failure, which is how NetworkManager surfaces a bad passphrase here.
func waitActivated(ctx context.Context, active gonetworkmanager.ActiveConnection, secured bool) error {
	stateChanges := make(chan gonetworkmanager.StateChange, 1)
	done := make(chan struct{})
	defer close(done)
	if err := active.SubscribeState(stateChanges, done); err != nil {
		return fmt.Errorf("subscribe state: %w", err)
	}

	// The connection may have activated before the subscription landed.
	initialState, err := active.GetPropertyState()
	if err != nil {
		return fmt.Errorf("connection state: %w", err)
	}
	if initialState == gonetworkmanager.NmActiveConnectionStateActivated {
		return nil
	}

	for {
		select {
		case change := <-stateChanges:
			if change.State == gonetworkmanager.NmActiveConnectionStateActivated {
				return nil
			}
			if change.State == gonetworkmanager.NmActiveConnectionStateDeactivated {
				if secured {
					return wifi.ErrAuthFailure
				}
				return fmt.Errorf("connection deactivated")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	activeConnections, err := a.nm.GetPropertyActiveConnections()
	if err != nil {
		return fmt.Errorf("active connections: %w", wifi.ErrAdapterUnavailable)
	}
	for _, ac := range activeConnections {
		typ, err := ac.GetPropertyType()
		if err != nil || typ != "802-11-wireless" {
			continue
		}
		if err := a.nm.DeactivateConnection(ac); err != nil {
			return fmt.Errorf("deactivate: %w", err)
		}
		return nil
	}
	// Already offline.
	return nil
}

func (a *Adapter) Forget(ctx context.Context, ssid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, _, err := a.savedConnection(ssid)
	if err != nil {
		return err
	}
	if err := conn.Delete(); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (a *Adapter) SetAutoConnect(ctx context.Context, ssid string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, settings, err := a.savedConnection(ssid)
	if err != nil {
		return err
	}
	if _, ok := settings["connection"]; !ok {
		settings["connection"] = make(map[string]interface{})
	}
	settings["connection"]["autoconnect"] = enabled

	applyUpdateWorkaround(settings)
	if err := conn.Update(settings); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// applyUpdateWorkaround modifies the settings map to workaround D-Bus type errors.
//
// NetworkManager's D-Bus API can return ipv6.addresses and ipv6.routes as an
// array of array of variants ('aav'), but expects them as an array of structs
// on update ('a(ayuay)' for addresses and 'a(ayuayu)' for routes). This causes
// a type mismatch error when calling the Update method with settings that
// were previously fetched from the API.
//
// To avoid this, we remove these properties from the settings map before
// updating the connection. This is safe because the operations that use this
// workaround are only intended to modify other properties of the connection.
//
// See: https://github.com/Wifx/gonetworkmanager/issues/13 and https://github.com/godbus/dbus/issues/400
func applyUpdateWorkaround(settings map[string]map[string]interface{}) {
	if ipv6Settings, ok := settings["ipv6"]; ok {
		delete(ipv6Settings, "addresses")
		delete(ipv6Settings, "routes")
	}
}
