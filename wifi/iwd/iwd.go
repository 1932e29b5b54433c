//go:build linux

// WARNING: This implementation is untested.
package iwd

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/wifictl/wifictl/wifi"
)

const pollInterval = 1 * time.Second

// IWD constants
const (
	iwdDest              = "net.connman.iwd"
	iwdPath              = "/"
	iwdIface             = "net.connman.iwd"
	iwdDeviceIface       = "net.connman.iwd.Device"
	iwdNetworkIface      = "net.connman.iwd.Network"
	iwdStationIface      = "net.connman.iwd.Station"
	iwdKnownNetworkIface = "net.connman.iwd.KnownNetwork"
)

// Adapter implements wifi.Adapter against iwd's D-Bus API. iwd does not
// expose per-AP details through this interface, so BSSIDs stay empty and
// networks come back pre-merged by SSID.
type Adapter struct{}

// New checks that iwd is reachable on the system bus.
func New() (wifi.Adapter, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	obj := conn.Object(iwdDest, iwdPath)
	if _, err := obj.GetProperty(iwdIface + ".Version"); err != nil {
		return nil, fmt.Errorf("iwd is not available: %w", wifi.ErrAdapterUnavailable)
	}
	return &Adapter{}, nil
}

func securityFromType(iwdType string) wifi.SecurityType {
	switch iwdType {
	case "open":
		return wifi.SecurityOpen
	case "wep":
		return wifi.SecurityWEP
	case "psk", "wpa-psk", "wpa2-psk":
		return wifi.SecurityWPA2Personal
	case "sae", "wpa3-psk":
		return wifi.SecurityWPA3Personal
	case "8021x", "eap", "wpa-eap", "wpa2-eap":
		return wifi.SecurityEnterprise
	default:
		return wifi.SecurityUnknown
	}
}

func (a *Adapter) Scan(ctx context.Context) ([]wifi.RawNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}

	enabled, err := a.isPowered(conn)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, wifi.ErrWirelessDisabled
	}

	if station, err := a.getStationDevice(conn); err == nil {
		// Best effort scan; iwd rejects it while one is already running.
		_ = conn.Object(iwdDest, station).Call(iwdStationIface+".Scan", 0)
	}

	devices, err := a.getDevices(conn)
	if err != nil {
		return nil, err
	}

	var networks []wifi.RawNetwork
	for _, devicePath := range devices {
		deviceObj := conn.Object(iwdDest, devicePath)
		var networkPaths []dbus.ObjectPath
		if err := deviceObj.Call(iwdStationIface+".GetOrderedNetworks", 0).Store(&networkPaths); err != nil {
			continue
		}

		for _, networkPath := range networkPaths {
			networkObj := conn.Object(iwdDest, networkPath)
			nameVar, err := networkObj.GetProperty(iwdNetworkIface + ".Name")
			if err != nil {
				continue
			}
			ssid, _ := nameVar.Value().(string)
			if ssid == "" {
				continue
			}

			var strength byte
			if strengthVar, err := networkObj.GetProperty(iwdNetworkIface + ".Strength"); err == nil {
				strength, _ = strengthVar.Value().(byte)
			}
			var iwdType string
			if typeVar, err := networkObj.GetProperty(iwdNetworkIface + ".Type"); err == nil {
				iwdType, _ = typeVar.Value().(string)
			}

			networks = append(networks, wifi.RawNetwork{
				SSID:     ssid,
				Signal:   strength,
				Security: securityFromType(iwdType),
			})
		}
	}
	return networks, nil
}

func (a *Adapter) SavedProfiles(ctx context.Context) ([]wifi.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	paths, err := a.getKnownNetworks(conn)
	if err != nil {
		return nil, fmt.Errorf("known networks: %w", wifi.ErrAdapterUnavailable)
	}

	var profiles []wifi.Profile
	for _, path := range paths {
		obj := conn.Object(iwdDest, path)
		nameVar, err := obj.GetProperty(iwdKnownNetworkIface + ".Name")
		if err != nil {
			continue
		}
		ssid, _ := nameVar.Value().(string)
		if ssid == "" {
			continue
		}

		autoConnect := false
		if acVar, err := obj.GetProperty(iwdKnownNetworkIface + ".AutoConnect"); err == nil {
			autoConnect, _ = acVar.Value().(bool)
		}
		profiles = append(profiles, wifi.Profile{SSID: ssid, AutoConnect: autoConnect})
	}
	return profiles, nil
}

func (a *Adapter) CurrentStatus(ctx context.Context) (*wifi.ConnectedNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	ssid, err := a.connectedSSID(conn)
	if err != nil {
		return nil, err
	}
	if ssid == "" {
		return nil, nil
	}
	return &wifi.ConnectedNetwork{SSID: ssid}, nil
}

func (a *Adapter) Connect(ctx context.Context, req wifi.ConnectRequest) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	station, err := a.getStationDevice(conn)
	if err != nil {
		return err
	}

	if req.Hidden {
		var securityType string
		switch req.Security {
		case wifi.SecurityOpen:
			securityType = "open"
		case wifi.SecurityWEP:
			securityType = "wep"
		default:
			securityType = "psk"
		}
		passphrase := ""
		if req.Passphrase != nil {
			passphrase = *req.Passphrase
		}
		err = conn.Object(iwdDest, station).Call(iwdStationIface+".ConnectHidden", 0, req.SSID, securityType, passphrase).Store()
	} else {
		networkPath, ferr := a.findNetworkPath(conn, req.SSID)
		if ferr != nil {
			return ferr
		}
		err = conn.Object(iwdDest, networkPath).Call(iwdNetworkIface+".Connect", 0).Store()
	}
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return a.waitForConnection(ctx, req.SSID)
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	station, err := a.getStationDevice(conn)
	if err != nil {
		return err
	}
	if err := conn.Object(iwdDest, station).Call(iwdStationIface+".Disconnect", 0).Store(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (a *Adapter) Forget(ctx context.Context, ssid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	path, err := a.findKnownNetworkPath(conn, ssid)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("network %q is not known: %w", ssid, wifi.ErrNotFound)
	}
	return conn.Object(iwdDest, iwdPath).Call(iwdIface+".ForgetNetwork", 0, path).Store()
}

func (a *Adapter) SetAutoConnect(ctx context.Context, ssid string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}
	path, err := a.findKnownNetworkPath(conn, ssid)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("network %q is not known: %w", ssid, wifi.ErrNotFound)
	}

	obj := conn.Object(iwdDest, path)
	variant := dbus.MakeVariant(enabled)
	return obj.Call("org.freedesktop.DBus.Properties.Set", 0, iwdKnownNetworkIface, "AutoConnect", variant).Err
}

// waitForConnection polls until the named network reports Connected, or ctx
// expires. iwd emits PropertiesChanged, but polling sidesteps match-rule
// lifetime bugs across iwd versions.
func (a *Adapter) waitForConnection(ctx context.Context, ssid string) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("system bus: %w", wifi.ErrAdapterUnavailable)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			connected, err := a.connectedSSID(conn)
			if err != nil {
				return err
			}
			if connected == ssid {
				return nil
			}
		}
	}
}

// --- iwd helpers ---

func (a *Adapter) getDevices(conn *dbus.Conn) ([]dbus.ObjectPath, error) {
	var devices []dbus.ObjectPath
	obj := conn.Object(iwdDest, iwdPath)
	if err := obj.Call(iwdIface+".GetDevices", 0).Store(&devices); err != nil {
		return nil, fmt.Errorf("get devices: %w", wifi.ErrAdapterUnavailable)
	}
	return devices, nil
}

func (a *Adapter) getStationDevice(conn *dbus.Conn) (dbus.ObjectPath, error) {
	devices, err := a.getDevices(conn)
	if err != nil {
		return "", err
	}
	for _, devicePath := range devices {
		deviceObj := conn.Object(iwdDest, devicePath)
		typeVar, err := deviceObj.GetProperty(iwdDeviceIface + ".Type")
		if err != nil {
			continue
		}
		if typeStr, ok := typeVar.Value().(string); ok && typeStr == "station" {
			return devicePath, nil
		}
	}
	return "", fmt.Errorf("no station device: %w", wifi.ErrAdapterUnavailable)
}

func (a *Adapter) isPowered(conn *dbus.Conn) (bool, error) {
	station, err := a.getStationDevice(conn)
	if err != nil {
		return false, err
	}
	poweredVar, err := conn.Object(iwdDest, station).GetProperty(iwdDeviceIface + ".Powered")
	if err != nil {
		return false, fmt.Errorf("powered property: %w", wifi.ErrAdapterUnavailable)
	}
	powered, _ := poweredVar.Value().(bool)
	return powered, nil
}

// connectedSSID returns the SSID of the network currently marked Connected,
// or "" when offline.
func (a *Adapter) connectedSSID(conn *dbus.Conn) (string, error) {
	devices, err := a.getDevices(conn)
	if err != nil {
		return "", err
	}
	for _, devicePath := range devices {
		deviceObj := conn.Object(iwdDest, devicePath)
		var networkPaths []dbus.ObjectPath
		if err := deviceObj.Call(iwdStationIface+".GetOrderedNetworks", 0).Store(&networkPaths); err != nil {
			continue
		}
		for _, networkPath := range networkPaths {
			networkObj := conn.Object(iwdDest, networkPath)
			connectedVar, err := networkObj.GetProperty(iwdNetworkIface + ".Connected")
			if err != nil {
				continue
			}
			if connected, ok := connectedVar.Value().(bool); !ok || !connected {
				continue
			}
			nameVar, err := networkObj.GetProperty(iwdNetworkIface + ".Name")
			if err != nil {
				continue
			}
			if name, ok := nameVar.Value().(string); ok {
				return name, nil
			}
		}
	}
	return "", nil
}

func (a *Adapter) findNetworkPath(conn *dbus.Conn, ssid string) (dbus.ObjectPath, error) {
	devices, err := a.getDevices(conn)
	if err != nil {
		return "", err
	}
	for _, devicePath := range devices {
		deviceObj := conn.Object(iwdDest, devicePath)
		var networkPaths []dbus.ObjectPath
		if err := deviceObj.Call(iwdStationIface+".GetOrderedNetworks", 0).Store(&networkPaths); err != nil {
			continue
		}
		for _, networkPath := range networkPaths {
			networkObj := conn.Object(iwdDest, networkPath)
			nameVar, err := networkObj.GetProperty(iwdNetworkIface + ".Name")
			if err != nil {
				continue
			}
			if name, ok := nameVar.Value().(string); ok && name == ssid {
				return networkPath, nil
			}
		}
	}
	return "", fmt.Errorf("network %q not in range: %w", ssid, wifi.ErrNotFound)
}

func (a *Adapter) getKnownNetworks(conn *dbus.Conn) ([]dbus.ObjectPath, error) {
	var networks []dbus.ObjectPath
	obj := conn.Object(iwdDest, iwdPath)
	err := obj.Call(iwdIface+".GetKnownNetworks", 0).Store(&networks)
	return networks, err
}

func (a *Adapter) findKnownNetworkPath(conn *dbus.Conn, ssid string) (dbus.ObjectPath, error) {
	paths, err := a.getKnownNetworks(conn)
	if err != nil {
		return "", fmt.Errorf("known networks: %w", wifi.ErrAdapterUnavailable)
	}
	for _, path := range paths {
		obj := conn.Object(iwdDest, path)
		nameVar, err := obj.GetProperty(iwdKnownNetworkIface + ".Name")
		if err != nil {
			continue
		}
		if name, ok := nameVar.Value().(string); ok && name == ssid {
			return path, nil
		}
	}
	return "", nil
}
