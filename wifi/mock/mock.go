package mock

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wifictl/wifictl/wifi"
)

var DefaultActionSleep = 500 * time.Millisecond

// Adapter is a scripted in-memory wifi.Adapter. It is used both for demoing
// the UI without touching real hardware and as the fixture for session tests.
type Adapter struct {
	mu sync.Mutex

	Visible  []wifi.RawNetwork
	Profiles []wifi.Profile
	Active   *wifi.ConnectedNetwork
	Secrets  map[string]string

	ScanError           error
	SavedProfilesError  error
	CurrentStatusError  error
	ConnectError        error
	DisconnectError     error
	ForgetError         error
	SetAutoConnectError error

	// Wiggle re-randomizes signal strengths on each scan, to better emulate
	// a real-world adapter for the frontend. Off during testing.
	Wiggle bool

	// ActionSleep is a delay before every action. Set to 0 during testing.
	ActionSleep time.Duration

	rng *rand.Rand
}

// New creates an Adapter pre-seeded with a list of fun wifi networks.
func New() (*Adapter, error) {
	visible := []wifi.RawNetwork{
		{SSID: "HideYoKidsHideYoWiFi", BSSID: "02:00:00:00:01:00", Signal: 72, Security: wifi.SecurityWPA2Personal, Channel: 6, Frequency: 2437},
		{SSID: "NeverGonnaGiveYouIP", BSSID: "02:00:00:00:02:00", Signal: 55, Security: wifi.SecurityWEP, Channel: 11, Frequency: 2462},
		{SSID: "Unencrypted_Honeypot", BSSID: "02:00:00:00:03:00", Signal: 61, Security: wifi.SecurityOpen, Channel: 1, Frequency: 2412},
		{SSID: "Dunder MiffLAN", BSSID: "02:00:00:00:04:00", Signal: 44, Security: wifi.SecurityWPA2Personal, Channel: 36, Frequency: 5180},
		{SSID: "Police Surveillance 2", BSSID: "02:00:00:00:05:00", Signal: 48, Security: wifi.SecurityWPA3Personal, Channel: 40, Frequency: 5200},
		{SSID: "I Believe Wi Can Fi", BSSID: "02:00:00:00:06:00", Signal: 38, Security: wifi.SecurityWEP, Channel: 3, Frequency: 2422},
		{SSID: "Hot singles in your area", BSSID: "02:00:00:00:07:00", Signal: 29, Security: wifi.SecurityWPA2Personal, Channel: 9, Frequency: 2452},
		{SSID: "Password is password", BSSID: "02:00:00:00:08:00", Signal: 87, Security: wifi.SecurityWPA2Personal, Channel: 44, Frequency: 5220},
		{SSID: "TacoBoutAGoodSignal", BSSID: "02:00:00:00:09:00", Signal: 99, Security: wifi.SecurityWPA3Personal, Channel: 48, Frequency: 5240},
		// Multiple radios beaconing the same SSID.
		{SSID: "Multi-AP Network", BSSID: "00:11:22:33:44:55", Signal: 80, Security: wifi.SecurityWPA2Personal, Channel: 1, Frequency: 2412},
		{SSID: "Multi-AP Network", BSSID: "AA:BB:CC:DD:EE:FF", Signal: 60, Security: wifi.SecurityWPA2Personal, Channel: 36, Frequency: 5180},
		{SSID: "Multi-AP Network", BSSID: "11:22:33:44:55:66", Signal: 40, Security: wifi.SecurityWPA2Personal, Channel: 48, Frequency: 5240},
		{SSID: "xX_D4rkR0ut3r_Xx", BSSID: "02:00:00:00:0a:00", Signal: 17, Security: wifi.SecurityEnterprise, Channel: 153, Frequency: 5765},
	}
	profiles := []wifi.Profile{
		{SSID: "HideYoKidsHideYoWiFi", AutoConnect: true},
		{SSID: "Password is password", AutoConnect: true},
		// Saved but currently out of range.
		{SSID: "GET off my LAN", AutoConnect: false},
		{SSID: "FreeHugsAndWiFi", AutoConnect: true},
	}
	secrets := map[string]string{
		"HideYoKidsHideYoWiFi": "hidden",
		"Password is password": "password",
	}

	return &Adapter{
		Visible:     visible,
		Profiles:    profiles,
		Secrets:     secrets,
		Wiggle:      true,
		ActionSleep: DefaultActionSleep,
		rng:         rand.New(rand.NewSource(time.Now().Unix())),
	}, nil
}

// sleep waits ActionSleep, returning early if ctx is cancelled.
func (m *Adapter) sleep(ctx context.Context) error {
	if m.ActionSleep == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.ActionSleep):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Adapter) Scan(ctx context.Context) ([]wifi.RawNetwork, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScanError != nil {
		return nil, m.ScanError
	}
	if m.Wiggle {
		for i := range m.Visible {
			m.Visible[i].Signal = uint8(m.rng.Intn(70) + 30)
		}
	}
	out := make([]wifi.RawNetwork, len(m.Visible))
	copy(out, m.Visible)
	return out, nil
}

func (m *Adapter) SavedProfiles(ctx context.Context) ([]wifi.Profile, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SavedProfilesError != nil {
		return nil, m.SavedProfilesError
	}
	out := make([]wifi.Profile, len(m.Profiles))
	copy(out, m.Profiles)
	return out, nil
}

func (m *Adapter) CurrentStatus(ctx context.Context) (*wifi.ConnectedNetwork, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CurrentStatusError != nil {
		return nil, m.CurrentStatusError
	}
	if m.Active == nil {
		return nil, nil
	}
	active := *m.Active
	return &active, nil
}

func (m *Adapter) Connect(ctx context.Context, req wifi.ConnectRequest) error {
	if err := m.sleep(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectError != nil {
		return m.ConnectError
	}

	var target *wifi.RawNetwork
	for i := range m.Visible {
		if m.Visible[i].SSID == req.SSID {
			if target == nil || m.Visible[i].Signal > target.Signal {
				target = &m.Visible[i]
			}
		}
	}
	if target == nil && !req.Hidden {
		return fmt.Errorf("network %q not in range: %w", req.SSID, wifi.ErrNotFound)
	}

	// A supplied passphrase is checked against the scripted secret even for
	// saved networks, so auth failures can be exercised from the frontend.
	if req.Passphrase != nil {
		if want, ok := m.Secrets[req.SSID]; ok && want != *req.Passphrase {
			return wifi.ErrAuthFailure
		}
	}

	saved := m.findProfile(req.SSID) >= 0
	if !saved {
		security := req.Security
		if target != nil {
			security = target.Security
		}
		if security.RequiresPassphrase() && req.Passphrase == nil {
			return wifi.ErrAuthFailure
		}
		m.Profiles = append(m.Profiles, wifi.Profile{SSID: req.SSID, AutoConnect: true})
		if req.Passphrase != nil {
			m.Secrets[req.SSID] = *req.Passphrase
		}
	}

	bssid := ""
	if target != nil {
		bssid = target.BSSID
	}
	m.Active = &wifi.ConnectedNetwork{SSID: req.SSID, BSSID: bssid}
	return nil
}

func (m *Adapter) Disconnect(ctx context.Context) error {
	if err := m.sleep(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DisconnectError != nil {
		return m.DisconnectError
	}
	m.Active = nil
	return nil
}

func (m *Adapter) Forget(ctx context.Context, ssid string) error {
	if err := m.sleep(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForgetError != nil {
		return m.ForgetError
	}
	i := m.findProfile(ssid)
	if i < 0 {
		return fmt.Errorf("no profile for %q: %w", ssid, wifi.ErrNotFound)
	}
	m.Profiles = append(m.Profiles[:i], m.Profiles[i+1:]...)
	delete(m.Secrets, ssid)
	if m.Active != nil && m.Active.SSID == ssid {
		m.Active = nil
	}
	return nil
}

func (m *Adapter) SetAutoConnect(ctx context.Context, ssid string, enabled bool) error {
	if err := m.sleep(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetAutoConnectError != nil {
		return m.SetAutoConnectError
	}
	i := m.findProfile(ssid)
	if i < 0 {
		return fmt.Errorf("no profile for %q: %w", ssid, wifi.ErrNotFound)
	}
	m.Profiles[i].AutoConnect = enabled
	return nil
}

// findProfile returns the index of a saved profile, or -1. Callers hold mu.
func (m *Adapter) findProfile(ssid string) int {
	for i, p := range m.Profiles {
		if p.SSID == ssid {
			return i
		}
	}
	return -1
}

var _ wifi.Adapter = (*Adapter)(nil)
