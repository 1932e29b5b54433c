//go:build linux && !mock

package main

import (
	"log/slog"

	"github.com/wifictl/wifictl/wifi"
	"github.com/wifictl/wifictl/wifi/iwd"
	"github.com/wifictl/wifictl/wifi/networkmanager"
)

// GetAdapter returns the best available control backend for this system.
func GetAdapter() (wifi.Adapter, error) {
	a, err := networkmanager.New()
	if err == nil {
		return a, nil
	}
	slog.Warn("failed to initialize networkmanager backend, falling back to iwd", "error", err)
	// If the NetworkManager dbus backend failed to initialize, try iwd
	return iwd.New()
}
