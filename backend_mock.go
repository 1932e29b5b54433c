//go:build mock

package main

import (
	"github.com/wifictl/wifictl/wifi"
	mockAdapter "github.com/wifictl/wifictl/wifi/mock"
)

// GetAdapter returns the scripted in-memory backend, for demos and UI work
// without touching real hardware.
func GetAdapter() (wifi.Adapter, error) {
	return mockAdapter.New()
}
