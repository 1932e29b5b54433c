//go:build !linux && !mock

package main

import (
	"fmt"

	"github.com/wifictl/wifictl/wifi"
)

// GetAdapter returns an error for unsupported operating systems.
func GetAdapter() (wifi.Adapter, error) {
	return nil, fmt.Errorf("unsupported operating system (build with -tags mock to try the demo backend)")
}
