package session

import "time"

// DefaultMissThreshold is how many consecutive scans an entry may be absent
// from before it is evicted. One missed beacon should not make the list
// flicker.
const DefaultMissThreshold = 3

// Config carries the tunable constants of the session core.
type Config struct {
	// ScanTimeout bounds one scan cycle, including the profile and status
	// fetches that ride along with it.
	ScanTimeout time.Duration

	// ConnectTimeout bounds a connect attempt. Association plus DHCP can
	// legitimately take a while.
	ConnectTimeout time.Duration

	// OperationTimeout bounds everything else (disconnect, forget,
	// auto-connect updates).
	OperationTimeout time.Duration

	// MissThreshold is the hysteresis eviction threshold.
	MissThreshold int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		ScanTimeout:      5 * time.Second,
		ConnectTimeout:   15 * time.Second,
		OperationTimeout: 10 * time.Second,
		MissThreshold:    DefaultMissThreshold,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = d.ScanTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = d.OperationTimeout
	}
	if c.MissThreshold <= 0 {
		c.MissThreshold = d.MissThreshold
	}
	return c
}
