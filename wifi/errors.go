package wifi

import "errors"

var (
	// ErrAdapterUnavailable means the wireless stack itself is unreachable
	// (no adapter, daemon not running, bus gone). Callers should treat the
	// whole session as degraded rather than a single operation as failed.
	ErrAdapterUnavailable = errors.New("wireless adapter unavailable")

	// ErrAuthFailure means the network rejected the supplied credential.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrNotFound means the referenced network or profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotSupported means the backend cannot perform the operation.
	ErrNotSupported = errors.New("not supported")

	// ErrWirelessDisabled means the radio is soft- or hard-blocked.
	ErrWirelessDisabled = errors.New("wireless is disabled")
)
