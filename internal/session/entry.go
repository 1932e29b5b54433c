package session

import (
	"github.com/wifictl/wifictl/wifi"
)

// ConnState is the lifecycle state of one network entry.
type ConnState int

const (
	StateIdle ConnState = iota
	StateScanning
	StateConnectRequested
	StateConnecting
	StateConnected
	StateDisconnectRequested
	StateDisconnecting
	StateFailed
	StateForgetting
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConnectRequested:
		return "connect requested"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnectRequested:
		return "disconnect requested"
	case StateDisconnecting:
		return "disconnecting"
	case StateFailed:
		return "failed"
	case StateForgetting:
		return "forgetting"
	default:
		return "unknown"
	}
}

// FailReason qualifies StateFailed.
type FailReason int

const (
	FailNone FailReason = iota
	FailAuth
	FailTimeout
	FailOther
)

func (r FailReason) String() string {
	switch r {
	case FailNone:
		return ""
	case FailAuth:
		return "bad passphrase"
	case FailTimeout:
		return "timed out"
	default:
		return "failed"
	}
}

// transitions lists the legal next states per state. Failed is never
// terminal: it clears back to Idle on the next user action or successful
// scan. Forgetting is reachable from anywhere since a forget is always a
// legal user intent.
var transitions = map[ConnState][]ConnState{
	StateIdle:                {StateScanning, StateConnectRequested, StateForgetting},
	StateScanning:            {StateIdle, StateConnected},
	StateConnectRequested:    {StateConnecting, StateFailed, StateIdle, StateForgetting},
	StateConnecting:          {StateConnected, StateFailed, StateIdle, StateForgetting},
	StateConnected:           {StateDisconnectRequested, StateIdle, StateFailed, StateForgetting},
	StateDisconnectRequested: {StateDisconnecting, StateFailed, StateIdle, StateForgetting},
	StateDisconnecting:       {StateIdle, StateFailed, StateConnected, StateForgetting},
	StateFailed:              {StateIdle, StateConnectRequested, StateConnected, StateForgetting},
	StateForgetting:          {StateIdle, StateFailed, StateConnected},
}

// Entry is one wireless network as currently known: the merge of whatever
// the latest scan, the saved-profile list, and the status report said about
// it. Entries are keyed by SSID and updated in place, never recreated, so
// UI selection keyed by identity survives refreshes.
type Entry struct {
	SSID     string
	BSSID    string // strongest access point seen for this SSID
	Signal   uint8
	Security wifi.SecurityType
	Channel  uint32

	IsSaved     bool
	AutoConnect bool
	InRange     bool
	Hidden      bool

	// Misses counts consecutive scans this entry was absent from while it
	// was in range. Eviction happens only past the configured threshold.
	Misses int

	State  ConnState
	Reason FailReason
}

// Stale reports whether the entry is inside its hysteresis grace window:
// missed by at least one scan but not yet written off.
func (e *Entry) Stale() bool {
	return e.InRange && e.Misses > 0
}

// Transition moves the entry to a new lifecycle state, validating the move
// against the transition table. Entering any state other than Failed clears
// the failure reason.
func (e *Entry) Transition(to ConnState) error {
	if e.State == to {
		return nil
	}
	for _, allowed := range transitions[e.State] {
		if allowed == to {
			e.State = to
			if to != StateFailed {
				e.Reason = FailNone
			}
			return nil
		}
	}
	return ErrInvalidTransition
}

// Fail moves the entry to StateFailed with a reason, from any state.
func (e *Entry) Fail(reason FailReason) {
	e.State = StateFailed
	e.Reason = reason
}

// Busy reports whether an operation is in flight for this entry, which the
// presentation layer uses to show a spinner and suppress conflicting input.
func (e *Entry) Busy() bool {
	switch e.State {
	case StateConnectRequested, StateConnecting,
		StateDisconnectRequested, StateDisconnecting, StateForgetting:
		return true
	}
	return false
}
