package session

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    ConnState
		to      ConnState
		wantErr bool
	}{
		{"connect flow start", StateIdle, StateConnectRequested, false},
		{"scheduler accepts", StateConnectRequested, StateConnecting, false},
		{"adapter success", StateConnecting, StateConnected, false},
		{"adapter failure", StateConnecting, StateFailed, false},
		{"disconnect flow", StateConnected, StateDisconnectRequested, false},
		{"disconnect accepted", StateDisconnectRequested, StateDisconnecting, false},
		{"disconnect success", StateDisconnecting, StateIdle, false},
		{"failed clears", StateFailed, StateIdle, false},
		{"retry after failure", StateFailed, StateConnectRequested, false},
		{"forget from idle", StateIdle, StateForgetting, false},
		{"forget from connected", StateConnected, StateForgetting, false},
		{"forget done", StateForgetting, StateIdle, false},
		{"double connect", StateConnecting, StateConnectRequested, true},
		{"idle cannot complete", StateIdle, StateConnected, true},
		{"connected cannot connect", StateConnected, StateConnecting, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{SSID: "x", State: tt.from}
			err := e.Transition(tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Transition(%v -> %v) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err == nil && e.State != tt.to {
				t.Errorf("state = %v, want %v", e.State, tt.to)
			}
			if err != nil && e.State != tt.from {
				t.Errorf("failed transition mutated state to %v", e.State)
			}
		})
	}
}

func TestTransitionClearsReason(t *testing.T) {
	e := Entry{SSID: "x", State: StateConnecting}
	e.Fail(FailAuth)
	if e.State != StateFailed || e.Reason != FailAuth {
		t.Fatalf("Fail() = %v/%v", e.State, e.Reason)
	}
	if err := e.Transition(StateIdle); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if e.Reason != FailNone {
		t.Errorf("reason survived leaving Failed: %v", e.Reason)
	}
}

func TestBusy(t *testing.T) {
	busy := []ConnState{StateConnectRequested, StateConnecting, StateDisconnectRequested, StateDisconnecting, StateForgetting}
	for _, s := range busy {
		e := Entry{State: s}
		if !e.Busy() {
			t.Errorf("Busy() = false for %v", s)
		}
	}
	for _, s := range []ConnState{StateIdle, StateConnected, StateFailed, StateScanning} {
		e := Entry{State: s}
		if e.Busy() {
			t.Errorf("Busy() = true for %v", s)
		}
	}
}
