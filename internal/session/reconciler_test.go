package session

import (
	"reflect"
	"testing"

	"github.com/wifictl/wifictl/wifi"
)

func scanOf(ssids ...string) []wifi.RawNetwork {
	var out []wifi.RawNetwork
	for i, ssid := range ssids {
		out = append(out, wifi.RawNetwork{
			SSID:     ssid,
			BSSID:    "02:00:00:00:00:01",
			Signal:   uint8(90 - i*10),
			Security: wifi.SecurityWPA2Personal,
		})
	}
	return out
}

func TestApplyScanIdempotent(t *testing.T) {
	r := NewReconciler(3)
	scan := scanOf("alpha", "beta", "gamma")

	r.ApplyScan(scan)
	first := r.View("")
	r.ApplyScan(scan)
	second := r.View("")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("applying the same scan twice changed the view:\n%+v\n%+v", first, second)
	}
	if len(second) != 3 {
		t.Errorf("expected 3 entries, got %d", len(second))
	}
}

func TestDuplicateSSIDsMerge(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan([]wifi.RawNetwork{
		{SSID: "mesh", BSSID: "aa:aa:aa:aa:aa:aa", Signal: 40},
		{SSID: "mesh", BSSID: "bb:bb:bb:bb:bb:bb", Signal: 80},
		{SSID: "mesh", BSSID: "cc:cc:cc:cc:cc:cc", Signal: 60},
	})

	view := r.View("")
	if len(view) != 1 {
		t.Fatalf("expected 1 merged entry, got %d", len(view))
	}
	if view[0].BSSID != "bb:bb:bb:bb:bb:bb" || view[0].Signal != 80 {
		t.Errorf("representative should be the strongest AP, got %s/%d", view[0].BSSID, view[0].Signal)
	}
}

func TestHiddenBeaconsSkipped(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan([]wifi.RawNetwork{
		{SSID: "", BSSID: "aa:aa:aa:aa:aa:aa", Signal: 70},
		{SSID: "visible", BSSID: "bb:bb:bb:bb:bb:bb", Signal: 50},
	})
	if r.Len() != 1 {
		t.Errorf("empty-SSID beacons must not create entries, have %d", r.Len())
	}
}

func TestHysteresis(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan(scanOf("KeepNet", "OldNet"))
	r.ApplyProfiles([]wifi.Profile{{SSID: "SavedNet", AutoConnect: true}})

	// OldNet missing once: stale, still listed.
	r.ApplyScan(scanOf("KeepNet"))
	e := r.Get("OldNet")
	if e == nil {
		t.Fatal("OldNet evicted after a single miss")
	}
	if !e.Stale() {
		t.Error("OldNet should be stale after one miss")
	}

	// Second miss: still inside the grace window.
	r.ApplyScan(scanOf("KeepNet"))
	if r.Get("OldNet") == nil {
		t.Fatal("OldNet evicted before the threshold")
	}

	// Third consecutive miss crosses the threshold: unsaved, so evicted.
	r.ApplyScan(scanOf("KeepNet"))
	if r.Get("OldNet") != nil {
		t.Error("OldNet should be evicted past the threshold")
	}

	// SavedNet was never scanned at all but is anchored by its profile.
	saved := r.Get("SavedNet")
	if saved == nil {
		t.Fatal("saved out-of-range network must stay visible")
	}
	if saved.InRange {
		t.Error("never-scanned saved network should not be in range")
	}
}

func TestSavedSurvivesEviction(t *testing.T) {
	r := NewReconciler(2)
	r.ApplyScan(scanOf("HomeNet"))
	r.ApplyProfiles([]wifi.Profile{{SSID: "HomeNet", AutoConnect: true}})

	r.ApplyScan(nil)
	r.ApplyScan(nil)

	e := r.Get("HomeNet")
	if e == nil {
		t.Fatal("saved network evicted")
	}
	if e.InRange {
		t.Error("expected out-of-range after threshold misses")
	}
	if e.Signal != 0 {
		t.Errorf("out-of-range entry kept signal %d", e.Signal)
	}
}

func TestUnsaveDropsOutOfRangeEntry(t *testing.T) {
	r := NewReconciler(2)
	r.ApplyProfiles([]wifi.Profile{{SSID: "GhostNet"}})
	if r.Get("GhostNet") == nil {
		t.Fatal("profile did not create an entry")
	}
	// Profile gone and never in range: nothing anchors it.
	r.ApplyProfiles(nil)
	if r.Get("GhostNet") != nil {
		t.Error("entry with no anchor survived profile application")
	}
}

func TestSingleConnectedInvariant(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan(scanOf("alpha", "beta", "gamma"))

	statuses := []*wifi.ConnectedNetwork{
		{SSID: "alpha"},
		{SSID: "beta"},
		{SSID: "gamma"},
		nil,
		{SSID: "alpha"},
	}
	for _, status := range statuses {
		r.ApplyStatus(status)
		connected := 0
		for _, e := range r.View("") {
			if e.State == StateConnected {
				connected++
			}
		}
		want := 0
		if status != nil {
			want = 1
		}
		if connected != want {
			t.Fatalf("after status %+v: %d connected entries, want %d", status, connected, want)
		}
	}
}

func TestStatusForUnknownNetworkCreatesEntry(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyStatus(&wifi.ConnectedNetwork{SSID: "stealth", BSSID: "aa:bb:cc:dd:ee:ff"})

	e := r.Get("stealth")
	if e == nil {
		t.Fatal("status report for unknown network did not create an entry")
	}
	if e.State != StateConnected {
		t.Errorf("state = %v, want connected", e.State)
	}
	if !e.Hidden {
		t.Error("entry never seen in a scan should be marked hidden")
	}
}

func TestFailedClearsOnNextScan(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan(scanOf("flaky"))
	r.Get("flaky").Fail(FailAuth)

	r.ApplyScan(scanOf("flaky"))
	e := r.Get("flaky")
	if e.State != StateIdle || e.Reason != FailNone {
		t.Errorf("failure should auto-clear on the next scan, got %v/%v", e.State, e.Reason)
	}
}

func TestViewOrdering(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan([]wifi.RawNetwork{
		{SSID: "weak-open", Signal: 10},
		{SSID: "strong-open", Signal: 90},
		{SSID: "saved-weak", Signal: 20},
		{SSID: "saved-strong", Signal: 70},
		{SSID: "current", Signal: 5},
		{SSID: "aaa-tie", Signal: 50},
		{SSID: "bbb-tie", Signal: 50},
	})
	r.ApplyProfiles([]wifi.Profile{
		{SSID: "saved-weak"}, {SSID: "saved-strong"}, {SSID: "current"},
	})
	r.ApplyStatus(&wifi.ConnectedNetwork{SSID: "current"})

	var got []string
	for _, e := range r.View("") {
		got = append(got, e.SSID)
	}
	want := []string{
		"current",      // connected first, despite weakest signal
		"saved-strong", // then saved by signal
		"saved-weak",
		"strong-open", // then the rest by signal
		"aaa-tie",     // ties break by name
		"bbb-tie",
		"weak-open",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ordering = %v, want %v", got, want)
	}
}

func TestViewFilter(t *testing.T) {
	r := NewReconciler(3)
	r.ApplyScan(scanOf("CafeNet", "HomeNet", "cafeteria"))

	before := r.View("")
	filtered := r.View("CAFE")
	if len(filtered) != 2 {
		t.Fatalf("case-insensitive substring filter matched %d, want 2", len(filtered))
	}
	after := r.View("")
	if !reflect.DeepEqual(before, after) {
		t.Error("filtering mutated the underlying view")
	}
}
