package session

import (
	"sort"
	"strings"

	"github.com/wifictl/wifictl/wifi"
)

// Reconciler merges three independently-arriving data sources into one
// consistent set of entries: the latest scan snapshot, the saved-profile
// list, and the current-status report. It is the sole mutator of the view;
// every merge is incremental so identities survive refreshes.
type Reconciler struct {
	entries       map[string]*Entry
	missThreshold int
}

func NewReconciler(missThreshold int) *Reconciler {
	if missThreshold <= 0 {
		missThreshold = DefaultMissThreshold
	}
	return &Reconciler{
		entries:       make(map[string]*Entry),
		missThreshold: missThreshold,
	}
}

// Get returns the live entry for an SSID, or nil. Callers mutate entries
// only from the single event loop.
func (r *Reconciler) Get(ssid string) *Entry {
	return r.entries[ssid]
}

// Add inserts an entry that no scan has confirmed yet, as the manual-add
// flow does. An existing entry with the same SSID is left alone.
func (r *Reconciler) Add(e *Entry) *Entry {
	if existing, ok := r.entries[e.SSID]; ok {
		return existing
	}
	r.entries[e.SSID] = e
	return e
}

// Remove drops an entry outright, bypassing hysteresis. Used when a forget
// completes for a network that is no longer observable anyway.
func (r *Reconciler) Remove(ssid string) {
	delete(r.entries, ssid)
}

// ApplyScan folds one scan snapshot into the view. Networks beaconing the
// same SSID collapse into a single entry carrying the strongest signal and
// its BSSID. Entries absent from the snapshot age via the miss counter and
// are evicted past the threshold unless something still references them (a
// saved profile, or an operation in flight). Empty SSIDs are not folded in;
// hidden networks enter only through the manual-add flow.
func (r *Reconciler) ApplyScan(networks []wifi.RawNetwork) {
	strongest := make(map[string]wifi.RawNetwork, len(networks))
	for _, n := range networks {
		if n.SSID == "" {
			continue
		}
		if best, ok := strongest[n.SSID]; !ok || n.Signal > best.Signal {
			strongest[n.SSID] = n
		}
	}

	for ssid, e := range r.entries {
		n, seen := strongest[ssid]
		if !seen {
			e.Misses++
			if e.Misses >= r.missThreshold {
				e.InRange = false
				e.Signal = 0
				if !e.IsSaved && !e.Busy() && e.State != StateConnected {
					delete(r.entries, ssid)
				}
			}
			continue
		}

		e.BSSID = n.BSSID
		e.Signal = n.Signal
		if n.Security != wifi.SecurityUnknown {
			e.Security = n.Security
		}
		if n.Channel != 0 {
			e.Channel = n.Channel
		}
		e.InRange = true
		e.Hidden = false
		e.Misses = 0
		// A failure is only worth showing for one refresh cycle.
		if e.State == StateFailed {
			e.Transition(StateIdle)
		}
	}

	for ssid, n := range strongest {
		if _, ok := r.entries[ssid]; ok {
			continue
		}
		r.entries[ssid] = &Entry{
			SSID:     ssid,
			BSSID:    n.BSSID,
			Signal:   n.Signal,
			Security: n.Security,
			Channel:  n.Channel,
			InRange:  true,
			State:    StateIdle,
		}
	}
}

// ApplyProfiles folds the saved-profile list into the view. Profiles never
// seen in a scan stay visible as out-of-range saved networks. An entry that
// is in neither the profile list nor radio range has nothing anchoring it
// and is dropped, unless it is mid-operation.
func (r *Reconciler) ApplyProfiles(profiles []wifi.Profile) {
	saved := make(map[string]wifi.Profile, len(profiles))
	for _, p := range profiles {
		if p.SSID == "" {
			continue
		}
		saved[p.SSID] = p
	}

	for ssid, e := range r.entries {
		if p, ok := saved[ssid]; ok {
			e.IsSaved = true
			e.AutoConnect = p.AutoConnect
			continue
		}
		e.IsSaved = false
		e.AutoConnect = false
		if !e.InRange && !e.Busy() && e.State != StateConnected {
			delete(r.entries, ssid)
		}
	}

	for ssid, p := range saved {
		if _, ok := r.entries[ssid]; ok {
			continue
		}
		r.entries[ssid] = &Entry{
			SSID:        ssid,
			IsSaved:     true,
			AutoConnect: p.AutoConnect,
			State:       StateIdle,
		}
	}
}

// ApplyStatus folds a current-status report into the view. It is the one
// place the single-Connected invariant is enforced: the most recent adapter
// truth wins, and any entry that believed it was connected but no longer
// matches is walked back to Idle.
func (r *Reconciler) ApplyStatus(status *wifi.ConnectedNetwork) {
	for ssid, e := range r.entries {
		if status != nil && ssid == status.SSID {
			continue
		}
		if e.State == StateConnected {
			e.Transition(StateIdle)
		}
	}
	if status == nil || status.SSID == "" {
		return
	}

	e, ok := r.entries[status.SSID]
	if !ok {
		// Connected to something no scan has reported, e.g. a hidden
		// network joined manually before this session.
		e = &Entry{SSID: status.SSID, InRange: true, Hidden: true, State: StateIdle}
		r.entries[status.SSID] = e
	}
	if status.BSSID != "" {
		e.BSSID = status.BSSID
	}
	if e.State != StateConnected {
		if err := e.Transition(StateConnected); err != nil {
			// Adapter truth beats whatever lifecycle step we were on.
			e.State = StateConnected
			e.Reason = FailNone
		}
	}
}

// View returns the ordered projection of the current entries, optionally
// filtered by a case-insensitive SSID substring. The sort is stable and
// deterministic so keyboard navigation does not jump between refreshes:
// connected first, then saved, then by signal, then by name.
func (r *Reconciler) View(filter string) []Entry {
	filter = strings.ToLower(filter)
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter != "" && !strings.Contains(strings.ToLower(e.SSID), filter) {
			continue
		}
		out = append(out, *e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aConn, bConn := a.State == StateConnected, b.State == StateConnected
		if aConn != bConn {
			return aConn
		}
		if a.IsSaved != b.IsSaved {
			return a.IsSaved
		}
		if a.Signal != b.Signal {
			return a.Signal > b.Signal
		}
		return a.SSID < b.SSID
	})
	return out
}

// Len returns the number of live entries, ignoring any filter.
func (r *Reconciler) Len() int {
	return len(r.entries)
}
