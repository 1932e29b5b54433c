package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wifictl/wifictl/wifi"
	"github.com/wifictl/wifictl/wifi/mock"
)

func newTestAdapter(t *testing.T) *mock.Adapter {
	t.Helper()
	a, err := mock.New()
	if err != nil {
		t.Fatalf("mock.New() failed: %v", err)
	}
	a.ActionSleep = 0
	a.Wiggle = false
	return a
}

func waitCompletion(t *testing.T, events <-chan Completion) Completion {
	t.Helper()
	select {
	case c := <-events:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completion")
		return Completion{}
	}
}

func assertNoCompletion(t *testing.T, events <-chan Completion, wait time.Duration) {
	t.Helper()
	select {
	case c := <-events:
		t.Fatalf("unexpected completion: %+v", c)
	case <-time.After(wait):
	}
}

func TestSubmitScanGathersSnapshots(t *testing.T) {
	s := NewScheduler(newTestAdapter(t), DefaultConfig(), nil)

	if _, err := s.Submit(Operation{Kind: KindScan}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	c := waitCompletion(t, s.Events())
	if c.Err != nil {
		t.Fatalf("scan failed: %v", c.Err)
	}
	if len(c.Networks) == 0 {
		t.Error("scan completion carried no networks")
	}
	if !c.HasProfiles || len(c.Profiles) == 0 {
		t.Error("scan completion carried no profiles")
	}
	if !c.HasStatus {
		t.Error("scan completion carried no status report")
	}
}

func TestScanCoalescing(t *testing.T) {
	a := newTestAdapter(t)
	a.ActionSleep = 50 * time.Millisecond
	s := NewScheduler(a, DefaultConfig(), nil)

	h1, err := s.Submit(Operation{Kind: KindScan})
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	h2, err := s.Submit(Operation{Kind: KindScan})
	if err != nil {
		t.Fatalf("coalesced Submit failed: %v", err)
	}
	if h1.Seq != h2.Seq {
		t.Errorf("second scan should be coalesced onto the first: %d != %d", h1.Seq, h2.Seq)
	}

	waitCompletion(t, s.Events())
	assertNoCompletion(t, s.Events(), 200*time.Millisecond)
}

func TestConflictRejection(t *testing.T) {
	a := newTestAdapter(t)
	a.ActionSleep = 50 * time.Millisecond
	s := NewScheduler(a, DefaultConfig(), nil)

	op := Operation{Kind: KindConnect, SSID: "HideYoKidsHideYoWiFi",
		Request: wifi.ConnectRequest{SSID: "HideYoKidsHideYoWiFi"}}
	if _, err := s.Submit(op); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if _, err := s.Submit(Operation{Kind: KindForget, SSID: "HideYoKidsHideYoWiFi"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for the busy target, got %v", err)
	}
	// A different target is unaffected.
	if _, err := s.Submit(Operation{Kind: KindForget, SSID: "Password is password"}); err != nil {
		t.Errorf("unrelated target rejected: %v", err)
	}

	waitCompletion(t, s.Events())
	waitCompletion(t, s.Events())
}

type blockingAdapter struct {
	*mock.Adapter
	unblock chan struct{}
}

func (b *blockingAdapter) Connect(ctx context.Context, req wifi.ConnectRequest) error {
	select {
	case <-b.unblock:
		return b.Adapter.Connect(ctx, req)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestTimeoutFreesSlotAndDiscardsZombie(t *testing.T) {
	a := &blockingAdapter{Adapter: newTestAdapter(t), unblock: make(chan struct{})}
	cfg := DefaultConfig()
	cfg.ConnectTimeout = 20 * time.Millisecond
	s := NewScheduler(a, cfg, nil)

	op := Operation{Kind: KindConnect, SSID: "HideYoKidsHideYoWiFi",
		Request: wifi.ConnectRequest{SSID: "HideYoKidsHideYoWiFi"}}
	if _, err := s.Submit(op); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	c := waitCompletion(t, s.Events())
	if !errors.Is(c.Err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", c.Err)
	}

	// The slot must be free again, and the zombie's late result dropped.
	close(a.unblock)
	if _, err := s.Submit(op); err != nil {
		t.Fatalf("resubmission after timeout rejected: %v", err)
	}
	c = waitCompletion(t, s.Events())
	if c.Err != nil {
		t.Fatalf("resubmitted connect failed: %v", c.Err)
	}
	assertNoCompletion(t, s.Events(), 100*time.Millisecond)
}

func TestForgetRefetchesProfiles(t *testing.T) {
	s := NewScheduler(newTestAdapter(t), DefaultConfig(), nil)

	if _, err := s.Submit(Operation{Kind: KindForget, SSID: "FreeHugsAndWiFi"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	c := waitCompletion(t, s.Events())
	if c.Err != nil {
		t.Fatalf("forget failed: %v", c.Err)
	}
	if !c.HasProfiles {
		t.Fatal("forget completion should carry refreshed profiles")
	}
	for _, p := range c.Profiles {
		if p.SSID == "FreeHugsAndWiFi" {
			t.Error("forgotten profile still present in refreshed list")
		}
	}
}
