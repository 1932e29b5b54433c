package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wifictl/wifictl/wifi"
)

// Kind identifies one class of adapter operation.
type Kind int

const (
	KindScan Kind = iota
	KindConnect
	KindDisconnect
	KindForget
	KindSetAutoConnect
	KindAddManual
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "scan"
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	case KindForget:
		return "forget"
	case KindSetAutoConnect:
		return "set-autoconnect"
	case KindAddManual:
		return "add-manual"
	default:
		return "unknown"
	}
}

// Operation is one request against the adapter. SSID is empty for scans.
type Operation struct {
	Kind    Kind
	SSID    string
	Request wifi.ConnectRequest // Connect and AddManual
	Enabled bool                // SetAutoConnect
}

// Handle identifies one accepted operation. Seq distinguishes it from any
// later operation reusing the same slot after a timeout.
type Handle struct {
	Kind     Kind
	SSID     string
	Seq      uint64
	Deadline time.Time
}

// Completion is the terminal form of a pending operation, as delivered on
// the scheduler's event channel. Alongside the outcome it carries whatever
// fresh snapshots the background task gathered, so the consumer can feed
// them to the reconciler in order.
type Completion struct {
	Kind Kind
	SSID string
	Seq  uint64
	Err  error

	Networks    []wifi.RawNetwork
	Profiles    []wifi.Profile
	HasProfiles bool
	Status      *wifi.ConnectedNetwork
	HasStatus   bool
}

// Scheduler executes adapter calls as background tasks, at most one per
// target at a time, and reports every outcome as a Completion on a single
// channel. Submit never blocks on adapter I/O.
type Scheduler struct {
	adapter wifi.Adapter
	cfg     Config
	logger  *slog.Logger

	mu       sync.Mutex
	seq      uint64
	pending  map[string]Handle // keyed by target SSID
	scanSlot *Handle           // the one global scan

	completions chan Completion
}

// NewScheduler wraps an adapter. Completion events must be drained by a
// single consumer via Events.
func NewScheduler(adapter wifi.Adapter, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		adapter:     adapter,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		pending:     make(map[string]Handle),
		completions: make(chan Completion, 16),
	}
}

// Events returns the completion channel. Single consumer.
func (s *Scheduler) Events() <-chan Completion {
	return s.completions
}

// Submit accepts an operation and starts it in the background. A mutating
// operation targeting an SSID with one already pending is rejected with
// ErrConflict. A scan submitted while one is in flight is coalesced: the
// caller gets the in-flight handle and no new work starts.
func (s *Scheduler) Submit(op Operation) (Handle, error) {
	s.mu.Lock()

	if op.Kind == KindScan {
		if s.scanSlot != nil {
			h := *s.scanSlot
			s.mu.Unlock()
			return h, nil
		}
	} else {
		if _, ok := s.pending[op.SSID]; ok {
			s.mu.Unlock()
			return Handle{}, ErrConflict
		}
	}

	s.seq++
	h := Handle{
		Kind:     op.Kind,
		SSID:     op.SSID,
		Seq:      s.seq,
		Deadline: time.Now().Add(s.timeout(op.Kind)),
	}
	if op.Kind == KindScan {
		s.scanSlot = &h
	} else {
		s.pending[op.SSID] = h
	}
	s.mu.Unlock()

	go s.execute(op, h)
	return h, nil
}

func (s *Scheduler) timeout(kind Kind) time.Duration {
	switch kind {
	case KindScan:
		return s.cfg.ScanTimeout
	case KindConnect, KindAddManual:
		return s.cfg.ConnectTimeout
	default:
		return s.cfg.OperationTimeout
	}
}

// release frees the slot held by h. It returns false when the slot has
// already been released (or re-occupied by a newer operation), which marks
// h's result as a zombie to be discarded.
func (s *Scheduler) release(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.Kind == KindScan {
		if s.scanSlot != nil && s.scanSlot.Seq == h.Seq {
			s.scanSlot = nil
			return true
		}
		return false
	}
	if p, ok := s.pending[h.SSID]; ok && p.Seq == h.Seq {
		delete(s.pending, h.SSID)
		return true
	}
	return false
}

// execute runs one operation to completion or deadline. On deadline the
// slot is freed immediately and a Timeout completion is synthesized; if the
// underlying call still finishes later, its result is drained and dropped.
func (s *Scheduler) execute(op Operation, h Handle) {
	ctx, cancel := context.WithDeadline(context.Background(), h.Deadline)
	defer cancel()

	done := make(chan Completion, 1)
	go func() {
		done <- s.run(ctx, op, h)
	}()

	select {
	case c := <-done:
		if s.release(h) {
			s.completions <- c
		} else {
			s.logger.Debug("discarding zombie completion", "op", op.Kind, "ssid", op.SSID)
		}
	case <-ctx.Done():
		if s.release(h) {
			s.logger.Warn("operation timed out", "op", op.Kind, "ssid", op.SSID)
			s.completions <- Completion{Kind: op.Kind, SSID: op.SSID, Seq: h.Seq, Err: ErrTimeout}
		}
		go func() { <-done }()
	}
}

// run performs the adapter calls for one operation. Operations that change
// what the view should show also gather the fresh snapshots the reconciler
// needs, so status application always lands after the data that triggered
// it.
func (s *Scheduler) run(ctx context.Context, op Operation, h Handle) Completion {
	c := Completion{Kind: op.Kind, SSID: op.SSID, Seq: h.Seq}

	switch op.Kind {
	case KindScan:
		networks, err := s.adapter.Scan(ctx)
		if err != nil {
			c.Err = normalize(err)
			return c
		}
		profiles, err := s.adapter.SavedProfiles(ctx)
		if err != nil {
			c.Err = normalize(err)
			return c
		}
		status, err := s.adapter.CurrentStatus(ctx)
		if err != nil {
			c.Err = normalize(err)
			return c
		}
		c.Networks = networks
		c.Profiles, c.HasProfiles = profiles, true
		c.Status, c.HasStatus = status, true

	case KindConnect, KindAddManual:
		if err := s.adapter.Connect(ctx, op.Request); err != nil {
			c.Err = normalize(err)
			return c
		}
		if status, err := s.adapter.CurrentStatus(ctx); err == nil {
			c.Status, c.HasStatus = status, true
		}

	case KindDisconnect:
		if err := s.adapter.Disconnect(ctx); err != nil {
			c.Err = normalize(err)
			return c
		}
		if status, err := s.adapter.CurrentStatus(ctx); err == nil {
			c.Status, c.HasStatus = status, true
		}

	case KindForget:
		if err := s.adapter.Forget(ctx, op.SSID); err != nil {
			c.Err = normalize(err)
			return c
		}
		if profiles, err := s.adapter.SavedProfiles(ctx); err == nil {
			c.Profiles, c.HasProfiles = profiles, true
		}

	case KindSetAutoConnect:
		if err := s.adapter.SetAutoConnect(ctx, op.SSID, op.Enabled); err != nil {
			c.Err = normalize(err)
			return c
		}
		if profiles, err := s.adapter.SavedProfiles(ctx); err == nil {
			c.Profiles, c.HasProfiles = profiles, true
		}
	}
	return c
}

// normalize folds context deadline errors into the session taxonomy.
func normalize(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return err
}
