package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/wifictl/wifictl/wifi"
)

// Recorder receives each reconciled view after a scan lands. Used by the
// sighting journal; observations only, never credentials.
type Recorder interface {
	Record(entries []Entry) error
}

// Controller validates user intents, dispatches them to the scheduler, and
// folds completions back into the reconciled view. All methods must be
// called from a single goroutine (the event loop); only the scheduler's
// background tasks run concurrently.
type Controller struct {
	scheduler  *Scheduler
	reconciler *Reconciler
	logger     *slog.Logger
	recorder   Recorder

	search   string
	banner   error
	scanning bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder attaches a sighting recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Controller) { c.recorder = rec }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New builds a controller around an adapter.
func New(adapter wifi.Adapter, cfg Config, opts ...Option) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		reconciler: NewReconciler(cfg.MissThreshold),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scheduler = NewScheduler(adapter, cfg, c.logger)
	return c
}

// Events exposes the scheduler's completion channel. The consumer must call
// Apply with each completion, from the same goroutine that issues intents.
func (c *Controller) Events() <-chan Completion {
	return c.scheduler.Events()
}

// View returns the ordered entries, filtered by the current search pattern.
func (c *Controller) View() []Entry {
	return c.reconciler.View(c.search)
}

// Entry returns a snapshot of one entry by SSID.
func (c *Controller) Entry(ssid string) (Entry, bool) {
	e := c.reconciler.Get(ssid)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Banner returns the session-wide failure condition, if any. Only adapter
// unavailability escalates this far; every other error stays scoped to its
// entry.
func (c *Controller) Banner() error {
	return c.banner
}

// Scanning reports whether a scan is in flight.
func (c *Controller) Scanning() bool {
	return c.scanning
}

// Search sets the view filter: a case-insensitive SSID substring. Pure
// projection; no entry state is touched.
func (c *Controller) Search(pattern string) {
	c.search = pattern
}

// ClearSearch removes the view filter.
func (c *Controller) ClearSearch() {
	c.search = ""
}

// Refresh submits a scan. A scan already in flight is coalesced, so calling
// this every tick is harmless. Refresh stays allowed while the adapter is
// down: it is how the session discovers recovery.
func (c *Controller) Refresh() error {
	if _, err := c.scheduler.Submit(Operation{Kind: KindScan}); err != nil {
		return err
	}
	c.scanning = true
	return nil
}

// checkAvailable rejects mutating intents while the adapter is down.
func (c *Controller) checkAvailable() error {
	if c.banner != nil {
		return c.banner
	}
	return nil
}

// Connect requests a connection to a known entry. If the target's security
// requires a passphrase, none was supplied, and the OS has no saved profile
// to draw it from, it signals ErrNeedsCredential without touching the
// adapter; the presentation layer prompts and resubmits.
func (c *Controller) Connect(ssid string, passphrase *string) error {
	if err := c.checkAvailable(); err != nil {
		return err
	}
	e := c.reconciler.Get(ssid)
	if e == nil {
		return fmt.Errorf("connect %q: %w", ssid, wifi.ErrNotFound)
	}
	if e.Security.RequiresPassphrase() && !e.IsSaved && passphrase == nil {
		return ErrNeedsCredential
	}

	prev := e.State
	if err := e.Transition(StateConnectRequested); err != nil {
		return ErrConflict
	}
	_, err := c.scheduler.Submit(Operation{
		Kind: KindConnect,
		SSID: ssid,
		Request: wifi.ConnectRequest{
			SSID:       ssid,
			Passphrase: passphrase,
			Security:   e.Security,
			Hidden:     e.Hidden,
		},
	})
	if err != nil {
		e.State = prev
		return err
	}
	e.Transition(StateConnecting)
	return nil
}

// AddManual creates a transient entry no scan has confirmed and submits a
// connect against it. On success the next scan folds it into the normal
// set.
func (c *Controller) AddManual(ssid string, passphrase *string, security wifi.SecurityType, hidden bool) error {
	if err := c.checkAvailable(); err != nil {
		return err
	}
	if ssid == "" {
		return fmt.Errorf("add manual: %w", wifi.ErrNotFound)
	}
	if existing := c.reconciler.Get(ssid); existing != nil {
		return c.Connect(ssid, passphrase)
	}
	if security.RequiresPassphrase() && passphrase == nil {
		return ErrNeedsCredential
	}

	e := c.reconciler.Add(&Entry{
		SSID:     ssid,
		Security: security,
		Hidden:   hidden,
		State:    StateConnectRequested,
	})
	_, err := c.scheduler.Submit(Operation{
		Kind: KindAddManual,
		SSID: ssid,
		Request: wifi.ConnectRequest{
			SSID:       ssid,
			Passphrase: passphrase,
			Security:   security,
			Hidden:     hidden,
		},
	})
	if err != nil {
		c.reconciler.Remove(ssid)
		return err
	}
	e.Transition(StateConnecting)
	return nil
}

// Disconnect drops the current connection, if any.
func (c *Controller) Disconnect() error {
	if err := c.checkAvailable(); err != nil {
		return err
	}
	var target *Entry
	for _, e := range c.reconciler.View("") {
		if e.State == StateConnected {
			target = c.reconciler.Get(e.SSID)
			break
		}
	}
	if target == nil {
		return fmt.Errorf("disconnect: %w", wifi.ErrNotFound)
	}

	prev := target.State
	if err := target.Transition(StateDisconnectRequested); err != nil {
		return ErrConflict
	}
	_, err := c.scheduler.Submit(Operation{Kind: KindDisconnect, SSID: target.SSID})
	if err != nil {
		target.State = prev
		return err
	}
	target.Transition(StateDisconnecting)
	return nil
}

// Forget deletes the saved profile behind an entry. The entry itself stays
// visible (unsaved) while still in range.
func (c *Controller) Forget(ssid string) error {
	if err := c.checkAvailable(); err != nil {
		return err
	}
	e := c.reconciler.Get(ssid)
	if e == nil {
		return fmt.Errorf("forget %q: %w", ssid, wifi.ErrNotFound)
	}
	if !e.IsSaved {
		return ErrNotSaved
	}

	prev := e.State
	if err := e.Transition(StateForgetting); err != nil {
		return ErrConflict
	}
	_, err := c.scheduler.Submit(Operation{Kind: KindForget, SSID: ssid})
	if err != nil {
		e.State = prev
		return err
	}
	return nil
}

// ToggleAutoConnect flips the auto-connect flag of a saved entry.
func (c *Controller) ToggleAutoConnect(ssid string) error {
	if err := c.checkAvailable(); err != nil {
		return err
	}
	e := c.reconciler.Get(ssid)
	if e == nil {
		return fmt.Errorf("toggle autoconnect %q: %w", ssid, wifi.ErrNotFound)
	}
	if !e.IsSaved {
		return ErrNotSaved
	}

	_, err := c.scheduler.Submit(Operation{
		Kind:    KindSetAutoConnect,
		SSID:    ssid,
		Enabled: !e.AutoConnect,
	})
	return err
}

// Apply folds one completion into the view. It is the only mutation entry
// point for adapter outcomes and must run on the event loop goroutine.
func (c *Controller) Apply(comp Completion) {
	if comp.Err != nil {
		c.logger.Warn("operation failed", "op", comp.Kind, "ssid", comp.SSID, "error", comp.Err)
		if errors.Is(comp.Err, wifi.ErrAdapterUnavailable) {
			c.banner = comp.Err
		}
	} else if c.banner != nil {
		// Any successful operation proves the adapter is back.
		c.logger.Info("adapter recovered")
		c.banner = nil
	}

	switch comp.Kind {
	case KindScan:
		c.applyScan(comp)
	case KindConnect, KindAddManual:
		c.applyConnect(comp)
	case KindDisconnect:
		c.applyDisconnect(comp)
	case KindForget:
		c.applyForget(comp)
	case KindSetAutoConnect:
		c.applySetAutoConnect(comp)
	}
}

func (c *Controller) applyScan(comp Completion) {
	c.scanning = false
	if comp.Err != nil {
		return
	}
	c.reconciler.ApplyScan(comp.Networks)
	if comp.HasProfiles {
		c.reconciler.ApplyProfiles(comp.Profiles)
	}
	if comp.HasStatus {
		c.reconciler.ApplyStatus(comp.Status)
	}
	if c.recorder != nil {
		if err := c.recorder.Record(c.reconciler.View("")); err != nil {
			c.logger.Warn("journal record failed", "error", err)
		}
	}
}

func (c *Controller) applyConnect(comp Completion) {
	e := c.reconciler.Get(comp.SSID)
	if e == nil {
		return
	}
	if comp.Err != nil {
		if errors.Is(comp.Err, wifi.ErrNotFound) {
			// Target vanished between request and dispatch; not a failure.
			e.Transition(StateIdle)
			return
		}
		e.Fail(failReason(comp.Err))
		return
	}
	if comp.HasStatus {
		c.reconciler.ApplyStatus(comp.Status)
		// The adapter said success but the status fetch disagreed; trust
		// the status and let the next scan settle it.
		if e.State == StateConnecting {
			e.Transition(StateIdle)
		}
		return
	}
	e.Transition(StateConnected)
	c.reconciler.ApplyStatus(&wifi.ConnectedNetwork{SSID: comp.SSID, BSSID: e.BSSID})
}

func (c *Controller) applyDisconnect(comp Completion) {
	e := c.reconciler.Get(comp.SSID)
	if comp.Err != nil {
		if e == nil {
			return
		}
		if errors.Is(comp.Err, wifi.ErrNotFound) {
			e.Transition(StateIdle)
			return
		}
		e.Fail(failReason(comp.Err))
		return
	}
	if e != nil {
		e.Transition(StateIdle)
	}
	if comp.HasStatus {
		c.reconciler.ApplyStatus(comp.Status)
	}
}

func (c *Controller) applyForget(comp Completion) {
	e := c.reconciler.Get(comp.SSID)
	if e == nil {
		return
	}
	if comp.Err != nil && !errors.Is(comp.Err, wifi.ErrNotFound) {
		// Saved status is retained on failure.
		e.Fail(failReason(comp.Err))
		return
	}
	e.Transition(StateIdle)
	e.IsSaved = false
	e.AutoConnect = false
	if comp.HasProfiles {
		c.reconciler.ApplyProfiles(comp.Profiles)
	}
	if !e.InRange {
		// Nothing anchors the entry anymore.
		c.reconciler.Remove(comp.SSID)
	}
}

func (c *Controller) applySetAutoConnect(comp Completion) {
	if comp.Err != nil {
		if e := c.reconciler.Get(comp.SSID); e != nil && !errors.Is(comp.Err, wifi.ErrNotFound) {
			e.Fail(failReason(comp.Err))
		}
		return
	}
	if comp.HasProfiles {
		c.reconciler.ApplyProfiles(comp.Profiles)
	}
}

func failReason(err error) FailReason {
	switch {
	case errors.Is(err, wifi.ErrAuthFailure):
		return FailAuth
	case errors.Is(err, ErrTimeout):
		return FailTimeout
	default:
		return FailOther
	}
}
