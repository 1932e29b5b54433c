// Package log wires log/slog into the TUI: records are kept in a small ring
// and mirrored onto the bubbletea message channel so the log view updates
// live.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ringSize bounds how many records the in-memory log view can show.
const ringSize = 50

// LogMsg is the tea.Msg carrying one log record into the UI.
type LogMsg slog.Record

// state is shared between a TUIHandler and its WithAttrs/WithGroup clones,
// so every derived logger feeds the same ring and channel.
type state struct {
	mu   sync.Mutex
	ch   chan<- tea.Msg
	ring []slog.Record
}

// TUIHandler is a slog.Handler that keeps a ring of recent records and
// forwards each one to a tea program, in addition to whatever the wrapped
// handler does (typically a file sink, or a discard handler).
type TUIHandler struct {
	inner slog.Handler
	state *state
}

// NewTUIHandler wraps an existing handler.
func NewTUIHandler(inner slog.Handler) *TUIHandler {
	return &TUIHandler{inner: inner, state: &state{}}
}

func (h *TUIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *TUIHandler) Handle(ctx context.Context, r slog.Record) error {
	s := h.state
	s.mu.Lock()
	if len(s.ring) >= ringSize {
		s.ring = s.ring[1:]
	}
	s.ring = append(s.ring, r)
	ch := s.ch
	s.mu.Unlock()

	if ch != nil {
		ch <- LogMsg(r)
	}
	return h.inner.Handle(ctx, r)
}

func (h *TUIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUIHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

func (h *TUIHandler) WithGroup(name string) slog.Handler {
	return &TUIHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// SetOutput points the handler at a tea message channel. Pass nil to detach
// when the program exits.
func (h *TUIHandler) SetOutput(ch chan<- tea.Msg) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.ch = ch
}

// Records returns a copy of the retained records.
func (h *TUIHandler) Records() []slog.Record {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	out := make([]slog.Record, len(h.state.ring))
	copy(out, h.state.ring)
	return out
}

var defaultHandler *TUIHandler

// Init installs the TUI handler as the slog default. sink receives the
// formatted text output; use io.Discard unless a debug file is wanted.
func Init(sink io.Writer, level slog.Level) {
	defaultHandler = NewTUIHandler(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(slog.New(defaultHandler))
}

// SetOutput routes the default logger's records to a tea channel.
func SetOutput(ch chan<- tea.Msg) {
	if defaultHandler != nil {
		defaultHandler.SetOutput(ch)
	}
}

// Records returns the default logger's retained records.
func Records() []slog.Record {
	if defaultHandler == nil {
		return nil
	}
	return defaultHandler.Records()
}
