// Package monitor runs the capture pipeline: key events flow from the hook
// through the decoder into the rolling buffer, and a debounced match check
// hands completed triggers to the expansion executor.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"expandd/internal/buffer"
	"expandd/internal/hook"
	"expandd/internal/keycode"
	"expandd/internal/metrics"
	"expandd/internal/notify"
	"expandd/internal/shortcuts"
	"expandd/internal/snippets"
	"expandd/internal/trie"
)

// Owner is the name under which the monitor claims triggers in the
// shortcut registry.
const Owner = "expansion"

// State is the monitor lifecycle state.
type State int

const (
	// Stopped means no hook is installed and no events are processed.
	Stopped State = iota
	// Running means the hook is installed and triggers are armed.
	Running
)

// Expander executes one expansion. Implemented by expander.Executor.
type Expander interface {
	Expand(trigger string, reset func()) bool
}

// Decoder translates a key event into a character. Overridable in tests.
type Decoder func(code uint16, mods keycode.Modifiers) (rune, keycode.Result)

// FallbackDecoder handles events the static table cannot resolve
// (layout-dependent option/AltGr input). It may be nil.
type FallbackDecoder func(ev hook.KeyEvent) (rune, bool)

// ChangeSubscriber is implemented by stores that announce snippet changes.
// A subscribing monitor re-arms its trigger set on every announcement.
type ChangeSubscriber interface {
	OnChange(func())
}

// Config carries the monitor tunables.
type Config struct {
	// DebounceDelay is how long after the last keystroke the match check
	// fires. Earlier pending checks are superseded.
	DebounceDelay time.Duration

	// BufferCapacity bounds the rolling character window.
	BufferCapacity int

	// Decoder defaults to keycode.Decode.
	Decoder Decoder

	// Fallback handles NeedsLocale events. Nil drops them.
	Fallback FallbackDecoder
}

// DefaultConfig returns the tunables used in production.
func DefaultConfig() Config {
	return Config{
		DebounceDelay:  30 * time.Millisecond,
		BufferCapacity: buffer.DefaultCapacity,
	}
}

// Monitor owns the capture pipeline state.
type Monitor struct {
	cfg      Config
	provider hook.Provider
	store    snippets.Store
	exec     Expander
	registry *shortcuts.Registry
	notifier notify.Notifier
	logger   *slog.Logger
	em       *metrics.EngineMetrics

	matcher *trie.Matcher
	buf     *buffer.Buffer

	mu    sync.Mutex
	state State
	ctx   context.Context

	// storeTrigs is the trigger set the store provided, tracked so store
	// changes only re-arm store triggers and never touch runtime
	// registrations. Guarded by mu.
	storeTrigs map[string]struct{}

	// running is the fast gate read by the capture callback; state and mu
	// are only touched on the start/stop path.
	running atomic.Bool

	// gen implements latest-keystroke-wins debouncing: each keystroke
	// bumps it, and a pending check whose generation is stale no-ops.
	gen atomic.Uint64

	// debounce holds the delay in nanoseconds, read on the hot path and
	// replaceable at runtime.
	debounce atomic.Int64

	afterFunc func(time.Duration, func()) *time.Timer
}

// New creates a stopped monitor.
func New(cfg Config, provider hook.Provider, store snippets.Store, exec Expander, registry *shortcuts.Registry, notifier notify.Notifier, logger *slog.Logger, em *metrics.EngineMetrics) *Monitor {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig().DebounceDelay
	}
	if cfg.Decoder == nil {
		cfg.Decoder = keycode.Decode
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if registry == nil {
		registry = shortcuts.New(logger)
	}
	if em == nil {
		em = metrics.GetMetrics()
	}
	m := &Monitor{
		cfg:       cfg,
		provider:  provider,
		store:     store,
		exec:      exec,
		registry:  registry,
		notifier:  notifier,
		logger:    logger.With("component", "monitor"),
		em:        em,
		matcher:   trie.New(),
		buf:       buffer.New(cfg.BufferCapacity),
		afterFunc: time.AfterFunc,
	}
	m.debounce.Store(int64(cfg.DebounceDelay))
	if sub, ok := store.(ChangeSubscriber); ok {
		sub.OnChange(m.syncStoreTriggers)
	}
	return m
}

// SetDebounce changes the debounce window at runtime. Non-positive values
// are ignored.
func (m *Monitor) SetDebounce(d time.Duration) {
	if d <= 0 {
		return
	}
	m.debounce.Store(int64(d))
}

// Start probes permissions, installs the hook, and arms every trigger from
// the store. Starting a running monitor logs a warning and returns nil.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Running {
		m.logger.Warn("start requested while already running")
		return nil
	}

	if ok, reason := m.provider.Available(); !ok {
		m.logger.Error("capture unavailable", "reason", reason)
		m.notifier.Notify("Text expansion disabled", reason)
		return fmt.Errorf("capture unavailable: %s: %w", reason, hook.ErrPermissionDenied)
	}

	if err := m.provider.Start(ctx, m.handleKey); err != nil {
		m.logger.Error("hook start failed", "error", err)
		m.notifier.Notify("Text expansion disabled", "could not install the keyboard hook")
		return fmt.Errorf("starting hook: %w", err)
	}

	armed := 0
	m.storeTrigs = make(map[string]struct{})
	for _, trigger := range m.store.AllTriggers() {
		m.storeTrigs[trigger] = struct{}{}
		if !m.registry.Register(trigger, Owner) {
			owner, _ := m.registry.Owner(trigger)
			m.logger.Warn("trigger held by another consumer, skipping", "trigger", trigger, "owner", owner)
			continue
		}
		if err := m.matcher.Register(trigger); err != nil {
			m.registry.Release(trigger, Owner)
			m.logger.Warn("rejected trigger", "trigger", trigger, "error", err)
			continue
		}
		armed++
	}

	m.ctx = ctx
	m.state = Running
	m.running.Store(true)
	m.em.SetRunning(true)
	m.em.SetRegisteredTriggers(m.matcher.Len())
	m.logger.Info("monitoring started", "triggers", armed)
	return nil
}

// Stop tears down the hook and disarms every trigger. Stopping a stopped
// monitor is a no-op.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Stopped {
		return nil
	}

	m.running.Store(false)
	m.gen.Add(1) // invalidate any pending debounce check

	if err := m.provider.Stop(); err != nil {
		m.logger.Error("hook stop failed", "error", err)
	}

	m.matcher.Clear()
	m.registry.Unregister(Owner)
	m.buf.Clear()
	m.storeTrigs = nil

	m.state = Stopped
	m.em.SetRunning(false)
	m.em.SetRegisteredTriggers(0)
	m.logger.Info("monitoring stopped")
	return nil
}

// syncStoreTriggers re-arms the trigger set after the store announces a
// change: triggers the store gained are registered, triggers it lost are
// disarmed. Runtime registrations from other callers are left alone.
func (m *Monitor) syncStoreTriggers() {
	m.mu.Lock()
	if m.state != Running {
		m.mu.Unlock()
		return
	}
	next := make(map[string]struct{})
	var added []string
	for _, t := range m.store.AllTriggers() {
		next[t] = struct{}{}
		if _, ok := m.storeTrigs[t]; !ok {
			added = append(added, t)
		}
	}
	var removed []string
	for t := range m.storeTrigs {
		if _, ok := next[t]; !ok {
			removed = append(removed, t)
		}
	}
	m.storeTrigs = next
	m.mu.Unlock()

	for _, t := range removed {
		m.UnregisterTrigger(t)
	}
	for _, t := range added {
		if err := m.RegisterTrigger(t); err != nil {
			m.logger.Warn("could not arm new store trigger", "trigger", t, "error", err)
		}
	}
	if len(added) > 0 || len(removed) > 0 {
		m.logger.Info("store triggers re-armed", "added", len(added), "removed", len(removed))
	}
}

// RegisterTrigger arms a trigger at runtime, on top of whatever the store
// provided at start.
func (m *Monitor) RegisterTrigger(trigger string) error {
	if !m.registry.Register(trigger, Owner) {
		owner, _ := m.registry.Owner(trigger)
		return fmt.Errorf("trigger %q already held by %q", trigger, owner)
	}
	if err := m.matcher.Register(trigger); err != nil {
		m.registry.Release(trigger, Owner)
		return err
	}
	m.em.SetRegisteredTriggers(m.matcher.Len())
	return nil
}

// UnregisterTrigger disarms a single trigger.
func (m *Monitor) UnregisterTrigger(trigger string) {
	m.matcher.Unregister(trigger)
	m.registry.Release(trigger, Owner)
	m.em.SetRegisteredTriggers(m.matcher.Len())
}

// Triggers returns the currently armed triggers.
func (m *Monitor) Triggers() []string {
	return m.matcher.Triggers()
}

// CurrentState returns the lifecycle state.
func (m *Monitor) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Healthy reports whether monitoring is on and the hook is live at the OS
// level.
func (m *Monitor) Healthy() bool {
	return m.running.Load() && m.provider.Enabled()
}

// Running reports whether monitoring is intended to be on. The hook itself
// may still be disabled; see Enabled.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// Enabled reports the OS-level hook state.
func (m *Monitor) Enabled() bool {
	return m.provider.Enabled()
}

// Reenable asks the hook to re-enable itself in place.
func (m *Monitor) Reenable() error {
	return m.provider.Reenable()
}

// Restart fully recycles the hook: stop, then start with the original
// context.
func (m *Monitor) Restart() error {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.Stop(); err != nil {
		return err
	}
	m.em.RecordHookRestart()
	return m.Start(ctx)
}

// handleKey is the capture callback. It runs on the hook's event thread
// and must return quickly: decode, queue, bump the debounce, nothing else.
func (m *Monitor) handleKey(ev hook.KeyEvent) {
	if !m.running.Load() {
		return
	}
	if ev.Kind != hook.KeyDown {
		return
	}
	m.em.RecordKeystroke()

	r, res := m.cfg.Decoder(ev.Keycode, ev.Modifiers)
	switch res {
	case keycode.Mapped:
	case keycode.NeedsLocale:
		m.em.RecordFallbackDecode()
		if m.cfg.Fallback == nil {
			return
		}
		var ok bool
		r, ok = m.cfg.Fallback(ev)
		if !ok {
			return
		}
	default:
		return
	}

	m.buf.Append(r)

	g := m.gen.Add(1)
	m.afterFunc(time.Duration(m.debounce.Load()), func() {
		if m.gen.Load() != g {
			return // superseded by a later keystroke
		}
		m.matchCheck()
	})
}

// matchCheck snapshots the buffer and dispatches an expansion when the
// tail matches an armed trigger.
func (m *Monitor) matchCheck() {
	if !m.running.Load() {
		return
	}

	snap := m.buf.Snapshot()
	trigger, ok := m.matcher.FindMatch(snap)
	if !ok {
		return
	}
	m.em.RecordMatch()
	m.logger.Debug("trigger matched", "trigger", trigger)

	// Expansion injects synthetic input and sleeps; it never runs on the
	// debounce timer goroutine.
	go func() {
		ok := m.exec.Expand(trigger, m.buf.Clear)
		m.em.RecordExpansion(ok)
		m.em.SetDroppedKeystrokes(m.buf.Dropped())
	}()
}
