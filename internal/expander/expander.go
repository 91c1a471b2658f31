// Package expander executes a single text expansion: it resolves the
// snippet, deletes the typed trigger from the focused application, pastes
// the replacement, and optionally repositions the cursor. Each step is
// best-effort; a failed expansion leaves the engine running.
package expander

import (
	"log/slog"
	"sync"
	"time"

	"expandd/internal/clipboard"
	"expandd/internal/inject"
	"expandd/internal/snippets"
)

// UIRunner executes fn on whatever thread user-facing work must run on.
// Template resolution may prompt the user, so it goes through here instead
// of running on the capture path.
type UIRunner func(fn func())

// Config carries the executor tunables.
type Config struct {
	// SelectionThreshold is the trigger length above which the trigger is
	// removed with a single select+delete instead of per-character
	// backspaces.
	SelectionThreshold int

	// PerCharDelay is the nominal per-character wait after deleting the
	// trigger, before the paste. Slow applications need the gap to finish
	// processing the synthetic deletions.
	PerCharDelay time.Duration

	// MinPerCharDelay bounds the wait from below per character.
	MinPerCharDelay time.Duration

	// MaxTotalDelay caps the wait regardless of trigger length.
	MaxTotalDelay time.Duration

	// LoadFactor scales PerCharDelay for sluggish systems.
	LoadFactor float64

	// SettleDelay is the wait after the paste chord before touching the
	// clipboard or the cursor again.
	SettleDelay time.Duration
}

// DefaultConfig returns the tunables used in production.
func DefaultConfig() Config {
	return Config{
		SelectionThreshold: 8,
		PerCharDelay:       12 * time.Millisecond,
		MinPerCharDelay:    4 * time.Millisecond,
		MaxTotalDelay:      300 * time.Millisecond,
		LoadFactor:         1.0,
		SettleDelay:        50 * time.Millisecond,
	}
}

// Executor runs expansions against the focused application.
type Executor struct {
	mu     sync.RWMutex
	cfg    Config
	store  snippets.Store
	inj    inject.Injector
	clip   clipboard.Accessor
	logger *slog.Logger

	uiRun UIRunner
	sleep func(time.Duration)
}

// New creates an executor. A nil uiRun runs resolution inline.
func New(cfg Config, store snippets.Store, inj inject.Injector, clip clipboard.Accessor, logger *slog.Logger, uiRun UIRunner) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if uiRun == nil {
		uiRun = func(fn func()) { fn() }
	}
	return &Executor{
		cfg:    cfg,
		store:  store,
		inj:    inj,
		clip:   clip,
		logger: logger.With("component", "expander"),
		uiRun:  uiRun,
		sleep:  time.Sleep,
	}
}

// SetConfig replaces the tunables. Safe to call while expansions run;
// in-flight expansions keep the tunables they started with.
func (e *Executor) SetConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

func (e *Executor) config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Expand replaces the just-typed trigger with its snippet. reset is called
// exactly once on every path, success or failure, so the buffer never
// carries a consumed trigger into the next match.
func (e *Executor) Expand(trigger string, reset func()) bool {
	if reset != nil {
		defer reset()
	}

	snip, ok := e.store.Lookup(trigger)
	if !ok {
		e.logger.Warn("trigger matched but snippet missing from store", "trigger", trigger)
		return false
	}

	text, cursor, err := e.resolve(snip)
	if err != nil {
		e.logger.Error("template resolution failed", "trigger", trigger, "error", err)
		return false
	}

	n := len([]rune(trigger))
	if err := e.deleteTrigger(n); err != nil {
		e.logger.Error("failed to delete trigger text", "trigger", trigger, "error", err)
		return false
	}
	e.sleep(e.deletionDelay(n))

	if err := e.pasteText(text); err != nil {
		e.logger.Error("failed to paste replacement", "trigger", trigger, "error", err)
		return false
	}

	if cursor > 0 {
		if err := e.inj.CursorLeft(cursor); err != nil {
			// The text is already in place; a failed reposition is only
			// worth a log line.
			e.logger.Warn("cursor reposition failed", "trigger", trigger, "offset", cursor, "error", err)
		}
	}

	e.logger.Debug("expansion complete", "trigger", trigger, "chars", len([]rune(text)))
	return true
}

// resolve runs template resolution through the UI runner.
func (e *Executor) resolve(snip snippets.Snippet) (string, int, error) {
	var (
		text   string
		cursor int
		err    error
	)
	done := make(chan struct{})
	e.uiRun(func() {
		defer close(done)
		text, cursor, err = e.store.ResolveTemplate(snip.Content)
	})
	<-done
	if err != nil {
		return "", snippets.NoCursor, err
	}
	if cursor == snippets.NoCursor && snip.CursorMarker != snippets.NoCursor {
		cursor = snip.CursorMarker
	}
	return text, cursor, nil
}

// deleteTrigger removes the n typed trigger characters. Long triggers use
// a single select+delete; short ones, or a failed selection, fall back to
// discrete backspaces.
func (e *Executor) deleteTrigger(n int) error {
	if n <= 0 {
		return nil
	}
	if n > e.config().SelectionThreshold {
		if err := e.inj.SelectBackward(n); err == nil {
			return e.inj.DeleteSelection()
		}
		e.logger.Debug("selection delete unavailable, falling back to backspace", "chars", n)
	}
	return e.inj.Backspace(n)
}

// deletionDelay computes the wait between deleting the trigger and pasting:
// n characters at the scaled per-character rate, clamped to
// [n*MinPerCharDelay, MaxTotalDelay].
func (e *Executor) deletionDelay(n int) time.Duration {
	cfg := e.config()
	d := time.Duration(float64(n) * float64(cfg.PerCharDelay) * cfg.LoadFactor)
	if min := time.Duration(n) * cfg.MinPerCharDelay; d < min {
		d = min
	}
	if d > cfg.MaxTotalDelay {
		d = cfg.MaxTotalDelay
	}
	return d
}

// pasteText puts text on the clipboard, fires the paste chord, and restores
// the previous clipboard content once the paste has settled.
func (e *Executor) pasteText(text string) error {
	saved, savedOK := "", false
	if prev, err := e.clip.GetText(); err == nil {
		saved, savedOK = prev, true
	}

	if err := e.clip.SetText(text); err != nil {
		return err
	}
	if err := e.inj.PasteChord(); err != nil {
		return err
	}
	e.sleep(e.config().SettleDelay)

	if savedOK {
		if err := e.clip.SetText(saved); err != nil {
			e.logger.Warn("failed to restore clipboard", "error", err)
		}
	}
	return nil
}
