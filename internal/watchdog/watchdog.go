// Package watchdog supervises the capture hook. Operating systems disable
// event hooks behind the application's back (a slow callback, a security
// prompt, fast user switching), so the watchdog polls the hook state and
// walks a bounded recovery ladder: re-enable in place, then a full restart,
// then give up and ask the user for a manual restart.
package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"expandd/internal/metrics"
	"expandd/internal/notify"
)

const failureKey = "hook_failure"

// Target is the supervised capture pipeline. Implemented by
// monitor.Monitor.
type Target interface {
	// Running reports whether monitoring is intended to be on.
	Running() bool

	// Enabled reports the OS-level hook state.
	Enabled() bool

	// Reenable asks the hook to re-enable itself in place.
	Reenable() error

	// Restart fully recycles the hook.
	Restart() error
}

// Config carries the watchdog tunables.
type Config struct {
	// Interval is the health check period.
	Interval time.Duration

	// MaxFailures is how many consecutive failed recovery cycles are
	// attempted before the watchdog parks itself.
	MaxFailures int

	// RestartDelay is the pause between stopping and restarting the hook
	// during a full restart cycle.
	RestartDelay time.Duration
}

// DefaultConfig returns the tunables used in production.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Minute,
		MaxFailures:  3,
		RestartDelay: time.Second,
	}
}

// Watchdog polls a Target and recovers a disabled hook.
type Watchdog struct {
	cfg      Config
	target   Target
	notifier *notify.Deduper
	logger   *slog.Logger
	em       *metrics.EngineMetrics

	mu       sync.Mutex
	failures int
	gaveUp   bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	sleep func(time.Duration)
}

// New creates a stopped watchdog.
func New(cfg Config, target Target, notifier notify.Notifier, logger *slog.Logger, em *metrics.EngineMetrics) *Watchdog {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultConfig().MaxFailures
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if em == nil {
		em = metrics.GetMetrics()
	}
	return &Watchdog{
		cfg:      cfg,
		target:   target,
		notifier: notify.NewDeduper(notifier),
		logger:   logger.With("component", "watchdog"),
		em:       em,
		sleep:    time.Sleep,
	}
}

// Start begins periodic health checks until ctx is cancelled or Stop is
// called.
func (w *Watchdog) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.check()
			}
		}
	}()
}

// SetConfig replaces the recovery tunables. MaxFailures and RestartDelay
// take effect on the next check; a changed Interval applies the next time
// the watchdog is started.
func (w *Watchdog) SetConfig(cfg Config) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultConfig().MaxFailures
	}
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
}

// Stop halts the health checks.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
}

// GaveUp reports whether the watchdog has exhausted its recovery attempts.
func (w *Watchdog) GaveUp() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gaveUp
}

// Failures returns the consecutive failed recovery cycles.
func (w *Watchdog) Failures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures
}

// Reset re-arms a parked watchdog after the user has intervened.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	w.failures = 0
	w.gaveUp = false
	w.mu.Unlock()
	w.notifier.Clear(failureKey)
	w.logger.Info("watchdog reset")
}

// check runs one health cycle.
func (w *Watchdog) check() {
	w.mu.Lock()
	if w.gaveUp {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	if !w.target.Running() {
		// Nothing to supervise while monitoring is off.
		return
	}

	if w.target.Enabled() {
		w.mu.Lock()
		hadFailures := w.failures > 0
		w.failures = 0
		w.mu.Unlock()
		if hadFailures {
			w.notifier.Clear(failureKey)
		}
		return
	}

	w.logger.Warn("hook disabled by the system, attempting recovery")

	if err := w.target.Reenable(); err == nil {
		w.mu.Lock()
		w.failures = 0
		w.mu.Unlock()
		w.em.RecordRecovery()
		w.notifier.Clear(failureKey)
		w.notifier.Notify("Text expansion recovered", "keyboard monitoring was re-enabled")
		w.logger.Info("hook re-enabled in place")
		return
	}

	w.mu.Lock()
	w.failures++
	failures := w.failures
	restartDelay := w.cfg.RestartDelay
	if failures >= w.cfg.MaxFailures {
		w.gaveUp = true
		w.mu.Unlock()
		w.logger.Error("recovery attempts exhausted, giving up", "failures", failures)
		w.notifier.NotifyOnce(failureKey,
			"Text expansion stopped",
			"keyboard monitoring could not be recovered, restart it manually")
		return
	}
	w.mu.Unlock()

	w.logger.Warn("re-enable failed, restarting hook", "attempt", failures)
	w.sleep(restartDelay)
	if err := w.target.Restart(); err != nil {
		w.logger.Error("hook restart failed", "attempt", failures, "error", err)
		return
	}
	// A successful restart is confirmed by the next check observing an
	// enabled hook, which resets the failure count.
}
