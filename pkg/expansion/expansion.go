// Package expansion is the embeddable text expansion engine: it watches
// global keyboard input for registered triggers and replaces them with
// their snippets in the focused application.
//
// The zero-configuration path wires the platform hook, injector, and
// clipboard automatically:
//
//	store := expansion.NewMemStore()
//	store.Add(expansion.Snippet{Trigger: "!sig", Content: "Best, Alex"})
//	svc, err := expansion.New(expansion.Options{Store: store})
//	if err != nil { ... }
//	defer svc.Close()
//	if err := svc.StartMonitoring(ctx); err != nil { ... }
//
// Every collaborator is replaceable through Options, which is how the
// engine runs headless in tests.
package expansion

import (
	"context"
	"log/slog"

	"expandd/internal/clipboard"
	"expandd/internal/config"
	"expandd/internal/expander"
	"expandd/internal/hook"
	"expandd/internal/inject"
	"expandd/internal/metrics"
	"expandd/internal/monitor"
	"expandd/internal/notify"
	"expandd/internal/shortcuts"
	"expandd/internal/snippets"
	"expandd/internal/watchdog"
)

// Re-exported collaborator types, so embedders only import this package.
type (
	// Store is the snippet collaborator the engine reads triggers from.
	Store = snippets.Store

	// Snippet is a registered trigger/content pair.
	Snippet = snippets.Snippet

	// Notifier receives fire-and-forget user notices.
	Notifier = notify.Notifier

	// UIRunner executes user-facing work (template prompts) on the
	// embedder's UI thread.
	UIRunner = expander.UIRunner
)

// NoCursor marks a snippet without a cursor placement.
const NoCursor = snippets.NoCursor

// NewMemStore creates the in-memory reference snippet store.
func NewMemStore() *snippets.MemStore {
	return snippets.NewMemStore()
}

// Options configures a Service. Zero-value fields get platform defaults.
type Options struct {
	// Config carries the engine tunables. Nil uses defaults.
	Config *config.Config

	// Store supplies the snippets. Nil creates an empty in-memory store.
	Store Store

	// Provider is the global input hook. Nil uses the platform hook.
	Provider hook.Provider

	// Injector simulates keyboard input. Nil uses the platform injector.
	Injector inject.Injector

	// Clipboard is the text clipboard. Nil uses the platform clipboard.
	Clipboard clipboard.Accessor

	// Notifier receives user notices. Nil uses the platform notifier.
	Notifier Notifier

	// UIRunner runs template resolution. Nil runs it inline.
	UIRunner UIRunner

	// Registry arbitrates trigger ownership across subsystems. Nil
	// creates a private registry.
	Registry *shortcuts.Registry

	// Logger is the structured logger. Nil uses slog.Default.
	Logger *slog.Logger

	// Metrics is the engine metric set. Nil uses the global set.
	Metrics *metrics.EngineMetrics
}

// Service owns the capture pipeline and its supervisor.
type Service struct {
	cfg      *config.Config
	store    Store
	exec     *expander.Executor
	monitor  *monitor.Monitor
	watchdog *watchdog.Watchdog
	logger   *slog.Logger
}

// New assembles a stopped engine from opts.
func New(opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := opts.Store
	if store == nil {
		store = snippets.NewMemStore()
	}
	// Inline config snippets feed the store when it accepts them.
	if mem, ok := store.(*snippets.MemStore); ok {
		for _, s := range cfg.Snippets {
			mem.Add(snippets.Snippet{
				Trigger:      s.Trigger,
				Content:      s.Content,
				CursorMarker: snippets.NoCursor,
			})
		}
	}

	provider := opts.Provider
	if provider == nil {
		provider = hook.New()
	}
	injector := opts.Injector
	if injector == nil {
		injector = inject.New()
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.New()
	}
	notifier := opts.Notifier
	if notifier == nil {
		if cfg.Notifications.Enabled {
			notifier = notify.NewPlatform(logger)
		} else {
			notifier = notify.NewLogNotifier(logger)
		}
	}
	em := opts.Metrics
	if em == nil {
		em = metrics.GetMetrics()
	}

	execCfg := expander.Config{
		SelectionThreshold: cfg.Engine.SelectionThreshold,
		PerCharDelay:       cfg.Engine.PerCharDelay(),
		MinPerCharDelay:    cfg.Engine.MinPerCharDelay(),
		MaxTotalDelay:      cfg.Engine.MaxTotalDelay(),
		LoadFactor:         cfg.Engine.LoadFactor,
		SettleDelay:        cfg.Engine.SettleDelay(),
	}
	exec := expander.New(execCfg, store, injector, clip, logger, opts.UIRunner)

	monCfg := monitor.DefaultConfig()
	monCfg.DebounceDelay = cfg.Engine.Debounce()
	monCfg.BufferCapacity = cfg.Engine.BufferCapacity
	mon := monitor.New(monCfg, provider, store, exec, opts.Registry, notifier, logger, em)

	var dog *watchdog.Watchdog
	if cfg.Watchdog.Enabled {
		dogCfg := watchdog.Config{
			Interval:     cfg.Watchdog.Interval(),
			MaxFailures:  cfg.Watchdog.MaxFailures,
			RestartDelay: cfg.Watchdog.RestartDelay(),
		}
		dog = watchdog.New(dogCfg, mon, notifier, logger, em)
	}

	return &Service{
		cfg:      cfg,
		store:    store,
		exec:     exec,
		monitor:  mon,
		watchdog: dog,
		logger:   logger.With("component", "expansion"),
	}, nil
}

// ApplyConfig applies the hot-reloadable tunables from cfg to the running
// engine. Settings that require recycling the hook (buffer capacity,
// logging, metrics, inline snippets) are ignored here and take effect on
// the next daemon start.
func (s *Service) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.exec.SetConfig(expander.Config{
		SelectionThreshold: cfg.Engine.SelectionThreshold,
		PerCharDelay:       cfg.Engine.PerCharDelay(),
		MinPerCharDelay:    cfg.Engine.MinPerCharDelay(),
		MaxTotalDelay:      cfg.Engine.MaxTotalDelay(),
		LoadFactor:         cfg.Engine.LoadFactor,
		SettleDelay:        cfg.Engine.SettleDelay(),
	})
	s.monitor.SetDebounce(cfg.Engine.Debounce())
	if s.watchdog != nil {
		s.watchdog.SetConfig(watchdog.Config{
			Interval:     cfg.Watchdog.Interval(),
			MaxFailures:  cfg.Watchdog.MaxFailures,
			RestartDelay: cfg.Watchdog.RestartDelay(),
		})
	}

	s.cfg = cfg
	s.logger.Info("applied updated tunables",
		"debounce", cfg.Engine.Debounce(),
		"per_char_delay", cfg.Engine.PerCharDelay())
	return nil
}

// StartMonitoring installs the hook, arms the store's triggers, and starts
// the watchdog.
func (s *Service) StartMonitoring(ctx context.Context) error {
	if err := s.monitor.Start(ctx); err != nil {
		return err
	}
	if s.watchdog != nil {
		s.watchdog.Start(ctx)
	}
	return nil
}

// StopMonitoring tears down the hook and the watchdog. Idempotent.
func (s *Service) StopMonitoring() error {
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	return s.monitor.Stop()
}

// RegisterTrigger arms an additional trigger at runtime.
func (s *Service) RegisterTrigger(trigger string) error {
	return s.monitor.RegisterTrigger(trigger)
}

// UnregisterTrigger disarms a trigger.
func (s *Service) UnregisterTrigger(trigger string) {
	s.monitor.UnregisterTrigger(trigger)
}

// Triggers returns the currently armed triggers.
func (s *Service) Triggers() []string {
	return s.monitor.Triggers()
}

// Healthy reports whether monitoring is on and the hook is live.
func (s *Service) Healthy() bool {
	return s.monitor.Healthy()
}

// WatchdogGaveUp reports whether the supervisor exhausted its recovery
// attempts and is waiting for manual intervention.
func (s *Service) WatchdogGaveUp() bool {
	return s.watchdog != nil && s.watchdog.GaveUp()
}

// ResetWatchdog re-arms a parked supervisor.
func (s *Service) ResetWatchdog() {
	if s.watchdog != nil {
		s.watchdog.Reset()
	}
}

// Close stops everything. The service cannot be restarted after Close.
func (s *Service) Close() error {
	return s.StopMonitoring()
}
