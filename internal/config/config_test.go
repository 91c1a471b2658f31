package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if got := cfg.Watchdog.Interval(); got != time.Minute {
		t.Errorf("default watchdog interval = %v, want %v", got, time.Minute)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.DebounceMs != DefaultConfig().Engine.DebounceMs {
		t.Errorf("expected default debounce, got %d", cfg.Engine.DebounceMs)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
version = 1

[engine]
debounce_ms = 45
load_factor = 1.5

[[snippets]]
trigger = "!sig"
content = "Best, Alex"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.DebounceMs != 45 {
		t.Errorf("debounce_ms = %d, want 45", cfg.Engine.DebounceMs)
	}
	if cfg.Engine.LoadFactor != 1.5 {
		t.Errorf("load_factor = %f, want 1.5", cfg.Engine.LoadFactor)
	}
	// Unset fields keep their defaults.
	if cfg.Engine.BufferCapacity != 64 {
		t.Errorf("buffer_capacity = %d, want default 64", cfg.Engine.BufferCapacity)
	}
	if len(cfg.Snippets) != 1 || cfg.Snippets[0].Trigger != "!sig" {
		t.Errorf("snippets = %+v", cfg.Snippets)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
version: 1
engine:
  debounce_ms: 60
watchdog:
  enabled: true
  interval_sec: 10
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.DebounceMs != 60 {
		t.Errorf("debounce_ms = %d, want 60", cfg.Engine.DebounceMs)
	}
	if cfg.Watchdog.IntervalSec != 10 {
		t.Errorf("interval_sec = %d, want 10", cfg.Watchdog.IntervalSec)
	}
}

func TestValidationCatchesBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.DebounceMs = 0
	cfg.Engine.LoadFactor = -1
	cfg.Logging.Level = "loud"
	cfg.Snippets = []SnippetEntry{
		{Trigger: "!a", Content: "x"},
		{Trigger: "!a", Content: "y"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(errs) != 4 {
		t.Errorf("got %d errors, want 4: %v", len(errs), errs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXPANDD_LOG_LEVEL", "debug")
	t.Setenv("EXPANDD_METRICS_ADDR", "127.0.0.1:9999")

	cfg := LoadFromEnv()
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestDataDirOverride(t *testing.T) {
	t.Setenv("EXPANDD_DATA_DIR", "/tmp/expandd-test")
	if got := ExpanddDir(); got != "/tmp/expandd-test" {
		t.Errorf("ExpanddDir() = %q", got)
	}
}

func TestLoadOrCreateWritesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("expected a new file to be created")
	}
	if cfg.Version != Version {
		t.Errorf("version = %d, want %d", cfg.Version, Version)
	}

	// Second call loads the existing file.
	_, created, err = LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second call must not recreate the file")
	}
}

func TestMergeSafeKeepsRestartOnlySettings(t *testing.T) {
	cur := DefaultConfig()
	cur.Engine.BufferCapacity = 128
	cur.Logging.Level = "debug"
	cur.Snippets = []SnippetEntry{{Trigger: "!a", Content: "x"}}

	next := DefaultConfig()
	next.Engine.DebounceMs = 99
	next.Engine.BufferCapacity = 512
	next.Logging.Level = "error"
	next.Watchdog.IntervalSec = 42

	merged := mergeSafe(cur, next)

	if merged.Engine.DebounceMs != 99 {
		t.Errorf("debounce not reloaded: %d", merged.Engine.DebounceMs)
	}
	if merged.Watchdog.IntervalSec != 42 {
		t.Errorf("watchdog interval not reloaded: %d", merged.Watchdog.IntervalSec)
	}
	if merged.Engine.BufferCapacity != 128 {
		t.Errorf("buffer capacity must not hot-reload: %d", merged.Engine.BufferCapacity)
	}
	if merged.Logging.Level != "debug" {
		t.Errorf("logging must not hot-reload: %q", merged.Logging.Level)
	}
	if len(merged.Snippets) != 1 {
		t.Errorf("snippets must not hot-reload: %+v", merged.Snippets)
	}
}

func TestHotReloadAppliesSafeTunables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("version = 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	defer loader.Close()

	changed := make(chan *Config, 1)
	loader.OnChange(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	if err := loader.Watch(); err != nil {
		t.Fatal(err)
	}

	update := `
version = 1

[engine]
debounce_ms = 77
`
	if err := os.WriteFile(path, []byte(update), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changed:
		if cfg.Engine.DebounceMs != 77 {
			t.Errorf("debounce_ms = %d, want 77", cfg.Engine.DebounceMs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestDurationHelpers(t *testing.T) {
	e := EngineConfig{DebounceMs: 30, SettleDelayMs: 50}
	if e.Debounce() != 30*time.Millisecond {
		t.Errorf("Debounce() = %v", e.Debounce())
	}
	if e.SettleDelay() != 50*time.Millisecond {
		t.Errorf("SettleDelay() = %v", e.SettleDelay())
	}
	w := WatchdogConfig{IntervalSec: 5, RestartDelayMs: 1000}
	if w.Interval() != 5*time.Second || w.RestartDelay() != time.Second {
		t.Errorf("watchdog durations wrong: %v %v", w.Interval(), w.RestartDelay())
	}
}
