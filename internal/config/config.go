// Package config handles configuration loading, validation, and management for expandd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete engine configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Engine configuration for the capture and expansion pipeline.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Watchdog configuration for hook supervision.
	Watchdog WatchdogConfig `toml:"watchdog" json:"watchdog" yaml:"watchdog"`

	// Notifications configuration for user-facing notices.
	Notifications NotificationConfig `toml:"notifications" json:"notifications" yaml:"notifications"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Metrics configuration for the scrape endpoint.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`

	// Snippets declared inline in the configuration file. Embedders with
	// their own snippet storage leave this empty.
	Snippets []SnippetEntry `toml:"snippets" json:"snippets" yaml:"snippets"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// EngineConfig holds the capture and expansion tunables.
type EngineConfig struct {
	// DebounceMs is how long after the last keystroke the trigger check
	// fires, in milliseconds.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`

	// BufferCapacity bounds the rolling character window. Changing it
	// requires a restart.
	BufferCapacity int `toml:"buffer_capacity" json:"buffer_capacity" yaml:"buffer_capacity"`

	// SelectionThreshold is the trigger length above which deletion uses
	// a single select+delete instead of per-character backspaces.
	SelectionThreshold int `toml:"selection_threshold" json:"selection_threshold" yaml:"selection_threshold"`

	// PerCharDelayMs is the nominal per-character wait between deleting
	// the trigger and pasting.
	PerCharDelayMs int `toml:"per_char_delay_ms" json:"per_char_delay_ms" yaml:"per_char_delay_ms"`

	// MinPerCharDelayMs bounds the wait from below per character.
	MinPerCharDelayMs int `toml:"min_per_char_delay_ms" json:"min_per_char_delay_ms" yaml:"min_per_char_delay_ms"`

	// MaxTotalDelayMs caps the wait regardless of trigger length.
	MaxTotalDelayMs int `toml:"max_total_delay_ms" json:"max_total_delay_ms" yaml:"max_total_delay_ms"`

	// LoadFactor scales the per-character delay for sluggish systems.
	LoadFactor float64 `toml:"load_factor" json:"load_factor" yaml:"load_factor"`

	// SettleDelayMs is the wait after the paste chord before touching the
	// clipboard or cursor again.
	SettleDelayMs int `toml:"settle_delay_ms" json:"settle_delay_ms" yaml:"settle_delay_ms"`
}

// WatchdogConfig holds hook supervision configuration.
type WatchdogConfig struct {
	// Enabled determines whether the watchdog runs at all.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// IntervalSec is the health check period in seconds.
	IntervalSec int `toml:"interval_sec" json:"interval_sec" yaml:"interval_sec"`

	// MaxFailures is how many consecutive failed recovery cycles are
	// attempted before the watchdog gives up.
	MaxFailures int `toml:"max_failures" json:"max_failures" yaml:"max_failures"`

	// RestartDelayMs is the pause between stopping and restarting the
	// hook during a recovery cycle.
	RestartDelayMs int `toml:"restart_delay_ms" json:"restart_delay_ms" yaml:"restart_delay_ms"`
}

// NotificationConfig holds user notification configuration.
type NotificationConfig struct {
	// Enabled determines whether desktop notifications are delivered.
	// Failures always go to the log regardless.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	// Enabled determines whether the scrape endpoint is served.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// ListenAddr is the address for the scrape endpoint.
	ListenAddr string `toml:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
}

// SnippetEntry is a trigger/content pair declared in the config file.
type SnippetEntry struct {
	// Trigger is the short token that activates the snippet.
	Trigger string `toml:"trigger" json:"trigger" yaml:"trigger"`

	// Content is the replacement template.
	Content string `toml:"content" json:"content" yaml:"content"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := ExpanddDir()

	return &Config{
		Version: Version,
		Engine: EngineConfig{
			DebounceMs:         30,
			BufferCapacity:     64,
			SelectionThreshold: 8,
			PerCharDelayMs:     12,
			MinPerCharDelayMs:  4,
			MaxTotalDelayMs:    300,
			LoadFactor:         1.0,
			SettleDelayMs:      50,
		},
		Watchdog: WatchdogConfig{
			Enabled:        true,
			IntervalSec:    60,
			MaxFailures:    3,
			RestartDelayMs: 1000,
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(dir, "expandd.log"),
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9187",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ExpanddDir(), "config.toml")
}

// ExpanddDir returns the base expandd directory. Uses platform-specific
// paths or the EXPANDD_DATA_DIR environment override.
func ExpanddDir() string {
	if envDir := os.Getenv("EXPANDD_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// Load reads configuration from the specified path. If the file doesn't
// exist, returns default configuration. Supports TOML, JSON, and YAML
// formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates all directories the engine writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		ExpanddDir(),
	}
	if c.Logging.Output == "file" && c.Logging.FilePath != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables are prefixed with EXPANDD_.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("EXPANDD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EXPANDD_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
		c.Logging.Output = "file"
	}
	if v := os.Getenv("EXPANDD_METRICS_ADDR"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := *c
	clone.Snippets = append([]SnippetEntry{}, c.Snippets...)
	return &clone
}

// SaveConfig writes the configuration to path in TOML format.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Duration helpers for wiring the engine.

// Debounce returns the debounce window as a duration.
func (e EngineConfig) Debounce() time.Duration {
	return time.Duration(e.DebounceMs) * time.Millisecond
}

// PerCharDelay returns the per-character delay as a duration.
func (e EngineConfig) PerCharDelay() time.Duration {
	return time.Duration(e.PerCharDelayMs) * time.Millisecond
}

// MinPerCharDelay returns the per-character delay floor as a duration.
func (e EngineConfig) MinPerCharDelay() time.Duration {
	return time.Duration(e.MinPerCharDelayMs) * time.Millisecond
}

// MaxTotalDelay returns the total delay cap as a duration.
func (e EngineConfig) MaxTotalDelay() time.Duration {
	return time.Duration(e.MaxTotalDelayMs) * time.Millisecond
}

// SettleDelay returns the post-paste settle wait as a duration.
func (e EngineConfig) SettleDelay() time.Duration {
	return time.Duration(e.SettleDelayMs) * time.Millisecond
}

// Interval returns the watchdog check period as a duration.
func (w WatchdogConfig) Interval() time.Duration {
	return time.Duration(w.IntervalSec) * time.Second
}

// RestartDelay returns the recovery restart pause as a duration.
func (w WatchdogConfig) RestartDelay() time.Duration {
	return time.Duration(w.RestartDelayMs) * time.Millisecond
}
