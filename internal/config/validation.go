// Package config handles configuration loading and validation for expandd.
package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateWatchdog(&c.Watchdog)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)
	errs = append(errs, validateSnippets(c.Snippets)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	if e.DebounceMs < 1 || e.DebounceMs > 5000 {
		errs = append(errs, ValidationError{
			Field:   "engine.debounce_ms",
			Message: fmt.Sprintf("must be between 1 and 5000, got %d", e.DebounceMs),
		})
	}
	if e.BufferCapacity < 1 || e.BufferCapacity > 4096 {
		errs = append(errs, ValidationError{
			Field:   "engine.buffer_capacity",
			Message: fmt.Sprintf("must be between 1 and 4096, got %d", e.BufferCapacity),
		})
	}
	if e.SelectionThreshold < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.selection_threshold",
			Message: "must not be negative",
		})
	}
	if e.PerCharDelayMs < 0 || e.MinPerCharDelayMs < 0 || e.SettleDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine",
			Message: "delays must not be negative",
		})
	}
	if e.MaxTotalDelayMs < e.PerCharDelayMs {
		errs = append(errs, ValidationError{
			Field:   "engine.max_total_delay_ms",
			Message: "must be at least per_char_delay_ms",
		})
	}
	if e.LoadFactor <= 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.load_factor",
			Message: "must be positive",
		})
	}

	return errs
}

func validateWatchdog(w *WatchdogConfig) ValidationErrors {
	var errs ValidationErrors

	if !w.Enabled {
		return nil
	}
	if w.IntervalSec < 1 {
		errs = append(errs, ValidationError{
			Field:   "watchdog.interval_sec",
			Message: "must be at least 1",
		})
	}
	if w.MaxFailures < 1 {
		errs = append(errs, ValidationError{
			Field:   "watchdog.max_failures",
			Message: "must be at least 1",
		})
	}
	if w.RestartDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watchdog.restart_delay_ms",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be debug, info, warn, or error, got %q", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be text or json, got %q", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "required when output is file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("must be stdout, stderr, or file, got %q", l.Output),
		})
	}

	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging",
			Message: "rotation limits must not be negative",
		})
	}

	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	var errs ValidationErrors

	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Field:   "metrics.listen_addr",
			Message: fmt.Sprintf("invalid host:port %q", m.ListenAddr),
		})
	}

	return errs
}

func validateSnippets(entries []SnippetEntry) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool, len(entries))
	for i, s := range entries {
		if s.Trigger == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("snippets[%d].trigger", i),
				Message: "must not be empty",
			})
			continue
		}
		if s.Content == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("snippets[%d].content", i),
				Message: "must not be empty",
			})
		}
		if seen[s.Trigger] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("snippets[%d].trigger", i),
				Message: fmt.Sprintf("duplicate trigger %q", s.Trigger),
			})
		}
		seen[s.Trigger] = true
	}

	return errs
}
