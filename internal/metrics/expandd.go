// Package metrics provides Prometheus-compatible metrics for expandd.
package metrics

import (
	"time"
)

// EngineMetrics holds all expansion-engine metrics.
type EngineMetrics struct {
	registry *Registry

	// Counters
	KeystrokesTotal        *Counter
	FallbackDecodesTotal   *Counter
	DroppedKeystrokesTotal *Counter
	MatchesTotal           *Counter
	ExpansionsTotal        *Counter
	ExpansionFailuresTotal *Counter
	RecoveriesTotal        *Counter
	HookRestartsTotal      *Counter

	// Gauges
	MonitorRunning     *Gauge
	RegisteredTriggers *Gauge
	UptimeSeconds      *Gauge
}

// startTime records when metrics were initialized.
var startTime = time.Now()

// NewEngineMetrics creates and registers all engine metrics.
func NewEngineMetrics(registry *Registry) *EngineMetrics {
	if registry == nil {
		registry = Default()
	}

	m := &EngineMetrics{
		registry: registry,

		// Counters
		KeystrokesTotal: registry.RegisterCounter(
			"keystrokes_total",
			"Total number of key-down events observed",
			nil,
		),
		FallbackDecodesTotal: registry.RegisterCounter(
			"fallback_decodes_total",
			"Total number of events sent to the locale fallback decoder",
			nil,
		),
		DroppedKeystrokesTotal: registry.RegisterCounter(
			"dropped_keystrokes_total",
			"Total number of decoded characters dropped by the buffer queue",
			nil,
		),
		MatchesTotal: registry.RegisterCounter(
			"matches_total",
			"Total number of trigger matches",
			nil,
		),
		ExpansionsTotal: registry.RegisterCounter(
			"expansions_total",
			"Total number of completed expansions",
			nil,
		),
		ExpansionFailuresTotal: registry.RegisterCounter(
			"expansion_failures_total",
			"Total number of expansions that aborted",
			nil,
		),
		RecoveriesTotal: registry.RegisterCounter(
			"recoveries_total",
			"Total number of hook re-enable recoveries",
			nil,
		),
		HookRestartsTotal: registry.RegisterCounter(
			"hook_restarts_total",
			"Total number of full hook restarts",
			nil,
		),

		// Gauges
		MonitorRunning: registry.RegisterGauge(
			"monitor_running",
			"Whether the capture pipeline is running (1) or stopped (0)",
			nil,
		),
		RegisteredTriggers: registry.RegisterGauge(
			"registered_triggers",
			"Number of triggers currently registered with the matcher",
			nil,
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Number of seconds the engine has been running",
			nil,
		),
	}

	return m
}

// RecordKeystroke records an observed key-down event.
func (m *EngineMetrics) RecordKeystroke() {
	m.KeystrokesTotal.Inc()
}

// RecordFallbackDecode records an event handed to the fallback decoder.
func (m *EngineMetrics) RecordFallbackDecode() {
	m.FallbackDecodesTotal.Inc()
}

// RecordMatch records a trigger match.
func (m *EngineMetrics) RecordMatch() {
	m.MatchesTotal.Inc()
}

// RecordExpansion records an expansion attempt.
func (m *EngineMetrics) RecordExpansion(success bool) {
	if success {
		m.ExpansionsTotal.Inc()
	} else {
		m.ExpansionFailuresTotal.Inc()
	}
}

// RecordRecovery records a hook re-enable recovery.
func (m *EngineMetrics) RecordRecovery() {
	m.RecoveriesTotal.Inc()
}

// RecordHookRestart records a full hook restart.
func (m *EngineMetrics) RecordHookRestart() {
	m.HookRestartsTotal.Inc()
}

// SetRunning records whether the capture pipeline is active.
func (m *EngineMetrics) SetRunning(running bool) {
	if running {
		m.MonitorRunning.Set(1)
	} else {
		m.MonitorRunning.Set(0)
	}
}

// SetRegisteredTriggers records the current trigger count.
func (m *EngineMetrics) SetRegisteredTriggers(n int) {
	m.RegisteredTriggers.Set(int64(n))
}

// SetDroppedKeystrokes updates the buffer drop counter from its source.
func (m *EngineMetrics) SetDroppedKeystrokes(n uint64) {
	if v := m.DroppedKeystrokesTotal.Value(); n > v {
		m.DroppedKeystrokesTotal.Add(n - v)
	}
}

// UpdateUptime updates the uptime metric.
func (m *EngineMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(startTime).Seconds()))
}

// Snapshot returns a snapshot of key metrics.
func (m *EngineMetrics) Snapshot() map[string]interface{} {
	m.UpdateUptime()
	return map[string]interface{}{
		"keystrokes_total":         m.KeystrokesTotal.Value(),
		"fallback_decodes_total":   m.FallbackDecodesTotal.Value(),
		"dropped_keystrokes_total": m.DroppedKeystrokesTotal.Value(),
		"matches_total":            m.MatchesTotal.Value(),
		"expansions_total":         m.ExpansionsTotal.Value(),
		"expansion_failures_total": m.ExpansionFailuresTotal.Value(),
		"recoveries_total":         m.RecoveriesTotal.Value(),
		"hook_restarts_total":      m.HookRestartsTotal.Value(),
		"monitor_running":          m.MonitorRunning.Value(),
		"registered_triggers":      m.RegisteredTriggers.Value(),
		"uptime_seconds":           m.UptimeSeconds.Value(),
	}
}

// Global engine metrics instance.
var defaultEngineMetrics *EngineMetrics

// GetMetrics returns the global engine metrics instance.
func GetMetrics() *EngineMetrics {
	if defaultEngineMetrics == nil {
		defaultEngineMetrics = NewEngineMetrics(Default())
	}
	return defaultEngineMetrics
}

// InitMetrics initializes the global engine metrics with a custom registry.
func InitMetrics(registry *Registry) *EngineMetrics {
	defaultEngineMetrics = NewEngineMetrics(registry)
	return defaultEngineMetrics
}
