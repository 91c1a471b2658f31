package expansion

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expandd/internal/clipboard"
	"expandd/internal/config"
	"expandd/internal/hook"
	"expandd/internal/inject"
	"expandd/internal/keycode"
	"expandd/internal/metrics"
	"expandd/internal/notify"
)

// keystrokes maps typeable characters to their virtual key codes.
var keystrokes = map[rune]struct {
	code  uint16
	shift bool
}{
	'a': {0x00, false}, 's': {0x01, false}, 'g': {0x05, false},
	'h': {0x04, false}, 'e': {0x0E, false}, 'l': {0x25, false},
	'o': {0x1F, false}, 'i': {0x22, false}, 'x': {0x07, false},
	' ': {0x31, false},
	'!': {0x12, true},
}

func typeString(t *testing.T, sim *hook.Sim, text string) {
	t.Helper()
	for _, r := range text {
		ks, ok := keystrokes[r]
		require.True(t, ok, "no keystroke for %q", r)
		var mods keycode.Modifiers
		if ks.shift {
			mods = keycode.ModShift
		}
		sim.Inject(hook.KeyEvent{Keycode: ks.code, Modifiers: mods, Kind: hook.KeyDown})
	}
}

type fixture struct {
	svc  *Service
	sim  *hook.Sim
	rec  *inject.Recorder
	clip *clipboard.Mem
	not  *notify.Recorder
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Engine.DebounceMs = 1
	cfg.Engine.PerCharDelayMs = 0
	cfg.Engine.MinPerCharDelayMs = 0
	cfg.Engine.MaxTotalDelayMs = 0
	cfg.Engine.SettleDelayMs = 0
	cfg.Watchdog.Enabled = false
	return cfg
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	f := &fixture{
		sim:  hook.NewSim(),
		rec:  inject.NewRecorder(),
		clip: clipboard.NewMem(),
		not:  notify.NewRecorder(),
	}
	svc, err := New(Options{
		Config:    cfg,
		Provider:  f.sim,
		Injector:  f.rec,
		Clipboard: f.clip,
		Notifier:  f.not,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:   metrics.NewEngineMetrics(metrics.NewRegistry("expandd_test", "")),
	})
	require.NoError(t, err)
	f.svc = svc
	t.Cleanup(func() { svc.Close() })
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConfigSnippetsArmTriggers(t *testing.T) {
	cfg := testConfig()
	cfg.Snippets = []config.SnippetEntry{
		{Trigger: "!sig", Content: "Best, Alex"},
		{Trigger: "!addr", Content: "12 Main St"},
	}

	f := newFixture(t, cfg)
	require.NoError(t, f.svc.StartMonitoring(context.Background()))

	assert.ElementsMatch(t, []string{"!sig", "!addr"}, f.svc.Triggers())
}

func TestExpandsTypedTrigger(t *testing.T) {
	cfg := testConfig()
	cfg.Snippets = []config.SnippetEntry{{Trigger: "!sig", Content: "Best, Alex"}}

	f := newFixture(t, cfg)
	require.NoError(t, f.svc.StartMonitoring(context.Background()))

	f.clip.SetText("previous")
	typeString(t, f.sim, "hello !sig")

	waitFor(t, func() bool {
		for _, op := range f.rec.Ops() {
			if op == "paste" {
				return true
			}
		}
		return false
	})

	calls := f.rec.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, inject.Call{Op: "backspace", N: 4}, calls[0])

	// The clipboard is put back after the paste settles.
	waitFor(t, func() bool {
		text, _ := f.clip.GetText()
		return text == "previous"
	})
}

func TestRuntimeTriggerRegistration(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.svc.StartMonitoring(context.Background()))

	require.NoError(t, f.svc.RegisterTrigger("!x"))
	assert.Contains(t, f.svc.Triggers(), "!x")

	f.svc.UnregisterTrigger("!x")
	assert.NotContains(t, f.svc.Triggers(), "!x")
}

func TestStoreChangeAfterStartArmsTrigger(t *testing.T) {
	store := NewMemStore()
	store.Add(Snippet{Trigger: "!sig", Content: "Best, Alex", CursorMarker: NoCursor})

	svc, err := New(Options{
		Config:    testConfig(),
		Store:     store,
		Provider:  hook.NewSim(),
		Injector:  inject.NewRecorder(),
		Clipboard: clipboard.NewMem(),
		Notifier:  notify.NewRecorder(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:   metrics.NewEngineMetrics(metrics.NewRegistry("expandd_test", "")),
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	require.NoError(t, svc.StartMonitoring(context.Background()))

	store.Add(Snippet{Trigger: "!new", Content: "added later", CursorMarker: NoCursor})
	assert.Contains(t, svc.Triggers(), "!new", "snippets added while running are armed")

	store.Remove("!sig")
	assert.ElementsMatch(t, []string{"!new"}, svc.Triggers())
}

func TestHealthyLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.svc.Healthy())

	require.NoError(t, f.svc.StartMonitoring(context.Background()))
	assert.True(t, f.svc.Healthy())

	f.sim.SetEnabled(false)
	assert.False(t, f.svc.Healthy())

	require.NoError(t, f.svc.StopMonitoring())
	require.NoError(t, f.svc.StopMonitoring())
	assert.False(t, f.svc.Healthy())
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.DebounceMs = 0

	_, err := New(Options{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce_ms")
}

func TestApplyConfig(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.svc.StartMonitoring(context.Background()))

	next := testConfig()
	next.Engine.DebounceMs = 50
	require.NoError(t, f.svc.ApplyConfig(next))

	bad := testConfig()
	bad.Engine.LoadFactor = -1
	require.Error(t, f.svc.ApplyConfig(bad))
}

func TestWatchdogDisabled(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.svc.StartMonitoring(context.Background()))

	assert.False(t, f.svc.WatchdogGaveUp())
	f.svc.ResetWatchdog()
}
