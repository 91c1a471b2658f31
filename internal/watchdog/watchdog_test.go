package watchdog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expandd/internal/metrics"
	"expandd/internal/notify"
)

type fakeTarget struct {
	mu      sync.Mutex
	running bool
	enabled bool

	reenableErr error
	restartErr  error

	// restartEnables makes a successful Restart bring the hook back.
	restartEnables bool

	reenables int
	restarts  int
}

func (f *fakeTarget) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeTarget) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeTarget) Reenable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reenables++
	if f.reenableErr != nil {
		return f.reenableErr
	}
	f.enabled = true
	return nil
}

func (f *fakeTarget) Restart() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	if f.restartErr != nil {
		return f.restartErr
	}
	if f.restartEnables {
		f.enabled = true
	}
	return nil
}

func (f *fakeTarget) setEnabled(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = v
}

func newTestWatchdog(target *fakeTarget) (*Watchdog, *notify.Recorder) {
	rec := notify.NewRecorder()
	em := metrics.NewEngineMetrics(metrics.NewRegistry("test", ""))
	w := New(DefaultConfig(), target, rec, slog.New(slog.NewTextHandler(io.Discard, nil)), em)
	w.sleep = func(time.Duration) {}
	return w, rec
}

func TestDefaultConfigPollsOncePerMinute(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 3, cfg.MaxFailures)
}

func TestHealthyCheckIsQuiet(t *testing.T) {
	target := &fakeTarget{running: true, enabled: true}
	w, rec := newTestWatchdog(target)

	w.check()
	assert.Zero(t, target.reenables)
	assert.Zero(t, target.restarts)
	assert.Empty(t, rec.Notices())
}

func TestStoppedMonitorIsNotSupervised(t *testing.T) {
	target := &fakeTarget{running: false, enabled: false}
	w, _ := newTestWatchdog(target)

	w.check()
	assert.Zero(t, target.reenables, "a stopped monitor never triggers recovery")
}

func TestReenableRecovery(t *testing.T) {
	target := &fakeTarget{running: true, enabled: false}
	w, rec := newTestWatchdog(target)

	w.check()

	assert.Equal(t, 1, target.reenables)
	assert.Zero(t, target.restarts)
	assert.True(t, target.Enabled())
	assert.Zero(t, w.Failures())
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, "Text expansion recovered", rec.Notices()[0].Title)
}

func TestRestartRecoveryResetsFailures(t *testing.T) {
	target := &fakeTarget{
		running:        true,
		enabled:        false,
		reenableErr:    errors.New("tap refused"),
		restartEnables: true,
	}
	w, _ := newTestWatchdog(target)

	w.check()
	assert.Equal(t, 1, target.restarts)
	assert.Equal(t, 1, w.Failures())

	// Next cycle observes the restarted, enabled hook.
	w.check()
	assert.Zero(t, w.Failures())
	assert.False(t, w.GaveUp())
}

func TestBoundedRecoveryGivesUp(t *testing.T) {
	target := &fakeTarget{
		running:     true,
		enabled:     false,
		reenableErr: errors.New("tap refused"),
		restartErr:  errors.New("start failed"),
	}
	w, rec := newTestWatchdog(target)

	for i := 0; i < 10; i++ {
		w.check()
	}

	assert.True(t, w.GaveUp())
	assert.Equal(t, DefaultConfig().MaxFailures, w.Failures())
	// Two restart attempts before the third failure parks the watchdog.
	assert.Equal(t, 2, target.restarts)
	assert.Equal(t, 3, target.reenables, "parked watchdog stops probing")

	var stopped int
	for _, n := range rec.Notices() {
		if n.Title == "Text expansion stopped" {
			stopped++
		}
	}
	assert.Equal(t, 1, stopped, "give-up notice fires once")
}

func TestResetReArmsParkedWatchdog(t *testing.T) {
	target := &fakeTarget{
		running:     true,
		enabled:     false,
		reenableErr: errors.New("tap refused"),
		restartErr:  errors.New("start failed"),
	}
	w, _ := newTestWatchdog(target)

	for i := 0; i < 5; i++ {
		w.check()
	}
	require.True(t, w.GaveUp())

	w.Reset()
	assert.False(t, w.GaveUp())
	assert.Zero(t, w.Failures())

	target.setEnabled(true)
	w.check()
	assert.Zero(t, w.Failures())
}

func TestStartStop(t *testing.T) {
	target := &fakeTarget{running: true, enabled: true}
	w, _ := newTestWatchdog(target)
	w.cfg.Interval = time.Millisecond

	w.Start(context.Background())
	w.Start(context.Background()) // second start is a no-op
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	w.Stop()
}
