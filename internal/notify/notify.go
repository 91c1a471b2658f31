// Package notify delivers fire-and-forget user notifications. Failures in
// the expansion engine are surfaced here and in the structured log; nothing
// ever waits on a notification being seen.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier raises a user-facing notice. Implementations must not block the
// caller and must never return an error path into the engine.
type Notifier interface {
	Notify(title, body string)
}

// Func adapts a function to the Notifier interface.
type Func func(title, body string)

// Notify calls the underlying function.
func (f Func) Notify(title, body string) { f(title, body) }

// LogNotifier writes notices to the structured log. It is the fallback on
// platforms without a desktop notification service.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// Notify logs the notice at warn level.
func (n *LogNotifier) Notify(title, body string) {
	n.logger.Warn("user notice", "title", title, "body", body)
}

// Deduper wraps a Notifier so each failure class notifies the user once
// until the condition clears. Keys identify the failure class.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]bool
	next Notifier
}

// NewDeduper wraps next with once-per-key delivery.
func NewDeduper(next Notifier) *Deduper {
	return &Deduper{seen: make(map[string]bool), next: next}
}

// NotifyOnce delivers the notice unless key has already fired since the
// last Clear.
func (d *Deduper) NotifyOnce(key, title, body string) {
	d.mu.Lock()
	fired := d.seen[key]
	d.seen[key] = true
	d.mu.Unlock()
	if fired {
		return
	}
	d.next.Notify(title, body)
}

// Notify always delivers, satisfying the Notifier interface.
func (d *Deduper) Notify(title, body string) {
	d.next.Notify(title, body)
}

// Clear re-arms key so the next NotifyOnce for it delivers again.
func (d *Deduper) Clear(key string) {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}

// Recorder captures notices for tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notice is a recorded notification.
type Notice struct {
	Title string
	Body  string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the notice.
func (r *Recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Title: title, Body: body})
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice{}, r.notices...)
}
