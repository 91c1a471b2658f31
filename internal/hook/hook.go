// Package hook abstracts the OS global input hook behind a small Provider
// interface so the capture pipeline and watchdog are testable without OS
// privileges.
//
// Platform support:
//   - macOS: CGEventTap (requires Accessibility permission)
//   - Windows: SetWindowsHookEx low-level keyboard hook
//   - elsewhere: stub that reports unavailability
//
// Providers are strictly listen-only: the callback observes key-down
// events and the original event always continues to the focused
// application untouched.
package hook

import (
	"context"
	"errors"

	"expandd/internal/keycode"
)

// EventKind classifies a key event.
type EventKind int

const (
	// KeyDown is a key press. The capture pipeline only acts on these.
	KeyDown EventKind = iota
	// Other covers everything else (key-up, modifier changes).
	Other
)

// KeyEvent is the ephemeral event handed to the capture callback. It is
// produced by the OS hook, consumed immediately, and never stored.
type KeyEvent struct {
	Keycode   uint16
	Modifiers keycode.Modifiers
	Kind      EventKind
}

// Callback receives key events on the hook's dispatch goroutine. It must
// return quickly: a slow callback can cause the OS to disable the hook.
type Callback func(KeyEvent)

// Provider is the OS input-hook facility.
type Provider interface {
	// Start installs the hook and begins delivering events to cb. On
	// failure every partially acquired resource is released before
	// returning, so repeated failed starts do not leak.
	Start(ctx context.Context, cb Callback) error

	// Stop removes the hook. Stopping a stopped provider is a no-op.
	Stop() error

	// Enabled reports whether the OS still considers the hook active.
	// The OS may silently disable a hook under load.
	Enabled() bool

	// Reenable attempts the cheap in-place recovery of a hook the OS
	// disabled, without tearing it down.
	Reenable() error

	// Available reports whether the process is authorized to install a
	// global input hook, with a human-readable reason when it is not.
	Available() (bool, string)
}

// Sentinel errors shared by all providers.
var (
	// ErrPermissionDenied means the process lacks the input-monitoring
	// capability. Only the user can fix this.
	ErrPermissionDenied = errors.New("input monitoring permission denied")

	// ErrAlreadyRunning is returned by Start on a running provider.
	ErrAlreadyRunning = errors.New("hook already running")

	// ErrNotRunning is returned by Reenable when there is no hook.
	ErrNotRunning = errors.New("hook not running")

	// ErrNotAvailable means no hook facility exists on this platform.
	ErrNotAvailable = errors.New("global input hook not available on this platform")

	// ErrCreateFailed means the OS refused to create the hook even
	// though the capability appears granted.
	ErrCreateFailed = errors.New("failed to create input hook")
)

// New returns the platform hook provider.
func New() Provider {
	return newPlatformProvider()
}
