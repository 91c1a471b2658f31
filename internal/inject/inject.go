// Package inject simulates keyboard input for the expansion executor:
// deleting the typed trigger, pasting the replacement, and repositioning
// the cursor. Everything is behind the Injector interface so the executor
// state machine is testable without touching the real input stack.
package inject

import "errors"

// ErrNotSupported is returned on platforms without an injection backend.
var ErrNotSupported = errors.New("synthetic input injection not supported on this platform")

// Injector simulates keyboard input in the focused application. Every
// method is best-effort: a failure aborts only the step it belongs to.
type Injector interface {
	// Backspace simulates n discrete backspace key presses.
	Backspace(n int) error

	// SelectBackward extends the selection left by n characters
	// (shift+left), preparing a single deletion.
	SelectBackward(n int) error

	// DeleteSelection deletes the current selection with one key press.
	DeleteSelection() error

	// PasteChord simulates the platform paste shortcut.
	PasteChord() error

	// CursorLeft moves the cursor left by n positions.
	CursorLeft(n int) error
}

// New returns the platform injector.
func New() Injector {
	return newPlatformInjector()
}
