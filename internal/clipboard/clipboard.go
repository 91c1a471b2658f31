// Package clipboard provides text clipboard access for the expansion
// executor. The paste-based insertion strategy writes the resolved snippet
// here before simulating the paste chord.
package clipboard

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned when no clipboard transport exists on the
// current platform.
var ErrUnavailable = errors.New("clipboard unavailable on this platform")

// Accessor reads and writes the system clipboard as text.
type Accessor interface {
	// GetText returns the current text content, or empty when the
	// clipboard holds no text.
	GetText() (string, error)

	// SetText replaces the clipboard content.
	SetText(text string) error
}

// New returns the platform clipboard accessor.
func New() Accessor {
	return newPlatformAccessor()
}

// Mem is an in-memory Accessor used in tests.
type Mem struct {
	mu   sync.Mutex
	text string

	// SetErr, when non-nil, is returned by SetText.
	SetErr error
}

// NewMem creates an empty in-memory clipboard.
func NewMem() *Mem {
	return &Mem{}
}

// GetText returns the stored text.
func (m *Mem) GetText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// SetText stores text, or fails with SetErr when configured.
func (m *Mem) SetText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.text = text
	return nil
}
