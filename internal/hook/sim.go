package hook

import (
	"context"
	"sync"
)

// Sim is a Provider test double. Tests inject events through Inject and
// drive failure modes through the exported knobs.
type Sim struct {
	mu      sync.Mutex
	running bool
	enabled bool
	cb      Callback

	// Permitted gates Available(); defaults to true via NewSim.
	Permitted bool

	// StartErr, when non-nil, is returned by the next Start call.
	StartErr error

	// ReenableErr, when non-nil, makes Reenable fail.
	ReenableErr error

	starts int
	stops  int
}

// NewSim creates a simulated provider with permission granted.
func NewSim() *Sim {
	return &Sim{Permitted: true}
}

// Start installs the simulated hook.
func (s *Sim) Start(ctx context.Context, cb Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	if s.StartErr != nil {
		err := s.StartErr
		s.StartErr = nil
		return err
	}
	s.running = true
	s.enabled = true
	s.cb = cb
	s.starts++
	return nil
}

// Stop removes the simulated hook.
func (s *Sim) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	s.enabled = false
	s.cb = nil
	s.stops++
	return nil
}

// Enabled reports the simulated OS hook state.
func (s *Sim) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.enabled
}

// Reenable recovers a hook previously disabled with SetEnabled(false).
func (s *Sim) Reenable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	if s.ReenableErr != nil {
		return s.ReenableErr
	}
	s.enabled = true
	return nil
}

// Available reports the simulated permission state.
func (s *Sim) Available() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Permitted {
		return false, "accessibility permission not granted"
	}
	return true, ""
}

// Inject delivers an event to the registered callback, as the OS would.
func (s *Sim) Inject(ev KeyEvent) {
	s.mu.Lock()
	cb := s.cb
	running := s.running
	s.mu.Unlock()
	if running && cb != nil {
		cb(ev)
	}
}

// SetEnabled simulates the OS silently disabling (or re-enabling) the
// hook while it remains installed.
func (s *Sim) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Running reports whether the simulated hook is installed.
func (s *Sim) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Starts returns how many successful Start calls occurred.
func (s *Sim) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Stops returns how many effective Stop calls occurred.
func (s *Sim) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}
