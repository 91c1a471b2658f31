//go:build (!darwin && !windows) || (darwin && !cgo)

package hook

import "context"

// stubProvider is used where no global hook facility is wired in.
type stubProvider struct{}

func newPlatformProvider() Provider {
	return stubProvider{}
}

func (stubProvider) Start(context.Context, Callback) error { return ErrNotAvailable }
func (stubProvider) Stop() error                           { return nil }
func (stubProvider) Enabled() bool                         { return false }
func (stubProvider) Reenable() error                       { return ErrNotRunning }
func (stubProvider) Available() (bool, string) {
	return false, "global input hook not implemented for this platform"
}
