//go:build (!darwin && !linux && !windows) || (darwin && !cgo)

package inject

type stubInjector struct{}

func newPlatformInjector() Injector {
	return stubInjector{}
}

func (stubInjector) Backspace(int) error      { return ErrNotSupported }
func (stubInjector) SelectBackward(int) error { return ErrNotSupported }
func (stubInjector) DeleteSelection() error   { return ErrNotSupported }
func (stubInjector) PasteChord() error        { return ErrNotSupported }
func (stubInjector) CursorLeft(int) error     { return ErrNotSupported }
