//go:build !darwin && !linux && !windows

package clipboard

type stubAccessor struct{}

func newPlatformAccessor() Accessor {
	return stubAccessor{}
}

func (stubAccessor) GetText() (string, error) { return "", ErrUnavailable }

func (stubAccessor) SetText(string) error { return ErrUnavailable }
