//go:build linux

package inject

import (
	"fmt"
	"os/exec"
)

// linuxInjector drives xdotool (X11) or wtype (Wayland). Both tools are
// spawned per step; the executor is off the real-time path by the time it
// injects input.
type linuxInjector struct {
	wayland bool
}

func newPlatformInjector() Injector {
	_, werr := exec.LookPath("wtype")
	return &linuxInjector{wayland: werr == nil}
}

func (l *linuxInjector) key(repeat int, spec string, waylandArgs ...string) error {
	if repeat <= 0 {
		return nil
	}
	var cmd *exec.Cmd
	if l.wayland {
		args := waylandArgs
		for i := 1; i < repeat; i++ {
			args = append(args, waylandArgs...)
		}
		cmd = exec.Command("wtype", args...)
	} else {
		cmd = exec.Command("xdotool", "key", "--repeat", fmt.Sprint(repeat), spec)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("inject %s: %w", spec, err)
	}
	return nil
}

func (l *linuxInjector) Backspace(n int) error {
	return l.key(n, "BackSpace", "-k", "BackSpace")
}

func (l *linuxInjector) SelectBackward(n int) error {
	return l.key(n, "shift+Left", "-M", "shift", "-k", "Left", "-m", "shift")
}

func (l *linuxInjector) DeleteSelection() error {
	return l.key(1, "BackSpace", "-k", "BackSpace")
}

func (l *linuxInjector) PasteChord() error {
	return l.key(1, "ctrl+v", "-M", "ctrl", "-k", "v", "-m", "ctrl")
}

func (l *linuxInjector) CursorLeft(n int) error {
	return l.key(n, "Left", "-k", "Left")
}
