//go:build darwin

package clipboard

import (
	"os/exec"
	"strings"
)

// darwinAccessor shells out to pbpaste/pbcopy. The executor is already off
// the real-time path when it touches the clipboard, so process spawn cost
// is acceptable and avoids linking AppKit.
type darwinAccessor struct{}

func newPlatformAccessor() Accessor {
	return &darwinAccessor{}
}

func (darwinAccessor) GetText() (string, error) {
	out, err := exec.Command("pbpaste").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (darwinAccessor) SetText(text string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
