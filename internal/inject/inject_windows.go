//go:build windows

package inject

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard   = 1
	keyEventfKeyUp  = 0x0002
	vkBack          = 0x08
	vkShift         = 0x10
	vkControl       = 0x11
	vkLeft          = 0x25
	vkV             = 0x56
	interKeyDelayMS = 2
)

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
	_         [8]byte // pad to the size of the INPUT union
}

type input struct {
	Type uint32
	_    uint32 // alignment
	Ki   keybdInput
}

func sendKeys(inputs []input) error {
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return err
	}
	return nil
}

func press(vk uint16) []input {
	return []input{
		{Type: inputKeyboard, Ki: keybdInput{Vk: vk}},
		{Type: inputKeyboard, Ki: keybdInput{Vk: vk, Flags: keyEventfKeyUp}},
	}
}

// chord wraps a key press in a held modifier.
func chord(mod, vk uint16) []input {
	seq := []input{{Type: inputKeyboard, Ki: keybdInput{Vk: mod}}}
	seq = append(seq, press(vk)...)
	seq = append(seq, input{Type: inputKeyboard, Ki: keybdInput{Vk: mod, Flags: keyEventfKeyUp}})
	return seq
}

type windowsInjector struct{}

func newPlatformInjector() Injector {
	return &windowsInjector{}
}

func (windowsInjector) Backspace(n int) error {
	for i := 0; i < n; i++ {
		if err := sendKeys(press(vkBack)); err != nil {
			return err
		}
		time.Sleep(interKeyDelayMS * time.Millisecond)
	}
	return nil
}

func (windowsInjector) SelectBackward(n int) error {
	for i := 0; i < n; i++ {
		if err := sendKeys(chord(vkShift, vkLeft)); err != nil {
			return err
		}
		time.Sleep(interKeyDelayMS * time.Millisecond)
	}
	return nil
}

func (windowsInjector) DeleteSelection() error {
	return sendKeys(press(vkBack))
}

func (windowsInjector) PasteChord() error {
	return sendKeys(chord(vkControl, vkV))
}

func (windowsInjector) CursorLeft(n int) error {
	for i := 0; i < n; i++ {
		if err := sendKeys(press(vkLeft)); err != nil {
			return err
		}
		time.Sleep(interKeyDelayMS * time.Millisecond)
	}
	return nil
}
