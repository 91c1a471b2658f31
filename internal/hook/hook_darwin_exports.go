//go:build darwin && cgo

package hook

import "C"

//export goHookKeyEvent
func goHookKeyEvent(keycode C.ushort, flags C.ulonglong, keyDown C.int) {
	activeMu.Lock()
	p := activeDarwin
	activeMu.Unlock()
	if p == nil {
		return
	}
	p.deliver(uint16(keycode), uint64(flags), keyDown != 0)
}
