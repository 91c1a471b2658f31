//go:build windows

package hook

import (
	"context"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"expandd/internal/keycode"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")

	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104
	wmQuit       = 0x0012

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C
)

type kbdllHookStruct struct {
	VkCode    uint32
	ScanCode  uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// windowsProvider installs a WH_KEYBOARD_LL hook. The hook procedure runs
// on the goroutine that owns the message loop, which is locked to its OS
// thread for the lifetime of the hook.
type windowsProvider struct {
	mu       sync.Mutex
	running  bool
	handle   uintptr
	threadID uint32
	done     chan struct{}

	cbMu sync.Mutex
	cb   Callback
}

var (
	activeMu   sync.Mutex
	activeWin  *windowsProvider
	hookProcCB = windows.NewCallback(lowLevelKeyboardProc)
)

func newPlatformProvider() Provider {
	return &windowsProvider{}
}

func lowLevelKeyboardProc(code int32, wparam, lparam uintptr) uintptr {
	if code >= 0 && (wparam == wmKeyDown || wparam == wmSysKeyDown) {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lparam))
		activeMu.Lock()
		p := activeWin
		activeMu.Unlock()
		if p != nil {
			p.deliver(uint16(kb.VkCode))
		}
	}
	// Always pass the event on: the hook is observe-only.
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wparam, lparam)
	return ret
}

func (p *windowsProvider) Start(ctx context.Context, cb Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	p.cbMu.Lock()
	p.cb = cb
	p.cbMu.Unlock()

	started := make(chan error, 1)
	p.done = make(chan struct{})

	go func() {
		// The hook procedure is called on the thread that installed it,
		// so that thread must pump messages and stay fixed.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(p.done)

		tid, _, _ := procGetCurrentThreadID.Call()

		h, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookProcCB, 0, 0)
		if h == 0 {
			started <- err
			return
		}

		p.mu.Lock()
		p.handle = h
		p.threadID = uint32(tid)
		p.mu.Unlock()
		activeMu.Lock()
		activeWin = p
		activeMu.Unlock()
		started <- nil

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				break
			}
		}

		procUnhookWindowsHookEx.Call(h)
		p.mu.Lock()
		p.handle = 0
		p.threadID = 0
		p.mu.Unlock()
		activeMu.Lock()
		activeWin = nil
		activeMu.Unlock()
	}()

	if err := <-started; err != nil {
		p.cbMu.Lock()
		p.cb = nil
		p.cbMu.Unlock()
		return ErrCreateFailed
	}
	p.running = true

	if ctx != nil {
		go func() {
			<-ctx.Done()
			p.Stop()
		}()
	}
	return nil
}

func (p *windowsProvider) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	tid := p.threadID
	done := p.done
	p.cbMu.Lock()
	p.cb = nil
	p.cbMu.Unlock()
	p.mu.Unlock()

	if tid != 0 {
		procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	}
	if done != nil {
		<-done
	}
	return nil
}

func (p *windowsProvider) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.handle != 0
}

func (p *windowsProvider) Reenable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ErrNotRunning
	}
	if p.handle == 0 {
		// A torn-down hook cannot be revived in place; the watchdog
		// escalates to a full restart.
		return ErrCreateFailed
	}
	return nil
}

func (p *windowsProvider) Available() (bool, string) {
	// Low-level keyboard hooks need no special privilege on Windows.
	return true, ""
}

func (p *windowsProvider) deliver(vk uint16) {
	p.cbMu.Lock()
	cb := p.cb
	p.cbMu.Unlock()
	if cb == nil {
		return
	}

	code, ok := vkToVirtual[vk]
	if !ok {
		return
	}

	var mods keycode.Modifiers
	if keyHeld(vkShift) {
		mods |= keycode.ModShift
	}
	if keyHeld(vkControl) {
		mods |= keycode.ModControl
	}
	if keyHeld(vkMenu) {
		mods |= keycode.ModOption
	}
	if keyHeld(vkLWin) || keyHeld(vkRWin) {
		mods |= keycode.ModCommand
	}

	cb(KeyEvent{Keycode: code, Modifiers: mods, Kind: KeyDown})
}

func keyHeld(vk int) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}

// vkToVirtual translates Windows virtual-key codes into the decoder's
// virtual key code space.
var vkToVirtual = map[uint16]uint16{
	'A': 0x00, 'B': 0x0B, 'C': 0x08, 'D': 0x02, 'E': 0x0E, 'F': 0x03,
	'G': 0x05, 'H': 0x04, 'I': 0x22, 'J': 0x26, 'K': 0x28, 'L': 0x25,
	'M': 0x2E, 'N': 0x2D, 'O': 0x1F, 'P': 0x23, 'Q': 0x0C, 'R': 0x0F,
	'S': 0x01, 'T': 0x11, 'U': 0x20, 'V': 0x09, 'W': 0x0D, 'X': 0x07,
	'Y': 0x10, 'Z': 0x06,
	'1': 0x12, '2': 0x13, '3': 0x14, '4': 0x15, '5': 0x17, '6': 0x16,
	'7': 0x1A, '8': 0x1C, '9': 0x19, '0': 0x1D,
	0x0D: 0x24, // return
	0x09: 0x30, // tab
	0x20: 0x31, // space
	0xBD: 0x1B, // -
	0xBB: 0x18, // =
	0xDB: 0x21, // [
	0xDD: 0x1E, // ]
	0xDC: 0x2A, // backslash
	0xBA: 0x29, // ;
	0xDE: 0x27, // '
	0xC0: 0x32, // `
	0xBC: 0x2B, // ,
	0xBE: 0x2F, // .
	0xBF: 0x2C, // /
	// numeric keypad
	0x60: 0x52, 0x61: 0x53, 0x62: 0x54, 0x63: 0x55, 0x64: 0x56,
	0x65: 0x57, 0x66: 0x58, 0x67: 0x59, 0x68: 0x5B, 0x69: 0x5C,
	0x6A: 0x43, // *
	0x6B: 0x45, // +
	0x6D: 0x4E, // -
	0x6E: 0x41, // .
	0x6F: 0x4B, // /
}
