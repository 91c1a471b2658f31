//go:build darwin && cgo

package hook

/*
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>
#include <pthread.h>
#include <unistd.h>

// Implemented in hook_darwin_exports.go.
extern void goHookKeyEvent(unsigned short keycode, unsigned long long flags, int keyDown);

static CFMachPortRef eventTap = NULL;
static CFRunLoopSourceRef runLoopSource = NULL;
static CFRunLoopRef tapRunLoop = NULL;
static volatile int tapEnabled = 0;
static volatile int tapDisabledBySystem = 0;

static void stopTap(void);

static CGEventRef tapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
    (void)proxy;
    (void)refcon;

    // The OS disables a tap whose callback is too slow. Record it for the
    // watchdog; the event itself still passes through.
    if (type == kCGEventTapDisabledByUserInput || type == kCGEventTapDisabledByTimeout) {
        tapDisabledBySystem = 1;
        return event;
    }

    if (type == kCGEventKeyDown) {
        CGKeyCode code = (CGKeyCode)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
        CGEventFlags flags = CGEventGetFlags(event);
        goHookKeyEvent((unsigned short)code, (unsigned long long)flags, 1);
    }

    // Listen-only: the original event always continues unmodified.
    return event;
}

static void* tapThread(void* arg) {
    (void)arg;
    tapRunLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(tapRunLoop, runLoopSource, kCFRunLoopCommonModes);
    CGEventTapEnable(eventTap, true);
    tapEnabled = 1;
    CFRunLoopRun();
    tapEnabled = 0;
    tapRunLoop = NULL;
    return NULL;
}

static pthread_t tapThreadHandle;
static volatile int threadRunning = 0;

static int startTap(void) {
    if (eventTap != NULL) {
        return 1; // already running
    }

    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown);
    eventTap = CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionListenOnly,
        mask,
        tapCallback,
        NULL
    );
    if (eventTap == NULL) {
        return -1; // permission denied or refused by the OS
    }

    runLoopSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, eventTap, 0);
    if (runLoopSource == NULL) {
        CFRelease(eventTap);
        eventTap = NULL;
        return -2;
    }

    threadRunning = 1;
    if (pthread_create(&tapThreadHandle, NULL, tapThread, NULL) != 0) {
        CFRelease(runLoopSource);
        CFRelease(eventTap);
        runLoopSource = NULL;
        eventTap = NULL;
        threadRunning = 0;
        return -3;
    }

    for (int i = 0; i < 100 && !tapEnabled; i++) {
        usleep(10000); // 10ms
    }
    if (!tapEnabled) {
        stopTap();
        return -4;
    }
    return 0;
}

static void stopTap(void) {
    if (eventTap == NULL) {
        return;
    }

    CGEventTapEnable(eventTap, false);
    tapEnabled = 0;

    if (tapRunLoop != NULL) {
        CFRunLoopStop(tapRunLoop);
    }
    if (threadRunning) {
        pthread_join(tapThreadHandle, NULL);
        threadRunning = 0;
    }

    CFRelease(runLoopSource);
    CFRelease(eventTap);
    runLoopSource = NULL;
    eventTap = NULL;
    tapDisabledBySystem = 0;
}

static int tapIsEnabled(void) {
    if (eventTap == NULL) {
        return 0;
    }
    return CGEventTapIsEnabled(eventTap) ? 1 : 0;
}

static int reenableTap(void) {
    if (eventTap == NULL) {
        return -1;
    }
    CGEventTapEnable(eventTap, true);
    tapDisabledBySystem = 0;
    return CGEventTapIsEnabled(eventTap) ? 0 : -2;
}

static int processTrusted(void) {
    return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

import (
	"context"
	"sync"

	"expandd/internal/keycode"
)

// CGEventFlags bits relevant to text input.
const (
	cgFlagShift   = 0x00020000
	cgFlagControl = 0x00040000
	cgFlagOption  = 0x00080000
	cgFlagCommand = 0x00100000
	cgFlagFn      = 0x00800000
)

// darwinProvider wraps a CGEventTap. The tap state lives in C globals, so
// at most one darwin provider can run per process; activeDarwin routes the
// exported callback to it.
type darwinProvider struct {
	mu      sync.Mutex
	running bool

	// cb has its own lock: Stop joins the tap thread while holding mu,
	// and the tap thread takes cbMu in deliver.
	cbMu sync.Mutex
	cb   Callback
}

var (
	activeMu     sync.Mutex
	activeDarwin *darwinProvider
)

func newPlatformProvider() Provider {
	return &darwinProvider{}
}

func (p *darwinProvider) Start(ctx context.Context, cb Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}
	if C.processTrusted() == 0 {
		return ErrPermissionDenied
	}

	activeMu.Lock()
	activeDarwin = p
	activeMu.Unlock()

	p.cbMu.Lock()
	p.cb = cb
	p.cbMu.Unlock()
	if rc := C.startTap(); rc != 0 {
		// startTap released anything it acquired before failing.
		p.cbMu.Lock()
		p.cb = nil
		p.cbMu.Unlock()
		activeMu.Lock()
		activeDarwin = nil
		activeMu.Unlock()
		if rc == -1 {
			return ErrPermissionDenied
		}
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

func (p *darwinProvider) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	p.cbMu.Lock()
	p.cb = nil
	p.cbMu.Unlock()
	C.stopTap()
	p.running = false
	activeMu.Lock()
	activeDarwin = nil
	activeMu.Unlock()
	return nil
}

func (p *darwinProvider) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && C.tapIsEnabled() == 1
}

func (p *darwinProvider) Reenable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ErrNotRunning
	}
	if C.reenableTap() != 0 {
		return ErrCreateFailed
	}
	return nil
}

func (p *darwinProvider) Available() (bool, string) {
	if C.processTrusted() == 0 {
		return false, "accessibility permission not granted (System Settings > Privacy & Security > Accessibility)"
	}
	return true, ""
}

// deliver forwards an event from the tap thread to the callback.
func (p *darwinProvider) deliver(code uint16, flags uint64, down bool) {
	p.cbMu.Lock()
	cb := p.cb
	p.cbMu.Unlock()
	if cb == nil {
		return
	}

	var mods keycode.Modifiers
	if flags&cgFlagShift != 0 {
		mods |= keycode.ModShift
	}
	if flags&cgFlagControl != 0 {
		mods |= keycode.ModControl
	}
	if flags&cgFlagOption != 0 {
		mods |= keycode.ModOption
	}
	if flags&cgFlagCommand != 0 {
		mods |= keycode.ModCommand
	}
	if flags&cgFlagFn != 0 {
		mods |= keycode.ModFn
	}

	kind := Other
	if down {
		kind = KeyDown
	}
	cb(KeyEvent{Keycode: code, Modifiers: mods, Kind: kind})
}
