//go:build darwin && cgo

package inject

/*
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>

// Virtual key codes used for injection.
#define VK_DELETE     51
#define VK_LEFT_ARROW 123
#define VK_ANSI_V     9

// postKey posts a key-down/key-up pair with the given flags.
// Returns 0 on success, -1 when event construction fails.
static int postKey(CGKeyCode code, CGEventFlags flags) {
    CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
    if (source == NULL) {
        return -1;
    }

    CGEventRef down = CGEventCreateKeyboardEvent(source, code, true);
    CGEventRef up = CGEventCreateKeyboardEvent(source, code, false);
    if (down == NULL || up == NULL) {
        if (down) CFRelease(down);
        if (up) CFRelease(up);
        CFRelease(source);
        return -1;
    }

    CGEventSetFlags(down, flags);
    CGEventSetFlags(up, flags);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);

    CFRelease(down);
    CFRelease(up);
    CFRelease(source);
    return 0;
}

static int postBackspace(void)       { return postKey(VK_DELETE, 0); }
static int postShiftLeft(void)       { return postKey(VK_LEFT_ARROW, kCGEventFlagMaskShift); }
static int postDeleteSelection(void) { return postKey(VK_DELETE, 0); }
static int postPasteChord(void)      { return postKey(VK_ANSI_V, kCGEventFlagMaskCommand); }
static int postLeftArrow(void)       { return postKey(VK_LEFT_ARROW, 0); }
*/
import "C"

import (
	"errors"
	"time"
)

var errEventConstruction = errors.New("failed to construct synthetic key event")

// interKeyDelay spaces repeated synthetic key presses so the destination
// application's event queue keeps up.
const interKeyDelay = 2 * time.Millisecond

type darwinInjector struct{}

func newPlatformInjector() Injector {
	return &darwinInjector{}
}

func (darwinInjector) Backspace(n int) error {
	for i := 0; i < n; i++ {
		if C.postBackspace() != 0 {
			return errEventConstruction
		}
		time.Sleep(interKeyDelay)
	}
	return nil
}

func (darwinInjector) SelectBackward(n int) error {
	for i := 0; i < n; i++ {
		if C.postShiftLeft() != 0 {
			return errEventConstruction
		}
		time.Sleep(interKeyDelay)
	}
	return nil
}

func (darwinInjector) DeleteSelection() error {
	if C.postDeleteSelection() != 0 {
		return errEventConstruction
	}
	return nil
}

func (darwinInjector) PasteChord() error {
	if C.postPasteChord() != 0 {
		return errEventConstruction
	}
	return nil
}

func (darwinInjector) CursorLeft(n int) error {
	for i := 0; i < n; i++ {
		if C.postLeftArrow() != 0 {
			return errEventConstruction
		}
		time.Sleep(interKeyDelay)
	}
	return nil
}
