// Package keycode maps hardware key codes to printable characters.
//
// The decoder is the hottest code path in the expansion engine: it runs
// inside the OS event callback for every key-down on the machine. It is a
// pure table lookup with no allocation. Key codes follow the macOS virtual
// key code numbering (kVK_ANSI_*); platform hook implementations translate
// their native codes into this space before calling Decode.
package keycode

// Modifiers is a bitset of modifier keys held during a key event.
type Modifiers uint8

const (
	// ModShift is either shift key.
	ModShift Modifiers = 1 << iota
	// ModControl is either control key.
	ModControl
	// ModOption is the option/alt (secondary symbol) key.
	ModOption
	// ModCommand is the command key (Windows/Super elsewhere).
	ModCommand
	// ModFn is the fn key on compact keyboards.
	ModFn
)

// Result describes the outcome of a decode attempt.
type Result int

const (
	// Mapped means a printable character was produced.
	Mapped Result = iota

	// NoMapping means the event cannot produce text (command/control
	// chords, function keys, codes outside the table). Callers drop the
	// event.
	NoMapping

	// NeedsLocale means the event may produce text but the static table
	// cannot resolve it (option/AltGr held, layout dependent). Callers
	// should use a locale-aware fallback decoder.
	NeedsLocale
)

const tableSize = 93

// base holds unshifted characters indexed by virtual key code.
var base = [tableSize]rune{
	0x00: 'a', 0x01: 's', 0x02: 'd', 0x03: 'f', 0x04: 'h', 0x05: 'g',
	0x06: 'z', 0x07: 'x', 0x08: 'c', 0x09: 'v', 0x0B: 'b', 0x0C: 'q',
	0x0D: 'w', 0x0E: 'e', 0x0F: 'r', 0x10: 'y', 0x11: 't',
	0x12: '1', 0x13: '2', 0x14: '3', 0x15: '4', 0x16: '6', 0x17: '5',
	0x18: '=', 0x19: '9', 0x1A: '7', 0x1B: '-', 0x1C: '8', 0x1D: '0',
	0x1E: ']', 0x1F: 'o', 0x20: 'u', 0x21: '[', 0x22: 'i', 0x23: 'p',
	0x24: '\n', // return
	0x25: 'l', 0x26: 'j', 0x27: '\'', 0x28: 'k', 0x29: ';', 0x2A: '\\',
	0x2B: ',', 0x2C: '/', 0x2D: 'n', 0x2E: 'm', 0x2F: '.',
	0x30: '\t', // tab
	0x31: ' ',  // space
	0x32: '`',
	// numeric keypad
	0x41: '.', 0x43: '*', 0x45: '+', 0x4B: '/', 0x4C: '\n', 0x4E: '-',
	0x51: '=',
	0x52: '0', 0x53: '1', 0x54: '2', 0x55: '3', 0x56: '4', 0x57: '5',
	0x58: '6', 0x59: '7', 0x5B: '8', 0x5C: '9',
}

// shifted holds characters produced with shift held. Keypad keys and the
// whitespace keys are unaffected by shift.
var shifted = [tableSize]rune{
	0x00: 'A', 0x01: 'S', 0x02: 'D', 0x03: 'F', 0x04: 'H', 0x05: 'G',
	0x06: 'Z', 0x07: 'X', 0x08: 'C', 0x09: 'V', 0x0B: 'B', 0x0C: 'Q',
	0x0D: 'W', 0x0E: 'E', 0x0F: 'R', 0x10: 'Y', 0x11: 'T',
	0x12: '!', 0x13: '@', 0x14: '#', 0x15: '$', 0x16: '^', 0x17: '%',
	0x18: '+', 0x19: '(', 0x1A: '&', 0x1B: '_', 0x1C: '*', 0x1D: ')',
	0x1E: '}', 0x1F: 'O', 0x20: 'U', 0x21: '{', 0x22: 'I', 0x23: 'P',
	0x24: '\n',
	0x25: 'L', 0x26: 'J', 0x27: '"', 0x28: 'K', 0x29: ':', 0x2A: '|',
	0x2B: '<', 0x2C: '?', 0x2D: 'N', 0x2E: 'M', 0x2F: '>',
	0x30: '\t',
	0x31: ' ',
	0x32: '~',
	0x41: '.', 0x43: '*', 0x45: '+', 0x4B: '/', 0x4C: '\n', 0x4E: '-',
	0x51: '=',
	0x52: '0', 0x53: '1', 0x54: '2', 0x55: '3', 0x56: '4', 0x57: '5',
	0x58: '6', 0x59: '7', 0x5B: '8', 0x5C: '9',
}

// Decode maps a virtual key code plus modifier state to a printable
// character. It allocates nothing and runs in constant time.
func Decode(code uint16, mods Modifiers) (rune, Result) {
	// Command and control chords are never text input.
	if mods&(ModCommand|ModControl) != 0 {
		return 0, NoMapping
	}
	// Option produces layout-dependent secondary symbols the static table
	// cannot resolve. The caller owns the locale-aware fallback.
	if mods&ModOption != 0 {
		return 0, NeedsLocale
	}
	if int(code) >= tableSize {
		return 0, NoMapping
	}
	var r rune
	if mods&ModShift != 0 {
		r = shifted[code]
	} else {
		r = base[code]
	}
	if r == 0 {
		return 0, NoMapping
	}
	return r, Mapped
}
