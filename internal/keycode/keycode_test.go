package keycode

import "testing"

func TestDecodeLetters(t *testing.T) {
	tests := []struct {
		code uint16
		mods Modifiers
		want rune
	}{
		{0x00, 0, 'a'},
		{0x00, ModShift, 'A'},
		{0x2D, 0, 'n'},
		{0x0C, ModShift, 'Q'},
		{0x06, 0, 'z'},
	}

	for _, tt := range tests {
		r, res := Decode(tt.code, tt.mods)
		if res != Mapped {
			t.Errorf("Decode(%#x, %v) result = %v, want Mapped", tt.code, tt.mods, res)
			continue
		}
		if r != tt.want {
			t.Errorf("Decode(%#x, %v) = %q, want %q", tt.code, tt.mods, r, tt.want)
		}
	}
}

func TestDecodeDigitsAndSymbols(t *testing.T) {
	tests := []struct {
		code uint16
		mods Modifiers
		want rune
	}{
		{0x12, 0, '1'},
		{0x12, ModShift, '!'},
		{0x1D, 0, '0'},
		{0x1D, ModShift, ')'},
		{0x1B, 0, '-'},
		{0x1B, ModShift, '_'},
		{0x2F, 0, '.'},
		{0x2F, ModShift, '>'},
		{0x27, ModShift, '"'},
	}

	for _, tt := range tests {
		r, res := Decode(tt.code, tt.mods)
		if res != Mapped || r != tt.want {
			t.Errorf("Decode(%#x, %v) = %q (%v), want %q", tt.code, tt.mods, r, res, tt.want)
		}
	}
}

func TestDecodeWhitespace(t *testing.T) {
	for _, tt := range []struct {
		code uint16
		want rune
	}{
		{0x31, ' '},
		{0x24, '\n'},
		{0x30, '\t'},
	} {
		r, res := Decode(tt.code, 0)
		if res != Mapped || r != tt.want {
			t.Errorf("Decode(%#x) = %q (%v), want %q", tt.code, r, res, tt.want)
		}
		// Shift does not change whitespace keys.
		r, res = Decode(tt.code, ModShift)
		if res != Mapped || r != tt.want {
			t.Errorf("Decode(%#x, shift) = %q (%v), want %q", tt.code, r, res, tt.want)
		}
	}
}

func TestDecodeKeypad(t *testing.T) {
	tests := []struct {
		code uint16
		want rune
	}{
		{0x52, '0'},
		{0x59, '7'},
		{0x5C, '9'},
		{0x43, '*'},
		{0x45, '+'},
		{0x41, '.'},
	}

	for _, tt := range tests {
		r, res := Decode(tt.code, 0)
		if res != Mapped || r != tt.want {
			t.Errorf("Decode(%#x) = %q (%v), want %q", tt.code, r, res, tt.want)
		}
	}
}

func TestDecodeCommandChordProducesNoMapping(t *testing.T) {
	for _, mods := range []Modifiers{ModCommand, ModControl, ModCommand | ModShift, ModControl | ModOption} {
		if _, res := Decode(0x00, mods); res != NoMapping {
			t.Errorf("Decode(a, %v) result = %v, want NoMapping", mods, res)
		}
	}
}

func TestDecodeOptionNeedsLocaleFallback(t *testing.T) {
	if _, res := Decode(0x00, ModOption); res != NeedsLocale {
		t.Errorf("Decode(a, option) result = %v, want NeedsLocale", res)
	}
	if _, res := Decode(0x0E, ModOption|ModShift); res != NeedsLocale {
		t.Errorf("Decode(e, option+shift) result = %v, want NeedsLocale", res)
	}
}

func TestDecodeUnknownCode(t *testing.T) {
	for _, code := range []uint16{0x0A, 0x33, 0x35, 0x7F, 0xFF, 200} {
		if _, res := Decode(code, 0); res != NoMapping {
			t.Errorf("Decode(%#x) result = %v, want NoMapping", code, res)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Decode(uint16(i&0x3F), Modifiers(i&1))
	}
}
