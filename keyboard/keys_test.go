package keyboard

import "testing"

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{'a', `'a'`},
		{' ', `' '`},
		{3, "Ctrl+C"},
		{26, "Ctrl+Z"},
		{KeyEnter, "Enter"},
		{KeyF10, "F10"},
		{KeyPageDown, "PageDown"},
		{0x7F, "Key(0x007F)"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key(0x%X).String() = %q, want %q", uint16(tt.key), got, tt.want)
		}
	}
}

func TestKeyRune(t *testing.T) {
	tests := []struct {
		key    Key
		want   rune
		wantOk bool
	}{
		{'x', 'x', true},
		{3, 3, true},
		{0, 0, false},
		{KeyEscape, 0, false},
	}

	for _, tt := range tests {
		r, ok := tt.key.Rune()
		if r != tt.want || ok != tt.wantOk {
			t.Errorf("%v.Rune() = (%q, %v), want (%q, %v)", tt.key, r, ok, tt.want, tt.wantOk)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Press, "Press"},
		{Repeat, "Repeat"},
		{Release, "Release"},
		{0x09, "Kind(0x09)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeyTableNamesComplete(t *testing.T) {
	for code, k := range keyTable {
		if _, ok := keyNames[k]; !ok {
			t.Errorf("scancode 0x%02X maps to unnamed key %d", code, k)
		}
	}
}

func TestEventString(t *testing.T) {
	ev := Event{Kind: Release, Code: KeyEnter, Raw: 0x030A}
	if got, want := ev.String(), "Release Enter (0x030A)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
