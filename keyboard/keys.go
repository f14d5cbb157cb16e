package keyboard

import "fmt"

// Kind is the transition reported by a status word.
type Kind uint8

// Event kinds, matching the high byte of a status word.
const (
	Press   Kind = 0x01
	Repeat  Kind = 0x02
	Release Kind = 0x03
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "Press"
	case Repeat:
		return "Repeat"
	case Release:
		return "Release"
	default:
		return fmt.Sprintf("Kind(0x%02X)", uint8(k))
	}
}

// Key is a logical key.
//
// Values below 0x80 are ASCII: printable characters and the control codes 1
// to 26 produced by Ctrl+letter. Named keys start at 0x100.
type Key uint16

// Named keys.
const (
	KeyEscape Key = 0x100 + iota
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyBreak
	KeyEnter
	KeyBackspace
	KeyTab
	KeyDelete
	KeyCtrl // only reported when Opts.ReportModifiers is set
)

var keyNames = map[Key]string{
	KeyEscape:    "Escape",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyInsert:    "Insert",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyBreak:     "Break",
	KeyEnter:     "Enter",
	KeyBackspace: "Backspace",
	KeyTab:       "Tab",
	KeyDelete:    "Delete",
	KeyCtrl:      "Ctrl",
}

// Controller scancodes, as sent in the low byte of a status word.
const (
	codeBackspace = 0x08
	codeTab       = 0x09
	codeEnter     = 0x0A
	codeCtrlAlt   = 0x1D
	codeF1        = 0x81
	codeF10       = 0x90
	codeCtrl      = 0xA5
	codeEscape    = 0xB1
	codeLeft      = 0xB4
	codeUp        = 0xB5
	codeDown      = 0xB6
	codeRight     = 0xB7
	codeBreak     = 0xD0
	codeInsert    = 0xD1
	codeHome      = 0xD2
	codeDelete    = 0xD4
	codeEnd       = 0xD5
	codePageUp    = 0xD6
	codePageDown  = 0xD7
)

// keyTable maps controller scancodes to named keys.
var keyTable = map[byte]Key{
	codeBackspace: KeyBackspace,
	codeTab:       KeyTab,
	codeEscape:    KeyEscape,
	codeF1:        KeyF1,
	codeF1 + 1:    KeyF2,
	codeF1 + 2:    KeyF3,
	codeF1 + 3:    KeyF4,
	codeF1 + 4:    KeyF5,
	codeF1 + 5:    KeyF6,
	codeF1 + 6:    KeyF7,
	codeF1 + 7:    KeyF8,
	codeF1 + 8:    KeyF9,
	codeF10:       KeyF10,
	codeUp:        KeyUp,
	codeDown:      KeyDown,
	codeLeft:      KeyLeft,
	codeRight:     KeyRight,
	codeInsert:    KeyInsert,
	codeHome:      KeyHome,
	codeEnd:       KeyEnd,
	codePageUp:    KeyPageUp,
	codePageDown:  KeyPageDown,
	codeBreak:     KeyBreak,
	codeDelete:    KeyDelete,
}

// IsPrintable reports whether k is a printable ASCII character.
func (k Key) IsPrintable() bool {
	return k >= 0x20 && k < 0x7F
}

// IsControl reports whether k is a Ctrl+letter control code (1 to 26).
func (k Key) IsControl() bool {
	return k >= 1 && k <= 26
}

// Rune returns the character carried by k, for printable and control keys.
func (k Key) Rune() (rune, bool) {
	if k.IsPrintable() || k.IsControl() {
		return rune(k), true
	}
	return 0, false
}

func (k Key) String() string {
	switch {
	case k.IsPrintable():
		return fmt.Sprintf("%q", rune(k))
	case k.IsControl():
		return "Ctrl+" + string(rune('A'+k-1))
	}
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Key(0x%04X)", uint16(k))
}

// Event is a decoded key event.
type Event struct {
	Kind Kind
	Code Key
	Raw  uint16 // Status word as read from the controller
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s (0x%04X)", e.Kind, e.Code, e.Raw)
}
