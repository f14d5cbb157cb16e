package keyboard

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/charmbracelet/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Defaults for the keyboard controller.
const (
	DefaultAddr    = 0x1F                  // I²C address of the controller
	DefaultCommand = 0x09                  // Read key FIFO
	DefaultSettle  = time.Millisecond      // Delay between command and read
	DefaultPeriod  = 20 * time.Millisecond // 50 Hz polling
)

// Ctrl modifier status words. Two encodings exist for each transition, one
// per controller firmware revision; both are always honoured.
const (
	CtrlPress      uint16 = uint16(Press)<<8 | codeCtrl
	CtrlPressAlt   uint16 = uint16(Press)<<8 | codeCtrlAlt
	CtrlRelease    uint16 = uint16(Release)<<8 | codeCtrl
	CtrlReleaseAlt uint16 = uint16(Release)<<8 | codeCtrlAlt
)

// ErrUnknownKeyEvent is reported in diagnostics for status words whose event
// type byte is not Press, Repeat or Release.
var ErrUnknownKeyEvent = errors.New("keyboard: unknown key event")

// TransportError is returned by Poll when the bus transaction fails.
type TransportError struct {
	Op  string // "write" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("keyboard: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Opts is the configuration for the keyboard controller.
type Opts struct {
	Addr    uint16        // I²C address (default: DefaultAddr)
	Command byte          // Command byte issued before each read (default: DefaultCommand)
	Settle  time.Duration // Wait between command and read (default: DefaultSettle)

	// ReportModifiers emits KeyCtrl press and release events instead of
	// consuming the Ctrl status words silently.
	ReportModifiers bool

	Logger *log.Logger // Diagnostics (default: log.Default())
}

// Dev is the handle to the keyboard controller.
//
// Dev owns the modifier state; it is not safe for concurrent use.
type Dev struct {
	c          conn.Conn
	addr       uint16
	cmd        byte
	settle     time.Duration
	reportMods bool
	log        *log.Logger

	ctrlHeld bool
}

// New returns a handle to the keyboard controller on bus.
//
// opts can be nil to use defaults. No bus traffic happens until Poll.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	if addr > 0x7F {
		return nil, errors.New("keyboard: address must be a 7-bit value")
	}
	cmd := opts.Command
	if cmd == 0 {
		cmd = DefaultCommand
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("keyboard")
	}
	return &Dev{
		c:          &i2c.Dev{Bus: bus, Addr: addr},
		addr:       addr,
		cmd:        cmd,
		settle:     settle,
		reportMods: opts.ReportModifiers,
		log:        logger,
	}, nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("keyboard.Dev{0x%02X}", d.addr)
}

// Halt implements conn.Resource. The controller keeps scanning on its own so
// there is nothing to stop.
func (d *Dev) Halt() error {
	return nil
}

// Poll reads one status word and decodes it.
//
// ok is false when the controller has nothing queued, or when the word only
// changed modifier state or could not be decoded. Bus failures are returned
// as *TransportError.
func (d *Dev) Poll() (ev Event, ok bool, err error) {
	w, err := d.readStatus()
	if err != nil {
		return Event{}, false, err
	}
	if w == 0 {
		return Event{}, false, nil
	}
	ev, ok = d.decode(w)
	return ev, ok, nil
}

// Events returns the lazy sequence of key events, polling every period until
// ctx is done or the consumer stops. Bus failures are yielded with a zero
// Event and polling continues.
func (d *Dev) Events(ctx context.Context, period time.Duration) iter.Seq2[Event, error] {
	if period <= 0 {
		period = DefaultPeriod
	}
	return func(yield func(Event, error) bool) {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			if ctx.Err() != nil {
				return
			}
			ev, ok, err := d.Poll()
			switch {
			case err != nil:
				if !yield(Event{}, err) {
					return
				}
			case ok:
				if !yield(ev, nil) {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}
}

// readStatus issues the command byte then reads the big-endian status word.
func (d *Dev) readStatus() (uint16, error) {
	if err := d.c.Tx([]byte{d.cmd}, nil); err != nil {
		return 0, &TransportError{Op: "write", Err: err}
	}
	time.Sleep(d.settle)
	var buf [2]byte
	if err := d.c.Tx(nil, buf[:]); err != nil {
		return 0, &TransportError{Op: "read", Err: err}
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// decode classifies a non-zero status word. Rules are checked in order:
// modifier sentinels, the Enter discriminator, then kind/scancode.
func (d *Dev) decode(w uint16) (Event, bool) {
	switch w {
	case CtrlPress, CtrlPressAlt:
		d.ctrlHeld = true
		return d.modifier(Press, w)
	case CtrlRelease, CtrlReleaseAlt:
		d.ctrlHeld = false
		return d.modifier(Release, w)
	}

	kind, lo := Kind(w>>8), byte(w)

	// Enter is matched on the low byte alone, ahead of the table.
	if lo == codeEnter && kind.valid() {
		return Event{Kind: kind, Code: KeyEnter, Raw: w}, true
	}

	var code Key
	if kind.valid() {
		k, ok := translate(lo)
		if !ok {
			d.log.Debug("unmapped scancode", "raw", hex16(w), "code", fmt.Sprintf("0x%02X", lo))
			return Event{}, false
		}
		code = k
	} else {
		if !Key(lo).IsPrintable() {
			d.log.Warn("dropped status word", "err", ErrUnknownKeyEvent, "raw", hex16(w))
			return Event{}, false
		}
		d.log.Warn("passing through printable code", "err", ErrUnknownKeyEvent, "raw", hex16(w))
		kind, code = Press, Key(lo)
	}

	if d.ctrlHeld && code >= 'a' && code <= 'z' {
		code = code - 'a' + 1
	}
	return Event{Kind: kind, Code: code, Raw: w}, true
}

func (d *Dev) modifier(kind Kind, w uint16) (Event, bool) {
	if !d.reportMods {
		return Event{}, false
	}
	return Event{Kind: kind, Code: KeyCtrl, Raw: w}, true
}

// translate maps a scancode to a named key, or passes printable ASCII through.
func translate(code byte) (Key, bool) {
	if k, ok := keyTable[code]; ok {
		return k, true
	}
	if k := Key(code); k.IsPrintable() {
		return k, true
	}
	return 0, false
}

func (k Kind) valid() bool {
	return k == Press || k == Repeat || k == Release
}

func hex16(w uint16) string {
	return fmt.Sprintf("0x%04X", w)
}

var _ conn.Resource = &Dev{}
