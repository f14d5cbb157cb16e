package picocalc

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/flavioheleno/picocalc/keyboard"
	"github.com/flavioheleno/picocalc/rgb565"
	"github.com/flavioheleno/picocalc/screen"
)

const (
	ctrlC = keyboard.Key(3)
	ctrlL = keyboard.Key(12)

	tabWidth = 4

	// maxDrain caps the events handled per tick.
	maxDrain = 16
)

// KeySource yields key events. *keyboard.Dev implements it.
type KeySource interface {
	Poll() (keyboard.Event, bool, error)
}

// TermOpts is the configuration for a Terminal.
type TermOpts struct {
	// Text colours. When both are zero the screen's blank colours are used.
	FG, BG rgb565.Color

	// Period is the poll and flush interval of Run.
	Period time.Duration

	// OnLine is called with each line completed by Enter. It runs on the
	// Run goroutine without the terminal lock held, so it may Write.
	OnLine func(line string)

	Logger *log.Logger
}

// Terminal is a line-oriented console on a screen.Compositor.
type Terminal struct {
	mu sync.Mutex

	keys   KeySource
	scr    *screen.Compositor
	log    *log.Logger
	onLine func(string)
	period time.Duration

	fg, bg     rgb565.Color
	rows, cols int
	row, col   int
	line       []rune
}

// NewTerminal returns a terminal reading from keys and drawing on scr. keys
// can be nil when only Write and HandleKey are used.
func NewTerminal(keys KeySource, scr *screen.Compositor, opts *TermOpts) (*Terminal, error) {
	if scr == nil {
		return nil, errors.New("picocalc: screen is required")
	}
	if opts == nil {
		opts = &TermOpts{}
	}
	t := &Terminal{
		keys:   keys,
		scr:    scr,
		log:    opts.Logger,
		onLine: opts.OnLine,
		period: opts.Period,
		fg:     opts.FG,
		bg:     opts.BG,
	}
	if t.log == nil {
		t.log = log.Default().WithPrefix("picocalc")
	}
	if t.period <= 0 {
		t.period = keyboard.DefaultPeriod
	}
	if t.fg == 0 && t.bg == 0 {
		b := scr.Blank()
		t.fg, t.bg = b.FG, b.BG
	}
	t.rows, t.cols = scr.Size()
	return t, nil
}

// Cursor returns the cursor position.
func (t *Terminal) Cursor() (row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.row, t.col
}

// Line returns the input typed since the last Enter.
func (t *Terminal) Line() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.line)
}

// HandleKey applies one key event. Releases are ignored.
//
// Printable keys are echoed and added to the input line, Enter completes
// the line, Backspace erases the last input character, Tab pads to the next
// tab stop, Ctrl+C abandons the line and Ctrl+L clears the screen.
func (t *Terminal) HandleKey(ev keyboard.Event) {
	if ev.Kind == keyboard.Release {
		return
	}
	var (
		done bool
		line string
	)
	t.mu.Lock()
	switch code := ev.Code; {
	case code == keyboard.KeyEnter:
		line, done = string(t.line), true
		t.line = t.line[:0]
		t.newline()
	case code == keyboard.KeyBackspace:
		t.backspace()
	case code == keyboard.KeyTab:
		for {
			t.line = append(t.line, ' ')
			t.put(' ')
			if t.col%tabWidth == 0 {
				break
			}
		}
	case code == ctrlC:
		t.line = t.line[:0]
		t.put('^')
		t.put('C')
		t.newline()
	case code == ctrlL:
		t.scr.Clear()
		t.row, t.col = 0, 0
		t.line = t.line[:0]
	case code.IsPrintable():
		r, _ := code.Rune()
		t.line = append(t.line, r)
		t.put(r)
	default:
		t.log.Debug("key ignored", "event", ev)
	}
	t.mu.Unlock()

	if done && t.onLine != nil {
		t.onLine(line)
	}
}

// Write prints program output at the cursor. It handles '\n', '\r', '\b'
// and '\t'; other control characters are skipped. It never fails.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for s := p; len(s) > 0; {
		r, n := utf8.DecodeRune(s)
		s = s[n:]
		switch r {
		case '\n':
			t.newline()
		case '\r':
			t.col = 0
		case '\b':
			if t.col > 0 {
				t.col--
			}
		case '\t':
			for {
				t.put(' ')
				if t.col%tabWidth == 0 {
					break
				}
			}
		default:
			if unicode.IsPrint(r) {
				t.put(r)
			}
		}
	}
	return len(p), nil
}

// Clear blanks the screen and homes the cursor. Pending input is kept.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scr.Clear()
	t.row, t.col = 0, 0
}

// Run polls keys and flushes the screen every period until ctx is done.
// Transport and flush errors are logged and the loop keeps going.
func (t *Terminal) Run(ctx context.Context) error {
	if t.keys == nil {
		return errors.New("picocalc: no key source")
	}
	t.flush()
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		t.Tick()
	}
}

// Tick drains pending key events and flushes the screen once.
func (t *Terminal) Tick() {
	for range maxDrain {
		ev, ok, err := t.keys.Poll()
		if err != nil {
			t.log.Error("poll keyboard", "err", err)
			break
		}
		if !ok {
			break
		}
		t.log.Debug("key", "event", ev)
		t.HandleKey(ev)
	}
	t.flush()
}

func (t *Terminal) flush() {
	if err := t.scr.Flush(); err != nil {
		t.log.Error("flush screen", "err", err)
	}
}

// put draws r at the cursor and advances it, wrapping at the last column.
func (t *Terminal) put(r rune) {
	if err := t.scr.WriteCell(t.row, t.col, r, t.fg, t.bg); err != nil {
		t.log.Warn("write cell", "err", err)
	}
	t.col++
	if t.col == t.cols {
		t.newline()
	}
}

// newline moves to the start of the next row, scrolling at the bottom.
func (t *Terminal) newline() {
	t.col = 0
	if t.row < t.rows-1 {
		t.row++
		return
	}
	t.scr.Scroll(1)
}

// backspace erases the last input character. Output written with Write is
// never erased.
func (t *Terminal) backspace() {
	if len(t.line) == 0 {
		return
	}
	t.line = t.line[:len(t.line)-1]
	if t.col > 0 {
		t.col--
	} else if t.row > 0 {
		t.row--
		t.col = t.cols - 1
	}
	if err := t.scr.WriteCell(t.row, t.col, ' ', t.fg, t.bg); err != nil {
		t.log.Warn("write cell", "err", err)
	}
}
