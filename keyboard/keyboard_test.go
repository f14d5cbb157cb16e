package keyboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

// playback returns a bus that answers one poll per status word.
func playback(words ...uint16) *i2ctest.Playback {
	p := &i2ctest.Playback{DontPanic: true}
	for _, w := range words {
		p.Ops = append(p.Ops,
			i2ctest.IO{Addr: DefaultAddr, W: []byte{DefaultCommand}},
			i2ctest.IO{Addr: DefaultAddr, R: []byte{byte(w >> 8), byte(w)}},
		)
	}
	return p
}

func newDev(t *testing.T, bus *i2ctest.Playback, opts *Opts) *Dev {
	t.Helper()
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	d, err := New(bus, opts)
	require.NoError(t, err)
	return d
}

// pollAll polls once per queued word and returns the emitted events.
func pollAll(t *testing.T, d *Dev, n int) []Event {
	t.Helper()
	var got []Event
	for i := 0; i < n; i++ {
		ev, ok, err := d.Poll()
		require.NoError(t, err)
		if ok {
			got = append(got, ev)
		}
	}
	return got
}

func TestNewOpts(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options (uses defaults)", nil, false},
		{"custom address", &Opts{Addr: 0x20}, false},
		{"10-bit address", &Opts{Addr: 0x80}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(&i2ctest.Playback{}, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, byte(DefaultCommand), d.cmd)
			assert.Equal(t, DefaultSettle, d.settle)
		})
	}
}

func TestDevString(t *testing.T) {
	d := newDev(t, playback(), nil)
	assert.Equal(t, "keyboard.Dev{0x1F}", d.String())
	assert.NoError(t, d.Halt())
}

func TestPollIdle(t *testing.T) {
	bus := playback(0x0000)
	d := newDev(t, bus, nil)

	ev, ok, err := d.Poll()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Event{}, ev)
	assert.NoError(t, bus.Close())
}

func TestModifierSentinels(t *testing.T) {
	tests := []struct {
		name     string
		word     uint16
		before   bool
		wantHeld bool
	}{
		{"ctrl press", CtrlPress, false, true},
		{"ctrl press alternate", CtrlPressAlt, false, true},
		{"ctrl release", CtrlRelease, true, false},
		{"ctrl release alternate", CtrlReleaseAlt, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := playback(tt.word)
			d := newDev(t, bus, nil)
			d.ctrlHeld = tt.before

			ev, ok, err := d.Poll()
			require.NoError(t, err)
			assert.False(t, ok, "modifier words emit no event, got %v", ev)
			assert.Equal(t, tt.wantHeld, d.ctrlHeld)
			assert.NoError(t, bus.Close())
		})
	}
}

func TestCtrlC(t *testing.T) {
	bus := playback(CtrlPress, 0x0163, 0x0363, CtrlRelease, 0x0163)
	d := newDev(t, bus, nil)

	got := pollAll(t, d, 5)
	want := []Event{
		{Kind: Press, Code: 0x03, Raw: 0x0163},
		{Kind: Release, Code: 0x03, Raw: 0x0363},
		{Kind: Press, Code: 'c', Raw: 0x0163},
	}
	assert.Equal(t, want, got)
	assert.NoError(t, bus.Close())
}

func TestCtrlAliasesMix(t *testing.T) {
	bus := playback(CtrlPressAlt, 0x017A, CtrlRelease, 0x017A)
	d := newDev(t, bus, nil)

	got := pollAll(t, d, 4)
	require.Len(t, got, 2)
	assert.Equal(t, Key(26), got[0].Code)
	assert.Equal(t, Key('z'), got[1].Code)
}

func TestCtrlLeavesOtherKeys(t *testing.T) {
	bus := playback(CtrlPress, 0x0141, 0x0131, 0x01B5)
	d := newDev(t, bus, nil)

	got := pollAll(t, d, 4)
	require.Len(t, got, 3)
	assert.Equal(t, Key('A'), got[0].Code, "uppercase is not remapped")
	assert.Equal(t, Key('1'), got[1].Code)
	assert.Equal(t, KeyUp, got[2].Code)
	assert.True(t, d.ctrlHeld, "ctrl stays held until released")
}

func TestEnterSequence(t *testing.T) {
	bus := playback(0x010A, 0x030A)
	d := newDev(t, bus, nil)

	got := pollAll(t, d, 2)
	want := []Event{
		{Kind: Press, Code: KeyEnter, Raw: 0x010A},
		{Kind: Release, Code: KeyEnter, Raw: 0x030A},
	}
	assert.Equal(t, want, got)
	assert.NoError(t, bus.Close())
}

func TestEnterIgnoresCtrl(t *testing.T) {
	bus := playback(CtrlPress, 0x010A)
	d := newDev(t, bus, nil)

	got := pollAll(t, d, 2)
	require.Len(t, got, 1)
	assert.Equal(t, KeyEnter, got[0].Code)
}

func TestNamedKeys(t *testing.T) {
	tests := []struct {
		code byte
		want Key
	}{
		{0xB1, KeyEscape},
		{0x81, KeyF1},
		{0x85, KeyF5},
		{0x89, KeyF9},
		{0x90, KeyF10},
		{0xB4, KeyLeft},
		{0xB5, KeyUp},
		{0xB6, KeyDown},
		{0xB7, KeyRight},
		{0xD1, KeyInsert},
		{0xD2, KeyHome},
		{0xD5, KeyEnd},
		{0xD6, KeyPageUp},
		{0xD7, KeyPageDown},
		{0xD0, KeyBreak},
		{0xD4, KeyDelete},
		{0x08, KeyBackspace},
		{0x09, KeyTab},
		{' ', ' '},
		{'~', '~'},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			w := uint16(Press)<<8 | uint16(tt.code)
			bus := playback(w)
			d := newDev(t, bus, nil)

			ev, ok, err := d.Poll()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, Event{Kind: Press, Code: tt.want, Raw: w}, ev)
		})
	}
}

func TestRepeat(t *testing.T) {
	bus := playback(0x0278)
	d := newDev(t, bus, nil)

	ev, ok, err := d.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Repeat, ev.Kind)
	assert.Equal(t, Key('x'), ev.Code)
}

func TestUnmappedScancodeDropped(t *testing.T) {
	bus := playback(0x01C1, 0x0161)
	d := newDev(t, bus, nil)

	got := pollAll(t, d, 2)
	require.Len(t, got, 1)
	assert.Equal(t, Key('a'), got[0].Code)
}

func TestUnknownKindPrintablePassThrough(t *testing.T) {
	var buf bytes.Buffer
	bus := playback(0x0741)
	d := newDev(t, bus, &Opts{Logger: log.New(&buf)})

	ev, ok, err := d.Poll()
	require.NoError(t, err, "unknown kinds are never fatal")
	require.True(t, ok)
	assert.Equal(t, Event{Kind: Press, Code: 'A', Raw: 0x0741}, ev)
	assert.Contains(t, buf.String(), "passing through printable code")
}

func TestUnknownKindDropped(t *testing.T) {
	var buf bytes.Buffer
	bus := playback(0x07B5, 0x070A)
	d := newDev(t, bus, &Opts{Logger: log.New(&buf)})

	got := pollAll(t, d, 2)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "dropped status word")
}

func TestReportModifiers(t *testing.T) {
	bus := playback(CtrlPress, 0x0161, CtrlReleaseAlt)
	d := newDev(t, bus, &Opts{ReportModifiers: true})

	got := pollAll(t, d, 3)
	want := []Event{
		{Kind: Press, Code: KeyCtrl, Raw: CtrlPress},
		{Kind: Press, Code: 1, Raw: 0x0161},
		{Kind: Release, Code: KeyCtrl, Raw: CtrlReleaseAlt},
	}
	assert.Equal(t, want, got)
	assert.False(t, d.ctrlHeld)
}

func TestTransportErrors(t *testing.T) {
	t.Run("write", func(t *testing.T) {
		d := newDev(t, &i2ctest.Playback{DontPanic: true}, nil)

		_, ok, err := d.Poll()
		assert.False(t, ok)
		var te *TransportError
		require.True(t, errors.As(err, &te), "got %v", err)
		assert.Equal(t, "write", te.Op)
		assert.NotNil(t, errors.Unwrap(err))
	})

	t.Run("read", func(t *testing.T) {
		bus := &i2ctest.Playback{
			Ops:       []i2ctest.IO{{Addr: DefaultAddr, W: []byte{DefaultCommand}}},
			DontPanic: true,
		}
		d := newDev(t, bus, nil)

		_, _, err := d.Poll()
		var te *TransportError
		require.True(t, errors.As(err, &te), "got %v", err)
		assert.Equal(t, "read", te.Op)
	})
}

func TestCustomAddressAndCommand(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x20, W: []byte{0x04}},
			{Addr: 0x20, R: []byte{0x01, 'q'}},
		},
		DontPanic: true,
	}
	d := newDev(t, bus, &Opts{Addr: 0x20, Command: 0x04})

	ev, ok, err := d.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Key('q'), ev.Code)
	assert.NoError(t, bus.Close())
}

func TestEvents(t *testing.T) {
	bus := playback(0x0161, 0x0000, CtrlPress, 0x0362)
	d := newDev(t, bus, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Event
	for ev, err := range d.Events(ctx, time.Millisecond) {
		require.NoError(t, err)
		got = append(got, ev)
		if len(got) == 2 {
			break
		}
	}
	want := []Event{
		{Kind: Press, Code: 'a', Raw: 0x0161},
		{Kind: Release, Code: 2, Raw: 0x0362},
	}
	assert.Equal(t, want, got)
}

func TestEventsYieldsErrors(t *testing.T) {
	d := newDev(t, &i2ctest.Playback{DontPanic: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, err := range d.Events(ctx, time.Millisecond) {
		var te *TransportError
		assert.True(t, errors.As(err, &te))
		break
	}
}

func TestEventsStopsOnCancel(t *testing.T) {
	d := newDev(t, playback(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := 0
	for range d.Events(ctx, time.Millisecond) {
		n++
	}
	assert.Zero(t, n)
}
