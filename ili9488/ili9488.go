package ili9488

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/flavioheleno/picocalc/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Controller commands.
const (
	cmdSleepIn     = 0x10
	cmdSleepOut    = 0x11
	cmdInvertOff   = 0x20
	cmdInvertOn    = 0x21
	cmdDisplayOff  = 0x28
	cmdDisplayOn   = 0x29
	cmdColumnAddr  = 0x2A
	cmdPageAddr    = 0x2B
	cmdMemoryWrite = 0x2C
	cmdScrollArea  = 0x33
	cmdTearing     = 0x35
	cmdMemAccess   = 0x36
	cmdScrollStart = 0x37
	cmdPixelFormat = 0x3A
)

const (
	maxW = 320
	maxH = 480

	fillChunk = 128 // pixels per SPI transfer when filling
)

var errHalted = errors.New("ili9488: halted")

// Opts is the configuration for the ILI9488 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 320, must be ≤320)
	H int // Height (default: 320, must be ≤480)

	// Optional pins
	RST gpio.PinIO  // Reset pin (nil if not used)
	BL  gpio.PinOut // Backlight pin (nil if not used)

	// SPI clock (default: 20MHz)
	Frequency physic.Frequency
}

// Dev is the device handle for the ILI9488 display.
type Dev struct {
	// Communication
	c     conn.Conn   // SPI connection
	dc    gpio.PinOut // Data/Command pin
	rst   gpio.PinIO  // Reset pin (optional)
	bl    gpio.PinOut // Backlight pin (optional)
	maxTx int         // Largest single transfer, 0 if unlimited

	// Display geometry
	rect image.Rectangle

	// Vertical scrolling
	tfa, vsa int // Top fixed area and scroll area heights
	scroll   int // Current scroll start line within the scroll area

	// State
	halted bool
}

// NewSPI creates a new ILI9488 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided.
//
// opts can be nil to use defaults (320x320 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	w, h := opts.W, opts.H
	if w == 0 && h == 0 {
		w, h = 320, 320
	}
	if w <= 0 || w > maxW {
		return nil, fmt.Errorf("ili9488: width must be between 1 and %d", maxW)
	}
	if h <= 0 || h > maxH {
		return nil, fmt.Errorf("ili9488: height must be between 1 and %d", maxH)
	}
	if dc == nil {
		return nil, errors.New("ili9488: dc pin is required")
	}
	f := opts.Frequency
	if f == 0 {
		f = 20 * physic.MegaHertz
	}

	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9488: %w", err)
	}

	d := &Dev{
		c:    c,
		dc:   dc,
		rst:  opts.RST,
		bl:   opts.BL,
		rect: image.Rect(0, 0, w, h),
	}
	if l, ok := c.(conn.Limits); ok {
		d.maxTx = l.MaxTxSize()
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the display.
func (d *Dev) init() error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9488: failed to pull RST low: %w", err)
		}
		time.Sleep(50 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9488: failed to pull RST high: %w", err)
		}
		time.Sleep(150 * time.Millisecond)
	}

	seq := []struct {
		cmd  byte
		data []byte
	}{
		{cmdMemAccess, []byte{0x40}},       // Column order mirrored, RGB
		{cmdPixelFormat, []byte{0x55}},     // 16 bits/pixel
		{0xB0, []byte{0x80}},               // Interface mode control
		{0xB4, []byte{0x00}},               // Column inversion
		{0xB6, []byte{0x80, 0x02, 0x3B}},   // Display function control
		{0xB7, []byte{0xC6}},               // Entry mode, deep standby off
		{0xC0, []byte{0x10, 0x10}},         // Power control 1
		{0xC1, []byte{0x41}},               // Power control 2
		{0xC5, []byte{0x00, 0x18}},         // VCOM control
		{0xE0, []byte{0x0F, 0x1F, 0x1C, 0x0C, 0x0F, 0x08, 0x48, 0x98, 0x37, 0x0A, 0x13, 0x04, 0x11, 0x0D, 0x00}}, // Positive gamma
		{0xE1, []byte{0x0F, 0x32, 0x2E, 0x0B, 0x0D, 0x05, 0x47, 0x75, 0x37, 0x06, 0x10, 0x03, 0x24, 0x20, 0x00}}, // Negative gamma
		{cmdTearing, []byte{0x00}},         // Tearing effect output, V-blank only
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			return err
		}
	}

	if err := d.command(cmdSleepOut); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.command(cmdDisplayOn); err != nil {
		return err
	}
	time.Sleep(20 * time.Millisecond)

	if err := d.DefineScrollArea(0, d.rect.Dy(), 0); err != nil {
		return err
	}
	if err := d.SetScrollStart(0); err != nil {
		return err
	}
	return d.SetBacklight(true)
}

// command sends a command byte followed by its parameters.
func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.sendData(data)
}

// sendData sends data bytes, split to the connection's transfer limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := len(data)
		if d.maxTx > 0 && n > d.maxTx {
			n = d.maxTx
		}
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// SetWindow selects the display RAM rectangle (inclusive corners) that the
// next WritePixels fills. Coordinates are clamped to the display.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	if d.halted {
		return errHalted
	}
	x0, x1 = clamp(x0, d.rect.Dx()-1), clamp(x1, d.rect.Dx()-1)
	y0, y1 = clamp(y0, d.rect.Dy()-1), clamp(y1, d.rect.Dy()-1)

	var b [4]byte
	binary.BigEndian.PutUint16(b[0:], uint16(x0))
	binary.BigEndian.PutUint16(b[2:], uint16(x1))
	if err := d.command(cmdColumnAddr, b[:]...); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b[0:], uint16(y0))
	binary.BigEndian.PutUint16(b[2:], uint16(y1))
	return d.command(cmdPageAddr, b[:]...)
}

// WritePixels streams RGB565 pixel data into the current window.
func (d *Dev) WritePixels(pixels []byte) error {
	if d.halted {
		return errHalted
	}
	if len(pixels)%2 != 0 {
		return errors.New("ili9488: pixel data must be 2 bytes per pixel")
	}
	if err := d.command(cmdMemoryWrite); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// DefineScrollArea splits the panel into a top fixed area, a vertical
// scrolling area and a bottom fixed area, in lines. The three must add up to
// the display height.
func (d *Dev) DefineScrollArea(tfa, vsa, bfa int) error {
	if d.halted {
		return errHalted
	}
	if tfa < 0 || vsa < 0 || bfa < 0 || tfa+vsa+bfa != d.rect.Dy() {
		return errors.New("ili9488: scroll areas must add up to the display height")
	}
	var b [6]byte
	binary.BigEndian.PutUint16(b[0:], uint16(tfa))
	binary.BigEndian.PutUint16(b[2:], uint16(vsa))
	binary.BigEndian.PutUint16(b[4:], uint16(bfa))
	if err := d.command(cmdScrollArea, b[:]...); err != nil {
		return err
	}
	d.tfa, d.vsa = tfa, vsa
	d.scroll = 0
	return nil
}

// SetScrollStart sets the first scroll area line shown at the top of the
// scroll area. line wraps modulo the scroll area height.
func (d *Dev) SetScrollStart(line int) error {
	if d.halted {
		return errHalted
	}
	if d.vsa <= 0 {
		return errors.New("ili9488: scroll area not defined")
	}
	line %= d.vsa
	if line < 0 {
		line += d.vsa
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(d.tfa+line))
	if err := d.command(cmdScrollStart, b[:]...); err != nil {
		return err
	}
	d.scroll = line
	return nil
}

// ScrollStart returns the current scroll start line.
func (d *Dev) ScrollStart() int {
	return d.scroll
}

// Fill paints the whole display with c.
func (d *Dev) Fill(c rgb565.Color) error {
	if d.halted {
		return errHalted
	}
	if err := d.SetWindow(0, 0, d.rect.Dx()-1, d.rect.Dy()-1); err != nil {
		return err
	}
	if err := d.command(cmdMemoryWrite); err != nil {
		return err
	}

	px := c.Bytes()
	buf := make([]byte, fillChunk*2)
	for i := 0; i < len(buf); i += 2 {
		buf[i], buf[i+1] = px[0], px[1]
	}
	for left := d.rect.Dx() * d.rect.Dy(); left > 0; left -= fillChunk {
		n := min(left, fillChunk)
		if err := d.sendData(buf[:n*2]); err != nil {
			return err
		}
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write writes a full frame of raw RGB565 pixel data to the display.
// The data must be exactly W * H * 2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	if len(pixels) != d.rect.Dx()*d.rect.Dy()*2 {
		return 0, errors.New("ili9488: invalid buffer size")
	}
	if err := d.writeRect(d.rect, pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw draws src onto the display. Only the dst rectangle, clipped to the
// display, is sent.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}
	r := dst.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	sp = sp.Add(r.Min.Sub(dst.Min))
	dst = r

	// Fast path: the source already holds the exact region in panel order.
	if img, ok := src.(*rgb565.Image); ok {
		if img.Rect.Min == sp && img.Rect.Size() == dst.Size() && img.Stride == dst.Dx()*2 {
			return d.writeRect(dst, img.Pix[:dst.Dx()*dst.Dy()*2])
		}
	}

	buf := rgb565.NewImage(image.Rectangle{Max: dst.Size()})
	draw.Draw(buf, buf.Rect, src, sp, draw.Src)
	return d.writeRect(dst, buf.Pix)
}

// writeRect writes pixel data to a rectangular region of the display.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	if err := d.SetWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1); err != nil {
		return err
	}
	return d.WritePixels(pixels)
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	if invert {
		return d.command(cmdInvertOn)
	}
	return d.command(cmdInvertOff)
}

// SetBacklight switches the backlight, when a BL pin was provided.
func (d *Dev) SetBacklight(on bool) error {
	if d.bl == nil {
		return nil
	}
	l := gpio.Low
	if on {
		l = gpio.High
	}
	if err := d.bl.Out(l); err != nil {
		return fmt.Errorf("ili9488: backlight: %w", err)
	}
	return nil
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	if err := d.SetBacklight(false); err != nil {
		return err
	}
	if err := d.command(cmdDisplayOff); err != nil {
		return err
	}
	return d.command(cmdSleepIn)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9488.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

func clamp(v, hi int) int {
	return max(0, min(hi, v))
}

var _ display.Drawer = &Dev{}
