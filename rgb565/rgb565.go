package rgb565

import (
	"fmt"
	"image"
	"image/color"
)

// Color is a packed 5-6-5 RGB colour.
type Color uint16

// Palette used by the terminal. The set is fixed, which keeps the number of
// distinct glyph renderings finite.
const (
	Black   Color = 0x0000
	White   Color = 0xFFFF
	Red     Color = 0xF800
	Green   Color = 0x07E0
	Blue    Color = 0x001F
	Cyan    Color = 0x07FF
	Magenta Color = 0xF81F
	Yellow  Color = 0xFFE0
	Gray    Color = 0x8410
	Orange  Color = 0xFD20
)

// Palette lists every named colour.
var Palette = []Color{Black, White, Red, Green, Blue, Cyan, Magenta, Yellow, Gray, Orange}

var names = map[string]Color{
	"black":   Black,
	"white":   White,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"cyan":    Cyan,
	"magenta": Magenta,
	"yellow":  Yellow,
	"gray":    Gray,
	"orange":  Orange,
}

// ByName returns the palette colour with the given lower case name.
func ByName(name string) (Color, bool) {
	c, ok := names[name]
	return c, ok
}

// New packs 8-bit channels into a Color, dropping the low bits.
func New(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA converts the Color to standard RGBA.
// Each channel is widened by replicating its high bits.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	r = (r5<<3 | r5>>2) * 0x101
	g = (g6<<2 | g6>>4) * 0x101
	b = (b5<<3 | b5>>2) * 0x101
	return r, g, b, 0xFFFF
}

// Bytes returns the colour in wire order (big-endian).
func (c Color) Bytes() [2]byte {
	return [2]byte{byte(c >> 8), byte(c)}
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("rgb565(0x%04X)", uint16(c))
}

// toRGB565 converts any color.Color to Color.
func toRGB565(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return New(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts colors to Color.
var Model = color.ModelFunc(toRGB565)

// Image is an RGB565 image whose Pix slice can be sent to the panel as is.
type Image struct {
	Pix    []byte          // Pixel data, 2 bytes per pixel, big-endian
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage creates a new Image with the specified bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	stride := w * 2
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the Color of the pixel at (x, y).
func (p *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Black
	}
	i := p.PixOffset(x, y)
	return Color(uint16(p.Pix[i])<<8 | uint16(p.Pix[i+1]))
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the Color of the pixel at (x, y) without conversion.
func (p *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i] = byte(c >> 8)
	p.Pix[i+1] = byte(c)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// SubImage returns the rows and columns of p visible through r. The returned
// image shares pixels with p.
func (p *Image) SubImage(r image.Rectangle) *Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}
