// Package font holds fixed-size monochrome glyph tables for character cell
// displays.
//
// A glyph is Height bytes, one per pixel line, with the leftmost pixel in the
// most significant bit. Cells are at most 8 pixels wide.
package font

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Fallback is rendered for runes missing from a Face.
const Fallback = '?'

// Face is a read-only glyph table.
type Face struct {
	Width  int
	Height int

	glyphs map[rune][]byte
	blank  []byte
}

// New creates a Face from a glyph table. Every glyph must have exactly height
// lines.
func New(width, height int, glyphs map[rune][]byte) (*Face, error) {
	if width <= 0 || width > 8 {
		return nil, errors.New("font: width must be between 1 and 8")
	}
	if height <= 0 {
		return nil, errors.New("font: height must be positive")
	}
	f := &Face{
		Width:  width,
		Height: height,
		glyphs: make(map[rune][]byte, len(glyphs)),
		blank:  make([]byte, height),
	}
	for r, g := range glyphs {
		if len(g) != height {
			return nil, fmt.Errorf("font: glyph %q has %d lines, want %d", r, len(g), height)
		}
		f.glyphs[r] = append([]byte(nil), g...)
	}
	return f, nil
}

// Size returns the cell size in pixels.
func (f *Face) Size() image.Point {
	return image.Point{X: f.Width, Y: f.Height}
}

// Has reports whether r has its own glyph.
func (f *Face) Has(r rune) bool {
	_, ok := f.glyphs[r]
	return ok
}

// Glyph returns the bitmap for r, the Fallback glyph when r is missing, or a
// blank cell when neither exists. The returned slice must not be modified.
func (f *Face) Glyph(r rune) []byte {
	if g, ok := f.glyphs[r]; ok {
		return g
	}
	if g, ok := f.glyphs[Fallback]; ok {
		return g
	}
	return f.blank
}

// Lit reports whether the pixel at (x, y) of glyph g is set.
func (f *Face) Lit(g []byte, x, y int) bool {
	return g[y]&(0x80>>uint(x)) != 0
}

// Basic returns the 8x16 printable ASCII face. It is built once from
// basicfont.Face7x13, with one blank line above each glyph.
var Basic = sync.OnceValue(func() *Face {
	const w, h = 8, 16
	src := basicfont.Face7x13
	glyphs := make(map[rune][]byte, 0x7F-0x20)
	for r := rune(0x20); r < 0x7F; r++ {
		dr, mask, mp, _, ok := src.Glyph(fixed.P(0, src.Ascent+1), r)
		if !ok {
			continue
		}
		g := make([]byte, h)
		for y := 0; y < dr.Dy(); y++ {
			py := dr.Min.Y + y
			if py < 0 || py >= h {
				continue
			}
			for x := 0; x < dr.Dx(); x++ {
				px := dr.Min.X + x
				if px < 0 || px >= w {
					continue
				}
				if _, _, _, a := mask.At(mp.X+x, mp.Y+y).RGBA(); a >= 0x8000 {
					g[py] |= 0x80 >> uint(px)
				}
			}
		}
		glyphs[r] = g
	}
	f, err := New(w, h, glyphs)
	if err != nil {
		panic(err)
	}
	return f
})
