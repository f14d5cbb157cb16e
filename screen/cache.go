package screen

import (
	"github.com/flavioheleno/picocalc/font"
	"github.com/flavioheleno/picocalc/rgb565"
)

type glyphKey struct {
	glyph  rune
	fg, bg rgb565.Color
}

// GlyphCache holds rendered glyph bitmaps keyed by glyph and colours.
//
// Bitmaps are RGB565, cell width × cell height pixels, row major. A key always
// renders the same way so entries are never evicted; with a fixed palette the
// key space is finite.
type GlyphCache struct {
	face    *font.Face
	entries map[glyphKey][]byte

	hits, misses int
}

// NewGlyphCache returns an empty cache rendering from face.
func NewGlyphCache(face *font.Face) *GlyphCache {
	return &GlyphCache{
		face:    face,
		entries: make(map[glyphKey][]byte),
	}
}

// Get returns the bitmap for glyph in the given colours, rendering it on the
// first request. The returned slice must not be modified.
func (c *GlyphCache) Get(glyph rune, fg, bg rgb565.Color) []byte {
	k := glyphKey{glyph, fg, bg}
	if b, ok := c.entries[k]; ok {
		c.hits++
		return b
	}
	c.misses++
	b := c.render(glyph, fg, bg)
	c.entries[k] = b
	return b
}

// Len returns the number of cached bitmaps.
func (c *GlyphCache) Len() int {
	return len(c.entries)
}

func (c *GlyphCache) render(glyph rune, fg, bg rgb565.Color) []byte {
	w, h := c.face.Width, c.face.Height
	g := c.face.Glyph(glyph)
	f, b := fg.Bytes(), bg.Bytes()
	out := make([]byte, 0, w*h*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.face.Lit(g, x, y) {
				out = append(out, f[0], f[1])
			} else {
				out = append(out, b[0], b[1])
			}
		}
	}
	return out
}
