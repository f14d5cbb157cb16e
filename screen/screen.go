package screen

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/flavioheleno/picocalc/font"
	"github.com/flavioheleno/picocalc/rgb565"
)

// ErrOutOfBounds is returned for cell coordinates outside the grid.
var ErrOutOfBounds = errors.New("screen: out of bounds")

// Framebuffer is the pixel transport the compositor drives.
//
// SetWindow selects a rectangle with inclusive corners, WritePixels fills it
// row by row with RGB565 data and SetScrollStart sets the panel line shown at
// the top of the scroll area.
type Framebuffer interface {
	SetWindow(x0, y0, x1, y1 int) error
	WritePixels(pixels []byte) error
	SetScrollStart(line int) error
}

// bounded is implemented by framebuffers that know their size, such as
// *ili9488.Dev.
type bounded interface {
	Bounds() image.Rectangle
}

// Cell is one character position of the grid.
type Cell struct {
	Glyph  rune
	FG, BG rgb565.Color
}

// Opts is the configuration for a Compositor.
type Opts struct {
	// Grid size in cells. Zero derives it from the framebuffer bounds.
	Rows, Cols int

	// Colours of blank cells. When both are zero, White on Black is used.
	FG, BG rgb565.Color

	Logger *log.Logger
}

// Stats reports glyph cache usage.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

// Compositor maps a character grid onto a Framebuffer.
//
// All methods are safe for concurrent use; mutation and Flush exclude each
// other.
type Compositor struct {
	mu sync.Mutex

	fb    Framebuffer
	cache *GlyphCache
	log   *log.Logger

	cellW, cellH int
	rows, cols   int
	blank        Cell

	cells []Cell
	dirty []bool

	// Scroll state, in panel lines.
	offset  int
	height  int
	applied int // offset last written to the scroll register, -1 if never

	strip   []byte
	bitmaps [][]byte
}

// New returns a compositor drawing onto fb with face. face can be nil to use
// font.Basic(). opts can be nil when fb reports its bounds.
//
// The grid height in pixels is the hardware scroll height; when fb reports
// its bounds the two must match. Every row starts dirty, so the first Flush
// paints the whole grid.
func New(fb Framebuffer, face *font.Face, opts *Opts) (*Compositor, error) {
	if fb == nil {
		return nil, errors.New("screen: framebuffer is required")
	}
	if face == nil {
		face = font.Basic()
	}
	if opts == nil {
		opts = &Opts{}
	}

	rows, cols := opts.Rows, opts.Cols
	b, hasBounds := fb.(bounded)
	if hasBounds {
		r := b.Bounds()
		if rows == 0 {
			rows = r.Dy() / face.Height
		}
		if cols == 0 {
			cols = r.Dx() / face.Width
		}
		if cols*face.Width > r.Dx() {
			return nil, fmt.Errorf("screen: %d columns do not fit %d pixels", cols, r.Dx())
		}
		if rows*face.Height != r.Dy() {
			return nil, fmt.Errorf("screen: %d rows of %d pixels must fill the %d pixel scroll height", rows, face.Height, r.Dy())
		}
	}
	if rows <= 0 || cols <= 0 {
		return nil, errors.New("screen: grid must have at least one row and column")
	}

	fg, bg := opts.FG, opts.BG
	if fg == 0 && bg == 0 {
		fg = rgb565.White
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("screen")
	}

	c := &Compositor{
		fb:      fb,
		cache:   NewGlyphCache(face),
		log:     logger,
		cellW:   face.Width,
		cellH:   face.Height,
		rows:    rows,
		cols:    cols,
		blank:   Cell{Glyph: ' ', FG: fg, BG: bg},
		cells:   make([]Cell, rows*cols),
		dirty:   make([]bool, rows),
		height:  rows * face.Height,
		applied: -1,
		bitmaps: make([][]byte, cols),
	}
	c.fill()
	return c, nil
}

// Size returns the grid size in cells.
func (c *Compositor) Size() (rows, cols int) {
	return c.rows, c.cols
}

// CellSize returns the size of one cell in pixels.
func (c *Compositor) CellSize() image.Point {
	return image.Point{X: c.cellW, Y: c.cellH}
}

// Blank returns the cell used for cleared positions.
func (c *Compositor) Blank() Cell {
	return c.blank
}

// WriteCell sets one cell and marks its row dirty. Out of range coordinates
// return ErrOutOfBounds and change nothing.
func (c *Compositor) WriteCell(row, col int, glyph rune, fg, bg rgb565.Color) error {
	if err := c.check(row, col); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(row, col, Cell{Glyph: glyph, FG: fg, BG: bg})
	return nil
}

// WriteString writes s from (row, col) towards the end of the row and
// returns the number of cells written. Runes past the last column are
// dropped.
func (c *Compositor) WriteString(row, col int, s string, fg, bg rgb565.Color) (int, error) {
	if err := c.check(row, col); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range s {
		if col+n >= c.cols {
			break
		}
		c.set(row, col+n, Cell{Glyph: r, FG: fg, BG: bg})
		n++
	}
	return n, nil
}

// Cell returns the cell at (row, col).
func (c *Compositor) Cell(row, col int) (Cell, error) {
	if err := c.check(row, col); err != nil {
		return Cell{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cells[row*c.cols+col], nil
}

// Scroll moves the grid up by rows. The top rows are discarded, the rows
// uncovered at the bottom are blank and dirty, and the scroll offset
// advances so that the panel content already drawn stays valid. Nothing is
// sent to the framebuffer until Flush.
func (c *Compositor) Scroll(rows int) {
	if rows <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset = (c.offset + rows*c.cellH) % c.height

	n := min(rows, c.rows)
	copy(c.cells, c.cells[n*c.cols:])
	copy(c.dirty, c.dirty[n:])
	for r := c.rows - n; r < c.rows; r++ {
		row := c.cells[r*c.cols : (r+1)*c.cols]
		for i := range row {
			row[i] = c.blank
		}
		c.dirty[r] = true
	}
}

// Offset returns the scroll offset in panel lines.
func (c *Compositor) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Clear blanks the grid and resets the scroll offset. The next Flush
// repaints every row and rewinds the scroll register.
func (c *Compositor) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
	c.fill()
}

// Redraw marks every row dirty so the next Flush repaints the whole grid.
// Use it after something else drew on the panel.
func (c *Compositor) Redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for r := range c.dirty {
		c.dirty[r] = true
	}
}

// DirtyRows returns the rows waiting for Flush, in ascending order.
func (c *Compositor) DirtyRows() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []int
	for r, d := range c.dirty {
		if d {
			out = append(out, r)
		}
	}
	return out
}

// Flush sends every dirty row to the framebuffer, one window per run of
// contiguous rows, then updates the scroll register if the offset changed.
//
// A run is split where its panel lines would wrap past the bottom of the
// scroll area. When a write fails, the rows of that run and every later run
// stay dirty and Flush returns; rows already written stay clean.
func (c *Compositor) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	runs := 0
	for r := 0; r < c.rows; {
		if !c.dirty[r] {
			r++
			continue
		}
		end := r + 1
		for end < c.rows && c.dirty[end] && c.line(end) != 0 {
			end++
		}
		if err := c.writeRows(r, end); err != nil {
			return fmt.Errorf("screen: flush rows %d-%d: %w", r, end-1, err)
		}
		for i := r; i < end; i++ {
			c.dirty[i] = false
		}
		runs++
		r = end
	}

	if c.applied != c.offset {
		if err := c.fb.SetScrollStart(c.offset); err != nil {
			return fmt.Errorf("screen: set scroll start %d: %w", c.offset, err)
		}
		c.applied = c.offset
	}
	if runs > 0 {
		c.log.Debug("flushed", "runs", runs, "offset", c.offset)
	}
	return nil
}

// CharBitmap returns the RGB565 bitmap for glyph in the given colours,
// rendering and caching it on first use.
func (c *Compositor) CharBitmap(glyph rune, fg, bg rgb565.Color) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(glyph, fg, bg)
}

// CacheStats returns glyph cache counters.
func (c *Compositor) CacheStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: c.cache.Len(), Hits: c.cache.hits, Misses: c.cache.misses}
}

func (c *Compositor) check(row, col int) error {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return fmt.Errorf("%w: cell (%d, %d) outside %dx%d grid", ErrOutOfBounds, row, col, c.rows, c.cols)
	}
	return nil
}

func (c *Compositor) set(row, col int, cell Cell) {
	c.cells[row*c.cols+col] = cell
	c.dirty[row] = true
}

// fill blanks every cell and dirties every row.
func (c *Compositor) fill() {
	for i := range c.cells {
		c.cells[i] = c.blank
	}
	for r := range c.dirty {
		c.dirty[r] = true
	}
}

// line returns the panel line where logical row r starts.
func (c *Compositor) line(r int) int {
	return (c.offset + r*c.cellH) % c.height
}

// writeRows renders rows [from, to) into one strip and sends it as a single
// window.
func (c *Compositor) writeRows(from, to int) error {
	rowBytes := c.cellW * 2
	size := (to - from) * c.cellH * c.cols * rowBytes
	if cap(c.strip) < size {
		c.strip = make([]byte, 0, size)
	}
	strip := c.strip[:0]

	for r := from; r < to; r++ {
		for col := 0; col < c.cols; col++ {
			cell := c.cells[r*c.cols+col]
			c.bitmaps[col] = c.cache.Get(cell.Glyph, cell.FG, cell.BG)
		}
		for y := 0; y < c.cellH; y++ {
			for _, bm := range c.bitmaps {
				strip = append(strip, bm[y*rowBytes:(y+1)*rowBytes]...)
			}
		}
	}

	y0 := c.line(from)
	y1 := y0 + (to-from)*c.cellH - 1
	if err := c.fb.SetWindow(0, y0, c.cols*c.cellW-1, y1); err != nil {
		return err
	}
	return c.fb.WritePixels(strip)
}
