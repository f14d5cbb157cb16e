// Package screen composites a character grid onto a pixel framebuffer.
//
// The Compositor keeps the logical grid of cells, the set of rows whose
// pixels are stale, a cache of rendered glyph bitmaps and the hardware scroll
// offset. Flush turns all of that into the smallest number of windowed
// framebuffer writes it can:
//
//   - each run of contiguous dirty rows becomes a single window and a single
//     pixel transfer;
//   - scrolling moves the grid up and only advances the scroll register, so
//     rows already on the panel are never redrawn, only the rows uncovered at
//     the bottom are.
//
// Logical row r is shown at panel line (offset + r*cellHeight) mod height,
// where height is the grid height in pixels. After a successful Flush the
// panel shows exactly the grid.
//
// Each bus transaction has a fixed cost that dominates small payloads, so on
// a scroll-heavy console this is one to two orders of magnitude fewer
// transactions than drawing every changed character on its own.
package screen
