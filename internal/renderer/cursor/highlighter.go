// Package cursor paints the console cursor on each render tick.
//
// The grid holds only true cell content between ticks except for the one
// cell the Highlighter has painted. The Highlighter keeps that cell's true
// content so it can put it back when the cursor moves, is hidden, or the
// content underneath is rewritten.
package cursor

import (
	"github.com/dshills/lispterm/internal/renderer/core"
)

// Style represents the visual appearance of the cursor.
type Style uint8

const (
	// StyleBlock swaps the cell's foreground and background.
	StyleBlock Style = iota
	// StyleUnderline underlines the cell.
	StyleUnderline
)

// StyleFromString converts a string name to a cursor style.
func StyleFromString(s string) Style {
	switch s {
	case "underline", "underscore":
		return StyleUnderline
	default:
		return StyleBlock
	}
}

// String returns the string representation of a cursor style.
func (s Style) String() string {
	switch s {
	case StyleUnderline:
		return "underline"
	default:
		return "block"
	}
}

// Grid is the cell storage the highlighter paints on.
type Grid interface {
	Size() (width, height int)
	GetCell(x, y int) core.Cell
	SetCell(x, y int, cell core.Cell)
}

// Source reports where the cursor is and whether it is shown.
// console.Console satisfies it.
type Source interface {
	Position() (x, y int)
	CursorVisible() bool
}

// Highlighter paints the cursor cell in inverse video.
// It is not safe for concurrent use; call it from the loop that owns the
// grid.
type Highlighter struct {
	grid  Grid
	src   Source
	style Style

	// Position and visibility seen on the last tick.
	x, y  int
	shown bool

	// tracking is false until the first tick and after Reset; while false
	// there is no valid painted cell to restore.
	tracking bool

	saved   core.Cell // true content of the tracked cell
	paint   core.Cell // what we drew over it
	painted bool
}

// New creates a highlighter for src drawing on grid.
func New(grid Grid, src Source, style Style) *Highlighter {
	return &Highlighter{grid: grid, src: src, style: style}
}

// SetStyle changes the cursor style. Takes effect on the next tick.
func (h *Highlighter) SetStyle(style Style) {
	h.style = style
}

// Reset forgets the painted cell. Call it after the grid is cleared.
func (h *Highlighter) Reset() {
	h.tracking = false
	h.painted = false
}

// Scrolled moves the tracked row up with the grid content.
func (h *Highlighter) Scrolled(lines int) {
	h.y -= lines
}

// Tick runs once per render tick.
func (h *Highlighter) Tick() {
	x, y := h.src.Position()
	visible := h.src.CursorVisible()

	if !h.tracking || x != h.x || y != h.y || visible != h.shown {
		h.restore()
		h.x, h.y, h.shown = x, y, visible
		h.tracking = true
		h.painted = false
		h.saved = h.grid.GetCell(x, y)
	}

	if !visible || !h.inBounds(h.x, h.y) {
		return
	}

	cur := h.grid.GetCell(h.x, h.y)
	if h.painted && !cur.Equals(h.paint) {
		// Rewritten underneath since the last tick.
		h.saved = cur
	}

	h.paint = h.highlight(h.saved)
	h.grid.SetCell(h.x, h.y, h.paint)
	h.painted = true
}

// Saved returns the true content of the cursor cell as last captured.
func (h *Highlighter) Saved() core.Cell {
	return h.saved
}

// restore puts the true content back on the previously painted cell.
// A cell whose content no longer matches our paint was overwritten by
// the console and already holds true data.
func (h *Highlighter) restore() {
	if !h.tracking || !h.painted || !h.inBounds(h.x, h.y) {
		return
	}
	if h.grid.GetCell(h.x, h.y).Equals(h.paint) {
		h.grid.SetCell(h.x, h.y, h.saved)
	}
	h.painted = false
}

func (h *Highlighter) highlight(c core.Cell) core.Cell {
	switch h.style {
	case StyleUnderline:
		s := c.Style
		s.Attributes = s.Attributes.With(core.AttrUnderline)
		return c.WithStyle(s)
	default:
		return c.WithStyle(c.Style.Invert())
	}
}

func (h *Highlighter) inBounds(x, y int) bool {
	w, ht := h.grid.Size()
	return x >= 0 && x < w && y >= 0 && y < ht
}
