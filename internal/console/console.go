// Package console implements the cursor and scroll engine over a fixed
// character grid.
//
// The console owns the logical cursor and the active colors. Characters
// are written at the cursor and advance it; running off the right edge
// wraps, running off the bottom scrolls the grid up one row. Components
// that remember grid rows (the cursor highlighter, the line editor)
// register scroll hooks so their stored rows move with the content.
package console

import (
	"unicode"

	"github.com/dshills/lispterm/internal/renderer/core"
)

// Surface is the display the console draws on.
// backend.Backend satisfies it.
type Surface interface {
	Size() (width, height int)
	SetCell(x, y int, cell core.Cell)
	GetCell(x, y int) core.Cell
	Fill(rect core.ScreenRect, cell core.Cell)
}

// Console tracks the cursor over a Surface.
// It is not safe for concurrent use.
type Console struct {
	surface Surface
	width   int
	height  int

	x, y    int
	visible bool

	fg, bg core.Color

	scrollHooks []func(lines int)
	clearHooks  []func()
}

// New creates a console on surface with the given active colors.
// The grid size is read once; it is fixed for the console's lifetime.
func New(surface Surface, fg, bg core.Color) *Console {
	w, h := surface.Size()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Console{
		surface: surface,
		width:   w,
		height:  h,
		fg:      fg,
		bg:      bg,
	}
}

// Size returns the grid dimensions.
func (c *Console) Size() (width, height int) {
	return c.width, c.height
}

// Position returns the cursor cell.
func (c *Console) Position() (x, y int) {
	return c.x, c.y
}

// MoveTo places the cursor, clamped to the grid.
func (c *Console) MoveTo(x, y int) {
	c.x = clamp(x, 0, c.width-1)
	c.y = clamp(y, 0, c.height-1)
}

// SetColors sets the colors used by subsequent writes.
func (c *Console) SetColors(fg, bg core.Color) {
	c.fg, c.bg = fg, bg
}

// Colors returns the active foreground and background.
func (c *Console) Colors() (fg, bg core.Color) {
	return c.fg, c.bg
}

// Style returns the active colors as a style.
func (c *Console) Style() core.Style {
	return core.NewStyle(c.fg, c.bg)
}

// SetCursorVisible shows or hides the cursor highlight.
func (c *Console) SetCursorVisible(v bool) {
	c.visible = v
}

// CursorVisible reports whether the cursor should be highlighted.
func (c *Console) CursorVisible() bool {
	return c.visible
}

// OnScroll registers fn to run whenever the grid content moves up.
// lines is the number of rows the content moved.
func (c *Console) OnScroll(fn func(lines int)) {
	c.scrollHooks = append(c.scrollHooks, fn)
}

// OnClear registers fn to run after the grid is cleared.
func (c *Console) OnClear(fn func()) {
	c.clearHooks = append(c.clearHooks, fn)
}

// WriteChar writes r at the cursor in the active colors and advances.
func (c *Console) WriteChar(r rune) {
	c.surface.SetCell(c.x, c.y, c.cell(r))
	c.advance()
}

// PutChar writes r at (x, y) in the active colors without moving the
// cursor. Cells outside the grid are ignored.
func (c *Console) PutChar(x, y int, r rune) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.surface.SetCell(x, y, c.cell(r))
}

// Newline moves the cursor to column 0 of the next row.
func (c *Console) Newline() {
	c.x = 0
	c.y++
	if c.y >= c.height {
		c.scroll()
	}
}

// PrintString writes s, treating '\n' as a newline.
func (c *Console) PrintString(s string) {
	for _, r := range s {
		if r == '\n' {
			c.Newline()
			continue
		}
		c.WriteChar(r)
	}
}

// Clear blanks the grid to the given colors and homes the cursor.
// The active colors are unchanged.
func (c *Console) Clear(fg, bg core.Color) {
	blank := core.BlankCell(core.NewStyle(fg, bg))
	c.surface.Fill(core.NewScreenRect(0, 0, c.height, c.width), blank)
	c.x, c.y = 0, 0
	for _, fn := range c.clearHooks {
		fn()
	}
}

func (c *Console) cell(r rune) core.Cell {
	if !unicode.IsPrint(r) {
		r = ' '
	}
	return core.NewStyledCell(r, c.Style())
}

func (c *Console) advance() {
	c.x++
	if c.x >= c.width {
		c.x = 0
		c.y++
	}
	if c.y >= c.height {
		c.scroll()
	}
}

// scroll moves every row up by one, blanks the last row and keeps the
// cursor on the grid. Hooks run before scroll returns so no stored row
// is observed stale.
func (c *Console) scroll() {
	for y := 1; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			c.surface.SetCell(x, y-1, c.surface.GetCell(x, y))
		}
	}
	last := core.NewScreenRect(c.height-1, 0, c.height, c.width)
	c.surface.Fill(last, core.BlankCell(c.Style()))

	c.y--
	for _, fn := range c.scrollHooks {
		fn(1)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
