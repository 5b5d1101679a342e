// Package editor reads one line of input from the key queue, echoing and
// repainting it on the console as it is edited.
package editor

import (
	"errors"

	"github.com/dshills/lispterm/internal/console"
	"github.com/dshills/lispterm/internal/input/dispatch"
	"github.com/dshills/lispterm/internal/input/key"
)

// ErrReadInProgress is returned by ReadLine while another line is being read.
var ErrReadInProgress = errors.New("line read already in progress")

// LineEditor collects one line at a time.
// It is not safe for concurrent use.
type LineEditor struct {
	con  *console.Console
	keys *dispatch.Queue

	buf      *EditBuffer
	drawn    int // runes painted by the last repaint
	onSubmit func(string)
}

// New creates a line editor drawing on con and reading from keys.
func New(con *console.Console, keys *dispatch.Queue) *LineEditor {
	e := &LineEditor{con: con, keys: keys}
	con.OnScroll(e.scrolled)
	return e
}

// ReadLine starts reading a line at the current cursor position.
// onSubmit runs with the text once Enter is pressed.
func (e *LineEditor) ReadLine(onSubmit func(string)) error {
	if e.buf != nil {
		return ErrReadInProgress
	}

	x, y := e.con.Position()
	e.buf = NewEditBuffer(x, y)
	e.drawn = 0
	e.onSubmit = onSubmit

	e.con.SetCursorVisible(true)
	e.keys.Request(e.handleKey)
	return nil
}

// Active reports whether a line is being read.
func (e *LineEditor) Active() bool {
	return e.buf != nil
}

// Buffer returns a copy of the line being read.
func (e *LineEditor) Buffer() (EditBuffer, bool) {
	if e.buf == nil {
		return EditBuffer{}, false
	}
	return e.buf.clone(), true
}

func (e *LineEditor) handleKey(c key.Code) {
	buf := e.buf
	if buf == nil {
		return
	}

	switch {
	case c.IsChar(key.Enter):
		e.submit()
		return
	case c.IsChar(key.Backspace):
		buf.Backspace()
	case c.IsNav(key.NavLeft):
		buf.Left()
	case c.IsNav(key.NavRight):
		buf.Right()
	case c.Navigation:
		// Up and Down are reserved.
	default:
		buf.Insert(c.Value)
	}

	e.repaint()
	e.keys.Request(e.handleKey)
}

// repaint draws the whole line from its origin, blanks cells left over
// from a longer previous version, and puts the cursor on the caret.
func (e *LineEditor) repaint() {
	buf := e.buf
	width, height := e.con.Size()

	started := false
	for i, r := range buf.Text {
		x, y := buf.CellOf(i, width)
		if y < 0 {
			// Scrolled off the top.
			continue
		}
		if !started {
			e.con.MoveTo(x, y)
			started = true
		}
		// Writes may scroll, which rebases buf.OriginY.
		e.con.WriteChar(r)
	}

	for i := buf.Len(); i < e.drawn; i++ {
		x, y := buf.CellOf(i, width)
		if y >= height {
			break
		}
		e.con.PutChar(x, y, ' ')
	}
	e.drawn = buf.Len()

	// A caret on a row scrolled off the top has no cell to highlight.
	cx, cy := buf.CellOf(buf.Caret, width)
	e.con.SetCursorVisible(cy >= 0)
	e.con.MoveTo(cx, cy)
}

func (e *LineEditor) submit() {
	width, _ := e.con.Size()
	text := e.buf.String()

	e.con.MoveTo(e.buf.CellOf(e.buf.Len(), width))
	e.con.SetCursorVisible(false)
	e.con.Newline()

	done := e.onSubmit
	e.buf = nil
	e.onSubmit = nil
	if done != nil {
		done(text)
	}
}

func (e *LineEditor) scrolled(lines int) {
	if e.buf != nil {
		e.buf.OriginY -= lines
	}
}
