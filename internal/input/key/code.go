package key

import (
	"fmt"

	"github.com/dshills/lispterm/internal/renderer/backend"
)

// Character codes with editing meaning.
const (
	Backspace rune = 8
	Tab       rune = 9
	Enter     rune = 13
)

// Navigation directions. The values mirror the classic DOM key codes.
const (
	NavLeft  rune = 37
	NavUp    rune = 38
	NavRight rune = 39
	NavDown  rune = 40
)

// Code is a single key code awaiting the line editor.
type Code struct {
	// Value is the character code, or the direction for navigation codes.
	Value rune

	// Navigation marks arrow key codes.
	Navigation bool
}

// Char returns a character code.
func Char(r rune) Code {
	return Code{Value: r}
}

// Nav returns a navigation code for the given direction.
func Nav(dir rune) Code {
	return Code{Value: dir, Navigation: true}
}

// IsNav returns true if c is the navigation code for dir.
func (c Code) IsNav(dir rune) bool {
	return c.Navigation && c.Value == dir
}

// IsChar returns true if c is the character code r.
func (c Code) IsChar(r rune) bool {
	return !c.Navigation && c.Value == r
}

// String returns a readable form for logs and test failures.
func (c Code) String() string {
	if c.Navigation {
		switch c.Value {
		case NavLeft:
			return "<Left>"
		case NavUp:
			return "<Up>"
		case NavRight:
			return "<Right>"
		case NavDown:
			return "<Down>"
		}
		return fmt.Sprintf("<Nav %d>", c.Value)
	}
	switch c.Value {
	case Enter:
		return "<Enter>"
	case Backspace:
		return "<Backspace>"
	case Tab:
		return "<Tab>"
	}
	if c.Value < 32 {
		return fmt.Sprintf("<C-%c>", c.Value+'@')
	}
	return string(c.Value)
}

// FromBackend converts a backend key event into a code.
// Returns false for events that carry no code (resizes, function keys,
// Escape and the other keys that produce no key-press).
func FromBackend(ev backend.Event) (Code, bool) {
	if ev.Type != backend.EventKey {
		return Code{}, false
	}
	switch ev.Key {
	case backend.KeyRune, backend.KeyControl:
		return Char(ev.Rune), true
	case backend.KeyEnter:
		return Char(Enter), true
	case backend.KeyBackspace:
		return Char(Backspace), true
	case backend.KeyTab:
		return Char(Tab), true
	case backend.KeyLeft:
		return Nav(NavLeft), true
	case backend.KeyUp:
		return Nav(NavUp), true
	case backend.KeyRight:
		return Nav(NavRight), true
	case backend.KeyDown:
		return Nav(NavDown), true
	default:
		return Code{}, false
	}
}
