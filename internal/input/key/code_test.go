package key

import (
	"testing"

	"github.com/dshills/lispterm/internal/renderer/backend"
)

func TestNavigationDisjointFromChars(t *testing.T) {
	dirs := []rune{NavLeft, NavUp, NavRight, NavDown}
	for _, dir := range dirs {
		nav := Nav(dir)
		char := Char(dir)

		if nav == char {
			t.Errorf("navigation code %v should differ from character %q", nav, dir)
		}
		if !nav.IsNav(dir) || nav.IsChar(dir) {
			t.Errorf("Nav(%d) should only match as navigation", dir)
		}
		if char.IsNav(dir) || !char.IsChar(dir) {
			t.Errorf("Char(%d) should only match as a character", dir)
		}
	}
}

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{Char('a'), "a"},
		{Char(Enter), "<Enter>"},
		{Char(Backspace), "<Backspace>"},
		{Char(3), "<C-C>"},
		{Nav(NavLeft), "<Left>"},
		{Nav(NavDown), "<Down>"},
		{Nav(99), "<Nav 99>"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("String(): expected %q, got %q", tt.want, got)
		}
	}
}

func TestFromBackend(t *testing.T) {
	tests := []struct {
		name   string
		ev     backend.Event
		want   Code
		wantOK bool
	}{
		{"rune", backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'x'}, Char('x'), true},
		{"enter", backend.Event{Type: backend.EventKey, Key: backend.KeyEnter}, Char(13), true},
		{"backspace", backend.Event{Type: backend.EventKey, Key: backend.KeyBackspace}, Char(8), true},
		{"tab", backend.Event{Type: backend.EventKey, Key: backend.KeyTab}, Char(9), true},
		{"control", backend.Event{Type: backend.EventKey, Key: backend.KeyControl, Rune: 12}, Char(12), true},
		{"left", backend.Event{Type: backend.EventKey, Key: backend.KeyLeft}, Nav(NavLeft), true},
		{"up", backend.Event{Type: backend.EventKey, Key: backend.KeyUp}, Nav(NavUp), true},
		{"right", backend.Event{Type: backend.EventKey, Key: backend.KeyRight}, Nav(NavRight), true},
		{"down", backend.Event{Type: backend.EventKey, Key: backend.KeyDown}, Nav(NavDown), true},
		{"escape", backend.Event{Type: backend.EventKey, Key: backend.KeyEscape}, Code{}, false},
		{"home", backend.Event{Type: backend.EventKey, Key: backend.KeyHome}, Code{}, false},
		{"resize", backend.Event{Type: backend.EventResize, Width: 10, Height: 10}, Code{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromBackend(tt.ev)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
