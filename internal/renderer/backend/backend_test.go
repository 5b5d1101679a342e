package backend

import (
	"testing"

	"github.com/dshills/lispterm/internal/renderer/core"
)

func TestNullBackendInit(t *testing.T) {
	b := NewNullBackend(80, 24)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	w, h := b.Size()
	if w != 80 || h != 24 {
		t.Errorf("expected size (80, 24), got (%d, %d)", w, h)
	}
}

func TestNullBackendSetGetCell(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	cell := core.NewStyledCell('X', core.DefaultStyle().WithForeground(core.ColorRed))
	b.SetCell(10, 5, cell)

	got := b.GetCell(10, 5)
	if !got.Equals(cell) {
		t.Errorf("cell mismatch: expected %+v, got %+v", cell, got)
	}

	// Out of bounds should be ignored/return empty
	b.SetCell(-1, 0, cell)
	b.SetCell(100, 0, cell)

	empty := b.GetCell(-1, 0)
	if !empty.Equals(core.EmptyCell()) {
		t.Error("out of bounds should return empty cell")
	}
}

func TestNullBackendFill(t *testing.T) {
	b := NewNullBackend(20, 10)
	b.Init()

	cell := core.BlankCell(core.NewStyle(core.ColorBlack, core.ColorWhite))
	b.Fill(core.NewScreenRect(0, 0, 10, 20), cell)

	if got := b.GetCell(19, 9); !got.Equals(cell) {
		t.Error("cell inside rect should be filled")
	}

	b.Fill(core.NewScreenRect(-5, -5, 50, 50), core.EmptyCell())
	if got := b.GetCell(0, 0); !got.Equals(core.EmptyCell()) {
		t.Error("oversized rect should be clipped, not skipped")
	}
}

func TestNullBackendClear(t *testing.T) {
	b := NewNullBackend(10, 3)
	b.Init()

	b.SetCell(1, 1, core.NewStyledCell('X', core.DefaultStyle()))
	b.Clear()

	if got := b.GetCell(1, 1); !got.Equals(core.EmptyCell()) {
		t.Error("clear should reset all cells")
	}
}

func TestNullBackendRow(t *testing.T) {
	b := NewNullBackend(5, 2)
	b.Init()

	for i, r := range "hi" {
		b.SetCell(i, 1, core.NewStyledCell(r, core.DefaultStyle()))
	}

	if got := b.Row(1); got != "hi   " {
		t.Errorf("expected %q, got %q", "hi   ", got)
	}
	if got := b.Row(7); got != "" {
		t.Errorf("expected empty row for out of range, got %q", got)
	}
}

func TestNullBackendEvents(t *testing.T) {
	b := NewNullBackend(10, 3)
	b.Init()

	b.PostEvent(Event{Type: EventKey, Key: KeyRune, Rune: 'a'})
	ev := b.PollEvent()
	if ev.Type != EventKey || ev.Rune != 'a' {
		t.Errorf("expected key event 'a', got %+v", ev)
	}

	b.Shutdown()
	b.Shutdown() // idempotent
	if ev := b.PollEvent(); ev.Type != EventNone {
		t.Errorf("expected EventNone after shutdown, got %+v", ev)
	}
}

func TestModMaskHas(t *testing.T) {
	m := ModCtrl | ModAlt
	if !m.Has(ModCtrl) || !m.Has(ModAlt) {
		t.Error("expected ctrl and alt")
	}
	if m.Has(ModShift) {
		t.Error("did not expect shift")
	}
}
