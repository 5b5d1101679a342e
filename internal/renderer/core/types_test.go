package core

import (
	"testing"
)

func TestColorDefault(t *testing.T) {
	c := ColorDefault
	if !c.IsDefault() {
		t.Error("ColorDefault should be default")
	}
	if c.ToHex() != "" {
		t.Errorf("expected empty hex for default color, got %q", c.ToHex())
	}
}

func TestColorFromInt(t *testing.T) {
	c := ColorFromInt(0xFF8040)
	if c.R != 255 || c.G != 128 || c.B != 64 {
		t.Errorf("expected (255, 128, 64), got (%d, %d, %d)", c.R, c.G, c.B)
	}
	if !ColorFromInt(0).Equals(ColorBlack) {
		t.Error("0 should be black")
	}
	if !ColorFromInt(0xFFFFFF).Equals(ColorWhite) {
		t.Error("0xFFFFFF should be white")
	}
}

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b uint8
		wantErr bool
	}{
		{"#FF8040", 255, 128, 64, false},
		{"#ff8040", 255, 128, 64, false},
		{"FF8040", 255, 128, 64, false},
		{"#FFF", 255, 255, 255, false},
		{"#000", 0, 0, 0, false},
		{"invalid", 0, 0, 0, true},
		{"#GGG", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := ColorFromHex(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.hex)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.R != tt.r || c.G != tt.g || c.B != tt.b {
				t.Errorf("expected (%d, %d, %d), got (%d, %d, %d)", tt.r, tt.g, tt.b, c.R, c.G, c.B)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"black", ColorBlack, false},
		{"White", ColorWhite, false},
		{"default", ColorDefault, false},
		{"#ff0000", ColorRed, false},
		{"0x00ff00", ColorGreen, false},
		{"255", ColorBlue, false},
		{"0x1000000", Color{}, true},
		{"-1", Color{}, true},
		{"chartreuse-ish", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equals(tt.want) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestColorEquals(t *testing.T) {
	if !ColorFromIndex(4).Equals(ColorFromIndex(4)) {
		t.Error("same palette index should be equal")
	}
	if ColorFromIndex(4).Equals(ColorFromRGB(4, 0, 0)) {
		t.Error("indexed and RGB colors should differ")
	}
	if ColorDefault.Equals(ColorBlack) {
		t.Error("default should differ from black")
	}
}

func TestStyleInvert(t *testing.T) {
	s := NewStyle(ColorBlack, ColorWhite)
	inv := s.Invert()

	if !inv.Foreground.Equals(ColorWhite) || !inv.Background.Equals(ColorBlack) {
		t.Errorf("expected white on black, got %s on %s", inv.Foreground, inv.Background)
	}
	if !inv.Invert().Equals(s) {
		t.Error("double inversion should restore the original style")
	}
}

func TestAttributeHas(t *testing.T) {
	a := AttrBold.With(AttrReverse)
	if !a.Has(AttrBold) || !a.Has(AttrReverse) {
		t.Error("expected bold and reverse")
	}
	if a.Has(AttrUnderline) {
		t.Error("did not expect underline")
	}
}

func TestBlankCell(t *testing.T) {
	style := NewStyle(ColorRed, ColorBlue)
	c := BlankCell(style)

	if c.Rune != ' ' || c.Width != 1 {
		t.Errorf("expected space of width 1, got %q width %d", c.Rune, c.Width)
	}
	if !c.Style.Equals(style) {
		t.Error("blank cell should keep the given style")
	}
	if !c.IsEmpty() {
		t.Error("blank cell should be empty")
	}
}

func TestCellEquals(t *testing.T) {
	a := NewStyledCell('x', NewStyle(ColorBlack, ColorWhite))
	b := NewStyledCell('x', NewStyle(ColorBlack, ColorWhite))
	c := a.WithStyle(a.Style.Invert())

	if !a.Equals(b) {
		t.Error("identical cells should be equal")
	}
	if a.Equals(c) {
		t.Error("cells with different styles should differ")
	}
}

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'a', 1},
		{'\t', 0},
		{0x7F, 0},
		{'中', 2},
	}

	for _, tt := range tests {
		if got := RuneWidth(tt.r); got != tt.want {
			t.Errorf("RuneWidth(%q): expected %d, got %d", tt.r, tt.want, got)
		}
	}
}

func TestScreenRect(t *testing.T) {
	r := NewScreenRect(1, 2, 4, 8)

	if r.Width() != 6 || r.Height() != 3 {
		t.Errorf("expected 6x3, got %dx%d", r.Width(), r.Height())
	}
	if !r.Contains(2, 1) {
		t.Error("top-left corner should be inside")
	}
	if r.Contains(8, 1) || r.Contains(2, 4) {
		t.Error("exclusive edges should be outside")
	}
	if NewScreenRect(5, 5, 1, 1).Width() != 0 {
		t.Error("inverted rect should have zero width")
	}
}
