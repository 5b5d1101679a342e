package editor

// EditBuffer is the line being typed.
// Caret is the insertion index into Text; 0 <= Caret <= len(Text) holds
// after every method. OriginX and OriginY are the grid cell where the
// line starts.
type EditBuffer struct {
	Text    []rune
	Caret   int
	OriginX int
	OriginY int
}

// NewEditBuffer creates an empty buffer starting at (x, y).
func NewEditBuffer(x, y int) *EditBuffer {
	return &EditBuffer{OriginX: x, OriginY: y}
}

// Insert puts r at the caret and moves the caret past it.
func (b *EditBuffer) Insert(r rune) {
	b.Text = append(b.Text, 0)
	copy(b.Text[b.Caret+1:], b.Text[b.Caret:])
	b.Text[b.Caret] = r
	b.Caret++
}

// Backspace removes the rune before the caret.
// Returns false at the start of the line.
func (b *EditBuffer) Backspace() bool {
	if b.Caret == 0 {
		return false
	}
	b.Text = append(b.Text[:b.Caret-1], b.Text[b.Caret:]...)
	b.Caret--
	return true
}

// Left moves the caret back one rune. Returns false at the start.
func (b *EditBuffer) Left() bool {
	if b.Caret == 0 {
		return false
	}
	b.Caret--
	return true
}

// Right moves the caret forward one rune. Returns false at the end.
func (b *EditBuffer) Right() bool {
	if b.Caret >= len(b.Text) {
		return false
	}
	b.Caret++
	return true
}

// String returns the text.
func (b *EditBuffer) String() string {
	return string(b.Text)
}

// Len returns the number of runes in the line.
func (b *EditBuffer) Len() int {
	return len(b.Text)
}

// CellOf returns the grid cell of rune index i on a grid of the given
// width. Rows above the grid come back negative.
func (b *EditBuffer) CellOf(i, width int) (x, y int) {
	off := b.OriginX + i
	return off % width, b.OriginY + off/width
}

// clone returns a deep copy.
func (b *EditBuffer) clone() EditBuffer {
	c := *b
	c.Text = append([]rune(nil), b.Text...)
	return c
}
