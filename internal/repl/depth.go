package repl

// NestingDepth returns the number of open brackets in text minus the
// number of closing ones. '(' and '[' open, ')' and ']' close; every other
// character is ignored, including brackets inside string literals and
// comments. The result is not clamped and goes negative on surplus
// closing brackets.
func NestingDepth(text string) int {
	depth := 0
	for _, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
	}
	return depth
}

// Indent returns the continuation indent for depth: width spaces per open
// bracket, none for depth <= 0.
func Indent(depth, width int) int {
	if depth <= 0 || width <= 0 {
		return 0
	}
	return depth * width
}
