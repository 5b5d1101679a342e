// Package key provides the key codes delivered to the line editor.
//
// Input reaches the editor as a stream of Code values. A Code is either a
// character code (printable characters, Enter, Backspace and any other
// control character) or a navigation code for one of the four arrow keys.
// The two spaces are kept apart by the Navigation tag, so a navigation
// code never compares equal to a character code even when their numeric
// values collide:
//
//	key.Char('%') != key.Nav(key.NavLeft) // both carry 37
//
// FromBackend converts display backend events into codes.
package key
