// Package dispatch matches incoming key codes against pending key reads.
//
// A reader calls Request with a single-shot continuation; the next key
// delivered from either event source (navigation or character) is handed
// to the oldest pending continuation. Keys that arrive while nothing is
// waiting are dropped.
package dispatch

import (
	"github.com/dshills/lispterm/internal/input/key"
)

// Logger is the subset of the application logger used by the queue.
type Logger interface {
	Debug(msg string, args ...any)
}

// Queue is a FIFO of pending key reads.
// It is not safe for concurrent use; the owning session loop is its only
// caller.
type Queue struct {
	pending []func(key.Code)
	dropped int
	logger  Logger
}

// NewQueue creates an empty queue. logger may be nil.
func NewQueue(logger Logger) *Queue {
	return &Queue{logger: logger}
}

// Request enqueues fn to receive the next key code.
// Callers issue at most one request per outstanding read.
func (q *Queue) Request(fn func(key.Code)) {
	if fn == nil {
		return
	}
	q.pending = append(q.pending, fn)
}

// Deliver hands c to the oldest pending read.
// Returns false if no read was pending and the key was dropped.
func (q *Queue) Deliver(c key.Code) bool {
	if len(q.pending) == 0 {
		q.dropped++
		if q.logger != nil {
			q.logger.Debug("dropped key %v: no pending read", c)
		}
		return false
	}

	fn := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]

	// The continuation may request the next key, so it runs after the
	// entry has been removed.
	fn(c)
	return true
}

// DeliverNavigation delivers an arrow key.
func (q *Queue) DeliverNavigation(dir rune) bool {
	return q.Deliver(key.Nav(dir))
}

// DeliverChar delivers a character code. Enter, Backspace and every other
// non-arrow code travel this way.
func (q *Queue) DeliverChar(code rune) bool {
	return q.Deliver(key.Char(code))
}

// Pending returns the number of reads awaiting a key.
func (q *Queue) Pending() int {
	return len(q.pending)
}

// Dropped returns the number of keys that arrived with no pending read.
func (q *Queue) Dropped() int {
	return q.dropped
}
