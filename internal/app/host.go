package app

import (
	"github.com/dshills/lispterm/internal/renderer/core"
)

// sessionHost carries evaluator requests onto the session loop.
// Requests are posted in call order, and the worker posts an evaluation's
// result after the requests it made, so the console sees them in order.
type sessionHost struct {
	s *Session
}

func (h sessionHost) RequestClear() {
	h.post("clear", func() {
		fg, bg := h.s.con.Colors()
		h.s.con.Clear(fg, bg)
	})
}

func (h sessionHost) RequestColors(fg, bg core.Color) {
	h.post("color", func() {
		h.s.con.SetColors(fg, bg)
	})
}

func (h sessionHost) RequestOutput(s string) {
	h.post("output", func() {
		h.s.con.PrintString(s)
	})
}

func (h sessionHost) RequestQuit() {
	h.post("exit", func() {
		h.s.quitting = true
	})
}

func (h sessionHost) post(name string, fn func()) {
	ok := h.s.Post(func() {
		h.s.metrics.RecordHostRequest()
		fn()
	})
	if !ok {
		h.s.logger.Debug("dropped %s request: session ended", name)
	}
}
