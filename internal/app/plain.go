package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/dshills/lispterm/internal/config"
	"github.com/dshills/lispterm/internal/eval"
	"github.com/dshills/lispterm/internal/renderer/core"
	"github.com/dshills/lispterm/internal/repl"
)

// Prompter reads one line after showing a prompt.
// *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// PlainOptions configures a PlainSession.
type PlainOptions struct {
	Repl   config.ReplConfig
	Logger *Logger

	// Evaluator overrides the one named by Repl.Evaluator.
	Evaluator eval.Evaluator

	// Prompter and Output default to a liner prompt on the terminal and
	// os.Stdout.
	Prompter Prompter
	Output   io.Writer
}

// PlainSession runs the REPL on a line-oriented terminal or pipe.
// It runs the driver synchronously on the calling goroutine.
type PlainSession struct {
	opts      PlainOptions
	logger    *Logger
	out       io.Writer
	prompter  Prompter
	evaluator eval.Evaluator
	ansi      bool

	// pending is the read the driver is waiting on.
	prompt  string
	pending func(string)
	quit    bool
	colored bool

	closeLiner func() error
}

// NewPlainSession creates a plain session.
func NewPlainSession(opts PlainOptions) (*PlainSession, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NullLogger
	}

	p := &PlainSession{
		opts:       opts,
		logger:     logger.WithComponent("plain"),
		out:        opts.Output,
		prompter:   opts.Prompter,
		closeLiner: func() error { return nil },
	}
	if p.out == nil {
		p.out = os.Stdout
		p.ansi = term.IsTerminal(int(os.Stdout.Fd()))
	}

	p.evaluator = opts.Evaluator
	if p.evaluator == nil {
		ev, err := NewEvaluator(opts.Repl.Evaluator, plainHost{p}, opts.Repl.EvalTimeout)
		if err != nil {
			return nil, err
		}
		p.evaluator = ev
	}
	return p, nil
}

// Host returns the host that carries evaluator primitives to this session.
func (p *PlainSession) Host() eval.Host {
	return plainHost{p}
}

// Run reads, evaluates and prints until end of input, a quit request or
// ctx cancellation. End of input returns nil; a quit returns ErrQuit.
func (p *PlainSession) Run(ctx context.Context) error {
	if p.prompter == nil {
		l := liner.NewLiner()
		l.SetCtrlCAborts(true)
		p.prompter = l
		p.closeLiner = l.Close
	}
	defer func() {
		if p.colored {
			fmt.Fprint(p.out, "\x1b[0m")
		}
		if err := p.closeLiner(); err != nil {
			p.logger.Warn("close line reader: %v", err)
		}
		if err := p.evaluator.Close(); err != nil {
			p.logger.Warn("%v", NewComponentError("evaluator", "close", err))
		}
	}()

	runner := &repl.SyncRunner{Ctx: ctx, Evaluator: p.evaluator}
	driver := repl.NewDriver(p, p, runner, replOptions(p.opts.Repl), p.logger)
	if err := driver.Start(); err != nil {
		return NewComponentError("repl", "start", err)
	}

	// Each pass answers one read; the driver's callbacks only record the
	// next one, so the stack stays flat.
	for p.pending != nil {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := p.prompter.Prompt(p.prompt)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(p.out)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			return ErrQuit
		case err != nil:
			return WrapError(err, "read line")
		}
		if line != "" {
			p.prompter.AppendHistory(line)
		}

		done := p.pending
		p.pending = nil
		done(line)

		if p.quit {
			return ErrQuit
		}
	}
	return nil
}

// ReadLine implements repl.LineReader by recording the request.
func (p *PlainSession) ReadLine(prompt string, done func(string)) error {
	p.prompt = prompt
	p.pending = done
	return nil
}

// PrintString implements repl.Printer.
func (p *PlainSession) PrintString(s string) {
	fmt.Fprint(p.out, s)
}

// plainHost applies evaluator requests immediately; the plain session has
// no loop to post to.
type plainHost struct {
	p *PlainSession
}

func (h plainHost) RequestClear() {
	if h.p.ansi {
		fmt.Fprint(h.p.out, "\x1b[2J\x1b[H")
	}
}

func (h plainHost) RequestColors(fg, bg core.Color) {
	if !h.p.ansi {
		h.p.logger.Debug("ignoring colors %s on %s: output is not a terminal", fg, bg)
		return
	}
	fmt.Fprint(h.p.out, sgr(fg, 38)+sgr(bg, 48))
	h.p.colored = true
}

// sgr returns the escape sequence selecting c; base is 38 for the
// foreground and 48 for the background.
func sgr(c core.Color, base int) string {
	switch {
	case c.IsDefault():
		return fmt.Sprintf("\x1b[%dm", base+1)
	case c.Indexed:
		return fmt.Sprintf("\x1b[%d;5;%dm", base, c.R)
	default:
		return fmt.Sprintf("\x1b[%d;2;%d;%d;%dm", base, c.R, c.G, c.B)
	}
}

func (h plainHost) RequestOutput(s string) {
	fmt.Fprint(h.p.out, s)
}

func (h plainHost) RequestQuit() {
	h.p.quit = true
}
