// Package repl implements the prompt, read, evaluate, print cycle.
//
// The Driver is a small state machine. It asks a LineReader for lines,
// accumulates them until the brackets balance, hands the text to a Runner
// and prints what comes back. Every step completes through a callback, so
// the driver works the same whether lines and results arrive immediately
// (tests, plain mode) or later from an event loop.
package repl

import (
	"fmt"
	"strings"

	"github.com/dshills/lispterm/internal/eval"
)

// State is the driver's position in the cycle.
type State int

const (
	// StateFresh means no text is accumulated; the next prompt is the
	// primary one.
	StateFresh State = iota
	// StateContinuing means accumulated text has unbalanced brackets.
	StateContinuing
	// StateEvaluating means text was handed to the Runner and the driver
	// is waiting for its result.
	StateEvaluating
	// StateStopped means Stop was called.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateContinuing:
		return "continuing"
	case StateEvaluating:
		return "evaluating"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// LineReader shows prompt and reads one line, calling done with it.
type LineReader interface {
	ReadLine(prompt string, done func(line string)) error
}

// Printer receives everything the driver prints.
type Printer interface {
	PrintString(s string)
}

// Runner evaluates src and calls done with the outcome.
type Runner interface {
	Run(src string, done func(eval.Result, error))
}

// Logger is the subset of the application logger used by the driver.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options are the driver's prompts and layout.
type Options struct {
	Prompt             string
	ContinuationPrompt string
	ResultPrefix       string
	IndentWidth        int
}

// DefaultOptions returns the standard prompts.
func DefaultOptions() Options {
	return Options{
		Prompt:             "> ",
		ContinuationPrompt: "..",
		ResultPrefix:       "=> ",
		IndentWidth:        2,
	}
}

// Driver runs the REPL cycle.
// It is not safe for concurrent use; callbacks must arrive on the goroutine
// that owns the driver.
type Driver struct {
	in     LineReader
	out    Printer
	run    Runner
	opts   Options
	logger Logger

	state  State
	lines  []string
	depth  int
	indent int
	evals  int
}

// NewDriver creates a driver. logger may be nil.
func NewDriver(in LineReader, out Printer, run Runner, opts Options, logger Logger) *Driver {
	return &Driver{
		in:     in,
		out:    out,
		run:    run,
		opts:   opts,
		logger: logger,
	}
}

// Start shows the first prompt.
func (d *Driver) Start() error {
	return d.prompt()
}

// Stop ends the cycle. Callbacks that arrive afterwards are ignored.
func (d *Driver) Stop() {
	d.state = StateStopped
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Depth returns the nesting depth of the accumulated text.
func (d *Driver) Depth() int {
	return d.depth
}

// Accumulated returns the text collected so far for the next evaluation.
func (d *Driver) Accumulated() string {
	return strings.Join(d.lines, "\n")
}

// Evaluations returns how many times the Runner has been invoked.
func (d *Driver) Evaluations() int {
	return d.evals
}

// CurrentPrompt returns the prompt for the current state.
func (d *Driver) CurrentPrompt() string {
	if d.state == StateContinuing {
		return d.opts.ContinuationPrompt + strings.Repeat(" ", d.indent)
	}
	return d.opts.Prompt
}

func (d *Driver) prompt() error {
	if d.state == StateStopped {
		return nil
	}
	if err := d.in.ReadLine(d.CurrentPrompt(), d.lineRead); err != nil {
		return fmt.Errorf("read line: %w", err)
	}
	return nil
}

func (d *Driver) lineRead(line string) {
	if d.state == StateStopped {
		return
	}

	d.lines = append(d.lines, line)
	src := d.Accumulated()
	d.depth = NestingDepth(src)

	if d.depth != 0 {
		d.state = StateContinuing
		d.indent = Indent(d.depth, d.opts.IndentWidth)
		d.debug("continuing at depth %d", d.depth)
		d.next()
		return
	}

	d.reset()
	if strings.TrimSpace(src) == "" {
		d.next()
		return
	}

	d.state = StateEvaluating
	d.evals++
	d.debug("evaluating %d bytes", len(src))
	d.run.Run(src, d.evaluated)
}

func (d *Driver) evaluated(res eval.Result, err error) {
	if d.state == StateStopped {
		return
	}

	switch {
	case err != nil:
		d.out.PrintString(err.Error() + "\n")
	case res.Defined:
		d.out.PrintString(d.opts.ResultPrefix + res.Repr + "\n")
	}

	d.state = StateFresh
	d.next()
}

// reset drops the continuation state.
func (d *Driver) reset() {
	d.lines = d.lines[:0]
	d.depth = 0
	d.indent = 0
	d.state = StateFresh
}

func (d *Driver) next() {
	if err := d.prompt(); err != nil && d.logger != nil {
		d.logger.Error("%v", err)
	}
}

func (d *Driver) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
