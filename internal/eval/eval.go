// Package eval defines the evaluator collaborator used by the REPL.
//
// An Evaluator turns source text into a Result or an error. Evaluators
// never touch the console directly: the primitives they expose (clear the
// screen, set colors, print, quit) go through the Host they were created
// with.
package eval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/lispterm/internal/renderer/core"
)

// Errors returned by evaluators.
var (
	// ErrPanic wraps a panic recovered inside an evaluator.
	ErrPanic = errors.New("evaluator panic")

	// ErrClosed is returned when evaluating on a closed evaluator.
	ErrClosed = errors.New("evaluator is closed")

	// ErrUnknownEvaluator is returned for an unrecognized evaluator name.
	ErrUnknownEvaluator = errors.New("unknown evaluator")
)

// Result is the outcome of a successful evaluation.
type Result struct {
	// Repr is the printed representation of the value.
	Repr string

	// Defined is false when the expression produced no meaningful value.
	Defined bool
}

// Value returns a defined result with the given representation.
func Value(repr string) Result {
	return Result{Repr: repr, Defined: true}
}

// NoValue is the result of expressions without a meaningful value.
var NoValue = Result{}

// Evaluator evaluates source text.
// Implementations are not required to be safe for concurrent use; callers
// evaluate one expression at a time.
type Evaluator interface {
	// Name identifies the language, e.g. "scheme".
	Name() string

	// Evaluate parses and runs src.
	Evaluate(ctx context.Context, src string) (Result, error)

	// Close releases interpreter resources.
	Close() error
}

// Host is the set of capabilities an evaluator's primitives may request.
// Requests are asynchronous: the host applies them on its own loop, in
// the order they were made and before the evaluation's result is shown.
type Host interface {
	RequestClear()
	RequestColors(fg, bg core.Color)
	RequestOutput(s string)
	RequestQuit()
}

// NopHost ignores every request.
type NopHost struct{}

func (NopHost) RequestClear()                 {}
func (NopHost) RequestColors(_, _ core.Color) {}
func (NopHost) RequestOutput(string)          {}
func (NopHost) RequestQuit()                  {}

// RecoverPanic converts a panic in the calling function into an error
// wrapping ErrPanic. Use it as: defer eval.RecoverPanic(&err).
func RecoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrPanic, r)
	}
}

// Recorder is a Host that records requests, for testing.
type Recorder struct {
	Clears int
	Colors [][2]core.Color
	Output strings.Builder
	Quits  int
}

func (r *Recorder) RequestClear()                   { r.Clears++ }
func (r *Recorder) RequestColors(fg, bg core.Color) { r.Colors = append(r.Colors, [2]core.Color{fg, bg}) }
func (r *Recorder) RequestOutput(s string)          { r.Output.WriteString(s) }
func (r *Recorder) RequestQuit()                    { r.Quits++ }
