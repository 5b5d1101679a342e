package repl

import (
	"context"

	"github.com/dshills/lispterm/internal/console"
	"github.com/dshills/lispterm/internal/editor"
	"github.com/dshills/lispterm/internal/eval"
)

// ConsoleReader prints the prompt on the console and reads the line with
// the line editor.
type ConsoleReader struct {
	Console *console.Console
	Editor  *editor.LineEditor
}

// ReadLine implements LineReader.
func (r *ConsoleReader) ReadLine(prompt string, done func(string)) error {
	r.Console.PrintString(prompt)
	return r.Editor.ReadLine(done)
}

// SyncRunner evaluates on the calling goroutine.
type SyncRunner struct {
	Ctx       context.Context
	Evaluator eval.Evaluator
}

// Run implements Runner.
func (r *SyncRunner) Run(src string, done func(eval.Result, error)) {
	ctx := r.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	done(r.Evaluator.Evaluate(ctx, src))
}
