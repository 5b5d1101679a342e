// Package scheme adapts the golisp interpreter to the eval.Evaluator
// interface.
//
// golisp keeps primitives in its global environment, so the terminal
// primitives are registered once per process. Each Evaluator binds a
// handle to itself in its own frame; a primitive finds the host of the
// evaluator it was called from by looking that handle up in the calling
// environment.
package scheme

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/steelseries/golisp"

	"github.com/dshills/lispterm/internal/eval"
	"github.com/dshills/lispterm/internal/renderer/core"
)

const (
	hostSymbol = "*lispterm-host*"
	hostType   = "lispterm-host"
)

var registerOnce sync.Once

// Evaluator evaluates Scheme source in a private frame below the golisp
// global environment.
type Evaluator struct {
	host   eval.Host
	env    *golisp.SymbolTableFrame
	self   *golisp.Data
	closed bool
}

// New creates a Scheme evaluator whose primitives talk to host.
func New(host eval.Host) (*Evaluator, error) {
	if host == nil {
		host = eval.NopHost{}
	}
	registerOnce.Do(registerPrimitives)

	e := &Evaluator{host: host}
	e.env = golisp.NewSymbolTableFrameBelow(golisp.Global, "lispterm")
	e.self = golisp.ObjectWithTypeAndValue(hostType, unsafe.Pointer(e))
	if _, err := e.env.BindLocallyTo(golisp.Intern(hostSymbol), e.self); err != nil {
		return nil, fmt.Errorf("bind host: %w", err)
	}
	return e, nil
}

// Name implements eval.Evaluator.
func (e *Evaluator) Name() string {
	return "scheme"
}

// Evaluate implements eval.Evaluator. golisp cannot be interrupted, so
// ctx is only checked before evaluation starts.
func (e *Evaluator) Evaluate(ctx context.Context, src string) (res eval.Result, err error) {
	if e.closed {
		return eval.NoValue, eval.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return eval.NoValue, err
	}

	defer eval.RecoverPanic(&err)

	d, err := golisp.ParseAndEvalAllInEnvironment(src, e.env)
	if err != nil {
		return eval.NoValue, err
	}
	return resultOf(d), nil
}

// Close implements eval.Evaluator.
func (e *Evaluator) Close() error {
	e.closed = true
	return nil
}

// resultOf maps golisp values onto results. The empty list doubles as
// golisp's "no value", so it prints nothing.
func resultOf(d *golisp.Data) eval.Result {
	if golisp.NilP(d) {
		return eval.NoValue
	}
	return eval.Value(golisp.String(d))
}

func registerPrimitives() {
	golisp.MakePrimitiveFunction("clear", "0", clearImpl)
	golisp.MakePrimitiveFunction("color", "2", colorImpl)
	golisp.MakePrimitiveFunction("exit", "0", exitImpl)
	golisp.MakePrimitiveFunction("display", "1", displayImpl)
	golisp.MakePrimitiveFunction("newline", "0", newlineImpl)
}

func hostOf(env *golisp.SymbolTableFrame) (eval.Host, error) {
	d := env.ValueOf(golisp.Intern(hostSymbol))
	if !golisp.ObjectP(d) || golisp.ObjectType(d) != hostType {
		return nil, fmt.Errorf("terminal primitives are not available here")
	}
	return (*Evaluator)(golisp.ObjectValue(d)).host, nil
}

func clearImpl(_ *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	host, err := hostOf(env)
	if err != nil {
		return nil, err
	}
	host.RequestClear()
	return nil, nil
}

func colorImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	host, err := hostOf(env)
	if err != nil {
		return nil, err
	}
	fg, err := colorArg(golisp.Car(args))
	if err != nil {
		return nil, err
	}
	bg, err := colorArg(golisp.Cadr(args))
	if err != nil {
		return nil, err
	}
	host.RequestColors(fg, bg)
	return nil, nil
}

// colorArg accepts a packed 0xRRGGBB integer or a color string.
func colorArg(d *golisp.Data) (core.Color, error) {
	switch {
	case golisp.IntegerP(d):
		v := golisp.IntegerValue(d)
		if v < 0 || v > 0xFFFFFF {
			return core.Color{}, fmt.Errorf("color: %d out of range", v)
		}
		return core.ColorFromInt(v), nil
	case golisp.StringP(d), golisp.SymbolP(d):
		return core.ParseColor(golisp.StringValue(d))
	default:
		return core.Color{}, fmt.Errorf("color expects an integer or string, got %s", golisp.String(d))
	}
}

func exitImpl(_ *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	host, err := hostOf(env)
	if err != nil {
		return nil, err
	}
	host.RequestQuit()
	return nil, nil
}

func displayImpl(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	host, err := hostOf(env)
	if err != nil {
		return nil, err
	}
	d := golisp.Car(args)
	if golisp.StringP(d) {
		host.RequestOutput(golisp.StringValue(d))
	} else {
		host.RequestOutput(golisp.String(d))
	}
	return nil, nil
}

func newlineImpl(_ *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
	host, err := hostOf(env)
	if err != nil {
		return nil, err
	}
	host.RequestOutput("\n")
	return nil, nil
}

// Describe returns a one-line summary of the primitives, for the banner.
func Describe() string {
	return strings.Join([]string{"(clear)", "(color fg bg)", "(display x)", "(newline)", "(exit)"}, " ")
}
