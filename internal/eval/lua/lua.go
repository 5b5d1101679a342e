// Package lua adapts gopher-lua to the eval.Evaluator interface.
//
// Input is first tried as an expression ("return " + src) so that typing
// 1 + 2 prints 3; if that does not compile it is run as a chunk.
package lua

import (
	"context"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/lispterm/internal/eval"
	"github.com/dshills/lispterm/internal/renderer/core"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Second

// Evaluator evaluates Lua source in one persistent state.
// gopher-lua's LState is not goroutine-safe; call Evaluate from one
// goroutine at a time.
type Evaluator struct {
	L       *lua.LState
	host    eval.Host
	timeout time.Duration
	closed  bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout sets the per-evaluation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// New creates a Lua evaluator whose primitives talk to host.
func New(host eval.Host, opts ...Option) (*Evaluator, error) {
	if host == nil {
		host = eval.NopHost{}
	}
	e := &Evaluator{host: host, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.registerPrimitives()
	return e, nil
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Name implements eval.Evaluator.
func (e *Evaluator) Name() string {
	return "lua"
}

// Evaluate implements eval.Evaluator.
func (e *Evaluator) Evaluate(ctx context.Context, src string) (res eval.Result, err error) {
	if e.closed {
		return eval.NoValue, eval.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return eval.NoValue, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	defer eval.RecoverPanic(&err)

	fn, err := e.L.LoadString("return " + src)
	if err != nil {
		fn, err = e.L.LoadString(src)
		if err != nil {
			return eval.NoValue, err
		}
	}

	top := e.L.GetTop()
	e.L.Push(fn)
	if err := e.L.PCall(0, lua.MultRet, nil); err != nil {
		e.L.SetTop(top)
		return eval.NoValue, err
	}

	n := e.L.GetTop() - top
	values := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		values[i] = e.L.Get(top + i + 1)
	}
	e.L.Pop(n)

	return resultOf(values), nil
}

// Close implements eval.Evaluator.
func (e *Evaluator) Close() error {
	if e.closed {
		return nil
	}
	e.L.Close()
	e.closed = true
	return nil
}

func resultOf(values []lua.LValue) eval.Result {
	if len(values) == 0 || (len(values) == 1 && values[0] == lua.LNil) {
		return eval.NoValue
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return eval.Value(strings.Join(parts, ", "))
}

func (e *Evaluator) registerPrimitives() {
	e.L.SetGlobal("clear", e.L.NewFunction(e.luaClear))
	e.L.SetGlobal("color", e.L.NewFunction(e.luaColor))
	e.L.SetGlobal("exit", e.L.NewFunction(e.luaExit))
	e.L.SetGlobal("print", e.L.NewFunction(e.luaPrint))
}

func (e *Evaluator) luaClear(L *lua.LState) int {
	e.host.RequestClear()
	return 0
}

func (e *Evaluator) luaColor(L *lua.LState) int {
	fg, err := colorArg(L.CheckAny(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	bg, err := colorArg(L.CheckAny(2))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	e.host.RequestColors(fg, bg)
	return 0
}

// colorArg accepts a packed 0xRRGGBB number or a color string.
func colorArg(v lua.LValue) (core.Color, error) {
	switch val := v.(type) {
	case lua.LNumber:
		n := int64(val)
		if n < 0 || n > 0xFFFFFF {
			return core.Color{}, fmt.Errorf("color %d out of range", n)
		}
		return core.ColorFromInt(n), nil
	case lua.LString:
		return core.ParseColor(string(val))
	default:
		return core.Color{}, fmt.Errorf("expected number or string, got %s", v.Type())
	}
}

func (e *Evaluator) luaExit(L *lua.LState) int {
	e.host.RequestQuit()
	return 0
}

func (e *Evaluator) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	e.host.RequestOutput(strings.Join(parts, "\t") + "\n")
	return 0
}
