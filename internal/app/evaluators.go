package app

import (
	"fmt"
	"time"

	"github.com/dshills/lispterm/internal/eval"
	"github.com/dshills/lispterm/internal/eval/lua"
	"github.com/dshills/lispterm/internal/eval/scheme"
)

// NewEvaluator creates the evaluator registered under name.
// timeout bounds a single evaluation for backends that can be interrupted.
func NewEvaluator(name string, host eval.Host, timeout time.Duration) (eval.Evaluator, error) {
	var (
		ev  eval.Evaluator
		err error
	)
	switch name {
	case "scheme":
		ev, err = scheme.New(host)
	case "lua":
		ev, err = lua.New(host, lua.WithTimeout(timeout))
	default:
		return nil, fmt.Errorf("%w: %q", eval.ErrUnknownEvaluator, name)
	}
	if err != nil {
		return nil, &InitError{Component: name + " evaluator", Err: err}
	}
	return ev, nil
}
