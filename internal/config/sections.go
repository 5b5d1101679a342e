package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dshills/lispterm/internal/renderer/core"
)

// Section accessors return snapshot structs. Mutating a returned struct
// does not modify the configuration; use Config.Set.

// DisplayConfig holds settings for the character grid.
type DisplayConfig struct {
	// Width and Height of the grid in cells. Zero uses the terminal size.
	Width  int
	Height int

	Foreground core.Color
	Background core.Color

	// TickInterval is the render tick period.
	TickInterval time.Duration

	// CursorStyle is "block" or "underline".
	CursorStyle string
}

// ReplConfig holds settings for the read-eval-print loop.
type ReplConfig struct {
	// Evaluator names the language backend ("scheme" or "lua").
	Evaluator string

	Prompt             string
	ContinuationPrompt string
	ResultPrefix       string

	// IndentWidth is the number of spaces per open nesting level.
	IndentWidth int

	// EvalTimeout bounds a single evaluation where the backend supports it.
	EvalTimeout time.Duration
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string
	// File receives log output. Empty disables logging.
	File string
}

// Evaluators lists the accepted values of repl.evaluator.
var Evaluators = []string{"scheme", "lua"}

// Display returns the display settings.
func (c *Config) Display() DisplayConfig {
	d := DisplayConfig{
		Width:        c.getIntOr("display.width", 0),
		Height:       c.getIntOr("display.height", 0),
		TickInterval: c.getDurationOr("display.tickInterval", 30*time.Millisecond),
		CursorStyle:  c.getStringOr("display.cursorStyle", "block"),
	}
	d.Foreground, _ = c.GetColor("display.foreground")
	d.Background, _ = c.GetColor("display.background")
	return d
}

// Repl returns the REPL settings.
func (c *Config) Repl() ReplConfig {
	return ReplConfig{
		Evaluator:          c.getStringOr("repl.evaluator", "scheme"),
		Prompt:             c.getStringOr("repl.prompt", "> "),
		ContinuationPrompt: c.getStringOr("repl.continuationPrompt", ".."),
		ResultPrefix:       c.getStringOr("repl.resultPrefix", "=> "),
		IndentWidth:        c.getIntOr("repl.indentWidth", 2),
		EvalTimeout:        c.getDurationOr("repl.evalTimeout", 5*time.Second),
	}
}

// Logging returns the logger settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level: c.getStringOr("logging.level", "info"),
		File:  c.getStringOr("logging.file", ""),
	}
}

// GetColor returns the color at path. Strings are parsed by
// core.ParseColor; integers are 0xRRGGBB values.
func (c *Config) GetColor(path string) (core.Color, error) {
	v, ok := c.Get(path)
	if !ok {
		return core.Color{}, ErrSettingNotFound
	}
	return colorValue(path, v)
}

func colorValue(path string, v any) (core.Color, error) {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		return core.Color{}, &TypeError{Path: path, Expected: "color", Actual: typeName(v)}
	}

	color, err := core.ParseColor(s)
	if err != nil {
		return core.Color{}, &ValidationError{Path: path, Message: err.Error(), Value: v}
	}
	return color, nil
}

// Validate checks every known setting and joins all failures.
func (c *Config) Validate() error {
	var errs []error

	for _, path := range []string{"display.foreground", "display.background"} {
		if _, err := c.GetColor(path); err != nil && !IsNotFound(err) {
			errs = append(errs, err)
		}
	}

	for _, path := range []string{"display.width", "display.height", "repl.indentWidth"} {
		n, err := c.GetInt(path)
		if err != nil {
			if !IsNotFound(err) {
				errs = append(errs, err)
			}
			continue
		}
		if n < 0 {
			errs = append(errs, &ValidationError{Path: path, Message: "must not be negative", Value: n})
		}
	}

	for _, path := range []string{"display.tickInterval", "repl.evalTimeout"} {
		d, err := c.GetDuration(path)
		if err != nil {
			if !IsNotFound(err) {
				errs = append(errs, err)
			}
			continue
		}
		if d <= 0 {
			errs = append(errs, &ValidationError{Path: path, Message: "must be positive", Value: d})
		}
	}

	if name, err := c.GetString("repl.evaluator"); err == nil && !validEvaluator(name) {
		errs = append(errs, &ValidationError{
			Path:    "repl.evaluator",
			Message: fmt.Sprintf("must be one of %v", Evaluators),
			Value:   name,
		})
	}

	if style, err := c.GetString("display.cursorStyle"); err == nil && style != "block" && style != "underline" {
		errs = append(errs, &ValidationError{Path: "display.cursorStyle", Message: "must be block or underline", Value: style})
	}

	return errors.Join(errs...)
}

func validEvaluator(name string) bool {
	for _, e := range Evaluators {
		if e == name {
			return true
		}
	}
	return false
}

func (c *Config) getStringOr(path string, defaultValue string) string {
	s, err := c.GetString(path)
	if err != nil {
		return defaultValue
	}
	return s
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	n, err := c.GetInt(path)
	if err != nil {
		return defaultValue
	}
	return n
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	d, err := c.GetDuration(path)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
