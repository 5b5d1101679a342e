// Package main is the entry point for the lispterm REPL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/lispterm/internal/app"
	"github.com/dshills/lispterm/internal/config"
	"github.com/dshills/lispterm/internal/eval/scheme"
	"github.com/dshills/lispterm/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds command line settings. Empty or zero values leave the
// configured value alone.
type options struct {
	configPath string
	evaluator  string
	width      int
	height     int
	fg         string
	bg         string
	logFile    string
	logLevel   string
	plain      bool
	watch      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cfg.Close()

	logging := cfg.Logging()
	logger, closeLog, err := app.OpenLogFile(logging.File, logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	if cfg.File() != "" {
		logger.Info("config file %s", cfg.File())
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plain := opts.plain || !term.IsTerminal(int(os.Stdin.Fd()))
	if plain {
		err = runPlain(ctx, cfg, logger)
	} else {
		err = runGrid(ctx, cfg, logger)
	}

	if err != nil && !errors.Is(err, app.ErrQuit) {
		logger.Error("%v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runGrid(ctx context.Context, cfg *config.Config, logger *app.Logger) error {
	display := cfg.Display()

	terminal, err := backend.NewTerminal(backend.TerminalOptions{
		Width:  display.Width,
		Height: display.Height,
	})
	if err != nil {
		return &app.InitError{Component: "terminal", Err: err}
	}

	session, err := app.NewSession(terminal, app.Options{
		Display: display,
		Repl:    cfg.Repl(),
		Logger:  logger,
		Config:  cfg,
	})
	if err != nil {
		return err
	}
	return session.Run(ctx)
}

func runPlain(ctx context.Context, cfg *config.Config, logger *app.Logger) error {
	session, err := app.NewPlainSession(app.PlainOptions{
		Repl:   cfg.Repl(),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	return session.Run(ctx)
}

// loadConfig loads the layered configuration and applies flags on top.
func loadConfig(opts options) (*config.Config, error) {
	cfgOpts := []config.Option{config.WithWatcher(opts.watch)}
	if opts.configPath != "" {
		cfgOpts = append(cfgOpts, config.WithFile(opts.configPath))
	}

	cfg := config.New(cfgOpts...)
	if err := cfg.Load(context.Background()); err != nil {
		return nil, app.WrapError(err, "load config")
	}

	overrides := []struct {
		path  string
		value any
		set   bool
	}{
		{"repl.evaluator", opts.evaluator, opts.evaluator != ""},
		{"display.width", opts.width, opts.width > 0},
		{"display.height", opts.height, opts.height > 0},
		{"display.foreground", opts.fg, opts.fg != ""},
		{"display.background", opts.bg, opts.bg != ""},
		{"logging.file", opts.logFile, opts.logFile != ""},
		{"logging.level", opts.logLevel, opts.logLevel != ""},
	}
	for _, o := range overrides {
		if !o.set {
			continue
		}
		if err := cfg.Set(o.path, o.value); err != nil {
			cfg.Close()
			return nil, app.WrapError(err, "flag %s", o.path)
		}
	}

	if err := cfg.Validate(); err != nil {
		cfg.Close()
		return nil, app.WrapError(err, "invalid configuration")
	}
	return cfg, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.evaluator, "evaluator", "", "Evaluator: "+strings.Join(config.Evaluators, ", "))
	flag.StringVar(&opts.evaluator, "e", "", "Evaluator (shorthand)")
	flag.IntVar(&opts.width, "width", 0, "Grid width in cells (0 uses the terminal width)")
	flag.IntVar(&opts.height, "height", 0, "Grid height in cells (0 uses the terminal height)")
	flag.StringVar(&opts.fg, "fg", "", "Foreground color (name, #rrggbb or 0xrrggbb)")
	flag.StringVar(&opts.bg, "bg", "", "Background color (name, #rrggbb or 0xrrggbb)")
	flag.BoolVar(&opts.plain, "plain", false, "Use line mode instead of the character grid")
	flag.StringVar(&opts.logFile, "log", "", "Write logs to this file")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.watch, "watch", false, "Reload display settings when the config file changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "lispterm - a character-grid Lisp REPL\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lispterm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lispterm                        Scheme REPL on the full terminal\n")
		fmt.Fprintf(os.Stderr, "  lispterm -e lua                 Lua REPL\n")
		fmt.Fprintf(os.Stderr, "  lispterm -width 80 -height 24   Fixed 80x24 grid\n")
		fmt.Fprintf(os.Stderr, "  lispterm -fg white -bg '#000080' White on navy\n")
		fmt.Fprintf(os.Stderr, "  echo '(+ 1 2)' | lispterm       Line mode on a pipe\n")
		fmt.Fprintf(os.Stderr, "\nPrimitives:\n  %s\n", scheme.Describe())
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("lispterm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %s\n", strings.Join(flag.Args(), " "))
		os.Exit(2)
	}

	return opts
}
