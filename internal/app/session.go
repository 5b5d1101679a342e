// Package app wires the console, line editor, REPL driver and evaluator
// into a running session.
//
// A Session owns one goroutine, the loop, that is the only writer of the
// character grid. Key events arrive from a pump goroutine, render ticks
// from a ticker, and everything else (evaluation results, evaluator
// primitives, live configuration changes) is posted to the loop's inbox.
package app

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/lispterm/internal/config"
	"github.com/dshills/lispterm/internal/config/notify"
	"github.com/dshills/lispterm/internal/console"
	"github.com/dshills/lispterm/internal/editor"
	"github.com/dshills/lispterm/internal/eval"
	"github.com/dshills/lispterm/internal/input/dispatch"
	"github.com/dshills/lispterm/internal/input/key"
	"github.com/dshills/lispterm/internal/renderer/backend"
	"github.com/dshills/lispterm/internal/renderer/cursor"
	"github.com/dshills/lispterm/internal/repl"
)

// Control codes that end the session.
const (
	ctrlC rune = 3
	ctrlD rune = 4
)

const inboxSize = 64

// DefaultTickInterval is used when Options.Display.TickInterval is unset.
const DefaultTickInterval = 30 * time.Millisecond

// Options configures a Session.
type Options struct {
	Display config.DisplayConfig
	Repl    config.ReplConfig

	// Logger receives session logs. Nil discards them.
	Logger *Logger

	// Config, if set, is watched for display changes while the session
	// runs.
	Config *config.Config

	// Evaluator overrides the one named by Repl.Evaluator.
	Evaluator eval.Evaluator
}

// Session is one run of the REPL on a backend.
type Session struct {
	id      string
	opts    Options
	backend backend.Backend
	logger  *Logger
	metrics *Metrics

	evaluator eval.Evaluator
	runner    *asyncRunner

	// Owned by the loop goroutine.
	con      *console.Console
	hl       *cursor.Highlighter
	keys     *dispatch.Queue
	editor   *editor.LineEditor
	driver   *repl.Driver
	quitting bool

	inbox   chan func()
	done    chan struct{}
	started atomic.Bool
	wg      sync.WaitGroup
}

// NewSession creates a session drawing on b.
func NewSession(b backend.Backend, opts Options) (*Session, error) {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = NullLogger
	}

	s := &Session{
		id:      id,
		opts:    opts,
		backend: b,
		logger:  logger.WithField("session", id),
		metrics: NewMetrics(),
		inbox:   make(chan func(), inboxSize),
		done:    make(chan struct{}),
	}

	s.evaluator = opts.Evaluator
	if s.evaluator == nil {
		ev, err := NewEvaluator(opts.Repl.Evaluator, sessionHost{s}, opts.Repl.EvalTimeout)
		if err != nil {
			return nil, err
		}
		s.evaluator = ev
	}
	return s, nil
}

// Host returns the host that carries evaluator primitives to this session.
// Use it to build an evaluator passed in Options.Evaluator.
func (s *Session) Host() eval.Host {
	return sessionHost{s}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Metrics returns the session's activity counters.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Post queues fn to run on the loop goroutine.
// Returns false if the session has ended.
func (s *Session) Post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Run initializes the backend, clears the grid, starts the REPL and
// processes events until ctx is canceled or the user quits.
// Returns ErrQuit when the user quit, nil when ctx ended the session.
// A session runs once.
func (s *Session) Run(ctx context.Context) (err error) {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := s.backend.Init(); err != nil {
		close(s.done)
		_ = s.evaluator.Close()
		return &InitError{Component: "backend", Err: err}
	}

	s.runner = newAsyncRunner(ctx, s.evaluator, s.Post, s.metrics, s.logger.WithComponent("eval"))
	s.setup()
	s.logger.WithFields(map[string]any{
		"evaluator": s.evaluator.Name(),
		"width":     s.width(),
		"height":    s.height(),
	}).Info("session started")

	var sub *notify.Subscription
	if s.opts.Config != nil {
		cfg := s.opts.Config
		sub = cfg.SubscribePath("display", func(notify.Change) {
			s.Post(func() { s.applyDisplay(cfg.Display()) })
		})
	}

	events := make(chan backend.Event, 16)
	s.wg.Add(1)
	go s.pump(events)

	defer func() {
		sub.Unsubscribe()
		close(s.done)
		if cerr := s.shutdown(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	// Ready: clear in the configured colors, then prompt.
	fg, bg := s.con.Colors()
	s.con.Clear(fg, bg)
	if err := s.driver.Start(); err != nil {
		return NewComponentError("repl", "start", err)
	}

	return s.loop(ctx, events)
}

// setup builds the loop-owned components once the grid size is known.
func (s *Session) setup() {
	d := s.opts.Display
	s.con = console.New(s.backend, d.Foreground, d.Background)
	s.hl = cursor.New(s.backend, s.con, cursor.StyleFromString(d.CursorStyle))
	s.con.OnScroll(s.hl.Scrolled)
	s.con.OnClear(s.hl.Reset)

	s.keys = dispatch.NewQueue(s.logger.WithComponent("keys"))
	s.editor = editor.New(s.con, s.keys)

	reader := &repl.ConsoleReader{Console: s.con, Editor: s.editor}
	s.driver = repl.NewDriver(reader, s.con, s.runner, replOptions(s.opts.Repl), s.logger.WithComponent("repl"))
}

func (s *Session) loop(ctx context.Context, events <-chan backend.Event) error {
	interval := s.opts.Display.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session canceled")
			return nil

		case ev := <-events:
			s.handleEvent(ev)

		case fn := <-s.inbox:
			s.runPosted(fn)

		case <-ticker.C:
			s.tick()
		}

		if s.quitting {
			s.logger.Info("quit requested")
			return ErrQuit
		}
	}
}

// tick is the per-frame update: paint the cursor and flush the grid.
func (s *Session) tick() {
	timer := StartTimer()
	s.hl.Tick()
	s.backend.Show()
	s.metrics.RecordTick(timer.Elapsed())
}

func (s *Session) handleEvent(ev backend.Event) {
	switch ev.Type {
	case backend.EventKey:
		if ev.Key == backend.KeyControl && (ev.Rune == ctrlC || ev.Rune == ctrlD) {
			s.quitting = true
			return
		}
		c, ok := key.FromBackend(ev)
		if !ok {
			return
		}
		s.metrics.RecordKey()
		if !s.keys.Deliver(c) {
			s.metrics.RecordKeyDropped()
		}

	case backend.EventResize:
		// The grid is fixed for the session.
		s.logger.Debug("ignoring resize to %dx%d", ev.Width, ev.Height)
	}
}

// runPosted runs fn, logging instead of crashing if it panics.
func (s *Session) runPosted(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("%v", NewRecoveredPanicError(r, string(debug.Stack())))
		}
	}()
	fn()
}

// pump forwards backend events to the loop until the session ends.
func (s *Session) pump(events chan<- backend.Event) {
	defer s.wg.Done()

	for {
		ev := s.backend.PollEvent()
		if ev.Type == backend.EventNone {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		select {
		case events <- ev:
		case <-s.done:
			return
		}
	}
}

// applyDisplay applies live display changes. Size and tick rate are fixed
// for the session.
func (s *Session) applyDisplay(d config.DisplayConfig) {
	s.con.SetColors(d.Foreground, d.Background)
	s.hl.SetStyle(cursor.StyleFromString(d.CursorStyle))
	s.logger.Debug("display settings reloaded")
}

// shutdown stops the worker, releases the evaluator and the backend.
func (s *Session) shutdown() error {
	errs := NewErrorList()

	s.driver.Stop()
	if s.runner.stop() {
		if err := s.evaluator.Close(); err != nil {
			errs.Add(NewComponentError("evaluator", "close", err))
		}
	} else {
		s.logger.Warn("evaluation still running at shutdown; leaving %s evaluator open", s.evaluator.Name())
	}

	s.backend.Shutdown()
	s.wg.Wait()

	s.logger.Info("session ended: %s", s.metrics.Snapshot())
	return errs.AsError()
}

func (s *Session) width() int {
	w, _ := s.con.Size()
	return w
}

func (s *Session) height() int {
	_, h := s.con.Size()
	return h
}

func replOptions(c config.ReplConfig) repl.Options {
	opts := repl.DefaultOptions()
	if c.Prompt != "" {
		opts.Prompt = c.Prompt
	}
	if c.ContinuationPrompt != "" {
		opts.ContinuationPrompt = c.ContinuationPrompt
	}
	if c.ResultPrefix != "" {
		opts.ResultPrefix = c.ResultPrefix
	}
	if c.IndentWidth > 0 {
		opts.IndentWidth = c.IndentWidth
	}
	return opts
}
