package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/lispterm/internal/config"
	"github.com/dshills/lispterm/internal/eval"
	"github.com/dshills/lispterm/internal/renderer/backend"
	"github.com/dshills/lispterm/internal/renderer/core"
)

// fakeEvaluator reports the number of lines it was given, upper-cases
// single lines, and runs hook first if set.
type fakeEvaluator struct {
	hook   func(src string) (eval.Result, error)
	closed bool
}

func (f *fakeEvaluator) Name() string { return "fake" }

func (f *fakeEvaluator) Evaluate(_ context.Context, src string) (eval.Result, error) {
	if f.hook != nil {
		return f.hook(src)
	}
	if n := strings.Count(src, "\n") + 1; n > 1 {
		return eval.Value(fmt.Sprintf("%d lines", n)), nil
	}
	return eval.Value(strings.ToUpper(src)), nil
}

func (f *fakeEvaluator) Close() error {
	f.closed = true
	return nil
}

type harness struct {
	t       *testing.T
	backend *backend.NullBackend
	session *Session
	cancel  context.CancelFunc
	result  chan error
}

func testOptions() Options {
	return Options{
		Display: config.DisplayConfig{
			Foreground:   core.ColorBlack,
			Background:   core.ColorWhite,
			TickInterval: 5 * time.Millisecond,
			CursorStyle:  "block",
		},
		Repl: config.ReplConfig{
			Prompt:             "> ",
			ContinuationPrompt: "..",
			ResultPrefix:       "=> ",
			IndentWidth:        2,
		},
	}
}

// startSession runs a session on a 20x6 null backend. hookFn, if set,
// receives the session host so the fake evaluator can make requests.
func startSession(t *testing.T, opts Options, hookFn func(eval.Host) func(string) (eval.Result, error)) (*harness, *fakeEvaluator) {
	t.Helper()

	ev := &fakeEvaluator{}
	opts.Evaluator = ev

	b := backend.NewNullBackend(20, 6)
	s, err := NewSession(b, opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if hookFn != nil {
		ev.hook = hookFn(s.Host())
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{t: t, backend: b, session: s, cancel: cancel, result: make(chan error, 1)}
	go func() { h.result <- s.Run(ctx) }()
	t.Cleanup(cancel)

	h.waitRow(0, "> ")
	return h, ev
}

// inspect runs fn on the session loop and waits for it.
func (h *harness) inspect(fn func()) {
	h.t.Helper()

	done := make(chan struct{})
	if !h.session.Post(func() {
		fn()
		close(done)
	}) {
		h.t.Fatal("session ended before inspection")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		h.t.Fatal("inspection timed out")
	}
}

func (h *harness) row(y int) string {
	var row string
	h.inspect(func() { row = h.backend.Row(y) })
	return strings.TrimRight(row, " \x00")
}

// waitRow waits until row y starts with prefix.
func (h *harness) waitRow(y int, prefix string) {
	h.t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := h.row(y)
		if strings.HasPrefix(got, strings.TrimRight(prefix, " ")) {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("row %d: expected prefix %q, got %q", y, prefix, got)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// waitFor polls cond on the session loop until it holds.
func (h *harness) waitFor(desc string, cond func() bool) {
	h.t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		var ok bool
		h.inspect(func() { ok = cond() })
		if ok {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s", desc)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		if r == '\n' {
			h.backend.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyEnter})
			continue
		}
		h.backend.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r})
	}
}

func (h *harness) control(code rune) {
	h.backend.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyControl, Rune: code})
}

func (h *harness) wait() error {
	h.t.Helper()

	select {
	case err := <-h.result:
		return err
	case <-time.After(3 * time.Second):
		h.t.Fatal("session did not end")
		return nil
	}
}

func TestSessionEvaluatesLine(t *testing.T) {
	h, _ := startSession(t, testOptions(), nil)

	h.typeText("hi\n")
	h.waitRow(1, "=> HI")
	h.waitRow(2, "> ")

	if got := h.session.Metrics().Snapshot().Evaluations; got != 1 {
		t.Errorf("expected 1 evaluation, got %d", got)
	}
}

func TestSessionContinuation(t *testing.T) {
	h, _ := startSession(t, testOptions(), nil)

	h.typeText("(a\n")
	h.waitRow(1, "..  ")

	h.typeText("b)\n")
	h.waitRow(2, "=> 2 lines")
	h.waitRow(3, "> ")
}

func TestSessionQuitKeys(t *testing.T) {
	for _, code := range []rune{ctrlC, ctrlD} {
		h, ev := startSession(t, testOptions(), nil)
		h.control(code)

		if err := h.wait(); !errors.Is(err, ErrQuit) {
			t.Errorf("control %d: expected ErrQuit, got %v", code, err)
		}
		if !ev.closed {
			t.Errorf("control %d: expected evaluator to be closed", code)
		}
	}
}

func TestSessionQuitKeysFromTerminal(t *testing.T) {
	for _, k := range []tcell.Key{tcell.KeyCtrlC, tcell.KeyCtrlD} {
		screen := tcell.NewSimulationScreen("UTF-8")
		term := backend.NewTerminalWithScreen(screen, backend.TerminalOptions{Width: 20, Height: 6})

		opts := testOptions()
		ev := &fakeEvaluator{}
		opts.Evaluator = ev
		s, err := NewSession(term, opts)
		if err != nil {
			t.Fatalf("NewSession failed: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		result := make(chan error, 1)
		go func() { result <- s.Run(ctx) }()

		deadline := time.Now().Add(2 * time.Second)
		for {
			ready := make(chan bool, 1)
			if s.Post(func() { ready <- term.GetCell(0, 0).Rune == '>' }) && <-ready {
				break
			}
			if time.Now().After(deadline) {
				cancel()
				t.Fatalf("%v: prompt never appeared", k)
			}
			time.Sleep(2 * time.Millisecond)
		}

		screen.InjectKey(k, 0, tcell.ModCtrl)

		select {
		case err := <-result:
			if !errors.Is(err, ErrQuit) {
				t.Errorf("%v: expected ErrQuit, got %v", k, err)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("%v: session did not quit", k)
		}
		if !ev.closed {
			t.Errorf("%v: expected evaluator to be closed", k)
		}
		cancel()
	}
}

func TestSessionLogsLifecycle(t *testing.T) {
	var buf bytes.Buffer
	opts := testOptions()
	opts.Logger = NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &buf})

	h, _ := startSession(t, opts, nil)
	h.typeText("x\n")
	h.waitRow(1, "=> X")
	h.cancel()
	if err := h.wait(); err != nil {
		t.Fatalf("expected nil error on cancel, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{"session started", "evaluator=fake", "height=6", "width=20", "session ended", "keys=2", "evals=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log, got:\n%s", want, out)
		}
	}
}

func TestSessionContextCancel(t *testing.T) {
	h, _ := startSession(t, testOptions(), nil)
	h.cancel()

	if err := h.wait(); err != nil {
		t.Errorf("expected nil error on cancel, got %v", err)
	}
	if h.session.Post(func() {}) {
		t.Error("expected Post to fail after the session ended")
	}
}

func TestSessionRunTwice(t *testing.T) {
	h, _ := startSession(t, testOptions(), nil)

	if err := h.session.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSessionHostRequestsInOrder(t *testing.T) {
	h, _ := startSession(t, testOptions(), func(host eval.Host) func(string) (eval.Result, error) {
		return func(src string) (eval.Result, error) {
			host.RequestOutput("out\n")
			host.RequestColors(core.ColorRed, core.ColorBlue)
			return eval.NoValue, nil
		}
	})

	h.typeText("go\n")
	h.waitRow(1, "out")
	h.waitRow(2, "> ")

	h.inspect(func() {
		fg, bg := h.session.con.Colors()
		if !fg.Equals(core.ColorRed) || !bg.Equals(core.ColorBlue) {
			t.Errorf("expected red on blue, got %s on %s", fg, bg)
		}
		// The prompt after the result is drawn in the new colors.
		if got := h.backend.GetCell(0, 2).Style.Background; !got.Equals(core.ColorBlue) {
			t.Errorf("expected prompt on blue, got %s", got)
		}
	})
}

func TestSessionClearRequest(t *testing.T) {
	h, _ := startSession(t, testOptions(), func(host eval.Host) func(string) (eval.Result, error) {
		return func(src string) (eval.Result, error) {
			host.RequestColors(core.ColorWhite, core.ColorBlack)
			host.RequestClear()
			return eval.NoValue, nil
		}
	})

	h.typeText("clear\n")
	h.waitFor("grid cleared to black", func() bool {
		return h.backend.GetCell(10, 4).Style.Background.Equals(core.ColorBlack)
	})
	h.waitFor("prompt after clear", func() bool {
		return h.session.editor.Active()
	})

	h.inspect(func() {
		x, y := h.session.con.Position()
		if x != 2 || y != 0 {
			t.Errorf("expected cursor at (2, 0) after clear, got (%d, %d)", x, y)
		}
		if got := strings.TrimRight(h.backend.Row(1), " "); got != "" {
			t.Errorf("expected row 1 blank after clear, got %q", got)
		}
	})
}

func TestSessionQuitRequest(t *testing.T) {
	h, ev := startSession(t, testOptions(), func(host eval.Host) func(string) (eval.Result, error) {
		return func(src string) (eval.Result, error) {
			host.RequestQuit()
			return eval.NoValue, nil
		}
	})

	h.typeText("(exit)\n")
	if err := h.wait(); !errors.Is(err, ErrQuit) {
		t.Errorf("expected ErrQuit, got %v", err)
	}
	if !ev.closed {
		t.Error("expected evaluator to be closed")
	}
}

func TestSessionEvaluationError(t *testing.T) {
	h, _ := startSession(t, testOptions(), func(eval.Host) func(string) (eval.Result, error) {
		return func(src string) (eval.Result, error) {
			return eval.NoValue, errors.New("boom")
		}
	})

	h.typeText("x\n")
	h.waitRow(1, "boom")
	h.waitRow(2, "> ")

	if got := h.session.Metrics().Snapshot().EvalErrors; got != 1 {
		t.Errorf("expected 1 evaluation error, got %d", got)
	}
}

func TestSessionPostedPanicIsContained(t *testing.T) {
	h, _ := startSession(t, testOptions(), nil)

	h.session.Post(func() { panic("posted") })
	h.typeText("ok\n")
	h.waitRow(1, "=> OK")
}

func TestSessionTicksShowGrid(t *testing.T) {
	h, _ := startSession(t, testOptions(), nil)

	h.waitFor("two render ticks", func() bool {
		return h.backend.ShowCount() >= 2
	})

	h.inspect(func() {
		saved := h.session.hl.Saved()
		cell := h.backend.GetCell(2, 0)
		if !cell.Style.Equals(saved.Style.Invert()) {
			t.Errorf("expected cursor cell in inverse video, got %+v", cell.Style)
		}
	})
}

func TestSessionLiveColorChange(t *testing.T) {
	cfg := config.New(config.WithEnvPrefix("LISPTERM_SESSION_TEST_"))
	opts := testOptions()
	opts.Config = cfg

	h, _ := startSession(t, opts, nil)

	if err := cfg.Set("display.foreground", "green"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	h.waitFor("green foreground", func() bool {
		fg, _ := h.session.con.Colors()
		return fg.Equals(core.ColorGreen)
	})
}

func TestSessionCountsKeys(t *testing.T) {
	h, _ := startSession(t, testOptions(), func(eval.Host) func(string) (eval.Result, error) {
		return func(src string) (eval.Result, error) {
			time.Sleep(50 * time.Millisecond)
			return eval.NoValue, nil
		}
	})

	// Keys typed while evaluating may find no pending reader.
	h.typeText("slow\nzz")
	h.waitRow(2, "> ")

	snap := h.session.Metrics().Snapshot()
	if snap.Keys < 5 {
		t.Errorf("expected at least 5 keys, got %d", snap.Keys)
	}
}

func TestNewSessionUnknownEvaluator(t *testing.T) {
	opts := testOptions()
	opts.Repl.Evaluator = "cobol"

	_, err := NewSession(backend.NewNullBackend(10, 4), opts)
	if !errors.Is(err, eval.ErrUnknownEvaluator) {
		t.Errorf("expected ErrUnknownEvaluator, got %v", err)
	}
}

func TestNewEvaluator(t *testing.T) {
	for _, name := range []string{"scheme", "lua"} {
		ev, err := NewEvaluator(name, eval.NopHost{}, time.Second)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if ev.Name() != name {
			t.Errorf("expected name %q, got %q", name, ev.Name())
		}
		if err := ev.Close(); err != nil {
			t.Errorf("%s: close: %v", name, err)
		}
	}
}

func TestReplOptions(t *testing.T) {
	opts := replOptions(config.ReplConfig{Prompt: "λ "})
	if opts.Prompt != "λ " {
		t.Errorf("expected custom prompt, got %q", opts.Prompt)
	}
	if opts.ContinuationPrompt != ".." || opts.IndentWidth != 2 {
		t.Errorf("expected defaults for unset fields, got %+v", opts)
	}
}
