package app

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/lispterm/internal/eval"
)

// workerGrace bounds how long shutdown waits for a running evaluation.
const workerGrace = time.Second

type job struct {
	src  string
	done func(eval.Result, error)
}

// asyncRunner evaluates on a worker goroutine so the session loop keeps
// ticking during long evaluations. Completions are posted back to the
// loop; the driver only ever sees them there.
type asyncRunner struct {
	evaluator eval.Evaluator
	post      func(func()) bool
	metrics   *Metrics
	logger    *Logger

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan job
	wg     sync.WaitGroup
}

func newAsyncRunner(ctx context.Context, ev eval.Evaluator, post func(func()) bool, metrics *Metrics, logger *Logger) *asyncRunner {
	ctx, cancel := context.WithCancel(ctx)
	r := &asyncRunner{
		evaluator: ev,
		post:      post,
		metrics:   metrics,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(chan job, 1),
	}
	r.wg.Add(1)
	go r.work()
	return r
}

// Run implements repl.Runner.
func (r *asyncRunner) Run(src string, done func(eval.Result, error)) {
	select {
	case r.jobs <- job{src: src, done: done}:
	case <-r.ctx.Done():
		r.logger.Debug("evaluation dropped: runner stopped")
	}
}

func (r *asyncRunner) work() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case j := <-r.jobs:
			r.evaluate(j)
		}
	}
}

func (r *asyncRunner) evaluate(j job) {
	timer := StartTimer()
	res, err := r.evaluator.Evaluate(r.ctx, j.src)
	elapsed := timer.Elapsed()
	r.metrics.RecordEval(elapsed, err)

	if err != nil {
		r.logger.Debug("%v", NewOperationError("evaluate", r.evaluator.Name(), err).
			WithContext(elapsed.Round(time.Microsecond).String()))
	}

	r.post(func() { j.done(res, err) })
}

// stop cancels the worker and waits up to workerGrace for it to finish.
// It reports whether the worker has exited; an evaluator that ignores
// cancellation can keep it running.
func (r *asyncRunner) stop() bool {
	r.cancel()

	exited := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(exited)
	}()

	select {
	case <-exited:
		return true
	case <-time.After(workerGrace):
		return false
	}
}
