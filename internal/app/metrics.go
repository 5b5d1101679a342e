package app

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics tracks session activity. The render loop, the key pump and the
// evaluation worker record into it concurrently.
type Metrics struct {
	// Render ticks
	tickCount   atomic.Uint64
	tickTotalNs atomic.Int64
	tickMaxNs   atomic.Int64

	// Keyboard
	keyCount    atomic.Uint64
	keysDropped atomic.Uint64

	// Evaluation
	evalCount   atomic.Uint64
	evalErrors  atomic.Uint64
	evalTotalNs atomic.Int64
	evalMaxNs   atomic.Int64

	// Host requests applied on the loop
	hostRequests atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordTick records how long one render tick took.
func (m *Metrics) RecordTick(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.tickCount.Add(1)
	m.tickTotalNs.Add(ns)
	storeMax(&m.tickMaxNs, ns)
}

// RecordKey records a key that reached the dispatch queue.
func (m *Metrics) RecordKey() {
	m.keyCount.Add(1)
}

// RecordKeyDropped records a key that arrived with no pending reader.
func (m *Metrics) RecordKeyDropped() {
	m.keysDropped.Add(1)
}

// RecordEval records a finished evaluation.
func (m *Metrics) RecordEval(duration time.Duration, err error) {
	ns := duration.Nanoseconds()
	m.evalCount.Add(1)
	m.evalTotalNs.Add(ns)
	storeMax(&m.evalMaxNs, ns)
	if err != nil {
		m.evalErrors.Add(1)
	}
}

// RecordHostRequest records a primitive request applied to the console.
func (m *Metrics) RecordHostRequest() {
	m.hostRequests.Add(1)
}

// storeMax raises v to ns if ns is larger.
func storeMax(v *atomic.Int64, ns int64) {
	for {
		old := v.Load()
		if ns <= old {
			return
		}
		if v.CompareAndSwap(old, ns) {
			return
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	ticks := m.tickCount.Load()
	evals := m.evalCount.Load()

	var avgTick, avgEval time.Duration
	if ticks > 0 {
		avgTick = time.Duration(m.tickTotalNs.Load() / int64(ticks))
	}
	if evals > 0 {
		avgEval = time.Duration(m.evalTotalNs.Load() / int64(evals))
	}

	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		Ticks:        ticks,
		AvgTick:      avgTick,
		MaxTick:      time.Duration(m.tickMaxNs.Load()),
		Keys:         m.keyCount.Load(),
		KeysDropped:  m.keysDropped.Load(),
		Evaluations:  evals,
		EvalErrors:   m.evalErrors.Load(),
		AvgEval:      avgEval,
		MaxEval:      time.Duration(m.evalMaxNs.Load()),
		HostRequests: m.hostRequests.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	Ticks        uint64
	AvgTick      time.Duration
	MaxTick      time.Duration
	Keys         uint64
	KeysDropped  uint64
	Evaluations  uint64
	EvalErrors   uint64
	AvgEval      time.Duration
	MaxEval      time.Duration
	HostRequests uint64
}

// DropRate returns the percentage of keys that found no reader.
func (s MetricsSnapshot) DropRate() float64 {
	if s.Keys == 0 {
		return 0
	}
	return float64(s.KeysDropped) / float64(s.Keys) * 100
}

// TickRate returns the average ticks per second over the uptime.
func (s MetricsSnapshot) TickRate() float64 {
	if s.Uptime <= 0 {
		return 0
	}
	return float64(s.Ticks) / s.Uptime.Seconds()
}

// String summarizes the snapshot on one line, for the session log.
func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("uptime=%s ticks=%d tickRate=%.1f/s keys=%d dropped=%d dropRate=%.1f%% evals=%d errors=%d avgEval=%s maxEval=%s",
		s.Uptime.Round(time.Millisecond), s.Ticks, s.TickRate(), s.Keys, s.KeysDropped, s.DropRate(),
		s.Evaluations, s.EvalErrors, s.AvgEval, s.MaxEval)
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
