package app

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()

	if snap.Ticks != 0 || snap.Keys != 0 || snap.Evaluations != 0 {
		t.Errorf("expected zero counters, got %+v", snap)
	}
	if snap.AvgTick != 0 || snap.AvgEval != 0 {
		t.Error("expected zero averages with no samples")
	}
}

func TestMetrics_RecordTick(t *testing.T) {
	m := NewMetrics()
	m.RecordTick(2 * time.Millisecond)
	m.RecordTick(4 * time.Millisecond)

	snap := m.Snapshot()
	if snap.Ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", snap.Ticks)
	}
	if snap.AvgTick != 3*time.Millisecond {
		t.Errorf("expected avg 3ms, got %s", snap.AvgTick)
	}
	if snap.MaxTick != 4*time.Millisecond {
		t.Errorf("expected max 4ms, got %s", snap.MaxTick)
	}
}

func TestMetrics_Keys(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 4; i++ {
		m.RecordKey()
	}
	m.RecordKeyDropped()

	snap := m.Snapshot()
	if snap.Keys != 4 || snap.KeysDropped != 1 {
		t.Errorf("expected 4 keys and 1 dropped, got %d and %d", snap.Keys, snap.KeysDropped)
	}
	if snap.DropRate() != 25 {
		t.Errorf("expected drop rate 25, got %f", snap.DropRate())
	}
}

func TestMetrics_RecordEval(t *testing.T) {
	m := NewMetrics()
	m.RecordEval(10*time.Millisecond, nil)
	m.RecordEval(30*time.Millisecond, errors.New("unbound variable"))

	snap := m.Snapshot()
	if snap.Evaluations != 2 {
		t.Errorf("expected 2 evaluations, got %d", snap.Evaluations)
	}
	if snap.EvalErrors != 1 {
		t.Errorf("expected 1 error, got %d", snap.EvalErrors)
	}
	if snap.AvgEval != 20*time.Millisecond {
		t.Errorf("expected avg 20ms, got %s", snap.AvgEval)
	}
	if snap.MaxEval != 30*time.Millisecond {
		t.Errorf("expected max 30ms, got %s", snap.MaxEval)
	}
}

func TestMetricsSnapshot_DropRate_NoKeys(t *testing.T) {
	if rate := (MetricsSnapshot{}).DropRate(); rate != 0 {
		t.Errorf("expected 0, got %f", rate)
	}
}

func TestMetricsSnapshot_TickRate(t *testing.T) {
	snap := MetricsSnapshot{Uptime: 2 * time.Second, Ticks: 60}
	if rate := snap.TickRate(); rate != 30 {
		t.Errorf("expected 30, got %f", rate)
	}
	if rate := (MetricsSnapshot{}).TickRate(); rate != 0 {
		t.Errorf("expected 0 for zero uptime, got %f", rate)
	}
}

func TestMetricsSnapshot_String(t *testing.T) {
	m := NewMetrics()
	m.RecordKey()
	m.RecordKey()
	m.RecordKeyDropped()
	m.RecordEval(time.Millisecond, nil)

	s := m.Snapshot().String()
	for _, want := range []string{"keys=2", "dropped=1", "dropRate=50.0%", "evals=1", "errors=0", "tickRate="} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				m.RecordTick(time.Duration(j))
				m.RecordKey()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	snap := m.Snapshot()
	if snap.Ticks != 400 || snap.Keys != 400 {
		t.Errorf("expected 400 ticks and keys, got %d and %d", snap.Ticks, snap.Keys)
	}
	if snap.MaxTick != 99 {
		t.Errorf("expected max tick 99ns, got %s", snap.MaxTick)
	}
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(5 * time.Millisecond)
	if timer.Elapsed() < 5*time.Millisecond {
		t.Errorf("expected at least 5ms, got %s", timer.Elapsed())
	}
}
