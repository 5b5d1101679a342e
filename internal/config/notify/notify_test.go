package notify

import (
	"sync"
	"testing"
)

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeDelete, "delete"},
		{ChangeReload, "reload"},
		{ChangeType(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestNotifier_SubscribePath(t *testing.T) {
	n := New()
	defer n.Close()

	var display, repl int
	n.SubscribePath("display", func(Change) { display++ })
	n.SubscribePath("repl", func(Change) { repl++ })

	n.NotifySet("display.foreground", "black", "green", "file")
	n.NotifySet("displayX.width", 1, 2, "file")
	n.NotifySet("repl.prompt", "> ", "$ ", "file")
	n.NotifySet("display", nil, map[string]any{}, "file")

	if display != 2 {
		t.Errorf("expected 2 display changes, got %d", display)
	}
	if repl != 1 {
		t.Errorf("expected 1 repl change, got %d", repl)
	}
}

func TestNotifier_NotifySet(t *testing.T) {
	n := New()

	var got Change
	n.Subscribe(func(c Change) { got = c })
	n.NotifySet("display.width", 80, 40, "arguments")

	if got.Path != "display.width" || got.Type != ChangeSet {
		t.Errorf("expected set of display.width, got %+v", got)
	}
	if got.OldValue != 80 || got.NewValue != 40 || got.Source != "arguments" {
		t.Errorf("expected 80 -> 40 from arguments, got %+v", got)
	}
}

func TestNotifier_ReloadReachesPathObservers(t *testing.T) {
	n := New()

	var got []ChangeType
	n.SubscribePath("display", func(c Change) { got = append(got, c.Type) })
	n.NotifyReload("file")
	n.NotifyDelete("display.height", 30, "file")

	if len(got) != 2 || got[0] != ChangeReload || got[1] != ChangeDelete {
		t.Errorf("expected [reload delete], got %v", got)
	}
}

func TestSubscription_Unsubscribe(t *testing.T) {
	n := New()

	calls := 0
	sub := n.Subscribe(func(Change) { calls++ })
	n.NotifyReload("file")
	sub.Unsubscribe()
	n.NotifyReload("file")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

func TestNotifier_Closed(t *testing.T) {
	n := New()

	calls := 0
	n.Subscribe(func(Change) { calls++ })
	n.Close()
	n.Close()
	n.NotifyReload("file")

	if calls != 0 {
		t.Errorf("expected no calls after Close, got %d", calls)
	}
}

func TestNotifier_ConcurrentAccess(t *testing.T) {
	n := New()

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := n.SubscribePath("display", func(Change) {
				mu.Lock()
				count++
				mu.Unlock()
			})
			n.NotifySet("display.width", 1, 2, "file")
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	if count == 0 {
		t.Error("expected at least one delivery")
	}
}

func TestIsParentPath(t *testing.T) {
	tests := []struct {
		parent, child string
		want          bool
	}{
		{"display", "display.width", true},
		{"display", "display", false},
		{"display", "displays.width", false},
		{"", "repl.prompt", true},
		{"display.width", "display", false},
	}
	for _, tt := range tests {
		if got := isParentPath(tt.parent, tt.child); got != tt.want {
			t.Errorf("isParentPath(%q, %q): expected %v, got %v", tt.parent, tt.child, tt.want, got)
		}
	}
}
