package transition

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCSS(t *testing.T) {
	got := CSS(nil)
	want := "*{-webkit-transition:none!important;-moz-transition:none!important;-o-transition:none!important;-ms-transition:none!important;transition:none!important}"
	if got != want {
		t.Fatalf("CSS(nil) =\n%s\nwant\n%s", got, want)
	}

	got = CSS([]string{".spinner", " ", "[data-animate]"})
	if !strings.HasPrefix(got, "*:not(.spinner):not([data-animate]){") {
		t.Fatalf("CSS(exclude) = %s", got)
	}
}

func TestGuard_RunInjectsAndSchedulesRemoval(t *testing.T) {
	doc := NewRecorder(nil)
	var pending []func()
	g := NewGuard(doc, nil, WithScheduler(func(fn func()) { pending = append(pending, fn) }))

	ran := false
	g.Run(func() {
		ran = true
		if doc.Active() != 1 {
			t.Error("rule should be active while fn runs")
		}
	})
	if !ran {
		t.Fatal("fn not run")
	}
	if doc.Active() != 1 {
		t.Fatal("rule removed before the next tick")
	}
	if len(pending) != 1 {
		t.Fatalf("scheduled %d removals, want 1", len(pending))
	}
	pending[0]()
	pending[0]()
	if doc.Active() != 0 {
		t.Fatal("rule not removed")
	}
}

func TestGuard_Disabled(t *testing.T) {
	var nilGuard *Guard
	for _, g := range []*Guard{nilGuard, NewGuard(nil, nil)} {
		if g.Enabled() {
			t.Fatal("guard should be disabled")
		}
		ran := false
		g.Run(func() { ran = true })
		if !ran {
			t.Fatal("disabled guard must still run fn")
		}
	}
}

func TestGuard_DefaultSchedulerRemoves(t *testing.T) {
	removed := make(chan struct{})
	var once sync.Once
	doc := NewRecorder(func(css string, injected bool) {
		if !injected {
			once.Do(func() { close(removed) })
		}
	})
	NewGuard(doc, []string{".keep"}).Run(func() {})

	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("rule not removed on next tick")
	}
	if h := doc.History(); len(h) != 1 || !strings.Contains(h[0], ":not(.keep)") {
		t.Fatalf("history = %v", h)
	}
}
