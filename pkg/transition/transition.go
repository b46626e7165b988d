// Package transition suppresses CSS transitions while the theme flips.
//
// Before a theme change a Guard injects a global rule that disables all
// transitions, applies the change, and removes the rule on the next tick so
// the new colors never animate in.
package transition

import (
	"strings"
	"sync"
	"time"
)

// Document is the render target that can carry a temporary style rule.
type Document interface {
	// InjectStyle adds css to the document and returns a function that
	// removes it again.
	InjectStyle(css string) (remove func())
}

// Scheduler runs fn later. The default schedules on the next tick with
// time.AfterFunc(0, fn).
type Scheduler func(fn func())

func nextTick(fn func()) {
	time.AfterFunc(0, fn)
}

const disableDecl = "-webkit-transition:none!important;" +
	"-moz-transition:none!important;" +
	"-o-transition:none!important;" +
	"-ms-transition:none!important;" +
	"transition:none!important"

// CSS returns the rule disabling transitions on every element except those
// matching an exclude selector.
func CSS(exclude []string) string {
	var b strings.Builder
	b.WriteByte('*')
	for _, sel := range exclude {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		b.WriteString(":not(")
		b.WriteString(sel)
		b.WriteByte(')')
	}
	b.WriteByte('{')
	b.WriteString(disableDecl)
	b.WriteByte('}')
	return b.String()
}

// Guard wraps theme changes in a suppression window.
// A nil or disabled Guard runs fn directly.
type Guard struct {
	doc      Document
	css      string
	schedule Scheduler
}

// Option configures a Guard.
type Option func(*Guard)

// WithScheduler replaces the next-tick scheduler.
func WithScheduler(s Scheduler) Option {
	return func(g *Guard) {
		if s != nil {
			g.schedule = s
		}
	}
}

// NewGuard creates a Guard over doc. A nil doc yields a disabled guard.
func NewGuard(doc Document, exclude []string, opts ...Option) *Guard {
	g := &Guard{
		doc:      doc,
		css:      CSS(exclude),
		schedule: nextTick,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled reports whether the guard injects styles.
func (g *Guard) Enabled() bool {
	return g != nil && g.doc != nil
}

// Run injects the rule, runs fn and schedules the removal.
func (g *Guard) Run(fn func()) {
	if !g.Enabled() {
		fn()
		return
	}
	remove := g.doc.InjectStyle(g.css)
	defer g.schedule(remove)
	fn()
}

// Recorder is an in-memory Document. Server-driven tabs forward its
// injections to the browser; tests inspect it directly.
type Recorder struct {
	mu      sync.Mutex
	next    int
	active  map[int]string
	history []string
	onEvent func(css string, injected bool)
}

// NewRecorder creates a Recorder. onEvent, when non-nil, is called on every
// injection and removal outside the recorder's lock.
func NewRecorder(onEvent func(css string, injected bool)) *Recorder {
	return &Recorder{active: make(map[int]string), onEvent: onEvent}
}

// InjectStyle implements Document.
func (r *Recorder) InjectStyle(css string) func() {
	r.mu.Lock()
	r.next++
	id := r.next
	r.active[id] = css
	r.history = append(r.history, css)
	r.mu.Unlock()
	if r.onEvent != nil {
		r.onEvent(css, true)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.active, id)
			r.mu.Unlock()
			if r.onEvent != nil {
				r.onEvent(css, false)
			}
		})
	}
}

// Active returns the number of injected rules not yet removed.
func (r *Recorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// History returns every injected rule in order.
func (r *Recorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.history))
	copy(out, r.history)
	return out
}
