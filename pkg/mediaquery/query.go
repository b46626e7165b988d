// Package mediaquery reports the operating system's light/dark preference.
//
// A Query is a process-wide capability: open it once and inject it into
// every theme store. Stores subscribe on creation and cancel on Close, the
// query itself is never torn down by a store.
//
// Sources:
//   - Static: a fixed answer, or "unavailable"
//   - Remote: fed from outside, such as a browser tab reporting
//     matchMedia changes over a websocket
//   - FromClientHint: the Sec-CH-Prefers-Color-Scheme request header
//   - Portal: the freedesktop settings portal over D-Bus
//   - Terminal: the background color of the controlling terminal
package mediaquery

import (
	"sync"

	"github.com/vango-dev/themes/pkg/theme"
)

// LightQuery is the CSS media query whose match means "prefers light".
const LightQuery = "(prefers-color-scheme: light)"

// Query is an OS-level color scheme preference.
type Query interface {
	// Preferred returns the current preference. ok is false when no signal
	// is available.
	Preferred() (t theme.Theme, ok bool)

	// Subscribe registers fn for preference changes. fn receives whether
	// the light query now matches.
	Subscribe(fn func(matchesLight bool)) (cancel func())
}

// PreferredOr returns q's preference, or fallback when q is nil or has no
// signal.
func PreferredOr(q Query, fallback theme.Theme) theme.Theme {
	if q == nil {
		return fallback
	}
	if t, ok := q.Preferred(); ok {
		return t
	}
	return fallback
}

// Available reports whether q can answer.
func Available(q Query) bool {
	if q == nil {
		return false
	}
	_, ok := q.Preferred()
	return ok
}

type static struct {
	t  theme.Theme
	ok bool
}

// Static returns a Query that always answers t and never changes.
// An invalid t yields an unavailable query.
func Static(t theme.Theme) Query {
	return static{t: t, ok: t.Valid()}
}

// Unavailable returns a Query with no signal.
func Unavailable() Query {
	return static{}
}

func (s static) Preferred() (theme.Theme, bool) { return s.t, s.ok }

func (static) Subscribe(func(bool)) func() { return func() {} }

// listeners is a cancelable subscriber set shared by the dynamic queries.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(bool)
}

func (l *listeners) add(fn func(bool)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(bool))
	}
	l.next++
	id := l.next
	l.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// notify calls every listener outside the lock.
func (l *listeners) notify(matchesLight bool) {
	l.mu.Lock()
	fns := make([]func(bool), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(matchesLight)
	}
}

func (l *listeners) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
