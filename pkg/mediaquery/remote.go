package mediaquery

import (
	"sync"

	"github.com/vango-dev/themes/pkg/theme"
)

// Remote is a Query fed by Report calls.
type Remote struct {
	mu    sync.RWMutex
	known bool
	light bool
	subs  listeners
}

// NewRemote creates a Remote with no signal yet.
func NewRemote() *Remote {
	return &Remote{}
}

// NewRemoteWith creates a Remote seeded with an initial answer.
func NewRemoteWith(matchesLight bool) *Remote {
	return &Remote{known: true, light: matchesLight}
}

// Preferred implements Query.
func (r *Remote) Preferred() (theme.Theme, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.known {
		return theme.Unset, false
	}
	return theme.FromMatchesLight(r.light), true
}

// Subscribe implements Query.
func (r *Remote) Subscribe(fn func(matchesLight bool)) func() {
	return r.subs.add(fn)
}

// Report records a new match state and notifies subscribers when it
// changed. Going from no signal to a known answer counts as a change.
func (r *Remote) Report(matchesLight bool) {
	r.mu.Lock()
	changed := !r.known || r.light != matchesLight
	r.known = true
	r.light = matchesLight
	r.mu.Unlock()

	if changed {
		r.subs.notify(matchesLight)
	}
}

// Subscribers returns the number of active subscriptions.
func (r *Remote) Subscribers() int {
	return r.subs.len()
}
