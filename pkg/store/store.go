// Package store is the per-tab theme state machine.
//
// A Store holds {theme, definedBy} for one browser tab. It reacts to three
// inputs:
//
//   - Set from the user: state becomes (theme, USER), or (OS preference,
//     SYSTEM) for Unset. The change is broadcast to sibling tabs and
//     persisted once through the persist action.
//   - OS preference changes: applied only while definedBy is SYSTEM. Never
//     broadcast, never persisted.
//   - Broadcasts from sibling tabs: adopted unconditionally. Never
//     re-broadcast, never persisted.
//
// State updates are optimistic. Persistence is fire-and-forget and a failed
// persist does not roll the state back.
//
//	s := store.New(ts.Theme(), action.DefaultURL,
//	    store.WithMediaQuery(query),
//	    store.WithChannel(hub.Open(broadcast.DefaultChannel, browserID)),
//	    store.WithPersister(persister),
//	)
//	defer s.Close()
//	s.Set(theme.Light)
package store

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/themes/pkg/broadcast"
	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/metrics"
	"github.com/vango-dev/themes/pkg/theme"
	"github.com/vango-dev/themes/pkg/transition"
)

// Fallback is the theme used when a reset finds no OS preference.
const Fallback = theme.Dark

// Setter changes the theme. Unset returns to the OS preference.
type Setter func(theme.Theme)

// Store is one tab's theme state.
type Store struct {
	mu     sync.Mutex
	state  theme.State
	closed bool

	actionURL string
	query     mediaquery.Query
	channel   broadcast.Channel
	persister Persister
	guard     *transition.Guard
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// set by WithTransitions, turned into guard by New
	doc     transition.Document
	exclude []string

	listenersMu sync.Mutex
	listeners   map[int]func(theme.State)
	nextID      int

	cancels []func()
}

// Option configures a Store.
type Option func(*Store)

// WithMediaQuery sets the OS preference source.
func WithMediaQuery(q mediaquery.Query) Option {
	return func(s *Store) {
		s.query = q
	}
}

// WithChannel sets the cross-tab channel. The store owns the handle and
// closes it on Close.
func WithChannel(ch broadcast.Channel) Option {
	return func(s *Store) {
		if ch != nil {
			s.channel = ch
		}
	}
}

// WithPersister sets how explicit changes reach the persist action.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithTransitions suppresses CSS transitions on doc during every change.
// Elements matching an exclude selector keep their transitions.
func WithTransitions(doc transition.Document, exclude ...string) Option {
	return func(s *Store) {
		s.doc = doc
		s.exclude = exclude
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records transitions and store lifetimes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a store.
//
// specified is the theme resolved from the session on the server. When it
// is valid the store starts at (specified, USER). Otherwise it starts at the
// OS preference with SYSTEM, or at (Unset, SYSTEM) when no preference is
// available yet.
func New(specified theme.Theme, actionURL string, opts ...Option) *Store {
	s := &Store{
		actionURL: actionURL,
		channel:   broadcast.Noop(),
		logger:    slog.Default().With("component", "theme-store"),
		listeners: make(map[int]func(theme.State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.doc != nil {
		s.guard = transition.NewGuard(s.doc, s.exclude)
	}

	switch {
	case specified.Valid():
		s.state = theme.State{Theme: specified, DefinedBy: theme.User}
	case mediaquery.Available(s.query):
		s.state = theme.State{Theme: mediaquery.PreferredOr(s.query, Fallback), DefinedBy: theme.System}
	default:
		s.state = theme.State{Theme: theme.Unset, DefinedBy: theme.System}
	}

	if s.query != nil {
		s.cancels = append(s.cancels, s.query.Subscribe(s.handleMedia))
	}
	s.cancels = append(s.cancels, s.channel.Subscribe(s.handleBroadcast, s.handleBroadcastError))

	s.metrics.StoreOpened()
	s.logger.Debug("theme store created", "state", s.state)
	return s
}

// State returns the current state.
func (s *Store) State() theme.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Theme returns the current theme.
func (s *Store) Theme() theme.Theme {
	return s.State().Theme
}

// Metadata returns the provenance of the current theme.
func (s *Store) Metadata() theme.Metadata {
	return s.State().Metadata()
}

// ActionURL returns the persist action URL.
func (s *Store) ActionURL() string {
	return s.actionURL
}

// Set applies an explicit choice. Unset resets to the OS preference,
// falling back to Fallback without one. Invalid themes are ignored.
func (s *Store) Set(t theme.Theme) {
	var next theme.State
	switch {
	case t == theme.Unset:
		next = theme.State{Theme: mediaquery.PreferredOr(s.query, Fallback), DefinedBy: theme.System}
	case t.Valid():
		next = theme.State{Theme: t, DefinedBy: theme.User}
	default:
		s.logger.Warn("ignoring invalid theme", "theme", string(t))
		return
	}

	if !s.apply(next) {
		return
	}
	s.metrics.Transition(metrics.SourceUser)
	s.logger.Debug("theme set", "state", next)

	s.channel.Send(broadcast.FromState(next))
	if s.persister != nil {
		s.persister.Persist(s.actionURL, t)
	}
}

// Update sets the theme computed from the current one.
func (s *Store) Update(fn func(current theme.Theme) theme.Theme) {
	s.Set(fn(s.Theme()))
}

// Setter returns s.Set as a Setter.
func (s *Store) Setter() Setter {
	return s.Set
}

func (s *Store) handleMedia(matchesLight bool) {
	s.mu.Lock()
	user := s.closed || s.state.DefinedBy == theme.User
	s.mu.Unlock()
	if user {
		return
	}

	next := theme.State{Theme: theme.FromMatchesLight(matchesLight), DefinedBy: theme.System}
	applied := false
	s.guard.Run(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Re-check: a Set or broadcast may have landed since.
		if s.closed || s.state.DefinedBy == theme.User || s.state == next {
			return
		}
		s.state = next
		applied = true
	})
	if !applied {
		return
	}
	s.metrics.Transition(metrics.SourceSystem)
	s.logger.Debug("os preference applied", "state", next)
	s.notify(next)
}

func (s *Store) handleBroadcast(m broadcast.Message) {
	if !m.Theme.Valid() {
		return
	}
	next := m.State()
	if !s.apply(next) {
		return
	}
	s.metrics.Transition(metrics.SourceBroadcast)
	s.logger.Debug("broadcast applied", "state", next)
}

func (s *Store) handleBroadcastError(err error) {
	s.logger.Warn("undecodable theme broadcast", "error", err)
}

// apply installs next inside the transition guard and notifies listeners.
// It reports false once the store is closed.
func (s *Store) apply(next theme.State) bool {
	ok := false
	s.guard.Run(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.state = next
		ok = true
	})
	if ok {
		s.notify(next)
	}
	return ok
}

// OnChange registers fn for every state change.
func (s *Store) OnChange(fn func(theme.State)) (cancel func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify(st theme.State) {
	s.listenersMu.Lock()
	fns := make([]func(theme.State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the media query and channel subscriptions and closes the
// channel handle. The media query itself stays open. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.channel.Close()

	s.listenersMu.Lock()
	s.listeners = make(map[int]func(theme.State))
	s.listenersMu.Unlock()

	s.metrics.StoreClosed()
	s.logger.Debug("theme store closed")
}
