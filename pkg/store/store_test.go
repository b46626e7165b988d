package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	themeerrors "github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/broadcast"
	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/theme"
	"github.com/vango-dev/themes/pkg/transition"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type persistCall struct {
	url   string
	theme theme.Theme
}

type recordingPersister struct {
	mu    sync.Mutex
	calls []persistCall
}

func (r *recordingPersister) Persist(url string, t theme.Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, persistCall{url, t})
}

func (r *recordingPersister) Calls() []persistCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]persistCall(nil), r.calls...)
}

func TestNew_Initialization(t *testing.T) {
	tests := []struct {
		name      string
		specified theme.Theme
		query     mediaquery.Query
		want      theme.State
	}{
		{"server dark", theme.Dark, mediaquery.Static(theme.Light), theme.State{Theme: theme.Dark, DefinedBy: theme.User}},
		{"os light", theme.Unset, mediaquery.Static(theme.Light), theme.State{Theme: theme.Light, DefinedBy: theme.System}},
		{"invalid server value", theme.Theme("blue"), mediaquery.Static(theme.Dark), theme.State{Theme: theme.Dark, DefinedBy: theme.System}},
		{"no signal", theme.Unset, mediaquery.Unavailable(), theme.State{Theme: theme.Unset, DefinedBy: theme.System}},
		{"no query", theme.Unset, nil, theme.State{Theme: theme.Unset, DefinedBy: theme.System}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.specified, "/action/set-theme", WithMediaQuery(tt.query), WithLogger(quiet))
			defer s.Close()
			if got := s.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSet_ExplicitThemePersistsOnce(t *testing.T) {
	p := &recordingPersister{}
	q := mediaquery.NewRemoteWith(false)
	s := New(theme.Unset, "/action/set-theme", WithMediaQuery(q), WithPersister(p), WithLogger(quiet))
	defer s.Close()

	if got := s.State(); got != (theme.State{Theme: theme.Dark, DefinedBy: theme.System}) {
		t.Fatalf("initial = %v", got)
	}

	s.Set(theme.Light)

	if got := s.State(); got != (theme.State{Theme: theme.Light, DefinedBy: theme.User}) {
		t.Fatalf("State() = %v, want (light, USER)", got)
	}
	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("persist calls = %d, want 1", len(calls))
	}
	if calls[0].url != "/action/set-theme" || string(Body(calls[0].theme)) != `{"theme":"light"}` {
		t.Fatalf("persist call = %+v body %s", calls[0], Body(calls[0].theme))
	}
}

func TestSet_UnsetResetsToSystem(t *testing.T) {
	p := &recordingPersister{}
	s := New(theme.Dark, "/a", WithMediaQuery(mediaquery.Static(theme.Light)), WithPersister(p), WithLogger(quiet))
	defer s.Close()

	s.Set(theme.Unset)
	if got := s.State(); got != (theme.State{Theme: theme.Light, DefinedBy: theme.System}) {
		t.Fatalf("State() = %v", got)
	}
	calls := p.Calls()
	if len(calls) != 1 || string(Body(calls[0].theme)) != `{"theme":null}` {
		t.Fatalf("persist calls = %+v", calls)
	}
}

func TestSet_UnsetWithoutSignalFallsBackToDark(t *testing.T) {
	s := New(theme.Light, "/a", WithLogger(quiet))
	defer s.Close()

	s.Set(theme.Unset)
	if got := s.State(); got != (theme.State{Theme: Fallback, DefinedBy: theme.System}) {
		t.Fatalf("State() = %v", got)
	}
}

func TestSet_InvalidIgnored(t *testing.T) {
	p := &recordingPersister{}
	s := New(theme.Dark, "/a", WithPersister(p), WithLogger(quiet))
	defer s.Close()

	s.Set(theme.Theme("sepia"))
	if s.Theme() != theme.Dark || len(p.Calls()) != 0 {
		t.Fatalf("invalid set changed state: %v, %d calls", s.State(), len(p.Calls()))
	}
}

func TestUpdate(t *testing.T) {
	s := New(theme.Dark, "/a", WithLogger(quiet))
	defer s.Close()

	s.Update(func(cur theme.Theme) theme.Theme { return cur.Opposite() })
	if s.Theme() != theme.Light {
		t.Fatalf("Theme() = %v, want light", s.Theme())
	}
}

func TestMedia_IgnoredWhileUser(t *testing.T) {
	q := mediaquery.NewRemoteWith(false)
	p := &recordingPersister{}
	s := New(theme.Dark, "/a", WithMediaQuery(q), WithPersister(p), WithLogger(quiet))
	defer s.Close()

	q.Report(true)
	if got := s.State(); got != (theme.State{Theme: theme.Dark, DefinedBy: theme.User}) {
		t.Fatalf("OS change altered user theme: %v", got)
	}
}

func TestMedia_AppliedWhileSystem(t *testing.T) {
	q := mediaquery.NewRemoteWith(false)
	p := &recordingPersister{}
	hub := broadcast.NewHub(broadcast.WithLogger(quiet))
	s := New(theme.Unset, "/a", WithMediaQuery(q), WithPersister(p),
		WithChannel(hub.Open(broadcast.DefaultChannel, "b")), WithLogger(quiet))
	defer s.Close()

	peer := hub.Open(broadcast.DefaultChannel, "b")
	defer peer.Close()
	heard := 0
	peer.Subscribe(func(broadcast.Message) { heard++ }, nil)

	var changes []theme.State
	s.OnChange(func(st theme.State) { changes = append(changes, st) })

	q.Report(true)
	if got := s.State(); got != (theme.State{Theme: theme.Light, DefinedBy: theme.System}) {
		t.Fatalf("State() = %v, want (light, SYSTEM)", got)
	}
	if len(p.Calls()) != 0 {
		t.Fatal("OS change must not persist")
	}
	if heard != 0 {
		t.Fatal("OS change must not broadcast")
	}
	if len(changes) != 1 {
		t.Fatalf("OnChange fired %d times", len(changes))
	}
}

func TestMedia_FirstSignalResolvesUnsetState(t *testing.T) {
	q := mediaquery.NewRemote()
	p := &recordingPersister{}
	s := New(theme.Unset, "/a", WithMediaQuery(q), WithPersister(p), WithLogger(quiet))
	defer s.Close()

	if got := s.State(); got != (theme.State{Theme: theme.Unset, DefinedBy: theme.System}) {
		t.Fatalf("initial State() = %v", got)
	}
	q.Report(true)
	if got := s.State(); got != (theme.State{Theme: theme.Light, DefinedBy: theme.System}) {
		t.Fatalf("State() = %v, want (light, SYSTEM)", got)
	}
	if len(p.Calls()) != 0 {
		t.Fatal("OS signal must not persist")
	}
}

func TestBroadcast_Convergence(t *testing.T) {
	hub := broadcast.NewHub(broadcast.WithLogger(quiet))
	pa, pb := &recordingPersister{}, &recordingPersister{}

	a := New(theme.Unset, "/a", WithMediaQuery(mediaquery.Static(theme.Light)), WithPersister(pa),
		WithChannel(hub.Open(broadcast.DefaultChannel, "browser")), WithLogger(quiet))
	defer a.Close()
	b := New(theme.Unset, "/a", WithMediaQuery(mediaquery.Static(theme.Light)), WithPersister(pb),
		WithChannel(hub.Open(broadcast.DefaultChannel, "browser")), WithLogger(quiet))
	defer b.Close()

	if got := b.State(); got != (theme.State{Theme: theme.Light, DefinedBy: theme.System}) {
		t.Fatalf("b initial = %v", got)
	}

	a.Set(theme.Dark)

	if got := b.State(); got != (theme.State{Theme: theme.Dark, DefinedBy: theme.User}) {
		t.Fatalf("b = %v, want (dark, USER)", got)
	}
	if len(pb.Calls()) != 0 {
		t.Fatal("receiving tab made a network call")
	}
	if len(pa.Calls()) != 1 {
		t.Fatalf("sending tab persisted %d times", len(pa.Calls()))
	}
}

func TestBroadcast_ResetConverges(t *testing.T) {
	hub := broadcast.NewHub(broadcast.WithLogger(quiet))
	q := mediaquery.Static(theme.Light)
	a := New(theme.Dark, "/a", WithMediaQuery(q), WithChannel(hub.Open(broadcast.DefaultChannel, "x")), WithLogger(quiet))
	b := New(theme.Dark, "/a", WithMediaQuery(q), WithChannel(hub.Open(broadcast.DefaultChannel, "x")), WithLogger(quiet))
	defer a.Close()
	defer b.Close()

	a.Set(theme.Unset)
	if got := b.State(); got != (theme.State{Theme: theme.Light, DefinedBy: theme.System}) {
		t.Fatalf("b = %v", got)
	}
}

func TestClose_ReleasesSubscriptions(t *testing.T) {
	q := mediaquery.NewRemoteWith(false)
	hub := broadcast.NewHub(broadcast.WithLogger(quiet))
	s := New(theme.Unset, "/a", WithMediaQuery(q), WithChannel(hub.Open(broadcast.DefaultChannel, "c")), WithLogger(quiet))

	if q.Subscribers() != 1 || hub.Handles(broadcast.DefaultChannel, "c") != 1 {
		t.Fatalf("subscriptions not taken: %d, %d", q.Subscribers(), hub.Handles(broadcast.DefaultChannel, "c"))
	}
	s.Close()
	s.Close()
	if !s.Closed() {
		t.Fatal("Closed() = false")
	}
	if q.Subscribers() != 0 || hub.Handles(broadcast.DefaultChannel, "c") != 0 {
		t.Fatal("subscriptions leaked after Close")
	}

	before := s.State()
	s.Set(theme.Light)
	if s.State() != before {
		t.Fatal("closed store changed state")
	}
}

func TestTransitions_WrapEveryChange(t *testing.T) {
	doc := transition.NewRecorder(nil)
	s := New(theme.Dark, "/a", WithTransitions(doc, ".no-suppress"), WithLogger(quiet))
	defer s.Close()

	s.Set(theme.Light)
	s.Set(theme.Dark)

	h := doc.History()
	if len(h) != 2 {
		t.Fatalf("injections = %d, want 2", len(h))
	}
	if !strings.Contains(h[0], ":not(.no-suppress)") {
		t.Fatalf("css = %s", h[0])
	}
}

func TestUse(t *testing.T) {
	_, set, _, err := Use(context.Background())
	if !errors.Is(err, ErrNoProvider) || set != nil {
		t.Fatalf("Use() without provider = %v", err)
	}
	if err.Error() != "useTheme must be used within a ThemeProvider" {
		t.Fatalf("message = %q", err.Error())
	}

	s := New(theme.Light, "/a", WithLogger(quiet))
	defer s.Close()
	ctx := NewContext(context.Background(), s)

	got, set, meta, err := Use(ctx)
	if err != nil || got != theme.Light || meta.DefinedBy != theme.User {
		t.Fatalf("Use() = %v %v %v", got, meta, err)
	}
	set(theme.Dark)
	if s.Theme() != theme.Dark {
		t.Fatal("setter did not reach the store")
	}
}

func TestMustUse_Panics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*themeerrors.ThemeError)
		if !ok || err.Code != "T001" {
			t.Fatalf("recovered %v", r)
		}
		if !strings.Contains(err.Error(), "useTheme must be used within a ThemeProvider") {
			t.Fatalf("message = %q", err.Error())
		}
	}()
	MustUse(context.Background())
}
