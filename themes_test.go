package themes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/themes/pkg/broadcast"
	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/session"
	"github.com/vango-dev/themes/pkg/store"
	"github.com/vango-dev/themes/pkg/transition"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type persisted struct {
	mu    sync.Mutex
	urls  []string
	theme []Theme
}

func (p *persisted) Persist(url string, t Theme) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	p.theme = append(p.theme, t)
}

func TestIsTheme(t *testing.T) {
	for _, v := range []string{"light", "dark"} {
		if !IsTheme(v) {
			t.Errorf("IsTheme(%q) = false", v)
		}
	}
	for _, v := range []string{"", "Dark", "blue"} {
		if IsTheme(v) {
			t.Errorf("IsTheme(%q) = true", v)
		}
	}
	if got := Themes(); len(got) != 2 || got[0] != Dark || got[1] != Light {
		t.Errorf("Themes() = %v", got)
	}
}

func TestUseTheme_WithoutProvider(t *testing.T) {
	_, _, _, err := UseTheme(context.Background())
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
	if err.Error() != "useTheme must be used within a ThemeProvider" {
		t.Errorf("message = %q", err.Error())
	}

	var buf bytes.Buffer
	if err := PreventFlashOnWrongTheme(&buf, context.Background(), false, ""); !errors.Is(err, ErrNoProvider) {
		t.Errorf("PreventFlashOnWrongTheme err = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q without a provider", buf.String())
	}
}

func TestMustUseTheme_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustUseTheme(context.Background())
}

func TestProvider_SetThroughContext(t *testing.T) {
	p := &persisted{}
	prov := NewProvider(ProviderConfig{},
		WithMediaQuery(mediaquery.Static(Light)),
		WithPersister(p),
		WithLogger(quiet),
	)
	defer prov.Close()
	ctx := prov.Context(context.Background())

	current, set, meta, err := UseTheme(ctx)
	if err != nil {
		t.Fatalf("UseTheme() error: %v", err)
	}
	if current != Light || meta.DefinedBy != System {
		t.Fatalf("initial = %v %v, want light SYSTEM", current, meta.DefinedBy)
	}

	set(Dark)

	current, _, meta = MustUseTheme(ctx)
	if current != Dark || meta.DefinedBy != User {
		t.Fatalf("after set = %v %v, want dark USER", current, meta.DefinedBy)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.urls) != 1 || p.urls[0] != DefaultActionURL || p.theme[0] != Dark {
		t.Errorf("persisted %v %v", p.urls, p.theme)
	}
}

func TestProvider_SpecifiedThemeWins(t *testing.T) {
	prov := NewProvider(ProviderConfig{SpecifiedTheme: Dark, ThemeAction: "/prefs"},
		WithMediaQuery(mediaquery.Static(Light)), WithLogger(quiet))
	defer prov.Close()

	if got := prov.Store().State(); got != (State{Theme: Dark, DefinedBy: User}) {
		t.Fatalf("State() = %v", got)
	}
	if prov.Store().ActionURL() != "/prefs" {
		t.Errorf("ActionURL() = %q", prov.Store().ActionURL())
	}
}

func TestProvider_DisableTransition(t *testing.T) {
	rec := transition.NewRecorder(nil)
	prov := NewProvider(ProviderConfig{
		DisableTransitionOnThemeChange: true,
		DisableTransitionExclude:       []string{".spinner"},
	}, WithDocument(rec), WithLogger(quiet))
	defer prov.Close()

	prov.Store().Set(Light)

	history := rec.History()
	if len(history) != 1 {
		t.Fatalf("injected %d rules, want 1", len(history))
	}
	if !strings.Contains(history[0], ":not(.spinner)") {
		t.Errorf("rule %q does not exclude .spinner", history[0])
	}
}

func TestProvider_TransitionsNeedOptIn(t *testing.T) {
	rec := transition.NewRecorder(nil)
	prov := NewProvider(ProviderConfig{}, WithDocument(rec), WithLogger(quiet))
	defer prov.Close()

	prov.Store().Set(Light)
	if n := len(rec.History()); n != 0 {
		t.Fatalf("injected %d rules without opt-in", n)
	}
}

func TestProvider_SyncsAcrossTabs(t *testing.T) {
	hub := broadcast.NewHub()
	a := NewProvider(ProviderConfig{}, WithChannel(hub.Open(broadcast.DefaultChannel, "browser")), WithLogger(quiet))
	b := NewProvider(ProviderConfig{}, WithChannel(hub.Open(broadcast.DefaultChannel, "browser")), WithLogger(quiet))
	defer a.Close()
	defer b.Close()

	a.Store().Set(Light)

	if got := b.Store().State(); got != (State{Theme: Light, DefinedBy: User}) {
		t.Fatalf("other tab = %v", got)
	}
}

func TestPreventFlashOnWrongTheme(t *testing.T) {
	prov := NewProvider(ProviderConfig{SpecifiedTheme: Light}, WithLogger(quiet))
	defer prov.Close()
	ctx := prov.Context(context.Background())

	var buf bytes.Buffer
	if err := PreventFlashOnWrongTheme(&buf, ctx, true, "abc"); err != nil {
		t.Fatalf("error: %v", err)
	}
	if got := buf.String(); got != `<meta name="color-scheme" content="light dark">` {
		t.Errorf("ssr snippet = %q", got)
	}

	buf.Reset()
	if err := PreventFlashOnWrongTheme(&buf, ctx, false, "abc"); err != nil {
		t.Fatalf("error: %v", err)
	}
	if !strings.Contains(buf.String(), `<script nonce="abc">`) {
		t.Errorf("snippet missing script: %q", buf.String())
	}
}

func TestCreateThemeSessionResolver(t *testing.T) {
	r := CreateThemeSessionResolver(session.NewCookieStorage(session.CookieOptions{Secrets: []string{"s3cr3t"}}))
	ts, err := r.ResolveHeader(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveHeader() error: %v", err)
	}
	if ts.Theme() != Unset {
		t.Errorf("Theme() = %q, want unset", ts.Theme())
	}
	if h := CreateThemeAction(r); h == nil {
		t.Fatal("CreateThemeAction returned nil")
	}
}

var _ store.Persister = (*persisted)(nil)
