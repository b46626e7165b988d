package store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	themeerrors "github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/action"
	"github.com/vango-dev/themes/pkg/resolver"
	"github.com/vango-dev/themes/pkg/session"
	"github.com/vango-dev/themes/pkg/theme"
)

func TestBody(t *testing.T) {
	if got := string(Body(theme.Dark)); got != `{"theme":"dark"}` {
		t.Errorf("Body(dark) = %s", got)
	}
	if got := string(Body(theme.Unset)); got != `{"theme":null}` {
		t.Errorf("Body(unset) = %s", got)
	}
}

func TestHTTPPersister_RoundTrip(t *testing.T) {
	storage := session.NewCookieStorage(session.CookieOptions{Secrets: []string{"k"}})
	mux := http.NewServeMux()
	mux.Handle(action.DefaultURL, action.New(resolver.New(storage), action.WithLogger(quiet)))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	p := NewHTTPPersister(srv.URL, WithHTTPClient(&http.Client{Jar: jar}), WithPersistLogger(quiet))

	s := New(theme.Unset, action.DefaultURL, WithPersister(p), WithLogger(quiet))
	defer s.Close()
	s.Set(theme.Light)
	p.Wait()

	u, _ := url.Parse(srv.URL)
	cookies := jar.Cookies(u)
	if len(cookies) != 1 || cookies[0].Name != session.DefaultCookieName {
		t.Fatalf("jar cookies = %v", cookies)
	}

	ts, err := resolver.New(storage).ResolveHeader(context.Background(), cookies[0].Name+"="+cookies[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Theme() != theme.Light {
		t.Fatalf("persisted theme = %v", ts.Theme())
	}
}

func TestHTTPPersister_FailureKeepsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPPersister(srv.URL, WithPersistLogger(quiet))
	s := New(theme.Dark, action.DefaultURL, WithPersister(p), WithLogger(quiet))
	defer s.Close()

	s.Set(theme.Light)
	p.Wait()
	if s.Theme() != theme.Light {
		t.Fatal("failed persist rolled back state")
	}
	if err := p.post(action.DefaultURL, theme.Light); err == nil {
		t.Fatal("expected error from failing action")
	}
}

func TestHTTPPersister_ReportsResults(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	var (
		mu   sync.Mutex
		errs []error
	)
	p := NewHTTPPersister(srv.URL, WithPersistLogger(quiet), WithPersistResult(func(url string, got theme.Theme, err error) {
		mu.Lock()
		defer mu.Unlock()
		if url != action.DefaultURL {
			t.Errorf("url = %q", url)
		}
		errs = append(errs, err)
	}))

	p.Persist(action.DefaultURL, theme.Dark)
	p.Wait()
	fail.Store(true)
	p.Persist(action.DefaultURL, theme.Light)
	p.Wait()

	if len(errs) != 2 {
		t.Fatalf("results = %v, want 2", errs)
	}
	if errs[0] != nil {
		t.Fatalf("first result = %v, want nil", errs[0])
	}
	if !errors.Is(errs[1], themeerrors.New("T030")) {
		t.Fatalf("second result = %v, want T030", errs[1])
	}
}
