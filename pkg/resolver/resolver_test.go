package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/themes/pkg/session"
	"github.com/vango-dev/themes/pkg/theme"
)

type fakeStorage struct {
	sess       *session.Session
	getErr     error
	commits    int
	destroys   int
	lastHeader string
}

func (f *fakeStorage) GetSession(_ context.Context, header string) (*session.Session, error) {
	f.lastHeader = header
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.sess, nil
}

func (f *fakeStorage) CommitSession(context.Context, *session.Session) (string, error) {
	f.commits++
	return "commit-cookie", nil
}

func (f *fakeStorage) DestroySession(context.Context, *session.Session) (string, error) {
	f.destroys++
	return "destroy-cookie", nil
}

func TestResolve_ReadsCookieHeader(t *testing.T) {
	storage := &fakeStorage{sess: session.New("", nil)}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "__remix-themes=abc")

	if _, err := New(storage).Resolve(req); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if storage.lastHeader != "__remix-themes=abc" {
		t.Fatalf("storage saw header %q", storage.lastHeader)
	}
}

func TestThemeSession_Theme(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want theme.Theme
	}{
		{"dark", "dark", theme.Dark},
		{"light", "light", theme.Light},
		{"missing", nil, theme.Unset},
		{"invalid string", "purple", theme.Unset},
		{"empty string", "", theme.Unset},
		{"non-string", 42.0, theme.Unset},
		{"wrong case", "Dark", theme.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{}
			if tt.raw != nil {
				data[Key] = tt.raw
			}
			storage := &fakeStorage{sess: session.New("", data)}
			ts, err := New(storage).ResolveHeader(context.Background(), "")
			if err != nil {
				t.Fatal(err)
			}
			if got := ts.Theme(); got != tt.want {
				t.Errorf("Theme() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThemeSession_SetCommitDestroy(t *testing.T) {
	storage := &fakeStorage{sess: session.New("", nil)}
	ts, _ := New(storage).ResolveHeader(context.Background(), "")

	ts.SetTheme(theme.Light)
	if got := ts.Theme(); got != theme.Light {
		t.Fatalf("Theme() after SetTheme = %q", got)
	}

	cookie, err := ts.Commit(context.Background())
	if err != nil || cookie != "commit-cookie" || storage.commits != 1 {
		t.Fatalf("Commit() = %q, %v (commits=%d)", cookie, err, storage.commits)
	}
	cookie, err = ts.Destroy(context.Background())
	if err != nil || cookie != "destroy-cookie" || storage.destroys != 1 {
		t.Fatalf("Destroy() = %q, %v (destroys=%d)", cookie, err, storage.destroys)
	}
}

func TestResolve_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("store unreachable")
	_, err := New(&fakeStorage{getErr: boom}).ResolveHeader(context.Background(), "")
	if !errors.Is(err, boom) {
		t.Fatalf("ResolveHeader() error = %v, want %v", err, boom)
	}
}

func TestResolve_WithCookieStorage(t *testing.T) {
	storage := session.NewCookieStorage(session.CookieOptions{Secrets: []string{"s3cr3t"}})
	r := New(storage)
	ctx := context.Background()

	ts, _ := r.ResolveHeader(ctx, "")
	ts.SetTheme(theme.Dark)
	setCookie, err := ts.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c, err := http.ParseSetCookie(setCookie)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	again, err := r.Resolve(req)
	if err != nil {
		t.Fatal(err)
	}
	if again.Theme() != theme.Dark {
		t.Fatalf("Theme() = %q, want dark", again.Theme())
	}
	if !strings.HasPrefix(setCookie, session.DefaultCookieName+"=") {
		t.Fatalf("unexpected cookie %q", setCookie)
	}
}
