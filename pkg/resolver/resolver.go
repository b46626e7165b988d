// Package resolver binds a request's cookie session to theme reads and
// writes.
//
//	themeSessionResolver := resolver.New(session.NewCookieStorage(session.CookieOptions{
//	    Secrets: []string{"s3cr3t"},
//	}))
//
//	// In a loader:
//	ts, err := themeSessionResolver.Resolve(r)
//	current := ts.Theme()
package resolver

import (
	"context"
	"net/http"

	"github.com/vango-dev/themes/pkg/session"
	"github.com/vango-dev/themes/pkg/theme"
)

// Key is the session key holding the theme.
const Key = "theme"

// Resolver creates ThemeSessions from requests.
type Resolver struct {
	storage session.Storage
}

// New creates a Resolver over the host's session storage.
func New(storage session.Storage) *Resolver {
	return &Resolver{storage: storage}
}

// Storage returns the underlying session storage.
func (r *Resolver) Storage() session.Storage {
	return r.storage
}

// Resolve loads the session addressed by the request's Cookie header.
// Storage failures are returned unchanged.
func (r *Resolver) Resolve(req *http.Request) (*ThemeSession, error) {
	return r.ResolveHeader(req.Context(), req.Header.Get("Cookie"))
}

// ResolveHeader is Resolve for callers that only hold the Cookie header,
// such as websocket handlers after the upgrade.
func (r *Resolver) ResolveHeader(ctx context.Context, cookieHeader string) (*ThemeSession, error) {
	s, err := r.storage.GetSession(ctx, cookieHeader)
	if err != nil {
		return nil, err
	}
	return &ThemeSession{storage: r.storage, session: s}, nil
}

// ThemeSession is the theme view of one request's session.
type ThemeSession struct {
	storage session.Storage
	session *session.Session
}

// Theme returns the stored theme, or theme.Unset when the stored value is
// missing or not a valid theme.
func (ts *ThemeSession) Theme() theme.Theme {
	raw, ok := ts.session.Get(Key).(string)
	if !ok {
		return theme.Unset
	}
	t, _ := theme.Parse(raw)
	return t
}

// SetTheme stores t. Callers validate t first.
func (ts *ThemeSession) SetTheme(t theme.Theme) {
	ts.session.Set(Key, string(t))
}

// Commit persists the session and returns the Set-Cookie header value.
func (ts *ThemeSession) Commit(ctx context.Context) (string, error) {
	return ts.storage.CommitSession(ctx, ts.session)
}

// Destroy clears the session and returns the Set-Cookie header value that
// removes the cookie.
func (ts *ThemeSession) Destroy(ctx context.Context) (string, error) {
	return ts.storage.DestroySession(ctx, ts.session)
}

// Session exposes the raw session.
func (ts *ThemeSession) Session() *session.Session {
	return ts.session
}
