package tab

import (
	"net/http"

	"github.com/oklog/ulid/v2"
)

// DefaultBrowserCookie names the cookie that groups the tabs of one
// browser into one broadcast scope.
const DefaultBrowserCookie = "__themes-browser"

// EnsureBrowserID returns the browser id from r, issuing a new ULID cookie
// on w when there is none.
func EnsureBrowserID(w http.ResponseWriter, r *http.Request, name string) string {
	if id, ok := BrowserID(r, name); ok {
		return id
	}
	id := ulid.Make().String()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// BrowserID reads a valid browser id from r.
func BrowserID(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	if _, err := ulid.ParseStrict(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}
