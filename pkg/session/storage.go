package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

// Storage turns a Cookie header into a Session and a Session back into a
// Set-Cookie header value. This is the contract the theme resolver needs
// from the host.
type Storage interface {
	// GetSession parses the request's Cookie header. Unknown, expired or
	// tampered cookies yield a fresh empty session.
	GetSession(ctx context.Context, cookieHeader string) (*Session, error)

	// CommitSession persists s and returns the Set-Cookie header value.
	CommitSession(ctx context.Context, s *Session) (string, error)

	// DestroySession clears s and returns a Set-Cookie header value that
	// expires the cookie.
	DestroySession(ctx context.Context, s *Session) (string, error)
}

// DefaultCookieName matches the cookie name used by the demo apps.
const DefaultCookieName = "__remix-themes"

// CookieOptions configures the session cookie. The theme layer never reads
// these; they belong to the host application.
type CookieOptions struct {
	// Name is the cookie name. Default: DefaultCookieName.
	Name string

	// Path defaults to "/".
	Path string

	// Domain is omitted when empty.
	Domain string

	// MaxAge is the cookie lifetime. Zero produces a browser-session cookie.
	MaxAge time.Duration

	// Secure sets the Secure attribute.
	Secure bool

	// HTTPOnly sets the HttpOnly attribute. Default: true.
	HTTPOnly *bool

	// SameSite defaults to http.SameSiteLaxMode.
	SameSite http.SameSite

	// Secrets sign the cookie value. The first secret signs; every secret
	// is accepted when verifying, which allows rotation. With no secrets
	// the value is stored unsigned.
	Secrets []string
}

func (o CookieOptions) withDefaults() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.HTTPOnly == nil {
		on := true
		o.HTTPOnly = &on
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// cookie builds the Set-Cookie value for a live cookie.
func (o CookieOptions) cookie(value string, now time.Time) string {
	c := o.base(value)
	if o.MaxAge > 0 {
		c.MaxAge = int(o.MaxAge / time.Second)
		c.Expires = now.Add(o.MaxAge).UTC()
	}
	return c.String()
}

// expired builds a Set-Cookie value that removes the cookie.
func (o CookieOptions) expired() string {
	c := o.base("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	return c.String()
}

func (o CookieOptions) base(value string) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HttpOnly: *o.HTTPOnly,
		SameSite: o.SameSite,
	}
}

// read extracts the raw cookie value from a Cookie header. Malformed
// cookies belonging to someone else are skipped, as browsers send them.
func (o CookieOptions) read(cookieHeader string) (string, bool) {
	if cookieHeader == "" {
		return "", false
	}
	req := &http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	c, err := req.Cookie(o.Name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (o CookieOptions) sign(value string) string {
	if len(o.Secrets) == 0 {
		return value
	}
	return value + "." + mac(o.Secrets[0], value)
}

// unsign returns the payload when any secret verifies the signature.
func (o CookieOptions) unsign(signed string) (string, bool) {
	if len(o.Secrets) == 0 {
		return signed, true
	}
	i := strings.LastIndexByte(signed, '.')
	if i < 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	for _, secret := range o.Secrets {
		if hmac.Equal([]byte(sig), []byte(mac(secret, value))) {
			return value, true
		}
	}
	return "", false
}

func mac(secret, value string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
