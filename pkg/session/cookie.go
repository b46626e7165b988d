package session

import (
	"context"
	"encoding/base64"
	"time"
)

// CookieStorage keeps the whole session inside the (optionally signed)
// cookie. Nothing is stored server-side.
type CookieStorage struct {
	opts CookieOptions
	now  func() time.Time
}

// NewCookieStorage creates a cookie-only storage.
func NewCookieStorage(opts CookieOptions) *CookieStorage {
	return &CookieStorage{opts: opts.withDefaults(), now: time.Now}
}

// Options returns the effective cookie options.
func (c *CookieStorage) Options() CookieOptions {
	return c.opts
}

// GetSession decodes the cookie. Bad signatures and malformed payloads
// produce an empty session.
func (c *CookieStorage) GetSession(_ context.Context, cookieHeader string) (*Session, error) {
	raw, ok := c.opts.read(cookieHeader)
	if !ok {
		return New("", nil), nil
	}
	payload, ok := c.opts.unsign(raw)
	if !ok {
		return New("", nil), nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return New("", nil), nil
	}
	data, err := unmarshalData(decoded)
	if err != nil {
		return New("", nil), nil
	}
	return &Session{data: data}, nil
}

// CommitSession encodes the session into the cookie value.
func (c *CookieStorage) CommitSession(_ context.Context, s *Session) (string, error) {
	raw, err := s.marshal()
	if err != nil {
		return "", err
	}
	value := c.opts.sign(base64.RawURLEncoding.EncodeToString(raw))
	return c.opts.cookie(value, c.now()), nil
}

// DestroySession clears the session and expires the cookie.
func (c *CookieStorage) DestroySession(_ context.Context, s *Session) (string, error) {
	if s != nil {
		clear(s.data)
	}
	return c.opts.expired(), nil
}
