package session

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultTTL is the backend expiry used when the cookie has no MaxAge.
const DefaultTTL = 30 * 24 * time.Hour

// StoreStorage keeps only a session id in the cookie and the session data
// in a SessionStore backend.
type StoreStorage struct {
	store SessionStore
	opts  CookieOptions
	now   func() time.Time
	newID func() string
}

// NewStoreStorage creates a storage backed by store.
func NewStoreStorage(store SessionStore, opts CookieOptions) *StoreStorage {
	return &StoreStorage{
		store: store,
		opts:  opts.withDefaults(),
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

// Store returns the backend.
func (s *StoreStorage) Store() SessionStore {
	return s.store
}

func (s *StoreStorage) ttl() time.Duration {
	if s.opts.MaxAge > 0 {
		return s.opts.MaxAge
	}
	return DefaultTTL
}

// GetSession loads the session named by the cookie. A missing, unsigned or
// expired id starts a new session; backend failures are returned.
func (s *StoreStorage) GetSession(ctx context.Context, cookieHeader string) (*Session, error) {
	raw, ok := s.opts.read(cookieHeader)
	if !ok {
		return New(s.newID(), nil), nil
	}
	id, ok := s.opts.unsign(raw)
	if !ok || id == "" {
		return New(s.newID(), nil), nil
	}

	payload, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if payload == nil {
		return New(s.newID(), nil), nil
	}
	data, err := unmarshalData(payload)
	if err != nil {
		return New(s.newID(), nil), nil
	}
	return &Session{id: id, data: data}, nil
}

// CommitSession saves the data and returns the id cookie.
func (s *StoreStorage) CommitSession(ctx context.Context, sess *Session) (string, error) {
	if sess.id == "" {
		sess.id = s.newID()
	}
	raw, err := sess.marshal()
	if err != nil {
		return "", err
	}
	now := s.now()
	if err := s.store.Save(ctx, sess.id, raw, now.Add(s.ttl())); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return s.opts.cookie(s.opts.sign(sess.id), now), nil
}

// DestroySession deletes the backend data and expires the cookie.
func (s *StoreStorage) DestroySession(ctx context.Context, sess *Session) (string, error) {
	if sess != nil && sess.id != "" {
		if err := s.store.Delete(ctx, sess.id); err != nil {
			return "", fmt.Errorf("delete session: %w", err)
		}
		clear(sess.data)
	}
	return s.opts.expired(), nil
}
