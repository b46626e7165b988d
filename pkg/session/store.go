package session

import (
	"context"
	"errors"
	"time"
)

// SessionStore is a key-value backend for StoreStorage.
// Values are opaque serialized session payloads keyed by session id.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Save writes data under sessionID, replacing any previous value.
	Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error

	// Load returns (nil, nil) when the session is missing or expired.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session. Missing sessions are not an error.
	Delete(ctx context.Context, sessionID string) error

	// Touch extends the expiry without rewriting the payload.
	Touch(ctx context.Context, sessionID string, expiresAt time.Time) error

	// Close releases backend resources owned by the store.
	Close() error
}

// ErrStoreClosed is returned when a closed store is used.
var ErrStoreClosed = errors.New("session: store is closed")
