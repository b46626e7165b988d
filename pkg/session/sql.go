package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SQLStore keeps session payloads in a database/sql table.
// The driver is chosen by the caller; the expected schema is:
//
//	CREATE TABLE theme_sessions (
//	    id VARCHAR(64) PRIMARY KEY,
//	    data BYTEA NOT NULL,
//	    expires_at TIMESTAMP WITH TIME ZONE NOT NULL
//	);
type SQLStore struct {
	db              *sql.DB
	table           string
	dialect         SQLDialect
	cleanupInterval time.Duration
	now             func() time.Time

	closeOnce sync.Once
	closed    bool
	done      chan struct{}
}

// SQLDialect selects placeholder and upsert syntax.
type SQLDialect int

const (
	// DialectPostgreSQL uses $n placeholders and ON CONFLICT.
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses ? placeholders and ON DUPLICATE KEY.
	DialectMySQL
	// DialectSQLite uses ? placeholders and INSERT OR REPLACE.
	DialectSQLite
)

// SQLStoreOption configures a SQLStore.
type SQLStoreOption func(*SQLStore)

// WithSQLTableName sets the table name. Default: "theme_sessions".
func WithSQLTableName(name string) SQLStoreOption {
	return func(s *SQLStore) {
		s.table = name
	}
}

// WithSQLDialect sets the SQL dialect. Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(s *SQLStore) {
		s.dialect = dialect
	}
}

// WithSQLCleanupInterval sets how often expired rows are deleted.
// Zero disables the sweeper. Default: 5 minutes.
func WithSQLCleanupInterval(d time.Duration) SQLStoreOption {
	return func(s *SQLStore) {
		s.cleanupInterval = d
	}
}

// NewSQLStore creates a SQL-backed store.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	s := &SQLStore{
		db:              db,
		table:           "theme_sessions",
		dialect:         DialectPostgreSQL,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}
	return s
}

func (s *SQLStore) ph(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) upsertQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return fmt.Sprintf(`INSERT INTO %s (id, data, expires_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE data = VALUES(data), expires_at = VALUES(expires_at)`, s.table)
	case DialectSQLite:
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, data, expires_at) VALUES (?, ?, ?)`, s.table)
	default:
		return fmt.Sprintf(`INSERT INTO %s (id, data, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`, s.table)
	}
}

// Save upserts the payload.
func (s *SQLStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), sessionID, data, expiresAt.UTC())
	return err
}

// Load returns the payload if the row exists and has not expired.
func (s *SQLStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = %s AND expires_at > %s`,
		s.table, s.ph(1), s.ph(2))

	var data []byte
	err := s.db.QueryRowContext(ctx, query, sessionID, s.now().UTC()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes the row.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	if s.closed {
		return ErrStoreClosed
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, s.table, s.ph(1))
	_, err := s.db.ExecContext(ctx, query, sessionID)
	return err
}

// Touch updates expires_at.
func (s *SQLStore) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed
	}
	query := fmt.Sprintf(`UPDATE %s SET expires_at = %s WHERE id = %s`, s.table, s.ph(1), s.ph(2))
	_, err := s.db.ExecContext(ctx, query, expiresAt.UTC(), sessionID)
	return err
}

// Close stops the sweeper. The *sql.DB is owned by the caller.
func (s *SQLStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		close(s.done)
	})
	return nil
}

// CreateTable creates the table and its expiry index if missing.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at DATETIME NOT NULL
		)`, s.table)
	case DialectSQLite:
		query = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)`, s.table)
	default:
		query = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			data BYTEA NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, s.table)
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_expires ON %s(expires_at)`, s.table, s.table)
	if s.dialect == DialectMySQL {
		index = fmt.Sprintf(`CREATE INDEX idx_%s_expires ON %s(expires_at)`, s.table, s.table)
	}
	// MySQL has no IF NOT EXISTS for indexes; a duplicate index error is expected there.
	_, _ = s.db.ExecContext(ctx, index)
	return nil
}

func (s *SQLStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *SQLStore) cleanup() {
	if s.closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < %s`, s.table, s.ph(1))
	_, _ = s.db.ExecContext(ctx, query, s.now().UTC())
}
