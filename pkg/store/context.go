package store

import (
	"context"
	"errors"

	themeerrors "github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/theme"
)

// ErrNoProvider is returned when no Store is in scope.
var ErrNoProvider = errors.New("useTheme must be used within a ThemeProvider")

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Store in ctx.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	return s, ok && s != nil
}

// Use returns the current theme, its setter and metadata from the Store in
// ctx. Without a Store it fails with ErrNoProvider and no default state.
func Use(ctx context.Context) (theme.Theme, Setter, theme.Metadata, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return theme.Unset, nil, theme.Metadata{}, ErrNoProvider
	}
	st := s.State()
	return st.Theme, s.Set, st.Metadata(), nil
}

// MustUse is Use for render paths where a missing Store is a programming
// error. It panics with a T001 error.
func MustUse(ctx context.Context) (theme.Theme, Setter, theme.Metadata) {
	t, set, meta, err := Use(ctx)
	if err != nil {
		panic(themeerrors.New("T001"))
	}
	return t, set, meta
}
