// Package themes provides the public API for persisted, cross-tab
// synchronized light/dark themes.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/themes"
//
// Usage:
//
//	resolver := themes.CreateThemeSessionResolver(storage)
//	r.Post(themes.DefaultActionURL, themes.CreateThemeAction(resolver).ServeHTTP)
//
//	p := themes.NewProvider(themes.ProviderConfig{SpecifiedTheme: ts.Theme()})
//	ctx = p.Context(ctx)
//	current, setTheme, meta, err := themes.UseTheme(ctx)
package themes

import (
	"github.com/vango-dev/themes/pkg/action"
	"github.com/vango-dev/themes/pkg/resolver"
	"github.com/vango-dev/themes/pkg/session"
	"github.com/vango-dev/themes/pkg/store"
	"github.com/vango-dev/themes/pkg/theme"
)

// =============================================================================
// Theme values (re-export from pkg/theme)
// =============================================================================

// Theme is a color theme. The zero value is Unset.
type Theme = theme.Theme

// DefinedBy records who chose the current theme.
type DefinedBy = theme.DefinedBy

// Metadata accompanies the theme returned by UseTheme.
type Metadata = theme.Metadata

// State is a theme with its origin.
type State = theme.State

const (
	Unset = theme.Unset
	Dark  = theme.Dark
	Light = theme.Light

	System = theme.System
	User   = theme.User
)

// Themes returns every valid theme.
var Themes = theme.Themes

// IsTheme reports whether value names a valid theme.
func IsTheme(value string) bool {
	return theme.IsValid(value)
}

// =============================================================================
// Server side (re-export from pkg/resolver and pkg/action)
// =============================================================================

// DefaultActionURL is where the persist action is mounted by default.
const DefaultActionURL = action.DefaultURL

// ThemeSessionResolver reads and writes the theme in session storage.
type ThemeSessionResolver = resolver.Resolver

// CreateThemeSessionResolver wraps storage in a resolver.
func CreateThemeSessionResolver(storage session.Storage) *ThemeSessionResolver {
	return resolver.New(storage)
}

// CreateThemeAction returns the persist action handler.
func CreateThemeAction(r *ThemeSessionResolver, opts ...action.Option) *action.Handler {
	return action.New(r, opts...)
}

// =============================================================================
// Client store (re-export from pkg/store)
// =============================================================================

// Setter changes the theme of the store it came from.
type Setter = store.Setter

// ErrNoProvider is returned by UseTheme when ctx carries no store.
var ErrNoProvider = store.ErrNoProvider
