// Package theme defines the two-valued theme type and the provenance
// metadata shared by the session codec, the persist action and the tab
// store.
package theme

import (
	"fmt"
	"strings"
)

// Theme is one of the two supported visual modes.
// The zero value, Unset, means no theme has been resolved yet.
type Theme string

const (
	// Unset means the theme is not known (no server value and no OS signal).
	Unset Theme = ""

	// Dark is the dark theme.
	Dark Theme = "dark"

	// Light is the light theme.
	Light Theme = "light"
)

var themes = []Theme{Dark, Light}

// Themes returns every valid theme value.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// IsValid reports whether value is exactly one of the theme literals.
// Case and surrounding whitespace are significant.
func IsValid(value string) bool {
	switch Theme(value) {
	case Dark, Light:
		return true
	default:
		return false
	}
}

// Parse converts a raw string into a Theme.
func Parse(value string) (Theme, bool) {
	if !IsValid(value) {
		return Unset, false
	}
	return Theme(value), true
}

// Valid reports whether t is Light or Dark.
func (t Theme) Valid() bool {
	return IsValid(string(t))
}

// String returns the theme literal, or "unset".
func (t Theme) String() string {
	if t == Unset {
		return "unset"
	}
	return string(t)
}

// Opposite returns the other theme. Unset has no opposite.
func (t Theme) Opposite() Theme {
	switch t {
	case Dark:
		return Light
	case Light:
		return Dark
	default:
		return Unset
	}
}

// FromMatchesLight maps the result of the "prefers light" media query.
func FromMatchesLight(matchesLight bool) Theme {
	if matchesLight {
		return Light
	}
	return Dark
}

// ColorScheme returns the content of the color-scheme meta tag that gives
// priority to t.
func ColorScheme(t Theme) string {
	if t == Light {
		return "light dark"
	}
	return "dark light"
}

// DefinedBy records how the current theme value was decided.
type DefinedBy uint8

const (
	// System means the theme tracks the OS-level preference.
	System DefinedBy = iota

	// User means the theme was chosen explicitly or restored from a session.
	User
)

// String returns "USER" or "SYSTEM".
func (d DefinedBy) String() string {
	if d == User {
		return "USER"
	}
	return "SYSTEM"
}

// MarshalText implements encoding.TextMarshaler.
func (d DefinedBy) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DefinedBy) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "USER":
		*d = User
	case "SYSTEM":
		*d = System
	default:
		return fmt.Errorf("theme: unknown definedBy %q", string(text))
	}
	return nil
}

// Metadata describes the provenance of the current theme.
type Metadata struct {
	DefinedBy DefinedBy `json:"definedBy"`
}

// State is the per-tab theme state.
type State struct {
	Theme     Theme     `json:"theme"`
	DefinedBy DefinedBy `json:"definedBy"`
}

// Metadata returns the provenance part of the state.
func (s State) Metadata() Metadata {
	return Metadata{DefinedBy: s.DefinedBy}
}

// String formats the state as "(dark, USER)".
func (s State) String() string {
	return fmt.Sprintf("(%s, %s)", s.Theme, s.DefinedBy)
}
