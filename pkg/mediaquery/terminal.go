package mediaquery

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/themes/pkg/theme"
)

var hasDarkBackground = lipgloss.HasDarkBackground

// Terminal returns a static Query answering from the terminal's background
// color. It queries the terminal once.
func Terminal() Query {
	if hasDarkBackground() {
		return Static(theme.Dark)
	}
	return Static(theme.Light)
}
