package errors

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	codeStyle   = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	causeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Format renders the error for terminal display.
func (e *ThemeError) Format() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("ERROR"))
	b.WriteString(" ")
	if e.Code != "" {
		b.WriteString(codeStyle.Render(e.Code + ":"))
		b.WriteString(" ")
	}
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Detail != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString("\n  ")
		b.WriteString(causeStyle.Render("cause: " + e.Wrapped.Error()))
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		b.WriteString("\n  ")
		b.WriteString(hintStyle.Render("Hint: " + e.Suggestion))
		b.WriteString("\n")
	}
	return b.String()
}
