package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/themes/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "themes",
		Short: "Persisted light/dark themes for Go web applications",
		Long: `themes serves a demo application for cookie-persisted, cross-tab
synchronized light/dark themes.

  • Theme stored in a signed session cookie (or memory / S3)
  • One theme store per open tab over WebSocket
  • Tabs of the same browser stay in sync
  • No flash of the wrong theme on first paint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./themes.{yaml,toml,json})")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		detectCmd(),
		configCmd(&configPath),
		setCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError prints err, using the structured format for coded errors.
func printError(err error) {
	var te *errors.ThemeError
	if stderrors.As(err, &te) {
		fmt.Fprintln(os.Stderr, te.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), err)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", successStyle.Render("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}
