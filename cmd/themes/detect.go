package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/theme"
)

func detectCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the OS color scheme preference",
		Long: `Print the OS color scheme preference as the theme store would see it.

The freedesktop settings portal is asked first; without a session bus the
terminal background is used instead.

Examples:
  themes detect
  themes detect --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and print every change")

	return cmd
}

func runDetect(watch bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var (
		query  mediaquery.Query
		source string
	)
	portal, err := mediaquery.OpenPortal(logger)
	if err != nil {
		query, source = mediaquery.Terminal(), "terminal"
	} else {
		defer portal.Close()
		query, source = portal, "portal"
	}

	printPreference(source, query)
	if !watch {
		return nil
	}
	if source != "portal" {
		warn("Terminal background cannot be watched")
		return nil
	}

	cancel := query.Subscribe(func(matchesLight bool) {
		printPreference(source, mediaquery.Static(theme.FromMatchesLight(matchesLight)))
	})
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

func printPreference(source string, q mediaquery.Query) {
	t, ok := q.Preferred()
	if !ok {
		warn("No color scheme preference (%s)", source)
		info("Stores fall back to %s", theme.Dark)
		return
	}
	swatch := swatchStyle(t).Render(" " + string(t) + " ")
	fmt.Printf("%s %s %s\n", successStyle.Render("✓"), swatch, "via "+source)
}

func swatchStyle(t theme.Theme) lipgloss.Style {
	if t == theme.Light {
		return lipgloss.NewStyle().Background(lipgloss.Color("255")).Foreground(lipgloss.Color("0"))
	}
	return lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255"))
}
