package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/themes/internal/config"
	"github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/store"
	"github.com/vango-dev/themes/pkg/theme"
)

func setCmd() *cobra.Command {
	var (
		server    string
		actionURL string
	)

	cmd := &cobra.Command{
		Use:   "set <light|dark|system>",
		Short: "Persist a theme through a running server",
		Long: `Persist a theme by posting it to the persist action of a running server
and print the session cookie it returned. "system" clears the theme.

Examples:
  themes set dark
  themes set system --server=http://localhost:3000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(server, actionURL, args[0])
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost"+config.DefaultAddr, "Server base URL")
	cmd.Flags().StringVar(&actionURL, "action", config.DefaultActionURL, "Persist action path")

	return cmd
}

func runSet(server, actionURL, value string) error {
	next := theme.Unset
	if value != "system" {
		t, ok := theme.Parse(value)
		if !ok {
			return errors.New("T010").WithDetail(fmt.Sprintf("%q is not light, dark or system", value))
		}
		next = t
	}
	base, err := url.Parse(server)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid server URL %q", server)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var (
		mu      sync.Mutex
		persErr error
	)
	persister := store.NewHTTPPersister(server,
		store.WithHTTPClient(&http.Client{Jar: jar, Timeout: 10 * time.Second}),
		store.WithPersistLogger(logger),
		store.WithPersistResult(func(_ string, _ theme.Theme, err error) {
			mu.Lock()
			defer mu.Unlock()
			if persErr == nil {
				persErr = err
			}
		}),
	)

	s := store.New(theme.Unset, actionURL, store.WithPersister(persister), store.WithLogger(logger))
	s.Set(next)
	s.Close()
	persister.Wait()

	if persErr != nil {
		return errors.FromError(persErr, "T030").WithSuggestion(fmt.Sprintf("Check that %s is running and serves POST %s.", server, actionURL))
	}
	success("Theme %s", s.State())
	for _, c := range jar.Cookies(base) {
		info("%s=%s", c.Name, c.Value)
	}
	return nil
}
