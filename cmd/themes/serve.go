package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/themes/internal/config"
)

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		Long: `Start the demo server.

Configuration is read from the config file and THEMES_* environment
variables (THEMES_SERVER_ADDR, THEMES_SESSION_BACKEND, ...). The log
level follows the config file while the server runs.

Examples:
  themes serve
  themes serve --addr=:3000
  themes serve --config=prod.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Logging.SlogLevel())
	logger := newLogger(os.Stderr, cfg.Logging.Format, level)
	slog.SetDefault(logger)

	loader.Watch(func(next config.Config, err error) {
		if err != nil {
			logger.Warn("config reload rejected", "error", err)
			return
		}
		level.Set(next.Logging.SlogLevel())
		logger.Info("config reloaded", "level", level.Level())
	})

	storage, closeStorage, err := newStorage(cfg.Session, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	a := newApp(cfg, storage, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success("Listening on %s", cfg.Server.Addr)
	if f := loader.File(); f != "" {
		info("Config:  %s", f)
	}
	info("Session: %s backend, cookie %s, max age %s", cfg.Session.Backend, cfg.Session.CookieName, maxAgeText(cfg.Session.MaxAge()))
	info("Action:  POST %s (body limit %s)", cfg.Server.ActionURL, humanize.IBytes(uint64(cfg.Server.MaxBodyBytes)))
	if cfg.Metrics.Enabled {
		info("Metrics: %s", cfg.Metrics.Path)
	}

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println()
	info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped", "open_tabs", a.tabs.Active())
	return nil
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// maxAgeText describes a cookie lifetime, e.g. "1 year".
func maxAgeText(d time.Duration) string {
	if d <= 0 {
		return "browser session"
	}
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now, now.Add(d), "", ""))
}
