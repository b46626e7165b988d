package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/vango-dev/themes/internal/errors"
)

const (
	// ConfigName is the base name searched for when no path is given.
	ConfigName = "themes"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "THEMES"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultActionURL is the default persist action path.
	DefaultActionURL = "/action/set-theme"

	// DefaultSecret signs cookies when no secret is configured. Only for
	// local development.
	DefaultSecret = "change-me"
)

// Session backends.
const (
	BackendCookie = "cookie"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server" toml:"server" json:"server"`
	Session SessionConfig `mapstructure:"session" yaml:"session" toml:"session" json:"session"`
	Theme   ThemeConfig   `mapstructure:"theme" yaml:"theme" toml:"theme" json:"theme"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" toml:"metrics" json:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing" toml:"tracing" json:"tracing"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `mapstructure:"addr" yaml:"addr" toml:"addr" json:"addr"`
	ActionURL       string `mapstructure:"action_url" yaml:"action_url" toml:"action_url" json:"action_url"`
	WebSocketPath   string `mapstructure:"websocket_path" yaml:"websocket_path" toml:"websocket_path" json:"websocket_path"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" json:"max_body_bytes"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds" yaml:"shutdown_seconds" toml:"shutdown_seconds" json:"shutdown_seconds"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}

// SessionConfig configures the theme cookie and its storage.
type SessionConfig struct {
	Backend     string   `mapstructure:"backend" yaml:"backend" toml:"backend" json:"backend"`
	CookieName  string   `mapstructure:"cookie_name" yaml:"cookie_name" toml:"cookie_name" json:"cookie_name"`
	Secrets     []string `mapstructure:"secrets" yaml:"secrets" toml:"secrets" json:"secrets"`
	Domain      string   `mapstructure:"domain" yaml:"domain" toml:"domain" json:"domain"`
	Secure      bool     `mapstructure:"secure" yaml:"secure" toml:"secure" json:"secure"`
	MaxAgeHours int      `mapstructure:"max_age_hours" yaml:"max_age_hours" toml:"max_age_hours" json:"max_age_hours"`
	S3          S3Config `mapstructure:"s3" yaml:"s3" toml:"s3" json:"s3"`
}

// MaxAge returns the cookie lifetime. Zero means a browser-session cookie.
func (c SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

// S3Config configures the S3 session backend.
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket" toml:"bucket" json:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix" toml:"prefix" json:"prefix"`
	Region    string `mapstructure:"region" yaml:"region" toml:"region" json:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint" toml:"endpoint" json:"endpoint"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style" toml:"path_style" json:"path_style"`
}

// ThemeConfig configures theme behavior.
type ThemeConfig struct {
	EmptyPolicy        string   `mapstructure:"empty_policy" yaml:"empty_policy" toml:"empty_policy" json:"empty_policy"`
	DisableTransitions bool     `mapstructure:"disable_transitions" yaml:"disable_transitions" toml:"disable_transitions" json:"disable_transitions"`
	TransitionExclude  []string `mapstructure:"transition_exclude" yaml:"transition_exclude" toml:"transition_exclude" json:"transition_exclude"`
	Channel            string   `mapstructure:"channel" yaml:"channel" toml:"channel" json:"channel"`
	BrowserCookie      string   `mapstructure:"browser_cookie" yaml:"browser_cookie" toml:"browser_cookie" json:"browser_cookie"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled" json:"enabled"`
	Path      string `mapstructure:"path" yaml:"path" toml:"path" json:"path"`
	Namespace string `mapstructure:"namespace" yaml:"namespace" toml:"namespace" json:"namespace"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled" json:"enabled"`
	TracerName string `mapstructure:"tracer_name" yaml:"tracer_name" toml:"tracer_name" json:"tracer_name"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" toml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" toml:"format" json:"format"`
}

// SlogLevel parses Level, defaulting to info.
func (c LoggingConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ActionURL:       DefaultActionURL,
			WebSocketPath:   "/ws",
			MaxBodyBytes:    4 << 10,
			ShutdownSeconds: 10,
		},
		Session: SessionConfig{
			Backend:     BackendCookie,
			CookieName:  "__remix-themes",
			Secrets:     []string{DefaultSecret},
			MaxAgeHours: 24 * 365,
			S3: S3Config{
				Prefix: "themes/sessions/",
				Region: "us-east-1",
			},
		},
		Theme: ThemeConfig{
			EmptyPolicy:        "reset",
			DisableTransitions: true,
			Channel:            "remix-themes",
			BrowserCookie:      "__themes-browser",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "themes",
		},
		Tracing: TracingConfig{
			TracerName: "themes",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return invalid("server.addr is required")
	}
	for key, p := range map[string]string{
		"server.action_url":     c.Server.ActionURL,
		"server.websocket_path": c.Server.WebSocketPath,
		"metrics.path":          c.Metrics.Path,
	} {
		if !strings.HasPrefix(p, "/") {
			return invalid(key + " must start with /")
		}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes must be positive")
	}
	if c.Server.ShutdownSeconds < 0 {
		return invalid("server.shutdown_seconds must not be negative")
	}

	if len(c.Session.Secrets) == 0 {
		return invalid("session.secrets needs at least one secret")
	}
	for _, s := range c.Session.Secrets {
		if s == "" {
			return invalid("session.secrets must not contain empty values")
		}
	}
	if c.Session.CookieName == "" {
		return invalid("session.cookie_name is required")
	}
	if c.Session.MaxAgeHours < 0 {
		return invalid("session.max_age_hours must not be negative")
	}
	switch c.Session.Backend {
	case BackendCookie, BackendMemory:
	case BackendS3:
		if c.Session.S3.Bucket == "" {
			return invalid("session.s3.bucket is required for the s3 backend")
		}
		if ep := c.Session.S3.Endpoint; ep != "" {
			u, err := url.Parse(ep)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return invalid("session.s3.endpoint must include scheme and host")
			}
		}
	default:
		return errors.New("T041").WithDetail("session.backend " + c.Session.Backend + " is not one of cookie, memory, s3")
	}

	switch c.Theme.EmptyPolicy {
	case "reset", "reject":
	default:
		return invalid("theme.empty_policy must be reset or reject")
	}
	if c.Theme.Channel == "" || c.Theme.BrowserCookie == "" {
		return invalid("theme.channel and theme.browser_cookie are required")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return invalid("logging.format must be text or json")
	}
	return nil
}

func invalid(detail string) error {
	return errors.New("T040").WithDetail(detail)
}
