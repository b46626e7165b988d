package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/themes/internal/errors"
)

// Loader reads configuration through viper and can watch the file.
type Loader struct {
	v    *viper.Viper
	path string

	mu   sync.Mutex
	used string
}

// NewLoader creates a Loader. An empty path searches for themes.{yaml,toml,json}
// in the working directory and the user config directory; a missing file is
// not an error then.
func NewLoader(path string) *Loader {
	v := viper.New()
	def := Default()
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.action_url", def.Server.ActionURL)
	v.SetDefault("server.websocket_path", def.Server.WebSocketPath)
	v.SetDefault("server.max_body_bytes", def.Server.MaxBodyBytes)
	v.SetDefault("server.shutdown_seconds", def.Server.ShutdownSeconds)
	v.SetDefault("session.backend", def.Session.Backend)
	v.SetDefault("session.cookie_name", def.Session.CookieName)
	v.SetDefault("session.secrets", def.Session.Secrets)
	v.SetDefault("session.domain", def.Session.Domain)
	v.SetDefault("session.secure", def.Session.Secure)
	v.SetDefault("session.max_age_hours", def.Session.MaxAgeHours)
	v.SetDefault("session.s3.bucket", def.Session.S3.Bucket)
	v.SetDefault("session.s3.prefix", def.Session.S3.Prefix)
	v.SetDefault("session.s3.region", def.Session.S3.Region)
	v.SetDefault("session.s3.endpoint", def.Session.S3.Endpoint)
	v.SetDefault("session.s3.path_style", def.Session.S3.PathStyle)
	v.SetDefault("theme.empty_policy", def.Theme.EmptyPolicy)
	v.SetDefault("theme.disable_transitions", def.Theme.DisableTransitions)
	v.SetDefault("theme.transition_exclude", def.Theme.TransitionExclude)
	v.SetDefault("theme.channel", def.Theme.Channel)
	v.SetDefault("theme.browser_cookie", def.Theme.BrowserCookie)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.path", def.Metrics.Path)
	v.SetDefault("metrics.namespace", def.Metrics.Namespace)
	v.SetDefault("tracing.enabled", def.Tracing.Enabled)
	v.SetDefault("tracing.tracer_name", def.Tracing.TracerName)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, ConfigName))
		}
	}
	return &Loader{v: v, path: path}
}

// Load reads and validates the configuration.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.path != "" || !stderrors.As(err, &notFound) {
			return Config{}, errors.New("T040").WithDetail("reading config").Wrap(err)
		}
	} else {
		l.mu.Lock()
		l.used = l.v.ConfigFileUsed()
		l.mu.Unlock()
	}
	return l.decode()
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.New("T040").WithDetail("decoding config").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// File returns the config file read by Load, or "" when running on
// defaults.
func (l *Loader) File() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// Watch calls fn with the reloaded configuration whenever the file
// changes. It does nothing when Load found no file.
func (l *Loader) Watch(fn func(Config, error)) {
	if l.File() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.decode())
	})
	l.v.WatchConfig()
}

// Load reads configuration from path. See NewLoader.
func Load(path string) (Config, error) {
	return NewLoader(path).Load()
}

// Marshal encodes cfg in the format implied by path's extension: .toml,
// .json, or YAML otherwise.
func Marshal(cfg Config, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(cfg)
	case ".json":
		return json.MarshalIndent(cfg, "", "  ")
	default:
		return yaml.Marshal(cfg)
	}
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		path = ConfigName + ".yaml"
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := Marshal(Default(), path)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
