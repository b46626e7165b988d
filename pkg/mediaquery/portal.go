package mediaquery

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/vango-dev/themes/pkg/theme"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	portalInterface = "org.freedesktop.portal.Settings"
	appearanceNS    = "org.freedesktop.appearance"
	colorSchemeKey  = "color-scheme"
)

// Portal color-scheme values.
const (
	schemeNoPreference uint32 = 0
	schemeDark         uint32 = 1
	schemeLight        uint32 = 2
)

// Portal tracks the desktop color scheme through the freedesktop settings
// portal.
type Portal struct {
	conn   *dbus.Conn
	logger *slog.Logger

	mu     sync.RWMutex
	scheme uint32

	subs    listeners
	signals chan *dbus.Signal
	done    chan struct{}
	once    sync.Once
}

// OpenPortal connects to the session bus, reads the current color scheme
// and starts watching SettingChanged signals.
func OpenPortal(logger *slog.Logger) (*Portal, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	p := newPortal(conn, logger)

	scheme, err := p.read()
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.scheme = scheme

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(portalPath),
		dbus.WithMatchInterface(portalInterface),
		dbus.WithMatchMember("SettingChanged"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to watch portal settings: %w", err)
	}
	conn.Signal(p.signals)
	go p.loop()

	p.logger.Info("watching desktop color scheme", "scheme", scheme)
	return p, nil
}

func newPortal(conn *dbus.Conn, logger *slog.Logger) *Portal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Portal{
		conn:    conn,
		logger:  logger.With("component", "portal"),
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
	}
}

// read asks the portal for the color scheme, falling back from ReadOne to
// the deprecated Read method on older portals.
func (p *Portal) read() (uint32, error) {
	obj := p.conn.Object(portalDest, portalPath)

	var v dbus.Variant
	err := obj.Call(portalInterface+".ReadOne", 0, appearanceNS, colorSchemeKey).Store(&v)
	if err != nil {
		p.logger.Debug("ReadOne unavailable, trying Read", "error", err)
		if err = obj.Call(portalInterface+".Read", 0, appearanceNS, colorSchemeKey).Store(&v); err != nil {
			return 0, fmt.Errorf("failed to read color-scheme: %w", err)
		}
	}
	scheme, ok := parseScheme(v)
	if !ok {
		return 0, fmt.Errorf("unexpected color-scheme value %v", v)
	}
	return scheme, nil
}

// parseScheme unwraps (possibly nested) variants down to a uint32.
func parseScheme(v any) (uint32, bool) {
	for {
		switch x := v.(type) {
		case dbus.Variant:
			v = x.Value()
		case uint32:
			return x, true
		default:
			return 0, false
		}
	}
}

func (p *Portal) loop() {
	for {
		select {
		case <-p.done:
			return
		case sig, ok := <-p.signals:
			if !ok {
				return
			}
			p.handleSignal(sig)
		}
	}
}

// handleSignal applies a SettingChanged(namespace, key, value) signal.
func (p *Portal) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != portalInterface+".SettingChanged" || len(sig.Body) < 3 {
		return
	}
	ns, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	if ns != appearanceNS || key != colorSchemeKey {
		return
	}
	scheme, ok := parseScheme(sig.Body[2])
	if !ok {
		p.logger.Warn("malformed color-scheme signal", "body", sig.Body)
		return
	}
	p.set(scheme)
}

func (p *Portal) set(scheme uint32) {
	p.mu.Lock()
	before, _ := schemeTheme(p.scheme)
	p.scheme = scheme
	after, ok := schemeTheme(scheme)
	p.mu.Unlock()

	p.logger.Debug("color scheme changed", "scheme", scheme)
	if ok && after != before {
		p.subs.notify(after == theme.Light)
	}
}

func schemeTheme(scheme uint32) (theme.Theme, bool) {
	switch scheme {
	case schemeDark:
		return theme.Dark, true
	case schemeLight:
		return theme.Light, true
	default:
		return theme.Unset, false
	}
}

// Preferred implements Query. "No preference" counts as no signal.
func (p *Portal) Preferred() (theme.Theme, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return schemeTheme(p.scheme)
}

// Subscribe implements Query.
func (p *Portal) Subscribe(fn func(matchesLight bool)) func() {
	return p.subs.add(fn)
}

// Close stops watching and closes the bus connection.
func (p *Portal) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		if p.conn != nil {
			p.conn.RemoveSignal(p.signals)
			err = p.conn.Close()
		}
	})
	return err
}
