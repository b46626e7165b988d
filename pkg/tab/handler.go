package tab

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/themes/pkg/broadcast"
	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/metrics"
	"github.com/vango-dev/themes/pkg/resolver"
	"github.com/vango-dev/themes/pkg/store"
	"github.com/vango-dev/themes/pkg/theme"
	"github.com/vango-dev/themes/pkg/transition"
)

// Config configures the tab handler.
type Config struct {
	// Resolver reads the theme from the upgrade request's cookies.
	Resolver *resolver.Resolver

	// Hub carries broadcasts between tabs. Nil disables cross-tab sync.
	Hub *broadcast.Hub

	// ActionURL is the persist action URL (default: "/action/set-theme").
	ActionURL string

	// Channel is the broadcast channel base name
	// (default: broadcast.DefaultChannel).
	Channel string

	// BrowserCookie names the browser id cookie (default: DefaultBrowserCookie).
	BrowserCookie string

	// DisableTransitions suppresses CSS transitions during theme changes.
	DisableTransitions bool

	// TransitionExclude lists selectors that keep their transitions.
	TransitionExclude []string

	// HandshakeTimeout bounds the wait for the hello frame.
	HandshakeTimeout time.Duration

	// ReadTimeout is the maximum time between frames, pongs included.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write.
	WriteTimeout time.Duration

	// MaxMessageSize bounds inbound frames.
	MaxMessageSize int64

	// SendQueue is the number of outbound frames buffered per tab. A tab
	// that falls further behind is disconnected.
	SendQueue int

	// CheckOrigin overrides the same-origin check of the upgrader.
	CheckOrigin func(r *http.Request) bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (c Config) withDefaults() Config {
	if c.ActionURL == "" {
		c.ActionURL = "/action/set-theme"
	}
	if c.Channel == "" {
		c.Channel = broadcast.DefaultChannel
	}
	if c.BrowserCookie == "" {
		c.BrowserCookie = DefaultBrowserCookie
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 1 << 10
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 32
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Handler upgrades tab connections.
type Handler struct {
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
	active   atomic.Int64
}

// NewHandler creates a Handler.
func NewHandler(config Config) *Handler {
	config = config.withDefaults()
	return &Handler{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: config.Logger.With("component", "tab"),
	}
}

// Active returns the number of connected tabs.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ts, err := h.config.Resolver.Resolve(r)
	if err != nil {
		h.logger.Error("theme session resolve failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	specified := ts.Theme()

	scope, ok := BrowserID(r, h.config.BrowserCookie)
	if !ok {
		// Unknown browser: a private scope nobody else joins.
		scope = ulid.Make().String()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.config.MaxMessageSize)

	t := &tab{
		conn:   conn,
		config: h.config,
		logger: h.logger.With("scope", scope),
		out:    make(chan Outbound, h.config.SendQueue),
		done:   make(chan struct{}),
	}
	defer conn.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		t.writeLoop()
	}()
	defer func() {
		close(t.done)
		<-writerDone
	}()

	hello, err := t.readHello()
	if err != nil {
		t.logger.Warn("tab handshake failed", "error", err)
		return
	}

	remote := mediaquery.NewRemote()
	if hello.MatchesLight != nil {
		remote.Report(*hello.MatchesLight)
	} else if hint, ok := mediaquery.FromClientHint(r).Preferred(); ok {
		remote.Report(hint == theme.Light)
	}
	t.remote = remote

	channel := broadcast.Noop()
	if h.config.Hub != nil {
		channel = h.config.Hub.Open(h.config.Channel, scope)
	}

	opts := []store.Option{
		store.WithMediaQuery(remote),
		store.WithChannel(channel),
		store.WithPersister(store.PersisterFunc(t.persist)),
		store.WithLogger(t.logger),
		store.WithMetrics(h.config.Metrics),
	}
	if h.config.DisableTransitions {
		opts = append(opts, store.WithTransitions(transition.NewRecorder(t.style), h.config.TransitionExclude...))
	}
	t.store = store.New(specified, h.config.ActionURL, opts...)
	defer t.store.Close()

	h.active.Add(1)
	defer h.active.Add(-1)

	t.store.OnChange(func(s theme.State) { t.send(stateFrame(s)) })
	t.send(stateFrame(t.store.State()))

	t.readLoop()
}

type tab struct {
	conn   *websocket.Conn
	config Config
	logger *slog.Logger
	store  *store.Store
	remote *mediaquery.Remote

	out  chan Outbound
	done chan struct{}
}

func (t *tab) readHello() (Inbound, error) {
	t.conn.SetReadDeadline(time.Now().Add(t.config.HandshakeTimeout))
	var in Inbound
	if err := t.conn.ReadJSON(&in); err != nil {
		return Inbound{}, err
	}
	if in.Type != FrameHello {
		t.send(Outbound{Type: FrameError, Message: "expected hello"})
		return Inbound{}, errUnexpectedFrame(in.Type)
	}
	return in, nil
}

// readLoop processes frames until the connection ends.
func (t *tab) readLoop() {
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
		return nil
	})
	for {
		t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
		_, msg, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				t.logger.Error("read error", "error", err)
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			t.logger.Warn("frame decode error", "error", err)
			t.send(Outbound{Type: FrameError, Message: "invalid frame"})
			continue
		}
		t.handle(in)
	}
}

func (t *tab) handle(in Inbound) {
	switch in.Type {
	case FrameSet:
		next := theme.Unset
		if in.Theme != nil {
			next = theme.Theme(*in.Theme)
			if next != theme.Unset && !next.Valid() {
				t.send(Outbound{Type: FrameError, Message: "invalid theme"})
				return
			}
		}
		t.store.Set(next)
	case FrameMedia:
		if in.MatchesLight != nil {
			t.remote.Report(*in.MatchesLight)
		}
	default:
		t.logger.Warn("unknown frame type", "type", in.Type)
	}
}

func (t *tab) persist(actionURL string, th theme.Theme) {
	t.send(Outbound{Type: FramePersist, URL: actionURL, Body: store.Body(th)})
}

func (t *tab) style(css string, injected bool) {
	t.send(Outbound{Type: FrameStyle, CSS: css, Active: injected})
}

// send queues f for the writer and never blocks. Broadcasts from sibling
// tabs arrive here, so a stalled socket must not hold up the sender.
func (t *tab) send(f Outbound) {
	select {
	case t.out <- f:
	case <-t.done:
	default:
		t.logger.Warn("send queue full, closing tab", "type", f.Type)
		t.conn.Close()
	}
}

// writeLoop owns all writes to the connection, pings included.
func (t *tab) writeLoop() {
	ticker := time.NewTicker(t.config.ReadTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			t.flush()
			return
		case f := <-t.out:
			if !t.write(f) {
				return
			}
		case <-ticker.C:
			if err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.config.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued, e.g. the handshake error frame.
func (t *tab) flush() {
	for {
		select {
		case f := <-t.out:
			if !t.write(f) {
				return
			}
		default:
			return
		}
	}
}

func (t *tab) write(f Outbound) bool {
	t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	if err := t.conn.WriteJSON(f); err != nil {
		t.logger.Debug("write failed", "type", f.Type, "error", err)
		t.conn.Close()
		return false
	}
	return true
}

type errUnexpectedFrame string

func (e errUnexpectedFrame) Error() string {
	return "tab: expected hello frame, got " + string(e)
}
