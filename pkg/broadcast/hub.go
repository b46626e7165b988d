package broadcast

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/themes/pkg/metrics"
)

type key struct {
	name  string
	scope string
}

// Hub is an in-process broadcast bus. Handles opened with the same name and
// scope hear each other; a scope usually identifies one browser.
type Hub struct {
	mu      sync.Mutex
	handles map[key]map[*handle]struct{}
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics records sends and deliveries to m.
func WithMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

// NewHub creates an empty Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		handles: make(map[key]map[*handle]struct{}),
		logger:  slog.Default().With("component", "broadcast"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open joins the channel name within scope.
func (h *Hub) Open(name, scope string) Channel {
	k := key{name: ChannelName(name), scope: scope}
	hd := &handle{hub: h, key: k}

	h.mu.Lock()
	set := h.handles[k]
	if set == nil {
		set = make(map[*handle]struct{})
		h.handles[k] = set
	}
	set[hd] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	h.logger.Debug("channel open", "channel", k.name, "scope", scope, "handles", count)
	return hd
}

// Handles returns the number of open handles in scope.
func (h *Hub) Handles(name, scope string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handles[key{name: ChannelName(name), scope: scope}])
}

// peers snapshots every handle of k except from.
func (h *Hub) peers(k key, from *handle) []*handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.handles[k]
	out := make([]*handle, 0, len(set))
	for hd := range set {
		if hd != from {
			out = append(out, hd)
		}
	}
	return out
}

func (h *Hub) remove(hd *handle) {
	h.mu.Lock()
	if set := h.handles[hd.key]; set != nil {
		delete(set, hd)
		if len(set) == 0 {
			delete(h.handles, hd.key)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("channel close", "channel", hd.key.name, "scope", hd.key.scope)
}

type subscription struct {
	onMessage func(Message)
	onError   func(error)
}

type handle struct {
	hub *Hub
	key key

	mu     sync.Mutex
	next   int
	subs   map[int]subscription
	closed bool
}

// Send delivers m synchronously to every other open handle.
func (hd *handle) Send(m Message) {
	if hd.isClosed() {
		return
	}
	peers := hd.hub.peers(hd.key, hd)
	hd.hub.metrics.BroadcastSent()
	delivered := 0
	for _, p := range peers {
		if p.deliver(m) {
			delivered++
		}
	}
	hd.hub.metrics.BroadcastDelivered(delivered)
}

// SendRaw publishes an encoded payload. Peers that cannot decode it get
// the error on their onError listeners.
func (hd *handle) SendRaw(raw []byte) {
	m, err := Decode(raw)
	if err == nil {
		hd.Send(m)
		return
	}
	if hd.isClosed() {
		return
	}
	hd.hub.logger.Warn("malformed broadcast payload", "channel", hd.key.name, "error", err)
	for _, p := range hd.hub.peers(hd.key, hd) {
		hd.hub.metrics.BroadcastError()
		p.fail(err)
	}
}

func (hd *handle) Subscribe(onMessage func(Message), onError func(error)) func() {
	hd.mu.Lock()
	defer hd.mu.Unlock()
	if hd.closed {
		return func() {}
	}
	if hd.subs == nil {
		hd.subs = make(map[int]subscription)
	}
	hd.next++
	id := hd.next
	hd.subs[id] = subscription{onMessage: onMessage, onError: onError}
	return func() {
		hd.mu.Lock()
		delete(hd.subs, id)
		hd.mu.Unlock()
	}
}

func (hd *handle) Close() {
	hd.mu.Lock()
	if hd.closed {
		hd.mu.Unlock()
		return
	}
	hd.closed = true
	hd.subs = nil
	hd.mu.Unlock()
	hd.hub.remove(hd)
}

func (hd *handle) isClosed() bool {
	hd.mu.Lock()
	defer hd.mu.Unlock()
	return hd.closed
}

func (hd *handle) snapshot() []subscription {
	hd.mu.Lock()
	defer hd.mu.Unlock()
	out := make([]subscription, 0, len(hd.subs))
	for _, s := range hd.subs {
		out = append(out, s)
	}
	return out
}

func (hd *handle) deliver(m Message) bool {
	subs := hd.snapshot()
	for _, s := range subs {
		if s.onMessage != nil {
			s.onMessage(m)
		}
	}
	return len(subs) > 0
}

func (hd *handle) fail(err error) {
	for _, s := range hd.snapshot() {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// RawSender is implemented by hub handles.
type RawSender interface {
	SendRaw(raw []byte)
}
