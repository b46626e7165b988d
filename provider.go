package themes

import (
	"context"
	"io"
	"log/slog"

	"github.com/vango-dev/themes/pkg/broadcast"
	"github.com/vango-dev/themes/pkg/flash"
	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/metrics"
	"github.com/vango-dev/themes/pkg/store"
	"github.com/vango-dev/themes/pkg/transition"
)

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// SpecifiedTheme is the theme the server resolved from the session.
	// Leave it Unset when the session holds none.
	SpecifiedTheme Theme

	// ThemeAction is the persist action URL. Defaults to DefaultActionURL.
	ThemeAction string

	// DisableTransitionOnThemeChange suppresses CSS transitions while the
	// theme changes. It needs a Document (see WithDocument).
	DisableTransitionOnThemeChange bool

	// DisableTransitionExclude lists selectors that keep their transitions.
	DisableTransitionExclude []string
}

// Option supplies a Provider with its collaborators.
type Option func(*providerDeps)

type providerDeps struct {
	query     mediaquery.Query
	channel   broadcast.Channel
	persister store.Persister
	doc       transition.Document
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// WithMediaQuery sets the OS preference source.
func WithMediaQuery(q mediaquery.Query) Option {
	return func(d *providerDeps) { d.query = q }
}

// WithChannel sets the cross-tab channel. The provider owns it.
func WithChannel(ch broadcast.Channel) Option {
	return func(d *providerDeps) { d.channel = ch }
}

// WithPersister sets how selections reach the persist action.
func WithPersister(p store.Persister) Option {
	return func(d *providerDeps) { d.persister = p }
}

// WithDocument sets the document styles are injected into.
func WithDocument(doc transition.Document) Option {
	return func(d *providerDeps) { d.doc = doc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *providerDeps) { d.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *providerDeps) { d.metrics = m }
}

// Provider owns the theme store of one tab.
type Provider struct {
	config ProviderConfig
	store  *store.Store
}

// NewProvider creates a Provider and its store.
func NewProvider(config ProviderConfig, opts ...Option) *Provider {
	if config.ThemeAction == "" {
		config.ThemeAction = DefaultActionURL
	}
	var deps providerDeps
	for _, opt := range opts {
		opt(&deps)
	}

	storeOpts := []store.Option{store.WithMetrics(deps.metrics)}
	if deps.query != nil {
		storeOpts = append(storeOpts, store.WithMediaQuery(deps.query))
	}
	if deps.channel != nil {
		storeOpts = append(storeOpts, store.WithChannel(deps.channel))
	}
	if deps.persister != nil {
		storeOpts = append(storeOpts, store.WithPersister(deps.persister))
	}
	if deps.logger != nil {
		storeOpts = append(storeOpts, store.WithLogger(deps.logger))
	}
	if config.DisableTransitionOnThemeChange && deps.doc != nil {
		storeOpts = append(storeOpts, store.WithTransitions(deps.doc, config.DisableTransitionExclude...))
	}

	return &Provider{
		config: config,
		store:  store.New(config.SpecifiedTheme, config.ThemeAction, storeOpts...),
	}
}

// Store returns the underlying store.
func (p *Provider) Store() *store.Store {
	return p.store
}

// Context returns a copy of ctx carrying the provider's store.
func (p *Provider) Context(ctx context.Context) context.Context {
	return store.NewContext(ctx, p.store)
}

// Close releases the store's subscriptions and channel.
func (p *Provider) Close() {
	p.store.Close()
}

// UseTheme returns the current theme, its setter and metadata from the
// store in ctx.
func UseTheme(ctx context.Context) (Theme, Setter, Metadata, error) {
	return store.Use(ctx)
}

// MustUseTheme is UseTheme that panics outside a provider.
func MustUseTheme(ctx context.Context) (Theme, Setter, Metadata) {
	return store.MustUse(ctx)
}

// PreventFlashOnWrongTheme writes the head snippet for the store in ctx.
// Pass ssrTheme when the server resolved the theme from the session, so
// the bootstrap script is left out.
func PreventFlashOnWrongTheme(w io.Writer, ctx context.Context, ssrTheme bool, nonce string) error {
	current, _, _, err := store.Use(ctx)
	if err != nil {
		return err
	}
	return flash.Render(w, current, flash.Options{SSRTheme: ssrTheme, Nonce: nonce})
}
