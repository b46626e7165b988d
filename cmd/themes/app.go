package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/themes"
	"github.com/vango-dev/themes/internal/config"
	"github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/action"
	"github.com/vango-dev/themes/pkg/broadcast"
	"github.com/vango-dev/themes/pkg/flash"
	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/metrics"
	"github.com/vango-dev/themes/pkg/middleware"
	"github.com/vango-dev/themes/pkg/session"
	"github.com/vango-dev/themes/pkg/tab"
)

// app is the demo application.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	resolver *themes.ThemeSessionResolver
	action   *action.Handler
	hub      *broadcast.Hub
	tabs     *tab.Handler
}

func newApp(cfg config.Config, storage session.Storage, logger *slog.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(metrics.WithRegistry(registry), metrics.WithNamespace(cfg.Metrics.Namespace))

	policy := action.ResetOnEmpty
	if cfg.Theme.EmptyPolicy == "reject" {
		policy = action.RejectEmpty
	}
	actionOpts := []action.Option{
		action.WithEmptyPolicy(policy),
		action.WithLogger(logger),
		action.WithMetrics(m),
		action.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Tracing.Enabled {
		actionOpts = append(actionOpts, action.WithTracer(otel.Tracer(cfg.Tracing.TracerName)))
	}

	res := themes.CreateThemeSessionResolver(storage)
	hub := broadcast.NewHub(broadcast.WithLogger(logger), broadcast.WithMetrics(m))

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		resolver: res,
		action:   themes.CreateThemeAction(res, actionOpts...),
		hub:      hub,
		tabs: tab.NewHandler(tab.Config{
			Resolver:           res,
			Hub:                hub,
			ActionURL:          cfg.Server.ActionURL,
			Channel:            cfg.Theme.Channel,
			BrowserCookie:      cfg.Theme.BrowserCookie,
			DisableTransitions: cfg.Theme.DisableTransitions,
			TransitionExclude:  cfg.Theme.TransitionExclude,
			Logger:             logger,
			Metrics:            m,
		}),
	}
}

// routes builds the router.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(a.logger))
	r.Use(chimw.Recoverer)
	if a.cfg.Tracing.Enabled {
		r.Use(middleware.OpenTelemetry(
			middleware.WithTracerName(a.cfg.Tracing.TracerName),
			middleware.WithRequestFilter(func(r *http.Request) bool {
				return r.URL.Path != a.cfg.Metrics.Path
			}),
		))
	}
	if a.cfg.Metrics.Enabled {
		r.Use(middleware.Prometheus(
			middleware.WithRegistry(a.registry),
			middleware.WithNamespace(a.cfg.Metrics.Namespace),
		))
		r.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	}

	r.Get("/", a.page("Home"))
	r.Get("/about", a.page("About"))
	r.Handle(a.cfg.Server.ActionURL, a.action)
	r.Get(a.cfg.Server.WebSocketPath, a.tabs.ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

type pageData struct {
	Title     string
	Path      string
	Head      template.HTML
	RootAttrs template.HTMLAttr
	Theme     string
	DefinedBy string
	Nonce     string
	WSPath    string
	Script    template.JS
	Links     []pageLink
}

type pageLink struct {
	Href  string
	Label string
}

// page renders a page with the theme resolved from the session, falling
// back to the client hint.
func (a *app) page(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := a.resolver.Resolve(r)
		if err != nil {
			a.logger.Error("theme session load failed", "error", errors.FromError(err, "T020"))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		tab.EnsureBrowserID(w, r, a.cfg.Theme.BrowserCookie)
		mediaquery.RequestClientHint(w)

		specified := ts.Theme()
		p := themes.NewProvider(
			themes.ProviderConfig{SpecifiedTheme: specified, ThemeAction: a.cfg.Server.ActionURL},
			themes.WithMediaQuery(mediaquery.FromClientHint(r)),
			themes.WithLogger(a.logger),
		)
		defer p.Close()
		ctx := p.Context(r.Context())
		current, _, meta := themes.MustUseTheme(ctx)

		nonce := newNonce()
		var head bytes.Buffer
		if err := themes.PreventFlashOnWrongTheme(&head, ctx, specified.Valid(), nonce); err != nil {
			a.logger.Error("flash snippet failed", "error", err)
		}

		data := pageData{
			Title:     title,
			Path:      r.URL.Path,
			Head:      template.HTML(head.String()),
			RootAttrs: template.HTMLAttr(flash.RootAttrs(current, false)),
			Theme:     string(current),
			DefinedBy: meta.DefinedBy.String(),
			Nonce:     nonce,
			WSPath:    a.cfg.Server.WebSocketPath,
			Script:    template.JS(clientScript),
			Links:     []pageLink{{"/", "Home"}, {"/about", "About"}},
		}
		if data.Theme == "" {
			data.Theme = "unset"
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", "script-src 'nonce-"+nonce+"'; object-src 'none'; base-uri 'none'")
		if err := pageTemplate.Execute(w, data); err != nil {
			a.logger.Error("page render failed", "error", err)
		}
	}
}

func newNonce() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b[:])
}
