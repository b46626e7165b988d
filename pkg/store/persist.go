package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	themeerrors "github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/metrics"
	"github.com/vango-dev/themes/pkg/theme"
)

// Persister sends an explicit choice to the persist action. Unset means
// {"theme": null}. Implementations must not block the caller.
type Persister interface {
	Persist(actionURL string, t theme.Theme)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(actionURL string, t theme.Theme)

// Persist implements Persister.
func (f PersisterFunc) Persist(actionURL string, t theme.Theme) {
	f(actionURL, t)
}

// Body returns the JSON request body for t.
func Body(t theme.Theme) []byte {
	if t == theme.Unset {
		return []byte(`{"theme":null}`)
	}
	b, _ := json.Marshal(map[string]string{"theme": string(t)})
	return b
}

// HTTPPersister POSTs choices with an http.Client in the background.
// Failures are logged and counted, never retried.
type HTTPPersister struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	metrics *metrics.Metrics
	result  func(actionURL string, t theme.Theme, err error)
	wg      sync.WaitGroup
}

// HTTPPersisterOption configures an HTTPPersister.
type HTTPPersisterOption func(*HTTPPersister)

// WithHTTPClient sets the client. Give it a cookie jar so the session
// cookie follows the browser session.
func WithHTTPClient(c *http.Client) HTTPPersisterOption {
	return func(p *HTTPPersister) {
		if c != nil {
			p.client = c
		}
	}
}

// WithPersistLogger sets the logger.
func WithPersistLogger(l *slog.Logger) HTTPPersisterOption {
	return func(p *HTTPPersister) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPersistMetrics records persist results to m.
func WithPersistMetrics(m *metrics.Metrics) HTTPPersisterOption {
	return func(p *HTTPPersister) {
		p.metrics = m
	}
}

// WithPersistResult calls fn after every request with its outcome; err is
// nil on success. fn runs on the request goroutine.
func WithPersistResult(fn func(actionURL string, t theme.Theme, err error)) HTTPPersisterOption {
	return func(p *HTTPPersister) {
		p.result = fn
	}
}

// NewHTTPPersister creates a persister resolving relative action URLs
// against baseURL.
func NewHTTPPersister(baseURL string, opts ...HTTPPersisterOption) *HTTPPersister {
	p := &HTTPPersister{
		client:  http.DefaultClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default().With("component", "theme-persist"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Persist implements Persister.
func (p *HTTPPersister) Persist(actionURL string, t theme.Theme) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.post(actionURL, t)
		p.metrics.Persist(err == nil)
		if err != nil {
			p.logger.Warn("theme persist failed", "url", actionURL, "theme", t, "error", err)
		}
		if p.result != nil {
			p.result(actionURL, t, err)
		}
	}()
}

// Wait blocks until every in-flight request finished.
func (p *HTTPPersister) Wait() {
	p.wg.Wait()
}

func (p *HTTPPersister) post(actionURL string, t theme.Theme) error {
	url := actionURL
	if strings.HasPrefix(actionURL, "/") {
		url = p.baseURL + actionURL
	}
	resp, err := p.client.Post(url, "application/json", bytes.NewReader(Body(t)))
	if err != nil {
		return themeerrors.New("T030").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return themeerrors.New("T030").Wrap(fmt.Errorf("status %d", resp.StatusCode))
	}
	var res struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return themeerrors.New("T030").Wrap(err)
	}
	if !res.Success {
		return themeerrors.New("T010").WithDetail(res.Message)
	}
	return nil
}
