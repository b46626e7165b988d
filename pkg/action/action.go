package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	themeerrors "github.com/vango-dev/themes/internal/errors"
	"github.com/vango-dev/themes/pkg/metrics"
	"github.com/vango-dev/themes/pkg/resolver"
	"github.com/vango-dev/themes/pkg/theme"
)

// DefaultURL is the conventional mount point of the persist action.
const DefaultURL = "/action/set-theme"

// DefaultMaxBodyBytes bounds the request body.
const DefaultMaxBodyBytes = 4 << 10

// EmptyMessage is the rejection message under RejectEmpty.
const EmptyMessage = "empty theme provided"

// EmptyPolicy decides what an empty or absent theme means.
type EmptyPolicy uint8

const (
	// ResetOnEmpty destroys the session so the client follows the system
	// preference again.
	ResetOnEmpty EmptyPolicy = iota

	// RejectEmpty answers with EmptyMessage and leaves the session alone.
	RejectEmpty
)

// String returns the policy name.
func (p EmptyPolicy) String() string {
	if p == RejectEmpty {
		return "reject"
	}
	return "reset"
}

// Result is the response body.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Request is the canonical JSON request body. A nil Theme means absent.
type Request struct {
	Theme *string `json:"theme"`
}

// InvalidMessage returns the rejection message for value.
func InvalidMessage(value string) string {
	return fmt.Sprintf("theme value of %s is not a valid theme.", value)
}

// Handler is the persist action.
type Handler struct {
	resolver     *resolver.Resolver
	policy       EmptyPolicy
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	maxBodyBytes int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithEmptyPolicy sets the empty-value policy.
func WithEmptyPolicy(p EmptyPolicy) Option {
	return func(h *Handler) {
		h.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics records outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithTracer sets the tracer used for the per-request span.
func WithTracer(t trace.Tracer) Option {
	return func(h *Handler) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithMaxBodyBytes bounds the request body. Values <= 0 keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// New creates the persist action over r.
func New(r *resolver.Resolver, opts ...Option) *Handler {
	h := &Handler{
		resolver:     r,
		policy:       ResetOnEmpty,
		logger:       slog.Default().With("component", "theme-action"),
		tracer:       otel.Tracer("github.com/vango-dev/themes/pkg/action"),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Policy returns the configured empty-value policy.
func (h *Handler) Policy() EmptyPolicy {
	return h.policy
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "theme.persist",
		trace.WithAttributes(attribute.String("theme.empty_policy", h.policy.String())))
	defer span.End()

	outcome := h.serve(w, r.WithContext(ctx), span)
	span.SetAttributes(attribute.String("theme.outcome", outcome))
	h.metrics.ObserveAction(outcome, time.Since(start).Seconds())
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, span trace.Span) string {
	ctx := r.Context()

	value, present, err := h.readTheme(w, r)
	if err != nil {
		h.malformed(w, r, span, err)
		return metrics.OutcomeMalformed
	}

	ts, err := h.resolver.Resolve(r)
	if err != nil {
		h.fail(w, r, span, "resolve", err)
		return metrics.OutcomeFailed
	}

	if !present || value == "" {
		if h.policy == RejectEmpty {
			writeResult(w, "", Result{Success: false, Message: EmptyMessage})
			return metrics.OutcomeRejected
		}
		setCookie, err := ts.Destroy(ctx)
		if err != nil {
			h.fail(w, r, span, "destroy", err)
			return metrics.OutcomeFailed
		}
		writeResult(w, setCookie, Result{Success: true})
		span.SetStatus(codes.Ok, "")
		return metrics.OutcomeReset
	}

	t, ok := theme.Parse(value)
	if !ok {
		h.logger.Debug("rejected theme", "value", value)
		writeResult(w, "", Result{Success: false, Message: InvalidMessage(value)})
		return metrics.OutcomeRejected
	}

	ts.SetTheme(t)
	setCookie, err := ts.Commit(ctx)
	if err != nil {
		h.fail(w, r, span, "commit", err)
		return metrics.OutcomeFailed
	}
	span.SetAttributes(attribute.String("theme.value", string(t)))
	span.SetStatus(codes.Ok, "")
	writeResult(w, setCookie, Result{Success: true})
	return metrics.OutcomeSaved
}

// readTheme extracts the submitted value. present is false for an absent
// field or a falsy JSON value (null, false, 0). An unreadable or
// undecodable body is an error and must not be mistaken for a reset.
func (h *Handler) readTheme(w http.ResponseWriter, r *http.Request) (value string, present bool, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", false, err
		}
		return r.PostForm.Get("theme"), r.PostForm.Has("theme"), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxBodyBytes); err != nil {
			return "", false, err
		}
		return r.PostForm.Get("theme"), r.PostForm.Has("theme"), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", false, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", false, err
	}
	field, ok := raw["theme"]
	if !ok {
		return "", false, nil
	}
	var v any
	if err := json.Unmarshal(field, &v); err != nil {
		return "", false, err
	}
	switch v := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case bool:
		if !v {
			return "", false, nil
		}
	case float64:
		if v == 0 {
			return "", false, nil
		}
	}
	// Remaining non-string values are reported verbatim as invalid themes.
	return string(bytes.TrimSpace(field)), true, nil
}

// malformed answers 413 for an oversized body and 400 for anything else
// that could not be decoded.
func (h *Handler) malformed(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	terr := themeerrors.New("T012").Wrap(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, terr.Error())
	h.logger.WarnContext(r.Context(), "malformed theme request", "status", status, "error", terr)
	http.Error(w, http.StatusText(status), status)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, span trace.Span, op string, err error) {
	terr := themeerrors.New("T020").WithDetail(op).Wrap(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, terr.Error())
	h.logger.ErrorContext(r.Context(), "theme session storage failed", "op", op, "error", terr)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeResult(w http.ResponseWriter, setCookie string, res Result) {
	if setCookie != "" {
		w.Header().Add("Set-Cookie", setCookie)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res)
}

// ParseResult decodes a persist action response body.
func ParseResult(r io.Reader) (Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("action: decode result: %w", err)
	}
	return res, nil
}
