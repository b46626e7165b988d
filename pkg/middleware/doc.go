// Package middleware provides net/http middleware for theme-aware servers.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics
//   - slog request logging
//
// All middleware has the func(http.Handler) http.Handler shape and can be
// mounted on a chi router or wrapped around any handler:
//
//	r := chi.NewRouter()
//	r.Use(
//	    middleware.Logger(logger),
//	    middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	)
//
// Route labels come from the chi route pattern when available, so
// /users/{id} is recorded once instead of per user.
package middleware
