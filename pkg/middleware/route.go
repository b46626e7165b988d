package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeOf returns the chi route pattern for r, or "other" outside chi so
// raw paths never become label values.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "other"
}
