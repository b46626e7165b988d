// Package session provides cookie-addressed session storage for the theme
// resolver.
//
// Two Storage implementations are available:
//
//	// Everything in a signed cookie.
//	storage := session.NewCookieStorage(session.CookieOptions{
//	    Secrets: []string{"s3cr3t"},
//	})
//
//	// Session id in the cookie, data in a backend.
//	storage := session.NewStoreStorage(session.NewMemoryStore(), session.CookieOptions{})
//
// Backends implement SessionStore: MemoryStore (default), RedisStore,
// SQLStore and S3Store.
package session
