// Package config loads the themes server configuration.
//
// Configuration comes from, in increasing priority: built-in defaults, a
// YAML, TOML or JSON file, and THEMES_* environment variables (nested keys
// joined with underscores, e.g. THEMES_SESSION_BACKEND=memory).
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  action_url: /action/set-theme
//	session:
//	  backend: cookie
//	  cookie_name: __remix-themes
//	  secrets: ["s3cr3t"]
//	theme:
//	  empty_policy: reset
//	  disable_transitions: true
//	metrics:
//	  enabled: true
//	  path: /metrics
//	logging:
//	  level: info
//	  format: text
package config
