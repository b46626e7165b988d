// Package action implements the theme persist endpoint.
//
// The handler accepts a POST whose body is JSON {"theme": "light"} (or a
// form with a theme field), writes the choice to the cookie session and
// answers with {"success": true} plus the session's Set-Cookie header.
//
//	r.Method("POST", "/action/set-theme", action.New(themeSessionResolver))
//
// An empty or absent theme means "follow the system preference again". By
// default that destroys the session (ResetOnEmpty); WithEmptyPolicy
// (RejectEmpty) answers {"success": false, "message": "empty theme provided"}
// instead. Invalid values are answered with success false and never touch
// the session. A body that cannot be decoded is answered 400 (413 when it
// exceeds the size limit) and never resets the session. Session storage
// failures are server errors, not validation failures.
package action
