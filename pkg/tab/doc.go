// Package tab backs every open browser tab with a server-side theme store
// over a websocket.
//
// The tab opens the socket and sends a hello frame with its current
// prefers-color-scheme match. The handler creates a store seeded from the
// session cookie and the hello, joins the broadcast channel of the tab's
// browser, and then relays frames:
//
//	browser -> server
//	  {"type":"hello","matchesLight":true}
//	  {"type":"set","theme":"dark"}      // theme null resets to system
//	  {"type":"media","matchesLight":false}
//
//	server -> browser
//	  {"type":"state","theme":"dark","definedBy":"USER"}
//	  {"type":"persist","url":"/action/set-theme","body":{"theme":"dark"}}
//	  {"type":"style","css":"*{...}","active":true}
//
// A websocket cannot set cookies, so persistence is delegated: the store's
// persister sends a persist frame and the tab POSTs the body to the action
// itself.
package tab
