// Package mux implements a minimal request router for matching incoming
// HTTP requests to their handler. It is this repository's HTTP surface: the
// single upgrade endpoint sits behind a *Router, while the WebSocket framing
// itself is driven entirely by Receiver.Add and never touches this package.
//
// This is a deliberately small reimplementation of the teacher's
// gorilla/mux-derived router: this repository registers exactly one literal
// route (the WebSocket upgrade endpoint), so there is no path-variable
// matching, no host/scheme/header/query matchers, no subrouters and no
// reverse URL building. What survives is the part every one of those
// features was built on top of: exact-path routing, method matching with
// RFC 9110 405-vs-404 semantics, named routes, and ordered middleware.
//
// # Router
//
// Create a new router and register a handler:
//
//	r := mux.NewRouter()
//	r.Handle("/ws", upgradeHandler).Methods(http.MethodGet).Name("websocket.upgrade")
//	http.Handle("/", r)
//
// # Middleware
//
// Router.Use registers middleware that wraps every request the router
// serves, outermost-registered-first:
//
//	r.Use(muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{}))
//
// Individual routes can also be wrapped directly before registration, which
// is how RegisterUpgradeEndpoint applies its Origin check ahead of the
// WebSocket handshake.
//
// # Named Routes
//
// Routes can be named so they can be looked up later:
//
//	r.Handle("/ws", upgradeHandler).Name("websocket.upgrade")
//	route := r.Get("websocket.upgrade")
package mux
