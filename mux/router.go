package mux

import "net/http"

// Router registers routes and dispatches incoming requests to them. It is a
// drastically trimmed reimplementation of the teacher's gorilla/mux Router:
// this repository only ever registers one literal route (the WebSocket
// upgrade endpoint), so the matching here is a straight linear scan over
// exact paths rather than the teacher's regexp/subrouter/variable machinery.
type Router struct {
	// NotFoundHandler, if set, is used instead of http.NotFound when no
	// route matches a request's path.
	NotFoundHandler http.Handler

	// MethodNotAllowedHandler, if set, is used instead of a bare 405
	// response when a route matches the path but not the method.
	MethodNotAllowedHandler http.Handler

	routes      []*Route
	middlewares []MiddlewareFunc
}

// NewRouter returns a new Router.
func NewRouter() *Router {
	return &Router{}
}

// Match attempts to match req against this router's routes, filling in
// match. It returns true only on a full match (path and method); a
// path-only match sets match.MatchErr to ErrMethodMismatch and returns
// false, matching the teacher's ServeHTTP convention of distinguishing 404
// from 405.
func (router *Router) Match(req *http.Request, match *RouteMatch) bool {
	var methodMismatch bool

	for _, route := range router.routes {
		if route.Match(req, match) {
			return true
		}
		if match.methodNotAllowed {
			methodMismatch = true
			match.methodNotAllowed = false
		}
	}

	if methodMismatch {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	match.MatchErr = ErrNotFound
	return false
}

// ServeHTTP dispatches req to the matching route's handler, applying the
// router-level middleware chain registered via Use. On no match it
// responds 404 (or 405, per RFC 7231 Section 6.5.5, when a route matched
// the path but rejected the method).
func (router *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var match RouteMatch
	var handler http.Handler

	if router.Match(req, &match) {
		handler = match.Handler
	} else if match.MatchErr == ErrMethodMismatch {
		if router.MethodNotAllowedHandler != nil {
			handler = router.MethodNotAllowedHandler
		} else {
			handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			})
		}
	} else if router.NotFoundHandler != nil {
		handler = router.NotFoundHandler
	} else {
		handler = http.HandlerFunc(http.NotFound)
	}

	for i := len(router.middlewares) - 1; i >= 0; i-- {
		handler = router.middlewares[i](handler)
	}

	handler.ServeHTTP(w, req)
}

// Use appends middleware to the chain applied to every request this router
// serves, outermost-registered-first.
func (router *Router) Use(mwf ...MiddlewareFunc) {
	router.middlewares = append(router.middlewares, mwf...)
}

// NewRoute registers an empty route and returns it for further
// configuration.
func (router *Router) NewRoute() *Route {
	route := &Route{}
	router.routes = append(router.routes, route)
	return route
}

// Handle registers a new route with a matcher for the URL path and the
// given handler.
func (router *Router) Handle(path string, handler http.Handler) *Route {
	return router.NewRoute().Path(path).Handler(handler)
}

// HandleFunc registers a new route with a matcher for the URL path and the
// given handler function.
func (router *Router) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return router.NewRoute().Path(path).HandlerFunc(f)
}

// Get returns the route registered with the given name, or nil if no such
// route exists.
func (router *Router) Get(name string) *Route {
	for _, route := range router.routes {
		if route.name == name {
			return route
		}
	}
	return nil
}

// GetRoute is an alias for Get, kept for gorilla/mux API familiarity.
func (router *Router) GetRoute(name string) *Route {
	return router.Get(name)
}
