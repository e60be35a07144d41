package mux

import (
	"fmt"
	"net/http"
)

// Route stores information to registration of a single static route: an
// exact request path, matched against zero or more HTTP methods, dispatched
// to a handler. Unlike the teacher's gorilla/mux-derived Route, this one
// never compiles a regexp: this repository registers exactly one upgrade
// endpoint at a literal path, so path variables, host/scheme/header/query
// matchers and subrouters have no caller.
type Route struct {
	// path is the exact request path this route matches.
	path string

	// methods lists the HTTP methods this route accepts. An empty list
	// matches any method.
	methods []string

	// name is this route's unique identifier, used by Router.Get.
	name string

	// handler is the http.Handler to invoke on a match.
	handler http.Handler

	// err holds any error encountered while building this route, returned
	// by GetError so the zero value can be returned without ignoring it.
	err error
}

// Match returns true if this route matches req's path and method, filling in
// match.MatchErr when the path matches but the method does not so the
// caller can distinguish "no such route" from "wrong method".
func (r *Route) Match(req *http.Request, match *RouteMatch) bool {
	if r.err != nil {
		return false
	}

	if req.URL.Path != r.path {
		return false
	}

	if len(r.methods) > 0 && !matchInArray(r.methods, req.Method) {
		match.MatchErr = ErrMethodMismatch
		match.methodNotAllowed = true
		return false
	}

	match.Route = r
	match.Handler = r.handler
	match.MatchErr = nil
	return true
}

// Path sets the exact path this route matches.
func (r *Route) Path(tpl string) *Route {
	r.path = tpl
	return r
}

// Handler sets the handler invoked when this route matches.
func (r *Route) Handler(handler http.Handler) *Route {
	r.handler = handler
	return r
}

// HandlerFunc sets the handler function invoked when this route matches.
func (r *Route) HandlerFunc(f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handler(http.HandlerFunc(f))
}

// GetHandler returns this route's handler.
func (r *Route) GetHandler() http.Handler {
	return r.handler
}

// Methods restricts this route to the given HTTP methods. Calling Methods
// more than once replaces the prior method list, matching the teacher's
// Route.Methods semantics.
func (r *Route) Methods(methods ...string) *Route {
	r.methods = methods
	return r
}

// GetMethods returns the HTTP methods this route was registered with.
func (r *Route) GetMethods() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.methods, nil
}

// Name sets this route's name, used to look it up later via Router.Get. A
// route may only be named once; calling Name again records an error
// retrievable through GetError, matching the teacher's duplicate-name
// detection in the router it was registered on.
func (r *Route) Name(name string) *Route {
	if r.name != "" {
		r.err = fmt.Errorf("mux: route already has name %q, can't set %q", r.name, name)
	}
	r.name = name
	return r
}

// GetName returns this route's name.
func (r *Route) GetName() string {
	return r.name
}

// GetPathTemplate returns the exact path this route matches.
func (r *Route) GetPathTemplate() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.path, nil
}

// GetError returns any error encountered while building this route.
func (r *Route) GetError() error {
	return r.err
}

func matchInArray(arr []string, value string) bool {
	for _, v := range arr {
		if v == value {
			return true
		}
	}
	return false
}
