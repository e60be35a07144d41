package muxhandlers

import (
	"net/http"
	"slices"

	"github.com/vitalvas/wsframe/mux"
)

// WSOriginConfig configures the WebSocket handshake Origin middleware.
//
// Spec reference: RFC 6455 section 4.2.1 step 6 ("the server MAY ... fail
// the handshake by returning a 403 Forbidden status code" when the Origin
// request-header field does not match an allowed value). Unlike CORS, RFC
// 6455 leaves origin enforcement entirely optional and server-defined; this
// middleware exists so an embedder can opt into it ahead of the upgrade
// rather than the Receiver (which never sees HTTP headers) having to.
type WSOriginConfig struct {
	// AllowedOrigins is a list of exact origin strings ("https://example.com")
	// or "*" to allow any origin that is present (a request with no Origin
	// header is still governed by AllowMissingOrigin).
	AllowedOrigins []string

	// AllowOriginFunc is an optional dynamic callback invoked when the
	// request's Origin does not match any entry in AllowedOrigins. Return
	// true to allow the handshake to proceed.
	AllowOriginFunc func(origin string) bool

	// AllowMissingOrigin, when true, permits handshake requests that carry
	// no Origin header at all (common for non-browser clients). Browsers
	// always send Origin on WebSocket handshakes, so this only affects
	// same-origin tooling and tests.
	AllowMissingOrigin bool
}

// WSOriginMiddleware returns a middleware that rejects a WebSocket upgrade
// request with 403 Forbidden before it reaches the Upgrader when the
// request's Origin header fails the configured policy. Non-upgrade requests
// (no Sec-WebSocket-Key) pass through unchecked, since the policy is
// specific to the handshake RFC 6455 describes.
func WSOriginMiddleware(cfg WSOriginConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Sec-WebSocket-Key") == "" {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				if cfg.AllowMissingOrigin {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "websocket: missing Origin", http.StatusForbidden)
				return
			}

			if slices.Contains(cfg.AllowedOrigins, "*") || slices.Contains(cfg.AllowedOrigins, origin) {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.AllowOriginFunc != nil && cfg.AllowOriginFunc(origin) {
				next.ServeHTTP(w, r)
				return
			}

			http.Error(w, "websocket: origin not allowed", http.StatusForbidden)
		})
	}
}
