// Package muxhandlers provides the HTTP middleware the WebSocket upgrade
// endpoint actually runs: request-ID propagation and Origin enforcement for
// the handshake. It is a trimmed-down sibling of the teacher's muxhandlers
// package, which also shipped CORS, Basic Auth, compression, security
// headers, and a dozen other general-purpose middlewares; none of those
// have a caller here, since this repository's HTTP surface is a single
// upgrade route rather than a general API server.
//
// # Request ID Middleware
//
// RequestIDMiddleware generates or propagates a unique request identifier.
// The ID is set on the request header, the response header, and the request
// context. Downstream handlers can retrieve it with RequestIDFromContext.
// By default it generates UUID v4 values using github.com/google/uuid.
// Use GenerateUUIDv7 for time-ordered IDs (RFC 9562).
//
//	r.Use(muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{
//	    TrustIncoming: true,
//	}))
//
// # WebSocket Origin Middleware
//
// WSOriginMiddleware enforces an Origin allowlist on WebSocket handshake
// requests (those carrying Sec-WebSocket-Key) per RFC 6455 section 4.2.1
// step 6, returning 403 Forbidden before the request reaches the Upgrader.
// Non-handshake requests pass through unchecked. Unlike a CORS middleware,
// this has no preflight concept: the WebSocket handshake is a single GET.
//
//	r.Use(muxhandlers.WSOriginMiddleware(muxhandlers.WSOriginConfig{
//	    AllowedOrigins: []string{"https://example.com"},
//	}))
package muxhandlers
