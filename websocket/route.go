package websocket

import (
	"net/http"

	"github.com/vitalvas/wsframe/mux"
	"github.com/vitalvas/wsframe/muxhandlers"
)

// EndpointConfig wires a Receiver-backed upgrade handler into this
// repository's minimal HTTP surface (mux, muxhandlers), grounded in how the
// teacher's own router registers a route and wraps it in middleware. None
// of it is required by the Receiver itself (see doc.go's "Incremental
// Parsing" section); it exists so a deployment has somewhere concrete to
// hang the upgrade handshake.
type EndpointConfig struct {
	// Upgrader performs the RFC 6455 opening handshake.
	Upgrader *Upgrader

	// ReceiverConfig supplies MaxPayloadBytes/Extensions for the Receiver
	// constructed on each successful upgrade.
	ReceiverConfig ReceiverConfig

	// NewHandlers, when set, builds the Handlers installed on each
	// connection's Receiver after a successful upgrade. Embedders
	// typically close over the *Conn and *Receiver in these callbacks to
	// drive writes back out (see the Frame Writer in conn.go).
	NewHandlers func(conn *Conn, r *Receiver) Handlers

	// OriginPolicy, when non-nil, rejects handshake requests whose Origin
	// header fails the policy before the Upgrader runs, per RFC 6455
	// §4.2.1 step 6. Left nil, no Origin enforcement is performed here (the
	// Upgrader's own CheckOrigin still applies).
	OriginPolicy *muxhandlers.WSOriginConfig

	// OnUpgradeError, when set, is called when upgrading a connection
	// fails, after the Upgrader has already written its own error response
	// (its Error func, or a plain-text http.Error by default).
	OnUpgradeError func(w http.ResponseWriter, r *http.Request, err error)
}

// RegisterUpgradeEndpoint registers path on router as the WebSocket upgrade
// endpoint. The handler chain runs, outermost first: muxhandlers' request-ID
// middleware (reusing the same uuid scheme the Receiver stamps its
// ConnectionID with, see ConnectionID), then, when cfg.OriginPolicy is set,
// the RFC 6455 §4.2.1 Origin check — all before the Upgrader ever runs.
func RegisterUpgradeEndpoint(router *mux.Router, path string, cfg EndpointConfig) *mux.Route {
	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := cfg.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			if cfg.OnUpgradeError != nil {
				cfg.OnUpgradeError(w, r, err)
			}
			return
		}

		recv := cfg.ReceiverConfig.NewReceiver(Handlers{})
		if cfg.NewHandlers != nil {
			recv.handlers = cfg.NewHandlers(conn, recv)
		}

		serveConnection(conn, recv)
	}))

	if cfg.OriginPolicy != nil {
		handler = muxhandlers.WSOriginMiddleware(*cfg.OriginPolicy)(handler)
	}

	handler = muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{})(handler)

	return router.Handle(path, handler).Methods(http.MethodGet).Name("websocket.upgrade")
}

// serveConnection reads from conn until it returns an error and feeds every
// chunk to recv.Add, the minimal transport loop a push-driven Receiver
// needs: conn is the only thing that touches the socket, recv is the only
// thing that parses WebSocket framing. It reads through conn.TransportReader
// rather than the raw net.Conn so bytes the HTTP server already buffered
// during the handshake hijack (a client that pipelines its first frame
// right behind the upgrade request) are not lost.
func serveConnection(conn *Conn, recv *Receiver) {
	defer recv.Cleanup()
	defer conn.Close()

	buf := make([]byte, conn.TransportBufferSize())
	for {
		n, err := conn.TransportReader().Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			recv.Add(chunk)
		}
		if err != nil {
			return
		}
	}
}
