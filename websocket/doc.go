// Package websocket implements a server-side WebSocket frame receiver for
// RFC 6455, built around Receiver: a push-driven parser that reassembles
// complete messages from whatever byte chunks a transport loop hands it,
// rather than blocking on a reader. This package includes:
//   - The RFC 6455 opening handshake via Upgrader
//   - Per-message compression (permessage-deflate, RFC 7692)
//   - Incremental frame reassembly and dispatch via Receiver
//   - A minimal HTTP wiring (route.go) to register an upgrade endpoint
//
// There is no client/dialer path and no pull-style Conn.ReadMessage: this
// is a receiver for frames a peer pushes at a server, not a general-purpose
// client/server WebSocket library.
//
// Server Example:
//
//	var upgrader = websocket.Upgrader{
//	    ReadBufferSize:  1024,
//	    WriteBufferSize: 1024,
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    conn, err := upgrader.Upgrade(w, r, nil)
//	    if err != nil {
//	        return
//	    }
//
//	    recv := websocket.NewReceiver(nil, 0, websocket.Handlers{
//	        OnText: func(text string) {
//	            _ = conn.WriteMessage(websocket.TextMessage, []byte(text))
//	        },
//	    })
//	    // Feed conn.TransportReader() into recv.Add, as in the loop
//	    // under "Incremental Parsing" below.
//	}
//
// Concurrency:
//
// Applications are responsible for ensuring that no more than one goroutine
// calls the write methods (NextWriter, WriteMessage, WriteControl)
// concurrently. A Receiver is not safe for concurrent use; Add must be
// called from a single transport loop per connection.
//
// The Close method can be called concurrently with other methods.
//
// Origin Checking:
//
// Web browsers allow any site to open a WebSocket connection to any other
// site. The server must validate the Origin header to prevent attacks. The
// Upgrader calls the CheckOrigin function to validate the request origin.
// If CheckOrigin is nil, the Upgrader uses a safe default that rejects
// cross-origin requests. RegisterUpgradeEndpoint can additionally enforce
// an Origin allowlist before the Upgrader ever runs (see OriginPolicy).
//
// Compression:
//
// Per-message compression is negotiated during the WebSocket handshake when
// EnableCompression is set to true on the Upgrader. When compression is
// enabled, messages are compressed using the permessage-deflate extension
// (RFC 7692) with stateless compression (no context takeover).
//
// Incremental Parsing:
//
// Receiver is the only way this package reads messages. Feed it whatever
// byte chunks arrive, in whatever sizes the transport happens to deliver
// them, and it reassembles complete messages and dispatches them through
// Handlers:
//
//	recv := websocket.NewReceiver(nil, maxPayload, websocket.Handlers{
//	    OnText: func(text string) { fmt.Println(text) },
//	})
//	buf := make([]byte, conn.TransportBufferSize())
//	for {
//	    n, err := conn.TransportReader().Read(buf)
//	    if n > 0 {
//	        recv.Add(buf[:n])
//	    }
//	    if err != nil {
//	        recv.Cleanup()
//	        return
//	    }
//	}
//
// A Receiver is not safe for concurrent use and owns no transport itself;
// RegisterUpgradeEndpoint wires one to an http.Handler end to end.
package websocket
