package websocket

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// Handlers holds the re-assignable callback fields a Receiver dispatches
// events to. A nil field silently drops its event. The Receiver keeps its
// own copy of the Handlers value it was given; on any terminal error it
// nulls every field of that copy (see Receiver.fail), so no further event
// fires. The caller's original Handlers value is left unchanged.
type Handlers struct {
	OnText   func(text string)
	OnBinary func(data []byte)
	OnPing   func(data []byte)
	OnPong   func(data []byte)
	OnClose  func(code int, reason string)
	OnError  func(err error, code int)
}

// receiverState is the per-frame state driving the incremental parse. It
// is distinct from the per-message state tracked by messageAssembler:
// control frames advance receiverState without ever touching the
// assembler, which is the crux of RFC 6455's control/fragmentation
// interleaving rule (see SPEC_FULL.md Design Notes).
type receiverState int

const (
	stateWantHeader2 receiverState = iota
	stateWantExtendedLen
	stateWantMask
	stateWantPayload
	// stateInflating names the data model's Inflating state for parity with
	// SPEC_FULL.md §3/§4.5; it is not a separate pump() case because
	// decompression here is realized as a synchronous channel receive
	// (flateCollaborator.Decompress) inline within the WantPayload
	// dispatch rather than a suspended iteration of the loop, per the
	// async-collaborator design note in SPEC_FULL.md §5.
	stateInflating
	stateDead
)

// Receiver is a push-driven WebSocket frame parser: callers feed it
// arbitrarily-sized byte chunks via Add, and it emits fully reassembled
// messages through Handlers. It never reads from a transport itself.
//
// A Receiver is owned by exactly one connection and is not safe for
// concurrent use; all of RFC 6455 per-frame/per-message bookkeeping lives
// here, mirroring the teacher's Conn.readMessage but restructured from a
// blocking io.Reader pull loop into an incremental push loop so it can be
// fed from any transport, including one that delivers partial frame
// headers.
type Receiver struct {
	id string

	queue       byteQueue
	state       receiverState
	header      frameDescriptor
	extLenBytes int

	message messageAssembler

	totalPayloadLength uint64
	maxPayload         uint64

	collaborator Collaborator

	handlers Handlers
	dead     bool
}

// ReceiverOption configures a Receiver at construction time.
type ReceiverOption func(*Receiver)

// WithConnectionID overrides the uuid.NewString() connection identifier a
// Receiver reports through ConnectionID.
func WithConnectionID(id string) ReceiverOption {
	return func(r *Receiver) { r.id = id }
}

// WithCollaborator installs the per-message-deflate decompressor
// negotiated during the handshake. Passing nil (the default) means no
// compression was negotiated; a frame with rsv1 set is then a protocol
// error.
func WithCollaborator(c Collaborator) ReceiverOption {
	return func(r *Receiver) { r.collaborator = c }
}

// NewReceiver constructs a Receiver with the given maxPayload (0 =
// unbounded cumulative payload per message) and handlers. extensions is the
// negotiated extension offer map from the handshake; it is consulted only
// to decide whether permessage-deflate was negotiated when no explicit
// Collaborator option is supplied.
func NewReceiver(extensions map[string]string, maxPayload int64, handlers Handlers, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		id:         uuid.NewString(),
		state:      stateWantHeader2,
		maxPayload: uint64(maxPayload),
		handlers:   handlers,
	}

	if _, ok := extensions[extensionPermessageDeflate]; ok {
		r.collaborator = NewFlateCollaborator(maxPayload)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

const extensionPermessageDeflate = "permessage-deflate"

// ConnectionID returns the identifier stamped on this Receiver at
// construction. The identifier is not passed to OnError or OnClose; a
// caller multiplexing several Receivers reads it here to correlate events
// without the Receiver knowing about its transport.
func (r *Receiver) ConnectionID() string {
	return r.id
}

// TotalPayloadLength reports the sum of payload lengths of the non-final
// data fragments of the message currently in flight, or 0 when no message
// is in flight or immediately after a final data frame has been
// dispatched. Exposed read-only for tests.
func (r *Receiver) TotalPayloadLength() uint64 {
	return r.totalPayloadLength
}

// Add pushes chunk onto the Receiver's internal queue and pumps the state
// machine as far as the currently queued bytes allow. Add is a no-op once
// the Receiver is dead (after cleanup or a terminal error).
func (r *Receiver) Add(chunk []byte) {
	if r.dead {
		return
	}
	r.queue.push(chunk)
	r.pump()
}

// Cleanup releases the deflate collaborator, detaches callbacks, and marks
// the Receiver dead: subsequent Add calls are dropped without parsing. Safe
// to call more than once.
func (r *Receiver) Cleanup() {
	if r.collaborator != nil {
		r.collaborator.Cleanup()
	}
	r.message.fragments = nil
	r.handlers = Handlers{}
	r.dead = true
	r.state = stateDead
}

// pump drives the state machine forward until the queue runs dry for the
// current state or the Receiver dies.
func (r *Receiver) pump() {
	for !r.dead {
		switch r.state {
		case stateWantHeader2:
			b, ok := r.queue.consume(2)
			if !ok {
				return
			}
			d, extLen := parseHeaderBytes(b[0], b[1])
			if err := r.validateHeader(d, extLen); err != nil {
				r.fail(err)
				return
			}
			r.header = d
			r.extLenBytes = extLen
			switch {
			case extLen > 0:
				r.state = stateWantExtendedLen
			case d.masked:
				r.state = stateWantMask
			default:
				r.state = stateWantPayload
			}

		case stateWantExtendedLen:
			b, ok := r.queue.consume(r.extLenBytes)
			if !ok {
				return
			}
			length, err := decodeExtendedLen(b)
			if err != nil {
				r.fail(err)
				return
			}
			r.header.payloadLen = length
			if r.header.masked {
				r.state = stateWantMask
			} else {
				r.state = stateWantPayload
			}

		case stateWantMask:
			b, ok := r.queue.consume(4)
			if !ok {
				return
			}
			copy(r.header.mask[:], b)
			r.state = stateWantPayload

		case stateWantPayload:
			b, ok := r.queue.consume(int(r.header.payloadLen))
			if !ok {
				return
			}
			if r.header.masked {
				maskBytes(r.header.mask[:], 0, b)
			}
			if !r.dispatchPayload(b) {
				return
			}
			r.state = stateWantHeader2

		case stateDead:
			return
		}
	}
}

// validateHeader applies the parse-time protocol checks of SPEC_FULL.md
// §4.2 that depend on connection state (whether a message is in flight,
// whether a collaborator is installed) and so can't live in header.go's
// pure parseHeaderBytes.
func (r *Receiver) validateHeader(d frameDescriptor, extLenBytes int) error {
	if d.rsv2 || d.rsv3 {
		return ErrReservedBits
	}
	if d.rsv1 {
		if r.collaborator == nil {
			return ErrReservedBits
		}
		if d.opcode == continuationFrame {
			return ErrReservedBits
		}
	}
	if !isValidOpcode(d.opcode) {
		return ErrInvalidOpcode
	}
	if isControlOpcode(d.opcode) {
		if !d.fin {
			return ErrFragmentedControlFrame
		}
		if extLenBytes != 0 || d.payloadLen > payloadLen7Bit {
			return ErrControlFramePayloadTooBig
		}
		return nil
	}
	if d.opcode == continuationFrame && !r.message.active {
		return ErrUnexpectedContinuation
	}
	if d.opcode != continuationFrame && r.message.active {
		return ErrExpectedContinuation
	}
	return nil
}

// dispatchPayload handles a fully-consumed, already-unmasked frame payload
// per SPEC_FULL.md §4.5. It returns false if the Receiver died while
// dispatching (so pump must stop), true otherwise.
func (r *Receiver) dispatchPayload(payload []byte) bool {
	h := r.header

	if isControlOpcode(h.opcode) {
		return r.dispatchControl(h.opcode, payload)
	}

	return r.dispatchData(h, payload)
}

func (r *Receiver) dispatchControl(opcode int, payload []byte) bool {
	switch opcode {
	case CloseMessage:
		code, reason, err := parseCloseBody(payload)
		if err != nil {
			r.fail(err)
			return false
		}
		r.dead = true
		r.state = stateDead
		if r.handlers.OnClose != nil {
			r.handlers.OnClose(code, reason)
		}
		return false
	case PingMessage:
		if r.handlers.OnPing != nil {
			r.handlers.OnPing(payload)
		}
	case PongMessage:
		if r.handlers.OnPong != nil {
			r.handlers.OnPong(payload)
		}
	}
	return true
}

func (r *Receiver) dispatchData(h frameDescriptor, payload []byte) bool {
	if !r.message.active {
		r.message.start(h.opcode, h.rsv1)
	}

	projected := r.totalPayloadLength + uint64(len(payload))
	if r.maxPayload > 0 && projected > r.maxPayload {
		r.fail(ErrMessageTooBig)
		return false
	}

	if r.message.compressed {
		out, err := r.collaborator.Decompress(payload, h.fin)
		if err != nil {
			r.fail(err)
			return false
		}
		if !h.fin {
			r.totalPayloadLength = projected
			return true
		}
		r.message.append(out)
	} else {
		if !h.fin {
			r.message.append(payload)
			r.totalPayloadLength = projected
			return true
		}
		r.message.append(payload)
	}

	return r.finishMessage()
}

// finishMessage concatenates the in-flight message's fragments, resets
// total_payload_length before invoking the user callback (so a callback
// that reentrantly calls Add observes the post-reset value, per
// SPEC_FULL.md's "total_payload_length reset timing" design note), and
// dispatches on_text/on_binary.
func (r *Receiver) finishMessage() bool {
	opcode, payload := r.message.finish()
	r.totalPayloadLength = 0

	switch opcode {
	case TextMessage:
		if !utf8.Valid(payload) {
			r.fail(ErrInvalidUTF8)
			return false
		}
		if r.handlers.OnText != nil {
			r.handlers.OnText(string(payload))
		}
	case BinaryMessage:
		if r.handlers.OnBinary != nil {
			r.handlers.OnBinary(payload)
		}
	}
	return true
}

// fail implements the terminal-error contract of SPEC_FULL.md §7: invoke
// OnError exactly once with the mapped close code, detach every callback,
// and mark the Receiver dead so subsequent Add calls are dropped.
func (r *Receiver) fail(err error) {
	if r.dead {
		return
	}
	code := closeCodeForError(err)
	onError := r.handlers.OnError
	r.Cleanup()
	if onError != nil {
		onError(err, code)
	}
}

// parseCloseBody decodes a close frame's optional 2-byte status code and
// UTF-8 reason text, defaulting to CloseNoStatusReceived (1005) when the
// body is empty, per RFC 6455 §5.5.1 and this repository's resolution of
// the "close-code default" design note.
func parseCloseBody(payload []byte) (code int, reason string, err error) {
	if len(payload) == 0 {
		return CloseNoStatusReceived, "", nil
	}
	if len(payload) == 1 {
		return 0, "", ErrProtocolError
	}
	code = int(payload[0])<<8 | int(payload[1])
	reasonBytes := payload[2:]
	if !utf8.Valid(reasonBytes) {
		return 0, "", ErrInvalidUTF8
	}
	return code, string(reasonBytes), nil
}
