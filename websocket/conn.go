package websocket

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message types defined in RFC 6455, section 11.8.
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)

// Close codes defined in RFC 6455, section 7.4.1.
const (
	CloseNormalClosure           = 1000
	CloseGoingAway               = 1001
	CloseProtocolError           = 1002
	CloseUnsupportedData         = 1003
	CloseNoStatusReceived        = 1005
	CloseAbnormalClosure         = 1006
	CloseInvalidFramePayloadData = 1007
	ClosePolicyViolation         = 1008
	CloseMessageTooBig           = 1009
	CloseMandatoryExtension      = 1010
	CloseInternalServerErr       = 1011
	CloseServiceRestart          = 1012
	CloseTryAgainLater           = 1013
	CloseTLSHandshake            = 1015
)

// Frame header constants per RFC 6455, section 5.2.
const (
	maxFrameHeaderSize         = 14  // 2 bytes base + 8 bytes extended length + 4 bytes mask
	maxControlFramePayloadSize = 125 // RFC 6455, section 5.5: control frame payload <= 125 bytes
	defaultWriteBufferSize     = 4096
	defaultReadBufferSize      = 4096

	// First byte bits (RFC 6455, section 5.2).
	finalBit = 1 << 7 // FIN bit indicates final fragment
	rsv1Bit  = 1 << 6 // RSV1 bit used for permessage-deflate (RFC 7692)
	rsv2Bit  = 1 << 5 // RSV2 bit reserved
	rsv3Bit  = 1 << 4 // RSV3 bit reserved

	// Second byte bits (RFC 6455, section 5.2).
	maskBit = 1 << 7 // MASK bit indicates payload is masked

	// Masks and length indicators (RFC 6455, section 5.2).
	opcodeMask     = 0x0f // Opcode occupies bits 0-3
	payloadLenMask = 0x7f // Payload length occupies bits 0-6
	payloadLen7Bit = 125  // Largest length the 7-bit field can carry directly
	payloadLen16   = 126  // Indicates 16-bit extended payload length follows
	payloadLen64   = 127  // Indicates 64-bit extended payload length follows

	// Opcode for continuation frame (RFC 6455, section 5.4).
	continuationFrame = 0
)

// Conn represents a WebSocket connection. Reads are not exposed through
// Conn: the transport bytes a connection produces after the handshake are
// fed to a Receiver (see route.go's serveConnection), which does its own
// incremental frame parsing rather than blocking on a reader. Conn's
// remaining duty is the handshake itself, the write-side framing
// (WriteMessage/WriteControl/NextWriter), and exposing whatever buffered
// bytes the HTTP hijack left behind via TransportReader.
type Conn struct {
	rwc            io.ReadWriteCloser // underlying connection
	netConn        net.Conn           // optional, for net.Conn-specific methods
	br             io.Reader          // bytes not yet consumed by the transport loop
	isServer       bool
	subprotocol    string
	id             string // lazily generated, see ConnectionID
	readBufferSize int

	writeMu         sync.Mutex
	writeErr        error
	writeBuf        []byte
	writeFrameType  int
	writeCompress   bool
	writeBufferPool BufferPool

	compressionEnabled bool
	compressionLevel   int
}

func newConn(conn net.Conn, isServer bool, readBufferSize, writeBufferSize int) *Conn {
	return newConnWithPool(conn, isServer, readBufferSize, writeBufferSize, nil)
}

func newConnWithPool(conn net.Conn, isServer bool, readBufferSize, writeBufferSize int, writeBufferPool BufferPool) *Conn {
	return newConnFromRWC(conn, conn, isServer, readBufferSize, writeBufferSize, writeBufferPool)
}

func newConnFromRWC(rwc io.ReadWriteCloser, netConn net.Conn, isServer bool, readBufferSize, writeBufferSize int, writeBufferPool BufferPool) *Conn {
	if readBufferSize <= 0 {
		readBufferSize = defaultReadBufferSize
	}
	if writeBufferSize <= 0 {
		writeBufferSize = defaultWriteBufferSize
	}

	var writeBuf []byte
	if writeBufferPool != nil {
		if buf, ok := writeBufferPool.Get().([]byte); ok && len(buf) >= writeBufferSize+maxFrameHeaderSize {
			writeBuf = buf[:writeBufferSize+maxFrameHeaderSize]
		}
	}
	if writeBuf == nil {
		writeBuf = make([]byte, writeBufferSize+maxFrameHeaderSize)
	}

	var br io.Reader = rwc
	if netConn != nil {
		br = netConn
	}

	c := &Conn{
		rwc:              rwc,
		netConn:          netConn,
		br:               br,
		isServer:         isServer,
		readBufferSize:   readBufferSize,
		writeBuf:         writeBuf,
		writeBufferPool:  writeBufferPool,
		compressionLevel: 1,
	}

	return c
}

// Subprotocol returns the negotiated subprotocol for the connection.
func (c *Conn) Subprotocol() string {
	return c.subprotocol
}

// ConnectionID returns a stable identifier for the connection, generating
// one on first use. It is suitable for correlating log lines and metrics
// across the lifetime of a single connection.
func (c *Conn) ConnectionID() string {
	if c.id == "" {
		c.id = uuid.NewString()
	}
	return c.id
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	// Return write buffer to pool if available.
	if c.writeBufferPool != nil && c.writeBuf != nil {
		c.writeBufferPool.Put(c.writeBuf)
		c.writeBuf = nil
	}
	return c.rwc.Close()
}

// LocalAddr returns the local network address, or nil if not available.
func (c *Conn) LocalAddr() net.Addr {
	if c.netConn != nil {
		return c.netConn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the remote network address, or nil if not available.
func (c *Conn) RemoteAddr() net.Addr {
	if c.netConn != nil {
		return c.netConn.RemoteAddr()
	}
	return nil
}

// UnderlyingConn returns the underlying net.Conn, or nil for HTTP/2 connections.
func (c *Conn) UnderlyingConn() net.Conn {
	return c.netConn
}

// TransportReader returns the source a transport loop should read raw bytes
// from to feed a Receiver. When the connection came from an HTTP hijack
// (server.go's newConnFromBufio) and the hijacked bufio.Reader still held
// bytes the HTTP server read ahead of the handshake (a client that
// pipelines its first frame right after the upgrade request), this is that
// bufio.Reader, so those bytes are not lost; otherwise it is the underlying
// net.Conn, or the raw io.ReadWriteCloser when there is no net.Conn.
func (c *Conn) TransportReader() io.Reader {
	return c.br
}

// TransportBufferSize returns the read buffer size a transport loop should
// allocate, taken from the Upgrader's ReadBufferSize.
func (c *Conn) TransportBufferSize() int {
	if c.readBufferSize <= 0 {
		return defaultReadBufferSize
	}
	return c.readBufferSize
}

// SetReadDeadline sets the read deadline on the underlying network connection.
// Returns nil if the underlying connection does not support deadlines.
func (c *Conn) SetReadDeadline(t time.Time) error {
	if c.netConn != nil {
		return c.netConn.SetReadDeadline(t)
	}
	return nil
}

// SetWriteDeadline sets the write deadline on the underlying network connection.
// Returns nil if the underlying connection does not support deadlines.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	if c.netConn != nil {
		return c.netConn.SetWriteDeadline(t)
	}
	return nil
}

// EnableWriteCompression enables or disables write compression for the connection.
// When enabled and compression is negotiated (RFC 7692), outgoing messages will
// be compressed using the permessage-deflate extension.
func (c *Conn) EnableWriteCompression(enable bool) {
	c.writeCompress = enable
}

// SetCompressionLevel sets the compression level for the connection.
// Valid levels are -2 to 9 (flate package constants).
// Per RFC 7692, compression uses the DEFLATE algorithm.
func (c *Conn) SetCompressionLevel(level int) error {
	if level < -2 || level > 9 {
		return errors.New("websocket: invalid compression level")
	}
	c.compressionLevel = level
	return nil
}

// WriteControl writes a control message with the given deadline.
func (c *Conn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	if messageType != CloseMessage && messageType != PingMessage && messageType != PongMessage {
		return ErrInvalidControlFrame
	}
	if len(data) > maxControlFramePayloadSize {
		return ErrControlFramePayloadTooBig
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}

	if c.netConn != nil {
		_ = c.netConn.SetWriteDeadline(deadline)
	}
	frame := make([]byte, 2+len(data))
	frame[0] = byte(messageType) | finalBit
	frame[1] = byte(len(data))
	if !c.isServer {
		frame[1] |= maskBit
		mask := make([]byte, 4)
		_, _ = io.ReadFull(randReader, mask)
		frame = append(frame[:2], mask...)
		frame = append(frame, data...)
		maskBytes(mask, 0, frame[6:])
	} else {
		copy(frame[2:], data)
	}

	_, err := c.rwc.Write(frame)
	if messageType == CloseMessage {
		c.writeErr = ErrCloseSent
	}
	return err
}

// WriteMessage writes a message with the given message type and payload.
func (c *Conn) WriteMessage(messageType int, data []byte) error {
	if messageType != TextMessage && messageType != BinaryMessage {
		return ErrInvalidMessageType
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}

	compress := c.writeCompress && c.compressionEnabled
	_, err := c.writeFrameWithCompress(messageType, data, true, compress)
	return err
}

// NextWriter returns a writer for the next message to send.
func (c *Conn) NextWriter(messageType int) (io.WriteCloser, error) {
	c.writeMu.Lock()

	if c.writeErr != nil {
		c.writeMu.Unlock()
		return nil, c.writeErr
	}

	c.writeFrameType = messageType
	return &messageWriter{c: c, compress: c.writeCompress && c.compressionEnabled}, nil
}

type messageWriter struct {
	c          *Conn
	compress   bool
	closed     bool
	firstWrite bool
}

func (w *messageWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriteToClosedConnection
	}

	frameType := w.c.writeFrameType
	compress := w.compress && !w.firstWrite
	if !w.firstWrite {
		w.firstWrite = true
	} else {
		frameType = continuationFrame
		compress = false
	}

	return w.c.writeFrameWithCompress(frameType, p, false, compress)
}

func (w *messageWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	frameType := w.c.writeFrameType
	compress := w.compress && !w.firstWrite
	if w.firstWrite {
		frameType = continuationFrame
		compress = false
	}

	_, err := w.c.writeFrameWithCompress(frameType, nil, true, compress)
	w.c.writeFrameType = 0
	w.c.writeMu.Unlock()
	return err
}

// writeFrameWithCompress writes a WebSocket frame per RFC 6455, section 5.2.
// If compress is true, the payload is compressed using DEFLATE (RFC 7692)
// and RSV1 bit is set to indicate permessage-deflate compression.
func (c *Conn) writeFrameWithCompress(frameType int, data []byte, final bool, compress bool) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}

	// Compress payload if requested (RFC 7692 permessage-deflate).
	if compress {
		var err error
		data, err = compressData(data, c.compressionLevel)
		if err != nil {
			return 0, err
		}
	}

	// Use writeBuf for header to reduce allocations.
	// writeBuf has maxFrameHeaderSize bytes at the beginning for the header.

	// First byte: FIN, RSV1, opcode.
	b0 := byte(frameType)
	if final {
		b0 |= finalBit // Set FIN bit for final fragment
	}
	if compress {
		b0 |= rsv1Bit // Set RSV1 for compressed frame (RFC 7692)
	}
	c.writeBuf[0] = b0
	c.writeBuf[1] = 0

	headerLen := encodeLengthHeader(c.writeBuf, uint64(len(data)))

	if !c.isServer {
		c.writeBuf[1] |= maskBit
		_, _ = io.ReadFull(randReader, c.writeBuf[headerLen:headerLen+4])
		mask := c.writeBuf[headerLen : headerLen+4]
		headerLen += 4

		maskedData := make([]byte, len(data))
		copy(maskedData, data)
		maskBytes(mask, 0, maskedData)
		data = maskedData
	}

	// If payload fits in writeBuf after header, use single write.
	if headerLen+len(data) <= len(c.writeBuf) {
		copy(c.writeBuf[headerLen:], data)
		_, err := c.rwc.Write(c.writeBuf[:headerLen+len(data)])
		return len(data), err
	}

	// For large payloads, write header and data separately.
	if _, err := c.rwc.Write(c.writeBuf[:headerLen]); err != nil {
		return 0, err
	}
	_, err := c.rwc.Write(data)
	return len(data), err
}

