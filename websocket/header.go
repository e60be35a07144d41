package websocket

// frameDescriptor is the parsed form of the first two header bytes of a
// WebSocket frame (RFC 6455 §5.2), before the extended length, mask key and
// payload are known.
type frameDescriptor struct {
	fin              bool
	rsv1, rsv2, rsv3 bool
	opcode           int
	masked           bool
	payloadLen       uint64
	mask             [4]byte
}

// parseHeaderBytes decodes byte 0 (FIN/RSV/opcode) and byte 1 (MASK/length)
// of a frame header. extLenBytes is 0 when the 7-bit length field already
// carries the full payload length, or 2/8 when an extended length field of
// that many bytes follows.
func parseHeaderBytes(b0, b1 byte) (d frameDescriptor, extLenBytes int) {
	d.fin = b0&finalBit != 0
	d.rsv1 = b0&rsv1Bit != 0
	d.rsv2 = b0&rsv2Bit != 0
	d.rsv3 = b0&rsv3Bit != 0
	d.opcode = int(b0 & opcodeMask)
	d.masked = b1&maskBit != 0

	len7 := b1 & payloadLenMask
	switch len7 {
	case payloadLen16:
		extLenBytes = 2
	case payloadLen64:
		extLenBytes = 8
	default:
		d.payloadLen = uint64(len7)
	}
	return d, extLenBytes
}

// isControlOpcode reports whether opcode denotes a control frame (close,
// ping, pong), per RFC 6455 §5.5: control opcodes have the high bit of the
// 4-bit opcode field set.
func isControlOpcode(opcode int) bool {
	return opcode >= CloseMessage
}

// isValidOpcode reports whether opcode is one of the six opcodes RFC 6455
// defines; 3-7 and 11-15 are reserved for future extensions and are
// rejected per §5.2.
func isValidOpcode(opcode int) bool {
	switch opcode {
	case continuationFrame, TextMessage, BinaryMessage, CloseMessage, PingMessage, PongMessage:
		return true
	default:
		return false
	}
}
