package websocket

// messageAssembler accumulates the fragments of the data message currently
// in flight on a Receiver. It is nil-safe in the sense that a zero-value
// assembler represents "no message in flight", matching the data model's
// invariant that message_opcode.is_some() iff fragments is non-empty.
type messageAssembler struct {
	active     bool
	opcode     int
	compressed bool
	fragments  [][]byte
}

// start begins assembling a new message carrying opcode, with compressed
// set from the first fragment's rsv1 bit.
func (m *messageAssembler) start(opcode int, compressed bool) {
	m.active = true
	m.opcode = opcode
	m.compressed = compressed
	m.fragments = m.fragments[:0]
}

// append appends a decoded (unmasked) payload fragment to the in-flight
// message.
func (m *messageAssembler) append(payload []byte) {
	if len(payload) == 0 {
		return
	}
	m.fragments = append(m.fragments, payload)
}

// finish concatenates the accumulated fragments and clears the in-flight
// state. The caller is responsible for running the result through the
// deflate collaborator first when m.compressed is true, since that
// decompression step must happen before finish clears m.fragments.
func (m *messageAssembler) finish() (opcode int, payload []byte) {
	opcode = m.opcode
	switch len(m.fragments) {
	case 0:
		payload = nil
	case 1:
		payload = m.fragments[0]
	default:
		total := 0
		for _, f := range m.fragments {
			total += len(f)
		}
		payload = make([]byte, 0, total)
		for _, f := range m.fragments {
			payload = append(payload, f...)
		}
	}
	m.active = false
	m.opcode = 0
	m.compressed = false
	m.fragments = nil
	return opcode, payload
}
